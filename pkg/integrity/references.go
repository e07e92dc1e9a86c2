package integrity

import (
	"slices"

	"droscher.com/BeanJournal/pkg/model"
)

// reference is one field of T that can point at a lookup record, either a
// single optional id or a list of ids.
type reference[T any] struct {
	scalar func(*T) **int
	list   func(*T) *model.IDList
}

func (r reference[T]) ids(row *T) []int {
	if r.scalar != nil {
		if id := *r.scalar(row); id != nil {
			return []int{*id}
		}

		return nil
	}

	return *r.list(row)
}

func (r reference[T]) remove(row *T, id int) bool {
	if r.scalar != nil {
		field := r.scalar(row)
		if *field == nil || **field != id {
			return false
		}

		*field = nil

		return true
	}

	field := r.list(row)
	if !field.Contains(id) {
		return false
	}

	*field = slices.DeleteFunc(slices.Clone(*field), func(member int) bool { return member == id })

	return true
}

// replace points the field at replacement instead of id. A list that already
// holds replacement just loses id.
func (r reference[T]) replace(row *T, id, replacement int) bool {
	if r.scalar != nil {
		field := r.scalar(row)
		if *field == nil || **field != id {
			return false
		}

		*field = &replacement

		return true
	}

	field := r.list(row)
	if !field.Contains(id) {
		return false
	}

	updated := make(model.IDList, 0, len(*field))

	for _, member := range *field {
		if member == id {
			member = replacement
		}

		if !updated.Contains(member) {
			updated = append(updated, member)
		}
	}

	*field = updated

	return true
}

func scalarField[T any](field func(*T) **int) reference[T] {
	return reference[T]{scalar: field}
}

func listField[T any](field func(*T) *model.IDList) reference[T] {
	return reference[T]{list: field}
}

var productReferences = map[model.LookupKind][]reference[model.Product]{
	model.Roaster: {
		scalarField(func(p *model.Product) **int { return &p.RoasterID }),
	},
	model.BeanType: {
		listField(func(p *model.Product) *model.IDList { return &p.BeanTypeID }),
	},
	model.Country: {
		scalarField(func(p *model.Product) **int { return &p.CountryID }),
		listField(func(p *model.Product) *model.IDList { return &p.RegionID }),
	},
	model.DecafMethod: {
		scalarField(func(p *model.Product) **int { return &p.DecafMethodID }),
	},
}

var sessionReferences = map[model.LookupKind][]reference[model.BrewSession]{
	model.BrewMethod: {scalarField(func(s *model.BrewSession) **int { return &s.BrewMethodID })},
	model.Recipe:     {scalarField(func(s *model.BrewSession) **int { return &s.RecipeID })},
	model.Grinder:    {scalarField(func(s *model.BrewSession) **int { return &s.GrinderID })},
	model.Filter:     {scalarField(func(s *model.BrewSession) **int { return &s.FilterID })},
	model.Kettle:     {scalarField(func(s *model.BrewSession) **int { return &s.KettleID })},
	model.Scale:      {scalarField(func(s *model.BrewSession) **int { return &s.ScaleID })},
}

func referencedIDs[T any](row *T, fields []reference[T]) []int {
	var ids []int

	for _, field := range fields {
		for _, id := range field.ids(row) {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}

	return ids
}

func countReferences[T any](rows []T, fields []reference[T], id int) int {
	count := 0

	for index := range rows {
		if slices.Contains(referencedIDs(&rows[index], fields), id) {
			count++
		}
	}

	return count
}
