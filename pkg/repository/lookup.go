package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/storage"
)

var ErrEmptyName = errors.New("lookup name is empty")

// LookupRepository serves one lookup table. Name matching trims and ignores
// case, short forms match exactly.
type LookupRepository struct {
	storage.Table[model.Lookup]
	kind   model.LookupKind
	clock  storage.Clock
	logger *zap.Logger
}

func (r *LookupRepository) Kind() model.LookupKind {
	return r.kind
}

func (r *LookupRepository) FindByName(ctx context.Context, name string) (*model.Lookup, error) {
	return r.findFirst(ctx, func(rows []model.Lookup) int {
		return indexByName(rows, name)
	})
}

func (r *LookupRepository) FindByShortForm(ctx context.Context, code string) (*model.Lookup, error) {
	return r.findFirst(ctx, func(rows []model.Lookup) int {
		return indexByShortForm(rows, code)
	})
}

func (r *LookupRepository) FindByNameOrShortForm(ctx context.Context, identifier string) (*model.Lookup, error) {
	return r.findFirst(ctx, func(rows []model.Lookup) int {
		return indexByNameOrShortForm(rows, identifier)
	})
}

func (r *LookupRepository) findFirst(ctx context.Context, locate func([]model.Lookup) int) (*model.Lookup, error) {
	rows, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if index := locate(rows); index >= 0 {
		return &rows[index], nil
	}

	return nil, nil //nolint:nilnil // a missing record is not an error
}

// GetOrCreate returns the record named name, creating it from extra when the
// table has none. Matching and creation share one table write.
func (r *LookupRepository) GetOrCreate(ctx context.Context, name string, extra model.Lookup) (*model.Lookup, error) {
	name = strings.TrimSpace(name)

	return r.getOrCreate(ctx, name, extra, func(rows []model.Lookup) int {
		return indexByName(rows, name)
	})
}

// GetOrCreateByIdentifier matches identifier against names and then short
// forms, and creates a record named identifier on a miss.
func (r *LookupRepository) GetOrCreateByIdentifier(ctx context.Context, identifier string, extra model.Lookup) (*model.Lookup, error) {
	identifier = strings.TrimSpace(identifier)

	return r.getOrCreate(ctx, identifier, extra, func(rows []model.Lookup) int {
		return indexByNameOrShortForm(rows, identifier)
	})
}

func (r *LookupRepository) getOrCreate(
	ctx context.Context, name string, extra model.Lookup, locate func([]model.Lookup) int,
) (*model.Lookup, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyName, r.kind.Singular())
	}

	index, created := -1, false

	rows, err := r.Rewrite(ctx, func(rows []model.Lookup) ([]model.Lookup, error) {
		if index = locate(rows); index >= 0 {
			return rows, nil
		}

		created = true

		record := extra
		record.Base = model.Base{}
		record.Name = name

		if record.IsDefault {
			clearDefaults(rows)
		}

		index = len(rows)

		return append(rows, record), nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		r.logger.Info("created lookup", zap.String("kind", string(r.kind)), zap.String("name", name))
	}

	found := rows[index]

	return &found, nil
}

// Search matches query as a case-insensitive substring of name or short form.
// An empty query matches nothing.
func (r *LookupRepository) Search(ctx context.Context, query string) ([]model.Lookup, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []model.Lookup{}, nil
	}

	return filter(ctx, r.Table, func(row model.Lookup) bool {
		return strings.Contains(strings.ToLower(row.Name), query) ||
			strings.Contains(strings.ToLower(row.ShortForm), query)
	})
}

// Create stores a new record. A record flagged as default takes the flag from
// every other record in the same write.
func (r *LookupRepository) Create(ctx context.Context, record model.Lookup) (*model.Lookup, error) {
	if !record.IsDefault {
		return r.Table.Create(ctx, record)
	}

	rows, err := r.Rewrite(ctx, func(rows []model.Lookup) ([]model.Lookup, error) {
		clearDefaults(rows)
		record.Base = model.Base{}

		return append(rows, record), nil
	})
	if err != nil {
		return nil, err
	}

	created := rows[len(rows)-1]

	return &created, nil
}

// Update replaces the record with id, nil when there is none. Like Create it
// keeps the default flag exclusive.
func (r *LookupRepository) Update(ctx context.Context, id int, record model.Lookup) (*model.Lookup, error) {
	if !record.IsDefault {
		return r.Table.Update(ctx, id, record)
	}

	updated, err := r.rewriteOne(ctx, id, func(rows []model.Lookup, index int) {
		clearDefaults(rows)
		record.Base = rows[index].Base
		rows[index] = record
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil //nolint:nilnil // a missing record is not an error
	}

	return updated, err
}

func (r *LookupRepository) FindDefault(ctx context.Context) (*model.Lookup, error) {
	return r.findFirst(ctx, func(rows []model.Lookup) int {
		for index := range rows {
			if rows[index].IsDefault {
				return index
			}
		}

		return -1
	})
}

// SetDefault flags id as the table's default and clears every other record.
func (r *LookupRepository) SetDefault(ctx context.Context, id int) (*model.Lookup, error) {
	return r.rewriteOne(ctx, id, func(rows []model.Lookup, index int) {
		clearDefaults(rows)
		rows[index].IsDefault = true
	})
}

func (r *LookupRepository) ClearDefault(ctx context.Context, id int) (*model.Lookup, error) {
	return r.rewriteOne(ctx, id, func(rows []model.Lookup, index int) {
		rows[index].IsDefault = false
	})
}

// rewriteOne applies change to the record with id inside one table write and
// returns it as stored. ErrNotFound when id does not exist.
func (r *LookupRepository) rewriteOne(
	ctx context.Context, id int, change func(rows []model.Lookup, index int),
) (*model.Lookup, error) {
	index := -1

	rows, err := r.Rewrite(ctx, func(rows []model.Lookup) ([]model.Lookup, error) {
		for i := range rows {
			if rows[i].ID == id {
				index = i

				break
			}
		}

		if index < 0 {
			return nil, fmt.Errorf("%w: %s %d", ErrNotFound, r.kind.Singular(), id)
		}

		change(rows, index)

		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	found := rows[index]

	return &found, nil
}

func clearDefaults(rows []model.Lookup) {
	for index := range rows {
		rows[index].IsDefault = false
	}
}

func indexByName(rows []model.Lookup, name string) int {
	for index := range rows {
		if rows[index].HasName(name) {
			return index
		}
	}

	return -1
}

func indexByShortForm(rows []model.Lookup, code string) int {
	for index := range rows {
		if rows[index].HasShortForm(code) {
			return index
		}
	}

	return -1
}

func indexByNameOrShortForm(rows []model.Lookup, identifier string) int {
	if index := indexByName(rows, identifier); index >= 0 {
		return index
	}

	return indexByShortForm(rows, identifier)
}
