package lookup

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/repository"
)

var ErrUnknownKind = errors.New("unknown lookup kind")

type Resolver struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewResolver(repo *repository.Repository, logger *zap.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

func (r *Resolver) table(kind model.LookupKind) (*repository.LookupRepository, error) {
	table := r.repo.Lookup(kind)
	if table == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	return table, nil
}

// Resolve returns the record ref points at, creating it when ref names one
// that does not exist yet. An unset ref, or an unknown id without a name,
// resolves to nil.
func (r *Resolver) Resolve(ctx context.Context, kind model.LookupKind, ref Ref) (*model.Lookup, error) {
	table, err := r.table(kind)
	if err != nil {
		return nil, err
	}

	switch ref.kind {
	case refID:
		found, err := table.FindByID(ctx, ref.id)
		if err != nil || found != nil {
			return found, err
		}

		if strings.TrimSpace(ref.name) == "" {
			r.logger.Debug("unresolved lookup id", zap.String("kind", string(kind)), zap.Int("id", ref.id))

			return nil, nil //nolint:nilnil // an unknown id leaves the field unset
		}

		return table.GetOrCreate(ctx, ref.name, model.Lookup{})
	case refName:
		return table.GetOrCreate(ctx, ref.name, model.Lookup{})
	case refIdentifier:
		return table.GetOrCreateByIdentifier(ctx, ref.name, model.Lookup{})
	default:
		return nil, nil //nolint:nilnil // an unset reference resolves to nothing
	}
}

// ResolveID is Resolve reduced to the id stored on entities.
func (r *Resolver) ResolveID(ctx context.Context, kind model.LookupKind, ref Ref) (*int, error) {
	found, err := r.Resolve(ctx, kind, ref)
	if err != nil || found == nil {
		return nil, err
	}

	id := found.ID

	return &id, nil
}

// ResolveMany resolves a multi-valued field. Existing ids come first, unknown
// ids are skipped, then names are resolved through get-or-create unless an
// already resolved record carries the same name. Each record appears once.
func (r *Resolver) ResolveMany(ctx context.Context, kind model.LookupKind, ids []int, names []string) ([]model.Lookup, error) {
	table, err := r.table(kind)
	if err != nil {
		return nil, err
	}

	resolved := make([]model.Lookup, 0, len(ids)+len(names))

	for _, id := range ids {
		if id == 0 {
			continue
		}

		found, err := table.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if found != nil && !containsID(resolved, found.ID) {
			resolved = append(resolved, *found)
		}
	}

	for _, name := range names {
		if strings.TrimSpace(name) == "" || containsName(resolved, name) {
			continue
		}

		found, err := table.GetOrCreate(ctx, name, model.Lookup{})
		if err != nil {
			return nil, err
		}

		if !containsID(resolved, found.ID) {
			resolved = append(resolved, *found)
		}
	}

	return resolved, nil
}

func containsName(lookups []model.Lookup, name string) bool {
	for _, lookup := range lookups {
		if lookup.Name == name {
			return true
		}
	}

	return false
}

func containsID(lookups []model.Lookup, id int) bool {
	return slices.ContainsFunc(lookups, func(lookup model.Lookup) bool {
		return lookup.ID == id
	})
}

func IDs(lookups []model.Lookup) model.IDList {
	ids := make(model.IDList, 0, len(lookups))
	for _, lookup := range lookups {
		ids = append(ids, lookup.ID)
	}

	return ids
}
