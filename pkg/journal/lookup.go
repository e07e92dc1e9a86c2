package journal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/integrity"
	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/repository"
)

func (s *Service) lookups(kind model.LookupKind) (*repository.LookupRepository, error) {
	table := s.repo.Lookup(kind)
	if table == nil {
		return nil, fmt.Errorf("%w: lookup kind %s", ErrNotFound, kind)
	}

	return table, nil
}

func (s *Service) ListLookups(ctx context.Context, kind model.LookupKind) ([]model.Lookup, error) {
	table, err := s.lookups(kind)
	if err != nil {
		return nil, err
	}

	return table.FindAll(ctx)
}

func (s *Service) SearchLookups(ctx context.Context, kind model.LookupKind, query string) ([]model.Lookup, error) {
	table, err := s.lookups(kind)
	if err != nil {
		return nil, err
	}

	return table.Search(ctx, query)
}

func (s *Service) GetLookup(ctx context.Context, kind model.LookupKind, id int) (*model.Lookup, error) {
	table, err := s.lookups(kind)
	if err != nil {
		return nil, err
	}

	found, err := table.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, notFound(kind.Singular(), id)
	}

	return found, nil
}

func (s *Service) CreateLookup(ctx context.Context, kind model.LookupKind, record model.Lookup) (*model.Lookup, error) {
	table, err := s.lookups(kind)
	if err != nil {
		return nil, err
	}

	if err := s.checkLookup(record.Name, record); err != nil {
		return nil, err
	}

	created, err := table.Create(ctx, normalizeLookup(record))
	if err != nil {
		return nil, err
	}

	s.logger.Info("created lookup", zap.String("kind", string(kind)), zap.Int("id", created.ID))

	return created, nil
}

// UpdateLookup replaces the stored record. A blank name keeps the stored one.
func (s *Service) UpdateLookup(ctx context.Context, kind model.LookupKind, id int, record model.Lookup) (*model.Lookup, error) {
	existing, err := s.GetLookup(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(record.Name) == "" {
		record.Name = existing.Name
	}

	if err := s.checkLookup(record.Name, record); err != nil {
		return nil, err
	}

	table, err := s.lookups(kind)
	if err != nil {
		return nil, err
	}

	updated, err := table.Update(ctx, id, normalizeLookup(record))
	if err != nil {
		return nil, err
	}

	if updated == nil {
		return nil, notFound(kind.Singular(), id)
	}

	return updated, nil
}

// DeleteLookup removes the record and leaves references to it in place.
func (s *Service) DeleteLookup(ctx context.Context, kind model.LookupKind, id int) error {
	table, err := s.lookups(kind)
	if err != nil {
		return err
	}

	deleted, err := table.Delete(ctx, id)
	if err != nil {
		return err
	}

	if !deleted {
		return notFound(kind.Singular(), id)
	}

	s.logger.Info("deleted lookup", zap.String("kind", string(kind)), zap.Int("id", id))

	return nil
}

func (s *Service) DefaultLookup(ctx context.Context, kind model.LookupKind) (*model.Lookup, error) {
	table, err := s.lookups(kind)
	if err != nil {
		return nil, err
	}

	found, err := table.FindDefault(ctx)
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, fmt.Errorf("%w: no default %s set", ErrNotFound, kind.Singular())
	}

	return found, nil
}

// SmartDefault suggests a record from the manual default or recent usage.
func (s *Service) SmartDefault(ctx context.Context, kind model.LookupKind) (*model.Lookup, error) {
	table, err := s.lookups(kind)
	if err != nil {
		return nil, err
	}

	found, err := table.SmartDefault(ctx, s.integrity)
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, fmt.Errorf("%w: no %s available", ErrNotFound, kind.Singular())
	}

	return found, nil
}

func (s *Service) SetDefault(ctx context.Context, kind model.LookupKind, id int) (*model.Lookup, error) {
	table, err := s.lookups(kind)
	if err != nil {
		return nil, err
	}

	return table.SetDefault(ctx, id)
}

func (s *Service) ClearDefault(ctx context.Context, kind model.LookupKind, id int) (*model.Lookup, error) {
	table, err := s.lookups(kind)
	if err != nil {
		return nil, err
	}

	return table.ClearDefault(ctx, id)
}

func (s *Service) Usage(ctx context.Context, kind model.LookupKind, id int) (*model.Usage, error) {
	return s.integrity.Usage(ctx, kind, id)
}

func (s *Service) UpdateReferences(
	ctx context.Context, kind model.LookupKind, id int, action string, replacementID *int,
) (*model.ReferenceUpdate, error) {
	parsed, err := integrity.ParseAction(action)
	if err != nil {
		return nil, newValidationError(err.Error())
	}

	return s.integrity.UpdateReferences(ctx, kind, id, parsed, replacementID)
}

func (s *Service) GrinderStats(ctx context.Context, grinderID int) (*model.GrinderStats, error) {
	if _, err := s.GetLookup(ctx, model.Grinder, grinderID); err != nil {
		return nil, err
	}

	return s.integrity.GrinderStats(ctx, grinderID)
}
