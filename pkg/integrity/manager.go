// Package integrity reports and repairs references from products and brew
// sessions to lookup records. Lookup records may be deleted while still in
// use; callers check Usage or call UpdateReferences first.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/repository"
	"droscher.com/BeanJournal/pkg/storage"
)

var ErrInvalidAction = errors.New("invalid action")

type Action string

const (
	ActionRemove  Action = "remove"
	ActionReplace Action = "replace"
)

func ParseAction(value string) (Action, error) {
	switch action := Action(value); action {
	case ActionRemove, ActionReplace:
		return action, nil
	default:
		return "", fmt.Errorf("%w: %q, expected remove or replace", ErrInvalidAction, value)
	}
}

type Manager struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewManager(repo *repository.Repository, logger *zap.Logger) *Manager {
	return &Manager{repo: repo, logger: logger}
}

func (m *Manager) find(ctx context.Context, kind model.LookupKind, id int) (*model.Lookup, error) {
	table := m.repo.Lookup(kind)
	if table == nil {
		return nil, fmt.Errorf("%w: lookup kind %s", repository.ErrNotFound, kind)
	}

	return table.FindByID(ctx, id)
}

// Usage counts the entities referencing the lookup record. An entity with
// several matching fields counts once.
func (m *Manager) Usage(ctx context.Context, kind model.LookupKind, id int) (*model.Usage, error) {
	lookup, err := m.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if lookup == nil {
		return nil, fmt.Errorf("%w: %s %d", repository.ErrNotFound, kind.Singular(), id)
	}

	var count int

	if kind.UsedByProducts() {
		products, err := m.repo.Products.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		count = countReferences(products, productReferences[kind], id)
	} else {
		sessions, err := m.repo.BrewSessions.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		count = countReferences(sessions, sessionReferences[kind], id)
	}

	return &model.Usage{InUse: count > 0, UsageCount: count, UsageType: kind.UsageType()}, nil
}

// UpdateReferences removes or repoints every reference to the lookup record in
// one write of the dependent table. A replacement that does not exist updates
// nothing.
func (m *Manager) UpdateReferences(
	ctx context.Context, kind model.LookupKind, id int, action Action, replacementID *int,
) (*model.ReferenceUpdate, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}

	lookup, err := m.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if lookup == nil {
		return nil, fmt.Errorf("%w: %s %d", repository.ErrNotFound, kind.Singular(), id)
	}

	replacement := 0

	if action == ActionReplace {
		if replacementID == nil {
			return &model.ReferenceUpdate{}, nil
		}

		target, err := m.find(ctx, kind, *replacementID)
		if err != nil {
			return nil, err
		}

		if target == nil {
			m.logger.Info("replacement lookup not found",
				zap.String("kind", string(kind)), zap.Int("replacement_id", *replacementID))

			return &model.ReferenceUpdate{}, nil
		}

		replacement = target.ID
	}

	var updated int

	if kind.UsedByProducts() {
		updated, err = rewriteReferences(ctx, m.repo.Products, productReferences[kind], id, action, replacement)
	} else {
		updated, err = rewriteReferences(ctx, m.repo.BrewSessions, sessionReferences[kind], id, action, replacement)
	}

	if err != nil {
		return nil, err
	}

	m.logger.Info("updated lookup references",
		zap.String("kind", string(kind)),
		zap.Int("id", id),
		zap.String("action", string(action)),
		zap.Int("updated", updated))

	return &model.ReferenceUpdate{UpdatedCount: updated}, nil
}

func rewriteReferences[T any](
	ctx context.Context, table storage.Table[T], fields []reference[T], id int, action Action, replacement int,
) (int, error) {
	updated := 0

	_, err := table.Rewrite(ctx, func(rows []T) ([]T, error) {
		for index := range rows {
			changed := false

			for _, field := range fields {
				if action == ActionRemove {
					changed = field.remove(&rows[index], id) || changed
				} else {
					changed = field.replace(&rows[index], id, replacement) || changed
				}
			}

			if changed {
				updated++
			}
		}

		return rows, nil
	})
	if err != nil {
		return 0, err
	}

	return updated, nil
}

// UsageEvents lists one event per referencing entity and referenced record.
func (m *Manager) UsageEvents(ctx context.Context, kind model.LookupKind) ([]repository.UsageEvent, error) {
	if kind.UsedByProducts() {
		products, err := m.repo.Products.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		return usageEvents(products, productReferences[kind]), nil
	}

	sessions, err := m.repo.BrewSessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return usageEvents(sessions, sessionReferences[kind]), nil
}

func usageEvents[T any, P storage.Entity[T]](rows []T, fields []reference[T]) []repository.UsageEvent {
	var events []repository.UsageEvent

	for index := range rows {
		created := P(&rows[index]).GetBase().CreatedAt.Time

		for _, id := range referencedIDs(&rows[index], fields) {
			events = append(events, repository.UsageEvent{LookupID: id, CreatedAt: created})
		}
	}

	return events
}

const gramsPerKilo = 1000.0

// GrinderStats sums the coffee ground on a grinder. Sessions without an
// amount count as brews but add no grams. An unknown grinder has no usage.
func (m *Manager) GrinderStats(ctx context.Context, grinderID int) (*model.GrinderStats, error) {
	grinder, err := m.find(ctx, model.Grinder, grinderID)
	if err != nil {
		return nil, err
	}

	stats := &model.GrinderStats{}
	if grinder == nil {
		return stats, nil
	}

	sessions, err := m.repo.BrewSessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, session := range sessions {
		if session.GrinderID == nil || *session.GrinderID != grinderID {
			continue
		}

		stats.TotalBrews++

		if session.AmountCoffeeGrams != nil && *session.AmountCoffeeGrams > 0 {
			stats.TotalGramsGround += *session.AmountCoffeeGrams
		}
	}

	if grinder.ManuallyGroundGrams != nil {
		stats.ManuallyGroundGrams = *grinder.ManuallyGroundGrams
	}

	stats.TotalGramsWithManual = stats.TotalGramsGround + stats.ManuallyGroundGrams

	if stats.TotalGramsWithManual >= gramsPerKilo {
		stats.TotalKilos = math.Round(stats.TotalGramsWithManual/gramsPerKilo*10) / 10
	}

	return stats, nil
}
