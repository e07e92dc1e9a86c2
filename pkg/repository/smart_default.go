package repository

import (
	"context"
	"time"

	"droscher.com/BeanJournal/pkg/model"
)

// UsageEvent is one entity referencing a lookup record.
type UsageEvent struct {
	LookupID  int
	CreatedAt time.Time
}

type UsageSource interface {
	UsageEvents(ctx context.Context, kind model.LookupKind) ([]UsageEvent, error)
}

// SmartDefault returns the manual default when one is set. Otherwise records
// are scored by how often and how recently entities referenced them, using the
// kind's policy. Ties keep table order and an all zero score picks the first
// record.
func (r *LookupRepository) SmartDefault(ctx context.Context, usage UsageSource) (*model.Lookup, error) {
	rows, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	for index := range rows {
		if rows[index].IsDefault {
			return &rows[index], nil
		}
	}

	switch len(rows) {
	case 0:
		return nil, nil //nolint:nilnil // an empty table has no default
	case 1:
		return &rows[0], nil
	}

	var events []UsageEvent
	if usage != nil {
		if events, err = usage.UsageEvents(ctx, r.kind); err != nil {
			return nil, err
		}
	}

	scores := scoreUsage(events, r.kind.SmartDefaultPolicy(), r.clock())

	best, bestScore := 0, 0.0

	for index := range rows {
		if score := scores[rows[index].ID]; score > bestScore {
			best, bestScore = index, score
		}
	}

	return &rows[best], nil
}

func scoreUsage(events []UsageEvent, policy model.SmartDefaultPolicy, now time.Time) map[int]float64 {
	counts := make(map[int]int)
	latest := make(map[int]time.Time)

	for _, event := range events {
		counts[event.LookupID]++

		if event.CreatedAt.After(latest[event.LookupID]) {
			latest[event.LookupID] = event.CreatedAt
		}
	}

	window := policy.Window.Hours() / 24
	scores := make(map[int]float64, len(counts))

	for id, count := range counts {
		recency := 0.0

		if created := latest[id]; !created.IsZero() && window > 0 {
			days := now.Sub(created).Hours() / 24
			recency = max(0, 1-days/window)
		}

		scores[id] = float64(count)*policy.FrequencyWeight + recency*policy.RecencyWeight
	}

	return scores
}
