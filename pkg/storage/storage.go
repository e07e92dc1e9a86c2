// Package storage defines the persistence contract shared by every table
// backend: whole-table reads, replace-by-id writes and sequential ids.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/tiendc/go-deepcopy"

	"droscher.com/BeanJournal/pkg/model"
)

var ErrCorrupt = errors.New("table data is corrupt")

type Record interface {
	GetBase() *model.Base
}

// Entity constrains a table's value type so the backend can reach its audit fields.
type Entity[T any] interface {
	*T
	Record
}

// Table is the persistence provider for a single entity or lookup table.
// Finders return nil with a nil error when the record does not exist.
type Table[T any] interface {
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id int) (*T, error)
	Create(ctx context.Context, record T) (*T, error)
	Update(ctx context.Context, id int, record T) (*T, error)
	Delete(ctx context.Context, id int) (bool, error)
	// Rewrite runs mutate against the full table and persists the result in one
	// critical section. Rows with a zero id are created, rows that disappear are
	// deleted and rows that differ from their previous state get a fresh
	// updated_at. It returns the rows as stored.
	Rewrite(ctx context.Context, mutate func(rows []T) ([]T, error)) ([]T, error)
}

type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// Changes describes what a Rewrite has to persist, as indexes into the new rows
// (Created, Updated) and ids of the removed rows (Deleted).
type Changes struct {
	Created []int
	Updated []int
	Deleted []int
}

func (c Changes) Empty() bool {
	return len(c.Created) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// Reconcile compares the table before and after a mutation and stamps audit
// fields on the new rows. When assignIDs is set, created rows get the next
// sequential ids, otherwise the backend is expected to assign them.
func Reconcile[T any, P Entity[T]](before, after []T, now time.Time, assignIDs bool) Changes {
	var changes Changes

	previous := make(map[int]T, len(before))
	for _, row := range before {
		previous[P(&row).GetBase().ID] = row
	}

	nextID := NextID[T, P](before)
	if candidate := NextID[T, P](after); candidate > nextID {
		nextID = candidate
	}

	stamp := model.NewTimestamp(now)
	seen := make(map[int]bool, len(after))

	for index := range after {
		base := P(&after[index]).GetBase()

		old, existed := previous[base.ID]
		if base.ID == 0 || !existed {
			if assignIDs && base.ID == 0 {
				base.ID = nextID
				nextID++
			}

			base.CreatedAt = stamp
			base.UpdatedAt = stamp
			changes.Created = append(changes.Created, index)

			continue
		}

		seen[base.ID] = true
		oldBase := P(&old).GetBase()
		base.CreatedAt = oldBase.CreatedAt
		base.UpdatedAt = oldBase.UpdatedAt

		if !sameEncoding(old, after[index]) {
			base.UpdatedAt = stamp
			changes.Updated = append(changes.Updated, index)
		}
	}

	for _, row := range before {
		if id := P(&row).GetBase().ID; !seen[id] {
			changes.Deleted = append(changes.Deleted, id)
		}
	}

	return changes
}

// DeleteWhere removes every row matching match in one Rewrite and reports how many went.
func DeleteWhere[T any](ctx context.Context, table Table[T], match func(T) bool) (int, error) {
	removed := 0

	_, err := table.Rewrite(ctx, func(rows []T) ([]T, error) {
		kept := rows[:0]

		for _, row := range rows {
			if match(row) {
				removed++

				continue
			}

			kept = append(kept, row)
		}

		return kept, nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// NextID is max(id) + 1, or 1 for an empty table.
func NextID[T any, P Entity[T]](rows []T) int {
	maxID := 0

	for index := range rows {
		if id := P(&rows[index]).GetBase().ID; id > maxID {
			maxID = id
		}
	}

	return maxID + 1
}

// Snapshot returns an independent copy of rows, so a mutation cannot reach the
// previous state through shared pointers or slices.
func Snapshot[T any](rows []T) ([]T, error) {
	var copied []T
	if err := deepcopy.Copy(&copied, rows); err != nil {
		return nil, fmt.Errorf("failed to copy rows: %w", err)
	}

	return copied, nil
}

func sameEncoding(a, b any) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}

	right, err := json.Marshal(b)
	if err != nil {
		return false
	}

	return bytes.Equal(left, right)
}
