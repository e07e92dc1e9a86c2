// Package sqlstore implements the table contract on top of gorm, one SQL
// table per journal table.
package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"droscher.com/BeanJournal/pkg/storage"
)

type Table[T any, P storage.Entity[T]] struct {
	db    *gorm.DB
	name  string
	clock storage.Clock
}

func New[T any, P storage.Entity[T]](db *gorm.DB, name string, clock storage.Clock) *Table[T, P] {
	if clock == nil {
		clock = storage.SystemClock
	}

	return &Table[T, P]{db: db, name: name, clock: clock}
}

func (t *Table[T, P]) query(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).Table(t.name)
}

func (t *Table[T, P]) FindAll(ctx context.Context) ([]T, error) {
	var rows []T

	if err := t.query(ctx, t.db).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []T{}
	}

	return rows, nil
}

func (t *Table[T, P]) FindByID(ctx context.Context, id int) (*T, error) {
	return t.findByID(ctx, t.db, id)
}

func (t *Table[T, P]) findByID(ctx context.Context, db *gorm.DB, id int) (*T, error) {
	var row T

	err := t.query(ctx, db).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil //nolint:nilnil // a missing record is not an error
	}

	if err != nil {
		return nil, err
	}

	return &row, nil
}

func (t *Table[T, P]) Create(ctx context.Context, record T) (*T, error) {
	now := t.clock()
	base := P(&record).GetBase()
	base.ID = 0
	base.CreatedAt.Time = now
	base.UpdatedAt.Time = now

	if err := t.query(ctx, t.db).Create(&record).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

func (t *Table[T, P]) Update(ctx context.Context, id int, record T) (*T, error) {
	var updated *T

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := t.findByID(ctx, tx, id)
		if err != nil || existing == nil {
			return err
		}

		base := P(&record).GetBase()
		base.ID = id
		base.CreatedAt = P(existing).GetBase().CreatedAt
		base.UpdatedAt.Time = t.clock()

		if err := t.query(ctx, tx).Save(&record).Error; err != nil {
			return err
		}

		updated = &record

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (t *Table[T, P]) Delete(ctx context.Context, id int) (bool, error) {
	result := t.query(ctx, t.db).Delete(P(new(T)), id)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (t *Table[T, P]) Rewrite(ctx context.Context, mutate func(rows []T) ([]T, error)) ([]T, error) {
	var after []T

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before []T
		if err := t.query(ctx, tx).Order("id").Find(&before).Error; err != nil {
			return err
		}

		working, err := storage.Snapshot(before)
		if err != nil {
			return err
		}

		after, err = mutate(working)
		if err != nil {
			return err
		}

		changes := storage.Reconcile[T, P](before, after, t.clock(), false)

		for _, index := range changes.Created {
			if err := t.query(ctx, tx).Create(&after[index]).Error; err != nil {
				return err
			}
		}

		for _, index := range changes.Updated {
			if err := t.query(ctx, tx).Save(&after[index]).Error; err != nil {
				return err
			}
		}

		if len(changes.Deleted) > 0 {
			if err := t.query(ctx, tx).Delete(P(new(T)), changes.Deleted).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return after, nil
}
