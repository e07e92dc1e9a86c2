package repository

import (
	"context"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/storage"
)

type ProductRepository struct {
	storage.Table[model.Product]
}

func (r *ProductRepository) FindByRoaster(ctx context.Context, roasterID int) ([]model.Product, error) {
	return filter(ctx, r.Table, func(product model.Product) bool {
		return product.RoasterID != nil && *product.RoasterID == roasterID
	})
}

type BatchRepository struct {
	storage.Table[model.Batch]
}

func (r *BatchRepository) FindByProduct(ctx context.Context, productID int) ([]model.Batch, error) {
	return filter(ctx, r.Table, func(batch model.Batch) bool {
		return batch.ProductID == productID
	})
}

func (r *BatchRepository) DeleteByProduct(ctx context.Context, productID int) (int, error) {
	return storage.DeleteWhere(ctx, r.Table, func(batch model.Batch) bool {
		return batch.ProductID == productID
	})
}

type BrewSessionRepository struct {
	storage.Table[model.BrewSession]
}

func (r *BrewSessionRepository) FindByProduct(ctx context.Context, productID int) ([]model.BrewSession, error) {
	return filter(ctx, r.Table, func(session model.BrewSession) bool {
		return session.ProductID == productID
	})
}

func (r *BrewSessionRepository) FindByBatch(ctx context.Context, batchID int) ([]model.BrewSession, error) {
	return filter(ctx, r.Table, func(session model.BrewSession) bool {
		return session.ProductBatchID == batchID
	})
}

// MoveBatch points every session of batchID at productID in one table write and
// reports how many sessions changed.
func (r *BrewSessionRepository) MoveBatch(ctx context.Context, batchID, productID int) (int, error) {
	moved := 0

	_, err := r.Rewrite(ctx, func(rows []model.BrewSession) ([]model.BrewSession, error) {
		for index := range rows {
			if rows[index].ProductBatchID == batchID && rows[index].ProductID != productID {
				rows[index].ProductID = productID
				moved++
			}
		}

		return rows, nil
	})
	if err != nil {
		return 0, err
	}

	return moved, nil
}

func (r *BrewSessionRepository) DeleteByProduct(ctx context.Context, productID int) (int, error) {
	return storage.DeleteWhere(ctx, r.Table, func(session model.BrewSession) bool {
		return session.ProductID == productID
	})
}

func (r *BrewSessionRepository) DeleteByBatch(ctx context.Context, batchID int) (int, error) {
	return storage.DeleteWhere(ctx, r.Table, func(session model.BrewSession) bool {
		return session.ProductBatchID == batchID
	})
}

func filter[T any](ctx context.Context, table storage.Table[T], keep func(T) bool) ([]T, error) {
	rows, err := table.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]T, 0, len(rows))

	for _, row := range rows {
		if keep(row) {
			matched = append(matched, row)
		}
	}

	return matched, nil
}
