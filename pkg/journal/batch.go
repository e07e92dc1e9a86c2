package journal

import (
	"context"

	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/model"
)

// BatchInput is a batch as submitted by a client. ProductID is only read on
// update, where it moves the batch to another product.
type BatchInput struct {
	ProductID    *int
	RoastDate    string
	PurchaseDate string
	AmountGrams  *float64
	Price        *float64
	Seller       string
	Notes        string
	Rating       *int
	IsActive     *bool
}

func (input BatchInput) batch(productID int, active bool) model.Batch {
	if input.IsActive != nil {
		active = *input.IsActive
	}

	return model.Batch{
		ProductID:    productID,
		RoastDate:    input.RoastDate,
		PurchaseDate: input.PurchaseDate,
		AmountGrams:  input.AmountGrams,
		Price:        input.Price,
		Seller:       input.Seller,
		Notes:        input.Notes,
		Rating:       input.Rating,
		IsActive:     active,
	}
}

func (s *Service) findBatch(ctx context.Context, id int) (*model.Batch, error) {
	batch, err := s.repo.Batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if batch == nil {
		return nil, notFound("batch", id)
	}

	return batch, nil
}

func (s *Service) ListBatches(ctx context.Context, productID int) ([]model.BatchView, error) {
	if _, err := s.findProduct(ctx, productID); err != nil {
		return nil, err
	}

	batches, err := s.repo.Batches.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.resolver.EnrichBatches(ctx, batches)
}

func (s *Service) GetBatch(ctx context.Context, id int) (*model.BatchView, error) {
	batch, err := s.findBatch(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.resolver.EnrichBatch(ctx, *batch)
}

// CreateBatch adds a batch to an existing product. Batches are active unless
// the input says otherwise.
func (s *Service) CreateBatch(ctx context.Context, productID int, input BatchInput) (*model.BatchView, error) {
	if _, err := s.findProduct(ctx, productID); err != nil {
		return nil, err
	}

	created, err := s.repo.Batches.Create(ctx, input.batch(productID, true))
	if err != nil {
		return nil, err
	}

	s.logger.Info("created batch", zap.Int("id", created.ID), zap.Int("product_id", productID))

	return s.resolver.EnrichBatch(ctx, *created)
}

// UpdateBatch replaces the batch fields. The active flag is kept when the
// input leaves it out.
func (s *Service) UpdateBatch(ctx context.Context, id int, input BatchInput) (*model.BatchView, error) {
	existing, err := s.findBatch(ctx, id)
	if err != nil {
		return nil, err
	}

	productID := existing.ProductID
	if input.ProductID != nil {
		productID = *input.ProductID
	}

	if _, err := s.findProduct(ctx, productID); err != nil {
		return nil, err
	}

	updated, err := s.repo.Batches.Update(ctx, id, input.batch(productID, existing.IsActive))
	if err != nil {
		return nil, err
	}

	if updated == nil {
		return nil, notFound("batch", id)
	}

	if productID != existing.ProductID {
		moved, err := s.repo.BrewSessions.MoveBatch(ctx, id, productID)
		if err != nil {
			return nil, err
		}

		s.logger.Info("moved batch",
			zap.Int("id", id),
			zap.Int("from_product", existing.ProductID),
			zap.Int("to_product", productID),
			zap.Int("brew_sessions", moved))
	}

	return s.resolver.EnrichBatch(ctx, *updated)
}

// DeleteBatch removes the batch and its brew sessions.
func (s *Service) DeleteBatch(ctx context.Context, id int) error {
	if _, err := s.findBatch(ctx, id); err != nil {
		return err
	}

	sessions, err := s.repo.BrewSessions.DeleteByBatch(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.repo.Batches.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("deleted batch", zap.Int("id", id), zap.Int("brew_sessions", sessions))

	return nil
}
