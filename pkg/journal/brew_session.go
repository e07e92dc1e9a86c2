package journal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/lookup"
	"droscher.com/BeanJournal/pkg/model"
)

// BrewSessionInput is a brew session as submitted by a client. Nil fields and
// unset equipment references keep the stored value on update. ProductID and
// ProductBatchID are only read on update.
type BrewSessionInput struct {
	Timestamp      *model.Timestamp
	ProductID      *int
	ProductBatchID *int

	BrewMethod lookup.Ref
	Recipe     lookup.Ref
	Grinder    lookup.Ref
	Filter     lookup.Ref
	Kettle     lookup.Ref
	Scale      lookup.Ref

	GrinderSetting     *string
	AmountCoffeeGrams  *float64
	AmountWaterGrams   *float64
	BrewTemperatureC   *float64
	BloomTimeSeconds   *int
	BrewTimeSeconds    *int
	Sweetness          *int
	Acidity            *int
	Bitterness         *int
	Body               *int
	Aroma              *int
	FlavorProfileMatch *int
	Score              *float64
	Notes              *string
}

// EquipmentRef refers to equipment by name or short form, falling back to an
// explicit id.
func EquipmentRef(identifier string, id *int) lookup.Ref {
	if ref := lookup.ParseIdentifier(identifier); ref.IsSet() {
		return ref
	}

	if id != nil && *id > 0 {
		return lookup.ByID(*id)
	}

	return lookup.Ref{}
}

type equipmentField struct {
	kind  model.LookupKind
	ref   lookup.Ref
	field **int
}

func (input *BrewSessionInput) equipment(session *model.BrewSession) []equipmentField {
	return []equipmentField{
		{model.BrewMethod, input.BrewMethod, &session.BrewMethodID},
		{model.Recipe, input.Recipe, &session.RecipeID},
		{model.Grinder, input.Grinder, &session.GrinderID},
		{model.Filter, input.Filter, &session.FilterID},
		{model.Kettle, input.Kettle, &session.KettleID},
		{model.Scale, input.Scale, &session.ScaleID},
	}
}

// apply copies every field the input carries onto session.
func (input *BrewSessionInput) apply(session *model.BrewSession) {
	if input.Timestamp != nil {
		session.Timestamp = *input.Timestamp
	}

	if input.GrinderSetting != nil {
		session.GrinderSetting = *input.GrinderSetting
	}

	if input.Notes != nil {
		session.Notes = *input.Notes
	}

	overlay(&session.AmountCoffeeGrams, input.AmountCoffeeGrams)
	overlay(&session.AmountWaterGrams, input.AmountWaterGrams)
	overlay(&session.BrewTemperatureC, input.BrewTemperatureC)
	overlay(&session.BloomTimeSeconds, input.BloomTimeSeconds)
	overlay(&session.BrewTimeSeconds, input.BrewTimeSeconds)
	overlay(&session.Sweetness, input.Sweetness)
	overlay(&session.Acidity, input.Acidity)
	overlay(&session.Bitterness, input.Bitterness)
	overlay(&session.Body, input.Body)
	overlay(&session.Aroma, input.Aroma)
	overlay(&session.FlavorProfileMatch, input.FlavorProfileMatch)
	overlay(&session.Score, input.Score)
}

func overlay[T any](field **T, value *T) {
	if value != nil {
		*field = value
	}
}

func (s *Service) resolveEquipment(ctx context.Context, input *BrewSessionInput, session *model.BrewSession) error {
	for _, equipment := range input.equipment(session) {
		if !equipment.ref.IsSet() {
			continue
		}

		id, err := s.resolver.ResolveID(ctx, equipment.kind, equipment.ref)
		if err != nil {
			return err
		}

		*equipment.field = id
	}

	return nil
}

func (s *Service) findBrewSession(ctx context.Context, id int) (*model.BrewSession, error) {
	session, err := s.repo.BrewSessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if session == nil {
		return nil, notFound("brew session", id)
	}

	return session, nil
}

func (s *Service) ListBrewSessions(ctx context.Context) ([]model.BrewSessionView, error) {
	sessions, err := s.repo.BrewSessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return s.resolver.EnrichBrewSessions(ctx, sessions)
}

func (s *Service) ListBatchBrewSessions(ctx context.Context, batchID int) ([]model.BrewSessionView, error) {
	if _, err := s.findBatch(ctx, batchID); err != nil {
		return nil, err
	}

	sessions, err := s.repo.BrewSessions.FindByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	return s.resolver.EnrichBrewSessions(ctx, sessions)
}

func (s *Service) GetBrewSession(ctx context.Context, id int) (*model.BrewSessionView, error) {
	session, err := s.findBrewSession(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.resolver.EnrichBrewSession(ctx, *session)
}

// CreateBrewSession records a brew of the batch. The product is taken from the
// batch and the timestamp defaults to now.
func (s *Service) CreateBrewSession(ctx context.Context, batchID int, input BrewSessionInput) (*model.BrewSessionView, error) {
	batch, err := s.findBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if err := checkTasting(&input); err != nil {
		return nil, err
	}

	session := model.BrewSession{
		Timestamp:      model.NewTimestamp(s.clock()),
		ProductID:      batch.ProductID,
		ProductBatchID: batch.ID,
	}

	input.apply(&session)

	if err := s.resolveEquipment(ctx, &input, &session); err != nil {
		return nil, err
	}

	created, err := s.repo.BrewSessions.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	s.logger.Info("created brew session", zap.Int("id", created.ID), zap.Int("batch_id", batchID))

	return s.resolver.EnrichBrewSession(ctx, *created)
}

// UpdateBrewSession merges input into the stored session. Moving the session
// requires the batch to belong to the product.
func (s *Service) UpdateBrewSession(ctx context.Context, id int, input BrewSessionInput) (*model.BrewSessionView, error) {
	session, err := s.findBrewSession(ctx, id)
	if err != nil {
		return nil, err
	}

	productID := session.ProductID
	if input.ProductID != nil {
		productID = *input.ProductID
	}

	batchID := session.ProductBatchID
	if input.ProductBatchID != nil {
		batchID = *input.ProductBatchID
	}

	if _, err := s.findProduct(ctx, productID); err != nil {
		return nil, err
	}

	batch, err := s.findBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if batch.ProductID != productID {
		return nil, newValidationError(fmt.Sprintf("batch %d does not belong to product %d", batchID, productID))
	}

	if err := checkTasting(&input); err != nil {
		return nil, err
	}

	session.ProductID = productID
	session.ProductBatchID = batchID
	input.apply(session)

	if err := s.resolveEquipment(ctx, &input, session); err != nil {
		return nil, err
	}

	updated, err := s.repo.BrewSessions.Update(ctx, id, *session)
	if err != nil {
		return nil, err
	}

	if updated == nil {
		return nil, notFound("brew session", id)
	}

	return s.resolver.EnrichBrewSession(ctx, *updated)
}

func (s *Service) DeleteBrewSession(ctx context.Context, id int) error {
	deleted, err := s.repo.BrewSessions.Delete(ctx, id)
	if err != nil {
		return err
	}

	if !deleted {
		return notFound("brew session", id)
	}

	return nil
}
