package journal

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/lookup"
	"droscher.com/BeanJournal/pkg/model"
)

// ProductInput is a product as submitted by a client. Lookup fields are
// references that are resolved, and created when needed, on write.
type ProductInput struct {
	Roaster       lookup.Ref
	BeanTypeIDs   []int
	BeanTypeNames []string
	Country       lookup.Ref
	RegionIDs     []int
	RegionNames   []string
	DecafMethod   lookup.Ref

	ProductName string
	RoastType   *int
	Description string
	URL         string
	ImageURL    string
	Decaf       bool
	BeanProcess string
	Notes       string
	Rating      *int
}

// ProductFilter narrows ListProducts by lookup names. Empty fields match everything.
type ProductFilter struct {
	Roaster  string
	BeanType string
	Country  string
}

func (f ProductFilter) matches(view *model.ProductView) bool {
	if f.Roaster != "" && (view.Roaster == nil || view.Roaster.Name != f.Roaster) {
		return false
	}

	if f.BeanType != "" && !containsName(view.BeanType, f.BeanType) {
		return false
	}

	if f.Country != "" && (view.Country == nil || view.Country.Name != f.Country) {
		return false
	}

	return true
}

func containsName(lookups []model.Lookup, name string) bool {
	for _, found := range lookups {
		if found.Name == name {
			return true
		}
	}

	return false
}

func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]model.ProductView, error) {
	products, err := s.repo.Products.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	views, err := s.resolver.EnrichProducts(ctx, products)
	if err != nil {
		return nil, err
	}

	matched := make([]model.ProductView, 0, len(views))
	for index := range views {
		if filter.matches(&views[index]) {
			matched = append(matched, views[index])
		}
	}

	return matched, nil
}

func (s *Service) GetProduct(ctx context.Context, id int) (*model.ProductView, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.resolver.EnrichProduct(ctx, *product)
}

func (s *Service) findProduct(ctx context.Context, id int) (*model.Product, error) {
	product, err := s.repo.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if product == nil {
		return nil, notFound("product", id)
	}

	return product, nil
}

func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*model.ProductView, error) {
	product, err := s.buildProduct(ctx, input)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Products.Create(ctx, *product)
	if err != nil {
		return nil, err
	}

	s.logger.Info("created product", zap.Int("id", created.ID))

	return s.resolver.EnrichProduct(ctx, *created)
}

func (s *Service) UpdateProduct(ctx context.Context, id int, input ProductInput) (*model.ProductView, error) {
	if _, err := s.findProduct(ctx, id); err != nil {
		return nil, err
	}

	product, err := s.buildProduct(ctx, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Products.Update(ctx, id, *product)
	if err != nil {
		return nil, err
	}

	if updated == nil {
		return nil, notFound("product", id)
	}

	return s.resolver.EnrichProduct(ctx, *updated)
}

// DeleteProduct removes the product with its brew sessions and batches.
func (s *Service) DeleteProduct(ctx context.Context, id int) error {
	if _, err := s.findProduct(ctx, id); err != nil {
		return err
	}

	owned, err := s.repo.Batches.FindByProduct(ctx, id)
	if err != nil {
		return err
	}

	sessions, err := s.repo.BrewSessions.DeleteByProduct(ctx, id)
	if err != nil {
		return err
	}

	// sessions recorded before their batch moved here still carry the old product id
	for _, batch := range owned {
		removed, err := s.repo.BrewSessions.DeleteByBatch(ctx, batch.ID)
		if err != nil {
			return err
		}

		sessions += removed
	}

	batches, err := s.repo.Batches.DeleteByProduct(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.repo.Products.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("deleted product",
		zap.Int("id", id),
		zap.Int("batches", batches),
		zap.Int("brew_sessions", sessions))

	return nil
}

// buildProduct validates input and resolves its references into a record.
func (s *Service) buildProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	if !input.Roaster.IsSet() {
		return nil, newValidationError("roaster is required")
	}

	product := model.Product{
		ProductName: strings.TrimSpace(input.ProductName),
		RoastType:   input.RoastType,
		Description: input.Description,
		URL:         strings.TrimSpace(input.URL),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Decaf:       input.Decaf,
		BeanProcess: input.BeanProcess,
		Notes:       input.Notes,
		Rating:      input.Rating,
	}

	if err := s.check(productRules{URL: product.URL, ImageURL: product.ImageURL}); err != nil {
		return nil, err
	}

	roasterID, err := s.resolver.ResolveID(ctx, model.Roaster, input.Roaster)
	if err != nil {
		return nil, err
	}

	if roasterID == nil {
		return nil, newValidationError("invalid roaster")
	}

	product.RoasterID = roasterID

	beanTypes, err := s.resolver.ResolveMany(ctx, model.BeanType, input.BeanTypeIDs, input.BeanTypeNames)
	if err != nil {
		return nil, err
	}

	product.BeanTypeID = lookup.IDs(beanTypes)

	if product.CountryID, err = s.resolver.ResolveID(ctx, model.Country, input.Country); err != nil {
		return nil, err
	}

	regions, err := s.resolver.ResolveMany(ctx, model.Country, input.RegionIDs, input.RegionNames)
	if err != nil {
		return nil, err
	}

	product.RegionID = lookup.IDs(regions)

	if input.Decaf {
		if product.DecafMethodID, err = s.resolver.ResolveID(ctx, model.DecafMethod, input.DecafMethod); err != nil {
			return nil, err
		}
	}

	return &product, nil
}
