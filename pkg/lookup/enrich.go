package lookup

import (
	"context"

	"droscher.com/BeanJournal/pkg/model"
)

const missingProduct = "N/A Product"

// pass caches whole lookup tables and products for the duration of one
// enrichment call. It only reads.
type pass struct {
	resolver *Resolver
	tables   map[model.LookupKind]map[int]model.Lookup
	products map[int]*model.Product
	batches  map[int]*model.Batch
}

func (r *Resolver) newPass() *pass {
	return &pass{
		resolver: r,
		tables:   make(map[model.LookupKind]map[int]model.Lookup),
		products: make(map[int]*model.Product),
		batches:  make(map[int]*model.Batch),
	}
}

func (p *pass) table(ctx context.Context, kind model.LookupKind) (map[int]model.Lookup, error) {
	if cached, ok := p.tables[kind]; ok {
		return cached, nil
	}

	repo, err := p.resolver.table(kind)
	if err != nil {
		return nil, err
	}

	rows, err := repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]model.Lookup, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	p.tables[kind] = byID

	return byID, nil
}

func (p *pass) one(ctx context.Context, kind model.LookupKind, id *int) (*model.Lookup, error) {
	if id == nil || *id == 0 {
		return nil, nil //nolint:nilnil // unset reference
	}

	byID, err := p.table(ctx, kind)
	if err != nil {
		return nil, err
	}

	found, ok := byID[*id]
	if !ok {
		return nil, nil //nolint:nilnil // dangling reference
	}

	return &found, nil
}

func (p *pass) many(ctx context.Context, kind model.LookupKind, ids model.IDList) ([]model.Lookup, error) {
	resolved := make([]model.Lookup, 0, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	byID, err := p.table(ctx, kind)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if found, ok := byID[id]; ok {
			resolved = append(resolved, found)
		}
	}

	return resolved, nil
}

func (p *pass) product(ctx context.Context, id int) (*model.Product, error) {
	if cached, ok := p.products[id]; ok {
		return cached, nil
	}

	product, err := p.resolver.repo.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.products[id] = product

	return product, nil
}

func (p *pass) batch(ctx context.Context, id int) (*model.Batch, error) {
	if cached, ok := p.batches[id]; ok {
		return cached, nil
	}

	batch, err := p.resolver.repo.Batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.batches[id] = batch

	return batch, nil
}

func (p *pass) enrichProduct(ctx context.Context, product model.Product) (*model.ProductView, error) {
	view := &model.ProductView{Product: product}

	var err error

	if view.Roaster, err = p.one(ctx, model.Roaster, product.RoasterID); err != nil {
		return nil, err
	}

	if view.BeanType, err = p.many(ctx, model.BeanType, product.BeanTypeID); err != nil {
		return nil, err
	}

	if view.Country, err = p.one(ctx, model.Country, product.CountryID); err != nil {
		return nil, err
	}

	if view.Region, err = p.many(ctx, model.Country, product.RegionID); err != nil {
		return nil, err
	}

	if view.DecafMethod, err = p.one(ctx, model.DecafMethod, product.DecafMethodID); err != nil {
		return nil, err
	}

	return view, nil
}

func (p *pass) enrichBatch(ctx context.Context, batch model.Batch) (*model.BatchView, error) {
	view := &model.BatchView{Batch: batch, ProductName: missingProduct, PricePerCup: batch.PricePerCup()}

	product, err := p.product(ctx, batch.ProductID)
	if err != nil {
		return nil, err
	}

	if product == nil {
		return view, nil
	}

	enriched, err := p.enrichProduct(ctx, *product)
	if err != nil {
		return nil, err
	}

	view.ProductName = enriched.DisplayName()

	return view, nil
}

func (p *pass) enrichBrewSession(ctx context.Context, session model.BrewSession) (*model.BrewSessionView, error) {
	view := &model.BrewSessionView{BrewSession: session, ProductName: missingProduct, BrewRatio: session.BrewRatio()}

	equipment := []struct {
		kind   model.LookupKind
		id     *int
		target **model.Lookup
	}{
		{model.BrewMethod, session.BrewMethodID, &view.BrewMethod},
		{model.Recipe, session.RecipeID, &view.Recipe},
		{model.Grinder, session.GrinderID, &view.Grinder},
		{model.Filter, session.FilterID, &view.Filter},
		{model.Kettle, session.KettleID, &view.Kettle},
		{model.Scale, session.ScaleID, &view.Scale},
	}

	for _, item := range equipment {
		found, err := p.one(ctx, item.kind, item.id)
		if err != nil {
			return nil, err
		}

		*item.target = found
	}

	product, err := p.product(ctx, session.ProductID)
	if err != nil {
		return nil, err
	}

	if product == nil {
		return view, nil
	}

	enriched, err := p.enrichProduct(ctx, *product)
	if err != nil {
		return nil, err
	}

	batch, err := p.batch(ctx, session.ProductBatchID)
	if err != nil {
		return nil, err
	}

	view.ProductName = enriched.DisplayName()
	view.ProductDetails = &model.ProductDetails{
		Roaster:     enriched.Roaster,
		BeanType:    enriched.BeanType,
		ProductName: product.ProductName,
		RoastType:   product.RoastType,
		Decaf:       product.Decaf,
	}

	if batch != nil {
		view.ProductDetails.RoastDate = batch.RoastDate
	}

	return view, nil
}

func (r *Resolver) EnrichProduct(ctx context.Context, product model.Product) (*model.ProductView, error) {
	return r.newPass().enrichProduct(ctx, product)
}

func (r *Resolver) EnrichProducts(ctx context.Context, products []model.Product) ([]model.ProductView, error) {
	return enrichAll(ctx, r.newPass(), products, (*pass).enrichProduct)
}

func (r *Resolver) EnrichBatch(ctx context.Context, batch model.Batch) (*model.BatchView, error) {
	return r.newPass().enrichBatch(ctx, batch)
}

func (r *Resolver) EnrichBatches(ctx context.Context, batches []model.Batch) ([]model.BatchView, error) {
	return enrichAll(ctx, r.newPass(), batches, (*pass).enrichBatch)
}

func (r *Resolver) EnrichBrewSession(ctx context.Context, session model.BrewSession) (*model.BrewSessionView, error) {
	return r.newPass().enrichBrewSession(ctx, session)
}

func (r *Resolver) EnrichBrewSessions(ctx context.Context, sessions []model.BrewSession) ([]model.BrewSessionView, error) {
	return enrichAll(ctx, r.newPass(), sessions, (*pass).enrichBrewSession)
}

func enrichAll[T, V any](
	ctx context.Context, p *pass, records []T, enrich func(*pass, context.Context, T) (*V, error),
) ([]V, error) {
	views := make([]V, 0, len(records))

	for _, record := range records {
		view, err := enrich(p, ctx, record)
		if err != nil {
			return nil, err
		}

		views = append(views, *view)
	}

	return views, nil
}
