package integrity_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.openly.dev/pointy"
	"go.uber.org/zap/zaptest"

	"droscher.com/BeanJournal/pkg/integrity"
	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/repository"
)

type ManagerTestSuite struct {
	suite.Suite
	now        time.Time
	dataDir    string
	repository *repository.Repository
	manager    *integrity.Manager
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (suite *ManagerTestSuite) SetupTest() {
	logger := zaptest.NewLogger(suite.T())
	suite.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	suite.dataDir = suite.T().TempDir()

	var err error
	suite.repository, err = repository.NewJSON(suite.dataDir, logger,
		repository.WithClock(func() time.Time { return suite.now }))
	suite.Require().NoError(err)

	suite.manager = integrity.NewManager(suite.repository, logger)
}

func (suite *ManagerTestSuite) lookup(kind model.LookupKind, lookup model.Lookup) int {
	created, err := suite.repository.Lookup(kind).Create(context.Background(), lookup)
	suite.Require().NoError(err)

	return created.ID
}

func (suite *ManagerTestSuite) product(product model.Product) *model.Product {
	created, err := suite.repository.Products.Create(context.Background(), product)
	suite.Require().NoError(err)

	return created
}

func (suite *ManagerTestSuite) session(session model.BrewSession) {
	_, err := suite.repository.BrewSessions.Create(context.Background(), session)
	suite.Require().NoError(err)
}

func (suite *ManagerTestSuite) TestUsage_CountsEntitiesOnce() {
	ethiopia := suite.lookup(model.Country, model.Lookup{Name: "Ethiopia"})
	kenya := suite.lookup(model.Country, model.Lookup{Name: "Kenya"})

	suite.product(model.Product{CountryID: pointy.Int(ethiopia), RegionID: model.IDList{ethiopia}})
	suite.product(model.Product{CountryID: pointy.Int(kenya), RegionID: model.IDList{ethiopia, kenya}})
	suite.product(model.Product{CountryID: pointy.Int(kenya)})

	usage, err := suite.manager.Usage(context.Background(), model.Country, ethiopia)

	suite.Require().NoError(err)
	suite.True(usage.InUse)
	suite.Equal(2, usage.UsageCount)
	suite.Equal("products", usage.UsageType)
}

func (suite *ManagerTestSuite) TestUsage_BrewSessionKinds() {
	grinder := suite.lookup(model.Grinder, model.Lookup{Name: "Comandante"})
	unused := suite.lookup(model.Grinder, model.Lookup{Name: "Spare"})

	suite.session(model.BrewSession{GrinderID: pointy.Int(grinder)})

	usage, err := suite.manager.Usage(context.Background(), model.Grinder, grinder)
	suite.Require().NoError(err)
	suite.Equal(1, usage.UsageCount)
	suite.Equal("brew_sessions", usage.UsageType)

	usage, err = suite.manager.Usage(context.Background(), model.Grinder, unused)
	suite.Require().NoError(err)
	suite.False(usage.InUse)
	suite.Equal(0, usage.UsageCount)
}

func (suite *ManagerTestSuite) TestUsage_UnknownLookup() {
	_, err := suite.manager.Usage(context.Background(), model.Roaster, 42)

	suite.ErrorIs(err, repository.ErrNotFound)
}

func (suite *ManagerTestSuite) TestUpdateReferences_ReplaceMovesUsage() {
	ctx := context.Background()
	old := suite.lookup(model.Roaster, model.Lookup{Name: "Old Roaster"})
	replacement := suite.lookup(model.Roaster, model.Lookup{Name: "New Roaster"})

	suite.product(model.Product{RoasterID: pointy.Int(old)})
	suite.product(model.Product{RoasterID: pointy.Int(old)})
	suite.product(model.Product{RoasterID: pointy.Int(replacement)})

	before, err := suite.manager.Usage(ctx, model.Roaster, replacement)
	suite.Require().NoError(err)

	result, err := suite.manager.UpdateReferences(ctx, model.Roaster, old, integrity.ActionReplace, pointy.Int(replacement))
	suite.Require().NoError(err)
	suite.Equal(2, result.UpdatedCount)

	oldUsage, err := suite.manager.Usage(ctx, model.Roaster, old)
	suite.Require().NoError(err)
	suite.False(oldUsage.InUse)

	after, err := suite.manager.Usage(ctx, model.Roaster, replacement)
	suite.Require().NoError(err)
	suite.GreaterOrEqual(after.UsageCount, before.UsageCount)
	suite.Equal(3, after.UsageCount)
}

func (suite *ManagerTestSuite) TestUpdateReferences_ReplaceInListAvoidsDuplicates() {
	ctx := context.Background()
	arabica := suite.lookup(model.BeanType, model.Lookup{Name: "Arabica"})
	typo := suite.lookup(model.BeanType, model.Lookup{Name: "Arabika"})
	product := suite.product(model.Product{BeanTypeID: model.IDList{arabica, typo}})

	result, err := suite.manager.UpdateReferences(ctx, model.BeanType, typo, integrity.ActionReplace, pointy.Int(arabica))
	suite.Require().NoError(err)
	suite.Equal(1, result.UpdatedCount)

	stored, err := suite.repository.Products.FindByID(ctx, product.ID)
	suite.Require().NoError(err)
	suite.Equal(model.IDList{arabica}, stored.BeanTypeID)
}

func (suite *ManagerTestSuite) TestUpdateReferences_RemoveClearsScalarsAndLists() {
	ctx := context.Background()
	ethiopia := suite.lookup(model.Country, model.Lookup{Name: "Ethiopia"})
	kenya := suite.lookup(model.Country, model.Lookup{Name: "Kenya"})
	product := suite.product(model.Product{CountryID: pointy.Int(ethiopia), RegionID: model.IDList{kenya, ethiopia}})

	result, err := suite.manager.UpdateReferences(ctx, model.Country, ethiopia, integrity.ActionRemove, nil)
	suite.Require().NoError(err)
	suite.Equal(1, result.UpdatedCount)

	stored, err := suite.repository.Products.FindByID(ctx, product.ID)
	suite.Require().NoError(err)
	suite.Nil(stored.CountryID)
	suite.Equal(model.IDList{kenya}, stored.RegionID)
	suite.Equal(suite.now, stored.UpdatedAt.Time)
}

func (suite *ManagerTestSuite) TestUpdateReferences_UnknownReplacementIsNoop() {
	ctx := context.Background()
	scale := suite.lookup(model.Scale, model.Lookup{Name: "Acaia"})
	suite.session(model.BrewSession{ScaleID: pointy.Int(scale)})

	result, err := suite.manager.UpdateReferences(ctx, model.Scale, scale, integrity.ActionReplace, pointy.Int(99))
	suite.Require().NoError(err)
	suite.Equal(0, result.UpdatedCount)

	result, err = suite.manager.UpdateReferences(ctx, model.Scale, scale, integrity.ActionReplace, nil)
	suite.Require().NoError(err)
	suite.Equal(0, result.UpdatedCount)

	usage, err := suite.manager.Usage(ctx, model.Scale, scale)
	suite.Require().NoError(err)
	suite.Equal(1, usage.UsageCount)
}

func (suite *ManagerTestSuite) TestUpdateReferences_InvalidAction() {
	scale := suite.lookup(model.Scale, model.Lookup{Name: "Acaia"})

	_, err := suite.manager.UpdateReferences(context.Background(), model.Scale, scale, integrity.Action("merge"), nil)

	suite.ErrorIs(err, integrity.ErrInvalidAction)
}

func (suite *ManagerTestSuite) TestUsageEvents_FeedSmartDefault() {
	ctx := context.Background()
	first := suite.lookup(model.Roaster, model.Lookup{Name: "First"})
	second := suite.lookup(model.Roaster, model.Lookup{Name: "Second"})

	suite.product(model.Product{RoasterID: pointy.Int(first)})
	suite.product(model.Product{RoasterID: pointy.Int(second)})
	suite.product(model.Product{RoasterID: pointy.Int(second)})

	events, err := suite.manager.UsageEvents(ctx, model.Roaster)
	suite.Require().NoError(err)
	suite.Len(events, 3)
	suite.Equal(suite.now, events[0].CreatedAt)

	found, err := suite.repository.Lookup(model.Roaster).SmartDefault(ctx, suite.manager)
	suite.Require().NoError(err)
	suite.Equal(second, found.ID)
}

func (suite *ManagerTestSuite) TestGrinderStats() {
	grinder := suite.lookup(model.Grinder, model.Lookup{Name: "Comandante", ManuallyGroundGrams: pointy.Float64(800)})
	other := suite.lookup(model.Grinder, model.Lookup{Name: "Other"})

	for range 10 {
		suite.session(model.BrewSession{GrinderID: pointy.Int(grinder), AmountCoffeeGrams: pointy.Float64(30)})
	}

	suite.session(model.BrewSession{GrinderID: pointy.Int(grinder)})
	suite.session(model.BrewSession{GrinderID: pointy.Int(other), AmountCoffeeGrams: pointy.Float64(18)})

	stats, err := suite.manager.GrinderStats(context.Background(), grinder)

	suite.Require().NoError(err)
	suite.Equal(11, stats.TotalBrews)
	suite.InDelta(300.0, stats.TotalGramsGround, 0.001)
	suite.InDelta(800.0, stats.ManuallyGroundGrams, 0.001)
	suite.InDelta(1100.0, stats.TotalGramsWithManual, 0.001)
	suite.InDelta(1.1, stats.TotalKilos, 0.001)

	stats, err = suite.manager.GrinderStats(context.Background(), other)
	suite.Require().NoError(err)
	suite.InDelta(18.0, stats.TotalGramsWithManual, 0.001)
	suite.Zero(stats.TotalKilos)
}

func (suite *ManagerTestSuite) TestGrinderStats_UnknownGrinder() {
	stats, err := suite.manager.GrinderStats(context.Background(), 99)

	suite.Require().NoError(err)
	suite.Equal(model.GrinderStats{}, *stats)
}

func (suite *ManagerTestSuite) TestUpdateReferences_BareNumberInListField() {
	ctx := context.Background()
	arabica := suite.lookup(model.BeanType, model.Lookup{Name: "Arabica"})
	robusta := suite.lookup(model.BeanType, model.Lookup{Name: "Robusta"})

	legacy := `[{"id": 1, "bean_type_id": 1}, {"id": 2, "bean_type_id": [1, 2]}, {"id": 3, "bean_type_id": 2}]`
	suite.Require().NoError(os.WriteFile(filepath.Join(suite.dataDir, model.ProductsTable+".json"), []byte(legacy), 0o600))

	usage, err := suite.manager.Usage(ctx, model.BeanType, arabica)
	suite.Require().NoError(err)
	suite.True(usage.InUse)
	suite.Equal(2, usage.UsageCount)

	result, err := suite.manager.UpdateReferences(ctx, model.BeanType, arabica, integrity.ActionReplace, pointy.Int(robusta))
	suite.Require().NoError(err)
	suite.Equal(2, result.UpdatedCount)

	products, err := suite.repository.Products.FindAll(ctx)
	suite.Require().NoError(err)
	suite.Require().Len(products, 3)

	for _, product := range products {
		suite.Equal(model.IDList{robusta}, product.BeanTypeID, "product %d", product.ID)
	}

	result, err = suite.manager.UpdateReferences(ctx, model.BeanType, robusta, integrity.ActionRemove, nil)
	suite.Require().NoError(err)
	suite.Equal(3, result.UpdatedCount)

	usage, err = suite.manager.Usage(ctx, model.BeanType, robusta)
	suite.Require().NoError(err)
	suite.False(usage.InUse)
	suite.Zero(usage.UsageCount)
}
