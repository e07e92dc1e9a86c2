package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/repository"
)

type staticUsage struct {
	events []repository.UsageEvent
	err    error
}

func (s staticUsage) UsageEvents(context.Context, model.LookupKind) ([]repository.UsageEvent, error) {
	return s.events, s.err
}

type SmartDefaultTestSuite struct {
	RepositorySuite
}

func TestSmartDefaultTestSuite(t *testing.T) {
	suite.Run(t, new(SmartDefaultTestSuite))
}

func (suite *SmartDefaultTestSuite) seed(kind model.LookupKind, names ...string) []*model.Lookup {
	created := make([]*model.Lookup, 0, len(names))

	for _, name := range names {
		lookup, err := suite.repository.Lookup(kind).Create(context.Background(), model.Lookup{Name: name})
		suite.Require().NoError(err)

		created = append(created, lookup)
	}

	return created
}

func (suite *SmartDefaultTestSuite) TestEmptyTable() {
	found, err := suite.repository.Lookup(model.Roaster).SmartDefault(context.Background(), staticUsage{})

	suite.Require().NoError(err)
	suite.Nil(found)
}

func (suite *SmartDefaultTestSuite) TestSingleRecord() {
	roasters := suite.seed(model.Roaster, "Only One")

	found, err := suite.repository.Lookup(model.Roaster).SmartDefault(context.Background(), staticUsage{})

	suite.Require().NoError(err)
	suite.Equal(roasters[0].ID, found.ID)
}

func (suite *SmartDefaultTestSuite) TestManualDefaultWins() {
	ctx := context.Background()
	roasters := suite.seed(model.Roaster, "Busy", "Chosen")

	_, err := suite.repository.Lookup(model.Roaster).SetDefault(ctx, roasters[1].ID)
	suite.Require().NoError(err)

	usage := staticUsage{events: []repository.UsageEvent{
		{LookupID: roasters[0].ID, CreatedAt: suite.now},
		{LookupID: roasters[0].ID, CreatedAt: suite.now},
	}}

	found, err := suite.repository.Lookup(model.Roaster).SmartDefault(ctx, usage)

	suite.Require().NoError(err)
	suite.Equal(roasters[1].ID, found.ID)
}

func (suite *SmartDefaultTestSuite) TestFrequencyWins() {
	roasters := suite.seed(model.Roaster, "Rare", "Frequent")
	old := suite.now.Add(-60 * 24 * time.Hour)

	usage := staticUsage{events: []repository.UsageEvent{
		{LookupID: roasters[0].ID, CreatedAt: suite.now},
		{LookupID: roasters[1].ID, CreatedAt: old},
		{LookupID: roasters[1].ID, CreatedAt: old},
	}}

	found, err := suite.repository.Lookup(model.Roaster).SmartDefault(context.Background(), usage)

	suite.Require().NoError(err)
	suite.Equal(roasters[1].ID, found.ID)
}

func (suite *SmartDefaultTestSuite) TestRecencyBreaksEqualFrequency() {
	grinders := suite.seed(model.Grinder, "Old Grinder", "New Grinder")

	usage := staticUsage{events: []repository.UsageEvent{
		{LookupID: grinders[0].ID, CreatedAt: suite.now.Add(-6 * 24 * time.Hour)},
		{LookupID: grinders[1].ID, CreatedAt: suite.now.Add(-time.Hour)},
	}}

	found, err := suite.repository.Lookup(model.Grinder).SmartDefault(context.Background(), usage)

	suite.Require().NoError(err)
	suite.Equal(grinders[1].ID, found.ID)
}

func (suite *SmartDefaultTestSuite) TestTiesKeepTableOrder() {
	grinders := suite.seed(model.Grinder, "First", "Second")

	usage := staticUsage{events: []repository.UsageEvent{
		{LookupID: grinders[1].ID, CreatedAt: suite.now.Add(-30 * 24 * time.Hour)},
		{LookupID: grinders[0].ID, CreatedAt: suite.now.Add(-30 * 24 * time.Hour)},
	}}

	found, err := suite.repository.Lookup(model.Grinder).SmartDefault(context.Background(), usage)

	suite.Require().NoError(err)
	suite.Equal(grinders[0].ID, found.ID)
}

func (suite *SmartDefaultTestSuite) TestNoUsageFallsBackToFirst() {
	kettles := suite.seed(model.Kettle, "First", "Second", "Third")

	found, err := suite.repository.Lookup(model.Kettle).SmartDefault(context.Background(), staticUsage{})

	suite.Require().NoError(err)
	suite.Equal(kettles[0].ID, found.ID)
}

func (suite *SmartDefaultTestSuite) TestUsageErrorIsReturned() {
	suite.seed(model.Kettle, "First", "Second")

	boom := errors.New("boom")
	_, err := suite.repository.Lookup(model.Kettle).SmartDefault(context.Background(), staticUsage{err: boom})

	suite.ErrorIs(err, boom)
}
