package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/storage"
	"droscher.com/BeanJournal/pkg/storage/jsonfile"
)

type TableSuite struct {
	suite.Suite
	path  string
	now   time.Time
	table *jsonfile.Table[model.Lookup, *model.Lookup]
}

func TestTableSuite(t *testing.T) {
	suite.Run(t, new(TableSuite))
}

func (suite *TableSuite) SetupTest() {
	suite.path = filepath.Join(suite.T().TempDir(), "roasters.json")
	suite.now = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	var err error
	suite.table, err = jsonfile.Open[model.Lookup](suite.path, jsonfile.WithClock(suite.clock))
	suite.Require().NoError(err)
}

func (suite *TableSuite) clock() time.Time {
	return suite.now
}

func (suite *TableSuite) tick() {
	suite.now = suite.now.Add(time.Minute)
}

func (suite *TableSuite) TestOpen_CreatesEmptyFile() {
	data, err := os.ReadFile(suite.path)
	suite.Require().NoError(err)
	suite.Equal("[]", string(data))

	rows, err := suite.table.FindAll(context.Background())
	suite.Require().NoError(err)
	suite.Empty(rows)
}

func (suite *TableSuite) TestCreate_AssignsSequentialIDs() {
	ctx := context.Background()

	first, err := suite.table.Create(ctx, model.Lookup{Name: "Square Mile"})
	suite.Require().NoError(err)
	second, err := suite.table.Create(ctx, model.Lookup{Name: "Origin"})
	suite.Require().NoError(err)

	suite.Equal(1, first.ID)
	suite.Equal(2, second.ID)
	suite.Equal(suite.now, first.CreatedAt.Time)
	suite.Equal(suite.now, first.UpdatedAt.Time)

	_, err = suite.table.Delete(ctx, 1)
	suite.Require().NoError(err)

	third, err := suite.table.Create(ctx, model.Lookup{Name: "Dark Arts"})
	suite.Require().NoError(err)
	suite.Equal(3, third.ID)
}

func (suite *TableSuite) TestUpdate_KeepsCreatedAt() {
	ctx := context.Background()

	created, err := suite.table.Create(ctx, model.Lookup{Name: "Square Mile"})
	suite.Require().NoError(err)

	suite.tick()

	updated, err := suite.table.Update(ctx, created.ID, model.Lookup{Name: "Square Mile Coffee"})
	suite.Require().NoError(err)
	suite.Require().NotNil(updated)

	suite.Equal(created.ID, updated.ID)
	suite.Equal(created.CreatedAt, updated.CreatedAt)
	suite.True(updated.UpdatedAt.After(created.UpdatedAt.Time))

	found, err := suite.table.FindByID(ctx, created.ID)
	suite.Require().NoError(err)
	suite.Equal("Square Mile Coffee", found.Name)
}

func (suite *TableSuite) TestMissingRecords_ReturnNil() {
	ctx := context.Background()

	found, err := suite.table.FindByID(ctx, 42)
	suite.Require().NoError(err)
	suite.Nil(found)

	updated, err := suite.table.Update(ctx, 42, model.Lookup{Name: "Nobody"})
	suite.Require().NoError(err)
	suite.Nil(updated)

	deleted, err := suite.table.Delete(ctx, 42)
	suite.Require().NoError(err)
	suite.False(deleted)
}

func (suite *TableSuite) TestCorruptFile_FailsClosed() {
	suite.Require().NoError(os.WriteFile(suite.path, []byte("{not json"), 0o600))

	_, err := suite.table.FindAll(context.Background())
	suite.Require().ErrorIs(err, storage.ErrCorrupt)

	suite.Require().NoError(os.WriteFile(suite.path, []byte("[]"), 0o600))

	_, err = suite.table.FindAll(context.Background())
	suite.ErrorIs(err, storage.ErrCorrupt)

	reopened, err := jsonfile.Open[model.Lookup](suite.path)
	suite.Require().NoError(err)

	rows, err := reopened.FindAll(context.Background())
	suite.Require().NoError(err)
	suite.Empty(rows)
}

func (suite *TableSuite) TestRewrite_CreatesUpdatesAndDeletes() {
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := suite.table.Create(ctx, model.Lookup{Name: name})
		suite.Require().NoError(err)
	}

	suite.tick()

	rows, err := suite.table.Rewrite(ctx, func(rows []model.Lookup) ([]model.Lookup, error) {
		rows[0].Name = "A2"
		rows = append(rows[:1], rows[2:]...)

		return append(rows, model.Lookup{Name: "D"}), nil
	})
	suite.Require().NoError(err)
	suite.Len(rows, 3)

	stored, err := suite.table.FindAll(ctx)
	suite.Require().NoError(err)
	suite.Require().Len(stored, 3)

	suite.Equal("A2", stored[0].Name)
	suite.Equal(suite.now, stored[0].UpdatedAt.Time)
	suite.Equal("C", stored[1].Name)
	suite.True(stored[1].UpdatedAt.Before(suite.now))
	suite.Equal("D", stored[2].Name)
	suite.Equal(4, stored[2].ID)
}

func (suite *TableSuite) TestRewrite_WithoutChangesLeavesFileAlone() {
	ctx := context.Background()

	_, err := suite.table.Create(ctx, model.Lookup{Name: "A"})
	suite.Require().NoError(err)

	before, err := os.Stat(suite.path)
	suite.Require().NoError(err)

	_, err = suite.table.Rewrite(ctx, func(rows []model.Lookup) ([]model.Lookup, error) {
		return rows, nil
	})
	suite.Require().NoError(err)

	after, err := os.Stat(suite.path)
	suite.Require().NoError(err)
	suite.Equal(before.ModTime(), after.ModTime())
}

func (suite *TableSuite) TestDeleteWhere_RemovesMatches() {
	ctx := context.Background()

	for _, name := range []string{"keep", "drop", "drop"} {
		_, err := suite.table.Create(ctx, model.Lookup{Name: name})
		suite.Require().NoError(err)
	}

	removed, err := storage.DeleteWhere[model.Lookup](ctx, suite.table, func(row model.Lookup) bool {
		return row.Name == "drop"
	})
	suite.Require().NoError(err)
	suite.Equal(2, removed)

	rows, err := suite.table.FindAll(ctx)
	suite.Require().NoError(err)
	suite.Len(rows, 1)
}
