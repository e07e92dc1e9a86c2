package sqlstore_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"moul.io/zapgorm2"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/storage/sqlstore"
)

type TableSuite struct {
	suite.Suite
	DB           *gorm.DB
	mock         sqlmock.Sqlmock
	observedLogs *observer.ObservedLogs
	now          time.Time
	table        *sqlstore.Table[model.Lookup, *model.Lookup]
}

func TestTableSuite(t *testing.T) {
	suite.Run(t, new(TableSuite))
}

func (suite *TableSuite) SetupTest() {
	var (
		db              *sql.DB
		err             error
		observedZapCore zapcore.Core
	)

	observedZapCore, suite.observedLogs = observer.New(zap.InfoLevel)
	observedLogger := zap.New(observedZapCore)

	db, suite.mock, err = sqlmock.New()
	suite.Require().NoError(err)

	gormLogger := zapgorm2.New(observedLogger)
	gormLogger.SetAsDefault()

	suite.DB, err = gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{Logger: gormLogger})
	suite.Require().NoError(err)

	suite.now = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	suite.table = sqlstore.New[model.Lookup](suite.DB, model.Roaster.TableName(), func() time.Time { return suite.now })
}

func (suite *TableSuite) TearDownTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *TableSuite) TestFindAll_OrdersByID() {
	suite.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "roasters" ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_default"}).
			AddRow(1, "Square Mile", false).
			AddRow(2, "Origin", true))

	rows, err := suite.table.FindAll(context.Background())

	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)
	suite.Equal("Square Mile", rows[0].Name)
	suite.True(rows[1].IsDefault)
}

func (suite *TableSuite) TestFindByID_GetsRecord() {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`SELECT \* FROM "roasters" WHERE id = \$1 ORDER BY (.+) LIMIT \$2`).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "short_form", "created_at"}).
			AddRow(7, "Square Mile", "SQM", created))

	row, err := suite.table.FindByID(context.Background(), 7)

	suite.Require().NoError(err)
	suite.Require().NotNil(row)
	suite.Equal(7, row.ID)
	suite.Equal("SQM", row.ShortForm)
	suite.Equal(created, row.CreatedAt.Time)
}

func (suite *TableSuite) TestFindByID_MissingReturnsNil() {
	suite.mock.ExpectQuery(`SELECT \* FROM "roasters" WHERE id = \$1 (.+)`).
		WithArgs(99, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	row, err := suite.table.FindByID(context.Background(), 99)

	suite.Require().NoError(err)
	suite.Nil(row)
}

func (suite *TableSuite) TestCreate_StampsTimestamps() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`^INSERT INTO "roasters" (.+) RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	suite.mock.ExpectCommit()

	row, err := suite.table.Create(context.Background(), model.Lookup{Name: "Origin"})

	suite.Require().NoError(err)
	suite.Equal(3, row.ID)
	suite.Equal(suite.now, row.CreatedAt.Time)
	suite.Equal(suite.now, row.UpdatedAt.Time)
}

func (suite *TableSuite) TestCreate_ReturnsError() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery("^INSERT INTO (.+)").WillReturnError(gorm.ErrInvalidData)
	suite.mock.ExpectRollback()

	row, err := suite.table.Create(context.Background(), model.Lookup{Name: "Origin"})

	suite.Nil(row)
	suite.EqualError(err, "unsupported data")
}

func (suite *TableSuite) TestUpdate_MissingReturnsNil() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT \* FROM "roasters" WHERE id = \$1 (.+)`).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	suite.mock.ExpectCommit()

	row, err := suite.table.Update(context.Background(), 5, model.Lookup{Name: "Nobody"})

	suite.Require().NoError(err)
	suite.Nil(row)
}

func (suite *TableSuite) TestUpdate_KeepsCreatedAt() {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT \* FROM "roasters" WHERE id = \$1 (.+)`).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(5, "Old", created, created))
	suite.mock.ExpectExec(`^UPDATE "roasters" SET (.+) WHERE "id" = (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	suite.mock.ExpectCommit()

	row, err := suite.table.Update(context.Background(), 5, model.Lookup{Name: "New"})

	suite.Require().NoError(err)
	suite.Require().NotNil(row)
	suite.Equal(5, row.ID)
	suite.Equal("New", row.Name)
	suite.Equal(created, row.CreatedAt.Time)
	suite.Equal(suite.now, row.UpdatedAt.Time)
}

func (suite *TableSuite) TestDelete_ReportsRowsAffected() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "roasters" WHERE "roasters"."id" = $1`)).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	suite.mock.ExpectCommit()

	deleted, err := suite.table.Delete(context.Background(), 4)

	suite.Require().NoError(err)
	suite.True(deleted)
}

func (suite *TableSuite) TestRewrite_InsertsNewRows() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "roasters" ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Square Mile"))
	suite.mock.ExpectQuery(`^INSERT INTO "roasters" (.+) RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	suite.mock.ExpectCommit()

	rows, err := suite.table.Rewrite(context.Background(), func(rows []model.Lookup) ([]model.Lookup, error) {
		return append(rows, model.Lookup{Name: "Origin"}), nil
	})

	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)
	suite.Equal(2, rows[1].ID)
	suite.Equal(suite.now, rows[1].CreatedAt.Time)
}
