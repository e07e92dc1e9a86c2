package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.openly.dev/pointy"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/storage"
)

type StorageTestSuite struct {
	suite.Suite
}

func TestStorageTestSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}

func (suite *StorageTestSuite) TestSnapshot_IsIndependent() {
	created := model.NewTimestamp(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	rows := []model.Product{{
		Base:       model.Base{ID: 1, CreatedAt: created, UpdatedAt: created},
		RoasterID:  pointy.Int(3),
		BeanTypeID: model.IDList{1, 2},
	}}

	copied, err := storage.Snapshot(rows)
	suite.Require().NoError(err)
	suite.Require().Len(copied, 1)

	*copied[0].RoasterID = 4
	copied[0].BeanTypeID[0] = 9

	suite.Equal(3, *rows[0].RoasterID)
	suite.Equal(model.IDList{1, 2}, rows[0].BeanTypeID)
	suite.True(copied[0].CreatedAt.Equal(created.Time))
	suite.Equal(1, copied[0].ID)
}

func (suite *StorageTestSuite) TestNextID() {
	suite.Equal(1, storage.NextID[model.Batch](nil))
	suite.Equal(8, storage.NextID[model.Batch]([]model.Batch{{Base: model.Base{ID: 7}}, {Base: model.Base{ID: 2}}}))
}
