package repository_test

import (
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"droscher.com/BeanJournal/pkg/repository"
)

type RepositorySuite struct {
	suite.Suite
	dataDir      string
	now          time.Time
	observedLogs *observer.ObservedLogs
	repository   *repository.Repository
}

func (suite *RepositorySuite) SetupTest() {
	var observedZapCore zapcore.Core

	observedZapCore, suite.observedLogs = observer.New(zap.InfoLevel)
	observedLogger := zap.New(observedZapCore)

	suite.dataDir = suite.T().TempDir()
	suite.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	var err error
	suite.repository, err = repository.NewJSON(suite.dataDir, observedLogger, repository.WithClock(suite.clock))
	suite.Require().NoError(err)
}

func (suite *RepositorySuite) TearDownTest() {
	suite.repository.Close()
}

func (suite *RepositorySuite) clock() time.Time {
	return suite.now
}

func (suite *RepositorySuite) advance(d time.Duration) {
	suite.now = suite.now.Add(d)
}
