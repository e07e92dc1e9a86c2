package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"droscher.com/BeanJournal/configs"
	"droscher.com/BeanJournal/pkg/migration"
	"droscher.com/BeanJournal/pkg/storage/sqlstore"
)

var ErrMigrationPending = errors.New("data needs migration")

type MigrateCmd struct {
	ConfigFile string `default:".BeanJournal.toml" help:"Path to config file"              short:"c"`
	NoBackup   bool   `help:"Skip the backup of the data directory before migrating"`
}

func (m *MigrateCmd) Run(cliCtx *Context) error {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.DisableStacktrace = true

	if cliCtx.Debug {
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, _ := logConfig.Build()
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	conf, err := configs.GetConfig(m.ConfigFile, logger)
	if err != nil {
		logger.Error("error loading config", zap.Error(err))

		return err
	}

	if conf.Storage.Backend == configs.BackendPostgres {
		return migrateDatabase(conf, logger)
	}

	backup := !conf.Migration.SkipBackup && !m.NoBackup

	return migrateDataDir(context.Background(), conf, logger, backup)
}

func migrateDatabase(conf *configs.Config, logger *zap.Logger) error {
	db, err := sqlstore.Open(conf, logger)
	if err != nil {
		logger.Error("error connecting to database", zap.Error(err))

		return err
	}
	defer sqlstore.Close(db)

	if err := sqlstore.AutoMigrate(db); err != nil {
		logger.Error("error migrating database", zap.Error(err))

		return err
	}

	logger.Info("database schema is current")

	return nil
}

func newMigrationManager(conf *configs.Config, logger *zap.Logger) (*migration.Manager, error) {
	manager, err := migration.NewManager(conf.Storage.DataDir, conf.Migration.SchemaVersion, logger)
	if err != nil {
		return nil, err
	}

	if err := manager.EnsureVersionFile(); err != nil {
		return nil, fmt.Errorf("error stamping data directory: %w", err)
	}

	return manager, nil
}

func migrateDataDir(ctx context.Context, conf *configs.Config, logger *zap.Logger, backup bool) error {
	manager, err := newMigrationManager(conf, logger)
	if err != nil {
		logger.Error("error preparing migration", zap.Error(err))

		return err
	}

	backupPath, err := manager.Migrate(ctx, backup)
	if err != nil {
		logger.Error("error migrating data", zap.Error(err), zap.String("backup", backupPath))

		return err
	}

	return nil
}

// checkDataDir refuses to serve data written by an older schema.
func checkDataDir(conf *configs.Config, logger *zap.Logger) error {
	manager, err := newMigrationManager(conf, logger)
	if err != nil {
		return err
	}

	needed, err := manager.NeedsMigration()
	if err != nil {
		return err
	}

	if needed {
		current, err := manager.DataVersion()
		if err != nil {
			return err
		}

		return fmt.Errorf("%w: %s is at %s, run migrate or serve --migrate to reach %s",
			ErrMigrationPending, conf.Storage.DataDir, current, manager.SchemaVersion())
	}

	return nil
}
