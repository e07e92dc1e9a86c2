package repository

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"droscher.com/BeanJournal/configs"
	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/storage"
	"droscher.com/BeanJournal/pkg/storage/jsonfile"
	"droscher.com/BeanJournal/pkg/storage/sqlstore"
)

var ErrNotFound = errors.New("not found")

// Repository bundles every table of one journal. It is built once at start up
// and handed to whatever needs it.
type Repository struct {
	Products     *ProductRepository
	Batches      *BatchRepository
	BrewSessions *BrewSessionRepository

	logger  *zap.Logger
	lookups map[model.LookupKind]*LookupRepository
	closer  func()
}

type Option func(*options)

type options struct {
	clock storage.Clock
}

func WithClock(clock storage.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: storage.SystemClock}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func Open(conf *configs.Config, logger *zap.Logger, opts ...Option) (*Repository, error) {
	switch conf.Storage.Backend {
	case configs.BackendPostgres:
		db, err := sqlstore.Open(conf, logger)
		if err != nil {
			return nil, err
		}

		repo := NewSQL(db, logger, opts...)
		repo.closer = func() { sqlstore.Close(db) }

		return repo, nil
	case configs.BackendJSON:
		return NewJSON(conf.Storage.DataDir, logger, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", configs.ErrConfiguration, conf.Storage.Backend)
	}
}

// NewJSON opens one file per table under dataDir, creating empty tables as needed.
func NewJSON(dataDir string, logger *zap.Logger, opts ...Option) (*Repository, error) {
	o := buildOptions(opts)
	fileOpts := []jsonfile.Option{jsonfile.WithClock(o.clock), jsonfile.WithLogger(logger)}

	products, err := jsonfile.Open[model.Product](filepath.Join(dataDir, model.ProductsTable+".json"), fileOpts...)
	if err != nil {
		return nil, err
	}

	batches, err := jsonfile.Open[model.Batch](filepath.Join(dataDir, model.BatchesTable+".json"), fileOpts...)
	if err != nil {
		return nil, err
	}

	sessions, err := jsonfile.Open[model.BrewSession](filepath.Join(dataDir, model.BrewSessionsTable+".json"), fileOpts...)
	if err != nil {
		return nil, err
	}

	lookups := make(map[model.LookupKind]storage.Table[model.Lookup], len(model.LookupKinds))

	for _, kind := range model.LookupKinds {
		table, err := jsonfile.Open[model.Lookup](filepath.Join(dataDir, kind.FileName()), fileOpts...)
		if err != nil {
			return nil, err
		}

		lookups[kind] = table
	}

	logger.Info("opened json journal", zap.String("dir", dataDir))

	return newRepository(products, batches, sessions, lookups, o, logger), nil
}

func NewSQL(db *gorm.DB, logger *zap.Logger, opts ...Option) *Repository {
	o := buildOptions(opts)

	lookups := make(map[model.LookupKind]storage.Table[model.Lookup], len(model.LookupKinds))
	for _, kind := range model.LookupKinds {
		lookups[kind] = sqlstore.New[model.Lookup](db, kind.TableName(), o.clock)
	}

	return newRepository(
		sqlstore.New[model.Product](db, model.ProductsTable, o.clock),
		sqlstore.New[model.Batch](db, model.BatchesTable, o.clock),
		sqlstore.New[model.BrewSession](db, model.BrewSessionsTable, o.clock),
		lookups, o, logger)
}

func newRepository(
	products storage.Table[model.Product],
	batches storage.Table[model.Batch],
	sessions storage.Table[model.BrewSession],
	lookups map[model.LookupKind]storage.Table[model.Lookup],
	o options,
	logger *zap.Logger,
) *Repository {
	repo := &Repository{
		Products:     &ProductRepository{Table: products},
		Batches:      &BatchRepository{Table: batches},
		BrewSessions: &BrewSessionRepository{Table: sessions},
		logger:       logger,
		lookups:      make(map[model.LookupKind]*LookupRepository, len(lookups)),
	}

	for kind, table := range lookups {
		repo.lookups[kind] = &LookupRepository{Table: table, kind: kind, clock: o.clock, logger: logger}
	}

	return repo
}

// Lookup returns the repository for kind, nil for an unknown kind.
func (r *Repository) Lookup(kind model.LookupKind) *LookupRepository {
	return r.lookups[kind]
}

func (r *Repository) Close() {
	if r.closer != nil {
		r.closer()
	}

	r.logger.Info("closed journal storage")
}
