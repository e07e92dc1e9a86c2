// Package migration brings the JSON tables of a data directory up to the
// schema version the running code expects. Each registered migration moves
// data between two exact versions; gaps are not bridged by chaining.
package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/storage"
	"droscher.com/BeanJournal/pkg/storage/jsonfile"
)

const (
	VersionFile = "data_version.json"
	// BaseVersion is assumed for data written before version files existed.
	BaseVersion   = "1.0"
	SchemaVersion = "1.2"

	backupTimeFormat = "20060102_150405"
)

var (
	ErrUnsupportedMigrationPath = errors.New("unsupported migration path")
	ErrMigrationFailed          = errors.New("migration failed")
	ErrInvalidVersion           = errors.New("invalid version")
)

// Target is what a migration operates on.
type Target struct {
	DataDir string
	Now     time.Time
	Logger  *zap.Logger
}

// Func transforms the tables in target and reports how many fields it wrote.
type Func func(ctx context.Context, target Target) (int, error)

type VersionInfo struct {
	SchemaVersion string `json:"schema_version"`
	MigrationDate string `json:"migration_date"`
	Description   string `json:"description"`
	// Version is the key used by older version files.
	Version string `json:"version,omitempty"`
}

type Manager struct {
	dataDir       string
	schemaVersion string
	migrations    map[string]Func
	logger        *zap.Logger
	clock         storage.Clock
}

type Option func(*Manager)

func WithClock(clock storage.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager returns a manager for dataDir with the built-in migrations registered.
func NewManager(dataDir, schemaVersion string, logger *zap.Logger, opts ...Option) (*Manager, error) {
	if _, err := parseVersion(schemaVersion); err != nil {
		return nil, err
	}

	m := &Manager{
		dataDir:       filepath.Clean(dataDir),
		schemaVersion: schemaVersion,
		migrations:    make(map[string]Func),
		logger:        logger,
		clock:         storage.SystemClock,
	}

	for _, opt := range opts {
		opt(m)
	}

	registerBuiltins(m)

	return m, nil
}

func key(from, to string) string {
	return from + "->" + to
}

func parseVersion(value string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, value, err)
	}

	return parsed, nil
}

func (m *Manager) Register(from, to string, fn Func) {
	m.migrations[key(from, to)] = fn
}

func (m *Manager) SchemaVersion() string {
	return m.schemaVersion
}

func (m *Manager) versionPath() string {
	return filepath.Join(m.dataDir, VersionFile)
}

// DataVersion reads the version stamp of the data directory. Without a stamp,
// existing tables are taken to be BaseVersion and an empty directory to be
// current.
func (m *Manager) DataVersion() (string, error) {
	data, err := os.ReadFile(m.versionPath())
	if errors.Is(err, fs.ErrNotExist) {
		if m.hasTables() {
			return BaseVersion, nil
		}

		return m.schemaVersion, nil
	}

	if err != nil {
		return "", err
	}

	var info VersionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("%w: %s: %w", storage.ErrCorrupt, m.versionPath(), err)
	}

	switch {
	case info.SchemaVersion != "":
		return info.SchemaVersion, nil
	case info.Version != "":
		return info.Version, nil
	default:
		return BaseVersion, nil
	}
}

func (m *Manager) hasTables() bool {
	for _, name := range model.TableFiles() {
		if _, err := os.Stat(filepath.Join(m.dataDir, name)); err == nil {
			return true
		}
	}

	return false
}

// EnsureVersionFile stamps a directory that has neither a version file nor
// tables, so tables created afterwards are known to be current.
func (m *Manager) EnsureVersionFile() error {
	if _, err := os.Stat(m.versionPath()); err == nil || !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if m.hasTables() {
		return nil
	}

	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return err
	}

	m.logger.Info("stamping new data directory", zap.String("dir", m.dataDir), zap.String("version", m.schemaVersion))

	return m.writeVersion(m.schemaVersion, "New data directory at version "+m.schemaVersion)
}

func (m *Manager) writeVersion(version, description string) error {
	info := VersionInfo{
		SchemaVersion: version,
		MigrationDate: m.clock().UTC().Format(time.RFC3339),
		Description:   description,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	return jsonfile.WriteFile(m.versionPath(), data)
}

func (m *Manager) NeedsMigration() (bool, error) {
	current, err := m.DataVersion()
	if err != nil {
		return false, err
	}

	dataVersion, err := parseVersion(current)
	if err != nil {
		return false, err
	}

	schemaVersion, err := parseVersion(m.schemaVersion)
	if err != nil {
		return false, err
	}

	return dataVersion.LessThan(schemaVersion), nil
}

// Apply runs the migration registered for from->to without touching the
// version file and returns the number of fields it wrote.
func (m *Manager) Apply(ctx context.Context, from, to string) (int, error) {
	fn, ok := m.migrations[key(from, to)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedMigrationPath, key(from, to))
	}

	m.logger.Info("running migration", zap.String("migration", key(from, to)))

	writes, err := fn(ctx, Target{DataDir: m.dataDir, Now: m.clock(), Logger: m.logger})
	if err != nil {
		return writes, fmt.Errorf("%w: %s: %w", ErrMigrationFailed, key(from, to), err)
	}

	return writes, nil
}

// RunMigrations migrates the data directory to the schema version. The version
// file only changes after the migration succeeded. Tables rewritten before a
// failure stay rewritten.
func (m *Manager) RunMigrations(ctx context.Context) error {
	needed, err := m.NeedsMigration()
	if err != nil {
		return err
	}

	if !needed {
		m.logger.Info("data is up to date", zap.String("version", m.schemaVersion))

		return nil
	}

	from, err := m.DataVersion()
	if err != nil {
		return err
	}

	writes, err := m.Apply(ctx, from, m.schemaVersion)
	if err != nil {
		m.logger.Error("migration aborted", zap.String("from", from), zap.String("to", m.schemaVersion), zap.Error(err))

		return err
	}

	if err := m.writeVersion(m.schemaVersion, fmt.Sprintf("Data migrated from %s to %s", from, m.schemaVersion)); err != nil {
		return err
	}

	m.logger.Info("migration complete",
		zap.String("from", from), zap.String("to", m.schemaVersion), zap.Int("fields_written", writes))

	return nil
}

// BackupData copies the data directory to a timestamped sibling and returns its path.
func (m *Manager) BackupData() (string, error) {
	target := m.dataDir + "_backup_" + m.clock().Format(backupTimeFormat)

	if err := os.CopyFS(target, os.DirFS(m.dataDir)); err != nil {
		return "", fmt.Errorf("backing up %s: %w", m.dataDir, err)
	}

	m.logger.Info("data backed up", zap.String("backup", target))

	return target, nil
}

// Migrate backs the data up when asked to and then runs the pending migration.
// It returns the backup path, empty when nothing was backed up.
func (m *Manager) Migrate(ctx context.Context, backup bool) (string, error) {
	needed, err := m.NeedsMigration()
	if err != nil || !needed {
		return "", err
	}

	var backupPath string

	if backup {
		if backupPath, err = m.BackupData(); err != nil {
			return "", err
		}
	}

	return backupPath, m.RunMigrations(ctx)
}
