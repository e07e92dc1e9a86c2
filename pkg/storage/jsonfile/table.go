// Package jsonfile stores each table as a JSON array in its own file. Every
// operation reads or overwrites the whole file while holding the table's lock.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/storage"
)

const filePermissions = 0o644

type Table[T any, P storage.Entity[T]] struct {
	path   string
	clock  storage.Clock
	logger *zap.Logger

	mu     sync.Mutex
	broken error
}

type Option func(*options)

type options struct {
	clock  storage.Clock
	logger *zap.Logger
}

func WithClock(clock storage.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open returns the table stored at path, creating an empty file when none exists.
func Open[T any, P storage.Entity[T]](path string, opts ...Option) (*Table[T, P], error) {
	o := options{clock: storage.SystemClock, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	table := &Table[T, P]{path: path, clock: o.clock, logger: o.logger}

	if err := table.ensureFile(); err != nil {
		return nil, err
	}

	return table, nil
}

func (t *Table[T, P]) Path() string {
	return t.path
}

func (t *Table[T, P]) FindAll(_ context.Context) ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.load()
}

func (t *Table[T, P]) FindByID(_ context.Context, id int) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load()
	if err != nil {
		return nil, err
	}

	if index := indexOf[T, P](rows, id); index >= 0 {
		return &rows[index], nil
	}

	return nil, nil //nolint:nilnil // a missing record is not an error
}

func (t *Table[T, P]) Create(_ context.Context, record T) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load()
	if err != nil {
		return nil, err
	}

	now := t.clock()
	base := P(&record).GetBase()
	base.ID = storage.NextID[T, P](rows)
	base.CreatedAt.Time = now
	base.UpdatedAt.Time = now

	rows = append(rows, record)
	if err := t.store(rows); err != nil {
		return nil, err
	}

	return &record, nil
}

func (t *Table[T, P]) Update(_ context.Context, id int, record T) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load()
	if err != nil {
		return nil, err
	}

	index := indexOf[T, P](rows, id)
	if index < 0 {
		return nil, nil //nolint:nilnil // a missing record is not an error
	}

	base := P(&record).GetBase()
	base.ID = id
	base.CreatedAt = P(&rows[index]).GetBase().CreatedAt
	base.UpdatedAt.Time = t.clock()

	rows[index] = record
	if err := t.store(rows); err != nil {
		return nil, err
	}

	return &record, nil
}

func (t *Table[T, P]) Delete(_ context.Context, id int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load()
	if err != nil {
		return false, err
	}

	index := indexOf[T, P](rows, id)
	if index < 0 {
		return false, nil
	}

	rows = append(rows[:index], rows[index+1:]...)

	return true, t.store(rows)
}

func (t *Table[T, P]) Rewrite(_ context.Context, mutate func(rows []T) ([]T, error)) ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	before, err := t.load()
	if err != nil {
		return nil, err
	}

	working, err := storage.Snapshot(before)
	if err != nil {
		return nil, err
	}

	after, err := mutate(working)
	if err != nil {
		return nil, err
	}

	changes := storage.Reconcile[T, P](before, after, t.clock(), true)
	if changes.Empty() {
		return after, nil
	}

	t.logger.Debug("rewriting table",
		zap.String("file", t.path),
		zap.Int("created", len(changes.Created)),
		zap.Int("updated", len(changes.Updated)),
		zap.Int("deleted", len(changes.Deleted)))

	if err := t.store(after); err != nil {
		return nil, err
	}

	return after, nil
}

func (t *Table[T, P]) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}

	_, err := os.Stat(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return WriteFile(t.path, []byte("[]"))
	}

	return err
}

func (t *Table[T, P]) load() ([]T, error) {
	if t.broken != nil {
		return nil, t.broken
	}

	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, WriteFile(t.path, []byte("[]"))
	}

	if err != nil {
		return nil, err
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		t.broken = fmt.Errorf("%w: %s: %w", storage.ErrCorrupt, t.path, err)
		t.logger.Error("unreadable table file", zap.String("file", t.path), zap.Error(err))

		return nil, t.broken
	}

	if rows == nil {
		rows = []T{}
	}

	return rows, nil
}

func (t *Table[T, P]) store(rows []T) error {
	if rows == nil {
		rows = []T{}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}

	return WriteFile(t.path, data)
}

func indexOf[T any, P storage.Entity[T]](rows []T, id int) int {
	for index := range rows {
		if P(&rows[index]).GetBase().ID == id {
			return index
		}
	}

	return -1
}

// WriteFile replaces path with data through a temporary file in the same
// directory, so readers never observe a half-written table.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name()) //nolint:errcheck // the file is gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), filePermissions); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
