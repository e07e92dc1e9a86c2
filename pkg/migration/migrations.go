package migration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/model"
	"droscher.com/BeanJournal/pkg/storage"
	"droscher.com/BeanJournal/pkg/storage/jsonfile"
)

type record = map[string]any

func registerBuiltins(m *Manager) {
	m.Register("1.0", "1.1", migrateV10ToV11)
	m.Register("1.1", "1.2", migrateV11ToV12)
	m.Register("1.0", "1.2", chain(migrateV10ToV11, migrateV11ToV12))
}

// chain runs steps in order as one registered migration.
func chain(steps ...Func) Func {
	return func(ctx context.Context, target Target) (int, error) {
		total := 0

		for _, step := range steps {
			writes, err := step(ctx, target)
			total += writes

			if err != nil {
				return total, err
			}
		}

		return total, nil
	}
}

// migrateV10ToV11 adds multi-valued bean type and region fields to products,
// the manual grind offset to grinders and short forms to every lookup table.
func migrateV10ToV11(ctx context.Context, target Target) (int, error) {
	writes, err := rewriteTable(ctx, target, model.ProductsTable+".json", func(row record) int {
		return addDefault(row, "bean_type_id", []any{}) + addDefault(row, "region_id", []any{})
	})
	if err != nil {
		return writes, err
	}

	grinders, err := rewriteTable(ctx, target, model.Grinder.FileName(), func(row record) int {
		return addDefault(row, "manually_ground_grams", 0)
	})
	if writes += grinders; err != nil {
		return writes, err
	}

	lookups, err := rewriteLookups(ctx, target, func(row record) int {
		return addDefault(row, "short_form", nil)
	})

	return writes + lookups, err
}

// migrateV11ToV12 adds audit timestamps everywhere, the active flag to batches
// and the default flag to lookups.
func migrateV11ToV12(ctx context.Context, target Target) (int, error) {
	stamp := target.Now.UTC().Format(time.RFC3339Nano)
	writes := 0

	for _, name := range model.TableFiles() {
		count, err := rewriteTable(ctx, target, name, func(row record) int {
			return addDefault(row, "created_at", stamp) + addDefault(row, "updated_at", stamp)
		})
		if writes += count; err != nil {
			return writes, err
		}
	}

	batches, err := rewriteTable(ctx, target, model.BatchesTable+".json", func(row record) int {
		return addDefault(row, "is_active", true)
	})
	if writes += batches; err != nil {
		return writes, err
	}

	lookups, err := rewriteLookups(ctx, target, func(row record) int {
		return addDefault(row, "is_default", false)
	})

	return writes + lookups, err
}

func rewriteLookups(ctx context.Context, target Target, change func(record) int) (int, error) {
	writes := 0

	for _, kind := range model.LookupKinds {
		count, err := rewriteTable(ctx, target, kind.FileName(), change)
		if writes += count; err != nil {
			return writes, err
		}
	}

	return writes, nil
}

// addDefault sets key only when the record lacks it, so a migration can be
// re-run over data it already touched.
func addDefault(row record, key string, value any) int {
	if _, ok := row[key]; ok {
		return 0
	}

	row[key] = value

	return 1
}

// rewriteTable applies change to every record of one table file and writes the
// file back when anything changed. Missing files are skipped.
func rewriteTable(ctx context.Context, target Target, name string, change func(record) int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path := filepath.Join(target.DataDir, name)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var rows []record
	if err := decoder.Decode(&rows); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", storage.ErrCorrupt, path, err)
	}

	writes := 0
	for _, row := range rows {
		writes += change(row)
	}

	if writes == 0 {
		return 0, nil
	}

	if rows == nil {
		rows = []record{}
	}

	encoded, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return 0, err
	}

	if err := jsonfile.WriteFile(path, encoded); err != nil {
		return 0, err
	}

	target.Logger.Debug("migrated table", zap.String("file", name), zap.Int("fields_written", writes))

	return writes, nil
}
