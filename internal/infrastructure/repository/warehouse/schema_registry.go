package warehouse

import (
	"context"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	qb "github.com/riskibarqy/nfl-analytics/internal/platform/querybuilder"
)

// SchemaRegistry caches table descriptors, hydrating unknown tables from the catalog.
type SchemaRegistry struct {
	db *sqlx.DB

	mu     sync.RWMutex
	tables map[string]dataset.TableDescriptor
}

func NewSchemaRegistry(db *sqlx.DB) *SchemaRegistry {
	return &SchemaRegistry{
		db:     db,
		tables: make(map[string]dataset.TableDescriptor),
	}
}

type catalogColumn struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
}

// Lookup returns the stored descriptor; found is false when the table does not exist.
func (s *SchemaRegistry) Lookup(ctx context.Context, table string) (dataset.TableDescriptor, bool, error) {
	s.mu.RLock()
	desc, ok := s.tables[table]
	s.mu.RUnlock()
	if ok {
		return desc, true, nil
	}

	cols, err := s.catalogColumns(ctx, table)
	if err != nil {
		return dataset.TableDescriptor{}, false, err
	}
	if len(cols) == 0 {
		return dataset.TableDescriptor{}, false, nil
	}

	desc = dataset.TableDescriptor{Name: table, Exists: true, Columns: make([]dataset.ColumnSpec, 0, len(cols))}
	for _, c := range cols {
		desc.Columns = append(desc.Columns, dataset.ColumnSpec{Name: c.Name, Type: dataset.FromSQLType(c.DataType)})
	}
	s.Put(desc)
	return desc, true, nil
}

func (s *SchemaRegistry) Put(desc dataset.TableDescriptor) {
	desc.Exists = true
	s.mu.Lock()
	s.tables[desc.Name] = desc
	s.mu.Unlock()
}

func (s *SchemaRegistry) Forget(table string) {
	s.mu.Lock()
	delete(s.tables, table)
	s.mu.Unlock()
}

func (s *SchemaRegistry) catalogColumns(ctx context.Context, table string) ([]catalogColumn, error) {
	query, args, err := qb.Select("column_name", "data_type").
		From("information_schema.columns").
		Where(
			qb.Expr("table_schema = current_schema()"),
			qb.Eq("table_name", table),
		).
		OrderBy("ordinal_position").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build catalog columns query")
	}

	var out []catalogColumn
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "load catalog columns for %s", table)
	}
	return out, nil
}

func tableExists(ctx context.Context, q sqlx.QueryerContext, table string) (bool, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("information_schema.tables").
		Where(
			qb.Expr("table_schema = current_schema()"),
			qb.Eq("table_name", table),
		).
		ToSQL()
	if err != nil {
		return false, crerr.Wrap(err, "build table exists query")
	}

	var count int64
	if err := sqlx.GetContext(ctx, q, &count, query, args...); err != nil {
		return false, crerr.Wrapf(err, "check table %s exists", table)
	}
	return count > 0, nil
}
