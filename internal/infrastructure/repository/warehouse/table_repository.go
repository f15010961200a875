package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
	qb "github.com/riskibarqy/nfl-analytics/internal/platform/querybuilder"
	"github.com/riskibarqy/nfl-analytics/internal/platform/typeresolver"
)

const (
	columnCreatedAt = "created_at"
	columnUpdatedAt = "updated_at"

	defaultBatchRows = 1000
	// Postgres caps a statement at 65535 bind parameters.
	maxStatementParams = 60000
)

// TableRepository materializes ingestion batches into typed tables.
type TableRepository struct {
	db        *sqlx.DB
	resolver  *typeresolver.Resolver
	registry  *SchemaRegistry
	logger    *logging.Logger
	batchRows int
	now       func() time.Time

	// writeMu serializes every schema-check, delete, insert sequence on the shared handle.
	writeMu sync.Mutex
}

type TableOption func(*TableRepository)

func WithBatchRows(n int) TableOption {
	return func(r *TableRepository) {
		if n > 0 {
			r.batchRows = n
		}
	}
}

func WithClock(now func() time.Time) TableOption {
	return func(r *TableRepository) {
		if now != nil {
			r.now = now
		}
	}
}

func NewTableRepository(db *sqlx.DB, resolver *typeresolver.Resolver, registry *SchemaRegistry, logger *logging.Logger, opts ...TableOption) *TableRepository {
	if logger == nil {
		logger = logging.Default()
	}
	if registry == nil {
		registry = NewSchemaRegistry(db)
	}
	r := &TableRepository{
		db:        db,
		resolver:  resolver,
		registry:  registry,
		logger:    logger,
		batchRows: defaultBatchRows,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// boundColumn pairs a stored column with the batch column feeding it.
type boundColumn struct {
	spec   dataset.ColumnSpec
	source string
	stamp  bool
}

func (r *TableRepository) Insert(ctx context.Context, batch dataset.Batch, table string, policy dataset.ConflictPolicy) (int, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return 0, fmt.Errorf("table name is required")
	}
	if batch.IsEmpty() {
		r.logger.WarnContext(ctx, "empty batch, nothing to insert", "table", table)
		return 0, nil
	}

	bound, err := r.bindColumns(batch)
	if err != nil {
		return 0, crerr.Wrapf(err, "bind columns for %s", table)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	desc, found, err := r.registry.Lookup(ctx, table)
	if err != nil {
		return 0, err
	}
	if found {
		names := make([]string, 0, len(bound))
		for _, b := range bound {
			names = append(names, b.spec.Name)
		}
		missing, unexpected := desc.Diff(names)
		if len(missing) > 0 || len(unexpected) > 0 {
			return 0, &dataset.SchemaConflictError{Table: table, Missing: missing, Unexpected: unexpected}
		}
		// Stored types win over whatever this batch would infer.
		for i := range bound {
			stored, _ := desc.Column(bound[i].spec.Name)
			bound[i].spec.Type = stored.Type
		}
		bound = orderLike(bound, desc)
	} else {
		desc = dataset.TableDescriptor{Name: table, Columns: make([]dataset.ColumnSpec, 0, len(bound))}
		for _, b := range bound {
			desc.Columns = append(desc.Columns, b.spec)
		}
	}

	rows := r.coerceRows(batch, bound, r.now().UTC())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, crerr.Wrapf(err, "begin tx insert %s", table)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if !found {
		if err := createTable(ctx, tx, desc); err != nil {
			return 0, err
		}
	}
	if err := r.applyPolicy(ctx, tx, desc, policy, bound, rows); err != nil {
		return 0, err
	}
	if err := r.insertRows(ctx, tx, table, bound, rows); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, crerr.Wrapf(err, "commit insert %s tx", table)
	}

	r.registry.Put(desc)
	r.logger.InfoContext(ctx, "materialized batch", "table", table, "rows", len(rows), "policy", policy.String())
	return len(rows), nil
}

func (r *TableRepository) DropTable(ctx context.Context, table string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+qb.QuoteIdent(table)); err != nil {
		return crerr.Wrapf(err, "drop table %s", table)
	}
	r.registry.Forget(table)
	return nil
}

func (r *TableRepository) TableExists(ctx context.Context, table string) (bool, error) {
	return tableExists(ctx, r.db, table)
}

func (r *TableRepository) bindColumns(batch dataset.Batch) ([]boundColumn, error) {
	specs := r.resolver.ResolveBatch(batch)
	out := make([]boundColumn, 0, len(specs)+2)
	seen := make(map[string]struct{}, len(specs)+2)
	for i, spec := range specs {
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate column %s", spec.Name)
		}
		seen[spec.Name] = struct{}{}
		out = append(out, boundColumn{spec: spec, source: batch.Columns[i].Name})
	}
	for _, meta := range []string{columnCreatedAt, columnUpdatedAt} {
		if _, ok := seen[meta]; ok {
			continue
		}
		out = append(out, boundColumn{spec: dataset.ColumnSpec{Name: meta, Type: dataset.TypeTimestamp}, stamp: true})
	}
	return out, nil
}

func orderLike(bound []boundColumn, desc dataset.TableDescriptor) []boundColumn {
	pos := make(map[string]int, len(desc.Columns))
	for i, c := range desc.Columns {
		pos[c.Name] = i
	}
	out := append([]boundColumn(nil), bound...)
	sort.SliceStable(out, func(i, j int) bool { return pos[out[i].spec.Name] < pos[out[j].spec.Name] })
	return out
}

func (r *TableRepository) coerceRows(batch dataset.Batch, bound []boundColumn, now time.Time) [][]any {
	rows := make([][]any, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		values := make([]any, len(bound))
		for i, b := range bound {
			if b.stamp {
				values[i] = now
				continue
			}
			values[i] = r.resolver.Coerce(row[b.source], b.spec.Type)
		}
		rows = append(rows, values)
	}
	return rows
}

func createTable(ctx context.Context, tx *sqlx.Tx, desc dataset.TableDescriptor) error {
	builder := qb.CreateTable(desc.Name).IfNotExists()
	for _, c := range desc.Columns {
		builder.Column(c.Name, c.Type.SQL())
	}
	if len(desc.PrimaryKey) > 0 {
		builder.PrimaryKey(desc.PrimaryKey...)
	}
	query, err := builder.ToSQL()
	if err != nil {
		return crerr.Wrapf(err, "build create table %s query", desc.Name)
	}
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return crerr.Wrapf(err, "create table %s", desc.Name)
	}
	return nil
}

func (r *TableRepository) applyPolicy(ctx context.Context, tx *sqlx.Tx, desc dataset.TableDescriptor, policy dataset.ConflictPolicy, bound []boundColumn, rows [][]any) error {
	switch policy.Kind {
	case dataset.PolicyAppend:
		return nil
	case dataset.PolicyReplaceAll:
		query, args, err := qb.DeleteFrom(qb.QuoteIdent(desc.Name)).ToSQL()
		if err != nil {
			return crerr.Wrapf(err, "build clear %s query", desc.Name)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return crerr.Wrapf(err, "clear %s", desc.Name)
		}
		return nil
	case dataset.PolicyReplaceByPartition:
		return r.replacePartitions(ctx, tx, desc.Name, policy.Partition, bound, rows)
	default:
		return fmt.Errorf("unknown conflict policy %q", policy.Kind)
	}
}

func (r *TableRepository) replacePartitions(ctx context.Context, tx *sqlx.Tx, table string, keys []string, bound []boundColumn, rows [][]any) error {
	if len(keys) == 0 {
		return fmt.Errorf("partition columns are required for %s", table)
	}
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		found := -1
		for i, b := range bound {
			if b.spec.Name == k {
				found = i
				break
			}
		}
		if found < 0 {
			return fmt.Errorf("partition column %s not present in %s batch", k, table)
		}
		idx = append(idx, found)
	}

	for _, tuple := range distinctTuples(rows, idx) {
		conds := make([]qb.Condition, 0, len(keys))
		for i, k := range keys {
			if tuple[i] == nil {
				conds = append(conds, qb.IsNull(qb.QuoteIdent(k)))
				continue
			}
			conds = append(conds, qb.Eq(qb.QuoteIdent(k), tuple[i]))
		}
		query, args, err := qb.DeleteFrom(qb.QuoteIdent(table)).Where(conds...).ToSQL()
		if err != nil {
			return crerr.Wrapf(err, "build partition delete %s query", table)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return crerr.Wrapf(err, "delete partition %v from %s", tuple, table)
		}
	}
	return nil
}

// distinctTuples returns the distinct key tuples of rows in first-seen order.
func distinctTuples(rows [][]any, idx []int) [][]any {
	seen := make(map[string]struct{})
	out := make([][]any, 0)
	for _, row := range rows {
		tuple := make([]any, len(idx))
		parts := make([]string, len(idx))
		for i, col := range idx {
			tuple[i] = row[col]
			parts[i] = fmt.Sprintf("%T:%v", row[col], row[col])
		}
		key := strings.Join(parts, "|")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tuple)
	}
	return out
}

func (r *TableRepository) insertRows(ctx context.Context, tx *sqlx.Tx, table string, bound []boundColumn, rows [][]any) error {
	cols := make([]string, 0, len(bound))
	for _, b := range bound {
		cols = append(cols, qb.QuoteIdent(b.spec.Name))
	}

	chunk := r.batchRows
	if limit := maxStatementParams / len(cols); limit < chunk {
		chunk = limit
	}
	if chunk < 1 {
		chunk = 1
	}

	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		builder := qb.InsertInto(qb.QuoteIdent(table)).Columns(cols...)
		for _, values := range rows[start:end] {
			builder.Values(values...)
		}
		query, args, err := builder.ToSQL()
		if err != nil {
			return crerr.Wrapf(err, "build insert %s query", table)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return crerr.Wrapf(err, "insert rows %d-%d into %s", start, end, table)
		}
	}
	return nil
}
