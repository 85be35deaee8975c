package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blazzica/marketplace-api/repositories"
	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE for a duplicate key
const uniqueViolation = "23505"

// TableStore implements repositories.TableQuery directly against Postgres.
// Rows are rendered to JSON by the database so decoding matches the REST backend.
type TableStore struct {
	db *DB
}

// NewTableStore creates a table store over db
func NewTableStore(db *DB) *TableStore {
	return &TableStore{db: db}
}

// Select returns matching rows as a JSON array
func (s *TableStore) Select(ctx context.Context, q repositories.Query) (json.RawMessage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var args argList
	inner := selectSQL(q, &args)
	query := fmt.Sprintf("SELECT coalesce(json_agg(row_to_json(t)), '[]'::json) FROM (%s) t", inner)

	var raw []byte
	if err := GetExecutor(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", q.Table, err)
	}
	return raw, nil
}

// SelectOne returns the first matching row as a JSON object
func (s *TableStore) SelectOne(ctx context.Context, q repositories.Query) (json.RawMessage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q = q.Range(q.Offset, 1)
	var args argList
	query := fmt.Sprintf("SELECT row_to_json(t) FROM (%s) t", selectSQL(q, &args))

	var raw []byte
	err := GetExecutor(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", q.Table, err)
	}
	return raw, nil
}

// Count returns the number of matching rows
func (s *TableStore) Count(ctx context.Context, table string, filters ...repositories.Filter) (int, error) {
	if err := (repositories.Query{Table: table, Filters: filters}).Validate(); err != nil {
		return 0, err
	}
	var args argList
	query := "SELECT count(*) FROM " + pq.QuoteIdentifier(table) + whereSQL(filters, &args)

	var n int
	if err := GetExecutor(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Insert writes one row and returns it as a single-element JSON array
func (s *TableStore) Insert(ctx context.Context, table string, row map[string]any) (json.RawMessage, error) {
	columns, err := sortedColumns(table, row)
	if err != nil {
		return nil, err
	}

	var args argList
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
		placeholders[i] = args.add(row[c])
	}

	query := fmt.Sprintf(
		"WITH written AS (INSERT INTO %s (%s) VALUES (%s) RETURNING *) "+
			"SELECT coalesce(json_agg(row_to_json(written)), '[]'::json) FROM written",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	return s.returning(ctx, "insert into", table, query, args)
}

// Update patches matching rows and returns them
func (s *TableStore) Update(ctx context.Context, table string, patch map[string]any, filters ...repositories.Filter) (json.RawMessage, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: update of %s without filters", repositories.ErrUnsafeQuery, table)
	}
	if err := repositories.ValidateFilters(filters); err != nil {
		return nil, err
	}
	columns, err := sortedColumns(table, patch)
	if err != nil {
		return nil, err
	}

	var args argList
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = pq.QuoteIdentifier(c) + " = " + args.add(patch[c])
	}

	query := fmt.Sprintf(
		"WITH written AS (UPDATE %s SET %s%s RETURNING *) "+
			"SELECT coalesce(json_agg(row_to_json(written)), '[]'::json) FROM written",
		pq.QuoteIdentifier(table), strings.Join(sets, ", "), whereSQL(filters, &args))

	return s.returning(ctx, "update", table, query, args)
}

// Delete removes matching rows
func (s *TableStore) Delete(ctx context.Context, table string, filters ...repositories.Filter) error {
	if len(filters) == 0 {
		return fmt.Errorf("%w: delete from %s without filters", repositories.ErrUnsafeQuery, table)
	}
	if err := (repositories.Query{Table: table, Filters: filters}).Validate(); err != nil {
		return err
	}
	var args argList
	query := "DELETE FROM " + pq.QuoteIdentifier(table) + whereSQL(filters, &args)

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, mapError(err))
	}
	return nil
}

// Ping checks the database is reachable
func (s *TableStore) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func (s *TableStore) returning(ctx context.Context, verb, table, query string, args argList) (json.RawMessage, error) {
	var raw []byte
	if err := GetExecutor(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", verb, table, mapError(err))
	}
	return raw, nil
}

func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repositories.ErrConflict, pqErr.Constraint)
	}
	return err
}

func sortedColumns(table string, row map[string]any) ([]string, error) {
	if !repositories.ValidIdentifier(table) {
		return nil, fmt.Errorf("%w: table %q", repositories.ErrUnsafeQuery, table)
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("%w: empty write to %s", repositories.ErrUnsafeQuery, table)
	}
	columns := make([]string, 0, len(row))
	for c := range row {
		if !repositories.ValidIdentifier(c) {
			return nil, fmt.Errorf("%w: column %q", repositories.ErrUnsafeQuery, c)
		}
		columns = append(columns, c)
	}
	sort.Strings(columns)
	return columns, nil
}

// argList collects positional parameters
type argList []any

func (a *argList) add(v any) string {
	*a = append(*a, sqlValue(v))
	return "$" + strconv.Itoa(len(*a))
}

// sqlValue converts a column value into something lib/pq can bind
func sqlValue(v any) any {
	v = repositories.Scalar(v)
	switch x := v.(type) {
	case json.RawMessage:
		return string(x)
	case []string:
		return pq.Array(x)
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(data)
	}
	return v
}

func selectSQL(q repositories.Query, args *argList) string {
	columns := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		columns = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT " + columns + " FROM " + pq.QuoteIdentifier(q.Table))
	b.WriteString(whereSQL(q.Filters, args))

	if len(q.Order) > 0 {
		keys := make([]string, len(q.Order))
		for i, o := range q.Order {
			keys[i] = pq.QuoteIdentifier(o.Column)
			if o.Descending {
				keys[i] += " DESC"
			}
		}
		b.WriteString(" ORDER BY " + strings.Join(keys, ", "))
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET " + strconv.Itoa(q.Offset))
	}
	return b.String()
}

var comparison = map[repositories.Op]string{
	repositories.OpEq:    "=",
	repositories.OpNeq:   "<>",
	repositories.OpGt:    ">",
	repositories.OpGte:   ">=",
	repositories.OpLt:    "<",
	repositories.OpLte:   "<=",
	repositories.OpILike: "ILIKE",
}

// whereSQL renders already validated filters
func whereSQL(filters []repositories.Filter, args *argList) string {
	if len(filters) == 0 {
		return ""
	}
	clauses := make([]string, len(filters))
	for i, f := range filters {
		col := pq.QuoteIdentifier(f.Column)
		switch f.Op {
		case repositories.OpIn:
			values, _ := f.Value.([]any)
			texts := make([]string, len(values))
			for j, v := range values {
				texts[j] = fmt.Sprint(repositories.Scalar(v))
			}
			clauses[i] = col + " = ANY(" + args.add(texts) + ")"
		case repositories.OpIs:
			switch f.Value {
			case true:
				clauses[i] = col + " IS TRUE"
			case false:
				clauses[i] = col + " IS FALSE"
			default:
				clauses[i] = col + " IS NULL"
			}
		default:
			clauses[i] = col + " " + comparison[f.Op] + " " + args.add(f.Value)
		}
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}
