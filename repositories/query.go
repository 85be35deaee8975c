package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/blazzica/marketplace-api/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a single-row fetch matches nothing
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write violates a uniqueness constraint
	ErrConflict = errors.New("record conflicts with an existing one")

	// ErrUnsafeQuery is returned for malformed identifiers or unfiltered mutations
	ErrUnsafeQuery = errors.New("unsafe query")
)

// Op is a filter operator understood by every TableQuery backend
type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpILike Op = "ilike" // case-insensitive LIKE, % is the wildcard
	OpIn    Op = "in"    // Value is a slice
	OpIs    Op = "is"    // Value is nil, true or false
)

// Filter is a single column predicate. Filters in a query are ANDed.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter     { return Filter{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value any) Filter    { return Filter{Column: column, Op: OpNeq, Value: value} }
func Gte(column string, value any) Filter    { return Filter{Column: column, Op: OpGte, Value: value} }
func Lte(column string, value any) Filter    { return Filter{Column: column, Op: OpLte, Value: value} }
func ILike(column, pattern string) Filter    { return Filter{Column: column, Op: OpILike, Value: pattern} }
func In(column string, values ...any) Filter { return Filter{Column: column, Op: OpIn, Value: values} }
func Is(column string, value any) Filter     { return Filter{Column: column, Op: OpIs, Value: value} }

// Order sorts results by a column
type Order struct {
	Column     string
	Descending bool
}

// Query describes a read against one table
type Query struct {
	Table   string
	Columns []string // empty selects all columns
	Filters []Filter
	Order   []Order
	Offset  int
	Limit   int // zero means no limit
}

// From starts a query against table
func From(table string) Query {
	return Query{Table: table}
}

// Where appends filters
func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q
}

// OrderBy appends a sort key
func (q Query) OrderBy(column string, descending bool) Query {
	q.Order = append(append([]Order(nil), q.Order...), Order{Column: column, Descending: descending})
	return q
}

// Range restricts results to a page
func (q Query) Range(offset, limit int) Query {
	q.Offset = offset
	q.Limit = limit
	return q
}

// TableQuery is the generic CRUD interface of the data service.
// Reads return JSON so both the REST and SQL backends share decoding.
type TableQuery interface {
	// Select returns a JSON array of matching rows
	Select(ctx context.Context, q Query) (json.RawMessage, error)

	// SelectOne returns exactly one row as a JSON object, or ErrNotFound
	SelectOne(ctx context.Context, q Query) (json.RawMessage, error)

	// Count returns the number of matching rows
	Count(ctx context.Context, table string, filters ...Filter) (int, error)

	// Insert writes a row and returns it as stored
	Insert(ctx context.Context, table string, row map[string]any) (json.RawMessage, error)

	// Update patches matching rows and returns them as a JSON array.
	// At least one filter is required.
	Update(ctx context.Context, table string, patch map[string]any, filters ...Filter) (json.RawMessage, error)

	// Delete removes matching rows. At least one filter is required.
	Delete(ctx context.Context, table string, filters ...Filter) error

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdentifier reports whether name is a plain lower-case table or column name
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Validate checks identifiers and operators before a backend renders the query
func (q Query) Validate() error {
	if !ValidIdentifier(q.Table) {
		return fmt.Errorf("%w: table %q", ErrUnsafeQuery, q.Table)
	}
	for _, c := range q.Columns {
		if !ValidIdentifier(c) {
			return fmt.Errorf("%w: column %q", ErrUnsafeQuery, c)
		}
	}
	if err := ValidateFilters(q.Filters); err != nil {
		return err
	}
	for _, o := range q.Order {
		if !ValidIdentifier(o.Column) {
			return fmt.Errorf("%w: order column %q", ErrUnsafeQuery, o.Column)
		}
	}
	if q.Offset < 0 || q.Limit < 0 {
		return fmt.Errorf("%w: negative range", ErrUnsafeQuery)
	}
	return nil
}

// ValidateFilters checks filter columns and operators
func ValidateFilters(filters []Filter) error {
	for _, f := range filters {
		if !ValidIdentifier(f.Column) {
			return fmt.Errorf("%w: filter column %q", ErrUnsafeQuery, f.Column)
		}
		switch f.Op {
		case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpILike:
		case OpIn:
			if _, ok := f.Value.([]any); !ok {
				return fmt.Errorf("%w: in filter on %q needs a list", ErrUnsafeQuery, f.Column)
			}
		case OpIs:
			switch f.Value.(type) {
			case nil, bool:
			default:
				return fmt.Errorf("%w: is filter on %q needs null or a boolean", ErrUnsafeQuery, f.Column)
			}
		default:
			return fmt.Errorf("%w: operator %q", ErrUnsafeQuery, f.Op)
		}
	}
	return nil
}

// Scalar converts domain values into primitives every backend accepts:
// UUIDs and string kinds become strings, Timestamps become time.Time.
func Scalar(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return nil
		}
		return x.String()
	case models.Timestamp:
		return x.Time
	case *models.Timestamp:
		if x == nil {
			return nil
		}
		return x.Time
	case time.Time, string, bool, int, int64, float64:
		return x
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return v
}

// DecodeRows unmarshals a JSON array of rows into typed models
func DecodeRows[T any](raw json.RawMessage) ([]*T, error) {
	var rows []*T
	if len(raw) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

// DecodeRow unmarshals a single JSON object into a typed model
func DecodeRow[T any](raw json.RawMessage) (*T, error) {
	var row T
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return &row, nil
}
