package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blazzica/marketplace-api/repositories"
)

const restPrefix = "/rest/v1/"

// TableClient implements repositories.TableQuery over the REST query layer
type TableClient struct {
	c *Client
}

// NewTableClient creates a REST table client
func NewTableClient(c *Client) *TableClient {
	return &TableClient{c: c}
}

// Select returns matching rows as a JSON array
func (t *TableClient) Select(ctx context.Context, q repositories.Query) (json.RawMessage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	resp, err := t.c.send(ctx, request{
		method: http.MethodGet,
		path:   restPrefix + q.Table,
		query:  selectParams(q),
	})
	if err != nil {
		return nil, mapRESTError(err)
	}
	return resp.body, nil
}

// SelectOne returns the first matching row as a JSON object
func (t *TableClient) SelectOne(ctx context.Context, q repositories.Query) (json.RawMessage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q = q.Range(q.Offset, 1)
	resp, err := t.c.send(ctx, request{
		method: http.MethodGet,
		path:   restPrefix + q.Table,
		query:  selectParams(q),
		header: http.Header{"Accept": {"application/vnd.pgrst.object+json"}},
	})
	if err != nil {
		return nil, mapRESTError(err)
	}
	return resp.body, nil
}

// Count returns the exact number of matching rows
func (t *TableClient) Count(ctx context.Context, table string, filters ...repositories.Filter) (int, error) {
	if err := (repositories.Query{Table: table, Filters: filters}).Validate(); err != nil {
		return 0, err
	}
	query := filterParams(filters)
	query.Set("select", "*")
	resp, err := t.c.send(ctx, request{
		method: http.MethodHead,
		path:   restPrefix + table,
		query:  query,
		header: http.Header{"Prefer": {"count=exact"}},
	})
	if err != nil {
		return 0, mapRESTError(err)
	}
	return parseContentRange(resp.header.Get("Content-Range"))
}

// Insert writes one row and returns it as a single-element JSON array
func (t *TableClient) Insert(ctx context.Context, table string, row map[string]any) (json.RawMessage, error) {
	body, err := encodeRow(table, row)
	if err != nil {
		return nil, err
	}
	resp, err := t.c.send(ctx, request{
		method: http.MethodPost,
		path:   restPrefix + table,
		header: http.Header{"Prefer": {"return=representation"}},
		body:   body,
	})
	if err != nil {
		return nil, mapRESTError(err)
	}
	return resp.body, nil
}

// Update patches matching rows and returns them
func (t *TableClient) Update(ctx context.Context, table string, patch map[string]any, filters ...repositories.Filter) (json.RawMessage, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: update of %s without filters", repositories.ErrUnsafeQuery, table)
	}
	if err := repositories.ValidateFilters(filters); err != nil {
		return nil, err
	}
	body, err := encodeRow(table, patch)
	if err != nil {
		return nil, err
	}
	resp, err := t.c.send(ctx, request{
		method: http.MethodPatch,
		path:   restPrefix + table,
		query:  filterParams(filters),
		header: http.Header{"Prefer": {"return=representation"}},
		body:   body,
	})
	if err != nil {
		return nil, mapRESTError(err)
	}
	return resp.body, nil
}

// Delete removes matching rows
func (t *TableClient) Delete(ctx context.Context, table string, filters ...repositories.Filter) error {
	if len(filters) == 0 {
		return fmt.Errorf("%w: delete from %s without filters", repositories.ErrUnsafeQuery, table)
	}
	if err := (repositories.Query{Table: table, Filters: filters}).Validate(); err != nil {
		return err
	}
	_, err := t.c.send(ctx, request{
		method: http.MethodDelete,
		path:   restPrefix + table,
		query:  filterParams(filters),
	})
	if err != nil {
		return mapRESTError(err)
	}
	return nil
}

// Ping checks the REST layer answers
func (t *TableClient) Ping(ctx context.Context) error {
	if _, err := t.c.send(ctx, request{method: http.MethodHead, path: restPrefix}); err != nil {
		return fmt.Errorf("rest api unreachable: %w", err)
	}
	return nil
}

// mapRESTError translates REST status codes into repository sentinels
func mapRESTError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.StatusCode == http.StatusConflict || apiErr.Code == "23505":
		return fmt.Errorf("%w: %s", repositories.ErrConflict, apiErr.Message)
	case apiErr.StatusCode == http.StatusNotAcceptable || apiErr.Code == "PGRST116":
		return repositories.ErrNotFound
	}
	return err
}

func encodeRow(table string, row map[string]any) (map[string]any, error) {
	if !repositories.ValidIdentifier(table) {
		return nil, fmt.Errorf("%w: table %q", repositories.ErrUnsafeQuery, table)
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("%w: empty write to %s", repositories.ErrUnsafeQuery, table)
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		if !repositories.ValidIdentifier(k) {
			return nil, fmt.Errorf("%w: column %q", repositories.ErrUnsafeQuery, k)
		}
		out[k] = repositories.Scalar(v)
	}
	return out, nil
}

func selectParams(q repositories.Query) url.Values {
	params := filterParams(q.Filters)
	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	} else {
		params.Set("select", "*")
	}
	if len(q.Order) > 0 {
		keys := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "asc"
			if o.Descending {
				dir = "desc"
			}
			keys[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(keys, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	return params
}

// filterParams renders filters as column=op.value pairs
func filterParams(filters []repositories.Filter) url.Values {
	params := url.Values{}
	for _, f := range filters {
		var expr string
		switch f.Op {
		case repositories.OpIn:
			values, _ := f.Value.([]any)
			quoted := make([]string, len(values))
			for i, v := range values {
				quoted[i] = quoteListValue(formatValue(v))
			}
			expr = "in.(" + strings.Join(quoted, ",") + ")"
		case repositories.OpIs:
			switch f.Value {
			case true:
				expr = "is.true"
			case false:
				expr = "is.false"
			default:
				expr = "is.null"
			}
		default:
			expr = string(f.Op) + "." + formatValue(f.Value)
		}
		params.Add(f.Column, expr)
	}
	return params
}

func formatValue(v any) string {
	switch x := repositories.Scalar(v).(type) {
	case nil:
		return "null"
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

func quoteListValue(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// parseContentRange reads the total from "0-24/3573" or "*/0"
func parseContentRange(header string) (int, error) {
	i := strings.LastIndex(header, "/")
	if i < 0 || header[i+1:] == "*" {
		return 0, fmt.Errorf("content-range %q carries no total", header)
	}
	n, err := strconv.Atoi(header[i+1:])
	if err != nil {
		return 0, fmt.Errorf("content-range %q: %w", header, err)
	}
	return n, nil
}
