package postgres

import (
	"context"
	"fmt"
	"time"

	"insightdash/adapters/datareadiness/coercer"
	"insightdash/domain/table"
	"insightdash/internal/errors"
	"insightdash/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const connectTimeout = 10 * time.Second

// Connect opens and pings a PostgreSQL database
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is not set")
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	return db, nil
}

// queryTableSource runs a read-only query and returns its result set as a table
type queryTableSource struct {
	db      *sqlx.DB
	query   string
	args    []interface{}
	maxRows int
	coercer *coercer.TypeCoercer
}

// NewQueryTableSource creates a table source backed by a SQL query.
// maxRows <= 0 disables the row limit.
func NewQueryTableSource(db *sqlx.DB, query string, maxRows int, args ...interface{}) ports.TableSource {
	return &queryTableSource{
		db:      db,
		query:   query,
		args:    args,
		maxRows: maxRows,
		coercer: coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()),
	}
}

// LoadTable executes the query. Column order follows the result set.
func (s *queryTableSource) LoadTable(ctx context.Context) (table.Table, error) {
	rows, err := s.db.QueryxContext(ctx, s.query, s.args...)
	if err != nil {
		return table.Table{}, errors.DatabaseError("failed to run table query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return table.Table{}, errors.DatabaseError("failed to read result columns", err)
	}
	columns = uniqueColumns(columns)

	var out []table.Row
	for rows.Next() {
		if s.maxRows > 0 && len(out) == s.maxRows {
			return table.Table{}, errors.ResourceLimitExceeded("row", len(out)+1, s.maxRows)
		}
		values, err := rows.SliceScan()
		if err != nil {
			return table.Table{}, errors.DatabaseError("failed to scan row", err)
		}
		out = append(out, s.rowFromValues(columns, values))
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, errors.DatabaseError("failed to iterate rows", err)
	}
	return table.Table{Columns: columns, Rows: out}, nil
}

// rowFromValues maps driver values onto cells
func (s *queryTableSource) rowFromValues(columns []string, values []interface{}) table.Row {
	row := make(table.Row, len(columns))
	for i, col := range columns {
		if i < len(values) {
			row[col] = s.coercer.CoerceRaw(values[i])
		} else {
			row[col] = table.NewMissingValue()
		}
	}
	return row
}

func uniqueColumns(columns []string) []string {
	out := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	for i, col := range columns {
		seen[col]++
		if n := seen[col]; n > 1 {
			col = fmt.Sprintf("%s_%d", col, n)
		}
		out[i] = col
	}
	return out
}
