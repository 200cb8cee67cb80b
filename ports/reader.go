package ports

import (
	"context"

	"insightdash/domain/table"
)

// TableSource loads a raw table for analysis
type TableSource interface {
	LoadTable(ctx context.Context) (table.Table, error)
}
