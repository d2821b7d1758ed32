package recorder

import (
	"context"
	"fmt"
)

var StmtHead = stmtHead

// BatchSize counts the points last written by batchID.
func (r *SQLite) BatchSize(ctx context.Context, batchID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM series_points WHERE batch_id = ?`, batchID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count batch: %w", err)
	}
	return n, nil
}
