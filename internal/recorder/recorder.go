// Package recorder persists fetched series so batches can be inspected
// after the process exits.
package recorder

import (
	"context"

	"tradingdata/internal/provider"
)

// Recorder stores normalized series. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordSeries(ctx context.Context, batchID string, data []provider.TradingData) error
	Close() error
}

// Open returns a SQLite recorder for path, or a Noop recorder when path is empty.
func Open(path string) (Recorder, error) {
	if path == "" {
		return NewNoop(), nil
	}
	return NewSQLite(path)
}
