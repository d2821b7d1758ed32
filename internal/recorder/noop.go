package recorder

import (
	"context"

	"tradingdata/internal/provider"
)

// Noop is used when no database is configured.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) RecordSeries(context.Context, string, []provider.TradingData) error { return nil }
func (n *Noop) Close() error                                                    { return nil }
