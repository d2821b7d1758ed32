package main

import (
	"context"
	"fmt"

	"tradingdata/internal/aggregate"
	"tradingdata/internal/provider"
	"tradingdata/internal/provider/alphavantage"
	"tradingdata/internal/provider/worldtradingdata"
	"tradingdata/internal/provider/yahoo"
)

var knownOrigins = []string{alphavantage.Origin, worldtradingdata.Origin, yahoo.Origin}

type seriesLoader interface {
	LoadSeries(ctx context.Context, origin, stockName string) (provider.TradingData, error)
}

// loadHistory reads stored series back per (origin, symbol), origin-major like
// aggregate.Pairs. Pairs with nothing stored are left out.
func loadHistory(ctx context.Context, store seriesLoader, names, symbols []string) ([]provider.TradingData, error) {
	origins := knownOrigins
	if len(names) > 0 {
		origins = make([]string, 0, len(names))
		for _, n := range names {
			origins = append(origins, aggregate.NormalizeOrigin(n))
		}
	}
	out := []provider.TradingData{}
	for _, origin := range origins {
		for _, s := range symbols {
			d, err := store.LoadSeries(ctx, origin, provider.NormalizeSymbol(s))
			if err != nil {
				return nil, fmt.Errorf("load %s %s: %w", origin, s, err)
			}
			if len(d.Values) > 0 {
				out = append(out, d)
			}
		}
	}
	return out, nil
}
