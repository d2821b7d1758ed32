// Package aggregate fans a batch of (provider, symbol) requests out
// concurrently and joins the normalized series in request order.
package aggregate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tradingdata/internal/logging"
	"tradingdata/internal/provider"
)

// Request pairs a provider with the symbol to fetch from it.
type Request struct {
	Provider provider.Provider
	Symbol   string
}

// Aggregator runs batches of requests. The zero value is not usable; use New.
type Aggregator struct {
	log          logrus.FieldLogger
	fetchTimeout time.Duration
}

type Option func(*Aggregator)

// WithFetchTimeout bounds every single fetch. Zero means no bound beyond ctx.
func WithFetchTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.fetchTimeout = d }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Aggregator) { a.log = log }
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{log: logging.Discard()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAggregator = New()

// FetchAll runs reqs on an Aggregator with default settings.
func FetchAll(ctx context.Context, reqs []Request) ([]provider.TradingData, error) {
	return defaultAggregator.FetchAll(ctx, reqs)
}

// FetchAll fetches every request concurrently. result[i] is the series for
// reqs[i]. If any fetch fails the others are cancelled and only the first
// error is returned.
func (a *Aggregator) FetchAll(ctx context.Context, reqs []Request) ([]provider.TradingData, error) {
	_, out, err := a.FetchBatch(ctx, reqs)
	return out, err
}

// FetchBatch is FetchAll that also returns the batch ID used in logs.
func (a *Aggregator) FetchBatch(ctx context.Context, reqs []Request) (string, []provider.TradingData, error) {
	batch := uuid.NewString()
	out := make([]provider.TradingData, len(reqs))
	if len(reqs) == 0 {
		return batch, out, nil
	}
	log := a.log.WithField("batch", batch)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range reqs {
		g.Go(func() error {
			fctx := gctx
			if a.fetchTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, a.fetchTimeout)
				defer cancel()
			}
			data, err := r.Provider.Fetch(fctx, r.Symbol)
			if err != nil {
				log.WithFields(logrus.Fields{"origin": r.Provider.Name(), "symbol": r.Symbol, "err": err}).Warn("fetch failed")
				return err
			}
			if bad := inconsistent(data.Values); bad > 0 {
				log.WithFields(logrus.Fields{"origin": data.Origin, "symbol": data.StockName, "items": bad}).
					Warn("series has items outside their low/high range")
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return batch, nil, err
	}
	log.WithFields(logrus.Fields{"series": len(out), "took": time.Since(start)}).Info("batch fetched")
	return batch, out, nil
}

// Pairs is the cross product of providers and symbols, grouped by provider.
func Pairs(providers []provider.Provider, symbols []string) []Request {
	reqs := make([]Request, 0, len(providers)*len(symbols))
	for _, p := range providers {
		for _, s := range symbols {
			reqs = append(reqs, Request{Provider: p, Symbol: s})
		}
	}
	return reqs
}

func inconsistent(values []provider.TradingDataItem) int {
	n := 0
	for _, v := range values {
		if !v.Consistent() {
			n++
		}
	}
	return n
}
