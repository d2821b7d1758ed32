package provider

import (
	"context"
	"strings"
	"time"
)

// TradingDataItem is one sampled OHLC point of a series.
type TradingDataItem struct {
	DateTime time.Time `json:"dateTime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
}

// Consistent reports whether low <= open, close <= high holds.
// Adapters and the aggregator never reject data on this basis.
func (it TradingDataItem) Consistent() bool {
	return it.Low <= it.High &&
		it.Low <= it.Open && it.Open <= it.High &&
		it.Low <= it.Close && it.Close <= it.High
}

// TradingData is the normalized shape returned by all providers.
// Values are ordered oldest first.
type TradingData struct {
	Origin    string            `json:"origin"`
	StockName string            `json:"stockName"`
	Values    []TradingDataItem `json:"values"`
}

// Provider fetches one series for a symbol from a single upstream API.
//
//go:generate mockgen -package=providermock -destination=providermock/mock_provider.go -source=provider.go Provider
type Provider interface {
	// Name returns the origin identifier stamped on every series, e.g. "alphavantage.co".
	Name() string
	Fetch(ctx context.Context, symbol string) (TradingData, error)
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// StockName picks the echoed symbol from a payload, falling back to the requested one.
func StockName(echoed, requested string) string {
	if n := NormalizeSymbol(echoed); n != "" {
		return n
	}
	return NormalizeSymbol(requested)
}
