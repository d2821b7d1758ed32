package aggregate

import (
	"sort"
	"strings"
	"time"

	"tradingdata/internal/provider"
)

// SeriesKey identifies one series bucket.
type SeriesKey struct {
	StockName string
	Origin    string
}

// LatestPoint is the newest item of a series.
type LatestPoint struct {
	StockName string    `json:"stockName"`
	Origin    string    `json:"origin"`
	DateTime  time.Time `json:"dateTime"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// originAliases normalizes user-facing provider spellings to origin identifiers.
var originAliases = map[string]string{
	"alphavantage":         "alphavantage.co",
	"alpha_vantage":        "alphavantage.co",
	"alphavantage.co":      "alphavantage.co",
	"av":                   "alphavantage.co",
	"worldtradingdata":     "worldtradingdata.com",
	"worldtradingdata.com": "worldtradingdata.com",
	"wtd":                  "worldtradingdata.com",
	"yahoo":                "finance.yahoo.com",
	"finance.yahoo.com":    "finance.yahoo.com",
	"yf":                   "finance.yahoo.com",
}

// NormalizeOrigin maps a provider name or alias to its origin identifier.
// Unknown names are returned lower-cased and trimmed.
func NormalizeOrigin(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if o, ok := originAliases[n]; ok {
		return o
	}
	return n
}

// Latest collapses a batch to the newest item per (StockName, Origin).
// Series without values are omitted. When two series share a key, the
// later one in the batch wins on equal timestamps.
func Latest(batch []provider.TradingData) []LatestPoint {
	latest := make(map[SeriesKey]LatestPoint, len(batch))

	for _, d := range batch {
		if len(d.Values) == 0 {
			continue
		}
		// Values are oldest first.
		it := d.Values[len(d.Values)-1]
		key := SeriesKey{StockName: d.StockName, Origin: d.Origin}
		if cur, ok := latest[key]; ok && it.DateTime.Before(cur.DateTime) {
			continue
		}
		latest[key] = LatestPoint{
			StockName: d.StockName,
			Origin:    d.Origin,
			DateTime:  it.DateTime,
			Open:      it.Open,
			High:      it.High,
			Low:       it.Low,
			Close:     it.Close,
		}
	}

	out := make([]LatestPoint, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StockName != out[j].StockName {
			return out[i].StockName < out[j].StockName
		}
		return out[i].Origin < out[j].Origin
	})
	return out
}
