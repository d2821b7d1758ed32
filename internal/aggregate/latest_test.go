package aggregate

import (
	"testing"
	"time"

	"tradingdata/internal/provider"
)

func TestLatest_NewestItemPerSeries(t *testing.T) {
	t1 := time.Date(2019, 10, 18, 15, 45, 0, 0, time.UTC)
	t2 := t1.Add(15 * time.Minute)

	in := []provider.TradingData{
		{Origin: "worldtradingdata.com", StockName: "GOOG", Values: []provider.TradingDataItem{
			{DateTime: t1, Open: 1, High: 2, Low: 1, Close: 1.2},
			{DateTime: t2, Open: 1.2, High: 2, Low: 1, Close: 1.5},
		}},
		{Origin: "alphavantage.co", StockName: "GOOG", Values: []provider.TradingDataItem{
			{DateTime: t1, Open: 5, High: 6, Low: 4, Close: 5.5},
		}},
		{Origin: "alphavantage.co", StockName: "AAPL", Values: []provider.TradingDataItem{
			{DateTime: t2, Open: 10, High: 11, Low: 9, Close: 10.5},
		}},
	}

	out := Latest(in)
	if len(out) != 3 {
		t.Fatalf("want 3, got %d: %+v", len(out), out)
	}
	if out[0].StockName != "AAPL" || out[1].Origin != "alphavantage.co" || out[2].Origin != "worldtradingdata.com" {
		t.Fatalf("unexpected order: %+v", out)
	}
	if got := out[2]; got.Close != 1.5 || !got.DateTime.Equal(t2) {
		t.Fatalf("unexpected latest point: %+v", got)
	}
}

func TestLatest_DuplicateSeries_NewestWins(t *testing.T) {
	t1 := time.Date(2019, 10, 18, 15, 45, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	in := []provider.TradingData{
		{Origin: "finance.yahoo.com", StockName: "MSFT", Values: []provider.TradingDataItem{{DateTime: t2, Close: 2}}},
		{Origin: "finance.yahoo.com", StockName: "MSFT", Values: []provider.TradingDataItem{{DateTime: t1, Close: 1}}},
		{Origin: "finance.yahoo.com", StockName: "MSFT", Values: []provider.TradingDataItem{{DateTime: t2, Close: 3}}},
	}
	out := Latest(in)
	if len(out) != 1 {
		t.Fatalf("want 1 row, got %d: %+v", len(out), out)
	}
	if out[0].Close != 3 {
		t.Fatalf("later input should win on equal timestamps: %+v", out[0])
	}
}

func TestLatest_EmptySeriesOmitted(t *testing.T) {
	out := Latest([]provider.TradingData{{Origin: "alphavantage.co", StockName: "IBM", Values: []provider.TradingDataItem{}}})
	if out == nil || len(out) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", out)
	}
}

func TestNormalizeOrigin_Aliases(t *testing.T) {
	cases := map[string]string{
		"AV":                "alphavantage.co",
		" alphavantage ":    "alphavantage.co",
		"WTD":               "worldtradingdata.com",
		"Yahoo":             "finance.yahoo.com",
		"finance.yahoo.com": "finance.yahoo.com",
		"Unknown":           "unknown",
	}
	for in, want := range cases {
		if got := NormalizeOrigin(in); got != want {
			t.Fatalf("NormalizeOrigin(%q) = %q, want %q", in, got, want)
		}
	}
}
