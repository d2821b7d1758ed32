// Package yahoo normalizes the Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tradingdata/internal/httpx"
	"tradingdata/internal/logging"
	"tradingdata/internal/provider"
)

const (
	Origin = "finance.yahoo.com"

	DefaultBaseURL  = "https://query1.finance.yahoo.com/v8/finance/chart/"
	DefaultInterval = "15m"
	DefaultRange    = "5d"
)

var intervals = []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"}

type Config struct {
	Interval string
	Range    string
	// Aliases maps caller symbols to Yahoo tickers, e.g. "SPX" -> "^GSPC".
	Aliases map[string]string
	// Location is used when meta.exchangeTimezoneName is absent or unknown.
	Location *time.Location
}

type Provider struct {
	cfg     Config
	baseURL string
	client  httpx.HTTPClient
	header  http.Header
	log     logrus.FieldLogger
}

type Option func(*Provider)

func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = baseURL }
}

func WithHTTPClient(client httpx.HTTPClient) Option {
	return func(p *Provider) { p.client = client }
}

func WithHeader(header http.Header) Option {
	return func(p *Provider) {
		for key, values := range header {
			for _, value := range values {
				p.header.Add(key, value)
			}
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Provider) { p.log = log }
}

func New(cfg Config, opts ...Option) (*Provider, error) {
	if cfg.Interval == "" {
		cfg.Interval = DefaultInterval
	}
	if cfg.Range == "" {
		cfg.Range = DefaultRange
	}
	if !slices.Contains(intervals, cfg.Interval) {
		return nil, fmt.Errorf("yahoo: unsupported interval %q", cfg.Interval)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	p := &Provider{
		cfg:     cfg,
		baseURL: DefaultBaseURL,
		client:  http.DefaultClient,
		// The chart endpoint rejects requests without a browser-like agent.
		header: http.Header{"User-Agent": []string{"Mozilla/5.0"}},
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string { return Origin }

func (p *Provider) ticker(symbol string) string {
	s := provider.NormalizeSymbol(symbol)
	if mapped, ok := p.cfg.Aliases[s]; ok {
		return mapped
	}
	return s
}

func (p *Provider) Fetch(ctx context.Context, symbol string) (provider.TradingData, error) {
	if err := provider.CheckSymbol(Origin, symbol); err != nil {
		return provider.TradingData{}, err
	}
	u, err := url.Parse(strings.TrimSuffix(p.baseURL, "/") + "/" + url.PathEscape(p.ticker(symbol)))
	if err != nil {
		return provider.TradingData{}, provider.Wrap(Origin, provider.KindRequest, symbol, "building url", err)
	}
	q := u.Query()
	q.Set("interval", p.cfg.Interval)
	q.Set("range", p.cfg.Range)
	u.RawQuery = q.Encode()

	var body chartResponse
	if err := httpx.GetJSON(ctx, p.client, u.String(), p.header, &body); err != nil {
		return provider.TradingData{}, provider.FromHTTP(Origin, symbol, err)
	}
	data, skipped, err := p.normalize(symbol, body)
	if err != nil {
		return provider.TradingData{}, err
	}
	p.log.WithFields(logrus.Fields{
		"origin":  Origin,
		"symbol":  data.StockName,
		"points":  len(data.Values),
		"skipped": skipped,
	}).Debug("series fetched")
	return data, nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open  []provider.Number `json:"open"`
			High  []provider.Number `json:"high"`
			Low   []provider.Number `json:"low"`
			Close []provider.Number `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (p *Provider) normalize(symbol string, body chartResponse) (provider.TradingData, int, error) {
	if e := body.Chart.Error; e != nil {
		return provider.TradingData{}, 0, provider.Errorf(Origin, provider.KindProviderReported, symbol, "%s: %s", e.Code, e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return provider.TradingData{}, 0, provider.Errorf(Origin, provider.KindResponseFormat, symbol, "missing %q", "chart.result")
	}
	res := body.Chart.Result[0]
	loc, err := provider.Location(res.Meta.ExchangeTimezoneName, p.cfg.Location)
	if err != nil {
		// Unix timestamps do not depend on the zone; it only affects presentation.
		loc = p.cfg.Location
		p.log.WithFields(logrus.Fields{"origin": Origin, "symbol": symbol}).Warnf("meta: %v, using %s", err, loc)
	}

	n := len(res.Timestamp)
	values := make([]provider.TradingDataItem, 0, n)
	// A range with no trading returns no timestamps and no quote arrays.
	if n == 0 {
		return provider.TradingData{Origin: Origin, StockName: provider.StockName(res.Meta.Symbol, symbol), Values: values}, 0, nil
	}
	if len(res.Indicators.Quote) == 0 {
		return provider.TradingData{}, 0, provider.Errorf(Origin, provider.KindResponseFormat, symbol, "missing %q", "indicators.quote")
	}
	quote := res.Indicators.Quote[0]
	for name, arr := range map[string][]provider.Number{"open": quote.Open, "high": quote.High, "low": quote.Low, "close": quote.Close} {
		if len(arr) != n {
			return provider.TradingData{}, 0, provider.Errorf(Origin, provider.KindResponseFormat, symbol,
				"%s has %d values for %d timestamps", name, len(arr), n)
		}
	}

	skipped := 0
	for i, sec := range res.Timestamp {
		o, h, l, c := quote.Open[i], quote.High[i], quote.Low[i], quote.Close[i]
		if o.IsNull() && h.IsNull() && l.IsNull() && c.IsNull() {
			skipped++
			continue
		}
		at := time.Unix(sec, 0).In(loc)
		it, err := provider.Item(provider.Timestamp{Key: at.Format(time.RFC3339), Time: at}, o, h, l, c)
		if err != nil {
			return provider.TradingData{}, 0, provider.Wrap(Origin, provider.KindResponseFormat, symbol, "indicators.quote", err)
		}
		values = append(values, it)
	}
	provider.SortValues(values)

	return provider.TradingData{
		Origin:    Origin,
		StockName: provider.StockName(res.Meta.Symbol, symbol),
		Values:    values,
	}, skipped, nil
}
