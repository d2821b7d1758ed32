// Package worldtradingdata normalizes the worldtradingdata.com intraday API.
package worldtradingdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tradingdata/internal/httpx"
	"tradingdata/internal/logging"
	"tradingdata/internal/provider"
)

const (
	Origin = "worldtradingdata.com"

	DefaultBaseURL  = "https://www.worldtradingdata.com/api/v1/intraday"
	DefaultInterval = 15
	DefaultRange    = 4
	DefaultSort     = "asc"
)

var sorts = []string{"asc", "desc", "newest", "oldest"}

// Config is fixed at construction; none of it varies per call.
type Config struct {
	APIToken string
	// Interval is the number of minutes between points.
	Interval int
	// Range is the number of days of data returned.
	Range int
	// Sort is one of asc, desc, newest, oldest. Output is always oldest first;
	// this only shapes the upstream request.
	Sort string
	// Location is used for zone-less keys when the payload omits timezone_name.
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
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Range == 0 {
		cfg.Range = DefaultRange
	}
	if cfg.Sort == "" {
		cfg.Sort = DefaultSort
	}
	if cfg.Interval < 0 || cfg.Range < 0 {
		return nil, fmt.Errorf("worldtradingdata: interval and range must be positive")
	}
	if !slices.Contains(sorts, cfg.Sort) {
		return nil, fmt.Errorf("worldtradingdata: unsupported sort %q", cfg.Sort)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	p := &Provider{
		cfg:     cfg,
		baseURL: DefaultBaseURL,
		client:  http.DefaultClient,
		header:  http.Header{},
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string { return Origin }

func (p *Provider) Fetch(ctx context.Context, symbol string) (provider.TradingData, error) {
	if err := provider.CheckSymbol(Origin, symbol); err != nil {
		return provider.TradingData{}, err
	}
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return provider.TradingData{}, provider.Wrap(Origin, provider.KindRequest, symbol, "building url", err)
	}
	q := u.Query()
	q.Set("symbol", strings.TrimSpace(symbol))
	q.Set("interval", strconv.Itoa(p.cfg.Interval))
	q.Set("range", strconv.Itoa(p.cfg.Range))
	q.Set("sort", p.cfg.Sort)
	q.Set("api_token", p.cfg.APIToken)
	u.RawQuery = q.Encode()

	var body intradayResponse
	if err := httpx.GetJSON(ctx, p.client, u.String(), p.header, &body); err != nil {
		return provider.TradingData{}, provider.FromHTTP(Origin, symbol, err)
	}
	data, err := p.normalize(symbol, body)
	if err != nil {
		return provider.TradingData{}, err
	}
	p.log.WithFields(logrus.Fields{
		"origin":   Origin,
		"symbol":   data.StockName,
		"exchange": body.StockExchangeShort,
		"points":   len(data.Values),
	}).Debug("series fetched")
	return data, nil
}

type intradayResponse struct {
	Symbol             string         `json:"symbol"`
	StockExchangeShort string         `json:"stock_exchange_short"`
	TimezoneName       string         `json:"timezone_name"`
	Intraday           map[string]bar `json:"intraday"`
	// Error payloads carry one of these instead of data.
	Message      string `json:"Message"`
	MessageLower string `json:"message"`
}

type bar struct {
	Open   provider.Number `json:"open"`
	High   provider.Number `json:"high"`
	Low    provider.Number `json:"low"`
	Close  provider.Number `json:"close"`
	Volume provider.Number `json:"volume"`
}

func (p *Provider) normalize(symbol string, body intradayResponse) (provider.TradingData, error) {
	if body.Intraday == nil {
		if msg := strings.TrimSpace(body.Message + " " + body.MessageLower); msg != "" {
			return provider.TradingData{}, provider.Errorf(Origin, provider.KindProviderReported, symbol, "%s", msg)
		}
		return provider.TradingData{}, provider.Errorf(Origin, provider.KindResponseFormat, symbol, "missing %q", "intraday")
	}
	zone := provider.NewZone(body.TimezoneName, p.cfg.Location)

	values := make([]provider.TradingDataItem, 0, len(body.Intraday))
	for k, b := range body.Intraday {
		ts, err := zone.Parse(k, provider.LayoutDateTime)
		if err != nil {
			return provider.TradingData{}, provider.Wrap(Origin, provider.KindResponseFormat, symbol, "intraday", err)
		}
		it, err := provider.Item(ts, b.Open, b.High, b.Low, b.Close)
		if err != nil {
			return provider.TradingData{}, provider.Wrap(Origin, provider.KindResponseFormat, symbol, "intraday", err)
		}
		values = append(values, it)
	}
	provider.SortValues(values)

	return provider.TradingData{
		Origin:    Origin,
		StockName: provider.StockName(body.Symbol, symbol),
		Values:    values,
	}, nil
}
