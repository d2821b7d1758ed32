// Package registry builds the configured provider adapters.
package registry

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"tradingdata/internal/aggregate"
	"tradingdata/internal/config"
	"tradingdata/internal/httpx"
	"tradingdata/internal/provider"
	"tradingdata/internal/provider/alphavantage"
	"tradingdata/internal/provider/worldtradingdata"
	"tradingdata/internal/provider/yahoo"
)

// Build returns one provider per enabled upstream, in a stable order.
// Upstreams that are enabled without credentials are skipped with a warning.
func Build(cfg config.Config, client httpx.HTTPClient, log logrus.FieldLogger) ([]provider.Provider, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	var providers []provider.Provider

	if av := cfg.AlphaVantage; av.Enabled {
		if av.APIKey == "" {
			log.Warn("alphavantage.enabled=true but ALPHAVANTAGE_API_KEY not set; skipping")
		} else {
			opts := []alphavantage.Option{alphavantage.WithHTTPClient(client), alphavantage.WithLogger(log)}
			if av.BaseURL != "" {
				opts = append(opts, alphavantage.WithBaseURL(av.BaseURL))
			}
			p, err := alphavantage.New(alphavantage.Config{
				APIKey:     av.APIKey,
				Interval:   av.Interval,
				OutputSize: av.OutputSize,
				Location:   loc,
			}, opts...)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		}
	}

	if wtd := cfg.WorldTradingData; wtd.Enabled {
		if wtd.APIToken == "" {
			log.Warn("worldtradingdata.enabled=true but WORLDTRADINGDATA_API_TOKEN not set; skipping")
		} else {
			opts := []worldtradingdata.Option{worldtradingdata.WithHTTPClient(client), worldtradingdata.WithLogger(log)}
			if wtd.BaseURL != "" {
				opts = append(opts, worldtradingdata.WithBaseURL(wtd.BaseURL))
			}
			p, err := worldtradingdata.New(worldtradingdata.Config{
				APIToken: wtd.APIToken,
				Interval: wtd.Interval,
				Range:    wtd.Range,
				Sort:     wtd.Sort,
				Location: loc,
			}, opts...)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		}
	}

	if y := cfg.Yahoo; y.Enabled {
		opts := []yahoo.Option{yahoo.WithHTTPClient(client), yahoo.WithLogger(log)}
		if y.BaseURL != "" {
			opts = append(opts, yahoo.WithBaseURL(y.BaseURL))
		}
		p, err := yahoo.New(yahoo.Config{
			Interval: y.Interval,
			Range:    y.Range,
			Aliases:  y.Aliases,
			Location: loc,
		}, opts...)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	return providers, nil
}

// Select keeps the providers named in names (origins or aliases such as
// "av", "wtd", "yahoo"), in the order given. An empty names keeps all.
func Select(providers []provider.Provider, names []string) ([]provider.Provider, error) {
	if len(names) == 0 {
		return providers, nil
	}
	byOrigin := make(map[string]provider.Provider, len(providers))
	for _, p := range providers {
		byOrigin[p.Name()] = p
	}
	out := make([]provider.Provider, 0, len(names))
	var unknown []string
	for _, n := range names {
		p, ok := byOrigin[aggregate.NormalizeOrigin(n)]
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		out = append(out, p)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown or disabled provider(s): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
