package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tradingdata/internal/aggregate"
	"tradingdata/internal/config"
	"tradingdata/internal/display"
	"tradingdata/internal/display/jsonchart"
	"tradingdata/internal/provider"
	"tradingdata/internal/provider/registry"
	"tradingdata/internal/recorder"
)

const maxSymbols = 100

type api struct {
	providers []provider.Provider
	agg       *aggregate.Aggregator
	rec       recorder.Recorder
	log       logrus.FieldLogger
	// timeout bounds a whole request batch.
	timeout time.Duration
}

type seriesRequest struct {
	Symbols   []string `json:"symbols"`
	Providers []string `json:"providers"`
	Title     string   `json:"title"`
	Container string   `json:"container"`
}

type latestResponse struct {
	Latest []aggregate.LatestPoint `json:"latest"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *api) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/series", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			a.writeSeries(w, r.Context(), seriesFromQuery(r))
		case http.MethodPost:
			var req seriesRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			a.writeSeries(w, r.Context(), req)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
	mux.HandleFunc("/api/latest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.writeLatest(w, r.Context(), seriesFromQuery(r))
	})
	return mux
}

func seriesFromQuery(r *http.Request) seriesRequest {
	q := r.URL.Query()
	return seriesRequest{
		Symbols:   config.SplitCSV(q.Get("symbols")),
		Providers: config.SplitCSV(q.Get("providers")),
		Title:     q.Get("title"),
		Container: q.Get("container"),
	}
}

// fetch validates req and runs one batch. On failure it has already written
// the response and returns ok=false.
func (a *api) fetch(w http.ResponseWriter, rctx context.Context, req seriesRequest) (string, []provider.TradingData, bool) {
	if len(req.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "missing symbols")
		return "", nil, false
	}
	if len(req.Symbols) > maxSymbols {
		writeError(w, http.StatusBadRequest, "too many symbols (max 100)")
		return "", nil, false
	}
	providers, err := registry.Select(a.providers, req.Providers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}

	ctx := rctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(rctx, a.timeout)
		defer cancel()
	}
	batch, data, err := a.agg.FetchBatch(ctx, aggregate.Pairs(providers, req.Symbols))
	if err != nil {
		a.log.WithFields(logrus.Fields{"batch": batch, "err": err}).Warn("batch failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return batch, nil, false
	}
	if err := a.rec.RecordSeries(ctx, batch, data); err != nil {
		a.log.WithFields(logrus.Fields{"batch": batch, "err": err}).Warn("record failed")
	}
	return batch, data, true
}

func (a *api) writeSeries(w http.ResponseWriter, rctx context.Context, req seriesRequest) {
	_, data, ok := a.fetch(w, rctx, req)
	if !ok {
		return
	}
	container := req.Container
	if container == "" {
		container = "chart"
	}
	title := req.Title
	if title == "" {
		title = strings.Join(req.Symbols, ", ")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	var chart display.Chart = jsonchart.New(w)
	if err := chart.ShowTradingData(container, title, data...); err != nil {
		a.log.WithField("err", err).Warn("render failed")
	}
}

func (a *api) writeLatest(w http.ResponseWriter, rctx context.Context, req seriesRequest) {
	_, data, ok := a.fetch(w, rctx, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, latestResponse{Latest: aggregate.Latest(data)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
