package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	errNullNumber     = errors.New("value is null")
	errNegativeNumber = errors.New("value is negative")
	errNumberRange    = errors.New("value out of float64 range")
)

// Number is a price as encoded by an upstream API: either a JSON string ("1.50")
// or a bare JSON number. A JSON null decodes to a Number for which IsNull is true.
type Number struct {
	raw   string
	valid bool
}

// NumberOf wraps a raw textual value; used by tests and by adapters that
// already hold strings.
func NumberOf(raw string) Number { return Number{raw: strings.TrimSpace(raw), valid: true} }

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*n = Number{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumberOf(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*n = Number{raw: string(b), valid: true}
	default:
		return fmt.Errorf("price: unexpected JSON value %s", b)
	}
	return nil
}

// IsNull reports whether the upstream sent null (or nothing) for this value.
func (n Number) IsNull() bool { return !n.valid }

func (n Number) String() string { return n.raw }

// Float64 parses the value with a strict decimal grammar (no NaN, no Inf)
// and rejects negatives.
func (n Number) Float64() (float64, error) {
	if !n.valid {
		return 0, errNullNumber
	}
	d, err := decimal.NewFromString(n.raw)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", n.raw, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("parse %q: %w", n.raw, errNegativeNumber)
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("parse %q: %w", n.raw, errNumberRange)
	}
	return f, nil
}

// Item builds a TradingDataItem from provider-native OHLC values, naming the
// offending field when one of them cannot be parsed.
func Item(at Timestamp, o, h, l, c Number) (TradingDataItem, error) {
	it := TradingDataItem{DateTime: at.Time}
	for _, f := range []struct {
		name string
		n    Number
		dst  *float64
	}{
		{"open", o, &it.Open},
		{"high", h, &it.High},
		{"low", l, &it.Low},
		{"close", c, &it.Close},
	} {
		v, err := f.n.Float64()
		if err != nil {
			return TradingDataItem{}, fmt.Errorf("%s %s: %w", at.Key, f.name, err)
		}
		*f.dst = v
	}
	return it, nil
}
