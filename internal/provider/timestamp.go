package provider

import (
	"fmt"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"
)

// Common upstream timestamp layouts.
const (
	LayoutDateTime = time.DateTime // "2006-01-02 15:04:05"
	LayoutDate     = time.DateOnly
)

// Timestamp is a parsed timestamp key together with the key it came from.
type Timestamp struct {
	Key  string
	Time time.Time
}

// ParseTimestamp parses a per-point timestamp key. Keys that carry their own
// offset (RFC 3339) are taken as-is; the other layouts are read in loc.
func ParseTimestamp(key string, loc *time.Location, layouts ...string) (Timestamp, error) {
	k := strings.TrimSpace(key)
	if t, err := time.Parse(time.RFC3339, k); err == nil {
		return Timestamp{Key: key, Time: t}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, k, loc); err == nil {
			return Timestamp{Key: key, Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("timestamp %q: no matching layout", key)
}

// Location resolves a zone name reported by an upstream. An empty name yields
// fallback (UTC when fallback is nil); an unknown name is an error.
func Location(name string, fallback *time.Location) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if fallback == nil {
			return time.UTC, nil
		}
		return fallback, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", name, err)
	}
	return loc, nil
}

// Zone is an upstream-reported zone name resolved on first use, so a name the
// runtime does not know only fails a fetch whose keys actually need it.
type Zone struct {
	Name     string
	Fallback *time.Location

	loc      *time.Location
	err      error
	resolved bool
}

func NewZone(name string, fallback *time.Location) *Zone {
	return &Zone{Name: name, Fallback: fallback}
}

// Location resolves the zone once and memoizes the outcome.
func (z *Zone) Location() (*time.Location, error) {
	if !z.resolved {
		z.loc, z.err = Location(z.Name, z.Fallback)
		z.resolved = true
	}
	return z.loc, z.err
}

// Parse is ParseTimestamp with the zone loaded only for keys without an
// offset of their own.
func (z *Zone) Parse(key string, layouts ...string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(key)); err == nil {
		return Timestamp{Key: key, Time: t}, nil
	}
	loc, err := z.Location()
	if err != nil {
		return Timestamp{}, fmt.Errorf("timestamp %q: %w", key, err)
	}
	return ParseTimestamp(key, loc, layouts...)
}

// SortValues orders items oldest first.
func SortValues(values []TradingDataItem) {
	slices.SortStableFunc(values, func(a, b TradingDataItem) int {
		return a.DateTime.Compare(b.DateTime)
	})
}
