package provider

import (
	"errors"
	"fmt"
	"strings"

	"tradingdata/internal/httpx"
)

// Kind classifies why a fetch failed.
type Kind int

const (
	// KindNetwork covers transport failures and non-2xx HTTP statuses.
	KindNetwork Kind = iota + 1
	// KindResponseFormat covers undecodable JSON, missing keys and unparsable values.
	KindResponseFormat
	// KindProviderReported means the upstream payload itself carried an error.
	KindProviderReported
	// KindRequest means the request could not be built from the caller's input.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindResponseFormat:
		return "response format"
	case KindProviderReported:
		return "provider reported"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// ErrEmptySymbol is returned (wrapped) when Fetch is called with a blank symbol.
var ErrEmptySymbol = errors.New("empty symbol")

// ProviderError is the single error kind surfaced by every adapter.
type ProviderError struct {
	Origin string
	Kind   Kind
	Symbol string
	Msg    string
	Err    error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Origin)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Symbol != "" {
		fmt.Fprintf(&b, " (%s)", e.Symbol)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Errorf builds a ProviderError with a formatted message.
func Errorf(origin string, kind Kind, symbol string, format string, args ...any) *ProviderError {
	return &ProviderError{Origin: origin, Kind: kind, Symbol: symbol, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a ProviderError around an underlying cause.
func Wrap(origin string, kind Kind, symbol string, msg string, err error) *ProviderError {
	return &ProviderError{Origin: origin, Kind: kind, Symbol: symbol, Msg: msg, Err: err}
}

// IsKind reports whether err is, or wraps, a ProviderError of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// CheckSymbol validates a requested symbol before any network call is made.
func CheckSymbol(origin, symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return Wrap(origin, KindRequest, "", "invalid symbol", ErrEmptySymbol)
	}
	return nil
}

// FromHTTP classifies an error returned by httpx.GetJSON.
func FromHTTP(origin, symbol string, err error) *ProviderError {
	var se *httpx.StatusError
	switch {
	case errors.Is(err, httpx.ErrRequest):
		return Wrap(origin, KindRequest, symbol, "", err)
	case errors.Is(err, httpx.ErrDecode):
		return Wrap(origin, KindResponseFormat, symbol, "", err)
	case errors.As(err, &se):
		return Wrap(origin, KindNetwork, symbol, "unexpected status", err)
	default:
		return Wrap(origin, KindNetwork, symbol, "", err)
	}
}
