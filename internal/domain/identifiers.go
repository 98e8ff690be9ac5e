package domain

import "strings"

// Currency is an ISO-4217-style currency code (e.g. "AUD", "USD", "JPY").
type Currency string

// Common currencies used throughout tests and configuration.
const (
	AUD  Currency = "AUD"
	USD  Currency = "USD"
	JPY  Currency = "JPY"
	GBP  Currency = "GBP"
	USDT Currency = "USDT"
)

// Venue identifies a trading venue by name. Equality is by value.
type Venue struct {
	Name string
}

// NewVenue creates a venue identifier. Names are upper-cased so that
// "fxcm" and "FXCM" refer to the same venue.
func NewVenue(name string) Venue {
	return Venue{Name: strings.ToUpper(name)}
}

func (v Venue) String() string {
	return v.Name
}

// Symbol uniquely identifies a tradable instrument as a (code, venue) pair.
type Symbol struct {
	Code  string
	Venue Venue
}

// NewSymbol creates a symbol identifier (e.g. NewSymbol("AUD/USD", fxcm)).
func NewSymbol(code string, venue Venue) Symbol {
	return Symbol{Code: strings.ToUpper(code), Venue: venue}
}

// String returns the canonical "CODE.VENUE" form used on the wire.
func (s Symbol) String() string {
	return s.Code + "." + s.Venue.Name
}

// Less imposes a total ordering by code then venue, used for stable
// listings of cache contents.
func (s Symbol) Less(other Symbol) bool {
	if s.Code != other.Code {
		return s.Code < other.Code
	}
	return s.Venue.Name < other.Venue.Name
}

// ParseSymbol parses the canonical "CODE.VENUE" form.
func ParseSymbol(value string) (Symbol, error) {
	i := strings.LastIndex(value, ".")
	if i <= 0 || i == len(value)-1 {
		return Symbol{}, &ConfigError{Field: "symbol", Err: ErrInvalidSymbol}
	}
	return NewSymbol(value[:i], NewVenue(value[i+1:])), nil
}
