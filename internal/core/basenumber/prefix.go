// Package basenumber provides domain contracts for BaseNumber allocation.
// Implementations of the store live in the infrastructure layer.
package basenumber

import (
	"strings"

	"sfgnexus/internal/core/apperror"
)

// Prefix is the business-record category joined to a BaseNumber.
type Prefix string

// Lifecycle order: an enquiry becomes a quote, an order, an invoice,
// a delivery and finally a paid record.
const (
	PrefixEnquiry  Prefix = "ENQ"
	PrefixQuote    Prefix = "QUO"
	PrefixOrder    Prefix = "ORD"
	PrefixInvoice  Prefix = "INV"
	PrefixDelivery Prefix = "DEL"
	PrefixPaid     Prefix = "PAID"
)

// DefaultPrefix is used when an allocation request carries no prefix.
const DefaultPrefix = PrefixEnquiry

var lifecycle = []Prefix{
	PrefixEnquiry,
	PrefixQuote,
	PrefixOrder,
	PrefixInvoice,
	PrefixDelivery,
	PrefixPaid,
}

// Quote revisions keep the QUO prefix.
var transitions = map[Prefix][]Prefix{
	PrefixEnquiry:  {PrefixQuote},
	PrefixQuote:    {PrefixOrder, PrefixQuote},
	PrefixOrder:    {PrefixInvoice},
	PrefixInvoice:  {PrefixDelivery},
	PrefixDelivery: {PrefixPaid},
	PrefixPaid:     {},
}

// Prefixes returns the enumerated prefixes in lifecycle order.
func Prefixes() []Prefix {
	out := make([]Prefix, len(lifecycle))
	copy(out, lifecycle)
	return out
}

// PrefixNames returns the prefixes as plain strings (for error details and help text).
func PrefixNames() []string {
	out := make([]string, len(lifecycle))
	for i, p := range lifecycle {
		out[i] = string(p)
	}
	return out
}

// Valid reports whether p belongs to the enumerated set.
func (p Prefix) Valid() bool {
	_, ok := transitions[p]
	return ok
}

func (p Prefix) String() string {
	return string(p)
}

// Next returns the following lifecycle stage. PAID has none.
func (p Prefix) Next() (Prefix, bool) {
	for i, cur := range lifecycle {
		if cur == p && i+1 < len(lifecycle) {
			return lifecycle[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether a record may move from one prefix to another.
func CanTransition(from, to Prefix) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ParsePrefix validates a raw prefix. Empty input yields DefaultPrefix.
// Matching is exact: "enq" is rejected.
func ParsePrefix(raw string) (Prefix, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPrefix, nil
	}
	p := Prefix(raw)
	if !p.Valid() {
		return "", apperror.NewValidation("invalid prefix").
			WithDetail("prefix", raw).
			WithDetail("allowed", PrefixNames())
	}
	return p, nil
}
