package truthfile

import (
	"fmt"
	"slices"
	"time"
)

// ProductCount tracks deliverable lines from enquiry to payment.
// Only complete, separately priced lines count; consumables do not.
type ProductCount struct {
	ENQInitialCount     int                  `json:"ENQ_initial_count" yaml:"ENQ_initial_count"`
	QuoteRevisionCounts []QuoteRevisionCount `json:"QUO_rev_counts,omitempty" yaml:"QUO_rev_counts"`
	CurrentProductCount int                  `json:"Current_product_count" yaml:"Current_product_count"`
	PreparedCount       *int                 `json:"prepared_count,omitempty" yaml:"prepared_count"`
	DeliveredCount      int                  `json:"delivered_count" yaml:"delivered_count"`
	CollectedCount      int                  `json:"collected_count" yaml:"collected_count"`
}

// QuoteRevisionCount records the count at one quote revision.
type QuoteRevisionCount struct {
	Revision string    `json:"rev" yaml:"rev"`
	Count    int       `json:"count" yaml:"count"`
	At       time.Time `json:"ts" yaml:"ts"`
}

// ProductCountValidation separates blocking errors from advisory warnings.
type ProductCountValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateProductCount checks count continuity.
func ValidateProductCount(c ProductCount) ProductCountValidation {
	result := ProductCountValidation{Errors: []string{}, Warnings: []string{}}

	if c.ENQInitialCount < 1 {
		result.Errors = append(result.Errors, "ENQ_initial_count must be set and greater than 0")
	}
	if c.CurrentProductCount < 1 {
		result.Errors = append(result.Errors, "Current_product_count must be set and greater than 0")
	}
	if c.PreparedCount != nil && *c.PreparedCount > c.CurrentProductCount {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Prepared count (%d) cannot exceed Current product count (%d)", *c.PreparedCount, c.CurrentProductCount))
	}
	if fulfilled := c.DeliveredCount + c.CollectedCount; fulfilled > c.CurrentProductCount {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Total delivered/collected (%d) cannot exceed Current product count (%d)", fulfilled, c.CurrentProductCount))
	}
	if c.ENQInitialCount > 0 && c.CurrentProductCount > 0 && c.ENQInitialCount != c.CurrentProductCount {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Product count changed from %d to %d. Ensure estimator sign-off and finance acknowledgment.",
			c.ENQInitialCount, c.CurrentProductCount))
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// LatestQuoteRevision returns the most recent revision count.
func LatestQuoteRevision(revisions []QuoteRevisionCount) (QuoteRevisionCount, bool) {
	if len(revisions) == 0 {
		return QuoteRevisionCount{}, false
	}
	return slices.MaxFunc(revisions, func(a, b QuoteRevisionCount) int {
		return a.At.Compare(b.At)
	}), true
}

// StatusColor is a traffic-light status.
type StatusColor string

const (
	StatusGreen StatusColor = "Green"
	StatusAmber StatusColor = "Amber"
	StatusRed   StatusColor = "Red"
)

// DeliveryNotesStatus is Green once every product has a prepared delivery
// note, Red when more are prepared than exist, Amber otherwise.
func DeliveryNotesStatus(prepared, current int) StatusColor {
	switch {
	case prepared == current && current > 0:
		return StatusGreen
	case prepared > current:
		return StatusRed
	default:
		return StatusAmber
	}
}

// ProductCountChange is one logged change to the product count.
type ProductCountChange struct {
	At                  time.Time `json:"ts"`
	User                string    `json:"user"`
	Source              string    `json:"source"`
	Additions           []string  `json:"additions"`
	Removals            []string  `json:"removals"`
	Extras              []string  `json:"extras"`
	Note                string    `json:"note"`
	EstimatorSignoff    bool      `json:"estimatorSignoff"`
	FinanceAcknowledged bool      `json:"financeAcknowledged"`
}

// RequiresApproval reports whether a change still needs estimator sign-off
// or finance acknowledgment.
func (c ProductCountChange) RequiresApproval() bool {
	changed := len(c.Additions)+len(c.Removals)+len(c.Extras) > 0
	return changed && (!c.EstimatorSignoff || !c.FinanceAcknowledged)
}
