package basenumber

import (
	"regexp"
	"strconv"

	"sfgnexus/internal/core/apperror"
)

// Separator joins a BaseNumber and its prefix.
const Separator = "-"

var (
	digitsPattern     = regexp.MustCompile(`^[0-9]+$`)
	identifierPattern = regexp.MustCompile(`^([0-9]+)-([A-Z]+)$`)
)

// Identifier is a parsed FormattedIdentifier such as "10001-ENQ".
type Identifier struct {
	BaseNumber string `json:"baseNumber"`
	Prefix     Prefix `json:"prefix"`
}

// String renders the identifier without validation.
func (id Identifier) String() string {
	return id.BaseNumber + Separator + string(id.Prefix)
}

// ValidBaseNumber reports whether s is a BaseNumber: one or more decimal digits.
func ValidBaseNumber(s string) bool {
	return digitsPattern.MatchString(s)
}

// Format joins a numeric BaseNumber with an enumerated prefix: "{baseNumber}-{prefix}".
func Format(baseNumber string, prefix Prefix) (string, error) {
	if !ValidBaseNumber(baseNumber) {
		return "", apperror.NewValidation("base number must be numeric").
			WithDetail("baseNumber", baseNumber)
	}
	if !prefix.Valid() {
		return "", apperror.NewValidation("invalid prefix").
			WithDetail("prefix", string(prefix)).
			WithDetail("allowed", PrefixNames())
	}
	return baseNumber + Separator + string(prefix), nil
}

// Parse splits "<digits>-<UPPERCASE>" into its parts.
// Non-matching input returns false, not an error. The prefix is returned as
// written; callers that need an enumerated prefix check Prefix.Valid.
func Parse(formatted string) (Identifier, bool) {
	m := identifierPattern.FindStringSubmatch(formatted)
	if m == nil {
		return Identifier{}, false
	}
	return Identifier{BaseNumber: m[1], Prefix: Prefix(m[2])}, true
}

// FormatNumber renders an allocated sequence value as a BaseNumber.
func FormatNumber(n int64) string {
	return strconv.FormatInt(n, 10)
}
