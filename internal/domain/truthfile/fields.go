package truthfile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"sfgnexus/internal/core/basenumber"
)

// MissingMarker is the literal placeholder for an unknown value.
const MissingMarker = "MISSING"

// Fields is a record's field map as received from a form or JSON body.
type Fields map[string]any

// Text returns the field rendered as text, or "" when absent.
func (f Fields) Text(name string) string {
	v, ok := f[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Stage returns the lifecycle stage named by the Prefix field, ENQ when
// absent or unknown.
func (f Fields) Stage() basenumber.Prefix {
	p := basenumber.Prefix(strings.TrimSpace(f.Text("Prefix")))
	if !p.Valid() {
		return basenumber.DefaultPrefix
	}
	return p
}

// ValidationResult reports which required fields are missing.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
	Errors  []string `json:"errors"`
}

func (r *ValidationResult) addMissing(name, msg string) {
	r.Valid = false
	r.Missing = append(r.Missing, name)
	r.Errors = append(r.Errors, msg)
}

// IsMissing reports whether v counts as not provided: nil, a blank string,
// the MISSING marker (any case), NaN or a negative number.
func IsMissing(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(val)
		return s == "" || strings.EqualFold(s, MissingMarker)
	}
	if n, ok := number(v); ok {
		return math.IsNaN(n) || n < 0
	}
	return false
}

// number converts the numeric shapes produced by encoding/json and yaml.v3.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// countValue reads a count field that may arrive as a number or numeric text.
func countValue(v any) (float64, bool) {
	if n, ok := number(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// Validator checks records against Rules.
type Validator struct {
	rules *Rules
}

// NewValidator creates a validator. Nil rules means DefaultRules.
func NewValidator(rules *Rules) *Validator {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Validator{rules: rules}
}

// Rules returns the rules in use.
func (v *Validator) Rules() *Rules {
	return v.rules
}

// ValidateRequiredFields checks the required fields of the stage named by
// fields["Prefix"]. Missing names are reported in rule order.
func (v *Validator) ValidateRequiredFields(fields Fields) ValidationResult {
	return v.ValidateStage(fields.Stage(), fields)
}

// ValidateStage checks the required fields of an explicit stage.
func (v *Validator) ValidateStage(stage basenumber.Prefix, fields Fields) ValidationResult {
	result := ValidationResult{Valid: true, Missing: []string{}, Errors: []string{}}
	for _, name := range v.rules.RequiredFor(string(stage)) {
		if IsMissing(fields[name]) {
			result.addMissing(name, name+" is MISSING or invalid")
		}
	}
	return result
}

// ValidateQuoteToOrderConversion is the QUO -> ORD gate: every QUO field
// plus the conversion counts, which must be at least 1.
func (v *Validator) ValidateQuoteToOrderConversion(fields Fields) ValidationResult {
	result := v.ValidateStage(basenumber.PrefixQuote, fields)
	for _, name := range v.rules.Conversion {
		raw := fields[name]
		n, ok := countValue(raw)
		if IsMissing(raw) || !ok || n < 1 {
			result.addMissing(name, name+" must be set before converting quote to order")
		}
	}
	return result
}

// Completeness returns the percentage of the stage's required fields that
// are present, rounded half-up.
func (v *Validator) Completeness(fields Fields) int {
	required := v.rules.RequiredFor(string(fields.Stage()))
	if len(required) == 0 {
		return 100
	}
	present := 0
	for _, name := range required {
		if !IsMissing(fields[name]) {
			present++
		}
	}
	return int(decimal.NewFromInt(int64(present)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(len(required)))).
		Round(0).
		IntPart())
}

// MissingFieldsMessage renders missing field names for people.
func MissingFieldsMessage(missing []string) string {
	switch len(missing) {
	case 0:
		return ""
	case 1:
		return "Required field is MISSING: " + missing[0]
	}
	return "Required fields are MISSING: " + strings.Join(missing, ", ")
}

// RedAlert renders the escalation raised when a record cannot progress.
func RedAlert(missing []string, fields Fields) string {
	base := fields.Text("BaseNumber")
	if strings.TrimSpace(base) == "" {
		base = "UNKNOWN"
	}
	customer := fields.Text("Customer")
	if strings.TrimSpace(customer) == "" {
		customer = "UNKNOWN"
	}
	return fmt.Sprintf("RED ALERT: Project %s for %s has MISSING required fields: %s. Action required before progression.",
		base, customer, strings.Join(missing, ", "))
}
