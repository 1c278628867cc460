package truthfile

import (
	"slices"
	"strings"
	"time"

	"sfgnexus/internal/core/apperror"
	"sfgnexus/internal/core/basenumber"
)

// JobPath holds the components of a canonical job folder.
type JobPath struct {
	BaseNumber   string `json:"baseNumber" yaml:"baseNumber"`
	Prefix       string `json:"prefix" yaml:"prefix"`
	Customer     string `json:"customer" yaml:"customer"`
	Project      string `json:"project" yaml:"project"`
	Location     string `json:"location" yaml:"location"`
	ProductType  string `json:"productType" yaml:"productType"`
	DeliveryType string `json:"deliveryType" yaml:"deliveryType"`
}

// JobPathFromFields reads the path components from a record.
func JobPathFromFields(fields Fields) JobPath {
	return JobPath{
		BaseNumber:   fields.Text("BaseNumber"),
		Prefix:       fields.Text("Prefix"),
		Customer:     fields.Text("Customer"),
		Project:      fields.Text("Project"),
		Location:     fields.Text("Location"),
		ProductType:  fields.Text("ProductType"),
		DeliveryType: fields.Text("DeliveryType"),
	}
}

// Paths is the pair of locations generated for a job.
type Paths struct {
	Canonical     string `json:"canonical"`
	MonthShortcut string `json:"monthShortcut"`
}

var pathSanitizer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_",
)

// Sanitize replaces characters the document library rejects with "_".
func Sanitize(component string) string {
	return pathSanitizer.Replace(component)
}

// PathBuilder generates folder paths from Rules.
type PathBuilder struct {
	rules *Rules
	now   func() time.Time
}

// NewPathBuilder creates a builder. Nil rules means DefaultRules; a nil clock
// means time.Now.
func NewPathBuilder(rules *Rules, now func() time.Time) *PathBuilder {
	if rules == nil {
		rules = DefaultRules()
	}
	if now == nil {
		now = time.Now
	}
	return &PathBuilder{rules: rules, now: now}
}

// CanonicalPath renders
// {activeRoot}/{BaseNumber}-{Prefix}/{Customer}/{Project}/{Location}/{ProductType}/{DeliveryType}.
func (b *PathBuilder) CanonicalPath(job JobPath) (string, error) {
	components := []struct{ name, value string }{
		{"BaseNumber", job.BaseNumber},
		{"Prefix", job.Prefix},
		{"Customer", job.Customer},
		{"Project", job.Project},
		{"Location", job.Location},
		{"ProductType", job.ProductType},
		{"DeliveryType", job.DeliveryType},
	}
	var missing []string
	for _, c := range components {
		if IsMissing(c.value) {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return "", apperror.NewValidation("Cannot generate path. Missing required fields: "+strings.Join(missing, ", ")).
			WithDetail("missing", missing)
	}

	if !basenumber.ValidBaseNumber(job.BaseNumber) {
		return "", apperror.NewValidation("base number must be numeric").
			WithDetail("baseNumber", job.BaseNumber)
	}
	if !basenumber.Prefix(job.Prefix).Valid() {
		return "", apperror.NewValidation("invalid prefix").
			WithDetail("prefix", job.Prefix).
			WithDetail("allowed", basenumber.PrefixNames())
	}
	if !slices.Contains(b.rules.DeliveryTypes, job.DeliveryType) {
		return "", apperror.NewValidation("invalid delivery type").
			WithDetail("deliveryType", job.DeliveryType).
			WithDetail("allowed", b.rules.DeliveryTypes)
	}

	return strings.Join([]string{
		b.rules.Paths.ActiveRoot,
		Sanitize(job.BaseNumber) + basenumber.Separator + Sanitize(job.Prefix),
		Sanitize(job.Customer),
		Sanitize(job.Project),
		Sanitize(job.Location),
		Sanitize(job.ProductType),
		Sanitize(job.DeliveryType),
	}, "/"), nil
}

// MonthShortcutPath returns the shortcut folder for the current month.
func (b *PathBuilder) MonthShortcutPath() string {
	return b.MonthShortcutPathAt(b.now())
}

// MonthShortcutPathAt returns {monthRoot}/{Month YYYY}/Active for t.
func (b *PathBuilder) MonthShortcutPathAt(t time.Time) string {
	return b.rules.Paths.MonthRoot + "/" + t.Format("January 2006") + "/Active"
}

// Build returns both paths for a job.
func (b *PathBuilder) Build(job JobPath) (Paths, error) {
	canonical, err := b.CanonicalPath(job)
	if err != nil {
		return Paths{}, err
	}
	return Paths{Canonical: canonical, MonthShortcut: b.MonthShortcutPath()}, nil
}
