package truthfile

import (
	"regexp"
	"strings"
)

// SubjectParams are the parts of an outbound email subject.
type SubjectParams struct {
	BaseNumber          string `json:"baseNumber"`
	Prefix              string `json:"prefix"`
	Customer            string `json:"customer"`
	Project             string `json:"project"`
	Location            string `json:"location"`
	ProductType         string `json:"productType"`
	DeliveryType        string `json:"deliveryType"`
	CustomerOrderNumber string `json:"customerOrderNumber,omitempty"`
}

// PatternValidation reports whether a subject or filename follows its pattern.
// RedAlert means sending must be blocked.
type PatternValidation struct {
	Valid     bool     `json:"valid"`
	Generated string   `json:"generated"`
	Errors    []string `json:"errors"`
	RedAlert  bool     `json:"redAlert"`
}

func orMissing(v string) string {
	if strings.TrimSpace(v) == "" {
		return MissingMarker
	}
	return v
}

// EmailSubject renders "[{BaseNumber}-{Prefix}] → CUS {Customer} → {Project} → ..."
// followed by the company name and, when set, the customer order number.
// Blank parts render as MISSING.
func EmailSubject(p SubjectParams) string {
	parts := []string{
		"[" + orMissing(p.BaseNumber) + "-" + orMissing(p.Prefix) + "]",
		"→ CUS", orMissing(p.Customer),
		"→", orMissing(p.Project),
		"→", orMissing(p.Location),
		"→", orMissing(p.ProductType),
		"→", orMissing(p.DeliveryType),
		"— SFG Aluminium —",
	}
	if p.CustomerOrderNumber != "" {
		parts = append(parts, "Customer Order nr "+p.CustomerOrderNumber)
	}
	return strings.Join(parts, " ")
}

// ValidateEmailSubject checks a subject written by hand against the pattern.
func ValidateEmailSubject(subject string, p SubjectParams) PatternValidation {
	result := PatternValidation{Generated: EmailSubject(p), Errors: []string{}}

	if !strings.HasPrefix(subject, "["+p.BaseNumber+"-"+p.Prefix+"]") {
		result.Errors = append(result.Errors, "Subject must start with [{BaseNumber}-{Prefix}]")
	}
	if strings.Contains(subject, MissingMarker) {
		result.Errors = append(result.Errors, "Subject contains MISSING field values. All required fields must be populated.")
	}
	for _, segment := range []string{"→ CUS", p.Customer, p.Project, p.Location, p.ProductType, p.DeliveryType, "SFG Aluminium"} {
		if !strings.Contains(subject, segment) {
			result.Errors = append(result.Errors, `Subject missing required segment: "`+segment+`"`)
		}
	}

	result.Valid = len(result.Errors) == 0
	result.RedAlert = !result.Valid
	return result
}

// FileKind selects a document filename pattern.
type FileKind string

const (
	FileQuote FileKind = "quote"
	FilePO    FileKind = "po"
	FileRFQ   FileKind = "rfq"
)

// FilenameParams are the parts of a document filename.
type FilenameParams struct {
	BaseNumber string `json:"baseNumber"`
	Prefix     string `json:"prefix"`
	Revision   string `json:"revision,omitempty"`
	PONumber   string `json:"poNumber,omitempty"`
	Category   string `json:"category,omitempty"`
}

var filenamePatterns = map[FileKind]*regexp.Regexp{
	FileQuote: regexp.MustCompile(`^[0-9]+-(ENQ|QUO|ORD)_Quote_[^.]+\.pdf$`),
	FilePO:    regexp.MustCompile(`^[0-9]+-(ENQ|QUO|ORD)_Customer_PO_[^.]+\.pdf$`),
	FileRFQ:   regexp.MustCompile(`^[0-9]+-SFG-ENQ_RFQ_[^.]+\.pdf$`),
}

// Filename renders the filename for kind.
func Filename(kind FileKind, p FilenameParams) string {
	base := orMissing(p.BaseNumber)
	switch kind {
	case FileQuote:
		return base + "-" + orMissing(p.Prefix) + "_Quote_" + orMissing(p.Revision) + ".pdf"
	case FilePO:
		return base + "-" + orMissing(p.Prefix) + "_Customer_PO_" + orMissing(p.PONumber) + ".pdf"
	case FileRFQ:
		return base + "-SFG-ENQ_RFQ_" + orMissing(p.Category) + ".pdf"
	}
	return ""
}

// ValidateFilename checks filename against the pattern for kind.
func ValidateFilename(filename string, kind FileKind, p FilenameParams) PatternValidation {
	pattern, ok := filenamePatterns[kind]
	if !ok {
		return PatternValidation{Errors: []string{"Unknown filename type"}, RedAlert: true}
	}

	result := PatternValidation{Generated: Filename(kind, p), Errors: []string{}}
	if !pattern.MatchString(filename) {
		result.Errors = append(result.Errors, "Filename does not match pattern "+result.Generated)
	}
	if strings.Contains(filename, MissingMarker) {
		result.Errors = append(result.Errors, "Filename contains MISSING field values")
	}
	result.Valid = len(result.Errors) == 0
	result.RedAlert = !result.Valid
	return result
}
