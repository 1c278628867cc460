// Package intake composes allocation with the truth-file rules: it opens new
// enquiries and moves identifiers through the lifecycle.
package intake

import (
	"context"
	"maps"

	"sfgnexus/internal/core/apperror"
	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/domain/truthfile"
	"sfgnexus/pkg/logger"
)

// Enquiry is the result of opening a new enquiry.
type Enquiry struct {
	Allocation   *basenumber.Allocation     `json:"allocation"`
	Fields       truthfile.Fields           `json:"fields"`
	Validation   truthfile.ValidationResult `json:"validation"`
	Completeness int                        `json:"completeness"`
	Paths        *truthfile.Paths           `json:"paths,omitempty"`
	RedAlert     string                     `json:"redAlert,omitempty"`
}

// Transition is the result of advancing an identifier.
type Transition struct {
	From       basenumber.Identifier       `json:"from"`
	To         basenumber.Identifier       `json:"to"`
	Formatted  string                      `json:"formatted"`
	Validation *truthfile.ValidationResult `json:"validation,omitempty"`
}

// Service wires the allocator to the validator and path builder.
type Service struct {
	allocator basenumber.Allocator
	validator *truthfile.Validator
	paths     *truthfile.PathBuilder
}

// NewService creates an intake service.
func NewService(allocator basenumber.Allocator, validator *truthfile.Validator, paths *truthfile.PathBuilder) *Service {
	return &Service{
		allocator: allocator,
		validator: validator,
		paths:     paths,
	}
}

// OpenEnquiry allocates an ENQ number for a new record and checks the
// record against the enquiry rules. Paths are only generated for a valid
// record; an invalid one gets a red alert instead.
func (s *Service) OpenEnquiry(ctx context.Context, fields truthfile.Fields) (*Enquiry, error) {
	alloc, err := s.allocator.Allocate(ctx, string(basenumber.PrefixEnquiry))
	if err != nil {
		return nil, err
	}

	stamped := maps.Clone(fields)
	if stamped == nil {
		stamped = truthfile.Fields{}
	}
	stamped["BaseNumber"] = alloc.BaseNumber
	stamped["Prefix"] = string(alloc.Prefix)

	result := &Enquiry{
		Allocation:   alloc,
		Fields:       stamped,
		Validation:   s.validator.ValidateStage(basenumber.PrefixEnquiry, stamped),
		Completeness: s.validator.Completeness(stamped),
	}

	if !result.Validation.Valid {
		result.RedAlert = truthfile.RedAlert(result.Validation.Missing, stamped)
		logger.Warn(ctx, "enquiry opened with missing fields",
			"identifier", alloc.Formatted,
			"missing", result.Validation.Missing,
		)
		return result, nil
	}

	// ENQ does not require product or delivery type; skip paths until known.
	job := truthfile.JobPathFromFields(stamped)
	if paths, err := s.paths.Build(job); err == nil {
		result.Paths = &paths
	}

	logger.Info(ctx, "enquiry opened", "identifier", alloc.Formatted, "completeness", result.Completeness)
	return result, nil
}

// Advance moves an identifier to the next lifecycle stage (or to, when set).
// The BaseNumber is kept. Moving a quote to an order requires the conversion
// gate to pass.
func (s *Service) Advance(ctx context.Context, formatted string, to string, fields truthfile.Fields) (*Transition, error) {
	from, ok := basenumber.Parse(formatted)
	if !ok || !from.Prefix.Valid() {
		return nil, apperror.NewValidation("invalid identifier").
			WithDetail("value", formatted)
	}

	var target basenumber.Prefix
	if to == "" {
		next, ok := from.Prefix.Next()
		if !ok {
			return nil, apperror.NewBusinessRule(apperror.CodeInvalidTransition, "record is already at its final stage").
				WithDetail("from", from.Prefix)
		}
		target = next
	} else {
		p, err := basenumber.ParsePrefix(to)
		if err != nil {
			return nil, err
		}
		target = p
	}

	if !basenumber.CanTransition(from.Prefix, target) {
		return nil, apperror.NewBusinessRule(apperror.CodeInvalidTransition, "transition not allowed").
			WithDetail("from", from.Prefix).
			WithDetail("to", target)
	}

	result := &Transition{From: from, To: basenumber.Identifier{BaseNumber: from.BaseNumber, Prefix: target}}

	if from.Prefix == basenumber.PrefixQuote && target == basenumber.PrefixOrder {
		stamped, err := stampIdentifier(fields, from)
		if err != nil {
			return nil, err
		}
		validation := s.validator.ValidateQuoteToOrderConversion(stamped)
		result.Validation = &validation
		if !validation.Valid {
			logger.Warn(ctx, "quote to order conversion blocked",
				"identifier", formatted,
				"missing", validation.Missing,
			)
			return nil, apperror.NewBusinessRule(apperror.CodeConversionBlocked, truthfile.MissingFieldsMessage(validation.Missing)).
				WithDetail("missing", validation.Missing).
				WithDetail("errors", validation.Errors)
		}
	}

	formattedTo, err := basenumber.Format(from.BaseNumber, target)
	if err != nil {
		return nil, err
	}
	result.Formatted = formattedTo

	logger.Info(ctx, "identifier advanced", "from", formatted, "to", formattedTo)
	return result, nil
}

// stampIdentifier copies fields with BaseNumber and Prefix taken from id.
// Values the caller already set must agree with id.
func stampIdentifier(fields truthfile.Fields, id basenumber.Identifier) (truthfile.Fields, error) {
	stamped := maps.Clone(fields)
	if stamped == nil {
		stamped = truthfile.Fields{}
	}
	for name, want := range map[string]string{
		"BaseNumber": id.BaseNumber,
		"Prefix":     string(id.Prefix),
	} {
		if got := stamped.Text(name); !truthfile.IsMissing(stamped[name]) && got != want {
			return nil, apperror.NewValidation("record does not match identifier").
				WithDetail("field", name).
				WithDetail("expected", want).
				WithDetail("actual", got)
		}
		stamped[name] = want
	}
	return stamped, nil
}
