package waitlist

import (
	"errors"
	"strings"

	"github.com/campuscabs/waitlist/pkg/validation"
)

// ValidationError lists every failing field of one validation pass, in display order.
type ValidationError struct {
	Errors []*validation.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages maps field name to its message.
func (e *ValidationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		out[fe.Field] = fe.Message
	}
	return out
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Validate checks the active variant's fields and builds the record when all pass.
// isPSUStudent is ignored for drivers.
func Validate(fields Fields, role Role, isPSUStudent bool) (*WaitlistSubmission, error) {
	if role != RoleRider && role != RoleDriver {
		return nil, errors.New("unknown role")
	}

	variant := VariantFor(role, isPSUStudent)
	engine := validation.Default()

	var failures []*validation.FieldError
	for _, fr := range variantFields[variant] {
		if fe := engine.Check(fr.name, fields[fr.name], fr.rules...); fe != nil {
			failures = append(failures, fe)
		}
	}

	if len(failures) > 0 {
		return nil, &ValidationError{Errors: failures}
	}

	return newSubmission(role, isPSUStudent, fields), nil
}

// validateField re-checks a single field against variant; inactive fields never fail.
func validateField(variant Variant, field, value string) *validation.FieldError {
	rules, ok := variant.rulesFor(field)
	if !ok {
		return nil
	}
	return validation.Check(field, value, rules...)
}
