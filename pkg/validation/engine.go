package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type ErrorKind string

const (
	MissingField  ErrorKind = "missing_field"
	InvalidFormat ErrorKind = "invalid_format"
)

// Rule names double as validator tags for the format rules.
type Rule string

const (
	Required   Rule = "required"
	EmailShape Rule = "email_shape"
	PSUEmail   Rule = "psu_email"
)

const (
	MessageInvalidEmail = "Enter a valid email address."
	MessageInvalidPSU   = "Must be a @psu.edu email."
)

var (
	emailShapePattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// Matching is case-sensitive, so "user@PSU.EDU" fails.
	psuEmailPattern = regexp.MustCompile(`^[^\s@]+@psu\.edu$`)
)

// isEmailShape also requires every dot-separated label of the domain to be non-empty,
// so "a@b.com." and "a@b..com" fail.
func isEmailShape(s string) bool {
	if !utf8.ValidString(s) || !emailShapePattern.MatchString(s) {
		return false
	}

	domain := s[strings.LastIndexByte(s, '@')+1:]
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

var defaultLabels = map[string]string{
	"name":      "Name",
	"email":     "Email",
	"psu_email": "PSU email",
	"instagram": "Instagram",
}

type FieldError struct {
	Field   string    `json:"field"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Engine struct {
	validate *validator.Validate
	labels   map[string]string
}

func NewEngine() *Engine {
	v := validator.New()

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation(string(EmailShape), func(fl validator.FieldLevel) bool {
		return isEmailShape(fl.Field().String())
	})
	_ = v.RegisterValidation(string(PSUEmail), func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return utf8.ValidString(s) && psuEmailPattern.MatchString(s)
	})

	labels := make(map[string]string, len(defaultLabels))
	for k, v := range defaultLabels {
		labels[k] = v
	}

	return &Engine{
		validate: v,
		labels:   labels,
	}
}

var defaultEngine = NewEngine()

// Default returns the shared engine. It is safe for concurrent use.
func Default() *Engine {
	return defaultEngine
}

// Label returns the human-readable name used in messages for field.
func (e *Engine) Label(field string) string {
	if label, ok := e.labels[field]; ok {
		return label
	}

	// Casers carry state and cannot be shared across goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(field, "_", " "))
}

// Check applies rules to value in order and returns the first failure, or nil.
// Format rules are skipped for empty values so optional fields stay optional.
func (e *Engine) Check(field, value string, rules ...Rule) *FieldError {
	trimmed := strings.TrimSpace(value)

	for _, rule := range rules {
		switch rule {
		case Required:
			if trimmed == "" {
				return &FieldError{
					Field:   field,
					Kind:    MissingField,
					Message: e.Label(field) + " is required.",
				}
			}
		case EmailShape, PSUEmail:
			if trimmed == "" {
				continue
			}
			if err := e.validate.Var(trimmed, string(rule)); err != nil {
				return &FieldError{
					Field:   field,
					Kind:    InvalidFormat,
					Message: messageForRule(rule),
				}
			}
		}
	}

	return nil
}

func messageForRule(rule Rule) string {
	if rule == PSUEmail {
		return MessageInvalidPSU
	}

	return MessageInvalidEmail
}

// Check runs rules against the default engine.
func Check(field, value string, rules ...Rule) *FieldError {
	return defaultEngine.Check(field, value, rules...)
}
