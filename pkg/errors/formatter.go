package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/campuscabs/waitlist/pkg/validation"
	"github.com/go-playground/validator/v10"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func messageFor(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid", "uuid4":
		return label + " must be a valid ID."
	default:
		return label + " is invalid."
	}
}

// jsonName resolves a struct field to its json tag name, falling back to the Go name.
func jsonName(model any, field string) string {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return field
	}

	f, ok := t.FieldByName(field)
	if !ok {
		return field
	}

	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field
	}
	return name
}

// FormatValidationErrors turns binding errors into per-field messages keyed by json name.
// It returns nil for errors that are not about individual fields, such as malformed JSON.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be a %s, got %s.", validation.Default().Label(typeErr.Field), typeErr.Type, typeErr.Value),
		}}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]ValidationErrorResponse, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := jsonName(model, fe.StructField())
		out = append(out, ValidationErrorResponse{
			Field:   name,
			Message: messageFor(validation.Default().Label(name), fe),
		})
	}
	return out
}
