package errors

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Role string `json:"role" validate:"required,oneof=rider driver"`
	Name string `json:"name" validate:"max=5"`
	Note string `validate:"required"`
}

func TestFormatValidationErrors_UsesJSONNamesAndLabels(t *testing.T) {
	req := &signupRequest{Role: "pilot", Name: "Alexandra"}
	err := validator.New().Struct(req)
	require.Error(t, err)

	got := FormatValidationErrors(fmt.Errorf("bind: %w", err), req)

	assert.Equal(t, []ValidationErrorResponse{
		{Field: "role", Message: "Role must be one of: rider, driver."},
		{Field: "name", Message: "Name must be at most 5 characters."},
		{Field: "Note", Message: "Note is required."},
	}, got)
}

func TestFormatValidationErrors_TypeMismatch(t *testing.T) {
	var target struct {
		IsPSUStudent bool `json:"is_psu_student"`
	}
	err := json.Unmarshal([]byte(`{"is_psu_student":"yes"}`), &target)
	require.Error(t, err)

	got := FormatValidationErrors(err, &target)

	require.Len(t, got, 1)
	assert.Equal(t, "is_psu_student", got[0].Field)
	assert.Contains(t, got[0].Message, "must be a bool")
}

func TestFormatValidationErrors_IgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FormatValidationErrors(&json.SyntaxError{}, nil))
	assert.Nil(t, FormatValidationErrors(nil, nil))
}
