package waitlist

import (
	"github.com/campuscabs/waitlist/pkg/constants"
	apperrors "github.com/campuscabs/waitlist/pkg/errors"
)

// Field content rules are applied by Validate, not by binding, so every failing
// field is reported in one response with the same messages the page shows.
type SubmitWaitlistRequest struct {
	Role         string `json:"role" binding:"required,oneof=rider driver"`
	Name         string `json:"name" binding:"max=255"`
	Email        string `json:"email" binding:"max=255"`
	PSUEmail     string `json:"psu_email" binding:"max=255"`
	Instagram    string `json:"instagram" binding:"max=255"`
	IsPSUStudent bool   `json:"is_psu_student"`
}

func (r *SubmitWaitlistRequest) Fields() Fields {
	return Fields{
		FieldName:      r.Name,
		FieldEmail:     r.Email,
		FieldPSUEmail:  r.PSUEmail,
		FieldInstagram: r.Instagram,
	}
}

type OpenFormRequest struct {
	Role string `json:"role" binding:"required,oneof=rider driver"`
}

type EditFormRequest map[string]string

type SetPSUStudentRequest struct {
	IsPSUStudent *bool `json:"is_psu_student" binding:"required"`
}

type FormResponse struct {
	ID           string            `json:"id"`
	Role         Role              `json:"role"`
	Variant      Variant           `json:"variant"`
	IsPSUStudent *bool             `json:"is_psu_student,omitempty"`
	State        FormState         `json:"state"`
	Fields       []string          `json:"fields"`
	Values       map[string]string `json:"values"`
	Errors       map[string]string `json:"errors,omitempty"`
	SubmitError  string            `json:"submit_error,omitempty"`
	Message      string            `json:"message,omitempty"`
	UpdatedAt    string            `json:"updated_at"`
}

type WaitlistStatsResponse struct {
	Riders  int64 `json:"riders"`
	Drivers int64 `json:"drivers"`
	Total   int64 `json:"total"`
}

// ========================================
// Mappers
// ========================================

func ToFormResponse(form *Form) FormResponse {
	if form == nil {
		return FormResponse{}
	}

	resp := FormResponse{
		ID:          form.ID,
		Role:        form.Role,
		Variant:     form.Variant(),
		State:       form.State,
		Fields:      form.Variant().FieldNames(),
		Values:      form.Values.Clone(),
		Errors:      form.Errors,
		SubmitError: form.SubmitError,
		UpdatedAt:   form.UpdatedAt.Format(constants.RFC3339DateTimeFormat),
	}

	if form.Role == RoleRider {
		student := form.IsPSUStudent
		resp.IsPSUStudent = &student
	}

	if form.Submitted() {
		resp.Message = MessageSubmitted
	}

	return resp
}

func ToValidationErrorResponses(ve *ValidationError) []apperrors.ValidationErrorResponse {
	if ve == nil {
		return nil
	}

	out := make([]apperrors.ValidationErrorResponse, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		out = append(out, apperrors.ValidationErrorResponse{Field: fe.Field, Message: fe.Message})
	}
	return out
}

func ToStatsResponse(counts map[Role]int64) WaitlistStatsResponse {
	return WaitlistStatsResponse{
		Riders:  counts[RoleRider],
		Drivers: counts[RoleDriver],
		Total:   counts[RoleRider] + counts[RoleDriver],
	}
}
