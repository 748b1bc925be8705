package waitlist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/campuscabs/waitlist/pkg/validation"
)

type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleRider:
		return RoleRider, nil
	case RoleDriver:
		return RoleDriver, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Variant is the attribute set a form validates against.
type Variant string

const (
	VariantRiderGeneral Variant = "rider_general"
	VariantRiderStudent Variant = "rider_student"
	VariantDriver       Variant = "driver"
)

func VariantFor(role Role, isPSUStudent bool) Variant {
	if role == RoleDriver {
		return VariantDriver
	}
	if isPSUStudent {
		return VariantRiderStudent
	}
	return VariantRiderGeneral
}

const (
	FieldName      = "name"
	FieldEmail     = "email"
	FieldPSUEmail  = "psu_email"
	FieldInstagram = "instagram"
)

type fieldRule struct {
	name  string
	rules []validation.Rule
}

var variantFields = map[Variant][]fieldRule{
	VariantRiderGeneral: {
		{name: FieldName, rules: []validation.Rule{validation.Required}},
		{name: FieldEmail, rules: []validation.Rule{validation.Required, validation.EmailShape}},
	},
	VariantRiderStudent: {
		{name: FieldName, rules: []validation.Rule{validation.Required}},
		{name: FieldPSUEmail, rules: []validation.Rule{validation.Required, validation.PSUEmail}},
		{name: FieldInstagram},
	},
	VariantDriver: {
		{name: FieldName, rules: []validation.Rule{validation.Required}},
		{name: FieldEmail, rules: []validation.Rule{validation.Required, validation.EmailShape}},
	},
}

// FieldNames lists the fields rendered and validated for v, in display order.
func (v Variant) FieldNames() []string {
	rules := variantFields[v]
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.name)
	}
	return names
}

func (v Variant) rulesFor(field string) ([]validation.Rule, bool) {
	for _, r := range variantFields[v] {
		if r.name == field {
			return r.rules, true
		}
	}
	return nil, false
}

// AllowedFields lists every field a form of role may hold, across variants.
func AllowedFields(role Role) []string {
	if role == RoleDriver {
		return []string{FieldName, FieldEmail}
	}
	return []string{FieldName, FieldEmail, FieldPSUEmail, FieldInstagram}
}

func isAllowedField(role Role, field string) bool {
	for _, f := range AllowedFields(role) {
		if f == field {
			return true
		}
	}
	return false
}

// Fields holds raw, untrimmed form input keyed by field name.
type Fields map[string]string

func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// WaitlistSubmission is the validated record handed to the store. It has no setters.
type WaitlistSubmission struct {
	role         Role
	name         string
	email        string
	psuEmail     string
	instagram    *string
	isPSUStudent *bool
}

func (s *WaitlistSubmission) Role() Role       { return s.role }
func (s *WaitlistSubmission) Name() string     { return s.name }
func (s *WaitlistSubmission) Email() string    { return s.email }
func (s *WaitlistSubmission) PSUEmail() string { return s.psuEmail }

// Instagram returns the handle and whether one was given.
func (s *WaitlistSubmission) Instagram() (string, bool) {
	if s.instagram == nil {
		return "", false
	}
	return *s.instagram, true
}

// IsPSUStudent is only meaningful for riders; ok is false for drivers.
func (s *WaitlistSubmission) IsPSUStudent() (value bool, ok bool) {
	if s.isPSUStudent == nil {
		return false, false
	}
	return *s.isPSUStudent, true
}

func (s *WaitlistSubmission) Variant() Variant {
	student, _ := s.IsPSUStudent()
	return VariantFor(s.role, student)
}

type submissionRecord struct {
	Role         Role    `json:"role"`
	Name         string  `json:"name"`
	Email        string  `json:"email,omitempty"`
	PSUEmail     string  `json:"psu_email,omitempty"`
	Instagram    *string `json:"instagram,omitempty"`
	IsPSUStudent *bool   `json:"is_psu_student,omitempty"`
}

func (s *WaitlistSubmission) MarshalJSON() ([]byte, error) {
	return json.Marshal(submissionRecord{
		Role:         s.role,
		Name:         s.name,
		Email:        s.email,
		PSUEmail:     s.psuEmail,
		Instagram:    s.instagram,
		IsPSUStudent: s.isPSUStudent,
	})
}

func newSubmission(role Role, isPSUStudent bool, values Fields) *WaitlistSubmission {
	get := func(field string) string { return strings.TrimSpace(values[field]) }

	s := &WaitlistSubmission{role: role, name: get(FieldName)}

	switch VariantFor(role, isPSUStudent) {
	case VariantRiderStudent:
		s.psuEmail = get(FieldPSUEmail)
		if handle := get(FieldInstagram); handle != "" {
			s.instagram = &handle
		}
	default:
		s.email = get(FieldEmail)
	}

	if role == RoleRider {
		student := isPSUStudent
		s.isPSUStudent = &student
	}

	return s
}
