package waitlist

import (
	"errors"
	"time"

	"github.com/campuscabs/waitlist/pkg/validation"
)

type FormState string

const (
	StateEditing    FormState = "editing"
	StateSubmitting FormState = "submitting"
	StateSubmitted  FormState = "submitted"
)

// MessageSubmitFailed is shown when the store did not accept a valid record.
const MessageSubmitFailed = "We couldn't save your spot. Please try again."

// MessageSubmitted replaces the inputs once a form is accepted.
const MessageSubmitted = "Thanks! We'll be in touch soon."

var (
	ErrFormSubmitted      = errors.New("form has already been submitted")
	ErrSubmissionInFlight = errors.New("a submission for this form is already in progress")
	ErrNotSubmitting      = errors.New("form has no submission in progress")
	ErrUnknownField       = errors.New("field is not part of this form")
	ErrNotRiderForm       = errors.New("only rider forms have a PSU student option")
)

// Form is the mutable state of one rider or driver form.
// Values for the inactive rider variant are kept so toggling never loses input.
type Form struct {
	ID           string            `json:"id"`
	Role         Role              `json:"role"`
	IsPSUStudent bool              `json:"is_psu_student"`
	Values       Fields            `json:"values"`
	Errors       map[string]string `json:"errors,omitempty"`
	State        FormState         `json:"state"`
	SubmitError  string            `json:"submit_error,omitempty"`
	Attempted    bool              `json:"attempted"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func NewForm(id string, role Role) *Form {
	now := time.Now().UTC()
	return &Form{
		ID:        id,
		Role:      role,
		Values:    Fields{},
		State:     StateEditing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (f *Form) Variant() Variant {
	return VariantFor(f.Role, f.IsPSUStudent)
}

func (f *Form) Value(field string) string {
	return f.Values[field]
}

func (f *Form) FieldError(field string) string {
	return f.Errors[field]
}

func (f *Form) Submitted() bool {
	return f.State == StateSubmitted
}

func (f *Form) checkEditable() error {
	switch f.State {
	case StateSubmitted:
		return ErrFormSubmitted
	case StateSubmitting:
		return ErrSubmissionInFlight
	}
	return nil
}

func (f *Form) touch() {
	f.UpdatedAt = time.Now().UTC()
}

// Edit stores value for field. Once a submit has been attempted the field is re-checked immediately.
func (f *Form) Edit(field, value string) error {
	if err := f.checkEditable(); err != nil {
		return err
	}
	if !isAllowedField(f.Role, field) {
		return ErrUnknownField
	}

	if f.Values == nil {
		f.Values = Fields{}
	}
	f.Values[field] = value
	f.SubmitError = ""

	if f.Attempted {
		f.setFieldError(field, validateField(f.Variant(), field, value))
	}

	f.touch()
	return nil
}

func (f *Form) setFieldError(field string, fe *validation.FieldError) {
	if fe == nil {
		delete(f.Errors, field)
		return
	}

	if f.Errors == nil {
		f.Errors = map[string]string{}
	}
	f.Errors[field] = fe.Message
}

// SetPSUStudent switches the rider variant. Errors for fields that become inactive are dropped.
func (f *Form) SetPSUStudent(student bool) error {
	if err := f.checkEditable(); err != nil {
		return err
	}
	if f.Role != RoleRider {
		return ErrNotRiderForm
	}

	f.IsPSUStudent = student

	active := f.Variant()
	for field := range f.Errors {
		if _, ok := active.rulesFor(field); !ok {
			delete(f.Errors, field)
		}
	}

	f.touch()
	return nil
}

// BeginSubmit validates the active variant. On success the form moves to submitting
// and the record to insert is returned; on failure the form stays editable with messages.
func (f *Form) BeginSubmit() (*WaitlistSubmission, error) {
	if err := f.checkEditable(); err != nil {
		return nil, err
	}

	f.Attempted = true
	f.SubmitError = ""
	f.touch()

	submission, err := Validate(f.Values, f.Role, f.IsPSUStudent)
	if err != nil {
		if ve, ok := AsValidationError(err); ok {
			f.Errors = ve.Messages()
		}
		return nil, err
	}

	f.Errors = nil
	f.State = StateSubmitting
	return submission, nil
}

// CompleteSubmit records the store outcome of the in-flight submission.
func (f *Form) CompleteSubmit(storeErr error) error {
	if f.State != StateSubmitting {
		return ErrNotSubmitting
	}

	if storeErr != nil {
		f.State = StateEditing
		f.SubmitError = MessageSubmitFailed
	} else {
		f.State = StateSubmitted
	}

	f.touch()
	return nil
}
