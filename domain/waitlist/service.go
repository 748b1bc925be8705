package waitlist

import (
	"context"
	"errors"
	"sort"

	"github.com/campuscabs/waitlist/internal/log"
	apperrors "github.com/campuscabs/waitlist/pkg/errors"
	"github.com/google/uuid"
)

type WaitlistService interface {
	// Submit validates req and, when it passes, inserts exactly one record.
	Submit(ctx context.Context, req *SubmitWaitlistRequest) (*WaitlistSubmission, error)

	// Validate checks req without contacting the store.
	Validate(ctx context.Context, req *SubmitWaitlistRequest) (*WaitlistSubmission, error)

	// Stats returns accepted submissions per role from the local receipts.
	Stats(ctx context.Context) (*WaitlistStatsResponse, error)
}

type waitlistService struct {
	logger   *log.Logger
	recorder *Recorder
	receipts ReceiptRepository
}

func NewWaitlistService(logger *log.Logger, rec *Recorder, receipts ReceiptRepository) WaitlistService {
	return &waitlistService{logger: logger, recorder: rec, receipts: receipts}
}

func (s *waitlistService) Validate(ctx context.Context, req *SubmitWaitlistRequest) (*WaitlistSubmission, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Validate received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	role, err := ParseRole(req.Role)
	if err != nil {
		return nil, apperrors.NewInvalidRequestError("role must be rider or driver", err)
	}

	return Validate(req.Fields(), role, req.IsPSUStudent)
}

func (s *waitlistService) Submit(ctx context.Context, req *SubmitWaitlistRequest) (*WaitlistSubmission, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	submission, err := s.Validate(ctx, req)
	if err != nil {
		if ve, ok := AsValidationError(err); ok {
			role, _ := ParseRole(req.Role)
			s.recorder.invalid(role)
			logger.Info("Waitlist submission failed validation", "role", role, "fields", len(ve.Errors))
		}
		return nil, err
	}

	if err := s.recorder.insert(ctx, submission); err != nil {
		return nil, err
	}

	return submission, nil
}

func (s *waitlistService) Stats(ctx context.Context) (*WaitlistStatsResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if s.receipts == nil {
		return nil, apperrors.NewUnavailableError("waitlist statistics require a database", nil)
	}

	counts, err := s.receipts.CountByRole(ctx)
	if err != nil {
		logger.Error("Failed to count waitlist receipts", "error", err)
		return nil, err
	}

	stats := ToStatsResponse(counts)
	return &stats, nil
}

type FormService interface {
	// Open starts a fresh form for role.
	Open(ctx context.Context, role Role) (*Form, error)

	// Get returns the stored form.
	Get(ctx context.Context, id string) (*Form, error)

	// Resume returns the form for id when it exists and belongs to role, otherwise opens a new one.
	Resume(ctx context.Context, id string, role Role) (*Form, error)

	// Edit applies values to the form. An unknown field rejects the whole edit.
	Edit(ctx context.Context, id string, values map[string]string) (*Form, error)

	// SetPSUStudent switches the rider variant without clearing any values.
	SetPSUStudent(ctx context.Context, id string, student bool) (*Form, error)

	// Submit validates and, on success, inserts the record. The form reaches
	// submitted only after the store confirms the insert.
	Submit(ctx context.Context, id string) (*Form, error)
}

type formService struct {
	logger   *log.Logger
	sessions SessionStore
	recorder *Recorder
	newID    func() string
}

func NewFormService(logger *log.Logger, sessions SessionStore, rec *Recorder) FormService {
	return &formService{
		logger:   logger,
		sessions: sessions,
		recorder: rec,
		newID:    func() string { return uuid.New().String() },
	}
}

func (s *formService) Open(ctx context.Context, role Role) (*Form, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if role != RoleRider && role != RoleDriver {
		return nil, apperrors.NewInvalidRequestError("role must be rider or driver", nil)
	}

	form := NewForm(s.newID(), role)
	if err := s.sessions.Create(ctx, form); err != nil {
		logger.Error("Failed to create form session", "role", role, "error", err)
		return nil, apperrors.NewInternalServerError("unable to start the form", err)
	}

	logger.Info("Form session opened", "form_id", form.ID, "role", role)
	return form, nil
}

func (s *formService) Get(ctx context.Context, id string) (*Form, error) {
	form, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, s.mapError(ctx, id, err)
	}
	return form, nil
}

func (s *formService) Resume(ctx context.Context, id string, role Role) (*Form, error) {
	if id != "" {
		form, err := s.sessions.Get(ctx, id)
		switch {
		case err == nil && form.Role == role:
			return form, nil
		case err != nil && !errors.Is(err, ErrFormNotFound):
			return nil, s.mapError(ctx, id, err)
		}
	}

	return s.Open(ctx, role)
}

func (s *formService) Edit(ctx context.Context, id string, values map[string]string) (*Form, error) {
	fields := make([]string, 0, len(values))
	for field := range values {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	form, err := s.sessions.Update(ctx, id, func(f *Form) error {
		for _, field := range fields {
			if err := f.Edit(field, values[field]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return form, s.mapError(ctx, id, err)
	}

	return form, nil
}

func (s *formService) SetPSUStudent(ctx context.Context, id string, student bool) (*Form, error) {
	form, err := s.sessions.Update(ctx, id, func(f *Form) error {
		return f.SetPSUStudent(student)
	})
	if err != nil {
		return form, s.mapError(ctx, id, err)
	}

	return form, nil
}

func (s *formService) Submit(ctx context.Context, id string) (*Form, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	var (
		submission    *WaitlistSubmission
		validationErr error
	)

	form, err := s.sessions.Update(ctx, id, func(f *Form) error {
		submission, validationErr = nil, nil

		sub, err := f.BeginSubmit()
		if err != nil {
			if _, ok := AsValidationError(err); ok {
				// Keep the messages and the attempted flag.
				validationErr = err
				return nil
			}
			return err
		}

		submission = sub
		return nil
	})
	if err != nil {
		return form, s.mapError(ctx, id, err)
	}

	if validationErr != nil {
		s.recorder.invalid(form.Role)
		logger.Info("Form submission failed validation", "form_id", id, "role", form.Role)
		return form, validationErr
	}

	pending := form
	insertErr := s.recorder.insert(ctx, submission)

	// The outcome must be persisted even if the caller went away mid-insert.
	completeCtx := context.WithoutCancel(ctx)
	form, err = s.sessions.Update(completeCtx, id, func(f *Form) error {
		return f.CompleteSubmit(insertErr)
	})
	if err != nil && insertErr == nil {
		// The record is stored; asking the visitor to retry would create a duplicate.
		logger.Error("Submission stored but form session could not be updated", "form_id", id, "role", submission.Role(), "error", err)
		return stored(pending), nil
	}
	if err != nil {
		logger.Error("Failed to persist submission outcome", "form_id", id, "insert_error", insertErr, "error", err)
		return form, apperrors.NewInternalServerError(MessageSubmitFailed, err)
	}

	if insertErr != nil {
		return form, insertErr
	}

	logger.Info("Form submitted", "form_id", id, "role", form.Role)
	return form, nil
}

// stored returns a submitted copy of f for when the session itself can no longer be written.
func stored(f *Form) *Form {
	done := *f
	done.State = StateSubmitted
	done.SubmitError = ""
	return &done
}

func (s *formService) mapError(ctx context.Context, id string, err error) error {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	switch {
	case errors.Is(err, ErrFormNotFound):
		return apperrors.NewNotFoundError("form not found", err)
	case errors.Is(err, ErrFormSubmitted), errors.Is(err, ErrSubmissionInFlight):
		return apperrors.NewConflictError(err.Error(), err)
	case errors.Is(err, ErrUnknownField), errors.Is(err, ErrNotRiderForm):
		return apperrors.NewInvalidRequestError(err.Error(), err)
	}

	logger.Error("Form session store error", "form_id", id, "error", err)
	return apperrors.NewInternalServerError("unable to load the form", err)
}
