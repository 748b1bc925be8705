package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/campuscabs/waitlist/internal/log"
	"github.com/campuscabs/waitlist/internal/models"
	apperrors "github.com/campuscabs/waitlist/pkg/errors"
	"github.com/campuscabs/waitlist/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	errStoreRejected = &store.InsertError{Table: DefaultTable, StatusCode: 400, Err: store.ErrRejected}
	errStoreDown     = &store.InsertError{Table: DefaultTable, StatusCode: 503, Err: store.ErrUnavailable}
)

type testDeps struct {
	inserter *MockInserter
	receipts *MockReceiptRepository
	registry *prometheus.Registry
	recorder *Recorder
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	ctrl := gomock.NewController(t)
	deps := &testDeps{
		inserter: NewMockInserter(ctrl),
		receipts: NewMockReceiptRepository(ctrl),
		registry: prometheus.NewRegistry(),
	}
	deps.recorder = NewRecorder(log.NewLoggerWithJSONOutput(), deps.inserter, "", deps.receipts, deps.registry)
	return deps
}

func (d *testDeps) count(role Role, outcome string) float64 {
	return testutil.ToFloat64(d.recorder.metrics.submissions.WithLabelValues(string(role), outcome))
}

func driverRequest(name, email string) *SubmitWaitlistRequest {
	return &SubmitWaitlistRequest{Role: "driver", Name: name, Email: email}
}

func TestWaitlistService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("valid submission inserts once and records a receipt", func(t *testing.T) {
		deps := newTestDeps(t)
		service := NewWaitlistService(log.NewLoggerWithJSONOutput(), deps.recorder, deps.receipts)

		deps.inserter.EXPECT().
			Insert(gomock.Any(), DefaultTable, gomock.AssignableToTypeOf(&WaitlistSubmission{})).
			DoAndReturn(func(_ context.Context, _ string, record any) error {
				sub := record.(*WaitlistSubmission)
				assert.Equal(t, "Dana", sub.Name())
				assert.Equal(t, "dana@example.com", sub.Email())
				return nil
			}).
			Times(1)
		deps.receipts.EXPECT().
			CreateReceipt(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, receipt *models.WaitlistReceipt) error {
				assert.Equal(t, "driver", receipt.Role)
				assert.Equal(t, string(VariantDriver), receipt.Variant)
				return nil
			})

		sub, err := service.Submit(ctx, driverRequest("Dana", "dana@example.com"))

		require.NoError(t, err)
		assert.Equal(t, RoleDriver, sub.Role())
		assert.Equal(t, float64(1), deps.count(RoleDriver, outcomeAccepted))
	})

	t.Run("invalid submission never reaches the store", func(t *testing.T) {
		deps := newTestDeps(t)
		service := NewWaitlistService(log.NewLoggerWithJSONOutput(), deps.recorder, deps.receipts)

		_, err := service.Submit(ctx, driverRequest("", "a@b.com"))

		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, map[string]string{FieldName: "Name is required."}, ve.Messages())
		assert.Equal(t, float64(1), deps.count(RoleDriver, outcomeInvalid))
	})

	t.Run("rejected insert is a bad gateway", func(t *testing.T) {
		deps := newTestDeps(t)
		service := NewWaitlistService(log.NewLoggerWithJSONOutput(), deps.recorder, deps.receipts)

		deps.inserter.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errStoreRejected)

		_, err := service.Submit(ctx, driverRequest("Dana", "dana@example.com"))

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeBadGateway, apperrors.GetErrorType(err))
		assert.Equal(t, MessageSubmitFailed, apperrors.GetHumanReadableMessage(err))
		assert.Equal(t, float64(1), deps.count(RoleDriver, outcomeRejected))
	})

	t.Run("unreachable store is unavailable", func(t *testing.T) {
		deps := newTestDeps(t)
		service := NewWaitlistService(log.NewLoggerWithJSONOutput(), deps.recorder, deps.receipts)

		deps.inserter.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errStoreDown)

		_, err := service.Submit(ctx, driverRequest("Dana", "dana@example.com"))

		assert.Equal(t, 503, apperrors.HTTPStatusCode(err))
		assert.ErrorIs(t, err, store.ErrUnavailable)
		assert.Equal(t, float64(1), deps.count(RoleDriver, outcomeUnavailable))
	})

	t.Run("receipt failure does not fail the submission", func(t *testing.T) {
		deps := newTestDeps(t)
		service := NewWaitlistService(log.NewLoggerWithJSONOutput(), deps.recorder, deps.receipts)

		deps.inserter.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		deps.receipts.EXPECT().CreateReceipt(gomock.Any(), gomock.Any()).Return(apperrors.NewDatabaseError("db down", nil))

		_, err := service.Submit(ctx, driverRequest("Dana", "dana@example.com"))

		assert.NoError(t, err)
	})
}

func TestWaitlistService_Validate(t *testing.T) {
	deps := newTestDeps(t)
	service := NewWaitlistService(log.NewLoggerWithJSONOutput(), deps.recorder, deps.receipts)

	sub, err := service.Validate(context.Background(), &SubmitWaitlistRequest{
		Role:         "rider",
		Name:         "Alex",
		PSUEmail:     "abc1234@psu.edu",
		IsPSUStudent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, VariantRiderStudent, sub.Variant())

	_, err = service.Validate(context.Background(), nil)
	assert.Equal(t, apperrors.ErrorTypeInvalidRequest, apperrors.GetErrorType(err))
}

func TestWaitlistService_Stats(t *testing.T) {
	deps := newTestDeps(t)
	service := NewWaitlistService(log.NewLoggerWithJSONOutput(), deps.recorder, deps.receipts)

	deps.receipts.EXPECT().CountByRole(gomock.Any()).Return(map[Role]int64{RoleRider: 4, RoleDriver: 2}, nil)

	stats, err := service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, WaitlistStatsResponse{Riders: 4, Drivers: 2, Total: 6}, *stats)

	withoutDB := NewWaitlistService(log.NewLoggerWithJSONOutput(), deps.recorder, nil)
	_, err = withoutDB.Stats(context.Background())
	assert.Equal(t, 503, apperrors.HTTPStatusCode(err))
}

func newTestFormService(deps *testDeps) *formService {
	return NewFormService(log.NewLoggerWithJSONOutput(), NewMemorySessionStore(time.Hour), deps.recorder).(*formService)
}

func openFilledDriverForm(t *testing.T, svc FormService) *Form {
	t.Helper()

	form, err := svc.Open(context.Background(), RoleDriver)
	require.NoError(t, err)

	form, err = svc.Edit(context.Background(), form.ID, map[string]string{
		FieldName:  "Dana",
		FieldEmail: "dana@example.com",
	})
	require.NoError(t, err)
	return form
}

func TestFormService_SubmitSuccessIsTerminal(t *testing.T) {
	deps := newTestDeps(t)
	svc := newTestFormService(deps)
	ctx := context.Background()

	deps.inserter.EXPECT().Insert(gomock.Any(), DefaultTable, gomock.Any()).Return(nil).Times(1)
	deps.receipts.EXPECT().CreateReceipt(gomock.Any(), gomock.Any()).Return(nil)

	form := openFilledDriverForm(t, svc)

	submitted, err := svc.Submit(ctx, form.ID)
	require.NoError(t, err)
	assert.True(t, submitted.Submitted())

	_, err = svc.Submit(ctx, form.ID)
	assert.Equal(t, 409, apperrors.HTTPStatusCode(err))

	after, err := svc.Edit(ctx, form.ID, map[string]string{FieldName: "Other"})
	assert.Equal(t, 409, apperrors.HTTPStatusCode(err))
	assert.Equal(t, "Dana", after.Value(FieldName))
}

func TestFormService_SubmitValidationFailure(t *testing.T) {
	deps := newTestDeps(t)
	svc := newTestFormService(deps)
	ctx := context.Background()

	form, err := svc.Open(ctx, RoleRider)
	require.NoError(t, err)

	result, err := svc.Submit(ctx, form.ID)

	_, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, StateEditing, result.State)
	assert.Equal(t, "Name is required.", result.FieldError(FieldName))

	stored, err := svc.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.True(t, stored.Attempted)
	assert.Equal(t, "Email is required.", stored.FieldError(FieldEmail))
}

func TestFormService_StoreFailureKeepsFormEditable(t *testing.T) {
	deps := newTestDeps(t)
	svc := newTestFormService(deps)
	ctx := context.Background()

	deps.inserter.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errStoreDown)

	form := openFilledDriverForm(t, svc)

	result, err := svc.Submit(ctx, form.ID)

	assert.Equal(t, apperrors.ErrorTypeUnavailable, apperrors.GetErrorType(err))
	assert.Equal(t, StateEditing, result.State)
	assert.Equal(t, MessageSubmitFailed, result.SubmitError)
	assert.Equal(t, "dana@example.com", result.Value(FieldEmail))

	deps.inserter.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	deps.receipts.EXPECT().CreateReceipt(gomock.Any(), gomock.Any()).Return(nil)

	retried, err := svc.Submit(ctx, form.ID)
	require.NoError(t, err)
	assert.True(t, retried.Submitted())
	assert.Empty(t, retried.SubmitError)
}

func TestFormService_SecondSubmitWhileInFlightConflicts(t *testing.T) {
	deps := newTestDeps(t)
	svc := newTestFormService(deps)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})

	deps.inserter.EXPECT().
		Insert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, any) error {
			close(entered)
			<-release
			return nil
		}).
		Times(1)
	deps.receipts.EXPECT().CreateReceipt(gomock.Any(), gomock.Any()).Return(nil)

	form := openFilledDriverForm(t, svc)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, form.ID)
		done <- err
	}()

	<-entered
	inFlight, err := svc.Submit(ctx, form.ID)
	assert.Equal(t, 409, apperrors.HTTPStatusCode(err))
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Equal(t, StateSubmitting, inFlight.State)

	close(release)
	require.NoError(t, <-done)

	final, err := svc.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.True(t, final.Submitted())
}

func TestFormService_CancelledCallerStillPersistsOutcome(t *testing.T) {
	deps := newTestDeps(t)
	svc := newTestFormService(deps)

	ctx, cancel := context.WithCancel(context.Background())

	deps.inserter.EXPECT().
		Insert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, any) error {
			cancel()
			return nil
		})
	deps.receipts.EXPECT().CreateReceipt(gomock.Any(), gomock.Any()).Return(nil)

	form := openFilledDriverForm(t, svc)

	_, err := svc.Submit(ctx, form.ID)
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), form.ID)
	require.NoError(t, err)
	assert.True(t, stored.Submitted())
}

func TestFormService_ErrorMapping(t *testing.T) {
	deps := newTestDeps(t)
	svc := newTestFormService(deps)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.Equal(t, 404, apperrors.HTTPStatusCode(err))

	driver, err := svc.Open(ctx, RoleDriver)
	require.NoError(t, err)

	_, err = svc.Edit(ctx, driver.ID, map[string]string{"phone": "555-0100"})
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = svc.SetPSUStudent(ctx, driver.ID, true)
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))

	_, err = svc.Open(ctx, Role("admin"))
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
}

func TestFormService_EditRejectsWholeBatchOnUnknownField(t *testing.T) {
	deps := newTestDeps(t)
	svc := newTestFormService(deps)
	ctx := context.Background()

	form, err := svc.Open(ctx, RoleDriver)
	require.NoError(t, err)

	_, err = svc.Edit(ctx, form.ID, map[string]string{FieldName: "Dana", "zzz": "x"})
	require.Error(t, err)

	stored, err := svc.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Value(FieldName))
}

func TestFormService_Resume(t *testing.T) {
	deps := newTestDeps(t)
	svc := newTestFormService(deps)
	ctx := context.Background()

	ids := []string{"id-1", "id-2"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first, err := svc.Resume(ctx, "", RoleRider)
	require.NoError(t, err)
	assert.Equal(t, "id-1", first.ID)

	same, err := svc.Resume(ctx, "id-1", RoleRider)
	require.NoError(t, err)
	assert.Equal(t, "id-1", same.ID)

	other, err := svc.Resume(ctx, "id-1", RoleDriver)
	require.NoError(t, err)
	assert.Equal(t, "id-2", other.ID)
	assert.Equal(t, RoleDriver, other.Role)
}

func TestRecorder_NilRegistererGetsPrivateRegistry(t *testing.T) {
	first := newSubmissionMetrics(nil)
	second := newSubmissionMetrics(nil)

	first.observe(RoleRider, outcomeAccepted)

	assert.Equal(t, float64(1), testutil.ToFloat64(first.submissions.WithLabelValues("rider", outcomeAccepted)))
	assert.Equal(t, float64(0), testutil.ToFloat64(second.submissions.WithLabelValues("rider", outcomeAccepted)))
}

func TestRecorder_SharedRegistryReusesCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := newSubmissionMetrics(reg)
	second := newSubmissionMetrics(reg)

	second.observe(RoleDriver, outcomeAccepted)

	assert.Equal(t, float64(1), testutil.ToFloat64(first.submissions.WithLabelValues("driver", outcomeAccepted)))
}

// outcomeLossStore fails every Update once lost is set, as when the session expires mid-insert.
type outcomeLossStore struct {
	*MemorySessionStore
	lost bool
}

func (s *outcomeLossStore) Update(ctx context.Context, id string, fn func(*Form) error) (*Form, error) {
	if s.lost {
		return nil, ErrFormNotFound
	}
	return s.MemorySessionStore.Update(ctx, id, fn)
}

func TestFormService_StoredSubmissionSurvivesLostSession(t *testing.T) {
	deps := newTestDeps(t)
	sessions := &outcomeLossStore{MemorySessionStore: NewMemorySessionStore(time.Hour)}
	svc := NewFormService(log.NewLoggerWithJSONOutput(), sessions, deps.recorder)
	ctx := context.Background()

	form := openFilledDriverForm(t, svc)

	deps.inserter.EXPECT().Insert(gomock.Any(), DefaultTable, gomock.Any()).
		DoAndReturn(func(context.Context, string, any) error {
			sessions.lost = true
			return nil
		})
	deps.receipts.EXPECT().CreateReceipt(gomock.Any(), gomock.Any()).Return(nil)

	result, err := svc.Submit(ctx, form.ID)

	require.NoError(t, err)
	assert.True(t, result.Submitted())
	assert.Empty(t, result.SubmitError)
	assert.Equal(t, "Dana", result.Value(FieldName))
	assert.Equal(t, float64(1), deps.count(RoleDriver, outcomeAccepted))
}
