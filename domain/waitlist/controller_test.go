package waitlist

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/campuscabs/waitlist/config/router"
	"github.com/campuscabs/waitlist/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInserter records inserts and fails with err when set.
type fakeInserter struct {
	mu      sync.Mutex
	err     error
	records []any
}

func (f *fakeInserter) Insert(_ context.Context, _ string, record any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeInserter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type apiResponse struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestRouter(t *testing.T, inserter *fakeInserter) *router.RouterService {
	t.Helper()

	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})

	factory := NewWaitlistServiceFactory(Dependencies{
		Logger:     logger,
		Store:      inserter,
		SessionTTL: time.Hour,
		Registerer: prometheus.NewRegistry(),
	})
	for _, controller := range factory.CreateControllers() {
		rs.MountController(controller)
	}

	return rs
}

func doJSON(t *testing.T, rs *router.RouterService, method, path string, body any) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestWaitlistController_Submit(t *testing.T) {
	inserter := &fakeInserter{}
	rs := newTestRouter(t, inserter)

	code, resp := doJSON(t, rs, http.MethodPost, "/v1/waitlist", map[string]any{
		"role":           "rider",
		"name":           "Alex",
		"psu_email":      "abc1234@psu.edu",
		"instagram":      "",
		"is_psu_student": true,
	})

	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Waitlist submission created successfully", resp.Message)

	var record map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &record))
	assert.Equal(t, "abc1234@psu.edu", record["psu_email"])
	assert.NotContains(t, record, "instagram")
	assert.Equal(t, 1, inserter.count())
}

func TestWaitlistController_SubmitValidationErrors(t *testing.T) {
	inserter := &fakeInserter{}
	rs := newTestRouter(t, inserter)

	code, resp := doJSON(t, rs, http.MethodPost, "/v1/waitlist", map[string]any{
		"role":  "rider",
		"email": "nope",
	})

	require.Equal(t, http.StatusBadRequest, code)

	var errs []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &errs))
	require.Len(t, errs, 2)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "Name is required.", errs[0].Message)
	assert.Equal(t, "email", errs[1].Field)
	assert.Equal(t, "Enter a valid email address.", errs[1].Message)
	assert.Zero(t, inserter.count())
}

func TestWaitlistController_SubmitBindingErrors(t *testing.T) {
	rs := newTestRouter(t, &fakeInserter{})

	code, resp := doJSON(t, rs, http.MethodPost, "/v1/waitlist", map[string]any{"role": "passenger", "name": "A"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request payload", resp.Message)
	assert.JSONEq(t, `[{"field":"role","message":"Role must be one of: rider, driver."}]`, string(resp.Data))

	code, resp = doJSON(t, rs, http.MethodPost, "/v1/waitlist", map[string]any{"role": "rider", "is_psu_student": "yes"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(resp.Data), `"field":"is_psu_student"`)
}

func TestWaitlistController_SubmitStoreFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"rejected", errStoreRejected, http.StatusBadGateway},
		{"unavailable", errStoreDown, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs := newTestRouter(t, &fakeInserter{err: tc.err})

			code, resp := doJSON(t, rs, http.MethodPost, "/v1/waitlist", map[string]any{
				"role": "driver", "name": "Dana", "email": "dana@example.com",
			})

			assert.Equal(t, tc.want, code)
			assert.Equal(t, MessageSubmitFailed, resp.Message)
		})
	}
}

func TestWaitlistController_ValidateDoesNotInsert(t *testing.T) {
	inserter := &fakeInserter{}
	rs := newTestRouter(t, inserter)

	code, resp := doJSON(t, rs, http.MethodPost, "/v1/waitlist/validate", map[string]any{
		"role": "driver", "name": "Dana", "email": "dana@example.com",
	})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Waitlist submission is valid", resp.Message)
	assert.Zero(t, inserter.count())
}

func TestWaitlistController_StatsWithoutDatabase(t *testing.T) {
	rs := newTestRouter(t, &fakeInserter{})

	code, _ := doJSON(t, rs, http.MethodGet, "/v1/waitlist/stats", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func decodeFormResponse(t *testing.T, resp apiResponse) FormResponse {
	t.Helper()

	var form FormResponse
	require.NoError(t, json.Unmarshal(resp.Data, &form))
	return form
}

func TestFormController_Lifecycle(t *testing.T) {
	inserter := &fakeInserter{}
	rs := newTestRouter(t, inserter)

	code, resp := doJSON(t, rs, http.MethodPost, "/v1/forms", map[string]string{"role": "rider"})
	require.Equal(t, http.StatusCreated, code)
	form := decodeFormResponse(t, resp)
	assert.Equal(t, VariantRiderGeneral, form.Variant)
	assert.Equal(t, []string{FieldName, FieldEmail}, form.Fields)
	require.NotNil(t, form.IsPSUStudent)
	assert.False(t, *form.IsPSUStudent)

	base := "/v1/forms/" + form.ID

	code, resp = doJSON(t, rs, http.MethodPatch, base+"/fields", map[string]string{FieldName: "Alex", FieldEmail: "alex@example.com"})
	require.Equal(t, http.StatusOK, code)

	code, resp = doJSON(t, rs, http.MethodPut, base+"/student", map[string]bool{"is_psu_student": true})
	require.Equal(t, http.StatusOK, code)
	form = decodeFormResponse(t, resp)
	assert.Equal(t, VariantRiderStudent, form.Variant)
	assert.Equal(t, "alex@example.com", form.Values[FieldEmail])

	code, resp = doJSON(t, rs, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusBadRequest, code)
	form = decodeFormResponse(t, resp)
	assert.Equal(t, "PSU email is required.", form.Errors[FieldPSUEmail])
	assert.Equal(t, StateEditing, form.State)
	assert.Zero(t, inserter.count())

	code, resp = doJSON(t, rs, http.MethodPatch, base+"/fields", map[string]string{FieldPSUEmail: "abc1234@psu.edu"})
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decodeFormResponse(t, resp).Errors)

	code, resp = doJSON(t, rs, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, MessageSubmitted, resp.Message)
	assert.Equal(t, StateSubmitted, decodeFormResponse(t, resp).State)
	assert.Equal(t, 1, inserter.count())

	code, _ = doJSON(t, rs, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = doJSON(t, rs, http.MethodPatch, base+"/fields", map[string]string{FieldName: "Other"})
	assert.Equal(t, http.StatusConflict, code)

	code, resp = doJSON(t, rs, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, MessageSubmitted, decodeFormResponse(t, resp).Message)
	assert.Equal(t, 1, inserter.count())
}

func TestFormController_Errors(t *testing.T) {
	rs := newTestRouter(t, &fakeInserter{})

	code, _ := doJSON(t, rs, http.MethodGet, "/v1/forms/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, rs, http.MethodPost, "/v1/forms", map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := doJSON(t, rs, http.MethodPost, "/v1/forms", map[string]string{"role": "driver"})
	require.Equal(t, http.StatusCreated, code)
	form := decodeFormResponse(t, resp)
	assert.Nil(t, form.IsPSUStudent)

	base := "/v1/forms/" + form.ID

	code, _ = doJSON(t, rs, http.MethodPatch, base+"/fields", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, rs, http.MethodPatch, base+"/fields", map[string]string{"phone": "555"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, rs, http.MethodPut, base+"/student", map[string]bool{"is_psu_student": true})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, rs, http.MethodPut, base+"/student", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFormController_StoreFailureKeepsForm(t *testing.T) {
	rs := newTestRouter(t, &fakeInserter{err: errStoreDown})

	_, resp := doJSON(t, rs, http.MethodPost, "/v1/forms", map[string]string{"role": "driver"})
	base := "/v1/forms/" + decodeFormResponse(t, resp).ID

	doJSON(t, rs, http.MethodPatch, base+"/fields", map[string]string{FieldName: "Dana", FieldEmail: "dana@example.com"})

	code, resp := doJSON(t, rs, http.MethodPost, base+"/submit", nil)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	form := decodeFormResponse(t, resp)
	assert.Equal(t, StateEditing, form.State)
	assert.Equal(t, MessageSubmitFailed, form.SubmitError)
	assert.Equal(t, "Dana", form.Values[FieldName])
}
