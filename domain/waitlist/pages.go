package waitlist

import (
	"errors"
	"net/http"
	"time"

	"github.com/campuscabs/waitlist/config/router"
	"github.com/campuscabs/waitlist/internal/views"
	apperrors "github.com/campuscabs/waitlist/pkg/errors"
	"github.com/campuscabs/waitlist/pkg/ratelimit"
	"github.com/campuscabs/waitlist/pkg/validation"
	g "maragu.dev/gomponents"
)

const (
	RiderFormCookie  = "cc_rider_form"
	DriverFormCookie = "cc_driver_form"
)

const messagePageFailed = "Something went wrong loading the waitlist. Please refresh the page."

type PageConfig struct {
	CookieTTL     time.Duration
	SecureCookies bool
}

type pageHandlers struct {
	forms  FormService
	config PageConfig
}

// NewPageController serves the landing page and the plain HTML form posts behind it.
func NewPageController(forms FormService, postLimiter ratelimit.RateLimiter, config PageConfig) *router.RESTController {
	if config.CookieTTL <= 0 {
		config.CookieTTL = DefaultSessionTTL
	}

	h := &pageHandlers{forms: forms, config: config}

	return router.NewRESTController(
		"PageController",
		"/",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddPageHandler(c, nil, http.MethodGet, "", h.landing)
			rs.AddPageHandler(c, postLimiter, http.MethodPost, "waitlist/:role", h.post)
		},
	)
}

func cookieName(role Role) string {
	if role == RoleDriver {
		return DriverFormCookie
	}
	return RiderFormCookie
}

func otherRole(role Role) Role {
	if role == RoleDriver {
		return RoleRider
	}
	return RoleDriver
}

// resume loads the visitor's form for role and re-issues the cookie when a new form was opened.
func (h *pageHandlers) resume(c *router.RequestContext, role Role) (*Form, error) {
	id, _ := c.Cookie(cookieName(role))

	form, err := h.forms.Resume(c.Request.Context(), id, role)
	if err != nil {
		return nil, err
	}

	if form.ID != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName(role), form.ID, int(h.config.CookieTTL.Seconds()), "/", "", h.config.SecureCookies, true)
	}

	return form, nil
}

func (h *pageHandlers) landing(c *router.RequestContext) {
	rider, err := h.resume(c, RoleRider)
	if err != nil {
		h.fail(c, err)
		return
	}

	driver, err := h.resume(c, RoleDriver)
	if err != nil {
		h.fail(c, err)
		return
	}

	renderPage(c, http.StatusOK, views.LandingPage(views.PageData{
		Rider:  toFormView(rider),
		Driver: toFormView(driver),
	}))
}

func (h *pageHandlers) post(c *router.RequestContext) {
	role, err := ParseRole(c.Param("role"))
	if err != nil {
		renderPage(c, http.StatusNotFound, views.ErrorPage("That form does not exist."))
		return
	}

	form, err := h.resume(c, role)
	if err != nil {
		h.fail(c, err)
		return
	}

	other, err := h.resume(c, otherRole(role))
	if err != nil {
		h.fail(c, err)
		return
	}

	form, status := h.apply(c, form)

	data := views.PageData{}
	if role == RoleRider {
		data.Rider, data.Driver = toFormView(form), toFormView(other)
	} else {
		data.Rider, data.Driver = toFormView(other), toFormView(form)
	}

	renderPage(c, status, views.LandingPage(data))
}

// apply saves the posted values of the active variant, then runs the requested intent.
func (h *pageHandlers) apply(c *router.RequestContext, form *Form) (*Form, int) {
	ctx := c.Request.Context()
	logger := router.GetLogger(c)

	if form.State != StateEditing {
		return form, http.StatusOK
	}

	values := map[string]string{}
	for _, field := range form.Variant().FieldNames() {
		if value, ok := c.GetPostForm(field); ok {
			values[field] = value
		}
	}

	current := form
	var err error

	if len(values) > 0 {
		if current, err = h.forms.Edit(ctx, form.ID, values); err != nil {
			logger.Warn("Form edit failed", "form_id", form.ID, "error", err)
			return keep(current, form), pageStatus(err)
		}
	}

	switch c.PostForm("intent") {
	case views.IntentToggleStudent:
		current, err = h.forms.SetPSUStudent(ctx, form.ID, !current.IsPSUStudent)
	default:
		current, err = h.forms.Submit(ctx, form.ID)
	}

	if err != nil {
		return keep(current, form), pageStatus(err)
	}

	return current, http.StatusOK
}

func keep(latest, fallback *Form) *Form {
	if latest != nil {
		return latest
	}
	return fallback
}

func pageStatus(err error) int {
	if _, ok := AsValidationError(err); ok {
		return http.StatusUnprocessableEntity
	}

	// The visitor can only retry, so both store failures read as unavailable.
	if apperrors.IsType(err, apperrors.ErrorTypeBadGateway) || apperrors.IsType(err, apperrors.ErrorTypeUnavailable) {
		return http.StatusServiceUnavailable
	}

	return apperrors.HTTPStatusCode(err)
}

func (h *pageHandlers) fail(c *router.RequestContext, err error) {
	router.GetLogger(c).Error("Failed to load waitlist forms", "error", err)

	status := apperrors.HTTPStatusCode(err)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		status = http.StatusInternalServerError
	}

	renderPage(c, status, views.ErrorPage(messagePageFailed))
}

func renderPage(c *router.RequestContext, status int, page g.Node) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)

	if err := page.Render(c.Writer); err != nil {
		router.GetLogger(c).Error("Failed to render page", "error", err)
	}
}

var fieldInputs = map[string]struct {
	inputType    string
	placeholder  string
	autoComplete string
}{
	FieldName:      {inputType: "text", placeholder: "Your name", autoComplete: "name"},
	FieldEmail:     {inputType: "email", placeholder: "you@example.com", autoComplete: "email"},
	FieldPSUEmail:  {inputType: "email", placeholder: "abc1234@psu.edu", autoComplete: "email"},
	FieldInstagram: {inputType: "text", placeholder: "@yourhandle", autoComplete: "off"},
}

func toFormView(form *Form) views.FormView {
	heading := "Riders"
	if form.Role == RoleDriver {
		heading = "Drivers"
	}

	view := views.FormView{
		Role:              string(form.Role),
		Heading:           heading,
		Action:            "/waitlist/" + string(form.Role),
		ShowStudentToggle: form.Role == RoleRider,
		IsPSUStudent:      form.IsPSUStudent,
		SubmitError:       form.SubmitError,
		Submitted:         form.Submitted(),
		SubmittedMessage:  MessageSubmitted,
	}

	variant := form.Variant()
	for _, name := range variant.FieldNames() {
		rules, _ := variant.rulesFor(name)
		input := fieldInputs[name]

		label := validation.Default().Label(name)
		if len(rules) == 0 {
			label += " (optional)"
		}

		view.Fields = append(view.Fields, views.FieldView{
			Name:         name,
			Label:        label,
			Type:         input.inputType,
			Value:        form.Values[name],
			Error:        form.Errors[name],
			Placeholder:  input.placeholder,
			AutoComplete: input.autoComplete,
			Required:     len(rules) > 0,
		})
	}

	return view
}
