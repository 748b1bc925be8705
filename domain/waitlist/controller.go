package waitlist

import (
	"github.com/campuscabs/waitlist/config/router"
	apperrors "github.com/campuscabs/waitlist/pkg/errors"
	"github.com/campuscabs/waitlist/pkg/ratelimit"
)

func NewWaitlistController(service WaitlistService, submitLimiter ratelimit.RateLimiter) *router.RESTController {
	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddPostHandler(c, submitLimiter, "", submitWaitlistHandler(service))
			rs.AddPostHandler(c, nil, "validate", validateWaitlistHandler(service))
			rs.AddGetHandler(c, nil, "stats", waitlistStatsHandler(service))
		},
	)
}

func NewFormController(service FormService, submitLimiter ratelimit.RateLimiter) *router.RESTController {
	return router.NewVersionedRESTController(
		"FormController",
		"v1",
		"/forms",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddPostHandler(c, nil, "", openFormHandler(service))
			rs.AddGetHandler(c, nil, "/:id", getFormHandler(service))
			rs.AddPatchHandler(c, nil, "/:id/fields", editFormHandler(service))
			rs.AddPutHandler(c, nil, "/:id/student", setPSUStudentHandler(service))
			rs.AddPostHandler(c, submitLimiter, "/:id/submit", submitFormHandler(service))
		},
	)
}

func bindFailure(ctx *router.RequestContext, err error, req any) *router.ServiceResult {
	router.GetLogger(ctx).Error("Failed to bind request", "error", err)

	validationErrors := apperrors.FormatValidationErrors(err, req)
	if len(validationErrors) > 0 {
		return router.BadRequestResult("Invalid request payload", validationErrors)
	}

	return router.BadRequestResult("Invalid request body", nil)
}

func failureResult(err error) *router.ServiceResult {
	if ve, ok := AsValidationError(err); ok {
		return router.BadRequestResult("Invalid waitlist submission", ToValidationErrorResponses(ve))
	}

	return router.ErrorResult(
		apperrors.HTTPStatusCode(err),
		apperrors.GetHumanReadableMessage(err),
		nil,
	)
}

// formFailureResult keeps the current form in the payload so clients can re-render it.
func formFailureResult(form *Form, err error) *router.ServiceResult {
	if form == nil {
		return failureResult(err)
	}

	if _, ok := AsValidationError(err); ok {
		return router.BadRequestResult("Invalid waitlist submission", ToFormResponse(form))
	}

	return router.ErrorResult(
		apperrors.HTTPStatusCode(err),
		apperrors.GetHumanReadableMessage(err),
		ToFormResponse(form),
	)
}

func submitWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req SubmitWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			return bindFailure(ctx, err, &req)
		}

		submission, err := service.Submit(ctx.Request.Context(), &req)
		if err != nil {
			return failureResult(err)
		}

		return router.CreatedResult(submission, "Waitlist submission")
	}
}

func validateWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req SubmitWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			return bindFailure(ctx, err, &req)
		}

		submission, err := service.Validate(ctx.Request.Context(), &req)
		if err != nil {
			return failureResult(err)
		}

		return router.OKResult(submission, "Waitlist submission is valid")
	}
}

func waitlistStatsHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		stats, err := service.Stats(ctx.Request.Context())
		if err != nil {
			return failureResult(err)
		}

		return router.OKResult(stats, "Waitlist statistics retrieved successfully")
	}
}

func openFormHandler(service FormService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req OpenFormRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			return bindFailure(ctx, err, &req)
		}

		role, err := ParseRole(req.Role)
		if err != nil {
			return router.BadRequestResult("role must be rider or driver", nil)
		}

		form, err := service.Open(ctx.Request.Context(), role)
		if err != nil {
			return failureResult(err)
		}

		return router.CreatedResult(ToFormResponse(form), "Form")
	}
}

func getFormHandler(service FormService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		form, err := service.Get(ctx.Request.Context(), ctx.Param("id"))
		if err != nil {
			return failureResult(err)
		}

		return router.OKResult(ToFormResponse(form), "Form retrieved successfully")
	}
}

func editFormHandler(service FormService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req EditFormRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			return bindFailure(ctx, err, &req)
		}
		if len(req) == 0 {
			return router.BadRequestResult("at least one field must be provided", nil)
		}

		form, err := service.Edit(ctx.Request.Context(), ctx.Param("id"), req)
		if err != nil {
			return formFailureResult(form, err)
		}

		return router.OKResult(ToFormResponse(form), "Form updated successfully")
	}
}

func setPSUStudentHandler(service FormService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req SetPSUStudentRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			return bindFailure(ctx, err, &req)
		}

		form, err := service.SetPSUStudent(ctx.Request.Context(), ctx.Param("id"), *req.IsPSUStudent)
		if err != nil {
			return formFailureResult(form, err)
		}

		return router.OKResult(ToFormResponse(form), "Form updated successfully")
	}
}

func submitFormHandler(service FormService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		form, err := service.Submit(ctx.Request.Context(), ctx.Param("id"))
		if err != nil {
			return formFailureResult(form, err)
		}

		return router.OKResult(ToFormResponse(form), MessageSubmitted)
	}
}
