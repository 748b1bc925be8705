package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/campuscabs/waitlist/pkg/ratelimit"
)

// normalizePath joins the controller mount point and a handler path into one clean absolute path.
func normalizePath(controller *RESTController, relativePath string) string {
	path := "/" + controller.mountPoint + "/" + relativePath
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func (routerService *RouterService) keyForPathAndMethod(path, method string) string {
	return method + "-" + path
}

// Two controllers claiming the same route is a wiring bug, so it panics at startup.
func (controller *RESTController) bindHandlerToController(routerService *RouterService, path, method string) {
	key := routerService.keyForPathAndMethod(path, method)
	if owner, taken := routerService.handlerToControllerMap[key]; taken {
		panic(fmt.Sprintf("%s %s is already handled by controller %q", method, path, owner.name))
	}

	routerService.handlerToControllerMap[key] = controller
}

func (routerService *RouterService) bindHandlerRateLimiter(path, method string, limiter ratelimit.RateLimiter) {
	if limiter == nil {
		return
	}

	key := routerService.keyForPathAndMethod(path, method)
	if _, taken := routerService.rateLimitOverrides[key]; taken {
		panic(fmt.Sprintf("%s %s already has a rate limiter", method, path))
	}

	routerService.rateLimitOverrides[key] = limiter
}

func createHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)

		if result == nil {
			GetLogger(c).Error("Handler returned no result", "route", c.FullPath())
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("A handler returned an undefined result. This typically indicates a bug in a handler's implementation.").ToJSON())
			return
		}

		if !result.IsSuccess() && result.StatusCode >= http.StatusInternalServerError {
			GetLogger(c).Warn("Handler failed", "route", c.FullPath(), "status", result.StatusCode, "message", result.Message)
		}

		c.JSON(result.StatusCode, result.ToJSON())
	}
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+mountPoint, "//", "/"),
		prepare:    prepare,
	}
}

// NewVersionedRESTController mounts under /<version>/<mountPoint>.
func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+version+"/"+mountPoint, "//", "/"),
		version:    version,
		prepare:    prepare,
	}
}

func (routerService *RouterService) addRoute(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	method string,
	path string,
	handlers []MiddlewareFunc,
) {
	controller.handlerCount++
	mountPoint := normalizePath(controller, path)
	controller.bindHandlerToController(routerService, mountPoint, method)
	routerService.bindHandlerRateLimiter(mountPoint, method, limiter)
	routerService.engine.Handle(method, mountPoint, handlers...)
	routerService.logger.Debug("Handler registered", "method", method, "path", mountPoint)
}

func (routerService *RouterService) AddPostHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addRoute(controller, limiter, http.MethodPost, path, append(middlewares, createHandler(handler)))
}

func (routerService *RouterService) AddGetHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addRoute(controller, limiter, http.MethodGet, path, append(middlewares, createHandler(handler)))
}

func (routerService *RouterService) AddPutHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addRoute(controller, limiter, http.MethodPut, path, append(middlewares, createHandler(handler)))
}

func (routerService *RouterService) AddPatchHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addRoute(controller, limiter, http.MethodPatch, path, append(middlewares, createHandler(handler)))
}

// AddPageHandler registers a handler that writes its own response, such as an HTML page.
// It shares controller binding and rate limiting with the JSON handlers.
func (routerService *RouterService) AddPageHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	method string,
	path string,
	handler MiddlewareFunc,
	middlewares ...MiddlewareFunc,
) {
	routerService.addRoute(controller, limiter, method, path, append(middlewares, handler))
}
