package router

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/campuscabs/waitlist/internal/log"
	apperrors "github.com/campuscabs/waitlist/pkg/errors"
	"github.com/campuscabs/waitlist/pkg/ratelimit"
	"github.com/campuscabs/waitlist/pkg/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultMaxBodyBytes = int64(1 << 20)
	defaultHSTSMaxAge   = int64(31536000)

	// The landing page inlines its stylesheet and posts forms back to itself.
	contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'; base-uri 'none'"

	corsAllowHeaders = "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-Correlation-ID, Authorization, accept, origin, Cache-Control, X-Requested-With"
	corsAllowMethods = "GET, POST, PUT, PATCH, OPTIONS"
)

// httpPolicy holds the env-driven request policies, read once when the router is built.
type httpPolicy struct {
	maxBodyBytes   int64
	allowedOrigins []string
	hsts           string
}

func loadHTTPPolicy() httpPolicy {
	policy := httpPolicy{
		maxBodyBytes:   defaultMaxBodyBytes,
		allowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGIN")),
	}

	if parsed, err := strconv.ParseInt(utils.GetEnvTrimmed("MAX_REQUEST_BODY_BYTES"), 10, 64); err == nil && parsed > 0 {
		policy.maxBodyBytes = parsed
	}

	if hstsEnabled() {
		policy.hsts = hstsValue()
	}

	return policy
}

// hstsEnabled defaults to on in production; HSTS_ENABLED overrides either way.
func hstsEnabled() bool {
	if enabled, err := strconv.ParseBool(utils.GetEnvTrimmed("HSTS_ENABLED")); err == nil {
		return enabled
	}

	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	return appEnv == "production" || appEnv == "prod"
}

func hstsValue() string {
	maxAge := defaultHSTSMaxAge
	if parsed, err := strconv.ParseInt(utils.GetEnvTrimmed("HSTS_MAX_AGE"), 10, 64); err == nil && parsed > 0 {
		maxAge = parsed
	}

	value := fmt.Sprintf("max-age=%d", maxAge)
	if include, err := strconv.ParseBool(utils.GetEnvTrimmed("HSTS_INCLUDE_SUBDOMAINS")); err != nil || include {
		value += "; includeSubDomains"
	}
	return value
}

func (p httpPolicy) originAllowed(origin string) bool {
	for _, allowed := range p.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func (routerService *RouterService) correlationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Correlation-ID")
		if id == "" {
			id = log.GenerateCorrelationID()
		}
		ctx := context.WithValue(c.Request.Context(), log.CorrelatedIDKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Correlation-ID", id)
		c.Next()
	}
}

func (routerService *RouterService) loggerInjectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlatedLogger := routerService.logger.WithCorrelationID(c.Request.Context())
		ctx := context.WithValue(c.Request.Context(), log.LoggerKeyForContext, correlatedLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		routerService.logger.WithCorrelationID(c.Request.Context()).Info("HTTP request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	policy := routerService.policy

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", contentSecurityPolicy)

		if policy.hsts != "" && isHTTPS(c) {
			h.Set("Strict-Transport-Security", policy.hsts)
		}
		c.Next()
	}
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	maxBytes := routerService.policy.maxBodyBytes

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResult(
				http.StatusRequestEntityTooLarge,
				"Request payload too large",
				nil,
			).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// corsMiddleware only adds CORS headers for allowed origins. Same-origin form posts from the landing page need none.
func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	policy := routerService.policy
	if len(policy.allowedOrigins) == 0 {
		routerService.logger.Info("CORS_ALLOWED_ORIGIN not set, cross-origin requests will not receive CORS headers")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !policy.originAllowed(origin) {
			if origin != "" {
				routerService.logger.Warn("CORS origin not allowed", "origin", origin)
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(apperrors.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	timeout := routerService.requestTimeout

	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		// Mid-flight enforcement is left to the server's read and write timeouts.
		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			routerService.logger.WithCorrelationID(c.Request.Context()).Warn("Request timeout detected")
			c.AbortWithStatusJSON(http.StatusRequestTimeout, ErrorResult(
				apperrors.StatusRequestTimeout,
				"Request timeout",
				nil,
			).ToJSON())
		}
	}
}

// limiterFor prefers a limiter registered with the handler over the global one.
func (routerService *RouterService) limiterFor(handlerKey string) ratelimit.RateLimiter {
	if limiter, ok := routerService.rateLimitOverrides[handlerKey]; ok {
		return limiter
	}
	return routerService.rateLimiter
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		handlerKey := routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)

		controller, found := routerService.handlerToControllerMap[handlerKey]
		if !found || controller == nil {
			// Unmapped routes are either unknown paths or handlers registered outside a controller.
			routerService.logger.Warn("No controller mapped for request", "method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusNotFound, NotFoundResult(fmt.Sprintf("There is no handler configured to handle any resource at the path %s", c.Request.URL.Path)).ToJSON())
			return
		}

		limiter := routerService.limiterFor(handlerKey)
		if limiter == nil {
			c.Next()
			return
		}

		limit, window := limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		limited, err := limiter.IsLimited("ratelimit:" + clientIP)
		if err != nil {
			// Fail open on limiter errors.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			retryAfter := strconv.Itoa(max(1, int(math.Ceil(window.Seconds()))))
			routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "route", c.FullPath())
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
				Limit:      limit,
				Window:     window.String(),
				RetryAfter: retryAfter,
			}).ToJSON())
			return
		}

		c.Next()
	}
}
