package api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Context keys shared between middleware and handlers.
const (
	requestIDKey = "request_id"
	jobIDKey     = "job_id"
)

// RequestIDMiddleware tags each request with an ID, reusing X-Request-ID
// when the client sends one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// RequestLoggingMiddleware logs one line per request once the handler has
// finished. Scan routes add the job they created or read.
func RequestLoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		attrs := []slog.Attr{
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status_code", status),
			slog.Duration("latency", time.Since(start)),
		}
		if jobID := c.GetString(jobIDKey); jobID != "" {
			attrs = append(attrs, slog.String("job_id", jobID))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		logger.LogAttrs(c.Request.Context(), levelFor(status), "request completed", attrs...)
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// AuthMiddleware requires "Authorization: Bearer <key>" on every request.
// With an empty key every request is rejected.
func AuthMiddleware(expectedKey string, logger *slog.Logger) gin.HandlerFunc {
	expected := []byte(expectedKey)
	return func(c *gin.Context) {
		token, reason := bearerToken(c.GetHeader("Authorization"))
		switch {
		case reason != "":
		case len(expected) == 0:
			reason = "no api key configured"
		case subtle.ConstantTimeCompare([]byte(token), expected) != 1:
			reason = "invalid api key"
		}
		if reason != "" {
			logger.Warn("request rejected", "reason", reason, "client_ip", c.ClientIP(), "request_id", c.GetString(requestIDKey))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}

		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header, or returns
// why it could not.
func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "unsupported authorization scheme"
	}
	token = strings.TrimSpace(rest)
	if token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}

// RateLimitMiddleware counts requests per client IP in fixed Redis windows.
// A limit of zero or less disables it. Scans themselves are bounded by the
// worker pool, not by this limiter.
func RateLimitMiddleware(client *redis.Client, limit int64, window time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("bugscan:ratelimit:%s", c.ClientIP())

		var (
			hits *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			hits = pipe.Incr(ctx, key)
			ttl = pipe.PTTL(ctx, key)
			return nil
		})
		if err == nil && ttl.Val() < 0 {
			// First hit of a window: the counter has no expiry yet.
			err = client.PExpire(ctx, key, window).Err()
		}
		if err != nil {
			logger.Error("rate limiter unavailable", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(limit-hits.Val(), 0), 10))

		if hits.Val() > limit {
			retry := ttl.Val()
			if retry <= 0 {
				retry = window
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			logger.Warn("rate limit exceeded", "client_ip", c.ClientIP(), "count", hits.Val())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

// securityHeaders are set on every response. The CSP admits the swagger UI
// assets served from unpkg.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
	{"Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"},
}

// SecurityHeadersMiddleware adds securityHeaders to each response.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range securityHeaders {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}
