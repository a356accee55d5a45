package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewLoggingMiddleware(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	NewCORSMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

type middleware struct {
	rateLimitter        *rateLimiter
	loggingMiddleware   *loggingMiddleware
	requestIDMiddleware fiber.Handler
	corsMiddleware      fiber.Handler
	log                 *logrus.Logger
}

type Option func(*options)

type options struct {
	allowedOrigins []string
	rate           float64
	burst          int
}

// WithAllowedOrigins sets the CORS allow-list.
func WithAllowedOrigins(origins []string) Option {
	return func(o *options) {
		o.allowedOrigins = origins
	}
}

// WithRateLimit sets the per-IP request rate and burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.rate = perSecond
		o.burst = burst
	}
}

func New(logger *logrus.Logger, opts ...Option) Middleware {
	o := options{
		allowedOrigins: DefaultAllowedOrigins,
		rate:           50,
		burst:          100,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &middleware{
		rateLimitter:        newRateLimiter(o.rate, o.burst),
		loggingMiddleware:   newLoggingMiddleware(logger),
		requestIDMiddleware: NewRequestIDMiddleware(),
		corsMiddleware:      newCORSMiddleware(o.allowedOrigins),
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}

func (m *middleware) NewCORSMiddleware() fiber.Handler {
	return m.corsMiddleware
}
