package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// ParseOrigins splits a comma-separated ALLOWED_ORIGINS value. Blank entries
// are dropped; an empty result falls back to DefaultAllowedOrigins.
func ParseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return DefaultAllowedOrigins
	}
	return origins
}

func newCORSMiddleware(origins []string) fiber.Handler {
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}

	// fiber refuses credentials together with a wildcard origin
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowCredentials: !wildcard,
		ExposeHeaders:    RequestIDKey,
	})
}
