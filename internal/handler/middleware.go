package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/SiteNotice/SiteNotice/internal/service"
	"github.com/SiteNotice/SiteNotice/pkg/response"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const authTokenCookieName = "auth_token"

// SecurityHeadersMiddleware adds security-related headers to all responses
func SecurityHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Prevent MIME type sniffing
		c.Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		c.Set("X-Frame-Options", "DENY")

		// Control referrer information
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Content Security Policy - restrictive for API
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Prevent caching so a retired notice never lingers in a cache
		c.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		c.Set("Pragma", "no-cache")

		return c.Next()
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("X-Request-ID", requestID)
		c.Locals("request_id", requestID)

		return c.Next()
	}
}

// AuthMiddleware validates the session token from the Authorization header or
// the auth cookie and stores the actor identity in locals.
func AuthMiddleware(authSvc *service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return response.Unauthorized(c, "invalid authorization header format")
			}
			token = parts[1]
		} else {
			token = strings.TrimSpace(c.Cookies(authTokenCookieName))
			if token == "" {
				return response.Unauthorized(c, "missing authorization token")
			}
		}

		claims, err := authSvc.ValidateToken(token)
		if err != nil {
			RecordAuthFailure("invalid_token")
			return response.Unauthorized(c, "invalid or expired token")
		}

		c.Locals("user_id", claims.UserID)

		return c.Next()
	}
}

// AdminMiddleware checks that the authenticated user has admin privileges.
// The flag is read from the database rather than the token so a revoked
// admin loses access before the token expires. Must be chained after
// AuthMiddleware.
func AdminMiddleware(authSvc *service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(string)
		if !ok || userID == "" {
			return response.Unauthorized(c, "authentication required")
		}

		user, err := authSvc.GetUserByID(userID)
		if err != nil {
			return response.Unauthorized(c, "user not found")
		}

		if !user.IsAdmin {
			return response.Forbidden(c, "admin access required")
		}

		return c.Next()
	}
}

// CSRFMiddleware validates CSRF tokens for state-changing requests.
// The token is generated per-session and must be sent in the X-CSRF-Token header.
func CSRFMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := c.Method()
		if method == "GET" || method == "HEAD" || method == "OPTIONS" {
			return c.Next()
		}

		csrfToken := c.Get("X-CSRF-Token")
		if csrfToken == "" {
			return response.Forbidden(c, "missing CSRF token")
		}

		expectedToken := c.Cookies("csrf_token")
		if expectedToken == "" || csrfToken != expectedToken {
			return response.Forbidden(c, "invalid CSRF token")
		}

		return c.Next()
	}
}

// BodyLimitMiddleware enforces a per-route body size limit.
func BodyLimitMiddleware(maxBytes int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(c.Body()) > maxBytes {
			return response.Error(c, fiber.StatusRequestEntityTooLarge, "request body too large")
		}
		return c.Next()
	}
}

// BearerTokenMiddleware protects an endpoint with a static bearer token.
// An empty expected token disables the endpoint entirely.
func BearerTokenMiddleware(expectedToken string) fiber.Handler {
	expected := strings.TrimSpace(expectedToken)

	return func(c *fiber.Ctx) error {
		if expected == "" {
			return response.Forbidden(c, "endpoint is disabled")
		}

		authHeader := strings.TrimSpace(c.Get("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return response.Unauthorized(c, "missing or invalid authorization header")
		}

		provided := strings.TrimSpace(parts[1])
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return response.Unauthorized(c, "invalid authorization token")
		}

		return c.Next()
	}
}

// GenerateCSRFToken generates a new CSRF token.
func GenerateCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
