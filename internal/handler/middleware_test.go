package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestBearerTokenMiddleware_AllowsValidToken(t *testing.T) {
	app := fiber.New()
	app.Get("/metrics", BearerTokenMiddleware("secret-token"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret-token")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestBearerTokenMiddleware_RejectsMissingOrWrongToken(t *testing.T) {
	app := fiber.New()
	app.Get("/metrics", BearerTokenMiddleware("secret-token"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
}

func TestBearerTokenMiddleware_EmptyTokenDisablesEndpoint(t *testing.T) {
	app := fiber.New()
	app.Get("/metrics", BearerTokenMiddleware(""), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 when disabled, got %d", resp.StatusCode)
	}
}

func TestCSRFMiddleware_SkipsSafeMethods(t *testing.T) {
	app := fiber.New()
	app.Get("/read", CSRFMiddleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/read", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 for GET without CSRF token, got %d", resp.StatusCode)
	}
}

func TestCSRFMiddleware_RequiresMatchingToken(t *testing.T) {
	app := fiber.New()
	app.Put("/write", CSRFMiddleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Missing token entirely.
	resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/write", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", resp.StatusCode)
	}

	// Header present but cookie mismatched.
	req := httptest.NewRequest(http.MethodPut, "/write", nil)
	req.Header.Set("X-CSRF-Token", "header-token")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "cookie-token"})
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 on mismatch, got %d", resp.StatusCode)
	}

	// Matching header and cookie.
	req = httptest.NewRequest(http.MethodPut, "/write", nil)
	req.Header.Set("X-CSRF-Token", "match")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "match"})
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 on match, got %d", resp.StatusCode)
	}
}

func TestRequestIDMiddleware_GeneratesAndEchoes(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/id", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a generated request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "client-chosen-id")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "client-chosen-id" {
		t.Errorf("expected echoed request ID, got %q", got)
	}
}

func TestBodyLimitMiddleware(t *testing.T) {
	app := fiber.New()
	app.Post("/limited", BodyLimitMiddleware(8), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/limited", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 under the limit, got %d", resp.StatusCode)
	}
}
