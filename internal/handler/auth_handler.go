package handler

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/SiteNotice/SiteNotice/internal/repository"
	"github.com/SiteNotice/SiteNotice/internal/service"
	"github.com/SiteNotice/SiteNotice/pkg/logger"
	"github.com/SiteNotice/SiteNotice/pkg/response"
	"github.com/gofiber/fiber/v2"
)

// emailRegex provides additional validation beyond net/mail
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return false
	}
	return emailRegex.MatchString(email)
}

func isValidPasswordLength(password string) bool {
	n := len(password)
	return n >= 8 && n <= 128
}

type AuthHandler struct {
	authSvc      *service.AuthService
	settingsRepo *repository.SettingsRepository
}

func NewAuthHandler(authSvc *service.AuthService, settingsRepo *repository.SettingsRepository) *AuthHandler {
	return &AuthHandler{
		authSvc:      authSvc,
		settingsRepo: settingsRepo,
	}
}

type AuthResponse struct {
	Token     string      `json:"token"`
	CSRFToken string      `json:"csrf_token,omitempty"`
	User      interface{} `json:"user,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// setCSRFCookie generates and sets a CSRF token cookie on the response.
func setCSRFCookie(c *fiber.Ctx) string {
	token := GenerateCSRFToken()
	c.Cookie(&fiber.Cookie{
		Name:     "csrf_token",
		Value:    token,
		HTTPOnly: false, // Must be readable by JS
		Secure:   true,
		SameSite: "Strict",
		Path:     "/",
		MaxAge:   86400, // 24 hours
	})
	return token
}

func setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     authTokenCookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
		Path:     "/",
		MaxAge:   86400, // 24 hours
	})
}

func clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authTokenCookieName,
		Value:    "",
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
		Path:     "/",
		MaxAge:   -1,
	})
}

func (h *AuthHandler) isSetupCompleted() bool {
	return h.settingsRepo.GetOrDefault("setup_completed", "false") == "true"
}

// CheckSetupStatus returns whether the first admin has been created.
func (h *AuthHandler) CheckSetupStatus(c *fiber.Ctx) error {
	return response.Success(c, map[string]bool{
		"setup_completed": h.isSetupCompleted(),
	})
}

// CompleteSetup creates the first admin account. Self-disabling after first use.
func (h *AuthHandler) CompleteSetup(c *fiber.Ctx) error {
	if h.isSetupCompleted() {
		return response.Forbidden(c, "setup already completed")
	}

	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	req.Email = normalizeEmail(req.Email)

	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "email and password are required")
	}
	if !isValidEmail(req.Email) {
		return response.BadRequest(c, "invalid email format")
	}
	if !isValidPasswordLength(req.Password) {
		return response.BadRequest(c, "password must be between 8 and 128 characters")
	}

	user, token, err := h.authSvc.Register(req.Email, req.Password, true)
	if err != nil {
		logger.Error().Err(err).Str("email", req.Email).Msg("Setup registration failed")
		return response.InternalError(c, "failed to create admin account")
	}

	if err := h.settingsRepo.Set("setup_completed", "true"); err != nil {
		logger.Error().Err(err).Msg("Failed to mark setup as completed")
		return response.InternalError(c, "failed to complete setup")
	}

	csrfToken := setCSRFCookie(c)
	setAuthCookie(c, token)

	logger.Audit("setup_completed", user.ID, map[string]string{
		"email": req.Email,
	})

	return response.Success(c, AuthResponse{
		Token:     token,
		CSRFToken: csrfToken,
		User:      user,
	})
}

// Login authenticates an existing user and issues a session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "email and password are required")
	}

	user, token, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		RecordAuthFailure("bad_credentials")
		return response.Unauthorized(c, "invalid email or password")
	}

	csrfToken := setCSRFCookie(c)
	setAuthCookie(c, token)

	logger.Audit("login", user.ID, nil)

	return response.Success(c, AuthResponse{
		Token:     token,
		CSRFToken: csrfToken,
		User:      user,
	})
}

// Logout clears the session cookie. Tokens are stateless so the server keeps
// no session record to invalidate.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	clearAuthCookie(c)
	return response.Success(c, map[string]string{"message": "logged out"})
}

// GetMe returns the authenticated user.
func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	userID := localUserID(c)
	user, err := h.authSvc.GetUserByID(userID)
	if err != nil {
		return response.Unauthorized(c, "user not found")
	}
	return response.Success(c, user)
}
