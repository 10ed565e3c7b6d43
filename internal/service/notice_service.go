package service

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/SiteNotice/SiteNotice/internal/models"
	"github.com/SiteNotice/SiteNotice/internal/repository"
	"github.com/SiteNotice/SiteNotice/pkg/sanitize"
)

// Setting keys for the persisted notice record.
const (
	KeyNoticeText      = "notice_text"
	KeyNoticeType      = "notice_type"
	KeyNoticeScope     = "notice_scope"
	KeyNoticeExpiresAt = "notice_expires_at"
	KeyNoticeCSSClass  = "notice_css_class"
)

// Defaults for absent or unparseable stored values.
const (
	DefaultCSSClass = "default-notice"

	// MaxNoticeTextLength bounds the stored text so a runaway update cannot
	// grow the settings row without limit. Measured in runes after
	// sanitization.
	MaxNoticeTextLength = 500
)

var (
	// ErrUnauthorized is returned when the acting user lacks the admin
	// capability. The stored configuration is left untouched.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput is returned when a candidate field fails validation.
	// Rejected before any write; the stored configuration is left untouched.
	ErrInvalidInput = errors.New("invalid input")
)

// CapabilityChecker is the authorization collaborator consulted on every
// notice mutation.
type CapabilityChecker interface {
	HasAdminCapability(actorID string) bool
}

// NoticeService owns the notice configuration: reads, authorized updates,
// and the display predicate used by the render path.
type NoticeService struct {
	settingsRepo *repository.SettingsRepository
	authz        CapabilityChecker
	now          func() time.Time
}

func NewNoticeService(settingsRepo *repository.SettingsRepository, authz CapabilityChecker) *NoticeService {
	return &NoticeService{
		settingsRepo: settingsRepo,
		authz:        authz,
		now:          time.Now,
	}
}

// NoticeUpdate is a partial candidate configuration. Nil fields keep their
// current value. ExpiresAt is an RFC 3339 instant; the empty string clears
// the expiry (the notice never expires).
type NoticeUpdate struct {
	Text      *string             `json:"text"`
	Type      *models.NoticeType  `json:"type"`
	Scope     *models.NoticeScope `json:"scope"`
	ExpiresAt *string             `json:"expires_at"`
	CSSClass  *string             `json:"css_class"`
}

// Get returns the current notice configuration. Absent or unparseable stored
// values degrade to the documented defaults, so Get never fails.
func (s *NoticeService) Get() models.NoticeConfig {
	cfg := models.NoticeConfig{
		Text:     s.settingsRepo.GetOrDefault(KeyNoticeText, ""),
		Type:     models.NoticeTypeGeneral,
		Scope:    models.ScopeAllPages,
		CSSClass: s.settingsRepo.GetOrDefault(KeyNoticeCSSClass, DefaultCSSClass),
	}

	if t := models.NoticeType(s.settingsRepo.GetOrDefault(KeyNoticeType, "")); t.Valid() {
		cfg.Type = t
	}
	if sc := models.NoticeScope(s.settingsRepo.GetOrDefault(KeyNoticeScope, "")); sc.Valid() {
		cfg.Scope = sc
	}
	if raw := s.settingsRepo.GetOrDefault(KeyNoticeExpiresAt, ""); raw != "" {
		if expiresAt, err := time.Parse(time.RFC3339, raw); err == nil {
			expiresAt = expiresAt.UTC()
			cfg.ExpiresAt = &expiresAt
		}
	}

	return cfg
}

// Update validates and applies a partial candidate on behalf of the given
// actor and returns the new stored state. Re-applying the same candidate
// yields the same stored state.
func (s *NoticeService) Update(candidate NoticeUpdate, actorID string) (models.NoticeConfig, error) {
	if !s.authz.HasAdminCapability(actorID) {
		return models.NoticeConfig{}, ErrUnauthorized
	}

	merged := s.Get()

	if candidate.Text != nil {
		text := sanitize.NoticeText(*candidate.Text)
		if utf8.RuneCountInString(text) > MaxNoticeTextLength {
			return models.NoticeConfig{}, fmt.Errorf("%w: notice text exceeds %d characters", ErrInvalidInput, MaxNoticeTextLength)
		}
		merged.Text = text
	}

	if candidate.Type != nil {
		if !candidate.Type.Valid() {
			return models.NoticeConfig{}, fmt.Errorf("%w: unknown notice type %q", ErrInvalidInput, *candidate.Type)
		}
		merged.Type = *candidate.Type
	}

	if candidate.Scope != nil {
		if !candidate.Scope.Valid() {
			return models.NoticeConfig{}, fmt.Errorf("%w: unknown notice scope %q", ErrInvalidInput, *candidate.Scope)
		}
		merged.Scope = *candidate.Scope
	}

	if candidate.ExpiresAt != nil {
		if *candidate.ExpiresAt == "" {
			merged.ExpiresAt = nil
		} else {
			expiresAt, err := time.Parse(time.RFC3339, *candidate.ExpiresAt)
			if err != nil {
				return models.NoticeConfig{}, fmt.Errorf("%w: expires_at is not a valid RFC 3339 instant", ErrInvalidInput)
			}
			expiresAt = expiresAt.UTC()
			if !expiresAt.After(s.now()) {
				return models.NoticeConfig{}, fmt.Errorf("%w: expires_at must be in the future", ErrInvalidInput)
			}
			merged.ExpiresAt = &expiresAt
		}
	}

	if candidate.CSSClass != nil {
		cssClass := sanitize.NoticeText(*candidate.CSSClass)
		if cssClass == "" {
			cssClass = DefaultCSSClass
		}
		merged.CSSClass = cssClass
	}

	if err := s.settingsRepo.SetMany(encode(merged)); err != nil {
		return models.NoticeConfig{}, err
	}
	return merged, nil
}

// Reset restores the notice configuration to its defaults, the equivalent of
// removing the notice entirely.
func (s *NoticeService) Reset(actorID string) (models.NoticeConfig, error) {
	if !s.authz.HasAdminCapability(actorID) {
		return models.NoticeConfig{}, ErrUnauthorized
	}

	defaults := models.NoticeConfig{
		Type:     models.NoticeTypeGeneral,
		Scope:    models.ScopeAllPages,
		CSSClass: DefaultCSSClass,
	}
	if err := s.settingsRepo.SetMany(encode(defaults)); err != nil {
		return models.NoticeConfig{}, err
	}
	return defaults, nil
}

// ShouldDisplay reports whether the current notice should be rendered at the
// given instant on the given page. The decision is recomputed per request,
// never cached.
func (s *NoticeService) ShouldDisplay(now time.Time, pageCtx models.PageContext) bool {
	return s.Get().ShouldDisplay(now, pageCtx)
}

// Settings returns the raw key/value rows backing the configuration.
func (s *NoticeService) Settings() ([]*models.NoticeSetting, error) {
	return s.settingsRepo.GetAll()
}

func encode(cfg models.NoticeConfig) map[string]string {
	expiresAt := ""
	if cfg.ExpiresAt != nil {
		expiresAt = cfg.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return map[string]string{
		KeyNoticeText:      cfg.Text,
		KeyNoticeType:      string(cfg.Type),
		KeyNoticeScope:     string(cfg.Scope),
		KeyNoticeExpiresAt: expiresAt,
		KeyNoticeCSSClass:  cfg.CSSClass,
	}
}
