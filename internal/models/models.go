package models

import "time"

// NoticeType determines the styling class applied when the notice is rendered.
type NoticeType string

const (
	NoticeTypeGeneral NoticeType = "general"
	NoticeTypeWarning NoticeType = "warning"
	NoticeTypeError   NoticeType = "error"
)

// Valid reports whether t is one of the known notice types.
func (t NoticeType) Valid() bool {
	switch t {
	case NoticeTypeGeneral, NoticeTypeWarning, NoticeTypeError:
		return true
	}
	return false
}

// NoticeScope determines which pages the notice appears on.
type NoticeScope string

const (
	ScopeAllPages NoticeScope = "all"
	ScopeHomeOnly NoticeScope = "home_only"
)

// Valid reports whether s is one of the known scopes.
func (s NoticeScope) Valid() bool {
	return s == ScopeAllPages || s == ScopeHomeOnly
}

// NoticeConfig is the current notice configuration. Text is stored as plain
// text (sanitized on write, HTML-escaped only at render time). An empty Text
// means no notice is configured.
type NoticeConfig struct {
	Text      string      `json:"text"`
	Type      NoticeType  `json:"type"`
	Scope     NoticeScope `json:"scope"`
	ExpiresAt *time.Time  `json:"expires_at"`
	CSSClass  string      `json:"css_class"`
}

// PageContext describes the page a render request is for.
type PageContext struct {
	IsHomePage bool `json:"is_home_page"`
}

// ShouldDisplay reports whether the notice should be rendered at the given
// instant on the given page. A notice with empty text is never displayed,
// an expired notice is never displayed (active iff now < ExpiresAt), and a
// home-only notice is displayed on the home page only.
func (c NoticeConfig) ShouldDisplay(now time.Time, ctx PageContext) bool {
	if c.Text == "" {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	if c.Scope == ScopeHomeOnly && !ctx.IsHomePage {
		return false
	}
	return true
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// NoticeSetting is a single key/value row from the settings table.
type NoticeSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
