package session

import (
	"net/http"
	"time"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
)

const (
	// SessionCookieName carries the signed session token.
	SessionCookieName = "session"
	// StateCookieName carries the one-time anti-forgery nonce during the
	// OAuth redirect dance.
	StateCookieName = "line_oauth_state"
)

// CookieManager reads and writes the session and state cookies. It holds no
// logic of its own beyond delegating token verification to the codec.
type CookieManager struct {
	codec      *Codec
	sessionTTL time.Duration
	stateTTL   time.Duration
	secure     bool
}

// NewCookieManager constructs the cookie accessor.
func NewCookieManager(codec *Codec, sessionTTL, stateTTL time.Duration, secure bool) *CookieManager {
	return &CookieManager{codec: codec, sessionTTL: sessionTTL, stateTTL: stateTTL, secure: secure}
}

// Current returns the verified session payload from the request cookie, or
// (nil, false) when there is no usable session.
func (m *CookieManager) Current(r *http.Request) (*domain.SessionPayload, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, false
	}
	return m.codec.Verify(cookie.Value)
}

// SetSession installs the session token cookie.
func (m *CookieManager) SetSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession removes the session cookie.
func (m *CookieManager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetState installs the short-lived anti-forgery nonce cookie.
func (m *CookieManager) SetState(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(m.stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// State returns the stored nonce, if any.
func (m *CookieManager) State(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(StateCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// ClearState discards the nonce cookie; the nonce is single-use.
func (m *CookieManager) ClearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
