package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
	"github.com/thomkungss/expense-bot-setup/internal/http/middleware"
	"github.com/thomkungss/expense-bot-setup/internal/service/onboard"
	"github.com/thomkungss/expense-bot-setup/internal/session"
)

type fakeService struct {
	start       *onboard.LoginStart
	loginResult *onboard.LoginResult
	loginErr    error
	saveResult  *onboard.SaveResult
	saveErr     error
	sessionInfo *onboard.SessionInfo
	sessionErr  error

	gotCallback onboard.CallbackInput
	gotSave     onboard.SaveInput
}

func (f *fakeService) StartLogin() (*onboard.LoginStart, error) {
	return f.start, nil
}

func (f *fakeService) CompleteLogin(_ context.Context, in onboard.CallbackInput) (*onboard.LoginResult, error) {
	f.gotCallback = in
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

func (f *fakeService) SaveConfig(_ context.Context, _ domain.SessionPayload, in onboard.SaveInput) (*onboard.SaveResult, error) {
	f.gotSave = in
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return f.saveResult, nil
}

func (f *fakeService) Session(context.Context, domain.SessionPayload) (*onboard.SessionInfo, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.sessionInfo, nil
}

func newTestRouter(svc onboard.Service) (*gin.Engine, *session.CookieManager, *session.Codec) {
	gin.SetMode(gin.TestMode)
	codec := session.NewCodec([]byte("handler-test-secret-0123456789ab"), time.Hour)
	cookies := session.NewCookieManager(codec, time.Hour, 5*time.Minute, false)
	h := NewOnboardHandler(svc, cookies, zap.NewNop())

	r := gin.New()
	r.Use(middleware.Session(cookies))
	r.GET("/auth/line/login", h.Login)
	r.GET("/auth/line/callback", h.Callback)
	r.GET("/api/session", h.Session)
	r.POST("/api/config", h.SaveConfig)
	r.POST("/api/logout", h.Logout)
	return r, cookies, codec
}

func sessionCookieFor(t *testing.T, codec *session.Codec, payload domain.SessionPayload) *http.Cookie {
	t.Helper()
	token, err := codec.Issue(payload)
	require.NoError(t, err)
	return &http.Cookie{Name: session.SessionCookieName, Value: token}
}

func TestLogin_RedirectsWithStateCookie(t *testing.T) {
	svc := &fakeService{start: &onboard.LoginStart{
		AuthorizeURL: "https://access.line.me/oauth2/v2.1/authorize?state=s1",
		State:        "s1",
	}}
	r, _, _ := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/line/login", nil))

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, svc.start.AuthorizeURL, w.Header().Get("Location"))

	cookie := findCookie(w.Result().Cookies(), session.StateCookieName)
	require.NotNil(t, cookie)
	require.Equal(t, "s1", cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, 300, cookie.MaxAge)
}

func TestCallback_Success(t *testing.T) {
	svc := &fakeService{loginResult: &onboard.LoginResult{
		Token:   "signed-token",
		Payload: domain.SessionPayload{LineUserID: "U1", DisplayName: "Brown"},
	}}
	r, _, _ := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/line/callback?code=c1&state=s1", nil)
	req.AddCookie(&http.Cookie{Name: session.StateCookieName, Value: "s1"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/setup", w.Header().Get("Location"))
	require.Equal(t, "s1", svc.gotCallback.SavedState)

	cookies := w.Result().Cookies()
	sess := findCookie(cookies, session.SessionCookieName)
	require.NotNil(t, sess)
	require.Equal(t, "signed-token", sess.Value)

	// State cookie is discarded even on success.
	state := findCookie(cookies, session.StateCookieName)
	require.NotNil(t, state)
	require.Equal(t, -1, state.MaxAge)
}

func TestCallback_ErrorRedirects(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"denied", domain.ErrLoginDenied, "login_denied"},
		{"missing params", domain.ErrInvalidParams, "invalid_params"},
		{"state mismatch", domain.ErrStateMismatch, "invalid_state"},
		{"exchange failed", domain.ErrTokenExchange, "token_failed"},
		{"profile failed", domain.ErrProfileFetch, "profile_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{loginErr: tc.err}
			r, _, _ := newTestRouter(svc)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/line/callback?code=c&state=s", nil))

			require.Equal(t, http.StatusFound, w.Code)
			require.Equal(t, "/?error="+tc.code, w.Header().Get("Location"))
			require.Nil(t, findCookie(w.Result().Cookies(), session.SessionCookieName))
		})
	}
}

func TestSession_Unauthenticated(t *testing.T) {
	r, _, _ := newTestRouter(&fakeService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, false, body["authenticated"])
}

func TestSession_ExpiredTokenLooksUnauthenticated(t *testing.T) {
	r, _, _ := newTestRouter(&fakeService{})

	expired := session.NewCodec([]byte("handler-test-secret-0123456789ab"), -time.Minute)
	token, err := expired.Issue(domain.SessionPayload{LineUserID: "U1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: session.SessionCookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSession_Authenticated(t *testing.T) {
	payload := domain.SessionPayload{LineUserID: "U1", DisplayName: "Brown", PictureURL: "https://img/u1"}
	svc := &fakeService{sessionInfo: &onboard.SessionInfo{
		Payload: payload,
		Config: &domain.UserConfig{
			LineUserID:    "U1",
			SheetID:       "ABC123",
			SheetVerified: true,
		},
	}}
	r, _, codec := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(sessionCookieFor(t, codec, payload))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Authenticated bool `json:"authenticated"`
		User          struct {
			DisplayName string `json:"displayName"`
		} `json:"user"`
		Config *struct {
			SheetID       string `json:"sheetId"`
			SheetVerified bool   `json:"sheetVerified"`
		} `json:"config"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Authenticated)
	require.Equal(t, "Brown", body.User.DisplayName)
	require.NotNil(t, body.Config)
	require.Equal(t, "ABC123", body.Config.SheetID)
	require.True(t, body.Config.SheetVerified)
}

func TestSaveConfig_RequiresSession(t *testing.T) {
	r, _, _ := newTestRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{"sheetId":"ABC"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSaveConfig_Success(t *testing.T) {
	svc := &fakeService{saveResult: &onboard.SaveResult{
		Config: domain.UserConfig{
			LineUserID:    "U1",
			SheetID:       "ABC123",
			SheetVerified: true,
			UpdatedAt:     "2026-01-05T09:00:00Z",
		},
		SheetTitle: "Receipts 2026",
	}}
	r, _, codec := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/config",
		strings.NewReader(`{"sheetId":"https://docs.google.com/spreadsheets/d/ABC123/edit"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookieFor(t, codec, domain.SessionPayload{LineUserID: "U1", DisplayName: "Brown"}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "https://docs.google.com/spreadsheets/d/ABC123/edit", svc.gotSave.SheetRef)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "Receipts 2026", body["sheetTitle"])
}

func TestSaveConfig_VerificationFailure(t *testing.T) {
	svc := &fakeService{saveErr: &domain.VerificationError{Field: "sheetId", Reason: "The caller does not have permission (HTTP 403)"}}
	r, _, codec := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{"sheetId":"ABC"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookieFor(t, codec, domain.SessionPayload{LineUserID: "U1"}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "sheetId", body["field"])
	require.Contains(t, body["error"], "permission")
}

func TestSaveConfig_PersistenceFailure(t *testing.T) {
	svc := &fakeService{saveErr: domain.ErrSaveFailed}
	r, _, codec := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{"sheetId":"ABC"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookieFor(t, codec, domain.SessionPayload{LineUserID: "U1"}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogout_ClearsSession(t *testing.T) {
	r, _, codec := newTestRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(sessionCookieFor(t, codec, domain.SessionPayload{LineUserID: "U1"}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookie := findCookie(w.Result().Cookies(), session.SessionCookieName)
	require.NotNil(t, cookie)
	require.Equal(t, -1, cookie.MaxAge)
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
