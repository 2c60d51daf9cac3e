package line

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthorizeURL(t *testing.T) {
	client := NewHTTPProviderClient(Config{
		ChannelID:   "1234567890",
		CallbackURL: "https://setup.example.com/auth/line/callback",
	}, nil)

	raw := client.AuthorizeURL("state-abc")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "access.line.me", parsed.Host)

	q := parsed.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "1234567890", q.Get("client_id"))
	require.Equal(t, "https://setup.example.com/auth/line/callback", q.Get("redirect_uri"))
	require.Equal(t, "state-abc", q.Get("state"))
	require.Equal(t, "profile openid", q.Get("scope"))
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "the-code", r.PostForm.Get("code"))
		require.Equal(t, "1234567890", r.PostForm.Get("client_id"))
		require.Equal(t, "hush", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-xyz","token_type":"Bearer","expires_in":2592000,"id_token":"idt"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(Config{
		ChannelID:     "1234567890",
		ChannelSecret: "hush",
		CallbackURL:   "https://setup.example.com/cb",
		TokenURL:      srv.URL,
	}, nil)

	token, err := client.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	require.Equal(t, "at-xyz", token.AccessToken)
	require.Equal(t, int64(2592000), token.ExpiresIn)
}

func TestExchangeCode_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(Config{TokenURL: srv.URL}, nil)
	_, err := client.ExchangeCode(context.Background(), "expired-code")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=400")
}

func TestExchangeCode_MissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(Config{TokenURL: srv.URL}, nil)
	_, err := client.ExchangeCode(context.Background(), "code")
	require.Error(t, err)
}

func TestFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer at-xyz", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"userId":"U4af49806","displayName":"Brown","pictureUrl":"https://profile.line-scdn.net/x"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(Config{ProfileURL: srv.URL}, nil)
	profile, err := client.FetchProfile(context.Background(), "at-xyz")
	require.NoError(t, err)
	require.Equal(t, "U4af49806", profile.UserID)
	require.Equal(t, "Brown", profile.DisplayName)
	require.Equal(t, "https://profile.line-scdn.net/x", profile.PictureURL)
}

func TestFetchProfile_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(Config{ProfileURL: srv.URL}, nil)
	_, err := client.FetchProfile(context.Background(), "stale")
	require.Error(t, err)
}
