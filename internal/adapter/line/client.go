package line

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthURL    = "https://access.line.me/oauth2/v2.1/authorize"
	defaultTokenURL   = "https://api.line.me/oauth2/v2.1/token"
	defaultProfileURL = "https://api.line.me/v2/profile"
)

// Config holds the LINE Login channel credentials. The endpoint URLs can be
// overridden in tests.
type Config struct {
	ChannelID     string
	ChannelSecret string
	CallbackURL   string

	AuthURL    string
	TokenURL   string
	ProfileURL string
}

// TokenResponse models the LINE token endpoint response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	Scope        string `json:"scope"`
}

// Profile is the LINE profile API response.
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
}

// ProviderClient encapsulates outbound HTTP calls to LINE Login.
type ProviderClient interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*TokenResponse, error)
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// HTTPProviderClient is the default HTTP implementation.
type HTTPProviderClient struct {
	cfg        Config
	httpClient *http.Client
}

var _ ProviderClient = (*HTTPProviderClient)(nil)

// NewHTTPProviderClient constructs the default ProviderClient.
func NewHTTPProviderClient(cfg Config, client *http.Client) *HTTPProviderClient {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = defaultProfileURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPProviderClient{cfg: cfg, httpClient: client}
}

// AuthorizeURL builds the LINE Login authorization URL bound to the given
// anti-forgery state.
func (c *HTTPProviderClient) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.cfg.ChannelID)
	params.Set("redirect_uri", c.cfg.CallbackURL)
	params.Set("state", state)
	params.Set("scope", "profile openid")
	return c.cfg.AuthURL + "?" + params.Encode()
}

// ExchangeCode swaps the authorization code for an access token.
func (c *HTTPProviderClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.cfg.CallbackURL)
	data.Set("client_id", c.cfg.ChannelID)
	data.Set("client_secret", c.cfg.ChannelSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token exchange failed: status=%d body=%s", resp.StatusCode, truncate(body, 256))
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &token, nil
}

// FetchProfile loads the user's LINE profile with a bearer token.
func (c *HTTPProviderClient) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("profile fetch failed: status=%d", resp.StatusCode)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if strings.TrimSpace(profile.UserID) == "" {
		return nil, fmt.Errorf("profile response missing userId")
	}
	return &profile, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
