package session

import (
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
)

// Codec signs and verifies the session token. The secret is process-wide
// and injected once at construction.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec constructs a session token codec with the given signing secret
// and validity window.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl, now: time.Now}
}

type sessionClaims struct {
	LineUserID  string `json:"line_user_id"`
	DisplayName string `json:"display_name"`
	PictureURL  string `json:"picture_url,omitempty"`
}

// Issue produces a signed token embedding the payload, expiring one
// validity window after issuance.
func (c *Codec) Issue(payload domain.SessionPayload) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: c.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := c.now().UTC()
	std := gojwt.Claims{
		Subject:  payload.LineUserID,
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(c.ttl)),
	}
	custom := sessionClaims{
		LineUserID:  payload.LineUserID,
		DisplayName: payload.DisplayName,
		PictureURL:  payload.PictureURL,
	}

	token, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return token, nil
}

// Verify checks structure, signature, and expiry of a presented token.
// Every defect collapses to (nil, false); callers treat that as "no
// session exists".
func (c *Codec) Verify(raw string) (*domain.SessionPayload, bool) {
	if raw == "" {
		return nil, false
	}
	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return nil, false
	}

	var std gojwt.Claims
	var custom sessionClaims
	if err := parsed.Claims(c.secret, &std, &custom); err != nil {
		return nil, false
	}
	if err := std.ValidateWithLeeway(gojwt.Expected{Time: c.now()}, 0); err != nil {
		return nil, false
	}
	if custom.LineUserID == "" {
		return nil, false
	}

	return &domain.SessionPayload{
		LineUserID:  custom.LineUserID,
		DisplayName: custom.DisplayName,
		PictureURL:  custom.PictureURL,
	}, true
}
