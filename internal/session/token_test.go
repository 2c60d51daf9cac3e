package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
)

var testSecret = []byte("unit-test-secret-unit-test-secret")

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	payload := domain.SessionPayload{
		LineUserID:  "U4af4980629",
		DisplayName: "Brown",
		PictureURL:  "https://profile.line-scdn.net/abc",
	}

	token, err := codec.Issue(payload)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, ok := codec.Verify(token)
	require.True(t, ok)
	require.Equal(t, payload, *got)
}

func TestCodec_RoundTripWithoutPicture(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	payload := domain.SessionPayload{LineUserID: "U123", DisplayName: "Sally"}

	token, err := codec.Issue(payload)
	require.NoError(t, err)

	got, ok := codec.Verify(token)
	require.True(t, ok)
	require.Equal(t, payload, *got)
}

func TestCodec_Expiry(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	issuedAt := time.Now()
	codec.now = func() time.Time { return issuedAt }

	token, err := codec.Issue(domain.SessionPayload{LineUserID: "U123", DisplayName: "Brown"})
	require.NoError(t, err)

	// Still valid just inside the window.
	codec.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	_, ok := codec.Verify(token)
	require.True(t, ok)

	// Rejected once the window has elapsed.
	codec.now = func() time.Time { return issuedAt.Add(time.Hour + time.Second) }
	payload, ok := codec.Verify(token)
	require.False(t, ok)
	require.Nil(t, payload)
}

func TestCodec_TamperDetection(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	token, err := codec.Issue(domain.SessionPayload{LineUserID: "U123", DisplayName: "Brown"})
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		// 'A' and 'Q' differ in a bit that base64 keeps even for a
		// segment-final character, so the decoded bytes always change.
		flipped := byte('Q')
		if token[i] == 'Q' {
			flipped = 'A'
		}
		tampered := token[:i] + string(flipped) + token[i+1:]
		payload, ok := codec.Verify(tampered)
		require.False(t, ok, "tampered byte %d accepted", i)
		require.Nil(t, payload)
	}
}

func TestCodec_WrongSecret(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	token, err := codec.Issue(domain.SessionPayload{LineUserID: "U123", DisplayName: "Brown"})
	require.NoError(t, err)

	other := NewCodec([]byte("a-completely-different-secret!!!"), time.Hour)
	_, ok := other.Verify(token)
	require.False(t, ok)
}

func TestCodec_Garbage(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	for _, raw := range []string{"", "not-a-jwt", "a.b", strings.Repeat(".", 5)} {
		payload, ok := codec.Verify(raw)
		require.False(t, ok)
		require.Nil(t, payload)
	}
}
