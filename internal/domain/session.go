package domain

// SessionPayload is the identity carried by the session cookie. It is
// minted once at OAuth completion and never mutated afterwards.
type SessionPayload struct {
	LineUserID  string `json:"line_user_id"`
	DisplayName string `json:"display_name"`
	PictureURL  string `json:"picture_url,omitempty"`
}
