package domain

// UserConfig is one logical row in the shared config spreadsheet, keyed by
// LINE user ID. UpdatedAt holds the RFC3339 string stored in the last
// column verbatim.
type UserConfig struct {
	LineUserID    string `json:"line_user_id"`
	DisplayName   string `json:"display_name"`
	PictureURL    string `json:"picture_url,omitempty"`
	SheetID       string `json:"sheet_id"`
	DriveFolderID string `json:"drive_folder_id,omitempty"`
	SheetVerified bool   `json:"sheet_verified"`
	DriveVerified bool   `json:"drive_verified"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// VerifyResult is the outcome of a resource access check. Reason is only
// set when OK is false, Label only when OK is true.
type VerifyResult struct {
	OK     bool
	Label  string
	Reason string
}

// Ok builds a successful verification result.
func Ok(label string) VerifyResult {
	return VerifyResult{OK: true, Label: label}
}

// Fail builds a failed verification result.
func Fail(reason string) VerifyResult {
	return VerifyResult{Reason: reason}
}
