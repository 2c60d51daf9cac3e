package sheets

import "strings"

// ExtractSpreadsheetID pulls the spreadsheet ID out of a full Google Sheets
// URL, or returns the input unchanged when it already looks like a bare ID.
func ExtractSpreadsheetID(input string) string {
	return extractAfter(input, "/spreadsheets/d/")
}

// ExtractFolderID pulls the folder ID out of a Drive folder URL, or returns
// the input unchanged when it already looks like a bare ID.
func ExtractFolderID(input string) string {
	return extractAfter(input, "/folders/")
}

func extractAfter(input, marker string) string {
	trimmed := strings.TrimSpace(input)
	idx := strings.Index(trimmed, marker)
	if idx < 0 {
		return trimmed
	}
	id := trimmed[idx+len(marker):]
	if cut := strings.IndexAny(id, "/?#"); cut >= 0 {
		id = id[:cut]
	}
	return id
}
