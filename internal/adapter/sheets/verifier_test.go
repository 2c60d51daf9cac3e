package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type fakeSpreadsheetMeta struct {
	title string
	err   error
}

func (f *fakeSpreadsheetMeta) Title(context.Context, string) (string, error) {
	return f.title, f.err
}

type fakeFileMeta struct {
	name     string
	mimeType string
	err      error
}

func (f *fakeFileMeta) File(context.Context, string) (string, string, error) {
	return f.name, f.mimeType, f.err
}

func TestSheetVerifier_OK(t *testing.T) {
	v := NewSheetVerifier(&fakeSpreadsheetMeta{title: "Household Receipts"})
	res := v.Verify(context.Background(), "sheet-1")
	require.True(t, res.OK)
	require.Equal(t, "Household Receipts", res.Label)
	require.Empty(t, res.Reason)
}

func TestSheetVerifier_AccessDenied(t *testing.T) {
	apiErr := &googleapi.Error{Code: 403, Message: "The caller does not have permission"}
	v := NewSheetVerifier(&fakeSpreadsheetMeta{err: apiErr})
	res := v.Verify(context.Background(), "sheet-1")
	require.False(t, res.OK)
	require.Contains(t, res.Reason, "does not have permission")
	require.Contains(t, res.Reason, "403")
}

func TestSheetVerifier_TransportError(t *testing.T) {
	v := NewSheetVerifier(&fakeSpreadsheetMeta{err: errors.New("dial tcp: connection refused")})
	res := v.Verify(context.Background(), "sheet-1")
	require.False(t, res.OK)
	require.Contains(t, res.Reason, "connection refused")
}

func TestFolderVerifier_OK(t *testing.T) {
	v := NewFolderVerifier(&fakeFileMeta{name: "Receipts", mimeType: folderMIMEType})
	res := v.Verify(context.Background(), "folder-1")
	require.True(t, res.OK)
	require.Equal(t, "Receipts", res.Label)
}

func TestFolderVerifier_NotAFolder(t *testing.T) {
	// Accessible, existing file of the wrong type still fails, with a
	// reason distinct from an access failure.
	v := NewFolderVerifier(&fakeFileMeta{name: "budget.xlsx", mimeType: "application/vnd.google-apps.spreadsheet"})
	res := v.Verify(context.Background(), "file-1")
	require.False(t, res.OK)
	require.Equal(t, ReasonNotAFolder, res.Reason)
}

func TestFolderVerifier_AccessDenied(t *testing.T) {
	apiErr := &googleapi.Error{Code: 404, Message: "File not found"}
	v := NewFolderVerifier(&fakeFileMeta{err: apiErr})
	res := v.Verify(context.Background(), "folder-1")
	require.False(t, res.OK)
	require.NotEqual(t, ReasonNotAFolder, res.Reason)
	require.Contains(t, res.Reason, "File not found")
}
