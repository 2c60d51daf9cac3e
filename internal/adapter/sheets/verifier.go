package sheets

import (
	"context"
	"errors"
	"fmt"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
)

const folderMIMEType = "application/vnd.google-apps.folder"

// ReasonNotAFolder distinguishes a reachable non-folder resource from an
// access failure.
const ReasonNotAFolder = "resource is not a folder; provide a Drive folder ID"

// SpreadsheetMeta fetches spreadsheet metadata by ID.
type SpreadsheetMeta interface {
	Title(ctx context.Context, spreadsheetID string) (string, error)
}

// FileMeta fetches Drive file metadata by ID.
type FileMeta interface {
	File(ctx context.Context, fileID string) (name, mimeType string, err error)
}

// SheetVerifier confirms the service principal can read a spreadsheet and
// returns its title. It never returns an error past its boundary.
type SheetVerifier struct {
	meta SpreadsheetMeta
}

// NewSheetVerifier constructs the spreadsheet verifier.
func NewSheetVerifier(meta SpreadsheetMeta) *SheetVerifier {
	return &SheetVerifier{meta: meta}
}

// Verify performs one read-only metadata fetch. No retries, no caching.
func (v *SheetVerifier) Verify(ctx context.Context, spreadsheetID string) domain.VerifyResult {
	title, err := v.meta.Title(ctx, spreadsheetID)
	if err != nil {
		return domain.Fail(reasonFromError(err))
	}
	return domain.Ok(title)
}

// FolderVerifier confirms the service principal can read a Drive file and
// that the file actually is a folder.
type FolderVerifier struct {
	meta FileMeta
}

// NewFolderVerifier constructs the folder verifier.
func NewFolderVerifier(meta FileMeta) *FolderVerifier {
	return &FolderVerifier{meta: meta}
}

// Verify fetches the file and applies the folder-type policy check on top
// of the access check.
func (v *FolderVerifier) Verify(ctx context.Context, folderID string) domain.VerifyResult {
	name, mimeType, err := v.meta.File(ctx, folderID)
	if err != nil {
		return domain.Fail(reasonFromError(err))
	}
	if mimeType != folderMIMEType {
		return domain.Fail(ReasonNotAFolder)
	}
	return domain.Ok(name)
}

// reasonFromError prefers the upstream API message over the raw transport
// error text.
func reasonFromError(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Sprintf("%s (HTTP %d)", apiErr.Message, apiErr.Code)
	}
	return err.Error()
}

type sheetsMeta struct {
	svc *gsheets.Service
}

// NewSheetsMeta wraps the Sheets client as a SpreadsheetMeta.
func NewSheetsMeta(svc *gsheets.Service) SpreadsheetMeta {
	return &sheetsMeta{svc: svc}
}

func (m *sheetsMeta) Title(ctx context.Context, spreadsheetID string) (string, error) {
	resp, err := m.svc.Spreadsheets.Get(spreadsheetID).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Properties == nil {
		return "", nil
	}
	return resp.Properties.Title, nil
}

type driveMeta struct {
	svc *gdrive.Service
}

// NewDriveMeta wraps the Drive client as a FileMeta.
func NewDriveMeta(svc *gdrive.Service) FileMeta {
	return &driveMeta{svc: svc}
}

func (m *driveMeta) File(ctx context.Context, fileID string) (string, string, error) {
	f, err := m.svc.Files.Get(fileID).Fields("id", "name", "mimeType").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", "", err
	}
	return f.Name, f.MimeType, nil
}
