package sheets

import (
	"context"
	"fmt"

	gsheets "google.golang.org/api/sheets/v4"

	"github.com/thomkungss/expense-bot-setup/internal/repository"
)

// SheetRowStore implements repository.RowStore on top of the Sheets API,
// against one fixed spreadsheet.
type SheetRowStore struct {
	svc           *gsheets.Service
	spreadsheetID string
}

var _ repository.RowStore = (*SheetRowStore)(nil)

// NewSheetRowStore constructs the row store for the given spreadsheet.
func NewSheetRowStore(svc *gsheets.Service, spreadsheetID string) *SheetRowStore {
	return &SheetRowStore{svc: svc, spreadsheetID: spreadsheetID}
}

// TabExists reports whether a tab with the given title exists. This is the
// cheap existence check behind the idempotent bootstrap.
func (s *SheetRowStore) TabExists(ctx context.Context, title string) (bool, error) {
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// AddTab appends a new empty tab to the spreadsheet.
func (s *SheetRowStore) AddTab(ctx context.Context, title string) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	return nil
}

// ReadRows reads the range and renders every cell as a string.
func (s *SheetRowStore) ReadRows(ctx context.Context, readRange string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get values: %w", err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// UpdateRow overwrites exactly one row range. Values are written RAW so
// "true"/"false" stay literal strings instead of being coerced to sheet
// booleans, which would break the exact-match parse on read-back.
func (s *SheetRowStore) UpdateRow(ctx context.Context, writeRange string, row []string) error {
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, writeRange, valueRangeOf(row)).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update values: %w", err)
	}
	return nil
}

// AppendRow appends one row after the last row of the range.
func (s *SheetRowStore) AppendRow(ctx context.Context, appendRange string, row []string) error {
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, appendRange, valueRangeOf(row)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append values: %w", err)
	}
	return nil
}

func valueRangeOf(row []string) *gsheets.ValueRange {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return &gsheets.ValueRange{Values: [][]interface{}{cells}}
}
