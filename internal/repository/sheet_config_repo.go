package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
)

// Fixed positional column layout of the config tab. Existing rows written
// by earlier deployments depend on this exact order.
var configHeaders = []string{
	"LINE User ID",
	"Display Name",
	"Picture URL",
	"Sheet ID",
	"Drive Folder ID",
	"Sheet Verified",
	"Drive Verified",
	"Updated At",
}

// SheetConfigRepo keeps one row per LINE user inside a single spreadsheet
// tab, looked up by linear scan over the first column.
type SheetConfigRepo struct {
	rows   RowStore
	tab    string
	logger *zap.Logger
	now    func() time.Time
}

var _ ConfigRepository = (*SheetConfigRepo)(nil)

// NewSheetConfigRepo constructs the sheet-backed config repository.
func NewSheetConfigRepo(rows RowStore, tab string, logger *zap.Logger) *SheetConfigRepo {
	if logger == nil {
		logger = zap.L()
	}
	return &SheetConfigRepo{rows: rows, tab: tab, logger: logger, now: time.Now}
}

// ensureTab creates the tab with its header row when missing. It runs on
// every call and must never recreate an existing tab.
func (r *SheetConfigRepo) ensureTab(ctx context.Context) error {
	exists, err := r.rows.TabExists(ctx, r.tab)
	if err != nil {
		return fmt.Errorf("check tab: %w", err)
	}
	if exists {
		return nil
	}
	if err := r.rows.AddTab(ctx, r.tab); err != nil {
		return fmt.Errorf("create tab: %w", err)
	}
	if err := r.rows.UpdateRow(ctx, fmt.Sprintf("'%s'!A1:H1", r.tab), configHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	r.logger.Info("created config tab", zap.String("tab", r.tab))
	return nil
}

// Get performs a full-range read and scans for the user's row.
func (r *SheetConfigRepo) Get(ctx context.Context, lineUserID string) (*domain.UserConfig, error) {
	if err := r.ensureTab(ctx); err != nil {
		return nil, err
	}
	rows, err := r.rows.ReadRows(ctx, r.dataRange())
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	for _, row := range rows {
		if col(row, 0) == lineUserID {
			cfg := decodeRow(row)
			return &cfg, nil
		}
	}
	return nil, nil
}

// Upsert overwrites the user's row in place when present, otherwise
// appends. The caller is expected to hold the per-user save lock.
func (r *SheetConfigRepo) Upsert(ctx context.Context, cfg domain.UserConfig) (*domain.UserConfig, error) {
	if err := r.ensureTab(ctx); err != nil {
		return nil, err
	}
	rows, err := r.rows.ReadRows(ctx, r.dataRange())
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	cfg.UpdatedAt = r.now().UTC().Format(time.RFC3339)
	row := encodeRow(cfg)

	rowIndex := -1
	for i, existing := range rows {
		if col(existing, 0) == cfg.LineUserID {
			rowIndex = i
			break
		}
	}

	if rowIndex >= 0 {
		// +2: one for the header row, one for 1-based sheet rows.
		sheetRow := rowIndex + 2
		writeRange := fmt.Sprintf("'%s'!A%d:H%d", r.tab, sheetRow, sheetRow)
		if err := r.rows.UpdateRow(ctx, writeRange, row); err != nil {
			return nil, fmt.Errorf("update row: %w", err)
		}
	} else {
		if err := r.rows.AppendRow(ctx, fmt.Sprintf("'%s'!A:H", r.tab), row); err != nil {
			return nil, fmt.Errorf("append row: %w", err)
		}
	}

	return &cfg, nil
}

func (r *SheetConfigRepo) dataRange() string {
	return fmt.Sprintf("'%s'!A2:H", r.tab)
}

func encodeRow(cfg domain.UserConfig) []string {
	return []string{
		cfg.LineUserID,
		cfg.DisplayName,
		cfg.PictureURL,
		cfg.SheetID,
		cfg.DriveFolderID,
		formatBool(cfg.SheetVerified),
		formatBool(cfg.DriveVerified),
		cfg.UpdatedAt,
	}
}

func decodeRow(row []string) domain.UserConfig {
	return domain.UserConfig{
		LineUserID:    col(row, 0),
		DisplayName:   col(row, 1),
		PictureURL:    col(row, 2),
		SheetID:       col(row, 3),
		DriveFolderID: col(row, 4),
		SheetVerified: col(row, 5) == "true",
		DriveVerified: col(row, 6) == "true",
		UpdatedAt:     col(row, 7),
	}
}

func col(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
