package repository

import (
	"context"
	"time"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
)

// ConfigRepository persists one configuration record per LINE user.
type ConfigRepository interface {
	// Get returns the record for the user, or (nil, nil) when absent.
	Get(ctx context.Context, lineUserID string) (*domain.UserConfig, error)
	// Upsert updates the user's existing row in place or appends a new
	// one, stamping the save time. It returns the saved record.
	Upsert(ctx context.Context, cfg domain.UserConfig) (*domain.UserConfig, error)
}

// RowStore is the narrow spreadsheet surface the config repository needs.
// Ranges use A1 notation including the quoted tab name.
type RowStore interface {
	TabExists(ctx context.Context, title string) (bool, error)
	AddTab(ctx context.Context, title string) error
	ReadRows(ctx context.Context, readRange string) ([][]string, error)
	UpdateRow(ctx context.Context, writeRange string, row []string) error
	AppendRow(ctx context.Context, appendRange string, row []string) error
}

// UnlockFunc releases a held save lock.
type UnlockFunc func(ctx context.Context) error

// SaveLocker serializes read-modify-write saves per user, closing the
// concurrent-upsert race on the shared sheet.
type SaveLocker interface {
	// Lock acquires the key or returns domain.ErrSaveInProgress when it
	// is already held.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
