// Package sheets holds the Google API adapters: service-account
// authentication, resource verification, and the spreadsheet row store
// backing the config repository.
package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Services bundles the Sheets and Drive clients authenticated as the bot's
// service principal.
type Services struct {
	Sheets *gsheets.Service
	Drive  *gdrive.Service
}

// NewServices builds Sheets and Drive clients from a service-account JSON
// key, scoped to spreadsheet and Drive read/write access.
func NewServices(ctx context.Context, serviceAccountKey []byte) (*Services, error) {
	jwtCfg, err := google.JWTConfigFromJSON(serviceAccountKey, gsheets.SpreadsheetsScope, gdrive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}

	httpClient := jwtCfg.Client(ctx)

	sheetsSvc, err := gsheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	driveSvc, err := gdrive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}

	return &Services{Sheets: sheetsSvc, Drive: driveSvc}, nil
}
