// Package onboard orchestrates the web onboarding flow: LINE Login,
// session issuance, resource verification, and config persistence.
package onboard

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thomkungss/expense-bot-setup/internal/adapter/line"
	"github.com/thomkungss/expense-bot-setup/internal/adapter/sheets"
	"github.com/thomkungss/expense-bot-setup/internal/domain"
	"github.com/thomkungss/expense-bot-setup/internal/repository"
	"github.com/thomkungss/expense-bot-setup/internal/session"
)

// saveLockTTL bounds how long a crashed save can block the next one.
const saveLockTTL = 30 * time.Second

// ResourceVerifier checks access to one kind of external resource.
type ResourceVerifier interface {
	Verify(ctx context.Context, resourceID string) domain.VerifyResult
}

// Service defines the onboarding orchestration behaviors.
type Service interface {
	StartLogin() (*LoginStart, error)
	CompleteLogin(ctx context.Context, in CallbackInput) (*LoginResult, error)
	SaveConfig(ctx context.Context, payload domain.SessionPayload, in SaveInput) (*SaveResult, error)
	Session(ctx context.Context, payload domain.SessionPayload) (*SessionInfo, error)
}

// LoginStart carries the authorization redirect and the anti-forgery nonce
// the handler must stash in a short-lived cookie.
type LoginStart struct {
	AuthorizeURL string
	State        string
}

// CallbackInput captures the provider callback query parameters together
// with the nonce previously stored in the browser.
type CallbackInput struct {
	Code       string
	State      string
	ErrorParam string
	SavedState string
}

// LoginResult is a freshly minted session.
type LoginResult struct {
	Token   string
	Payload domain.SessionPayload
}

// SaveInput accepts spreadsheet and folder references as URLs or bare IDs.
type SaveInput struct {
	SheetRef  string
	FolderRef string
}

// SaveResult reports what was verified and persisted.
type SaveResult struct {
	Config     domain.UserConfig
	SheetTitle string
	FolderName string
}

// SessionInfo is the introspection view: identity plus saved config, nil
// when the user has not configured anything yet.
type SessionInfo struct {
	Payload domain.SessionPayload
	Config  *domain.UserConfig
}

type service struct {
	provider       line.ProviderClient
	codec          *session.Codec
	sheetVerifier  ResourceVerifier
	folderVerifier ResourceVerifier
	repo           repository.ConfigRepository
	locker         repository.SaveLocker
	logger         *zap.Logger
}

// NewService wires the onboarding service implementation.
func NewService(
	provider line.ProviderClient,
	codec *session.Codec,
	sheetVerifier ResourceVerifier,
	folderVerifier ResourceVerifier,
	repo repository.ConfigRepository,
	locker repository.SaveLocker,
	logger *zap.Logger,
) Service {
	return &service{
		provider:       provider,
		codec:          codec,
		sheetVerifier:  sheetVerifier,
		folderVerifier: folderVerifier,
		repo:           repo,
		locker:         locker,
		logger:         logger,
	}
}

// StartLogin generates the anti-forgery nonce and the provider authorize URL.
func (s *service) StartLogin() (*LoginStart, error) {
	state, err := secureRandomString(16)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	return &LoginStart{
		AuthorizeURL: s.provider.AuthorizeURL(state),
		State:        state,
	}, nil
}

// CompleteLogin validates the callback, exchanges the code, fetches the
// profile, and mints the session token. Each step's failure short-circuits
// the rest.
func (s *service) CompleteLogin(ctx context.Context, in CallbackInput) (*LoginResult, error) {
	if strings.TrimSpace(in.ErrorParam) != "" {
		return nil, domain.ErrLoginDenied
	}
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.State) == "" {
		return nil, domain.ErrInvalidParams
	}
	if in.SavedState == "" || in.State != in.SavedState {
		return nil, domain.ErrStateMismatch
	}

	token, err := s.provider.ExchangeCode(ctx, in.Code)
	if err != nil {
		s.log().Warn("token exchange failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenExchange, err)
	}

	profile, err := s.provider.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		s.log().Warn("profile fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrProfileFetch, err)
	}

	payload := domain.SessionPayload{
		LineUserID:  profile.UserID,
		DisplayName: profile.DisplayName,
		PictureURL:  profile.PictureURL,
	}
	sessionToken, err := s.codec.Issue(payload)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.log().Info("session issued", zap.String("line_user_id", payload.LineUserID))
	return &LoginResult{Token: sessionToken, Payload: payload}, nil
}

// SaveConfig verifies each referenced resource, then upserts the user's row
// under a per-user lock.
func (s *service) SaveConfig(ctx context.Context, payload domain.SessionPayload, in SaveInput) (*SaveResult, error) {
	sheetID := sheets.ExtractSpreadsheetID(in.SheetRef)
	if sheetID == "" {
		return nil, fmt.Errorf("%w: sheet id is required", domain.ErrInvalidRequest)
	}

	sheetRes := s.sheetVerifier.Verify(ctx, sheetID)
	if !sheetRes.OK {
		return nil, &domain.VerificationError{Field: "sheetId", Reason: sheetRes.Reason}
	}

	folderID := sheets.ExtractFolderID(in.FolderRef)
	folderName := ""
	driveVerified := false
	if folderID != "" {
		folderRes := s.folderVerifier.Verify(ctx, folderID)
		if !folderRes.OK {
			return nil, &domain.VerificationError{Field: "driveFolderId", Reason: folderRes.Reason}
		}
		folderName = folderRes.Label
		driveVerified = true
	}

	unlock, err := s.locker.Lock(ctx, payload.LineUserID, saveLockTTL)
	if err != nil {
		if err == domain.ErrSaveInProgress {
			return nil, err
		}
		s.log().Error("save lock failed", zap.Error(err))
		return nil, domain.ErrSaveFailed
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			s.log().Warn("failed to release save lock", zap.Error(err))
		}
	}()

	saved, err := s.repo.Upsert(ctx, domain.UserConfig{
		LineUserID:    payload.LineUserID,
		DisplayName:   payload.DisplayName,
		PictureURL:    payload.PictureURL,
		SheetID:       sheetID,
		DriveFolderID: folderID,
		SheetVerified: true,
		DriveVerified: driveVerified,
	})
	if err != nil {
		s.log().Error("config upsert failed", zap.String("line_user_id", payload.LineUserID), zap.Error(err))
		return nil, domain.ErrSaveFailed
	}

	return &SaveResult{
		Config:     *saved,
		SheetTitle: sheetRes.Label,
		FolderName: folderName,
	}, nil
}

// Session returns the authenticated identity plus any saved configuration.
func (s *service) Session(ctx context.Context, payload domain.SessionPayload) (*SessionInfo, error) {
	cfg, err := s.repo.Get(ctx, payload.LineUserID)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &SessionInfo{Payload: payload, Config: cfg}, nil
}

func (s *service) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

func secureRandomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
