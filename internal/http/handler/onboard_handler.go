package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
	"github.com/thomkungss/expense-bot-setup/internal/http/middleware"
	"github.com/thomkungss/expense-bot-setup/internal/service/onboard"
	"github.com/thomkungss/expense-bot-setup/internal/session"
)

// OnboardHandler exposes the onboarding endpoints.
type OnboardHandler struct {
	svc     onboard.Service
	cookies *session.CookieManager
	logger  *zap.Logger
}

// NewOnboardHandler creates the handler set.
func NewOnboardHandler(svc onboard.Service, cookies *session.CookieManager, logger *zap.Logger) *OnboardHandler {
	return &OnboardHandler{svc: svc, cookies: cookies, logger: logger}
}

// Login stores the anti-forgery nonce and redirects to LINE Login.
func (h *OnboardHandler) Login(c *gin.Context) {
	start, err := h.svc.StartLogin()
	if err != nil {
		h.logger.Error("start login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	h.cookies.SetState(c.Writer, start.State)
	c.Redirect(http.StatusFound, start.AuthorizeURL)
}

// Callback completes the OAuth dance and issues the session cookie. Every
// failure class maps to a distinct error code on the landing page.
func (h *OnboardHandler) Callback(c *gin.Context) {
	savedState, _ := h.cookies.State(c.Request)
	// The nonce is single-use regardless of outcome.
	h.cookies.ClearState(c.Writer)

	result, err := h.svc.CompleteLogin(c.Request.Context(), onboard.CallbackInput{
		Code:       c.Query("code"),
		State:      c.Query("state"),
		ErrorParam: c.Query("error"),
		SavedState: savedState,
	})
	if err != nil {
		c.Redirect(http.StatusFound, "/?error="+callbackErrorCode(err))
		return
	}

	h.cookies.SetSession(c.Writer, result.Token)
	c.Redirect(http.StatusFound, "/setup")
}

func callbackErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrLoginDenied):
		return "login_denied"
	case errors.Is(err, domain.ErrInvalidParams):
		return "invalid_params"
	case errors.Is(err, domain.ErrStateMismatch):
		return "invalid_state"
	case errors.Is(err, domain.ErrTokenExchange):
		return "token_failed"
	case errors.Is(err, domain.ErrProfileFetch):
		return "profile_failed"
	default:
		return "callback_failed"
	}
}

// Session reports authentication state plus any saved configuration.
func (h *OnboardHandler) Session(c *gin.Context) {
	payload, ok := middleware.GetSessionPayload(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}

	info, err := h.svc.Session(c.Request.Context(), *payload)
	if err != nil {
		h.logger.Error("session introspection failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	resp := gin.H{
		"authenticated": true,
		"user": gin.H{
			"displayName": payload.DisplayName,
			"pictureUrl":  payload.PictureURL,
		},
	}
	if info.Config != nil {
		resp["config"] = configJSON(info.Config)
	} else {
		resp["config"] = nil
	}
	c.JSON(http.StatusOK, resp)
}

type saveConfigRequest struct {
	SheetID       string `json:"sheetId"`
	DriveFolderID string `json:"driveFolderId"`
}

// SaveConfig verifies and persists the linked resources.
func (h *OnboardHandler) SaveConfig(c *gin.Context) {
	payload, ok := middleware.GetSessionPayload(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req saveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.SaveConfig(c.Request.Context(), *payload, onboard.SaveInput{
		SheetRef:  req.SheetID,
		FolderRef: req.DriveFolderID,
	})
	if err != nil {
		h.respondSaveError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"sheetTitle":      result.SheetTitle,
		"driveFolderName": result.FolderName,
		"config":          configJSON(&result.Config),
	})
}

func (h *OnboardHandler) respondSaveError(c *gin.Context, err error) {
	var verr *domain.VerificationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason, "field": verr.Field})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "sheetId is required"})
	case errors.Is(err, domain.ErrSaveInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "another save is in progress"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed, please retry"})
	}
}

// Logout clears the session cookie.
func (h *OnboardHandler) Logout(c *gin.Context) {
	h.cookies.ClearSession(c.Writer)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func configJSON(cfg *domain.UserConfig) gin.H {
	return gin.H{
		"sheetId":       cfg.SheetID,
		"driveFolderId": cfg.DriveFolderID,
		"sheetVerified": cfg.SheetVerified,
		"driveVerified": cfg.DriveVerified,
		"updatedAt":     cfg.UpdatedAt,
	}
}
