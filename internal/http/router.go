package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/thomkungss/expense-bot-setup/internal/config"
	"github.com/thomkungss/expense-bot-setup/internal/http/handler"
	httpmiddleware "github.com/thomkungss/expense-bot-setup/internal/http/middleware"
	apimiddleware "github.com/thomkungss/expense-bot-setup/internal/middleware"
	"github.com/thomkungss/expense-bot-setup/internal/session"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, onboardHandler *handler.OnboardHandler, cookies *session.CookieManager, rateLimiter *apimiddleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(apimiddleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpmiddleware.Session(cookies))

	auth := r.Group("/auth/line")
	{
		auth.GET("/login", onboardHandler.Login)
		auth.GET("/callback", onboardHandler.Callback)
	}

	api := r.Group("/api")
	{
		api.GET("/session", onboardHandler.Session)
		api.POST("/config", onboardHandler.SaveConfig)
		api.POST("/logout", onboardHandler.Logout)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// UI is served only as static files; all flow logic stays on the API routes.
	attachUIRoutes(r, filepath.Join("ui", "dist"))

	return r
}

func attachUIRoutes(r *gin.Engine, distDir string) {
	indexPath := filepath.Join(distDir, "index.html")

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if isAPIPath(path) {
			c.Status(http.StatusNotFound)
			return
		}

		if filePath, ok := safeJoin(distDir, path); ok {
			if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
				c.File(filePath)
				return
			}
		}

		c.File(indexPath)
	})
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/auth") ||
		strings.HasPrefix(path, "/api") ||
		strings.HasPrefix(path, "/healthz")
}

func safeJoin(baseDir, requestPath string) (string, bool) {
	trimmed := strings.TrimPrefix(requestPath, "/")
	cleaned := filepath.Clean(trimmed)
	if cleaned == "." {
		return filepath.Join(baseDir, cleaned), true
	}
	if strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	return filepath.Join(baseDir, cleaned), true
}
