package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/thomkungss/expense-bot-setup/internal/adapter/cache"
	lineadapter "github.com/thomkungss/expense-bot-setup/internal/adapter/line"
	sheetsadapter "github.com/thomkungss/expense-bot-setup/internal/adapter/sheets"
	"github.com/thomkungss/expense-bot-setup/internal/config"
	httptransport "github.com/thomkungss/expense-bot-setup/internal/http"
	"github.com/thomkungss/expense-bot-setup/internal/http/handler"
	apimiddleware "github.com/thomkungss/expense-bot-setup/internal/middleware"
	"github.com/thomkungss/expense-bot-setup/internal/repository"
	"github.com/thomkungss/expense-bot-setup/internal/server"
	"github.com/thomkungss/expense-bot-setup/internal/service/onboard"
	"github.com/thomkungss/expense-bot-setup/internal/session"
	"github.com/thomkungss/expense-bot-setup/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newRedisClient,
			newSaveLocker,
			newLineClient,
			newGoogleServices,
			newSheetVerifier,
			newFolderVerifier,
			newRowStore,
			newConfigRepository,
			newSessionCodec,
			newCookieManager,
			newOnboardService,
			handler.NewOnboardHandler,
			newRateLimiter,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	if cfg.UsesDevSecret() {
		logger.Warn("SESSION_SECRET not set, using insecure development fallback")
	}
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

// newRedisClient returns nil when no Redis address is configured; saves then
// fall back to the no-op lock.
func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newSaveLocker(client redis.UniversalClient, logger *zap.Logger) repository.SaveLocker {
	if client == nil {
		logger.Info("redis not configured, concurrent saves are unguarded")
		return cacheadapter.NoopSaveLock{}
	}
	return cacheadapter.NewRedisSaveLock(client)
}

func newLineClient(cfg config.Config) lineadapter.ProviderClient {
	return lineadapter.NewHTTPProviderClient(lineadapter.Config{
		ChannelID:     cfg.LineChannelID,
		ChannelSecret: cfg.LineChannelSecret,
		CallbackURL:   cfg.LineCallbackURL,
	}, nil)
}

func newGoogleServices(cfg config.Config) (*sheetsadapter.Services, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return sheetsadapter.NewServices(ctx, cfg.ServiceAccountKey)
}

func newSheetVerifier(svcs *sheetsadapter.Services) *sheetsadapter.SheetVerifier {
	return sheetsadapter.NewSheetVerifier(sheetsadapter.NewSheetsMeta(svcs.Sheets))
}

func newFolderVerifier(svcs *sheetsadapter.Services) *sheetsadapter.FolderVerifier {
	return sheetsadapter.NewFolderVerifier(sheetsadapter.NewDriveMeta(svcs.Drive))
}

func newRowStore(svcs *sheetsadapter.Services, cfg config.Config) repository.RowStore {
	return sheetsadapter.NewSheetRowStore(svcs.Sheets, cfg.ConfigSheetID)
}

func newConfigRepository(rows repository.RowStore, cfg config.Config, logger *zap.Logger) repository.ConfigRepository {
	return repository.NewSheetConfigRepo(rows, cfg.ConfigSheetTab, logger)
}

func newSessionCodec(cfg config.Config) *session.Codec {
	return session.NewCodec([]byte(cfg.SessionSecret), cfg.SessionTTL)
}

func newCookieManager(cfg config.Config, codec *session.Codec) *session.CookieManager {
	return session.NewCookieManager(codec, cfg.SessionTTL, cfg.StateTTL, cfg.CookieSecure)
}

func newOnboardService(
	provider lineadapter.ProviderClient,
	codec *session.Codec,
	sheetVerifier *sheetsadapter.SheetVerifier,
	folderVerifier *sheetsadapter.FolderVerifier,
	repo repository.ConfigRepository,
	locker repository.SaveLocker,
	logger *zap.Logger,
) onboard.Service {
	return onboard.NewService(provider, codec, sheetVerifier, folderVerifier, repo, locker, logger)
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
