package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/viewcount"
)

// buildDependencies wires together the concrete implementations used by the
// HTTP handlers. The returned cleanup flushes pending view counts and closes
// the Redis connection; call it during shutdown.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context), error) {
	media, err := storage.NewS3MediaStore(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure media store: %w", err)
	}

	videoRepo := repositories.NewPostgresVideoRepository(pool)

	var counter viewcount.Counter
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		counter = viewcount.NewRedisCounter(redisClient)
	} else {
		logger.Warn("redis address not configured, counting views in memory")
		counter = viewcount.NewMemoryCounter()
	}

	flusher := viewcount.NewFlusher(counter, videoRepo, cfg.ViewFlushTTL, logger)

	sessionStore := repositories.NewPostgresSessionStore(pool)
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.AccessTTL, cfg.RefreshTTL, sessionStore)

	deps := handlers.Dependencies{
		Users:       repositories.NewPostgresUserRepository(pool),
		Videos:      videoRepo,
		Comments:    repositories.NewPostgresCommentRepository(pool),
		Tweets:      repositories.NewPostgresTweetRepository(pool),
		Playlists:   repositories.NewPostgresPlaylistRepository(pool),
		Relations:   repositories.NewPostgresRelationRepository(pool),
		Sessions:    tokens,
		Verifier:    tokens,
		Media:       media,
		Views:       counter,
		AuthLimiter: middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
	}

	cleanup := func(shutdownCtx context.Context) {
		if err := flusher.Shutdown(shutdownCtx); err != nil {
			logger.Error("view flusher shutdown", "error", err)
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Error("close redis client", "error", err)
			}
		}
	}

	return deps, cleanup, nil
}
