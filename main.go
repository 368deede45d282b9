package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/book-exchange/internal/config"
	"github.com/msomdec/book-exchange/internal/domain"
	"github.com/msomdec/book-exchange/internal/handler"
	"github.com/msomdec/book-exchange/internal/logging"
	"github.com/msomdec/book-exchange/internal/media"
	"github.com/msomdec/book-exchange/internal/repository/mongo"
	"github.com/msomdec/book-exchange/internal/repository/sqlite"
	"github.com/msomdec/book-exchange/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, blobDB, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "driver", cfg.StoreDriver)

	store, blobs, closeMedia, err := openMedia(ctx, cfg, blobDB)
	if err != nil {
		slog.Error("failed to set up media storage", "driver", cfg.MediaDriver, "error", err)
		os.Exit(1)
	}
	defer closeMedia.Close()
	slog.Info("media storage ready", "driver", cfg.MediaDriver)

	imageService := service.NewImageService(store, logger)
	authService := service.NewAuthService(db.Users(), cfg.JWTSecret, cfg.BcryptCost)
	bookService := service.NewBookService(db.Books(), db.Users(), imageService)
	userService := service.NewUserService(db.Users(), db.Books(), imageService)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.NewRouter(handler.Deps{
			Logger:       logger,
			Auth:         authService,
			Books:        bookService,
			Users:        userService,
			Blobs:        blobs,
			Store:        db,
			LoginLimiter: service.NewTokenBucket(ctx, cfg.LoginRate, cfg.LoginBurst),
			CookieSecure: cfg.CookieSecure,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore opens the entity store. The sqlite database is also returned
// when it is open so it can hold image blobs.
func openStore(ctx context.Context, cfg *config.Config) (domain.Database, *sqlite.DB, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		db, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		return db, nil, err
	default:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openMedia picks where uploaded images live. The db driver keeps them as
// blobs in sqlite, opening DATABASE_PATH when the entity store is mongo.
func openMedia(ctx context.Context, cfg *config.Config, db *sqlite.DB) (domain.MediaStore, *media.BlobStore, io.Closer, error) {
	noop := closerFunc(func() error { return nil })

	switch cfg.MediaDriver {
	case config.MediaS3:
		s, err := media.NewS3Store(media.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
		return s, nil, noop, err

	case config.MediaGCS:
		s, err := media.NewGCSStore(ctx, media.GCSConfig{
			Bucket:          cfg.GCS.Bucket,
			CredentialsFile: cfg.GCS.CredentialsFile,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return s, nil, s, nil

	default:
		var closer io.Closer = noop
		if db == nil {
			opened, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("open blob database: %w", err)
			}
			if err := opened.Migrate(ctx); err != nil {
				opened.Close()
				return nil, nil, nil, fmt.Errorf("migrate blob database: %w", err)
			}
			db, closer = opened, opened
		}
		blobs := media.NewBlobStore(db.FileStore())
		return blobs, blobs, closer, nil
	}
}
