package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	server "boardd/internal"
	"boardd/internal/board"
	boardrepo "boardd/internal/board/repositoryimpl"
	"boardd/internal/config"
	"boardd/internal/eventbus"
	"boardd/internal/pushnotification"
	pushsubrepo "boardd/internal/pushsubscription/repositoryimpl"
	"boardd/pkg/clog"
	"boardd/pkg/panicerr"
	"boardd/pkg/sentinel"
	"boardd/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	var localStore *storage.LocalStorage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		localStore, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
		store = localStore
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	boardRepo := boardrepo.NewJSONRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Setup board store (loads and migrates the persisted document)
	boardStore, err := board.New(ctx, boardRepo,
		board.WithEventBus(bus),
		board.WithCaseInsensitiveMatching(env.BoardEnv.CaseInsensitiveOwners),
	)
	if err != nil {
		slog.Error("failed to load board", "error", err)
		os.Exit(1)
	}

	// Setup servers
	boardServer := board.NewServer(boardStore)

	// Setup push notification
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushNotificationServer := pushnotification.NewServer(vapidEnv, pushSubRepo, pushSender)
	pushDispatcher := pushnotification.NewDispatcher(bus, pushSender)

	srv := server.NewServer(env, boardServer, pushNotificationServer)

	go func() {
		if err := panicerr.SafeContext(pushDispatcher.Run)(ctx); err != nil && ctx.Err() == nil {
			slog.Error("push dispatcher stopped", "error", err)
		}
	}()

	// Watch the document for external edits (local storage only)
	if localStore != nil && env.BoardEnv.WatchDocument {
		docPath := filepath.Join(localStore.BasePath(), boardrepo.DocumentPath)
		watcher, err := sentinel.New(docPath, func() {
			if err := boardStore.Reload(context.Background()); err != nil {
				slog.Error("failed to reload board document", "error", err)
			}
		})
		if err != nil {
			slog.Error("failed to create document watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := panicerr.SafeContext(watcher.Run)(ctx); err != nil && ctx.Err() == nil {
				slog.Error("document watcher stopped", "error", err)
			}
		}()
	}

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
