package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"github.com/yujinliee/wastewise/internal/auth"
	"github.com/yujinliee/wastewise/internal/bins"
	"github.com/yujinliee/wastewise/internal/config"
	"github.com/yujinliee/wastewise/internal/db"
	"github.com/yujinliee/wastewise/internal/kms"
	"github.com/yujinliee/wastewise/internal/migrations"
	"github.com/yujinliee/wastewise/internal/notification"
	"github.com/yujinliee/wastewise/internal/queue"
	"github.com/yujinliee/wastewise/internal/routes"
	"github.com/yujinliee/wastewise/internal/security"
	"github.com/yujinliee/wastewise/internal/store"
	"github.com/yujinliee/wastewise/internal/worker"
)

func main() {
	db.InitDB()

	if err := migrations.Up(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	auth.InitSecurity()
	auth.InitRoles()

	if err := security.InitKMS(); err != nil {
		log.Fatalf("Failed to initialize KMS: %v", err)
	}

	if err := queue.InitQueue(); err != nil {
		log.Fatalf("Failed to initialize task queue: %v", err)
	}
	defer queue.Close()

	if err := kms.InitRotation(); err != nil {
		log.Fatalf("Failed to initialize KMS rotation: %v", err)
	}

	if err := config.InitFireStore(); err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer config.CloseFirebaseConnection()

	st := store.NewFirestore(config.GetFirebaseClient().Firestore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := notification.InitFeed(ctx, st); err != nil {
		log.Fatalf("Failed to open notification feed: %v", err)
	}
	defer notification.GetFeed().Close()

	notification.InitService(st, notification.GetFeed(), queue.StatsEnqueuer{})
	bins.InitService(st, notification.GetService())

	w := worker.NewWorker(st)
	go func() {
		if err := w.Start(ctx); err != nil {
			slog.Error("Worker stopped with error", "error", err)
		}
	}()

	e := echo.New()
	api := e.Group("/api")
	routes.SetupRoutes(api)

	go func() {
		<-ctx.Done()
		if err := e.Shutdown(context.Background()); err != nil {
			slog.Error("Failed to shut down server", "error", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
