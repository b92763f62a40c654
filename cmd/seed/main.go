package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vinnu2910/edutainverse/internal/data/cache"
	"github.com/vinnu2910/edutainverse/internal/data/db"
	"github.com/vinnu2910/edutainverse/internal/data/repos"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"github.com/vinnu2910/edutainverse/internal/seed"
	"github.com/vinnu2910/edutainverse/internal/services"
)

func main() {
	path := flag.String("file", "cmd/seed/fixtures.yaml", "fixture file to load")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Failed to load .env: %v\n", err)
	}

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fh, err := os.Open(*path)
	if err != nil {
		log.Fatal("Open fixtures failed", "path", *path, "error", err)
	}
	fixtures, err := seed.Load(fh)
	_ = fh.Close()
	if err != nil {
		log.Fatal("Load fixtures failed", "path", *path, "error", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	defer pg.Close()
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("Auto migration failed", "error", err)
	}
	theDB := pg.DB()

	moduleRepo := repos.NewModuleRepo(theDB, log)
	videoRepo := repos.NewVideoRepo(theDB, log)
	hierarchy := services.NewHierarchyService(theDB, log, moduleRepo, videoRepo)
	editor := services.NewCourseEditorService(
		theDB, log,
		hierarchy,
		repos.NewCourseRepo(theDB, log),
		moduleRepo,
		videoRepo,
		repos.NewProgressRecordRepo(theDB, log),
		repos.NewEnrollmentRepo(theDB, log),
		repos.NewWishlistRepo(theDB, log),
		cache.NoopProgressCache{},
	)

	failed := 0
	for _, res := range seed.Apply(ctx, log, editor, fixtures) {
		if res.Err != nil {
			failed++
		}
	}
	log.Info("Seeding finished", "courses", len(fixtures.Courses), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
