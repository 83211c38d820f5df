package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"bim-viewer/internal/common/config"
	"bim-viewer/internal/common/middleware"
	"bim-viewer/internal/server/handlers"
	"bim-viewer/internal/server/repository"
	"bim-viewer/internal/server/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// BIM IFC API Server
// ============================================================

func main() {
	cfg := config.Load()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	storage := service.NewFileStorage(cfg.StorageRoot)
	table := service.NewModelTable()
	ifcHandler := handlers.NewIFCHandler(repo, storage, table)

	if err := ifcHandler.Restore(context.Background()); err != nil {
		log.Fatalf("restore catalog: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "BIM IFC API Server",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// IFC Routes
	// ============================================================

	app.Get("/", ifcHandler.Root)
	app.Post("/upload-ifc", ifcHandler.UploadIFC)
	app.Post("/get-element-by-guid", ifcHandler.GetElementByGUID)
	app.Delete("/remove-model/:model_id", ifcHandler.RemoveModel)
	app.Get("/models", ifcHandler.ListModels)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting BIM IFC API Server on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
