package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"k8s.io/klog/v2"

	"certificate-service/internal/cache"
	"certificate-service/internal/config"
	"certificate-service/internal/fonts"
	"certificate-service/internal/handlers"
	"certificate-service/internal/service"
	"certificate-service/internal/storage"
	"certificate-service/internal/store"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg, err := config.Load()
	if err != nil {
		klog.Fatalf("Failed to load config: %v", err)
	}

	// Database
	if cfg.Database.Type != "mysql" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			klog.Fatalf("Failed to create database directory: %v", err)
		}
	}
	db, err := store.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		klog.Fatalf("Failed to open database: %v", err)
	}

	// Asset storage
	files, err := openStorage(cfg.Storage)
	if err != nil {
		klog.Fatalf("Failed to open storage: %v", err)
	}

	// Render cache: Redis when configured, else in process
	var renderCache cache.RenderCache
	if cfg.Cache.RedisAddr != "" {
		client, err := cache.ConnectRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			klog.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		renderCache = cache.NewRedisRenderCache(client, cfg.Cache.RenderTTL)
	} else {
		renderCache = cache.NewMemoryRenderCache(cfg.Cache.RenderTTL)
	}

	tpls := store.NewTemplateStore(db)
	certs := store.NewCertificateStore(db)
	settingsStore := store.NewSettingsStore(db, cfg.Editor)
	fontSvc := fonts.NewService(files, cfg.Cache.TTL)
	assets := cache.NewAssets(files, cfg.Cache.TTL)

	templates := service.NewTemplateService(tpls)
	settings := service.NewSettingsService(settingsStore)
	render := service.NewRenderService(tpls, certs, assets, fontSvc, renderCache, service.RenderOptions{
		Quality: cfg.Render.Quality,
		Format:  cfg.Render.Format,
	})

	h := &handlers.Handlers{
		Templates:    templates,
		Certificates: service.NewCertificateService(certs, tpls, settingsStore),
		Settings:     settings,
		Render:       render,
		Assets:       service.NewAssetService(files, render),
		Editor:       service.NewEditorService(templates, settings, handlers.FontURLPrefix, 30*time.Minute),
		Fonts:        fontSvc,
		AssetCache:   assets,
		RenderCache:  renderCache,
	}

	app := fiber.New(fiber.Config{
		ServerHeader: "Certificate-Service",
		AppName:      "Certificate Service v" + handlers.Version,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		// Params and queries outlive the request as cache and session keys.
		Immutable: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	h.Register(app)

	klog.Infof("Certificate service starting on %s (db=%s, storage=%s)", cfg.Addr(), cfg.Database.Type, cfg.Storage.Type)
	if err := app.Listen(cfg.Addr()); err != nil {
		klog.Errorf("Failed to start server: %v", err)
		klog.Flush()
		os.Exit(1)
	}
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Type == "s3" {
		return storage.NewS3Store(storage.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
		})
	}
	return storage.NewLocalStore(cfg.Root)
}
