package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vistagram.app/internal/auth"
	"vistagram.app/internal/config"
	"vistagram.app/internal/cron"
	"vistagram.app/internal/genai"
	"vistagram.app/internal/httpapi"
	"vistagram.app/internal/media"
	"vistagram.app/internal/migrate"
	"vistagram.app/internal/obs"
	"vistagram.app/internal/seed"
	"vistagram.app/internal/social"
)

var version = "0.1.0"

func main() {
	obs.Init()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("missing DATABASE_DSN")
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBoot()

	if err := migrate.NewManager(db).Up(bootCtx); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	store := social.NewPGStore(db)
	tokens := auth.NewTokenManager(
		cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL,
	)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		log.Fatalf("connect object storage: %v", err)
	}
	uploader, err := media.NewMinioUploader(bootCtx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		log.Fatalf("prepare image bucket: %v", err)
	}

	generator := genai.NewClient(cfg.OpenRouter.BaseURL, cfg.OpenRouter.APIKey, cfg.OpenRouter.Model)
	images := media.NewStockSource(time.Now().UnixNano())
	seeder := seed.New(store, generator, images, uploader, seed.Config{
		MinUsers:        cfg.Seed.MinUsers,
		MinPosts:        cfg.Seed.MinPosts,
		DefaultPassword: cfg.Seed.DefaultPassword,
		PostInterval:    cfg.Seed.PostInterval,
	})

	scheduler := cron.New(seeder, cfg.Cron.Enabled, cfg.Cron.Schedule)
	if err := scheduler.StartDatabasePopulation(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}

	api := httpapi.New(store, tokens, scheduler, uploader, httpapi.ReadyProbe{DB: db}, httpapi.Config{
		FrontendURL: cfg.FrontendURL,
		DevMode:     cfg.IsDevelopment(),
		Version:     version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting vistagram-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	scheduler.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
