// Command seed runs one database population pass and exits. It performs the
// same work as the scheduled job, without waiting for the schedule.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vistagram.app/internal/config"
	"vistagram.app/internal/genai"
	"vistagram.app/internal/media"
	"vistagram.app/internal/migrate"
	"vistagram.app/internal/obs"
	"vistagram.app/internal/seed"
	"vistagram.app/internal/social"
)

func main() {
	obs.Init()
	log.SetFlags(0)

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
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := migrate.NewManager(db).Up(ctx); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		log.Fatalf("connect object storage: %v", err)
	}
	uploader, err := media.NewMinioUploader(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		log.Fatalf("prepare image bucket: %v", err)
	}

	generator := genai.NewClient(cfg.OpenRouter.BaseURL, cfg.OpenRouter.APIKey, cfg.OpenRouter.Model)
	seeder := seed.New(social.NewPGStore(db), generator, media.NewStockSource(time.Now().UnixNano()), uploader, seed.Config{
		MinUsers:        cfg.Seed.MinUsers,
		MinPosts:        cfg.Seed.MinPosts,
		DefaultPassword: cfg.Seed.DefaultPassword,
		PostInterval:    cfg.Seed.PostInterval,
	})

	if err := seeder.Populate(ctx); err != nil {
		log.Fatalf("populate: %v", err)
	}
	log.Println("populate complete")
}
