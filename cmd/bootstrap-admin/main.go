package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/repo"
	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/art_shop/pkg/db"
	"github.com/Skotchmaster/art_shop/pkg/logging"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", "bootstrap-admin")
	ctx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 30*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer pkgdb.Close(db)

	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := repo.New(db)
	auth := service.NewAuthService(r, service.NewAccessService(r), cfg.JWTSecret, cfg.TokenTTL)

	admin, err := auth.BootstrapAdmin(ctx, *email, *password)
	if err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	logger.Info("admin_ready", "admin_id", admin.ID, "user_id", admin.UserID)
	fmt.Printf("admin %s ready (user %s)\n", admin.ID, admin.UserID)
}
