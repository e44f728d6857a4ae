package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/princekumarofficial/zcreens-service/internal/config"
	"github.com/princekumarofficial/zcreens-service/internal/services/accounts"
	"github.com/princekumarofficial/zcreens-service/internal/storage/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	email := flag.String("email", "admin@admin.com", "Admin email")
	password := flag.String("password", "", "Admin password, required when the account does not exist yet")
	name := flag.String("name", "Administrator", "Admin display name")

	cfg := config.MustLoad()
	if !flag.Parsed() {
		flag.Parse()
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if cfg.Storage.Driver == "memory" {
		log.Fatal("the memory driver does not outlive this process; set admin.email in the service config instead")
	}

	store, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	account, created, err := accounts.EnsureAdmin(ctx, store, accounts.AdminSpec{
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		log.Fatal(err)
	}

	if created {
		slog.Info("Admin user created", slog.String("user_id", account.ID), slog.String("email", account.Email))
		return
	}
	slog.Info("Admin user ready", slog.String("user_id", account.ID), slog.String("email", account.Email))
}
