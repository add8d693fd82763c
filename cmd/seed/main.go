package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/influenciando/reseller-backend/internal/settings"
	"github.com/influenciando/reseller-backend/internal/users"
	"github.com/influenciando/reseller-backend/pkg/config"
	"github.com/influenciando/reseller-backend/pkg/db"
	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/enums"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/security"
)

type seedUser struct {
	username string
	password string
	role     enums.UserRole
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	usersRepo := users.NewRepository(dbClient.DB())
	settingsRepo := settings.NewRepository(dbClient.DB())

	adminPassword := os.Getenv("RESELLER_SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	userPassword := os.Getenv("RESELLER_SEED_USER_PASSWORD")
	if userPassword == "" {
		userPassword = "user123"
	}

	defaults := []seedUser{
		{username: "admin", password: adminPassword, role: enums.UserRoleAdmin},
		{username: "user", password: userPassword, role: enums.UserRoleUser},
	}

	for _, seed := range defaults {
		existing, err := usersRepo.FindByUsername(ctx, seed.username)
		if err != nil {
			logg.Error(ctx, "failed to look up user", err)
			os.Exit(1)
		}
		if existing != nil {
			continue
		}

		hash, err := security.HashPassword(seed.password, cfg.Password)
		if err != nil {
			logg.Error(ctx, "failed to hash password", err)
			os.Exit(1)
		}
		if err := usersRepo.Create(ctx, &models.User{
			Username:     seed.username,
			PasswordHash: hash,
			Role:         seed.role,
		}); err != nil {
			logg.Error(ctx, "failed to create user", err)
			os.Exit(1)
		}
		userCtx := logg.WithField(ctx, "username", seed.username)
		logg.Info(userCtx, "user created")
	}

	defaultSettings := map[string]string{
		"site_name":     "INFLUENCIANDO",
		"support_email": "suporte@influenciando.com",
		"webhook_url":   "",
	}
	for key, value := range defaultSettings {
		existing, err := settingsRepo.FindByKey(ctx, key)
		if err != nil {
			logg.Error(ctx, "failed to look up setting", err)
			os.Exit(1)
		}
		if existing != nil {
			continue
		}
		if _, err := settingsRepo.Upsert(ctx, key, value); err != nil {
			logg.Error(ctx, "failed to create setting", err)
			os.Exit(1)
		}
		settingCtx := logg.WithField(ctx, "key", key)
		logg.Info(settingCtx, "setting created")
	}

	logg.Info(ctx, "seed complete")
}
