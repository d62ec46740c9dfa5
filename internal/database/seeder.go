// internal/database/seeder.go
package database

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"military-logistics-api-server/config"
	"military-logistics-api-server/internal/auth"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeedAdmin creates the configured Admin account unless an Admin already
// exists. An empty email or password disables seeding.
func SeedAdmin(ctx context.Context, users store.Collection[models.User], cfg config.SeedConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		slog.Info("Admin seeding disabled")
		return nil
	}

	count, err := users.Count(ctx, store.Eq("role", rbac.RoleAdmin))
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("Admin already exists. Seeding skipped.")
		return nil
	}

	slog.Info("Admin not found. Seeding...", "email", email)
	hashedPassword, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:           primitive.NewObjectID(),
		FirstName:    "System",
		LastName:     "Administrator",
		Email:        email,
		PasswordHash: hashedPassword,
		Rank:         "General",
		Role:         rbac.RoleAdmin,
		Department:   "Operations",
		Base:         rbac.Headquarters,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Insert(ctx, admin); err != nil {
		return err
	}

	slog.Info("Admin seeded successfully.", "id", admin.ID.Hex())
	return nil
}
