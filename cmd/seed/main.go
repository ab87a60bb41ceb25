package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/internal/repository"
	"github.com/noah-isme/courseflow-api/internal/service"
	"github.com/noah-isme/courseflow-api/pkg/config"
	"github.com/noah-isme/courseflow-api/pkg/database"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/logger"
	"github.com/noah-isme/courseflow-api/pkg/validation"
)

const (
	adminMatric          = "ADMIN001"
	adminEmail           = "admin@courseflow.edu"
	adminName            = "System Administrator"
	defaultAdminPassword = "admin123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to apply schema", zap.Error(err))
	}
	if err := seed(ctx, logr, repository.NewUserRepository(db, nil), repository.NewVerificationCodeRepository(db, nil)); err != nil {
		logr.Fatal("seeding failed", zap.Error(err))
	}
	logr.Info("seeding completed", zap.String("admin", adminEmail))
}

func seed(ctx context.Context, logr *zap.Logger, users *repository.UserRepository, codes *repository.VerificationCodeRepository) error {
	validate := validation.New()

	admin, err := users.FindByEmail(ctx, adminEmail)
	switch {
	case err == nil:
		logr.Info("admin user exists", zap.String("id", admin.ID))
	case isNotFound(err):
		password := os.Getenv("SEED_ADMIN_PASSWORD")
		if password == "" {
			password = defaultAdminPassword
		}
		name := adminName
		admin, err = service.NewUserService(users, validate, logr).Create(ctx, models.CreateUserRequest{
			MatricNO: adminMatric,
			Email:    adminEmail,
			Password: password,
			Name:     &name,
			Role:     models.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		logr.Info("admin user created", zap.String("id", admin.ID))
	default:
		return fmt.Errorf("lookup admin: %w", err)
	}

	codeService := service.NewVerificationCodeService(codes, validate, logr)
	actorCtx := service.WithActor(ctx, admin.ID)
	for _, req := range defaultCodes(time.Now().UTC()) {
		if _, err := codes.FindByCode(ctx, req.Code); err == nil {
			logr.Info("verification code exists", zap.String("code", req.Code))
			continue
		} else if !isNotFound(err) {
			return fmt.Errorf("lookup code %s: %w", req.Code, err)
		}
		if _, err := codeService.Create(actorCtx, req); err != nil {
			return fmt.Errorf("create code %s: %w", req.Code, err)
		}
		logr.Info("verification code created", zap.String("code", req.Code), zap.String("role", string(req.Role)))
	}
	return nil
}

// defaultCodes returns the unlimited admin code and the two lecturer codes that expire at year end.
func defaultCodes(now time.Time) []models.CreateVerificationCodeRequest {
	year := now.Year()
	yearEnd := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	text := func(s string) *string { return &s }
	limit := func(n int) *int { return &n }
	return []models.CreateVerificationCodeRequest{
		{
			Code:        fmt.Sprintf("ADMIN-%d-MASTER", year),
			Role:        models.RoleAdmin,
			Description: text(fmt.Sprintf("Master admin verification code for %d", year)),
		},
		{
			Code:        fmt.Sprintf("LECTURER-CS-%d", year),
			Role:        models.RoleLecturer,
			Description: text("Computer Science lecturer verification code"),
			MaxUsage:    limit(10),
			ExpiresAt:   &yearEnd,
		},
		{
			Code:        fmt.Sprintf("LECTURER-MATH-%d", year),
			Role:        models.RoleLecturer,
			Description: text("Mathematics lecturer verification code"),
			MaxUsage:    limit(5),
			ExpiresAt:   &yearEnd,
		},
	}
}

func isNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var appErr *appErrors.Error
	return errors.As(err, &appErr) && appErr.Status == http.StatusNotFound
}
