// Package main provides idempotent data seeding: built-in roles, the intake
// account that public submissions run under, and the default settings.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/config"
	"github.com/laporkota/laporkota/internal/domain"
	"github.com/laporkota/laporkota/internal/infrastructure"
	"github.com/laporkota/laporkota/internal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(ctx); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	logger.Info("Starting data seeding...")

	if err := seedBuiltInRoles(ctx, db.Gorm); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := seedIntakeUser(ctx, db.Gorm); err != nil {
		return fmt.Errorf("seed intake user: %w", err)
	}
	if err := seedDefaultSettings(ctx, db.Gorm); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	logger.Info("Data seeding completed successfully")
	return nil
}

// builtInRole defines a built-in role for seeding.
type builtInRole struct {
	Name        string
	Description string
	Permissions domain.BoolMap
}

func builtInRoles() []builtInRole {
	return []builtInRole{
		{
			Name:        "admin",
			Description: "Full administrative access",
			Permissions: domain.BoolMap{
				domain.PermComplaintVerify:    true,
				domain.PermComplaintAssign:    true,
				domain.PermComplaintWork:      true,
				domain.PermComplaintResolve:   true,
				domain.PermComplaintReject:    true,
				domain.PermComplaintHandle:    true,
				domain.PermReportVerify:       true,
				domain.PermReportAssign:       true,
				domain.PermReportSchedule:     true,
				domain.PermReportWork:         true,
				domain.PermReportComplete:     true,
				domain.PermReportHandle:       true,
				domain.PermNewsManage:         true,
				domain.PermAnnouncementManage: true,
				domain.PermSettingsManage:     true,
				domain.PermMediaManage:        true,
				domain.PermUsersManage:        true,
				domain.PermRolesManage:        true,
				domain.PermAuditView:          true,
			},
		},
		{
			Name:        "petugas",
			Description: "Field officer handling assigned work",
			Permissions: domain.BoolMap{
				domain.PermComplaintWork:    true,
				domain.PermComplaintResolve: true,
				domain.PermComplaintHandle:  true,
				domain.PermReportWork:       true,
				domain.PermReportComplete:   true,
				domain.PermReportHandle:     true,
			},
		},
		{
			Name:        "viewer",
			Description: "Read-only access",
			Permissions: domain.BoolMap{},
		},
	}
}

func seedBuiltInRoles(ctx context.Context, db *gorm.DB) error {
	for _, def := range builtInRoles() {
		var existing domain.Role
		err := db.WithContext(ctx).Where("name = ?", def.Name).First(&existing).Error
		switch {
		case err == nil:
			logger.Debug("Role already present", zap.String("name", def.Name))
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
			desc := def.Description
			role := domain.Role{
				Name:        def.Name,
				Description: &desc,
				Permissions: def.Permissions,
			}
			if err := db.WithContext(ctx).Create(&role).Error; err != nil {
				return fmt.Errorf("create role %s: %w", def.Name, err)
			}
			logger.Info("Seeded role", zap.String("name", def.Name))
		default:
			return fmt.Errorf("look up role %s: %w", def.Name, err)
		}
	}
	return nil
}

// seedIntakeUser creates the account that public complaint and report
// submissions run under. It holds no workflow permissions; it exists so the
// creation history entry always has an acting user.
func seedIntakeUser(ctx context.Context, db *gorm.DB) error {
	const intakeEmail = "intake@laporkota.go.id"

	var existing domain.User
	err := db.WithContext(ctx).Where("email = ?", intakeEmail).First(&existing).Error
	if err == nil {
		logger.Debug("Intake user already present")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up intake user: %w", err)
	}

	var viewer domain.Role
	if err := db.WithContext(ctx).Where("name = ?", "viewer").First(&viewer).Error; err != nil {
		return fmt.Errorf("look up viewer role: %w", err)
	}

	user := domain.User{
		Name:     "Layanan Pengaduan",
		Email:    intakeEmail,
		NIK:      "0000000000000000",
		IsActive: true,
		RoleID:   viewer.ID,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("create intake user: %w", err)
	}
	logger.Info("Seeded intake user", zap.Int64("id", user.ID))
	return nil
}

func seedDefaultSettings(ctx context.Context, db *gorm.DB) error {
	defaults := []domain.Setting{
		{Key: "site.name", Value: "LaporKota", IsPublic: true},
		{Key: "site.contact_email", Value: "kontak@laporkota.go.id", IsPublic: true},
		{Key: "complaints.max_photos", Value: "5", IsPublic: true},
		{Key: "reports.max_photos", Value: "5", IsPublic: true},
	}

	for _, def := range defaults {
		var existing domain.Setting
		err := db.WithContext(ctx).Where("key = ?", def.Key).First(&existing).Error
		switch {
		case err == nil:
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.WithContext(ctx).Create(&def).Error; err != nil {
				return fmt.Errorf("create setting %s: %w", def.Key, err)
			}
			logger.Info("Seeded setting", zap.String("key", def.Key))
		default:
			return fmt.Errorf("look up setting %s: %w", def.Key, err)
		}
	}
	return nil
}
