package database

import (
	"fmt"
	"log/slog"
	"time"

	"vulnsphere/internal/config"
	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init подключается к БД с повторами, прогоняет миграции и создаёт админа.
func Init(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.DBDriver, cfg.DBDSN, cfg.DBMaxAttempts)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	createDefaultAdmin(db, cfg)

	DB = db
	return db, nil
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func Open(driver, dsn string, maxAttempts int) (*gorm.DB, error) {
	dial, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	for i := 1; i <= maxAttempts; i++ {
		slog.Info("trying to connect to DB", "driver", driver, "attempt", i, "max_attempts", maxAttempts)

		db, err = gorm.Open(dial, &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			slog.Info("connected to DB successfully")
			return db, nil
		}

		slog.Warn("failed to connect to DB", "error", err)
		if i < maxAttempts {
			time.Sleep(2 * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to connect to db after %d attempts: %w", maxAttempts, err)
}

// миграции
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Asset{},
		&models.Project{},
		&models.ProjectAsset{},
		&models.Vulnerability{},
		&models.VulnerabilityAsset{},
		&models.Retest{},
		&models.Comment{},
		&models.Attachment{},
		&models.VulnerabilityTemplate{},
		&models.ActivityLog{},
		&models.ReportTemplate{},
		&models.GeneratedReport{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// админ только из кода/конфига
func createDefaultAdmin(db *gorm.DB, cfg *config.Config) {
	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		slog.Error("failed to check admin user", "error", err)
		return
	}
	if count > 0 {
		// админ уже есть — ничего не делаем
		return
	}

	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		password = uuid.NewString()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash default admin password", "error", err)
		return
	}

	admin := models.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	if err := db.Create(&admin).Error; err != nil {
		slog.Error("failed to create default admin", "error", err)
		return
	}

	if generated {
		slog.Warn("created default admin user with generated password", "username", admin.Username, "password", password)
		return
	}
	slog.Info("created default admin user", "username", admin.Username)
}
