package database

import (
	"fmt"
	"time"

	"skynet-api/internal/config"
	"skynet-api/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects with a bounded retry loop, runs migrations and seeds the
// bootstrap administrator when configured.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Info("trying to connect to DB", zap.Int("attempt", i), zap.Int("max", maxAttempts))

		db, err = gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
		if err == nil {
			log.Info("connected to DB successfully")
			break
		}

		log.Warn("failed to connect to DB", zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", maxAttempts, err)
	}

	if err := db.AutoMigrate(
		&models.Usuario{},
		&models.Cliente{},
		&models.Visita{},
		&models.Ejecucion{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seedAdmin(db, cfg, log)

	return db, nil
}

// seedAdmin creates the configured administrator only when no
// ADMINISTRADOR exists yet.
func seedAdmin(db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}

	var count int64
	if err := db.Model(&models.Usuario{}).
		Where("rol = ?", models.RolAdministrador).
		Count(&count).Error; err != nil {
		log.Warn("failed to check admin user", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	admin := models.Usuario{
		Email:       cfg.AdminEmail,
		Nombre:      "Admin",
		Apellido:    "Sistema",
		Rol:         models.RolAdministrador,
		Activo:      true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		log.Warn("failed to hash admin password", zap.Error(err))
		return
	}

	if err := db.Create(&admin).Error; err != nil {
		log.Warn("failed to create admin user", zap.Error(err))
		return
	}

	log.Info("created bootstrap admin user", zap.String("email", admin.Email))
}
