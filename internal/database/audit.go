package database

import (
	"skynet-api/internal/models"

	"gorm.io/gorm"
)

// CreateAuditLog records a mutation in the audit trail. Failures are
// swallowed: auditing must never fail the request.
func CreateAuditLog(db *gorm.DB, usuarioID uint, entidad string, entidadID uint, accion, detalles string) {
	if db == nil {
		return
	}
	record := models.AuditLog{
		UsuarioID: usuarioID,
		Entidad:   entidad,
		EntidadID: entidadID,
		Accion:    accion,
		Detalles:  detalles,
	}
	_ = db.Create(&record).Error
}
