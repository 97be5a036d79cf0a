package models

import "time"

type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	UsuarioID uint   `gorm:"index"`
	Entidad   string `gorm:"size:50;not null"`
	EntidadID uint
	Accion    string `gorm:"size:50;not null"`
	Detalles  string `gorm:"type:text"`

	FechaCreacion time.Time `gorm:"autoCreateTime"`
}

func (AuditLog) TableName() string { return "audit_logs" }
