package models

import "time"

// Ejecucion is a timestamped work-log entry nested under a visit.
type Ejecucion struct {
	ID uint `gorm:"primaryKey"`

	VisitaID uint `gorm:"not null;index"`
	Visita   Visita

	Descripcion  string     `gorm:"type:text;not null"`
	TiempoInicio time.Time  `gorm:"not null"`
	TiempoFin    *time.Time
	Completada   bool       `gorm:"not null;default:false"`

	Observaciones string `gorm:"type:text"`
	EvidenciaFoto string `gorm:"size:500"`

	FechaCreacion      time.Time `gorm:"autoCreateTime"`
	FechaActualizacion time.Time `gorm:"autoUpdateTime"`
}

func (Ejecucion) TableName() string { return "ejecuciones" }

func (e *Ejecucion) DuracionMinutos() *float64 {
	if e.TiempoFin == nil {
		return nil
	}
	min := e.TiempoFin.Sub(e.TiempoInicio).Minutes()
	return &min
}

// Completar marks the execution finished and stamps the end time.
func (e *Ejecucion) Completar(ahora time.Time, observaciones string) {
	e.Completada = true
	e.TiempoFin = &ahora
	if observaciones != "" {
		e.Observaciones = observaciones
	}
}
