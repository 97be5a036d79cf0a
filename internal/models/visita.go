package models

import (
	"fmt"
	"time"
)

type EstadoVisita string

const (
	EstadoProgramada   EstadoVisita = "PROGRAMADA"
	EstadoEnProgreso   EstadoVisita = "EN_PROGRESO"
	EstadoCompletada   EstadoVisita = "COMPLETADA"
	EstadoCancelada    EstadoVisita = "CANCELADA"
	EstadoReprogramada EstadoVisita = "REPROGRAMADA"
)

type TipoVisita string

const (
	VisitaMantenimiento TipoVisita = "MANTENIMIENTO"
	VisitaInstalacion   TipoVisita = "INSTALACION"
	VisitaReparacion    TipoVisita = "REPARACION"
	VisitaInspeccion    TipoVisita = "INSPECCION"
)

func TipoVisitaValido(t TipoVisita) bool {
	switch t {
	case VisitaMantenimiento, VisitaInstalacion, VisitaReparacion, VisitaInspeccion:
		return true
	}
	return false
}

func EstadoVisitaValido(e EstadoVisita) bool {
	switch e {
	case EstadoProgramada, EstadoEnProgreso, EstadoCompletada, EstadoCancelada, EstadoReprogramada:
		return true
	}
	return false
}

// Transition table for the visit lifecycle. COMPLETADA is terminal;
// cancelling an already-cancelled visit is a legal no-op transition.
var transicionesVisita = map[EstadoVisita][]EstadoVisita{
	EstadoProgramada:   {EstadoEnProgreso, EstadoCancelada},
	EstadoEnProgreso:   {EstadoCompletada, EstadoCancelada},
	EstadoReprogramada: {EstadoCancelada},
	EstadoCancelada:    {EstadoCancelada},
	EstadoCompletada:   {},
}

type Visita struct {
	ID uint `gorm:"primaryKey"`

	ClienteID uint `gorm:"not null;index"`
	Cliente   Cliente

	TecnicoID uint `gorm:"not null;index"`
	Tecnico   Usuario

	SupervisorID *uint
	Supervisor   *Usuario

	FechaProgramada time.Time  `gorm:"not null;index"`
	FechaInicio     *time.Time
	FechaFin        *time.Time

	Estado     EstadoVisita `gorm:"type:varchar(20);not null;default:'PROGRAMADA'"`
	TipoVisita TipoVisita   `gorm:"type:varchar(20);not null"`

	Descripcion   string `gorm:"type:text;not null"`
	Observaciones string `gorm:"type:text"`

	Latitud  *float64 `gorm:"type:numeric(10,8)"`
	Longitud *float64 `gorm:"type:numeric(11,8)"`

	Ejecuciones []Ejecucion

	FechaCreacion      time.Time `gorm:"autoCreateTime"`
	FechaActualizacion time.Time `gorm:"autoUpdateTime"`
}

func (Visita) TableName() string { return "visitas" }

func (v *Visita) PuedeTransicionar(destino EstadoVisita) bool {
	for _, e := range transicionesVisita[v.Estado] {
		if e == destino {
			return true
		}
	}
	return false
}

func (v *Visita) EstaProgramada() bool { return v.Estado == EstadoProgramada }
func (v *Visita) EstaEnProgreso() bool { return v.Estado == EstadoEnProgreso }
func (v *Visita) EstaCompletada() bool { return v.Estado == EstadoCompletada }
func (v *Visita) EstaCancelada() bool  { return v.Estado == EstadoCancelada }

func (v *Visita) TieneCoordenadas() bool {
	return v.Latitud != nil && v.Longitud != nil
}

// DuracionMinutos is derived; nil until both timestamps exist.
func (v *Visita) DuracionMinutos() *float64 {
	if v.FechaInicio == nil || v.FechaFin == nil {
		return nil
	}
	min := v.FechaFin.Sub(*v.FechaInicio).Minutes()
	return &min
}

// Iniciar moves PROGRAMADA -> EN_PROGRESO and stamps the start time.
func (v *Visita) Iniciar(ahora time.Time) error {
	if !v.EstaProgramada() || !v.PuedeTransicionar(EstadoEnProgreso) {
		return &TransicionError{Mensaje: "Solo se pueden iniciar visitas programadas."}
	}
	v.Estado = EstadoEnProgreso
	v.FechaInicio = &ahora
	return nil
}

// Completar moves EN_PROGRESO -> COMPLETADA and stamps the end time.
func (v *Visita) Completar(ahora time.Time, observaciones string) error {
	if !v.EstaEnProgreso() || !v.PuedeTransicionar(EstadoCompletada) {
		return &TransicionError{Mensaje: "Solo se pueden completar visitas en progreso."}
	}
	v.Estado = EstadoCompletada
	v.FechaFin = &ahora
	if observaciones != "" {
		v.Observaciones = observaciones
	}
	return nil
}

// Cancelar is legal from any state except COMPLETADA. The observations
// field is overwritten with the cancellation marker.
func (v *Visita) Cancelar(motivo string) error {
	if v.EstaCompletada() {
		return &TransicionError{Mensaje: "No se pueden cancelar visitas completadas."}
	}
	v.Estado = EstadoCancelada
	if motivo != "" {
		v.Observaciones = fmt.Sprintf("CANCELADA: %s", motivo)
	}
	return nil
}
