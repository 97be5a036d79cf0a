package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitaIniciar(t *testing.T) {
	ahora := time.Now()

	v := Visita{Estado: EstadoProgramada}
	require.NoError(t, v.Iniciar(ahora))
	assert.Equal(t, EstadoEnProgreso, v.Estado)
	require.NotNil(t, v.FechaInicio)
	assert.Equal(t, ahora, *v.FechaInicio)

	for _, estado := range []EstadoVisita{EstadoEnProgreso, EstadoCompletada, EstadoCancelada, EstadoReprogramada} {
		v := Visita{Estado: estado}
		err := v.Iniciar(ahora)
		require.Error(t, err)
		assert.Equal(t, "Solo se pueden iniciar visitas programadas.", err.Error())
		assert.Equal(t, estado, v.Estado)
		assert.Nil(t, v.FechaInicio)
	}
}

func TestVisitaCompletar(t *testing.T) {
	ahora := time.Now()

	v := Visita{Estado: EstadoEnProgreso, Observaciones: "previas"}
	require.NoError(t, v.Completar(ahora, "todo en orden"))
	assert.Equal(t, EstadoCompletada, v.Estado)
	require.NotNil(t, v.FechaFin)
	assert.Equal(t, "todo en orden", v.Observaciones)

	v = Visita{Estado: EstadoEnProgreso, Observaciones: "previas"}
	require.NoError(t, v.Completar(ahora, ""))
	assert.Equal(t, "previas", v.Observaciones)

	for _, estado := range []EstadoVisita{EstadoProgramada, EstadoCompletada, EstadoCancelada, EstadoReprogramada} {
		v := Visita{Estado: estado}
		err := v.Completar(ahora, "")
		require.Error(t, err)
		assert.Equal(t, "Solo se pueden completar visitas en progreso.", err.Error())
	}
}

func TestVisitaCancelar(t *testing.T) {
	for _, estado := range []EstadoVisita{EstadoProgramada, EstadoEnProgreso, EstadoCancelada, EstadoReprogramada} {
		v := Visita{Estado: estado, Observaciones: "algo"}
		require.NoError(t, v.Cancelar("cliente ausente"))
		assert.Equal(t, EstadoCancelada, v.Estado)
		assert.Equal(t, "CANCELADA: cliente ausente", v.Observaciones)
	}

	v := Visita{Estado: EstadoCompletada}
	err := v.Cancelar("tarde")
	require.Error(t, err)
	assert.Equal(t, "No se pueden cancelar visitas completadas.", err.Error())
	assert.Equal(t, EstadoCompletada, v.Estado)
}

func TestVisitaPuedeTransicionar(t *testing.T) {
	casos := []struct {
		desde   EstadoVisita
		hasta   EstadoVisita
		permite bool
	}{
		{EstadoProgramada, EstadoEnProgreso, true},
		{EstadoProgramada, EstadoCancelada, true},
		{EstadoProgramada, EstadoCompletada, false},
		{EstadoEnProgreso, EstadoCompletada, true},
		{EstadoEnProgreso, EstadoCancelada, true},
		{EstadoEnProgreso, EstadoProgramada, false},
		{EstadoReprogramada, EstadoCancelada, true},
		{EstadoReprogramada, EstadoEnProgreso, false},
		{EstadoCancelada, EstadoCancelada, true},
		{EstadoCancelada, EstadoProgramada, false},
		{EstadoCompletada, EstadoCancelada, false},
		{EstadoCompletada, EstadoEnProgreso, false},
	}

	for _, c := range casos {
		v := Visita{Estado: c.desde}
		assert.Equal(t, c.permite, v.PuedeTransicionar(c.hasta), "%s -> %s", c.desde, c.hasta)
	}
}

func TestVisitaDuracionMinutos(t *testing.T) {
	v := Visita{}
	assert.Nil(t, v.DuracionMinutos())

	inicio := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	v.FechaInicio = &inicio
	assert.Nil(t, v.DuracionMinutos())

	fin := inicio.Add(90 * time.Minute)
	v.FechaFin = &fin
	d := v.DuracionMinutos()
	require.NotNil(t, d)
	assert.Equal(t, 90.0, *d)
}

func TestVisitaTieneCoordenadas(t *testing.T) {
	lat, lon := 14.6, -90.5

	assert.False(t, (&Visita{}).TieneCoordenadas())
	assert.False(t, (&Visita{Latitud: &lat}).TieneCoordenadas())
	assert.True(t, (&Visita{Latitud: &lat, Longitud: &lon}).TieneCoordenadas())
}

func TestTipoVisitaValido(t *testing.T) {
	for _, tipo := range []TipoVisita{VisitaMantenimiento, VisitaInstalacion, VisitaReparacion, VisitaInspeccion} {
		assert.True(t, TipoVisitaValido(tipo))
	}
	assert.False(t, TipoVisitaValido("EMERGENCIA"))
	assert.False(t, TipoVisitaValido(""))
}
