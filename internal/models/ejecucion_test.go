package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEjecucionCompletar(t *testing.T) {
	inicio := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	fin := inicio.Add(45 * time.Minute)

	e := Ejecucion{TiempoInicio: inicio, Observaciones: "previas"}
	assert.Nil(t, e.DuracionMinutos())

	e.Completar(fin, "listo")
	assert.True(t, e.Completada)
	require.NotNil(t, e.TiempoFin)
	assert.Equal(t, "listo", e.Observaciones)

	d := e.DuracionMinutos()
	require.NotNil(t, d)
	assert.Equal(t, 45.0, *d)

	e2 := Ejecucion{TiempoInicio: inicio, Observaciones: "previas"}
	e2.Completar(fin, "")
	assert.Equal(t, "previas", e2.Observaciones)
}
