package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"skynet-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeVisitaSinPreloads(t *testing.T) {
	v := models.Visita{
		ID:              10,
		ClienteID:       2,
		TecnicoID:       5,
		FechaProgramada: time.Now(),
		Estado:          models.EstadoProgramada,
		TipoVisita:      models.VisitaMantenimiento,
		Descripcion:     "Revisión de antena",
	}

	resp := serializeVisita(&v)
	assert.Nil(t, resp.Cliente)
	assert.Nil(t, resp.Tecnico)
	assert.Nil(t, resp.Supervisor)
	assert.Nil(t, resp.DuracionMinutos)

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"ejecuciones":[]`)
	assert.NotContains(t, string(out), `"cliente"`)
}

func TestSerializeVisitaCompleta(t *testing.T) {
	inicio := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	fin := inicio.Add(2 * time.Hour)
	supervisor := models.Usuario{ID: 7, Nombre: "Sofía", Apellido: "Ruiz", Rol: models.RolSupervisor}
	supervisorID := supervisor.ID

	v := models.Visita{
		ID:              10,
		ClienteID:       2,
		Cliente:         models.Cliente{ID: 2, Nombre: "Tienda La Bendición"},
		TecnicoID:       5,
		Tecnico:         models.Usuario{ID: 5, Nombre: "Juan", Apellido: "Pérez", Rol: models.RolTecnico},
		SupervisorID:    &supervisorID,
		Supervisor:      &supervisor,
		FechaProgramada: inicio,
		FechaInicio:     &inicio,
		FechaFin:        &fin,
		Estado:          models.EstadoCompletada,
		TipoVisita:      models.VisitaReparacion,
		Descripcion:     "Cambio de router",
		Ejecuciones: []models.Ejecucion{
			{ID: 1, VisitaID: 10, Descripcion: "Diagnóstico", TiempoInicio: inicio},
		},
	}

	resp := serializeVisita(&v)
	require.NotNil(t, resp.Cliente)
	assert.Equal(t, uint(2), resp.Cliente.IDCliente)
	require.NotNil(t, resp.Tecnico)
	assert.Equal(t, "Juan Pérez", resp.Tecnico.NombreCompleto)
	require.NotNil(t, resp.Supervisor)
	assert.Len(t, resp.Ejecuciones, 1)

	require.NotNil(t, resp.DuracionMinutos)
	assert.Equal(t, 120.0, *resp.DuracionMinutos)
}

func TestSerializeUsuarioCampos(t *testing.T) {
	u := models.Usuario{
		ID: 5, Email: "tec@skynet.gt", Nombre: "Juan", Apellido: "Pérez",
		Rol: models.RolTecnico, Activo: true,
	}

	out, err := json.Marshal(serializeUsuario(&u))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"nombre_completo":"Juan Pérez"`)
	assert.Contains(t, string(out), `"rol":"TECNICO"`)
	assert.NotContains(t, string(out), "password")
}
