package handlers

import (
	"time"

	"skynet-api/internal/models"
)

// Read projections. The camelCase renaming (idCliente, fechaProgramada,
// tipoVisita...) is a presentation concern of the legacy frontend and
// lives only in this file; everything below the handlers speaks the
// persisted snake_case vocabulary.

type usuarioResponse struct {
	ID                 uint       `json:"id"`
	Email              string     `json:"email"`
	Nombre             string     `json:"nombre"`
	Apellido           string     `json:"apellido"`
	NombreCompleto     string     `json:"nombre_completo"`
	Telefono           string     `json:"telefono"`
	Rol                models.Rol `json:"rol"`
	Activo             bool       `json:"activo"`
	FechaCreacion      time.Time  `json:"fecha_creacion"`
	FechaActualizacion time.Time  `json:"fecha_actualizacion"`
}

func serializeUsuario(u *models.Usuario) usuarioResponse {
	return usuarioResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Nombre:             u.Nombre,
		Apellido:           u.Apellido,
		NombreCompleto:     u.NombreCompleto(),
		Telefono:           u.Telefono,
		Rol:                u.Rol,
		Activo:             u.Activo,
		FechaCreacion:      u.FechaCreacion,
		FechaActualizacion: u.FechaActualizacion,
	}
}

type clienteResponse struct {
	IDCliente          uint               `json:"idCliente"`
	Nombre             string             `json:"nombre"`
	Contacto           string             `json:"contacto"`
	Telefono           string             `json:"telefono"`
	Email              string             `json:"email"`
	Direccion          string             `json:"direccion"`
	Latitud            *float64           `json:"latitud"`
	Longitud           *float64           `json:"longitud"`
	TipoCliente        models.TipoCliente `json:"tipoCliente"`
	Activo             bool               `json:"activo"`
	TieneCoordenadas   bool               `json:"tieneCoordenadas"`
	FechaCreacion      time.Time          `json:"fechaCreacion"`
	FechaActualizacion time.Time          `json:"fechaActualizacion"`
}

func serializeCliente(c *models.Cliente) clienteResponse {
	return clienteResponse{
		IDCliente:          c.ID,
		Nombre:             c.Nombre,
		Contacto:           c.Contacto,
		Telefono:           c.Telefono,
		Email:              c.Email,
		Direccion:          c.Direccion,
		Latitud:            c.Latitud,
		Longitud:           c.Longitud,
		TipoCliente:        c.TipoCliente,
		Activo:             c.Activo,
		TieneCoordenadas:   c.TieneCoordenadas(),
		FechaCreacion:      c.FechaCreacion,
		FechaActualizacion: c.FechaActualizacion,
	}
}

type ejecucionResponse struct {
	IDEjecucion     uint       `json:"idEjecucion"`
	VisitaID        uint       `json:"visitaId"`
	Descripcion     string     `json:"descripcion"`
	TiempoInicio    time.Time  `json:"tiempoInicio"`
	TiempoFin       *time.Time `json:"tiempoFin"`
	Completada      bool       `json:"completada"`
	Observaciones   string     `json:"observaciones"`
	EvidenciaFoto   string     `json:"evidenciaFoto"`
	DuracionMinutos *float64   `json:"duracionMinutos"`
	FechaCreacion   time.Time  `json:"fechaCreacion"`
}

func serializeEjecucion(e *models.Ejecucion) ejecucionResponse {
	return ejecucionResponse{
		IDEjecucion:     e.ID,
		VisitaID:        e.VisitaID,
		Descripcion:     e.Descripcion,
		TiempoInicio:    e.TiempoInicio,
		TiempoFin:       e.TiempoFin,
		Completada:      e.Completada,
		Observaciones:   e.Observaciones,
		EvidenciaFoto:   e.EvidenciaFoto,
		DuracionMinutos: e.DuracionMinutos(),
		FechaCreacion:   e.FechaCreacion,
	}
}

type visitaResponse struct {
	IDVisita           uint                `json:"idVisita"`
	ClienteID          uint                `json:"clienteId"`
	TecnicoID          uint                `json:"tecnicoId"`
	SupervisorID       *uint               `json:"supervisorId"`
	FechaProgramada    time.Time           `json:"fechaProgramada"`
	FechaInicio        *time.Time          `json:"fechaInicio"`
	FechaFin           *time.Time          `json:"fechaFin"`
	Estado             models.EstadoVisita `json:"estado"`
	TipoVisita         models.TipoVisita   `json:"tipoVisita"`
	Descripcion        string              `json:"descripcion"`
	Observaciones      string              `json:"observaciones"`
	Latitud            *float64            `json:"latitud"`
	Longitud           *float64            `json:"longitud"`
	DuracionMinutos    *float64            `json:"duracionMinutos"`
	TieneCoordenadas   bool                `json:"tieneCoordenadas"`
	FechaCreacion      time.Time           `json:"fechaCreacion"`
	FechaActualizacion time.Time           `json:"fechaActualizacion"`

	Cliente     *clienteResponse    `json:"cliente,omitempty"`
	Tecnico     *usuarioResponse    `json:"tecnico,omitempty"`
	Supervisor  *usuarioResponse    `json:"supervisor,omitempty"`
	Ejecuciones []ejecucionResponse `json:"ejecuciones"`
}

func serializeVisita(v *models.Visita) visitaResponse {
	resp := visitaResponse{
		IDVisita:           v.ID,
		ClienteID:          v.ClienteID,
		TecnicoID:          v.TecnicoID,
		SupervisorID:       v.SupervisorID,
		FechaProgramada:    v.FechaProgramada,
		FechaInicio:        v.FechaInicio,
		FechaFin:           v.FechaFin,
		Estado:             v.Estado,
		TipoVisita:         v.TipoVisita,
		Descripcion:        v.Descripcion,
		Observaciones:      v.Observaciones,
		Latitud:            v.Latitud,
		Longitud:           v.Longitud,
		DuracionMinutos:    v.DuracionMinutos(),
		TieneCoordenadas:   v.TieneCoordenadas(),
		FechaCreacion:      v.FechaCreacion,
		FechaActualizacion: v.FechaActualizacion,
		Ejecuciones:        []ejecucionResponse{},
	}

	if v.Cliente.ID != 0 {
		cliente := serializeCliente(&v.Cliente)
		resp.Cliente = &cliente
	}
	if v.Tecnico.ID != 0 {
		tecnico := serializeUsuario(&v.Tecnico)
		resp.Tecnico = &tecnico
	}
	if v.Supervisor != nil && v.Supervisor.ID != 0 {
		supervisor := serializeUsuario(v.Supervisor)
		resp.Supervisor = &supervisor
	}
	for i := range v.Ejecuciones {
		resp.Ejecuciones = append(resp.Ejecuciones, serializeEjecucion(&v.Ejecuciones[i]))
	}

	return resp
}

func serializeVisitas(visitas []models.Visita) []visitaResponse {
	out := make([]visitaResponse, 0, len(visitas))
	for i := range visitas {
		out = append(out, serializeVisita(&visitas[i]))
	}
	return out
}

func serializeClientes(clientes []models.Cliente) []clienteResponse {
	out := make([]clienteResponse, 0, len(clientes))
	for i := range clientes {
		out = append(out, serializeCliente(&clientes[i]))
	}
	return out
}

func serializeUsuarios(usuarios []models.Usuario) []usuarioResponse {
	out := make([]usuarioResponse, 0, len(usuarios))
	for i := range usuarios {
		out = append(out, serializeUsuario(&usuarios[i]))
	}
	return out
}

func serializeEjecuciones(ejecuciones []models.Ejecucion) []ejecucionResponse {
	out := make([]ejecucionResponse, 0, len(ejecuciones))
	for i := range ejecuciones {
		out = append(out, serializeEjecucion(&ejecuciones[i]))
	}
	return out
}
