package models

// Flat permission model: three roles, no inheritance. Each protected
// operation names its own allow-list; ownership checks are separate
// predicates over (actor, resource).

type Capacidad string

const (
	CapCrearClientes      Capacidad = "clientes.crear"
	CapActualizarClientes Capacidad = "clientes.actualizar"
	CapEliminarClientes   Capacidad = "clientes.eliminar"
	CapCrearVisitas       Capacidad = "visitas.crear"
	CapActualizarVisitas  Capacidad = "visitas.actualizar"
	CapEliminarVisitas    Capacidad = "visitas.eliminar"
	CapExportarVisitas    Capacidad = "visitas.exportar"
	CapGestionarUsuarios  Capacidad = "usuarios.gestionar"
)

var capacidadesPorRol = map[Capacidad][]Rol{
	CapCrearClientes:      {RolAdministrador, RolSupervisor},
	CapActualizarClientes: {RolAdministrador, RolSupervisor},
	CapEliminarClientes:   {RolAdministrador},
	CapCrearVisitas:       {RolAdministrador, RolSupervisor},
	CapActualizarVisitas:  {RolAdministrador, RolSupervisor},
	CapEliminarVisitas:    {RolAdministrador},
	CapExportarVisitas:    {RolAdministrador, RolSupervisor},
	CapGestionarUsuarios:  {RolAdministrador},
}

func (u *Usuario) Tiene(c Capacidad) bool {
	for _, rol := range capacidadesPorRol[c] {
		if u.Rol == rol {
			return true
		}
	}
	return false
}

// PuedeVerVisita: technicians see only visits assigned to them,
// supervisors only visits they supervise, administrators everything.
func (u *Usuario) PuedeVerVisita(v *Visita) bool {
	switch u.Rol {
	case RolAdministrador:
		return true
	case RolSupervisor:
		return v.SupervisorID != nil && *v.SupervisorID == u.ID
	case RolTecnico:
		return v.TecnicoID == u.ID
	}
	return false
}

// EsTecnicoAsignado gates start/complete and all execution mutations.
func (u *Usuario) EsTecnicoAsignado(v *Visita) bool {
	return v.TecnicoID == u.ID
}

// PuedeCancelarVisita: the assigned technician, any supervisor or any
// administrator may cancel.
func (u *Usuario) PuedeCancelarVisita(v *Visita) bool {
	return u.EsTecnicoAsignado(v) || u.EsAdministrador() || u.EsSupervisor()
}
