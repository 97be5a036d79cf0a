package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"skynet-api/internal/database"
	"skynet-api/internal/httpapi"
	"skynet-api/internal/middleware"
	"skynet-api/internal/models"
	"skynet-api/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type VisitaHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewVisitaHandler(db *gorm.DB, log *zap.Logger) *VisitaHandler {
	return &VisitaHandler{db: db, log: log}
}

func (h *VisitaHandler) List(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	query := h.db.Model(&models.Visita{}).
		Preload("Cliente").Preload("Tecnico").Preload("Supervisor").Preload("Ejecuciones")
	query = visibilidadVisitas(query, usuario)

	if estado := c.Query("estado"); estado != "" {
		query = query.Where("estado = ?", estado)
	}
	if tipo := c.Query("tipo_visita"); tipo != "" {
		query = query.Where("tipo_visita = ?", tipo)
	}
	if tecnicoID := c.Query("tecnico_id"); tecnicoID != "" {
		query = query.Where("tecnico_id = ?", tecnicoID)
	}
	if clienteID := c.Query("cliente_id"); clienteID != "" {
		query = query.Where("cliente_id = ?", clienteID)
	}
	if desde := c.Query("fecha_desde"); desde != "" {
		if fecha, err := time.Parse("2006-01-02", desde); err == nil {
			query = query.Where("DATE(fecha_programada) >= ?", fecha.Format("2006-01-02"))
		}
	}
	if hasta := c.Query("fecha_hasta"); hasta != "" {
		if fecha, err := time.Parse("2006-01-02", hasta); err == nil {
			query = query.Where("DATE(fecha_programada) <= ?", fecha.Format("2006-01-02"))
		}
	}

	var visitas []models.Visita
	if err := query.Order("fecha_programada desc").Find(&visitas).Error; err != nil {
		h.log.Error("failed to list visits", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al obtener visitas", nil)
		return
	}

	httpapi.OK(c, serializeVisitas(visitas), "Visitas obtenidas exitosamente")
}

func visibilidadVisitas(query *gorm.DB, usuario *models.Usuario) *gorm.DB {
	switch usuario.Rol {
	case models.RolTecnico:
		return query.Where("tecnico_id = ?", usuario.ID)
	case models.RolSupervisor:
		return query.Where("supervisor_id = ?", usuario.ID)
	}
	return query
}

type visitaCreateRequest struct {
	Cliente         uint              `json:"cliente"`
	Tecnico         uint              `json:"tecnico"`
	Supervisor      *uint             `json:"supervisor"`
	FechaProgramada time.Time         `json:"fecha_programada"`
	TipoVisita      models.TipoVisita `json:"tipo_visita"`
	Descripcion     string            `json:"descripcion"`
	Observaciones   string            `json:"observaciones"`
	Latitud         *float64          `json:"latitud"`
	Longitud        *float64          `json:"longitud"`
}

var errConflictoAgenda = errors.New("conflicto de agenda")

func (h *VisitaHandler) Create(c *gin.Context) {
	usuario := middleware.CurrentUser(c)
	if !usuario.Tiene(models.CapCrearVisitas) {
		httpapi.Error(c, http.StatusForbidden, "No tienes permisos para crear visitas",
			[]string{"Solo administradores y supervisores pueden crear visitas"})
		return
	}

	var req visitaCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación",
			[]string{"Datos inválidos."})
		return
	}

	errs := validation.Errors{}

	var cliente models.Cliente
	if err := h.db.First(&cliente, req.Cliente).Error; err != nil {
		errs.Add("cliente", "El cliente no existe.")
	} else if !cliente.Activo {
		errs.Add("cliente", "No se pueden crear visitas para clientes inactivos.")
	}

	var tecnico models.Usuario
	if err := h.db.First(&tecnico, req.Tecnico).Error; err != nil {
		errs.Add("tecnico", "El técnico no existe.")
	} else {
		if !tecnico.EsTecnico() {
			errs.Add("tecnico", "Solo se pueden asignar usuarios con rol TECNICO.")
		}
		if !tecnico.Activo {
			errs.Add("tecnico", "No se puede asignar un técnico inactivo.")
		}
	}

	if req.Supervisor != nil {
		var supervisor models.Usuario
		if err := h.db.First(&supervisor, *req.Supervisor).Error; err != nil {
			errs.Add("supervisor", "El supervisor no existe.")
		} else {
			if !supervisor.EsSupervisor() {
				errs.Add("supervisor", "Solo se pueden asignar usuarios con rol SUPERVISOR.")
			}
			if !supervisor.Activo {
				errs.Add("supervisor", "No se puede asignar un supervisor inactivo.")
			}
		}
	}

	if req.FechaProgramada.IsZero() || req.FechaProgramada.Before(time.Now()) {
		errs.Add("fecha_programada", "No se pueden programar visitas en fechas pasadas.")
	}
	if !models.TipoVisitaValido(req.TipoVisita) {
		errs.Add("tipo_visita", "Tipo de visita inválido.")
	}
	if strings.TrimSpace(req.Descripcion) == "" {
		errs.Add("descripcion", "La descripción es requerida.")
	}
	validation.ValidarCoordenadas(req.Latitud, req.Longitud, errs)

	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}

	visita := models.Visita{
		ClienteID:       req.Cliente,
		TecnicoID:       req.Tecnico,
		SupervisorID:    req.Supervisor,
		FechaProgramada: req.FechaProgramada,
		Estado:          models.EstadoProgramada,
		TipoVisita:      req.TipoVisita,
		Descripcion:     strings.TrimSpace(req.Descripcion),
		Observaciones:   req.Observaciones,
		Latitud:         req.Latitud,
		Longitud:        req.Longitud,
	}

	// Conflict check and insert run in one transaction so two concurrent
	// requests cannot both pass the check and commit.
	err := h.db.Transaction(func(tx *gorm.DB) error {
		conflicto, err := hayConflictoAgenda(tx, req.Tecnico, req.FechaProgramada, 0)
		if err != nil {
			return err
		}
		if conflicto {
			return errConflictoAgenda
		}
		return tx.Create(&visita).Error
	})
	if errors.Is(err, errConflictoAgenda) {
		errs.Add("tecnico", fmt.Sprintf("El técnico ya tiene visitas programadas para %s.",
			req.FechaProgramada.Format("2006-01-02")))
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}
	if err != nil {
		h.log.Error("failed to create visit", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar la visita", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "visita", visita.ID, "create",
		fmt.Sprintf("Creada visita %d para cliente %d", visita.ID, visita.ClienteID))

	h.db.Preload("Cliente").Preload("Tecnico").Preload("Supervisor").Preload("Ejecuciones").
		First(&visita, visita.ID)

	httpapi.Created(c, serializeVisita(&visita), "Visita creada exitosamente")
}

// decodeSupervisor distinguishes an absent supervisor field from an
// explicit null, which clears the assignment.
func decodeSupervisor(raw json.RawMessage) (*uint, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if string(raw) == "null" {
		return nil, true, nil
	}
	var id uint
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, true, err
	}
	return &id, true, nil
}

// The double-booking rule is an exact calendar-date match on the scheduled
// timestamp, against SCHEDULED and IN-PROGRESS visits only.
func hayConflictoAgenda(tx *gorm.DB, tecnicoID uint, fecha time.Time, excludeID uint) (bool, error) {
	var count int64
	query := tx.Model(&models.Visita{}).
		Where("tecnico_id = ?", tecnicoID).
		Where("DATE(fecha_programada) = ?", fecha.Format("2006-01-02")).
		Where("estado IN ?", []models.EstadoVisita{models.EstadoProgramada, models.EstadoEnProgreso})
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (h *VisitaHandler) Detail(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	visita, ok := h.buscarVisita(c, true)
	if !ok {
		return
	}

	if !usuario.PuedeVerVisita(visita) {
		httpapi.Error(c, http.StatusForbidden, "No tienes permisos para ver esta visita",
			[]string{"Solo puedes ver tus propias visitas"})
		return
	}

	httpapi.OK(c, serializeVisita(visita), "Visita obtenida exitosamente")
}

type visitaUpdateRequest struct {
	Tecnico         *uint              `json:"tecnico"`
	Supervisor      json.RawMessage    `json:"supervisor"`
	FechaProgramada *time.Time         `json:"fecha_programada"`
	TipoVisita      *models.TipoVisita `json:"tipo_visita"`
	Descripcion     *string            `json:"descripcion"`
	Observaciones   *string            `json:"observaciones"`
	Latitud         *float64           `json:"latitud"`
	Longitud        *float64           `json:"longitud"`
}

func (h *VisitaHandler) Update(c *gin.Context) {
	usuario := middleware.CurrentUser(c)
	if !usuario.Tiene(models.CapActualizarVisitas) {
		httpapi.Error(c, http.StatusForbidden, "No tienes permisos para actualizar visitas",
			[]string{"Solo administradores y supervisores pueden actualizar visitas"})
		return
	}

	visita, ok := h.buscarVisita(c, false)
	if !ok {
		return
	}

	var req visitaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación",
			[]string{"Datos inválidos."})
		return
	}

	errs := validation.Errors{}
	agendaCambia := false

	if req.Tecnico != nil && *req.Tecnico != visita.TecnicoID {
		if visita.EstaEnProgreso() || visita.EstaCompletada() {
			errs.Add("tecnico", "No se puede cambiar el técnico de una visita en progreso o completada.")
		} else {
			var tecnico models.Usuario
			if err := h.db.First(&tecnico, *req.Tecnico).Error; err != nil {
				errs.Add("tecnico", "El técnico no existe.")
			} else {
				if !tecnico.EsTecnico() {
					errs.Add("tecnico", "Solo se pueden asignar usuarios con rol TECNICO.")
				}
				if !tecnico.Activo {
					errs.Add("tecnico", "No se puede asignar un técnico inactivo.")
				}
			}
			if _, tiene := errs["tecnico"]; !tiene {
				visita.TecnicoID = *req.Tecnico
				agendaCambia = true
			}
		}
	}

	if supervisorID, presente, errDecode := decodeSupervisor(req.Supervisor); presente {
		switch {
		case errDecode != nil:
			errs.Add("supervisor", "Supervisor inválido.")
		case supervisorID == nil:
			visita.SupervisorID = nil
			visita.Supervisor = nil
		default:
			var supervisor models.Usuario
			if err := h.db.First(&supervisor, *supervisorID).Error; err != nil {
				errs.Add("supervisor", "El supervisor no existe.")
			} else {
				if !supervisor.EsSupervisor() {
					errs.Add("supervisor", "Solo se pueden asignar usuarios con rol SUPERVISOR.")
				}
				if !supervisor.Activo {
					errs.Add("supervisor", "No se puede asignar un supervisor inactivo.")
				}
			}
			if _, tiene := errs["supervisor"]; !tiene {
				visita.SupervisorID = supervisorID
			}
		}
	}

	if req.FechaProgramada != nil && !req.FechaProgramada.Equal(visita.FechaProgramada) {
		if !visita.EstaProgramada() {
			errs.Add("fecha_programada", "Solo se puede cambiar la fecha de visitas programadas.")
		} else if req.FechaProgramada.Before(time.Now()) {
			errs.Add("fecha_programada", "No se pueden programar visitas en fechas pasadas.")
		} else {
			visita.FechaProgramada = *req.FechaProgramada
			agendaCambia = true
		}
	}

	if req.TipoVisita != nil {
		if !models.TipoVisitaValido(*req.TipoVisita) {
			errs.Add("tipo_visita", "Tipo de visita inválido.")
		} else {
			visita.TipoVisita = *req.TipoVisita
		}
	}
	if req.Descripcion != nil {
		if strings.TrimSpace(*req.Descripcion) == "" {
			errs.Add("descripcion", "La descripción es requerida.")
		} else {
			visita.Descripcion = strings.TrimSpace(*req.Descripcion)
		}
	}
	if req.Observaciones != nil {
		visita.Observaciones = *req.Observaciones
	}
	if req.Latitud != nil {
		visita.Latitud = req.Latitud
	}
	if req.Longitud != nil {
		visita.Longitud = req.Longitud
	}
	validation.ValidarCoordenadas(visita.Latitud, visita.Longitud, errs)

	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if agendaCambia {
			conflicto, err := hayConflictoAgenda(tx, visita.TecnicoID, visita.FechaProgramada, visita.ID)
			if err != nil {
				return err
			}
			if conflicto {
				return errConflictoAgenda
			}
		}
		return tx.Save(visita).Error
	})
	if errors.Is(err, errConflictoAgenda) {
		errs.Add("tecnico", fmt.Sprintf("El técnico ya tiene visitas programadas para %s.",
			visita.FechaProgramada.Format("2006-01-02")))
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}
	if err != nil {
		h.log.Error("failed to update visit", zap.Error(err), zap.Uint("visita_id", visita.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar la visita", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "visita", visita.ID, "update",
		fmt.Sprintf("Actualizada visita %d", visita.ID))

	h.db.Preload("Cliente").Preload("Tecnico").Preload("Supervisor").Preload("Ejecuciones").
		First(visita, visita.ID)

	httpapi.OK(c, serializeVisita(visita), "Visita actualizada exitosamente")
}

func (h *VisitaHandler) Delete(c *gin.Context) {
	usuario := middleware.CurrentUser(c)
	if !usuario.Tiene(models.CapEliminarVisitas) {
		httpapi.Error(c, http.StatusForbidden, "No tienes permisos para eliminar visitas",
			[]string{"Solo los administradores pueden eliminar visitas"})
		return
	}

	visita, ok := h.buscarVisita(c, false)
	if !ok {
		return
	}

	if visita.EstaEnProgreso() || visita.EstaCompletada() {
		httpapi.Error(c, http.StatusBadRequest, "No se puede eliminar esta visita",
			[]string{"No se pueden eliminar visitas en progreso o completadas"})
		return
	}

	if err := h.db.Delete(visita).Error; err != nil {
		h.log.Error("failed to delete visit", zap.Error(err), zap.Uint("visita_id", visita.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al eliminar la visita", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "visita", visita.ID, "delete",
		fmt.Sprintf("Eliminada visita %d", visita.ID))

	httpapi.OK(c, nil, "Visita eliminada exitosamente")
}

type workflowRequest struct {
	Observaciones string   `json:"observaciones"`
	Latitud       *float64 `json:"latitud"`
	Longitud      *float64 `json:"longitud"`
}

func (h *VisitaHandler) Iniciar(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	visita, ok := h.buscarVisita(c, false)
	if !ok {
		return
	}

	if !usuario.EsTecnicoAsignado(visita) {
		httpapi.Error(c, http.StatusForbidden, "No puedes iniciar esta visita",
			[]string{"Solo el técnico asignado puede iniciar la visita"})
		return
	}

	req, ok := h.bindWorkflow(c, "Error al iniciar la visita")
	if !ok {
		return
	}

	if req.Latitud != nil && req.Longitud != nil {
		visita.Latitud = req.Latitud
		visita.Longitud = req.Longitud
	}
	if req.Observaciones != "" {
		visita.Observaciones = req.Observaciones
	}

	if err := visita.Iniciar(time.Now()); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error al iniciar la visita", []string{err.Error()})
		return
	}

	if err := h.db.Save(visita).Error; err != nil {
		h.log.Error("failed to save visit start", zap.Error(err), zap.Uint("visita_id", visita.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al iniciar la visita", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "visita", visita.ID, "iniciar",
		fmt.Sprintf("Iniciada visita %d", visita.ID))

	h.recargar(visita)
	httpapi.OK(c, serializeVisita(visita), "Visita iniciada exitosamente")
}

func (h *VisitaHandler) Completar(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	visita, ok := h.buscarVisita(c, false)
	if !ok {
		return
	}

	if !usuario.EsTecnicoAsignado(visita) {
		httpapi.Error(c, http.StatusForbidden, "No puedes completar esta visita",
			[]string{"Solo el técnico asignado puede completar la visita"})
		return
	}

	req, ok := h.bindWorkflow(c, "Error al completar la visita")
	if !ok {
		return
	}

	if req.Latitud != nil && req.Longitud != nil {
		visita.Latitud = req.Latitud
		visita.Longitud = req.Longitud
	}

	if err := visita.Completar(time.Now(), req.Observaciones); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error al completar la visita", []string{err.Error()})
		return
	}

	if err := h.db.Save(visita).Error; err != nil {
		h.log.Error("failed to save visit completion", zap.Error(err), zap.Uint("visita_id", visita.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al completar la visita", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "visita", visita.ID, "completar",
		fmt.Sprintf("Completada visita %d", visita.ID))

	h.recargar(visita)
	httpapi.OK(c, serializeVisita(visita), "Visita completada exitosamente")
}

type cancelarRequest struct {
	Motivo string `json:"motivo"`
}

func (h *VisitaHandler) Cancelar(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	visita, ok := h.buscarVisita(c, false)
	if !ok {
		return
	}

	if !usuario.PuedeCancelarVisita(visita) {
		httpapi.Error(c, http.StatusForbidden, "No puedes cancelar esta visita",
			[]string{"Solo el técnico asignado o supervisores pueden cancelar visitas"})
		return
	}

	var req cancelarRequest
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Motivo) == "" {
		httpapi.Error(c, http.StatusBadRequest, "Motivo requerido",
			[]string{"Debe proporcionar un motivo para la cancelación"})
		return
	}

	if err := visita.Cancelar(req.Motivo); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error al cancelar la visita", []string{err.Error()})
		return
	}

	if err := h.db.Save(visita).Error; err != nil {
		h.log.Error("failed to save visit cancellation", zap.Error(err), zap.Uint("visita_id", visita.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al cancelar la visita", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "visita", visita.ID, "cancelar",
		fmt.Sprintf("Cancelada visita %d: %s", visita.ID, req.Motivo))

	h.recargar(visita)
	httpapi.OK(c, serializeVisita(visita), "Visita cancelada exitosamente")
}

func (h *VisitaHandler) bindWorkflow(c *gin.Context, mensaje string) (*workflowRequest, bool) {
	var req workflowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpapi.Error(c, http.StatusBadRequest, mensaje, []string{"Datos inválidos."})
			return nil, false
		}
	}

	errs := validation.Errors{}
	validation.ValidarCoordenadas(req.Latitud, req.Longitud, errs)
	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, mensaje, errs)
		return nil, false
	}
	return &req, true
}

func (h *VisitaHandler) buscarVisita(c *gin.Context, preload bool) (*models.Visita, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpapi.Error(c, http.StatusNotFound, "Visita no encontrada", []string{"La visita no existe"})
		return nil, false
	}

	query := h.db
	if preload {
		query = query.Preload("Cliente").Preload("Tecnico").Preload("Supervisor").
			Preload("Ejecuciones", func(db *gorm.DB) *gorm.DB {
				return db.Order("tiempo_inicio asc")
			})
	}

	var visita models.Visita
	if err := query.First(&visita, id).Error; err != nil {
		httpapi.Error(c, http.StatusNotFound, "Visita no encontrada", []string{"La visita no existe"})
		return nil, false
	}
	return &visita, true
}

func (h *VisitaHandler) recargar(visita *models.Visita) {
	h.db.Preload("Cliente").Preload("Tecnico").Preload("Supervisor").Preload("Ejecuciones").
		First(visita, visita.ID)
}
