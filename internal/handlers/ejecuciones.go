package handlers

import (
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

type EjecucionHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewEjecucionHandler(db *gorm.DB, log *zap.Logger) *EjecucionHandler {
	return &EjecucionHandler{db: db, log: log}
}

func (h *EjecucionHandler) ListByVisita(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	visita, ok := h.buscarVisita(c)
	if !ok {
		return
	}

	if !usuario.PuedeVerVisita(visita) {
		httpapi.Error(c, http.StatusForbidden, "No tienes permisos para ver estas ejecuciones",
			[]string{"Solo puedes ver ejecuciones de tus propias visitas"})
		return
	}

	var ejecuciones []models.Ejecucion
	if err := h.db.Where("visita_id = ?", visita.ID).
		Order("tiempo_inicio asc").Find(&ejecuciones).Error; err != nil {
		h.log.Error("failed to list executions", zap.Error(err), zap.Uint("visita_id", visita.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al obtener ejecuciones", nil)
		return
	}

	httpapi.OK(c, serializeEjecuciones(ejecuciones), "Ejecuciones obtenidas exitosamente")
}

type ejecucionCreateRequest struct {
	Descripcion   string     `json:"descripcion"`
	TiempoInicio  *time.Time `json:"tiempo_inicio"`
	Observaciones string     `json:"observaciones"`
	EvidenciaFoto string     `json:"evidencia_foto"`
}

func (h *EjecucionHandler) Create(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	visita, ok := h.buscarVisita(c)
	if !ok {
		return
	}

	if !usuario.EsTecnicoAsignado(visita) {
		httpapi.Error(c, http.StatusForbidden, "No puedes crear ejecuciones en esta visita",
			[]string{"Solo el técnico asignado puede crear ejecuciones"})
		return
	}

	var req ejecucionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación",
			[]string{"Datos inválidos."})
		return
	}

	errs := validation.Errors{}
	if !visita.EstaEnProgreso() {
		errs.Add("visita", "Solo se pueden crear ejecuciones en visitas en progreso.")
	}
	if strings.TrimSpace(req.Descripcion) == "" {
		errs.Add("descripcion", "La descripción es requerida.")
	}
	if req.TiempoInicio == nil {
		errs.Add("tiempo_inicio", "El tiempo de inicio es requerido.")
	} else if req.TiempoInicio.After(time.Now()) {
		errs.Add("tiempo_inicio", "El tiempo de inicio no puede ser futuro.")
	}
	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}

	ejecucion := models.Ejecucion{
		VisitaID:      visita.ID,
		Descripcion:   strings.TrimSpace(req.Descripcion),
		TiempoInicio:  *req.TiempoInicio,
		Observaciones: req.Observaciones,
		EvidenciaFoto: req.EvidenciaFoto,
	}

	if err := h.db.Create(&ejecucion).Error; err != nil {
		h.log.Error("failed to create execution", zap.Error(err), zap.Uint("visita_id", visita.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar la ejecución", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "ejecucion", ejecucion.ID, "create",
		fmt.Sprintf("Creada ejecución %d en visita %d", ejecucion.ID, visita.ID))

	httpapi.Created(c, serializeEjecucion(&ejecucion), "Ejecución creada exitosamente")
}

type ejecucionUpdateRequest struct {
	Descripcion   *string    `json:"descripcion"`
	TiempoFin     *time.Time `json:"tiempo_fin"`
	Completada    *bool      `json:"completada"`
	Observaciones *string    `json:"observaciones"`
	EvidenciaFoto *string    `json:"evidencia_foto"`
}

func (h *EjecucionHandler) Update(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	ejecucion, ok := h.buscarEjecucion(c)
	if !ok {
		return
	}

	if !usuario.EsTecnicoAsignado(&ejecucion.Visita) {
		httpapi.Error(c, http.StatusForbidden, "No puedes actualizar esta ejecución",
			[]string{"Solo el técnico asignado puede actualizar ejecuciones"})
		return
	}

	var req ejecucionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación",
			[]string{"Datos inválidos."})
		return
	}

	errs := validation.Errors{}

	if req.Descripcion != nil {
		if strings.TrimSpace(*req.Descripcion) == "" {
			errs.Add("descripcion", "La descripción es requerida.")
		} else {
			ejecucion.Descripcion = strings.TrimSpace(*req.Descripcion)
		}
	}
	if req.TiempoFin != nil {
		if req.TiempoFin.Before(ejecucion.TiempoInicio) {
			errs.Add("tiempo_fin", "El tiempo de fin no puede ser anterior al tiempo de inicio.")
		} else {
			ejecucion.TiempoFin = req.TiempoFin
		}
	}
	if req.Completada != nil {
		if *req.Completada && ejecucion.TiempoFin == nil {
			errs.Add("tiempo_fin", "Una ejecución completada debe tener tiempo de finalización.")
		} else {
			ejecucion.Completada = *req.Completada
		}
	}
	if req.Observaciones != nil {
		ejecucion.Observaciones = *req.Observaciones
	}
	if req.EvidenciaFoto != nil {
		ejecucion.EvidenciaFoto = *req.EvidenciaFoto
	}

	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}

	if err := h.db.Save(ejecucion).Error; err != nil {
		h.log.Error("failed to update execution", zap.Error(err), zap.Uint("ejecucion_id", ejecucion.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar la ejecución", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "ejecucion", ejecucion.ID, "update",
		fmt.Sprintf("Actualizada ejecución %d", ejecucion.ID))

	httpapi.OK(c, serializeEjecucion(ejecucion), "Ejecución actualizada exitosamente")
}

type ejecucionCompletarRequest struct {
	Observaciones string `json:"observaciones"`
}

func (h *EjecucionHandler) Completar(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	ejecucion, ok := h.buscarEjecucion(c)
	if !ok {
		return
	}

	if !usuario.EsTecnicoAsignado(&ejecucion.Visita) {
		httpapi.Error(c, http.StatusForbidden, "No puedes completar esta ejecución",
			[]string{"Solo el técnico asignado puede completar ejecuciones"})
		return
	}

	var req ejecucionCompletarRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}

	ejecucion.Completar(time.Now(), req.Observaciones)

	if err := h.db.Save(ejecucion).Error; err != nil {
		h.log.Error("failed to complete execution", zap.Error(err), zap.Uint("ejecucion_id", ejecucion.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al completar la ejecución", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "ejecucion", ejecucion.ID, "completar",
		fmt.Sprintf("Completada ejecución %d", ejecucion.ID))

	httpapi.OK(c, serializeEjecucion(ejecucion), "Ejecución completada exitosamente")
}

func (h *EjecucionHandler) buscarVisita(c *gin.Context) (*models.Visita, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpapi.Error(c, http.StatusNotFound, "Visita no encontrada", []string{"La visita no existe"})
		return nil, false
	}

	var visita models.Visita
	if err := h.db.First(&visita, id).Error; err != nil {
		httpapi.Error(c, http.StatusNotFound, "Visita no encontrada", []string{"La visita no existe"})
		return nil, false
	}
	return &visita, true
}

func (h *EjecucionHandler) buscarEjecucion(c *gin.Context) (*models.Ejecucion, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpapi.Error(c, http.StatusNotFound, "Ejecución no encontrada", []string{"La ejecución no existe"})
		return nil, false
	}

	var ejecucion models.Ejecucion
	if err := h.db.Preload("Visita").First(&ejecucion, id).Error; err != nil {
		httpapi.Error(c, http.StatusNotFound, "Ejecución no encontrada", []string{"La ejecución no existe"})
		return nil, false
	}
	return &ejecucion, true
}
