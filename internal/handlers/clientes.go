package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"skynet-api/internal/database"
	"skynet-api/internal/httpapi"
	"skynet-api/internal/middleware"
	"skynet-api/internal/models"
	"skynet-api/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ClienteHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewClienteHandler(db *gorm.DB, log *zap.Logger) *ClienteHandler {
	return &ClienteHandler{db: db, log: log}
}

func (h *ClienteHandler) List(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	query := h.db.Model(&models.Cliente{})

	// Soft-deleted records stay hidden unless the caller filters on
	// activo explicitly; incluir_inactivos is the administrative
	// escape hatch.
	if activo := c.Query("activo"); activo != "" {
		query = query.Where("activo = ?", activo == "true")
	} else if !(c.Query("incluir_inactivos") == "true" && usuario.EsAdministrador()) {
		query = query.Where("activo = ?", true)
	}

	if tipo := c.Query("tipo_cliente"); tipo != "" {
		query = query.Where("tipo_cliente = ?", tipo)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("nombre ILIKE ? OR contacto ILIKE ? OR email ILIKE ?", like, like, like)
	}

	var clientes []models.Cliente
	if err := query.Order("nombre asc").Find(&clientes).Error; err != nil {
		h.log.Error("failed to list clients", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al obtener clientes", nil)
		return
	}

	httpapi.OK(c, serializeClientes(clientes), "Clientes obtenidos exitosamente")
}

type clienteCreateRequest struct {
	Nombre      string             `json:"nombre"`
	Contacto    string             `json:"contacto"`
	Telefono    string             `json:"telefono"`
	Email       string             `json:"email"`
	Direccion   string             `json:"direccion"`
	Latitud     *float64           `json:"latitud"`
	Longitud    *float64           `json:"longitud"`
	TipoCliente models.TipoCliente `json:"tipo_cliente"`
}

func (h *ClienteHandler) Create(c *gin.Context) {
	usuario := middleware.CurrentUser(c)
	if !usuario.Tiene(models.CapCrearClientes) {
		httpapi.Error(c, http.StatusForbidden, "No tienes permisos para crear clientes",
			[]string{"Solo administradores y supervisores pueden crear clientes"})
		return
	}

	var req clienteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación",
			[]string{"Datos inválidos."})
		return
	}

	errs := validation.Errors{}
	if err := h.validarCampos(&req, 0, errs); err != nil {
		h.log.Error("failed to validate client", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar el cliente", nil)
		return
	}
	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}

	tipo := req.TipoCliente
	if tipo == "" {
		tipo = models.ClienteIndividual
	}

	cliente := models.Cliente{
		Nombre:      validation.Titulo(req.Nombre),
		Contacto:    validation.Titulo(req.Contacto),
		Telefono:    strings.TrimSpace(req.Telefono),
		Email:       strings.TrimSpace(req.Email),
		Direccion:   strings.TrimSpace(req.Direccion),
		Latitud:     req.Latitud,
		Longitud:    req.Longitud,
		TipoCliente: tipo,
		Activo:      true,
	}

	if err := h.db.Create(&cliente).Error; err != nil {
		h.log.Error("failed to create client", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar el cliente", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "cliente", cliente.ID, "create", "Creado cliente: "+cliente.Nombre)

	httpapi.Created(c, serializeCliente(&cliente), "Cliente creado exitosamente")
}

func (h *ClienteHandler) Detail(c *gin.Context) {
	cliente, ok := h.buscarCliente(c)
	if !ok {
		return
	}
	httpapi.OK(c, serializeCliente(cliente), "Cliente obtenido exitosamente")
}

type clienteUpdateRequest struct {
	Nombre      *string             `json:"nombre"`
	Contacto    *string             `json:"contacto"`
	Telefono    *string             `json:"telefono"`
	Email       *string             `json:"email"`
	Direccion   *string             `json:"direccion"`
	Latitud     *float64            `json:"latitud"`
	Longitud    *float64            `json:"longitud"`
	TipoCliente *models.TipoCliente `json:"tipo_cliente"`
	Activo      *bool               `json:"activo"`
}

func (h *ClienteHandler) Update(c *gin.Context) {
	usuario := middleware.CurrentUser(c)
	if !usuario.Tiene(models.CapActualizarClientes) {
		httpapi.Error(c, http.StatusForbidden, "No tienes permisos para actualizar clientes",
			[]string{"Solo administradores y supervisores pueden actualizar clientes"})
		return
	}

	cliente, ok := h.buscarCliente(c)
	if !ok {
		return
	}

	var req clienteUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación",
			[]string{"Datos inválidos."})
		return
	}

	errs := validation.Errors{}

	if req.Nombre != nil {
		if len(strings.TrimSpace(*req.Nombre)) < 2 {
			errs.Add("nombre", "El nombre debe tener al menos 2 caracteres.")
		} else {
			cliente.Nombre = validation.Titulo(*req.Nombre)
		}
	}
	if req.Contacto != nil {
		if len(strings.TrimSpace(*req.Contacto)) < 2 {
			errs.Add("contacto", "El contacto debe tener al menos 2 caracteres.")
		} else {
			cliente.Contacto = validation.Titulo(*req.Contacto)
		}
	}
	if req.Telefono != nil {
		if !validation.TelefonoGuatemalaValido(*req.Telefono) {
			errs.Add("telefono", "Ingrese un número de teléfono válido para Guatemala.")
		} else {
			cliente.Telefono = strings.TrimSpace(*req.Telefono)
		}
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !validation.EmailValido(email) {
			errs.Add("email", "Ingrese un email válido.")
		} else {
			ocupado, err := h.emailOcupado(email, cliente.ID)
			switch {
			case err != nil:
				h.log.Error("failed to check client email", zap.Error(err))
				httpapi.Error(c, http.StatusInternalServerError, "Error al guardar el cliente", nil)
				return
			case ocupado:
				errs.Add("email", "Ya existe un cliente con este email.")
			default:
				cliente.Email = email
			}
		}
	}
	if req.Direccion != nil {
		if len(strings.TrimSpace(*req.Direccion)) < 10 {
			errs.Add("direccion", "La dirección debe ser más específica (mínimo 10 caracteres).")
		} else {
			cliente.Direccion = strings.TrimSpace(*req.Direccion)
		}
	}
	if req.TipoCliente != nil {
		if !models.TipoClienteValido(*req.TipoCliente) {
			errs.Add("tipo_cliente", "Tipo de cliente inválido.")
		} else {
			cliente.TipoCliente = *req.TipoCliente
		}
	}
	if req.Activo != nil {
		cliente.Activo = *req.Activo
	}

	// Coordinates merge with stored values so a partial update cannot
	// break the paired rule.
	if req.Latitud != nil {
		cliente.Latitud = req.Latitud
	}
	if req.Longitud != nil {
		cliente.Longitud = req.Longitud
	}
	validation.ValidarCoordenadas(cliente.Latitud, cliente.Longitud, errs)

	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}

	if err := h.db.Save(cliente).Error; err != nil {
		h.log.Error("failed to update client", zap.Error(err), zap.Uint("cliente_id", cliente.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar el cliente", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "cliente", cliente.ID, "update", "Actualizado cliente: "+cliente.Nombre)

	httpapi.OK(c, serializeCliente(cliente), "Cliente actualizado exitosamente")
}

// Delete deactivates; client records are never physically removed.
func (h *ClienteHandler) Delete(c *gin.Context) {
	usuario := middleware.CurrentUser(c)
	if !usuario.Tiene(models.CapEliminarClientes) {
		httpapi.Error(c, http.StatusForbidden, "No tienes permisos para eliminar clientes",
			[]string{"Solo los administradores pueden eliminar clientes"})
		return
	}

	cliente, ok := h.buscarCliente(c)
	if !ok {
		return
	}

	cliente.Activo = false
	if err := h.db.Save(cliente).Error; err != nil {
		h.log.Error("failed to deactivate client", zap.Error(err), zap.Uint("cliente_id", cliente.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al eliminar el cliente", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "cliente", cliente.ID, "deactivate", "Desactivado cliente: "+cliente.Nombre)

	httpapi.OK(c, nil, "Cliente eliminado exitosamente")
}

func (h *ClienteHandler) validarCampos(req *clienteCreateRequest, excludeID uint, errs validation.Errors) error {
	if len(strings.TrimSpace(req.Nombre)) < 2 {
		errs.Add("nombre", "El nombre debe tener al menos 2 caracteres.")
	}
	if len(strings.TrimSpace(req.Contacto)) < 2 {
		errs.Add("contacto", "El contacto debe tener al menos 2 caracteres.")
	}
	if !validation.TelefonoGuatemalaValido(req.Telefono) {
		errs.Add("telefono", "Ingrese un número de teléfono válido para Guatemala.")
	}
	email := strings.TrimSpace(req.Email)
	if !validation.EmailValido(email) {
		errs.Add("email", "Ingrese un email válido.")
	} else {
		ocupado, err := h.emailOcupado(email, excludeID)
		if err != nil {
			return err
		}
		if ocupado {
			errs.Add("email", "Ya existe un cliente con este email.")
		}
	}
	if len(strings.TrimSpace(req.Direccion)) < 10 {
		errs.Add("direccion", "La dirección debe ser más específica (mínimo 10 caracteres).")
	}
	if req.TipoCliente != "" && !models.TipoClienteValido(req.TipoCliente) {
		errs.Add("tipo_cliente", "Tipo de cliente inválido.")
	}
	validation.ValidarCoordenadas(req.Latitud, req.Longitud, errs)
	return nil
}

// Uniqueness is a case-sensitive exact match.
func (h *ClienteHandler) emailOcupado(email string, excludeID uint) (bool, error) {
	var count int64
	query := h.db.Model(&models.Cliente{}).Where("email = ?", email)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (h *ClienteHandler) buscarCliente(c *gin.Context) (*models.Cliente, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpapi.Error(c, http.StatusNotFound, "Cliente no encontrado", []string{"El cliente no existe"})
		return nil, false
	}

	var cliente models.Cliente
	if err := h.db.First(&cliente, id).Error; err != nil {
		httpapi.Error(c, http.StatusNotFound, "Cliente no encontrado", []string{"El cliente no existe"})
		return nil, false
	}
	return &cliente, true
}
