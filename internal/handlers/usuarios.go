package handlers

import (
	"errors"
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

var errBootstrapCerrado = errors.New("bootstrap cerrado")

type UsuarioHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUsuarioHandler(db *gorm.DB, log *zap.Logger) *UsuarioHandler {
	return &UsuarioHandler{db: db, log: log}
}

func (h *UsuarioHandler) List(c *gin.Context) {
	query := h.db.Model(&models.Usuario{})

	if c.Query("incluir_inactivos") != "true" {
		query = query.Where("activo = ?", true)
	}
	if rol := c.Query("rol"); rol != "" {
		query = query.Where("rol = ?", rol)
	}

	var usuarios []models.Usuario
	if err := query.Order("nombre asc, apellido asc").Find(&usuarios).Error; err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al obtener usuarios", nil)
		return
	}

	httpapi.OK(c, serializeUsuarios(usuarios), "Usuarios obtenidos exitosamente")
}

type usuarioCreateRequest struct {
	Email           string     `json:"email"`
	Nombre          string     `json:"nombre"`
	Apellido        string     `json:"apellido"`
	Telefono        string     `json:"telefono"`
	Rol             models.Rol `json:"rol"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirm_password"`
}

// Create handles both the regular administrator flow and the one-time
// unauthenticated bootstrap (empty users table). The bootstrap user is
// always an administrator so the system cannot lock itself out.
func (h *UsuarioHandler) Create(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	bootstrap := actor == nil

	if !bootstrap && !actor.Tiene(models.CapGestionarUsuarios) {
		httpapi.Error(c, http.StatusForbidden, "No tienes permisos para crear usuarios",
			[]string{"Solo los administradores pueden crear usuarios"})
		return
	}

	var req usuarioCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación",
			[]string{"Datos inválidos."})
		return
	}

	errs := validation.Errors{}

	email := strings.TrimSpace(req.Email)
	if !validation.EmailValido(email) {
		errs.Add("email", "Ingrese un email válido.")
	} else {
		var count int64
		if err := h.db.Model(&models.Usuario{}).Where("email = ?", email).Count(&count).Error; err != nil {
			h.log.Error("failed to check user email", zap.Error(err))
			httpapi.Error(c, http.StatusInternalServerError, "Error al guardar el usuario", nil)
			return
		}
		if count > 0 {
			errs.Add("email", "Este email ya está registrado.")
		}
	}
	if len(strings.TrimSpace(req.Nombre)) < 2 {
		errs.Add("nombre", "El nombre debe tener al menos 2 caracteres.")
	}
	if len(strings.TrimSpace(req.Apellido)) < 2 {
		errs.Add("apellido", "El apellido debe tener al menos 2 caracteres.")
	}
	if req.Telefono != "" && !validation.TelefonoGuatemalaValido(req.Telefono) {
		errs.Add("telefono", "Ingrese un número de teléfono válido para Guatemala.")
	}

	rol := req.Rol
	if bootstrap {
		rol = models.RolAdministrador
	} else if rol == "" {
		rol = models.RolTecnico
	} else if !models.RolValido(rol) {
		errs.Add("rol", "Rol inválido. Opciones: ADMINISTRADOR, SUPERVISOR, TECNICO")
	}

	for _, m := range validation.PasswordFuerte(req.Password) {
		errs.Add("password", m)
	}
	if req.Password != req.ConfirmPassword {
		errs.Add("confirm_password", "Las contraseñas no coinciden.")
	}

	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}

	usuario := models.Usuario{
		Email:    email,
		Nombre:   validation.Titulo(req.Nombre),
		Apellido: validation.Titulo(req.Apellido),
		Telefono: strings.TrimSpace(req.Telefono),
		Rol:      rol,
		Activo:   true,
	}
	if rol == models.RolAdministrador {
		usuario.IsStaff = true
	}
	if err := usuario.SetPassword(req.Password); err != nil {
		h.log.Error("failed to hash password", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar el usuario", nil)
		return
	}

	if bootstrap {
		// Re-check emptiness inside the transaction so two concurrent
		// bootstrap requests cannot both create an administrator.
		err := h.db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Usuario{}).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errBootstrapCerrado
			}
			return tx.Create(&usuario).Error
		})
		if errors.Is(err, errBootstrapCerrado) {
			httpapi.Error(c, http.StatusUnauthorized,
				"Credenciales de autenticación no proporcionadas.", nil)
			return
		}
		if err != nil {
			h.log.Error("failed to create user", zap.Error(err))
			httpapi.Error(c, http.StatusInternalServerError, "Error al guardar el usuario", nil)
			return
		}
	} else if err := h.db.Create(&usuario).Error; err != nil {
		h.log.Error("failed to create user", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar el usuario", nil)
		return
	}

	actorID := usuario.ID
	if !bootstrap {
		actorID = actor.ID
	}
	database.CreateAuditLog(h.db, actorID, "usuario", usuario.ID, "create", "Creado usuario: "+usuario.Email)

	httpapi.Created(c, serializeUsuario(&usuario), "Usuario creado exitosamente")
}

func (h *UsuarioHandler) Detail(c *gin.Context) {
	usuario, ok := h.buscarUsuario(c)
	if !ok {
		return
	}
	httpapi.OK(c, serializeUsuario(usuario), "Usuario obtenido exitosamente")
}

type usuarioUpdateRequest struct {
	Nombre   *string     `json:"nombre"`
	Apellido *string     `json:"apellido"`
	Telefono *string     `json:"telefono"`
	Rol      *models.Rol `json:"rol"`
	Activo   *bool       `json:"activo"`
}

func (h *UsuarioHandler) Update(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	usuario, ok := h.buscarUsuario(c)
	if !ok {
		return
	}

	var req usuarioUpdateRequest
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
			usuario.Nombre = validation.Titulo(*req.Nombre)
		}
	}
	if req.Apellido != nil {
		if len(strings.TrimSpace(*req.Apellido)) < 2 {
			errs.Add("apellido", "El apellido debe tener al menos 2 caracteres.")
		} else {
			usuario.Apellido = validation.Titulo(*req.Apellido)
		}
	}
	if req.Telefono != nil {
		if *req.Telefono != "" && !validation.TelefonoGuatemalaValido(*req.Telefono) {
			errs.Add("telefono", "Ingrese un número de teléfono válido para Guatemala.")
		} else {
			usuario.Telefono = strings.TrimSpace(*req.Telefono)
		}
	}
	if req.Rol != nil {
		if !models.RolValido(*req.Rol) {
			errs.Add("rol", "Rol inválido. Opciones: ADMINISTRADOR, SUPERVISOR, TECNICO")
		} else {
			usuario.Rol = *req.Rol
		}
	}
	if req.Activo != nil {
		usuario.Activo = *req.Activo
	}

	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, "Error en la validación", errs)
		return
	}

	if err := h.db.Save(usuario).Error; err != nil {
		h.log.Error("failed to update user", zap.Error(err), zap.Uint("usuario_id", usuario.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al guardar el usuario", nil)
		return
	}

	database.CreateAuditLog(h.db, actor.ID, "usuario", usuario.ID, "update", "Actualizado usuario: "+usuario.Email)

	httpapi.OK(c, serializeUsuario(usuario), "Usuario actualizado exitosamente")
}

// Delete deactivates; user records are retained.
func (h *UsuarioHandler) Delete(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	usuario, ok := h.buscarUsuario(c)
	if !ok {
		return
	}

	usuario.Activo = false
	if err := h.db.Save(usuario).Error; err != nil {
		h.log.Error("failed to deactivate user", zap.Error(err), zap.Uint("usuario_id", usuario.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error al eliminar el usuario", nil)
		return
	}

	database.CreateAuditLog(h.db, actor.ID, "usuario", usuario.ID, "deactivate", "Desactivado usuario: "+usuario.Email)

	httpapi.OK(c, nil, "Usuario eliminado exitosamente")
}

func (h *UsuarioHandler) buscarUsuario(c *gin.Context) (*models.Usuario, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpapi.Error(c, http.StatusNotFound, "Usuario no encontrado", []string{"El usuario no existe"})
		return nil, false
	}

	var usuario models.Usuario
	if err := h.db.First(&usuario, id).Error; err != nil {
		httpapi.Error(c, http.StatusNotFound, "Usuario no encontrado", []string{"El usuario no existe"})
		return nil, false
	}
	return &usuario, true
}
