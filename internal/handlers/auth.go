package handlers

import (
	"net/http"

	"skynet-api/internal/auth"
	"skynet-api/internal/database"
	"skynet-api/internal/httpapi"
	"skynet-api/internal/middleware"
	"skynet-api/internal/models"
	"skynet-api/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db       *gorm.DB
	tokens   *auth.TokenManager
	denylist *auth.Denylist
	log      *zap.Logger
}

func NewAuthHandler(db *gorm.DB, tokens *auth.TokenManager, denylist *auth.Denylist, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, denylist: denylist, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    usuarioResponse `json:"user"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		httpapi.Error(c, http.StatusBadRequest, "Error en el inicio de sesión",
			[]string{"Debe incluir email y contraseña."})
		return
	}

	var usuario models.Usuario
	if err := h.db.Where("email = ?", req.Email).First(&usuario).Error; err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error en el inicio de sesión",
			[]string{"Email o contraseña incorrectos."})
		return
	}
	if !usuario.CheckPassword(req.Password) {
		httpapi.Error(c, http.StatusBadRequest, "Error en el inicio de sesión",
			[]string{"Email o contraseña incorrectos."})
		return
	}
	if !usuario.Activo {
		httpapi.Error(c, http.StatusBadRequest, "Error en el inicio de sesión",
			[]string{"Esta cuenta está inactiva."})
		return
	}

	pair, err := h.tokens.IssuePair(&usuario)
	if err != nil {
		h.log.Error("failed to issue tokens", zap.Error(err), zap.Uint("usuario_id", usuario.ID))
		httpapi.Error(c, http.StatusInternalServerError, "Error en el inicio de sesión", nil)
		return
	}

	h.log.Info("login", zap.Uint("usuario_id", usuario.ID), zap.String("rol", string(usuario.Rol)))

	httpapi.OK(c, loginResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		User:    serializeUsuario(&usuario),
	}, "Inicio de sesión exitoso")
}

// Logout always reports success; when Redis is configured the presented
// token's jti is denylisted until its natural expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	jti := middleware.TokenJTI(c)
	exp := middleware.TokenExp(c)
	if err := h.denylist.Revoke(c.Request.Context(), jti, exp); err != nil {
		h.log.Warn("failed to revoke token", zap.Error(err))
	}
	httpapi.OK(c, nil, "Sesión cerrada exitosamente")
}

func (h *AuthHandler) Me(c *gin.Context) {
	usuario := middleware.CurrentUser(c)
	httpapi.OK(c, serializeUsuario(usuario), "Información del usuario obtenida exitosamente")
}

func (h *AuthHandler) ValidateToken(c *gin.Context) {
	usuario := middleware.CurrentUser(c)
	httpapi.OK(c, gin.H{
		"valid": true,
		"user": gin.H{
			"id":       usuario.ID,
			"email":    usuario.Email,
			"nombre":   usuario.Nombre,
			"apellido": usuario.Apellido,
			"rol":      usuario.Rol,
		},
	}, "Token válido")
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	usuario := middleware.CurrentUser(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "Error al cambiar contraseña",
			[]string{"Datos inválidos."})
		return
	}

	errs := validation.Errors{}
	if !usuario.CheckPassword(req.OldPassword) {
		errs.Add("old_password", "La contraseña actual es incorrecta.")
	}
	for _, m := range validation.PasswordFuerte(req.NewPassword) {
		errs.Add("new_password", m)
	}
	if req.NewPassword != req.ConfirmPassword {
		errs.Add("confirm_password", "Las contraseñas nuevas no coinciden.")
	}
	if !errs.Empty() {
		httpapi.Error(c, http.StatusBadRequest, "Error al cambiar contraseña", errs)
		return
	}

	if err := usuario.SetPassword(req.NewPassword); err != nil {
		h.log.Error("failed to hash password", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al cambiar contraseña", nil)
		return
	}
	if err := h.db.Model(usuario).Update("password_hash", usuario.PasswordHash).Error; err != nil {
		h.log.Error("failed to save password", zap.Error(err))
		httpapi.Error(c, http.StatusInternalServerError, "Error al cambiar contraseña", nil)
		return
	}

	database.CreateAuditLog(h.db, usuario.ID, "usuario", usuario.ID, "change_password", "Contraseña actualizada")

	httpapi.OK(c, nil, "Contraseña cambiada exitosamente")
}
