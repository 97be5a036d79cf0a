package middleware

import (
	"net/http"
	"strings"
	"time"

	"skynet-api/internal/auth"
	"skynet-api/internal/httpapi"
	"skynet-api/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	ctxUsuario  = "usuario"
	ctxTokenJTI = "token_jti"
	ctxTokenExp = "token_exp"
)

// AuthRequired resolves the bearer token to an active user and puts it on
// the context. Any failure is a 401 in the standard envelope.
func AuthRequired(db *gorm.DB, tokens *auth.TokenManager, denylist *auth.Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthenticated(c, "Credenciales de autenticación no proporcionadas.")
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil || claims.TokenType != auth.TokenAccess {
			unauthenticated(c, "Token de autenticación inválido.")
			return
		}

		if denylist.IsRevoked(c.Request.Context(), claims.ID) {
			unauthenticated(c, "Token de autenticación inválido.")
			return
		}

		var usuario models.Usuario
		if err := db.First(&usuario, claims.UserID).Error; err != nil {
			unauthenticated(c, "No se encontró el usuario correspondiente al token.")
			return
		}
		if !usuario.Activo {
			unauthenticated(c, "La cuenta del usuario ha sido desactivada.")
			return
		}

		c.Set(ctxUsuario, &usuario)
		c.Set(ctxTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ctxTokenExp, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// AuthOrBootstrap behaves like AuthRequired except while the users table
// is empty, when the request passes through unauthenticated so the first
// administrator can be created.
func AuthOrBootstrap(db *gorm.DB, tokens *auth.TokenManager, denylist *auth.Denylist) gin.HandlerFunc {
	authed := AuthRequired(db, tokens, denylist)
	return func(c *gin.Context) {
		var count int64
		err := db.Model(&models.Usuario{}).Count(&count).Error
		if err == nil && count == 0 {
			c.Next()
			return
		}
		authed(c)
	}
}

// RequireCapacidad closes over the allow-list for one operation.
func RequireCapacidad(cap models.Capacidad, mensaje string) gin.HandlerFunc {
	return func(c *gin.Context) {
		usuario := CurrentUser(c)
		if usuario == nil || !usuario.Tiene(cap) {
			httpapi.Error(c, http.StatusForbidden, mensaje, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.Usuario {
	v, ok := c.Get(ctxUsuario)
	if !ok {
		return nil
	}
	usuario, _ := v.(*models.Usuario)
	return usuario
}

func TokenJTI(c *gin.Context) string {
	return c.GetString(ctxTokenJTI)
}

func TokenExp(c *gin.Context) time.Time {
	v, ok := c.Get(ctxTokenExp)
	if !ok {
		return time.Time{}
	}
	exp, _ := v.(time.Time)
	return exp
}

func unauthenticated(c *gin.Context, mensaje string) {
	httpapi.Error(c, http.StatusUnauthorized, mensaje, nil)
	c.Abort()
}
