package server

import (
	"net/http"

	"skynet-api/internal/auth"
	"skynet-api/internal/config"
	"skynet-api/internal/handlers"
	"skynet-api/internal/middleware"
	"skynet-api/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewRouter wires every endpoint. All /api routes except login and the
// bootstrap user creation sit behind bearer authentication.
func NewRouter(cfg *config.Config, db *gorm.DB, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	tokens := auth.NewTokenManager(cfg)
	denylist := auth.NewDenylist(cfg.RedisAddr)

	authHandler := handlers.NewAuthHandler(db, tokens, denylist, log)
	clienteHandler := handlers.NewClienteHandler(db, log)
	visitaHandler := handlers.NewVisitaHandler(db, log)
	ejecucionHandler := handlers.NewEjecucionHandler(db, log)
	usuarioHandler := handlers.NewUsuarioHandler(db, log)
	reporteHandler := handlers.NewReporteHandler(db, log)

	authRequired := middleware.AuthRequired(db, tokens, denylist)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")

	api.POST("/auth/login", authHandler.Login)

	autenticado := api.Group("/auth", authRequired)
	{
		autenticado.POST("/logout", authHandler.Logout)
		autenticado.GET("/me", authHandler.Me)
		autenticado.GET("/validate-token", authHandler.ValidateToken)
		autenticado.PUT("/change-password", authHandler.ChangePassword)
	}

	clientes := api.Group("/clientes", authRequired)
	{
		clientes.GET("", clienteHandler.List)
		clientes.POST("/create", clienteHandler.Create)
		clientes.GET("/:id", clienteHandler.Detail)
		clientes.PUT("/:id/update", clienteHandler.Update)
		clientes.DELETE("/:id/delete", clienteHandler.Delete)
	}

	visitas := api.Group("/visitas", authRequired)
	{
		visitas.GET("", visitaHandler.List)
		visitas.POST("/create", visitaHandler.Create)
		visitas.GET("/export",
			middleware.RequireCapacidad(models.CapExportarVisitas,
				"No tienes permisos para exportar visitas"),
			reporteHandler.ExportVisitas)
		visitas.GET("/:id", visitaHandler.Detail)
		visitas.PUT("/:id/update", visitaHandler.Update)
		visitas.DELETE("/:id/delete", visitaHandler.Delete)
		visitas.POST("/:id/iniciar", visitaHandler.Iniciar)
		visitas.POST("/:id/completar", visitaHandler.Completar)
		visitas.POST("/:id/cancelar", visitaHandler.Cancelar)
		visitas.GET("/:id/ejecuciones", ejecucionHandler.ListByVisita)
		visitas.POST("/:id/ejecuciones/create", ejecucionHandler.Create)
	}

	ejecuciones := api.Group("/ejecuciones", authRequired)
	{
		ejecuciones.PUT("/:id/update", ejecucionHandler.Update)
		ejecuciones.POST("/:id/completar", ejecucionHandler.Completar)
	}

	api.POST("/usuarios/create",
		middleware.AuthOrBootstrap(db, tokens, denylist), usuarioHandler.Create)

	gestionUsuarios := middleware.RequireCapacidad(models.CapGestionarUsuarios,
		"No tienes permisos para gestionar usuarios")
	usuarios := api.Group("/usuarios", authRequired, gestionUsuarios)
	{
		usuarios.GET("", usuarioHandler.List)
		usuarios.GET("/:id", usuarioHandler.Detail)
		usuarios.PUT("/:id/update", usuarioHandler.Update)
		usuarios.DELETE("/:id/delete", usuarioHandler.Delete)
	}

	return r
}
