package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skynet-api/internal/auth"
	"skynet-api/internal/config"
	"skynet-api/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func newTestTokens() *auth.TokenManager {
	return auth.NewTokenManager(&config.Config{
		JWTSecret:       "clave-de-prueba",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
}

func protectedRouter(db *gorm.DB, tokens *auth.TokenManager, denylist *auth.Denylist) *gin.Engine {
	r := gin.New()
	r.GET("/protegido", AuthRequired(db, tokens, denylist), func(c *gin.Context) {
		usuario := CurrentUser(c)
		c.String(http.StatusOK, usuario.Email)
	})
	return r
}

func get(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func activeUserRows(activo bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "nombre", "apellido", "rol", "activo", "password_hash",
	}).AddRow(42, "tec@skynet.gt", "Juan", "Pérez", "TECNICO", activo, "x")
}

func TestAuthRequiredSinHeader(t *testing.T) {
	db, _ := newTestDB(t)
	r := protectedRouter(db, newTestTokens(), nil)

	w := get(r, "/protegido", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Credenciales de autenticación no proporcionadas.")
}

func TestAuthRequiredTokenInvalido(t *testing.T) {
	db, _ := newTestDB(t)
	r := protectedRouter(db, newTestTokens(), nil)

	w := get(r, "/protegido", "basura")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token de autenticación inválido.")
}

func TestAuthRequiredRechazaRefresh(t *testing.T) {
	db, _ := newTestDB(t)
	tokens := newTestTokens()
	r := protectedRouter(db, tokens, nil)

	pair, err := tokens.IssuePair(&models.Usuario{ID: 42, Rol: models.RolTecnico})
	require.NoError(t, err)

	w := get(r, "/protegido", pair.Refresh)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token de autenticación inválido.")
}

func TestAuthRequiredExitoso(t *testing.T) {
	db, mock := newTestDB(t)
	tokens := newTestTokens()
	r := protectedRouter(db, tokens, nil)

	pair, err := tokens.IssuePair(&models.Usuario{ID: 42, Email: "tec@skynet.gt", Rol: models.RolTecnico})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "usuarios" WHERE "usuarios"\."id" = \$1`).
		WillReturnRows(activeUserRows(true))

	w := get(r, "/protegido", pair.Access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tec@skynet.gt", w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRequiredUsuarioInactivo(t *testing.T) {
	db, mock := newTestDB(t)
	tokens := newTestTokens()
	r := protectedRouter(db, tokens, nil)

	pair, err := tokens.IssuePair(&models.Usuario{ID: 42, Rol: models.RolTecnico})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "usuarios" WHERE "usuarios"\."id" = \$1`).
		WillReturnRows(activeUserRows(false))

	w := get(r, "/protegido", pair.Access)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "La cuenta del usuario ha sido desactivada.")
}

func TestAuthRequiredTokenRevocado(t *testing.T) {
	srv := miniredis.RunT(t)
	denylist := auth.NewDenylist(srv.Addr())

	db, _ := newTestDB(t)
	tokens := newTestTokens()
	r := protectedRouter(db, tokens, denylist)

	pair, err := tokens.IssuePair(&models.Usuario{ID: 42, Rol: models.RolTecnico})
	require.NoError(t, err)

	claims, err := tokens.Parse(pair.Access)
	require.NoError(t, err)
	require.NoError(t, denylist.Revoke(context.Background(), claims.ID, time.Now().Add(time.Hour)))

	w := get(r, "/protegido", pair.Access)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token de autenticación inválido.")
}

func TestRequireCapacidad(t *testing.T) {
	r := gin.New()
	r.GET("/solo-admin",
		func(c *gin.Context) { c.Set("usuario", &models.Usuario{ID: 9, Rol: models.RolTecnico}) },
		RequireCapacidad(models.CapGestionarUsuarios, "No tienes permisos para gestionar usuarios"),
		func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := get(r, "/solo-admin", "")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "No tienes permisos para gestionar usuarios")
}

func TestAuthOrBootstrapTablaVacia(t *testing.T) {
	db, mock := newTestDB(t)

	r := gin.New()
	r.POST("/bootstrap", AuthOrBootstrap(db, newTestTokens(), nil), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "usuarios"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	req := httptest.NewRequest(http.MethodPost, "/bootstrap", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failed emptiness check must not open the bootstrap path.
func TestAuthOrBootstrapErrorDB(t *testing.T) {
	db, mock := newTestDB(t)

	r := gin.New()
	r.POST("/bootstrap", AuthOrBootstrap(db, newTestTokens(), nil), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "usuarios"`).
		WillReturnError(errors.New("connection reset"))

	req := httptest.NewRequest(http.MethodPost, "/bootstrap", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthOrBootstrapConUsuarios(t *testing.T) {
	db, mock := newTestDB(t)

	r := gin.New()
	r.POST("/bootstrap", AuthOrBootstrap(db, newTestTokens(), nil), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "usuarios"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	req := httptest.NewRequest(http.MethodPost, "/bootstrap", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Credenciales de autenticación no proporcionadas.")
}
