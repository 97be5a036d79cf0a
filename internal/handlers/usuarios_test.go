package handlers

import (
	"net/http"
	"testing"

	"skynet-api/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCrearUsuarioSinPermiso(t *testing.T) {
	db, _ := newTestDB(t)
	h := NewUsuarioHandler(db, zap.NewNop())

	r := gin.New()
	r.POST("/api/usuarios/create",
		conUsuario(&models.Usuario{ID: 2, Rol: models.RolSupervisor}), h.Create)

	w := postJSON(r, "/api/usuarios/create", `{"email":"nuevo@skynet.gt"}`)

	require.Equal(t, http.StatusForbidden, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.Contains(t, string(env.Errors), "Solo los administradores pueden crear usuarios")
}

func TestCrearUsuarioValidacion(t *testing.T) {
	db, _ := newTestDB(t)
	h := NewUsuarioHandler(db, zap.NewNop())

	r := gin.New()
	r.POST("/api/usuarios/create",
		conUsuario(&models.Usuario{ID: 1, Rol: models.RolAdministrador}), h.Create)

	body := `{"email":"malo","nombre":"J","apellido":"P","rol":"GERENTE",` +
		`"password":"corta","confirm_password":"otra"}`
	w := postJSON(r, "/api/usuarios/create", body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.Contains(t, string(env.Errors), "Ingrese un email válido.")
	assert.Contains(t, string(env.Errors), "El nombre debe tener al menos 2 caracteres.")
	assert.Contains(t, string(env.Errors), "Rol inválido. Opciones: ADMINISTRADOR, SUPERVISOR, TECNICO")
	assert.Contains(t, string(env.Errors), "La contraseña debe tener al menos 8 caracteres.")
	assert.Contains(t, string(env.Errors), "Las contraseñas no coinciden.")
}

// Without an authenticated actor the handler runs in bootstrap mode and
// forces the administrator role.
func TestCrearUsuarioBootstrap(t *testing.T) {
	db, mock := newTestDB(t)
	h := NewUsuarioHandler(db, zap.NewNop())

	r := gin.New()
	r.POST("/api/usuarios/create", h.Create)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "usuarios" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "usuarios"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "usuarios"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	body := `{"email":"admin@skynet.gt","nombre":"ana","apellido":"garcía","rol":"TECNICO",` +
		`"password":"segura123","confirm_password":"segura123"}`
	w := postJSON(r, "/api/usuarios/create", body)

	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, "Usuario creado exitosamente", env.Message)
	assert.Contains(t, string(env.Data), `"rol":"ADMINISTRADOR"`)
	assert.Contains(t, string(env.Data), `"nombre":"Ana"`)
	assert.Contains(t, string(env.Data), `"apellido":"García"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A bootstrap request that loses the race to a concurrent first user must
// not create a second administrator.
func TestCrearUsuarioBootstrapCerrado(t *testing.T) {
	db, mock := newTestDB(t)
	h := NewUsuarioHandler(db, zap.NewNop())

	r := gin.New()
	r.POST("/api/usuarios/create", h.Create)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "usuarios" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "usuarios"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	body := `{"email":"admin@skynet.gt","nombre":"ana","apellido":"garcía",` +
		`"password":"segura123","confirm_password":"segura123"}`
	w := postJSON(r, "/api/usuarios/create", body)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "Credenciales de autenticación no proporcionadas.", env.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}
