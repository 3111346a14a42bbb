package middleware

import (
	"glee-scheduler/core/config"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/utils"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJWT(t *testing.T) {
	t.Helper()
	config.Set(&config.Config{JWT: config.JWTConfig{Secret: "test-secret", Issuer: "glee-scheduler"}})
}

func bearer(t *testing.T, role, scope string) string {
	t.Helper()
	token, err := utils.GenerateToken(uuid.New(), role, scope, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func run(t *testing.T, header string, chain ...echo.MiddlewareFunc) (bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	ctx := e.NewContext(req, httptest.NewRecorder())

	reached := false
	var h echo.HandlerFunc = func(c echo.Context) error {
		reached = true
		return nil
	}
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return reached, h(ctx)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr.Code
}

func TestAuthMiddleware(t *testing.T) {
	setupJWT(t)
	mw := NewMiddleware()

	reached, err := run(t, bearer(t, constants.RoleMember, constants.ScopeTokenAccess), mw.AuthMiddleware())
	require.NoError(t, err)
	assert.True(t, reached)

	reached, err = run(t, "", mw.AuthMiddleware())
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	reached, err = run(t, "Bearer not-a-jwt", mw.AuthMiddleware())
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	reached, err = run(t, bearer(t, constants.RoleMember, "refresh"), mw.AuthMiddleware())
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestOptionalAuthMiddleware(t *testing.T) {
	setupJWT(t)
	mw := NewMiddleware()

	reached, err := run(t, "", mw.OptionalAuthMiddleware())
	require.NoError(t, err)
	assert.True(t, reached)

	reached, err = run(t, "Bearer garbage", mw.OptionalAuthMiddleware())
	require.NoError(t, err)
	assert.True(t, reached)
}

func TestRequireRoles(t *testing.T) {
	setupJWT(t)
	mw := NewMiddleware()
	manage := mw.RequireRoles(ManagerRoles...)

	reached, err := run(t, bearer(t, constants.RoleSecretary, constants.ScopeTokenAccess), mw.AuthMiddleware(), manage)
	require.NoError(t, err)
	assert.True(t, reached)

	reached, err = run(t, bearer(t, constants.RoleMember, constants.ScopeTokenAccess), mw.AuthMiddleware(), manage)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	reached, err = run(t, "", manage)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}
