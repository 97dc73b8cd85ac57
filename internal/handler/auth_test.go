package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/parkease/parkease/internal/config"
	"github.com/parkease/parkease/internal/store/memory"
	"github.com/parkease/parkease/internal/validation"
)

func testAuthHandler() (*echo.Echo, *AuthHandler) {
	e := echo.New()
	e.Validator = validation.New()
	cfg := config.Config{
		JWTSecret:      "test-jwt-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     bcrypt.MinCost,
	}
	return e, NewAuthHandler(cfg, memory.NewUserStore(), memory.NewTokenStore())
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegister(t *testing.T) {
	t.Run("creates user with token pair", func(t *testing.T) {
		e, h := testAuthHandler()
		c, rec := postJSON(e, "/v1/auth/register",
			`{"name":"Asha","email":"Asha@Example.com","phone":"5551234567","password":"supersecret"}`)

		require.NoError(t, h.Register(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp authResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "asha@example.com", resp.User.Email) // lowercased
		assert.Equal(t, "USER", resp.User.Role)
		assert.NotEmpty(t, resp.Access.Token)
		assert.NotEmpty(t, resp.Refresh.Token)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		e, h := testAuthHandler()
		c, rec := postJSON(e, "/v1/auth/register",
			`{"name":"Asha","email":"a@b.com","password":"supersecret"}`)
		require.NoError(t, h.Register(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		c, rec = postJSON(e, "/v1/auth/register",
			`{"name":"Asha Again","email":"a@b.com","password":"supersecret"}`)
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("validation failures", func(t *testing.T) {
		e, h := testAuthHandler()
		for name, body := range map[string]string{
			"short password": `{"name":"Asha","email":"a@b.com","password":"short"}`,
			"bad email":      `{"name":"Asha","email":"not-an-email","password":"supersecret"}`,
			"missing name":   `{"email":"a@b.com","password":"supersecret"}`,
		} {
			c, rec := postJSON(e, "/v1/auth/register", body)
			require.NoError(t, h.Register(c), name)
			assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		}
	})
}

func TestLogin(t *testing.T) {
	e, h := testAuthHandler()
	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Asha","email":"a@b.com","password":"supersecret"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("valid credentials", func(t *testing.T) {
		c, rec := postJSON(e, "/v1/auth/login", `{"email":"a@b.com","password":"supersecret"}`)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		c, rec := postJSON(e, "/v1/auth/login", `{"email":"a@b.com","password":"wrongpassword"}`)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		c, rec := postJSON(e, "/v1/auth/login", `{"email":"nobody@b.com","password":"supersecret"}`)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshRotation(t *testing.T) {
	e, h := testAuthHandler()
	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Asha","email":"a@b.com","password":"supersecret"}`)
	require.NoError(t, h.Register(c))
	var first authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	// Exchange the refresh token for a new pair.
	c, rec = postJSON(e, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var second authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.NotEqual(t, first.Refresh.Token, second.Refresh.Token)

	// The old token was revoked by the rotation.
	c, rec = postJSON(e, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutSingleSession(t *testing.T) {
	e, h := testAuthHandler()
	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Asha","email":"a@b.com","password":"supersecret"}`)
	require.NoError(t, h.Register(c))
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	c, rec = postJSON(e, "/v1/auth/logout", `{"refresh_token":"`+resp.Refresh.Token+`"}`)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = postJSON(e, "/v1/auth/refresh", `{"refresh_token":"`+resp.Refresh.Token+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	e, h := testAuthHandler()
	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Asha","email":"a@b.com","password":"supersecret"}`)
	require.NoError(t, h.Register(c))
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set("user_id", resp.User.ID)
	c.Set("role", resp.User.Role)

	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var me userPart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "a@b.com", me.Email)
	assert.Equal(t, "Asha", me.Name)
}
