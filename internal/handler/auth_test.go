package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmcloud-dev/rmcloud/internal/config"
	internal_errors "github.com/rmcloud-dev/rmcloud/internal/errors"
)

type MockAuthService struct {
	LoginFunc   func(email, code string) (string, error)
	RefreshFunc func(jwtStr string) (string, error)
}

func (m *MockAuthService) Login(email, code string) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(email, code)
	}
	return "signed-token", nil
}

func (m *MockAuthService) Refresh(jwtStr string) (string, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(jwtStr)
	}
	return jwtStr, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Common: config.Common{Port: 3000, LogLevel: "debug", Socket: 3001},
		API:    config.API{URL: "api.example.com", SecretKey: "secret", DataDir: "/tmp"},
		UI:     config.UI{URL: "ui.example.com"},
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestLoginHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := New(&MockAuthService{}, testConfig())
		rr := postJSON(t, h.Login, `{"email":"a@b.co","code":"ABCDEFGH"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp["jwt"])
	})

	t.Run("invalid json", func(t *testing.T) {
		h := New(&MockAuthService{}, testConfig())
		rr := postJSON(t, h.Login, `{not json::}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		h := New(&MockAuthService{}, testConfig())
		rr := postJSON(t, h.Login, `{"email":"a@b.co"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unauthorized is bodyless", func(t *testing.T) {
		mock := &MockAuthService{LoginFunc: func(string, string) (string, error) {
			return "", &internal_errors.ErrorWithStatusCode{StatusCode: http.StatusUnauthorized}
		}}
		h := New(mock, testConfig())
		rr := postJSON(t, h.Login, `{"email":"a@b.co","code":"WRONGXXX"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, rr.Body.String())
	})
}

func TestRefreshTokenHandler(t *testing.T) {
	t.Run("echoes fresh token", func(t *testing.T) {
		h := New(&MockAuthService{}, testConfig())
		rr := postJSON(t, h.RefreshToken, `{"jwt":"input-token"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "input-token", resp["jwt"])
	})

	t.Run("unauthorized is bodyless", func(t *testing.T) {
		mock := &MockAuthService{RefreshFunc: func(string) (string, error) {
			return "", &internal_errors.ErrorWithStatusCode{StatusCode: http.StatusUnauthorized}
		}}
		h := New(mock, testConfig())
		rr := postJSON(t, h.RefreshToken, `{"jwt":"garbage"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, rr.Body.String())
	})

	t.Run("missing jwt field", func(t *testing.T) {
		h := New(&MockAuthService{}, testConfig())
		rr := postJSON(t, h.RefreshToken, `{}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	h := New(&MockAuthService{}, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.Health(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestAboutHandler(t *testing.T) {
	h := New(&MockAuthService{}, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	rr := httptest.NewRecorder()
	h.About(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp aboutResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "api.example.com", resp.Hostname)
	assert.Equal(t, "rmcloud", resp.Servername)
	assert.NotEmpty(t, resp.APIVersion)
}

func TestIndexHandler(t *testing.T) {
	h := New(&MockAuthService{}, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.Index(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "rmcloud")
}
