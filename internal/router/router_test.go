package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmcloud-dev/rmcloud/internal/config"
	"github.com/rmcloud-dev/rmcloud/internal/domain"
	"github.com/rmcloud-dev/rmcloud/internal/handler"
	"github.com/rmcloud-dev/rmcloud/internal/service"
	"github.com/rmcloud-dev/rmcloud/internal/storage/localfs"
	"github.com/rmcloud-dev/rmcloud/internal/token"
)

// env wires real file-backed stores and a real token service behind the
// router, with injectable clocks.
type env struct {
	dir    string
	users  *localfs.UserStore
	codes  *localfs.CodeStore
	tokens *token.JWT
	router http.Handler
}

const testSecret = "test-secret"

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	// t.TempDir applies the umask; the stores require 0700.
	require.NoError(t, os.Chmod(dir, 0o700))

	users, err := localfs.NewUserStore(dir)
	require.NoError(t, err)
	codes, err := localfs.NewCodeStore(dir)
	require.NoError(t, err)
	tokens := token.New(testSecret)

	cfg := &config.Config{
		Common: config.Common{Port: 3000, LogLevel: "debug", Socket: 3001},
		API:    config.API{URL: "api.example.com", SecretKey: testSecret, DataDir: dir},
		UI:     config.UI{URL: "ui.example.com"},
	}
	auth := service.NewAuth(users, codes, tokens)
	h := handler.New(auth, cfg)

	return &env{dir: dir, users: users, codes: codes, tokens: tokens, router: New(h)}
}

func (e *env) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *env) addUser(t *testing.T, addr string, sync15 bool) domain.Email {
	t.Helper()
	email, err := domain.NewEmail(addr)
	require.NoError(t, err)
	_, err = e.users.Create(email, "pw", false, sync15)
	require.NoError(t, err)
	return email
}

func loginBody(email, code string) string {
	b, _ := json.Marshal(map[string]string{"email": email, "code": code})
	return string(b)
}

func jwtFromResponse(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["jwt"])
	return resp["jwt"]
}

func TestLoginExchangeWithoutSync15(t *testing.T) {
	e := newEnv(t)
	email := e.addUser(t, "a@b.co", false)

	code, err := e.codes.Issue(email)
	require.NoError(t, err)

	rr := e.post(t, "/login", loginBody("a@b.co", code))
	jwtStr := jwtFromResponse(t, rr)

	claims, err := e.tokens.Verify(jwtStr)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", claims["UserID"])
	assert.NotContains(t, strings.Fields(claims["Scopes"].(string)), "sync15")
}

func TestLoginExchangeWithSync15(t *testing.T) {
	e := newEnv(t)
	email := e.addUser(t, "a@b.co", true)

	code, err := e.codes.Issue(email)
	require.NoError(t, err)

	rr := e.post(t, "/login", loginBody("a@b.co", code))
	claims, err := e.tokens.Verify(jwtFromResponse(t, rr))
	require.NoError(t, err)
	assert.Contains(t, strings.Fields(claims["Scopes"].(string)), "sync15")
}

func TestLoginRejections(t *testing.T) {
	e := newEnv(t)
	email := e.addUser(t, "a@b.co", false)
	_, err := e.codes.Issue(email)
	require.NoError(t, err)

	t.Run("wrong code", func(t *testing.T) {
		rr := e.post(t, "/login", loginBody("a@b.co", "WRONGXXX"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, rr.Body.String())
	})

	t.Run("well-formed but unknown email", func(t *testing.T) {
		rr := e.post(t, "/login", loginBody("ghost@b.co", "WRONGXXX"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, rr.Body.String())
	})

	t.Run("malformed email", func(t *testing.T) {
		rr := e.post(t, "/login", loginBody("Not-An-Email", "WRONGXXX"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, rr.Body.String())
	})

	t.Run("code without user record", func(t *testing.T) {
		orphan, err := domain.NewEmail("orphan@b.co")
		require.NoError(t, err)
		code, err := e.codes.Issue(orphan)
		require.NoError(t, err)
		rr := e.post(t, "/login", loginBody("orphan@b.co", code))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLoginExpiredCodeAndClean(t *testing.T) {
	e := newEnv(t)
	email := e.addUser(t, "a@b.co", false)

	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	e.codes.Now = func() time.Time { return now }

	code, err := e.codes.Issue(email)
	require.NoError(t, err)

	now = issuedAt.Add(3*time.Hour + time.Second)
	rr := e.post(t, "/login", loginBody("a@b.co", code))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	require.NoError(t, e.codes.Clean())
	raw, err := os.ReadFile(filepath.Join(e.dir, ".codes"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), code)
}

func TestRefreshEndpoint(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "a@b.co", false)
	user, err := e.users.Get(mustEmail(t, "a@b.co"))
	require.NoError(t, err)

	t.Run("expired token is replaced", func(t *testing.T) {
		stale := token.New(testSecret)
		stale.Now = func() time.Time { return time.Now().Add(-24*time.Hour - time.Second) }
		staleJwt, err := stale.Mint(user)
		require.NoError(t, err)

		rr := e.post(t, "/jwt", `{"jwt":"`+staleJwt+`"}`)
		freshJwt := jwtFromResponse(t, rr)
		assert.NotEqual(t, staleJwt, freshJwt)

		claims, err := e.tokens.Verify(freshJwt)
		require.NoError(t, err)
		expires, err := strconv.ParseInt(claims["ExpiresAt"].(string), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, expires, time.Now().Unix())
	})

	t.Run("fresh token is echoed", func(t *testing.T) {
		freshJwt, err := e.tokens.Mint(user)
		require.NoError(t, err)

		rr := e.post(t, "/jwt", `{"jwt":"`+freshJwt+`"}`)
		assert.Equal(t, freshJwt, jwtFromResponse(t, rr))
	})

	t.Run("tampered token", func(t *testing.T) {
		other := token.New("other-secret")
		forged, err := other.Mint(user)
		require.NoError(t, err)

		rr := e.post(t, "/jwt", `{"jwt":"`+forged+`"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, rr.Body.String())
	})
}

func TestInformationalEndpoints(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/health", "/about", "/", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		e.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, "GET %s", path)
	}
}

func mustEmail(t *testing.T, s string) domain.Email {
	t.Helper()
	email, err := domain.NewEmail(s)
	require.NoError(t, err)
	return email
}
