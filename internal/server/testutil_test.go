package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/models"
	"agora/internal/wiki"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

// testEnv is a full server over SQLite, an in-memory wiki and, optionally,
// miniredis.
type testEnv struct {
	t   *testing.T
	s   *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func newTestEnv(t *testing.T, withRedis bool) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	env := &testEnv{t: t, db: db}
	if withRedis {
		env.mr = miniredis.RunT(t)
		env.rdb = redis.NewClient(&redis.Options{Addr: env.mr.Addr()})
		t.Cleanup(func() { _ = env.rdb.Close() })
	}

	store, err := wiki.NewStore(afero.NewMemMapFs(), "entries")
	require.NoError(t, err)

	cfg := &config.Config{JWTSecret: "test-secret", Env: "test", Port: "0"}
	s, err := NewServerWithDeps(cfg, db, env.rdb, store)
	require.NoError(t, err)
	s.accountService.WithBcryptCost(bcrypt.MinCost)

	env.s = s
	env.app = s.newApp()
	return env
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(method, path string, body any, token string) *http.Response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// register creates an account through the API and returns its token and id.
func (e *testEnv) register(username string) (string, uint) {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username":     username,
		"email":        username + "@example.com",
		"password":     testPassword,
		"confirmation": testPassword,
	}, "")
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeJSON(e.t, resp, &out)
	return out.Token, out.User.ID
}

func (e *testEnv) makeAdmin(userID uint) {
	e.t.Helper()
	require.NoError(e.t, e.db.Model(&models.User{}).Where("id = ?", userID).Update("is_admin", true).Error)
}

func (e *testEnv) createListing(token, title string, price int64) models.Listing {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/api/auctions/listings", map[string]any{
		"title":          title,
		"description":    "A fine " + title,
		"starting_price": price,
	}, token)
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
	var listing models.Listing
	decodeJSON(e.t, resp, &listing)
	return listing
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func errorBody(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	var out models.ErrorResponse
	decodeJSON(t, resp, &out)
	return out
}

func urlf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
