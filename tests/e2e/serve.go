package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/rewear/internal/handlers"
	"github.com/nkiryanov/rewear/internal/logger"
	"github.com/nkiryanov/rewear/internal/repository"
	"github.com/nkiryanov/rewear/internal/repository/postgres"
	"github.com/nkiryanov/rewear/internal/service/auth"
	"github.com/nkiryanov/rewear/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/rewear/internal/service/item"
	"github.com/nkiryanov/rewear/internal/service/redemption"
	"github.com/nkiryanov/rewear/internal/service/swap"
	"github.com/nkiryanov/rewear/internal/service/user"
)

type Services struct {
	Storage     repository.Storage
	AuthService *auth.AuthService
	UserService *user.UserService
}

// Create db transaction and run server in with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.InTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	t.Helper()

	tx, err := dbpool.Begin(t.Context())
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(t.Context()) }()

	storage := postgres.NewStorage(tx)

	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh())
	require.NoError(t, err, "token manager should be created without errors")

	us := user.NewService(user.BcryptHasher{Cost: bcrypt.MinCost}, storage)
	as, err := auth.NewService(auth.Config{}, tokenManager, us)
	require.NoError(t, err, "auth service starting error", err)

	router := handlers.NewRouter(
		handlers.Services{
			Auth:       as,
			Users:      us,
			Items:      item.NewService(storage),
			Redemption: redemption.NewService(storage, nil),
			Swaps:      swap.NewService(storage, nil),
			Health:     dbpool,
		},
		handlers.Config{},
		logger.NewNoOpLogger(),
	)

	// Run http server with the router in transaction
	srv := httptest.NewServer(router)
	defer srv.Close()

	fn(tx, srv.URL, Services{Storage: storage, AuthService: as, UserService: us})
}

// Minimal JSON API client acting as one user
type Client struct {
	t      *testing.T
	url    string
	access string
}

func NewClient(t *testing.T, srvURL string) *Client {
	return &Client{t: t, url: srvURL}
}

// Register user and keep its access token for next requests
func (c *Client) Register(email string, name string) *Client {
	c.t.Helper()

	resp := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "name": name, "password": "StrongEnoughPassword",
	})
	defer func() { _ = resp.Body.Close() }()
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, "user must be registered")

	c.access = resp.Header.Get("Authorization")
	require.NotEmpty(c.t, c.access)
	return c
}

// Send request with JSON body and decode JSON response into out (if not nil)
func (c *Client) Call(method string, path string, body any, out any) int {
	c.t.Helper()

	resp := c.do(method, path, body)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if out != nil {
		require.NoErrorf(c.t, json.Unmarshal(data, out), "response must be JSON: %s", string(data))
	}
	return resp.StatusCode
}

func (c *Client) do(method string, path string, body any) *http.Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = strings.NewReader(string(data))
	}

	req, err := http.NewRequest(method, c.url+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.access != "" {
		req.Header.Set("Authorization", c.access)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	return resp
}
