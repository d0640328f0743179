package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ecommerce-backend/api/middleware"
	"github.com/angelmondragon/ecommerce-backend/internal/auth"
	"github.com/angelmondragon/ecommerce-backend/internal/cart"
	"github.com/angelmondragon/ecommerce-backend/internal/categories"
	products "github.com/angelmondragon/ecommerce-backend/internal/products"
	"github.com/angelmondragon/ecommerce-backend/internal/roles"
	"github.com/angelmondragon/ecommerce-backend/internal/users"
	pkgAuth "github.com/angelmondragon/ecommerce-backend/pkg/auth"
	"github.com/angelmondragon/ecommerce-backend/pkg/auth/session"
	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ecommerce-backend/pkg/enums"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	"github.com/angelmondragon/ecommerce-backend/pkg/metrics"
	"github.com/angelmondragon/ecommerce-backend/pkg/types"
)

type memoryCache struct {
	mu       sync.Mutex
	values   map[string]string
	counters map[string]int64
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}, counters: map[string]int64{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *memoryCache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = fmt.Sprint(value)
	return true, nil
}

func (c *memoryCache) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *memoryCache) RateLimitKey(scope string) string {
	return "rate_limit:" + scope
}

func (c *memoryCache) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

func (c *memoryCache) Ping(ctx context.Context) error {
	return nil
}

// memorySessions stands in for the redis session manager.
type memorySessions struct {
	mu   sync.Mutex
	live map[string]string
}

func (s *memorySessions) Generate(ctx context.Context, accessID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.live[accessID] = token
	return token, nil
}

func (s *memorySessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live[oldAccessID] != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.live, oldAccessID)
	accessID := session.NewAccessID()
	token := uuid.NewString()
	s.live[accessID] = token
	return accessID, token, nil
}

func (s *memorySessions) Revoke(ctx context.Context, accessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, accessID)
	return nil
}

func (s *memorySessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[accessID]
	return ok, nil
}

type testServer struct {
	handler  http.Handler
	client   *db.Client
	cfg      *config.Config
	sessions *memorySessions
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{
			Secret:                 "router-secret",
			Issuer:                 "ecommerce-api",
			ExpirationMinutes:      30,
			RefreshTokenTTLMinutes: 60,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginIPLimit:       100,
			LoginUsernameLimit: 3,
			RegisterWindow:     time.Minute,
			RegisterIPLimit:    100,
			RegisterEmailLimit: 10,
		},
		Cart:        config.CartConfig{ConflictRetries: 3, MaxHeadersTake: 300},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	client := dbtest.Open(t)
	conn := client.DB()

	registry := prometheus.NewRegistry()
	productRepo := products.NewRepository(conn)
	usersRepo := users.NewRepository(conn)
	rolesRepo := roles.NewRepository(conn)
	categoriesRepo := categories.NewRepository(conn)

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Repo:            cart.NewRepository(conn),
		Tx:              client,
		Products:        productRepo,
		Users:           usersRepo,
		Metrics:         metrics.NewCartMetrics(registry),
		Logger:          logg,
		ConflictRetries: cfg.Cart.ConflictRetries,
	})
	require.NoError(t, err)
	productSvc, err := products.NewService(productRepo, client, categoriesRepo, cartSvc)
	require.NoError(t, err)
	categorySvc, err := categories.NewService(categoriesRepo)
	require.NoError(t, err)
	roleSvc, err := roles.NewService(rolesRepo)
	require.NoError(t, err)
	userSvc, err := users.NewService(usersRepo, client, rolesRepo, cartSvc)
	require.NoError(t, err)

	sessions := &memorySessions{live: map[string]string{}}
	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	require.NoError(t, err)
	registerSvc, err := auth.NewRegisterService(auth.RegisterServiceParams{DB: client, PasswordConfig: cfg.Password})
	require.NoError(t, err)

	handler := NewRouter(cfg, logg, registry, metrics.NewHTTPMetrics(registry), client, newMemoryCache(), sessions, Services{
		Auth:       authSvc,
		Register:   registerSvc,
		Cart:       cartSvc,
		Products:   productSvc,
		Categories: categorySvc,
		Roles:      roleSvc,
		Users:      userSvc,
	})
	return &testServer{handler: handler, client: client, cfg: cfg, sessions: sessions}
}

type call struct {
	method string
	path   string
	body   string
	token  string
	key    string
}

func (s *testServer) do(c call) *httptest.ResponseRecorder {
	var body io.Reader
	if c.body != "" {
		body = bytes.NewBufferString(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.key != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, c.key)
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

// tokenFor mints a token for an existing user and registers its session.
func (s *testServer) tokenFor(t *testing.T, role enums.Role) (string, uuid.UUID) {
	t.Helper()
	user := dbtest.MustCreateUser(t, s.client.DB(), role)
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     role,
		JTI:      accessID,
	})
	require.NoError(t, err)
	_, err = s.sessions.Generate(context.Background(), accessID)
	require.NoError(t, err)
	return token, user.ID
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := types.SuccessEnvelope{Data: dest}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope), resp.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(call{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = s.do(call{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = s.do(call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "http_requests_total")
}

func TestCartRequiresToken(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(call{method: http.MethodGet, path: "/api/v1/cart"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRevokedSessionIsRejected(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, enums.RoleClient)

	resp := s.do(call{method: http.MethodPost, path: "/api/v1/auth/logout", token: token})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/cart", token: token})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestManagerRoutesRejectClients(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, enums.RoleClient)

	for _, c := range []call{
		{method: http.MethodGet, path: "/api/v1/cart/headers"},
		{method: http.MethodGet, path: "/api/v1/cart/users/" + uuid.NewString()},
		{method: http.MethodGet, path: "/api/v1/cart/users/" + uuid.NewString() + "/header"},
		{method: http.MethodDelete, path: "/api/v1/cart/" + uuid.NewString()},
		{method: http.MethodGet, path: "/api/v1/users"},
		{method: http.MethodGet, path: "/api/v1/roles"},
		{method: http.MethodPost, path: "/api/v1/categories", body: `{"name":"x","slug":"x"}`},
		{method: http.MethodPost, path: "/api/v1/products", body: `{}`},
	} {
		c.token = token
		resp := s.do(c)
		assert.Equal(t, http.StatusForbidden, resp.Code, "%s %s", c.method, c.path)
	}
}

func TestProductsArePublic(t *testing.T) {
	s := newTestServer(t)
	category := dbtest.MustCreateCategory(t, s.client.DB())
	product := dbtest.MustCreateProduct(t, s.client.DB(), category.ID, "Teapot", "15.00")

	resp := s.do(call{method: http.MethodGet, path: "/api/v1/products"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/products/" + product.ID.String()})
	require.Equal(t, http.StatusOK, resp.Code)
	var dto products.ProductDTO
	decode(t, resp, &dto)
	assert.Equal(t, "Teapot", dto.Name)
}

func TestSellerCanCreateProduct(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, enums.RoleSeller)
	category := dbtest.MustCreateCategory(t, s.client.DB())

	body := fmt.Sprintf(`{"name":"Whisk","category_id":"%s","price":"4.50","stock":10}`, category.ID)
	resp := s.do(call{method: http.MethodPost, path: "/api/v1/products", body: body, token: token})
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

func TestRegisterLoginAndShop(t *testing.T) {
	s := newTestServer(t)
	category := dbtest.MustCreateCategory(t, s.client.DB())
	product := dbtest.MustCreateProduct(t, s.client.DB(), category.ID, "Bowl", "6.25")

	register := call{
		method: http.MethodPost,
		path:   "/api/v1/auth/register",
		body:   `{"username":"shopper","email":"Shopper@Example.com","password":"correct horse"}`,
		key:    "reg-1",
	}
	resp := s.do(register)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	first := resp.Body.String()

	// replay returns the stored response instead of a duplicate-user conflict
	resp = s.do(register)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.JSONEq(t, first, resp.Body.String())

	resp = s.do(call{method: http.MethodPost, path: "/api/v1/auth/login", body: `{"username":"shopper","password":"correct horse"}`})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var login auth.LoginResponse
	decode(t, resp, &login)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "client", login.Role)

	add := call{
		method: http.MethodPost,
		path:   "/api/v1/cart/items",
		body:   fmt.Sprintf(`{"product_id":"%s","quantity":2}`, product.ID),
		token:  login.AccessToken,
		key:    "add-1",
	}
	resp = s.do(add)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resp = s.do(add)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/cart", token: login.AccessToken})
	require.Equal(t, http.StatusOK, resp.Code)
	var view cart.CartView
	decode(t, resp, &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, "12.5", view.Total.String())

	itemPath := "/api/v1/cart/items/" + view.Items[0].ID.String()
	resp = s.do(call{method: http.MethodPut, path: itemPath, body: `{"quantity":5}`, token: login.AccessToken})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = s.do(call{method: http.MethodDelete, path: itemPath, token: login.AccessToken})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/cart", token: login.AccessToken})
	require.Equal(t, http.StatusOK, resp.Code)
	view = cart.CartView{}
	decode(t, resp, &view)
	assert.Nil(t, view.Header)
	assert.Empty(t, view.Items)
}

func TestCartAddRequiresIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, enums.RoleClient)

	resp := s.do(call{
		method: http.MethodPost,
		path:   "/api/v1/cart/items",
		body:   fmt.Sprintf(`{"product_id":"%s","quantity":1}`, uuid.New()),
		token:  token,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestManagerCartAdministration(t *testing.T) {
	s := newTestServer(t)
	managerToken, _ := s.tokenFor(t, enums.RoleManager)
	clientToken, clientID := s.tokenFor(t, enums.RoleClient)
	category := dbtest.MustCreateCategory(t, s.client.DB())
	product := dbtest.MustCreateProduct(t, s.client.DB(), category.ID, "Jar", "2.00")

	resp := s.do(call{
		method: http.MethodPost,
		path:   "/api/v1/cart/items",
		body:   fmt.Sprintf(`{"product_id":"%s","quantity":3}`, product.ID),
		token:  clientToken,
		key:    "jar",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/cart/headers?take=10", token: managerToken})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), clientID.String())

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/cart/headers?take=301", token: managerToken})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/cart/users/" + clientID.String(), token: managerToken})
	require.Equal(t, http.StatusOK, resp.Code)
	var view cart.CartView
	decode(t, resp, &view)
	require.NotNil(t, view.Header)

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/cart/users/" + clientID.String() + "/header", token: managerToken})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), view.Header.ID.String())

	resp = s.do(call{method: http.MethodDelete, path: "/api/v1/cart/" + view.Header.ID.String(), token: managerToken})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/cart/users/" + clientID.String() + "/header", token: managerToken})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = s.do(call{method: http.MethodGet, path: "/api/v1/cart", token: clientToken})
	require.Equal(t, http.StatusOK, resp.Code)
	view = cart.CartView{}
	decode(t, resp, &view)
	assert.Nil(t, view.Header)
}

func TestLoginRateLimitedPerUsername(t *testing.T) {
	s := newTestServer(t)
	body := `{"username":"Nobody","password":"wrong-password"}`

	for i := 0; i < s.cfg.AuthRateLimit.LoginUsernameLimit; i++ {
		resp := s.do(call{method: http.MethodPost, path: "/api/v1/auth/login", body: body})
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	resp := s.do(call{method: http.MethodPost, path: "/api/v1/auth/login", body: strings.ToLower(body)})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
}

func TestUsersMe(t *testing.T) {
	s := newTestServer(t)
	token, id := s.tokenFor(t, enums.RoleClient)

	resp := s.do(call{method: http.MethodGet, path: "/api/v1/users/me", token: token})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var me users.UserDTO
	decode(t, resp, &me)
	assert.Equal(t, id, me.ID)
}
