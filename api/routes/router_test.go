package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmconnect-backend/internal/auth"
	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/checkout"
	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/internal/reviews"
	"github.com/angelmondragon/farmconnect-backend/internal/subscriptions"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/auth/session"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/metrics"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	pkgredis "github.com/angelmondragon/farmconnect-backend/pkg/redis"
	"github.com/angelmondragon/farmconnect-backend/pkg/store/storetest"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }
func (plainHasher) Verify(password, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "plain:") {
		return false, errors.New("bad hash")
	}
	return encoded == "plain:"+password, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSAllowedOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "farmconnect", ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginIPLimit:       20,
			LoginEmailLimit:    5,
			RegisterWindow:     time.Minute,
			RegisterIPLimit:    20,
			RegisterEmailLimit: 10,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	client := pkgredis.NewFromClient(raw)

	cfg := testConfig()
	st := storetest.New(t, func(snap *models.Snapshot) {
		farmer := storetest.Farmer("f1", "Green Valley Farm")
		farmer.Email = "farmer@example.com"
		farmer.PasswordHash = "plain:harvest"
		snap.Users = append(snap.Users, farmer)
		snap.Products = append(snap.Products, storetest.Product("p1", farmer, 45, 50))
	})
	logg := logger.Nop()
	reg := prometheus.NewRegistry()
	marketplace := metrics.NewMarketplaceMetrics(reg)

	sessions, err := session.NewManager(client, cfg.JWT)
	require.NoError(t, err)
	userSvc, err := users.NewService(users.ServiceParams{Store: st, Hasher: plainHasher{}})
	require.NoError(t, err)
	authSvc, err := auth.NewService(auth.ServiceParams{Users: userSvc, SessionManager: sessions, JWTConfig: cfg.JWT})
	require.NoError(t, err)
	subSvc, err := subscriptions.NewService(subscriptions.ServiceParams{Store: st, Period: 30 * 24 * time.Hour, Logger: logg})
	require.NoError(t, err)
	productSvc, err := products.NewService(st, nil)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.ServiceParams{Store: st, Pricing: cart.PricingFromConfig(cfg.Marketplace)})
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{Store: st, Metrics: marketplace, Logger: logg})
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.ServiceParams{Store: st, Metrics: marketplace, Logger: logg})
	require.NoError(t, err)
	reviewSvc, err := reviews.NewService(st, nil)
	require.NoError(t, err)
	notificationSvc, err := notifications.NewService(st)
	require.NoError(t, err)

	return NewRouter(cfg, logg, Infra{Store: st, Redis: client, Sessions: sessions, Gatherer: reg}, Services{
		Auth:          authSvc,
		Users:         userSvc,
		Subscriptions: subSvc,
		Products:      productSvc,
		Cart:          cartSvc,
		Checkout:      checkoutSvc,
		Orders:        orderSvc,
		Reviews:       reviewSvc,
		Notifications: notificationSvc,
	})
}

type call struct {
	method  string
	path    string
	token   string
	key     string
	body    any
	headers map[string]string
}

func do(t *testing.T, h http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:4000"
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.key != "" {
		req.Header.Set("Idempotency-Key", c.key)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func data(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, call{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(t, h, call{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "checkout_orders_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t)
	for _, c := range []call{
		{method: http.MethodGet, path: "/api/v1/orders"},
		{method: http.MethodGet, path: "/api/v1/notifications"},
		{method: http.MethodPatch, path: "/api/v1/users/me", body: map[string]any{}},
		{method: http.MethodGet, path: "/api/v1/auth/me"},
	} {
		rec := do(t, h, c)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", c.method, c.path, rec.Code)
		}
	}
}

func TestCatalogIsPublic(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, call{method: http.MethodGet, path: "/api/v1/products?organic=true"})
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.Product
	data(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID)
}

func TestMarketplaceJourney(t *testing.T) {
	h := newTestRouter(t)

	register := call{
		method: http.MethodPost,
		path:   "/api/v1/auth/register",
		body:   map[string]any{"name": "Rajesh Kumar", "email": "rajesh@example.com", "password": "secret1", "type": "consumer"},
	}
	rec := do(t, h, register)
	require.Equal(t, http.StatusBadRequest, rec.Code, "register needs an idempotency key")

	register.key = "reg-1"
	rec = do(t, h, register)
	require.Equal(t, http.StatusCreated, rec.Code)
	var consumer auth.TokenResponse
	data(t, rec, &consumer)
	require.NotNil(t, consumer.User)
	consumerID := consumer.User.ID

	replay := do(t, h, register)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))

	rec = do(t, h, call{method: http.MethodPost, path: "/api/v1/products", token: consumer.AccessToken,
		body: map[string]any{"name": "Tomatoes", "category": "Vegetables", "price": "40", "unit": "kg"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, call{method: http.MethodGet, path: "/api/v1/cart/someone-else/items", token: consumer.AccessToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/v1/cart/" + consumerID + "/items", token: consumer.AccessToken,
		body: map[string]any{"productId": "p1", "quantity": 3}})
	require.Equal(t, http.StatusCreated, rec.Code)

	checkoutCall := call{method: http.MethodPost, path: "/api/v1/orders", token: consumer.AccessToken,
		body: map[string]any{"paymentMethod": "cod", "deliveryAddress": "Andheri East, Mumbai"}}
	rec = do(t, h, checkoutCall)
	require.Equal(t, http.StatusBadRequest, rec.Code, "checkout needs an idempotency key")

	checkoutCall.key = "checkout-1"
	rec = do(t, h, checkoutCall)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created []models.Order
	data(t, rec, &created)
	require.Len(t, created, 1)
	assert.Equal(t, "135", created[0].Total.String())

	replay = do(t, h, checkoutCall)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	var replayed []models.Order
	data(t, replay, &replayed)
	assert.Equal(t, created[0].ID, replayed[0].ID)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/v1/auth/login",
		body: map[string]any{"email": "farmer@example.com", "password": "harvest"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var farmer auth.TokenResponse
	data(t, rec, &farmer)

	rec = do(t, h, call{method: http.MethodGet, path: "/api/v1/orders", token: farmer.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var received orders.ListResult
	data(t, rec, &received)
	require.Len(t, received.Items, 1)

	rec = do(t, h, call{method: http.MethodPatch, path: "/api/v1/orders/" + created[0].ID + "/status", token: farmer.AccessToken,
		body: map[string]any{"status": "shipped"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, call{method: http.MethodPatch, path: "/api/v1/orders/" + created[0].ID + "/status", token: farmer.AccessToken,
		body: map[string]any{"status": "confirmed"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, call{method: http.MethodGet, path: "/api/v1/notifications/unread-count", token: consumer.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var unread map[string]int
	data(t, rec, &unread)
	assert.Equal(t, 2, unread["count"], "welcome plus status update")

	rec = do(t, h, call{method: http.MethodPost, path: "/api/v1/auth/logout", token: consumer.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, call{method: http.MethodGet, path: "/api/v1/auth/me", token: consumer.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, call{method: http.MethodOptions, path: "/api/v1/products", headers: map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": "GET",
	}})
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
