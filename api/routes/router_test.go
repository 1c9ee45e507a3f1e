package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/internal/approvals"
	product "github.com/angelmondragon/zm-marketplace-backend/internal/products"
	pkgAuth "github.com/angelmondragon/zm-marketplace-backend/pkg/auth"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/auth/session"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/config"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	}
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	return true, 1, nil
}

func (m *memoryStore) Ping(ctx context.Context) error {
	return nil
}

type stubProductService struct {
	product.Service
}

func (stubProductService) ListPublic(ctx context.Context, filter product.ListFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	return pagination.Page[models.Product]{Items: []models.Product{}}, nil
}

type stubApprovalsService struct {
	approvals.Service
}

func (stubApprovalsService) PendingCounts(ctx context.Context) (map[enums.ApprovalSubject]int64, error) {
	return map[enums.ApprovalSubject]int64{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "zm-test", ExpirationMinutes: 10},
	}
}

func newTestRouter(t *testing.T, store redisStore) http.Handler {
	t.Helper()
	return NewRouter(
		testConfig(),
		nil,
		stubPinger{},
		store,
		stubSessionManager{},
		Services{
			Products:  stubProductService{},
			Approvals: stubApprovalsService{},
		},
	)
}

func bearerFor(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func serve(router http.Handler, method, path, authorization, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, newMemoryStore())

	for _, path := range []string{"/health/live", "/health/ready"} {
		if rec := serve(router, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, http.MethodGet, "/api/v1/products?limit=5", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBuyerRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, http.MethodGet, "/api/v1/orders", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCheckoutRouteDemandsIdempotencyKey(t *testing.T) {
	router := newTestRouter(t, newMemoryStore())

	rec := serve(router, http.MethodPost, "/api/v1/orders", bearerFor(t, enums.UserRoleBuyer), `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Idempotency-Key") {
		t.Fatalf("expected idempotency error, got %s", rec.Body.String())
	}
}

func TestArtisanRoutesRejectBuyers(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, http.MethodGet, "/api/v1/artisan/profile", bearerFor(t, enums.UserRoleBuyer), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, role := range []enums.UserRole{enums.UserRoleBuyer, enums.UserRoleArtisan} {
		rec := serve(router, http.MethodGet, "/api/admin/v1/approvals/counts", bearerFor(t, role), "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 got %d", role, rec.Code)
		}
	}
}

func TestAdminRoutesAllowAdmins(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, http.MethodGet, "/api/admin/v1/approvals/counts", bearerFor(t, enums.UserRoleAdmin), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}
