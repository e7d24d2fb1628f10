package routes

import (
	"context"
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
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/larder-backend/internal/sharing"
	"github.com/angelmondragon/larder-backend/internal/shoppinglists"
	pkgAuth "github.com/angelmondragon/larder-backend/pkg/auth"
	"github.com/angelmondragon/larder-backend/pkg/config"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	"github.com/angelmondragon/larder-backend/pkg/logger"
	"github.com/angelmondragon/larder-backend/pkg/metrics"
	"github.com/angelmondragon/larder-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	data   map[string]string
	counts map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, counts: map[string]int64{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (f *fakeCache) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCache) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (f *fakeCache) Allow(_ context.Context, scope string, limit int64, window time.Duration) (redis.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return redis.Decision{Allowed: f.counts[scope] <= limit, Count: f.counts[scope], ResetIn: window}, nil
}

func (f *fakeCache) Ping(context.Context) error {
	return nil
}

type stubLists struct {
	shoppinglists.Service
	creates int
}

func (s *stubLists) CreateList(ctx context.Context, input shoppinglists.CreateListInput) (*shoppinglists.ListDTO, error) {
	s.creates++
	return &shoppinglists.ListDTO{ListSummaryDTO: shoppinglists.ListSummaryDTO{ID: uuid.New(), Title: input.Title}}, nil
}

type stubSharing struct {
	sharing.Service
}

func (stubSharing) CreateShare(ctx context.Context, input sharing.CreateShareInput) (*sharing.GrantDTO, error) {
	return &sharing.GrantDTO{ID: uuid.New(), ListID: input.ListID, Role: input.Role, Status: enums.ShareStatusPending}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:            config.AppConfig{Env: "dev"},
		JWT:            config.JWTConfig{Secret: "secret", Issuer: "larder-test", ExpirationMinutes: 30},
		CORS:           config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Idempotency:    config.IdempotencyConfig{TTL: time.Hour},
		ShareRateLimit: config.ShareRateLimitConfig{Window: time.Minute, Limit: 1},
		Shopping:       config.ShoppingConfig{DefaultPageSize: 20, MaxPageSize: 100, MaxLinesPerList: 500},
	}
}

func newTestRouter(t *testing.T, lists *stubLists) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	metrics.NewShoppingMetrics(reg).ObserveConsolidation(metrics.SourceAdHoc, 1, 0, 0)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	router := NewRouter(cfg, logg, stubPinger{}, newFakeCache(), reg, Services{
		Lists:   lists,
		Sharing: stubSharing{},
	})
	return router, cfg
}

func bearer(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.Mint(cfg.JWT, time.Now(), userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router, _ := newTestRouter(t, &stubLists{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, resp.Code, path)
		assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "larder_consolidations_total")
}

func TestAPIRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t, &stubLists{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/lists", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateListReplaysIdempotentRequest(t *testing.T) {
	lists := &stubLists{}
	router, cfg := newTestRouter(t, lists)
	auth := bearer(t, cfg, uuid.New())

	body := `{"title":"Week","ingredients":["domates - 3 adet"]}`
	var first string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/lists", strings.NewReader(body))
		req.Header.Set("Authorization", auth)
		req.Header.Set("Idempotency-Key", "k1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		if i == 0 {
			first = resp.Body.String()
		} else {
			assert.Equal(t, first, resp.Body.String())
		}
	}
	assert.Equal(t, 1, lists.creates)
}

func TestShareRouteIsRateLimited(t *testing.T) {
	router, cfg := newTestRouter(t, &stubLists{})
	auth := bearer(t, cfg, uuid.New())
	path := "/api/v1/lists/" + uuid.NewString() + "/share"

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"grantee":"bob","role":"viewer"}`))
		req.Header.Set("Authorization", auth)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestUnknownRouteIs404(t *testing.T) {
	router, cfg := newTestRouter(t, &stubLists{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	req.Header.Set("Authorization", bearer(t, cfg, uuid.New()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
