package httpserver

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Derecoder4/Rugguard-bot/internal/adapter/memory"
	"github.com/Derecoder4/Rugguard-bot/internal/domain"
	"github.com/Derecoder4/Rugguard-bot/internal/platform/config"
)

type stubService struct {
	stats *domain.Stats
	err   error
}

func (s *stubService) Status(context.Context) (*domain.Stats, error) {
	return s.stats, s.err
}

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func newTestServer(t *testing.T, service statusService, analyses domain.AnalysisRepository, checks ...HealthCheck) *Server {
	t.Helper()
	cfg := &config.Config{Port: "8080"}
	return NewServer(cfg, service, analyses, nil, checks)
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleLiveness(t *testing.T) {
	c, rec := newContext("/health/live")
	srv := newTestServer(t, &stubService{stats: &domain.Stats{}}, nil)

	err := srv.handleLiveness(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"uptime"`)
}

func TestHandleReadiness(t *testing.T) {
	c, rec := newContext("/health/ready")
	srv := newTestServer(t, &stubService{stats: &domain.Stats{}}, nil,
		HealthCheck{Name: "postgres", Check: healthOK},
		HealthCheck{Name: "redis", Check: healthOK},
	)

	err := srv.handleReadiness(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestHandleReadiness_PostgresDown(t *testing.T) {
	c, rec := newContext("/health/ready")
	srv := newTestServer(t, &stubService{stats: &domain.Stats{}}, nil,
		HealthCheck{Name: "postgres", Check: healthErr("connection refused")},
		HealthCheck{Name: "redis", Check: healthOK},
	)

	err := srv.handleReadiness(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"failed_check":"postgres"`)
}

func TestHandleStatus_Active(t *testing.T) {
	c, rec := newContext("/status")
	srv := newTestServer(t, &stubService{stats: &domain.Stats{
		TotalProcessed:  12,
		RecentProcessed: 3,
		TotalAnalyses:   10,
		RecentAnalyses:  2,
		TrustedAccounts: 58,
		LastProcessedAt: time.Now().Add(-time.Minute),
		HasActivity:     true,
	}}, nil)

	err := srv.handleStatus(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"state":"active"`)
	assert.Contains(t, body, `"processed_total":12`)
	assert.Contains(t, body, `"trusted_accounts":58`)
}

func TestHandleStatus_IdleWhenStale(t *testing.T) {
	c, rec := newContext("/status")
	srv := newTestServer(t, &stubService{stats: &domain.Stats{
		LastProcessedAt: time.Now().Add(-3 * time.Hour),
		HasActivity:     true,
	}}, nil)

	err := srv.handleStatus(c)

	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)
}

func TestHandleStatus_IdleWithoutActivity(t *testing.T) {
	c, rec := newContext("/status")
	srv := newTestServer(t, &stubService{stats: &domain.Stats{}}, nil)

	err := srv.handleStatus(c)

	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)
	assert.Contains(t, rec.Body.String(), `"last_processed_at":null`)
}

func TestHandleStatus_ServiceError(t *testing.T) {
	c, _ := newContext("/status")
	srv := newTestServer(t, &stubService{err: errors.New("database gone")}, nil)

	err := srv.handleStatus(c)
	assert.Error(t, err)
}

func TestHandleRecentAnalyses(t *testing.T) {
	clock := clockwork.NewRealClock()
	store := memory.NewStore(clock)
	require.NoError(t, store.Upsert(context.Background(), &domain.Analysis{
		AccountID:     "77",
		Handle:        "project_x",
		Score:         85,
		FollowerRatio: 3.5,
		AnalyzedAt:    clock.Now(),
	}))

	c, rec := newContext("/api/analyses/recent")
	srv := newTestServer(t, &stubService{stats: &domain.Stats{}}, store)

	err := srv.handleRecentAnalyses(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"handle":"project_x"`)
	assert.Contains(t, body, `"score":85`)
	assert.Contains(t, body, `"follower_ratio":3.5`)
}

func TestHandleRecentAnalyses_InfiniteRatioOmitted(t *testing.T) {
	clock := clockwork.NewRealClock()
	store := memory.NewStore(clock)
	require.NoError(t, store.Upsert(context.Background(), &domain.Analysis{
		AccountID:     "88",
		Handle:        "fresh",
		Score:         45,
		FollowerRatio: math.Inf(1),
		AnalyzedAt:    clock.Now(),
	}))

	c, rec := newContext("/api/analyses/recent")
	srv := newTestServer(t, &stubService{stats: &domain.Stats{}}, store)

	err := srv.handleRecentAnalyses(c)

	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"follower_ratio":null`)
}

func TestHandleRecentAnalyses_InvalidLimit(t *testing.T) {
	c, _ := newContext("/api/analyses/recent?limit=9999")
	srv := newTestServer(t, &stubService{stats: &domain.Stats{}}, memory.NewStore(clockwork.NewRealClock()))

	err := srv.handleRecentAnalyses(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
