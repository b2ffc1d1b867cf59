package boundary

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel/internal/archive"
	"github.com/aristath/sentinel/internal/cache"
	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/di"
	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/jobengine"
	"github.com/aristath/sentinel/internal/progress"
	"github.com/aristath/sentinel/internal/strategy"
	"github.com/aristath/sentinel/internal/universe"

	gw "github.com/aristath/sentinel/internal/gateway"
)

// fakeProvider is a minimal providers.QuoteProvider used to drive the
// boundary layer end-to-end without any network access.
type fakeProvider struct {
	name     string
	roster   []domain.TickerRef
	snapshot map[string]domain.QuoteSnapshot
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) LoadReferenceUniverse(ctx context.Context) ([]domain.TickerRef, error) {
	return p.roster, nil
}

func (p *fakeProvider) FetchSnapshotBatch(ctx context.Context, codes []string) (map[string]domain.QuoteSnapshot, error) {
	out := make(map[string]domain.QuoteSnapshot, len(codes))
	for _, c := range codes {
		if s, ok := p.snapshot[c]; ok {
			out[c] = s
		}
	}
	return out, nil
}

func (p *fakeProvider) FetchHistory(ctx context.Context, code string, lookbackDays int) (domain.History, error) {
	return domain.History{{Close: 10, High: 11, Low: 9, Volume: 100}}, nil
}

func (p *fakeProvider) FetchFundamentals(ctx context.Context, code string) (domain.Fundamentals, error) {
	return domain.Fundamentals{}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	primary := &fakeProvider{name: "eastmoney", roster: []domain.TickerRef{
		{Code: "600001", Name: "Good Co", Market: domain.MarketPrimary, TotalMarketCap: 500},
	}, snapshot: map[string]domain.QuoteSnapshot{
		"600001": {Close: 11, PreviousClose: 10, Volume: 1000},
	}}
	secondary := &fakeProvider{name: "sina"}

	cfg := &config.Config{
		Port:               8080,
		CORSAllowedOrigins: []string{"*"},
		RateLimitRPSPrimary:   1000,
		RateLimitRPSSecondary: 1000,
		CacheTTLReference:     time.Minute,
		CacheTTLFundamentals:  time.Minute,
		CacheTTLSnapshot:      time.Minute,
		DefaultWorkerCount:    2,
		MaxConcurrentJobs:     4,
		JobRetention:          64,
	}

	log := zerolog.Nop()
	quoteCache := cache.New(100)
	gateway := gw.New(cfg, primary, secondary, quoteCache, log)
	resolver := universe.New(gateway, log)
	strategies := strategy.NewRegistry()
	progressStore := progress.New(cfg.JobRetention)

	archiveStore, err := archive.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = archiveStore.Close() })

	engine := jobengine.New(resolver, gateway, strategies, progressStore, cfg.DefaultWorkerCount, cfg.MaxConcurrentJobs, log).
		WithArchiver(archiveStore)

	container := &di.Container{
		Cache:      quoteCache,
		Gateway:    gateway,
		Universe:   resolver,
		Strategies: strategies,
		Progress:   progressStore,
		Archive:    archiveStore,
		Engine:     engine,
	}

	srv := New(cfg, container, log)
	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthzReportsHealthy(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["archive_ok"])
}

func TestStrategyRegistryListsBuiltins(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/strategies/registry")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var defs []domain.StrategyDefinition
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&defs))
	assert.Len(t, defs, 3)
}

func TestStartExecutionRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/strategies/execute", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartExecutionRejectsUnknownStrategy(t *testing.T) {
	ts := newTestServer(t)
	body, _ := json.Marshal(map[string]any{"strategy_id": "does-not-exist"})
	resp, err := http.Post(ts.URL+"/api/strategies/execute", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartExecutionThenPollProgressAndResult(t *testing.T) {
	ts := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"strategy_id": "blue-chip-stable", "max_stocks": 10})
	resp, err := http.Post(ts.URL+"/api/strategies/execute", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var started struct {
		ExecutionID string `json:"execution_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	require.NotEmpty(t, started.ExecutionID)

	deadline := time.Now().Add(2 * time.Second)
	var progressResp *http.Response
	for time.Now().Before(deadline) {
		progressResp, err = http.Get(ts.URL + "/api/strategies/executions/" + started.ExecutionID + "/progress")
		require.NoError(t, err)
		var view domain.ProgressView
		require.NoError(t, json.NewDecoder(progressResp.Body).Decode(&view))
		progressResp.Body.Close()
		if view.State == domain.JobCompleted {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	resultResp, err := http.Get(ts.URL + "/api/strategies/executions/" + started.ExecutionID + "/result")
	require.NoError(t, err)
	defer resultResp.Body.Close()
	assert.Equal(t, http.StatusOK, resultResp.StatusCode)

	var result domain.FinalResult
	require.NoError(t, json.NewDecoder(resultResp.Body).Decode(&result))
	assert.Equal(t, domain.JobCompleted, result.State)
	assert.Equal(t, 1, result.Analyzed)
}

func TestGetProgressUnknownExecutionIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/strategies/executions/does-not-exist/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelUnknownExecutionIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/strategies/executions/does-not-exist", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTickerTechnicalUnknownTickerIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/tickers/999999/technical")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTickerTechnicalKnownTickerReturnsSnapshot(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/tickers/600001/technical")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body technicalResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 11.0, body.Snapshot.Close)
}

func TestMarketOverviewReportsBreadth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/market/overview")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body marketOverviewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.TotalTickers)
	assert.Equal(t, 1, body.Advancers, "close 11 > previous close 10")
}
