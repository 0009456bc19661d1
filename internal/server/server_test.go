package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/cadetprep/internal/assistant"
	"github.com/dshills/cadetprep/internal/cache"
	"github.com/dshills/cadetprep/internal/config"
	"github.com/dshills/cadetprep/internal/metrics"
	"github.com/dshills/cadetprep/internal/providers"
)

const insights = `[{"title":"Hub","category":"Hub Strategy","content":"IST reaches most of the world.","interview_tip":"Mention geography."}]`

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Gemini.Enabled = true
	cfg.Gemini.APIKey = "test-key"
	cfg.AIEnhancements["destinations"] = true
	cfg.AIEnhancements["training_aircraft"] = true
	return cfg
}

type testEnv struct {
	srv   *httptest.Server
	calls *atomic.Int32
	m     *metrics.Metrics
}

func newTestEnv(t *testing.T, reply string) *testEnv {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)

	calls := &atomic.Int32{}
	gen := providers.Func(func(_ context.Context, _ providers.GenerateRequest) (providers.GenerateResponse, error) {
		calls.Add(1)
		return providers.GenerateResponse{Content: reply}, nil
	})
	m := metrics.New(nil)
	a := assistant.New(testConfig(), store, gen, assistant.Options{Logger: zerolog.Nop(), Metrics: m})
	s := New(a, m, zerolog.Nop())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, calls: calls, m: m}
}

func (e *testEnv) do(t *testing.T, method, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, insights)
	resp, body := env.do(t, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	env := newTestEnv(t, insights)
	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/reference/weather", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, "abc-123", e.RequestID)
	assert.Contains(t, e.Error, "unknown dataset")
}

func TestPages(t *testing.T) {
	env := newTestEnv(t, insights)
	resp, body := env.do(t, http.MethodGet, "/api/pages")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out pagesResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.AIAvailable)
	assert.Equal(t, "gemini", out.Provider)
	assert.Equal(t, "#9b59b6", out.Display.IndicatorColor)

	enabled := map[string]bool{}
	for _, p := range out.Pages {
		enabled[p.Name] = p.AIEnabled
	}
	assert.True(t, enabled["destinations"])
	assert.True(t, enabled["da42"])
	assert.False(t, enabled["fleet"])
	assert.False(t, enabled["home"])
}

func TestReference(t *testing.T) {
	env := newTestEnv(t, insights)

	resp, body := env.do(t, http.MethodGet, "/api/reference/fleet")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var fleet struct {
		Hub      string            `json:"hub"`
		Aircraft []json.RawMessage `json:"aircraft"`
	}
	require.NoError(t, json.Unmarshal(body, &fleet))
	assert.Equal(t, "Istanbul Airport (IST)", fleet.Hub)
	assert.Len(t, fleet.Aircraft, 11)

	resp, body = env.do(t, http.MethodGet, "/api/aircraft/c172")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name": "Cessna 172 NavIII"`)

	resp, _ = env.do(t, http.MethodGet, "/api/aircraft/a380")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerate_CachedAndFresh(t *testing.T) {
	env := newTestEnv(t, insights)

	resp, body := env.do(t, http.MethodPost, "/api/ai/destinations")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var res struct {
		Topic     string `json:"topic"`
		Available bool   `json:"available"`
		Cached    bool   `json:"cached"`
		Items     []struct {
			Title string `json:"title"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Available)
	assert.False(t, res.Cached)
	assert.Equal(t, "Hub", res.Items[0].Title)

	_, body = env.do(t, http.MethodPost, "/api/ai/destinations")
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Cached)
	assert.EqualValues(t, 1, env.calls.Load())

	_, body = env.do(t, http.MethodPost, "/api/ai/destinations?fresh=true")
	require.NoError(t, json.Unmarshal(body, &res))
	assert.False(t, res.Cached)
	assert.EqualValues(t, 2, env.calls.Load())

	resp, body = env.do(t, http.MethodGet, "/api/ai/destinations/history")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var h historyResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Len(t, h.Entries, 3)
}

func TestGenerate_Errors(t *testing.T) {
	env := newTestEnv(t, insights)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/api/ai/weather", http.StatusNotFound},
		{http.MethodPost, "/api/ai/fleet", http.StatusForbidden},
		{http.MethodPost, "/api/ai/destinations?fresh=maybe", http.StatusBadRequest},
		{http.MethodPost, "/api/ai/training_aircraft?aircraft=a380", http.StatusBadRequest},
		{http.MethodGet, "/api/ai/weather/history", http.StatusNotFound},
		{http.MethodGet, "/api/ai/destinations", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, _ := env.do(t, tt.method, tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
	assert.EqualValues(t, 0, env.calls.Load())
}

func TestGenerate_SoftFailureIs200(t *testing.T) {
	env := newTestEnv(t, "")
	resp, body := env.do(t, http.MethodPost, "/api/ai/destinations")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"available": false`)
	assert.Contains(t, string(body), "no result generated")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, insights)
	env.do(t, http.MethodGet, "/api/aircraft/da40")
	env.do(t, http.MethodGet, "/api/aircraft/da40")

	resp, body := env.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `cadetprep_http_requests_total{code="200",route="/api/aircraft/{id}"} 2`)
}

func TestServe_GracefulShutdown(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	a := assistant.New(config.Default(), store, nil, assistant.Options{Logger: zerolog.Nop()})
	s := New(a, nil, zerolog.Nop())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	// No metrics collector, no /metrics route.
	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestWatchConfig_Reconfigures(t *testing.T) {
	for _, k := range []string{"CADETPREP_PROVIDER", "CADETPREP_MODEL", "OLLAMA_HOST"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: gemini\n"), 0o600))

	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	a := assistant.New(config.Default(), store, nil, assistant.Options{Logger: zerolog.Nop()})
	s := New(a, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.WatchConfig(ctx, path, nil) }()
	time.Sleep(100 * time.Millisecond)

	yaml := strings.Join([]string{
		"provider: ollama",
		"ollama:",
		"  host: http://127.0.0.1:1",
		"  model: llama3.2",
		"ai_enhancements:",
		"  news: true",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	require.Eventually(t, func() bool {
		return a.Config().AIEnabledFor("news")
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "ollama", a.Config().Provider)
}
