package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags resets all package-level flag variables to their defaults.
func resetFlags() {
	flagConfig = ""
	flagProvider = ""
	flagModel = ""
	flagFormat = "text"
	flagOut = ""
	flagFresh = false
	flagAircraft = ""
	flagListen = ""
	flagNoWatch = false
	flagRefFormat = "json"
	flagExpiredOnly = false
	flagClearHistory = false
	flagHistoryTopic = ""
	flagLive = false
}

// isolate points every config and cache location at temp directories and
// returns the config file path.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "CADETPREP_PROVIDER", "CADETPREP_MODEL",
		"CADETPREP_CACHE_ENABLED", "CADETPREP_CACHE_HOURS", "CADETPREP_LISTEN",
		"CADETPREP_LOG_LEVEL", "OLLAMA_HOST", "CADETPREP_OLLAMA_API_KEY",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CADETPREP_CACHE_DIR", t.TempDir())
	return filepath.Join(t.TempDir(), "config.yaml")
}

// execute runs the command tree with args and returns the combined output
// and the exit code.
func execute(t *testing.T, args ...string) (string, int) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	code := Run()
	return out.String(), code
}

func writeConfig(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

// fakeOllama serves the OpenAI-compatible endpoints the Ollama provider uses.
func fakeOllama(t *testing.T, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			calls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
				"usage":   map[string]int{"total_tokens": 42},
			})
		case "/v1/models":
			_, _ = w.Write([]byte(`{"data":[{"id":"mistral"},{"id":"llama3.2"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func ollamaConfig(t *testing.T, path, host string) {
	writeConfig(t, path,
		"provider: ollama",
		"ollama:",
		"  host: "+host,
		"  model: llama3.2",
		"ai_enhancements:",
		"  news: true",
		"log:",
		"  level: error",
	)
}

const newsReply = `[{"title":"MAX returns","date":"2025","category":["Boeing","Safety"],"content":"Back in service.","interview_tip":"Know MCAS."}]`

func TestBuildOverrides(t *testing.T) {
	resetFlags()
	assert.Empty(t, buildOverrides())

	flagProvider = "ollama"
	flagModel = "llama3.2"
	assert.Equal(t, map[string]string{"provider": "ollama", "model": "llama3.2"}, buildOverrides())
}

func TestVersion(t *testing.T) {
	out, code := execute(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "cadetprep version "+version+"\n", out)
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	_, code := execute(t, "fly")
	assert.Equal(t, ExitUsageError, code)
}

func TestConfigInitSetShow(t *testing.T) {
	path := isolate(t)

	out, code := execute(t, "config", "init", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "Config file created at "+path)
	assert.FileExists(t, path)

	out, _ = execute(t, "config", "init", "--config", path)
	assert.Contains(t, out, "already exists")

	out, code = execute(t, "config", "set", "gemini.api_key", "abcdefghijwxyz", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Equal(t, "Set gemini.api_key = **********wxyz\n", out)

	_, code = execute(t, "config", "set", "ai_enhancements.news", "true", "--config", path)
	require.Equal(t, ExitSuccess, code)

	out, code = execute(t, "config", "show", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.NotContains(t, out, "abcdefghijwxyz")

	var shown struct {
		Gemini struct {
			APIKey string `json:"api_key"`
		} `json:"gemini"`
		AIEnhancements map[string]bool `json:"ai_enhancements"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "**********wxyz", shown.Gemini.APIKey)
	assert.True(t, shown.AIEnhancements["news"])
}

func TestConfigSet_Errors(t *testing.T) {
	path := isolate(t)

	tests := [][]string{
		{"config", "set", "nope", "x"},
		{"config", "set", "cache.enabled", "maybe"},
		{"config", "set", "ai_enhancements.weather", "true"},
		{"config", "set", "provider", "openai"},
		{"config", "set", "provider"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args[2:], " "), func(t *testing.T) {
			_, code := execute(t, append(args, "--config", path)...)
			assert.Equal(t, ExitUsageError, code)
		})
	}
	assert.NoFileExists(t, path)
}

func TestRef(t *testing.T) {
	isolate(t)

	out, code := execute(t, "ref")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "fleet\ndestinations\ndictionary\nhistory\nnews\nfuture\naircraft\n", out)

	out, code = execute(t, "ref", "aircraft", "--format", "yaml")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "name: Cessna 172 NavIII")

	out, code = execute(t, "ref", "history")
	require.Equal(t, ExitSuccess, code, out)
	var events []struct {
		Year int `json:"year"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	assert.Len(t, events, 41)

	_, code = execute(t, "ref", "weather")
	assert.Equal(t, ExitUsageError, code)

	_, code = execute(t, "ref", "fleet", "--format", "xml")
	assert.Equal(t, ExitUsageError, code)
}

func TestAITopics(t *testing.T) {
	path := isolate(t)

	out, code := execute(t, "ai", "topics", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "AI provider gemini is not configured.")
	assert.Contains(t, out, "dictionary         disabled\n")

	srv, _ := fakeOllama(t, newsReply)
	ollamaConfig(t, path, srv.URL)
	out, _ = execute(t, "ai", "topics", "--config", path)
	assert.NotContains(t, out, "not configured")
	assert.Contains(t, out, "news               enabled\n")
}

func TestAIGenerate_Disabled(t *testing.T) {
	path := isolate(t)

	out, code := execute(t, "ai", "generate", "fleet", "--config", path)
	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, out, "Enable in config: cadetprep config set ai_enhancements.fleet true")
}

func TestAIGenerate_UnknownTopic(t *testing.T) {
	path := isolate(t)
	_, code := execute(t, "ai", "generate", "weather", "--config", path)
	assert.Equal(t, ExitUsageError, code)
}

func TestAIGenerate_CachedThenFresh(t *testing.T) {
	path := isolate(t)
	srv, calls := fakeOllama(t, newsReply)
	ollamaConfig(t, path, srv.URL)

	out, code := execute(t, "ai", "generate", "news", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "AI content: news\n")
	assert.Contains(t, out, "MAX returns")

	out, code = execute(t, "ai", "generate", "news", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "AI content: news (cached)")
	assert.EqualValues(t, 1, calls.Load())

	outPath := filepath.Join(t.TempDir(), "news.json")
	_, code = execute(t, "ai", "generate", "news", "--fresh", "--format", "json", "--out", outPath, "--config", path)
	require.Equal(t, ExitSuccess, code)
	assert.EqualValues(t, 2, calls.Load())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var res struct {
		Available bool `json:"available"`
		Cached    bool `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(data, &res))
	assert.True(t, res.Available)
	assert.False(t, res.Cached)

	out, code = execute(t, "ai", "history", "news", "--format", "json", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	var h struct {
		Entries []json.RawMessage `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	assert.Len(t, h.Entries, 3)
}

func TestAIGenerate_NothingGenerated(t *testing.T) {
	path := isolate(t)
	srv, _ := fakeOllama(t, "I cannot help with that.")
	ollamaConfig(t, path, srv.URL)

	out, code := execute(t, "ai", "generate", "news", "--config", path)
	assert.Equal(t, ExitRuntimeError, code)
	assert.Contains(t, out, "Nothing generated.")
}

func TestAIGenerate_AuthFailure(t *testing.T) {
	path := isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	t.Cleanup(srv.Close)
	ollamaConfig(t, path, srv.URL)

	out, code := execute(t, "ai", "generate", "news", "--config", path)
	assert.Equal(t, ExitAuthError, code)
	assert.Contains(t, out, "Nothing generated.")
	assert.Contains(t, out, "authentication error")
	assert.NotContains(t, out, "nothing generated: no result generated")
}

func TestAIHistory_Empty(t *testing.T) {
	path := isolate(t)
	out, code := execute(t, "ai", "history", "dictionary", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Equal(t, "No cached responses yet. Generate AI content first.\n", out)
}

func TestCacheShowAndClear(t *testing.T) {
	path := isolate(t)
	srv, _ := fakeOllama(t, newsReply)
	ollamaConfig(t, path, srv.URL)

	_, code := execute(t, "ai", "generate", "news", "--config", path)
	require.Equal(t, ExitSuccess, code)

	out, code := execute(t, "cache", "show", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	var report struct {
		Enabled   bool   `json:"enabled"`
		Backend   string `json:"backend"`
		TTLHours  int    `json:"ttl_hours"`
		Entries   int    `json:"entries"`
		Histories int    `json:"histories"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Enabled)
	assert.Equal(t, "file", report.Backend)
	assert.Equal(t, 24, report.TTLHours)
	assert.Equal(t, 1, report.Entries)
	assert.Equal(t, 1, report.Histories)

	out, code = execute(t, "cache", "clear", "--expired", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Equal(t, "Removed 0 expired responses.\n", out)

	out, code = execute(t, "cache", "clear", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Equal(t, "Removed 1 cached responses.\n", out)

	out, _ = execute(t, "ai", "history", "news", "--config", path)
	assert.Contains(t, out, "Previous AI responses for news (1 saved)")

	out, code = execute(t, "cache", "clear", "--history", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "All topic histories cleared.")

	out, _ = execute(t, "ai", "history", "news", "--config", path)
	assert.Contains(t, out, "No cached responses yet.")
}

func TestModelsList(t *testing.T) {
	path := isolate(t)

	out, code := execute(t, "models", "list", "--config", path)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "gemini:\n  - gemini-1.5-flash\n")
	assert.Contains(t, out, "ollama:\n")

	srv, _ := fakeOllama(t, newsReply)
	ollamaConfig(t, path, srv.URL)
	out, code = execute(t, "models", "list", "--live", "--config", path)
	require.Equal(t, ExitSuccess, code, out)
	assert.Equal(t, "ollama:\n  - llama3.2\n  - mistral\n", out)
}

func TestModelsDoctor(t *testing.T) {
	path := isolate(t)

	out, code := execute(t, "models", "doctor", "--config", path)
	assert.Equal(t, ExitAuthError, code)
	assert.Contains(t, out, "FAIL: gemini is disabled or has no API key")

	srv, _ := fakeOllama(t, "ok")
	ollamaConfig(t, path, srv.URL)
	out, code = execute(t, "models", "doctor", "--config", path)
	assert.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "OK: ollama is configured and responding")
}
