package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(server *httptest.Server) *Gemini {
	return &Gemini{
		apiKey:  "test-key",
		model:   "gemini-1.5-flash",
		baseURL: geminiAPIURL,
		client:  testClient(server),
	}
}

func TestGemini_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"), "key must not travel in the URL")
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-1.5-flash:generateContent"), r.URL.Path)

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "ctx\n\nlist terms", req.Contents[0].Parts[0].Text)
		assert.Nil(t, req.SystemInstruction)

		resp := geminiResponse{
			Candidates: []geminiCandidate{
				{Content: geminiContent{Parts: []geminiPart{{Text: "[{"}, {Text: `"term":"ATC"}]`}}}},
			},
			UsageMetadata: geminiUsage{TotalTokenCount: 75},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	resp, err := newTestGemini(server).Generate(context.Background(), GenerateRequest{Prompt: "ctx\n\nlist terms"})
	require.NoError(t, err)
	assert.Equal(t, `[{"term":"ATC"}]`, resp.Content)
	assert.Equal(t, 75, resp.TokensUsed)
}

func TestGemini_AuthErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer server.Close()

	_, err := newTestGemini(server).Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGemini_RetriesServerErrors(t *testing.T) {
	fastBackoff(t)
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{{Text: "ok"}}}}},
		})
	}))
	defer server.Close()

	resp, err := newTestGemini(server).Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGemini_RateLimitExhausted(t *testing.T) {
	fastBackoff(t)
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestGemini(server).Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestGemini_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	_, err := newTestGemini(server).Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGemini_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		if r.URL.Query().Get("pageToken") == "" {
			w.Write([]byte(`{"models":[
				{"name":"models/gemini-1.5-pro","supportedGenerationMethods":["generateContent","countTokens"]},
				{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]},
				{"name":"models/gemini-embedding","supportedGenerationMethods":["embedContent"]}
			],"nextPageToken":"p2"}`))
			return
		}
		w.Write([]byte(`{"models":[
			{"name":"models/gemini-1.5-flash","supportedGenerationMethods":["generateContent"]},
			{"name":"models/text-bison","supportedGenerationMethods":["generateContent"]}
		]}`))
	}))
	defer server.Close()

	models, err := newTestGemini(server).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-1.5-flash", "gemini-1.5-pro"}, models)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini("  ", "gemini-1.5-flash")
	require.Error(t, err)
	assert.True(t, IsAuthError(err))

	g, err := NewGemini("k", "models/gemini-1.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", g.Model())
	assert.Equal(t, "gemini", g.Name())
}
