package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlp_qa/completion"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	svc := New(Config{
		Endpoint:   server.URL + "/v1/chat/completions",
		APIKey:     "test-key",
		HTTPClient: server.Client(),
	})
	return svc, &calls
}

func testRequest() *completion.CompletionRequest {
	return &completion.CompletionRequest{
		Model:       "google/gemma-2-9b-it",
		Question:    "what is go",
		Temperature: mo.Some(0.7),
		MaxTokens:   500,
	}
}

func TestCompleteReturnsTrimmedContent(t *testing.T) {
	var captured map[string]any
	svc, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" hi "}}]}`))
	})

	answer, err := svc.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "hi", answer)
	assert.EqualValues(t, 1, calls.Load())

	assert.Equal(t, "google/gemma-2-9b-it", captured["model"])
	assert.EqualValues(t, 500, captured["max_tokens"])
	assert.EqualValues(t, 0.7, captured["temperature"])
	assert.Equal(t, false, captured["stream"])
	assert.Equal(t, []any{map[string]any{"role": "user", "content": "what is go"}}, captured["messages"])
}

func TestCompleteOmitsUnsetTemperature(t *testing.T) {
	var captured map[string]any
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	req := testRequest()
	req.Temperature = mo.None[float64]()
	_, err := svc.Complete(context.Background(), req)
	require.NoError(t, err)

	_, present := captured["temperature"]
	assert.False(t, present)
}

func TestCompleteNonOKStatusIsReportedOnce(t *testing.T) {
	svc, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	})

	answer, err := svc.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Empty(t, answer)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
	assert.EqualValues(t, 1, calls.Load())

	var cerr *completion.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, completion.KindStatus, cerr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, cerr.StatusCode)
	assert.Equal(t, "rate limited", cerr.Detail)
}

func TestCompleteResponseShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind completion.ErrorKind
		wantMsg  string
	}{
		{
			name:     "error string",
			body:     `{"error":"Model is currently loading"}`,
			wantKind: completion.KindUpstream,
			wantMsg:  "API Error: Model is currently loading",
		},
		{
			name:     "error object",
			body:     `{"error":{"message":"invalid model","type":"invalid_request_error"}}`,
			wantKind: completion.KindUpstream,
			wantMsg:  "API Error: invalid model",
		},
		{
			name:     "error object without message",
			body:     `{"error":{"code":42}}`,
			wantKind: completion.KindUpstream,
			wantMsg:  `API Error: {"code":42}`,
		},
		{
			name:     "empty choices",
			body:     `{"choices":[]}`,
			wantKind: completion.KindSchema,
			wantMsg:  `Unexpected response format: {"choices":[]}`,
		},
		{
			name:     "unknown payload",
			body:     `{"generated_text":"hello"}`,
			wantKind: completion.KindSchema,
			wantMsg:  `Unexpected response format: {"generated_text":"hello"}`,
		},
		{
			name:     "malformed json",
			body:     `not json`,
			wantKind: completion.KindSchema,
			wantMsg:  "Unexpected response format: not json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := svc.Complete(context.Background(), testRequest())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, completion.KindOf(err))
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.EqualValues(t, 1, calls.Load())
		})
	}
}

func TestCompleteConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	svc := New(Config{Endpoint: url, APIKey: "test-key", Timeout: time.Second})

	answer, err := svc.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Empty(t, answer)
	assert.NotEmpty(t, err.Error())
	assert.Equal(t, completion.KindConnection, completion.KindOf(err))
}

func TestCompleteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	svc := New(Config{
		Endpoint:   server.URL,
		APIKey:     "test-key",
		Timeout:    50 * time.Millisecond,
		HTTPClient: server.Client(),
	})

	_, err := svc.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, completion.KindTimeout, completion.KindOf(err))
}

func TestCompleteMissingCredentialMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	svc := New(Config{Endpoint: server.URL, HTTPClient: server.Client()})

	_, err := svc.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, completion.KindMissingCredential, completion.KindOf(err))
	assert.Equal(t, "Error: API key not configured.", err.Error())
	assert.EqualValues(t, 0, calls.Load())
}

func TestNewDefaultsTimeout(t *testing.T) {
	svc := New(Config{Endpoint: "http://localhost", APIKey: "k"})
	assert.Equal(t, DefaultTimeout, svc.timeout)
	assert.Equal(t, DefaultTimeout, svc.client.Timeout)
}
