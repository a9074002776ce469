package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newTestClient(t *testing.T, srv *httptest.Server, batchSize, retries int) *Client {
	t.Helper()
	t.Setenv("EDURAG_TEST_KEY", "test-key")
	c, err := NewClient(Config{
		BaseURL:    srv.URL + "/v1",
		APIKeyEnv:  "EDURAG_TEST_KEY",
		Model:      "test-model",
		BatchSize:  batchSize,
		MaxRetries: retries,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

// echoHandler answers every input with the vector [len(input), 1, 0].
func echoHandler(t *testing.T, calls *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		// Reverse order to check that results are placed by index.
		for i, in := range req.Input {
			data[len(req.Input)-1-i] = item{Object: "embedding", Embedding: []float32{float32(len(in)), 1, 0}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}
}

func TestEmbed_SplitsIntoBatches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(echoHandler(t, &calls))
	defer srv.Close()
	c := newTestClient(t, srv, 2, 0)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := c.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
	for i, v := range vecs {
		if int(v[0]) != len(texts[i]) {
			t.Errorf("vector %d = %v, want first element %d", i, v, len(texts[i]))
		}
	}
	if c.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", c.Dimension())
	}
}

func TestEmbed_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ok := echoHandler(t, new(atomic.Int32))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy","type":"server_error"}}`))
			return
		}
		ok(w, r)
	}))
	defer srv.Close()
	c := newTestClient(t, srv, 8, 2)

	if _, err := c.Embed(context.Background(), []string{"hello"}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestEmbed_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv, 8, 3)

	if _, err := c.Embed(context.Background(), []string{"hello"}); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("EDURAG_MISSING_KEY", "")
	if _, err := NewClient(Config{APIKeyEnv: "EDURAG_MISSING_KEY"}); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestRetryDelay(t *testing.T) {
	if d := retryDelay(0); d != 200*time.Millisecond {
		t.Errorf("retryDelay(0) = %v", d)
	}
	if d := retryDelay(10); d != 5*time.Second {
		t.Errorf("retryDelay(10) = %v, want cap of 5s", d)
	}
}
