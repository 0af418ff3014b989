package integrations

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/observability"
)

func testClient(srv *httptest.Server, headers map[string]string, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithHTTPClient(srv.Client()), WithRetry(3, time.Millisecond)}, opts...)
	return NewClient(headers, opts...)
}

func TestNewClient(t *testing.T) {
	headers := map[string]string{"x-goog-api-key": "secret"}
	client := NewClient(headers)

	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.http.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.http.Timeout, DefaultTimeout)
	}
	if client.headers["x-goog-api-key"] != "secret" {
		t.Error("NewClient() headers not set correctly")
	}
	if client.limiter != nil {
		t.Error("NewClient() should not rate limit by default")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	var resp response
	if err := testClient(server, nil).Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
}

func TestClientGetWithHeadersOverridesDefaults(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Key")
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	client := testClient(server, map[string]string{"X-Key": "default"})
	var v map[string]any
	if err := client.GetWithHeaders(context.Background(), server.URL, map[string]string{"X-Key": "override"}, &v); err != nil {
		t.Fatal(err)
	}
	if got != "override" {
		t.Errorf("header = %q, want override", got)
	}
}

func TestClientGetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text"))
	}))
	defer server.Close()

	text, err := testClient(server, nil).GetText(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if text != "plain text" {
		t.Errorf("GetText() = %q", text)
	}
}

func TestClientJSONPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	}))
	defer server.Close()

	var out map[string]string
	err := testClient(server, nil).JSON(context.Background(), http.MethodPost, server.URL, nil, map[string]string{"say": "hi"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if out["echo"] != "hi" {
		t.Errorf("echo = %q", out["echo"])
	}
}

func TestClientRetriesReplayBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("attempt %d body = %q", calls.Load()+1, body)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := testClient(server, nil).Do(context.Background(), Request{Method: http.MethodPost, URL: server.URL, Body: []byte("payload")})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if string(resp.Body) != "ok" || calls.Load() != 3 {
		t.Errorf("body = %q after %d calls", resp.Body, calls.Load())
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		code      errors.Code
		wantCalls int32
	}{
		{http.StatusNotFound, errors.ErrCodeNotFound, 1},
		{http.StatusUnauthorized, errors.ErrCodeUnauthorized, 1},
		{http.StatusForbidden, errors.ErrCodeUnauthorized, 1},
		{http.StatusBadRequest, errors.ErrCodeInvalidInput, 1},
		{http.StatusTooManyRequests, errors.ErrCodeRateLimited, 3},
		{http.StatusInternalServerError, errors.ErrCodeNetwork, 3},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			_, err := testClient(server, nil).Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestClientDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	var v map[string]any
	err := testClient(server, nil).Get(context.Background(), server.URL, &v)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestClientRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	client := testClient(server, nil, WithRateLimit(20, 1))
	start := time.Now()
	for range 3 {
		if _, err := client.GetText(context.Background(), server.URL); err != nil {
			t.Fatal(err)
		}
	}
	// burst 1 at 20/s: the 2nd and 3rd requests wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 requests took %v, limiter not applied", elapsed)
	}
}

func TestClientCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(server, nil).GetText(ctx, server.URL)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	requests  atomic.Int32
	responses atomic.Int32
	lastCode  atomic.Int32
}

func (h *recordingHTTPHooks) OnRequest(context.Context, string, string, string) { h.requests.Add(1) }
func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _, _ string, code int, _ time.Duration) {
	h.responses.Add(1)
	h.lastCode.Store(int32(code))
}

func TestClientEmitsHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	if _, err := testClient(server, nil).Do(context.Background(), Request{Method: http.MethodDelete, URL: server.URL}); err != nil {
		t.Fatal(err)
	}
	if hooks.requests.Load() != 1 || hooks.responses.Load() != 1 {
		t.Errorf("requests=%d responses=%d", hooks.requests.Load(), hooks.responses.Load())
	}
	if hooks.lastCode.Load() != http.StatusAccepted {
		t.Errorf("status = %d", hooks.lastCode.Load())
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct{ base, path, want string }{
		{"https://example.com", "v1beta/files", "https://example.com/v1beta/files"},
		{"https://example.com/", "/v1beta/files", "https://example.com/v1beta/files"},
		{"http://127.0.0.1:1234//", "x", "http://127.0.0.1:1234/x"},
	}
	for _, tt := range tests {
		if got := JoinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}
