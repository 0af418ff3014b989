package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/extract"
	"github.com/matzehuels/tokendeck/pkg/history"
	"github.com/matzehuels/tokendeck/pkg/imageset"
	"github.com/matzehuels/tokendeck/pkg/layout"
	"github.com/matzehuels/tokendeck/pkg/pptx"
)

var fixedNow = time.Date(2025, 4, 2, 15, 4, 5, 0, time.UTC)

type stubExtractor struct {
	groups  []layout.TokenGroup
	err     error
	got     []imageset.Image
	refresh bool
}

func (s *stubExtractor) Extract(_ context.Context, images []imageset.Image) ([]layout.TokenGroup, error) {
	s.got = images
	return s.groups, s.err
}

func (s *stubExtractor) Refreshing() extract.Extractor {
	s.refresh = true
	return s
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	s := New(Config{}, opts...)
	s.now = func() time.Time { return fixedNow }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func post(t *testing.T, url, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
	assert.True(t, strings.HasPrefix(body["go_version"], "go"))
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/v1/layout", "application/json",
		`[{"figure_name":"A","token":["x","y",null]},{"token":["orphan"]}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out LayoutResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "A", out.Results[0].Group)
	assert.Len(t, out.Results[0].Tokens, 2)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, layout.RoleHeading, out.Results[0].Heading.Role)
}

func TestLayoutOverrides(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/v1/layout", "application/json",
		`{"groups":[{"figure_name":"A","token":["x"]}],"page":{"width_in":20},"grid":{"columns":1,"font_size_pt":18}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out LayoutResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 1)

	// The wider page widens the cells; the column count stays fixed.
	def, err := layout.Layout(layout.TokenGroup{Name: "A", Tokens: []string{"x"}}, layout.DefaultPage(), layout.DefaultGrid())
	require.NoError(t, err)
	assert.Greater(t, out.Results[0].CellWidth, def.CellWidth)
	assert.InDelta(t, out.Results[0].Heading.Width, 20-layout.DefaultMarginLeft-layout.DefaultMarginRight, 1e-9)
}

func TestLayoutErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"empty", ``, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"not json", `figure`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad page", `{"groups":[],"page":"wide"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"invalid grid", `{"groups":[],"grid":{"wrap_padding_in":0}}`, http.StatusBadRequest, errors.ErrCodeInvalidLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/layout", "application/json", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, resp).Code)
		})
	}
}

func TestDeck(t *testing.T) {
	ts := newTestServer(t)
	body := `{"groups":[{"figure_name":"A","token":["alpha","beta"]}],"output":"summary"}`

	t.Run("pptx", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/decks", "application/json", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "presentationml")
		assert.Equal(t, `attachment; filename="summary.pptx"`, resp.Header.Get("Content-Disposition"))

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		texts, err := pptx.ReadText(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "alpha")
		assert.Contains(t, texts[0], "beta")
	})

	t.Run("txt", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/decks?format=txt", "application/json", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename="summary.txt"`, resp.Header.Get("Content-Disposition"))
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(data), "alpha")
	})

	t.Run("timestamped name", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/decks?format=json", "application/json", `[{"figure_name":"A","token":["x"]}]`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename="output_20250402_150405.json"`, resp.Header.Get("Content-Disposition"))
	})

	t.Run("unknown format", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/decks?format=pdf", "application/json", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, resp).Code)
	})

	t.Run("traversal", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/decks", "application/json", `{"groups":[],"output":"../etc/x"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func multipartBody(t *testing.T, files map[string]string, order ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestExtract(t *testing.T) {
	ex := &stubExtractor{groups: []layout.TokenGroup{{Name: "A", Tokens: []string{"x"}}}}
	ts := newTestServer(t, WithExtractor(ex))

	body, ct := multipartBody(t, map[string]string{"b.png": "png", "a.jpg": "jpg"}, "b.png", "a.jpg", "b.png")
	resp, err := http.Post(ts.URL+"/v1/extract?refresh=true", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var groups []layout.TokenGroup
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&groups))
	assert.Equal(t, ex.groups, groups)

	require.Len(t, ex.got, 2)
	assert.Equal(t, "b.png", ex.got[0].Name)
	assert.Equal(t, "image/jpeg", ex.got[1].MIMEType)
	assert.True(t, ex.refresh)
}

func TestExtractErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ts := newTestServer(t)
		body, ct := multipartBody(t, map[string]string{"a.png": "x"}, "a.png")
		resp := post(t, ts.URL+"/v1/extract", ct, body.String())
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	ex := &stubExtractor{}
	ts := newTestServer(t, WithExtractor(ex))

	t.Run("no images", func(t *testing.T) {
		body, ct := multipartBody(t, nil)
		resp := post(t, ts.URL+"/v1/extract", ct, body.String())
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, errors.ErrCodeInvalidInput, decodeError(t, resp).Code)
	})

	t.Run("unsupported type", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"a.gif": "x"}, "a.gif")
		resp := post(t, ts.URL+"/v1/extract", ct, body.String())
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, errors.ErrCodeInvalidImage, decodeError(t, resp).Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/extract", "application/json", `{}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("upstream failure", func(t *testing.T) {
		ex.err = errors.New(errors.ErrCodeNetwork, "gateway down")
		defer func() { ex.err = nil }()
		body, ct := multipartBody(t, map[string]string{"a.png": "x"}, "a.png")
		resp := post(t, ts.URL+"/v1/extract", ct, body.String())
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		e := decodeError(t, resp)
		assert.Equal(t, errors.ErrCodeNetwork, e.Code)
		assert.Equal(t, "gateway down", e.Message)
		assert.NotEmpty(t, e.RequestID)
	})
}

func TestExtractTooLarge(t *testing.T) {
	s := New(Config{MaxUploadBytes: 300}, WithExtractor(&stubExtractor{}))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	body, ct := multipartBody(t, map[string]string{"a.png": strings.Repeat("x", 1024)}, "a.png")
	resp := post(t, ts.URL+"/v1/extract", ct, body.String())
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRuns(t *testing.T) {
	store := history.NewMemory()
	ctx := context.Background()
	for i := range 3 {
		run := history.NewRun(fixedNow.Add(time.Duration(i) * time.Minute))
		run.Status = history.StatusSuccess
		run.Images = []string{"a.png"}
		require.NoError(t, store.Record(ctx, run))
	}
	ts := newTestServer(t, WithHistory(store))

	resp, err := http.Get(ts.URL + "/v1/runs?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out RunsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Runs, 2)
	assert.True(t, out.Runs[0].CreatedAt.After(out.Runs[1].CreatedAt))

	resp2, err := http.Get(ts.URL + "/v1/runs/" + out.Runs[1].ID)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var run history.Run
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&run))
	assert.Equal(t, out.Runs[1].ID, run.ID)

	resp3, err := http.Get(ts.URL + "/v1/runs/missing")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
	assert.Equal(t, errors.ErrCodeNotFound, decodeError(t, resp3).Code)

	resp4, err := http.Get(ts.URL + "/v1/runs?limit=zero")
	require.NoError(t, err)
	defer resp4.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp4.StatusCode)
}

func TestRoutingErrors(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v2/nothing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeNotFound, decodeError(t, resp).Code)

	resp2, err := http.Get(ts.URL + "/v1/layout")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestStatusCode(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeInvalidLayout:     http.StatusBadRequest,
		errors.ErrCodeMissingCredential: http.StatusUnauthorized,
		errors.ErrCodeNotFound:          http.StatusNotFound,
		errors.ErrCodeRateLimited:       http.StatusTooManyRequests,
		errors.ErrCodeNetwork:           http.StatusBadGateway,
		errors.ErrCodeTimeout:           http.StatusGatewayTimeout,
		errors.ErrCodeInternal:          http.StatusInternalServerError,
		"":                              http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusCode(code), "code %q", code)
	}
}

func TestServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{}).Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
