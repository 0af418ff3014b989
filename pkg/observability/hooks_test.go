package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnExtractStart(ctx, 3)
	p.OnUploadComplete(ctx, "fig1.png", time.Second, nil)
	p.OnExtractComplete(ctx, 3, time.Second, nil)
	p.OnLayoutStart(ctx, 3)
	p.OnLayoutComplete(ctx, 3, time.Millisecond, nil)
	p.OnRenderStart(ctx, []string{"pptx"})
	p.OnRenderComplete(ctx, []string{"pptx"}, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "extract")
	c.OnCacheMiss(ctx, "extract")
	c.OnCacheSet(ctx, "extract", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "generativelanguage.googleapis.com", "/upload/v1beta/files")
	h.OnResponse(ctx, "POST", "generativelanguage.googleapis.com", "/upload/v1beta/files", 200, time.Second)
	h.OnError(ctx, "POST", "generativelanguage.googleapis.com", "/upload/v1beta/files", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := NewLogHooks(logger)
	ctx := context.Background()

	h.OnExtractStart(ctx, 2)
	h.OnUploadComplete(ctx, "fig1.png", 0, errors.New("quota"))
	h.OnCacheHit(ctx, "extract")
	h.OnRenderComplete(ctx, []string{"pptx", "json"}, 0, nil)

	out := buf.String()
	for _, want := range []string{"extract start", "images=2", "WARN", "quota", "cache hit", "formats=pptx,json"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	h := NewLogHooks(logger)

	h.OnLayoutStart(context.Background(), 4)
	if buf.Len() != 0 {
		t.Errorf("debug event logged at info level: %s", buf.String())
	}
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
