package extract

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/imageset"
	"github.com/matzehuels/tokendeck/pkg/integrations/gemini"
	"github.com/matzehuels/tokendeck/pkg/layout"
	"github.com/matzehuels/tokendeck/pkg/observability"
)

// DefaultWorkers caps concurrent uploads.
const DefaultWorkers = 10

const deleteTimeout = 30 * time.Second

// API is the part of the Gemini client the extractor uses.
type API interface {
	UploadFile(ctx context.Context, name, mimeType string, data []byte) (*gemini.File, error)
	DeleteFile(ctx context.Context, name string) error
	GenerateContent(ctx context.Context, model string, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error)
}

var _ API = (*gemini.Client)(nil)

// ResponseSchema constrains the model output to
// [{"figure_name": string, "token": [string]}].
var ResponseSchema = &gemini.Schema{
	Type: gemini.TypeArray,
	Items: &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"figure_name": {Type: gemini.TypeString},
			"token":       {Type: gemini.TypeArray, Items: &gemini.Schema{Type: gemini.TypeString}},
		},
		Required: []string{"figure_name", "token"},
	},
}

// Gemini extracts token groups with the Gemini API.
type Gemini struct {
	api         API
	model       string
	instruction string
	workers     int
	progress    ProgressFunc
	logger      *log.Logger
}

// GeminiOption configures a [Gemini] extractor.
type GeminiOption func(*Gemini)

// WithWorkers sets the upload concurrency. Values below 1 mean [DefaultWorkers].
func WithWorkers(n int) GeminiOption {
	return func(g *Gemini) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithProgress registers an upload progress callback. Calls are serialized.
func WithProgress(fn ProgressFunc) GeminiOption {
	return func(g *Gemini) { g.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) GeminiOption {
	return func(g *Gemini) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGemini creates an extractor that runs model with the given system
// instruction.
func NewGemini(api API, model, instruction string, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		api:         api,
		model:       model,
		instruction: instruction,
		workers:     DefaultWorkers,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the model name.
func (g *Gemini) Model() string { return g.model }

// Instruction returns the system instruction.
func (g *Gemini) Instruction() string { return g.instruction }

// Extract uploads images, asks the model for token groups and removes the
// uploads again.
func (g *Gemini) Extract(ctx context.Context, images []imageset.Image) (groups []layout.TokenGroup, err error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	hooks := observability.Pipeline()
	hooks.OnExtractStart(ctx, len(images))
	start := time.Now()
	defer func() { hooks.OnExtractComplete(ctx, len(groups), time.Since(start), err) }()

	files, err := g.upload(ctx, images)
	defer g.cleanup(ctx, files)
	if err != nil {
		return nil, err
	}

	parts := make([]gemini.Part, 0, len(files)+1)
	for _, f := range files {
		parts = append(parts, gemini.FilePart(f))
	}
	parts = append(parts, gemini.TextPart(Prompt))

	req := &gemini.GenerateRequest{
		Contents: []gemini.Content{{Role: "user", Parts: parts}},
		GenerationConfig: &gemini.GenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   ResponseSchema,
		},
	}
	if g.instruction != "" {
		req.SystemInstruction = &gemini.Content{Parts: []gemini.Part{gemini.TextPart(g.instruction)}}
	}

	g.logger.Info("requesting extraction", "model", g.model, "images", len(files))
	resp, err := g.api.GenerateContent(ctx, g.model, req)
	if err != nil {
		return nil, err
	}

	groups, stats, err := ParseGroups([]byte(resp.Text()))
	if err != nil {
		return nil, err
	}
	if stats.Skipped > 0 || stats.DroppedTokens > 0 {
		g.logger.Warn("dropped malformed entries", "skipped_groups", stats.Skipped, "null_tokens", stats.DroppedTokens)
	}
	g.logger.Info("extracted groups", "groups", len(groups))
	return groups, nil
}

// upload sends images concurrently. The returned slice is in image order and
// holds every file that was uploaded, even when err is non-nil.
func (g *Gemini) upload(ctx context.Context, images []imageset.Image) ([]*gemini.File, error) {
	files := make([]*gemini.File, len(images))
	hooks := observability.Pipeline()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(min(g.workers, len(images)))

	var mu sync.Mutex
	done := 0
	for i, img := range images {
		eg.Go(func() error {
			start := time.Now()
			f, err := g.api.UploadFile(egCtx, img.Name, img.MIMEType, img.Data)
			hooks.OnUploadComplete(egCtx, img.Name, time.Since(start), err)
			if err != nil {
				return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeNetwork), err, "upload %s", img.Name)
			}
			files[i] = f

			mu.Lock()
			done++
			if g.progress != nil {
				g.progress(done, len(images))
			}
			mu.Unlock()
			return nil
		})
	}
	err := eg.Wait()

	uploaded := files[:0:0]
	for _, f := range files {
		if f != nil {
			uploaded = append(uploaded, f)
		}
	}
	if err != nil {
		return uploaded, err
	}
	return files, nil
}

// cleanup deletes uploads. Failures are logged, never returned.
func (g *Gemini) cleanup(ctx context.Context, files []*gemini.File) {
	if len(files) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	for _, f := range files {
		if err := g.api.DeleteFile(ctx, f.Name); err != nil {
			g.logger.Warn("could not delete uploaded file", "file", f.Name, "err", err)
		}
	}
}
