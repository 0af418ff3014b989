package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokendeck/pkg/deck"
	"github.com/matzehuels/tokendeck/pkg/deck/sink"
	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/extract"
	"github.com/matzehuels/tokendeck/pkg/history"
	"github.com/matzehuels/tokendeck/pkg/imageset"
	"github.com/matzehuels/tokendeck/pkg/layout"
	"github.com/matzehuels/tokendeck/pkg/observability"
)

// Runner encapsulates pipeline execution.
// Both CLI and API can use this to avoid duplicating the flow.
//
// The Runner holds no per-run state. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Extractor extract.Extractor
	Page      layout.PageGeometry
	Grid      layout.GridConfig
	History   history.Store
	Logger    *log.Logger

	// Model is recorded in history entries.
	Model string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewRunner creates a runner. A nil store disables history and a nil
// logger discards output.
func NewRunner(ex extract.Extractor, page layout.PageGeometry, grid layout.GridConfig, store history.Store, logger *log.Logger) *Runner {
	if store == nil {
		store = history.Nop{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Extractor: ex,
		Page:      page,
		Grid:      grid,
		History:   store,
		Logger:    logger,
		Now:       time.Now,
	}
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) store() history.Store {
	if r.History == nil {
		return history.Nop{}
	}
	return r.History
}

// Execute runs load → extract → layout → render and records the run.
func (r *Runner) Execute(ctx context.Context, opts Options) (result *Result, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	run := history.NewRun(r.now())
	run.Model = r.Model
	defer func() {
		if err != nil {
			run.Fail(err)
		} else {
			run.Status = history.StatusSuccess
			run.Groups = result.Stats.Groups
			run.Tokens = result.Stats.Tokens
			if len(result.Files) > 0 {
				run.Output = result.Files[0]
			}
		}
		if rerr := r.store().Record(context.WithoutCancel(ctx), run); rerr != nil {
			logger.Warn("could not record run", "id", run.ID, "err", rerr)
		}
	}()

	if r.Extractor == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no extractor configured")
	}

	// Stage 1: Load
	set, err := imageset.NewSet(opts.Images...)
	if err != nil {
		return nil, err
	}
	run.Images = set.Names()
	images, err := imageset.LoadSet(ctx, set, opts.MaxDimension)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded images", "count", len(images))

	// Stage 2: Extract
	ex := r.Extractor
	if opts.Refresh {
		if rf, ok := ex.(extract.Refresher); ok {
			ex = rf.Refreshing()
		}
	}
	extractStart := time.Now()
	groups, err := ex.Extract(ctx, images)
	if err != nil {
		return nil, err
	}
	extractTime := time.Since(extractStart)
	logger.Info("extracted token groups", "groups", len(groups), "duration", extractTime)

	// Stages 3 and 4
	result, err = r.RenderGroups(ctx, groups, opts)
	if err != nil {
		return nil, err
	}
	result.RunID = run.ID
	result.Stats.Images = len(images)
	result.Stats.ExtractTime = extractTime
	return result, nil
}

// RenderGroups lays out groups, renders every requested format and writes
// the files under opts.OutputDir.
func (r *Runner) RenderGroups(ctx context.Context, groups []layout.TokenGroup, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	now := r.now()
	hooks := observability.Pipeline()

	name, err := deck.OutputName(opts.Output, now)
	if err != nil {
		return nil, err
	}

	// Stage 3: Layout
	layoutStart := time.Now()
	hooks.OnLayoutStart(ctx, len(groups))
	d, err := deck.Build(groups,
		deck.WithPage(r.Page),
		deck.WithGrid(r.Grid),
		deck.WithTitle(titleOr(opts.Title, name)),
	)
	layoutTime := time.Since(layoutStart)
	hooks.OnLayoutComplete(ctx, slideCount(d), layoutTime, err)
	if err != nil {
		return nil, err
	}
	logger.Info("computed layout", "slides", len(d.Slides), "tokens", d.TokenCount(), "duration", layoutTime)

	// Stage 4: Render
	renderStart := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	artifacts, files, err := r.render(d, name, now, opts)
	renderTime := time.Since(renderStart)
	hooks.OnRenderComplete(ctx, opts.Formats, renderTime, err)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		logger.Info("wrote output", "path", f)
	}

	return &Result{
		Groups:    groups,
		Deck:      d,
		Files:     files,
		Artifacts: artifacts,
		Stats: Stats{
			Groups:     len(groups),
			Tokens:     d.TokenCount(),
			LayoutTime: layoutTime,
			RenderTime: renderTime,
		},
	}, nil
}

func (r *Runner) render(d *deck.Deck, name string, now time.Time, opts Options) (map[sink.Format][]byte, []string, error) {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", opts.OutputDir)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	artifacts := make(map[sink.Format][]byte, len(opts.formats))
	files := make([]string, 0, len(opts.formats))
	for _, f := range opts.formats {
		data, err := sink.Render(f, d, sink.WithCreated(now))
		if err != nil {
			return nil, nil, err
		}
		path := filepath.Join(opts.OutputDir, stem+f.Extension())
		if err := writeFile(path, data); err != nil {
			return nil, nil, err
		}
		artifacts[f] = data
		files = append(files, path)
	}
	return artifacts, files, nil
}

// writeFile writes through a temp file so a failed run never leaves a
// truncated deck behind.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tokendeck-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

func titleOr(title, name string) string {
	if title != "" {
		return title
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func slideCount(d *deck.Deck) int {
	if d == nil {
		return 0
	}
	return len(d.Slides)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
