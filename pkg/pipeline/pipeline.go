// Package pipeline runs the extract → layout → render flow shared by the
// CLI and the HTTP server.
//
// # Stages
//
//  1. Load: read the selected images, de-duplicated by file name and
//     optionally downscaled
//  2. Extract: ask the vision model for token groups
//  3. Layout: place each group on its own slide
//  4. Render: encode the deck in each requested format and write the files
//
// Every [Runner.Execute] call is recorded in the run history, including
// failed ones.
//
// # Usage
//
//	runner := pipeline.NewRunner(extractor, page, grid, store, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Images:    []string{"fig1.png", "fig2.png"},
//	    Output:    "summary",
//	    OutputDir: "out",
//	})
//	fmt.Println(result.Files) // [out/summary.pptx]
//
// Groups that already exist as JSON skip extraction:
//
//	result, err := runner.RenderGroups(ctx, groups, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokendeck/pkg/deck"
	"github.com/matzehuels/tokendeck/pkg/deck/sink"
	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/extract"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

// DefaultOutputDir is where files go when Options.OutputDir is empty.
const DefaultOutputDir = "."

// Options configures one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Images       []string `json:"images,omitempty"`
	Output       string   `json:"output,omitempty"` // deck file name; blank means a timestamped name
	OutputDir    string   `json:"output_dir,omitempty"`
	Formats      []string `json:"formats,omitempty"`
	Title        string   `json:"title,omitempty"`
	Refresh      bool     `json:"refresh,omitempty"` // ignore cached extraction results
	MaxDimension int      `json:"max_dimension,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	formats   []sink.Format
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the history entry. Empty for RenderGroups.
	RunID string

	Groups []layout.TokenGroup
	Deck   *deck.Deck

	// Files are the written paths, in format order.
	Files []string

	// Artifacts holds the encoded deck keyed by format.
	Artifacts map[sink.Format][]byte

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Images      int
	Groups      int
	Tokens      int
	ExtractTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Images) == 0 {
		return extract.ErrNoImages
	}
	if o.MaxDimension < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max dimension must not be negative")
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForRender validates the output settings and sets their defaults.
func (o *Options) ValidateForRender() error {
	formats, err := sink.ParseFormats(o.Formats)
	if err != nil {
		return err
	}
	o.formats = formats
	o.Formats = make([]string, len(formats))
	for i, f := range formats {
		o.Formats[i] = string(f)
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}
