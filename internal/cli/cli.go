// Package cli implements the tokendeck command-line interface.
//
// # Commands
//
//   - init: create a project folder with a starter configuration
//   - extract: send images to the vision API and print token groups
//   - layout: compute slide placements for a groups file
//   - render: build a deck from a groups file
//   - run: extract, lay out and render in one go
//   - pick: choose images interactively, then run
//   - inspect: print the text of an existing deck
//   - history: list and show recorded runs
//   - cache: manage the extraction cache
//   - serve: start the HTTP service
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Without it
// the level comes from the [logging] section of the configuration.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/buildinfo"
	"github.com/matzehuels/tokendeck/pkg/cache"
	"github.com/matzehuels/tokendeck/pkg/config"
	"github.com/matzehuels/tokendeck/pkg/extract"
	"github.com/matzehuels/tokendeck/pkg/history"
	"github.com/matzehuels/tokendeck/pkg/history/mongo"
	"github.com/matzehuels/tokendeck/pkg/history/sqlite"
	"github.com/matzehuels/tokendeck/pkg/integrations"
	"github.com/matzehuels/tokendeck/pkg/integrations/gemini"
	"github.com/matzehuels/tokendeck/pkg/observability"
	"github.com/matzehuels/tokendeck/pkg/pipeline"
)

// appName is the application name used for display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
	verbose    bool
	logWriter  io.Writer
	logFile    io.Closer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:    newLogger(w, level),
		Config:    config.Default(),
		logWriter: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Tokendeck turns text found in figures into slide decks",
		Long: `Tokendeck sends figure images to a vision model, collects the text tokens it
finds per figure, and lays them out on a grid with one slide per figure.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return c.setup() },
		PersistentPostRun: func(cmd *cobra.Command, args []string) { c.teardown() },
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: search "+strings.Join(config.SearchPaths(), ", ")+")")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.extractCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and configures logging.
func (c *CLI) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	closer, err := configureLogger(c.Logger, c.logWriter, cfg.Logging, c.verbose)
	if err != nil {
		return err
	}
	c.logFile = closer

	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	for _, k := range cfg.Unknown {
		c.Logger.Warn("unknown config key", "key", k)
	}

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	return nil
}

func (c *CLI) teardown() {
	if c.logFile != nil {
		c.logFile.Close()
		c.logFile = nil
	}
}

// =============================================================================
// Factories
// =============================================================================

// openCache opens the configured extraction cache. noCache forces the null
// backend.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cc := c.Config.Cache
	if noCache || cc.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	opts := cache.Options{
		Backend: cc.Backend,
		Redis: cache.RedisConfig{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
		},
	}
	if cc.Backend == config.BackendFile {
		dir, err := c.Config.CachePath()
		if err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		opts.Dir = dir
	}
	return cache.Open(ctx, opts)
}

// openHistory opens the configured run history store.
func (c *CLI) openHistory(ctx context.Context) (history.Store, error) {
	hc := c.Config.History
	switch hc.Backend {
	case config.BackendNone:
		return history.Nop{}, nil
	case config.BackendMongo:
		return mongo.Open(ctx, mongo.Config{URI: hc.MongoURI, Database: hc.MongoDatabase})
	default:
		path, err := c.Config.HistoryPath()
		if err != nil {
			return nil, err
		}
		return sqlite.Open(ctx, path)
	}
}

// extractorOpts controls newExtractor.
type extractorOpts struct {
	noCache  bool
	progress extract.ProgressFunc
}

// newExtractor builds the Gemini extractor wrapped in the cache. The
// returned closer releases the cache.
func (c *CLI) newExtractor(ctx context.Context, opts extractorOpts) (extract.Extractor, io.Closer, error) {
	gc := c.Config.Gemini
	key, err := c.Config.RequireAPIKey()
	if err != nil {
		return nil, nil, err
	}
	client, err := gemini.NewClient(key,
		gemini.WithBaseURL(gc.BaseURL),
		gemini.WithHTTPClient(integrations.NewHTTPClient(gc.Timeout.Duration)),
		gemini.WithRateLimit(gc.RequestsPerSecond),
		gemini.WithLogger(c.Logger),
	)
	if err != nil {
		return nil, nil, err
	}

	instruction, err := config.LoadSystemInstruction(c.instructionPath())
	if err != nil {
		return nil, nil, err
	}

	gem := extract.NewGemini(client, gc.Model, instruction,
		extract.WithWorkers(gc.MaxWorkers),
		extract.WithProgress(opts.progress),
		extract.WithLogger(c.Logger),
	)

	store, err := c.openCache(ctx, opts.noCache)
	if err != nil {
		return nil, nil, err
	}
	cached := extract.NewCached(gem, store, cache.NewDefaultKeyer(), cache.ExtractionKeyOpts{
		Model:             gc.Model,
		SystemInstruction: instruction,
		MaxDimension:      gc.MaxImageDimension,
	}, c.Logger, extract.WithTTL(c.Config.Cache.TTL.Duration))
	return cached, store, nil
}

// instructionPath resolves the system instruction file. Relative paths are
// taken relative to the project folder holding the config directory.
func (c *CLI) instructionPath() string {
	p := c.Config.Gemini.SystemInstructionFile
	if p == "" || filepath.IsAbs(p) || c.Config.Path == "" {
		return p
	}
	project := filepath.Dir(filepath.Dir(c.Config.Path))
	candidate := filepath.Join(project, p)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return p
}

// refreshing returns the cache-bypassing variant of ex when it has one.
func refreshing(ex extract.Extractor) extract.Extractor {
	if rf, ok := ex.(extract.Refresher); ok {
		return rf.Refreshing()
	}
	return ex
}

// newRunner creates a pipeline runner for CLI use. The cleanup function
// closes the history store. A store that cannot be opened disables history
// rather than failing the run.
func (c *CLI) newRunner(ctx context.Context, ex extract.Extractor) (*pipeline.Runner, func()) {
	store, err := c.openHistory(ctx)
	if err != nil {
		c.Logger.Warn("history disabled", "err", err)
		store = history.Nop{}
	}
	r := pipeline.NewRunner(ex, c.Config.Page(), c.Config.Grid(), store, c.Logger)
	r.Model = c.Config.Gemini.Model
	return r, func() { store.Close() }
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats splits a comma-separated format list. An empty list yields
// the configured default format.
func (c *CLI) parseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{c.Config.Output.Format}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// outputDir returns flag when set and the configured directory otherwise.
func (c *CLI) outputDir(flag string) string {
	if flag != "" {
		return flag
	}
	return c.Config.Output.Dir
}
