package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yuanying/epub2txt/internal/catalog"
	"github.com/yuanying/epub2txt/internal/config"
	"github.com/yuanying/epub2txt/internal/converter"
	"github.com/yuanying/epub2txt/internal/yomi"
	pkgconfig "github.com/yuanying/epub2txt/pkg/config"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
	defaultJobs      = 1
)

// cliOptions are the resolved command line and configuration settings.
type cliOptions struct {
	Inputs    []string
	OutputDir string
	Jobs      int
	Config    *config.Config
	Logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epub2txt [flags] book.epub...",
		Short: "Extract plain text and furigana from EPUB files",
		Long: `epub2txt extracts the narrative text of Japanese EPUB books as plain text,
together with a side table of furigana readings.

Front and back matter are recognised from the table of contents and left out.
The decisions are written to side files (chapters.txt, books.txt, gaiji.txt)
next to the output; edit them and run again to correct the result.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", os.Getenv(config.EnvConfigPath), "YAML configuration file (env "+config.EnvConfigPath+")")
	pf.String("catalog", "", "SQLite catalog of converted books (overrides catalog.path)")
	pf.Bool("dictionary", false, "Use the morphological dictionary as a small-kana exception source")
	pf.String("log-level", defaultLogLevel, "Log level: debug, info, warn, error")
	pf.String("log-format", defaultLogFormat, "Log format: text, json")
	pf.BoolP("verbose", "v", false, "Verbose output (same as --log-level debug)")

	cmd.Flags().StringP("output", "o", "", "Output directory (default: input path without extension; single input only)")
	cmd.Flags().IntP("jobs", "j", defaultJobs, "Number of EPUB files converted concurrently")

	cmd.AddCommand(newWatchCmd(), newRolesCmd())
	return cmd
}

// readCLIOptions validates the flags and loads the configuration.
func readCLIOptions(cmd *cobra.Command, args []string) (cliOptions, error) {
	logger, err := readLogger(cmd)
	if err != nil {
		return cliOptions{}, err
	}
	cfg, err := readConfig(cmd)
	if err != nil {
		return cliOptions{}, err
	}

	// Subcommands share this function but not every flag.
	opts := cliOptions{Inputs: args, Config: cfg, Logger: logger, Jobs: defaultJobs}
	if cmd.Flags().Lookup("output") != nil {
		opts.OutputDir, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Lookup("jobs") != nil {
		opts.Jobs, _ = cmd.Flags().GetInt("jobs")
	}

	if opts.Jobs < 1 {
		return cliOptions{}, fmt.Errorf("invalid --jobs %d: must be at least 1", opts.Jobs)
	}
	if opts.OutputDir != "" && len(args) > 1 {
		return cliOptions{}, errors.New("--output can only be used with a single input file")
	}
	return opts, nil
}

func readLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	verbose, _ := cmd.Flags().GetBool("verbose")

	level = strings.ToLower(level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid --log-level %q: must be one of debug, info, warn, error", level)
	}
	switch strings.ToLower(format) {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid --log-format %q: must be text or json", format)
	}
	if verbose {
		level = "debug"
	}
	return buildLogger(cmd.ErrOrStderr(), level, format), nil
}

// readConfig loads the configuration file. A file named explicitly with
// --config must exist; the environment default may be absent.
func readConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.NewDefault()
	if cmd.Flags().Changed("config") {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, err
		}
	} else if _, err := pkgconfig.LoadOptional(path, cfg); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("catalog") {
		cfg.Catalog.Path, _ = cmd.Flags().GetString("catalog")
	}
	if dict, _ := cmd.Flags().GetBool("dictionary"); dict {
		cfg.Yomi.Dictionary = true
	}
	return cfg, nil
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func newFixer(cfg *config.Config) (*yomi.Fixer, error) {
	if !cfg.Yomi.Dictionary {
		return yomi.NewFixer(cfg.Yomi.Exceptions, nil), nil
	}
	dict, err := yomi.NewKagomeDictionary()
	if err != nil {
		return nil, err
	}
	return yomi.NewFixer(cfg.Yomi.Exceptions, dict), nil
}

// session holds what every conversion of one invocation shares.
type session struct {
	opts    cliOptions
	fixer   *yomi.Fixer
	catalog *catalog.DB
}

func openSession(opts cliOptions) (*session, error) {
	fixer, err := newFixer(opts.Config)
	if err != nil {
		return nil, err
	}
	s := &session{opts: opts, fixer: fixer}
	if path := opts.Config.Catalog.Path; path != "" {
		if s.catalog, err = catalog.Open(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) Close() error {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Close()
}

func (s *session) pipeline(input string) *converter.Pipeline {
	cfg := s.opts.Config
	opts := converter.ConvertOptions{
		InputPath:    input,
		OutputDir:    s.opts.OutputDir,
		Logger:       s.opts.Logger,
		Roles:        cfg.Roles.Options(),
		CoverTitles:  cfg.Roles.CoverTitles,
		GaijiClasses: cfg.Gaiji.Classes,
		Placeholder:  cfg.Gaiji.PlaceholderRune(),
		ExportHeight: cfg.Gaiji.ExportHeight,
		Fixer:        s.fixer,
	}
	if s.catalog != nil {
		opts.Catalog = s.catalog
	}
	return converter.NewPipeline(opts)
}

func runConvert(ctx context.Context, opts cliOptions) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for _, input := range opts.Inputs {
		g.Go(func() error {
			opts.Logger.Info("converting", slog.String("input", input))
			if err := s.pipeline(input).Convert(ctx); err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("epub2txt failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
