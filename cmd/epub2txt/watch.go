package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuanying/epub2txt/internal/converter"
	"github.com/yuanying/epub2txt/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] book.epub",
		Short: "Convert, then convert again whenever a side file is edited",
		Long: `watch converts the book once and then watches chapters.txt, books.txt and
gaiji.txt in the output directory. Saving a corrected side file re-runs the
conversion. Stop with Ctrl-C.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			debounce, _ := cmd.Flags().GetDuration("debounce")
			return runWatch(cmd.Context(), opts, debounce)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output directory (default: input path without extension)")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period after the last change before converting")
	return cmd
}

func runWatch(ctx context.Context, opts cliOptions, debounce time.Duration) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	p := s.pipeline(opts.Inputs[0])
	// The first run creates the side files; a failure is reported but the
	// watch goes on so the files can be fixed.
	if err := p.Convert(ctx); err != nil {
		opts.Logger.Error("conversion failed", slog.String("error", err.Error()))
	}

	w := &watch.Watcher{
		Dir:      p.Options.OutputDir,
		Files:    converter.SideFiles,
		Debounce: debounce,
		Logger:   opts.Logger,
		Run: func(ctx context.Context) error {
			if err := p.Convert(ctx); err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}
			return nil
		},
	}
	return w.Watch(ctx)
}
