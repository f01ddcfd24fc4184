// Command trainroles fits the chapter role model from labelled tables of
// contents and prints it as a Go literal for internal/roles.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuanying/epub2txt/internal/catalog"
	"github.com/yuanying/epub2txt/internal/roles"
	"github.com/yuanying/epub2txt/internal/roles/mle"
)

type trainOptions struct {
	Corpus   string
	Catalog  string
	Alpha    float64
	Name     string
	Emission bool
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trainroles [flags] [corpus.txt]",
		Short: "Fit the chapter role model from labelled tables of contents",
		Long: `trainroles reads labelled tables of contents and prints smoothed maximum
likelihood tables in the literal format of internal/roles.

The corpus has one "role[:title]" line per table-of-contents entry; books are
separated by blank lines and '#' starts a comment. With --catalog the labels
recorded by epub2txt are used instead (edit chapters.txt, convert again, then
train).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readOptions(cmd, args)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			return run(cmd.InOrStdin(), cmd.OutOrStdout(), logger, opts)
		},
	}
	cmd.Flags().String("catalog", "", "Train from the SQLite catalog instead of a corpus file")
	cmd.Flags().Float64("alpha", mle.DefaultAlpha, "Additive smoothing constant")
	cmd.Flags().String("name", "DefaultModel", "Name of the generated variable")
	cmd.Flags().Bool("emission", false, "Also fit emission tables from the titles")
	return cmd
}

func readOptions(cmd *cobra.Command, args []string) (trainOptions, error) {
	var opts trainOptions
	opts.Catalog, _ = cmd.Flags().GetString("catalog")
	opts.Alpha, _ = cmd.Flags().GetFloat64("alpha")
	opts.Name, _ = cmd.Flags().GetString("name")
	opts.Emission, _ = cmd.Flags().GetBool("emission")
	if len(args) == 1 {
		opts.Corpus = args[0]
	}

	if opts.Alpha <= 0 {
		return trainOptions{}, fmt.Errorf("invalid --alpha %v: must be positive", opts.Alpha)
	}
	if opts.Corpus != "" && opts.Catalog != "" {
		return trainOptions{}, errors.New("give either a corpus file or --catalog, not both")
	}
	return opts, nil
}

func loadBooks(stdin io.Reader, opts trainOptions) ([]mle.Book, error) {
	if opts.Catalog != "" {
		db, err := catalog.Open(opts.Catalog)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.Corpus()
	}

	r := stdin
	if opts.Corpus != "" && opts.Corpus != "-" {
		f, err := os.Open(opts.Corpus)
		if err != nil {
			return nil, fmt.Errorf("failed to open corpus: %w", err)
		}
		defer f.Close()
		r = f
	}
	return mle.ParseCorpus(r)
}

func run(stdin io.Reader, stdout io.Writer, logger *slog.Logger, opts trainOptions) error {
	books, err := loadBooks(stdin, opts)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return errors.New("corpus holds no books")
	}

	var extract func(string) roles.Features
	if opts.Emission {
		extract = roles.NewExtractor(nil, nil).Extract
	}
	counts := mle.Count(books, extract)
	logger.Info("corpus loaded", slog.Int("books", counts.Books))

	m := counts.Model(opts.Alpha, roles.DefaultModel)
	return mle.WriteGo(stdout, opts.Name, m)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("trainroles failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
