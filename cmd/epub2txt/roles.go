package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/epub2txt/internal/epub"
	"github.com/yuanying/epub2txt/internal/roles"
)

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles [flags] [title...]",
		Short: "Print the inferred role of each title",
		Long: `roles runs the chapter role classifier on the given titles, read in order as
one table of contents, and prints one line per title. With --epub the titles are
taken from the book's navigation map instead. Use it to tune keyword lists.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			titles := args
			if path, _ := cmd.Flags().GetString("epub"); path != "" {
				book, err := epub.Load(path)
				if err != nil {
					return err
				}
				bounds, err := book.Boundaries(opts.Config.Roles.CoverTitles)
				if err != nil {
					return err
				}
				titles = titles[:0:0]
				for _, b := range bounds {
					titles = append(titles, b.Title)
				}
			}
			if len(titles) == 0 {
				return errors.New("no titles given")
			}
			showFeatures, _ := cmd.Flags().GetBool("features")
			c := roles.NewClassifier(opts.Config.Roles.Options())
			return printRoles(cmd.OutOrStdout(), c, titles, showFeatures)
		},
	}
	cmd.Flags().String("epub", "", "Read the titles from this EPUB's table of contents")
	cmd.Flags().Bool("features", false, "Also print the features each title fired")
	return cmd
}

// printRoles writes "title<TAB>role<TAB>SKIP|TAKE" lines, followed by the
// fired features when asked.
func printRoles(w io.Writer, c *roles.Classifier, titles []string, showFeatures bool) error {
	rs, err := c.Infer(titles)
	if err != nil {
		return err
	}
	feats := c.Features(titles)

	bw := bufio.NewWriter(w)
	for i, title := range titles {
		mark := "TAKE"
		if rs[i].IsSkip() {
			mark = "SKIP"
		}
		fmt.Fprintf(bw, "%s\t%s\t%s", title, rs[i], mark)
		if showFeatures {
			var fired []string
			for j, on := range feats[i] {
				if on {
					fired = append(fired, roles.Role(j).String())
				}
			}
			fmt.Fprintf(bw, "\t[%s]", strings.Join(fired, ","))
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
