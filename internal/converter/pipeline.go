package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuanying/epub2txt/internal/apperr"
	"github.com/yuanying/epub2txt/internal/books"
	"github.com/yuanying/epub2txt/internal/catalog"
	"github.com/yuanying/epub2txt/internal/chapters"
	"github.com/yuanying/epub2txt/internal/epub"
	"github.com/yuanying/epub2txt/internal/gaiji"
	"github.com/yuanying/epub2txt/internal/roles"
	"github.com/yuanying/epub2txt/internal/yomi"
)

// Output file extensions, appended to the book name.
const (
	TextExt = ".txt"
	YomiExt = ".ruby.yomi"
)

// GaijiPreviewDir is the directory under the output directory that receives
// previews of newly found glyph images.
const GaijiPreviewDir = "gaiji"

// SideFiles are the hand-editable files of an output directory.
var SideFiles = []string{chapters.FileName, books.FileName, gaiji.FileName}

// Recorder stores the outcome of a conversion. *catalog.DB implements it.
type Recorder interface {
	Record(b catalog.BookRow, chs []chapters.Chapter) error
}

// ConvertOptions holds options for the conversion pipeline.
type ConvertOptions struct {
	InputPath string
	// OutputDir receives the text, the readings and the side files. Empty
	// means the input path without its extension.
	OutputDir string
	Logger    *slog.Logger

	Roles       roles.Options
	CoverTitles []string

	GaijiClasses []string
	Placeholder  rune
	ExportHeight int

	// Fixer post-processes readings. Nil uses the default exception list.
	Fixer *yomi.Fixer
	// Catalog is optional.
	Catalog Recorder
}

// DefaultOutputDir returns the input path without its extension.
func DefaultOutputDir(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
}

// Pipeline orchestrates the EPUB to text conversion.
type Pipeline struct {
	Options ConvertOptions

	logger     *slog.Logger
	classifier *roles.Classifier
}

// NewPipeline creates a new conversion pipeline.
func NewPipeline(opts ConvertOptions) *Pipeline {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir(opts.InputPath)
	}
	if len(opts.CoverTitles) == 0 {
		opts.CoverTitles = []string{"表紙"}
	}
	if len(opts.GaijiClasses) == 0 {
		opts.GaijiClasses = DefaultGaijiClasses
	}
	if opts.Placeholder == 0 {
		opts.Placeholder = gaiji.Placeholder
	}
	if opts.Fixer == nil {
		opts.Fixer = yomi.NewFixer(yomi.DefaultExceptions, nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		Options:    opts,
		logger:     logger.With(slog.String("input", opts.InputPath)),
		classifier: roles.NewClassifier(opts.Roles),
	}
}

// bookText is the produced output of one book, held until every book of the
// container has been formatted.
type bookText struct {
	name     string
	chapters []chapters.Chapter
	text     string
	spans    []yomi.Span
}

// Convert executes the conversion pipeline. Errors carry the input file and
// the phase they occurred in. Nothing is written for the books unless every
// book was formatted.
func (p *Pipeline) Convert(ctx context.Context) error {
	file := p.Options.InputPath
	dir := p.Options.OutputDir

	reader, err := epub.Open(file)
	if err != nil {
		return apperr.WithPhase(file, "open", fmt.Errorf("failed to open EPUB: %w", err))
	}
	defer reader.Close()

	book, err := epub.ReadBook(reader)
	if err != nil {
		return apperr.WithPhase(file, "read", err)
	}
	p.logger.Debug("book read",
		slog.String("title", book.Metadata.Title),
		slog.Int("spine", len(book.Spine)),
		slog.Int("toc", len(book.TOC)))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.WithPhase(file, "prepare", fmt.Errorf("failed to create output directory: %w", err))
	}

	bs, chs, err := p.prepare(book)
	if err != nil {
		return apperr.WithPhase(file, "chapters", err)
	}

	gaijiPath := filepath.Join(dir, gaiji.FileName)
	table, found, err := gaiji.Load(gaijiPath)
	if err != nil {
		return apperr.WithPhase(file, "gaiji", err)
	}
	if !found {
		table = gaiji.New()
	}
	formatter := &Formatter{
		Gaiji:        table,
		GaijiClasses: p.Options.GaijiClasses,
		Placeholder:  p.Options.Placeholder,
	}

	var outputs []bookText
	for _, group := range chapters.GroupByBook(chs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, spans, err := p.produce(book, formatter, group)
		if err != nil {
			return apperr.WithPhase(file, "produce", fmt.Errorf("book %q: %w", group[0].Book, err))
		}
		outputs = append(outputs, bookText{name: group[0].Book, chapters: group, text: text, spans: spans})
	}

	for _, out := range outputs {
		if err := p.write(out); err != nil {
			return apperr.WithPhase(file, "write", err)
		}
	}

	if added := table.Added(); len(added) > 0 {
		p.logger.Warn("new gaiji found, updating the gaiji file",
			slog.Int("count", len(added)), slog.String("path", gaijiPath))
		if err := table.Save(gaijiPath); err != nil {
			return apperr.WithPhase(file, "gaiji", err)
		}
		p.exportGaiji(reader, formatter.Discoveries())
	}

	meta := books.NewMeta(book.Metadata)
	if err := meta.Save(filepath.Join(dir, books.MetaFileName)); err != nil {
		return apperr.WithPhase(file, "meta", err)
	}

	if p.Options.Catalog != nil {
		now := time.Now()
		for _, out := range outputs {
			row := catalog.BookRow{Source: file, Name: out.name, Meta: meta, ConvertedAt: now}
			if b, ok := findBook(bs, out.name); ok && b.Author != "" {
				row.Meta.Author = b.Author
			}
			if err := p.Options.Catalog.Record(row, out.chapters); err != nil {
				return apperr.WithPhase(file, "catalog", err)
			}
		}
	}

	p.logger.Info("converted", slog.String("output", dir), slog.Int("books", len(outputs)))
	return nil
}

// prepare loads the books and chapters side files, generating whichever is
// missing. Roles are inferred at most once.
func (p *Pipeline) prepare(book *epub.Book) ([]books.Book, []chapters.Chapter, error) {
	dir := p.Options.OutputDir

	var (
		bounds []epub.Boundary
		rs     []roles.Role
	)
	infer := func() error {
		if bounds != nil {
			return nil
		}
		var err error
		if bounds, err = book.Boundaries(p.Options.CoverTitles); err != nil {
			return err
		}
		titles := make([]string, len(bounds))
		for i, b := range bounds {
			titles[i] = b.Title
		}
		if rs, err = p.classifier.Infer(titles); err != nil {
			return fmt.Errorf("failed to infer chapter roles: %w", err)
		}
		return nil
	}

	booksPath := filepath.Join(dir, books.FileName)
	bs, found, err := books.Load(booksPath)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		if err := infer(); err != nil {
			return nil, nil, err
		}
		bs = books.Generate(book, bounds, rs)
		if len(bs) > 1 {
			p.logger.Info("container holds several books", slog.Int("books", len(bs)))
		}
		p.logger.Info("no books file found, writing one", slog.String("path", booksPath))
		if err := books.Save(booksPath, bs); err != nil {
			return nil, nil, err
		}
	}

	chaptersPath := filepath.Join(dir, chapters.FileName)
	chs, found, err := chapters.Load(chaptersPath)
	if err != nil {
		return nil, nil, err
	}
	if found {
		return bs, chs, nil
	}
	if err := infer(); err != nil {
		return nil, nil, err
	}
	chs, err = chapters.Generate(book, bounds, rs, func(idx int) string { return books.NameAt(bs, idx) })
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("no chapters file found, writing one", slog.String("path", chaptersPath))
	if err := chapters.Save(chaptersPath, chs); err != nil {
		return nil, nil, err
	}
	return bs, chs, nil
}

// produce formats the taken chapters of one book. Chapters are separated by
// a blank line; empty paragraphs before a chapter's first text are dropped.
func (p *Pipeline) produce(book *epub.Book, f *Formatter, chs []chapters.Chapter) (string, []yomi.Span, error) {
	var (
		out   strings.Builder
		spans []yomi.Span
	)
	for _, ch := range chs {
		if ch.Skip {
			continue
		}
		started := false
		for _, href := range ch.Files {
			idx, ok := book.HrefIndex[href]
			if !ok {
				return "", nil, fmt.Errorf("%w: chapter %q: %s", epub.ErrMissingMember, ch.Name, href)
			}
			passage, err := NewPassage(href, book.Spine[idx].Text)
			if err != nil {
				return "", nil, fmt.Errorf("%s: %w", href, err)
			}
			f.Resolve = func(src string) string { return epub.ResolveHref(href, src) }

			for {
				para, ok, err := passage.Next()
				if err != nil {
					return "", nil, fmt.Errorf("%s: %w", href, err)
				}
				if !ok {
					break
				}
				switch para.Kind {
				case BodyText, Header:
					if !started {
						if out.Len() > 0 {
							out.WriteByte('\n')
						}
						started = true
					}
					if err := f.Format(&out, &spans, para.Text); err != nil {
						return "", nil, fmt.Errorf("%s: %w", href, err)
					}
				case Empty:
					if started {
						out.WriteByte('\n')
					}
				}
			}
		}
		p.logger.Debug("chapter formatted", slog.String("chapter", ch.Name), slog.String("role", ch.Role.String()))
	}
	return out.String(), spans, nil
}

func (p *Pipeline) write(b bookText) error {
	base := filepath.Join(p.Options.OutputDir, b.name)

	text := b.text
	if text == "" {
		text = "\n"
	}
	if err := os.WriteFile(base+TextExt, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}

	f, err := os.Create(base + YomiExt)
	if err != nil {
		return fmt.Errorf("failed to create readings file: %w", err)
	}
	if err := yomi.Write(f, b.text, b.spans, p.Options.Fixer); err != nil {
		f.Close()
		return fmt.Errorf("failed to write readings: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	p.logger.Debug("book written", slog.String("path", base+TextExt), slog.Int("readings", len(b.spans)))
	return nil
}

// exportGaiji writes previews of newly registered glyph images. Failures are
// logged and do not fail the conversion.
func (p *Pipeline) exportGaiji(reader *epub.EPUBReader, found []Discovery) {
	exporter := gaiji.NewExporter(filepath.Join(p.Options.OutputDir, GaijiPreviewDir), p.Options.ExportHeight)
	for _, d := range found {
		if d.Path == "" {
			continue
		}
		data, err := reader.ReadBytes(d.Path)
		if err != nil {
			p.logger.Warn("gaiji image not readable", slog.String("src", d.Src), slog.String("error", err.Error()))
			continue
		}
		preview, err := exporter.Export(d.Src, data)
		if err != nil {
			p.logger.Warn("gaiji preview failed", slog.String("src", d.Src), slog.String("error", err.Error()))
			continue
		}
		if preview.Warning != "" {
			p.logger.Warn("gaiji preview skipped", slog.String("src", d.Src), slog.String("reason", preview.Warning))
			continue
		}
		p.logger.Info("gaiji preview written", slog.String("src", d.Src), slog.String("path", preview.Path))
	}
}

func findBook(bs []books.Book, name string) (books.Book, bool) {
	for _, b := range bs {
		if b.Name == name {
			return b, true
		}
	}
	return books.Book{}, false
}
