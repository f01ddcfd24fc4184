// Package chapters reads, writes and generates the chapters side file. The
// file lets a reader correct chapter roles by hand: when it exists it is used
// as is instead of being regenerated.
package chapters

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/yuanying/epub2txt/internal/apperr"
	"github.com/yuanying/epub2txt/internal/epub"
	"github.com/yuanying/epub2txt/internal/roles"
)

// FileName is the side file name inside the output directory.
const FileName = "chapters.txt"

const (
	sep  = ":"
	skip = "SKIP"
	take = "TAKE"
)

var ErrInvalidFile = fmt.Errorf("%w: invalid chapters file", apperr.ErrUnschematic)

// Chapter is a TOC entry with its spine range [Start, End).
type Chapter struct {
	Book  string
	Name  string
	Role  roles.Role
	Skip  bool
	Start int
	End   int
	Files []string
}

// Generate builds one chapter per boundary. roles must hold one role per
// boundary; bookOf names the book that contains a spine index. A chapter
// whose end precedes its start is skipped and has no files.
func Generate(b *epub.Book, bounds []epub.Boundary, rs []roles.Role, bookOf func(spineIdx int) string) ([]Chapter, error) {
	if len(bounds) != len(rs) {
		return nil, fmt.Errorf("got %d roles for %d chapters", len(rs), len(bounds))
	}
	out := make([]Chapter, len(bounds))
	for i, bound := range bounds {
		out[i] = Chapter{
			Book:  bookOf(bound.Start),
			Name:  bound.Title,
			Role:  rs[i],
			Skip:  rs[i].IsSkip() || bound.End < bound.Start,
			Start: bound.Start,
			End:   bound.End,
			Files: b.Files(bound),
		}
	}
	return out, nil
}

// GroupByBook splits chapters into runs that share a book name.
func GroupByBook(chs []Chapter) [][]Chapter {
	var groups [][]Chapter
	for i := 0; i < len(chs); {
		j := i + 1
		for j < len(chs) && chs[j].Book == chs[i].Book {
			j++
		}
		groups = append(groups, chs[i:j])
		i = j
	}
	return groups
}

// Parse reads "book:name:role:SKIP|TAKE:start:end:file..." lines.
func Parse(r io.Reader) ([]Chapter, error) {
	var out []Chapter
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ch, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidFile, lineNo, err)
		}
		out = append(out, ch)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chapters file: %w", err)
	}
	return out, nil
}

func parseLine(line string) (Chapter, error) {
	fields := strings.Split(line, sep)
	if len(fields) < 6 {
		return Chapter{}, fmt.Errorf("want at least 6 fields, got %d", len(fields))
	}
	role, err := roles.Parse(fields[2])
	if err != nil {
		return Chapter{}, err
	}
	ch := Chapter{Book: fields[0], Name: fields[1], Role: role}
	switch fields[3] {
	case skip:
		ch.Skip = true
	case take:
	default:
		return Chapter{}, fmt.Errorf("want %s or %s, got %q", skip, take, fields[3])
	}
	if ch.Start, err = strconv.Atoi(fields[4]); err != nil {
		return Chapter{}, fmt.Errorf("start index: %w", err)
	}
	if ch.End, err = strconv.Atoi(fields[5]); err != nil {
		return Chapter{}, fmt.Errorf("end index: %w", err)
	}
	if len(fields) > 6 {
		ch.Files = fields[6:]
	}
	return ch, nil
}

// Load reads the chapters file at path. A missing file yields found == false
// and no error.
func Load(path string) (chs []Chapter, found bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open chapters file: %w", err)
	}
	defer f.Close()

	chs, err = Parse(f)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return chs, true, nil
}

// Write writes one line per chapter. Separators inside names are replaced by
// their full-width form so the file stays parseable.
func Write(w io.Writer, chs []Chapter) error {
	bw := bufio.NewWriter(w)
	for _, ch := range chs {
		mark := take
		if ch.Skip {
			mark = skip
		}
		fields := []string{
			escape(ch.Book), escape(ch.Name), ch.Role.String(), mark,
			strconv.Itoa(ch.Start), strconv.Itoa(ch.End),
		}
		fields = append(fields, ch.Files...)
		if _, err := fmt.Fprintln(bw, strings.Join(fields, sep)); err != nil {
			return fmt.Errorf("failed to write chapters file: %w", err)
		}
	}
	return bw.Flush()
}

// Save writes chs to path.
func Save(path string, chs []Chapter) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chapters file: %w", err)
	}
	if err := Write(f, chs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func escape(s string) string {
	return strings.ReplaceAll(s, sep, "：")
}
