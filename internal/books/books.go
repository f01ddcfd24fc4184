// Package books handles the books and meta side files. An omnibus container
// holds several books; each is written to its own text file.
package books

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

// FileName is the books side file name inside the output directory.
const FileName = "books.txt"

const sep = ":"

var ErrInvalidFile = fmt.Errorf("%w: invalid books file", apperr.ErrUnschematic)

// Book is one book of a container, covering spine indices [Start, End).
type Book struct {
	Name   string
	Author string
	Start  int
	End    int
	Files  []string
}

// Generate splits the container into books. An omnibus title announcing n
// volumes is split after each colophon when there are exactly n of them;
// anything else yields a single book.
func Generate(b *epub.Book, bounds []epub.Boundary, rs []roles.Role) []Book {
	name := BookName(b.Metadata.Title)
	if name == "" {
		name = "book"
	}
	author := b.Metadata.Author()
	whole := []Book{newBook(b, name, author, 0, len(b.Spine))}

	n := CountVolumes(b.Metadata.Title)
	if n == 1 || len(bounds) != len(rs) {
		return whole
	}

	var ends []int
	for i, r := range rs {
		if r == roles.Copyright {
			ends = append(ends, bounds[i].End)
		}
	}
	if len(ends) != n {
		return whole
	}
	ends[n-1] = len(b.Spine)

	base := name
	if i := strings.LastIndex(base, "全"); i > 0 {
		base = strings.TrimSpace(base[:i])
	}
	out := make([]Book, 0, n)
	start := 0
	for i, end := range ends {
		out = append(out, newBook(b, fmt.Sprintf("%s %d", base, i+1), author, start, end))
		start = end
	}
	return out
}

func newBook(b *epub.Book, name, author string, start, end int) Book {
	return Book{
		Name:   name,
		Author: author,
		Start:  start,
		End:    end,
		Files:  b.Files(epub.Boundary{Start: start, End: end}),
	}
}

// NameAt returns the name of the book holding spine index idx, or the last
// book's name when no range contains it.
func NameAt(bs []Book, idx int) string {
	for _, b := range bs {
		if idx >= b.Start && idx < b.End {
			return b.Name
		}
	}
	if len(bs) == 0 {
		return ""
	}
	return bs[len(bs)-1].Name
}

// Parse reads "name:author:start:end:file..." lines.
func Parse(r io.Reader) ([]Book, error) {
	var out []Book
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, sep)
		if len(fields) < 4 {
			return nil, fmt.Errorf("%w: line %d: want at least 4 fields, got %d", ErrInvalidFile, lineNo, len(fields))
		}
		b := Book{Name: fields[0], Author: fields[1]}
		var err error
		if b.Start, err = strconv.Atoi(fields[2]); err != nil {
			return nil, fmt.Errorf("%w: line %d: start index: %v", ErrInvalidFile, lineNo, err)
		}
		if b.End, err = strconv.Atoi(fields[3]); err != nil {
			return nil, fmt.Errorf("%w: line %d: end index: %v", ErrInvalidFile, lineNo, err)
		}
		if len(fields) > 4 {
			b.Files = fields[4:]
		}
		out = append(out, b)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read books file: %w", err)
	}
	return out, nil
}

// Load reads the books file at path. A missing file yields found == false.
func Load(path string) (bs []Book, found bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open books file: %w", err)
	}
	defer f.Close()

	bs, err = Parse(f)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return bs, true, nil
}

// Write writes one line per book.
func Write(w io.Writer, bs []Book) error {
	bw := bufio.NewWriter(w)
	for _, b := range bs {
		fields := []string{escape(b.Name), escape(b.Author), strconv.Itoa(b.Start), strconv.Itoa(b.End)}
		fields = append(fields, b.Files...)
		if _, err := fmt.Fprintln(bw, strings.Join(fields, sep)); err != nil {
			return fmt.Errorf("failed to write books file: %w", err)
		}
	}
	return bw.Flush()
}

// Save writes bs to path.
func Save(path string, bs []Book) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create books file: %w", err)
	}
	if err := Write(f, bs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func escape(s string) string {
	return strings.ReplaceAll(s, sep, "：")
}
