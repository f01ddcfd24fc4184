// Package gaiji maps glyph images that stand in for missing characters to
// replacement characters, and persists that mapping as "src:char" lines.
package gaiji

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yuanying/epub2txt/internal/apperr"
)

// Placeholder is registered for newly found glyph images until a human maps
// them to a real character.
const Placeholder = '�'

// FileName is the gaiji side file name inside the output directory.
const FileName = "gaiji.txt"

var ErrInvalidFile = fmt.Errorf("%w: invalid gaiji file", apperr.ErrUnschematic)

// Table is the image reference -> replacement character mapping. It records
// which references were registered after loading so callers know whether
// to write it back.
type Table struct {
	chars map[string]rune
	added []string
}

// New returns an empty table.
func New() *Table {
	return &Table{chars: make(map[string]rune)}
}

// Parse reads "src:char" lines. The source is split at its first ':'.
func Parse(r io.Reader) (*Table, error) {
	t := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		src, char, ok := strings.Cut(line, ":")
		if !ok || src == "" || utf8.RuneCountInString(char) != 1 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrInvalidFile, lineNo, line)
		}
		ch, _ := utf8.DecodeRuneInString(char)
		t.chars[src] = ch
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gaiji file: %w", err)
	}
	return t, nil
}

// Load reads the table at path. A missing file is not an error: it yields an
// empty table and found == false.
func Load(path string) (t *Table, found bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open gaiji file: %w", err)
	}
	defer f.Close()

	t, err = Parse(f)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return t, true, nil
}

// Lookup returns the character registered for src.
func (t *Table) Lookup(src string) (rune, bool) {
	ch, ok := t.chars[src]
	return ch, ok
}

// Register maps src to ch and remembers src as newly added.
func (t *Table) Register(src string, ch rune) {
	if _, ok := t.chars[src]; !ok {
		t.added = append(t.added, src)
	}
	t.chars[src] = ch
}

// Added lists the references registered since the table was loaded.
func (t *Table) Added() []string {
	return t.added
}

// Len is the number of mapped references.
func (t *Table) Len() int {
	return len(t.chars)
}

// WriteTo writes the table sorted by reference.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	srcs := make([]string, 0, len(t.chars))
	for src := range t.chars {
		srcs = append(srcs, src)
	}
	sort.Strings(srcs)

	bw := bufio.NewWriter(w)
	var n int64
	for _, src := range srcs {
		m, err := fmt.Fprintf(bw, "%s:%c\n", src, t.chars[src])
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Save writes the table to path.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create gaiji file: %w", err)
	}
	if _, err := t.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write gaiji file: %w", err)
	}
	return f.Close()
}
