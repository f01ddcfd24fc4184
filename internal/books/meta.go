package books

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yuanying/epub2txt/internal/epub"
)

// MetaFileName is the meta side file name inside the output directory.
const MetaFileName = "meta.txt"

// Meta is the bibliographic record written next to the text output.
type Meta struct {
	ASIN      string
	Title     string
	Author    string
	Label     string
	Publisher string
	PubDate   string
}

// NewMeta derives the record from package metadata. The title is stripped of
// edition notes and its publisher label is split off.
func NewMeta(md epub.Metadata) Meta {
	title, labels := ParseBookTitle(md.Title)
	return Meta{
		ASIN:      md.ASIN,
		Title:     title,
		Author:    md.Author(),
		Label:     strings.Join(labels, "/"),
		Publisher: md.Publisher,
		PubDate:   md.Date,
	}
}

func (m Meta) fields() [][2]string {
	return [][2]string{
		{"asin", m.ASIN},
		{"title", m.Title},
		{"author", m.Author},
		{"label", m.Label},
		{"publisher", m.Publisher},
		{"pub_date", m.PubDate},
	}
}

// WriteTo writes "key:value" lines.
func (m Meta) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, kv := range m.fields() {
		c, err := fmt.Fprintf(bw, "%s%s%s\n", kv[0], sep, kv[1])
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ParseMeta reads a meta file. Unknown keys are ignored.
func ParseMeta(r io.Reader) (Meta, error) {
	var m Meta
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), sep)
		if !ok {
			continue
		}
		switch key {
		case "asin":
			m.ASIN = value
		case "title":
			m.Title = value
		case "author":
			m.Author = value
		case "label":
			m.Label = value
		case "publisher":
			m.Publisher = value
		case "pub_date":
			m.PubDate = value
		}
	}
	if err := sc.Err(); err != nil {
		return Meta{}, fmt.Errorf("failed to read meta file: %w", err)
	}
	return m, nil
}

// Save writes the record to path.
func (m Meta) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create meta file: %w", err)
	}
	if _, err := m.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write meta file: %w", err)
	}
	return f.Close()
}
