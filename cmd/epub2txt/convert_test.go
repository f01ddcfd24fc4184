package main

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/yuanying/epub2txt/internal/catalog"
	"github.com/yuanying/epub2txt/internal/config"
)

const convertOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>%s</dc:title>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="a" href="a.xhtml" media-type="application/xhtml+xml"/>
    <item id="b" href="b.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx"><itemref idref="a"/><itemref idref="b"/></spine>
</package>`

const convertNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="np1"><navLabel><text>表紙</text></navLabel><content src="a.xhtml"/></navPoint>
    <navPoint id="np2"><navLabel><text>第一章</text></navLabel><content src="b.xhtml"/></navPoint>
  </navMap>
</ncx>`

func writeBook(t *testing.T, dir, file, title string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, m := range []struct{ name, body string }{
		{"mimetype", "application/epub+zip"},
		{"content.opf", fmt.Sprintf(convertOPF, title)},
		{"toc.ncx", convertNCX},
		{"a.xhtml", `<html><body><p>表紙</p></body></html>`},
		{"b.xhtml", `<html><body><p>` + title + `の本文</p></body></html>`},
	} {
		mw, err := w.Create(m.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := mw.Write([]byte(m.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunConvert(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefault()
	cfg.Catalog.Path = filepath.Join(dir, "catalog.db")
	opts := cliOptions{
		Inputs: []string{
			writeBook(t, dir, "one.epub", "一の物語"),
			writeBook(t, dir, "two.epub", "二の物語"),
		},
		Jobs:   2,
		Config: cfg,
		Logger: slog.New(slog.DiscardHandler),
	}

	if err := runConvert(context.Background(), opts); err != nil {
		t.Fatalf("runConvert() error = %v", err)
	}

	for _, tt := range []struct{ dir, name string }{{"one", "一の物語"}, {"two", "二の物語"}} {
		data, err := os.ReadFile(filepath.Join(dir, tt.dir, tt.name+".txt"))
		if err != nil {
			t.Fatalf("output missing: %v", err)
		}
		if want := tt.name + "の本文\n"; string(data) != want {
			t.Errorf("%s text = %q, want %q", tt.dir, data, want)
		}
	}

	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	rows, err := db.Books()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	slices.Sort(names)
	if !slices.Equal(names, []string{"一の物語", "二の物語"}) {
		t.Errorf("catalog books = %v", names)
	}
}

func TestRunConvertFailure(t *testing.T) {
	dir := t.TempDir()
	opts := cliOptions{
		Inputs: []string{filepath.Join(dir, "missing.epub")},
		Jobs:   1,
		Config: config.NewDefault(),
		Logger: slog.New(slog.DiscardHandler),
	}
	if err := runConvert(context.Background(), opts); err == nil {
		t.Fatal("runConvert() succeeded for a missing file")
	}
}
