package catalog

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/yuanying/epub2txt/internal/books"
	"github.com/yuanying/epub2txt/internal/chapters"
	"github.com/yuanying/epub2txt/internal/roles"
	"github.com/yuanying/epub2txt/internal/roles/mle"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleChapters() []chapters.Chapter {
	return []chapters.Chapter{
		{Book: "物語", Name: "表紙", Role: roles.Cover, Skip: true, Start: 0, End: 1},
		{Book: "物語", Name: "第一章", Role: roles.Main, Start: 1, End: 3},
		{Book: "物語", Name: "奥付", Role: roles.Copyright, Skip: true, Start: 3, End: 4},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM books`).Scan(&count); err != nil {
		t.Fatalf("books table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM chapters`).Scan(&count); err != nil {
		t.Fatalf("chapters table missing: %v", err)
	}
}

func TestRecordAndChapters(t *testing.T) {
	db := testDB(t)
	row := BookRow{
		Source:      "/books/a.epub",
		Name:        "物語",
		Meta:        books.Meta{Title: "物語", Author: "著者", ASIN: "B000000001"},
		ConvertedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := db.Record(row, sampleChapters()); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := db.Chapters(row.Source, row.Name)
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if !reflect.DeepEqual(got, sampleChapters()) {
		t.Errorf("Chapters() = %+v, want %+v", got, sampleChapters())
	}

	bs, err := db.Books()
	if err != nil {
		t.Fatalf("Books: %v", err)
	}
	if len(bs) != 1 || bs[0].Meta != row.Meta || !bs[0].ConvertedAt.Equal(row.ConvertedAt) {
		t.Errorf("Books() = %+v", bs)
	}
}

func TestRecordReplaces(t *testing.T) {
	db := testDB(t)
	row := BookRow{Source: "a.epub", Name: "物語"}
	if err := db.Record(row, sampleChapters()); err != nil {
		t.Fatal(err)
	}
	fixed := []chapters.Chapter{{Book: "物語", Name: "第一章", Role: roles.Prologue, Start: 0, End: 4}}
	row.Meta.Author = "別名"
	if err := db.Record(row, fixed); err != nil {
		t.Fatal(err)
	}

	got, err := db.Chapters("a.epub", "物語")
	if err != nil || !reflect.DeepEqual(got, fixed) {
		t.Errorf("Chapters() = %+v, %v", got, err)
	}
	bs, err := db.Books()
	if err != nil || len(bs) != 1 || bs[0].Meta.Author != "別名" {
		t.Errorf("Books() = %+v, %v", bs, err)
	}
}

func TestCorpus(t *testing.T) {
	db := testDB(t)
	if err := db.Record(BookRow{Source: "a.epub", Name: "A"}, sampleChapters()); err != nil {
		t.Fatal(err)
	}
	if err := db.Record(BookRow{Source: "b.epub", Name: "B"}, nil); err != nil {
		t.Fatal(err)
	}
	second := []chapters.Chapter{
		{Name: "プロローグ", Role: roles.Prologue},
		{Name: "あとがき", Role: roles.Afterword, Skip: true},
	}
	if err := db.Record(BookRow{Source: "c.epub", Name: "C"}, second); err != nil {
		t.Fatal(err)
	}

	got, err := db.Corpus()
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	want := []mle.Book{
		{{Role: roles.Cover, Title: "表紙"}, {Role: roles.Main, Title: "第一章"}, {Role: roles.Copyright, Title: "奥付"}},
		{{Role: roles.Prologue, Title: "プロローグ"}, {Role: roles.Afterword, Title: "あとがき"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Corpus() = %+v, want %+v", got, want)
	}
}
