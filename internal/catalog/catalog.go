// Package catalog records converted books and their chapter roles in SQLite.
// The recorded role sequences double as a training corpus for the role model.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yuanying/epub2txt/internal/books"
	"github.com/yuanying/epub2txt/internal/chapters"
	"github.com/yuanying/epub2txt/internal/roles"
	"github.com/yuanying/epub2txt/internal/roles/mle"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS books (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	source       TEXT NOT NULL,
	name         TEXT NOT NULL,
	author       TEXT NOT NULL DEFAULT '',
	asin         TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	label        TEXT NOT NULL DEFAULT '',
	publisher    TEXT NOT NULL DEFAULT '',
	pub_date     TEXT NOT NULL DEFAULT '',
	converted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(source, name)
);

CREATE TABLE IF NOT EXISTS chapters (
	book_id   INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	name      TEXT NOT NULL,
	role      TEXT NOT NULL,
	skip      INTEGER NOT NULL DEFAULT 0,
	start_idx INTEGER NOT NULL,
	end_idx   INTEGER NOT NULL,
	UNIQUE(book_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_chapters_role ON chapters(role);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the catalog database and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// BookRow is a row of the books table.
type BookRow struct {
	Source      string
	Name        string
	Meta        books.Meta
	ConvertedAt time.Time
}

// Record stores a converted book with its chapters, replacing an earlier
// record of the same source and book name.
func (db *DB) Record(b BookRow, chs []chapters.Chapter) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if b.ConvertedAt.IsZero() {
		b.ConvertedAt = time.Now()
	}
	m := b.Meta
	_, err = tx.Exec(`
		INSERT INTO books (source, name, author, asin, title, label, publisher, pub_date, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, name) DO UPDATE SET
			author       = excluded.author,
			asin         = excluded.asin,
			title        = excluded.title,
			label        = excluded.label,
			publisher    = excluded.publisher,
			pub_date     = excluded.pub_date,
			converted_at = excluded.converted_at
	`, b.Source, b.Name, m.Author, m.ASIN, m.Title, m.Label, m.Publisher, m.PubDate, b.ConvertedAt.UTC())
	if err != nil {
		return fmt.Errorf("catalog: upsert book: %w", err)
	}

	var id int64
	if err := tx.QueryRow(`SELECT id FROM books WHERE source = ? AND name = ?`, b.Source, b.Name).Scan(&id); err != nil {
		return fmt.Errorf("catalog: book id: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM chapters WHERE book_id = ?`, id); err != nil {
		return fmt.Errorf("catalog: clear chapters: %w", err)
	}
	if len(chs) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO chapters (book_id, seq, name, role, skip, start_idx, end_idx) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare chapter insert: %w", err)
		}
		defer stmt.Close()
		for i, ch := range chs {
			if _, err := stmt.Exec(id, i, ch.Name, ch.Role.String(), ch.Skip, ch.Start, ch.End); err != nil {
				return fmt.Errorf("catalog: insert chapter: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Books lists every recorded book, oldest conversion first.
func (db *DB) Books() ([]BookRow, error) {
	rows, err := db.conn.Query(`
		SELECT source, name, author, asin, title, label, publisher, pub_date, converted_at
		FROM books ORDER BY converted_at, id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list books: %w", err)
	}
	defer rows.Close()

	var out []BookRow
	for rows.Next() {
		var b BookRow
		m := &b.Meta
		if err := rows.Scan(&b.Source, &b.Name, &m.Author, &m.ASIN, &m.Title, &m.Label, &m.Publisher, &m.PubDate, &b.ConvertedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Chapters returns the recorded chapters of one book in TOC order.
func (db *DB) Chapters(source, name string) ([]chapters.Chapter, error) {
	rows, err := db.conn.Query(`
		SELECT c.name, c.role, c.skip, c.start_idx, c.end_idx
		FROM chapters c JOIN books b ON b.id = c.book_id
		WHERE b.source = ? AND b.name = ?
		ORDER BY c.seq`, source, name)
	if err != nil {
		return nil, fmt.Errorf("catalog: list chapters: %w", err)
	}
	defer rows.Close()

	var out []chapters.Chapter
	for rows.Next() {
		ch := chapters.Chapter{Book: name}
		var role string
		if err := rows.Scan(&ch.Name, &role, &ch.Skip, &ch.Start, &ch.End); err != nil {
			return nil, fmt.Errorf("catalog: scan chapter: %w", err)
		}
		if ch.Role, err = roles.Parse(role); err != nil {
			return nil, fmt.Errorf("catalog: chapter %q: %w", ch.Name, err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Corpus returns the labelled tables of contents of every recorded book, in
// the form the role model trainer consumes.
func (db *DB) Corpus() ([]mle.Book, error) {
	rows, err := db.conn.Query(`SELECT book_id, role, name FROM chapters ORDER BY book_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("catalog: corpus: %w", err)
	}
	defer rows.Close()

	var (
		out  []mle.Book
		cur  mle.Book
		last int64 = -1
	)
	for rows.Next() {
		var (
			id          int64
			role, title string
		)
		if err := rows.Scan(&id, &role, &title); err != nil {
			return nil, fmt.Errorf("catalog: scan corpus: %w", err)
		}
		r, err := roles.Parse(role)
		if err != nil {
			return nil, fmt.Errorf("catalog: corpus: %w", err)
		}
		if id != last && len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
		last = id
		cur = append(cur, mle.Entry{Role: r, Title: title})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out, nil
}
