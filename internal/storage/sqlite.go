package storage

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// DB wraps the SQLite query index. The JSONL store is the source of truth;
// the index is disposable and rebuilt whenever the store changes.
type DB struct {
	db *sql.DB
}

// Hit is one indexed entry as returned by queries.
type Hit struct {
	Key     string `json:"key"`
	Title   string `json:"title,omitempty"`
	Authors string `json:"authors,omitempty"`
	Year    int    `json:"year,omitempty"`
	Bibcode string `json:"bibcode,omitempty"`
	DOI     string `json:"doi,omitempty"`
	PDF     string `json:"pdf,omitempty"`
	Tags    string `json:"tags,omitempty"`
}

// selectHitFields contains the standard field list for SELECT queries.
const selectHitFields = `cite_key, title, authors_text, year, bibcode, doi, pdf, tags_text`

// contentHashKey names the index_meta row holding the store hash.
const contentHashKey = "content_hash"

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			cite_key TEXT PRIMARY KEY,
			title TEXT,
			authors_text TEXT,
			year INTEGER,
			month INTEGER,
			doi TEXT,
			isbn TEXT,
			eprint TEXT,
			bibcode TEXT,
			pdf TEXT,
			freeze INTEGER NOT NULL DEFAULT 0,
			tags_text TEXT,
			content TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_entries_bibcode ON entries(bibcode) WHERE bibcode IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_entries_doi ON entries(doi) WHERE doi IS NOT NULL;

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			cite_key,
			title,
			authors_text,
			tags_text
		);

		CREATE TABLE IF NOT EXISTS index_meta (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}

// HashFile returns the hex blake2b-256 digest of the file at path, or ""
// when the file does not exist.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ContentHash returns the store hash the index was last built from.
func (d *DB) ContentHash() (string, error) {
	var hash string
	err := d.db.QueryRow(`SELECT value FROM index_meta WHERE name = ?`, contentHashKey).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

// RebuildFromJSONL rebuilds the index from the store at jsonlPath. Unless
// force is set, nothing happens when the store hash matches the one the
// index was built from; rebuilt reports whether the index was rewritten.
func (d *DB) RebuildFromJSONL(jsonlPath string, force bool) (count int, rebuilt bool, err error) {
	hash, err := HashFile(jsonlPath)
	if err != nil {
		return 0, false, err
	}
	if !force {
		stored, err := d.ContentHash()
		if err != nil {
			return 0, false, fmt.Errorf("reading index hash: %w", err)
		}
		if stored != "" && stored == hash {
			n, err := d.Count()
			return n, false, err
		}
	}

	entries, err := ReadAll(jsonlPath, nil)
	if err != nil {
		return 0, false, fmt.Errorf("reading JSONL: %w", err)
	}
	if err := d.Rebuild(entries, hash); err != nil {
		return 0, false, err
	}
	return len(entries), true, nil
}

// Rebuild replaces the index contents with entries and records hash.
func (d *DB) Rebuild(entries []*reference.Entry, hash string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing entries table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM entries_fts"); err != nil {
		return fmt.Errorf("clearing entries_fts table: %w", err)
	}

	entryStmt, err := tx.Prepare(`
		INSERT INTO entries (
			cite_key, title, authors_text, year, month,
			doi, isbn, eprint, bibcode,
			pdf, freeze, tags_text, content
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing entries insert: %w", err)
	}
	defer entryStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO entries_fts (cite_key, title, authors_text, tags_text)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, e := range entries {
		authorsText := formatAuthorsText(e.Authors)
		tagsText := strings.Join(e.Tags, " ")
		freeze := 0
		if e.Freeze {
			freeze = 1
		}

		_, err = entryStmt.Exec(
			e.Key, nullableString(e.Title), nullableString(authorsText), e.Year, e.Month,
			nullableString(e.DOI), nullableString(e.ISBN), nullableString(e.Eprint), nullableString(e.Bibcode),
			nullableString(e.PDF), freeze, nullableString(tagsText), e.Content,
		)
		if err != nil {
			return fmt.Errorf("inserting entry %s: %w", e.Key, err)
		}

		if _, err = ftsStmt.Exec(e.Key, e.Title, authorsText, tagsText); err != nil {
			return fmt.Errorf("inserting fts for %s: %w", e.Key, err)
		}
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO index_meta (name, value) VALUES (?, ?)`, contentHashKey, hash); err != nil {
		return fmt.Errorf("recording index hash: %w", err)
	}
	return tx.Commit()
}

// formatAuthorsText creates a searchable text representation of authors.
// LaTeX accents are stripped so that plain-letter queries match.
func formatAuthorsText(authors []bibtex.Name) string {
	var names []string
	for _, a := range authors {
		var parts []string
		for _, p := range []string{a.First, a.Von, a.Last, a.Jr} {
			if p = bibtex.Purify(p, false); p != "" {
				parts = append(parts, p)
			}
		}
		names = append(names, strings.Join(parts, " "))
	}
	return strings.Join(names, ", ")
}

// GetByKey retrieves an indexed entry by its key; nil when absent.
func (d *DB) GetByKey(key string) (*Hit, error) {
	row := d.db.QueryRow(`SELECT `+selectHitFields+` FROM entries WHERE cite_key = ?`, key)
	return scanHit(row)
}

// Search performs a full-text search and returns matching entries.
func (d *DB) Search(query string, limit int) ([]Hit, error) {
	rows, err := d.db.Query(`
		SELECT `+selectHitFields+`
		FROM entries
		WHERE cite_key IN (SELECT cite_key FROM entries_fts WHERE entries_fts MATCH ?)
		ORDER BY year, cite_key
		LIMIT ?`, prepareFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// SearchFilters contains optional filters for SearchWithFilters.
type SearchFilters struct {
	Keyword  string   // General keyword search across all indexed text
	Authors  []string // Author names (AND logic, prefix matching)
	YearFrom int      // Minimum year (0 = no minimum)
	YearTo   int      // Maximum year (0 = no maximum)
	Title    string   // Search in title only (FTS)
	Tags     []string // Tags (AND logic, exact words)
}

// SearchWithFilters returns entries matching ALL specified criteria.
func (d *DB) SearchWithFilters(filters SearchFilters, limit int) ([]Hit, error) {
	var ftsTerms []string
	var args []any

	if filters.Keyword != "" {
		ftsTerms = append(ftsTerms, prepareFTSQuery(filters.Keyword))
	}
	if filters.Title != "" {
		ftsTerms = append(ftsTerms, "title:"+prepareFTSQuery(filters.Title))
	}
	for _, author := range filters.Authors {
		if author != "" {
			ftsTerms = append(ftsTerms, "authors_text:"+prepareAuthorQuery(author))
		}
	}
	for _, tag := range filters.Tags {
		if tag != "" {
			ftsTerms = append(ftsTerms, `tags_text:"`+strings.ReplaceAll(tag, `"`, `""`)+`"`)
		}
	}

	var query string
	if len(ftsTerms) > 0 {
		query = `SELECT ` + selectHitFields + `
			FROM entries
			WHERE cite_key IN (SELECT cite_key FROM entries_fts WHERE entries_fts MATCH ?)`
		args = append(args, strings.Join(ftsTerms, " AND "))
	} else {
		query = `SELECT ` + selectHitFields + ` FROM entries WHERE 1=1`
	}

	if filters.YearFrom > 0 {
		query += " AND year >= ?"
		args = append(args, filters.YearFrom)
	}
	if filters.YearTo > 0 {
		query += " AND year > 0 AND year <= ?"
		args = append(args, filters.YearTo)
	}

	query += " ORDER BY year, cite_key LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching with filters: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix
// matching, so that "Tim" matches "Timothy".
func prepareAuthorQuery(author string) string {
	var terms []string
	for _, part := range strings.Fields(bibtex.Purify(author, false)) {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}
	if len(terms) == 0 {
		return `""`
	}
	return "(" + strings.Join(terms, " AND ") + ")"
}

// Count returns the number of indexed entries.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanHit(s scanner) (*Hit, error) {
	var h Hit
	var title, authors, bibcode, doi, pdf, tags sql.NullString
	var year sql.NullInt64

	err := s.Scan(&h.Key, &title, &authors, &year, &bibcode, &doi, &pdf, &tags)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	h.Title = title.String
	h.Authors = authors.String
	h.Year = int(year.Int64)
	h.Bibcode = bibcode.String
	h.DOI = doi.String
	h.PDF = pdf.String
	h.Tags = tags.String
	return &h, nil
}

func scanHits(rows *sql.Rows) ([]Hit, error) {
	var hits []Hit
	for rows.Next() {
		h, err := scanHit(rows)
		if err != nil {
			return nil, err
		}
		if h != nil {
			hits = append(hits, *h)
		}
	}
	return hits, rows.Err()
}

// nullableString converts a string to sql.NullString, treating empty as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return `""`
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~\\") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}

// yearLabel renders a year for display, "" when absent.
func yearLabel(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

// String renders a hit as a one-line summary.
func (h Hit) String() string {
	var b strings.Builder
	b.WriteString(h.Key)
	if y := yearLabel(h.Year); y != "" {
		b.WriteString(" (" + y + ")")
	}
	if h.Title != "" {
		b.WriteString(": " + h.Title)
	}
	return b.String()
}
