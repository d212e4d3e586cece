package pagestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/CTAG07/Wikitext/pkg/wikitext"
	"github.com/google/uuid"
)

var (
	// ErrPageNotFound is returned when no page has the requested title.
	ErrPageNotFound = errors.New("page not found")
	// ErrInvalidTitle is returned for titles that are empty after normalization.
	ErrInvalidTitle = errors.New("invalid page title")
)

// SetupSchema initializes the page and revision tables in the provided
// database. It is idempotent and safe to call on an already-initialized
// database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaPages = `
CREATE TABLE IF NOT EXISTS wiki_pages (
    page_id    INTEGER PRIMARY KEY,
    title      TEXT    NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`
		schemaRevisions = `
CREATE TABLE IF NOT EXISTS wiki_revisions (
    rev_seq     INTEGER PRIMARY KEY,
    revision_id TEXT    NOT NULL UNIQUE,
    page_id     INTEGER NOT NULL,
    content     TEXT    NOT NULL,
    created_at  INTEGER NOT NULL
);
`
		indexRevisions = `CREATE INDEX IF NOT EXISTS idx_wiki_revisions_page ON wiki_revisions (page_id, rev_seq);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaPages); err != nil {
		return fmt.Errorf("could not create pages schema: %w", err)
	}
	if _, err = tx.Exec(schemaRevisions); err != nil {
		return fmt.Errorf("could not create revisions schema: %w", err)
	}
	if _, err = tx.Exec(indexRevisions); err != nil {
		return fmt.Errorf("could not create revisions index: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Page is the latest revision of a page.
type Page struct {
	Title     string    `json:"title"`
	Revision  string    `json:"revision"`
	Wikitext  string    `json:"wikitext"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Revision describes one saved version of a page.
type Revision struct {
	ID        string    `json:"id"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary gives a high-level overview of the store.
type Summary struct {
	TotalPages     int64 `json:"total_pages"`
	TotalRevisions int64 `json:"total_revisions"`
	TotalBytes     int64 `json:"total_bytes"`
}

// Store is the main entry point for saving and loading pages. It holds the
// database connection, the codec used to render and parse documents, and
// prepared SQL statements.
type Store struct {
	db            *sql.DB
	codec         *wikitext.Codec
	logger        *slog.Logger
	stmtGetLatest *sql.Stmt
	stmtList      *sql.Stmt
	stmtHistory   *sql.Stmt
	stmtSummary   *sql.Stmt
}

// NewStore creates a Store and pre-compiles its statements. SetupSchema must
// have been called on db. A nil codec follows the process-wide wikitext
// settings at the time of each call; a nil logger uses slog.Default().
func NewStore(db *sql.DB, codec *wikitext.Codec, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	stmts, err := prepareAll(db,
		`
SELECT p.title, r.revision_id, r.content, r.created_at
FROM wiki_pages p JOIN wiki_revisions r ON r.page_id = p.page_id
WHERE p.title = ?
ORDER BY r.rev_seq DESC LIMIT 1;`,
		`SELECT title FROM wiki_pages ORDER BY title;`,
		`
SELECT r.revision_id, length(CAST(r.content AS BLOB)), r.created_at
FROM wiki_pages p JOIN wiki_revisions r ON r.page_id = p.page_id
WHERE p.title = ?
ORDER BY r.rev_seq DESC;`,
		`
SELECT (SELECT COUNT(*) FROM wiki_pages),
       (SELECT COUNT(*) FROM wiki_revisions),
       (SELECT COALESCE(SUM(length(CAST(content AS BLOB))), 0) FROM wiki_revisions);`,
	)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:            db,
		codec:         codec,
		logger:        logger,
		stmtGetLatest: stmts[0],
		stmtList:      stmts[1],
		stmtHistory:   stmts[2],
		stmtSummary:   stmts[3],
	}, nil
}

// prepareAll prepares every query in order. If one fails, the statements
// prepared so far are closed before the error is returned.
func prepareAll(db *sql.DB, queries ...string) ([]*sql.Stmt, error) {
	stmts := make([]*sql.Stmt, 0, len(queries))
	for _, query := range queries {
		stmt, err := db.Prepare(query)
		if err != nil {
			for _, prepared := range stmts {
				_ = prepared.Close()
			}
			return nil, fmt.Errorf("failed to prepare statement: %w", err)
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (s *Store) currentCodec() *wikitext.Codec {
	if s.codec == nil {
		return wikitext.Default()
	}
	return s.codec
}

// Close releases the prepared statements. The database is left open.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{s.stmtGetLatest, s.stmtList, s.stmtHistory, s.stmtSummary} {
		_ = stmt.Close()
	}
}

// NormalizeTitle trims a title and replaces underscores with spaces, the way
// MediaWiki treats them as equivalent.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
	if title == "" {
		return "", ErrInvalidTitle
	}
	return title, nil
}

// SaveDocument renders doc with the store's codec and saves it as a new
// revision of the page.
func (s *Store) SaveDocument(ctx context.Context, title string, doc wikitext.Document) (Revision, error) {
	return s.SaveWikitext(ctx, title, s.currentCodec().Render(doc, false))
}

// SaveWikitext saves markup as a new revision of the page, creating the page
// if needed.
func (s *Store) SaveWikitext(ctx context.Context, title, markup string) (Revision, error) {
	title, err := NormalizeTitle(title)
	if err != nil {
		return Revision{}, err
	}

	now := time.Now()
	rev := Revision{ID: uuid.NewString(), Size: len(markup), CreatedAt: now}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	_, err = tx.ExecContext(ctx, `
INSERT INTO wiki_pages (title, created_at, updated_at) VALUES (?, ?, ?)
ON CONFLICT(title) DO UPDATE SET updated_at = excluded.updated_at;`,
		title, now.UnixNano(), now.UnixNano())
	if err != nil {
		return Revision{}, fmt.Errorf("failed to upsert page '%s': %w", title, err)
	}

	var pageID int64
	if err = tx.QueryRowContext(ctx, `SELECT page_id FROM wiki_pages WHERE title = ?`, title).Scan(&pageID); err != nil {
		return Revision{}, fmt.Errorf("failed to look up page '%s': %w", title, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO wiki_revisions (revision_id, page_id, content, created_at) VALUES (?, ?, ?, ?)`,
		rev.ID, pageID, markup, now.UnixNano())
	if err != nil {
		return Revision{}, fmt.Errorf("failed to insert revision for '%s': %w", title, err)
	}

	if err = tx.Commit(); err != nil {
		return Revision{}, fmt.Errorf("could not commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Page saved",
		slog.String("title", title),
		slog.String("revision", rev.ID),
		slog.Int("size", rev.Size),
	)
	return rev, nil
}

// Put stores markup under name. It lets a Store act as an importer sink.
func (s *Store) Put(ctx context.Context, name, markup string) error {
	_, err := s.SaveWikitext(ctx, name, markup)
	return err
}

// GetPage returns the latest revision of a page.
func (s *Store) GetPage(ctx context.Context, title string) (Page, error) {
	title, err := NormalizeTitle(title)
	if err != nil {
		return Page{}, err
	}

	var (
		page    Page
		updated int64
	)
	err = s.stmtGetLatest.QueryRowContext(ctx, title).Scan(&page.Title, &page.Revision, &page.Wikitext, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Page{}, ErrPageNotFound
		}
		return Page{}, err
	}
	page.UpdatedAt = time.Unix(0, updated)
	return page, nil
}

// Records parses the latest revision of a page back into records.
func (s *Store) Records(ctx context.Context, title string) (wikitext.Document, []wikitext.Issue, error) {
	page, err := s.GetPage(ctx, title)
	if err != nil {
		return nil, nil, err
	}
	doc, issues := s.currentCodec().Parse(page.Wikitext)
	return doc, issues, nil
}

// ListPages returns all page titles in alphabetical order.
func (s *Store) ListPages(ctx context.Context) ([]string, error) {
	rows, err := s.stmtList.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	titles := []string{}
	for rows.Next() {
		var title string
		if err = rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// History returns the revisions of a page, newest first.
func (s *Store) History(ctx context.Context, title string) ([]Revision, error) {
	title, err := NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	rows, err := s.stmtHistory.QueryContext(ctx, title)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var revs []Revision
	for rows.Next() {
		var (
			rev     Revision
			created int64
		)
		if err = rows.Scan(&rev.ID, &rev.Size, &created); err != nil {
			return nil, err
		}
		rev.CreatedAt = time.Unix(0, created)
		revs = append(revs, rev)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, ErrPageNotFound
	}
	return revs, nil
}

// DeletePage removes a page and all of its revisions.
func (s *Store) DeletePage(ctx context.Context, title string) error {
	title, err := NormalizeTitle(title)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM wiki_revisions WHERE page_id IN (SELECT page_id FROM wiki_pages WHERE title = ?)", title); err != nil {
		return fmt.Errorf("failed to remove revisions of '%s': %w", title, err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM wiki_pages WHERE title = ?", title)
	if err != nil {
		return fmt.Errorf("failed to remove page '%s': %w", title, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPageNotFound
	}

	s.logger.InfoContext(ctx, "Page removed", slog.String("title", title))
	return tx.Commit()
}

// Summary returns page, revision and size totals.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.stmtSummary.QueryRowContext(ctx).Scan(&sum.TotalPages, &sum.TotalRevisions, &sum.TotalBytes)
	return sum, err
}

// ExportedPage is the serializable form of a page used by Export and Import.
type ExportedPage struct {
	Title    string `json:"title"`
	Wikitext string `json:"wikitext"`
}

// Export writes the latest revision of every page to w as a JSON list.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	titles, err := s.ListPages(ctx)
	if err != nil {
		return err
	}
	pages := make([]ExportedPage, 0, len(titles))
	for _, title := range titles {
		page, err := s.GetPage(ctx, title)
		if err != nil {
			return fmt.Errorf("failed to export '%s': %w", title, err)
		}
		pages = append(pages, ExportedPage{Title: page.Title, Wikitext: page.Wikitext})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pages)
}

// Import reads a JSON list written by Export and saves every page as a new
// revision. It returns the number of imported pages.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var pages []ExportedPage
	if err := json.NewDecoder(r).Decode(&pages); err != nil {
		return 0, fmt.Errorf("failed to decode export: %w", err)
	}
	for i, page := range pages {
		if _, err := s.SaveWikitext(ctx, page.Title, page.Wikitext); err != nil {
			return i, err
		}
	}
	return len(pages), nil
}
