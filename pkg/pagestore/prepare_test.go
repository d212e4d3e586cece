package pagestore

import (
	"database/sql"
	"database/sql/driver"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/mattn/go-sqlite3"
)

// openStmts counts driver statements that were prepared and not yet closed
// through the "sqlite3_counting" driver.
var openStmts atomic.Int64

type countingDriver struct{ sqlite3.SQLiteDriver }

func (d *countingDriver) Open(name string) (driver.Conn, error) {
	conn, err := d.SQLiteDriver.Open(name)
	if err != nil {
		return nil, err
	}
	return countingConn{conn}, nil
}

type countingConn struct{ driver.Conn }

func (c countingConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.Conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	openStmts.Add(1)
	return countingStmt{stmt}, nil
}

type countingStmt struct{ driver.Stmt }

func (s countingStmt) Close() error {
	openStmts.Add(-1)
	return s.Stmt.Close()
}

func init() {
	sql.Register("sqlite3_counting", &countingDriver{})
}

func TestPrepareAllClosesOnFailure(t *testing.T) {
	db, err := sql.Open("sqlite3_counting", filepath.Join(t.TempDir(), "count.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	before := openStmts.Load()
	stmts, err := prepareAll(db,
		`SELECT title FROM wiki_pages`,
		`SELECT page_id FROM wiki_pages`,
		`SELECT nothing FROM missing_table`,
	)
	if err == nil {
		t.Fatal("expected an error for the missing table")
	}
	if stmts != nil {
		t.Errorf("expected no statements, got %d", len(stmts))
	}
	if leaked := openStmts.Load() - before; leaked != 0 {
		t.Errorf("%d prepared statements were left open", leaked)
	}

	stmts, err = prepareAll(db, `SELECT title FROM wiki_pages`, `SELECT COUNT(*) FROM wiki_revisions`)
	if err != nil {
		t.Fatalf("prepareAll() error = %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	for _, stmt := range stmts {
		_ = stmt.Close()
	}
	if leaked := openStmts.Load() - before; leaked != 0 {
		t.Errorf("%d statements still open after Close", leaked)
	}
}

func TestNewStoreWithoutSchema(t *testing.T) {
	db, err := sql.Open("sqlite3_counting", filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	before := openStmts.Load()
	if _, err = NewStore(db, nil, nil); err == nil {
		t.Fatal("expected NewStore to fail without a schema")
	}
	if leaked := openStmts.Load() - before; leaked != 0 {
		t.Errorf("%d prepared statements were left open", leaked)
	}
}
