// Package manifesttest builds catalog archives for tests.
package manifesttest

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

const ContentName = "world_sql_content_test.content"

// Row is one catalog row: the id column and the json document.
type Row struct {
	ID   int64
	JSON string
}

// BuildDatabase writes a catalog database holding tables to a temp file and
// returns its path.
func BuildDatabase(tb testing.TB, tables map[string][]Row) string {
	tb.Helper()

	p := filepath.Join(tb.TempDir(), ContentName)
	db, err := sql.Open("sqlite", "file:"+p)
	if err != nil {
		tb.Fatalf("open catalog db: %v", err)
	}
	defer db.Close()

	for table, rows := range tables {
		if _, err := db.Exec(`CREATE TABLE "` + table + `" (id INTEGER PRIMARY KEY NOT NULL, json BLOB)`); err != nil {
			tb.Fatalf("create %s: %v", table, err)
		}
		for _, r := range rows {
			if _, err := db.Exec(`INSERT INTO "`+table+`"(id, json) VALUES(?, ?)`, r.ID, r.JSON); err != nil {
				tb.Fatalf("insert into %s: %v", table, err)
			}
		}
	}
	return p
}

// BuildArchive zips a catalog database the way the upstream serves it.
func BuildArchive(tb testing.TB, tables map[string][]Row) []byte {
	tb.Helper()
	return ZipFile(tb, ContentName, BuildDatabase(tb, tables))
}

// ZipFile zips the file at p under name.
func ZipFile(tb testing.TB, name, p string) []byte {
	tb.Helper()

	data, err := os.ReadFile(p)
	if err != nil {
		tb.Fatalf("read %s: %v", p, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		tb.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		tb.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
