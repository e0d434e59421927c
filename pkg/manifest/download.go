package manifest

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/whttp"
	"github.com/tidwall/gjson"

	_ "modernc.org/sqlite"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// contentFile returns the path of the extracted catalog database for
// manifestURL, downloading it when needed. cached reports that an existing
// file from the cache directory was reused; refetch discards such a file
// first. cleanup removes temporary files.
func (s *Store) contentFile(ctx context.Context, manifestURL string, refetch bool) (p string, cached bool, cleanup func(), err error) {
	noop := func() {}

	if s.cacheDir != "" {
		if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
			return "", false, noop, &ManifestError{URL: manifestURL, Stage: "download", Err: err}
		}
		dest := filepath.Join(s.cacheDir, cacheName(manifestURL))

		lock, err := utils.NewFileLock(dest)
		if err != nil {
			return "", false, noop, &ManifestError{URL: manifestURL, Stage: "download", Err: err}
		}
		if err := lock.Lock(); err != nil {
			return "", false, noop, &ManifestError{URL: manifestURL, Stage: "download", Err: err}
		}
		defer lock.Unlock()

		if refetch {
			if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
				return "", false, noop, &ManifestError{URL: manifestURL, Stage: "download", Err: err}
			}
		} else if _, err := os.Stat(dest); err == nil {
			utils.Log.Debugf("Using cached manifest %s", dest)
			return dest, true, noop, nil
		}
		if err := s.fetchContent(ctx, manifestURL, dest); err != nil {
			return "", false, noop, err
		}
		return dest, false, noop, nil
	}

	dir, err := os.MkdirTemp("", "ghostbot-manifest-")
	if err != nil {
		return "", false, noop, &ManifestError{URL: manifestURL, Stage: "download", Err: err}
	}
	cleanup = func() { os.RemoveAll(dir) }

	dest := filepath.Join(dir, "content.sqlite")
	if err := s.fetchContent(ctx, manifestURL, dest); err != nil {
		cleanup()
		return "", false, noop, err
	}
	return dest, false, cleanup, nil
}

// fetchContent downloads the archive into memory and extracts the single
// data file matching the content pattern to dest.
func (s *Store) fetchContent(ctx context.Context, manifestURL, dest string) error {
	utils.Log.Infof("Downloading manifest %s", manifestURL)

	res, err := s.client.Send(ctx, &whttp.WHTTPReq{Method: http.MethodGet, URL: manifestURL})
	if err != nil {
		return &ManifestError{URL: manifestURL, Stage: "download", Err: err}
	}
	if res.StatusCode != http.StatusOK {
		return &ManifestError{URL: manifestURL, Stage: "download", Err: fmt.Errorf("unexpected status %d", res.StatusCode)}
	}

	zr, err := zip.NewReader(strings.NewReader(res.BodyString), int64(len(res.BodyString)))
	if err != nil {
		return &ManifestError{URL: manifestURL, Stage: "unpack", Err: err}
	}

	var content *zip.File
	for _, f := range zr.File {
		if ok, _ := path.Match(s.pattern, path.Base(f.Name)); ok {
			content = f
			break
		}
	}
	if content == nil {
		return &ManifestError{URL: manifestURL, Stage: "unpack", Err: ErrNoContent}
	}

	if err := extract(content, dest); err != nil {
		return &ManifestError{URL: manifestURL, Stage: "unpack", Err: err}
	}
	return nil
}

func extract(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// readCatalog indexes every requested table of the catalog database at p.
func readCatalog(ctx context.Context, p string, tables []string) (*catalog, error) {
	db, err := sql.Open("sqlite", "file:"+p)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	present, err := listTables(ctx, db)
	if err != nil {
		return nil, err
	}

	cat := &catalog{tables: make(map[string]map[int64]json.RawMessage, len(tables))}
	for _, table := range tables {
		if !tableNameRe.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
		if !present[table] {
			if contains(RequiredTables, table) {
				return nil, fmt.Errorf("missing required table %s", table)
			}
			utils.Log.Warnf("Manifest has no %s table, skipping", table)
			continue
		}
		rows, err := readTable(ctx, db, table)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		cat.tables[table] = rows
	}
	return cat, nil
}

func listTables(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

func readTable(ctx context.Context, db *sql.DB, table string) (map[int64]json.RawMessage, error) {
	rows, err := db.QueryContext(ctx, `SELECT json FROM "`+table+`"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]json.RawMessage)
	n := 0
	for rows.Next() {
		n++
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(raw) {
			utils.Log.Warn(&DefinitionError{Table: table, Row: n, Err: errMalformedRow})
			continue
		}
		h := gjson.GetBytes(raw, "hash")
		if !h.Exists() {
			continue
		}
		out[HashKey(h.Int())] = json.RawMessage(raw)
	}
	return out, rows.Err()
}

// cacheName derives a file name for the cached catalog from its URL.
func cacheName(manifestURL string) string {
	name := ""
	if u, err := url.Parse(manifestURL); err == nil {
		name = path.Base(u.Path)
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." || name == "/" || name == "_" {
		return "manifest.content"
	}
	return name
}
