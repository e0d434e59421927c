package manifest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/whttp"
)

const DEFAULT_CONTENT_PATTERN = "world_sql_content_*.content"

// catalog is one immutable, fully built index.
type catalog struct {
	url    string
	tables map[string]map[int64]json.RawMessage
}

// Store downloads and indexes the reference catalog. Lookups are safe for
// concurrent use; a Load builds a new index and swaps it in when complete.
type Store struct {
	client   whttp.Sender
	cacheDir string
	pattern  string
	tables   []string

	loadMu  sync.Mutex
	current atomic.Pointer[catalog]
}

type Option func(*Store)

// WithCacheDir keeps extracted catalogs under dir and reuses them across runs.
func WithCacheDir(dir string) Option {
	return func(s *Store) { s.cacheDir = dir }
}

// WithContentPattern sets the glob matching the data file inside the archive.
func WithContentPattern(pattern string) Option {
	return func(s *Store) { s.pattern = pattern }
}

// WithTables indexes additional tables besides DefaultTables.
func WithTables(tables ...string) Option {
	return func(s *Store) {
		for _, t := range tables {
			if !contains(s.tables, t) {
				s.tables = append(s.tables, t)
			}
		}
	}
}

func NewStore(client whttp.Sender, opts ...Option) *Store {
	s := &Store{
		client:  client,
		pattern: DEFAULT_CONTENT_PATTERN,
		tables:  append([]string(nil), DefaultTables...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the archive at manifestURL and replaces the current index.
// On failure the previous index, if any, stays in place.
func (s *Store) Load(ctx context.Context, manifestURL string) error {
	if manifestURL == "" {
		return &ManifestError{Stage: "download", Err: ErrNoURL}
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	cat, err := s.loadContent(ctx, manifestURL, false)
	if err != nil {
		return err
	}
	cat.url = manifestURL

	s.current.Store(cat)

	total := 0
	for _, rows := range cat.tables {
		total += len(rows)
	}
	utils.Log.Infof("Loaded manifest %s (%d definitions in %d tables)", manifestURL, total, len(cat.tables))
	return nil
}

// loadContent reads the catalog for manifestURL. A cached copy that can't be
// read is discarded and fetched again once.
func (s *Store) loadContent(ctx context.Context, manifestURL string, refetch bool) (*catalog, error) {
	contentPath, cached, cleanup, err := s.contentFile(ctx, manifestURL, refetch)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cat, err := readCatalog(ctx, contentPath, s.tables)
	if err != nil {
		if cached && !refetch {
			utils.Log.Warnf("Cached manifest %s is unreadable, downloading it again: %v", contentPath, err)
			return s.loadContent(ctx, manifestURL, true)
		}
		return nil, &ManifestError{URL: manifestURL, Stage: "read", Err: err}
	}
	return cat, nil
}

// Ready reports whether a catalog has been loaded.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// URL returns the location of the loaded catalog.
func (s *Store) URL() string {
	if cat := s.current.Load(); cat != nil {
		return cat.url
	}
	return ""
}

// TableCount is the number of indexed definitions of one table.
type TableCount struct {
	Table string
	Count int
}

func (s *Store) Counts() []TableCount {
	cat := s.current.Load()
	if cat == nil {
		return nil
	}
	out := make([]TableCount, 0, len(cat.tables))
	for name, rows := range cat.tables {
		out = append(out, TableCount{Table: name, Count: len(rows)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// Lookup returns the raw definition of hash in table, or nil when there is
// none. hash may be given unsigned or in its signed form.
func (s *Store) Lookup(table string, hash int64) json.RawMessage {
	cat := s.current.Load()
	if cat == nil {
		return nil
	}
	rows, ok := cat.tables[table]
	if !ok {
		return nil
	}
	return rows[HashKey(hash)]
}

func (s *Store) Item(hash int64) *ItemDefinition {
	return lookupAs[ItemDefinition](s, TableItems, hash)
}

func (s *Store) Stat(hash int64) *StatDefinition {
	return lookupAs[StatDefinition](s, TableStats, hash)
}

func (s *Store) Objective(hash int64) *ObjectiveDefinition {
	return lookupAs[ObjectiveDefinition](s, TableObjectives, hash)
}

func (s *Store) EnergyType(hash int64) *EnergyTypeDefinition {
	return lookupAs[EnergyTypeDefinition](s, TableEnergyTypes, hash)
}

func (s *Store) SocketCategory(hash int64) *SocketCategoryDefinition {
	return lookupAs[SocketCategoryDefinition](s, TableSocketCategories, hash)
}

func (s *Store) Activity(hash int64) *ActivityDefinition {
	return lookupAs[ActivityDefinition](s, TableActivities, hash)
}

func lookupAs[T any](s *Store, table string, hash int64) *T {
	raw := s.Lookup(table, hash)
	if raw == nil {
		return nil
	}
	var def T
	if err := json.Unmarshal(raw, &def); err != nil {
		utils.Log.Warn(&DefinitionError{Table: table, Hash: hash, Err: err})
		return nil
	}
	return &def
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
