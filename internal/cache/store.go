// Package cache persists memoized results of external geocoding and
// classification calls across runs. Each namespace is one flat JSON object
// on disk, pretty-printed for manual inspection, loaded wholesale at run
// start and written wholesale at flush. Entries are never pruned.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Namespace identifies one independent key space. Namespaces share the
// load/flush discipline but never collide on keys.
type Namespace string

const (
	// NamespaceGeocode maps normalized location queries to geocode results
	// (or null for cached negative lookups).
	NamespaceGeocode Namespace = "geocoding"

	// NamespaceCategory maps normalized offense strings to category names.
	NamespaceCategory Namespace = "offense_category"
)

var namespaces = []Namespace{NamespaceGeocode, NamespaceCategory}

// Store is the two-namespace enrichment cache. It is not safe for
// concurrent writers; the pipeline loads once, mutates in-process, and
// flushes once per run.
type Store struct {
	dir   string
	mem   map[Namespace]*gocache.Cache
	dirty map[Namespace]bool
}

// NewStore creates a Store rooted at dir. Call Load before first use.
func NewStore(dir string) *Store {
	mem := make(map[Namespace]*gocache.Cache, len(namespaces))
	dirty := make(map[Namespace]bool, len(namespaces))
	for _, ns := range namespaces {
		mem[ns] = gocache.New(gocache.NoExpiration, 0)
		dirty[ns] = false
	}
	return &Store{dir: dir, mem: mem, dirty: dirty}
}

func (s *Store) path(ns Namespace) string {
	return filepath.Join(s.dir, string(ns)+"_cache.json")
}

// Load reads the persisted namespaces from disk. A missing or corrupt file
// is treated as an empty cache: the run proceeds and rebuilds it.
func (s *Store) Load() error {
	for _, ns := range namespaces {
		path := s.path(ns)

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				zap.L().Info("no cache file, starting empty",
					zap.String("namespace", string(ns)), zap.String("path", path))
				continue
			}
			zap.L().Warn("cache file unreadable, starting empty",
				zap.String("namespace", string(ns)), zap.Error(err))
			continue
		}

		var entries map[string]json.RawMessage
		if err := json.Unmarshal(data, &entries); err != nil {
			zap.L().Warn("cache file corrupt, starting empty",
				zap.String("namespace", string(ns)), zap.Error(err))
			continue
		}

		for k, v := range entries {
			s.mem[ns].Set(k, v, gocache.NoExpiration)
		}
		zap.L().Info("cache loaded",
			zap.String("namespace", string(ns)), zap.Int("entries", len(entries)))
	}
	return nil
}

// Get returns the raw cached value for key. The second return is false on
// a miss. A cached negative result comes back as JSON null with ok=true.
func (s *Store) Get(ns Namespace, key string) (json.RawMessage, bool) {
	v, ok := s.mem[ns].Get(key)
	if !ok {
		return nil, false
	}
	return v.(json.RawMessage), true
}

// GetInto unmarshals the cached value for key into out. Returns false on a
// miss; a cached null yields ok=true with out untouched.
func (s *Store) GetInto(ns Namespace, key string, out any) (bool, error) {
	raw, ok := s.Get(ns, key)
	if !ok {
		return false, nil
	}
	if string(raw) == "null" {
		return true, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, eris.Wrapf(err, "cache: decode %s entry %q", ns, key)
	}
	return true, nil
}

// Put stores value under key. A nil value records an explicit negative
// result so failing lookups are not repeated.
func (s *Store) Put(ns Namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return eris.Wrapf(err, "cache: encode %s entry %q", ns, key)
	}
	s.mem[ns].Set(key, json.RawMessage(raw), gocache.NoExpiration)
	s.dirty[ns] = true
	return nil
}

// Len returns the number of entries in a namespace.
func (s *Store) Len(ns Namespace) int {
	return s.mem[ns].ItemCount()
}

// Flush writes modified namespaces back to disk as pretty-printed JSON,
// overwriting the previous file. Unmodified namespaces are left alone.
// An unwritable cache directory is fatal: losing a run's worth of paid
// external calls is worse than stopping.
func (s *Store) Flush() error {
	for _, ns := range namespaces {
		if !s.dirty[ns] {
			zap.L().Debug("cache unchanged, skipping write", zap.String("namespace", string(ns)))
			continue
		}

		items := s.mem[ns].Items()
		entries := make(map[string]json.RawMessage, len(items))
		for k, item := range items {
			entries[k] = item.Object.(json.RawMessage)
		}

		// Map marshaling already sorts keys, keeping diffs stable across runs.
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return eris.Wrapf(err, "cache: encode %s", ns)
		}

		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return eris.Wrapf(err, "cache: create dir %s", s.dir)
		}
		if err := os.WriteFile(s.path(ns), data, 0o644); err != nil {
			return eris.Wrapf(err, "cache: write %s", s.path(ns))
		}

		zap.L().Info("cache flushed",
			zap.String("namespace", string(ns)), zap.Int("entries", len(entries)))
		s.dirty[ns] = false
	}
	return nil
}
