package taxonomy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	latestName    = "latest.json"
	versionLayout = "2006-01-02_15-04-05"
)

// Store persists snapshots as versioned JSON files under one directory,
// with a "latest" pointer naming the newest version. Versioned files are
// never overwritten in place, so prior versions remain inspectable.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) versionPath(version string) string {
	return filepath.Join(s.dir, fmt.Sprintf("cache_%s.json", version))
}

// latestPath resolves the file the "latest" pointer refers to. When the
// pointer is missing it falls back to the newest versioned file; absence of
// any cache returns "".
func (s *Store) latestPath() string {
	latest := filepath.Join(s.dir, latestName)
	if _, err := os.Stat(latest); err == nil {
		if target, err := filepath.EvalSymlinks(latest); err == nil {
			return target
		}
		return latest
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, "cache_*.json"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}

// Load reads the named version, or the latest snapshot when version is
// empty. A missing cache is a valid empty state, not an error.
func (s *Store) Load(version string) (*Snapshot, error) {
	var path string
	if version != "" {
		path = s.versionPath(version)
	} else {
		path = s.latestPath()
	}

	if path == "" {
		return NewSnapshot(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}

	snap := NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("parsing cache %s: %w", path, err)
	}
	if snap.Taxonomy == nil {
		snap.Taxonomy = make(map[string]Entry)
	}
	if snap.Assembly == nil {
		snap.Assembly = make(map[string]AssemblyEntry)
	}
	// Pre-versioning caches carry bare taxonomy/assembly maps.
	if snap.Version == "" {
		snap.Version = "legacy"
	}
	return snap, nil
}

// Save writes the snapshot as a new versioned file and repoints "latest" at
// it. When version is empty one is derived from the current time. Returns
// the path of the versioned file.
func (s *Store) Save(snap *Snapshot, version string) (string, error) {
	now := time.Now()
	if version == "" {
		version = now.Format(versionLayout)
	}
	snap.Version = version
	snap.Created = Timestamp(now)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	path := s.versionPath(version)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("committing snapshot: %w", err)
	}

	if err := s.updateLatest(path); err != nil {
		return "", err
	}
	return path, nil
}

// updateLatest points latest.json at the given versioned file, by symlink
// where the platform supports it and by physical copy otherwise. Readers
// only ever dereference the pointer, never assume it is a symlink.
func (s *Store) updateLatest(target string) error {
	latest := filepath.Join(s.dir, latestName)
	if err := os.Remove(latest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing latest pointer: %w", err)
	}

	if err := os.Symlink(filepath.Base(target), latest); err == nil {
		return nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("copying snapshot to latest pointer: %w", err)
	}
	if err := os.WriteFile(latest, data, 0o644); err != nil {
		return fmt.Errorf("writing latest pointer: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("Symlinks unsupported, copied snapshot to latest pointer",
			slog.String("target", target))
	}
	return nil
}
