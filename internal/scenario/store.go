package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store reads scenario files from a directory. Files are loaded fresh on
// every call so new scenarios can be dropped in without a restart.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// List returns the meta block of every scenario file, sorted by name.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory %s: %w", s.dir, err)
	}

	var metas []Meta
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		sc, err := s.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		metas = append(metas, sc.Meta)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}

// Load reads and decodes one scenario by name. A missing file is reported as
// os.ErrNotExist so callers can distinguish it from a malformed one.
func (s *Store) Load(name string) (*Scenario, error) {
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid scenario name %q", name)
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, name+".json"))
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := json.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", name, err)
	}
	if sc.Meta.Name == "" {
		sc.Meta.Name = name
	}
	return &sc, nil
}
