// Package settings holds the category and allergen allow-lists products are
// validated against. A Snapshot never changes once built; reloading swaps in
// a new one.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// ErrEmptyCategories is returned when an allow-list has no categories.
var ErrEmptyCategories = errors.New("category allow-list must not be empty")

// Lists is the serialized form of the allow-lists.
type Lists struct {
	Categories []string `yaml:"categories" json:"categories"`
	Allergens  []string `yaml:"allergens" json:"allergens"`
}

// DefaultLists is used when no settings file is configured.
func DefaultLists() Lists {
	return Lists{
		Categories: []string{
			"beverage", "cereal", "dairy", "fish", "fruit", "legume",
			"meat", "oil", "other", "spice", "vegetable",
		},
		Allergens: []string{
			"celery", "crustaceans", "eggs", "fish", "gluten", "lupin", "milk",
			"molluscs", "mustard", "nuts", "peanuts", "sesame", "soybeans", "sulphites",
		},
	}
}

// Snapshot is an immutable view of the allow-lists.
type Snapshot struct {
	categories []string
	allergens  []string
	catSet     map[string]struct{}
	allSet     map[string]struct{}
}

// NewSnapshot builds a snapshot from l, dropping blanks and duplicates.
func NewSnapshot(l Lists) (*Snapshot, error) {
	s := &Snapshot{}
	s.categories, s.catSet = normalize(l.Categories)
	s.allergens, s.allSet = normalize(l.Allergens)
	if len(s.categories) == 0 {
		return nil, ErrEmptyCategories
	}
	return s, nil
}

func normalize(in []string) ([]string, map[string]struct{}) {
	set := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := set[v]; dup {
			continue
		}
		set[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, set
}

// HasCategory reports whether name is an allowed product category.
func (s *Snapshot) HasCategory(name string) bool {
	_, ok := s.catSet[name]
	return ok
}

// HasAllergen reports whether name is an allowed allergen.
func (s *Snapshot) HasAllergen(name string) bool {
	_, ok := s.allSet[name]
	return ok
}

// Lists returns a copy of the allow-lists.
func (s *Snapshot) Lists() Lists {
	return Lists{
		Categories: slices.Clone(s.categories),
		Allergens:  slices.Clone(s.allergens),
	}
}

// Store owns the current snapshot and the optional yaml file backing it.
type Store struct {
	path    string
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// NewStore loads the allow-lists from path, or uses DefaultLists when path is empty.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	lists := DefaultLists()
	if path != "" {
		var err error
		if lists, err = readFile(path); err != nil {
			return nil, err
		}
	}

	snap, err := NewSnapshot(lists)
	if err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	s.current.Store(snap)
	return s, nil
}

// Current returns the snapshot in effect. Callers should fetch it once per
// request and use that value throughout.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload re-reads the settings file and swaps in the result. Without a file
// the current snapshot is returned unchanged.
func (s *Store) Reload() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return s.Current(), nil
	}

	lists, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	snap, err := NewSnapshot(lists)
	if err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	s.current.Store(snap)
	return snap, nil
}

// Replace installs new allow-lists, writing them to the settings file first
// when one is configured.
func (s *Store) Replace(l Lists) (*Snapshot, error) {
	snap, err := NewSnapshot(l)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := writeFile(s.path, snap.Lists()); err != nil {
			return nil, err
		}
	}
	s.current.Store(snap)
	return snap, nil
}

func readFile(path string) (Lists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lists{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	var l Lists
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Lists{}, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return l, nil
}

func writeFile(path string, l Lists) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
