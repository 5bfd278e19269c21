package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Location is one remembered place.
type Location struct {
	Name         string    `json:"name"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Theta        float64   `json:"theta,omitempty"`
	RememberedAt time.Time `json:"remembered_at"`
}

// Locations is the persistent location memory backing the
// remember_locations mode flag. Writes are atomic (temp file + rename).
type Locations struct {
	mu     sync.RWMutex
	path   string
	byName map[string]Location
}

// OpenLocations loads (or initializes) the location memory at path.
func OpenLocations(path string) (*Locations, error) {
	l := &Locations{path: path, byName: make(map[string]Location)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}

	var list []Location
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	for _, loc := range list {
		l.byName[loc.Name] = loc
	}
	return l, nil
}

// Remember stores or overwrites a named location.
func (l *Locations) Remember(loc Location) error {
	if loc.Name == "" {
		return fmt.Errorf("location has no name")
	}
	loc.RememberedAt = time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.byName[loc.Name] = loc
	return l.flush()
}

// Lookup returns a remembered location by name.
func (l *Locations) Lookup(name string) (Location, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	loc, ok := l.byName[name]
	return loc, ok
}

// Forget removes a remembered location.
func (l *Locations) Forget(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byName[name]; !ok {
		return nil
	}
	delete(l.byName, name)
	return l.flush()
}

// List returns every remembered location, sorted by name.
func (l *Locations) List() []Location {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Location, 0, len(l.byName))
	for _, loc := range l.byName {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// flush writes the store to disk. Caller holds the lock.
func (l *Locations) flush() error {
	list := make([]Location, 0, len(l.byName))
	for _, loc := range l.byName {
		list = append(list, loc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal locations: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create locations dir: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write locations tmp: %w", err)
	}
	return os.Rename(tmp, l.path)
}
