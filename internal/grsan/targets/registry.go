// Package targets holds the registry of replay targets known to the CLI.
package targets

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/kolkov/grsan/internal/grsan/search"
)

// Target is a named replay target.
type Target struct {
	Name        string
	Description string
	Run         search.Target
	// Sample is an input the target accepts.
	Sample []byte
}

var (
	mu       sync.RWMutex
	registry = map[string]Target{}
)

// Register adds t to the registry. Registering a name twice panics.
func Register(t Target) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[t.Name]; dup {
		panic("targets: duplicate target " + t.Name)
	}
	registry[t.Name] = t
}

// Lookup returns the target registered under name.
func Lookup(name string) (Target, error) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := registry[name]
	if !ok {
		return Target{}, errors.Errorf("unknown target %q (known: %v)", name, namesLocked())
	}
	return t, nil
}

// Names returns the registered target names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
