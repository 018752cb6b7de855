package transcription

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a Provider. Configuration is captured by the closure at
// registration time.
type Factory func() (Provider, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes a provider factory available under the given name.
// Registering the same name twice panics; that is a wiring bug.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("transcription: provider %q already registered", name))
	}
	factories[name] = f
}

// New constructs the named provider.
func New(name string) (Provider, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("transcription: unknown provider %q (registered: %v)", name, Names())
	}
	return f()
}

// Names returns the registered provider names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
