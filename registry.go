package fusion

import (
	"slices"
	"sync"

	"github.com/reoring/fusion/nocase"
)

// ObjectFactory produces composite objects of one schema. Factories are
// registered by name and looked up when OBJECT domains are compiled.
type ObjectFactory interface {
	// Name is the registered type name, normally the schema id.
	Name() string
	Schema() *ObjectSchema
	// Make returns a new object in INIT with every field at its default.
	Make() Composite
	// MakeKey returns a new key-instance in INIT. It fails when the schema
	// has no key fields.
	MakeKey() (Composite, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]ObjectFactory{}
)

// Register makes an object type available to OBJECT domains under its name.
// Names are unique ignoring case and are never unregistered.
func Register(f ObjectFactory) error {
	if f == nil || f.Name() == "" || f.Schema() == nil {
		return configErrorf("object factory needs a name and a schema")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	key := nocase.Fold(f.Name())
	if _, dup := registry[key]; dup {
		return configError(CodeDuplicateName, map[string]any{"name": "OBJECT." + f.Name()})
	}
	registry[key] = f
	logger().Debug("registered object type", "name", f.Name(), "fields", f.Schema().Len())
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(f ObjectFactory) {
	if err := Register(f); err != nil {
		panic(err)
	}
}

// Lookup finds a registered object type, ignoring case.
func Lookup(name string) (ObjectFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[nocase.Fold(name)]
	return f, ok
}

// Registered returns the registered type names in sorted order.
func Registered() []string {
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	for _, f := range registry {
		names = append(names, f.Name())
	}
	registryMu.RUnlock()
	slices.SortFunc(names, nocase.Compare)
	return names
}
