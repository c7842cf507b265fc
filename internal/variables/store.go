// Package variables provides the run-scoped variable store that holds values
// extracted from responses and expands {{name}} placeholders.
package variables

import (
	"github.com/torosent/stampede/internal/scenario"
)

// Store defines the interface for variable storage.
type Store interface {
	// Set stores a variable with the given key and value.
	Set(key, value string)

	// Get retrieves a variable by key. Returns (value, true) if found,
	// or ("", false) if the key is not present.
	Get(key string) (string, bool)

	// GetAll returns a copy of all stored variables.
	GetAll() map[string]string

	// Merge combines variables with a record, where variables take
	// precedence over record values. Returns the merged map.
	Merge(record map[string]string) map[string]string

	// Clear removes all stored variables.
	Clear()
}

// MemoryStore is a simple map-based implementation of the Store interface.
// It is owned by one run and only touched from that run's loop, so it needs
// no locking.
type MemoryStore struct {
	variables map[string]string
}

// NewStore creates and returns a new MemoryStore instance.
func NewStore() Store {
	return &MemoryStore{
		variables: make(map[string]string),
	}
}

func (m *MemoryStore) Set(key, value string) {
	m.variables[key] = value
}

func (m *MemoryStore) Get(key string) (string, bool) {
	value, ok := m.variables[key]
	return value, ok
}

func (m *MemoryStore) GetAll() map[string]string {
	result := make(map[string]string, len(m.variables))
	for key, value := range m.variables {
		result[key] = value
	}
	return result
}

func (m *MemoryStore) Merge(record map[string]string) map[string]string {
	result := make(map[string]string, len(record)+len(m.variables))
	for key, value := range record {
		result[key] = value
	}
	for key, value := range m.variables {
		result[key] = value
	}
	return result
}

func (m *MemoryStore) Clear() {
	m.variables = make(map[string]string)
}

var storeKey = scenario.NewKey[Store]("variables")

// ForRun returns the variable store of the run ctx belongs to, creating it at
// the run root on first use.
func ForRun(ctx *scenario.Context) Store {
	if ctx == nil {
		return nil
	}
	return scenario.Ensure(ctx.Root(), storeKey, NewStore)
}

// Lookup returns the run's store if one was created.
func Lookup(ctx *scenario.Context) Store {
	if ctx == nil {
		return nil
	}
	store, _ := scenario.Own(ctx.Root(), storeKey)
	return store
}
