package driver

import (
	"reflect"
	"sync"

	"github.com/wudi/hey/values"
)

// Metadata is the test-state side channel the result extractor writes
// into (spec §6: "has_metadata<T>() / metadata_mut().insert() /
// metadata_mut().get_mut<T>()"). The original keys this by Rust's TypeId;
// Go has no TypeId, so this leans on generics plus reflect.Type, the
// closest idiomatic equivalent the standard library offers — no library in
// the example pack provides a type-keyed side-table, so this one
// deliberately stays on stdlib reflect rather than reaching for a
// datastructure library that doesn't fit the shape (see DESIGN.md).
type Metadata struct {
	mu   sync.Mutex
	data map[reflect.Type]interface{}
}

// NewMetadata builds an empty metadata side channel.
func NewMetadata() *Metadata {
	return &Metadata{data: make(map[reflect.Type]interface{})}
}

// Clone copies the set of stored entries into a fresh Metadata — a shallow
// copy, the same way StagedState.Clone shares resource values rather than
// deep-copying them: forking per-run state is expected to happen once per
// Execute, not to isolate every nested value downstream code might later
// mutate through a stored pointer.
func (m *Metadata) Clone() *Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := NewMetadata()
	for k, v := range m.data {
		clone.data[k] = v
	}
	return clone
}

// HasMetadata reports whether a T has been inserted.
func HasMetadata[T any](m *Metadata) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[reflect.TypeOf((*T)(nil)).Elem()]
	return ok
}

// GetOrInsertMetadata returns the stored *T, inserting zero() as its
// initial value on first access.
func GetOrInsertMetadata[T any](m *Metadata, zero func() T) *T {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := m.data[key]; ok {
		return v.(*T)
	}
	v := zero()
	ptr := &v
	m.data[key] = ptr
	return ptr
}

// StructAbilities is the concrete metadata the result extractor populates:
// a Type -> AbilitySet table the embedding fuzzer consults when deciding
// whether a returned value may be copied, dropped, or persisted (spec §6).
type StructAbilities struct {
	mu        sync.Mutex
	abilities map[string]values.AbilitySet
}

// NewStructAbilities builds an empty table — the zero() callback passed to
// GetOrInsertMetadata.
func NewStructAbilities() StructAbilities {
	return StructAbilities{abilities: make(map[string]values.AbilitySet)}
}

// SetAbility records t's ability set, keyed by its canonical Key() string
// (values.Type itself isn't a valid map key once it carries TypeArgs).
func (s *StructAbilities) SetAbility(t values.Type, a values.AbilitySet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.abilities == nil {
		s.abilities = make(map[string]values.AbilitySet)
	}
	s.abilities[t.Key()] = a
}

// GetAbility looks up a previously recorded ability set.
func (s *StructAbilities) GetAbility(t values.Type) (values.AbilitySet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.abilities[t.Key()]
	return a, ok
}
