package driver

import (
	"fmt"
	"sync"

	"github.com/wudi/hey/values"
)

var (
	errResourceNotFound      = fmt.Errorf("resource does not exist in global storage")
	errResourceAlreadyExists = fmt.Errorf("resource already exists in global storage")
)

type resourceKey struct {
	Addr       values.Address
	StructIdx  uint16
}

// StagedState is the persistent global-storage state an Execute call reads
// and writes, plus the Metadata side channel the result extractor
// populates. Named after the original's StagedVMState: a VM state wrapper
// the fuzzer stages between runs and forks/clones across the corpus.
type StagedState struct {
	mu        sync.Mutex
	resources map[resourceKey]*values.Value
	Metadata  *Metadata
}

// NewStagedState builds empty global storage.
func NewStagedState() *StagedState {
	return &StagedState{
		resources: make(map[resourceKey]*values.Value),
		Metadata:  NewMetadata(),
	}
}

// Exists implements vm.GlobalStorage.
func (s *StagedState) Exists(addr values.Address, structIdx uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.resources[resourceKey{addr, structIdx}]
	return ok
}

// MoveTo implements vm.GlobalStorage: publishes resource under (addr,
// structIdx), erroring if one is already published there (global storage
// holds at most one instance of a given resource type per address).
func (s *StagedState) MoveTo(addr values.Address, structIdx uint16, resource *values.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resourceKey{addr, structIdx}
	if _, exists := s.resources[key]; exists {
		return errResourceAlreadyExists
	}
	s.resources[key] = resource
	return nil
}

// MoveFrom implements vm.GlobalStorage: removes and returns the resource
// at (addr, structIdx).
func (s *StagedState) MoveFrom(addr values.Address, structIdx uint16) (*values.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resourceKey{addr, structIdx}
	v, ok := s.resources[key]
	if !ok {
		return nil, errResourceNotFound
	}
	delete(s.resources, key)
	return v, nil
}

// BorrowGlobal implements vm.GlobalStorage: returns the resource at (addr,
// structIdx) without removing it.
func (s *StagedState) BorrowGlobal(addr values.Address, structIdx uint16) (*values.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resourceKey{addr, structIdx}
	v, ok := s.resources[key]
	if !ok {
		return nil, errResourceNotFound
	}
	return v, nil
}

// Clone produces an independent copy of the resource table and metadata
// side channel, so the embedding fuzzer can fork state between corpus
// entries without two runs aliasing the same map. Execute calls this once
// per run (spec §4.D step 3: "Clone the per-run VM state from
// input.vm_state") rather than mutating the caller's StagedState in place.
func (s *StagedState) Clone() *StagedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := NewStagedState()
	for k, v := range s.resources {
		clone.resources[k] = v
	}
	clone.Metadata = s.Metadata.Clone()
	return clone
}
