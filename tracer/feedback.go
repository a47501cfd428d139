// Package tracer implements the fuzzing feedback side of the harness (spec
// §4.A/§4.B): four process-global maps populated by observing bytecode
// instructions before their semantic effect, plus the Tracer that does the
// observing. Grounded directly on original_source/src/move/movevm.rs's
// MOVE_COV_MAP/MOVE_CMP_MAP/MOVE_READ_MAP/MOVE_WRITE_MAP statics and its
// ItyFuzzTracer::on_step.
package tracer

import (
	"sync"

	"github.com/holiman/uint256"
)

// MapSize is the fixed size of every feedback map: a compile-time power of
// two so bucket addressing can use value % MapSize (spec §4.A). The
// original leaves this to the embedding fuzzer's build; 65536 matches the
// conventional AFL-style coverage map size and is used here as the
// project's chosen constant (an Open Question decision, see DESIGN.md).
const MapSize = 1 << 16

// maxU128 is the sentinel the comparison-distance map starts at and falls
// back to for unrecognized operand-kind pairs (spec §9's "| u128::MAX |
// fallback"), matching the original's literal u128::MAX.
func maxU128() *uint256.Int {
	var m uint256.Int
	m.SetAllOne()
	m.Rsh(&m, 128) // low 128 bits all set, high 128 bits zero
	return &m
}

// Feedback holds the four process-global fuzzing-feedback maps (spec §4.A:
// "A. Feedback Maps") and the per-run state-changed flag. The teacher's
// global/shared state is always mutex-guarded even on a single goroutine
// (vm/profiling.go's profileState does the same); Feedback follows that
// texture even though the driver runs executions on a single goroutine.
// The Get* accessors return the arrays themselves, so reads through them
// are not guarded by the mutex.
type Feedback struct {
	mu sync.Mutex

	cov   [MapSize]byte
	cmp   [MapSize]*uint256.Int
	read  [MapSize]bool
	write [MapSize]byte

	stateChanged bool
}

// NewFeedback builds a Feedback with the cmp map initialized to the
// maximum distance (every bucket starts "not yet observed as compared").
func NewFeedback() *Feedback {
	f := &Feedback{}
	for i := range f.cmp {
		f.cmp[i] = maxU128()
	}
	return f
}

// GetJmp returns the branch-coverage counters map (spec §4.A get_jmp).
func (f *Feedback) GetJmp() *[MapSize]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &f.cov
}

// GetRead returns the global-storage read-flags map (spec §4.A get_read).
func (f *Feedback) GetRead() *[MapSize]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &f.read
}

// GetWrite returns the global-storage write-flags map (spec §4.A get_write).
func (f *Feedback) GetWrite() *[MapSize]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &f.write
}

// GetCmp returns the compare-distance minima map (spec §4.A get_cmp).
func (f *Feedback) GetCmp() *[MapSize]*uint256.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &f.cmp
}

// StateChanged reports whether any MoveTo/MoveToGeneric was observed since
// the last ResetStateChanged.
func (f *Feedback) StateChanged() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateChanged
}

// ResetStateChanged clears the state-changed flag; the driver calls this
// at the start of each Execute (spec §4.A: "reset per-run").
func (f *Feedback) ResetStateChanged() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateChanged = false
}

func (f *Feedback) bumpCov(offset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cov[offset] = (f.cov[offset] + 1) % 255
}

func (f *Feedback) observeCmp(offset int, distance *uint256.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cmp[offset].Cmp(distance) > 0 {
		f.cmp[offset] = distance
	}
}

func (f *Feedback) markRead(offset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.read[offset] {
		f.read[offset] = true
	}
}

func (f *Feedback) markWrite(offset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.write[offset] == 0 {
		f.write[offset] = 1
	}
	f.stateChanged = true
}
