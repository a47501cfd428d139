package driver

import (
	"errors"
	"fmt"
)

// ErrReverted is the sentinel for a Move-level revert. Execute does not
// return it: a run that aborted or errored partway through is reported as
// ExecutionResult.Reverted=true with the aborting error in AdditionalInfo,
// and the result extractor still runs (spec §4.D/§7).
var ErrReverted = errors.New("move execution reverted")

// FatalError is a harness-level failure distinct from a Move-level revert:
// reaching an unregistered native function, a malformed call target, or
// anything else that means the embedding host's setup is wrong rather
// than the fuzzed contract having aborted (spec §7.1, §9).
type FatalError struct {
	Class string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal[%s]: %v", e.Class, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal panics with a *FatalError tagged class. Spec §7 states classes 2-5
// (caller contract violation, unsupported feature, internal invariant
// failure, deploy collision) propagate by aborting the process, the same
// as the original's `.unwrap()`/`todo!()` — a plain returned error would
// let a caller that only checks Reverted silently proceed past one. A host
// that wants a clean exit instead of a raw panic should `recover()` at its
// own entry point and `errors.As` the recovered value against *FatalError
// (cmd/movevmfuzz does this in main.go).
func Fatal(class string, err error) {
	panic(&FatalError{Class: class, Err: err})
}
