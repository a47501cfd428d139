package values

import "fmt"

// Locals is a fixed-size array of local variable slots for one call frame,
// matching the original's Locals::new(local_count) (spec §3 Frame).
type Locals struct {
	slots []*Value
}

func NewLocals(count int) *Locals {
	return &Locals{slots: make([]*Value, count)}
}

func (l *Locals) Len() int { return len(l.slots) }

// StoreLoc installs v into slot i, as the driver does when building a
// callee frame's locals from popped arguments (spec §4.D steps 5e/5f).
func (l *Locals) StoreLoc(i int, v *Value) error {
	if i < 0 || i >= len(l.slots) {
		return fmt.Errorf("locals: slot %d out of range (len %d)", i, len(l.slots))
	}
	l.slots[i] = v
	return nil
}

// CopyLoc returns a shallow copy of slot i without disturbing it —
// only valid for values whose ability set includes copy, a constraint
// enforced by the bytecode verifier in a real Move VM and assumed
// pre-checked here.
func (l *Locals) CopyLoc(i int) (*Value, error) {
	v, err := l.borrow(i)
	if err != nil {
		return nil, err
	}
	cp := *v
	return &cp, nil
}

// MoveLoc takes ownership of slot i's value, clearing the slot — Move's
// linear-type move semantics.
func (l *Locals) MoveLoc(i int) (*Value, error) {
	v, err := l.borrow(i)
	if err != nil {
		return nil, err
	}
	l.slots[i] = nil
	return v, nil
}

// BorrowLoc returns a reference Value pointing directly at slot i, so that
// a subsequent ReadRef indirects through the same slot.
func (l *Locals) BorrowLoc(i int, mutable bool) (*Value, error) {
	v, err := l.borrow(i)
	if err != nil {
		return nil, err
	}
	return NewReference(v, mutable), nil
}

func (l *Locals) borrow(i int) (*Value, error) {
	if i < 0 || i >= len(l.slots) {
		return nil, fmt.Errorf("locals: slot %d out of range (len %d)", i, len(l.slots))
	}
	v := l.slots[i]
	if v == nil {
		return nil, fmt.Errorf("locals: slot %d unavailable (unset or already moved)", i)
	}
	return v, nil
}
