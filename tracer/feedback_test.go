package tracer

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestNewFeedbackInitializesCmpToSentinel(t *testing.T) {
	f := NewFeedback()
	cmp := f.GetCmp()
	if cmp[0].Cmp(maxU128()) != 0 {
		t.Fatalf("expected cmp[0] to start at the u128 sentinel, got %s", cmp[0])
	}
}

func TestBumpCovWrapsAt255(t *testing.T) {
	f := NewFeedback()
	for i := 0; i < 255; i++ {
		f.bumpCov(10)
	}
	jmp := f.GetJmp()
	if jmp[10] != 0 {
		t.Fatalf("expected cov[10] to wrap back to 0 after 255 bumps, got %d", jmp[10])
	}
}

func TestObserveCmpKeepsMinimum(t *testing.T) {
	f := NewFeedback()
	f.observeCmp(5, uint256.NewInt(100))
	f.observeCmp(5, uint256.NewInt(40))
	f.observeCmp(5, uint256.NewInt(90))

	cmp := f.GetCmp()
	if cmp[5].Uint64() != 40 {
		t.Fatalf("expected the minimum observed distance 40, got %s", cmp[5])
	}
}

func TestMarkWriteSetsStateChanged(t *testing.T) {
	f := NewFeedback()
	if f.StateChanged() {
		t.Fatalf("expected a fresh Feedback to start with stateChanged=false")
	}
	f.markWrite(3)
	if !f.StateChanged() {
		t.Fatalf("expected markWrite to set stateChanged")
	}
	f.ResetStateChanged()
	if f.StateChanged() {
		t.Fatalf("expected ResetStateChanged to clear stateChanged")
	}
}

func TestMarkReadIsSticky(t *testing.T) {
	f := NewFeedback()
	f.markRead(7)
	f.markRead(7)
	read := f.GetRead()
	if !read[7] {
		t.Fatalf("expected read[7] to be set")
	}
}
