package tracer

import "github.com/holiman/uint256"

// distanceUint256 computes the branch-distance metric the original's
// `distance!` macro implements: zero when cond holds, otherwise the
// absolute difference between l and v. All arithmetic is done in 128-bit
// unsigned space, matching the macro's `as u128` casts.
func distanceUint256(cond bool, l, v *uint256.Int) *uint256.Int {
	if cond {
		return uint256.NewInt(0)
	}
	if l.Cmp(v) > 0 {
		return new(uint256.Int).Sub(l, v)
	}
	return new(uint256.Int).Sub(v, l)
}

// distanceBool is Eq's bool arm: 0 if equal, 1 otherwise.
func distanceBool(l, v bool) *uint256.Int {
	if l == v {
		return uint256.NewInt(0)
	}
	return uint256.NewInt(1)
}

// low128 down-casts a u256 operand to its low 128 bits before computing a
// distance, matching `unchecked_as_u128()` in the original's U256 arms.
func low128(v *uint256.Int) *uint256.Int {
	z := new(uint256.Int).Set(v)
	var mask uint256.Int
	mask.SetAllOne()
	mask.Rsh(&mask, 128)
	z.And(z, &mask)
	return z
}
