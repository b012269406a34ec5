package fleet

import "math"

const signBit = uint64(1) << 63

// RankKey is an unsigned key whose integer order equals the numeric order
// of the float64 it was derived from. The mapping is a bijection, so no two
// distinct results share a key. -0 orders just below +0, negative NaNs
// below -Inf and positive NaNs above +Inf.
type RankKey uint64

func RankKeyOf(f float64) RankKey {
	b := math.Float64bits(f)
	if b&signBit != 0 {
		return RankKey(^b)
	}
	return RankKey(b | signBit)
}

// Float64 recovers the exact result the key was built from.
func (k RankKey) Float64() float64 {
	b := uint64(k)
	if b&signBit != 0 {
		return math.Float64frombits(b &^ signBit)
	}
	return math.Float64frombits(^b)
}
