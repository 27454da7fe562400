// Package logest stores estimated quantities as 16-bit logarithms: for a
// quantity X the stored value is 10*log2(X). That covers roughly 1e-986 to
// 1e986, at the cost of granularity (16 and 17 both land on 40), which is
// fine for values that are estimates to begin with.
//
// Examples:
//
//	1 -> 0              20 -> 43          10000 -> 132
//	2 -> 10             25 -> 46          25000 -> 146
//	3 -> 16            100 -> 66        1000000 -> 199
//	4 -> 20           1000 -> 99        1048576 -> 200
//	10 -> 33          1024 -> 100    4294967296 -> 320
//
// Negative values represent fractions: 0.5 -> -10, 0.1 -> -33.
package logest

import (
	"math"
	"math/bits"
)

// LogEst is a logarithmic estimate: 10*log2 of the represented quantity.
type LogEst int16

// addDelta[d] is the correction added to the larger operand when two
// estimates d apart are summed in the linear domain.
var addDelta = [32]uint8{
	10, 10, // 0,1
	9, 9, // 2,3
	8, 8, // 4,5
	7, 7, 7, // 6,7,8
	6, 6, 6, // 9,10,11
	5, 5, 5, // 12-14
	4, 4, 4, 4, // 15-18
	3, 3, 3, 3, 3, 3, // 19-24
	2, 2, 2, 2, 2, 2, 2, // 25-31
}

// Add returns the estimate of the SUM of the two represented quantities.
// This is not "+": both operands are logarithms.
func Add(a, b LogEst) LogEst {
	if a < b {
		a, b = b, a
	}
	switch {
	case a > b+49:
		return a
	case a > b+31:
		return a + 1
	default:
		return a + LogEst(addDelta[a-b])
	}
}

// FromUint64 computes an approximation of 10*log2(x).
func FromUint64(x uint64) LogEst {
	a := [8]LogEst{0, 2, 3, 5, 6, 7, 8, 9}
	y := LogEst(40)
	if x < 8 {
		if x < 2 {
			return 0
		}
		for x < 8 {
			y -= 10
			x <<= 1
		}
	} else {
		i := 60 - bits.LeadingZeros64(x)
		y += LogEst(i * 10)
		x >>= uint(i)
	}
	return a[x&7] + y - 10
}

// FromFloat64 computes an approximation of 10*log2(x). Values above two
// billion read the estimate straight off the float's exponent bits.
func FromFloat64(x float64) LogEst {
	if x <= 1.0 {
		return 0
	}
	if x <= 2000000000.0 {
		return FromUint64(uint64(x))
	}
	e := int16(math.Float64bits(x)>>52) - 1022
	return LogEst(e * 10)
}

// ToUint64 converts an estimate back to an integer quantity. Fractional
// estimates (negative values) round to 0; estimates beyond the u64 range
// saturate at MaxInt64.
func ToUint64(x LogEst) uint64 {
	if x < 0 {
		return 0
	}
	n := uint64(x % 10)
	x /= 10
	if n >= 5 {
		n -= 2
	} else if n >= 1 {
		n--
	}
	if x > 60 {
		return math.MaxInt64
	}
	if x >= 3 {
		return (n + 8) << uint(x-3)
	}
	return (n + 8) >> uint(3-x)
}
