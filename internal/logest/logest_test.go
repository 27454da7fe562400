package logest_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"citrine/internal/logest"
)

func TestFromUint64(t *testing.T) {
	cases := []struct {
		in   uint64
		want logest.LogEst
	}{
		{0, 0},
		{1, 0},
		{2, 10},
		{3, 16},
		{4, 20},
		{10, 33},
		{20, 43},
		{25, 46},
		{100, 66},
		{1000, 99},
		{1024, 100},
		{10000, 132},
		{25000, 146},
		{1000000, 199},
		{1048576, 200},
		{4294967296, 320},
	}
	for _, c := range cases {
		require.Equal(t, c.want, logest.FromUint64(c.in), "FromUint64(%d)", c.in)
	}
}

func TestToUint64(t *testing.T) {
	cases := []struct {
		in   logest.LogEst
		want uint64
	}{
		{-33, 0},
		{-10, 0},
		{0, 1},
		{10, 2},
		{20, 4},
		{33, 10},
		{100, 1024},
		{146, 24576},
		{200, 1048576},
		{320, 4294967296},
	}
	for _, c := range cases {
		require.Equal(t, c.want, logest.ToUint64(c.in), "ToUint64(%d)", c.in)
	}
	require.Equal(t, uint64(math.MaxInt64), logest.ToUint64(610))
}

func TestAdd(t *testing.T) {
	cases := []struct {
		a, b, want logest.LogEst
	}{
		{0, 0, 10},      // 1+1 = 2
		{100, 100, 110}, // 1024+1024 = 2048
		{100, 90, 106},  // 1024+512 = 1536
		{100, 60, 101},  // small addend bumps by one
		{100, 0, 100},   // negligible addend
	}
	for _, c := range cases {
		require.Equal(t, c.want, logest.Add(c.a, c.b), "Add(%d, %d)", c.a, c.b)
		require.Equal(t, c.want, logest.Add(c.b, c.a), "Add(%d, %d)", c.b, c.a)
	}
}

func TestFromFloat64(t *testing.T) {
	require.Equal(t, logest.LogEst(0), logest.FromFloat64(0.5))
	require.Equal(t, logest.LogEst(0), logest.FromFloat64(1.0))
	require.Equal(t, logest.LogEst(16), logest.FromFloat64(3.0))
	require.Equal(t, logest.FromUint64(2000000000), logest.FromFloat64(2000000000.0))
	require.Equal(t, logest.LogEst(340), logest.FromFloat64(1e10))
}

func TestRoundTripMagnitude(t *testing.T) {
	// Conversions are lossy; the round trip must stay within the
	// granularity of the representation (about 7%).
	for _, v := range []uint64{2, 10, 97, 1000, 12345, 1 << 20, 1 << 40} {
		got := logest.ToUint64(logest.FromUint64(v))
		lo, hi := v-v/8, v+v/8
		require.True(t, got >= lo && got <= hi, "round trip of %d gave %d", v, got)
	}
}
