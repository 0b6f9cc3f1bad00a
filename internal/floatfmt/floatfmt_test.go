package floatfmt

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func format(v float32) string {
	buf := make([]byte, 64)
	n := Format(buf, 0, v)
	return string(buf[:n])
}

func TestFormat_ZeroAndNonFinite(t *testing.T) {
	assert.Equal(t, "0", format(0))
	assert.Equal(t, "0", format(float32(math.Copysign(0, -1))))
	assert.Equal(t, "0", format(float32(math.Inf(1))))
	assert.Equal(t, "0", format(float32(math.Inf(-1))))
	assert.Equal(t, "0", format(float32(math.NaN())))
}

func TestFormat_KnownSpecValues(t *testing.T) {
	cases := map[float32]string{
		100:      "100",
		254150:   "254150",
		69300:    "69300",
		117100:   "117100",
		0.5:      "0.5",
		0.05:     "0.05",
		1:        "1",
		-42.5:    "-42.5",
		12.25:    "12.25",
		1.0 / 3.0: "0.33333334",
	}
	for v, want := range cases {
		assert.Equal(t, want, format(v), "v=%v", v)
	}
}

func TestFormat_RoundTripsBitForBit(t *testing.T) {
	values := []float32{
		0.1, 0.2, 0.3, 1.5, 2.0, 3.14159, -3.14159,
		100000, 1e-5, 1e10, 123456.789, 9999999, 0.0001,
		float32(math.MaxFloat32), math.SmallestNonzeroFloat32,
		-1, -0.0001, 7, 8, 16, 1024, 1023.5,
	}
	for _, v := range values {
		s := format(v)
		assert.NotContains(t, s, "e")
		assert.NotContains(t, s, "E")
		parsed, err := strconv.ParseFloat(s, 32)
		require.NoError(t, err, "value %v -> %q", v, s)
		assert.Equal(t, math.Float32bits(v), math.Float32bits(float32(parsed)), "round trip for %v via %q", v, s)
	}
}

func TestFormat_NegativeSignOnlyOnNonzero(t *testing.T) {
	s := format(-7)
	assert.Equal(t, byte('-'), s[0])
	assert.Equal(t, "-7", s)
}
