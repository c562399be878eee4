package timeofday

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"09:00": 540,
		"9:05":  545,
		"23:59": 1439,
		"24:00": 1440,
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParse_DoesNotClamp(t *testing.T) {
	got, err := Parse("25:99")
	require.NoError(t, err)
	assert.Equal(t, 25*60+99, got)

	got, err = Parse("-1:00")
	require.NoError(t, err)
	assert.Equal(t, -60, got)

	got, err = Parse("1000000:00")
	require.NoError(t, err)
	assert.Equal(t, 60_000_000, got)
}

func TestParse_HugeSegmentsDoNotWrap(t *testing.T) {
	for _, in := range []string{"4611686018427387904:00", "00:4611686018427387904", "-4611686018427387904:00", "1000001:00"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidFormat, in)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "09", "ab:cd", "09:xx", "9.30", "09:00:00", "09abc:00"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidFormat, in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00", Format(0))
	assert.Equal(t, "09:05", Format(545))
	assert.Equal(t, "24:00", Format(1440))
}

func TestRoundTrip(t *testing.T) {
	for x := 0; x <= MinutesPerDay; x++ {
		got, err := Parse(Format(x))
		require.NoError(t, err)
		if got != x {
			t.Fatalf("round trip of %d gave %d", x, got)
		}
	}
}

func TestValidRange(t *testing.T) {
	assert.True(t, ValidRange(540, 600))
	assert.True(t, ValidRange(0, 1440))
	assert.False(t, ValidRange(600, 540))
	assert.False(t, ValidRange(600, 600))
	assert.False(t, ValidRange(-1, 60))
	assert.False(t, ValidRange(60, 1441))
}
