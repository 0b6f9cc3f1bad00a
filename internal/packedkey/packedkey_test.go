package packedkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackRoundTrip(t *testing.T) {
	cases := []struct {
		dayID, secOfDay int
	}{
		{102, 34200},
		{1231, 54000},
		{609, 21600},
		{104, 52847},
	}
	for _, c := range cases {
		key := Pack(c.dayID, c.secOfDay)
		assert.Equal(t, c.dayID, DayID(key), "dayID round trip")
		assert.Equal(t, c.secOfDay, SecOfDay(key), "secOfDay round trip")
	}
}

func TestPackIsZeroForDayZeroAtTimeBase(t *testing.T) {
	// dayId=0, secOfDay=timeBase packs to 0, which the accumulator must
	// handle via its +1 stored-key convention, not by excluding the key.
	key := Pack(0, timeBase)
	assert.Equal(t, int32(0), key)
}
