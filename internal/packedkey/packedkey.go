// Package packedkey implements the single 32-bit (dayId,time) key that
// anchors sorting, hashing, and partitioning everywhere downstream of the
// parser.
package packedkey

// timeBase is the start of the packed time window: 06:00:00 in seconds
// since midnight. timeCode = secOfDay - timeBase, masked to 15 bits,
// covers 06:00:00..15:06:07 of exchange time — all trading hours.
const timeBase = 21600

// timeMask keeps timeCode within 15 bits.
const timeMask = 0x7FFF

// dayShift puts dayId in the high bits above the 15-bit time code.
const dayShift = 15

// Pack combines a dayId (month*100+day) and a secOfDay into the packed
// key used by the accumulator, the day-merger, and the CSV writer's row
// ordering.
func Pack(dayID, secOfDay int) int32 {
	timeCode := (secOfDay - timeBase) & timeMask
	return int32(dayID<<dayShift | timeCode)
}

// SecOfDay recovers the original secOfDay from a packed key:
// secOfDay = timeBase + (packed & timeMask).
func SecOfDay(key int32) int {
	return timeBase + int(key)&timeMask
}

// DayID recovers the dayId a packed key belongs to.
func DayID(key int32) int {
	return int(key) >> dayShift
}
