package score

// TickRange is a half-open span of musical time: [Start, End).
// A note starting exactly at End belongs to the following range.
type TickRange struct {
	Start uint32 `json:"start_tick"`
	End   uint32 `json:"end_tick"`
}

// Contains reports whether the tick falls inside the half-open range.
func (r TickRange) Contains(tick uint32) bool {
	return tick >= r.Start && tick < r.End
}

// Measures derives measure boundaries from a time-signature change list.
// Ranges are generated until lastTick is covered; a note starting exactly at
// lastTick gets one further measure so the half-open convention never strands
// an event. An empty change list means 4/4 throughout.
func Measures(changes []TimeSignature, lastTick uint32) []TickRange {
	if lastTick == 0 {
		return nil
	}

	active := TimeSignature{Numerator: 4, Denominator: 4}
	next := 0
	if len(changes) > 0 && changes[0].Tick == 0 {
		active = changes[0]
		next = 1
	}

	var ranges []TickRange
	var start uint32
	for start < lastTick {
		// Advance the active signature if a change lands on this boundary.
		// Changes mid-measure are invalid input and are deferred to the next
		// boundary at or after their tick.
		for next < len(changes) && changes[next].Tick <= start {
			active = changes[next]
			next++
		}
		length := active.TicksPerMeasure()
		if length == 0 {
			length = 4 * TicksPerQuarter
		}
		ranges = append(ranges, TickRange{Start: start, End: start + length})
		start += length
	}
	return ranges
}
