package engrave

import "github.com/aylabs/musicore/pkg/score"

// Spacing constants beyond the configurable knobs.
const (
	// flagClearance is the extra horizontal room reserved for an unbeamed
	// flagged note (eighth or shorter) so the flag cannot overlap the next
	// glyph. Beamed notes carry no flag and get no extra room.
	flagClearance = 10.0
	// measurePadding covers the leading clef/key/time region and the
	// trailing barline of every non-empty measure.
	measurePadding = 50.0
	// emptyMeasureWidth is the fixed width of a measure with no events.
	emptyMeasureWidth = 200.0
)

// NoteSpacing returns the horizontal room a note occupies, proportional to
// its duration:
//
//	max(base + duration/960 * factor, minimum) [+ flag clearance]
//
// A quarter note at the default configuration takes 30 + 50 = 80 units.
// beamed reports whether the note participates in a beam group; only
// unbeamed notes shorter than a quarter receive flag clearance.
func NoteSpacing(durationTicks uint32, beamed bool, cfg SpacingConfig) float64 {
	w := cfg.BaseSpacing + float64(durationTicks)/score.TicksPerQuarter*cfg.DurationFactor
	if w < cfg.MinimumSpacing {
		w = cfg.MinimumSpacing
	}
	if !beamed && durationTicks < score.TicksPerQuarter {
		w += flagClearance
	}
	return w
}

// spacedEvent is one spacing column: all notes sounding at the same tick
// share one column whose width is driven by the shortest duration present.
type spacedEvent struct {
	Tick     uint32
	Duration uint32
	Beamed   bool
}

// MeasureWidth returns the natural width of one measure: the sum of its
// event spacings plus fixed padding, or the empty-measure width when the
// measure has no events.
func MeasureWidth(events []spacedEvent, cfg SpacingConfig) float64 {
	if len(events) == 0 {
		return emptyMeasureWidth
	}
	total := 0.0
	for _, e := range events {
		total += NoteSpacing(e.Duration, e.Beamed, cfg)
	}
	return total + measurePadding
}

// collectMeasureEvents gathers the spacing columns of one measure across all
// staves and voices of the score. Notes from different voices or staves
// starting at the same tick collapse into a single column; the column's
// duration is the minimum of the coinciding durations so the densest voice
// drives the spacing.
func collectMeasureEvents(sc *score.Score, r score.TickRange) []spacedEvent {
	byTick := map[uint32]spacedEvent{}
	for i := range sc.Instruments {
		for j := range sc.Instruments[i].Staves {
			staff := &sc.Instruments[i].Staves[j]
			for k := range staff.Voices {
				for _, n := range staff.Voices[k].Notes {
					if !r.Contains(n.StartTick) {
						continue
					}
					ev, ok := byTick[n.StartTick]
					if !ok || n.DurationTicks < ev.Duration {
						ev = spacedEvent{Tick: n.StartTick, Duration: n.DurationTicks, Beamed: len(n.Beams) > 0}
						byTick[n.StartTick] = ev
					}
				}
			}
		}
	}
	events := make([]spacedEvent, 0, len(byTick))
	for _, ev := range byTick {
		events = append(events, ev)
	}
	sortEventsByTick(events)
	return events
}

func sortEventsByTick(events []spacedEvent) {
	// Insertion sort: measures hold a handful of columns and the input is
	// nearly sorted already.
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j-1].Tick > events[j].Tick; j-- {
			events[j-1], events[j] = events[j], events[j-1]
		}
	}
}
