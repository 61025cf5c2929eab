package engrave

import "github.com/aylabs/musicore/pkg/score"

// Beam geometry constants in logical units.
const (
	// BeamThickness is the vertical thickness of one beam: 0.5 staff spaces.
	BeamThickness = 10.0
	// MaxBeamSlope is the slope bound in staff spaces across a beam's span.
	MaxBeamSlope = 0.5
	// InterBeamGap separates stacked beam levels: 0.25 staff spaces.
	InterBeamGap = 5.0
	// BeamHookLength is the horizontal reach of a partial beam.
	BeamHookLength = 15.0
)

// BeamableNote is the positioning-ready projection of a note consumed by the
// beam pipeline. Chord members sharing a tick collapse into one entry; the
// EventIndexes of all members are retained for source references.
type BeamableNote struct {
	X        float64
	Y        float64
	StemEndY float64
	Tick     uint32
	Duration uint32
	// Annotations are the note's explicit beam markings, ordered by level.
	Annotations []score.BeamAnnotation
	// EventIndexes are the voice-relative indexes of every chord member
	// collapsed into this entry.
	EventIndexes []int
}

// levels returns how many beam lines the note needs: from its explicit
// annotations when present, otherwise from its duration (eighth = 1,
// sixteenth = 2, thirty-second = 3, ...).
func (n BeamableNote) levels() int {
	if len(n.Annotations) > 0 {
		max := 1
		for _, a := range n.Annotations {
			if a.Level > max {
				max = a.Level
			}
		}
		return max
	}
	lv := 1
	for d := uint32(score.TicksPerQuarter / 2); d > 1 && n.Duration < d; d /= 2 {
		lv++
	}
	return lv
}

// annotationAt returns the note's annotation type at a beam level, or "" if
// the note carries none there.
func (n BeamableNote) annotationAt(level int) score.BeamType {
	for _, a := range n.Annotations {
		if a.Level == level {
			return a.Type
		}
	}
	return ""
}

// beamEligible reports whether a duration can participate in a beam.
func beamEligible(durationTicks uint32) bool {
	return durationTicks < score.TicksPerQuarter
}

// BeamGroup is a run of notes sharing one primary beam.
type BeamGroup struct {
	Notes     []BeamableNote
	Direction StemDirection
	// Levels is the deepest beam level any member requires.
	Levels int
}

// BeamSegment is one beam line (full-level or hook) in logical units, prior
// to pseudo-glyph encoding.
type BeamSegment struct {
	X0, Y0 float64
	X1, Y1 float64
	Level  int
	Hook   bool
}

// GroupBeams partitions beam-eligible notes into groups. Notes carrying
// explicit annotations are grouped by their level-1 Begin/Continue/End
// markings; otherwise grouping falls back to the active time signature's
// beat subdivisions. Groups of fewer than two notes are discarded: their
// members render as independent flagged notes.
func GroupBeams(notes []BeamableNote, ts score.TimeSignature) []BeamGroup {
	annotated := false
	for _, n := range notes {
		if len(n.Annotations) > 0 {
			annotated = true
			break
		}
	}
	var runs [][]BeamableNote
	if annotated {
		runs = groupByAnnotations(notes)
	} else {
		runs = groupByBeat(notes, ts)
	}

	groups := make([]BeamGroup, 0, len(runs))
	for _, run := range runs {
		g := BeamGroup{Notes: run, Levels: 1}
		for _, n := range run {
			if lv := n.levels(); lv > g.Levels {
				g.Levels = lv
			}
		}
		groups = append(groups, g)
	}
	return groups
}

func groupByAnnotations(notes []BeamableNote) [][]BeamableNote {
	var runs [][]BeamableNote
	var current []BeamableNote
	inGroup := false

	flush := func() {
		if len(current) >= 2 {
			runs = append(runs, current)
		}
		current = nil
	}

	for _, n := range notes {
		switch n.annotationAt(1) {
		case score.BeamBegin:
			flush()
			current = []BeamableNote{n}
			inGroup = true
		case score.BeamContinue:
			if inGroup {
				current = append(current, n)
			}
		case score.BeamEnd:
			if inGroup {
				current = append(current, n)
				flush()
				inGroup = false
			}
		default:
			flush()
			inGroup = false
		}
	}
	flush()
	return runs
}

// beatBoundaries returns the tick offsets within one measure at which beam
// groups must break. Compound meters group by dotted quarter; irregular
// meters use conventional subdivisions (5/8 as 3+2, 7/8 as 2+2+3); simple
// meters break at every denominator beat (quarter in x/4, half in x/2).
func beatBoundaries(ts score.TimeSignature) []uint32 {
	switch {
	case ts.Numerator == 6 && ts.Denominator == 8:
		return []uint32{0, 1440}
	case ts.Numerator == 9 && ts.Denominator == 8:
		return []uint32{0, 1440, 2880}
	case ts.Numerator == 12 && ts.Denominator == 8:
		return []uint32{0, 1440, 2880, 4320}
	case ts.Numerator == 5 && ts.Denominator == 8:
		return []uint32{0, 1440}
	case ts.Numerator == 7 && ts.Denominator == 8:
		return []uint32{0, 960, 1920}
	}
	perBeat := uint32(score.TicksPerQuarter)
	if ts.Numerator > 0 {
		if m := ts.TicksPerMeasure(); m > 0 {
			perBeat = m / uint32(ts.Numerator)
		}
	}
	bounds := make([]uint32, ts.Numerator)
	for i := range bounds {
		bounds[i] = uint32(i) * perBeat
	}
	return bounds
}

func groupByBeat(notes []BeamableNote, ts score.TimeSignature) [][]BeamableNote {
	bounds := beatBoundaries(ts)
	measureLen := ts.TicksPerMeasure()
	if measureLen == 0 {
		measureLen = 4 * score.TicksPerQuarter
	}

	beatIndex := func(n BeamableNote) int {
		inMeasure := n.Tick % measureLen
		idx := 0
		for i, b := range bounds {
			if inMeasure >= b {
				idx = i
			}
		}
		return idx
	}

	var runs [][]BeamableNote
	var current []BeamableNote
	currentBeat := -1
	currentMeasure := uint32(0)

	flush := func() {
		if len(current) >= 2 {
			runs = append(runs, current)
		}
		current = nil
		currentBeat = -1
	}

	for _, n := range notes {
		if !beamEligible(n.Duration) {
			flush()
			continue
		}
		beat := beatIndex(n)
		measure := n.Tick / measureLen
		if currentBeat != -1 && (beat != currentBeat || measure != currentMeasure) {
			flush()
		}
		current = append(current, n)
		currentBeat = beat
		currentMeasure = measure
	}
	flush()
	return runs
}

// GroupStemDirection resolves one direction for a whole group by majority
// over the member noteheads' positions; ties go up. A single note falls back
// to the individual pitch rule.
func GroupStemDirection(notes []BeamableNote, staffMiddleY float64) StemDirection {
	if len(notes) == 0 {
		return StemUp
	}
	if len(notes) == 1 {
		return ComputeStemDirection(notes[0].Y, staffMiddleY)
	}
	up := 0
	for _, n := range notes {
		if ComputeStemDirection(n.Y, staffMiddleY) == StemUp {
			up++
		}
	}
	if up*2 >= len(notes) {
		return StemUp
	}
	return StemDown
}

// beamSlope derives the beam line slope through the outer provisional stem
// endpoints, clamped so the total rise across the span never exceeds
// MaxBeamSlope staff spaces.
func beamSlope(notes []BeamableNote, unitsPerSpace float64) float64 {
	if len(notes) < 2 {
		return 0
	}
	first, last := notes[0], notes[len(notes)-1]
	dx := last.X - first.X
	if dx == 0 {
		return 0
	}
	slope := (last.StemEndY - first.StemEndY) / dx
	limit := MaxBeamSlope * unitsPerSpace / dx
	if limit < 0 {
		limit = -limit
	}
	if slope > limit {
		slope = limit
	}
	if slope < -limit {
		slope = -limit
	}
	return slope
}

// BeamGeometry runs the stem/beam phases for one group: provisional stems,
// slope clamping, a uniform offset that brings the tightest stem to exactly
// the minimum beamed length, stem extension to the beam line, and multi-level
// segment emission. onLedger reports whether any member sits on a ledger
// line, which raises the stem minimum.
func BeamGeometry(g *BeamGroup, unitsPerSpace float64, onLedger bool) ([]Stem, []BeamSegment) {
	if len(g.Notes) < 2 {
		return nil, nil
	}

	minLen := MinBeamedStemLength
	if onLedger {
		minLen = MinLedgerStemLength
	}

	first := g.Notes[0]
	slope := beamSlope(g.Notes, unitsPerSpace)
	beamAt := func(x float64) float64 {
		return first.StemEndY + slope*(x-first.X)
	}

	// Stems attach at the notehead edge, not its center; with a sloped beam
	// the difference matters for the minimum-length guarantee below.
	stemX := make([]float64, len(g.Notes))
	for i, n := range g.Notes {
		if g.Direction == StemDown {
			stemX[i] = n.X - NoteheadHalfWidth
		} else {
			stemX[i] = n.X + NoteheadHalfWidth
		}
	}

	// Uniform offset: shift the beam line away from the noteheads until the
	// shortest stem, measured where it meets the beam, is exactly the
	// minimum.
	var offset float64
	if g.Direction == StemUp {
		tight := g.Notes[0].Y - beamAt(stemX[0])
		for i, n := range g.Notes {
			if l := n.Y - beamAt(stemX[i]); l < tight {
				tight = l
			}
		}
		offset = tight - minLen
	} else {
		tight := beamAt(stemX[0]) - g.Notes[0].Y
		for i, n := range g.Notes {
			if l := beamAt(stemX[i]) - n.Y; l < tight {
				tight = l
			}
		}
		offset = minLen - tight
	}

	stems := make([]Stem, len(g.Notes))
	for i, n := range g.Notes {
		stems[i] = Stem{
			X:         stemX[i],
			YStart:    n.Y,
			YEnd:      beamAt(stemX[i]) + offset,
			Direction: g.Direction,
			Thickness: StemThickness,
		}
	}

	var beams []BeamSegment
	beams = append(beams, BeamSegment{
		X0: stems[0].X, Y0: stems[0].YEnd,
		X1: stems[len(stems)-1].X, Y1: stems[len(stems)-1].YEnd,
		Level: 1,
	})
	beams = append(beams, subLevelBeams(g, stems, slope)...)
	return stems, beams
}

// subLevelBeams emits level 2+ segments. Each deeper level sits one
// BeamThickness + InterBeamGap closer to the noteheads. Annotated notes
// follow their per-level Begin/Continue/End/hook markings; unannotated
// groups derive membership from durations, hooking isolated members toward
// a same-level neighbor or the group interior.
func subLevelBeams(g *BeamGroup, stems []Stem, slope float64) []BeamSegment {
	var beams []BeamSegment
	for level := 2; level <= g.Levels; level++ {
		towardHeads := levelOffset(level, g.Direction)

		var run []int
		flushRun := func() {
			if len(run) >= 2 {
				a, b := run[0], run[len(run)-1]
				beams = append(beams, BeamSegment{
					X0: stems[a].X, Y0: stems[a].YEnd + towardHeads,
					X1: stems[b].X, Y1: stems[b].YEnd + towardHeads,
					Level: level,
				})
			} else if len(run) == 1 {
				beams = append(beams, hookSegment(g, stems, run[0], level, slope))
			}
			run = nil
		}

		for i, n := range g.Notes {
			member := false
			if len(n.Annotations) > 0 {
				switch n.annotationAt(level) {
				case score.BeamBegin, score.BeamContinue, score.BeamEnd:
					member = true
				case score.BeamForwardHook, score.BeamBackwardHook:
					beams = append(beams, hookSegment(g, stems, i, level, slope))
				}
			} else {
				member = n.levels() >= level
			}
			if member {
				run = append(run, i)
			} else {
				flushRun()
			}
		}
		flushRun()
	}
	return beams
}

// levelOffset is the vertical shift of a sub-level beam toward the
// noteheads: positive (down) for up-stems, negative for down-stems.
func levelOffset(level int, dir StemDirection) float64 {
	off := float64(level-1) * (BeamThickness + InterBeamGap)
	if dir == StemDown {
		return -off
	}
	return off
}

// hookSegment builds a partial beam for a note that cannot pair with a
// same-level neighbor. Explicit hook annotations fix the direction;
// otherwise the hook points toward a same-level neighbor, or the group
// interior at the edges.
func hookSegment(g *BeamGroup, stems []Stem, i, level int, slope float64) BeamSegment {
	forward := true
	switch g.Notes[i].annotationAt(level) {
	case score.BeamForwardHook:
		forward = true
	case score.BeamBackwardHook:
		forward = false
	default:
		switch {
		case i+1 < len(g.Notes) && g.Notes[i+1].levels() >= level:
			forward = true
		case i > 0 && g.Notes[i-1].levels() >= level:
			forward = false
		default:
			forward = i < len(g.Notes)-1
		}
	}

	// The hook is anchored on the beam line at its stem-side end and
	// extrapolated along the slope toward the free end.
	y := stems[i].YEnd + levelOffset(level, g.Direction)
	seg := BeamSegment{Level: level, Hook: true}
	if forward {
		seg.X0, seg.Y0 = stems[i].X, y
		seg.X1, seg.Y1 = stems[i].X+BeamHookLength, y+slope*BeamHookLength
	} else {
		seg.X0, seg.Y0 = stems[i].X-BeamHookLength, y-slope*BeamHookLength
		seg.X1, seg.Y1 = stems[i].X, y
	}
	return seg
}

// beamGlyph wraps a beam segment in the pseudo-glyph the renderer consumes.
func beamGlyph(b BeamSegment) Glyph {
	minX, maxX := b.X0, b.X1
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := b.Y0, b.Y1
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return Glyph{
		Position:  Point{X: minX, Y: minY},
		Codepoint: BeamCodepoint,
		Kind:      KindBeam,
		Line: &LineSegment{
			X0: b.X0, Y0: b.Y0,
			X1: b.X1, Y1: b.Y1,
			Thickness: BeamThickness,
		},
		BoundingBox: BoundingBox{
			X:      minX,
			Y:      minY,
			Width:  maxX - minX,
			Height: maxY - minY + BeamThickness,
		},
	}
}
