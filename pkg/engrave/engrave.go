// Package engrave turns a semantic score into positioned glyphs ready for
// rendering.
//
// The pipeline runs strictly forward: measures → spacing → system breaks →
// absolute positions → stem/beam geometry → glyph batches. Every stage
// produces new data; nothing mutates a previous stage's output, and no state
// survives between calls, so identical input and configuration always
// serialize to identical bytes.
//
// Coordinates are logical units with y growing downward; one staff space is
// LayoutConfig.UnitsPerSpace units (20 by convention). All serialized
// coordinates are rounded to two decimals.
package engrave

import (
	"fmt"

	"github.com/aylabs/musicore/pkg/score"
)

// ComputeLayout lays out a whole score. It is a pure function of its
// arguments; zero-valued config fields fall back to defaults. Degenerate
// inputs (empty measures, single-note beam groups) resolve to fallback
// geometry, never errors; the only failures are a nil score or an unusable
// configuration.
func ComputeLayout(sc *score.Score, cfg LayoutConfig) (*GlobalLayout, error) {
	if sc == nil {
		return nil, fmt.Errorf("engrave: nil score")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engrave: invalid config: %w", err)
	}

	layout := &GlobalLayout{UnitsPerSpace: cfg.UnitsPerSpace}
	lastTick := sc.LastTick()
	if len(sc.Instruments) == 0 || lastTick == 0 {
		return layout, nil
	}

	// Measure boundaries come from the first staff's time-signature list;
	// all staves share them so barlines align vertically.
	refStaff := &sc.Instruments[0].Staves[0]
	measures := score.Measures(refStaff.TimeSignatures, lastTick)

	cols := make([][]spacedEvent, len(measures))
	boxes := make([]MeasureBox, len(measures))
	for i, r := range measures {
		cols[i] = collectMeasureEvents(sc, r)
		boxes[i] = MeasureBox{Range: r, Width: MeasureWidth(cols[i], cfg.Spacing)}
	}

	breaks := BreakSystems(boxes, cfg)
	leftMargin := systemLeftMargin(sc)

	measureIndex := 0
	for _, br := range breaks {
		n := len(br.Measures)
		sys := buildSystem(sc, br, cols[measureIndex:measureIndex+n], measures, leftMargin, measureIndex+1, cfg)
		measureIndex += n
		layout.Systems = append(layout.Systems, sys)
	}

	for _, sys := range layout.Systems {
		if sys.BoundingBox.Width > layout.TotalWidth {
			layout.TotalWidth = sys.BoundingBox.Width
		}
	}
	if n := len(layout.Systems); n > 0 {
		last := layout.Systems[n-1].BoundingBox
		layout.TotalHeight = last.Y + last.Height
	}

	sanitizeLayout(layout)
	return layout, nil
}

// systemLeftMargin reserves room for the widest structural prefix (clef,
// key signature, time signature) across all staves, so every staff shares
// one margin and note columns align.
func systemLeftMargin(sc *score.Score) float64 {
	maxSharps := 0
	for i := range sc.Instruments {
		for j := range sc.Instruments[i].Staves {
			if n := absInt(sc.Instruments[i].Staves[j].KeySharps); n > maxSharps {
				maxSharps = n
			}
		}
	}
	return 170 + float64(maxSharps)*keyAccidentalSpacing
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// buildSystem assembles one system: a shared tick→x map across all staves,
// then per-staff glyph positioning, beam geometry and batching.
func buildSystem(sc *score.Score, br SystemBreak, cols [][]spacedEvent,
	measures []score.TickRange, leftMargin float64, measureNumber int, cfg LayoutConfig) System {

	ups := cfg.UnitsPerSpace

	// One x per spacing column, shared by every staff. Barlines sit one
	// clearance past the measure's last note column — derived from the same
	// position map as the notes, never from a recomputed scale — and fall
	// back to the measure's left edge when the measure is empty.
	noteX := make(map[uint32]float64)
	barXs := make([]float64, len(br.Measures))
	cursor := leftMargin
	for i, m := range br.Measures {
		x := cursor + measureLeadIn*br.Scale
		lastX := cursor
		for _, ev := range cols[i] {
			noteX[ev.Tick] = x
			lastX = x
			x += NoteSpacing(ev.Duration, ev.Beamed, cfg.Spacing) * br.Scale
		}
		barXs[i] = lastX + barClearance
		cursor += m.Width * br.Scale
	}
	systemWidth := cursor
	closesScore := br.Range.End == measures[len(measures)-1].End

	sys := System{
		Index:         br.Index,
		BoundingBox:   systemBox(br.Index, systemWidth, cfg),
		TickRange:     br.Range,
		MeasureNumber: measureNumber,
	}

	globalStaff := 0
	for i := range sc.Instruments {
		inst := &sc.Instruments[i]
		group := StaffGroup{InstrumentID: inst.ID, NameLabel: inst.Name}
		for j := range inst.Staves {
			staffOffset := float64(globalStaff) * staffSpanSpaces * ups
			ref := SourceReference{
				SystemIndex:  br.Index,
				InstrumentID: inst.ID,
				StaffIndex:   j,
			}
			group.Staves = append(group.Staves, buildStaff(
				&inst.Staves[j], br.Range, noteX, barXs, closesScore,
				measures, staffOffset, systemWidth, ref, cfg))
			globalStaff++
		}
		group.BracketType, group.BracketGlyph = positionBracket(len(inst.Staves), ups)
		sys.StaffGroups = append(sys.StaffGroups, group)
	}
	return sys
}

// buildStaff positions everything belonging to one staff of one system.
func buildStaff(staff *score.Staff, sysRange score.TickRange, noteX map[uint32]float64,
	barXs []float64, closesScore bool, measures []score.TickRange,
	staffOffset, systemWidth float64, ref SourceReference, cfg LayoutConfig) Staff {

	ups := cfg.UnitsPerSpace
	out := Staff{StaffLines: staffLines(staffOffset, systemWidth, ups)}

	out.StructuralGlyphs = append(out.StructuralGlyphs, positionClef(staff.Clef, clefX, staffOffset))
	out.StructuralGlyphs = append(out.StructuralGlyphs,
		positionKeySignature(staff.KeySharps, keySignatureX, staffOffset)...)
	keyWidth := float64(absInt(staff.KeySharps)) * keyAccidentalSpacing
	ts := staff.ActiveTimeSignature(sysRange.Start)
	out.StructuralGlyphs = append(out.StructuralGlyphs,
		positionTimeSignature(ts, keySignatureX+keyWidth+20, staffOffset)...)

	for i, x := range barXs {
		final := closesScore && i == len(barXs)-1
		out.BarLines = append(out.BarLines, barLineAt(x, staffOffset, ups, final))
	}

	var glyphs []Glyph
	for vi := range staff.Voices {
		placed := placeVoiceNotes(staff.Voices[vi].Notes, sysRange, noteX)
		if len(placed) == 0 {
			continue
		}
		voiceRef := ref
		voiceRef.VoiceIndex = vi

		stems, beams := beamVoice(placed, staff.Clef, ts, staffOffset, ups, voiceRef)
		glyphs = append(glyphs, positionNoteheads(placed, staff.Clef, ups, staffOffset, voiceRef)...)
		glyphs = append(glyphs, positionAccidentals(placed, staff.Clef, staff.KeySharps,
			measures, ups, staffOffset, voiceRef)...)
		glyphs = append(glyphs, stems...)
		glyphs = append(glyphs, beams...)

		for _, pn := range placed {
			y := pitchToY(pn.Note.Pitch, staff.Clef, ups) + staffOffset
			c := noteheadCenterY(y, ups)
			if onLedger(c, staffOffset, ups) {
				out.LedgerLines = append(out.LedgerLines, ledgerLines(pn.X, c, staffOffset, ups)...)
			}
		}
	}
	out.GlyphRuns = BatchGlyphs(glyphs)
	return out
}

// placeVoiceNotes resolves the x of every note of one voice falling inside
// the system's tick range.
func placeVoiceNotes(notes []score.Note, r score.TickRange, noteX map[uint32]float64) []placedNote {
	var placed []placedNote
	for i, n := range notes {
		if !r.Contains(n.StartTick) {
			continue
		}
		x, ok := noteX[n.StartTick]
		if !ok {
			continue
		}
		placed = append(placed, placedNote{Note: n, X: x, EventIndex: i})
	}
	return placed
}

// beamVoice runs the beam pipeline for one voice: collapse chords, group,
// resolve direction, provisional stems, beam geometry, and pseudo-glyph
// emission. Members of surviving groups are marked Beamed in place so
// notehead selection switches to bare heads. Groups that reduce to fewer
// than two entries degenerate silently to independent flagged notes.
func beamVoice(placed []placedNote, clef score.Clef, ts score.TimeSignature,
	staffOffset, ups float64, ref SourceReference) (stems, beams []Glyph) {

	// Chord members share a tick and collapse to one beamable entry; the
	// entry keeps every member's event index and its first member's pitch
	// as the stem anchor.
	var beamable []BeamableNote
	entryByTick := make(map[uint32]int)
	for _, pn := range placed {
		if bi, ok := entryByTick[pn.Note.StartTick]; ok {
			beamable[bi].EventIndexes = append(beamable[bi].EventIndexes, pn.EventIndex)
			continue
		}
		entryByTick[pn.Note.StartTick] = len(beamable)
		beamable = append(beamable, BeamableNote{
			X:            pn.X,
			Y:            pitchToY(pn.Note.Pitch, clef, ups) + staffOffset,
			Tick:         pn.Note.StartTick,
			Duration:     pn.Note.DurationTicks,
			Annotations:  pn.Note.Beams,
			EventIndexes: []int{pn.EventIndex},
		})
	}
	byEvent := make(map[int]int, len(placed))
	for i, pn := range placed {
		byEvent[pn.EventIndex] = i
	}

	middleY := staffMiddleY(ups) + staffOffset
	for _, g := range GroupBeams(beamable, ts) {
		g.Direction = GroupStemDirection(g.Notes, middleY)

		onLedgerLine := false
		for i := range g.Notes {
			if g.Direction == StemUp {
				g.Notes[i].StemEndY = g.Notes[i].Y - StemLength
			} else {
				g.Notes[i].StemEndY = g.Notes[i].Y + StemLength
			}
			if onLedger(noteheadCenterY(g.Notes[i].Y, ups), staffOffset, ups) {
				onLedgerLine = true
			}
			for _, ev := range g.Notes[i].EventIndexes {
				if pi, ok := byEvent[ev]; ok {
					placed[pi].Beamed = true
				}
			}
		}

		groupStems, segments := BeamGeometry(&g, ups, onLedgerLine)
		for i, s := range groupStems {
			src := ref
			src.EventIndex = g.Notes[i].EventIndexes[0]
			stems = append(stems, stemGlyph(s, &src))
		}
		for _, seg := range segments {
			beams = append(beams, beamGlyph(seg))
		}
	}
	return stems, beams
}

// ===========================================================================
// Output hygiene
// ===========================================================================

// sanitizeLayout is the defensive last pass: it drops any glyph carrying a
// non-finite coordinate and rounds every serialized value to two decimals so
// float artifacts cannot break byte-identical output.
func sanitizeLayout(l *GlobalLayout) {
	for si := range l.Systems {
		sys := &l.Systems[si]
		sys.BoundingBox = roundBox(sys.BoundingBox)
		for gi := range sys.StaffGroups {
			sg := &sys.StaffGroups[gi]
			if sg.BracketGlyph != nil {
				if g, ok := sanitizeGlyph(*sg.BracketGlyph); ok {
					sg.BracketGlyph = &g
				} else {
					sg.BracketGlyph = nil
					sg.BracketType = BracketNone
				}
			}
			for sti := range sg.Staves {
				sanitizeStaff(&sg.Staves[sti])
			}
		}
	}
	l.TotalWidth = round2(l.TotalWidth)
	l.TotalHeight = round2(l.TotalHeight)
}

func sanitizeStaff(st *Staff) {
	for i := range st.StaffLines {
		st.StaffLines[i] = roundLine(st.StaffLines[i])
	}
	for i := range st.LedgerLines {
		st.LedgerLines[i] = roundLine(st.LedgerLines[i])
	}
	for i := range st.BarLines {
		for j := range st.BarLines[i].Segments {
			s := &st.BarLines[i].Segments[j]
			s.X = round2(s.X)
			s.YStart = round2(s.YStart)
			s.YEnd = round2(s.YEnd)
			s.StrokeWidth = round2(s.StrokeWidth)
		}
	}
	runs := st.GlyphRuns[:0]
	for _, run := range st.GlyphRuns {
		kept := run.Glyphs[:0]
		for _, g := range run.Glyphs {
			if sg, ok := sanitizeGlyph(g); ok {
				kept = append(kept, sg)
			}
		}
		run.Glyphs = kept
		if len(run.Glyphs) > 0 {
			runs = append(runs, run)
		}
	}
	st.GlyphRuns = runs

	kept := st.StructuralGlyphs[:0]
	for _, g := range st.StructuralGlyphs {
		if sg, ok := sanitizeGlyph(g); ok {
			kept = append(kept, sg)
		}
	}
	st.StructuralGlyphs = kept
}

func sanitizeGlyph(g Glyph) (Glyph, bool) {
	if !finite(g.Position.X, g.Position.Y, g.BoundingBox.X, g.BoundingBox.Y,
		g.BoundingBox.Width, g.BoundingBox.Height, g.ScaleY) {
		return Glyph{}, false
	}
	if g.Line != nil {
		if !finite(g.Line.X0, g.Line.Y0, g.Line.X1, g.Line.Y1, g.Line.Thickness) {
			return Glyph{}, false
		}
		line := *g.Line
		line.X0 = round2(line.X0)
		line.Y0 = round2(line.Y0)
		line.X1 = round2(line.X1)
		line.Y1 = round2(line.Y1)
		line.Thickness = round2(line.Thickness)
		g.Line = &line
	}
	g.Position.X = round2(g.Position.X)
	g.Position.Y = round2(g.Position.Y)
	g.BoundingBox = roundBox(g.BoundingBox)
	g.ScaleY = round2(g.ScaleY)
	return g, true
}

func roundBox(b BoundingBox) BoundingBox {
	return BoundingBox{
		X:      round2(b.X),
		Y:      round2(b.Y),
		Width:  round2(b.Width),
		Height: round2(b.Height),
	}
}

func roundLine(l StaffLine) StaffLine {
	return StaffLine{Y: round2(l.Y), StartX: round2(l.StartX), EndX: round2(l.EndX)}
}
