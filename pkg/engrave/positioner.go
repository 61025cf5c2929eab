package engrave

import (
	"strconv"

	"github.com/aylabs/musicore/pkg/score"
)

// Vertical layout constants, expressed in staff spaces and scaled by
// LayoutConfig.UnitsPerSpace at use sites.
const (
	// staffLineSpaces is the gap between adjacent staff lines.
	staffLineSpaces = 2.0
	// staffSpanSpaces separates consecutive staves of one instrument
	// (grand-staff distance, top line to top line).
	staffSpanSpaces = 14.0
	// fontSize is the SMuFL drawing size in logical units; one em covers
	// four staff spaces.
	fontSize = 80.0
	// clefX is the clef anchor at the system start.
	clefX = 20.0
	// keySignatureX is where key signature accidentals begin.
	keySignatureX = 80.0
	// keyAccidentalSpacing separates consecutive key signature accidentals.
	keyAccidentalSpacing = 15.0
	// accidentalOffset shifts a note accidental left of its notehead:
	// half an accidental, a 5-unit gap, and half a notehead.
	accidentalOffset = -29.0
	// measureLeadIn is the room between a measure's origin and its first
	// note column (part of the 50-unit measure padding; the remaining 10
	// units trail the last column before the barline).
	measureLeadIn = 40.0
	// barClearance separates a measure's last note column from its barline:
	// a notehead half-width plus breathing room.
	barClearance = 30.0
	// barStrokeWidth is a plain barline's stroke.
	barStrokeWidth = 2.0
	// finalBarStrokeWidth is the thick stroke of a final barline.
	finalBarStrokeWidth = 6.0
	// finalBarGap separates the thin and thick strokes of a final barline.
	finalBarGap = 8.0
)

// placedNote is a note with its resolved x coordinate and voice-relative
// event index, the unit of work for notehead, accidental and stem layout.
type placedNote struct {
	Note       score.Note
	X          float64
	EventIndex int
	// Beamed marks the note as a beam-group member, switching its notehead
	// to the bare head glyph.
	Beamed bool
}

// diatonicSteps maps chromatic pitch classes to diatonic letter positions
// within an octave (C=0 … B=6). Altered pitches share the line of their
// natural letter; the accidental is drawn separately.
var diatonicSteps = [12]float64{0, 0, 1, 1, 2, 3, 3, 4, 4, 5, 5, 6}

// clefTopLineDiatonic is the diatonic step count (from MIDI 0) of the pitch
// sitting on the top staff line for each clef: F5 for treble, A3 for bass,
// G4 for alto, E4 for tenor.
func clefTopLineDiatonic(clef score.Clef) float64 {
	switch clef {
	case score.ClefBass:
		return 4*7 + 5
	case score.ClefAlto:
		return 5*7 + 4
	case score.ClefTenor:
		return 5*7 + 2
	default:
		return 6*7 + 3
	}
}

// pitchToY converts a MIDI pitch to a staff-relative y coordinate. Each
// diatonic step moves half a line gap; the result carries a -0.5 space
// offset so center-anchored SMuFL noteheads sit on their line.
func pitchToY(pitch uint8, clef score.Clef, unitsPerSpace float64) float64 {
	octave := float64(pitch / 12)
	steps := octave*7 + diatonicSteps[pitch%12]
	return (clefTopLineDiatonic(clef) - steps - 0.5) * unitsPerSpace
}

// staffMiddleY is the y of the middle staff line relative to the staff top.
func staffMiddleY(unitsPerSpace float64) float64 {
	return 2 * staffLineSpaces * unitsPerSpace
}

// noteheadCenterY converts a notehead glyph y back to its visual center.
func noteheadCenterY(glyphY, unitsPerSpace float64) float64 {
	return glyphY + 0.5*unitsPerSpace
}

// noteheadCodepoint picks the SMuFL codepoint for a note by duration bucket,
// returning the codepoint and its metrics name. Unbeamed notes use combined
// head+stem(+flag) glyphs; beamed notes use a bare head, their stems and
// beams arriving as separate pseudo-glyphs.
func noteheadCodepoint(durationTicks uint32, beamed bool) (string, string) {
	if beamed {
		return "\uE0A4", "noteheadBlack"
	}
	switch {
	case durationTicks >= 3840:
		return "\uE0A2", "noteheadWhole"
	case durationTicks >= 1920:
		return "\uE1D3", "noteHalfUp"
	case durationTicks >= 960:
		return "\uE1D5", "noteQuarterUp"
	case durationTicks >= 480:
		return "\uE1D7", "noteEighthUp"
	default:
		return "\uE1D9", "noteSixteenthUp"
	}
}

var structuralRef = &SourceReference{InstrumentID: "structural"}

// positionNoteheads builds the notehead glyph for each placed note.
func positionNoteheads(notes []placedNote, clef score.Clef, unitsPerSpace, staffOffset float64, ref SourceReference) []Glyph {
	glyphs := make([]Glyph, 0, len(notes))
	for _, pn := range notes {
		codepoint, name := noteheadCodepoint(pn.Note.DurationTicks, pn.Beamed)
		pos := Point{
			X: pn.X,
			Y: pitchToY(pn.Note.Pitch, clef, unitsPerSpace) + staffOffset,
		}
		src := ref
		src.EventIndex = pn.EventIndex
		glyphs = append(glyphs, Glyph{
			Position:    pos,
			BoundingBox: glyphBoundingBox(name, pos, fontSize),
			Codepoint:   codepoint,
			Source:      &src,
		})
	}
	return glyphs
}

// positionClef places the clef glyph at the system start: G clef on the
// second line, F clef on the fourth, C clefs on their reference line.
func positionClef(clef score.Clef, x, staffOffset float64) Glyph {
	var codepoint string
	var y float64
	switch clef {
	case score.ClefBass:
		codepoint, y = "\uE062", 110
	case score.ClefAlto:
		codepoint, y = "\uE05C", 70
	case score.ClefTenor:
		codepoint, y = "\uE05D", 110
	default:
		codepoint, y = "\uE050", 110
	}
	pos := Point{X: x, Y: y + staffOffset}
	return Glyph{
		Position:    pos,
		BoundingBox: glyphBoundingBox(clefMetricsName(clef), pos, fontSize),
		Codepoint:   codepoint,
		Source:      structuralRef,
	}
}

func clefMetricsName(clef score.Clef) string {
	switch clef {
	case score.ClefBass:
		return "fClef"
	case score.ClefAlto, score.ClefTenor:
		return "cClef"
	default:
		return "gClef"
	}
}

// positionTimeSignature stacks the numerator and denominator digits around
// the staff middle line using the SMuFL digit range U+E080–U+E089.
// Multi-digit numbers are laid out digit by digit.
func positionTimeSignature(ts score.TimeSignature, x, staffOffset float64) []Glyph {
	place := func(value uint8, y float64) []Glyph {
		digits := strconv.Itoa(int(value))
		glyphs := make([]Glyph, 0, len(digits))
		for i, d := range digits {
			pos := Point{X: x + float64(i)*20, Y: y + staffOffset}
			glyphs = append(glyphs, Glyph{
				Position:    pos,
				BoundingBox: glyphBoundingBox("timeSig"+string(d), pos, fontSize),
				Codepoint:   string(rune(0xE080 + d - '0')),
				Source:      structuralRef,
			})
		}
		return glyphs
	}
	glyphs := place(ts.Numerator, 30)
	return append(glyphs, place(ts.Denominator, 110)...)
}

// Key signature accidental rows for the treble staff: sharps in the order
// F C G D A E B, flats B E A D G C F.
var (
	trebleSharpYs = [7]float64{-10, 50, -30, 30, 90, 10, 70}
	trebleFlatYs  = [7]float64{70, 10, 90, 30, 110, 50, 130}
)

// positionKeySignature lays out up to seven sharps or flats after the clef.
func positionKeySignature(keySharps int, x, staffOffset float64) []Glyph {
	if keySharps == 0 {
		return nil
	}
	codepoint, name, ys := "\uE262", "accidentalSharp", trebleSharpYs
	count := keySharps
	if keySharps < 0 {
		codepoint, name, ys = "\uE260", "accidentalFlat", trebleFlatYs
		count = -keySharps
	}
	if count > len(ys) {
		count = len(ys)
	}
	glyphs := make([]Glyph, 0, count)
	for i := 0; i < count; i++ {
		pos := Point{X: x + float64(i)*keyAccidentalSpacing, Y: ys[i] + staffOffset}
		glyphs = append(glyphs, Glyph{
			Position:    pos,
			BoundingBox: glyphBoundingBox(name, pos, fontSize),
			Codepoint:   codepoint,
			Source:      structuralRef,
		})
	}
	return glyphs
}

// ===========================================================================
// Note accidentals
// ===========================================================================

// sharpOrder and flatOrder are the diatonic pitch classes altered by each
// successive key signature accidental.
var (
	sharpOrder = [7]uint8{5, 0, 7, 2, 9, 4, 11}
	flatOrder  = [7]uint8{11, 4, 9, 2, 7, 0, 5}
)

// chromaticAlteration gives each pitch class's deviation from its natural
// letter: 0 natural, 1 altered. MIDI cannot distinguish enharmonic
// spellings, so black keys read as sharps; flat keys respell them below.
var chromaticAlteration = [12]int{0, 1, 0, 1, 0, 0, 1, 0, 1, 0, 0, 1}

type accidentalKind int

const (
	accidentalNone accidentalKind = iota
	accidentalSharp
	accidentalFlat
	accidentalNatural
)

// neededAccidental decides whether a pitch requires a printed accidental
// under the given key signature, ignoring measure-scoped carry-through.
func neededAccidental(pitch uint8, keySharps int) accidentalKind {
	pc := pitch % 12
	altered := chromaticAlteration[pc] == 1

	switch {
	case keySharps > 0:
		n := keySharps
		if n > 7 {
			n = 7
		}
		for _, diatonic := range sharpOrder[:n] {
			if (diatonic+1)%12 == pc {
				// Sounding pitch of a key-signature sharp.
				return accidentalNone
			}
			if diatonic == pc {
				// Plain letter the key sharpens needs an explicit natural.
				return accidentalNatural
			}
		}
		if altered {
			return accidentalSharp
		}
		return accidentalNone

	case keySharps < 0:
		n := -keySharps
		if n > 7 {
			n = 7
		}
		for _, diatonic := range flatOrder[:n] {
			if (diatonic+11)%12 == pc {
				// Sounding pitch of a key-signature flat.
				return accidentalNone
			}
			if diatonic == pc {
				return accidentalNatural
			}
		}
		if altered {
			// Stray black keys spell as flats in flat keys.
			return accidentalFlat
		}
		return accidentalNone

	default:
		if altered {
			return accidentalSharp
		}
		return accidentalNone
	}
}

// positionAccidentals emits accidental glyphs to the left of the noteheads
// that need them. Accidental state carries through a measure: restating the
// same alteration for a pitch class is suppressed until the next barline.
// Notes must arrive ordered by start tick.
func positionAccidentals(notes []placedNote, clef score.Clef, keySharps int,
	measures []score.TickRange, unitsPerSpace, staffOffset float64, ref SourceReference) []Glyph {

	stated := map[uint8]accidentalKind{}
	measureIdx := 0
	var glyphs []Glyph

	for _, pn := range notes {
		for measureIdx < len(measures) && pn.Note.StartTick >= measures[measureIdx].End {
			measureIdx++
			stated = map[uint8]accidentalKind{}
		}

		kind := neededAccidental(pn.Note.Pitch, keySharps)
		if kind == accidentalNone {
			continue
		}
		pc := pn.Note.Pitch % 12
		if stated[pc] == kind {
			continue
		}
		stated[pc] = kind

		codepoint, name := "\uE261", "accidentalNatural"
		switch kind {
		case accidentalSharp:
			codepoint, name = "\uE262", "accidentalSharp"
		case accidentalFlat:
			codepoint, name = "\uE260", "accidentalFlat"
		}

		pos := Point{
			X: pn.X + accidentalOffset,
			Y: pitchToY(pn.Note.Pitch, clef, unitsPerSpace) + staffOffset,
		}
		src := ref
		src.EventIndex = pn.EventIndex
		glyphs = append(glyphs, Glyph{
			Position:    pos,
			BoundingBox: glyphBoundingBox(name, pos, fontSize),
			Codepoint:   codepoint,
			Source:      &src,
		})
	}
	return glyphs
}

// ===========================================================================
// Ledger lines and barlines
// ===========================================================================

// ledgerLines emits short lines for notehead centers above or below the
// staff, one per skipped staff-line step, spanning one space either side of
// the notehead.
func ledgerLines(noteX, centerY, staffOffset, unitsPerSpace float64) []StaffLine {
	step := staffLineSpaces * unitsPerSpace
	top := staffOffset
	bottom := staffOffset + 4*step
	half := unitsPerSpace

	var lines []StaffLine
	for y := top - step; y >= centerY-half/2; y -= step {
		lines = append(lines, StaffLine{Y: y, StartX: noteX - half, EndX: noteX + half})
	}
	for y := bottom + step; y <= centerY+half/2; y += step {
		lines = append(lines, StaffLine{Y: y, StartX: noteX - half, EndX: noteX + half})
	}
	return lines
}

// onLedger reports whether a notehead center sits outside the staff lines.
func onLedger(centerY, staffOffset, unitsPerSpace float64) bool {
	return centerY < staffOffset-unitsPerSpace/2 ||
		centerY > staffOffset+4*staffLineSpaces*unitsPerSpace+unitsPerSpace/2
}

// barLineAt builds the barline at one measure boundary, spanning the five
// staff lines. Final barlines get the conventional thin+thick pair.
func barLineAt(x, staffOffset, unitsPerSpace float64, final bool) BarLine {
	yStart := staffOffset
	yEnd := staffOffset + 4*staffLineSpaces*unitsPerSpace
	if final {
		return BarLine{
			Type: BarFinal,
			Segments: []BarSegment{
				{X: x - finalBarGap, YStart: yStart, YEnd: yEnd, StrokeWidth: barStrokeWidth},
				{X: x, YStart: yStart, YEnd: yEnd, StrokeWidth: finalBarStrokeWidth},
			},
		}
	}
	return BarLine{
		Type:     BarSingle,
		Segments: []BarSegment{{X: x, YStart: yStart, YEnd: yEnd, StrokeWidth: barStrokeWidth}},
	}
}

// staffLines builds the five lines of one staff across the system width.
func staffLines(staffOffset, width, unitsPerSpace float64) [5]StaffLine {
	var lines [5]StaffLine
	for i := range lines {
		lines[i] = StaffLine{
			Y:      staffOffset + float64(i)*staffLineSpaces*unitsPerSpace,
			StartX: 0,
			EndX:   width,
		}
	}
	return lines
}

// ===========================================================================
// Brackets
// ===========================================================================

// positionBracket emits the grouping glyph for a multi-staff instrument: a
// brace stretched vertically over the full staff span via ScaleY. Single
// staves get none.
func positionBracket(staffCount int, unitsPerSpace float64) (BracketType, *Glyph) {
	if staffCount < 2 {
		return BracketNone, nil
	}
	span := (float64(staffCount-1)*staffSpanSpaces + 4*staffLineSpaces) * unitsPerSpace
	// The brace glyph is authored at one staff height (4 spaces); ScaleY
	// stretches it over the full group.
	scaleY := span / (4 * staffLineSpaces * unitsPerSpace / 2)
	pos := Point{X: 0, Y: span}
	g := &Glyph{
		Position:    pos,
		BoundingBox: BoundingBox{X: 0, Y: 0, Width: 0.5 * unitsPerSpace, Height: span},
		Codepoint:   "\uE000",
		ScaleY:      scaleY,
		Source:      structuralRef,
	}
	return BracketBrace, g
}
