package engrave

// StemDirection orients a stem relative to its notehead.
type StemDirection int

// Stem directions.
const (
	StemUp StemDirection = iota
	StemDown
)

func (d StemDirection) String() string {
	if d == StemUp {
		return "up"
	}
	return "down"
}

// Stem geometry constants in logical units (one staff space = 10 units at
// the default 20 units-per-space scale noted on each constant).
const (
	// StemLength is the standard stem length: 3.5 staff spaces.
	StemLength = 35.0
	// StemThickness is the stroke width of a stem.
	StemThickness = 1.5
	// NoteheadHalfWidth is the center-to-edge distance of a rendered black
	// notehead: Bravura width 1.18 spaces at font size 80 gives 23.6 units,
	// and with center-anchored rendering the attachment edge sits half that
	// from the glyph position.
	NoteheadHalfWidth = 11.8
	// MinBeamedStemLength is the floor for stems joined to a beam.
	MinBeamedStemLength = 50.0
	// MinLedgerStemLength is the floor for beamed stems on notes that sit on
	// ledger lines.
	MinLedgerStemLength = 60.0
)

// Stem is the geometry of one vertical stem line.
type Stem struct {
	X         float64
	YStart    float64
	YEnd      float64
	Direction StemDirection
	Thickness float64
}

// Length returns the absolute stem length.
func (s Stem) Length() float64 {
	if s.YEnd > s.YStart {
		return s.YEnd - s.YStart
	}
	return s.YStart - s.YEnd
}

// ComputeStemDirection picks a direction from the notehead's vertical
// position: on or above the middle staff line (y grows downward, so smaller
// or equal y) the stem points down toward the staff center; below it points
// up.
func ComputeStemDirection(noteheadY, staffMiddleY float64) StemDirection {
	if noteheadY <= staffMiddleY {
		return StemDown
	}
	return StemUp
}

// NewStem builds the geometry for a single unbeamed stem. Up stems attach
// at the right edge of the notehead, down stems at the left edge, each
// extending StemLength units away from the notehead.
func NewStem(noteheadX, noteheadY float64, dir StemDirection) Stem {
	x := noteheadX + NoteheadHalfWidth
	yEnd := noteheadY - StemLength
	if dir == StemDown {
		x = noteheadX - NoteheadHalfWidth
		yEnd = noteheadY + StemLength
	}
	return Stem{
		X:         x,
		YStart:    noteheadY,
		YEnd:      yEnd,
		Direction: dir,
		Thickness: StemThickness,
	}
}

// stemGlyph wraps stem geometry in the pseudo-glyph the renderer consumes.
func stemGlyph(s Stem, src *SourceReference) Glyph {
	minY := s.YStart
	maxY := s.YEnd
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return Glyph{
		Position:  Point{X: s.X, Y: minY},
		Codepoint: StemCodepoint,
		Kind:      KindStem,
		Line: &LineSegment{
			X0: s.X, Y0: s.YStart,
			X1: s.X, Y1: s.YEnd,
			Thickness: s.Thickness,
		},
		BoundingBox: BoundingBox{
			X:      s.X - s.Thickness/2,
			Y:      minY,
			Width:  s.Thickness,
			Height: maxY - minY,
		},
		Source: src,
	}
}
