package engrave

import (
	"math"

	"github.com/aylabs/musicore/pkg/score"
)

// Pseudo-codepoints reserved for non-SMuFL drawing primitives. Keeping stems
// and beams inside the glyph stream lets the renderer consume one uniform
// schema; Kind distinguishes them without parsing the codepoint.
const (
	StemCodepoint = "\u0000"
	BeamCodepoint = "\u0001"
)

// GlyphKind tags the variant carried by a Glyph.
type GlyphKind int

const (
	// KindSmufl is a standard SMuFL character (U+E000–U+F8FF).
	KindSmufl GlyphKind = iota
	// KindStem is a vertical stem line encoded via Line geometry.
	KindStem
	// KindBeam is a sloped beam polygon encoded via Line geometry.
	KindBeam
)

// Point is a 2D coordinate in logical units. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is a hit-testing and clipping rectangle in logical units,
// anchored at its top-left corner.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width && p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// Intersects reports whether two boxes overlap.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return !(b.X+b.Width <= o.X || o.X+o.Width <= b.X ||
		b.Y+b.Height <= o.Y || o.Y+o.Height <= b.Y)
}

// Color is an RGBA color with 8-bit channels.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Black is the default glyph color.
var Black = Color{R: 0, G: 0, B: 0, A: 255}

// SourceReference links a glyph back to the domain event it was produced
// from. It is the only channel by which external collaborators (highlighting,
// selection) can map rendered geometry to an opaque note identity.
type SourceReference struct {
	SystemIndex  int    `json:"system_index"`
	InstrumentID string `json:"instrument_id"`
	StaffIndex   int    `json:"staff_index"`
	VoiceIndex   int    `json:"voice_index"`
	EventIndex   int    `json:"event_index"`
}

// LineSegment carries the geometry of a stem or beam pseudo-glyph: a stroked
// segment from (X0,Y0) to (X1,Y1) with the given thickness, from which the
// renderer reconstructs a 4-point polygon.
type LineSegment struct {
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	Thickness float64 `json:"thickness"`
}

// Glyph is a single drawable element. SMuFL glyphs carry a codepoint;
// stem/beam pseudo-glyphs additionally carry Line geometry.
type Glyph struct {
	Position    Point            `json:"position"`
	BoundingBox BoundingBox      `json:"bounding_box"`
	Codepoint   string           `json:"codepoint"`
	Line        *LineSegment     `json:"line,omitempty"`
	ScaleY      float64          `json:"scale_y,omitempty"`
	Source      *SourceReference `json:"source_reference,omitempty"`

	Kind GlyphKind `json:"-"`
}

// GlyphRun batches consecutive glyphs sharing drawing attributes so the
// renderer can issue one draw call per run.
type GlyphRun struct {
	Glyphs     []Glyph `json:"glyphs"`
	FontFamily string  `json:"font_family"`
	FontSize   float64 `json:"font_size"`
	Color      Color   `json:"color"`
	Opacity    float64 `json:"opacity"`
}

// StaffLine is one horizontal line, also used for ledger lines.
type StaffLine struct {
	Y      float64 `json:"y_position"`
	StartX float64 `json:"start_x"`
	EndX   float64 `json:"end_x"`
}

// BarType distinguishes barline styles.
type BarType string

// Barline styles.
const (
	BarSingle BarType = "single"
	BarFinal  BarType = "final"
)

// BarSegment is one stroked vertical segment of a barline.
type BarSegment struct {
	X           float64 `json:"x_position"`
	YStart      float64 `json:"y_start"`
	YEnd        float64 `json:"y_end"`
	StrokeWidth float64 `json:"stroke_width"`
}

// BarLine is a barline at a measure boundary. Final barlines carry two
// segments (thin + thick); single barlines carry one.
type BarLine struct {
	Type     BarType      `json:"bar_type"`
	Segments []BarSegment `json:"segments"`
}

// Staff is one positioned five-line staff within a system.
type Staff struct {
	StaffLines       [5]StaffLine `json:"staff_lines"`
	LedgerLines      []StaffLine  `json:"ledger_lines,omitempty"`
	BarLines         []BarLine    `json:"bar_lines"`
	GlyphRuns        []GlyphRun   `json:"glyph_runs"`
	StructuralGlyphs []Glyph      `json:"structural_glyphs"`
}

// BracketType is the visual connector grouping a multi-staff instrument.
type BracketType string

// Bracket styles.
const (
	BracketNone  BracketType = "none"
	BracketBrace BracketType = "brace"
	BracketLine  BracketType = "bracket"
)

// StaffGroup is one instrument's staves rendered together.
type StaffGroup struct {
	InstrumentID string      `json:"instrument_id"`
	Staves       []Staff     `json:"staves"`
	BracketType  BracketType `json:"bracket_type"`
	BracketGlyph *Glyph      `json:"bracket_glyph,omitempty"`
	NameLabel    string      `json:"name_label,omitempty"`
}

// System is one horizontal line of music across all staves; the primary
// virtualization boundary for rendering.
type System struct {
	Index         int             `json:"index"`
	BoundingBox   BoundingBox     `json:"bounding_box"`
	TickRange     score.TickRange `json:"tick_range"`
	MeasureNumber int             `json:"measure_number"`
	StaffGroups   []StaffGroup    `json:"staff_groups"`
}

// GlobalLayout is the root of the spatial model: ordered systems plus overall
// dimensions.
type GlobalLayout struct {
	Systems       []System `json:"systems"`
	TotalWidth    float64  `json:"total_width"`
	TotalHeight   float64  `json:"total_height"`
	UnitsPerSpace float64  `json:"units_per_space"`
}

// round2 rounds to 2 decimal places. Serialized output is rounded so that
// floating-point artifacts cannot break byte-identical determinism.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
