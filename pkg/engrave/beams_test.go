package engrave

import (
	"testing"

	"github.com/aylabs/musicore/pkg/score"
)

func fourFour() score.TimeSignature {
	return score.TimeSignature{Numerator: 4, Denominator: 4}
}

func eighths(ticks ...uint32) []BeamableNote {
	notes := make([]BeamableNote, len(ticks))
	for i, tick := range ticks {
		notes[i] = BeamableNote{
			X:        float64(100 + i*60),
			Y:        120,
			Tick:     tick,
			Duration: 480,
		}
	}
	return notes
}

func TestBeamEligible(t *testing.T) {
	if !beamEligible(480) || !beamEligible(240) {
		t.Error("eighths and sixteenths are beamable")
	}
	if beamEligible(960) || beamEligible(1920) {
		t.Error("quarters and longer are not beamable")
	}
}

func TestBeamableNoteLevels(t *testing.T) {
	tests := []struct {
		duration uint32
		want     int
	}{
		{480, 1},
		{240, 2},
		{120, 3},
	}
	for _, tt := range tests {
		n := BeamableNote{Duration: tt.duration}
		if got := n.levels(); got != tt.want {
			t.Errorf("levels(duration %d) = %d, want %d", tt.duration, got, tt.want)
		}
	}

	// Explicit annotations override the duration bucket.
	n := BeamableNote{Duration: 480, Annotations: []score.BeamAnnotation{
		{Level: 1, Type: score.BeamBegin},
		{Level: 2, Type: score.BeamForwardHook},
	}}
	if got := n.levels(); got != 2 {
		t.Errorf("annotated levels = %d, want 2", got)
	}
}

func TestGroupBeamsByBeat(t *testing.T) {
	// Four eighths across beats 1 and 2 of a 4/4 measure: beam groups break
	// at the beat boundary.
	groups := GroupBeams(eighths(0, 480, 960, 1440), fourFour())
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	for i, g := range groups {
		if len(g.Notes) != 2 {
			t.Errorf("group %d holds %d notes, want 2", i, len(g.Notes))
		}
		if g.Levels != 1 {
			t.Errorf("group %d levels = %d, want 1", i, g.Levels)
		}
	}
}

func TestGroupBeamsSkipsIsolatedNotes(t *testing.T) {
	// A single eighth per beat cannot form a group.
	groups := GroupBeams(eighths(0, 960, 1920), fourFour())
	if len(groups) != 0 {
		t.Errorf("isolated eighths formed %d groups, want 0", len(groups))
	}
}

func TestGroupBeamsQuarterBreaksRun(t *testing.T) {
	notes := eighths(0, 480)
	notes = append(notes, BeamableNote{X: 300, Y: 120, Tick: 960, Duration: 960})
	notes = append(notes, eighths(1920, 2400)...)

	groups := GroupBeams(notes, fourFour())
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
}

func TestGroupBeamsCompoundMeter(t *testing.T) {
	// 6/8 groups by dotted quarter: six eighths form two groups of three.
	ts := score.TimeSignature{Numerator: 6, Denominator: 8}
	groups := GroupBeams(eighths(0, 480, 960, 1440, 1920, 2400), ts)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	for i, g := range groups {
		if len(g.Notes) != 3 {
			t.Errorf("group %d holds %d notes, want 3", i, len(g.Notes))
		}
	}
}

func TestGroupBeamsHalfNoteBeat(t *testing.T) {
	// In 2/2 a beat is a half note, so four consecutive eighths share one
	// group under a single primary beam, with no hooks.
	ts := score.TimeSignature{Numerator: 2, Denominator: 2}
	groups := GroupBeams(eighths(0, 480, 960, 1440), ts)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if len(g.Notes) != 4 {
		t.Fatalf("group holds %d notes, want 4", len(g.Notes))
	}

	g.Direction = GroupStemDirection(g.Notes, 80)
	for i := range g.Notes {
		g.Notes[i].StemEndY = g.Notes[i].Y - StemLength
	}
	stems, beams := BeamGeometry(&g, 20, false)
	if len(stems) != 4 {
		t.Fatalf("got %d stems, want 4", len(stems))
	}
	if len(beams) != 1 {
		t.Fatalf("got %d beam segments, want a single primary beam", len(beams))
	}
	if beams[0].Hook || beams[0].Level != 1 {
		t.Errorf("primary beam = %+v, want full level-1 segment", beams[0])
	}
}

func TestGroupBeamsByAnnotations(t *testing.T) {
	mark := func(n BeamableNote, bt score.BeamType) BeamableNote {
		n.Annotations = []score.BeamAnnotation{{Level: 1, Type: bt}}
		return n
	}
	base := eighths(0, 480, 960, 1440)
	notes := []BeamableNote{
		mark(base[0], score.BeamBegin),
		mark(base[1], score.BeamContinue),
		mark(base[2], score.BeamContinue),
		mark(base[3], score.BeamEnd),
	}

	// Annotations span the beat boundary the algorithmic fallback would cut.
	groups := GroupBeams(notes, fourFour())
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if len(groups[0].Notes) != 4 {
		t.Errorf("group holds %d notes, want 4", len(groups[0].Notes))
	}
}

func TestGroupBeamsOrphanContinueIgnored(t *testing.T) {
	mark := func(n BeamableNote, bt score.BeamType) BeamableNote {
		n.Annotations = []score.BeamAnnotation{{Level: 1, Type: bt}}
		return n
	}
	base := eighths(0, 480)
	notes := []BeamableNote{
		mark(base[0], score.BeamContinue),
		mark(base[1], score.BeamEnd),
	}
	if groups := GroupBeams(notes, fourFour()); len(groups) != 0 {
		t.Errorf("continue without begin formed %d groups, want 0", len(groups))
	}
}

func TestGroupStemDirection(t *testing.T) {
	const middle = 80.0

	low := BeamableNote{Y: 150}  // below the middle line: stem up
	high := BeamableNote{Y: 20}  // above: stem down
	mid := BeamableNote{Y: 80.0} // on the line: stem down

	if got := GroupStemDirection([]BeamableNote{low, low, high}, middle); got != StemUp {
		t.Errorf("majority-low direction = %v, want up", got)
	}
	if got := GroupStemDirection([]BeamableNote{high, high, low}, middle); got != StemDown {
		t.Errorf("majority-high direction = %v, want down", got)
	}
	// Ties go up.
	if got := GroupStemDirection([]BeamableNote{low, high}, middle); got != StemUp {
		t.Errorf("tie direction = %v, want up", got)
	}
	// Single note falls back to the individual rule.
	if got := GroupStemDirection([]BeamableNote{mid}, middle); got != StemDown {
		t.Errorf("single-note direction = %v, want down", got)
	}
}

func TestBeamSlopeClamped(t *testing.T) {
	const ups = 20.0
	notes := []BeamableNote{
		{X: 100, StemEndY: 100},
		{X: 200, StemEndY: 300},
	}
	// Raw slope 2.0, clamp at 0.5 spaces over 100 units = 0.1.
	if got := beamSlope(notes, ups); !close(got, 0.1) {
		t.Errorf("slope = %v, want clamp 0.1", got)
	}

	notes[1].StemEndY = -100
	if got := beamSlope(notes, ups); !close(got, -0.1) {
		t.Errorf("descending slope = %v, want clamp -0.1", got)
	}

	// A gentle slope passes through unclamped.
	notes[1].StemEndY = 105
	if got := beamSlope(notes, ups); !close(got, 0.05) {
		t.Errorf("gentle slope = %v, want 0.05", got)
	}
}

func TestBeamGeometryMinimumStems(t *testing.T) {
	const ups = 20.0
	g := &BeamGroup{
		Notes: []BeamableNote{
			{X: 100, Y: 200, StemEndY: 165, Duration: 480},
			{X: 160, Y: 200, StemEndY: 165, Duration: 480},
		},
		Direction: StemUp,
		Levels:    1,
	}

	stems, beams := BeamGeometry(g, ups, false)
	if len(stems) != 2 || len(beams) != 1 {
		t.Fatalf("got %d stems, %d beams, want 2/1", len(stems), len(beams))
	}
	for i, s := range stems {
		if !close(s.Length(), MinBeamedStemLength) {
			t.Errorf("stem %d length = %v, want %v", i, s.Length(), MinBeamedStemLength)
		}
	}

	// Ledger-line members raise the floor.
	stems, _ = BeamGeometry(g, ups, true)
	for i, s := range stems {
		if !close(s.Length(), MinLedgerStemLength) {
			t.Errorf("ledger stem %d length = %v, want %v", i, s.Length(), MinLedgerStemLength)
		}
	}
}

func TestBeamGeometrySlopedMinimumStems(t *testing.T) {
	const ups = 20.0
	// An ascending pair engages the slope clamp. The minimum-length
	// guarantee must hold at the stem x, a notehead half-width past the
	// note center, where the stem actually meets the beam.
	g := &BeamGroup{
		Notes: []BeamableNote{
			{X: 100, Y: 100, StemEndY: 65, Duration: 480},
			{X: 160, Y: 160, StemEndY: 125, Duration: 480},
		},
		Direction: StemUp,
		Levels:    1,
	}

	stems, _ := BeamGeometry(g, ups, false)
	tightest := stems[0].Length()
	for i, s := range stems {
		if s.Length() < MinBeamedStemLength-1e-9 {
			t.Errorf("stem %d length %v below minimum %v", i, s.Length(), MinBeamedStemLength)
		}
		if s.Length() < tightest {
			tightest = s.Length()
		}
	}
	if !close(tightest, MinBeamedStemLength) {
		t.Errorf("tightest stem = %v, want exactly the minimum %v", tightest, MinBeamedStemLength)
	}
}

func TestBeamGeometryStemsReachBeam(t *testing.T) {
	const ups = 20.0
	g := &BeamGroup{
		Notes: []BeamableNote{
			{X: 100, Y: 200, StemEndY: 165, Duration: 480},
			{X: 160, Y: 160, StemEndY: 125, Duration: 480},
			{X: 220, Y: 180, StemEndY: 145, Duration: 480},
		},
		Direction: StemUp,
		Levels:    1,
	}

	stems, beams := BeamGeometry(g, ups, false)
	if len(beams) != 1 {
		t.Fatalf("got %d beams, want 1", len(beams))
	}
	beam := beams[0]
	slope := (beam.Y1 - beam.Y0) / (beam.X1 - beam.X0)

	for i, s := range stems {
		// Every stem end lies on the beam line.
		want := beam.Y0 + slope*(s.X-beam.X0)
		if !close(s.YEnd, want) {
			t.Errorf("stem %d end %v off beam line (want %v)", i, s.YEnd, want)
		}
		// No stem dips below the minimum.
		if s.Length() < MinBeamedStemLength-1e-9 {
			t.Errorf("stem %d length %v below minimum", i, s.Length())
		}
	}

	// Up-stems attach at the notehead's right edge.
	if !close(stems[0].X, 100+NoteheadHalfWidth) {
		t.Errorf("stem x = %v, want %v", stems[0].X, 100+NoteheadHalfWidth)
	}
}

func TestBeamGeometrySixteenthLevels(t *testing.T) {
	const ups = 20.0
	g := &BeamGroup{
		Notes: []BeamableNote{
			{X: 100, Y: 200, StemEndY: 165, Duration: 240},
			{X: 160, Y: 200, StemEndY: 165, Duration: 240},
		},
		Direction: StemUp,
		Levels:    2,
	}

	_, beams := BeamGeometry(g, ups, false)
	if len(beams) != 2 {
		t.Fatalf("got %d beams, want primary + level 2", len(beams))
	}
	if beams[0].Level != 1 || beams[1].Level != 2 {
		t.Errorf("beam levels = %d, %d", beams[0].Level, beams[1].Level)
	}
	// The level-2 beam sits one thickness + gap closer to the noteheads
	// (downward for up-stems).
	if got := beams[1].Y0 - beams[0].Y0; !close(got, BeamThickness+InterBeamGap) {
		t.Errorf("level gap = %v, want %v", got, BeamThickness+InterBeamGap)
	}
}

func TestBeamGeometryPartialLevelRun(t *testing.T) {
	const ups = 20.0
	// Eighth + two sixteenths: the sixteenth pair shares a level-2 beam that
	// does not extend over the eighth.
	g := &BeamGroup{
		Notes: []BeamableNote{
			{X: 100, Y: 200, StemEndY: 165, Duration: 480},
			{X: 160, Y: 200, StemEndY: 165, Duration: 240},
			{X: 220, Y: 200, StemEndY: 165, Duration: 240},
		},
		Direction: StemUp,
		Levels:    2,
	}

	_, beams := BeamGeometry(g, ups, false)
	if len(beams) != 2 {
		t.Fatalf("got %d beams, want 2", len(beams))
	}
	level2 := beams[1]
	if level2.Level != 2 || level2.Hook {
		t.Errorf("sixteenth pair should share a full level-2 beam, got %+v", level2)
	}
}

func TestBeamGeometryBackwardHookOnSlope(t *testing.T) {
	const ups = 20.0
	g := &BeamGroup{
		Notes: []BeamableNote{
			{X: 100, Y: 100, StemEndY: 65, Duration: 480, Annotations: []score.BeamAnnotation{
				{Level: 1, Type: score.BeamBegin},
			}},
			{X: 160, Y: 160, StemEndY: 125, Duration: 240, Annotations: []score.BeamAnnotation{
				{Level: 1, Type: score.BeamEnd},
				{Level: 2, Type: score.BeamBackwardHook},
			}},
		},
		Direction: StemUp,
		Levels:    2,
	}

	stems, beams := BeamGeometry(g, ups, false)
	var hook *BeamSegment
	for i := range beams {
		if beams[i].Hook {
			hook = &beams[i]
		}
	}
	if hook == nil {
		t.Fatal("expected a level-2 backward hook")
	}
	if hook.Level != 2 {
		t.Errorf("hook level = %d, want 2", hook.Level)
	}

	// The stem-side end sits on the level-2 beam line even when the beam
	// is sloped; the free end extrapolates backward along the slope.
	wantY := stems[1].YEnd + BeamThickness + InterBeamGap
	if !close(hook.X1, stems[1].X) || !close(hook.Y1, wantY) {
		t.Errorf("hook stem-side end = (%v, %v), want (%v, %v)", hook.X1, hook.Y1, stems[1].X, wantY)
	}
	primary := beams[0]
	slope := (primary.Y1 - primary.Y0) / (primary.X1 - primary.X0)
	if !close(hook.X1-hook.X0, BeamHookLength) {
		t.Errorf("hook span = %v, want %v", hook.X1-hook.X0, BeamHookLength)
	}
	if !close(hook.Y1-hook.Y0, slope*BeamHookLength) {
		t.Errorf("hook rise = %v, want %v", hook.Y1-hook.Y0, slope*BeamHookLength)
	}
}

func TestBeamGeometryDegenerateGroup(t *testing.T) {
	g := &BeamGroup{Notes: eighths(0)[:1], Direction: StemUp, Levels: 1}
	stems, beams := BeamGeometry(g, 20, false)
	if stems != nil || beams != nil {
		t.Error("single-note group must produce no geometry")
	}
}

func TestBeamGlyph(t *testing.T) {
	g := beamGlyph(BeamSegment{X0: 100, Y0: 150, X1: 220, Y1: 140, Level: 1})
	if g.Kind != KindBeam {
		t.Errorf("kind = %v, want KindBeam", g.Kind)
	}
	if g.Codepoint != BeamCodepoint {
		t.Errorf("codepoint = %q, want beam pseudo-codepoint", g.Codepoint)
	}
	if g.Line == nil || g.Line.Thickness != BeamThickness {
		t.Fatalf("beam glyph line = %+v", g.Line)
	}
	// Bounding box is normalized even for descending segments.
	if g.BoundingBox.X != 100 || g.BoundingBox.Y != 140 {
		t.Errorf("bbox origin = (%v, %v), want (100, 140)", g.BoundingBox.X, g.BoundingBox.Y)
	}
}
