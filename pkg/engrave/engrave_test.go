package engrave

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aylabs/musicore/pkg/score"
)

func melodyScore(notes ...score.Note) *score.Score {
	return &score.Score{
		ID:    "melody",
		Title: "Melody",
		Instruments: []score.Instrument{{
			ID:   "flute",
			Name: "Flute",
			Staves: []score.Staff{{
				Clef:   score.ClefTreble,
				Voices: []score.Voice{{Notes: notes}},
			}},
		}},
	}
}

func grandStaffScore() *score.Score {
	return &score.Score{
		ID: "grand",
		Instruments: []score.Instrument{{
			ID:   "piano",
			Name: "Piano",
			Staves: []score.Staff{
				{
					Clef: score.ClefTreble,
					Voices: []score.Voice{{Notes: []score.Note{
						{StartTick: 0, DurationTicks: 960, Pitch: 72},
						{StartTick: 960, DurationTicks: 960, Pitch: 74},
						{StartTick: 1920, DurationTicks: 960, Pitch: 76},
						{StartTick: 2880, DurationTicks: 960, Pitch: 77},
						{StartTick: 3840, DurationTicks: 480, Pitch: 79},
						{StartTick: 4320, DurationTicks: 480, Pitch: 77},
						{StartTick: 4800, DurationTicks: 1920, Pitch: 76},
					}}},
				},
				{
					Clef: score.ClefBass,
					Voices: []score.Voice{{Notes: []score.Note{
						{StartTick: 0, DurationTicks: 3840, Pitch: 48},
						{StartTick: 3840, DurationTicks: 1920, Pitch: 43},
						{StartTick: 5760, DurationTicks: 1920, Pitch: 48},
					}}},
				},
			},
		}},
	}
}

func quarterRun(measureCount int, pitch uint8) []score.Note {
	notes := make([]score.Note, 0, measureCount*4)
	for i := 0; i < measureCount*4; i++ {
		notes = append(notes, score.Note{
			StartTick:     uint32(i) * 960,
			DurationTicks: 960,
			Pitch:         pitch,
		})
	}
	return notes
}

func TestComputeLayoutNilScore(t *testing.T) {
	if _, err := ComputeLayout(nil, DefaultLayoutConfig()); err == nil {
		t.Fatal("expected error for nil score")
	}
}

func TestComputeLayoutInvalidConfig(t *testing.T) {
	// Zero-valued fields fall back to defaults, so only actively broken
	// values can fail validation.
	cfg := DefaultLayoutConfig()
	cfg.MaxSystemWidth = -1
	if _, err := ComputeLayout(melodyScore(), cfg); err == nil {
		t.Fatal("expected error for negative max system width")
	}
}

func TestComputeLayoutEmptyScore(t *testing.T) {
	layout, err := ComputeLayout(melodyScore(), LayoutConfig{})
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	if len(layout.Systems) != 0 {
		t.Errorf("empty score produced %d systems", len(layout.Systems))
	}
	if layout.UnitsPerSpace != 20 {
		t.Errorf("UnitsPerSpace = %v, want default 20", layout.UnitsPerSpace)
	}
}

func TestComputeLayoutDeterministic(t *testing.T) {
	sc := grandStaffScore()
	cfg := DefaultLayoutConfig()

	first, err := ComputeLayout(sc, cfg)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := ComputeLayout(sc, cfg)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical input must serialize to identical bytes")
	}
}

func TestComputeLayoutGlyphInvariants(t *testing.T) {
	layout, err := ComputeLayout(grandStaffScore(), DefaultLayoutConfig())
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	if len(layout.Systems) == 0 {
		t.Fatal("expected at least one system")
	}

	check := func(g Glyph) {
		t.Helper()
		switch g.Codepoint {
		case StemCodepoint, BeamCodepoint:
			if g.Line == nil {
				t.Errorf("pseudo-glyph %q lacks line geometry", g.Codepoint)
			}
		default:
			r := []rune(g.Codepoint)
			if len(r) != 1 || r[0] < 0xE000 || r[0] > 0xF8FF {
				t.Errorf("codepoint %q outside the SMuFL private use area", g.Codepoint)
			}
		}
	}

	for _, sys := range layout.Systems {
		for _, sg := range sys.StaffGroups {
			if sg.BracketGlyph != nil {
				check(*sg.BracketGlyph)
			}
			for _, st := range sg.Staves {
				for _, g := range st.StructuralGlyphs {
					check(g)
				}
				for _, run := range st.GlyphRuns {
					for _, g := range run.Glyphs {
						check(g)
					}
				}
			}
		}
	}
}

func TestComputeLayoutBarLinesAlign(t *testing.T) {
	layout, err := ComputeLayout(grandStaffScore(), DefaultLayoutConfig())
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}

	for _, sys := range layout.Systems {
		staves := sys.StaffGroups[0].Staves
		if len(staves) != 2 {
			t.Fatalf("grand staff has %d staves", len(staves))
		}
		upper, lower := staves[0].BarLines, staves[1].BarLines
		if len(upper) == 0 || len(upper) != len(lower) {
			t.Fatalf("barline counts differ: %d vs %d", len(upper), len(lower))
		}
		for i := range upper {
			for j := range upper[i].Segments {
				if upper[i].Segments[j].X != lower[i].Segments[j].X {
					t.Errorf("barline %d segment %d x differs between staves: %v vs %v",
						i, j, upper[i].Segments[j].X, lower[i].Segments[j].X)
				}
			}
		}
	}

	// The score's very last barline is the final (thin+thick) style.
	last := layout.Systems[len(layout.Systems)-1]
	bars := last.StaffGroups[0].Staves[0].BarLines
	if bars[len(bars)-1].Type != BarFinal {
		t.Error("closing barline should use the final style")
	}
}

func TestComputeLayoutBrackets(t *testing.T) {
	grand, err := ComputeLayout(grandStaffScore(), DefaultLayoutConfig())
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	sg := grand.Systems[0].StaffGroups[0]
	if sg.BracketType != BracketBrace || sg.BracketGlyph == nil {
		t.Errorf("grand staff bracket = %v (glyph %v), want brace", sg.BracketType, sg.BracketGlyph)
	}

	single, err := ComputeLayout(melodyScore(quarterRun(1, 72)...), DefaultLayoutConfig())
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	sg = single.Systems[0].StaffGroups[0]
	if sg.BracketType != BracketNone || sg.BracketGlyph != nil {
		t.Errorf("single staff bracket = %v (glyph %v), want none", sg.BracketType, sg.BracketGlyph)
	}
}

func TestComputeLayoutSystemBreaks(t *testing.T) {
	// Four measures of quarters at 370 units each; an 800-unit page takes
	// two per system.
	cfg := DefaultLayoutConfig()
	cfg.MaxSystemWidth = 800
	layout, err := ComputeLayout(melodyScore(quarterRun(4, 72)...), cfg)
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	if len(layout.Systems) != 2 {
		t.Fatalf("got %d systems, want 2", len(layout.Systems))
	}

	first, second := layout.Systems[0], layout.Systems[1]
	if first.MeasureNumber != 1 || second.MeasureNumber != 3 {
		t.Errorf("measure numbers = %d, %d, want 1, 3", first.MeasureNumber, second.MeasureNumber)
	}
	if first.TickRange.End != second.TickRange.Start {
		t.Errorf("tick ranges not contiguous: %v then %v", first.TickRange, second.TickRange)
	}
	if want := cfg.SystemHeight + cfg.SystemSpacing; !close(second.BoundingBox.Y-first.BoundingBox.Y, want) {
		t.Errorf("vertical system step = %v, want %v", second.BoundingBox.Y-first.BoundingBox.Y, want)
	}
	if layout.TotalHeight != second.BoundingBox.Y+second.BoundingBox.Height {
		t.Errorf("TotalHeight = %v, want bottom of last system", layout.TotalHeight)
	}
}

func TestComputeLayoutBarLineClearance(t *testing.T) {
	// One 4/4 measure of quarters: left margin 170, lead-in 40, three
	// 80-unit columns put the last note at x=450. The barline clears it by
	// 30 rather than landing at the measure's nominal width.
	layout, err := ComputeLayout(melodyScore(quarterRun(1, 72)...), DefaultLayoutConfig())
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	bars := layout.Systems[0].StaffGroups[0].Staves[0].BarLines
	if len(bars) != 1 {
		t.Fatalf("got %d barlines, want 1", len(bars))
	}
	segs := bars[0].Segments
	if got := segs[len(segs)-1].X; !close(got, 480) {
		t.Errorf("barline x = %v, want 480 (last note column + 30)", got)
	}
}

func TestComputeLayoutEmptyMeasureBarLine(t *testing.T) {
	// A single note in measure two leaves measure one empty; its barline
	// falls back to the measure's left edge plus clearance.
	layout, err := ComputeLayout(melodyScore(score.Note{
		StartTick: 3840, DurationTicks: 960, Pitch: 72,
	}), DefaultLayoutConfig())
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	bars := layout.Systems[0].StaffGroups[0].Staves[0].BarLines
	if len(bars) != 2 {
		t.Fatalf("got %d barlines, want 2", len(bars))
	}
	if got := bars[0].Segments[0].X; !close(got, 200) {
		t.Errorf("empty-measure barline x = %v, want 200 (left edge + 30)", got)
	}
	// Measure two: left edge 370, lead-in 40 puts its only note at 410.
	segs := bars[1].Segments
	if got := segs[len(segs)-1].X; !close(got, 440) {
		t.Errorf("closing barline x = %v, want 440", got)
	}
}

func TestBeamVoiceChordCollapse(t *testing.T) {
	// Three notes sharing a start tick and beam annotations form a chord:
	// the group gets one entry (one stem) for the column, and every chord
	// member switches to a bare head.
	begin := []score.BeamAnnotation{{Level: 1, Type: score.BeamBegin}}
	end := []score.BeamAnnotation{{Level: 1, Type: score.BeamEnd}}
	placed := []placedNote{
		{Note: score.Note{StartTick: 0, DurationTicks: 480, Pitch: 72, Beams: begin}, X: 200, EventIndex: 0},
		{Note: score.Note{StartTick: 480, DurationTicks: 480, Pitch: 72, Beams: end}, X: 260, EventIndex: 1},
		{Note: score.Note{StartTick: 480, DurationTicks: 480, Pitch: 76, Beams: end}, X: 260, EventIndex: 2},
		{Note: score.Note{StartTick: 480, DurationTicks: 480, Pitch: 79, Beams: end}, X: 260, EventIndex: 3},
	}

	stems, beams := beamVoice(placed, score.ClefTreble,
		score.TimeSignature{Numerator: 4, Denominator: 4}, 0, 20, SourceReference{})

	if len(stems) != 2 {
		t.Fatalf("got %d stems, want one per column", len(stems))
	}
	if len(beams) != 1 {
		t.Fatalf("got %d beam segments, want 1", len(beams))
	}
	for i, pn := range placed {
		if !pn.Beamed {
			t.Errorf("note %d not marked beamed", i)
		}
	}
	// The chord stem traces back to the chord's first member.
	if stems[1].Source == nil || stems[1].Source.EventIndex != 1 {
		t.Errorf("chord stem source = %+v, want event index 1", stems[1].Source)
	}
}

func TestComputeLayoutLedgerLines(t *testing.T) {
	// Middle C below a treble staff sits one ledger line down.
	layout, err := ComputeLayout(melodyScore(quarterRun(1, 60)...), DefaultLayoutConfig())
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	staff := layout.Systems[0].StaffGroups[0].Staves[0]
	if len(staff.LedgerLines) != 4 {
		t.Errorf("four middle Cs need 4 ledger lines, got %d", len(staff.LedgerLines))
	}
	for _, l := range staff.LedgerLines {
		if !close(l.Y, 200) {
			t.Errorf("ledger line y = %v, want 200", l.Y)
		}
	}
}
