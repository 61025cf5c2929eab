package engrave

import "testing"

func smuflGlyph(codepoint string, x float64) Glyph {
	return Glyph{Position: Point{X: x, Y: 100}, Codepoint: codepoint}
}

func TestBatchGlyphsEmpty(t *testing.T) {
	if got := BatchGlyphs(nil); got != nil {
		t.Errorf("BatchGlyphs(nil) = %v, want nil", got)
	}
}

func TestBatchGlyphsCoalesces(t *testing.T) {
	runs := BatchGlyphs([]Glyph{
		smuflGlyph("\uE0A4", 100),
		smuflGlyph("\uE0A4", 160),
		smuflGlyph("\uE0A4", 220),
	})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	run := runs[0]
	if len(run.Glyphs) != 3 {
		t.Errorf("run holds %d glyphs, want 3", len(run.Glyphs))
	}
	if run.FontFamily != "Bravura" || run.FontSize != fontSize {
		t.Errorf("run attributes = %s/%v", run.FontFamily, run.FontSize)
	}
	if run.Color != Black || run.Opacity != 1 {
		t.Errorf("run color/opacity = %v/%v", run.Color, run.Opacity)
	}
}

func TestBatchGlyphsSortsByX(t *testing.T) {
	runs := BatchGlyphs([]Glyph{
		smuflGlyph("\uE0A4", 300),
		smuflGlyph("\uE0A4", 100),
		smuflGlyph("\uE0A4", 200),
	})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	xs := runs[0].Glyphs
	for i := 1; i < len(xs); i++ {
		if xs[i-1].Position.X > xs[i].Position.X {
			t.Fatalf("glyphs not ordered by x: %v then %v", xs[i-1].Position.X, xs[i].Position.X)
		}
	}
}

func TestBatchGlyphsSplitsOnCodepoint(t *testing.T) {
	runs := BatchGlyphs([]Glyph{
		smuflGlyph("\uE0A4", 100),
		smuflGlyph("\uE262", 160),
		smuflGlyph("\uE0A4", 220),
	})
	// Codepoint changes break runs even when all other attributes match.
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
}

func TestBatchGlyphsStableAtEqualX(t *testing.T) {
	a := smuflGlyph("\uE0A4", 100)
	a.Source = &SourceReference{EventIndex: 1}
	b := smuflGlyph("\uE0A4", 100)
	b.Source = &SourceReference{EventIndex: 2}

	runs := BatchGlyphs([]Glyph{a, b})
	if len(runs) != 1 || len(runs[0].Glyphs) != 2 {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].Glyphs[0].Source.EventIndex != 1 {
		t.Error("glyphs at equal x must keep emission order")
	}
}
