package engrave

import "sort"

// Drawing attributes shared by every run the engine emits today. The run
// structure still carries them explicitly so the renderer never needs
// engine-side defaults.
const (
	fontFamily  = "Bravura"
	fullOpacity = 1.0
)

// batchKey is the set of attributes that must match for two glyphs to share
// a draw call. Codepoint is part of the key so a run maps to one text draw
// of repeated characters.
type batchKey struct {
	FontFamily string
	FontSize   float64
	Color      Color
	Opacity    float64
	Codepoint  string
}

func keyOf(g Glyph) batchKey {
	return batchKey{
		FontFamily: fontFamily,
		FontSize:   fontSize,
		Color:      Black,
		Opacity:    fullOpacity,
		Codepoint:  g.Codepoint,
	}
}

// BatchGlyphs orders glyphs by x and coalesces consecutive glyphs with
// identical drawing attributes into runs. Sorting is stable so glyphs at
// equal x keep their emission order, which keeps output deterministic.
func BatchGlyphs(glyphs []Glyph) []GlyphRun {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position.X < sorted[j].Position.X
	})

	var runs []GlyphRun
	current := []Glyph{sorted[0]}
	key := keyOf(sorted[0])

	emit := func() {
		runs = append(runs, GlyphRun{
			Glyphs:     current,
			FontFamily: key.FontFamily,
			FontSize:   key.FontSize,
			Color:      key.Color,
			Opacity:    key.Opacity,
		})
	}

	for _, g := range sorted[1:] {
		if k := keyOf(g); k == key {
			current = append(current, g)
		} else {
			emit()
			current = []Glyph{g}
			key = k
		}
	}
	emit()
	return runs
}
