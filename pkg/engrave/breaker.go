package engrave

import "github.com/aylabs/musicore/pkg/score"

// MeasureBox is one measure with its natural width, as consumed by the
// system breaker.
type MeasureBox struct {
	Range score.TickRange
	Width float64
}

// SystemBreak is one line of music chosen by the breaker: a run of measures,
// their combined natural width, and the horizontal scale applied when the
// system is rendered.
type SystemBreak struct {
	Index    int
	Measures []MeasureBox
	Range    score.TickRange
	// NaturalWidth is the sum of the member measures' natural widths.
	NaturalWidth float64
	// Width is the rendered width after scaling.
	Width float64
	// Scale is the horizontal factor applied to every x coordinate within
	// the system. At most 1 unless stretch-to-fill is enabled: full systems
	// are compressed to the maximum width, the trailing partial system
	// keeps its natural width.
	Scale float64
}

// BreakSystems packs measures into systems greedily: a measure joins the
// current system unless that would push it past maxWidth, in which case it
// opens the next system. A single measure wider than maxWidth gets its own
// system and is compressed to fit.
func BreakSystems(measures []MeasureBox, cfg LayoutConfig) []SystemBreak {
	if len(measures) == 0 {
		return nil
	}

	var systems []SystemBreak
	var current []MeasureBox
	width := 0.0

	flush := func(full bool) {
		if len(current) == 0 {
			return
		}
		systems = append(systems, closeSystem(len(systems), current, width, full, cfg))
		current = nil
		width = 0
	}

	for _, m := range measures {
		if len(current) > 0 && width+m.Width > cfg.MaxSystemWidth {
			flush(true)
		}
		current = append(current, m)
		width += m.Width
		if len(current) == 1 && width > cfg.MaxSystemWidth {
			// Oversized single measure: give it its own compressed system.
			flush(true)
		}
	}
	flush(false)

	return systems
}

func closeSystem(index int, measures []MeasureBox, natural float64, full bool, cfg LayoutConfig) SystemBreak {
	scale := 1.0
	switch {
	case natural > cfg.MaxSystemWidth:
		scale = cfg.MaxSystemWidth / natural
	case full && cfg.StretchToFill:
		// Closed systems fill the line exactly when stretching is enabled;
		// the trailing partial system always keeps its natural width.
		scale = cfg.MaxSystemWidth / natural
	}

	ms := make([]MeasureBox, len(measures))
	copy(ms, measures)
	return SystemBreak{
		Index:        index,
		Measures:     ms,
		Range:        score.TickRange{Start: ms[0].Range.Start, End: ms[len(ms)-1].Range.End},
		NaturalWidth: natural,
		Width:        natural * scale,
		Scale:        scale,
	}
}

// systemBox returns the bounding box of a system at its vertical slot.
func systemBox(index int, width float64, cfg LayoutConfig) BoundingBox {
	return BoundingBox{
		X:      0,
		Y:      float64(index) * (cfg.SystemHeight + cfg.SystemSpacing),
		Width:  width,
		Height: cfg.SystemHeight,
	}
}
