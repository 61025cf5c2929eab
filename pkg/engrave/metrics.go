package engrave

import (
	_ "embed"
	"encoding/json"
	"sync"
)

// Bravura font metadata, trimmed to the glyphs the engine emits. Bounding
// boxes are in staff spaces with the origin at the glyph baseline, per the
// SMuFL metadata convention.
//
//go:embed assets/bravura_metrics.json
var bravuraMetrics []byte

type glyphMetrics struct {
	BBoxNE [2]float64 `json:"bBoxNE"`
	BBoxSW [2]float64 `json:"bBoxSW"`
}

type fontMetadata struct {
	GlyphBBoxes map[string]glyphMetrics `json:"glyphBBoxes"`
}

var (
	metricsOnce  sync.Once
	metricsTable map[string]glyphMetrics
)

func loadMetrics() map[string]glyphMetrics {
	metricsOnce.Do(func() {
		var meta fontMetadata
		if err := json.Unmarshal(bravuraMetrics, &meta); err != nil {
			// The asset is compiled in; a parse failure is a build defect,
			// not a runtime condition.
			panic("engrave: corrupt embedded font metrics: " + err.Error())
		}
		metricsTable = meta.GlyphBBoxes
	})
	return metricsTable
}

// GlyphBBox returns the bounding box of a SMuFL glyph in staff spaces,
// relative to the glyph baseline. Unknown glyphs get a one-space default
// box centered on the baseline so layout never fails on a missing entry.
func GlyphBBox(name string) BoundingBox {
	if m, ok := loadMetrics()[name]; ok {
		return BoundingBox{
			X:      m.BBoxSW[0],
			Y:      m.BBoxSW[1],
			Width:  m.BBoxNE[0] - m.BBoxSW[0],
			Height: m.BBoxNE[1] - m.BBoxSW[1],
		}
	}
	return BoundingBox{X: 0, Y: -0.5, Width: 1, Height: 1}
}

// glyphBoundingBox scales the named glyph's metrics to logical units and
// anchors them at the glyph position. Font size is expressed in logical
// units; one em spans four staff spaces, so metric staff spaces convert at
// fontSize / 4 units each.
func glyphBoundingBox(name string, position Point, fontSize float64) BoundingBox {
	m := GlyphBBox(name)
	scale := fontSize / 4
	return BoundingBox{
		X:      position.X + m.X*scale,
		Y:      position.Y + m.Y*scale,
		Width:  m.Width * scale,
		Height: m.Height * scale,
	}
}
