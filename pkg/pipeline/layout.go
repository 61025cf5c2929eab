package pipeline

import (
	"encoding/json"

	"github.com/aylabs/musicore/pkg/engrave"
	"github.com/aylabs/musicore/pkg/score"
)

// MarshalLayout serializes a layout for caching and API responses.
func MarshalLayout(l *engrave.GlobalLayout) ([]byte, error) {
	return json.Marshal(l)
}

// MarshalLayoutIndent serializes a layout with indentation for file output.
func MarshalLayoutIndent(l *engrave.GlobalLayout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes a cached layout.
func UnmarshalLayout(data []byte) (*engrave.GlobalLayout, error) {
	var l engrave.GlobalLayout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// MarshalScore produces the canonical score encoding used for content hashing.
func MarshalScore(sc *score.Score) ([]byte, error) {
	return json.Marshal(sc)
}

// countNotes returns the total note count across all voices of a score.
func countNotes(sc *score.Score) int {
	var n int
	for i := range sc.Instruments {
		for j := range sc.Instruments[i].Staves {
			for k := range sc.Instruments[i].Staves[j].Voices {
				n += len(sc.Instruments[i].Staves[j].Voices[k].Notes)
			}
		}
	}
	return n
}

// countGlyphs returns the total glyph count across all systems of a layout.
func countGlyphs(l *engrave.GlobalLayout) int {
	var n int
	for i := range l.Systems {
		for j := range l.Systems[i].StaffGroups {
			for k := range l.Systems[i].StaffGroups[j].Staves {
				st := &l.Systems[i].StaffGroups[j].Staves[k]
				n += len(st.StructuralGlyphs)
				for r := range st.GlyphRuns {
					n += len(st.GlyphRuns[r].Glyphs)
				}
			}
		}
	}
	return n
}
