package inspect

import (
	"strings"
	"testing"

	"github.com/aylabs/musicore/pkg/score"
)

func testScore() *score.Score {
	return &score.Score{
		Title: "Grand Staff",
		Instruments: []score.Instrument{
			{
				ID:   "piano",
				Name: "Piano",
				Staves: []score.Staff{
					{
						Clef:      score.ClefTreble,
						KeySharps: 2,
						Voices: []score.Voice{
							{Notes: []score.Note{{StartTick: 0, DurationTicks: 960, Pitch: 64}}},
						},
					},
					{
						Clef: score.ClefBass,
						Voices: []score.Voice{
							{Notes: []score.Note{{StartTick: 0, DurationTicks: 960, Pitch: 48}}},
						},
					},
				},
			},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testScore(), Options{})

	if !strings.HasPrefix(dot, "digraph score {") {
		t.Errorf("DOT should start with digraph declaration, got %q", dot[:30])
	}
	if !strings.HasSuffix(strings.TrimSpace(dot), "}") {
		t.Error("DOT should end with closing brace")
	}

	for _, want := range []string{
		`"Grand Staff"`,
		`"inst:piano"`,
		`"inst:piano/staff0"`,
		`"inst:piano/staff1"`,
		`"inst:piano/staff0/voice0"`,
		`"score" -> "inst:piano"`,
		"1 notes",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testScore(), Options{Detailed: true})

	for _, want := range []string{
		"clef: treble",
		"clef: bass",
		"key: +2",
		"time: 4/4",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("Detailed DOT missing %q", want)
		}
	}
}

func TestToDOTUntitledScore(t *testing.T) {
	sc := testScore()
	sc.Title = ""
	dot := ToDOT(sc, Options{})
	if !strings.Contains(dot, `label="score"`) {
		t.Error("Untitled score should fall back to generic root label")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<?xml version="1.0"?>
<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg">
<g></g>
</svg>`)

	got := string(normalizeViewBox(svg))
	if !strings.Contains(got, `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("normalized viewBox missing: %s", got)
	}
	if !strings.Contains(got, `width="100" height="50"`) {
		t.Errorf("pixel dimensions missing: %s", got)
	}
	if strings.Contains(got, "100pt") {
		t.Error("point-based width should be replaced")
	}
}

func TestNormalizeViewBoxNoMatch(t *testing.T) {
	svg := []byte("<svg></svg>")
	if got := string(normalizeViewBox(svg)); got != "<svg></svg>" {
		t.Errorf("SVG without viewBox should pass through, got %s", got)
	}
}
