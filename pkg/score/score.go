// Package score defines the flattened, read-only score representation consumed
// by the engraving engine.
//
// A Score is a hierarchy of Instruments → Staves → Voices → Notes. All timing
// uses 960 PPQ ticks (960 ticks = one quarter note). The engraving engine
// treats a Score as already validated: durations are positive, pitches are in
// MIDI range, and time signatures are consistent. Construction helpers in this
// package enforce those invariants for callers that build scores directly, but
// the engine itself never re-validates.
//
// Measure boundaries are derived from the time-signature change list as
// half-open tick ranges [start, end): a note starting exactly at a measure's
// end tick belongs to the next measure.
package score

import (
	"encoding/json"
	"fmt"
	"os"
)

// TicksPerQuarter is the fixed tick resolution (960 PPQ).
const TicksPerQuarter = 960

// Clef identifies the active clef of a staff.
type Clef string

// Supported clefs.
const (
	ClefTreble Clef = "treble"
	ClefBass   Clef = "bass"
	ClefAlto   Clef = "alto"
	ClefTenor  Clef = "tenor"
)

// BeamType is a beam annotation state at one level of one note, as produced
// by notation importers.
type BeamType string

// Beam annotation states.
const (
	BeamBegin        BeamType = "begin"
	BeamContinue     BeamType = "continue"
	BeamEnd          BeamType = "end"
	BeamForwardHook  BeamType = "forward_hook"
	BeamBackwardHook BeamType = "backward_hook"
)

// BeamAnnotation marks a note's participation in a beam at one level.
// Level 1 is the primary (eighth-note) beam, level 2 the sixteenth beam, etc.
type BeamAnnotation struct {
	Level int      `json:"level"`
	Type  BeamType `json:"type"`
}

// Note is a single pitched event within a voice.
type Note struct {
	StartTick     uint32 `json:"start_tick"`
	DurationTicks uint32 `json:"duration_ticks"`
	// Pitch is a MIDI pitch number (60 = middle C).
	Pitch uint8 `json:"pitch"`
	// Beams holds explicit beam annotations from import; empty means the
	// engine falls back to algorithmic beat-boundary grouping.
	Beams []BeamAnnotation `json:"beams,omitempty"`
}

// EndTick returns the first tick after the note.
func (n Note) EndTick() uint32 { return n.StartTick + n.DurationTicks }

// Voice is an ordered list of notes. Notes are sorted by StartTick.
type Voice struct {
	Notes []Note `json:"notes"`
}

// TimeSignature is one entry of a staff's time-signature change list,
// effective from Tick until the next change.
type TimeSignature struct {
	Tick        uint32 `json:"tick"`
	Numerator   uint8  `json:"numerator"`
	Denominator uint8  `json:"denominator"`
}

// TicksPerMeasure returns the measure length implied by the signature.
func (ts TimeSignature) TicksPerMeasure() uint32 {
	return uint32(ts.Numerator) * ticksPerBeatUnit(ts.Denominator)
}

func ticksPerBeatUnit(denominator uint8) uint32 {
	switch denominator {
	case 2:
		return 2 * TicksPerQuarter
	case 8:
		return TicksPerQuarter / 2
	case 16:
		return TicksPerQuarter / 4
	default:
		return TicksPerQuarter
	}
}

// Staff is one five-line staff with its active clef, key signature and
// time-signature change list.
type Staff struct {
	Clef Clef `json:"clef"`
	// KeySharps is the key signature: positive = sharps, negative = flats,
	// zero = C major / A minor.
	KeySharps int `json:"key_sharps"`
	// TimeSignatures is ordered by tick; the entry at tick 0 is the initial
	// signature. An empty list means 4/4 throughout.
	TimeSignatures []TimeSignature `json:"time_signatures,omitempty"`
	Voices         []Voice         `json:"voices"`
}

// ActiveTimeSignature returns the signature in effect at the given tick.
func (s *Staff) ActiveTimeSignature(tick uint32) TimeSignature {
	active := TimeSignature{Tick: 0, Numerator: 4, Denominator: 4}
	for _, ts := range s.TimeSignatures {
		if ts.Tick > tick {
			break
		}
		active = ts
	}
	return active
}

// LastTick returns the first tick after the last note on the staff,
// or 0 for an empty staff.
func (s *Staff) LastTick() uint32 {
	var last uint32
	for _, v := range s.Voices {
		for _, n := range v.Notes {
			if end := n.EndTick(); end > last {
				last = end
			}
		}
	}
	return last
}

// Instrument groups one or more staves rendered together (a piano grand staff
// has two).
type Instrument struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Staves []Staff `json:"staves"`
}

// Score is the root input to the layout engine.
type Score struct {
	ID          string       `json:"id,omitempty"`
	Title       string       `json:"title,omitempty"`
	Instruments []Instrument `json:"instruments"`
}

// LastTick returns the first tick after the last note anywhere in the score.
func (s *Score) LastTick() uint32 {
	var last uint32
	for i := range s.Instruments {
		for j := range s.Instruments[i].Staves {
			if end := s.Instruments[i].Staves[j].LastTick(); end > last {
				last = end
			}
		}
	}
	return last
}

// Validate checks the structural invariants the engraving engine assumes.
// It is intended for callers that construct scores by hand; imported scores
// are validated at the import boundary.
func (s *Score) Validate() error {
	if len(s.Instruments) == 0 {
		return fmt.Errorf("score has no instruments")
	}
	for i, inst := range s.Instruments {
		if inst.ID == "" {
			return fmt.Errorf("instrument %d has empty id", i)
		}
		if len(inst.Staves) == 0 {
			return fmt.Errorf("instrument %q has no staves", inst.ID)
		}
		for j, staff := range inst.Staves {
			for k, voice := range staff.Voices {
				var prev uint32
				for l, note := range voice.Notes {
					if note.DurationTicks == 0 {
						return fmt.Errorf("instrument %q staff %d voice %d note %d: zero duration", inst.ID, j, k, l)
					}
					if note.Pitch > 127 {
						return fmt.Errorf("instrument %q staff %d voice %d note %d: pitch %d out of MIDI range", inst.ID, j, k, l, note.Pitch)
					}
					if note.StartTick < prev {
						return fmt.Errorf("instrument %q staff %d voice %d note %d: notes not ordered by start tick", inst.ID, j, k, l)
					}
					prev = note.StartTick
				}
			}
		}
	}
	return nil
}

// Parse decodes a serialized score and validates it.
func Parse(data []byte) (*Score, error) {
	var s Score
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode score: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid score: %w", err)
	}
	return &s, nil
}

// ReadFile loads and parses a score from a JSON file.
func ReadFile(path string) (*Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
