// Package composer assembles a Song from a seed vector: form, per-segment
// harmony, bass and melody, background layers and the closing cadence.
package composer

import (
	"errors"
	"fmt"

	"github.com/james-see/urftunes/pkg/markov"
	"github.com/james-see/urftunes/pkg/voice"
)

// ErrFormOutOfRange means the form names a segment the song does not have.
var ErrFormOutOfRange = errors.New("form entry out of range")

// Event is one entry of a rhythm stream; melody events carry their note.
type Event = markov.Event

// Song is the built composition. It is never mutated after Build returns.
type Song struct {
	Form               []int     `json:"form" yaml:"form" msgpack:"form"`
	Segments           []Segment `json:"segments" yaml:"segments" msgpack:"segments"`
	Ending             Ending    `json:"ending" yaml:"ending" msgpack:"ending"`
	BeatsPerBar        int       `json:"beats_per_bar" yaml:"beats_per_bar" msgpack:"beats_per_bar"`
	MeasuresPerSegment int       `json:"measures_per_segment" yaml:"measures_per_segment" msgpack:"measures_per_segment"`
}

// Segment is one section (A, B, C) of the song.
type Segment struct {
	// Chords holds chord degrees 0..6, one per measure, looped.
	Chords []int `json:"chords" yaml:"chords" msgpack:"chords"`
	// Bass is a short rhythm looped across the segment.
	Bass []Event `json:"bass" yaml:"bass" msgpack:"bass"`
	// Melody fills the whole segment; sounding events carry scale degrees.
	Melody      []Event           `json:"melody" yaml:"melody" msgpack:"melody"`
	Backgrounds []BackgroundLayer `json:"backgrounds" yaml:"backgrounds" msgpack:"backgrounds"`
}

// MelodyRhythm returns the melody without notes.
func (s Segment) MelodyRhythm() []Event {
	out := make([]Event, len(s.Melody))
	for i, e := range s.Melody {
		out[i] = Event{Duration: e.Duration, Rest: e.Rest}
	}
	return out
}

// MelodyNotes returns the degrees of the sounding melody events in order.
func (s Segment) MelodyNotes() []int {
	return notesOf(s.Melody)
}

// LayerParams is a background preset. Duration is in seconds; Multishot
// offsets are in beats from each sounding event.
type LayerParams struct {
	InitialFrequency float64   `json:"initial_frequency" yaml:"initial_frequency" msgpack:"initial_frequency"`
	InitialQ         float64   `json:"initial_q" yaml:"initial_q" msgpack:"initial_q"`
	FinalFrequency   float64   `json:"final_frequency" yaml:"final_frequency" msgpack:"final_frequency"`
	FinalQ           float64   `json:"final_q" yaml:"final_q" msgpack:"final_q"`
	Volume           float64   `json:"volume" yaml:"volume" msgpack:"volume"`
	Duration         float64   `json:"duration" yaml:"duration" msgpack:"duration"`
	Multishot        []float64 `json:"multishot,omitempty" yaml:"multishot,omitempty" msgpack:"multishot,omitempty"`
}

// BackgroundLayer is a decorative filtered-noise track, present only when its
// champion has a non-zero level.
type BackgroundLayer struct {
	Key    string           `json:"key" yaml:"key" msgpack:"key"`
	Level  int              `json:"level" yaml:"level" msgpack:"level"`
	Kind   voice.FilterKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Params LayerParams      `json:"params" yaml:"params" msgpack:"params"`
	Rhythm []Event          `json:"rhythm" yaml:"rhythm" msgpack:"rhythm"`
}

// Filter converts the preset into the noise voice's filter parameters.
func (l BackgroundLayer) Filter() *voice.FilterParams {
	return &voice.FilterParams{
		Kind:             l.Kind,
		InitialFrequency: l.Params.InitialFrequency,
		InitialQ:         l.Params.InitialQ,
		FinalFrequency:   l.Params.FinalFrequency,
		FinalQ:           l.Params.FinalQ,
	}
}

// Ending is the closing cadence: one chord, one bass note and one melody
// note held for Beats.
type Ending struct {
	Chords []int   `json:"chords" yaml:"chords" msgpack:"chords"`
	Bass   []Event `json:"bass" yaml:"bass" msgpack:"bass"`
	Melody []Event `json:"melody" yaml:"melody" msgpack:"melody"`
	Beats  float64 `json:"beats" yaml:"beats" msgpack:"beats"`
	// OctaveShift is how many octaves the source note was reduced by. It is
	// recorded but not applied to the cadence pitch.
	OctaveShift int `json:"octave_shift" yaml:"octave_shift" msgpack:"octave_shift"`
}

// MelodyNotes returns the cadence degrees.
func (e Ending) MelodyNotes() []int {
	return notesOf(e.Melody)
}

// BeatsPerSegment is the length of every segment in beats.
func (s *Song) BeatsPerSegment() int {
	return s.BeatsPerBar * s.MeasuresPerSegment
}

// LastPlayed returns the segment at the final form slot.
func (s *Song) LastPlayed() (*Segment, error) {
	if len(s.Form) == 0 {
		return nil, errors.New("empty form")
	}
	idx := s.Form[len(s.Form)-1]
	if idx < 0 || idx >= len(s.Segments) {
		return nil, fmt.Errorf("%w: slot %d names segment %d of %d", ErrFormOutOfRange, len(s.Form)-1, idx, len(s.Segments))
	}
	return &s.Segments[idx], nil
}

// Validate checks the invariants the scheduler relies on.
func (s *Song) Validate() error {
	if s.BeatsPerBar <= 0 || s.MeasuresPerSegment <= 0 {
		return fmt.Errorf("invalid meter %d beats x %d measures", s.BeatsPerBar, s.MeasuresPerSegment)
	}
	if len(s.Form) == 0 {
		return errors.New("empty form")
	}
	for slot, idx := range s.Form {
		if idx < 0 || idx >= len(s.Segments) {
			return fmt.Errorf("%w: slot %d names segment %d of %d", ErrFormOutOfRange, slot, idx, len(s.Segments))
		}
	}
	for i, seg := range s.Segments {
		if err := validatePart(seg.Chords, seg.Bass, seg.Melody, maxDegree); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		for j, layer := range seg.Backgrounds {
			if err := validateRhythm(layer.Rhythm); err != nil {
				return fmt.Errorf("segment %d background %d (%s): %w", i, j, layer.Key, err)
			}
		}
	}
	if err := validatePart(s.Ending.Chords, s.Ending.Bass, s.Ending.Melody, upperTonic); err != nil {
		return fmt.Errorf("ending: %w", err)
	}
	return nil
}

func validatePart(chords []int, bass, melody []Event, maxNote int) error {
	if len(chords) == 0 {
		return errors.New("no chords")
	}
	for i, c := range chords {
		if c < 0 || c > maxDegree {
			return fmt.Errorf("chord %d is degree %d, want 0..%d", i, c, maxDegree)
		}
	}
	if err := validateRhythm(bass); err != nil {
		return fmt.Errorf("bass: %w", err)
	}
	if err := validateRhythm(melody); err != nil {
		return fmt.Errorf("melody: %w", err)
	}
	for i, e := range melody {
		if !e.Rest && (e.Note < 0 || e.Note > maxNote) {
			return fmt.Errorf("melody event %d is degree %d, want 0..%d", i, e.Note, maxNote)
		}
	}
	return nil
}

func validateRhythm(events []Event) error {
	if len(events) == 0 {
		return errors.New("empty rhythm")
	}
	for i, e := range events {
		if e.Duration <= 0 {
			return fmt.Errorf("event %d has duration %v", i, e.Duration)
		}
	}
	return nil
}

func notesOf(events []Event) []int {
	notes := make([]int, 0, len(events))
	for _, e := range events {
		if !e.Rest {
			notes = append(notes, e.Note)
		}
	}
	return notes
}
