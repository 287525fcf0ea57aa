package markov

import (
	"fmt"
	"math"

	"github.com/james-see/urftunes/pkg/prng"
)

// NoteRule returns the distribution over the next scale degree given the
// previous degree and the chord sounding at the current position.
type NoteRule func(prev, chord int) (Distribution, error)

// BuildNotes samples one degree per non-rest event of rhythm. The chord for
// an event is chords[floor(start/beatsPerBar) % len(chords)], where start is
// the event's beat offset. The first sample sees prev = 0.
func BuildNotes(rule NoteRule, rhythm []Event, chords []int, beatsPerBar float64, src prng.Source) ([]int, error) {
	if len(chords) == 0 {
		return nil, fmt.Errorf("empty chord progression")
	}
	if beatsPerBar <= 0 {
		return nil, fmt.Errorf("beats per bar must be positive, got %v", beatsPerBar)
	}

	var (
		notes []int
		prev  int
		beat  float64
	)
	for i, ev := range rhythm {
		start := beat
		beat += ev.Duration
		if ev.Rest {
			continue
		}
		measure := int(math.Floor(start / beatsPerBar))
		chord := chords[measure%len(chords)]
		dist, err := rule(prev, chord)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		next, err := Sample(dist, src)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		notes = append(notes, next)
		prev = next
	}
	return notes, nil
}

// Attach copies rhythm and writes notes onto its non-rest events in order.
func Attach(rhythm []Event, notes []int) ([]Event, error) {
	out := make([]Event, len(rhythm))
	n := 0
	for i, ev := range rhythm {
		out[i] = ev
		if ev.Rest {
			out[i].Note = 0
			continue
		}
		if n >= len(notes) {
			return nil, fmt.Errorf("rhythm has more sounding events than the %d notes given", len(notes))
		}
		out[i].Note = notes[n]
		n++
	}
	if n != len(notes) {
		return nil, fmt.Errorf("%d notes left over after %d sounding events", len(notes)-n, n)
	}
	return out, nil
}

// Sounding counts the non-rest events.
func Sounding(events []Event) int {
	n := 0
	for _, e := range events {
		if !e.Rest {
			n++
		}
	}
	return n
}
