package markov

import (
	"fmt"
	"math"
	"strconv"

	"github.com/james-see/urftunes/pkg/prng"
)

// Event is one entry of a rhythm stream. Note is a scale degree and is only
// meaningful when Rest is false.
type Event struct {
	Duration float64 `json:"duration" yaml:"duration" msgpack:"duration"`
	Rest     bool    `json:"rest,omitempty" yaml:"rest,omitempty" msgpack:"rest,omitempty"`
	Note     int     `json:"note" yaml:"note" msgpack:"note"`
}

// Beat is a sounding event of d beats.
func Beat(d float64) Event { return Event{Duration: d} }

// RestFor is a silent event of d beats.
func RestFor(d float64) Event { return Event{Duration: d, Rest: true} }

// Choice is a weighted rhythm template.
type Choice struct {
	Event  Event
	Weight float64
}

// RhythmRule returns the weighted templates available at a beat position
// within the bar.
type RhythmRule func(position float64) ([]Choice, error)

// RhythmTable keys choices by beat-position-within-bar.
type RhythmTable struct {
	name      string
	at        map[string][]Choice
	otherwise []Choice
}

// NewRhythmTable returns an empty table. name only appears in errors.
func NewRhythmTable(name string) *RhythmTable {
	return &RhythmTable{name: name, at: make(map[string][]Choice)}
}

// At registers choices for a position.
func (t *RhythmTable) At(position float64, choices ...Choice) *RhythmTable {
	t.at[positionKey(position)] = choices
	return t
}

// Otherwise registers choices for every position without an entry.
func (t *RhythmTable) Otherwise(choices ...Choice) *RhythmTable {
	t.otherwise = choices
	return t
}

// Lookup returns the choices for position.
func (t *RhythmTable) Lookup(position float64) ([]Choice, error) {
	if c, ok := t.at[positionKey(position)]; ok {
		return c, nil
	}
	if t.otherwise != nil {
		return t.otherwise, nil
	}
	return nil, fmt.Errorf("%w: %s rhythm table has no entry for beat %v", ErrNoMatchingRule, t.name, position)
}

// Rule adapts the table to BuildRhythm.
func (t *RhythmTable) Rule() RhythmRule {
	return t.Lookup
}

// BuildRhythm samples events until their cumulative duration reaches target.
// The final event may overshoot.
func BuildRhythm(rule RhythmRule, beatsPerBar, target float64, src prng.Source) ([]Event, error) {
	if beatsPerBar <= 0 {
		return nil, fmt.Errorf("beats per bar must be positive, got %v", beatsPerBar)
	}
	var (
		events []Event
		beat   float64
	)
	for beat < target {
		position := math.Mod(beat, beatsPerBar)
		choices, err := rule(position)
		if err != nil {
			return nil, fmt.Errorf("beat %v: %w", beat, err)
		}
		dist := make(Distribution, len(choices))
		for i, c := range choices {
			dist[i] = c.Weight
		}
		i, err := Sample(dist, src)
		if err != nil {
			return nil, fmt.Errorf("beat %v: %w", beat, err)
		}
		ev := choices[i].Event
		if ev.Duration <= 0 {
			return nil, fmt.Errorf("%w: non-positive duration %v at beat %v", ErrInvalidDistribution, ev.Duration, beat)
		}
		events = append(events, ev)
		beat += ev.Duration
	}
	return events, nil
}

// TotalBeats sums the durations of events.
func TotalBeats(events []Event) float64 {
	total := 0.0
	for _, e := range events {
		total += e.Duration
	}
	return total
}

// Repeat concatenates events with itself n times.
func Repeat(events []Event, n int) []Event {
	out := make([]Event, 0, len(events)*n)
	for i := 0; i < n; i++ {
		out = append(out, events...)
	}
	return out
}

func positionKey(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
