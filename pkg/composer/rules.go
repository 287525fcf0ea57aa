package composer

import (
	"fmt"

	"github.com/james-see/urftunes/pkg/markov"
)

const (
	// maxDegree is the highest diatonic degree (B in C major).
	maxDegree = 6
	// upperTonic is the cadence target an octave above the tonic.
	upperTonic = 7
	// chordToneBoost scales the weight of notes belonging to the current chord.
	chordToneBoost = 2.0
)

// formTable chooses which segment plays at each slot. It guarantees the C
// section appears before the sixth slot is filled.
func formTable() *markov.Table {
	return markov.NewTable("form").
		Exact([]int{}, 1).
		Exact([]int{0}, 0.5, 0.5).
		Exact([]int{0, 0}, 0, 1).
		Exact([]int{0, 1}, 0.9, 0, 0.1).
		Exact([]int{0, 0, 1}, 0.8, 0, 0.2).
		Exact([]int{0, 1, 0}, 0, 0.9, 0.1).
		Exact([]int{0, 1, 2}, 0.8, 0.2, 0).
		When("no C section by slot 6", func(h []int) bool {
			if len(h) != 6 {
				return false
			}
			for _, s := range h {
				if s == 2 {
					return false
				}
			}
			return true
		}, 0, 0, 1).
		When("short history", func(h []int) bool { return len(h) < 2 }, 1).
		Suffix([]int{0, 0}, 0, 1).
		Suffix([]int{0, 1}, 0.3, 0, 0.7).
		Suffix([]int{0, 2}, 1).
		Suffix([]int{1, 0}, 0, 0.6, 0.4).
		Suffix([]int{1, 2}, 1).
		Suffix([]int{2, 0}, 0.1, 0.8, 0.1).
		Otherwise(1)
}

// chordTable holds pop-music chord transition statistics for progressions
// that start on the tonic. It has no catch-all: every four-chord path it can
// produce has an entry.
func chordTable() *markov.Table {
	return markov.NewTable("chord").
		Exact([]int{}, 1).
		Exact([]int{0}, 0, 0.09, 0, 0.28, 0.48, 0.15, 0).
		Exact([]int{0, 1}, 0.18, 0, 0.18, 0.20, 0.14, 0.30, 0).
		Exact([]int{0, 1, 0}, 0, 0.54, 0, 0.18, 0.22, 0.06, 0).
		Exact([]int{0, 1, 2}, 0, 0, 0, 0.8, 0, 0.2, 0).
		Exact([]int{0, 1, 3}, 0, 0, 0, 0, 0.67, 0.33, 0).
		Exact([]int{0, 1, 4}, 0.35, 0, 0, 0, 0.45, 0.2, 0).
		Exact([]int{0, 1, 5}, 0.5, 0, 0, 0.2, 0, 0.3, 0).
		Exact([]int{0, 3}, 0.4, 0, 0, 0, 0.4, 0.2, 0).
		Exact([]int{0, 3, 0}, 0, 0, 0, 0.6, 0.4, 0, 0).
		Exact([]int{0, 3, 4}, 0.4, 0, 0, 0.2, 0, 0.4, 0).
		Exact([]int{0, 3, 5}, 0.1, 0, 0, 0.2, 0.7, 0, 0).
		Exact([]int{0, 4}, 0.2, 0.1, 0, 0.3, 0, 0.4, 0).
		Exact([]int{0, 4, 0}, 0, 0, 0, 0.5, 0.5, 0, 0).
		Exact([]int{0, 4, 1}, 0, 0, 0, 0.7, 0, 0.3, 0).
		Exact([]int{0, 4, 3}, 0.5, 0, 0, 0, 0.25, 0.25, 0).
		Exact([]int{0, 4, 5}, 0, 0, 0, 0.8, 0.2, 0, 0).
		Exact([]int{0, 5}, 0.15, 0, 0, 0.45, 0.35, 0, 0).
		Exact([]int{0, 5, 0}, 0, 0, 0, 0.3, 0.1, 0.6, 0).
		Exact([]int{0, 5, 3}, 0.5, 0, 0, 0, 0.5, 0, 0).
		Exact([]int{0, 5, 4}, 0.2, 0.1, 0, 0.7, 0, 0, 0)
}

func offBeatChoices() []markov.Choice {
	return []markov.Choice{
		{Event: markov.Beat(0.5), Weight: 0.4},
		{Event: markov.RestFor(0.5), Weight: 0.3},
		{Event: markov.Beat(1), Weight: 0.1},
		{Event: markov.RestFor(1), Weight: 0.2},
	}
}

// melodyRhythmTable never produces an event that crosses a bar line, so a
// whole number of bars is filled exactly.
func melodyRhythmTable() *markov.RhythmTable {
	return markov.NewRhythmTable("melody rhythm").
		At(0,
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.4},
			markov.Choice{Event: markov.Beat(1), Weight: 0.5},
			markov.Choice{Event: markov.Beat(1.5), Weight: 0.1},
		).
		At(0.5, offBeatChoices()...).
		At(1, offBeatChoices()...).
		At(1.5,
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.7},
			markov.Choice{Event: markov.Beat(1.5), Weight: 0.3},
		).
		At(2, offBeatChoices()...).
		At(2.5, offBeatChoices()...).
		At(3, offBeatChoices()...).
		At(3.5,
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.5},
			markov.Choice{Event: markov.RestFor(0.5), Weight: 0.5},
		).
		Otherwise(markov.Choice{Event: markov.Beat(1), Weight: 1})
}

// bassRhythmTable builds one looped bar; every choice lands on or before the
// bar line.
func bassRhythmTable() *markov.RhythmTable {
	return markov.NewRhythmTable("bass rhythm").
		At(0,
			markov.Choice{Event: markov.Beat(1), Weight: 0.4},
			markov.Choice{Event: markov.Beat(2), Weight: 0.3},
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.2},
			markov.Choice{Event: markov.Beat(1.5), Weight: 0.1},
		).
		At(0.5,
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.5},
			markov.Choice{Event: markov.RestFor(0.5), Weight: 0.2},
			markov.Choice{Event: markov.Beat(1.5), Weight: 0.3},
		).
		At(1,
			markov.Choice{Event: markov.Beat(1), Weight: 0.6},
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.2},
			markov.Choice{Event: markov.RestFor(1), Weight: 0.2},
		).
		At(1.5,
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.7},
			markov.Choice{Event: markov.RestFor(0.5), Weight: 0.3},
		).
		At(2,
			markov.Choice{Event: markov.Beat(2), Weight: 0.3},
			markov.Choice{Event: markov.Beat(1), Weight: 0.5},
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.2},
		).
		At(2.5,
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.6},
			markov.Choice{Event: markov.Beat(1.5), Weight: 0.4},
		).
		At(3,
			markov.Choice{Event: markov.Beat(1), Weight: 0.6},
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.4},
		).
		At(3.5,
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.8},
			markov.Choice{Event: markov.RestFor(0.5), Weight: 0.2},
		).
		Otherwise(markov.Choice{Event: markov.Beat(1), Weight: 1})
}

var stepWeights = [][]float64{
	{0.05, 0.3, 0.2, 0.15, 0.1, 0.1, 0.1},
	{0.2, 0.05, 0.3, 0.15, 0.1, 0.1, 0.1},
	{0.15, 0.3, 0.05, 0.2, 0.1, 0.1, 0.1},
	{0.1, 0.15, 0.2, 0.05, 0.3, 0.1, 0.1},
	{0.1, 0.1, 0.1, 0.2, 0.05, 0.3, 0.15},
	{0.1, 0.1, 0.1, 0.15, 0.2, 0.05, 0.3},
	{0.1, 0.1, 0.1, 0.15, 0.2, 0.3, 0.05},
}

// pitchRule favours stepwise motion from prev and boosts the three tones of
// the sounding triad.
func pitchRule(prev, chord int) (markov.Distribution, error) {
	if chord < 0 || chord > maxDegree {
		return nil, fmt.Errorf("%w: chord degree %d", markov.ErrNoMatchingRule, chord)
	}
	row := stepWeights[len(stepWeights)-1]
	if prev >= 0 && prev < len(stepWeights)-1 {
		row = stepWeights[prev]
	}
	dist := make(markov.Distribution, len(row))
	copy(dist, row)
	for _, tone := range []int{chord, (chord + 2) % 7, (chord + 4) % 7} {
		dist[tone] *= chordToneBoost
	}
	return dist, nil
}
