package markov

import (
	"fmt"
	"testing"

	"github.com/james-see/urftunes/pkg/prng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRhythmReachesTarget(t *testing.T) {
	table := NewRhythmTable("test").
		At(0, Choice{Beat(1.5), 0.5}, Choice{RestFor(1), 0.5}).
		Otherwise(Choice{Beat(0.5), 0.4}, Choice{Beat(2), 0.6})

	const maxEvent = 2.0
	for i := 0; i < 50; i++ {
		seed := fmt.Sprintf("rhythm-%d", i)
		events, err := BuildRhythm(table.Rule(), 4, 7, prng.New(seed))
		require.NoError(t, err, seed)
		total := TotalBeats(events)
		assert.GreaterOrEqual(t, total, 7.0, seed)
		assert.Less(t, total, 7.0+maxEvent, seed)
	}
}

func TestBuildRhythmKeysByPositionInBar(t *testing.T) {
	var positions []float64
	rule := func(p float64) ([]Choice, error) {
		positions = append(positions, p)
		return []Choice{{Beat(1.5), 1}}, nil
	}
	_, err := BuildRhythm(rule, 4, 6, &scripted{draws: []float64{0}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1.5, 3, 0.5}, positions)
}

func TestBuildRhythmMissingPosition(t *testing.T) {
	table := NewRhythmTable("sparse").At(0, Choice{Beat(1), 1})
	_, err := BuildRhythm(table.Rule(), 4, 4, prng.New("x"))
	assert.ErrorIs(t, err, ErrNoMatchingRule)
}

func TestBuildRhythmRejectsZeroDuration(t *testing.T) {
	table := NewRhythmTable("zero").Otherwise(Choice{Beat(0), 1})
	_, err := BuildRhythm(table.Rule(), 4, 4, prng.New("x"))
	assert.ErrorIs(t, err, ErrInvalidDistribution)
}

func TestBuildNotesFollowsChordAndSkipsRests(t *testing.T) {
	rhythm := []Event{Beat(2), RestFor(2), Beat(1), Beat(3), Beat(4)}
	chords := []int{3, 5}

	type call struct{ prev, chord int }
	var calls []call
	rule := func(prev, chord int) (Distribution, error) {
		calls = append(calls, call{prev, chord})
		// Always pick the chord root.
		d := make(Distribution, 7)
		d[chord] = 1
		return d, nil
	}

	notes, err := BuildNotes(rule, rhythm, chords, 4, &scripted{draws: []float64{0.5}})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 5, 3}, notes)
	assert.Equal(t, []call{{0, 3}, {3, 5}, {5, 5}, {5, 3}}, calls)
	assert.Len(t, notes, Sounding(rhythm))
}

func TestAttach(t *testing.T) {
	rhythm := []Event{Beat(1), RestFor(0.5), Beat(0.5)}
	events, err := Attach(rhythm, []int{4, 6})
	require.NoError(t, err)
	assert.Equal(t, []Event{{Duration: 1, Note: 4}, {Duration: 0.5, Rest: true}, {Duration: 0.5, Note: 6}}, events)

	_, err = Attach(rhythm, []int{1})
	assert.Error(t, err)
	_, err = Attach(rhythm, []int{1, 2, 3})
	assert.Error(t, err)
}

func TestRepeat(t *testing.T) {
	events := Repeat([]Event{Beat(1), RestFor(1)}, 3)
	assert.Len(t, events, 6)
	assert.Equal(t, 6.0, TotalBeats(events))
}
