package composer

import (
	"errors"

	"github.com/james-see/urftunes/pkg/markov"
)

// CadenceTarget maps a reduced scale degree to the closing note: the tonic
// for 0..2, the fifth (degree 4) for 3..4, the upper tonic otherwise.
// Degree 5 therefore closes on 7. One worked example of this mapping gives
// 5 -> 4 instead; the ranges above are what is implemented.
func CadenceTarget(degree int) int {
	switch {
	case degree <= 2:
		return 0
	case degree <= 4:
		return 4
	default:
		return upperTonic
	}
}

// reduce brings a degree into 0..6, returning the number of octaves removed.
func reduce(degree int) (int, int) {
	shift := 0
	for degree > maxDegree {
		degree -= 7
		shift++
	}
	return degree, shift
}

// buildEnding derives the cadence from the melody notes of the last segment
// played. The octave shift is kept on the Ending but not applied.
func buildEnding(lastNotes []int) (Ending, error) {
	if len(lastNotes) == 0 {
		return Ending{}, errors.New("last segment has no melody notes")
	}
	degree, shift := reduce(lastNotes[len(lastNotes)-1])
	target := CadenceTarget(degree)

	note := markov.Beat(EndingBeats)
	note.Note = target
	return Ending{
		Chords:      []int{target % 7},
		Bass:        []Event{markov.Beat(EndingBeats)},
		Melody:      []Event{note},
		Beats:       EndingBeats,
		OctaveShift: shift,
	}, nil
}
