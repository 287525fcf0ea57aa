package scheduler

import (
	"math"

	"github.com/james-see/urftunes/pkg/seed"
)

const (
	DefaultTempoBase   = 80.0
	DefaultTempoWeight = 1.5
)

// Tempo is the playback speed of a song.
type Tempo struct {
	BeatsPerMinute float64 `json:"beats_per_minute" yaml:"beats_per_minute" msgpack:"beats_per_minute"`
}

// TempoFor computes base + weight * sum(levels of keys).
func TempoFor(v seed.Vector, base, weight float64, keys []string) Tempo {
	return Tempo{BeatsPerMinute: base + weight*float64(v.Sum(keys))}
}

// DefaultTempo uses the default base, weight and tempo keys.
func DefaultTempo(v seed.Vector) Tempo {
	return TempoFor(v, DefaultTempoBase, DefaultTempoWeight, seed.TempoKeys)
}

// SecondsPerBeat returns 60 / BPM.
func (t Tempo) SecondsPerBeat() float64 {
	return 60 / t.BeatsPerMinute
}

// scale holds C4..B4 in Hz.
var scale = [7]float64{261.63, 293.66, 329.63, 349.23, 392.00, 440.00, 493.88}

// Frequency maps a scale degree to Hz. Degree 7 is C5, -7 is C3.
func Frequency(degree int) float64 {
	octave := degree / 7
	step := degree % 7
	if step < 0 {
		step += 7
		octave--
	}
	return scale[step] * math.Pow(2, float64(octave))
}
