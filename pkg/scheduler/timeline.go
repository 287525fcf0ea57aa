package scheduler

import (
	"github.com/james-see/urftunes/pkg/composer"
)

// Timeline derives segment boundaries in beats. Every pass reads boundaries
// from here so that drums, bass, melody and backgrounds stay aligned.
type Timeline struct {
	Slots              int
	BeatsPerBar        int
	MeasuresPerSegment int
}

// NewTimeline returns the timeline of song's body.
func NewTimeline(song *composer.Song) Timeline {
	return Timeline{
		Slots:              len(song.Form),
		BeatsPerBar:        song.BeatsPerBar,
		MeasuresPerSegment: song.MeasuresPerSegment,
	}
}

// SegmentBeats is the length of one form slot.
func (tl Timeline) SegmentBeats() float64 {
	return float64(tl.BeatsPerBar * tl.MeasuresPerSegment)
}

// SegmentStart is the beat at which form slot starts, relative to the body.
func (tl Timeline) SegmentStart(slot int) float64 {
	return float64(slot) * tl.SegmentBeats()
}

// MeasureStart is the beat of measure m within form slot.
func (tl Timeline) MeasureStart(slot, m int) float64 {
	return tl.SegmentStart(slot) + float64(m*tl.BeatsPerBar)
}

// BodyBeats is the length of the whole body.
func (tl Timeline) BodyBeats() float64 {
	return tl.SegmentStart(tl.Slots)
}

// clock converts beats to seconds from an origin.
type clock struct {
	origin         float64
	secondsPerBeat float64
}

func (c clock) at(beat float64) float64 {
	return c.origin + beat*c.secondsPerBeat
}

func (c clock) span(beats float64) float64 {
	return beats * c.secondsPerBeat
}
