// Package scheduler turns a built Song into absolute-time instrument
// triggers. Each pass keeps its own beat counter; all of them share the
// tempo and the Timeline.
package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/james-see/urftunes/pkg/composer"
	"github.com/james-see/urftunes/pkg/voice"
)

// Track groups triggers by musical role.
type Track string

const (
	TrackDrums      Track = "drums"
	TrackBass       Track = "bass"
	TrackMelody     Track = "melody"
	TrackBackground Track = "background"
)

// Trigger is one call to an instrument voice.
type Trigger struct {
	Track      Track             `json:"track"`
	Instrument voice.Instrument  `json:"instrument"`
	Options    voice.PlayOptions `json:"options"`
}

// Options control the parts of playback not encoded in the song.
type Options struct {
	// LeadIn is the silence in seconds before the intro.
	LeadIn float64 `json:"lead_in" yaml:"lead_in"`
	// IntroBars is the number of drum-only bars before the body.
	IntroBars int `json:"intro_bars" yaml:"intro_bars"`
	// BassOctaveDivisor divides the chord tonic frequency for the bass.
	BassOctaveDivisor float64 `json:"bass_octave_divisor" yaml:"bass_octave_divisor"`
}

// DefaultOptions returns a 0.1 s lead-in, one intro bar and a bass two
// octaves below the melody.
func DefaultOptions() Options {
	return Options{
		LeadIn:            0.1,
		IntroBars:         1,
		BassOctaveDivisor: 4,
	}
}

// Scheduler converts songs to trigger streams.
type Scheduler struct {
	opts Options
}

// New returns a scheduler. Zero option fields take their defaults, except
// IntroBars, which may be zero.
func New(opts Options) *Scheduler {
	def := DefaultOptions()
	if opts.LeadIn <= 0 {
		opts.LeadIn = def.LeadIn
	}
	if opts.IntroBars < 0 {
		opts.IntroBars = 0
	}
	if opts.BassOctaveDivisor <= 0 {
		opts.BassOctaveDivisor = def.BassOctaveDivisor
	}
	return &Scheduler{opts: opts}
}

// Options returns the effective options.
func (s *Scheduler) Options() Options {
	return s.opts
}

// BodyStart is the absolute time, in seconds, at which form slot 0 starts.
func (s *Scheduler) BodyStart(song *composer.Song, tempo Tempo) float64 {
	return s.opts.LeadIn + float64(s.opts.IntroBars*song.BeatsPerBar)*tempo.SecondsPerBeat()
}

// EndingStart is the absolute time at which the ending starts.
func (s *Scheduler) EndingStart(song *composer.Song, tempo Tempo) float64 {
	return s.BodyStart(song, tempo) + NewTimeline(song).BodyBeats()*tempo.SecondsPerBeat()
}

// Schedule runs the intro, drum, bass, melody, background and ending passes
// and returns their triggers ordered by start time. Triggers within a track
// keep their pass order.
func (s *Scheduler) Schedule(song *composer.Song, tempo Tempo) ([]Trigger, error) {
	logger := log.WithFields(log.Fields{
		"function": "scheduler.Schedule",
	})

	if song == nil {
		return nil, errors.New("nil song")
	}
	if tempo.BeatsPerMinute <= 0 || math.IsInf(tempo.BeatsPerMinute, 0) || math.IsNaN(tempo.BeatsPerMinute) {
		return nil, fmt.Errorf("invalid tempo %v bpm", tempo.BeatsPerMinute)
	}
	if err := song.Validate(); err != nil {
		return nil, err
	}

	spb := tempo.SecondsPerBeat()
	tl := NewTimeline(song)
	intro := clock{origin: s.opts.LeadIn, secondsPerBeat: spb}
	body := clock{origin: s.BodyStart(song, tempo), secondsPerBeat: spb}
	ending := clock{origin: s.EndingStart(song, tempo), secondsPerBeat: spb}

	var out []Trigger
	out = append(out, s.introPass(song, intro)...)
	out = append(out, drumPass(tl, body)...)
	out = append(out, s.bassPass(song, tl, body)...)
	out = append(out, melodyPass(song, tl, body)...)
	out = append(out, backgroundPass(song, tl, body)...)
	out = append(out, s.endingPass(song, ending)...)

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Options.StartTime < out[b].Options.StartTime
	})

	logger.Debugf("scheduled %d triggers at %.1f bpm, body starts at %.3fs, ending at %.3fs",
		len(out), tempo.BeatsPerMinute, body.origin, ending.origin)
	return out, nil
}

// Play schedules song and issues every trigger to orchestra. It resolves all
// voices before playing anything, so an unknown instrument plays nothing.
func (s *Scheduler) Play(orchestra voice.Orchestra, song *composer.Song, tempo Tempo) ([]voice.Handle, error) {
	triggers, err := s.Schedule(song, tempo)
	if err != nil {
		return nil, err
	}
	return Dispatch(orchestra, triggers)
}

// Dispatch issues triggers to orchestra in order.
func Dispatch(orchestra voice.Orchestra, triggers []Trigger) ([]voice.Handle, error) {
	voices := make(map[voice.Instrument]voice.Voice)
	for _, tr := range triggers {
		if _, ok := voices[tr.Instrument]; ok {
			continue
		}
		v, err := orchestra.Voice(tr.Instrument)
		if err != nil {
			return nil, fmt.Errorf("voice %s: %w", tr.Instrument, err)
		}
		voices[tr.Instrument] = v
	}

	handles := make([]voice.Handle, 0, len(triggers))
	for _, tr := range triggers {
		handles = append(handles, voices[tr.Instrument].Play(tr.Options))
	}
	return handles, nil
}

// drumBar is a four-beat rock pattern: kick on 1 and 3, snare on 3.
func drumBar(c clock, bar float64) []Trigger {
	return []Trigger{
		{Track: TrackDrums, Instrument: voice.BassDrum, Options: voice.PlayOptions{StartTime: c.at(bar)}},
		{Track: TrackDrums, Instrument: voice.BassDrum, Options: voice.PlayOptions{StartTime: c.at(bar + 2)}},
		{Track: TrackDrums, Instrument: voice.SnareDrum, Options: voice.PlayOptions{StartTime: c.at(bar + 2)}},
	}
}

func (s *Scheduler) introPass(song *composer.Song, c clock) []Trigger {
	var out []Trigger
	for bar := 0; bar < s.opts.IntroBars; bar++ {
		out = append(out, drumBar(c, float64(bar*song.BeatsPerBar))...)
	}
	return out
}

func drumPass(tl Timeline, c clock) []Trigger {
	var out []Trigger
	for slot := 0; slot < tl.Slots; slot++ {
		for m := 0; m < tl.MeasuresPerSegment; m++ {
			out = append(out, drumBar(c, tl.MeasureStart(slot, m))...)
		}
	}
	return out
}

// walk loops events from beat 0 until length beats are filled, clipping the
// last event to the boundary. fn receives the event's start beat and its
// clipped duration.
func walk(events []composer.Event, length float64, fn func(beat float64, ev composer.Event, dur float64)) {
	if len(events) == 0 {
		return
	}
	beat := 0.0
	for i := 0; beat < length; i++ {
		ev := events[i%len(events)]
		fn(beat, ev, math.Min(ev.Duration, length-beat))
		beat += ev.Duration
	}
}

func chordAt(chords []int, beat float64, beatsPerBar int) int {
	measure := int(math.Floor(beat / float64(beatsPerBar)))
	return chords[measure%len(chords)]
}

func (s *Scheduler) bassLine(chords []int, events []composer.Event, length float64, beatsPerBar int, c clock, origin float64) []Trigger {
	var out []Trigger
	walk(events, length, func(beat float64, ev composer.Event, dur float64) {
		if ev.Rest {
			return
		}
		chord := chordAt(chords, beat, beatsPerBar)
		out = append(out, Trigger{
			Track:      TrackBass,
			Instrument: voice.Bass,
			Options: voice.PlayOptions{
				StartTime: c.at(origin + beat),
				Pitch:     Frequency(chord) / s.opts.BassOctaveDivisor,
				Duration:  c.span(dur),
			},
		})
	})
	return out
}

func melodyLine(events []composer.Event, length float64, c clock, origin float64) []Trigger {
	var out []Trigger
	walk(events, length, func(beat float64, ev composer.Event, dur float64) {
		if ev.Rest {
			return
		}
		out = append(out, Trigger{
			Track:      TrackMelody,
			Instrument: voice.Lead,
			Options: voice.PlayOptions{
				StartTime: c.at(origin + beat),
				Pitch:     Frequency(ev.Note),
				Duration:  c.span(dur),
			},
		})
	})
	return out
}

func (s *Scheduler) bassPass(song *composer.Song, tl Timeline, c clock) []Trigger {
	var out []Trigger
	for slot, idx := range song.Form {
		seg := song.Segments[idx]
		out = append(out, s.bassLine(seg.Chords, seg.Bass, tl.SegmentBeats(), song.BeatsPerBar, c, tl.SegmentStart(slot))...)
	}
	return out
}

func melodyPass(song *composer.Song, tl Timeline, c clock) []Trigger {
	var out []Trigger
	for slot, idx := range song.Form {
		out = append(out, melodyLine(song.Segments[idx].Melody, tl.SegmentBeats(), c, tl.SegmentStart(slot))...)
	}
	return out
}

// backgroundPass restarts every layer at its segment's start and loops its
// rhythm for the whole segment. Multishot offsets add extra hits after each
// sounding event; hits past the segment end are dropped.
func backgroundPass(song *composer.Song, tl Timeline, c clock) []Trigger {
	var out []Trigger
	for slot, idx := range song.Form {
		start := tl.SegmentStart(slot)
		for _, layer := range song.Segments[idx].Backgrounds {
			shots := layer.Params.Multishot
			if len(shots) == 0 {
				shots = []float64{0}
			}
			walk(layer.Rhythm, tl.SegmentBeats(), func(beat float64, ev composer.Event, _ float64) {
				if ev.Rest {
					return
				}
				for _, offset := range shots {
					if beat+offset >= tl.SegmentBeats() {
						continue
					}
					out = append(out, Trigger{
						Track:      TrackBackground,
						Instrument: voice.Noise,
						Options: voice.PlayOptions{
							StartTime: c.at(start + beat + offset),
							Duration:  layer.Params.Duration,
							Volume:    layer.Params.Volume,
							Filter:    layer.Filter(),
						},
					})
				}
			})
		}
	}
	return out
}

func (s *Scheduler) endingPass(song *composer.Song, c clock) []Trigger {
	e := song.Ending
	out := s.bassLine(e.Chords, e.Bass, e.Beats, song.BeatsPerBar, c, 0)
	return append(out, melodyLine(e.Melody, e.Beats, c, 0)...)
}
