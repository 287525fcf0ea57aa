// Package voice defines the instrument-voice contract the scheduler plays
// through. Synthesis lives behind it; the scheduler only knows Play.
package voice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownInstrument is returned by an Orchestra without a voice for the
// requested instrument.
var ErrUnknownInstrument = errors.New("unknown instrument")

// Instrument names a voice in the orchestra.
type Instrument int

const (
	BassDrum Instrument = iota
	SnareDrum
	Bass
	Lead
	Noise
)

// Instruments lists every instrument in channel order.
var Instruments = []Instrument{BassDrum, SnareDrum, Bass, Lead, Noise}

var instrumentNames = []string{"bassdrum", "snare", "bass", "lead", "noise"}

func (i Instrument) String() string {
	if i < 0 || int(i) >= len(instrumentNames) {
		return fmt.Sprintf("instrument(%d)", int(i))
	}
	return instrumentNames[i]
}

// MarshalText implements encoding.TextMarshaler.
func (i Instrument) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Instrument) UnmarshalText(b []byte) error {
	for n, name := range instrumentNames {
		if strings.EqualFold(string(b), name) {
			*i = Instrument(n)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownInstrument, b)
}

// FilterKind selects the filter applied to the noise voice.
type FilterKind int

const (
	BandPass FilterKind = iota
	Notch
	LowPass
	HighPass
)

var filterNames = []string{"bandpass", "notch", "lowpass", "highpass"}

func (k FilterKind) String() string {
	if k < 0 || int(k) >= len(filterNames) {
		return fmt.Sprintf("filter(%d)", int(k))
	}
	return filterNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k FilterKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FilterKind) UnmarshalText(b []byte) error {
	for n, name := range filterNames {
		if strings.EqualFold(string(b), name) {
			*k = FilterKind(n)
			return nil
		}
	}
	return fmt.Errorf("unknown filter kind %q", b)
}

// FilterParams describes a filtered-noise sweep. Frequencies are in Hz.
type FilterParams struct {
	Kind             FilterKind `json:"kind" yaml:"kind" msgpack:"kind"`
	InitialFrequency float64    `json:"initial_frequency" yaml:"initial_frequency" msgpack:"initial_frequency"`
	InitialQ         float64    `json:"initial_q" yaml:"initial_q" msgpack:"initial_q"`
	FinalFrequency   float64    `json:"final_frequency" yaml:"final_frequency" msgpack:"final_frequency"`
	FinalQ           float64    `json:"final_q" yaml:"final_q" msgpack:"final_q"`
}

// PlayOptions carries one trigger. Times and durations are in seconds,
// Pitch in Hz. Zero fields fall back to the instrument's defaults.
type PlayOptions struct {
	StartTime float64       `json:"start_time"`
	Pitch     float64       `json:"pitch,omitempty"`
	Duration  float64       `json:"duration,omitempty"`
	Volume    float64       `json:"volume,omitempty"`
	Filter    *FilterParams `json:"filter,omitempty"`
}

// Handle is a sounding (or scheduled) note that can be silenced.
type Handle interface {
	Stop()
}

// Voice plays notes for one instrument.
type Voice interface {
	Play(opts PlayOptions) Handle
}

// Orchestra resolves instruments to voices.
type Orchestra interface {
	Voice(i Instrument) (Voice, error)
}

// WithDefaults fills zero fields with the instrument's defaults.
func (o PlayOptions) WithDefaults(i Instrument) PlayOptions {
	switch i {
	case BassDrum:
		o.Pitch = 150
		o.Duration = 0.1
		if o.Volume == 0 {
			o.Volume = 2
		}
	case SnareDrum:
		o.Pitch = 100
		o.Duration = 0.2
		if o.Volume == 0 {
			o.Volume = 0.3
		}
	case Bass:
		o.Pitch = orDefault(o.Pitch, 440)
		o.Duration = orDefault(o.Duration, 1)
		o.Volume = orDefault(o.Volume, 0.5)
	case Lead:
		o.Pitch = orDefault(o.Pitch, 440)
		o.Duration = orDefault(o.Duration, 1)
		o.Volume = orDefault(o.Volume, 0.15)
	case Noise:
		o.Duration = orDefault(o.Duration, 1)
		o.Volume = orDefault(o.Volume, 1)
		f := FilterParams{}
		if o.Filter != nil {
			f = *o.Filter
		}
		f.InitialFrequency = orDefault(f.InitialFrequency, 440)
		f.InitialQ = orDefault(f.InitialQ, 0.001)
		f.FinalFrequency = orDefault(f.FinalFrequency, f.InitialFrequency)
		f.FinalQ = orDefault(f.FinalQ, f.InitialQ)
		o.Filter = &f
		o.Pitch = orDefault(o.Pitch, f.InitialFrequency)
	}
	return o
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
