// Package converter exports built songs (JSON, YAML, MessagePack) and renders
// their scheduled triggers to Standard MIDI Files.
package converter

import (
	"github.com/james-see/urftunes/pkg/composer"
	"github.com/james-see/urftunes/pkg/scheduler"
	"github.com/james-see/urftunes/pkg/seed"
	"github.com/james-see/urftunes/pkg/session"
)

// Document is an exported song together with what it was built from.
type Document struct {
	Seed  seed.Vector     `json:"seed" yaml:"seed" msgpack:"seed"`
	Tempo scheduler.Tempo `json:"tempo" yaml:"tempo" msgpack:"tempo"`
	Song  *composer.Song  `json:"song" yaml:"song" msgpack:"song"`
}

// Summary describes a parsed MIDI file.
type Summary struct {
	Tracks          int           `json:"tracks"`
	TrackNames      []string      `json:"track_names,omitempty"`
	Notes           int           `json:"notes"`
	NotesPerChannel map[uint8]int `json:"notes_per_channel"`
	Tempo           float64       `json:"tempo"`
	TicksPerQuarter uint16        `json:"ticks_per_quarter"`
	LengthTicks     int64         `json:"length_ticks"`
	// Seconds assumes the tempo does not change.
	Seconds float64 `json:"seconds"`
}

// ConversionResult is an encoded song and the document it came from.
// Filename is set once the data has been written.
type ConversionResult struct {
	Document *Document
	Format   Format
	Data     []byte
	Filename string
}

// Converter builds, encodes and renders songs.
type Converter struct {
	settings session.Settings
	midi     *MIDIConverter
}

// New creates a new Converter. ticksPerQuarter of zero uses 480.
func New(settings session.Settings, ticksPerQuarter uint16) *Converter {
	return &Converter{settings: settings, midi: NewMIDIConverter(ticksPerQuarter)}
}

// Settings returns the session settings songs are built with.
func (c *Converter) Settings() session.Settings {
	return c.settings
}
