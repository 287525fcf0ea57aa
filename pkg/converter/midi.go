package converter

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/urftunes/pkg/voice"
)

// General MIDI assignments for each instrument.
const (
	drumChannel   = 9
	kickNote      = 36
	snareNote     = 38
	programBass   = 38  // Synth Bass 1
	programLead   = 80  // Lead 1 (square)
	programNoise  = 122 // Seashore
	defaultTicks  = 480
	maxVelocity   = 127
	velocityScale = 200
)

type channelAssignment struct {
	name    string
	channel uint8
	program uint8
	drums   bool
}

var assignments = map[voice.Instrument]channelAssignment{
	voice.BassDrum:  {"Drums", drumChannel, 0, true},
	voice.SnareDrum: {"Drums", drumChannel, 0, true},
	voice.Bass:      {"Bass", 1, programBass, false},
	voice.Lead:      {"Lead", 0, programLead, false},
	voice.Noise:     {"Background", 2, programNoise, false},
}

// trackOrder is the order tracks are written after the tempo track.
var trackOrder = []string{"Drums", "Bass", "Lead", "Background"}

// MIDIConverter handles MIDI file parsing and generation
type MIDIConverter struct {
	ticksPerQuarter uint16
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter(ticksPerQuarter uint16) *MIDIConverter {
	if ticksPerQuarter == 0 {
		ticksPerQuarter = defaultTicks
	}
	return &MIDIConverter{ticksPerQuarter: ticksPerQuarter}
}

// FrequencyToNote returns the nearest MIDI note for a frequency in Hz.
func FrequencyToNote(freq float64) uint8 {
	if freq <= 0 {
		return 0
	}
	n := math.Round(69 + 12*math.Log2(freq/440))
	return uint8(math.Max(0, math.Min(127, n)))
}

func velocity(volume float64) uint8 {
	v := math.Round(volume * velocityScale)
	return uint8(math.Max(1, math.Min(maxVelocity, v)))
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  []byte
}

// GenerateMIDI writes notes as a format-1 SMF: a tempo track followed by one
// track per instrument group. Times are converted from seconds at bpm.
func (m *MIDIConverter) GenerateMIDI(notes []voice.Note, bpm float64) ([]byte, error) {
	if len(notes) == 0 {
		return nil, errors.New("no notes to render")
	}
	if bpm <= 0 {
		return nil, fmt.Errorf("invalid tempo %v", bpm)
	}

	ticksPerSecond := float64(m.ticksPerQuarter) * bpm / 60
	toTick := func(sec float64) uint32 {
		return uint32(math.Round(math.Max(0, sec) * ticksPerSecond))
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var conductor smf.Track
	conductor.Add(0, trackName("urftunes"))
	// Tempo meta event
	microsecondsPerBeat := uint32(60000000.0 / bpm)
	conductor.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))
	// Time signature (4/4)
	conductor.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))
	conductor.Close(0)
	if err := s.Add(conductor); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	grouped := make(map[string][]timedMessage)
	channels := make(map[string]channelAssignment)
	for _, n := range notes {
		a, ok := assignments[n.Instrument]
		if !ok {
			return nil, fmt.Errorf("%w: %s", voice.ErrUnknownInstrument, n.Instrument)
		}
		channels[a.name] = a

		key := noteFor(n)
		start := toTick(n.Options.StartTime)
		end := toTick(n.End())
		if end <= start {
			end = start + 1
		}
		grouped[a.name] = append(grouped[a.name],
			timedMessage{tick: start, msg: midi.NoteOn(a.channel, key, velocity(n.Options.Volume))},
			timedMessage{tick: end, off: true, msg: midi.NoteOff(a.channel, key)},
		)
	}

	for _, name := range trackOrder {
		msgs, ok := grouped[name]
		if !ok {
			continue
		}
		a := channels[name]

		// Note-offs go first at equal ticks so repeated notes retrigger.
		sort.SliceStable(msgs, func(i, j int) bool {
			if msgs[i].tick != msgs[j].tick {
				return msgs[i].tick < msgs[j].tick
			}
			return msgs[i].off && !msgs[j].off
		})

		var track smf.Track
		track.Add(0, trackName(name))
		if !a.drums {
			track.Add(0, midi.ProgramChange(a.channel, a.program))
		}
		var currentTick uint32
		for _, tm := range msgs {
			track.Add(tm.tick-currentTick, tm.msg)
			currentTick = tm.tick
		}
		track.Close(0)
		if err := s.Add(track); err != nil {
			return nil, fmt.Errorf("failed to add track: %w", err)
		}
	}

	// Write to buffer
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMIDIFile writes notes to a MIDI file
func (m *MIDIConverter) WriteMIDIFile(notes []voice.Note, bpm float64, filename string) error {
	data, err := m.GenerateMIDI(notes, bpm)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func noteFor(n voice.Note) uint8 {
	switch n.Instrument {
	case voice.BassDrum:
		return kickNote
	case voice.SnareDrum:
		return snareNote
	case voice.Noise:
		if n.Options.Filter != nil {
			return FrequencyToNote(n.Options.Filter.InitialFrequency)
		}
	}
	return FrequencyToNote(n.Options.Pitch)
}

// trackName builds a sequence/track name meta event (FF 03).
func trackName(name string) smf.Message {
	if len(name) > 127 {
		name = name[:127]
	}
	return smf.Message(append([]byte{0xFF, 0x03, byte(len(name))}, name...))
}

// ParseMIDIFile reads a MIDI file and summarises it
func (m *MIDIConverter) ParseMIDIFile(filename string) (*Summary, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return m.ParseMIDI(data)
}

// ParseMIDI counts the notes, tracks and length of MIDI data.
func (m *MIDIConverter) ParseMIDI(data []byte) (*Summary, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	summary := &Summary{
		Tracks:          len(s.Tracks),
		NotesPerChannel: make(map[uint8]int),
		Tempo:           120.0,
		TicksPerQuarter: m.ticksPerQuarter,
	}

	// Get ticks per quarter note from time format
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		summary.TicksPerQuarter = mt.Resolution()
	}

	for _, track := range s.Tracks {
		var currentTick int64
		for _, ev := range track {
			currentTick += int64(ev.Delta)
			msg := ev.Message

			// Check for tempo meta message (FF 51 03 ...)
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 {
					summary.Tempo = 60000000.0 / float64(microsecondsPerBeat)
				}
			}

			// Track name (FF 03 len text)
			if len(msg) >= 3 && msg[0] == 0xFF && msg[1] == 0x03 && len(msg) >= 3+int(msg[2]) {
				summary.TrackNames = append(summary.TrackNames, string(msg[3:3+int(msg[2])]))
			}

			// Note On: 0x9n nn vv with a non-zero velocity
			if len(msg) >= 3 && msg[0] >= 0x90 && msg[0] <= 0x9F && msg[2] > 0 {
				summary.Notes++
				summary.NotesPerChannel[msg[0]&0x0F]++
			}
		}
		if currentTick > summary.LengthTicks {
			summary.LengthTicks = currentTick
		}
	}

	if summary.TicksPerQuarter > 0 && summary.Tempo > 0 {
		beats := float64(summary.LengthTicks) / float64(summary.TicksPerQuarter)
		summary.Seconds = beats * 60 / summary.Tempo
	}
	return summary, nil
}
