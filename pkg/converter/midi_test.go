package converter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/urftunes/pkg/voice"
)

func TestFrequencyToNote(t *testing.T) {
	tests := []struct {
		freq float64
		want uint8
	}{
		{440, 69},
		{261.63, 60},
		{493.88, 71},
		{65.41, 36},
		{0, 0},
		{100000, 127},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FrequencyToNote(tt.freq), "freq %v", tt.freq)
	}
}

func TestRenderMIDI(t *testing.T) {
	conv := newTestConverter()
	doc, err := conv.Compose(exampleVector)
	require.NoError(t, err)

	rec, err := conv.Record(doc)
	require.NoError(t, err)

	data, err := conv.RenderMIDI(doc)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data[:4]))

	summary, err := NewMIDIConverter(0).ParseMIDI(data)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Tracks)
	assert.Equal(t, []string{"urftunes", "Drums", "Bass", "Lead", "Background"}, summary.TrackNames)
	assert.Equal(t, rec.Len(), summary.Notes)
	assert.Equal(t, uint16(480), summary.TicksPerQuarter)
	assert.InDelta(t, 89.0, summary.Tempo, 0.01)
	assert.Positive(t, summary.NotesPerChannel[drumChannel])

	end := 0.0
	for _, n := range rec.Notes() {
		if n.End() > end {
			end = n.End()
		}
	}
	assert.InDelta(t, end, summary.Seconds, 0.05)
}

func TestGenerateMIDIWithoutBackground(t *testing.T) {
	notes := []voice.Note{
		{Instrument: voice.Lead, Options: voice.PlayOptions{StartTime: 0, Pitch: 440, Duration: 0.5, Volume: 0.15}},
		{Instrument: voice.Lead, Options: voice.PlayOptions{StartTime: 0.5, Pitch: 440, Duration: 0.5, Volume: 0.15}},
		{Instrument: voice.BassDrum, Options: voice.PlayOptions{StartTime: 0, Duration: 0.1, Volume: 2}},
	}
	m := NewMIDIConverter(96)
	path := filepath.Join(t.TempDir(), "out.mid")
	require.NoError(t, m.WriteMIDIFile(notes, 120, path))

	summary, err := m.ParseMIDIFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Tracks)
	assert.Equal(t, 3, summary.Notes)
	assert.Equal(t, uint16(96), summary.TicksPerQuarter)
	assert.Equal(t, 2, summary.NotesPerChannel[0])
	assert.Equal(t, int64(192), summary.LengthTicks)
}

func TestGenerateMIDIErrors(t *testing.T) {
	m := NewMIDIConverter(0)
	_, err := m.GenerateMIDI(nil, 120)
	assert.Error(t, err)

	notes := []voice.Note{{Instrument: voice.Lead, Options: voice.PlayOptions{Pitch: 440, Duration: 1}}}
	_, err = m.GenerateMIDI(notes, 0)
	assert.Error(t, err)

	_, err = m.GenerateMIDI([]voice.Note{{Instrument: voice.Instrument(42)}}, 120)
	assert.ErrorIs(t, err, voice.ErrUnknownInstrument)

	_, err = m.ParseMIDI([]byte("not midi"))
	assert.Error(t, err)
}
