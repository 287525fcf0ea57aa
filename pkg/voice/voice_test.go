package voice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentText(t *testing.T) {
	for _, i := range Instruments {
		t.Run(i.String(), func(t *testing.T) {
			b, err := i.MarshalText()
			require.NoError(t, err)
			var got Instrument
			require.NoError(t, got.UnmarshalText(b))
			assert.Equal(t, i, got)
		})
	}
	var bad Instrument
	assert.ErrorIs(t, bad.UnmarshalText([]byte("kazoo")), ErrUnknownInstrument)
}

func TestFilterKindJSON(t *testing.T) {
	b, err := json.Marshal(FilterParams{Kind: HighPass, InitialFrequency: 1000})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"kind":"highpass"`)

	var f FilterParams
	require.NoError(t, json.Unmarshal(b, &f))
	assert.Equal(t, HighPass, f.Kind)
}

func TestWithDefaults(t *testing.T) {
	drum := PlayOptions{StartTime: 1, Pitch: 999}.WithDefaults(BassDrum)
	assert.Equal(t, 150.0, drum.Pitch, "drums have a fixed pitch")
	assert.Equal(t, 0.1, drum.Duration)

	lead := PlayOptions{StartTime: 2, Pitch: 261.63}.WithDefaults(Lead)
	assert.Equal(t, 261.63, lead.Pitch)
	assert.Equal(t, 0.15, lead.Volume)

	noise := PlayOptions{Filter: &FilterParams{Kind: Notch, InitialFrequency: 5000}}.WithDefaults(Noise)
	require.NotNil(t, noise.Filter)
	assert.Equal(t, 5000.0, noise.Filter.FinalFrequency)
	assert.Equal(t, 0.001, noise.Filter.InitialQ)
	assert.Equal(t, 1.0, noise.Volume)

	bare := PlayOptions{}.WithDefaults(Noise)
	assert.Equal(t, 440.0, bare.Filter.InitialFrequency)
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	lead, err := rec.Voice(Lead)
	require.NoError(t, err)
	drum, err := rec.Voice(BassDrum)
	require.NoError(t, err)

	h1 := lead.Play(PlayOptions{StartTime: 2, Pitch: 440})
	drum.Play(PlayOptions{StartTime: 1})
	lead.Play(PlayOptions{StartTime: 1, Pitch: 330})
	assert.Equal(t, 3, rec.Len())

	sorted := rec.Sorted()
	assert.Equal(t, BassDrum, sorted[0].Instrument, "ties keep play order")
	assert.Equal(t, 330.0, sorted[1].Options.Pitch)

	h1.Stop()
	h1.Stop()
	assert.Equal(t, 2, rec.Len())

	rec.Reset()
	assert.Zero(t, rec.Len())
}

func TestRecorderResetDetachesOldHandles(t *testing.T) {
	rec := NewRecorder()
	lead, err := rec.Voice(Lead)
	require.NoError(t, err)

	stale := lead.Play(PlayOptions{StartTime: 0, Pitch: 440})
	rec.Reset()
	lead.Play(PlayOptions{StartTime: 1, Pitch: 330})

	stale.Stop()
	notes := rec.Notes()
	require.Len(t, notes, 1, "a handle from before Reset must not silence new notes")
	assert.Equal(t, 330.0, notes[0].Options.Pitch)
}

func TestRecorderRestrictsInstruments(t *testing.T) {
	rec := NewRecorder(Lead)
	_, err := rec.Voice(Bass)
	assert.ErrorIs(t, err, ErrUnknownInstrument)
	_, err = rec.Voice(Instrument(42))
	assert.ErrorIs(t, err, ErrUnknownInstrument)
}
