package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/urftunes/pkg/seed"
	"github.com/james-see/urftunes/pkg/voice"
)

var exampleVector = seed.Vector{"hecarim": 3, "masteryi": 0, "rammus": 1, "zilean": 2, "ahri": 1}

func TestNewBuildsSong(t *testing.T) {
	s, err := New(exampleVector, DefaultSettings())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, s.ID)
	require.NotNil(t, s.Song())
	assert.InDelta(t, 89.0, s.Tempo().BeatsPerMinute, 1e-9)
	assert.Equal(t, exampleVector, s.Vector())
	assert.False(t, s.Playing())
}

func TestPlayAndStop(t *testing.T) {
	s, err := New(exampleVector, DefaultSettings())
	require.NoError(t, err)
	triggers, err := s.Triggers()
	require.NoError(t, err)

	rec := voice.NewRecorder()
	n, err := s.Play(rec)
	require.NoError(t, err)
	assert.Equal(t, len(triggers), n)
	assert.Equal(t, n, rec.Len())
	assert.True(t, s.Playing())

	s.Stop()
	assert.False(t, s.Playing())
	assert.Zero(t, rec.Len(), "every handle should be silenced")
	assert.Zero(t, s.Elapsed())

	s.Stop()
}

func TestPlayAgainReplacesHandles(t *testing.T) {
	s, err := New(exampleVector, DefaultSettings())
	require.NoError(t, err)
	rec := voice.NewRecorder()

	first, err := s.Play(rec)
	require.NoError(t, err)
	second, err := s.Play(rec)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, second, rec.Len(), "first playback should have been stopped")
}

func TestRebuildIsRepeatableAndStopsPlayback(t *testing.T) {
	s, err := New(exampleVector, DefaultSettings())
	require.NoError(t, err)
	original := s.Song()

	rec := voice.NewRecorder()
	_, err = s.Play(rec)
	require.NoError(t, err)

	other := exampleVector.With("annie", 4)
	require.NoError(t, s.Rebuild(other))
	assert.False(t, s.Playing())
	assert.Zero(t, rec.Len())

	require.NoError(t, s.Rebuild(exampleVector))
	if diff := cmp.Diff(original, s.Song()); diff != "" {
		t.Errorf("rebuild after playback changed the song (-want +got):\n%s", diff)
	}
}

func TestPlayFailureKeepsSessionStopped(t *testing.T) {
	s, err := New(exampleVector, DefaultSettings())
	require.NoError(t, err)
	_, err = s.Play(voice.NewRecorder(voice.Lead))
	assert.ErrorIs(t, err, voice.ErrUnknownInstrument)
	assert.False(t, s.Playing())
}

func TestStore(t *testing.T) {
	st := NewStore()
	a, err := New(exampleVector, DefaultSettings())
	require.NoError(t, err)
	b, err := New(seed.Vector{}, DefaultSettings())
	require.NoError(t, err)
	st.Add(a)
	st.Add(b)
	assert.Equal(t, 2, st.Len())

	got, err := st.Lookup(a.ID.String())
	require.NoError(t, err)
	assert.Same(t, a, got)
	assert.Len(t, st.List(), 2)

	_, err = st.Lookup("not-a-uuid")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	rec := voice.NewRecorder()
	_, err = a.Play(rec)
	require.NoError(t, err)
	require.NoError(t, st.Delete(a.ID))
	assert.Zero(t, rec.Len())
	assert.ErrorIs(t, st.Delete(a.ID), ErrSessionNotFound)
	_, err = st.Get(a.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
