// Package session holds a composition session: the seed vector, the song
// built from it, its tempo, and the handles of whatever is currently playing.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/james-see/urftunes/pkg/composer"
	"github.com/james-see/urftunes/pkg/scheduler"
	"github.com/james-see/urftunes/pkg/seed"
	"github.com/james-see/urftunes/pkg/voice"
)

// ErrSessionNotFound is returned by Store lookups for unknown IDs.
var ErrSessionNotFound = errors.New("session not found")

// Settings fix how a session derives tempo and schedules playback.
type Settings struct {
	TempoBase   float64
	TempoWeight float64
	TempoKeys   []string
	Playback    scheduler.Options
}

// DefaultSettings returns the stock tempo formula and playback options.
func DefaultSettings() Settings {
	return Settings{
		TempoBase:   scheduler.DefaultTempoBase,
		TempoWeight: scheduler.DefaultTempoWeight,
		TempoKeys:   seed.TempoKeys,
		Playback:    scheduler.DefaultOptions(),
	}
}

// Session is one user's composition. It replaces any process-wide "current
// song": callers hold the session and pass it around.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu        sync.Mutex
	settings  Settings
	sched     *scheduler.Scheduler
	vector    seed.Vector
	song      *composer.Song
	tempo     scheduler.Tempo
	handles   []voice.Handle
	startedAt time.Time
}

// New builds the song for v.
func New(v seed.Vector, settings Settings) (*Session, error) {
	s := &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		settings:  settings,
		sched:     scheduler.New(settings.Playback),
	}
	if err := s.Rebuild(v); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebuild stops playback and replaces the song with one built from v. On
// error the previous song is kept.
func (s *Session) Rebuild(v seed.Vector) error {
	song, err := composer.Build(v)
	if err != nil {
		return fmt.Errorf("failed to build song: %w", err)
	}
	tempo := scheduler.TempoFor(v, s.settings.TempoBase, s.settings.TempoWeight, s.settings.TempoKeys)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.vector = v.Clone()
	s.song = song
	s.tempo = tempo
	return nil
}

// Vector returns a copy of the seed vector.
func (s *Session) Vector() seed.Vector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vector.Clone()
}

// Song returns the current song. It must not be modified.
func (s *Session) Song() *composer.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.song
}

// Tempo returns the current tempo.
func (s *Session) Tempo() scheduler.Tempo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

// Scheduler returns the scheduler the session plays through.
func (s *Session) Scheduler() *scheduler.Scheduler {
	return s.sched
}

// Triggers schedules the current song without playing it.
func (s *Session) Triggers() ([]scheduler.Trigger, error) {
	s.mu.Lock()
	song, tempo := s.song, s.tempo
	s.mu.Unlock()
	return s.sched.Schedule(song, tempo)
}

// Play stops anything already playing, then issues every trigger to
// orchestra and keeps the handles.
func (s *Session) Play(orchestra voice.Orchestra) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	handles, err := s.sched.Play(orchestra, s.song, s.tempo)
	if err != nil {
		return 0, fmt.Errorf("failed to play session %s: %w", s.ID, err)
	}
	s.handles = handles
	s.startedAt = time.Now()

	log.WithFields(log.Fields{
		"function": "session.Play",
		"session":  s.ID.String(),
	}).Debugf("issued %d triggers", len(handles))
	return len(handles), nil
}

// Playing reports whether handles are held.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles) > 0
}

// Elapsed is the time since Play, or zero when stopped.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.handles) == 0 {
		return 0
	}
	return time.Since(s.startedAt)
}

// Stop silences every handle issued by Play. Calling it again is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	for _, h := range s.handles {
		h.Stop()
	}
	s.handles = nil
	s.startedAt = time.Time{}
}
