package voice

import (
	"sort"
	"sync"
)

// Note is one recorded play.
type Note struct {
	Instrument Instrument  `json:"instrument"`
	Options    PlayOptions `json:"options"`
}

// End returns when the note stops sounding.
func (n Note) End() float64 {
	return n.Options.StartTime + n.Options.Duration
}

// Recorder is an Orchestra that captures every play instead of sounding it.
// It backs offline rendering (MIDI) and tests.
type Recorder struct {
	mu       sync.Mutex
	notes    []Note
	silenced []bool
	gen      int
	only     map[Instrument]bool
}

// NewRecorder returns a recorder. When instruments are given, only those
// resolve; the rest report ErrUnknownInstrument.
func NewRecorder(instruments ...Instrument) *Recorder {
	r := &Recorder{}
	if len(instruments) > 0 {
		r.only = make(map[Instrument]bool, len(instruments))
		for _, i := range instruments {
			r.only[i] = true
		}
	}
	return r
}

// Voice implements Orchestra.
func (r *Recorder) Voice(i Instrument) (Voice, error) {
	if i < 0 || int(i) >= len(instrumentNames) || (r.only != nil && !r.only[i]) {
		return nil, ErrUnknownInstrument
	}
	return &recordingVoice{rec: r, instrument: i}, nil
}

// Notes returns the recorded notes that were not stopped, in play order.
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Note, 0, len(r.notes))
	for i, n := range r.notes {
		if !r.silenced[i] {
			out = append(out, n)
		}
	}
	return out
}

// Sorted returns Notes ordered by start time, keeping play order for ties.
func (r *Recorder) Sorted() []Note {
	notes := r.Notes()
	sort.SliceStable(notes, func(a, b int) bool {
		return notes[a].Options.StartTime < notes[b].Options.StartTime
	})
	return notes
}

// Len returns how many notes are still live.
func (r *Recorder) Len() int {
	return len(r.Notes())
}

// Reset forgets everything recorded so far. Handles issued before Reset
// become no-ops.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
	r.silenced = nil
	r.gen++
}

func (r *Recorder) add(n Note) (gen, idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	r.silenced = append(r.silenced, false)
	return r.gen, len(r.notes) - 1
}

func (r *Recorder) silence(gen, idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen == r.gen && idx < len(r.silenced) {
		r.silenced[idx] = true
	}
}

type recordingVoice struct {
	rec        *Recorder
	instrument Instrument
}

func (v *recordingVoice) Play(opts PlayOptions) Handle {
	gen, idx := v.rec.add(Note{Instrument: v.instrument, Options: opts.WithDefaults(v.instrument)})
	return &recordedHandle{rec: v.rec, gen: gen, idx: idx}
}

type recordedHandle struct {
	rec  *Recorder
	gen  int
	idx  int
	once sync.Once
}

func (h *recordedHandle) Stop() {
	h.once.Do(func() { h.rec.silence(h.gen, h.idx) })
}
