package composer

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/james-see/urftunes/pkg/markov"
	"github.com/james-see/urftunes/pkg/prng"
	"github.com/james-see/urftunes/pkg/seed"
)

// Song shape. Every song has the same shape; the seed vector only changes the
// values sampled into it.
const (
	FormLength         = 8
	SegmentCount       = 3
	ChordsPerSegment   = 4
	BeatsPerBar        = 4
	MeasuresPerSegment = 16
	// MelodyBars is the length of the sampled melody phrase, repeated to fill
	// the segment.
	MelodyBars = 4
	BassBars   = 1
	// EndingBeats is how long the closing chord is held.
	EndingBeats = 8
)

func newSource(s string) prng.Source {
	return prng.New(s)
}

// Build composes the song for v. The same vector always yields the same song.
// Each stage draws from its own generator seeded only by its own keys.
func Build(v seed.Vector) (*Song, error) {
	logger := log.WithFields(log.Fields{
		"function": "composer.Build",
	})

	formSeed := v.Derive("form", seed.FormKeys)
	form, err := markov.Build(formTable().Rule(), FormLength, newSource(formSeed))
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	logger.Debugf("form %v from seed %q", form, formSeed)

	song := &Song{
		Form:               form,
		Segments:           make([]Segment, SegmentCount),
		BeatsPerBar:        BeatsPerBar,
		MeasuresPerSegment: MeasuresPerSegment,
	}

	// Chords for every segment come first, then the bass rhythms, from the
	// same harmony stream.
	harmony := newSource(v.Derive("harmony", seed.HarmonyKeys))
	chords := chordTable().Rule()
	for i := range song.Segments {
		song.Segments[i].Chords, err = markov.Build(chords, ChordsPerSegment, harmony)
		if err != nil {
			return nil, fmt.Errorf("failed to build chords for segment %d: %w", i, err)
		}
	}
	bass := bassRhythmTable().Rule()
	for i := range song.Segments {
		song.Segments[i].Bass, err = markov.BuildRhythm(bass, BeatsPerBar, BassBars*BeatsPerBar, harmony)
		if err != nil {
			return nil, fmt.Errorf("failed to build bass for segment %d: %w", i, err)
		}
	}

	melody := newSource(v.Derive("melody", seed.MelodyKeys))
	for i := range song.Segments {
		seg := &song.Segments[i]
		seg.Melody, err = buildMelody(seg.Chords, melody)
		if err != nil {
			return nil, fmt.Errorf("failed to build melody for segment %d: %w", i, err)
		}
		seg.Backgrounds, err = buildBackgrounds(v, i, BeatsPerBar)
		if err != nil {
			return nil, fmt.Errorf("failed to build backgrounds for segment %d: %w", i, err)
		}
		logger.Debugf("segment %d: chords %v, %d bass events, %d melody events, %d backgrounds",
			i, seg.Chords, len(seg.Bass), len(seg.Melody), len(seg.Backgrounds))
	}

	last, err := song.LastPlayed()
	if err != nil {
		return nil, err
	}
	song.Ending, err = buildEnding(last.MelodyNotes())
	if err != nil {
		return nil, fmt.Errorf("failed to build ending: %w", err)
	}

	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("built song is invalid: %w", err)
	}
	return song, nil
}

// buildMelody samples a phrase of MelodyBars bars, repeats it to fill the
// segment, then samples one note per sounding event against chords.
func buildMelody(chords []int, src prng.Source) ([]Event, error) {
	phrase, err := markov.BuildRhythm(melodyRhythmTable().Rule(), BeatsPerBar, MelodyBars*BeatsPerBar, src)
	if err != nil {
		return nil, err
	}
	rhythm := markov.Repeat(phrase, MeasuresPerSegment/MelodyBars)
	notes, err := markov.BuildNotes(pitchRule, rhythm, chords, BeatsPerBar, src)
	if err != nil {
		return nil, err
	}
	return markov.Attach(rhythm, notes)
}
