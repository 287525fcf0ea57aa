package composer

import (
	"fmt"

	"github.com/james-see/urftunes/pkg/markov"
	"github.com/james-see/urftunes/pkg/seed"
	"github.com/james-see/urftunes/pkg/voice"
)

type preset struct {
	kind   voice.FilterKind
	params LayerParams
}

// presets maps each background champion to its filtered-noise sound.
var presets = map[string]preset{
	"ahri": {voice.BandPass, LayerParams{
		InitialFrequency: 10000, InitialQ: 100, FinalFrequency: 440, FinalQ: 10,
		Volume: 0.4, Duration: 0.3,
	}},
	"zed": {voice.HighPass, LayerParams{
		InitialFrequency: 6000, InitialQ: 1, FinalFrequency: 9000, FinalQ: 5,
		Volume: 0.2, Duration: 0.1, Multishot: []float64{0, 0.25},
	}},
	"fizz": {voice.LowPass, LayerParams{
		InitialFrequency: 300, InitialQ: 5, FinalFrequency: 1200, FinalQ: 1,
		Volume: 0.5, Duration: 0.5,
	}},
	"nami": {voice.Notch, LayerParams{
		InitialFrequency: 2000, InitialQ: 0.5, FinalFrequency: 500, FinalQ: 8,
		Volume: 0.3, Duration: 1.0,
	}},
	"karthus": {voice.LowPass, LayerParams{
		InitialFrequency: 200, InitialQ: 10, FinalFrequency: 80, FinalQ: 20,
		Volume: 0.6, Duration: 1.5,
	}},
	"kennen": {voice.HighPass, LayerParams{
		InitialFrequency: 8000, InitialQ: 2, FinalFrequency: 8000, FinalQ: 2,
		Volume: 0.15, Duration: 0.05, Multishot: []float64{0, 0.125, 0.25},
	}},
	"sion": {voice.BandPass, LayerParams{
		InitialFrequency: 150, InitialQ: 20, FinalFrequency: 600, FinalQ: 2,
		Volume: 0.5, Duration: 0.4,
	}},
}

// levelTables holds one background rhythm table per mastery level; index 0
// is level 1. Higher levels are busier.
var levelTables = []*markov.RhythmTable{
	markov.NewRhythmTable("background level 1").
		Otherwise(
			markov.Choice{Event: markov.Beat(4), Weight: 0.6},
			markov.Choice{Event: markov.RestFor(4), Weight: 0.4},
		),
	markov.NewRhythmTable("background level 2").
		Otherwise(
			markov.Choice{Event: markov.Beat(2), Weight: 0.6},
			markov.Choice{Event: markov.RestFor(2), Weight: 0.4},
		),
	markov.NewRhythmTable("background level 3").
		At(0,
			markov.Choice{Event: markov.Beat(1), Weight: 0.8},
			markov.Choice{Event: markov.Beat(2), Weight: 0.2},
		).
		Otherwise(
			markov.Choice{Event: markov.Beat(1), Weight: 0.5},
			markov.Choice{Event: markov.RestFor(1), Weight: 0.3},
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.2},
		),
	markov.NewRhythmTable("background level 4").
		At(0, markov.Choice{Event: markov.Beat(0.5), Weight: 1}).
		Otherwise(
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.5},
			markov.Choice{Event: markov.RestFor(0.5), Weight: 0.3},
			markov.Choice{Event: markov.Beat(1), Weight: 0.2},
		),
	markov.NewRhythmTable("background level 5").
		Otherwise(
			markov.Choice{Event: markov.Beat(0.5), Weight: 0.4},
			markov.Choice{Event: markov.Beat(0.25), Weight: 0.4},
			markov.Choice{Event: markov.RestFor(0.25), Weight: 0.2},
		),
}

// levelTable returns the rhythm table for a positive level, clamping levels
// above the highest table.
func levelTable(level int) *markov.RhythmTable {
	if level > len(levelTables) {
		level = len(levelTables)
	}
	return levelTables[level-1]
}

// PresetFor reports the filter kind and parameters used for a background key.
func PresetFor(key string) (voice.FilterKind, LayerParams, bool) {
	p, ok := presets[key]
	if !ok {
		return 0, LayerParams{}, false
	}
	params := p.params
	params.Multishot = append([]float64(nil), p.params.Multishot...)
	return p.kind, params, true
}

// buildBackgrounds creates the layers for segment i, one per non-zero key in
// the segment's key set, in key order.
func buildBackgrounds(v seed.Vector, segment int, beatsPerBar float64) ([]BackgroundLayer, error) {
	if segment >= len(seed.BackgroundKeys) {
		return nil, nil
	}
	keys := seed.BackgroundKeys[segment]
	src := newSource(v.Derive(fmt.Sprintf("background%d", segment), keys))

	var layers []BackgroundLayer
	for _, key := range keys {
		level := v.Get(key)
		if level == 0 {
			continue
		}
		kind, params, ok := PresetFor(key)
		if !ok {
			return nil, fmt.Errorf("no background preset for %q", key)
		}
		rhythm, err := markov.BuildRhythm(levelTable(level).Rule(), beatsPerBar, beatsPerBar, src)
		if err != nil {
			return nil, fmt.Errorf("background %s: %w", key, err)
		}
		layers = append(layers, BackgroundLayer{
			Key:    key,
			Level:  level,
			Kind:   kind,
			Params: params,
			Rhythm: rhythm,
		})
	}
	return layers, nil
}
