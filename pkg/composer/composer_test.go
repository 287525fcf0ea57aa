package composer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/urftunes/pkg/markov"
	"github.com/james-see/urftunes/pkg/seed"
)

var exampleVector = seed.Vector{"hecarim": 3, "masteryi": 0, "rammus": 1, "zilean": 2, "ahri": 1}

func TestBuildIsDeterministic(t *testing.T) {
	vectors := []seed.Vector{
		{},
		exampleVector,
		{"annie": 5, "jinx": 2, "ezreal": 4, "sion": 3, "kennen": 1, "nami": 7},
	}
	for _, v := range vectors {
		a, err := Build(v)
		require.NoError(t, err)
		b, err := Build(v.Clone())
		require.NoError(t, err)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("Build(%v) not reproducible (-first +second):\n%s", v, diff)
		}
	}
}

func TestFormIgnoresOtherKeys(t *testing.T) {
	base, err := Build(exampleVector)
	require.NoError(t, err)

	for _, key := range []string{"jinx", "ezreal", "ahri", "hecarim", "sion"} {
		t.Run(key, func(t *testing.T) {
			other, err := Build(exampleVector.With(key, 4))
			require.NoError(t, err)
			assert.Equal(t, base.Form, other.Form)
		})
	}
}

func TestHarmonyIgnoresMelodyKeys(t *testing.T) {
	base, err := Build(exampleVector)
	require.NoError(t, err)
	other, err := Build(exampleVector.With("vayne", 3))
	require.NoError(t, err)
	for i := range base.Segments {
		assert.Equal(t, base.Segments[i].Chords, other.Segments[i].Chords)
		assert.Equal(t, base.Segments[i].Bass, other.Segments[i].Bass)
	}
}

func TestShapeInvariants(t *testing.T) {
	for _, v := range []seed.Vector{{}, exampleVector, {"annie": 1, "ashe": 2, "lux": 5, "sona": 3}} {
		song, err := Build(v)
		require.NoError(t, err)

		assert.Len(t, song.Form, FormLength)
		assert.Equal(t, 0, song.Form[0], "form always opens on A")
		assert.Contains(t, song.Form, 2, "C section must appear")
		require.Len(t, song.Segments, SegmentCount)

		for i, seg := range song.Segments {
			assert.Len(t, seg.Chords, ChordsPerSegment, "segment %d", i)
			assert.Equal(t, 0, seg.Chords[0], "progressions start on the tonic")
			for _, c := range seg.Chords {
				assert.True(t, c >= 0 && c <= 6, "chord %d out of range", c)
			}
			assert.Equal(t, markov.Sounding(seg.Melody), len(seg.MelodyNotes()))
			assert.Len(t, seg.MelodyRhythm(), len(seg.Melody))
			for _, n := range seg.MelodyNotes() {
				assert.True(t, n >= 0 && n <= 6, "note %d out of range", n)
			}
			assert.Equal(t, float64(song.BeatsPerSegment()), markov.TotalBeats(seg.Melody))
			assert.Equal(t, float64(BassBars*BeatsPerBar), markov.TotalBeats(seg.Bass))
		}
	}
}

func TestMelodyPhraseRepeats(t *testing.T) {
	song, err := Build(exampleVector)
	require.NoError(t, err)
	rhythm := song.Segments[0].MelodyRhythm()
	require.Zero(t, len(rhythm)%4)
	quarter := len(rhythm) / 4
	for i := 1; i < 4; i++ {
		assert.Equal(t, rhythm[:quarter], rhythm[i*quarter:(i+1)*quarter])
	}
}

func TestBackgroundPresence(t *testing.T) {
	v := seed.Vector{"ahri": 1, "nami": 3, "karthus": 2, "sion": 9}
	song, err := Build(v)
	require.NoError(t, err)

	for i, keys := range seed.BackgroundKeys {
		got := map[string]BackgroundLayer{}
		for _, layer := range song.Segments[i].Backgrounds {
			got[layer.Key] = layer
		}
		for _, key := range keys {
			layer, ok := got[key]
			assert.Equal(t, v.Get(key) > 0, ok, "segment %d key %s", i, key)
			if !ok {
				continue
			}
			assert.Equal(t, v.Get(key), layer.Level)
			total := markov.TotalBeats(layer.Rhythm)
			assert.GreaterOrEqual(t, total, float64(BeatsPerBar))
			assert.Less(t, total, float64(BeatsPerBar)+4)
		}
	}
}

func TestExampleVector(t *testing.T) {
	song, err := Build(exampleVector)
	require.NoError(t, err)
	require.NotEmpty(t, song.Segments[0].Backgrounds)
	assert.Equal(t, "ahri", song.Segments[0].Backgrounds[0].Key)
	assert.Empty(t, song.Segments[1].Backgrounds)
	assert.Empty(t, song.Segments[2].Backgrounds)

	again, err := Build(exampleVector)
	require.NoError(t, err)
	assert.Equal(t, song.Form, again.Form)
}

func TestEndingFollowsLastNote(t *testing.T) {
	for _, v := range []seed.Vector{{}, exampleVector, {"orianna": 2, "thresh": 1}} {
		song, err := Build(v)
		require.NoError(t, err)
		last, err := song.LastPlayed()
		require.NoError(t, err)
		notes := last.MelodyNotes()
		want := CadenceTarget(notes[len(notes)-1])
		assert.Equal(t, []int{want}, song.Ending.MelodyNotes())
		assert.Equal(t, []int{want % 7}, song.Ending.Chords)
		assert.Equal(t, float64(EndingBeats), song.Ending.Beats)
	}
}

func TestCadenceTarget(t *testing.T) {
	want := map[int]int{0: 0, 1: 0, 2: 0, 3: 4, 4: 4, 5: 7, 6: 7}
	for degree, target := range want {
		assert.Equal(t, target, CadenceTarget(degree), "degree %d", degree)
	}
}

func TestBuildEnding(t *testing.T) {
	tests := []struct {
		last      int
		wantNote  int
		wantShift int
	}{
		{0, 0, 0},
		{1, 0, 0},
		{2, 0, 0},
		{3, 4, 0},
		{4, 4, 0},
		{5, 7, 0},
		{6, 7, 0},
		{9, 0, 1},
		{11, 4, 1},
		{19, 7, 2},
	}
	for _, tt := range tests {
		e, err := buildEnding([]int{6, tt.last})
		require.NoError(t, err)
		assert.Equal(t, []int{tt.wantNote}, e.MelodyNotes(), "last note %d", tt.last)
		assert.Equal(t, tt.wantShift, e.OctaveShift, "last note %d", tt.last)
		require.Len(t, e.Bass, 1)
		assert.Equal(t, float64(EndingBeats), e.Bass[0].Duration)
	}

	_, err := buildEnding(nil)
	assert.Error(t, err)
}

func TestValidateRejectsBadForm(t *testing.T) {
	song, err := Build(exampleVector)
	require.NoError(t, err)
	song.Form = append(song.Form, 3)
	assert.ErrorIs(t, song.Validate(), ErrFormOutOfRange)
	_, err = song.LastPlayed()
	assert.ErrorIs(t, err, ErrFormOutOfRange)
}

func TestPitchRuleBoostsChordTones(t *testing.T) {
	dist, err := pitchRule(0, 4)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, dist[4], 1e-9)
	assert.InDelta(t, 0.2, dist[6], 1e-9)
	assert.InDelta(t, 0.6, dist[1], 1e-9)
	assert.InDelta(t, 0.2, dist[2], 1e-9)

	_, err = pitchRule(0, 7)
	assert.ErrorIs(t, err, markov.ErrNoMatchingRule)
}

func TestChordTableIsExhaustive(t *testing.T) {
	table := chordTable()
	var walk func(history []int)
	walk = func(history []int) {
		if len(history) == ChordsPerSegment {
			return
		}
		dist, err := table.Lookup(history)
		require.NoError(t, err, "history %v", history)
		for next, w := range dist {
			if w > 0 {
				walk(append(append([]int(nil), history...), next))
			}
		}
	}
	walk(nil)
}

func TestFormTableForcesCSection(t *testing.T) {
	dist, err := formTable().Lookup([]int{0, 0, 1, 0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, markov.Distribution{0, 0, 1}, dist)
}
