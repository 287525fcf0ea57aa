package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultsToZero(t *testing.T) {
	v := Vector{"ahri": 3, "zed": -2}
	assert.Equal(t, 3, v.Get("ahri"))
	assert.Equal(t, 0, v.Get("zed"))
	assert.Equal(t, 0, v.Get("missing"))
}

func TestDerive(t *testing.T) {
	v := Vector{"hecarim": 3, "rammus": 1, "zilean": 2}
	assert.Equal(t, "tempo|3.0.1.2", v.Derive("tempo", TempoKeys))
	assert.Equal(t, "form|0.0.0.0.0", v.Derive("form", FormKeys))
}

func TestDeriveIgnoresUnrelatedKeys(t *testing.T) {
	base := Vector{"annie": 2}
	changed := base.With("ahri", 5)
	assert.Equal(t, base.Derive("form", FormKeys), changed.Derive("form", FormKeys))
	assert.NotContains(t, base, "ahri", "With must not mutate the receiver")
}

func TestSum(t *testing.T) {
	v := Vector{"hecarim": 3, "masteryi": 0, "rammus": 1, "zilean": 2, "ahri": 1}
	assert.Equal(t, 6, v.Sum(TempoKeys))
}

func TestKeySubsetsAreDisjoint(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Known() {
		assert.False(t, seen[k], "key %q appears in more than one subset", k)
		seen[k] = true
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Master Yi", "masteryi"},
		{"AHRI", "ahri"},
		{" lee\tsin ", "leesin"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Vector
	}{
		{"json", `{"Hecarim": 3, "Master Yi": 0, "ahri": 1}`, Vector{"hecarim": 3, "masteryi": 0, "ahri": 1}},
		{"yaml", "zilean: 2\nrammus: 1\n", Vector{"zilean": 2, "rammus": 1}},
		{"negative clamps", `{"zed": -4}`, Vector{"zed": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("- not\n- a\n- mapping\n"))
	assert.Error(t, err)
}

func TestParseRejectsCollidingKeys(t *testing.T) {
	data := []byte(`{"Master Yi": 5, "masteryi": 0, "MasterYi": 3}`)
	_, first := Parse(data)
	require.ErrorIs(t, first, ErrDuplicateKey)
	assert.Contains(t, first.Error(), `"Master Yi" and "MasterYi"`)

	for i := 0; i < 50; i++ {
		_, err := Parse(data)
		require.Error(t, err)
		assert.Equal(t, first.Error(), err.Error())
	}

	_, err := Parse([]byte("Ahri: 2\nahri: 2\n"))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ahri": 4}`), 0644))

	v, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Get("ahri"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
