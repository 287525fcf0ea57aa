// Package seed holds the seed vector (per-champion mastery levels) and the
// derivation of per-stage seeds from fixed, ordered key subsets.
package seed

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

// ErrDuplicateKey means two keys of a seed file name the same champion once
// normalised, e.g. "Master Yi" and "masteryi".
var ErrDuplicateKey = errors.New("duplicate champion key")

// MaxLevel is the highest mastery level the rule tables are written for.
const MaxLevel = 5

// Key subsets. Each generation stage reads only its own subset so that
// changing an unrelated champion leaves that stage untouched.
var (
	TempoKeys   = []string{"hecarim", "masteryi", "rammus", "zilean"}
	FormKeys    = []string{"annie", "ashe", "garen", "lux", "teemo"}
	HarmonyKeys = []string{"jinx", "leona", "malphite", "nasus", "sona"}
	MelodyKeys  = []string{"ezreal", "janna", "orianna", "thresh", "vayne"}

	// BackgroundKeys lists, per segment, the champions that can add a
	// background layer to it.
	BackgroundKeys = [][]string{
		{"ahri", "zed"},
		{"fizz", "nami"},
		{"karthus", "kennen", "sion"},
	}
)

// Vector maps a champion key to its mastery level. Missing keys read as 0.
type Vector map[string]int

// Get returns the level for key; missing and negative levels read as 0.
func (v Vector) Get(key string) int {
	level := v[key]
	if level < 0 {
		return 0
	}
	return level
}

// Sum adds the levels of keys.
func (v Vector) Sum(keys []string) int {
	total := 0
	for _, k := range keys {
		total += v.Get(k)
	}
	return total
}

// Derive builds the seed string for a stage from the ordered levels of keys.
func (v Vector) Derive(stage string, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.Itoa(v.Get(k))
	}
	return stage + "|" + strings.Join(parts, ".")
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, level := range v {
		out[k] = level
	}
	return out
}

// With returns a copy of v with key set to level.
func (v Vector) With(key string, level int) Vector {
	out := v.Clone()
	out[NormalizeKey(key)] = level
	return out
}

// Known returns every key any stage reads, in a stable order.
func Known() []string {
	var keys []string
	keys = append(keys, TempoKeys...)
	keys = append(keys, FormKeys...)
	keys = append(keys, HarmonyKeys...)
	keys = append(keys, MelodyKeys...)
	for _, seg := range BackgroundKeys {
		keys = append(keys, seg...)
	}
	return keys
}

// NormalizeKey strips whitespace and lower-cases, so "Master Yi" and
// "masteryi" name the same champion.
func NormalizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, key)
}

// Parse decodes a JSON or YAML mapping of champion to level. Keys that
// normalise to the same champion are rejected with ErrDuplicateKey.
func Parse(data []byte) (Vector, error) {
	logger := log.WithFields(log.Fields{
		"function": "seed.Parse",
	})

	var raw map[string]int
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse seed vector: %w", err)
	}

	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}
	sort.Strings(names)

	v := make(Vector, len(raw))
	source := make(map[string]string, len(raw))
	for _, k := range names {
		level := raw[k]
		key := NormalizeKey(k)
		if key == "" {
			continue
		}
		if prev, ok := source[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q both name %q", ErrDuplicateKey, prev, k, key)
		}
		source[key] = k
		if level < 0 {
			logger.Warnf("negative level %d for %q, using 0", level, key)
			level = 0
		}
		v[key] = level
	}
	return v, nil
}

// Load reads and parses a seed vector file.
func Load(filename string) (Vector, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}
