// Package markov implements the seeded Markov-chain sampler used to generate
// song form, harmony, rhythm and melody.
//
// A Rule maps the full sampling history to a weight list over the next state.
// Weights need not sum to 1; they are normalised before the cumulative walk.
package markov

import (
	"errors"
	"fmt"

	"github.com/james-see/urftunes/pkg/prng"
)

var (
	// ErrNoMatchingRule means a rule table had no entry for the history or
	// context it was given. Rule tables are exhaustive, so this is an
	// authoring bug.
	ErrNoMatchingRule = errors.New("no matching rule")

	// ErrInvalidDistribution means a rule returned an empty, zero-sum or
	// negative weight list.
	ErrInvalidDistribution = errors.New("invalid distribution")
)

// Distribution is an ordered list of non-negative weights; index i is the
// weight of state i.
type Distribution []float64

// Rule returns the distribution over the next state given every state sampled
// so far.
type Rule func(history []int) (Distribution, error)

// Build samples exactly length states from rule. History is never truncated.
func Build(rule Rule, length int, src prng.Source) ([]int, error) {
	states := make([]int, 0, length)
	for i := 0; i < length; i++ {
		dist, err := rule(states)
		if err != nil {
			return nil, fmt.Errorf("state %d after %v: %w", i, states, err)
		}
		next, err := Sample(dist, src)
		if err != nil {
			return nil, fmt.Errorf("state %d after %v: %w", i, states, err)
		}
		states = append(states, next)
	}
	return states, nil
}

// Sample draws one index from dist.
func Sample(dist Distribution, src prng.Source) (int, error) {
	total, err := dist.sum()
	if err != nil {
		return 0, err
	}

	r := src.Next()
	cumulative := 0.0
	last := 0
	for i, w := range dist {
		if w == 0 {
			continue
		}
		cumulative += w / total
		if cumulative > r {
			return i, nil
		}
		last = i
	}
	// Rounding can leave the final cumulative weight a hair under r.
	return last, nil
}

func (d Distribution) sum() (float64, error) {
	if len(d) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDistribution)
	}
	total := 0.0
	for i, w := range d {
		if w < 0 {
			return 0, fmt.Errorf("%w: negative weight %v at %d", ErrInvalidDistribution, w, i)
		}
		total += w
	}
	if total <= 0 {
		return 0, fmt.Errorf("%w: weights sum to zero", ErrInvalidDistribution)
	}
	return total, nil
}
