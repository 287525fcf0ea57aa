// Package prng provides seeded, independent pseudo-random streams so that a
// song can be rebuilt bit-for-bit from the same seed vector.
package prng

import (
	"hash/fnv"
	"math/rand/v2"
)

// Source is anything that yields floats in [0,1).
type Source interface {
	Next() float64
}

// Generator is a deterministic stream derived from a string seed.
// Instances never share state.
type Generator struct {
	seed string
	r    *rand.Rand
}

// New creates a generator for seed.
func New(seed string) *Generator {
	return &Generator{
		seed: seed,
		r:    rand.New(rand.NewPCG(hash64a(seed), hash64(seed))),
	}
}

// Next returns the next float in [0,1).
func (g *Generator) Next() float64 {
	return g.r.Float64()
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() string {
	return g.seed
}

func hash64a(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func hash64(s string) uint64 {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
