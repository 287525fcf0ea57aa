package markov

import (
	"fmt"
	"strconv"
	"strings"
)

type clauseKind int

const (
	kindExact clauseKind = iota
	kindSuffix
	kindPredicate
)

// group is a run of consecutive clauses of the same kind. Exact and suffix
// groups are indexed by the canonical tuple key, so a lookup is one map hit.
type group struct {
	kind   clauseKind
	n      int // suffix length, kindSuffix only
	byKey  map[string]Distribution
	label  string
	pred   func(history []int) bool
	weight Distribution
}

// Table is an ordered cascade of history clauses. The first clause that
// matches wins. A table without Otherwise treats a miss as ErrNoMatchingRule.
type Table struct {
	name      string
	groups    []*group
	otherwise Distribution
}

// NewTable returns an empty table. name only appears in errors.
func NewTable(name string) *Table {
	return &Table{name: name}
}

// Key canonicalises a state tuple, e.g. []int{0, 1, 2} -> "0,1,2".
func Key(states []int) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

// Exact matches when the whole history equals states.
func (t *Table) Exact(states []int, weights ...float64) *Table {
	g := t.tail(kindExact, 0)
	t.put(g, Key(states), weights)
	return t
}

// Suffix matches when the last len(states) entries of the history equal
// states.
func (t *Table) Suffix(states []int, weights ...float64) *Table {
	g := t.tail(kindSuffix, len(states))
	t.put(g, Key(states), weights)
	return t
}

// When matches when pred returns true.
func (t *Table) When(label string, pred func(history []int) bool, weights ...float64) *Table {
	t.groups = append(t.groups, &group{kind: kindPredicate, label: label, pred: pred, weight: weights})
	return t
}

// Otherwise sets the catch-all distribution.
func (t *Table) Otherwise(weights ...float64) *Table {
	t.otherwise = weights
	return t
}

// Lookup returns the distribution for history.
func (t *Table) Lookup(history []int) (Distribution, error) {
	for _, g := range t.groups {
		switch g.kind {
		case kindExact:
			if d, ok := g.byKey[Key(history)]; ok {
				return d, nil
			}
		case kindSuffix:
			if len(history) < g.n {
				continue
			}
			if d, ok := g.byKey[Key(history[len(history)-g.n:])]; ok {
				return d, nil
			}
		case kindPredicate:
			if g.pred(history) {
				return g.weight, nil
			}
		}
	}
	if t.otherwise != nil {
		return t.otherwise, nil
	}
	return nil, fmt.Errorf("%w: %s table has no entry for [%s]", ErrNoMatchingRule, t.name, Key(history))
}

// Rule adapts the table to the sampler.
func (t *Table) Rule() Rule {
	return t.Lookup
}

func (t *Table) tail(kind clauseKind, n int) *group {
	if len(t.groups) > 0 {
		last := t.groups[len(t.groups)-1]
		if last.kind == kind && last.n == n {
			return last
		}
	}
	g := &group{kind: kind, n: n, byKey: make(map[string]Distribution)}
	t.groups = append(t.groups, g)
	return g
}

// put keeps the first entry for a key so earlier clauses still win.
func (t *Table) put(g *group, key string, weights []float64) {
	if _, dup := g.byKey[key]; dup {
		return
	}
	g.byKey[key] = weights
}
