// Package pump decides whether a simplified NFA is vulnerable to catastrophic
// backtracking.
//
// A decision point is a state from which two distinct paths can read the
// same code point first, possibly after zero-width transitions. Searcher
// explores pairs of paths leaving a decision point over shared input; when
// both paths return to it, the input read along the way is a pumpable
// substring, and every repetition doubles the number of ways a backtracking
// engine can consume it. Analyze combines the
// search with prefix and suffix reconstruction into a Witness.
package pump

import (
	"github.com/coregx/redos/nfa"
	"github.com/coregx/redos/rangeset"
)

// IsDecisionPoint reports whether two distinct transitions of state id lead
// to paths that can read a common code point first. A path may pass
// zero-width transitions, other than end anchors, before it reads. The answer
// does not depend on transition order.
func IsDecisionPoint(n *nfa.NFA, id nfa.StateID) bool {
	s := n.State(id)
	if s == nil {
		return false
	}
	var seen []rangeset.Set
	for _, t := range s.Transitions() {
		sets := firstSets(n, id, t)
		for _, a := range sets {
			for _, b := range seen {
				if !rangeset.Intersect(a, b).IsEmpty() {
					return true
				}
			}
		}
		seen = append(seen, sets...)
	}
	return false
}

// firstSets returns the character set read first along each simple path
// that leaves id through t.
func firstSets(n *nfa.NFA, id nfa.StateID, t nfa.Transition) []rangeset.Set {
	var sets []rangeset.Set
	onPath := map[nfa.StateID]bool{id: true}

	var walk func(t nfa.Transition)
	walk = func(t nfa.Transition) {
		switch k := t.Cond.Kind(); {
		case k == nfa.CondCharSet:
			sets = append(sets, t.Cond.Set())
			return
		case !t.Cond.IsZeroWidth() || k == nfa.CondEndAnchor || onPath[t.Next]:
			return
		}
		onPath[t.Next] = true
		defer delete(onPath, t.Next)
		for _, next := range n.State(t.Next).Transitions() {
			walk(next)
		}
	}
	walk(t)
	return sets
}

// DecisionPoints returns the ids of all decision points of n in ascending order.
func DecisionPoints(n *nfa.NFA) []nfa.StateID {
	var out []nfa.StateID
	for it := n.Iter(); it.HasNext(); {
		s := it.Next()
		if IsDecisionPoint(n, s.ID()) {
			out = append(out, s.ID())
		}
	}
	return out
}
