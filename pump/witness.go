package pump

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coregx/redos/nfa"
	"github.com/coregx/redos/rangeset"
)

// ErrUnreachable indicates that no input leads from state 0 to a state.
var ErrUnreachable = errors.New("no input reaches state")

// Witness is a concrete attack on a vulnerable pattern: the input
// Prefix + Pump*n + Suffix makes a backtracking matcher do work that grows
// exponentially with n.
type Witness struct {
	// State is the decision point the pump returns to
	State nfa.StateID

	Prefix string
	Pump   string
	Suffix string
}

// Attack returns Prefix + Pump repeated n times + Suffix.
func (w *Witness) Attack(n int) string {
	if n < 0 {
		n = 0
	}
	return w.Prefix + strings.Repeat(w.Pump, n) + w.Suffix
}

// String returns a human-readable representation of the witness
func (w *Witness) String() string {
	return fmt.Sprintf("prefix=%q pump=%q suffix=%q", w.Prefix, w.Pump, w.Suffix)
}

// Report is the outcome of Analyze.
type Report struct {
	// DecisionPoints lists every decision point in ascending id order
	DecisionPoints []nfa.StateID

	// Witness is set when some decision point is pumpable
	Witness *Witness

	// Exhausted lists decision points whose search ran out of budget
	Exhausted []nfa.StateID

	// Unreachable lists decision points no input can reach, for example
	// because every path to them crosses an end anchor. They are not searched.
	Unreachable []nfa.StateID
}

// Pumpable reports whether a witness was found.
func (r *Report) Pumpable() bool {
	return r.Witness != nil
}

// Analyze searches every decision point of n in id order and returns a
// report with the witness of the first pumpable one.
//
// Each search starts after the prefix that reaches its decision point. A
// search that runs out of budget does not stop the analysis: a later
// decision point may still be proven pumpable. If none is, the report is
// returned together with the first *SearchError, since the absence of a
// witness is then inconclusive.
func Analyze(n *nfa.NFA, maxPairVisits int) (*Report, error) {
	r := &Report{DecisionPoints: DecisionPoints(n)}

	searcher := NewSearcher(n)
	searcher.SetMaxPairVisits(maxPairVisits)

	var budgetErr error
	for _, dp := range r.DecisionPoints {
		prefix, pending, ok, err := prefixPath(n, dp)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.Unreachable = append(r.Unreachable, dp)
			continue
		}

		pumped, ok, err := searcher.PumpAfter(dp, string(prefix), pending)
		if err != nil {
			if errors.Is(err, ErrSearchBudgetExceeded) {
				r.Exhausted = append(r.Exhausted, dp)
				if budgetErr == nil {
					budgetErr = err
				}
				continue
			}
			return nil, err
		}
		if !ok {
			continue
		}

		suffix, err := Suffix(n, dp, []rune(string(prefix)+pumped))
		if err != nil {
			return nil, err
		}
		r.Witness = &Witness{State: dp, Prefix: string(prefix), Pump: pumped, Suffix: suffix}
		return r, nil
	}
	return r, budgetErr
}

// NewWitness completes a pumpable substring found at state into a Witness.
// It fails with ErrUnreachable when no input reaches state.
func NewWitness(n *nfa.NFA, state nfa.StateID, pumped string) (*Witness, error) {
	prefix, ok, err := Prefix(n, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnreachable, state)
	}
	suffix, err := Suffix(n, state, []rune(prefix+pumped))
	if err != nil {
		return nil, err
	}
	return &Witness{State: state, Prefix: prefix, Pump: pumped, Suffix: suffix}, nil
}

// step advances synthesized input over a transition. pending constrains the
// next code point, as left by the word boundaries passed since the last one
// read; step returns the code points the transition contributes and the new
// constraint. It reports false when the transition cannot be part of input
// that continues past it: an end anchor (more input follows), a start anchor
// past position 0, a word boundary that cannot hold here, or a character set
// with nothing left to read.
func step(t nfa.Transition, input []rune, pending rangeset.Set) ([]rune, rangeset.Set, bool, error) {
	switch t.Cond.Kind() {
	case nfa.CondEndAnchor:
		return nil, nil, false, nil
	case nfa.CondStartAnchor:
		return nil, pending, len(input) == 0, nil
	}
	set, err := t.Cond.Ranges(input, len(input))
	if err != nil {
		return nil, nil, false, err
	}
	set = rangeset.Intersect(set, pending)
	if t.Cond.IsZeroWidth() {
		return nil, set, !set.IsEmpty(), nil
	}
	c, ok := rangeset.Representative(set)
	if !ok {
		return nil, nil, false, nil
	}
	return []rune{c}, rangeset.Full(), true, nil
}

// Prefix returns input leading from state 0 to state along the first simple
// path found depth-first. It reports false if no path exists.
func Prefix(n *nfa.NFA, state nfa.StateID) (string, bool, error) {
	found, _, ok, err := prefixPath(n, state)
	if err != nil || !ok {
		return "", false, err
	}
	return string(found), true, nil
}

// prefixPath is Prefix that also returns the constraint the path leaves on
// the next code point.
func prefixPath(n *nfa.NFA, state nfa.StateID) ([]rune, rangeset.Set, bool, error) {
	if n.State(state) == nil {
		return nil, nil, false, fmt.Errorf("%w: %d", nfa.ErrInvalidState, state)
	}
	onPath := make([]bool, n.States())

	var walk func(u nfa.StateID, input []rune, pending rangeset.Set) ([]rune, rangeset.Set, bool, error)
	walk = func(u nfa.StateID, input []rune, pending rangeset.Set) ([]rune, rangeset.Set, bool, error) {
		if u == state {
			return input, pending, true, nil
		}
		onPath[u] = true
		defer func() { onPath[u] = false }()

		for _, t := range n.State(u).Transitions() {
			if onPath[t.Next] {
				continue
			}
			chars, next, ok, err := step(t, input, pending)
			if err != nil {
				return nil, nil, false, err
			}
			if !ok {
				continue
			}
			in := append(input[:len(input):len(input)], chars...)
			if found, left, ok, err := walk(t.Next, in, next); err != nil || ok {
				return found, left, ok, err
			}
		}
		return nil, nil, false, nil
	}

	return walk(0, nil, rangeset.Full())
}

// Suffix returns input that, read from state after context, makes the
// overall match fail. It follows the first simple path depth-first to a
// failure point: a state from which no accepting state is reachable without
// reading input, and whose readable code points do not cover the domain. The
// suffix ends with a code point that state cannot read.
//
// When state itself accepts no suffix can force a failure and the empty
// string is returned. The empty string is also returned when no failure point
// exists.
func Suffix(n *nfa.NFA, state nfa.StateID, context []rune) (string, error) {
	if n.State(state) == nil {
		return "", fmt.Errorf("%w: %d", nfa.ErrInvalidState, state)
	}
	if n.IsAccepting(state) {
		return "", nil
	}
	onPath := make([]bool, n.States())

	var walk func(u nfa.StateID, input []rune, pending rangeset.Set) ([]rune, bool, error)
	walk = func(u nfa.StateID, input []rune, pending rangeset.Set) ([]rune, bool, error) {
		if c, ok := failureRune(n, u); ok {
			return append(input[:len(input):len(input)], c), true, nil
		}
		onPath[u] = true
		defer func() { onPath[u] = false }()

		for _, t := range n.State(u).Transitions() {
			if onPath[t.Next] {
				continue
			}
			chars, next, ok, err := step(t, input, pending)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				continue
			}
			in := append(input[:len(input):len(input)], chars...)
			if found, ok, err := walk(t.Next, in, next); err != nil || ok {
				return found, ok, err
			}
		}
		return nil, false, nil
	}

	found, ok, err := walk(state, context, rangeset.Full())
	if err != nil || !ok {
		return "", err
	}
	return string(found[len(context):]), nil
}

// failureRune reports a code point that no path from u can read, provided u
// cannot reach an accepting state through word-boundary edges alone.
func failureRune(n *nfa.NFA, u nfa.StateID) (rune, bool) {
	var readable rangeset.Set
	seen := map[nfa.StateID]bool{u: true}
	queue := []nfa.StateID{u}
	for head := 0; head < len(queue); head++ {
		s := n.State(queue[head])
		if s.IsAccepting() {
			return 0, false
		}
		for _, t := range s.Transitions() {
			switch t.Cond.Kind() {
			case nfa.CondCharSet:
				readable = rangeset.Union(readable, t.Cond.Set())
			case nfa.CondWordBoundary, nfa.CondNonWordBoundary:
				if !seen[t.Next] {
					seen[t.Next] = true
					queue = append(queue, t.Next)
				}
			}
		}
	}
	return rangeset.Representative(rangeset.Invert(readable))
}
