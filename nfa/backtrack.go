package nfa

import (
	"errors"
)

// ErrStepLimit indicates the backtracker gave up after its step budget
var ErrStepLimit = errors.New("backtracking step limit exceeded")

// Backtracker is a reference matcher that interprets an NFA the way a naive
// backtracking regex engine does: at each position it tries every matching
// transition in order and backs up on failure. It is exponential in the worst
// case on purpose; Steps exposes the work done so tests can observe
// catastrophic backtracking without timing anything.
//
// The search uses an explicit stack whose depth is bounded by
// (len(input)+1) * (states+1). A zero-width transition is not followed into
// a state already on the current path at the same position, so zero-width
// cycles are cut instead of being retried in every order.
//
// A Backtracker is not safe for concurrent use.
type Backtracker struct {
	nfa *NFA

	// steps counts transition attempts since the last Match call
	steps int

	// maxSteps aborts a match with ErrStepLimit when positive
	maxSteps int

	stack []frame
}

// frame is one state on the current path and the next transition to try.
type frame struct {
	state StateID
	pos   int
	next  int
}

// NewBacktracker creates a new backtracker for the given NFA.
func NewBacktracker(nfa *NFA) *Backtracker {
	return &Backtracker{
		nfa: nfa,
	}
}

// SetMaxSteps sets the step budget of each Match call. Zero or a negative
// value removes the limit.
func (b *Backtracker) SetMaxSteps(n int) {
	b.maxSteps = n
}

// Steps returns the number of transition attempts made by the last Match.
func (b *Backtracker) Steps() int {
	return b.steps
}

// Match reports whether the automaton matches anywhere in input. Start
// positions are tried left to right; anchors are enforced by their
// conditions. A match succeeds as soon as an accepting state is reached.
func (b *Backtracker) Match(input string) (bool, error) {
	runes := []rune(input)
	b.steps = 0
	for start := 0; start <= len(runes); start++ {
		_, ok, err := b.matchAt(runes, start)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// MatchAt attempts a match starting exactly at code point offset start. It
// returns the end offset of the first match found in backtracking order.
func (b *Backtracker) MatchAt(input string, start int) (int, bool, error) {
	b.steps = 0
	return b.matchAt([]rune(input), start)
}

func (b *Backtracker) matchAt(input []rune, start int) (int, bool, error) {
	if b.nfa.States() == 0 || start < 0 || start > len(input) {
		return -1, false, nil
	}

	maxDepth := (len(input) + 1) * (b.nfa.States() + 1)
	b.stack = append(b.stack[:0], frame{state: 0, pos: start})

	for len(b.stack) > 0 {
		top := &b.stack[len(b.stack)-1]
		s := &b.nfa.states[top.state]

		if top.next == 0 && s.accepting {
			return top.pos, true, nil
		}
		if top.next >= len(s.transitions) {
			b.stack = b.stack[:len(b.stack)-1]
			continue
		}

		t := s.transitions[top.next]
		top.next++
		pos := top.pos

		b.steps++
		if b.maxSteps > 0 && b.steps > b.maxSteps {
			return -1, false, ErrStepLimit
		}

		n, ok, err := t.Cond.Match(input, pos)
		if err != nil {
			return -1, false, err
		}
		if !ok || len(b.stack) >= maxDepth {
			continue
		}
		if n == 0 && b.onPathAt(t.Next, pos) {
			continue
		}
		b.stack = append(b.stack, frame{state: t.Next, pos: pos + n})
	}
	return -1, false, nil
}

// onPathAt reports whether state was entered at pos on the current path.
// Positions never decrease along the stack, so only its tail is scanned.
func (b *Backtracker) onPathAt(state StateID, pos int) bool {
	for i := len(b.stack) - 1; i >= 0 && b.stack[i].pos == pos; i-- {
		if b.stack[i].state == state {
			return true
		}
	}
	return false
}
