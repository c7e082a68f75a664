// Package nfa builds and simplifies the non-deterministic finite automaton
// that models a regular expression for backtracking analysis.
//
// Compile walks an ast.Pattern, emitting states and epsilon-glued transitions,
// then simplifies the result in three passes: epsilon elimination, structural
// coalescing of identical states, and pruning of states unreachable from the
// initial state. The returned NFA is immutable. Backtracker interprets it the
// way a naive backtracking regex engine would, for verification and tests.
package nfa

import (
	"fmt"
	"strings"
)

// StateID identifies an NFA state. Ids are dense and non-negative once an NFA
// is built; state 0 is always the initial state.
type StateID int32

// InvalidState represents an invalid/uninitialized state ID
const InvalidState StateID = -2

// finalState is the placeholder target of the accept state while a pattern is
// being compiled. Build rewrites it before the NFA is returned.
const finalState StateID = -1

// Transition is a guarded edge to another state.
type Transition struct {
	Cond Condition
	Next StateID
}

// String returns a human-readable representation of the transition
func (t Transition) String() string {
	return fmt.Sprintf("%s -> %d", t.Cond, t.Next)
}

// State is a single NFA state with its ordered outgoing transitions.
type State struct {
	id          StateID
	transitions []Transition
	accepting   bool
}

// ID returns the state's unique identifier
func (s *State) ID() StateID {
	return s.id
}

// Transitions returns the outgoing transitions in order.
// The slice must not be modified.
func (s *State) Transitions() []Transition {
	return s.transitions
}

// IsAccepting returns true if reaching this state completes a match
func (s *State) IsAccepting() bool {
	return s.accepting
}

// IsDead returns true if the state neither accepts nor has transitions
func (s *State) IsDead() bool {
	return !s.accepting && len(s.transitions) == 0
}

// String returns a human-readable representation of the state
func (s *State) String() string {
	switch {
	case s.accepting:
		return fmt.Sprintf("State(%d, accept, %d transitions)", s.id, len(s.transitions))
	case len(s.transitions) == 0:
		return fmt.Sprintf("State(%d, error)", s.id)
	default:
		return fmt.Sprintf("State(%d, %d transitions)", s.id, len(s.transitions))
	}
}

// NFA is a simplified automaton: no epsilon transitions, no duplicate states,
// every state reachable from state 0.
type NFA struct {
	// states contains all NFA states indexed by StateID
	states []State
}

// Start returns the initial state ID, which is always 0
func (n *NFA) Start() StateID {
	return 0
}

// State returns the state with the given ID.
// Returns nil if the ID is invalid.
func (n *NFA) State(id StateID) *State {
	if id < 0 || int(id) >= len(n.states) {
		return nil
	}
	return &n.states[id]
}

// IsAccepting returns true if the given state is an accepting state
func (n *NFA) IsAccepting(id StateID) bool {
	if s := n.State(id); s != nil {
		return s.accepting
	}
	return false
}

// States returns the total number of states in the NFA
func (n *NFA) States() int {
	return len(n.states)
}

// Iter returns an iterator over all states in the NFA
func (n *NFA) Iter() *StateIter {
	return &StateIter{
		nfa: n,
		pos: 0,
	}
}

// StateIter is an iterator over NFA states in id order
type StateIter struct {
	nfa *NFA
	pos int
}

// Next returns the next state in the iteration.
// Returns nil when iteration is complete.
func (it *StateIter) Next() *State {
	if it.pos >= len(it.nfa.states) {
		return nil
	}
	s := &it.nfa.states[it.pos]
	it.pos++
	return s
}

// HasNext returns true if there are more states to iterate
func (it *StateIter) HasNext() bool {
	return it.pos < len(it.nfa.states)
}

// String returns a human-readable summary of the NFA
func (n *NFA) String() string {
	transitions, accepting := 0, 0
	for i := range n.states {
		transitions += len(n.states[i].transitions)
		if n.states[i].accepting {
			accepting++
		}
	}
	return fmt.Sprintf("NFA{states: %d, transitions: %d, accepting: %d}",
		len(n.states), transitions, accepting)
}

// Dump renders every state with its transitions. Accepting states are marked
// (accept); states that neither accept nor have transitions are marked
// (error).
//
//	0:
//	  ^ -> 1
//	1:
//	  [a] -> 1
//	  $ -> 2
//	2: (accept)
func (n *NFA) Dump() string {
	var b strings.Builder
	for i := range n.states {
		s := &n.states[i]
		fmt.Fprintf(&b, "%d:", s.id)
		switch {
		case s.accepting:
			b.WriteString(" (accept)")
		case len(s.transitions) == 0:
			b.WriteString(" (error)")
		}
		b.WriteByte('\n')
		for _, t := range s.transitions {
			fmt.Fprintf(&b, "  %s\n", t)
		}
	}
	return b.String()
}
