package nfa

import (
	"fmt"

	"github.com/coregx/redos/internal/conv"
)

// Builder constructs NFAs incrementally using a low-level API.
// This provides full control over NFA construction and is used by the Compiler.
//
// The first state added is the initial state. Transitions may target the
// accept placeholder (see Compiler); Build replaces it with a fresh accepting
// state, then simplifies the automaton.
type Builder struct {
	states []State
}

// NewBuilder creates a new NFA builder with default capacity
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity creates a new NFA builder with specified initial capacity
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{
		states: make([]State, 0, capacity),
	}
}

// AddState adds a state without transitions and returns its ID
func (b *Builder) AddState() StateID {
	id := StateID(conv.IntToInt32(len(b.states)))
	b.states = append(b.states, State{id: id})
	return id
}

// AddAccepting adds an accepting state and returns its ID
func (b *Builder) AddAccepting() StateID {
	id := b.AddState()
	b.states[id].accepting = true
	return id
}

// SetAccepting marks a state as accepting or not
func (b *Builder) SetAccepting(id StateID, accepting bool) error {
	if !b.valid(id) {
		return &BuildError{
			Message: "state ID out of bounds",
			StateID: id,
		}
	}
	b.states[id].accepting = accepting
	return nil
}

// AddTransition appends a transition from one state to another.
// Transitions keep insertion order; duplicates are allowed.
func (b *Builder) AddTransition(from StateID, cond Condition, next StateID) error {
	if !b.valid(from) {
		return &BuildError{
			Message: "source state ID out of bounds",
			StateID: from,
		}
	}
	if next != finalState && !b.valid(next) {
		return &BuildError{
			Message: fmt.Sprintf("target state %d out of bounds", next),
			StateID: from,
		}
	}
	s := &b.states[from]
	s.transitions = append(s.transitions, Transition{Cond: cond, Next: next})
	return nil
}

// AddEpsilon appends an epsilon transition
func (b *Builder) AddEpsilon(from, next StateID) error {
	return b.AddTransition(from, Epsilon(), next)
}

// States returns the current number of states
func (b *Builder) States() int {
	return len(b.states)
}

func (b *Builder) valid(id StateID) bool {
	return id >= 0 && int(id) < len(b.states)
}

// Validate checks that the automaton is well-formed:
// - There is an initial state
// - All transitions point to existing states
// - No transition targets the accept placeholder
func (b *Builder) Validate() error {
	if len(b.states) == 0 {
		return &BuildError{Message: "no initial state", StateID: InvalidState}
	}

	for i := range b.states {
		s := &b.states[i]
		for j, t := range s.transitions {
			if !b.valid(t.Next) {
				return &BuildError{
					Message: fmt.Sprintf("invalid transition %d target %d", j, t.Next),
					StateID: s.id,
				}
			}
		}
	}

	return nil
}

// Build finalizes the automaton and returns it simplified: epsilon
// transitions eliminated, identical states coalesced and unreachable states
// pruned. The builder must not be used afterwards.
func (b *Builder) Build() (*NFA, error) {
	b.resolveFinal()

	if err := b.Validate(); err != nil {
		return nil, err
	}

	states := eliminateEpsilon(b.states)
	states = coalesce(states)
	states = prune(states)

	return &NFA{states: states}, nil
}

// resolveFinal replaces the accept placeholder with a new accepting state.
// Nothing is added when no transition targets the placeholder.
func (b *Builder) resolveFinal() {
	var accept = InvalidState
	for i := range b.states {
		ts := b.states[i].transitions
		for j := range ts {
			if ts[j].Next != finalState {
				continue
			}
			if accept == InvalidState {
				accept = b.AddAccepting()
				// AddAccepting may have grown b.states
				ts = b.states[i].transitions
			}
			ts[j].Next = accept
		}
	}
}
