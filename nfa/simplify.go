package nfa

import (
	"bytes"
	"encoding/binary"

	"github.com/dchest/siphash"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/coregx/redos/internal/conv"
	"github.com/coregx/redos/internal/sparse"
)

// eliminateEpsilon replaces every epsilon transition with the non-epsilon
// transitions of the states reachable from its target through epsilon edges.
// A state becomes accepting if any such state is accepting. Closures are
// computed breadth-first against the input graph; epsilon cycles terminate
// because each state is visited at most once per source state.
func eliminateEpsilon(states []State) []State {
	out := make([]State, len(states))
	visited := sparse.NewSparseSet(conv.IntToUint32(len(states)))
	var queue []StateID

	for i := range states {
		src := &states[i]
		res := State{id: src.id, accepting: src.accepting}

		visited.Clear()
		visited.Insert(conv.Int32ToUint32(int32(src.id)))

		for _, t := range src.transitions {
			if t.Cond.Kind() != CondEpsilon {
				res.transitions = append(res.transitions, t)
				continue
			}

			queue = append(queue[:0], t.Next)
			for head := 0; head < len(queue); head++ {
				id := queue[head]
				if !visited.Insert(conv.Int32ToUint32(int32(id))) {
					continue
				}
				reached := &states[id]
				if reached.accepting {
					res.accepting = true
				}
				for _, rt := range reached.transitions {
					if rt.Cond.Kind() == CondEpsilon {
						queue = append(queue, rt.Next)
					} else {
						res.transitions = append(res.transitions, rt)
					}
				}
			}
		}
		out[i] = res
	}
	return out
}

// SipHash key for state fingerprints. Collisions are resolved by comparing
// the full encoding, so the key only needs to be fixed.
const (
	fingerprintK0 = 0x736f6d6570736575
	fingerprintK1 = 0x646f72616e646f6d
)

// coalesce merges states whose transition lists and accepting flags are
// identical. The first state in id order is the canonical representative;
// every transition of a canonical state is redirected to canonical targets.
// Merged states are left in place, unreferenced, for prune to drop.
//
// This is a single pass: states that only become identical after their
// targets are merged stay distinct.
func coalesce(states []State) []State {
	canon := make([]StateID, len(states))
	encodings := make([][]byte, len(states))
	buckets := make(map[uint64][]StateID, len(states))

	var scratch []byte
	for i := range states {
		scratch = fingerprint(scratch[:0], &states[i])
		h := siphash.Hash(fingerprintK0, fingerprintK1, scratch)

		canon[i] = states[i].id
		for _, c := range buckets[h] {
			if bytes.Equal(encodings[c], scratch) {
				canon[i] = c
				break
			}
		}
		if canon[i] == states[i].id {
			encodings[i] = bytes.Clone(scratch)
			buckets[h] = append(buckets[h], states[i].id)
		}
	}

	out := make([]State, len(states))
	for i := range states {
		s := states[i]
		if canon[i] == s.id {
			ts := make([]Transition, len(s.transitions))
			for j, t := range s.transitions {
				ts[j] = Transition{Cond: t.Cond, Next: canon[t.Next]}
			}
			s.transitions = ts
		}
		out[i] = s
	}
	return out
}

// fingerprint appends the structural encoding of s to buf: the accepting
// flag, then each transition's condition and target in order.
func fingerprint(buf []byte, s *State) []byte {
	if s.accepting {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.AppendUvarint(buf, uint64(len(s.transitions)))
	for _, t := range s.transitions {
		buf = append(buf, byte(t.Cond.kind))
		switch t.Cond.kind {
		case CondCharSet:
			buf = binary.AppendUvarint(buf, uint64(len(t.Cond.set)))
			for _, r := range t.Cond.set {
				buf = binary.AppendVarint(buf, int64(r.From))
				buf = binary.AppendVarint(buf, int64(r.To))
			}
		case CondBackReference:
			buf = binary.AppendVarint(buf, int64(t.Cond.group))
		}
		buf = binary.AppendVarint(buf, int64(t.Next))
	}
	return buf
}

// prune drops states unreachable from state 0 and renumbers the survivors
// densely, preserving their relative order. State 0 keeps id 0.
func prune(states []State) []State {
	if len(states) == 0 {
		return states
	}

	reached := map[StateID]struct{}{0: {}}
	queue := []StateID{0}
	for head := 0; head < len(queue); head++ {
		for _, t := range states[queue[head]].transitions {
			if _, ok := reached[t.Next]; !ok {
				reached[t.Next] = struct{}{}
				queue = append(queue, t.Next)
			}
		}
	}

	ids := maps.Keys(reached)
	slices.Sort(ids)

	renum := make(map[StateID]StateID, len(ids))
	for i, id := range ids {
		renum[id] = StateID(conv.IntToInt32(i))
	}

	out := make([]State, len(ids))
	for i, id := range ids {
		src := &states[id]
		ts := make([]Transition, len(src.transitions))
		for j, t := range src.transitions {
			ts[j] = Transition{Cond: t.Cond, Next: renum[t.Next]}
		}
		out[i] = State{id: renum[id], transitions: ts, accepting: src.accepting}
	}
	return out
}
