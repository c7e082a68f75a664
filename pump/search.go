package pump

import (
	"errors"
	"fmt"

	"github.com/coregx/redos/nfa"
	"github.com/coregx/redos/rangeset"
)

// DefaultMaxPairVisits bounds the number of distinct pair keys one search may
// visit.
const DefaultMaxPairVisits = 10_000

// ErrSearchBudgetExceeded indicates a search gave up before reaching a
// verdict. It means "unknown", never "not pumpable".
var ErrSearchBudgetExceeded = errors.New("pumpability search budget exceeded")

// SearchError reports which decision point exhausted the search budget.
type SearchError struct {
	State   nfa.StateID
	Visited int
}

// Error implements the error interface
func (e *SearchError) Error() string {
	return fmt.Sprintf("%s at state %d after %d pair visits", ErrSearchBudgetExceeded, e.State, e.Visited)
}

// Unwrap returns ErrSearchBudgetExceeded
func (e *SearchError) Unwrap() error {
	return ErrSearchBudgetExceeded
}

// pathMode tracks how the two paths of a search relate.
type pathMode uint8

const (
	// identical: both paths took the same transitions so far
	identical pathMode = iota

	// waiting: the first path passed zero-width transitions the second one
	// skips; the second path reads before it moves again
	waiting

	// diverged: the paths differ
	diverged
)

// pairKey identifies one step of the product search: a pair of states, the
// index of the transition taken from each (-1 for the side that stays) and
// how the paths relate. Keys of diverged paths are canonical: lo <= hi, and
// i <= j when the states are equal.
type pairKey struct {
	lo, hi nfa.StateID
	i, j   int
	mode   pathMode
}

func makeKey(u, v nfa.StateID, i, j int, mode pathMode) pairKey {
	if mode == diverged && (u > v || (u == v && i > j)) {
		u, v, i, j = v, u, j, i
	}
	return pairKey{lo: u, hi: v, i: i, j: j, mode: mode}
}

// Searcher looks for pumpable substrings at decision points of one NFA.
// A Searcher is not safe for concurrent use.
type Searcher struct {
	nfa           *nfa.NFA
	maxPairVisits int

	// visited by the last search
	visited map[pairKey]struct{}
}

// NewSearcher creates a searcher with DefaultMaxPairVisits.
func NewSearcher(n *nfa.NFA) *Searcher {
	return &Searcher{
		nfa:           n,
		maxPairVisits: DefaultMaxPairVisits,
	}
}

// SetMaxPairVisits changes the visit budget. Values below 1 restore the
// default.
func (s *Searcher) SetMaxPairVisits(n int) {
	if n < 1 {
		n = DefaultMaxPairVisits
	}
	s.maxPairVisits = n
}

// Visited returns the number of distinct pair keys visited by the last search.
func (s *Searcher) Visited() int {
	return len(s.visited)
}

// Pump searches for input that leads two distinct paths out of state back to
// state, with nothing read before it. See PumpAfter.
func (s *Searcher) Pump(state nfa.StateID) (string, bool, error) {
	return s.PumpAfter(state, "", nil)
}

// PumpAfter searches for input that leads two distinct paths out of state
// back to state once context has been read. next constrains the first code
// point of the input, as left by word boundaries at the end of context; nil
// means unconstrained. A *SearchError wrapping ErrSearchBudgetExceeded is
// returned when the visit budget runs out.
//
// Both paths read the same code point at every step: for each pair of
// character transitions the code point is a representative of the
// intersection of their ranges and of the constraints left by the zero-width
// transitions each path passed. A zero-width transition moves only the path
// that takes it and reads nothing. End anchors are never passed, since more
// input follows. At the start of the input the preceding code point is the
// end of the previous repetition, so word boundaries there are left open.
//
// A candidate is accepted only if it also pumps when read right after itself,
// which settles the word boundaries left open.
func (s *Searcher) PumpAfter(state nfa.StateID, context string, next rangeset.Set) (string, bool, error) {
	if s.nfa.State(state) == nil {
		return "", false, fmt.Errorf("%w: %d", nfa.ErrInvalidState, state)
	}
	if next == nil {
		next = rangeset.Full()
	}

	sr := newSearch(s.nfa, state, s.maxPairVisits, []rune(context), nil)
	s.visited = sr.visited

	found, err := sr.explore(state, state, next, next, identical)
	if err != nil || !found {
		return "", false, err
	}
	return string(sr.input()), true, nil
}

// search is the state of one product exploration.
type search struct {
	nfa     *nfa.NFA
	target  nfa.StateID
	limit   int
	visited map[pairKey]struct{}

	// buf holds the context followed by the input read so far
	buf  []rune
	base int

	// forced, when set, is the only input the paths may read
	forced []rune
}

func newSearch(n *nfa.NFA, target nfa.StateID, limit int, context, forced []rune) *search {
	buf := make([]rune, len(context), len(context)+16)
	copy(buf, context)
	return &search{
		nfa:     n,
		target:  target,
		limit:   limit,
		visited: make(map[pairKey]struct{}),
		buf:     buf,
		base:    len(context),
		forced:  forced,
	}
}

func (s *search) input() []rune {
	return s.buf[s.base:]
}

// visit marks key and explores (u, v) unless key was seen before.
func (s *search) visit(key pairKey, u, v nfa.StateID, cu, cv rangeset.Set, mode pathMode) (bool, error) {
	if _, seen := s.visited[key]; seen {
		return false, nil
	}
	s.visited[key] = struct{}{}
	if len(s.visited) > s.limit {
		return false, &SearchError{State: s.target, Visited: len(s.visited)}
	}
	return s.explore(u, v, cu, cv, mode)
}

// explore extends the pair of paths ending at u and v. cu and cv are the
// code points each path may read next.
func (s *search) explore(u, v nfa.StateID, cu, cv rangeset.Set, mode pathMode) (bool, error) {
	if mode == diverged && u == s.target && v == s.target && len(s.input()) > 0 {
		ok, err := s.accept(cu, cv)
		if err != nil || ok {
			return ok, err
		}
	}

	tu := s.nfa.State(u).Transitions()
	tv := s.nfa.State(v).Transitions()

	for i, ti := range tu {
		if !ti.Cond.IsZeroWidth() || ti.Next == u {
			continue
		}
		ci, ok, err := s.assert(ti.Cond, cu)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		if mode == identical {
			found, err := s.visit(makeKey(u, v, i, i, identical), ti.Next, ti.Next, ci, ci, identical)
			if err != nil || found {
				return found, err
			}
			for j := i + 1; j < len(tv); j++ {
				tj := tv[j]
				if !tj.Cond.IsZeroWidth() || tj.Next == v {
					continue
				}
				cj, ok, err := s.assert(tj.Cond, cv)
				if err != nil {
					return false, err
				}
				if !ok {
					continue
				}
				found, err := s.visit(makeKey(u, v, i, j, identical), ti.Next, tj.Next, ci, cj, diverged)
				if err != nil || found {
					return found, err
				}
			}
		}

		next := mode
		if mode == identical {
			next = waiting
		}
		found, err := s.visit(makeKey(u, v, i, -1, mode), ti.Next, v, ci, cv, next)
		if err != nil || found {
			return found, err
		}
	}

	if mode == diverged {
		for j, tj := range tv {
			if !tj.Cond.IsZeroWidth() || tj.Next == v {
				continue
			}
			cj, ok, err := s.assert(tj.Cond, cv)
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
			found, err := s.visit(makeKey(u, v, -1, j, diverged), u, tj.Next, cu, cj, diverged)
			if err != nil || found {
				return found, err
			}
		}
	}

	for i, ti := range tu {
		if ti.Cond.IsZeroWidth() {
			continue
		}
		for j, tj := range tv {
			if tj.Cond.IsZeroWidth() || (mode == identical && i == j) {
				continue
			}
			c, ok, err := s.read(ti, tj, rangeset.Intersect(cu, cv))
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}

			n := len(s.buf)
			s.buf = append(s.buf, c)
			full := rangeset.Full()
			found, err := s.visit(makeKey(u, v, i, j, mode), ti.Next, tj.Next, full, full, diverged)
			if err != nil || found {
				return found, err
			}
			s.buf = s.buf[:n]
		}
	}
	return false, nil
}

// read picks the code point both transitions read next, within pending.
func (s *search) read(ti, tj nfa.Transition, pending rangeset.Set) (rune, bool, error) {
	ri, err := ti.Cond.Ranges(s.buf, len(s.buf))
	if err != nil {
		return 0, false, err
	}
	rj, err := tj.Cond.Ranges(s.buf, len(s.buf))
	if err != nil {
		return 0, false, err
	}
	set := rangeset.Intersect(rangeset.Intersect(ri, rj), pending)

	if s.forced == nil {
		c, ok := rangeset.Representative(set)
		return c, ok, nil
	}
	k := len(s.input())
	if k >= len(s.forced) || !set.Contains(s.forced[k]) {
		return 0, false, nil
	}
	return s.forced[k], true, nil
}

// assert narrows pending by a zero-width condition taken at the current
// position. It reports false when the condition cannot hold there.
func (s *search) assert(c nfa.Condition, pending rangeset.Set) (rangeset.Set, bool, error) {
	switch c.Kind() {
	case nfa.CondEndAnchor:
		return nil, false, nil
	case nfa.CondStartAnchor:
		return pending, len(s.buf) == 0, nil
	case nfa.CondWordBoundary, nfa.CondNonWordBoundary:
		if s.forced == nil && len(s.buf) == s.base {
			return pending, true, nil
		}
	}
	r, err := c.Ranges(s.buf, len(s.buf))
	if err != nil {
		return nil, false, err
	}
	next := rangeset.Intersect(pending, r)
	return next, !next.IsEmpty(), nil
}

// accept decides whether the input read so far is a pump. Both paths must
// be able to start the next repetition, and a free search must find the same
// pump again right after it.
func (s *search) accept(cu, cv rangeset.Set) (bool, error) {
	in := s.input()
	if !cu.Contains(in[0]) || !cv.Contains(in[0]) {
		return false, nil
	}
	if s.forced != nil {
		return len(in) == len(s.forced), nil
	}

	pumped := append([]rune(nil), in...)
	again := newSearch(s.nfa, s.target, s.limit, s.buf, pumped)
	full := rangeset.Full()
	return again.explore(s.target, s.target, full, full, identical)
}
