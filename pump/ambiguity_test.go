package pump

import (
	"testing"

	"github.com/coregx/redos/ast"
	"github.com/coregx/redos/nfa"
	"github.com/coregx/redos/rangeset"
)

func compileForTest(t *testing.T, pattern string) *nfa.NFA {
	t.Helper()
	n, err := nfa.NewDefaultCompiler().Compile(pattern)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", pattern, err)
	}
	return n
}

func compileTreeForTest(t *testing.T, p *ast.Pattern) *nfa.NFA {
	t.Helper()
	n, err := nfa.Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return n
}

// stateWith builds an automaton whose initial state carries the given
// character sets, all leading to an accepting state.
func stateWith(t *testing.T, sets ...rangeset.Set) *nfa.NFA {
	t.Helper()
	b := nfa.NewBuilder()
	s0 := b.AddState()
	acc := b.AddAccepting()
	for _, set := range sets {
		if err := b.AddTransition(s0, nfa.CharSet(set, false), acc); err != nil {
			t.Fatal(err)
		}
	}
	n, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return n
}

func TestIsDecisionPointOrderIndependent(t *testing.T) {
	a := rangeset.Of('a', 'a')
	b := rangeset.Of('b', 'b')
	c := rangeset.Of('c', 'c')
	ac := rangeset.Of('a', 'c')

	tests := []struct {
		name string
		sets []rangeset.Set
		want bool
	}{
		{"overlap first and last", []rangeset.Set{a, b, ac}, true},
		{"disjoint", []rangeset.Set{a, b, c}, false},
		{"single", []rangeset.Set{ac}, false},
		{"identical pair", []rangeset.Set{b, b}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perm := append([]rangeset.Set(nil), tt.sets...)
			for k := 0; k < len(perm); k++ {
				if got := IsDecisionPoint(stateWith(t, perm...), 0); got != tt.want {
					t.Errorf("IsDecisionPoint(%v) = %v, want %v", perm, got, tt.want)
				}
				perm = append(perm[1:len(perm):len(perm)], perm[0])
			}
			for i, j := 0, len(perm)-1; i < j; i, j = i+1, j-1 {
				perm[i], perm[j] = perm[j], perm[i]
			}
			if got := IsDecisionPoint(stateWith(t, perm...), 0); got != tt.want {
				t.Errorf("IsDecisionPoint(%v) = %v, want %v", perm, got, tt.want)
			}
		})
	}
}

func TestIsDecisionPointIgnoresZeroWidth(t *testing.T) {
	b := nfa.NewBuilder()
	s0 := b.AddState()
	acc := b.AddAccepting()
	for _, c := range []nfa.Condition{nfa.StartAnchor(), nfa.EndAnchor(), nfa.CharSet([]rangeset.Range{{From: 'a', To: 'a'}}, false)} {
		if err := b.AddTransition(s0, c, acc); err != nil {
			t.Fatal(err)
		}
	}
	n, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if IsDecisionPoint(n, 0) {
		t.Error("anchors must not count as overlapping character sets")
	}
	if IsDecisionPoint(n, 42) {
		t.Error("a missing state is not a decision point")
	}
}

func TestIsDecisionPointFollowsZeroWidth(t *testing.T) {
	a := []rangeset.Range{{From: 'a', To: 'a'}}

	tests := []struct {
		name  string
		guard nfa.Condition
		want  bool
	}{
		{"non-word boundary", nfa.NonWordBoundary(), true},
		{"word boundary", nfa.WordBoundary(), true},
		{"start anchor", nfa.StartAnchor(), true},
		// nothing is read after the end of input
		{"end anchor", nfa.EndAnchor(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// s0 reads a directly, or passes the guard to s1 which reads a
			b := nfa.NewBuilder()
			s0 := b.AddState()
			s1 := b.AddState()
			acc := b.AddAccepting()
			for _, step := range []struct {
				from, to nfa.StateID
				cond     nfa.Condition
			}{
				{s0, acc, nfa.CharSet(a, false)},
				{s0, s1, tt.guard},
				{s1, acc, nfa.CharSet(a, false)},
			} {
				if err := b.AddTransition(step.from, step.cond, step.to); err != nil {
					t.Fatal(err)
				}
			}
			n, err := b.Build()
			if err != nil {
				t.Fatal(err)
			}
			if got := IsDecisionPoint(n, 0); got != tt.want {
				t.Errorf("IsDecisionPoint = %v, want %v\n%s", got, tt.want, n.Dump())
			}
		})
	}
}

func TestDecisionPoints(t *testing.T) {
	tests := []struct {
		pattern string
		want    []nfa.StateID
	}{
		{`^a*b$`, nil},
		{`abc`, nil},
		{`^(a+)+$`, []nfa.StateID{2, 3}},
		{`^(a|a)*$`, []nfa.StateID{1}},
		{`(?:\Ba|a)*`, []nfa.StateID{0}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			n := compileForTest(t, tt.pattern)
			got := DecisionPoints(n)
			if len(got) != len(tt.want) {
				t.Fatalf("DecisionPoints = %v, want %v\n%s", got, tt.want, n.Dump())
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("DecisionPoints = %v, want %v\n%s", got, tt.want, n.Dump())
					break
				}
			}
		})
	}
}
