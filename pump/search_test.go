package pump

import (
	"errors"
	"testing"

	"github.com/coregx/redos/ast"
	"github.com/coregx/redos/nfa"
	"github.com/coregx/redos/rangeset"
)

func star() *ast.Quantifier {
	return &ast.Quantifier{AtLeast: 0, AtMost: ast.Unbounded, Greedy: true}
}

func char(c rune) *ast.Character {
	return &ast.Character{Value: c}
}

// ^(a|a)*$
func duplicateBranchLoop() *ast.Pattern {
	return ast.NewPattern(ast.Alt(
		&ast.StartAnchor{},
		&ast.Group{
			Capturing:   true,
			Disjunction: ast.Disj(ast.Alt(char('a')), ast.Alt(char('a'))),
			Quantifier:  star(),
		},
		&ast.EndAnchor{},
	))
}

// ^(?:a(?:a{101})*|a(?:a{103})*)$: two branches share the first code point,
// then cycle in lock step through more than 10 000 state pairs without ever
// meeting again.
func coprimeCycles() *ast.Pattern {
	cycle := func(length int) *ast.Alternative {
		return ast.Alt(char('a'), &ast.Group{
			Disjunction: ast.Disj(ast.Alt(&ast.Character{
				Value:      'a',
				Quantifier: &ast.Quantifier{AtLeast: length, AtMost: length, Greedy: true},
			})),
			Quantifier: star(),
		})
	}
	return ast.NewPattern(ast.Alt(
		&ast.StartAnchor{},
		&ast.Group{Disjunction: ast.Disj(cycle(101), cycle(103))},
		&ast.EndAnchor{},
	))
}

func TestPumpDuplicateBranch(t *testing.T) {
	n := compileTreeForTest(t, duplicateBranchLoop())

	dps := DecisionPoints(n)
	if len(dps) != 1 || dps[0] != 1 {
		t.Fatalf("DecisionPoints = %v, want [1]\n%s", dps, n.Dump())
	}

	pumped, ok, err := NewSearcher(n).Pump(dps[0])
	if err != nil {
		t.Fatalf("Pump error: %v", err)
	}
	if !ok || pumped != "a" {
		t.Errorf("Pump = %q, %v; want \"a\", true", pumped, ok)
	}
}

func TestPump(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		state   nfa.StateID
		want    string
		ok      bool
	}{
		{"nested plus inner loop", `^(a+)+$`, 3, "a", true},
		// the copy that must read one a never returns to the decision point
		{"nested plus mandatory copy", `^(a+)+$`, 2, "", false},
		{"star then b", `^a*b$`, 1, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := compileForTest(t, tt.pattern)
			got, ok, err := NewSearcher(n).Pump(tt.state)
			if err != nil {
				t.Fatalf("Pump error: %v", err)
			}
			if got != tt.want || ok != tt.ok {
				t.Errorf("Pump(%d) = %q, %v; want %q, %v\n%s", tt.state, got, ok, tt.want, tt.ok, n.Dump())
			}
		})
	}
}

func TestPumpMultiCharacterCycle(t *testing.T) {
	ab := ast.Alt(char('a'), char('b'))
	p := ast.NewPattern(ast.Alt(&ast.Group{
		Capturing:   true,
		Disjunction: ast.Disj(ab, ast.Alt(char('a'), char('b'))),
		Quantifier:  star(),
	}))
	n := compileTreeForTest(t, p)

	pumped, ok, err := NewSearcher(n).Pump(0)
	if err != nil {
		t.Fatalf("Pump error: %v", err)
	}
	if !ok || pumped != "ab" {
		t.Errorf("Pump = %q, %v; want \"ab\", true\n%s", pumped, ok, n.Dump())
	}
}

func TestPumpBudgetExceeded(t *testing.T) {
	n := compileTreeForTest(t, coprimeCycles())

	dps := DecisionPoints(n)
	if len(dps) != 1 {
		t.Fatalf("DecisionPoints = %v, want exactly one\n%s", dps, n.Dump())
	}

	s := NewSearcher(n)
	_, ok, err := s.Pump(dps[0])
	if ok {
		t.Fatal("search must not report a pump")
	}
	if !errors.Is(err, ErrSearchBudgetExceeded) {
		t.Fatalf("Pump error = %v, want ErrSearchBudgetExceeded", err)
	}
	var se *SearchError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SearchError, got %T", err)
	}
	if se.State != dps[0] || se.Visited <= DefaultMaxPairVisits {
		t.Errorf("SearchError = %+v", se)
	}

	// with enough budget the same search terminates with a definite answer
	s.SetMaxPairVisits(1_000_000)
	_, ok, err = s.Pump(dps[0])
	if err != nil || ok {
		t.Errorf("Pump with large budget = %v, %v; want false, nil", ok, err)
	}
	if s.Visited() <= DefaultMaxPairVisits {
		t.Errorf("Visited() = %d, want more than %d", s.Visited(), DefaultMaxPairVisits)
	}
}

func TestPumpSmallBudget(t *testing.T) {
	n := compileForTest(t, `^(a+)+$`)
	s := NewSearcher(n)
	s.SetMaxPairVisits(1)

	// the mandatory copy needs more than one pair to rule out
	if _, _, err := s.Pump(2); !errors.Is(err, ErrSearchBudgetExceeded) {
		t.Errorf("Pump error = %v, want ErrSearchBudgetExceeded", err)
	}

	s.SetMaxPairVisits(0)
	if _, ok, err := s.Pump(3); err != nil || !ok {
		t.Errorf("default budget restored: Pump = %v, %v", ok, err)
	}
}

func TestPumpInvalidState(t *testing.T) {
	n := compileForTest(t, `a`)
	if _, _, err := NewSearcher(n).Pump(42); !errors.Is(err, nfa.ErrInvalidState) {
		t.Errorf("Pump error = %v, want ErrInvalidState", err)
	}
}

// ^(?:ab|a\B)*$: after an a the boundary branch needs another word code
// point, but the loop can only continue with a, which the first branch
// follows with b.
func boundaryBranchLoop() *ast.Pattern {
	return ast.NewPattern(ast.Alt(
		&ast.StartAnchor{},
		&ast.Group{
			Disjunction: ast.Disj(
				ast.Alt(char('a'), char('b')),
				ast.Alt(char('a'), &ast.NonWordBoundary{}),
			),
			Quantifier: star(),
		},
		&ast.EndAnchor{},
	))
}

func TestPumpZeroWidth(t *testing.T) {
	tests := []struct {
		name    string
		pattern *ast.Pattern
		want    string
		ok      bool
	}{
		{"boundary does not read", boundaryBranchLoop(), "", false},
		{"boundary before a duplicate branch", ast.NewPattern(ast.Alt(
			&ast.StartAnchor{},
			&ast.Group{
				Disjunction: ast.Disj(
					ast.Alt(&ast.NonWordBoundary{}, char('a')),
					ast.Alt(char('a')),
				),
				Quantifier: star(),
			},
			&ast.EndAnchor{},
		)), "a", true},
		{"boundary fails between repetitions", ast.NewPattern(ast.Alt(
			&ast.StartAnchor{},
			&ast.Group{
				Disjunction: ast.Disj(
					ast.Alt(&ast.WordBoundary{}, char('a')),
					ast.Alt(&ast.WordBoundary{}, char('a'), char('a')),
				),
				Quantifier: star(),
			},
			&ast.EndAnchor{},
		)), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := compileTreeForTest(t, tt.pattern)
			dps := DecisionPoints(n)
			if len(dps) == 0 {
				t.Fatalf("no decision points\n%s", n.Dump())
			}

			var got string
			var ok bool
			for _, dp := range dps {
				pumped, found, err := NewSearcher(n).Pump(dp)
				if err != nil {
					t.Fatalf("Pump(%d) error: %v", dp, err)
				}
				if found {
					got, ok = pumped, true
					break
				}
			}
			if got != tt.want || ok != tt.ok {
				t.Errorf("Pump = %q, %v; want %q, %v\n%s", got, ok, tt.want, tt.ok, n.Dump())
			}
		})
	}
}

func TestPumpAfterContext(t *testing.T) {
	// ^(?:a|\ba)*$ read after "a": the boundary branch is dead at every
	// repetition
	n := compileTreeForTest(t, ast.NewPattern(ast.Alt(
		&ast.StartAnchor{},
		&ast.Group{
			Disjunction: ast.Disj(ast.Alt(char('a')), ast.Alt(&ast.WordBoundary{}, char('a'))),
			Quantifier:  star(),
		},
		&ast.EndAnchor{},
	)))

	s := NewSearcher(n)
	for _, dp := range DecisionPoints(n) {
		pumped, ok, err := s.PumpAfter(dp, "a", nil)
		if err != nil {
			t.Fatalf("PumpAfter(%d) error: %v", dp, err)
		}
		if ok {
			t.Errorf("PumpAfter(%d) = %q; want no pump\n%s", dp, pumped, n.Dump())
		}
	}

	// a pending constraint nothing in the loop can read
	n = compileTreeForTest(t, duplicateBranchLoop())
	if _, ok, err := NewSearcher(n).PumpAfter(1, "", rangeset.Of('0', '9')); err != nil || ok {
		t.Errorf("PumpAfter with digits pending = %v, %v; want false, nil", ok, err)
	}
}
