// Package redos statically detects regular expressions vulnerable to
// catastrophic backtracking (ReDoS).
//
// A pattern is compiled into a simplified NFA: epsilon-free, with
// structurally identical states merged and unreachable states dropped. Every
// decision point (a state from which two distinct transitions can read the
// same code point first) is then searched for a pumpable substring: input
// that leads two distinct paths out of the decision point back to it. When
// one exists, the number of ways a backtracking engine can consume n
// repetitions doubles with every repetition, and Check reports the pattern as
// Vulnerable together with a Witness that demonstrates it.
//
// Basic usage:
//
//	result, err := redos.Check(`^(a+)+$`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.Verdict == redos.Vulnerable {
//	    attack := result.Witness.Attack(30) // takes a naive engine ~2^30 steps
//	}
//
// Patterns are parsed as written: alternatives are never factored, so
// (a|a)* keeps both branches. Classes and escapes follow Go's regexp/syntax.
// Lookahead, lookbehind and backreferences parse but are rejected with
// ErrUnsupportedFeature since a finite automaton cannot represent them. Trees
// built with package ast are analyzed by CheckPattern.
//
// Limitations:
//   - Word boundaries at the start of a pump are settled by reading the pump
//     twice, not by the prefix alone
//   - Greedy and lazy quantifiers are analyzed identically
//   - Only exponential (not polynomial) backtracking is detected
package redos

import (
	"fmt"

	"github.com/coregx/redos/ast"
	"github.com/coregx/redos/nfa"
	"github.com/coregx/redos/pump"
)

// Errors returned by Check and its variants. Match them with errors.Is.
var (
	// ErrUnsupportedFeature indicates a lookahead, negative lookahead or
	// backreference
	ErrUnsupportedFeature = nfa.ErrUnsupportedFeature

	// ErrMalformedQuantifier indicates a quantifier whose upper bound is below
	// its lower bound
	ErrMalformedQuantifier = nfa.ErrMalformedQuantifier

	// ErrTooComplex indicates the pattern exceeds Config.MaxRecursionDepth or
	// Config.MaxStates
	ErrTooComplex = nfa.ErrTooComplex

	// ErrSearchBudgetExceeded accompanies an Inconclusive result
	ErrSearchBudgetExceeded = pump.ErrSearchBudgetExceeded
)

// Verdict is the outcome of a check.
type Verdict uint8

const (
	// Safe means no decision point is pumpable.
	Safe Verdict = iota

	// Vulnerable means some decision point is pumpable; Result.Witness is set.
	Vulnerable

	// Inconclusive means no witness was found but at least one search ran out
	// of budget. It never means safe.
	Inconclusive
)

// String returns a human-readable representation of the verdict
func (v Verdict) String() string {
	switch v {
	case Safe:
		return "safe"
	case Vulnerable:
		return "vulnerable"
	case Inconclusive:
		return "inconclusive"
	default:
		return fmt.Sprintf("Verdict(%d)", uint8(v))
	}
}

// Witness is a concrete attack: Prefix + Pump*n + Suffix.
type Witness = pump.Witness

// Result describes one analyzed pattern.
type Result struct {
	// Pattern is the source text, empty for CheckPattern
	Pattern string

	// NFA is the simplified automaton that was analyzed
	NFA *nfa.NFA

	// DecisionPoints lists the states with overlapping first reads, in
	// ascending id order
	DecisionPoints []nfa.StateID

	Verdict Verdict

	// Witness is set when Verdict is Vulnerable
	Witness *Witness

	// Exhausted lists the decision points whose search ran out of budget
	Exhausted []nfa.StateID

	// Unreachable lists the decision points no input reaches
	Unreachable []nfa.StateID
}

// String returns the verdict, followed by the witness for vulnerable
// patterns or the exhausted decision points for inconclusive ones.
func (r *Result) String() string {
	switch r.Verdict {
	case Vulnerable:
		return fmt.Sprintf("%s: %s", r.Verdict, r.Witness)
	case Inconclusive:
		return fmt.Sprintf("%s: search budget exceeded at states %v", r.Verdict, r.Exhausted)
	default:
		return r.Verdict.String()
	}
}

// Check analyzes a pattern with the default configuration.
//
// Example:
//
//	result, err := redos.Check(`(\w+\s?)*$`)
//	if err == nil && result.Verdict == redos.Vulnerable {
//	    fmt.Println(result.Witness)
//	}
func Check(pattern string) (*Result, error) {
	return CheckWithConfig(pattern, DefaultConfig())
}

// CheckWithConfig analyzes a pattern with a custom configuration.
//
// Parse and compile failures are returned as *nfa.CompileError with a nil
// result. An Inconclusive result is returned together with an error matching
// ErrSearchBudgetExceeded.
func CheckWithConfig(pattern string, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	n, err := newCompiler(config).Compile(pattern)
	if err != nil {
		return nil, err
	}
	return analyze(pattern, n, config)
}

// CheckPattern analyzes a syntax tree built by an external parser or by hand.
// It behaves like CheckWithConfig otherwise.
func CheckPattern(p *ast.Pattern, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	n, err := newCompiler(config).CompilePattern(p)
	if err != nil {
		return nil, err
	}
	return analyze("", n, config)
}

func newCompiler(config Config) *nfa.Compiler {
	return nfa.NewCompiler(nfa.CompilerConfig{
		MaxRecursionDepth: config.MaxRecursionDepth,
		MaxStates:         config.MaxStates,
	})
}

func analyze(pattern string, n *nfa.NFA, config Config) (*Result, error) {
	report, err := pump.Analyze(n, config.MaxPairVisits)
	if report == nil {
		return nil, err
	}

	r := &Result{
		Pattern:        pattern,
		NFA:            n,
		DecisionPoints: report.DecisionPoints,
		Witness:        report.Witness,
		Exhausted:      report.Exhausted,
		Unreachable:    report.Unreachable,
	}
	switch {
	case report.Pumpable():
		r.Verdict = Vulnerable
	case err != nil:
		r.Verdict = Inconclusive
		return r, err
	default:
		r.Verdict = Safe
	}
	return r, nil
}
