// Package ast defines the regular-expression syntax tree consumed by the
// automaton compiler.
//
// The tree carries the ECMAScript-style node kinds the analysis cares about,
// including lookahead and backreference nodes that the compiler rejects.
// Parse builds trees from pattern text without factoring alternatives;
// FromSyntax converts trees from Go's regexp/syntax parser.
package ast

// Unbounded is the AtMost value of a quantifier without an upper bound.
const Unbounded = -1

// Pattern is the root of a syntax tree.
type Pattern struct {
	// Flags holds the pattern flags as written by the source parser, e.g. "i".
	// The compiler does not interpret them; case folding is expected to be
	// expanded into character sets by the parser.
	Flags       string
	Disjunction *Disjunction
}

// Disjunction is a list of alternatives, any of which may match.
type Disjunction struct {
	Alternatives []*Alternative
}

// Alternative is a sequence of terms matched in order.
type Alternative struct {
	Terms []Term
}

// Quantifier repeats a term between AtLeast and AtMost times.
// AtMost is Unbounded for *, + and {n,}.
type Quantifier struct {
	AtLeast int
	AtMost  int
	// Greedy is recorded but does not change the automaton shape.
	Greedy bool
}

// IsUnbounded reports whether the quantifier has no upper bound.
func (q *Quantifier) IsUnbounded() bool {
	return q.AtMost == Unbounded
}

// Term is one element of an Alternative. The set of implementations is closed.
type Term interface {
	term()
}

// Character matches a single code point.
type Character struct {
	Value      rune
	Quantifier *Quantifier
}

// ClassMember is an inclusive code point range inside a Set. A single code
// point has From == To.
type ClassMember struct {
	From rune
	To   rune
}

// Set matches one code point from Members, or from their complement when
// Complement is set.
type Set struct {
	Members    []ClassMember
	Complement bool
	Quantifier *Quantifier
}

// Group wraps a nested disjunction.
type Group struct {
	Capturing   bool
	Disjunction *Disjunction
	Quantifier  *Quantifier
}

// StartAnchor matches at the start of input (^).
type StartAnchor struct{}

// EndAnchor matches at the end of input ($).
type EndAnchor struct{}

// WordBoundary matches between a word and a non-word code point (\b).
type WordBoundary struct{}

// NonWordBoundary matches where WordBoundary does not (\B).
type NonWordBoundary struct{}

// GroupBackReference refers back to a capturing group (\1).
type GroupBackReference struct {
	Index int
}

// Lookahead is a positive lookahead assertion (?=...).
type Lookahead struct {
	Disjunction *Disjunction
}

// NegativeLookahead is a negative lookahead assertion (?!...).
type NegativeLookahead struct {
	Disjunction *Disjunction
}

func (*Character) term()          {}
func (*Set) term()                {}
func (*Group) term()              {}
func (*StartAnchor) term()        {}
func (*EndAnchor) term()          {}
func (*WordBoundary) term()       {}
func (*NonWordBoundary) term()    {}
func (*GroupBackReference) term() {}
func (*Lookahead) term()          {}
func (*NegativeLookahead) term()  {}

// Alt is shorthand for building an Alternative from terms.
func Alt(terms ...Term) *Alternative {
	return &Alternative{Terms: terms}
}

// Disj is shorthand for building a Disjunction from alternatives.
func Disj(alts ...*Alternative) *Disjunction {
	return &Disjunction{Alternatives: alts}
}

// NewPattern wraps alternatives into a Pattern with no flags.
func NewPattern(alts ...*Alternative) *Pattern {
	return &Pattern{Disjunction: Disj(alts...)}
}
