package nfa

import (
	"fmt"

	"github.com/coregx/redos/rangeset"
)

// ConditionKind identifies the guard on a transition.
type ConditionKind uint8

const (
	// CondEpsilon consumes no input and always matches. Epsilon transitions
	// exist only during construction; Compile eliminates them.
	CondEpsilon ConditionKind = iota

	// CondStartAnchor matches at position 0 without consuming input (^)
	CondStartAnchor

	// CondEndAnchor matches at the end of input without consuming it ($)
	CondEndAnchor

	// CondWordBoundary matches between a word and a non-word code point (\b)
	CondWordBoundary

	// CondNonWordBoundary matches where CondWordBoundary does not (\B)
	CondNonWordBoundary

	// CondCharSet consumes one code point belonging to a set
	CondCharSet

	// CondBackReference refers to a capture group. It is not representable by
	// a finite automaton; matching it always fails with ErrUnsupportedFeature.
	CondBackReference
)

// String returns a human-readable representation of the ConditionKind
func (k ConditionKind) String() string {
	switch k {
	case CondEpsilon:
		return "Epsilon"
	case CondStartAnchor:
		return "StartAnchor"
	case CondEndAnchor:
		return "EndAnchor"
	case CondWordBoundary:
		return "WordBoundary"
	case CondNonWordBoundary:
		return "NonWordBoundary"
	case CondCharSet:
		return "CharSet"
	case CondBackReference:
		return "BackReference"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Condition guards a transition. It is a closed variant: the kind decides
// which of the remaining fields are meaningful.
type Condition struct {
	kind ConditionKind

	// For CharSet: the canonical set of accepted code points
	set rangeset.Set

	// For BackReference: the referenced group
	group int
}

// Epsilon returns the empty-transition condition.
func Epsilon() Condition { return Condition{kind: CondEpsilon} }

// StartAnchor returns the ^ condition.
func StartAnchor() Condition { return Condition{kind: CondStartAnchor} }

// EndAnchor returns the $ condition.
func EndAnchor() Condition { return Condition{kind: CondEndAnchor} }

// WordBoundary returns the \b condition.
func WordBoundary() Condition { return Condition{kind: CondWordBoundary} }

// NonWordBoundary returns the \B condition.
func NonWordBoundary() Condition { return Condition{kind: CondNonWordBoundary} }

// BackReference returns a condition referring to capture group index.
func BackReference(index int) Condition {
	return Condition{kind: CondBackReference, group: index}
}

// CharSet returns a condition consuming one code point from ranges, or from
// their complement within [0, rangeset.MaxRune] when complement is set.
func CharSet(ranges []rangeset.Range, complement bool) Condition {
	set := rangeset.Resort(ranges)
	if complement {
		set = rangeset.Invert(set)
	}
	return Condition{kind: CondCharSet, set: set}
}

// Kind returns the condition's variant
func (c Condition) Kind() ConditionKind {
	return c.kind
}

// Set returns the accepted code points of a CharSet condition, nil otherwise.
func (c Condition) Set() rangeset.Set {
	if c.kind == CondCharSet {
		return c.set
	}
	return nil
}

// Group returns the referenced group of a BackReference condition.
func (c Condition) Group() int {
	return c.group
}

// IsZeroWidth reports whether the condition never consumes input.
func (c Condition) IsZeroWidth() bool {
	switch c.kind {
	case CondEpsilon, CondStartAnchor, CondEndAnchor, CondWordBoundary, CondNonWordBoundary:
		return true
	default:
		return false
	}
}

// Equal reports whether two conditions are structurally identical.
func (c Condition) Equal(o Condition) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case CondCharSet:
		return c.set.Equal(o.set)
	case CondBackReference:
		return c.group == o.group
	default:
		return true
	}
}

// Match tests the condition at pos in input. It returns the number of code
// points consumed (0 or 1) and whether the condition holds.
func (c Condition) Match(input []rune, pos int) (int, bool, error) {
	switch c.kind {
	case CondEpsilon:
		return 0, true, nil
	case CondStartAnchor:
		return 0, pos == 0, nil
	case CondEndAnchor:
		return 0, pos == len(input), nil
	case CondWordBoundary:
		return 0, isWordAt(input, pos-1) != isWordAt(input, pos), nil
	case CondNonWordBoundary:
		return 0, isWordAt(input, pos-1) == isWordAt(input, pos), nil
	case CondCharSet:
		if pos < len(input) && c.set.Contains(input[pos]) {
			return 1, true, nil
		}
		return 0, false, nil
	case CondBackReference:
		return 0, false, &UnsupportedFeatureError{Feature: fmt.Sprintf("backreference \\%d", c.group)}
	default:
		return 0, false, fmt.Errorf("unknown condition kind %s", c.kind)
	}
}

// Ranges returns the code points that would let the condition proceed when
// the next code point is read at pos, after input[:pos] has been consumed.
// It is used for input synthesis, never for matching.
//
// Anchors do not constrain the next code point and yield the full domain.
// Word boundaries depend on the word class of input[pos-1].
func (c Condition) Ranges(input []rune, pos int) (rangeset.Set, error) {
	switch c.kind {
	case CondEpsilon, CondStartAnchor, CondEndAnchor:
		return rangeset.Full(), nil
	case CondWordBoundary:
		if isWordAt(input, pos-1) {
			return rangeset.Invert(wordSet), nil
		}
		return wordSet, nil
	case CondNonWordBoundary:
		if isWordAt(input, pos-1) {
			return wordSet, nil
		}
		return rangeset.Invert(wordSet), nil
	case CondCharSet:
		return c.set, nil
	case CondBackReference:
		return nil, &UnsupportedFeatureError{Feature: fmt.Sprintf("backreference \\%d", c.group)}
	default:
		return nil, fmt.Errorf("unknown condition kind %s", c.kind)
	}
}

// String returns the display form of the condition
func (c Condition) String() string {
	switch c.kind {
	case CondEpsilon:
		return "ε"
	case CondStartAnchor:
		return "^"
	case CondEndAnchor:
		return "$"
	case CondWordBoundary:
		return `\b`
	case CondNonWordBoundary:
		return `\B`
	case CondCharSet:
		return c.set.String()
	case CondBackReference:
		return fmt.Sprintf(`\%d`, c.group)
	default:
		return c.kind.String()
	}
}

// wordSet is [0-9A-Z_a-z]
var wordSet = rangeset.Set{
	{From: '0', To: '9'},
	{From: 'A', To: 'Z'},
	{From: '_', To: '_'},
	{From: 'a', To: 'z'},
}

// isWordAt reports whether input[i] is a word character. Positions outside
// the input count as non-word.
func isWordAt(input []rune, i int) bool {
	if i < 0 || i >= len(input) {
		return false
	}
	return wordSet.Contains(input[i])
}
