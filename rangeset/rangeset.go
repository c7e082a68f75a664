// Package rangeset implements set arithmetic over closed code point
// intervals.
//
// A Set is a list of Ranges over the domain [0, MaxRune]. Every function in
// this package accepts sets in any order and returns them in canonical form:
// sorted ascending by From, with overlapping and adjacent ranges merged, so no
// two ranges of a result touch.
package rangeset

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// MaxRune is the largest code point of the domain.
const MaxRune rune = 0x10FFFF

// Range is the closed interval [From, To].
type Range struct {
	From rune
	To   rune
}

// Set is a sequence of ranges. Values returned by this package are canonical.
type Set []Range

// Of returns the canonical set holding the single interval [from, to].
func Of(from, to rune) Set {
	return Resort([]Range{{From: from, To: to}})
}

// Full returns the set covering the whole domain.
func Full() Set {
	return Set{{From: 0, To: MaxRune}}
}

// Resort returns the canonical form of ranges. Empty intervals (From > To) are
// dropped and bounds are clamped to the domain. The input is not modified.
func Resort(ranges []Range) Set {
	sorted := make(Set, 0, len(ranges))
	for _, r := range ranges {
		if r.From < 0 {
			r.From = 0
		}
		if r.To > MaxRune {
			r.To = MaxRune
		}
		if r.From > r.To {
			continue
		}
		sorted = append(sorted, r)
	}
	if len(sorted) == 0 {
		return nil
	}
	slices.SortFunc(sorted, func(a, b Range) bool {
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})

	out := sorted[:1]
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if last.To+1 >= r.From {
			if r.To > last.To {
				last.To = r.To
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Intersect returns the code points present in both a and b.
func Intersect(a, b Set) Set {
	a, b = Resort(a), Resort(b)
	var out Set
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := max(a[i].From, b[j].From)
		hi := min(a[i].To, b[j].To)
		if lo <= hi {
			out = append(out, Range{From: lo, To: hi})
		}
		// advance whichever range ends first
		if a[i].To < b[j].To {
			i++
		} else {
			j++
		}
	}
	return out
}

// Union returns the code points present in a or b.
func Union(a, b Set) Set {
	all := make([]Range, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return Resort(all)
}

// Invert returns the complement of a within [0, MaxRune].
func Invert(a Set) Set {
	a = Resort(a)
	var out Set
	next := rune(0)
	for _, r := range a {
		if r.From > next {
			out = append(out, Range{From: next, To: r.From - 1})
		}
		next = r.To + 1
	}
	if next <= MaxRune {
		out = append(out, Range{From: next, To: MaxRune})
	}
	return out
}

// IsEmpty reports whether s holds no code points.
func (s Set) IsEmpty() bool {
	for _, r := range s {
		if r.From <= r.To {
			return false
		}
	}
	return true
}

// Contains reports whether c is a member of s. s must be canonical.
func (s Set) Contains(c rune) bool {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case s[mid].To < c:
			lo = mid + 1
		case s[mid].From > c:
			hi = mid
		default:
			return true
		}
	}
	return false
}

// Equal reports whether s and o hold the same code points.
func (s Set) Equal(o Set) bool {
	return slices.Equal(Resort(s), Resort(o))
}

// IsFull reports whether s covers the whole domain.
func (s Set) IsFull() bool {
	c := Resort(s)
	return len(c) == 1 && c[0].From == 0 && c[0].To == MaxRune
}

// representatives lists the preferred code points for synthesized input,
// in preference order.
var representatives = Set{
	{From: '0', To: '9'},
	{From: 'A', To: 'Z'},
	{From: '_', To: '_'},
	{From: 'a', To: 'z'},
}

// Representative picks one printable member of s for synthesized input. It
// prefers the first member that is an ASCII digit, letter or underscore, and
// otherwise falls back to the first code point of the first range. It reports
// false when s is empty.
func Representative(s Set) (rune, bool) {
	s = Resort(s)
	if len(s) == 0 {
		return 0, false
	}
	if common := Intersect(s, representatives); len(common) > 0 {
		return common[0].From, true
	}
	return s[0].From, true
}

// String renders s as a bracketed class, e.g. [0-9a-f].
func (s Set) String() string {
	if s.IsFull() {
		return "[^]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range s {
		writeRune(&b, r.From)
		if r.To != r.From {
			if r.To > r.From+1 {
				b.WriteByte('-')
			}
			writeRune(&b, r.To)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func writeRune(b *strings.Builder, c rune) {
	switch {
	case c == '\\' || c == ']' || c == '[' || c == '-' || c == '^':
		b.WriteByte('\\')
		b.WriteRune(c)
	case c >= 0x20 && c < 0x7F:
		b.WriteRune(c)
	case c <= 0xFFFF:
		fmt.Fprintf(b, `\u%04X`, c)
	default:
		fmt.Fprintf(b, `\U%08X`, c)
	}
}
