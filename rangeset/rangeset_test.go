package rangeset

import (
	"testing"
)

func TestResort(t *testing.T) {
	tests := []struct {
		name string
		in   []Range
		want Set
	}{
		{"empty", nil, nil},
		{"single", []Range{{'a', 'c'}}, Set{{'a', 'c'}}},
		{"unsorted", []Range{{'x', 'z'}, {'a', 'c'}}, Set{{'a', 'c'}, {'x', 'z'}}},
		{"overlap", []Range{{'a', 'm'}, {'f', 'z'}}, Set{{'a', 'z'}}},
		{"adjacent", []Range{{'a', 'c'}, {'d', 'f'}}, Set{{'a', 'f'}}},
		{"contained", []Range{{'a', 'z'}, {'c', 'd'}}, Set{{'a', 'z'}}},
		{"gap of one", []Range{{'a', 'c'}, {'e', 'f'}}, Set{{'a', 'c'}, {'e', 'f'}}},
		{"drops empty", []Range{{'z', 'a'}, {'b', 'b'}}, Set{{'b', 'b'}}},
		{"clamps", []Range{{-5, 3}, {MaxRune - 1, MaxRune + 10}}, Set{{0, 3}, {MaxRune - 1, MaxRune}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resort(tt.in)
			if !equalExact(got, tt.want) {
				t.Errorf("Resort(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestResortDoesNotModifyInput(t *testing.T) {
	in := []Range{{'x', 'z'}, {'a', 'c'}}
	Resort(in)
	if in[0].From != 'x' {
		t.Errorf("input modified: %v", in)
	}
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Set
		want Set
	}{
		{"disjoint", Set{{'a', 'c'}}, Set{{'x', 'z'}}, nil},
		{"same", Set{{'a', 'a'}}, Set{{'a', 'a'}}, Set{{'a', 'a'}}},
		{"partial", Set{{'a', 'm'}}, Set{{'f', 'z'}}, Set{{'f', 'm'}}},
		{"multi", Set{{'0', '9'}, {'a', 'z'}}, Set{{'5', 'c'}}, Set{{'5', '9'}, {'a', 'c'}}},
		{"touching bounds", Set{{'a', 'c'}}, Set{{'c', 'e'}}, Set{{'c', 'c'}}},
		{"non canonical input", Set{{'x', 'z'}, {'a', 'b'}, {'c', 'd'}}, Set{{'b', 'y'}}, Set{{'b', 'd'}, {'x', 'y'}}},
		{"with full", Set{{'q', 'q'}}, Full(), Set{{'q', 'q'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Intersect(tt.a, tt.b)
			if !equalExact(got, tt.want) {
				t.Errorf("Intersect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	got := Union(Set{{'x', 'z'}, {'a', 'c'}}, Set{{'d', 'f'}, {'y', 'y'}})
	want := Set{{'a', 'f'}, {'x', 'z'}}
	if !equalExact(got, want) {
		t.Errorf("Union = %v, want %v", got, want)
	}
}

func TestInvert(t *testing.T) {
	tests := []struct {
		name string
		in   Set
		want Set
	}{
		{"empty", nil, Full()},
		{"full", Full(), nil},
		{"middle", Set{{'b', 'c'}}, Set{{0, 'a'}, {'d', MaxRune}}},
		{"from zero", Set{{0, 'a'}}, Set{{'b', MaxRune}}},
		{"to max", Set{{'b', MaxRune}}, Set{{0, 'a'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Invert(tt.in)
			if !equalExact(got, tt.want) {
				t.Errorf("Invert(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// algebraic properties over a handful of representative sets
func TestSetProperties(t *testing.T) {
	sets := []Set{
		nil,
		Full(),
		{{'a', 'a'}},
		{{'0', '9'}, {'A', 'Z'}, {'a', 'z'}},
		{{0, 0x7F}},
		{{0x80, MaxRune}},
		{{'z', 'z'}, {'a', 'c'}, {'b', 'f'}},
		{{0x1F600, 0x1F64F}},
	}

	for _, a := range sets {
		for _, b := range sets {
			if ab, ba := Intersect(a, b), Intersect(b, a); !equalExact(ab, ba) {
				t.Errorf("Intersect(%v, %v) = %v but reversed = %v", a, b, ab, ba)
			}
		}
		if u := Union(a, Invert(a)); !u.IsFull() {
			t.Errorf("Union(%v, Invert) = %v, want full domain", a, u)
		}
		if !equalExact(Invert(Invert(a)), Resort(a)) {
			t.Errorf("Invert(Invert(%v)) = %v", a, Invert(Invert(a)))
		}
		if !Intersect(a, Invert(a)).IsEmpty() {
			t.Errorf("set %v intersects its complement", a)
		}
	}
}

func TestContains(t *testing.T) {
	s := Resort([]Range{{'0', '9'}, {'a', 'f'}, {0x4E00, 0x9FFF}})
	for _, c := range []rune{'0', '5', '9', 'a', 'f', 0x4E00, 0x9FFF} {
		if !s.Contains(c) {
			t.Errorf("%v should contain %q", s, c)
		}
	}
	for _, c := range []rune{'/', ':', 'g', 'A', 0x4DFF, 0xA000} {
		if s.Contains(c) {
			t.Errorf("%v should not contain %q", s, c)
		}
	}
}

func TestRepresentative(t *testing.T) {
	tests := []struct {
		name string
		in   Set
		want rune
		ok   bool
	}{
		{"empty", nil, 0, false},
		{"full prefers digit", Full(), '0', true},
		{"letter", Set{{'a', 'z'}}, 'a', true},
		{"upper before lower", Set{{'a', 'z'}, {'A', 'Z'}}, 'A', true},
		{"underscore", Set{{'!', '/'}, {'_', '_'}}, '_', true},
		{"negated letter", Invert(Set{{'a', 'a'}}), '0', true},
		{"punctuation fallback", Set{{'!', '!'}}, '!', true},
		{"non ascii fallback", Set{{0x3B1, 0x3C9}}, 0x3B1, true},
		{"mixed prefers class over earlier code point", Set{{' ', ' '}, {'q', 'q'}}, 'q', true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Representative(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Representative(%v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   Set
		want string
	}{
		{Set{{'a', 'a'}}, "[a]"},
		{Set{{'a', 'b'}}, "[ab]"},
		{Set{{'0', '9'}, {'a', 'f'}}, "[0-9a-f]"},
		{Set{{'-', '-'}}, `[\-]`},
		{Set{{'\n', '\n'}}, `[\u000A]`},
		{Full(), "[^]"},
		{nil, "[]"},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String(%v) = %q, want %q", []Range(tt.in), got, tt.want)
		}
	}
}

func equalExact(a, b Set) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
