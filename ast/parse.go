package ast

import (
	"errors"
	"fmt"
	"regexp/syntax"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxRepeat bounds the counts of {n,m} quantifiers.
const maxRepeat = 1000

// ErrUnsupportedFeature indicates a construct the finite-automaton model
// cannot represent.
var ErrUnsupportedFeature = errors.New("unsupported regex feature")

// UnsupportedFeatureError names the construct that was rejected.
type UnsupportedFeatureError struct {
	Feature string
}

// Error implements the error interface
func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedFeature, e.Feature)
}

// Unwrap returns ErrUnsupportedFeature
func (e *UnsupportedFeatureError) Unwrap() error {
	return ErrUnsupportedFeature
}

// SyntaxError reports a malformed pattern and the byte offset where parsing
// stopped.
type SyntaxError struct {
	Pattern string
	Offset  int
	Msg     string
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parse %q: %s at offset %d", e.Pattern, e.Msg, e.Offset)
}

// Parse parses pattern into a syntax tree.
//
// The tree keeps the pattern's structure exactly as written: alternatives
// are neither factored nor merged, so (a|a)* keeps two branches, and
// repetition structure such as (a+)+ survives. Lookahead, negative lookahead
// and numbered or named backreferences produce their nodes; lookbehind,
// atomic groups and conditionals fail with ErrUnsupportedFeature.
//
// Character classes and escapes follow Go's regexp/syntax with Perl flags.
// The flags i and s are honored, either for the rest of the enclosing group
// ((?i)) or for a group ((?i:...)). ^ and $ always anchor at the text ends.
func Parse(pattern string) (*Pattern, error) {
	p := &parser{src: pattern, names: make(map[string]int)}
	d, err := p.parseDisjunction()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected )")
	}
	var flags string
	if p.fold {
		flags = "i"
	}
	return &Pattern{Flags: flags, Disjunction: d}, nil
}

type parser struct {
	src string
	pos int

	fold  bool // (?i)
	dotNL bool // (?s)

	groups int
	names  map[string]int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pattern: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	return p.src[p.pos]
}

func (p *parser) lookingAt(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

// parseDisjunction reads alternatives up to an unmatched ) or the end.
func (p *parser) parseDisjunction() (*Disjunction, error) {
	d := &Disjunction{}
	for {
		alt, err := p.parseAlternative()
		if err != nil {
			return nil, err
		}
		d.Alternatives = append(d.Alternatives, alt)
		if p.eof() || p.peek() != '|' {
			return d, nil
		}
		p.pos++
	}
}

func (p *parser) parseAlternative() (*Alternative, error) {
	alt := &Alternative{}
	for !p.eof() && p.peek() != '|' && p.peek() != ')' {
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if t != nil {
			alt.Terms = append(alt.Terms, t)
		}
	}
	return alt, nil
}

// parseTerm reads one atom and its quantifier. A flag group such as (?i)
// yields no term.
func (p *parser) parseTerm() (Term, error) {
	if _, _, _, ok := p.quantifierAhead(); ok {
		return nil, p.errorf("missing argument to repetition operator")
	}
	atom, err := p.parseAtom()
	if err != nil || atom == nil {
		return nil, err
	}

	q, err := p.parseQuantifier()
	if err != nil || q == nil {
		return atom, err
	}
	if _, _, _, ok := p.quantifierAhead(); ok {
		return nil, p.errorf("invalid nested repetition operator")
	}
	return quantify(atom, q), nil
}

// quantifierAhead reports the quantifier at the current position without
// consuming it: its bounds and its length in bytes. A { that does not start
// a well-formed {n}, {n,} or {n,m} is a literal.
func (p *parser) quantifierAhead() (atLeast, atMost, size int, ok bool) {
	if p.eof() {
		return 0, 0, 0, false
	}
	switch p.peek() {
	case '*':
		return 0, Unbounded, 1, true
	case '+':
		return 1, Unbounded, 1, true
	case '?':
		return 0, 1, 1, true
	case '{':
		return p.braces()
	}
	return 0, 0, 0, false
}

func (p *parser) braces() (atLeast, atMost, size int, ok bool) {
	s := p.src[p.pos+1:]
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return 0, 0, 0, false
	}
	body := s[:end]
	lo, hi, comma := strings.Cut(body, ",")
	atLeast, ok = decimal(lo)
	if !ok {
		return 0, 0, 0, false
	}
	atMost = atLeast
	if comma {
		atMost = Unbounded
		if hi != "" {
			if atMost, ok = decimal(hi); !ok {
				return 0, 0, 0, false
			}
		}
	}
	return atLeast, atMost, end + 2, true
}

func decimal(s string) (int, bool) {
	if s == "" || len(s) > 8 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// parseQuantifier consumes a quantifier and its lazy marker. Bounds out of
// order are kept for the compiler to reject.
func (p *parser) parseQuantifier() (*Quantifier, error) {
	atLeast, atMost, size, ok := p.quantifierAhead()
	if !ok {
		return nil, nil
	}
	if atLeast > maxRepeat || atMost > maxRepeat {
		return nil, p.errorf("invalid repeat count")
	}
	p.pos += size
	q := &Quantifier{AtLeast: atLeast, AtMost: atMost, Greedy: true}
	if !p.eof() && p.peek() == '?' {
		p.pos++
		q.Greedy = false
	}
	return q, nil
}

// quantify attaches q to atom, wrapping it in a non-capturing group unless
// atom carries quantifiers itself.
func quantify(atom Term, q *Quantifier) Term {
	switch t := atom.(type) {
	case *Character:
		t.Quantifier = q
		return t
	case *Set:
		t.Quantifier = q
		return t
	case *Group:
		if t.Quantifier == nil {
			t.Quantifier = q
			return t
		}
	}
	return &Group{Disjunction: Disj(Alt(atom)), Quantifier: q}
}

func (p *parser) parseAtom() (Term, error) {
	switch c := p.peek(); c {
	case '^':
		p.pos++
		return &StartAnchor{}, nil
	case '$':
		p.pos++
		return &EndAnchor{}, nil
	case '.':
		p.pos++
		if p.dotNL {
			return &Set{Complement: true}, nil
		}
		return &Set{Members: []ClassMember{{From: '\n', To: '\n'}}, Complement: true}, nil
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseClass()
	case '\\':
		return p.parseEscape()
	default:
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r == utf8.RuneError && size == 1 {
			return nil, p.errorf("invalid UTF-8")
		}
		p.pos += size
		return literal(r, p.fold), nil
	}
}

func (p *parser) parseGroup() (Term, error) {
	start := p.pos
	p.pos++

	var g Term
	var inner **Disjunction
	switch {
	case p.lookingAt("?:"):
		p.pos += 2
		grp := &Group{}
		g, inner = grp, &grp.Disjunction
	case p.lookingAt("?="):
		p.pos += 2
		la := &Lookahead{}
		g, inner = la, &la.Disjunction
	case p.lookingAt("?!"):
		p.pos += 2
		la := &NegativeLookahead{}
		g, inner = la, &la.Disjunction
	case p.lookingAt("?<=") || p.lookingAt("?<!"):
		return nil, &UnsupportedFeatureError{Feature: "lookbehind"}
	case p.lookingAt("?>"):
		return nil, &UnsupportedFeatureError{Feature: "atomic group"}
	case p.lookingAt("?("):
		return nil, &UnsupportedFeatureError{Feature: "conditional"}
	case p.lookingAt("?P<") || p.lookingAt("?<"):
		p.pos += strings.IndexByte(p.src[p.pos:], '<') + 1
		name, err := p.parseGroupName()
		if err != nil {
			return nil, err
		}
		p.groups++
		p.names[name] = p.groups
		grp := &Group{Capturing: true}
		g, inner = grp, &grp.Disjunction
	case p.lookingAt("?"):
		p.pos++
		scoped, err := p.parseFlags()
		if err != nil {
			return nil, err
		}
		if !scoped {
			return nil, nil
		}
		grp := &Group{}
		g, inner = grp, &grp.Disjunction
	default:
		p.groups++
		grp := &Group{Capturing: true}
		g, inner = grp, &grp.Disjunction
	}

	fold, dotNL := p.fold, p.dotNL
	d, err := p.parseDisjunction()
	if err != nil {
		return nil, err
	}
	p.fold, p.dotNL = fold, dotNL
	if p.eof() {
		p.pos = start
		return nil, p.errorf("missing closing )")
	}
	p.pos++
	*inner = d
	return g, nil
}

func (p *parser) parseGroupName() (string, error) {
	end := strings.IndexByte(p.src[p.pos:], '>')
	if end < 0 {
		return "", p.errorf("invalid named capture")
	}
	name := p.src[p.pos : p.pos+end]
	if name == "" {
		return "", p.errorf("invalid named capture")
	}
	for _, r := range name {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", p.errorf("invalid named capture")
		}
	}
	if _, dup := p.names[name]; dup {
		return "", p.errorf("duplicate capture group name %q", name)
	}
	p.pos += end + 1
	return name, nil
}

// parseFlags reads the flags after "(?". It reports true for a scoped group
// (?flags:...), leaving the position on its body, and false for (?flags),
// which changes the flags for the rest of the enclosing group.
func (p *parser) parseFlags() (bool, error) {
	on := true
	fold, dotNL := p.fold, p.dotNL
	for !p.eof() {
		c := p.peek()
		p.pos++
		switch c {
		case 'i':
			fold = on
		case 's':
			dotNL = on
		case 'm', 'U':
			// ^ and $ anchor at the text ends; greediness does not change
			// the automaton
		case '-':
			if !on {
				return false, p.errorf("invalid flag group")
			}
			on = false
		case ':', ')':
			p.fold, p.dotNL = fold, dotNL
			return c == ':', nil
		default:
			return false, p.errorf("unknown flag %q", c)
		}
	}
	return false, p.errorf("missing closing )")
}

// parseClass delegates a bracketed class to regexp/syntax.
func (p *parser) parseClass() (Term, error) {
	i := p.pos + 1
	if i < len(p.src) && p.src[i] == '^' {
		i++
	}
	if i < len(p.src) && p.src[i] == ']' {
		i++
	}
	for i < len(p.src) {
		switch {
		case p.src[i] == ']':
			return p.delegate(p.src[p.pos : i+1])
		case p.src[i] == '\\':
			i += escapeSize(p.src[i:])
		case strings.HasPrefix(p.src[i:], "[:"):
			if end := strings.Index(p.src[i+2:], ":]"); end >= 0 {
				i += end + 4
			} else {
				i++
			}
		default:
			_, size := utf8.DecodeRuneInString(p.src[i:])
			i += size
		}
	}
	return nil, p.errorf("missing closing ]")
}

// escapeSize returns the length of the escape sequence at the start of s.
func escapeSize(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	switch s[1] {
	case 'p', 'P', 'x':
		if len(s) > 2 && s[2] == '{' {
			if end := strings.IndexByte(s, '}'); end >= 0 {
				return end + 1
			}
			return len(s)
		}
		if s[1] == 'x' {
			return min(4, len(s))
		}
		return min(3, len(s))
	case '0':
		n := 2
		for n < len(s) && n < 4 && s[n] >= '0' && s[n] <= '7' {
			n++
		}
		return n
	}
	_, size := utf8.DecodeRuneInString(s[1:])
	return 1 + size
}

func (p *parser) parseEscape() (Term, error) {
	if p.pos+1 >= len(p.src) {
		return nil, p.errorf("trailing backslash at end of expression")
	}
	switch c := p.src[p.pos+1]; {
	case c == 'b':
		p.pos += 2
		return &WordBoundary{}, nil
	case c == 'B':
		p.pos += 2
		return &NonWordBoundary{}, nil
	case c == 'A':
		p.pos += 2
		return &StartAnchor{}, nil
	case c == 'z':
		p.pos += 2
		return &EndAnchor{}, nil
	case c >= '1' && c <= '9':
		p.pos++
		end := p.pos
		for end < len(p.src) && p.src[end] >= '0' && p.src[end] <= '9' {
			end++
		}
		n, ok := decimal(p.src[p.pos:end])
		if !ok {
			return nil, p.errorf("invalid backreference")
		}
		p.pos = end
		return &GroupBackReference{Index: n}, nil
	case c == 'k':
		p.pos += 2
		if p.eof() || p.peek() != '<' {
			return nil, p.errorf("invalid named backreference")
		}
		p.pos++
		end := strings.IndexByte(p.src[p.pos:], '>')
		if end < 0 {
			return nil, p.errorf("invalid named backreference")
		}
		name := p.src[p.pos : p.pos+end]
		index, ok := p.names[name]
		if !ok {
			return nil, p.errorf("unknown group name %q", name)
		}
		p.pos += end + 1
		return &GroupBackReference{Index: index}, nil
	case c == 'Q':
		return p.parseQuoted()
	}
	return p.delegate(p.src[p.pos : p.pos+escapeSize(p.src[p.pos:])])
}

// parseQuoted reads \Q...\E as a group of literals.
func (p *parser) parseQuoted() (Term, error) {
	p.pos += 2
	text := p.src[p.pos:]
	if end := strings.Index(text, `\E`); end >= 0 {
		text = text[:end]
		p.pos += 2
	}
	p.pos += len(text)

	alt := Alt()
	for _, r := range text {
		alt.Terms = append(alt.Terms, literal(r, p.fold))
	}
	if len(alt.Terms) == 1 {
		return alt.Terms[0], nil
	}
	return &Group{Disjunction: Disj(alt)}, nil
}

// delegate parses a single class or escape atom with regexp/syntax and
// advances past it.
func (p *parser) delegate(atom string) (Term, error) {
	flags := syntax.Perl
	if p.fold {
		flags |= syntax.FoldCase
	}
	re, err := syntax.Parse(atom, flags)
	if err != nil {
		return nil, &SyntaxError{Pattern: p.src, Offset: p.pos, Msg: err.Error()}
	}
	terms, err := toTerms(re)
	if err != nil {
		return nil, err
	}
	if len(terms) != 1 {
		return nil, p.errorf("invalid escape %s", atom)
	}
	p.pos += len(atom)
	return terms[0], nil
}

// FromSyntax converts a parsed regexp/syntax tree. The tree is taken as
// regexp/syntax built it, including any factoring of alternatives it applied.
func FromSyntax(re *syntax.Regexp) (*Pattern, error) {
	d, err := toDisjunction(re)
	if err != nil {
		return nil, err
	}
	var flags string
	if re.Flags&syntax.FoldCase != 0 {
		flags = "i"
	}
	return &Pattern{Flags: flags, Disjunction: d}, nil
}

func toDisjunction(re *syntax.Regexp) (*Disjunction, error) {
	if re.Op == syntax.OpAlternate {
		d := &Disjunction{}
		for _, sub := range re.Sub {
			terms, err := toTerms(sub)
			if err != nil {
				return nil, err
			}
			d.Alternatives = append(d.Alternatives, &Alternative{Terms: terms})
		}
		return d, nil
	}
	terms, err := toTerms(re)
	if err != nil {
		return nil, err
	}
	return Disj(&Alternative{Terms: terms}), nil
}

// toTerms flattens re into the terms of one alternative.
func toTerms(re *syntax.Regexp) ([]Term, error) {
	switch re.Op {
	case syntax.OpEmptyMatch:
		return nil, nil
	case syntax.OpNoMatch:
		return []Term{&Set{}}, nil
	case syntax.OpLiteral:
		terms := make([]Term, 0, len(re.Rune))
		for _, r := range re.Rune {
			terms = append(terms, literal(r, re.Flags&syntax.FoldCase != 0))
		}
		return terms, nil
	case syntax.OpCharClass:
		return []Term{charClass(re.Rune)}, nil
	case syntax.OpAnyChar:
		return []Term{&Set{Complement: true}}, nil
	case syntax.OpAnyCharNotNL:
		return []Term{&Set{Members: []ClassMember{{From: '\n', To: '\n'}}, Complement: true}}, nil
	case syntax.OpBeginLine, syntax.OpBeginText:
		return []Term{&StartAnchor{}}, nil
	case syntax.OpEndLine, syntax.OpEndText:
		return []Term{&EndAnchor{}}, nil
	case syntax.OpWordBoundary:
		return []Term{&WordBoundary{}}, nil
	case syntax.OpNoWordBoundary:
		return []Term{&NonWordBoundary{}}, nil
	case syntax.OpConcat:
		var terms []Term
		for _, sub := range re.Sub {
			t, err := toTerms(sub)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t...)
		}
		return terms, nil
	case syntax.OpCapture:
		d, err := toDisjunction(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return []Term{&Group{Capturing: true, Disjunction: d}}, nil
	case syntax.OpAlternate:
		d, err := toDisjunction(re)
		if err != nil {
			return nil, err
		}
		return []Term{&Group{Disjunction: d}}, nil
	case syntax.OpStar:
		return quantified(re.Sub[0], 0, Unbounded, re.Flags)
	case syntax.OpPlus:
		return quantified(re.Sub[0], 1, Unbounded, re.Flags)
	case syntax.OpQuest:
		return quantified(re.Sub[0], 0, 1, re.Flags)
	case syntax.OpRepeat:
		return quantified(re.Sub[0], re.Min, re.Max, re.Flags)
	default:
		return nil, fmt.Errorf("unsupported regexp/syntax operation %v", re.Op)
	}
}

// quantified attaches a quantifier to sub, wrapping it in a non-capturing
// group unless it converts to exactly one unquantified term.
func quantified(sub *syntax.Regexp, atLeast, atMost int, flags syntax.Flags) ([]Term, error) {
	q := &Quantifier{AtLeast: atLeast, AtMost: atMost, Greedy: flags&syntax.NonGreedy == 0}
	terms, err := toTerms(sub)
	if err != nil {
		return nil, err
	}
	if len(terms) == 1 {
		switch t := terms[0].(type) {
		case *Character:
			if t.Quantifier == nil {
				t.Quantifier = q
				return terms, nil
			}
		case *Set:
			if t.Quantifier == nil {
				t.Quantifier = q
				return terms, nil
			}
		case *Group:
			if t.Quantifier == nil {
				t.Quantifier = q
				return terms, nil
			}
		}
	}
	return []Term{&Group{Disjunction: Disj(&Alternative{Terms: terms}), Quantifier: q}}, nil
}

func literal(r rune, fold bool) Term {
	if !fold {
		return &Character{Value: r}
	}
	members := []ClassMember{{From: r, To: r}}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		members = append(members, ClassMember{From: f, To: f})
	}
	if len(members) == 1 {
		return &Character{Value: r}
	}
	return &Set{Members: members}
}

func charClass(pairs []rune) *Set {
	s := &Set{Members: make([]ClassMember, 0, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Members = append(s.Members, ClassMember{From: pairs[i], To: pairs[i+1]})
	}
	return s
}
