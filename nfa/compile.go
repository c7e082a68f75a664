package nfa

import (
	"fmt"

	"github.com/coregx/redos/ast"
	"github.com/coregx/redos/rangeset"
)

// CompilerConfig configures NFA compilation behavior
type CompilerConfig struct {
	// MaxRecursionDepth limits group nesting during compilation to prevent
	// stack overflow
	// Default: 100
	MaxRecursionDepth int

	// MaxStates limits the number of states allocated before simplification.
	// Counted quantifiers are unrolled, so nested counters multiply.
	// Default: 100000
	MaxStates int
}

// DefaultCompilerConfig returns a compiler configuration with sensible defaults
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		MaxRecursionDepth: 100,
		MaxStates:         100_000,
	}
}

// Validate rejects negative limits. Zero fields are replaced with defaults
// by NewCompiler.
func (c CompilerConfig) Validate() error {
	if c.MaxRecursionDepth < 0 {
		return fmt.Errorf("%w: MaxRecursionDepth %d", ErrInvalidConfig, c.MaxRecursionDepth)
	}
	if c.MaxStates < 0 {
		return fmt.Errorf("%w: MaxStates %d", ErrInvalidConfig, c.MaxStates)
	}
	return nil
}

// Compiler compiles syntax trees into simplified NFAs
type Compiler struct {
	config  CompilerConfig
	builder *Builder
	depth   int // current recursion depth
}

// NewCompiler creates a new NFA compiler with the given configuration
func NewCompiler(config CompilerConfig) *Compiler {
	defaults := DefaultCompilerConfig()
	if config.MaxRecursionDepth == 0 {
		config.MaxRecursionDepth = defaults.MaxRecursionDepth
	}
	if config.MaxStates == 0 {
		config.MaxStates = defaults.MaxStates
	}
	return &Compiler{
		config: config,
	}
}

// NewDefaultCompiler creates a new NFA compiler with default configuration
func NewDefaultCompiler() *Compiler {
	return NewCompiler(DefaultCompilerConfig())
}

// Compile parses pattern with ast.Parse and compiles it into an NFA
func (c *Compiler) Compile(pattern string) (*NFA, error) {
	p, err := ast.Parse(pattern)
	if err != nil {
		return nil, &CompileError{
			Pattern: pattern,
			Err:     err,
		}
	}

	n, err := c.CompilePattern(p)
	if err != nil {
		return nil, &CompileError{
			Pattern: pattern,
			Err:     err,
		}
	}
	return n, nil
}

// CompilePattern compiles a syntax tree into an NFA.
//
// State 0 is the initial state. Each disjunction, alternative and term is
// emitted between an explicit pair of states; the whole pattern runs from
// state 0 to the accept placeholder. The raw automaton is then simplified by
// Builder.Build.
func (c *Compiler) CompilePattern(p *ast.Pattern) (*NFA, error) {
	c.builder = NewBuilder()
	c.depth = 0

	if p == nil {
		return nil, &CompileError{Err: fmt.Errorf("nil pattern")}
	}
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	start, err := c.newState()
	if err != nil {
		return nil, err
	}
	if err := c.compileDisjunction(p.Disjunction, start, finalState); err != nil {
		return nil, err
	}

	return c.builder.Build()
}

// Compile compiles a syntax tree with the default configuration
func Compile(p *ast.Pattern) (*NFA, error) {
	return NewDefaultCompiler().CompilePattern(p)
}

func (c *Compiler) newState() (StateID, error) {
	if c.builder.States() >= c.config.MaxStates {
		return InvalidState, fmt.Errorf("%w: more than %d states", ErrTooComplex, c.config.MaxStates)
	}
	return c.builder.AddState(), nil
}

// compileDisjunction gives every alternative its own epsilon-joined path from
// 'from' to 'to'. A nil disjunction matches the empty string.
func (c *Compiler) compileDisjunction(d *ast.Disjunction, from, to StateID) error {
	c.depth++
	if c.depth > c.config.MaxRecursionDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrTooComplex, c.config.MaxRecursionDepth)
	}
	defer func() { c.depth-- }()

	if d == nil {
		return c.builder.AddEpsilon(from, to)
	}
	for _, alt := range d.Alternatives {
		if err := c.compileAlternative(alt, from, to); err != nil {
			return err
		}
	}
	return nil
}

// compileAlternative threads a chain of fresh states, one per term.
func (c *Compiler) compileAlternative(alt *ast.Alternative, from, to StateID) error {
	cur, err := c.newState()
	if err != nil {
		return err
	}
	if err := c.builder.AddEpsilon(from, cur); err != nil {
		return err
	}

	if alt != nil {
		for _, t := range alt.Terms {
			next, err := c.newState()
			if err != nil {
				return err
			}
			if err := c.compileTerm(t, cur, next); err != nil {
				return err
			}
			cur = next
		}
	}
	return c.builder.AddEpsilon(cur, to)
}

func (c *Compiler) compileTerm(t ast.Term, from, to StateID) error {
	switch t := t.(type) {
	case *ast.Character:
		cond := CharSet([]rangeset.Range{{From: t.Value, To: t.Value}}, false)
		return c.compileQuantified(t.Quantifier, from, to, c.edge(cond))
	case *ast.Set:
		ranges := make([]rangeset.Range, len(t.Members))
		for i, m := range t.Members {
			ranges[i] = rangeset.Range{From: m.From, To: m.To}
		}
		return c.compileQuantified(t.Quantifier, from, to, c.edge(CharSet(ranges, t.Complement)))
	case *ast.Group:
		return c.compileQuantified(t.Quantifier, from, to, func(from, to StateID) error {
			return c.compileDisjunction(t.Disjunction, from, to)
		})
	case *ast.StartAnchor:
		return c.builder.AddTransition(from, StartAnchor(), to)
	case *ast.EndAnchor:
		return c.builder.AddTransition(from, EndAnchor(), to)
	case *ast.WordBoundary:
		return c.builder.AddTransition(from, WordBoundary(), to)
	case *ast.NonWordBoundary:
		return c.builder.AddTransition(from, NonWordBoundary(), to)
	case *ast.GroupBackReference:
		return &UnsupportedFeatureError{Feature: fmt.Sprintf("backreference \\%d", t.Index)}
	case *ast.Lookahead:
		return &UnsupportedFeatureError{Feature: "lookahead"}
	case *ast.NegativeLookahead:
		return &UnsupportedFeatureError{Feature: "negative lookahead"}
	default:
		return fmt.Errorf("unknown term type %T", t)
	}
}

// edge returns a connector emitting a single transition labeled cond.
func (c *Compiler) edge(cond Condition) func(from, to StateID) error {
	return func(from, to StateID) error {
		return c.builder.AddTransition(from, cond, to)
	}
}

// compileQuantified emits connect between 'from' and 'to' repeated as q says.
//
// The AtLeast mandatory copies are chained through fresh states. An unbounded
// quantifier then adds one loop state that runs connect back to itself and
// exits to 'to'; a bounded one chains AtMost-AtLeast optional copies, each
// preceded by an epsilon exit to 'to'. Greedy and lazy quantifiers produce
// the same shape.
func (c *Compiler) compileQuantified(q *ast.Quantifier, from, to StateID, connect func(from, to StateID) error) error {
	if q == nil {
		return connect(from, to)
	}
	if q.AtLeast < 0 || (!q.IsUnbounded() && q.AtMost < q.AtLeast) {
		return &QuantifierError{AtLeast: q.AtLeast, AtMost: q.AtMost}
	}

	cur := from
	for i := 0; i < q.AtLeast; i++ {
		next, err := c.newState()
		if err != nil {
			return err
		}
		if err := connect(cur, next); err != nil {
			return err
		}
		cur = next
	}

	if q.IsUnbounded() {
		loop, err := c.newState()
		if err != nil {
			return err
		}
		if err := c.builder.AddEpsilon(cur, loop); err != nil {
			return err
		}
		if err := connect(loop, loop); err != nil {
			return err
		}
		return c.builder.AddEpsilon(loop, to)
	}

	for i := q.AtLeast; i < q.AtMost; i++ {
		if err := c.builder.AddEpsilon(cur, to); err != nil {
			return err
		}
		next, err := c.newState()
		if err != nil {
			return err
		}
		if err := connect(cur, next); err != nil {
			return err
		}
		cur = next
	}
	return c.builder.AddEpsilon(cur, to)
}
