// Package molang implements a dynamically-typed, numerically-biased
// expression language: namespaced variables, bounded loops, a for_each
// iterator, flow control, array/struct literals, and a math.* builtin
// library, evaluated by two engines — a tree-walking interpreter and a
// closure-compiling production backend — that are required to agree.
package molang

import (
	"math/rand"
	"time"
)

// RandSource is the minimal PRNG surface molang's random/random_integer/
// die_roll builtins need. *math/rand.Rand satisfies it; hosts that want
// deterministic tests supply a seeded one via Config.RandSource.
type RandSource = randSource

// Config configures an Engine. Zero-valued fields are filled with defaults
// inside NewEngine, the same constructor pattern the teacher's interpreter
// package uses for its own Config.
type Config struct {
	// MaxLoopIterations bounds every `loop(count, {...})`; count is
	// clamped into [0, MaxLoopIterations]. Defaults to 1024.
	MaxLoopIterations int

	// RecursionLimit is stored on the Engine and defaults to 256. The
	// parser does not consult it, so nested array/struct literal depth is
	// not bounded.
	RecursionLimit int

	// RandSource backs math.random/math.random_integer/math.die_roll*.
	// Defaults to a time-seeded math/rand.Rand.
	RandSource RandSource
}

func (c Config) withDefaults() Config {
	if c.MaxLoopIterations <= 0 {
		c.MaxLoopIterations = maxLoopIterations
	}
	if c.RecursionLimit <= 0 {
		c.RecursionLimit = 256
	}
	if c.RandSource == nil {
		c.RandSource = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Engine owns the expression cache and the configuration every Evaluate
// call runs under. Construct with NewEngine; the zero Engine is not
// usable, matching the teacher's own Engine/NewEngine pairing.
type Engine struct {
	cfg   Config
	cache *expressionCache
	rt    *mathRuntime
}

func NewEngine(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:   cfg,
		cache: newExpressionCache(),
		rt:    &mathRuntime{rng: cfg.RandSource},
	}
}

// Evaluate parses, lowers, and runs source against ctx. Pure numeric
// expressions (a single expression statement or `return <expr>;`
// containing no flow control)
// take the cached, compiled fast path; anything else is compiled fresh
// every call, same as a whole-program JIT compile with no cache entry.
func (e *Engine) Evaluate(source string, ctx *RuntimeContext) (float64, error) {
	_, irProg, err := e.parseAndLower(source)
	if err != nil {
		return 0, err
	}

	if pure, ok := asPureExpr(irProg); ok {
		compiled, err := e.cache.compileCached(source, pure)
		if err != nil {
			return 0, err
		}
		return compiled.Run(ctx, e.rt)
	}

	run, err := compileProgram(irProg, e.cfg.MaxLoopIterations)
	if err != nil {
		return 0, err
	}
	return run.Run(ctx, e.rt)
}

func (e *Engine) parseAndLower(source string) (*Program, *IrProgram, error) {
	prog, err := ParseProgram(source)
	if err != nil {
		return nil, nil, err
	}
	irProg, err := lowerProgram(prog)
	if err != nil {
		return prog, nil, err
	}
	return prog, irProg, nil
}

// EvaluateInterpreted runs source through the tree-walking interpreter
// only, bypassing the compiled-closure backend entirely. This is the
// oracle differential tests compare Evaluate's output against.
func (e *Engine) EvaluateInterpreted(source string, ctx *RuntimeContext) (float64, error) {
	_, irProg, err := e.parseAndLower(source)
	if err != nil {
		return 0, err
	}
	in := newInterpreter(ctx, e.rt, e.cfg.MaxLoopIterations)
	return in.Run(irProg)
}

var defaultEngine = NewEngine(Config{})

// Evaluate runs source against ctx using a package-level default Engine,
// for hosts that don't need engine-level configuration.
func Evaluate(source string, ctx *RuntimeContext) (float64, error) {
	return defaultEngine.Evaluate(source, ctx)
}
