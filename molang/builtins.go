package molang

import (
	"math"
	"sync"
)

// BuiltinDef describes one math.* function: its arity bounds and the
// implementation closure, which always operates on and returns float64 (the
// coercion table guarantees every argument Value has already become a
// number by the time a builtin runs).
type BuiltinDef struct {
	Name    string
	MinArgs int
	MaxArgs int
	Call    func(rt *mathRuntime, args []float64) float64
}

// mathRuntime carries the shared RNG behind a mutex. Go's math/rand has no
// lockable global source the way the reference implementation's
// once_cell::sync::Lazy<Mutex<SmallRng>> does, so the engine owns one
// instance and threads it through every builtin call.
type mathRuntime struct {
	mu  sync.Mutex
	rng randSource
}

// randSource is the minimal interface molang needs from a PRNG, so hosts can
// supply a seeded math/rand.Rand (via Config.RandSource) for deterministic
// tests.
type randSource interface {
	Float64() float64
}

func (rt *mathRuntime) random(low, high float64) float64 {
	low, high = normalizeLowHigh(low, high)
	rt.mu.Lock()
	r := rt.rng.Float64()
	rt.mu.Unlock()
	return low + r*(high-low)
}

func (rt *mathRuntime) randomInteger(low, high float64) float64 {
	low, high = normalizeLowHigh(low, high)
	lo, hi := math.Floor(low), math.Floor(high)
	rt.mu.Lock()
	r := rt.rng.Float64()
	rt.mu.Unlock()
	span := hi - lo + 1
	if span <= 0 {
		return lo
	}
	return lo + math.Floor(r*span)
}

// normalizeLowHigh swaps the bounds if low > high, matching builtins.rs's
// normalize_low_high so random(a, b) and random(b, a) behave identically.
func normalizeLowHigh(low, high float64) (float64, float64) {
	if low > high {
		return high, low
	}
	return low, high
}

var builtinRegistry map[string]*BuiltinDef

func init() {
	builtinRegistry = map[string]*BuiltinDef{}
	register := func(name string, min, max int, fn func(rt *mathRuntime, args []float64) float64) {
		builtinRegistry["math."+name] = &BuiltinDef{Name: "math." + name, MinArgs: min, MaxArgs: max, Call: fn}
	}

	unary := func(name string, f func(float64) float64) {
		register(name, 1, 1, func(_ *mathRuntime, a []float64) float64 { return f(a[0]) })
	}

	unary("abs", math.Abs)
	unary("sin", func(x float64) float64 { return math.Sin(degToRad(x)) })
	unary("cos", func(x float64) float64 { return math.Cos(degToRad(x)) })
	unary("asin", func(x float64) float64 { return radToDeg(math.Asin(x)) })
	unary("acos", func(x float64) float64 { return radToDeg(math.Acos(x)) })
	unary("atan", func(x float64) float64 { return radToDeg(math.Atan(x)) })
	unary("exp", math.Exp)
	unary("ln", math.Log)
	unary("sqrt", math.Sqrt)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", math.Round)
	unary("trunc", math.Trunc)
	unary("sign", func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	})

	register("atan2", 2, 2, func(_ *mathRuntime, a []float64) float64 { return radToDeg(math.Atan2(a[0], a[1])) })
	register("pow", 2, 2, func(_ *mathRuntime, a []float64) float64 { return math.Pow(a[0], a[1]) })
	register("mod", 2, 2, func(_ *mathRuntime, a []float64) float64 { return math.Mod(a[0], a[1]) })
	register("copy_sign", 2, 2, func(_ *mathRuntime, a []float64) float64 { return math.Copysign(a[0], a[1]) })
	register("max", 2, 2, func(_ *mathRuntime, a []float64) float64 { return math.Max(a[0], a[1]) })
	register("min", 2, 2, func(_ *mathRuntime, a []float64) float64 { return math.Min(a[0], a[1]) })
	register("pi", 0, 0, func(_ *mathRuntime, a []float64) float64 { return math.Pi })

	register("clamp", 3, 3, func(_ *mathRuntime, a []float64) float64 {
		v, lo, hi := a[0], a[1], a[2]
		lo, hi = normalizeLowHigh(lo, hi)
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	})

	register("lerp", 3, 3, func(_ *mathRuntime, a []float64) float64 {
		return a[0] + (a[1]-a[0])*a[2]
	})

	register("inverse_lerp", 3, 3, func(_ *mathRuntime, a []float64) float64 {
		lo, hi, v := a[0], a[1], a[2]
		if hi == lo {
			return 0
		}
		return (v - lo) / (hi - lo)
	})

	register("min_angle", 1, 1, func(_ *mathRuntime, a []float64) float64 {
		x := math.Mod(a[0], 360)
		if x < -180 {
			x += 360
		}
		if x > 180 {
			x -= 360
		}
		return x
	})

	register("lerprotate", 3, 3, func(_ *mathRuntime, a []float64) float64 {
		from, to, t := a[0], a[1], a[2]
		delta := math.Mod(to-from+180, 360) - 180
		if delta < -180 {
			delta += 360
		}
		return from + delta*t
	})

	register("hermite_blend", 1, 1, func(_ *mathRuntime, a []float64) float64 {
		t := a[0]
		return 3*t*t - 2*t*t*t
	})

	register("random", 0, 2, func(rt *mathRuntime, a []float64) float64 {
		low, high := 0.0, 1.0
		switch len(a) {
		case 1:
			high = a[0]
		case 2:
			low, high = a[0], a[1]
		}
		return rt.random(low, high)
	})

	register("random_integer", 2, 2, func(rt *mathRuntime, a []float64) float64 {
		return rt.randomInteger(a[0], a[1])
	})

	register("die_roll", 3, 3, func(rt *mathRuntime, a []float64) float64 {
		return dieRoll(rt, a[0], a[1], a[2], false)
	})

	register("die_roll_integer", 3, 3, func(rt *mathRuntime, a []float64) float64 {
		return dieRoll(rt, a[0], a[1], a[2], true)
	})

	registerEasing(register)
}

// dieRoll sums `count` rolls of random(low, high), rounding each roll to an
// integer first when integral is true (die_roll_integer).
func dieRoll(rt *mathRuntime, count, low, high float64, integral bool) float64 {
	n := int(math.Floor(count))
	if n < 0 {
		n = 0
	}
	var total float64
	for i := 0; i < n; i++ {
		roll := rt.random(low, high)
		if integral {
			roll = math.Round(roll)
		}
		total += roll
	}
	return total
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// lookupBuiltin resolves a dotted call target (["math", "sqrt"]) against
// the registry.
func lookupBuiltin(segments []string) (*BuiltinDef, bool) {
	def, ok := builtinRegistry[joinDotted(segments)]
	return def, ok
}
