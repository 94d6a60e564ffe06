package molang

import "math"

// registerEasing wires the full Penner easing-curve family: ten shapes
// (quad, cubic, quart, quint, sine, expo, circ, back, elastic, bounce),
// each with ease_in/ease_out/ease_in_out variants, as math.ease_in_quad,
// math.ease_out_quad, math.ease_in_out_quad, and so on. Every curve takes a
// single parameter t and is defined over t in [0, 1], though nothing stops
// a script from calling it outside that range.
func registerEasing(register func(name string, min, max int, fn func(rt *mathRuntime, args []float64) float64)) {
	type shape struct {
		name             string
		in, out, inOut   func(float64) float64
	}

	shapes := []shape{
		{"quad", easeInQuad, easeOutQuad, easeInOutQuad},
		{"cubic", easeInCubic, easeOutCubic, easeInOutCubic},
		{"quart", easeInQuart, easeOutQuart, easeInOutQuart},
		{"quint", easeInQuint, easeOutQuint, easeInOutQuint},
		{"sine", easeInSine, easeOutSine, easeInOutSine},
		{"expo", easeInExpo, easeOutExpo, easeInOutExpo},
		{"circ", easeInCirc, easeOutCirc, easeInOutCirc},
		{"back", easeInBack, easeOutBack, easeInOutBack},
		{"elastic", easeInElastic, easeOutElastic, easeInOutElastic},
		{"bounce", easeInBounce, easeOutBounce, easeInOutBounce},
	}

	wrap := func(f func(float64) float64) func(*mathRuntime, []float64) float64 {
		return func(_ *mathRuntime, a []float64) float64 { return f(a[0]) }
	}

	for _, s := range shapes {
		register("ease_in_"+s.name, 1, 1, wrap(s.in))
		register("ease_out_"+s.name, 1, 1, wrap(s.out))
		register("ease_in_out_"+s.name, 1, 1, wrap(s.inOut))
	}
}

func easeInQuad(t float64) float64  { return t * t }
func easeOutQuad(t float64) float64 { return 1 - (1-t)*(1-t) }
func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func easeInCubic(t float64) float64  { return t * t * t }
func easeOutCubic(t float64) float64 { return 1 - math.Pow(1-t, 3) }
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func easeInQuart(t float64) float64  { return t * t * t * t }
func easeOutQuart(t float64) float64 { return 1 - math.Pow(1-t, 4) }
func easeInOutQuart(t float64) float64 {
	if t < 0.5 {
		return 8 * t * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 4)/2
}

func easeInQuint(t float64) float64  { return t * t * t * t * t }
func easeOutQuint(t float64) float64 { return 1 - math.Pow(1-t, 5) }
func easeInOutQuint(t float64) float64 {
	if t < 0.5 {
		return 16 * t * t * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 5)/2
}

func easeInSine(t float64) float64  { return 1 - math.Cos(t*math.Pi/2) }
func easeOutSine(t float64) float64 { return math.Sin(t * math.Pi / 2) }
func easeInOutSine(t float64) float64 {
	return -(math.Cos(math.Pi*t) - 1) / 2
}

func easeInExpo(t float64) float64 {
	if t == 0 {
		return 0
	}
	return math.Pow(2, 10*t-10)
}
func easeOutExpo(t float64) float64 {
	if t == 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*t)
}
func easeInOutExpo(t float64) float64 {
	switch {
	case t == 0:
		return 0
	case t == 1:
		return 1
	case t < 0.5:
		return math.Pow(2, 20*t-10) / 2
	default:
		return (2 - math.Pow(2, -20*t+10)) / 2
	}
}

func easeInCirc(t float64) float64  { return 1 - math.Sqrt(1-t*t) }
func easeOutCirc(t float64) float64 { return math.Sqrt(1 - (t-1)*(t-1)) }
func easeInOutCirc(t float64) float64 {
	if t < 0.5 {
		return (1 - math.Sqrt(1-math.Pow(2*t, 2))) / 2
	}
	return (math.Sqrt(1-math.Pow(-2*t+2, 2)) + 1) / 2
}

const (
	backC1 = 1.70158
	backC2 = backC1 * 1.525
	backC3 = backC1 + 1
)

func easeInBack(t float64) float64 {
	return backC3*t*t*t - backC1*t*t
}
func easeOutBack(t float64) float64 {
	return 1 + backC3*math.Pow(t-1, 3) + backC1*math.Pow(t-1, 2)
}
func easeInOutBack(t float64) float64 {
	if t < 0.5 {
		return (math.Pow(2*t, 2) * ((backC2+1)*2*t - backC2)) / 2
	}
	return (math.Pow(2*t-2, 2)*((backC2+1)*(t*2-2)+backC2) + 2) / 2
}

const elasticC4 = 2 * math.Pi / 3
const elasticC5 = 2 * math.Pi / 4.5

func easeInElastic(t float64) float64 {
	switch t {
	case 0:
		return 0
	case 1:
		return 1
	default:
		return -math.Pow(2, 10*t-10) * math.Sin((t*10-10.75)*elasticC4)
	}
}
func easeOutElastic(t float64) float64 {
	switch t {
	case 0:
		return 0
	case 1:
		return 1
	default:
		return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*elasticC4) + 1
	}
}
func easeInOutElastic(t float64) float64 {
	switch {
	case t == 0:
		return 0
	case t == 1:
		return 1
	case t < 0.5:
		return -(math.Pow(2, 20*t-10) * math.Sin((20*t-11.125)*elasticC5)) / 2
	default:
		return (math.Pow(2, -20*t+10)*math.Sin((20*t-11.125)*elasticC5))/2 + 1
	}
}

func easeOutBounce(t float64) float64 {
	const n1 = 7.5625
	const d1 = 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

func easeInBounce(t float64) float64 { return 1 - easeOutBounce(1-t) }

func easeInOutBounce(t float64) float64 {
	if t < 0.5 {
		return (1 - easeOutBounce(1-2*t)) / 2
	}
	return (1 + easeOutBounce(2*t-1)) / 2
}
