package molang

import (
	"math"
	"testing"
)

// evalBoth runs source through both backends against independent, freshly
// constructed RuntimeContexts (evaluation mutates temp/variable, so sharing
// one context across the two runs would make the second run see the
// first's leftover state).
func evalBoth(t *testing.T, engine *Engine, source string) (float64, float64) {
	t.Helper()
	got, err := engine.Evaluate(source, NewRuntimeContext())
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", source, err)
	}
	oracle, err := engine.EvaluateInterpreted(source, NewRuntimeContext())
	if err != nil {
		t.Fatalf("EvaluateInterpreted(%q): %v", source, err)
	}
	return got, oracle
}

func TestEndToEndScenarios(t *testing.T) {
	engine := NewEngine(Config{})

	cases := []struct {
		name   string
		source string
		want   float64
	}{
		{
			name:   "sqrt builtin",
			source: "return math.sqrt(16);",
			want:   4.0,
		},
		{
			name:   "arithmetic precedence",
			source: "return 2 + 3 * 4;",
			want:   14,
		},
		{
			name:   "ternary true branch",
			source: "return 1 > 0 ? 10 : 20;",
			want:   10,
		},
		{
			name:   "ternary false branch, no else, yields zero",
			source: "temp.x = 0 > 1 ? 10; return temp.x;",
			want:   0,
		},
		{
			name:   "null coalesce on missing variable",
			source: "return variable.missing ?? 7;",
			want:   7,
		},
		{
			name:   "null coalesce short-circuits on present variable",
			source: "variable.present = 3; return variable.present ?? 7;",
			want:   3,
		},
		{
			name:   "bounded loop accumulates",
			source: "temp.sum = 0; loop(5, { temp.sum = temp.sum + 1; }); return temp.sum;",
			want:   5,
		},
		{
			name:   "for_each sums an array literal",
			source: "temp.total = 0; for_each(temp.v, [1, 2, 3], { temp.total = temp.total + temp.v; }); return temp.total;",
			want:   6,
		},
		{
			name:   "struct field read after nested assignment",
			source: "variable.pos.x = 5; variable.pos.y = 10; return variable.pos.x + variable.pos.y;",
			want:   15,
		},
		{
			name:   "array indexing wraps out of range",
			source: "temp.arr = [1, 2, 3]; return temp.arr[5];",
			want:   3, // index 5 % 3 == 2 (zero-based) -> third element
		},
		{
			name:   "array indexing clamps negative",
			source: "temp.arr = [1, 2, 3]; return temp.arr[-4];",
			want:   1,
		},
		{
			name:   "length of array",
			source: "temp.arr = [1, 2, 3, 4]; return temp.arr.length;",
			want:   4,
		},
		{
			name:   "division by zero yields zero",
			source: "return 5 / 0;",
			want:   0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, oracle := evalBoth(t, engine, tc.source)
			if got != tc.want {
				t.Errorf("compiled backend = %v, want %v", got, tc.want)
			}
			if oracle != tc.want {
				t.Errorf("interpreter = %v, want %v", oracle, tc.want)
			}
		})
	}
}

func TestLoopClampsToCap(t *testing.T) {
	engine := NewEngine(Config{})
	ctx := NewRuntimeContext()
	got, err := engine.Evaluate("temp.n = 0; loop(9999, { temp.n = temp.n + 1; }); return temp.n;", ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != maxLoopIterations {
		t.Errorf("loop(9999, ...) ran %v times, want %v", got, maxLoopIterations)
	}
}

func TestLoopNegativeRunsZeroTimes(t *testing.T) {
	engine := NewEngine(Config{})
	ctx := NewRuntimeContext()
	got, err := engine.Evaluate("temp.n = 0; loop(-5, { temp.n = temp.n + 1; }); return temp.n;", ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("loop(-5, ...) ran %v times, want 0", got)
	}
}

func TestBreakStopsLoop(t *testing.T) {
	engine := NewEngine(Config{})
	ctx := NewRuntimeContext()
	got, err := engine.Evaluate("temp.n = 0; loop(10, { temp.n = temp.n + 1; temp.n == 3 ? break; }); return temp.n;", ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Errorf("break did not stop the loop at 3, got %v", got)
	}
}

func TestContinueSkipsRestOfBody(t *testing.T) {
	engine := NewEngine(Config{})
	ctx := NewRuntimeContext()
	got, err := engine.Evaluate(
		"temp.sum = 0; loop(5, { temp.i = temp.i ?? 0; temp.i = temp.i + 1; temp.i == 3 ? continue; temp.sum = temp.sum + temp.i; }); return temp.sum;",
		ctx)
	if err != nil {
		t.Fatal(err)
	}
	// i goes 1,2,3,4,5 but 3 is skipped before the add: 1+2+4+5 = 12
	if got != 12 {
		t.Errorf("continue did not skip iteration 3, got %v", got)
	}
}

func TestMissingVariableReadsAsNull(t *testing.T) {
	ctx := NewRuntimeContext()
	v, ok := ctx.lookup(QualifiedName{Namespace: NamespaceVariable, Path: []string{"never_set"}})
	if ok {
		t.Fatalf("expected missing read to report ok=false")
	}
	if !v.IsNull() {
		t.Fatalf("expected missing read to be Null, got %v", v)
	}
}

func TestCoalesceLaws(t *testing.T) {
	engine := NewEngine(Config{})
	ctx := NewRuntimeContext().WithVariable("a", Number(9))

	got, err := engine.Evaluate("return variable.a ?? null;", ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != 9 {
		t.Errorf("a ?? null != a: got %v", got)
	}

	got2, err := engine.Evaluate("return null ?? variable.a;", ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got2 != 9 {
		t.Errorf("null ?? b != b: got %v", got2)
	}
}

func TestExpressionCacheReusesCompiledExpression(t *testing.T) {
	engine := NewEngine(Config{})
	ctx := NewRuntimeContext()
	source := "return 1 + 2 * 3;"

	if _, err := engine.Evaluate(source, ctx); err != nil {
		t.Fatal(err)
	}
	if engine.cache.len() != 1 {
		t.Fatalf("expected one cache entry after first evaluation, got %d", engine.cache.len())
	}

	if _, err := engine.Evaluate(source, ctx); err != nil {
		t.Fatal(err)
	}
	if engine.cache.len() != 1 {
		t.Fatalf("expected cache reuse, got %d entries", engine.cache.len())
	}
}

func TestZeroCoalesceIsStrictNotTruthy(t *testing.T) {
	// Regression test for the JIT bug fixed by SPEC_FULL.md §3.1: 0 ?? 5
	// must be 0 in both engines, never 5.
	engine := NewEngine(Config{})
	ctx := NewRuntimeContext()
	got, err := engine.Evaluate("temp.z = 0; return temp.z ?? 5;", ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("0 ?? 5 = %v, want 0 (strict null check, not truthy)", got)
	}

	oracle, err := engine.EvaluateInterpreted("temp.z = 0; return temp.z ?? 5;", NewRuntimeContext())
	if err != nil {
		t.Fatal(err)
	}
	if oracle != 0 {
		t.Errorf("interpreter: 0 ?? 5 = %v, want 0", oracle)
	}
}

func TestMathEasingBoundaries(t *testing.T) {
	engine := NewEngine(Config{})
	families := []string{"quad", "cubic", "quart", "quint", "sine", "expo", "circ", "back", "elastic", "bounce"}
	for _, fam := range families {
		for _, variant := range []string{"ease_in_", "ease_out_", "ease_in_out_"} {
			name := variant + fam
			ctx := NewRuntimeContext()
			at0, err := engine.Evaluate("return math."+name+"(0);", ctx)
			if err != nil {
				t.Fatalf("%s(0): %v", name, err)
			}
			if math.Abs(at0) > 1e-6 {
				t.Errorf("%s(0) = %v, want ~0", name, at0)
			}
			at1, err := engine.Evaluate("return math."+name+"(1);", NewRuntimeContext())
			if err != nil {
				t.Fatalf("%s(1): %v", name, err)
			}
			if math.Abs(at1-1) > 1e-6 {
				t.Errorf("%s(1) = %v, want ~1", name, at1)
			}
		}
	}
}

func TestIndexedAssignmentIsRejected(t *testing.T) {
	_, err := ParseProgram("temp.arr[0] = 5;")
	if err == nil {
		t.Fatal("expected indexed assignment to be a parse error")
	}
}

func TestSnapshotRoundTrips(t *testing.T) {
	ctx := NewRuntimeContext()
	ctx.Set("variable.hp", Number(42))
	ctx.Set("variable.pos.x", Number(1))
	ctx.Set("variable.pos.y", Number(2))
	ctx.Set("variable.tags", Array([]Value{String("a"), String("b")}))

	data, err := ctx.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	restored, err := LoadSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}

	hp, ok := restored.Get("variable.hp")
	if !ok || hp.AsNumber() != 42 {
		t.Errorf("hp did not round-trip: %v, ok=%v", hp, ok)
	}
	x, ok := restored.Get("variable.pos.x")
	if !ok || x.AsNumber() != 1 {
		t.Errorf("pos.x did not round-trip: %v, ok=%v", x, ok)
	}
	tags, ok := restored.Get("variable.tags")
	if !ok || len(tags.AsArray()) != 2 {
		t.Errorf("tags did not round-trip: %v, ok=%v", tags, ok)
	}
}

func TestCaseInsensitiveIdentifiersRoundTrip(t *testing.T) {
	engine := NewEngine(Config{})
	got, oracle := evalBoth(t, engine, "Temp.X = 5; return temp.x;")
	if got != 5 {
		t.Errorf("compiled backend = %v, want 5", got)
	}
	if oracle != 5 {
		t.Errorf("interpreter = %v, want 5", oracle)
	}
}

func TestLoopCapHonorsEngineConfig(t *testing.T) {
	engine := NewEngine(Config{MaxLoopIterations: 3})
	source := "temp.n = 0; loop(100, { temp.n = temp.n + 1; }); return temp.n;"
	got, oracle := evalBoth(t, engine, source)
	if got != 3 {
		t.Errorf("compiled backend ran %v iterations, want 3 (configured cap)", got)
	}
	if oracle != 3 {
		t.Errorf("interpreter ran %v iterations, want 3 (configured cap)", oracle)
	}
}

func TestAssignmentShapesRoundTripThroughBothBackends(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   float64
	}{
		{
			name:   "string literal assignment",
			source: "temp.s = \"hello\"; return temp.s.length;",
			want:   5,
		},
		{
			name:   "bare path copy",
			source: "variable.a = 7; variable.b = variable.a; return variable.b;",
			want:   7,
		},
		{
			name:   "array literal assignment",
			source: "temp.arr = [1, 2, 3]; return temp.arr.length;",
			want:   3,
		},
		{
			name:   "struct literal assignment with nested field read",
			source: "temp.pt = { x: 1, y: 2 }; return temp.pt.x + temp.pt.y;",
			want:   3,
		},
	}

	engine := NewEngine(Config{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, oracle := evalBoth(t, engine, tc.source)
			if got != tc.want {
				t.Errorf("compiled backend = %v, want %v", got, tc.want)
			}
			if oracle != tc.want {
				t.Errorf("interpreter = %v, want %v", oracle, tc.want)
			}
		})
	}
}

func TestQueryNamespaceIsReadOnly(t *testing.T) {
	ctx := NewRuntimeContext().WithQuery("anim_time", 1.5)
	ctx.Set("query.anim_time", Number(99))
	v, _ := ctx.Get("query.anim_time")
	if v.AsNumber() != 1.5 {
		t.Errorf("query.anim_time was mutated by script-style assignment: got %v", v.AsNumber())
	}
}
