package molang

// This file is the production execution path. Where a real native JIT
// would emit machine code once and run it directly, this backend compiles
// an IrExpr/IrProgram into a tree of Go closures once, so every subsequent
// evaluation walks straight through function calls with no per-node
// switch-on-kind dispatch left at run time — the same "compile to a
// callable, then just call it" contract, expressed the way Go expresses it.
// See SPEC_FULL.md §4.6 for why this replaces literal code generation.
//
// The runtime helper ABI below (rt_*) is the fixed boundary between
// compiled closures and the RuntimeContext they run against, matching the
// reference implementation's helper table function-for-function, plus one
// addition: rtIsNull, needed to keep `??` strict-null semantics identical
// between this backend and the interpreter (see SPEC_FULL.md §3.1).

func rtGetNumber(ctx *RuntimeContext, name QualifiedName) float64 {
	v, _ := ctx.lookup(name)
	return v.AsNumber()
}

func rtIsNull(ctx *RuntimeContext, name QualifiedName) bool {
	v, ok := ctx.lookup(name)
	return !ok || v.IsNull()
}

func rtSetNumber(ctx *RuntimeContext, name QualifiedName, n float64) {
	ctx.assign(name, Number(n))
}

func rtSetString(ctx *RuntimeContext, name QualifiedName, s string) {
	ctx.assign(name, String(s))
}

func rtClearValue(ctx *RuntimeContext, name QualifiedName) {
	ctx.assign(name, Null())
}

func rtCopyValue(ctx *RuntimeContext, dst, src QualifiedName) {
	v, _ := ctx.lookup(src)
	ctx.assign(dst, v)
}

func rtArrayPushNumber(arr []Value, n float64) []Value {
	return append(arr, Number(n))
}

func rtArrayPushString(arr []Value, s string) []Value {
	return append(arr, String(s))
}

func rtArrayLength(arr []Value) float64 {
	return float64(len(arr))
}

func rtArrayGetNumber(arr []Value, idx float64) float64 {
	return arrayIndex(arr, idx).AsNumber()
}

func rtArrayCopyElement(arr []Value, idx float64) Value {
	return arrayIndex(arr, idx)
}

// compiledExpr is the closure shape every compiled IrExpr node reduces to.
// It mirrors the interpreter's evalExpr signature exactly (Value, signal,
// error) so the two backends can be run side by side in differential
// tests with no adaptation.
type compiledExpr func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error)

type compiledStmt func(ctx *RuntimeContext, rt *mathRuntime) (signal, error)

// CompiledExpression is a pure-numeric expression compiled once and
// reusable across any number of RuntimeContexts, the unit the expression
// cache stores.
type CompiledExpression struct {
	run compiledExpr
}

func (c *CompiledExpression) Run(ctx *RuntimeContext, rt *mathRuntime) (float64, error) {
	v, sig, err := c.run(ctx, rt)
	if err != nil {
		return 0, err
	}
	if sig.kind != signalNone {
		return 0, &CompileError{Message: "flow control is not valid in a pure expression"}
	}
	return v.AsNumber(), nil
}

// CompiledProgram is a whole script compiled once into a closure chain.
type CompiledProgram struct {
	stmts  []compiledStmt
	isExpr []bool
}

func (c *CompiledProgram) Run(ctx *RuntimeContext, rt *mathRuntime) (float64, error) {
	last := 0.0
	for i, s := range c.stmts {
		sig, err := s(ctx, rt)
		if err != nil {
			return 0, err
		}
		if sig.kind == signalReturn {
			return sig.value, nil
		}
		if c.isExpr[i] {
			last = sig.value
		}
	}
	return last, nil
}

func compileExpression(e IrExpr) (*CompiledExpression, error) {
	run, err := compileExpr(e)
	if err != nil {
		return nil, err
	}
	return &CompiledExpression{run: run}, nil
}

func compileProgram(p *IrProgram, loopCap int) (*CompiledProgram, error) {
	stmts := make([]compiledStmt, 0, len(p.Statements))
	isExpr := make([]bool, 0, len(p.Statements))
	for _, s := range p.Statements {
		cs, err := compileStatement(s, loopCap)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, cs)
		_, ok := s.(*IrExprStmt)
		isExpr = append(isExpr, ok)
	}
	return &CompiledProgram{stmts: stmts, isExpr: isExpr}, nil
}

func compileStatement(s IrStatement, loopCap int) (compiledStmt, error) {
	switch x := s.(type) {
	case *IrExprStmt:
		body, err := compileExpr(x.X)
		if err != nil {
			return nil, err
		}
		return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
			v, sig, err := body(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return sig, err
			}
			return signal{kind: signalNone, value: v.AsNumber()}, nil
		}, nil

	case *IrAssignStmt:
		return compileAssign(x.Target, x.Value)

	case *IrReturnStmt:
		body, err := compileExpr(x.Value)
		if err != nil {
			return nil, err
		}
		return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
			v, sig, err := body(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return sig, err
			}
			return signal{kind: signalReturn, value: v.AsNumber()}, nil
		}, nil

	case *IrLoopStmt:
		count, err := compileExpr(x.Count)
		if err != nil {
			return nil, err
		}
		body, err := compileBlock(x.Body, loopCap)
		if err != nil {
			return nil, err
		}
		return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
			cv, sig, err := count(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return sig, err
			}
			n := clampLoopCount(cv.AsNumber(), loopCap)
			for i := 0; i < n; i++ {
				bodySig, err := body(ctx, rt)
				if err != nil {
					return noSignal, err
				}
				if bodySig.kind == signalBreak {
					break
				}
				if bodySig.kind == signalReturn {
					return bodySig, nil
				}
			}
			return noSignal, nil
		}, nil

	case *IrForEachStmt:
		arr, err := compileExpr(x.Array)
		if err != nil {
			return nil, err
		}
		body, err := compileBlock(x.Body, loopCap)
		if err != nil {
			return nil, err
		}
		target := x.Var
		return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
			av, sig, err := arr(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return sig, err
			}
			for _, elem := range av.AsArray() {
				ctx.assign(target, elem)
				bodySig, err := body(ctx, rt)
				if err != nil {
					return noSignal, err
				}
				if bodySig.kind == signalBreak {
					break
				}
				if bodySig.kind == signalReturn {
					return bodySig, nil
				}
			}
			return noSignal, nil
		}, nil

	default:
		return nil, &CompileError{Message: "unsupported statement shape"}
	}
}

func compileBlock(stmts []IrStatement, loopCap int) (compiledStmt, error) {
	compiled := make([]compiledStmt, 0, len(stmts))
	for _, s := range stmts {
		cs, err := compileStatement(s, loopCap)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cs)
	}
	return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
		for _, cs := range compiled {
			sig, err := cs(ctx, rt)
			if err != nil {
				return noSignal, err
			}
			if sig.kind != signalNone {
				return sig, nil
			}
		}
		return noSignal, nil
	}, nil
}

// compileAssign lowers an assignment through the shape-dispatched runtime
// ABI (SPEC_FULL.md §4.6): a numeric literal goes through rt_set_number, a
// string literal through rt_set_string, a bare path read is copied via
// rt_copy_value rather than re-deriving its Value, an array literal clears
// the destination and rebuilds it with rt_array_push_number/_string, and a
// struct literal clears the destination and recurses field-by-field.
// Anything else (a call, ternary, binary expression, ...) falls back to a
// plain compiled-expression write, since there is no narrower ABI shape for
// it.
func compileAssign(target QualifiedName, value IrExpr) (compiledStmt, error) {
	switch v := value.(type) {
	case *IrNumber:
		n := v.Value
		return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
			rtSetNumber(ctx, target, n)
			return noSignal, nil
		}, nil

	case *IrString:
		s := v.Value
		return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
			rtSetString(ctx, target, s)
			return noSignal, nil
		}, nil

	case *IrPath:
		if v.Index == nil {
			src := v.Name
			return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
				rtCopyValue(ctx, target, src)
				return noSignal, nil
			}, nil
		}

	case *IrArray:
		return compileArrayAssign(target, v)

	case *IrStruct:
		return compileStructAssign(target, v)
	}

	return compileGenericAssign(target, value)
}

func compileArrayAssign(target QualifiedName, lit *IrArray) (compiledStmt, error) {
	elemFns := make([]compiledExpr, 0, len(lit.Elements))
	for _, el := range lit.Elements {
		fn, err := compileExpr(el)
		if err != nil {
			return nil, err
		}
		elemFns = append(elemFns, fn)
	}
	return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
		var arr []Value
		for _, fn := range elemFns {
			ev, sig, err := fn(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return sig, err
			}
			switch ev.Kind() {
			case KindString:
				arr = rtArrayPushString(arr, ev.AsString())
			case KindNumber:
				arr = rtArrayPushNumber(arr, ev.AsNumber())
			default:
				arr = append(arr, ev)
			}
		}
		rtClearValue(ctx, target)
		ctx.assign(target, Array(arr))
		return noSignal, nil
	}, nil
}

func compileStructAssign(target QualifiedName, lit *IrStruct) (compiledStmt, error) {
	type compiledField struct {
		assign compiledStmt
	}
	fields := make([]compiledField, 0, len(lit.Fields))
	for _, f := range lit.Fields {
		fieldTarget := QualifiedName{
			Namespace: target.Namespace,
			Path:      append(append([]string{}, target.Path...), f.Name),
		}
		fieldAssign, err := compileAssign(fieldTarget, f.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, compiledField{assign: fieldAssign})
	}
	return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
		rtClearValue(ctx, target)
		for _, f := range fields {
			sig, err := f.assign(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return sig, err
			}
		}
		return noSignal, nil
	}, nil
}

func compileGenericAssign(target QualifiedName, value IrExpr) (compiledStmt, error) {
	body, err := compileExpr(value)
	if err != nil {
		return nil, err
	}
	return func(ctx *RuntimeContext, rt *mathRuntime) (signal, error) {
		v, sig, err := body(ctx, rt)
		if err != nil || sig.kind != signalNone {
			return sig, err
		}
		ctx.assign(target, v)
		return noSignal, nil
	}, nil
}

func compileExpr(e IrExpr) (compiledExpr, error) {
	switch x := e.(type) {
	case *IrNumber:
		v := Number(x.Value)
		return func(*RuntimeContext, *mathRuntime) (Value, signal, error) { return v, noSignal, nil }, nil

	case *IrString:
		v := String(x.Value)
		return func(*RuntimeContext, *mathRuntime) (Value, signal, error) { return v, noSignal, nil }, nil

	case *IrNull:
		return func(*RuntimeContext, *mathRuntime) (Value, signal, error) { return Null(), noSignal, nil }, nil

	case *IrBreak:
		return func(*RuntimeContext, *mathRuntime) (Value, signal, error) {
			return Null(), signal{kind: signalBreak}, nil
		}, nil

	case *IrContinue:
		return func(*RuntimeContext, *mathRuntime) (Value, signal, error) {
			return Null(), signal{kind: signalContinue}, nil
		}, nil

	case *IrReturn:
		inner, err := compileExpr(x.Value)
		if err != nil {
			return nil, err
		}
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			v, sig, err := inner(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return Null(), sig, err
			}
			return Null(), signal{kind: signalReturn, value: v.AsNumber()}, nil
		}, nil

	case *IrPath:
		name := x.Name
		if x.Index == nil {
			return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
				v, _ := ctx.lookup(name)
				return v, noSignal, nil
			}, nil
		}
		idx, err := compileExpr(x.Index)
		if err != nil {
			return nil, err
		}
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			iv, sig, err := idx(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return Null(), sig, err
			}
			v, _ := ctx.lookup(name)
			return rtArrayCopyElement(v.AsArray(), iv.AsNumber()), noSignal, nil
		}, nil

	case *IrLengthOf:
		name := x.Name
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			v, _ := ctx.lookup(name)
			return Number(float64(v.Len())), noSignal, nil
		}, nil

	case *IrUnary:
		operand, err := compileExpr(x.Operand)
		if err != nil {
			return nil, err
		}
		op := x.Op
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			v, sig, err := operand(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return Null(), sig, err
			}
			if op == "-" {
				return Number(-v.AsNumber()), noSignal, nil
			}
			if v.Truthy() {
				return Number(0), noSignal, nil
			}
			return Number(1), noSignal, nil
		}, nil

	case *IrBinary:
		return compileBinary(x)

	case *IrLogical:
		left, err := compileExpr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := compileExpr(x.Right)
		if err != nil {
			return nil, err
		}
		isAnd := x.Op == "&&"
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			l, sig, err := left(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return Null(), sig, err
			}
			if isAnd && !l.Truthy() {
				return Number(0), noSignal, nil
			}
			if !isAnd && l.Truthy() {
				return Number(1), noSignal, nil
			}
			r, sig, err := right(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return Null(), sig, err
			}
			return boolNumber(r.Truthy()), noSignal, nil
		}, nil

	case *IrCoalesce:
		left, err := compileExpr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := compileExpr(x.Right)
		if err != nil {
			return nil, err
		}
		nullable := isNullableShape(x.Left)
		leftPath, leftIsPath := x.Left.(*IrPath)
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			l, sig, err := left(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return Null(), sig, err
			}
			if !nullable {
				return l, noSignal, nil
			}
			isNull := l.IsNull()
			if leftIsPath && leftPath.Index == nil {
				// A bare path read can use the dedicated ABI null check
				// directly instead of re-deriving it from the looked-up Value.
				isNull = rtIsNull(ctx, leftPath.Name)
			}
			if isNull {
				return right(ctx, rt)
			}
			return l, noSignal, nil
		}, nil

	case *IrTernary:
		cond, err := compileExpr(x.Cond)
		if err != nil {
			return nil, err
		}
		then, err := compileExpr(x.Then)
		if err != nil {
			return nil, err
		}
		var elseFn compiledExpr
		if x.Else != nil {
			elseFn, err = compileExpr(x.Else)
			if err != nil {
				return nil, err
			}
		}
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			c, sig, err := cond(ctx, rt)
			if err != nil || sig.kind != signalNone {
				return Null(), sig, err
			}
			if c.Truthy() {
				return then(ctx, rt)
			}
			if elseFn != nil {
				return elseFn(ctx, rt)
			}
			return Number(0), noSignal, nil
		}, nil

	case *IrCall:
		argFns := make([]compiledExpr, 0, len(x.Args))
		for _, a := range x.Args {
			fn, err := compileExpr(a)
			if err != nil {
				return nil, err
			}
			argFns = append(argFns, fn)
		}
		def := x.Builtin
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			args := make([]float64, 0, len(argFns))
			for _, fn := range argFns {
				v, sig, err := fn(ctx, rt)
				if err != nil || sig.kind != signalNone {
					return Null(), sig, err
				}
				args = append(args, v.AsNumber())
			}
			return Number(def.Call(rt, args)), noSignal, nil
		}, nil

	case *IrArray:
		elemFns := make([]compiledExpr, 0, len(x.Elements))
		for _, el := range x.Elements {
			fn, err := compileExpr(el)
			if err != nil {
				return nil, err
			}
			elemFns = append(elemFns, fn)
		}
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			var arr []Value
			for _, fn := range elemFns {
				v, sig, err := fn(ctx, rt)
				if err != nil || sig.kind != signalNone {
					return Null(), sig, err
				}
				arr = append(arr, v)
			}
			return Array(arr), noSignal, nil
		}, nil

	case *IrStruct:
		type compiledField struct {
			name string
			fn   compiledExpr
		}
		fields := make([]compiledField, 0, len(x.Fields))
		for _, f := range x.Fields {
			fn, err := compileExpr(f.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, compiledField{name: f.Name, fn: fn})
		}
		return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
			s := NewOrderedStruct()
			for _, f := range fields {
				v, sig, err := f.fn(ctx, rt)
				if err != nil || sig.kind != signalNone {
					return Null(), sig, err
				}
				s.Set(f.name, v)
			}
			return StructValue(s), noSignal, nil
		}, nil

	default:
		return nil, &CompileError{Message: "unsupported expression shape"}
	}
}

func compileBinary(x *IrBinary) (compiledExpr, error) {
	left, err := compileExpr(x.Left)
	if err != nil {
		return nil, err
	}
	right, err := compileExpr(x.Right)
	if err != nil {
		return nil, err
	}
	op := x.Op
	return func(ctx *RuntimeContext, rt *mathRuntime) (Value, signal, error) {
		l, sig, err := left(ctx, rt)
		if err != nil || sig.kind != signalNone {
			return Null(), sig, err
		}
		r, sig, err := right(ctx, rt)
		if err != nil || sig.kind != signalNone {
			return Null(), sig, err
		}
		lv, rv := l.AsNumber(), r.AsNumber()
		switch op {
		case "+":
			return Number(lv + rv), noSignal, nil
		case "-":
			return Number(lv - rv), noSignal, nil
		case "*":
			return Number(lv * rv), noSignal, nil
		case "/":
			if rv == 0 {
				return Number(0), noSignal, nil
			}
			return Number(lv / rv), noSignal, nil
		case "<":
			return boolNumber(lv < rv), noSignal, nil
		case ">":
			return boolNumber(lv > rv), noSignal, nil
		case "<=":
			return boolNumber(lv <= rv), noSignal, nil
		case ">=":
			return boolNumber(lv >= rv), noSignal, nil
		case "==":
			return boolNumber(floatEquals(lv, rv)), noSignal, nil
		case "!=":
			return boolNumber(!floatEquals(lv, rv)), noSignal, nil
		}
		return Null(), noSignal, &CompileError{Message: "unknown binary operator " + op}
	}, nil
}
