package molang

import "strings"

// RuntimeContext owns the four namespaces a script can read from
// (temp/variable/context/query) and the two it can write to
// (temp/variable; context and query are host-injected and read-only from
// script code).
type RuntimeContext struct {
	temp     *OrderedStruct
	variable *OrderedStruct
	context  *OrderedStruct
	query    *OrderedStruct
}

func NewRuntimeContext() *RuntimeContext {
	return &RuntimeContext{
		temp:     NewOrderedStruct(),
		variable: NewOrderedStruct(),
		context:  NewOrderedStruct(),
		query:    NewOrderedStruct(),
	}
}

func (c *RuntimeContext) namespace(n Namespace) *OrderedStruct {
	switch n {
	case NamespaceTemp:
		return c.temp
	case NamespaceVariable:
		return c.variable
	case NamespaceContext:
		return c.context
	case NamespaceQuery:
		return c.query
	default:
		return nil
	}
}

// WithQuery seeds a host-provided query.* value and returns the context for
// chaining, mirroring query.anim_time-style injected state in the original
// Molang host contract.
func (c *RuntimeContext) WithQuery(name string, value float64) *RuntimeContext {
	c.query.Set(name, Number(value))
	return c
}

func (c *RuntimeContext) WithVariable(name string, value Value) *RuntimeContext {
	c.variable.Set(name, value)
	return c
}

// lookup resolves a QualifiedName to a Value, returning ok=false if any
// segment along the path is missing (a missing read yields Null, never an
// error).
func (c *RuntimeContext) lookup(name QualifiedName) (Value, bool) {
	ns := c.namespace(name.Namespace)
	if ns == nil || len(name.Path) == 0 {
		return Null(), false
	}

	v, ok := ns.Get(name.Path[0])
	if !ok {
		return Null(), false
	}

	return lookupNested(v, name.Path[1:])
}

// lookupNested walks the remaining dotted segments into nested structs,
// supporting a trailing `.length` pseudo-field on any value.
func lookupNested(v Value, rest []string) (Value, bool) {
	for i, seg := range rest {
		if seg == "length" && i == len(rest)-1 {
			return Number(float64(v.Len())), true
		}
		s := v.AsStruct()
		if s == nil {
			return Null(), false
		}
		next, ok := s.Get(seg)
		if !ok {
			return Null(), false
		}
		v = next
	}
	return v, true
}

// arrayIndex resolves Value at index idx per the clamp/wrap contract: empty
// arrays yield 0, negative indices clamp to 0, out-of-range indices wrap
// modulo the array length.
func arrayIndex(arr []Value, idx float64) Value {
	if len(arr) == 0 {
		return Number(0)
	}
	i := int(idx)
	if i < 0 {
		i = 0
	}
	i = ((i % len(arr)) + len(arr)) % len(arr)
	return arr[i]
}

// assign writes v at the given qualified path, auto-materializing
// intermediate Struct values as needed. context.* and query.* are
// host-injected and read-only: assignment into them is a documented no-op.
func (c *RuntimeContext) assign(name QualifiedName, v Value) {
	if name.Namespace == NamespaceContext || name.Namespace == NamespaceQuery {
		return
	}
	ns := c.namespace(name.Namespace)
	if ns == nil || len(name.Path) == 0 {
		return
	}

	if len(name.Path) == 1 {
		ns.Set(name.Path[0], v)
		return
	}

	root, _ := ns.Get(name.Path[0])
	ns.Set(name.Path[0], assignNested(root, name.Path[1:], v))
}

// assignNested rebuilds the chain of Struct values from the deepest segment
// outward, materializing any segment that is missing or not already a
// Struct, and returns the new root value to store back.
func assignNested(current Value, path []string, v Value) Value {
	if len(path) == 0 {
		return v
	}

	s := current.AsStruct()
	if s == nil {
		s = NewOrderedStruct()
	} else {
		s = s.Clone()
	}

	child, _ := s.Get(path[0])
	s.Set(path[0], assignNested(child, path[1:], v))
	return StructValue(s)
}

// Get resolves a dotted canonical path like "temp.location.x" for host
// inspection, outside the QualifiedName-typed API the engines use
// internally.
func (c *RuntimeContext) Get(path string) (Value, bool) {
	name, err := parseCanonicalPath(path)
	if err != nil {
		return Null(), false
	}
	return c.lookup(name)
}

// Set writes v at a dotted canonical path for host use.
func (c *RuntimeContext) Set(path string, v Value) {
	name, err := parseCanonicalPath(path)
	if err != nil {
		return
	}
	c.assign(name, v)
}

func parseCanonicalPath(path string) (QualifiedName, error) {
	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return QualifiedName{}, &RuntimeError{Message: "canonical path must include a namespace and at least one segment"}
	}
	ns, err := resolveNamespace(segments[0])
	if err != nil {
		return QualifiedName{}, err
	}
	return QualifiedName{Namespace: ns, Path: segments[1:]}, nil
}

// resolveNamespace normalizes a namespace token. Only "t" and "v" are
// documented abbreviations for temp/variable; every other namespace name
// must be spelled in full.
func resolveNamespace(token string) (Namespace, error) {
	switch strings.ToLower(token) {
	case "temp", "t":
		return NamespaceTemp, nil
	case "variable", "v":
		return NamespaceVariable, nil
	case "context":
		return NamespaceContext, nil
	case "query":
		return NamespaceQuery, nil
	default:
		return 0, &RuntimeError{Message: "unknown namespace: " + token}
	}
}
