package molang

import "gopkg.in/yaml.v3"

// snapshotField is one ordered struct/namespace entry. Representing struct
// fields as an ordered slice, rather than a plain YAML mapping, is what
// lets Snapshot/LoadSnapshot round-trip OrderedStruct's field-insertion
// order instead of losing it to Go map iteration order the way a bare
// map[string]any would.
type snapshotField struct {
	Name  string        `yaml:"name"`
	Value snapshotValue `yaml:"value"`
}

// snapshotValue is Value's YAML wire representation: exactly one of the
// four fields is meaningful, selected by Kind.
type snapshotValue struct {
	Kind   string          `yaml:"kind"`
	Number float64         `yaml:"number,omitempty"`
	String string          `yaml:"string,omitempty"`
	Array  []snapshotValue `yaml:"array,omitempty"`
	Struct []snapshotField `yaml:"struct,omitempty"`
}

func toSnapshotValue(v Value) snapshotValue {
	switch v.Kind() {
	case KindNumber:
		return snapshotValue{Kind: "number", Number: v.AsNumber()}
	case KindString:
		return snapshotValue{Kind: "string", String: v.AsString()}
	case KindArray:
		arr := v.AsArray()
		out := make([]snapshotValue, len(arr))
		for i, e := range arr {
			out[i] = toSnapshotValue(e)
		}
		return snapshotValue{Kind: "array", Array: out}
	case KindStruct:
		return snapshotValue{Kind: "struct", Struct: toSnapshotFields(v.AsStruct())}
	default:
		return snapshotValue{Kind: "null"}
	}
}

func toSnapshotFields(s *OrderedStruct) []snapshotField {
	if s == nil {
		return nil
	}
	keys := s.Keys()
	out := make([]snapshotField, 0, len(keys))
	for _, k := range keys {
		v, _ := s.Get(k)
		out = append(out, snapshotField{Name: k, Value: toSnapshotValue(v)})
	}
	return out
}

func fromSnapshotValue(sv snapshotValue) Value {
	switch sv.Kind {
	case "number":
		return Number(sv.Number)
	case "string":
		return String(sv.String)
	case "array":
		elems := make([]Value, len(sv.Array))
		for i, e := range sv.Array {
			elems[i] = fromSnapshotValue(e)
		}
		return Array(elems)
	case "struct":
		return StructValue(fromSnapshotFields(sv.Struct))
	default:
		return Null()
	}
}

func fromSnapshotFields(fields []snapshotField) *OrderedStruct {
	s := NewOrderedStruct()
	for _, f := range fields {
		s.Set(f.Name, fromSnapshotValue(f.Value))
	}
	return s
}

// runtimeSnapshot is the on-disk YAML shape of a RuntimeContext. context
// and query are included so a host can restore an evaluation's full
// inputs, even though scripts themselves cannot assign back into either.
type runtimeSnapshot struct {
	Temp     []snapshotField `yaml:"temp"`
	Variable []snapshotField `yaml:"variable"`
	Context  []snapshotField `yaml:"context"`
	Query    []snapshotField `yaml:"query"`
}

// Snapshot serializes the context's four namespaces to YAML, preserving
// struct field order, so a host can persist and later restore a
// RuntimeContext across process boundaries.
func (c *RuntimeContext) Snapshot() ([]byte, error) {
	snap := runtimeSnapshot{
		Temp:     toSnapshotFields(c.temp),
		Variable: toSnapshotFields(c.variable),
		Context:  toSnapshotFields(c.context),
		Query:    toSnapshotFields(c.query),
	}
	return yaml.Marshal(snap)
}

// LoadSnapshot parses data (as produced by Snapshot) back into a fresh
// RuntimeContext.
func LoadSnapshot(data []byte) (*RuntimeContext, error) {
	var snap runtimeSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &RuntimeContext{
		temp:     fromSnapshotFields(snap.Temp),
		variable: fromSnapshotFields(snap.Variable),
		context:  fromSnapshotFields(snap.Context),
		query:    fromSnapshotFields(snap.Query),
	}, nil
}
