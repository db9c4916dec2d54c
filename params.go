package texgen

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// ParameterSet holds every parameter of one map type. A zero ParameterSet
// is not usable; create one with DefaultParams.
type ParameterSet struct {
	typ    MapType
	values map[string]float64
}

// DefaultParams returns t's parameters at their declared defaults.
func DefaultParams(t MapType) ParameterSet {
	p := ParameterSet{typ: t, values: make(map[string]float64)}
	if t.Valid() {
		for _, s := range schemas[t] {
			p.values[s.Name] = s.Default
		}
	}
	return p
}

// Type returns the map type the set belongs to.
func (p ParameterSet) Type() MapType { return p.typ }

// Get returns a parameter value. Unknown names yield 0, false.
func (p ParameterSet) Get(name string) (float64, bool) {
	v, ok := p.values[name]
	return v, ok
}

func (p ParameterSet) f32(name string) float32 {
	return float32(p.values[name])
}

// Option returns the selected option name of a select parameter.
func (p ParameterSet) Option(name string) string {
	spec, ok := LookupParam(p.typ, name)
	if !ok || len(spec.Options) == 0 {
		return ""
	}
	i := int(p.values[name])
	if i < 0 || i >= len(spec.Options) {
		return ""
	}
	return spec.Options[i]
}

// Names returns the parameter names, sorted.
func (p ParameterSet) Names() []string {
	return slices.Sorted(maps.Keys(p.values))
}

// Set returns a copy of p with name set to v. It fails for names outside
// the schema, non-finite values, values outside [Min, Max] and
// non-integer option indices.
func (p ParameterSet) Set(name string, v float64) (ParameterSet, error) {
	spec, ok := LookupParam(p.typ, name)
	if !ok {
		return p, &ParamError{Type: p.typ, Name: name, Value: v, Err: ErrUnknownParameter}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < spec.Min || v > spec.Max {
		return p, &ParamError{Type: p.typ, Name: name, Value: v,
			Err: fmt.Errorf("%w: want [%g, %g]", ErrOutOfRange, spec.Min, spec.Max)}
	}
	if len(spec.Options) > 0 && v != math.Trunc(v) {
		return p, &ParamError{Type: p.typ, Name: name, Value: v,
			Err: fmt.Errorf("%w: option index must be whole", ErrOutOfRange)}
	}
	q := p.Clone()
	q.values[name] = v
	return q, nil
}

// SetOption selects a named option of a select parameter.
func (p ParameterSet) SetOption(name, option string) (ParameterSet, error) {
	spec, ok := LookupParam(p.typ, name)
	if !ok || len(spec.Options) == 0 {
		return p, &ParamError{Type: p.typ, Name: name, Err: ErrUnknownParameter}
	}
	i, ok := spec.OptionIndex(option)
	if !ok {
		return p, &ParamError{Type: p.typ, Name: name,
			Err: fmt.Errorf("%w: option %q not in %v", ErrOutOfRange, option, spec.Options)}
	}
	return p.Set(name, float64(i))
}

// Clone returns an independent copy.
func (p ParameterSet) Clone() ParameterSet {
	return ParameterSet{typ: p.typ, values: maps.Clone(p.values)}
}

// Equal reports whether both sets belong to the same map type and hold
// the same values.
func (p ParameterSet) Equal(q ParameterSet) bool {
	return p.typ == q.typ && maps.Equal(p.values, q.values)
}

// Map returns the values as a name→value map.
func (p ParameterSet) Map() map[string]float64 {
	return maps.Clone(p.values)
}

func (p ParameterSet) String() string {
	return fmt.Sprintf("%s%v", p.typ, p.values)
}
