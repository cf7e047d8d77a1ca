// Package runtime implements the tree-walking evaluator and the runtime value system for veon.
package runtime

import (
	"math"
	"strconv"
	"strings"
)

// Value is the interface for all runtime values. The set of implementations
// is closed: only types in this package satisfy it.
type Value interface {
	TypeName() string
	String() string
	value()
}

// ---- Primitive values ----

// NumberVal is the only numeric type; all numbers are float64.
type NumberVal float64

func (v NumberVal) TypeName() string { return "number" }
func (v NumberVal) String() string   { return formatNumber(float64(v)) }
func (NumberVal) value()             {}

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }
func (StringVal) value()             {}

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "bool" }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }
func (BoolVal) value()             {}

// NullVal represents null.
type NullVal struct{}

func (v NullVal) TypeName() string { return "null" }
func (v NullVal) String() string   { return "null" }
func (NullVal) value()             {}

// formatNumber prints integral values without a fraction and everything
// else in the shortest form that round-trips.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0" // also covers -0
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// ---- Array value ----

// ArrayVal represents an array. Arrays are shared by reference.
type ArrayVal struct {
	Elements []Value
}

func (v *ArrayVal) TypeName() string { return "array" }
func (v *ArrayVal) String() string {
	var b strings.Builder
	writeArray(&b, v, map[*ArrayVal]bool{})
	return b.String()
}
func (*ArrayVal) value() {}

// writeArray renders an array, printing [...] where an array contains itself.
func writeArray(b *strings.Builder, v *ArrayVal, active map[*ArrayVal]bool) {
	if active[v] {
		b.WriteString("[...]")
		return
	}
	active[v] = true
	defer delete(active, v)

	b.WriteByte('[')
	for idx, elem := range v.Elements {
		if idx > 0 {
			b.WriteString(", ")
		}
		switch e := elem.(type) {
		case StringVal:
			b.WriteString(strconv.Quote(string(e)))
		case *ArrayVal:
			writeArray(b, e, active)
		default:
			b.WriteString(elem.String())
		}
	}
	b.WriteByte(']')
}

// ---- Helpers ----

// ValuesString formats a slice of values with a separator.
func ValuesString(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// Equal reports whether two values are equal. Scalars compare by value,
// values of different kinds are never equal, and everything else compares
// by identity. Bound methods are equal when they bind the same method to
// the same receiver.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case NumberVal:
		bv, ok := b.(NumberVal)
		return ok && av == bv
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && av == bv
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av == bv
	case NullVal:
		_, ok := b.(NullVal)
		return ok
	case *BoundMethod:
		bv, ok := b.(*BoundMethod)
		return ok && av.Method == bv.Method && av.Receiver == bv.Receiver
	}
	// Reference equality for arrays, functions, classes, instances and builtins
	return a == b
}
