// Package data holds the values a view is rendered against.
//
// Values follow the rules of the scripts that run alongside views in the
// browser: an undefined path renders as "", lists print comma-separated,
// and only false, 0, NaN, "", null and undefined are falsy.
package data

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Value is a piece of model data.  A nil Value is treated as Undefined.
type Value interface {
	// Truthy reports whether the value counts as true in a conditional.
	Truthy() bool

	// String formats the value for output into a view.
	String() string

	// Equals reports whether the value is strictly equal to other.  Numbers
	// compare by value across Int and Float, primitives compare by value, and
	// lists and maps compare by identity.
	Equals(other Value) bool
}

type (
	// Undefined is the value of a path that does not exist.
	Undefined struct{}

	// Null is an explicitly empty value.
	Null struct{}

	Bool   bool
	Int    int64
	Float  float64
	String string
	List   []Value
	Map    map[string]Value
)

// IsNil returns true for Null and Undefined (and a nil Value).
func IsNil(v Value) bool {
	switch v.(type) {
	case nil, Null, Undefined:
		return true
	}
	return false
}

func (Undefined) Truthy() bool   { return false }
func (Undefined) String() string { return "" }
func (Undefined) Equals(other Value) bool {
	switch other.(type) {
	case nil, Undefined:
		return true
	}
	return false
}

func (Null) Truthy() bool   { return false }
func (Null) String() string { return "" }
func (Null) Equals(other Value) bool {
	var _, ok = other.(Null)
	return ok
}

func (b Bool) Truthy() bool   { return bool(b) }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }
func (b Bool) Equals(other Value) bool {
	var o, ok = other.(Bool)
	return ok && o == b
}

func (i Int) Truthy() bool   { return i != 0 }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Equals(other Value) bool {
	var n, ok = number(other)
	return ok && n == float64(i)
}

func (f Float) Truthy() bool { return f != 0 && !math.IsNaN(float64(f)) }

// String prints the number without an exponent unless it is very large or
// very small, and spells out infinities.
func (f Float) String() string {
	var x = float64(f)
	switch {
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	case x == 0:
		return "0"
	}
	if abs := math.Abs(x); abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func (f Float) Equals(other Value) bool {
	var n, ok = number(other)
	return ok && n == float64(f)
}

func (s String) Truthy() bool   { return s != "" }
func (s String) String() string { return string(s) }
func (s String) Equals(other Value) bool {
	var o, ok = other.(String)
	return ok && o == s
}

func (List) Truthy() bool { return true }

// String joins the items with commas.  Null and undefined items print empty.
func (l List) String() string {
	var items = make([]string, len(l))
	for i, item := range l {
		if item != nil {
			items[i] = item.String()
		}
	}
	return strings.Join(items, ",")
}

func (l List) Equals(other Value) bool {
	var o, ok = other.(List)
	return ok && len(l) == len(o) && sameBacking(l, o)
}

// Index retrieves a value from this list, or Undefined if out of bounds.
func (l List) Index(i int) Value {
	if i < 0 || i >= len(l) || l[i] == nil {
		return Undefined{}
	}
	return l[i]
}

func (Map) Truthy() bool { return true }

// String serializes the map as JSON, with keys in sorted order.
func (m Map) String() string {
	var b, err = json.Marshal(Interface(m))
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (m Map) Equals(other Value) bool {
	var o, ok = other.(Map)
	return ok && sameBacking(m, o)
}

// Key retrieves a value under the named key, or Undefined if it doesn't exist.
func (m Map) Key(k string) Value {
	if v, ok := m[k]; ok && v != nil {
		return v
	}
	return Undefined{}
}

func number(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	}
	return 0, false
}

func sameBacking(a, b interface{}) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// Interface converts the value back into plain Go values: nil, bool, int64,
// float64, string, []interface{} and map[string]interface{}.
func Interface(v Value) interface{} {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case List:
		var items = make([]interface{}, len(v))
		for i := range v {
			items[i] = Interface(v[i])
		}
		return items
	case Map:
		var out = make(map[string]interface{}, len(v))
		for k := range v {
			out[k] = Interface(v[k])
		}
		return out
	}
	return nil
}
