package data

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var marshalerType = reflect.TypeOf((*Marshaler)(nil)).Elem()

// Marshaler is implemented by types that convert themselves into model data.
type Marshaler interface {
	MarshalValue() Value
}

// New converts a Go value into model data, using DefaultStructOptions for
// structs.  It panics on values that have no data form, like funcs and chans.
func New(value interface{}) Value {
	return NewWith(DefaultStructOptions, value)
}

// NewWith converts a Go value into model data, using opts for any structs
// encountered.
func NewWith(opts StructOptions, value interface{}) Value {
	if v, ok := value.(Value); ok {
		return v
	}
	return opts.convert(reflect.ValueOf(value))
}

// DefaultStructOptions lowers the first letter of field names and formats
// times as RFC 3339.
var DefaultStructOptions = StructOptions{
	LowerCamel: true,
	TimeFormat: time.RFC3339,
	TagName:    "json",
}

// StructOptions controls how structs become maps.
//
// A field tagged with TagName takes the tag's name, is skipped if the name is
// "-", and is left out when empty if the tag has the "omitempty" option.
// Fields of embedded structs are promoted into the outer map.
type StructOptions struct {
	LowerCamel bool   // lower the first letter of untagged field names
	TimeFormat string // layout for time.Time values
	TagName    string // struct tag consulted for field names, e.g. "json"
}

func (o StructOptions) convert(v reflect.Value) Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return Null{}
		}
		if v.CanInterface() && v.Type().Implements(marshalerType) {
			return v.Interface().(Marshaler).MarshalValue()
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return Null{}
	}
	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case Value:
			return x
		case Marshaler:
			return x.MarshalValue()
		case time.Time:
			return String(x.Format(o.TimeFormat))
		case json.Number:
			if i, err := x.Int64(); err == nil {
				return Int(i)
			}
			var f, _ = x.Float64()
			return Float(f)
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		return Bool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Int(v.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(v.Float())
	case reflect.String:
		return String(v.String())
	case reflect.Slice:
		if v.IsNil() {
			return Null{}
		}
		fallthrough
	case reflect.Array:
		var list = make(List, v.Len())
		for i := range list {
			list[i] = o.convert(v.Index(i))
		}
		return list
	case reflect.Map:
		if v.IsNil() {
			return Null{}
		}
		var m = make(Map, v.Len())
		var iter = v.MapRange()
		for iter.Next() {
			m[mapKey(iter.Key())] = o.convert(iter.Value())
		}
		return m
	case reflect.Struct:
		var m = make(Map)
		o.fields(m, v)
		return m
	}
	panic(fmt.Errorf("data: cannot convert %v", v.Type()))
}

// Data converts a struct into a map according to the options.
func (o StructOptions) Data(obj interface{}) Map {
	var v = reflect.Indirect(reflect.ValueOf(obj))
	var m = make(Map)
	if v.Kind() == reflect.Struct {
		o.fields(m, v)
	}
	return m
}

func (o StructOptions) fields(m Map, v reflect.Value) {
	var t = v.Type()
	for i := 0; i < t.NumField(); i++ {
		var field = t.Field(i)
		var name, omitEmpty, skip = o.fieldName(field)
		if skip {
			continue
		}
		var fv = v.Field(i)
		if field.Anonymous && name == "" {
			var inner = reflect.Indirect(fv)
			if inner.Kind() == reflect.Struct {
				o.fields(m, inner)
				continue
			}
		}
		if field.PkgPath != "" {
			continue
		}
		if omitEmpty && fv.IsZero() {
			continue
		}
		if name == "" {
			name = field.Name
			if o.LowerCamel {
				var r, size = utf8.DecodeRuneInString(name)
				name = string(unicode.ToLower(r)) + name[size:]
			}
		}
		m[name] = o.convert(fv)
	}
}

// fieldName returns the tagged name of the field, if any.
func (o StructOptions) fieldName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	if o.TagName == "" {
		return "", false, false
	}
	var tag, ok = field.Tag.Lookup(o.TagName)
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	var parts = strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty, false
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}
