package view

import "github.com/robfig/liveview/data"

// GetFunc is a view function, called as name(args...) in a placeholder.
type GetFunc func(args ...data.Value) data.Value

// SetFunc inverts a view function for an input bound to it.  Given the value
// entered and the current arguments, it returns new values for the
// arguments; those given as paths are written to the model.  A nil element
// leaves its argument unchanged.
type SetFunc func(value data.Value, args ...data.Value) []data.Value

// DefaultGetFuncs are the view functions available to every view.
var DefaultGetFuncs = map[string]GetFunc{
	"equal": funcEqual,
	"not":   funcNot,
}

// DefaultSetFuncs invert the default view functions.
var DefaultSetFuncs = map[string]SetFunc{
	"equal": setEqual,
	"not":   setNot,
}

func arg(args []data.Value, i int) data.Value {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return data.Undefined{}
}

func funcEqual(args ...data.Value) data.Value {
	return data.Bool(arg(args, 0).Equals(arg(args, 1)))
}

func funcNot(args ...data.Value) data.Value {
	return data.Bool(!arg(args, 0).Truthy())
}

// setEqual sets the first argument to the second when a bound checkbox or
// radio button is checked.
func setEqual(value data.Value, args ...data.Value) []data.Value {
	if value != nil && value.Truthy() {
		return []data.Value{arg(args, 1)}
	}
	return nil
}

func setNot(value data.Value, args ...data.Value) []data.Value {
	return []data.Value{data.Bool(value == nil || !value.Truthy())}
}
