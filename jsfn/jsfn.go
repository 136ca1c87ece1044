// Package jsfn loads view functions written in JavaScript.
//
// A script registers functions by calling view.fn:
//
//	view.fn("fullName", function(user) {
//	  return user.first + " " + user.last;
//	});
//
// Arguments are passed as plain JavaScript values and the result is converted
// back into a data.Value.  The functions of one script share a single
// interpreter, which is locked for the duration of each call.
package jsfn

import (
	"fmt"
	"sync"

	"github.com/robertkrimen/otto"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/view"
)

// Load runs the script and returns the functions it registered, by name.
// filename is used in error messages.
func Load(filename, src string) (map[string]view.GetFunc, error) {
	var (
		vm      = otto.New()
		mu      sync.Mutex
		fns     = make(map[string]view.GetFunc)
		loadErr error
	)

	var register = func(call otto.FunctionCall) otto.Value {
		var name, fn = call.Argument(0), call.Argument(1)
		if !name.IsString() || !fn.IsFunction() {
			if loadErr == nil {
				loadErr = fmt.Errorf("%s: view.fn requires a name and a function", filename)
			}
			return otto.UndefinedValue()
		}
		fns[name.String()] = func(args ...data.Value) data.Value {
			mu.Lock()
			defer mu.Unlock()
			return callFn(name.String(), fn, args)
		}
		return otto.UndefinedValue()
	}

	var obj, err = vm.Object(`({})`)
	if err != nil {
		return nil, err
	}
	if err = obj.Set("fn", register); err != nil {
		return nil, err
	}
	if err = vm.Set("view", obj); err != nil {
		return nil, err
	}

	script, err := vm.Compile(filename, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", filename, err)
	}
	if _, err = vm.Run(script); err != nil {
		return nil, fmt.Errorf("%s: %v", filename, err)
	}
	if loadErr != nil {
		return nil, loadErr
	}
	return fns, nil
}

// callFn calls a registered function.  Errors thrown by the script panic, to
// be reported by the render that called the function.
func callFn(name string, fn otto.Value, args []data.Value) data.Value {
	var jsargs = make([]interface{}, len(args))
	for i, arg := range args {
		jsargs[i] = data.Interface(arg)
	}
	var result, err = fn.Call(otto.UndefinedValue(), jsargs...)
	if err != nil {
		panic(fmt.Errorf("view function %s: %v", name, err))
	}
	if result.IsUndefined() {
		return data.Undefined{}
	}
	exported, err := result.Export()
	if err != nil {
		panic(fmt.Errorf("view function %s: %v", name, err))
	}
	return data.New(exported)
}
