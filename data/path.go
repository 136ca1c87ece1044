package data

import (
	"fmt"
	"strconv"
	"strings"
)

// Segments splits a dotted path into its segments.  The empty path has none.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Get walks the dotted path from root.  Numeric segments index into lists;
// other segments look up map keys.  Anything that can't be walked yields
// Undefined.
func Get(root Value, path string) Value {
	var v = root
	if v == nil {
		v = Undefined{}
	}
	for _, seg := range Segments(path) {
		switch node := v.(type) {
		case Map:
			v = node.Key(seg)
		case List:
			var i, err = strconv.Atoi(seg)
			if err != nil {
				if seg == "length" {
					v = Int(len(node))
					continue
				}
				return Undefined{}
			}
			v = node.Index(i)
		default:
			return Undefined{}
		}
	}
	return v
}

// Set stores value at the dotted path below root, creating intermediate maps
// as required.  A list may be extended by setting the index one past its end.
func Set(root Map, path string, value Value) error {
	var segs = Segments(path)
	if len(segs) == 0 {
		return fmt.Errorf("data: can not set the root")
	}
	_, err := setIn(root, segs, value, path)
	return err
}

func setIn(node Value, segs []string, value Value, path string) (Value, error) {
	if len(segs) == 0 {
		return value, nil
	}
	var seg = segs[0]
	switch n := node.(type) {
	case Map:
		var child, err = setIn(n.Key(seg), segs[1:], value, path)
		if err != nil {
			return nil, err
		}
		n[seg] = child
		return n, nil
	case List:
		var i, err = strconv.Atoi(seg)
		if err != nil || i < 0 || i > len(n) {
			return nil, fmt.Errorf("data: invalid list index %q in %q", seg, path)
		}
		if i == len(n) {
			n = append(n, Undefined{})
		}
		child, err := setIn(n[i], segs[1:], value, path)
		if err != nil {
			return nil, err
		}
		n[i] = child
		return n, nil
	case Undefined, Null, nil:
		return setIn(Map{}, segs, value, path)
	}
	return nil, fmt.Errorf("data: can not set %q below a %T", path, node)
}

// Del removes the value at the dotted path.  Removing a list item shifts the
// following items down.
func Del(root Map, path string) {
	var segs = Segments(path)
	if len(segs) == 0 {
		return
	}
	var parentPath = strings.Join(segs[:len(segs)-1], ".")
	var last = segs[len(segs)-1]
	switch parent := Get(root, parentPath).(type) {
	case Map:
		delete(parent, last)
	case List:
		var i, err = strconv.Atoi(last)
		if err != nil || i < 0 || i >= len(parent) {
			return
		}
		var shortened = append(parent[:i:i], parent[i+1:]...)
		if parentPath == "" {
			return
		}
		_ = Set(root, parentPath, shortened)
	}
}
