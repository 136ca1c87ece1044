// Package markup holds the rules for attributes and elements that render or
// bind differently from plain markup: boolean attributes, form values bound
// to element properties, and the x-bind and x-as directives.
package markup

import "strings"

// Update methods applied by the document layer when a binding fires.
const (
	MethodHTML = "html" // replace the fragment between two markers
	MethodAttr = "attr" // set an attribute
	MethodProp = "prop" // set a property, toggling boolean attributes
)

// Rule describes how an attribute is treated on a given element.
type Rule struct {
	AddID     bool   // the element requires an id
	Del       bool   // the attribute is not rendered
	Bool      bool   // the attribute is rendered only when its value is truthy
	Method    string // update method for a bound value
	Property  string // property updated by a bound value
	Input     string // DOM event that writes the property back to the model
	DOMEvents bool   // the value lists DOM event handlers
	As        bool   // the value names the element for its component
}

// table maps an attribute to its rules per element.  "*" applies to all
// elements and is merged below the element's own rule.
type table map[string]map[string]Rule

var booleanRule = map[string]Rule{"*": {Bool: true}}

var attrRules = table{
	"checked":   booleanRule,
	"selected":  booleanRule,
	"disabled":  booleanRule,
	"readonly":  booleanRule,
	"multiple":  booleanRule,
	"hidden":    booleanRule,
	"required":  booleanRule,
	"autofocus": booleanRule,
	"x-bind":    {"*": {AddID: true, Del: true, DOMEvents: true}},
	"x-as":      {"*": {AddID: true, Del: true, As: true}},
}

var boundRules = table{
	"value": {
		"input":    {Method: MethodProp, Property: "value", Input: "input"},
		"select":   {Method: MethodProp, Property: "value", Input: "change"},
		"textarea": {Method: MethodProp, Property: "value", Input: "input"},
	},
	"checked":  {"*": {Method: MethodProp, Property: "checked", Input: "change"}},
	"selected": {"*": {Method: MethodProp, Property: "selected", Input: "change"}},
	"disabled": {"*": {Method: MethodProp, Property: "disabled"}},
}

var boundParentRules = table{
	"*": {
		"textarea": {Method: MethodProp, Property: "value", Input: "input", Del: true},
	},
}

func (t table) lookup(attr, tag string) (Rule, bool) {
	var byTag, ok = t[attr]
	if !ok {
		return Rule{}, false
	}
	var all, okAll = byTag["*"]
	var el, okEl = byTag[strings.ToLower(tag)]
	switch {
	case okAll && okEl:
		return merge(all, el), true
	case okEl:
		return el, true
	}
	return all, okAll
}

func merge(base, over Rule) Rule {
	base.AddID = base.AddID || over.AddID
	base.Del = base.Del || over.Del
	base.Bool = base.Bool || over.Bool
	base.DOMEvents = base.DOMEvents || over.DOMEvents
	base.As = base.As || over.As
	if over.Method != "" {
		base.Method = over.Method
	}
	if over.Property != "" {
		base.Property = over.Property
	}
	if over.Input != "" {
		base.Input = over.Input
	}
	return base
}

// Attr returns the rule for an attribute as written in a template.
func Attr(attr, tag string) (Rule, bool) {
	return attrRules.lookup(attr, tag)
}

// Bound returns the rule for an attribute whose value is a bound placeholder.
func Bound(attr, tag string) (Rule, bool) {
	return boundRules.lookup(attr, tag)
}

// BoundParent returns the rule for an element whose entire content is a
// bound placeholder.
func BoundParent(tag string) (Rule, bool) {
	return boundParentRules.lookup("*", tag)
}

// Event is a DOM event handler declared with x-bind.
type Event struct {
	Name    string
	Handler string
}

// ParseEvents parses the value of an x-bind attribute, a comma separated
// list of "event: handler" pairs.  A handler given alone handles click.
func ParseEvents(value string) []Event {
	var events []Event
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		var ev = Event{Name: "click", Handler: item}
		if i := strings.IndexByte(item, ':'); i >= 0 {
			ev.Name = strings.TrimSpace(item[:i])
			ev.Handler = strings.TrimSpace(item[i+1:])
		}
		if ev.Name == "" || ev.Handler == "" {
			continue
		}
		events = append(events, ev)
	}
	return events
}
