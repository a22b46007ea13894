package vars

import (
	"fmt"
	"strconv"
)

// Kind selects how an unresolved variable is prompted for.
type Kind string

const (
	KindInput  Kind = "input"
	KindList   Kind = "list"
	KindSearch Kind = "search"
)

// ParseKind maps a manifest type name to a Kind. Empty means input.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindInput:
		return KindInput, nil
	case KindList:
		return KindList, nil
	case KindSearch:
		return KindSearch, nil
	}
	return "", fmt.Errorf("unknown variable type %q", s)
}

type valueType uint8

const (
	unset valueType = iota
	stringValue
	boolValue
)

// Value is the value of a variable: unset, a string or a boolean flag.
// The zero Value is unset.
type Value struct {
	typ valueType
	s   string
	b   bool
}

// String returns a string value.
func String(s string) Value { return Value{typ: stringValue, s: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{typ: boolValue, b: b} }

// FromAny converts a decoded JSON/YAML scalar into a Value. Numbers are
// kept in their textual form.
func FromAny(x any) (Value, bool) {
	switch v := x.(type) {
	case nil:
		return Value{}, false
	case string:
		return String(v), true
	case bool:
		return Bool(v), true
	case float64:
		return String(strconv.FormatFloat(v, 'f', -1, 64)), true
	case int:
		return String(strconv.Itoa(v)), true
	case int64:
		return String(strconv.FormatInt(v, 10)), true
	}
	return Value{}, false
}

// IsSet reports whether the value has been assigned.
func (v Value) IsSet() bool { return v.typ != unset }

// IsBool reports whether the value is a boolean flag.
func (v Value) IsBool() bool { return v.typ == boolValue }

// Truthy reports whether the value is a non-empty string or true.
func (v Value) Truthy() bool {
	switch v.typ {
	case stringValue:
		return v.s != ""
	case boolValue:
		return v.b
	}
	return false
}

// Substitution returns the text a placeholder is replaced with. Only
// truthy values substitute: empty strings and false leave the
// placeholder in place.
func (v Value) Substitution() (string, bool) {
	if !v.Truthy() {
		return "", false
	}
	if v.typ == boolValue {
		return "true", true
	}
	return v.s, true
}

// String renders the value for display and prompt defaults.
func (v Value) String() string {
	switch v.typ {
	case stringValue:
		return v.s
	case boolValue:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// Any returns the value as a plain Go value (string, bool or nil).
func (v Value) Any() any {
	switch v.typ {
	case stringValue:
		return v.s
	case boolValue:
		return v.b
	}
	return nil
}

// Variable is one named entry of a Table.
type Variable struct {
	Name  string
	Value Value
	Kind  Kind
}
