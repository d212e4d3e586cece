package wikitext

import (
	"fmt"
	"strconv"
)

// Kind identifies the shape of a parameter Value.
type Kind int

const (
	// KindNone is an absent value. It is never rendered.
	KindNone Kind = iota
	// KindString is a single scalar.
	KindString
	// KindList is an ordered list of scalars, joined by the array separator.
	KindList
	// KindFlag is a valueless parameter, rendered as a bare "|key".
	KindFlag
	// KindInvalid marks a nested structure that cannot be expressed as a parameter.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindFlag:
		return "flag"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Value is a single template or function parameter value.
type Value struct {
	kind  Kind
	str   string
	items []string
}

// String returns a scalar value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// List returns a list value.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

// Flag returns a valueless parameter.
func Flag() Value {
	return Value{kind: KindFlag}
}

// Bool returns a flag for true and an absent value for false.
func Bool(b bool) Value {
	if b {
		return Flag()
	}
	return None()
}

// None returns an absent value.
func None() Value {
	return Value{kind: KindNone}
}

// Kind reports the shape of v.
func (v Value) Kind() Kind {
	return v.kind
}

// Text returns the scalar of a string value and "" for every other kind.
func (v Value) Text() string {
	return v.str
}

// Items returns a copy of the items of a list value.
func (v Value) Items() []string {
	if v.items == nil {
		return nil
	}
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp
}

// IsEmpty reports whether v would be dropped when rendered: absent values,
// empty strings, lists without a non-empty item and invalid values.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindString:
		return v.str == ""
	case KindList:
		for _, item := range v.items {
			if item != "" {
				return false
			}
		}
		return true
	case KindFlag:
		return false
	default:
		return true
	}
}

// Equal reports whether v and o have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.str != o.str || len(v.items) != len(o.items) {
		return false
	}
	for i := range v.items {
		if v.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

// GoString makes test failures readable.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("String(%q)", v.str)
	case KindList:
		return fmt.Sprintf("List(%q)", v.items)
	case KindFlag:
		return "Flag()"
	default:
		return v.kind.String()
	}
}

// FromAny converts a decoded JSON or YAML value into a Value. Strings, numbers,
// booleans, nil and lists of scalars are accepted. Maps, and lists holding
// maps or lists, return ErrInvalidParamShape.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return None(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case []string:
		return List(x...), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := scalarText(item)
			if !ok {
				return Value{kind: KindInvalid}, ErrInvalidParamShape
			}
			items = append(items, s)
		}
		return List(items...), nil
	default:
		if s, ok := scalarText(x); ok {
			return String(s), nil
		}
		return Value{kind: KindInvalid}, ErrInvalidParamShape
	}
}

// scalarText formats a scalar the way it would appear in markup.
func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return "", false
	}
}
