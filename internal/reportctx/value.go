// Package reportctx builds the data tree handed to report templates.
//
// Templates only ever see Values: strings, numbers, booleans, lists and
// string-keyed maps. No live model object reaches template evaluation.
package reportctx

import "sort"

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "null"
}

type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	list []Value
	m    map[string]Value
}

func Null() Value           { return Value{} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }

func List(vs ...Value) Value {
	if len(vs) == 0 {
		vs = nil
	}
	return Value{kind: KindList, list: vs}
}

func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload, or "" for non-strings.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

func (v Value) IntVal() int64 { return v.i }

// Get looks up key in a map value; missing keys and non-maps give Null.
func (v Value) Get(key string) Value {
	if v.kind != KindMap {
		return Null()
	}
	return v.m[key]
}

// Items returns the elements of a list value.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Value) clone() Value {
	switch v.kind {
	case KindList:
		out := make([]Value, len(v.list))
		for i, e := range v.list {
			out[i] = e.clone()
		}
		return List(out...)
	case KindMap:
		out := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			out[k] = e.clone()
		}
		return Value{kind: KindMap, m: out}
	}
	return v
}

// Native converts the tree to plain Go values (nil, string, int, float64,
// bool, []any, map[string]any) for the template engines.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return int(v.i)
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Native()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Native()
		}
		return out
	}
	return nil
}

// Context is the top-level template namespace.
type Context map[string]Value

func (c Context) Native() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = v.Native()
	}
	return out
}

func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v.clone()
	}
	return out
}
