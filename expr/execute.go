// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expr

import (
	"regexp"

	"github.com/redwire/redwire/cache"
	"github.com/redwire/redwire/xerr"
)

// Kind tags a runtime Value's representation.
type Kind int

const (
	VString Kind = iota
	VInt
	VBool
	VSeveral
)

// EntryRef is provenance back to one entry of a send action's result
// list - the artifact a finding cites as "the replay that triggered it".
type EntryRef struct {
	SendOrdinal int
	Index       int
}

// Provenance tags a Value as derived from dereferencing a Send's
// results, rather than a literal or the initial pair.
type Provenance struct {
	SendOrdinal int
	Refs        []EntryRef
}

// Value is the evaluator's tagged union: String | Integer | Boolean |
// Several[Value], with an optional provenance layer carried alongside
// rather than folded into every operation.
type Value struct {
	Kind    Kind
	Str     string
	Int     int64
	Bool    bool
	Several []Value
	Prov    *Provenance
}

// Dereferencer resolves a compiled Reference against a concrete
// execution context: the original pair for SendOrdinal 0, or a Send
// action's recorded result entries for SendOrdinal > 0.
type Dereferencer interface {
	// FieldCount reports how many result entries SendOrdinal produced.
	// Never called for SendOrdinal 0 (the initial pair is always single).
	FieldCount(sendOrdinal int) (int, error)
	// Field reads one field. index is ignored when sendOrdinal == 0.
	Field(sendOrdinal, index int, side, part, headerName string) (Value, error)
}

// Execute runs prog against deref, returning every step's computed
// value and the final reduction findings test against.
func Execute(prog *Program, deref Dereferencer, regexes *cache.RegexCache) ([]Value, FinalResult, error) {
	vals := make([]Value, len(prog.Ops))
	for i, op := range prog.Ops {
		argVals := make([]Value, len(op.Args))
		for j, a := range op.Args {
			v, err := resolveArg(a, vals, deref)
			if err != nil {
				return nil, FinalResult{}, err
			}
			argVals[j] = v
		}

		var out Value
		var err error
		switch op.Op {
		case OpLen:
			out, err = lift1(argVals[0], opLen)
		case OpEqual:
			out, err = lift2(argVals[0], argVals[1], opEqual)
		case OpGreater:
			out, err = lift2(argVals[0], argVals[1], opGreater)
		case OpLess:
			out, err = lift2(argVals[0], argVals[1], opLess)
		case OpGreaterOrEqual:
			out, err = lift2(argVals[0], argVals[1], opGreaterOrEqual)
		case OpLessOrEqual:
			out, err = lift2(argVals[0], argVals[1], opLessOrEqual)
		case OpRematch:
			out, err = lift2(argVals[0], argVals[1], opRematchFn(regexes))
		case OpAnd:
			out, err = lift2(argVals[0], argVals[1], opAnd)
		case OpOr:
			out, err = lift2(argVals[0], argVals[1], opOr)
		default:
			err = xerr.ErrContract(xerr.Locator{}, "unhandled operation %q reached execution", op.Op)
		}
		if err != nil {
			return nil, FinalResult{}, err
		}
		vals[i] = out
	}

	final, err := reduce(vals[len(vals)-1])
	return vals, final, err
}

func resolveArg(a CompiledArg, vals []Value, deref Dereferencer) (Value, error) {
	switch a.Kind {
	case ArgString:
		return Value{Kind: VString, Str: a.Str}, nil
	case ArgInt:
		return Value{Kind: VInt, Int: a.Int}, nil
	case ArgBool:
		return Value{Kind: VBool, Bool: a.Bool}, nil
	case ArgVariable:
		return vals[a.VarIndex], nil
	case ArgReference:
		return dereference(a.Ref, deref)
	default:
		return Value{}, xerr.ErrContract(xerr.Locator{}, "unknown arg kind %d", a.Kind)
	}
}

func dereference(ref Reference, deref Dereferencer) (Value, error) {
	if ref.SendOrdinal == 0 {
		return deref.Field(0, 0, ref.Side, ref.Part, ref.HeaderName)
	}
	n, err := deref.FieldCount(ref.SendOrdinal)
	if err != nil {
		return Value{}, err
	}
	elems := make([]Value, n)
	refs := make([]EntryRef, n)
	for i := 0; i < n; i++ {
		v, err := deref.Field(ref.SendOrdinal, i, ref.Side, ref.Part, ref.HeaderName)
		if err != nil {
			return Value{}, err
		}
		elems[i] = v
		refs[i] = EntryRef{SendOrdinal: ref.SendOrdinal, Index: i}
	}
	return Value{
		Kind:    VSeveral,
		Several: elems,
		Prov:    &Provenance{SendOrdinal: ref.SendOrdinal, Refs: refs},
	}, nil
}

// FinalResult is a Find expression's reduced verdict: whether it fired,
// and - when its last operation carried send provenance - which entry.
type FinalResult struct {
	Bool  bool
	Entry *EntryRef
}

func reduce(v Value) (FinalResult, error) {
	switch v.Kind {
	case VBool:
		return FinalResult{Bool: v.Bool}, nil
	case VSeveral:
		if v.Prov == nil {
			any := false
			for _, e := range v.Several {
				if e.Kind != VBool {
					return FinalResult{}, xerr.ErrContract(xerr.Locator{}, "final Several element is not bool")
				}
				if e.Bool {
					any = true
				}
			}
			return FinalResult{Bool: any}, nil
		}
		for i, e := range v.Several {
			if e.Kind != VBool {
				return FinalResult{}, xerr.ErrContract(xerr.Locator{}, "final Several element is not bool")
			}
			if e.Bool {
				ref := v.Prov.Refs[i]
				return FinalResult{Bool: true, Entry: &ref}, nil
			}
		}
		return FinalResult{Bool: false}, nil
	default:
		return FinalResult{}, xerr.ErrContract(xerr.Locator{}, "final operation did not reduce to bool")
	}
}

// lift1 applies fn to v, or pointwise across v.Several, preserving v's
// own provenance (there is only one side to choose from).
func lift1(v Value, fn func(Value) (Value, error)) (Value, error) {
	if v.Kind != VSeveral {
		return fn(v)
	}
	out := make([]Value, len(v.Several))
	for i, e := range v.Several {
		r, err := fn(e)
		if err != nil {
			return Value{}, err
		}
		out[i] = r
	}
	return Value{Kind: VSeveral, Several: out, Prov: v.Prov}, nil
}

// lift2 lifts a binary op pointwise: Several×Several pairs by index up
// to the shorter length; Several×scalar broadcasts the scalar.
// Provenance on the result favors whichever side is bound to the later
// (larger-ordinal) send, per the "most recent evidence" rule.
func lift2(a, b Value, fn func(Value, Value) (Value, error)) (Value, error) {
	switch {
	case a.Kind == VSeveral && b.Kind == VSeveral:
		n := len(a.Several)
		if len(b.Several) < n {
			n = len(b.Several)
		}
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			r, err := fn(a.Several[i], b.Several[i])
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return Value{Kind: VSeveral, Several: out, Prov: laterProv(a.Prov, b.Prov)}, nil

	case a.Kind == VSeveral:
		out := make([]Value, len(a.Several))
		for i, e := range a.Several {
			r, err := fn(e, b)
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return Value{Kind: VSeveral, Several: out, Prov: a.Prov}, nil

	case b.Kind == VSeveral:
		out := make([]Value, len(b.Several))
		for i, e := range b.Several {
			r, err := fn(a, e)
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return Value{Kind: VSeveral, Several: out, Prov: b.Prov}, nil

	default:
		r, err := fn(a, b)
		if err != nil {
			return Value{}, err
		}
		r.Prov = laterProv(a.Prov, b.Prov)
		return r, nil
	}
}

func laterProv(a, b *Provenance) *Provenance {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.SendOrdinal > a.SendOrdinal:
		return b
	default:
		return a
	}
}

func opLen(v Value) (Value, error) {
	if v.Kind != VString {
		return Value{}, xerr.ErrContract(xerr.Locator{}, "len: operand is not a string at runtime")
	}
	return Value{Kind: VInt, Int: int64(len(v.Str))}, nil
}

func opEqual(a, b Value) (Value, error) {
	if a.Kind != b.Kind {
		return Value{}, xerr.ErrContract(xerr.Locator{}, "equal: operand kinds diverged at runtime")
	}
	var eq bool
	switch a.Kind {
	case VString:
		eq = a.Str == b.Str
	case VInt:
		eq = a.Int == b.Int
	case VBool:
		eq = a.Bool == b.Bool
	default:
		return Value{}, xerr.ErrContract(xerr.Locator{}, "equal: unsupported operand kind")
	}
	return Value{Kind: VBool, Bool: eq}, nil
}

func cmpInts(a, b Value) (int64, int64, error) {
	if a.Kind != VInt || b.Kind != VInt {
		return 0, 0, xerr.ErrContract(xerr.Locator{}, "comparison: operand is not an int at runtime")
	}
	return a.Int, b.Int, nil
}

func opGreater(a, b Value) (Value, error) {
	x, y, err := cmpInts(a, b)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: VBool, Bool: x > y}, nil
}

func opLess(a, b Value) (Value, error) {
	x, y, err := cmpInts(a, b)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: VBool, Bool: x < y}, nil
}

func opGreaterOrEqual(a, b Value) (Value, error) {
	x, y, err := cmpInts(a, b)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: VBool, Bool: x >= y}, nil
}

func opLessOrEqual(a, b Value) (Value, error) {
	x, y, err := cmpInts(a, b)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: VBool, Bool: x <= y}, nil
}

// opRematchFn binds a RegexCache (which may be nil, falling back to an
// uncached compile) so rematch reuses compiled patterns across calls -
// Find expressions frequently re-run the same pattern against every
// entry of a Several.
func opRematchFn(regexes *cache.RegexCache) func(Value, Value) (Value, error) {
	return func(pattern, subject Value) (Value, error) {
		if pattern.Kind != VString || subject.Kind != VString {
			return Value{}, xerr.ErrContract(xerr.Locator{}, "rematch: operands are not strings at runtime")
		}
		var re *regexp.Regexp
		var err error
		if regexes != nil {
			re, err = regexes.Compile(pattern.Str)
		} else {
			re, err = regexp.Compile(pattern.Str)
		}
		if err != nil {
			return Value{}, xerr.ErrRuntime(xerr.Locator{}, "rematch: invalid pattern %q: %v", pattern.Str, err)
		}
		return Value{Kind: VBool, Bool: re.MatchString(subject.Str)}, nil
	}
}

func opAnd(a, b Value) (Value, error) {
	if a.Kind != VBool || b.Kind != VBool {
		return Value{}, xerr.ErrContract(xerr.Locator{}, "and: operand is not bool at runtime")
	}
	return Value{Kind: VBool, Bool: a.Bool && b.Bool}, nil
}

func opOr(a, b Value) (Value, error) {
	if a.Kind != VBool || b.Kind != VBool {
		return Value{}, xerr.ErrContract(xerr.Locator{}, "or: operand is not bool at runtime")
	}
	return Value{Kind: VBool, Bool: a.Bool || b.Bool}, nil
}
