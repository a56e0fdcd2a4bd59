// Package jsonmod implements the `json` stdlib module: gjson for decoding
// and path queries, sjson for encoding, both operating directly on
// Vesper's own dict/list/str/int/float/bool/None value tree.
package jsonmod

import (
	"encoding/json"
	"strconv"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// New builds the `json` module object.
func New(ctx *vm.Context) *heap.Object {
	modObj := ctx.NewModule("json")
	mod := modObj.Payload.(*heap.Module)
	reg := func(name string, fn heap.Native) { mod.Attrs.Set(name, ctx.NewNativeFunc(name, fn)) }

	reg("loads", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return nil, arityErr(cx, "json.loads", 1)
		}
		s, ok := args[0].Payload.(string)
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "json.loads() requires a string")
			return nil, vm.ErrRaised
		}
		if !gjson.Valid(s) {
			cx.Raise(cx.BuiltinClass("ValueError"), "json.loads(): invalid JSON")
			return nil, vm.ErrRaised
		}
		return decode(cx, gjson.Parse(s)), nil
	})

	reg("dumps", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return nil, arityErr(cx, "json.dumps", 1)
		}
		raw, err := encode(cx, args[0])
		if err != nil {
			return nil, err
		}
		return cx.NewStr(raw), nil
	})

	reg("get", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return nil, arityErr(cx, "json.get", 2)
		}
		doc, ok1 := args[0].Payload.(string)
		path, ok2 := args[1].Payload.(string)
		if !ok1 || !ok2 {
			cx.Raise(cx.BuiltinClass("TypeError"), "json.get() requires (str, str)")
			return nil, vm.ErrRaised
		}
		result := gjson.Get(doc, path)
		if !result.Exists() {
			return cx.NewNone(), nil
		}
		return decode(cx, result), nil
	})

	reg("set", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 3 {
			return nil, arityErr(cx, "json.set", 3)
		}
		doc, ok1 := args[0].Payload.(string)
		path, ok2 := args[1].Payload.(string)
		if !ok1 || !ok2 {
			cx.Raise(cx.BuiltinClass("TypeError"), "json.set() requires (str, str, value)")
			return nil, vm.ErrRaised
		}
		raw, err := encode(cx, args[2])
		if err != nil {
			return nil, err
		}
		out, err := sjson.SetRaw(doc, path, raw)
		if err != nil {
			cx.Raise(cx.BuiltinClass("ValueError"), err.Error())
			return nil, vm.ErrRaised
		}
		return cx.NewStr(out), nil
	})

	return modObj
}

func arityErr(cx *vm.Context, name string, want int) error {
	cx.Raise(cx.BuiltinClass("TypeError"), name+"() takes exactly "+strconv.Itoa(want)+" argument(s)")
	return vm.ErrRaised
}

// decode converts a gjson.Result into a Vesper value tree.
func decode(cx *vm.Context, r gjson.Result) *heap.Object {
	switch r.Type {
	case gjson.Null:
		return cx.NewNone()
	case gjson.True:
		return cx.NewBool(true)
	case gjson.False:
		return cx.NewBool(false)
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) && !isFloatLiteral(r.Raw) {
			return cx.NewInt(int64(r.Num))
		}
		return cx.NewFloat(r.Num)
	case gjson.String:
		return cx.NewStr(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var elems []*heap.Object
			r.ForEach(func(_, v gjson.Result) bool {
				elems = append(elems, decode(cx, v))
				return true
			})
			return cx.NewList(elems)
		}
		m := heap.NewMap()
		r.ForEach(func(k, v gjson.Result) bool {
			m.Set(cx.NewStr(k.Str), decode(cx, v))
			return true
		})
		return cx.NewDict(m)
	}
	return cx.NewNone()
}

func isFloatLiteral(raw string) bool {
	for _, c := range raw {
		if c == '.' || c == 'e' || c == 'E' {
			return true
		}
	}
	return false
}

// encode serializes obj into raw JSON text by assembling it through sjson
// (object/array structure) with scalar leaves rendered via encoding/json
// (stdlib; neither gjson nor sjson offer a generic scalar encoder, so
// leaf-level number/string/bool/null marshaling has no ecosystem library
// home in this pack — see DESIGN.md).
func encode(cx *vm.Context, o *heap.Object) (string, error) {
	switch o.Tag {
	case heap.TagNone, heap.TagBool, heap.TagInt, heap.TagFloat, heap.TagStr:
		b, err := json.Marshal(scalarGo(o))
		if err != nil {
			cx.Raise(cx.BuiltinClass("ValueError"), err.Error())
			return "", vm.ErrRaised
		}
		return string(b), nil
	case heap.TagList, heap.TagTuple:
		elems, err := cx.IterateAll(o)
		if err != nil {
			return "", err
		}
		raw := "[]"
		for _, e := range elems {
			child, err := encode(cx, e)
			if err != nil {
				return "", err
			}
			raw, _ = sjson.SetRaw(raw, "-1", child)
		}
		return raw, nil
	case heap.TagMap:
		m := o.Payload.(*heap.Map)
		raw := "{}"
		var setErr error
		m.Each(func(k, v *heap.Object) {
			if setErr != nil {
				return
			}
			ks, err := cx.Str(k)
			if err != nil {
				setErr = err
				return
			}
			child, err := encode(cx, v)
			if err != nil {
				setErr = err
				return
			}
			raw, _ = sjson.SetRaw(raw, ks, child)
		})
		if setErr != nil {
			return "", setErr
		}
		return raw, nil
	}
	cx.Raise(cx.BuiltinClass("TypeError"), "json.dumps(): object of type '"+string(o.Tag)+"' is not JSON serializable")
	return "", vm.ErrRaised
}

func scalarGo(o *heap.Object) any {
	switch o.Tag {
	case heap.TagNone:
		return nil
	case heap.TagBool:
		return o.Payload.(bool)
	case heap.TagInt:
		return o.Payload.(int64)
	case heap.TagFloat:
		return o.Payload.(float64)
	case heap.TagStr:
		return o.Payload.(string)
	}
	return nil
}
