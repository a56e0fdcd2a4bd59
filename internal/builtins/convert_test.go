package builtins

import (
	"testing"

	"github.com/ochom/vesper/internal/heap"
)

func TestBoolIntFloatStrConversions(t *testing.T) {
	ctx, mod := newTestContext(t)

	boolFn := get(t, mod, "bool")
	if r, err := ctx.Call(boolFn, nil, nil); err != nil || r.Payload.(bool) != false {
		t.Fatalf("bool() = %v, %v", r, err)
	}
	if r, err := ctx.Call(boolFn, []*heap.Object{ctx.NewInt(0)}, nil); err != nil || r.Payload.(bool) != false {
		t.Fatalf("bool(0) = %v, %v", r, err)
	}
	if r, err := ctx.Call(boolFn, []*heap.Object{ctx.NewInt(1)}, nil); err != nil || r.Payload.(bool) != true {
		t.Fatalf("bool(1) = %v, %v", r, err)
	}

	intFn := get(t, mod, "int")
	if r, err := ctx.Call(intFn, []*heap.Object{ctx.NewStr(" 42 ")}, nil); err != nil || r.Payload.(int64) != 42 {
		t.Fatalf("int(\" 42 \") = %v, %v", r, err)
	}
	if r, err := ctx.Call(intFn, []*heap.Object{ctx.NewFloat(3.9)}, nil); err != nil || r.Payload.(int64) != 3 {
		t.Fatalf("int(3.9) = %v, %v", r, err)
	}
	if _, err := ctx.Call(intFn, []*heap.Object{ctx.NewStr("nope")}, nil); err == nil {
		t.Fatal("int(\"nope\") should raise ValueError")
	}

	floatFn := get(t, mod, "float")
	if r, err := ctx.Call(floatFn, []*heap.Object{ctx.NewStr("3.5")}, nil); err != nil || r.Payload.(float64) != 3.5 {
		t.Fatalf("float(\"3.5\") = %v, %v", r, err)
	}

	strFn := get(t, mod, "str")
	if r, err := ctx.Call(strFn, []*heap.Object{ctx.NewInt(7)}, nil); err != nil || r.Payload.(string) != "7" {
		t.Fatalf("str(7) = %v, %v", r, err)
	}
}

func TestListTupleDictSetConstructors(t *testing.T) {
	ctx, mod := newTestContext(t)

	listFn := get(t, mod, "list")
	src := ctx.NewTuple([]*heap.Object{ctx.NewInt(1), ctx.NewInt(2), ctx.NewInt(3)})
	r, err := ctx.Call(listFn, []*heap.Object{src}, nil)
	if err != nil {
		t.Fatalf("list(tuple): %v", err)
	}
	if r.Tag != heap.TagList {
		t.Fatalf("list() result tag = %v", r.Tag)
	}

	setFn := get(t, mod, "set")
	r, err = ctx.Call(setFn, []*heap.Object{src}, nil)
	if err != nil || r.Tag != heap.TagSet {
		t.Fatalf("set(tuple) = %v, %v", r, err)
	}

	dictFn := get(t, mod, "dict")
	pair := ctx.NewTuple([]*heap.Object{ctx.NewStr("k"), ctx.NewInt(9)})
	pairs := ctx.NewTuple([]*heap.Object{pair})
	r, err = ctx.Call(dictFn, []*heap.Object{pairs}, nil)
	if err != nil || r.Tag != heap.TagMap {
		t.Fatalf("dict([(k,9)]) = %v, %v", r, err)
	}
}

func TestTypeIsinstanceIssubclass(t *testing.T) {
	ctx, mod := newTestContext(t)
	typeFn, isinstanceFn := get(t, mod, "type"), get(t, mod, "isinstance")

	intClass, err := ctx.Call(typeFn, []*heap.Object{ctx.NewInt(1)}, nil)
	if err != nil {
		t.Fatalf("type(1): %v", err)
	}

	r, err := ctx.Call(isinstanceFn, []*heap.Object{ctx.NewInt(5), intClass}, nil)
	if err != nil || r.Payload.(bool) != true {
		t.Fatalf("isinstance(5, int) = %v, %v", r, err)
	}

	r, err = ctx.Call(isinstanceFn, []*heap.Object{ctx.NewStr("x"), intClass}, nil)
	if err != nil || r.Payload.(bool) != false {
		t.Fatalf("isinstance(\"x\", int) = %v, %v", r, err)
	}
}
