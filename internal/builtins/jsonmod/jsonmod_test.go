package jsonmod

import (
	"strings"
	"testing"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

func newTestContext(t *testing.T) (*vm.Context, *heap.Module) {
	t.Helper()
	ctx := vm.NewContext(vm.DefaultConfig())
	modObj := New(ctx)
	return ctx, modObj.Payload.(*heap.Module)
}

func get(t *testing.T, mod *heap.Module, name string) *heap.Object {
	t.Helper()
	fn, ok := mod.Attrs.Get(name)
	if !ok {
		t.Fatalf("json module missing %q", name)
	}
	return fn
}

func TestLoadsDecodesObjectsAndArrays(t *testing.T) {
	ctx, mod := newTestContext(t)
	loadsFn := get(t, mod, "loads")

	r, err := ctx.Call(loadsFn, []*heap.Object{ctx.NewStr(`{"a": 1, "b": [1, 2.5, "x", null, true]}`)}, nil)
	if err != nil {
		t.Fatalf("json.loads: %v", err)
	}
	if r.Tag != heap.TagMap {
		t.Fatalf("loads result tag = %v", r.Tag)
	}
	m := r.Payload.(*heap.Map)
	a, ok := m.Get(ctx.NewStr("a"))
	if !ok || a.Payload.(int64) != 1 {
		t.Fatalf("a = %v", a)
	}
	b, ok := m.Get(ctx.NewStr("b"))
	if !ok || b.Tag != heap.TagList {
		t.Fatalf("b = %v", b)
	}
	elems, err := ctx.IterateAll(b)
	if err != nil || len(elems) != 5 {
		t.Fatalf("b elements = %v, %v", elems, err)
	}
	if elems[1].Payload.(float64) != 2.5 {
		t.Fatalf("b[1] = %v, want 2.5", elems[1].Payload)
	}
	if elems[3].Tag != heap.TagNone {
		t.Fatalf("b[3] = %v, want None", elems[3])
	}
}

func TestLoadsInvalidJSONRaisesValueError(t *testing.T) {
	ctx, mod := newTestContext(t)
	loadsFn := get(t, mod, "loads")

	_, err := ctx.Call(loadsFn, []*heap.Object{ctx.NewStr("{not json")}, nil)
	if err == nil {
		t.Fatal("expected json.loads() to fail on invalid input")
	}
	exc := ctx.CurrentException()
	if exc == nil || string(exc.Tag) != "ValueError" {
		t.Fatalf("exception = %v, want ValueError", exc)
	}
}

func TestDumpsRoundTripsThroughLoads(t *testing.T) {
	ctx, mod := newTestContext(t)
	loadsFn, dumpsFn := get(t, mod, "loads"), get(t, mod, "dumps")

	orig := `{"x":1,"y":[1,2,3]}`
	parsed, err := ctx.Call(loadsFn, []*heap.Object{ctx.NewStr(orig)}, nil)
	if err != nil {
		t.Fatalf("loads: %v", err)
	}
	dumped, err := ctx.Call(dumpsFn, []*heap.Object{parsed}, nil)
	if err != nil {
		t.Fatalf("dumps: %v", err)
	}
	reparsed, err := ctx.Call(loadsFn, []*heap.Object{dumped}, nil)
	if err != nil {
		t.Fatalf("reparse dumped output: %v", err)
	}
	m := reparsed.Payload.(*heap.Map)
	x, ok := m.Get(ctx.NewStr("x"))
	if !ok || x.Payload.(int64) != 1 {
		t.Fatalf("round-tripped x = %v", x)
	}
}

func TestGetAndSetPaths(t *testing.T) {
	ctx, mod := newTestContext(t)
	getFn, setFn := get(t, mod, "get"), get(t, mod, "set")

	doc := `{"user":{"name":"ada"}}`
	r, err := ctx.Call(getFn, []*heap.Object{ctx.NewStr(doc), ctx.NewStr("user.name")}, nil)
	if err != nil {
		t.Fatalf("json.get: %v", err)
	}
	if r.Payload.(string) != "ada" {
		t.Fatalf("json.get(user.name) = %v", r.Payload)
	}

	updated, err := ctx.Call(setFn, []*heap.Object{ctx.NewStr(doc), ctx.NewStr("user.name"), ctx.NewStr("grace")}, nil)
	if err != nil {
		t.Fatalf("json.set: %v", err)
	}
	if !strings.Contains(updated.Payload.(string), "grace") {
		t.Fatalf("json.set result = %v", updated.Payload)
	}
}

func TestGetMissingPathReturnsNone(t *testing.T) {
	ctx, mod := newTestContext(t)
	getFn := get(t, mod, "get")

	r, err := ctx.Call(getFn, []*heap.Object{ctx.NewStr(`{"a":1}`), ctx.NewStr("missing.path")}, nil)
	if err != nil {
		t.Fatalf("json.get: %v", err)
	}
	if r.Tag != heap.TagNone {
		t.Fatalf("json.get(missing) = %v, want None", r)
	}
}
