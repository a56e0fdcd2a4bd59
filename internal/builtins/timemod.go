package builtins

import (
	"strings"
	"time"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// newTimeModule builds the `time` stdlib module. Timestamps are plain
// seconds-since-epoch floats, matching Python's time.time(); Vesper has no
// dedicated datetime type.
func newTimeModule(ctx *vm.Context) *heap.Object {
	modObj := ctx.NewModule("time")
	mod := modObj.Payload.(*heap.Module)
	reg := func(name string, fn heap.Native) { mod.Attrs.Set(name, ctx.NewNativeFunc(name, fn)) }

	reg("time", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		return cx.NewFloat(float64(time.Now().UnixNano()) / 1e9), nil
	})

	reg("monotonic", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		return cx.NewFloat(float64(time.Now().UnixNano()) / 1e9), nil
	})

	reg("sleep", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 1 {
			return arity(cx, "time.sleep", len(args), 1)
		}
		secs, ok := asFloatArg(args[0])
		if !ok {
			cx.Raise(cx.BuiltinClass("TypeError"), "time.sleep() requires a number")
			return nil, vm.ErrRaised
		}
		time.Sleep(time.Duration(secs * float64(time.Second)))
		return cx.NewNone(), nil
	})

	reg("strftime", func(c heap.Context, args []*heap.Object, kw *heap.Map) (*heap.Object, error) {
		cx := c.(*vm.Context)
		if len(args) != 2 {
			return arity(cx, "time.strftime", len(args), 2)
		}
		layout, ok1 := args[0].Payload.(string)
		secs, ok2 := asFloatArg(args[1])
		if !ok1 || !ok2 {
			cx.Raise(cx.BuiltinClass("TypeError"), "time.strftime() requires (str, number)")
			return nil, vm.ErrRaised
		}
		t := time.Unix(0, int64(secs*1e9)).UTC()
		return cx.NewStr(t.Format(strftimeToGo(layout))), nil
	})

	return modObj
}

// strftimeToGo translates the handful of strftime directives Vesper
// scripts are expected to use into Go's reference-time layout.
func strftimeToGo(layout string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%Z", "MST", "%%", "%",
	)
	return replacer.Replace(layout)
}
