package builtins

import (
	"testing"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

func TestStrftimeToGo(t *testing.T) {
	got := strftimeToGo("%Y-%m-%d %H:%M:%S")
	want := "2006-01-02 15:04:05"
	if got != want {
		t.Fatalf("strftimeToGo = %q, want %q", got, want)
	}
}

func TestTimeStrftimeFormatsUnixSeconds(t *testing.T) {
	ctx := vm.NewContext(vm.DefaultConfig())
	modObj := newTimeModule(ctx)
	mod := modObj.Payload.(*heap.Module)
	strftimeFn := get(t, mod, "strftime")

	r, err := ctx.Call(strftimeFn, []*heap.Object{ctx.NewStr("%Y-%m-%d"), ctx.NewFloat(0)}, nil)
	if err != nil {
		t.Fatalf("time.strftime: %v", err)
	}
	if r.Payload.(string) != "1970-01-01" {
		t.Fatalf("strftime(epoch) = %q", r.Payload)
	}
}

func TestTimeTimeReturnsPositiveFloat(t *testing.T) {
	ctx := vm.NewContext(vm.DefaultConfig())
	modObj := newTimeModule(ctx)
	mod := modObj.Payload.(*heap.Module)
	timeFn := get(t, mod, "time")

	r, err := ctx.Call(timeFn, nil, nil)
	if err != nil {
		t.Fatalf("time.time(): %v", err)
	}
	if r.Payload.(float64) <= 0 {
		t.Fatalf("time.time() = %v, want positive", r.Payload)
	}
}
