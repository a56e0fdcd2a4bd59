package builtins

import (
	"github.com/ochom/vesper/internal/builtins/jsonmod"
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/vm"
)

// NativeModules returns the table of native stdlib modules by import
// name, consumed by internal/modules' Loader so `import math` etc. never
// touch the filesystem.
func NativeModules() map[string]func(ctx *vm.Context) *heap.Object {
	return map[string]func(ctx *vm.Context) *heap.Object{
		"math":   newMathModule,
		"random": newRandomModule,
		"time":   newTimeModule,
		"os":     newOSModule,
		"sys":    newSysModule,
		"dis":    newDisModule,
		"json":   jsonmod.New,
	}
}
