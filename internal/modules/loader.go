// Package modules implements vm.Loader: resolving an `import` name first
// against the native stdlib table (internal/builtins.NativeModules), then
// falling back to a file-backed `.vsp` module read from the Context's
// configured import path.
package modules

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ochom/vesper/internal/builtins"
	"github.com/ochom/vesper/internal/compiler"
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/source"
	"github.com/ochom/vesper/internal/vm"
)

// Loader is the vm.Loader implementation installed on every Context built
// by pkg/vesper.
type Loader struct {
	native map[string]func(ctx *vm.Context) *heap.Object
}

// New builds a Loader backed by the native stdlib table.
func New() *Loader {
	return &Loader{native: builtins.NativeModules()}
}

// Load resolves name against the native table first, then the Context's
// configured import path. The import-stack cycle check and the
// ctx.modules cache are both already handled by vm's importModule; Load
// only needs to produce the module object once.
func (l *Loader) Load(ctx *vm.Context, name string) (*heap.Object, error) {
	if ctor, ok := l.native[name]; ok {
		mod := ctor(ctx)
		ctx.RegisterModule(name, mod)
		return mod, nil
	}

	path := filepath.Join(ctx.Config().ImportPath, strings.ReplaceAll(name, ".", string(filepath.Separator))+".vsp")
	raw, err := os.ReadFile(path)
	if err != nil {
		ctx.Raise(ctx.BuiltinClass("ImportError"), "no module named '"+name+"'")
		return nil, vm.ErrRaised
	}
	clean, err := source.DecodeUTF8BestEffort(raw)
	if err != nil {
		ctx.Raise(ctx.BuiltinClass("ImportError"), "module '"+name+"': "+err.Error())
		return nil, vm.ErrRaised
	}

	code, err := compiler.Compile(string(clean), name, "exec")
	if err != nil {
		ctx.Raise(ctx.BuiltinClass("SyntaxError"), err.Error())
		return nil, vm.ErrRaised
	}

	if _, err := ctx.RunModule(code, name); err != nil {
		return nil, err
	}
	return ctx.Module(name), nil
}
