package vesper

import (
	"github.com/ochom/vesper/internal/compiler"
	"github.com/ochom/vesper/internal/heap"
)

// Program is a compiled, not-yet-run code object.
type Program struct {
	code *compiler.Code
}

// Compile compiles src under display name name as a full module body
// (statement sequence), without running it.
func (c *Context) Compile(src, name string) (*Program, error) {
	code, err := compiler.Compile(src, name, "exec")
	if err != nil {
		return nil, err
	}
	return &Program{code: code}, nil
}

// CompileExpr compiles src as a single expression, implicitly returning
// its value when run.
func (c *Context) CompileExpr(src, name string) (*Program, error) {
	code, err := compiler.Compile(src, name, "eval")
	if err != nil {
		return nil, err
	}
	return &Program{code: code}, nil
}

// Run executes p as moduleName's top-level body, returning the
// expression's value for a Program from CompileExpr and None for one from
// Compile; the module object this creates is addressable afterward via
// Globals.
func (c *Context) Run(p *Program, moduleName string) (*heap.Object, error) {
	return c.vm.RunModule(p.code, moduleName)
}

// Exec compiles and runs src in one step under moduleName.
func (c *Context) Exec(src, moduleName string) (*heap.Object, error) {
	p, err := c.Compile(src, moduleName)
	if err != nil {
		return nil, err
	}
	return c.Run(p, moduleName)
}

// Eval compiles and runs src as a single expression under moduleName.
func (c *Context) Eval(src, moduleName string) (*heap.Object, error) {
	p, err := c.CompileExpr(src, moduleName)
	if err != nil {
		return nil, err
	}
	return c.Run(p, moduleName)
}
