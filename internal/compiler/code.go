package compiler

import "github.com/ochom/vesper/internal/token"

// Code is the compiled form of one function body (or a module's implicit
// top-level function, or a bare expression compiled in "eval" mode).
type Code struct {
	Name    string
	Instrs  []Instr
	Consts  []any    // literal values (heap construction happens lazily at load)
	Names   []string // interned names referenced by LOAD_*/STORE_*/GET_ATTR/etc.

	// Params mirrors ast.Params, carried through to argument binding.
	Params []Param

	// Locals/LocalCaptures/GlobalCaptures mirror the parser's capture
	// resolution (ast.FunctionDef fields) so the executor can initialize a
	// frame's variable-cell map during argument binding.
	Locals         []string
	LocalCaptures  []string
	GlobalCaptures []string

	// FuncProtos/ClassProtos hold nested function/class bodies referenced
	// by OpMakeFunction/OpMakeClass by index.
	FuncProtos  []*Code
	ClassProtos []*ClassProto

	ModuleName string
}

// Param mirrors ast.Param, minus the unevaluated default expression (which
// compileFunctionDef/compileLambda compile inline, as an arg frame of
// evaluated values pushed just before MAKE_FUNCTION).
type Param struct {
	Name string
	Kind ParamKind
}

type ParamKind int

const (
	ParamRegular ParamKind = iota
	ParamVarPositional
	ParamVarKeyword
)

// ClassProto is the compiled body of a class statement: a short Code run
// once (like a module top-level) whose resulting locals become the class's
// template attribute table.
type ClassProto struct {
	Name string
	Body *Code
}

// internName interns s into c.Names, returning its index.
func (c *Code) internName(s string) int {
	for i, n := range c.Names {
		if n == s {
			return i
		}
	}
	c.Names = append(c.Names, s)
	return len(c.Names) - 1
}

func (c *Code) internConst(v any) int {
	c.Consts = append(c.Consts, v)
	return len(c.Consts) - 1
}

func (c *Code) emit(op OpCode, a int, line int) int {
	c.Instrs = append(c.Instrs, Instr{Op: op, A: a, Line: line})
	return len(c.Instrs) - 1
}

func (c *Code) emitOperator(op OpCode, tok token.Type, line int) int {
	c.Instrs = append(c.Instrs, Instr{Op: op, Op2: tok, Line: line})
	return len(c.Instrs) - 1
}

func (c *Code) here() int { return len(c.Instrs) }

func (c *Code) patchJump(idx int, target int) {
	c.Instrs[idx].A = target
}
