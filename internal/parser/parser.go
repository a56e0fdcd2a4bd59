// Package parser consumes the lexer's logical-line tree and builds an AST,
// performing desugaring (for-loops, comprehensions, with-statements,
// chained assignment) and capture-variable analysis for closures. The
// expression grammar is a conventional Pratt parser; the statement
// grammar walks the logical-line tree directly instead of scanning an
// explicit INDENT/DEDENT token stream.
package parser

import (
	"fmt"

	"github.com/ochom/vesper/internal/ast"
	"github.com/ochom/vesper/internal/lexer"
	"github.com/ochom/vesper/internal/token"
)

// Error is a parse-time error with its source position.
type Error struct {
	Msg string
	Pos token.Position
}

func (e Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Parser holds the shared error list and parse-pass counters. loopDepth is
// tracked but not consulted; `break`/`continue` outside a loop are
// reported by the compiler, not the parser.
type Parser struct {
	errs      []Error
	loopDepth int
	tmpCount  int

	// pending holds statements synthesized while parsing an expression
	// (list comprehensions desugar to a temp-list build loop; see
	// finishListComprehension) that must be spliced in before the
	// statement currently being parsed. Statement-level parsing drains
	// this after each simple statement via takePending.
	pending []ast.Stmt
}

// takePending returns and clears statements queued by expression parsing.
func (p *Parser) takePending() []ast.Stmt {
	pend := p.pending
	p.pending = nil
	return pend
}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// ParseModule parses a complete logical-line tree into a Module named
// name. Parse errors are collected, not fatal, and returned as the second
// result.
func ParseModule(root *lexer.LogicalLine, name string) (*ast.Module, []Error) {
	p := New()
	body := p.parseBlock(root.Children)
	mod := &ast.Module{Name: name, Body: body}
	for _, fn := range collectFunctionDefs(body) {
		resolveCaptures(fn)
	}
	return mod, p.errs
}

// ParseExpr parses a single expression from one logical line's tokens —
// used by compiler.Compile for mode "eval" (compile(..., mode="eval") and
// the host's CompileExpr/Eval).
func ParseExpr(line *lexer.LogicalLine) (ast.Expr, []Error) {
	p := New()
	c := &cursor{toks: stripTrailingSemicolons(line.Tokens)}
	e := p.parseExpr(c, precLowest)
	return e, p.errs
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) {
	p.errs = append(p.errs, Error{Msg: fmt.Sprintf(format, args...), Pos: pos})
}

func (p *Parser) newTemp() string {
	p.tmpCount++
	return fmt.Sprintf("__tmp%d", p.tmpCount)
}

func stripTrailingSemicolons(toks []token.Token) []token.Token {
	for len(toks) > 0 && toks[len(toks)-1].Type == token.SEMICOLON {
		toks = toks[:len(toks)-1]
	}
	return toks
}

// collectFunctionDefs walks a statement list (recursively through nested
// blocks, including nested function and class bodies, so inner defs are
// collected in the same walk) gathering every FunctionDef so each can have
// capture analysis run over it.
func collectFunctionDefs(stmts []ast.Stmt) []*ast.FunctionDef {
	var out []*ast.FunctionDef
	var walkBlock func(b ast.Block)
	var walkStmt func(s ast.Stmt)

	walkBlock = func(b ast.Block) {
		for _, s := range b.Stmts {
			walkStmt(s)
		}
	}
	walkStmt = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.FunctionDef:
			out = append(out, n)
			walkBlock(n.Body)
		case *ast.ClassDef:
			walkBlock(n.Body)
		case *ast.IfStmt:
			walkBlock(n.Then)
			walkBlock(n.Else)
		case *ast.WhileStmt:
			walkBlock(n.Body)
			walkBlock(n.Else)
		case *ast.TryStmt:
			walkBlock(n.Body)
			for _, ex := range n.Excepts {
				walkBlock(ex.Body)
			}
			walkBlock(n.Finally)
		}
	}
	for _, s := range stmts {
		walkStmt(s)
	}
	return out
}
