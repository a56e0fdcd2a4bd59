// Package ast defines the abstract syntax tree produced by the parser.
// Node types are split across files by family.
package ast

import "github.com/ochom/vesper/internal/token"

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Position
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Target is implemented by assignment-target nodes: Name, Index, Attribute
// (as targets) and Pack.
type Target interface {
	Node
	targetNode()
}

type BaseNode struct {
	P token.Position
}

func (b BaseNode) Pos() token.Position { return b.P }

// ExprTag, StmtTag, TargetTag are marker-method providers, kept separate
// from BaseNode so the three node categories don't all accidentally
// satisfy each other's interface.
type ExprTag struct{}

func (ExprTag) exprNode() {}

type StmtTag struct{}

func (StmtTag) stmtNode() {}

type TargetTag struct{}

func (TargetTag) targetNode() {}

// Module is the root of a parsed program: an implicit top-level function
// body.
type Module struct {
	BaseNode
	Name string
	Body []Stmt
}

// Program wraps a Module for top-level compilation entry points; kept
// distinct from Module so the compiler can also compile a bare expression
// (compile(..., mode="eval")) without synthesizing a fake module name.
type Program struct {
	Module *Module
	// Expr is set instead of Module when compiled in "eval" mode.
	Expr Expr
}
