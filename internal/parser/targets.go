package parser

import (
	"github.com/ochom/vesper/internal/ast"
	"github.com/ochom/vesper/internal/token"
)

// parseTargetList parses a comma-separated assignment-target list, as seen
// on the left of `=` or after `for` in a for-loop/comprehension header. A
// single bare target is returned unwrapped; two or more (or a trailing
// comma) are wrapped in a PackTarget.
func (p *Parser) parseTargetList(c *cursor) ast.Target {
	pos := c.cur().Pos
	// Targets are parsed at postfix level (names/attrs/index/tuple-or-list
	// groupings), never through the comparison ladder — a bare `in` here
	// is the for-loop's own keyword, not an `in` comparison operator.
	first := p.exprToTarget(p.parsePostfix(c))
	if !c.is(token.COMMA) {
		return first
	}
	elems := []ast.Target{first}
	for c.is(token.COMMA) {
		c.advance()
		if c.is(token.IN) || c.is(token.ASSIGN) || c.atEnd() {
			break
		}
		elems = append(elems, p.exprToTarget(p.parsePostfix(c)))
	}
	return &ast.PackTarget{BaseNode: bn(pos), Elems: elems}
}

// exprToTarget converts a parsed expression into an assignment target,
// recording a parse error at the expression's position if it names
// something that cannot be assigned to.
func (p *Parser) exprToTarget(e ast.Expr) ast.Target {
	switch n := e.(type) {
	case *ast.Ident:
		return &ast.NameTarget{BaseNode: ast.BaseNode{P: n.Pos()}, Name: n.Name}
	case *ast.IndexExpr:
		return &ast.IndexTarget{BaseNode: ast.BaseNode{P: n.Pos()}, X: n.X, Index: n.Index}
	case *ast.AttributeExpr:
		return &ast.AttributeTarget{BaseNode: ast.BaseNode{P: n.Pos()}, X: n.X, Name: n.Name}
	case *ast.TupleLit:
		elems := make([]ast.Target, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = p.exprToTarget(el)
		}
		return &ast.PackTarget{BaseNode: ast.BaseNode{P: n.Pos()}, Elems: elems}
	case *ast.ListLit:
		elems := make([]ast.Target, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = p.exprToTarget(el)
		}
		return &ast.PackTarget{BaseNode: ast.BaseNode{P: n.Pos()}, Elems: elems}
	default:
		p.errorf(e.Pos(), "cannot assign to this expression")
		return &ast.NameTarget{BaseNode: ast.BaseNode{P: e.Pos()}, Name: "__invalid"}
	}
}
