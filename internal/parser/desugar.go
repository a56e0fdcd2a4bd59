package parser

import (
	"github.com/ochom/vesper/internal/ast"
	"github.com/ochom/vesper/internal/token"
)

// desugarFor rewrites `for <target> in <iter>: <body> [else: <elseBody>]`
// into its primitive while/try form:
//
//	__tmp = <iter>.__iter__()
//	while True:
//	    try:
//	        <target> = __tmp.__next__()
//	    except StopIteration:
//	        break
//	    <body>
//	else:
//	    <elseBody>
func (p *Parser) desugarFor(pos token.Position, target ast.Target, iter ast.Expr, body, elseBody ast.Block) []ast.Stmt {
	tmp := p.newTemp()

	iterCall := &ast.CallExpr{BaseNode: bn(pos), Func: &ast.AttributeExpr{BaseNode: bn(pos), X: iter, Name: "__iter__"}}
	initStmt := &ast.AssignStmt{BaseNode: bn(pos), Target: &ast.NameTarget{BaseNode: bn(pos), Name: tmp}, Value: iterCall}

	nextCall := &ast.CallExpr{BaseNode: bn(pos), Func: &ast.AttributeExpr{
		BaseNode: bn(pos), X: &ast.Ident{BaseNode: bn(pos), Name: tmp}, Name: "__next__",
	}}
	advance := &ast.AssignStmt{BaseNode: bn(pos), Target: target, Value: nextCall}
	tryStmt := &ast.TryStmt{
		BaseNode: bn(pos),
		Body:     ast.Block{Stmts: []ast.Stmt{advance}},
		Excepts: []ast.ExceptClause{{
			Type: &ast.Ident{BaseNode: bn(pos), Name: "StopIteration"},
			Body: ast.Block{Stmts: []ast.Stmt{&ast.BreakStmt{BaseNode: bn(pos)}}},
		}},
	}

	whileBody := ast.Block{Stmts: append([]ast.Stmt{tryStmt}, body.Stmts...)}
	whileStmt := &ast.WhileStmt{
		BaseNode: bn(pos),
		Cond:     &ast.BoolLit{BaseNode: bn(pos), Value: true},
		Body:     whileBody,
		Else:     elseBody,
	}
	return []ast.Stmt{initStmt, whileStmt}
}
