package parser

import (
	"github.com/ochom/vesper/internal/ast"
	"github.com/ochom/vesper/internal/lexer"
	"github.com/ochom/vesper/internal/token"
)

// parseBlock parses a sibling list of logical lines (a function/class body,
// or the program's top level) into a statement list. Compound statements
// that span multiple sibling lines (if/elif/else, try/except/finally,
// while/else, for/else) are recognized here via lookahead over the sibling
// index.
func (p *Parser) parseBlock(lines []*lexer.LogicalLine) []ast.Stmt {
	var out []ast.Stmt
	i := 0
	for i < len(lines) {
		stmt, consumed := p.parseCompoundOrSimple(lines, i)
		out = append(out, stmt...)
		i += consumed
	}
	return out
}

// parseCompoundOrSimple parses the statement headed by lines[i], consuming
// as many following siblings as the construct needs (e.g. a trailing
// `else`), and returns the resulting statements plus how many sibling
// entries were consumed.
func (p *Parser) parseCompoundOrSimple(lines []*lexer.LogicalLine, i int) ([]ast.Stmt, int) {
	line := lines[i]
	if len(line.Tokens) == 0 {
		return nil, 1
	}
	head := line.Tokens[0]
	switch head.Type {
	case token.IF:
		return p.parseIfChain(lines, i)
	case token.WHILE:
		return p.parseWhile(lines, i)
	case token.FOR:
		return p.parseForStmt(lines, i)
	case token.TRY:
		return p.parseTry(lines, i)
	case token.DEF:
		return []ast.Stmt{p.parseFunctionDef(line)}, 1
	case token.CLASS:
		return []ast.Stmt{p.parseClassDef(line)}, 1
	case token.WITH:
		tryStmt := p.parseWith(line)
		out := append(p.takePending(), tryStmt)
		return out, 1
	default:
		return p.parseSimpleLine(line), 1
	}
}

// parseSimpleLine parses a non-compound logical line: one or more
// semicolon-separated simple statements, each either a keyword statement
// (pass/break/.../import/raise/global/nonlocal) or an assignment/expression
// statement. Any pending statements queued by expression-level desugaring
// (list comprehensions) are spliced in immediately before the statement
// that triggered them.
func (p *Parser) parseSimpleLine(line *lexer.LogicalLine) []ast.Stmt {
	toks := stripTrailingSemicolons(line.Tokens)
	var out []ast.Stmt
	start := 0
	for start < len(toks) {
		end := start
		depth := 0
		for end < len(toks) {
			switch toks[end].Type {
			case token.LPAREN, token.LBRACKET, token.LBRACE:
				depth++
			case token.RPAREN, token.RBRACKET, token.RBRACE:
				depth--
			case token.SEMICOLON:
				if depth == 0 {
					goto segmentDone
				}
			}
			end++
		}
	segmentDone:
		seg := toks[start:end]
		c := &cursor{toks: seg}
		stmt := p.parseSimpleStmt(c)
		out = append(out, p.takePending()...)
		out = append(out, stmt)
		start = end + 1
	}
	return out
}

func (p *Parser) parseSimpleStmt(c *cursor) ast.Stmt {
	pos := c.cur().Pos
	switch c.cur().Type {
	case token.PASS:
		c.advance()
		return &ast.PassStmt{BaseNode: bn(pos)}
	case token.BREAK:
		c.advance()
		return &ast.BreakStmt{BaseNode: bn(pos)}
	case token.CONTINUE:
		c.advance()
		return &ast.ContinueStmt{BaseNode: bn(pos)}
	case token.RETURN:
		c.advance()
		if c.atEnd() {
			return &ast.ReturnStmt{BaseNode: bn(pos)}
		}
		return &ast.ReturnStmt{BaseNode: bn(pos), Value: p.parseExprList(c)}
	case token.RAISE:
		c.advance()
		if c.atEnd() {
			return &ast.RaiseStmt{BaseNode: bn(pos)}
		}
		return &ast.RaiseStmt{BaseNode: bn(pos), X: p.parseTernary(c)}
	case token.GLOBAL:
		c.advance()
		return &ast.GlobalStmt{BaseNode: bn(pos), Names: p.parseNameList(c)}
	case token.NONLOCAL:
		c.advance()
		return &ast.NonlocalStmt{BaseNode: bn(pos), Names: p.parseNameList(c)}
	case token.IMPORT:
		return p.parseImport(c)
	case token.FROM:
		return p.parseImportFrom(c)
	case token.DEL:
		c.advance()
		// `del x` has no dedicated node; lower it to an attribute-free
		// expression statement calling "__delete__", the one CallExpr the
		// compiler special-cases (into OpDelete).
		target := p.parseTernary(c)
		return &ast.ExprStmt{BaseNode: bn(pos), X: &ast.CallExpr{
			BaseNode: bn(pos),
			Func:     &ast.Ident{BaseNode: bn(pos), Name: "__delete__"},
			Args:     []ast.Expr{target},
		}}
	default:
		return p.parseAssignOrExprStmt(c)
	}
}

// parseAssignOrExprStmt parses `target = value`, `target OP= value`, or a
// bare expression statement. Chained assignment (`a = b = c`) is split by
// consumeChainedAssign/buildChainedAssign into one assignment per target;
// tuple unpacking arrives as a single target via exprToTarget's PackTarget
// case.
func (p *Parser) parseAssignOrExprStmt(c *cursor) ast.Stmt {
	pos := c.cur().Pos
	first := p.parseTernary(c)

	switch c.cur().Type {
	case token.ASSIGN:
		targets := []ast.Target{p.exprToTarget(first)}
		value := p.consumeChainedAssign(c, &targets)
		return p.buildChainedAssign(pos, targets, value)
	case token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.DSTAREQ, token.SLASHEQ,
		token.DSLASHEQ, token.PERCENTEQ, token.PIPEEQ, token.AMPEQ, token.CARETEQ,
		token.SHLEQ, token.SHREQ:
		op := c.cur().Type
		c.advance()
		value := p.parseTernary(c)
		return &ast.AugAssignStmt{BaseNode: bn(pos), Target: p.exprToTarget(first), Op: op, Value: value}
	case token.PLUSPLUS:
		c.advance()
		return &ast.AugAssignStmt{BaseNode: bn(pos), Target: p.exprToTarget(first), Op: token.PLUSEQ, Value: &ast.IntLit{BaseNode: bn(pos), Value: 1}}
	case token.MINUSMINUS:
		c.advance()
		return &ast.AugAssignStmt{BaseNode: bn(pos), Target: p.exprToTarget(first), Op: token.MINUSEQ, Value: &ast.IntLit{BaseNode: bn(pos), Value: 1}}
	default:
		return &ast.ExprStmt{BaseNode: bn(pos), X: first}
	}
}

// consumeChainedAssign consumes `= expr` repeatedly for `a = b = c = value`,
// appending each intermediate target to targets and returning the final
// value expression.
func (p *Parser) consumeChainedAssign(c *cursor, targets *[]ast.Target) ast.Expr {
	c.advance() // =
	next := p.parseTernary(c)
	if c.is(token.ASSIGN) {
		*targets = append(*targets, p.exprToTarget(next))
		return p.consumeChainedAssign(c, targets)
	}
	return next
}

func (p *Parser) buildChainedAssign(pos token.Position, targets []ast.Target, value ast.Expr) ast.Stmt {
	if len(targets) == 1 {
		return &ast.AssignStmt{BaseNode: bn(pos), Target: targets[0], Value: value}
	}
	// Desugar `a = b = value` into `b = value; a = b` so each target is
	// assigned the same evaluated value without re-evaluating it.
	last := targets[len(targets)-1]
	p.pending = append(p.pending, &ast.AssignStmt{BaseNode: bn(pos), Target: last, Value: value})
	for i := len(targets) - 2; i >= 0; i-- {
		ref := targetAsExpr(last, pos)
		p.pending = append(p.pending, &ast.AssignStmt{BaseNode: bn(pos), Target: targets[i], Value: ref})
	}
	return &ast.PassStmt{BaseNode: bn(pos)}
}

// targetAsExpr reconstructs an expression reading the same location a
// target names, used by buildChainedAssign to re-read an already-assigned
// target as the value for the next assignment in the chain.
func targetAsExpr(t ast.Target, pos token.Position) ast.Expr {
	switch n := t.(type) {
	case *ast.NameTarget:
		return &ast.Ident{BaseNode: bn(pos), Name: n.Name}
	case *ast.AttributeTarget:
		return &ast.AttributeExpr{BaseNode: bn(pos), X: n.X, Name: n.Name}
	case *ast.IndexTarget:
		return &ast.IndexExpr{BaseNode: bn(pos), X: n.X, Index: n.Index}
	default:
		return &ast.NoneLit{BaseNode: bn(pos)}
	}
}

func augOpOf(tt token.Type) token.Type {
	switch tt {
	case token.PLUSEQ:
		return token.PLUS
	case token.MINUSEQ:
		return token.MINUS
	case token.STAREQ:
		return token.STAR
	case token.DSTAREQ:
		return token.DSTAR
	case token.SLASHEQ:
		return token.SLASH
	case token.DSLASHEQ:
		return token.DSLASH
	case token.PERCENTEQ:
		return token.PERCENT
	case token.PIPEEQ:
		return token.PIPE
	case token.AMPEQ:
		return token.AMP
	case token.CARETEQ:
		return token.CARET
	case token.SHLEQ:
		return token.SHL
	case token.SHREQ:
		return token.SHR
	default:
		return tt
	}
}

// parseExprList parses a comma-separated expression list, collapsing to a
// single expression when there is only one (used by `return`, which may
// return a bare value or an implicit tuple).
func (p *Parser) parseExprList(c *cursor) ast.Expr {
	pos := c.cur().Pos
	first := p.parseTernary(c)
	if !c.is(token.COMMA) {
		return first
	}
	elems := []ast.Expr{first}
	for c.is(token.COMMA) {
		c.advance()
		if c.atEnd() {
			break
		}
		elems = append(elems, p.parseTernary(c))
	}
	return &ast.TupleLit{BaseNode: bn(pos), Elems: elems}
}

func (p *Parser) parseNameList(c *cursor) []string {
	var names []string
	for {
		tok, ok := p.expect(c, token.IDENT)
		if !ok {
			break
		}
		names = append(names, tok.Literal)
		if c.is(token.COMMA) {
			c.advance()
			continue
		}
		break
	}
	return names
}

func (p *Parser) parseImport(c *cursor) ast.Stmt {
	pos := c.advance().Pos // import
	name, _ := p.expect(c, token.IDENT)
	alias := ""
	if c.is(token.AS) {
		c.advance()
		aliasTok, _ := p.expect(c, token.IDENT)
		alias = aliasTok.Literal
	}
	return &ast.ImportStmt{BaseNode: bn(pos), Name: name.Literal, Alias: alias}
}

func (p *Parser) parseImportFrom(c *cursor) ast.Stmt {
	pos := c.advance().Pos // from
	mod, _ := p.expect(c, token.IDENT)
	p.expect(c, token.IMPORT)
	stmt := &ast.ImportFromStmt{BaseNode: bn(pos), Module: mod.Literal}
	if c.is(token.STAR) {
		c.advance()
		stmt.Star = true
		return stmt
	}
	for {
		item, _ := p.expect(c, token.IDENT)
		alias := ""
		if c.is(token.AS) {
			c.advance()
			aliasTok, _ := p.expect(c, token.IDENT)
			alias = aliasTok.Literal
		}
		stmt.Items = append(stmt.Items, ast.ImportFromItem{Name: item.Literal, Alias: alias})
		if c.is(token.COMMA) {
			c.advance()
			continue
		}
		break
	}
	return stmt
}

// parseIfChain parses `if ... : Then` plus a following `elif`/`else`
// sibling line, desugaring `elif c: B` into `else: if c: B`.
func (p *Parser) parseIfChain(lines []*lexer.LogicalLine, i int) ([]ast.Stmt, int) {
	line := lines[i]
	c := &cursor{toks: line.Tokens}
	pos := c.advance().Pos // if
	cond := p.parseExprList(c)
	pre := p.takePending()
	p.expect(c, token.COLON)
	then := ast.Block{Stmts: p.parseBlock(line.Children)}

	elseBlock, consumed := p.parseElseChain(lines, i+1)
	out := append(pre, &ast.IfStmt{BaseNode: bn(pos), Cond: cond, Then: then, Else: elseBlock})
	return out, 1 + consumed
}

// parseElseChain looks at lines[i] to see whether it is an `elif` or
// `else` continuing the compound statement started at i-1, returning the
// resulting else-block and how many sibling lines (0, 1) it consumed.
func (p *Parser) parseElseChain(lines []*lexer.LogicalLine, i int) (ast.Block, int) {
	if i >= len(lines) || len(lines[i].Tokens) == 0 {
		return ast.Block{}, 0
	}
	line := lines[i]
	head := line.Tokens[0]
	switch head.Type {
	case token.ELIF:
		c := &cursor{toks: line.Tokens}
		pos := c.advance().Pos // elif
		cond := p.parseExprList(c)
		p.expect(c, token.COLON)
		then := ast.Block{Stmts: p.parseBlock(line.Children)}
		nestedElse, consumed := p.parseElseChain(lines, i+1)
		return ast.Block{Stmts: []ast.Stmt{&ast.IfStmt{BaseNode: bn(pos), Cond: cond, Then: then, Else: nestedElse}}}, 1 + consumed
	case token.ELSE:
		c := &cursor{toks: line.Tokens}
		c.advance() // else
		p.expect(c, token.COLON)
		return ast.Block{Stmts: p.parseBlock(line.Children)}, 1
	default:
		return ast.Block{}, 0
	}
}

func (p *Parser) parseWhile(lines []*lexer.LogicalLine, i int) ([]ast.Stmt, int) {
	line := lines[i]
	c := &cursor{toks: line.Tokens}
	pos := c.advance().Pos // while
	cond := p.parseExprList(c)
	pre := p.takePending()
	p.expect(c, token.COLON)
	p.loopDepth++
	body := ast.Block{Stmts: p.parseBlock(line.Children)}
	p.loopDepth--

	consumed := 0
	var elseBody ast.Block
	if i+1 < len(lines) && len(lines[i+1].Tokens) > 0 && lines[i+1].Tokens[0].Type == token.ELSE {
		ec := &cursor{toks: lines[i+1].Tokens}
		ec.advance()
		p.expect(ec, token.COLON)
		elseBody = ast.Block{Stmts: p.parseBlock(lines[i+1].Children)}
		consumed = 1
	}
	out := append(pre, &ast.WhileStmt{BaseNode: bn(pos), Cond: cond, Body: body, Else: elseBody})
	return out, 1 + consumed
}

// parseForStmt parses `for <targets> in <iter>: body [else: elseBody]` and
// desugars it immediately into the while/try primitive form, since there
// is no dedicated for-loop AST node.
func (p *Parser) parseForStmt(lines []*lexer.LogicalLine, i int) ([]ast.Stmt, int) {
	line := lines[i]
	c := &cursor{toks: line.Tokens}
	pos := c.advance().Pos // for
	target := p.parseTargetList(c)
	p.expect(c, token.IN)
	iter := p.parseExprList(c)
	pre := p.takePending()
	p.expect(c, token.COLON)
	p.loopDepth++
	body := ast.Block{Stmts: p.parseBlock(line.Children)}
	p.loopDepth--

	var elseBody ast.Block
	consumed := 0
	if i+1 < len(lines) && len(lines[i+1].Tokens) > 0 && lines[i+1].Tokens[0].Type == token.ELSE {
		ec := &cursor{toks: lines[i+1].Tokens}
		ec.advance()
		p.expect(ec, token.COLON)
		elseBody = ast.Block{Stmts: p.parseBlock(lines[i+1].Children)}
		consumed = 1
	}
	out := append(pre, p.desugarFor(pos, target, iter, body, elseBody)...)
	return out, 1 + consumed
}

func (p *Parser) parseTry(lines []*lexer.LogicalLine, i int) ([]ast.Stmt, int) {
	line := lines[i]
	c := &cursor{toks: line.Tokens}
	pos := c.advance().Pos // try
	p.expect(c, token.COLON)
	body := ast.Block{Stmts: p.parseBlock(line.Children)}

	j := i + 1
	var excepts []ast.ExceptClause
	for j < len(lines) && len(lines[j].Tokens) > 0 && lines[j].Tokens[0].Type == token.EXCEPT {
		ec := &cursor{toks: lines[j].Tokens}
		ec.advance() // except
		var typ ast.Expr
		name := ""
		if !ec.is(token.COLON) {
			typ = p.parseTernary(ec)
			if ec.is(token.AS) {
				ec.advance()
				nameTok, _ := p.expect(ec, token.IDENT)
				name = nameTok.Literal
			}
		}
		p.expect(ec, token.COLON)
		excepts = append(excepts, ast.ExceptClause{Type: typ, Name: name, Body: ast.Block{Stmts: p.parseBlock(lines[j].Children)}})
		j++
	}
	var finally ast.Block
	if j < len(lines) && len(lines[j].Tokens) > 0 && lines[j].Tokens[0].Type == token.FINALLY {
		fc := &cursor{toks: lines[j].Tokens}
		fc.advance()
		p.expect(fc, token.COLON)
		finally = ast.Block{Stmts: p.parseBlock(lines[j].Children)}
		j++
	}
	return []ast.Stmt{&ast.TryStmt{BaseNode: bn(pos), Body: body, Excepts: excepts, Finally: finally}}, j - i
}

// parseWith desugars `with <expr> [as <name>]: body` into
//
//	__tmp = <expr>
//	[<name> =] __tmp.__enter__()
//	try:
//	    body
//	finally:
//	    __tmp.__exit__(None, None, None)
func (p *Parser) parseWith(line *lexer.LogicalLine) ast.Stmt {
	c := &cursor{toks: line.Tokens}
	pos := c.advance().Pos // with
	ctxExpr := p.parseTernary(c)
	var asName string
	if c.is(token.AS) {
		c.advance()
		nameTok, _ := p.expect(c, token.IDENT)
		asName = nameTok.Literal
	}
	p.expect(c, token.COLON)
	body := ast.Block{Stmts: p.parseBlock(line.Children)}

	tmp := p.newTemp()
	p.pending = append(p.pending, &ast.AssignStmt{BaseNode: bn(pos), Target: &ast.NameTarget{BaseNode: bn(pos), Name: tmp}, Value: ctxExpr})
	enterCall := &ast.CallExpr{BaseNode: bn(pos), Func: &ast.AttributeExpr{BaseNode: bn(pos), X: &ast.Ident{BaseNode: bn(pos), Name: tmp}, Name: "__enter__"}}
	if asName != "" {
		p.pending = append(p.pending, &ast.AssignStmt{BaseNode: bn(pos), Target: &ast.NameTarget{BaseNode: bn(pos), Name: asName}, Value: enterCall})
	} else {
		p.pending = append(p.pending, &ast.ExprStmt{BaseNode: bn(pos), X: enterCall})
	}

	none := func() ast.Expr { return &ast.NoneLit{BaseNode: bn(pos)} }
	exitCall := &ast.CallExpr{
		BaseNode: bn(pos),
		Func:     &ast.AttributeExpr{BaseNode: bn(pos), X: &ast.Ident{BaseNode: bn(pos), Name: tmp}, Name: "__exit__"},
		Args:     []ast.Expr{none(), none(), none()},
	}
	tryStmt := &ast.TryStmt{
		BaseNode: bn(pos),
		Body:     body,
		Finally:  ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{BaseNode: bn(pos), X: exitCall}}},
	}
	return tryStmt
}

func (p *Parser) parseFunctionDef(line *lexer.LogicalLine) ast.Stmt {
	c := &cursor{toks: line.Tokens}
	pos := c.advance().Pos // def
	name, _ := p.expect(c, token.IDENT)
	p.expect(c, token.LPAREN)
	params := p.parseParamList(c, token.RPAREN)
	p.expect(c, token.RPAREN)
	if c.is(token.ARROW) {
		c.advance()
		p.parseTernary(c) // return-type annotation, parsed but not retained
	}
	p.expect(c, token.COLON)
	body := ast.Block{Stmts: p.parseBlock(line.Children)}
	return &ast.FunctionDef{BaseNode: bn(pos), Name: name.Literal, Params: params, Body: body}
}

func (p *Parser) parseClassDef(line *lexer.LogicalLine) ast.Stmt {
	c := &cursor{toks: line.Tokens}
	pos := c.advance().Pos // class
	name, _ := p.expect(c, token.IDENT)
	var bases []ast.Expr
	if c.is(token.LPAREN) {
		c.advance()
		for !c.is(token.RPAREN) && !c.atEnd() {
			bases = append(bases, p.parseTernary(c))
			if c.is(token.COMMA) {
				c.advance()
			} else {
				break
			}
		}
		p.expect(c, token.RPAREN)
	}
	p.expect(c, token.COLON)
	body := ast.Block{Stmts: p.parseBlock(line.Children)}
	return &ast.ClassDef{BaseNode: bn(pos), Name: name.Literal, Bases: bases, Body: body}
}
