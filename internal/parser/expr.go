package parser

import (
	"strconv"
	"strings"

	"github.com/ochom/vesper/internal/ast"
	"github.com/ochom/vesper/internal/token"
)

const precLowest = 0

func bn(pos token.Position) ast.BaseNode { return ast.BaseNode{P: pos} }

// parseExpr is the single expression entry point; it always starts at the
// lowest precedence class (conditional).
func (p *Parser) parseExpr(c *cursor, _ int) ast.Expr {
	return p.parseTernary(c)
}

func (p *Parser) parseTernary(c *cursor) ast.Expr {
	e := p.parseOr(c)
	if c.is(token.IF) {
		pos := c.advance().Pos
		cond := p.parseOr(c)
		p.expect(c, token.ELSE)
		elseE := p.parseTernary(c)
		return &ast.Conditional{BaseNode: bn(pos), Cond: cond, Then: e, Else: elseE}
	}
	return e
}

func (p *Parser) parseOr(c *cursor) ast.Expr {
	left := p.parseAnd(c)
	for c.is(token.OR) {
		pos := c.advance().Pos
		right := p.parseAnd(c)
		left = &ast.BoolOp{BaseNode: bn(pos), Op: token.OR, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd(c *cursor) ast.Expr {
	left := p.parseNot(c)
	for c.is(token.AND) {
		pos := c.advance().Pos
		right := p.parseNot(c)
		left = &ast.BoolOp{BaseNode: bn(pos), Op: token.AND, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseNot(c *cursor) ast.Expr {
	if c.is(token.NOT) {
		pos := c.advance().Pos
		x := p.parseNot(c)
		return &ast.UnaryExpr{BaseNode: bn(pos), Op: token.NOT, X: x}
	}
	return p.parseComparison(c)
}

func (p *Parser) parseComparison(c *cursor) ast.Expr {
	left := p.parseBitOr(c)
	for {
		switch c.cur().Type {
		case token.LT, token.LE, token.GT, token.GE, token.EQ, token.NE, token.IN:
			op := c.cur().Type
			pos := c.advance().Pos
			right := p.parseBitOr(c)
			left = &ast.BinaryExpr{BaseNode: bn(pos), Op: op, Left: left, Right: right}
		case token.NOT:
			if c.peekN(1).Type != token.IN {
				return left
			}
			pos := c.advance().Pos
			c.advance() // IN
			right := p.parseBitOr(c)
			left = &ast.BinaryExpr{BaseNode: bn(pos), Op: token.IN, Not: true, Left: left, Right: right}
		case token.IS:
			pos := c.advance().Pos
			not := false
			if c.is(token.NOT) {
				c.advance()
				not = true
			}
			right := p.parseBitOr(c)
			left = &ast.BinaryExpr{BaseNode: bn(pos), Op: token.IS, Not: not, Left: left, Right: right}
		default:
			return left
		}
	}
}

func (p *Parser) parseBitOr(c *cursor) ast.Expr {
	left := p.parseBitXor(c)
	for c.is(token.PIPE) {
		pos := c.advance().Pos
		right := p.parseBitXor(c)
		left = &ast.BinaryExpr{BaseNode: bn(pos), Op: token.PIPE, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitXor(c *cursor) ast.Expr {
	left := p.parseBitAnd(c)
	for c.is(token.CARET) {
		pos := c.advance().Pos
		right := p.parseBitAnd(c)
		left = &ast.BinaryExpr{BaseNode: bn(pos), Op: token.CARET, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitAnd(c *cursor) ast.Expr {
	left := p.parseShift(c)
	for c.is(token.AMP) {
		pos := c.advance().Pos
		right := p.parseShift(c)
		left = &ast.BinaryExpr{BaseNode: bn(pos), Op: token.AMP, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseShift(c *cursor) ast.Expr {
	left := p.parseAdditive(c)
	for c.cur().Type == token.SHL || c.cur().Type == token.SHR {
		op := c.cur().Type
		pos := c.advance().Pos
		right := p.parseAdditive(c)
		left = &ast.BinaryExpr{BaseNode: bn(pos), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive(c *cursor) ast.Expr {
	left := p.parseMultiplicative(c)
	for c.cur().Type == token.PLUS || c.cur().Type == token.MINUS {
		op := c.cur().Type
		pos := c.advance().Pos
		right := p.parseMultiplicative(c)
		left = &ast.BinaryExpr{BaseNode: bn(pos), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative(c *cursor) ast.Expr {
	left := p.parseUnary(c)
	for {
		switch c.cur().Type {
		case token.STAR, token.SLASH, token.DSLASH, token.PERCENT:
			op := c.cur().Type
			pos := c.advance().Pos
			right := p.parseUnary(c)
			left = &ast.BinaryExpr{BaseNode: bn(pos), Op: op, Left: left, Right: right}
		default:
			return left
		}
	}
}

func (p *Parser) parseUnary(c *cursor) ast.Expr {
	switch c.cur().Type {
	case token.PLUS, token.MINUS, token.TILDE:
		op := c.cur().Type
		pos := c.advance().Pos
		x := p.parseUnary(c)
		return &ast.UnaryExpr{BaseNode: bn(pos), Op: op, X: x}
	default:
		return p.parsePower(c)
	}
}

// parsePower recurses back through parseUnary for its right operand so that
// `**` is right-associative and binds tighter than unary prefix (`-2**2 ==
// -4`, `2**3**2 == 2**(3**2)`), but looser than postfix (`obj.attr**2`
// parses as `(obj.attr)**2`).
func (p *Parser) parsePower(c *cursor) ast.Expr {
	left := p.parsePostfix(c)
	if c.is(token.DSTAR) {
		pos := c.advance().Pos
		right := p.parseUnary(c)
		return &ast.BinaryExpr{BaseNode: bn(pos), Op: token.DSTAR, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parsePostfix(c *cursor) ast.Expr {
	e := p.parsePrimary(c)
	for {
		switch c.cur().Type {
		case token.DOT:
			c.advance()
			name, _ := p.expect(c, token.IDENT)
			e = &ast.AttributeExpr{BaseNode: bn(name.Pos), X: e, Name: name.Literal}
		case token.LPAREN:
			e = p.parseCall(c, e)
		case token.LBRACKET:
			e = p.parseIndexOrSlice(c, e)
		default:
			return e
		}
	}
}

func (p *Parser) parseCall(c *cursor, fn ast.Expr) ast.Expr {
	pos := c.advance().Pos // (
	call := &ast.CallExpr{BaseNode: bn(pos), Func: fn}
	for !c.is(token.RPAREN) && !c.atEnd() {
		switch {
		case c.is(token.DSTAR):
			c.advance()
			call.DStar = p.parseTernary(c)
		case c.is(token.STAR):
			c.advance()
			call.Star = p.parseTernary(c)
		case c.is(token.IDENT) && c.peekN(1).Type == token.ASSIGN:
			name := c.advance().Literal
			c.advance() // =
			call.Kwargs = append(call.Kwargs, ast.Kwarg{Name: name, Value: p.parseTernary(c)})
		default:
			call.Args = append(call.Args, p.parseTernary(c))
		}
		if c.is(token.COMMA) {
			c.advance()
		} else {
			break
		}
	}
	p.expect(c, token.RPAREN)
	return call
}

func (p *Parser) parseIndexOrSlice(c *cursor, x ast.Expr) ast.Expr {
	pos := c.advance().Pos // [
	var low, high, step ast.Expr
	isSlice := false
	if !c.is(token.COLON) {
		low = p.parseTernary(c)
	}
	if c.is(token.COLON) {
		isSlice = true
		c.advance()
		if !c.is(token.COLON) && !c.is(token.RBRACKET) {
			high = p.parseTernary(c)
		}
		if c.is(token.COLON) {
			c.advance()
			if !c.is(token.RBRACKET) {
				step = p.parseTernary(c)
			}
		}
	}
	p.expect(c, token.RBRACKET)
	if isSlice {
		return &ast.SliceExpr{BaseNode: bn(pos), X: x, Low: low, High: high, Step: step}
	}
	return &ast.IndexExpr{BaseNode: bn(pos), X: x, Index: low}
}

func (p *Parser) parsePrimary(c *cursor) ast.Expr {
	t := c.cur()
	switch t.Type {
	case token.INT:
		c.advance()
		v, err := parseIntLiteral(t.Literal)
		if err != nil {
			p.errorf(t.Pos, "malformed integer literal %q", t.Literal)
		}
		return &ast.IntLit{BaseNode: bn(t.Pos), Value: v}
	case token.FLOAT:
		c.advance()
		v, _ := strconv.ParseFloat(t.Literal, 64)
		return &ast.FloatLit{BaseNode: bn(t.Pos), Value: v}
	case token.STRING:
		c.advance()
		return &ast.StringLit{BaseNode: bn(t.Pos), Value: t.Literal}
	case token.TRUE:
		c.advance()
		return &ast.BoolLit{BaseNode: bn(t.Pos), Value: true}
	case token.FALSE:
		c.advance()
		return &ast.BoolLit{BaseNode: bn(t.Pos), Value: false}
	case token.NONE:
		c.advance()
		return &ast.NoneLit{BaseNode: bn(t.Pos)}
	case token.IDENT:
		c.advance()
		if c.is(token.WALRUS) {
			c.advance()
			val := p.parseTernary(c)
			return &ast.NamedExpr{BaseNode: bn(t.Pos), Name: t.Literal, Value: val}
		}
		return &ast.Ident{BaseNode: bn(t.Pos), Name: t.Literal}
	case token.LAMBDA:
		return p.parseLambda(c)
	case token.LPAREN:
		return p.parseParenOrTuple(c)
	case token.LBRACKET:
		return p.parseListOrComprehension(c)
	case token.LBRACE:
		return p.parseDictOrSet(c)
	default:
		c.advance()
		p.errorf(t.Pos, "unexpected token %s in expression", t.Type)
		return &ast.NoneLit{BaseNode: bn(t.Pos)}
	}
}

func (p *Parser) parseLambda(c *cursor) ast.Expr {
	pos := c.advance().Pos // lambda
	params := p.parseParamList(c, token.COLON)
	p.expect(c, token.COLON)
	body := p.parseTernary(c)
	return &ast.LambdaExpr{BaseNode: bn(pos), Params: params, Body: body}
}

func (p *Parser) parseParenOrTuple(c *cursor) ast.Expr {
	pos := c.advance().Pos // (
	if c.is(token.RPAREN) {
		c.advance()
		return &ast.TupleLit{BaseNode: bn(pos)}
	}
	first := p.parseTernary(c)
	if c.is(token.FOR) {
		return p.finishGeneratorAsTuple(c, pos, first)
	}
	if !c.is(token.COMMA) {
		p.expect(c, token.RPAREN)
		return first
	}
	elems := []ast.Expr{first}
	for c.is(token.COMMA) {
		c.advance()
		if c.is(token.RPAREN) {
			break
		}
		elems = append(elems, p.parseTernary(c))
	}
	p.expect(c, token.RPAREN)
	return &ast.TupleLit{BaseNode: bn(pos), Elems: elems}
}

func (p *Parser) parseListOrComprehension(c *cursor) ast.Expr {
	pos := c.advance().Pos // [
	if c.is(token.RBRACKET) {
		c.advance()
		return &ast.ListLit{BaseNode: bn(pos)}
	}
	first := p.parseTernary(c)
	if c.is(token.FOR) {
		e := p.finishListComprehension(c, pos, first)
		p.expect(c, token.RBRACKET)
		return e
	}
	elems := []ast.Expr{first}
	for c.is(token.COMMA) {
		c.advance()
		if c.is(token.RBRACKET) {
			break
		}
		elems = append(elems, p.parseTernary(c))
	}
	p.expect(c, token.RBRACKET)
	return &ast.ListLit{BaseNode: bn(pos), Elems: elems}
}

// finishListComprehension desugars a comprehension:
// `[<expr> for <targets> in <iter> if <cond>]` becomes a fresh temp list,
// a desugared for-loop appending <expr> (guarded by <cond> when present),
// queued as pending statements ahead of the statement currently being
// parsed, with the comprehension expression itself replaced by a reference
// to the temp name.
func (p *Parser) finishListComprehension(c *cursor, pos token.Position, elemExpr ast.Expr) ast.Expr {
	c.advance() // for
	target := p.parseTargetList(c)
	p.expect(c, token.IN)
	iter := p.parseOr(c)
	var cond ast.Expr
	if c.is(token.IF) {
		c.advance()
		cond = p.parseOr(c)
	}

	resultName := p.newTemp()
	appendCall := &ast.ExprStmt{BaseNode: bn(pos), X: &ast.CallExpr{
		BaseNode: bn(pos),
		Func:     &ast.AttributeExpr{BaseNode: bn(pos), X: &ast.Ident{BaseNode: bn(pos), Name: resultName}, Name: "append"},
		Args:     []ast.Expr{elemExpr},
	}}
	var body ast.Block
	if cond != nil {
		body = ast.Block{Stmts: []ast.Stmt{&ast.IfStmt{BaseNode: bn(pos), Cond: cond, Then: ast.Block{Stmts: []ast.Stmt{appendCall}}}}}
	} else {
		body = ast.Block{Stmts: []ast.Stmt{appendCall}}
	}

	init := &ast.AssignStmt{BaseNode: bn(pos), Target: &ast.NameTarget{BaseNode: bn(pos), Name: resultName}, Value: &ast.ListLit{BaseNode: bn(pos)}}
	forStmts := p.desugarFor(pos, target, iter, body, ast.Block{})
	p.pending = append(p.pending, init)
	p.pending = append(p.pending, forStmts...)
	return &ast.Ident{BaseNode: bn(pos), Name: resultName}
}

// finishGeneratorAsTuple handles a parenthesized comprehension `(<expr> for
// ...)`. Vesper has no lazy generator object in this build, so a
// parenthesized comprehension desugars exactly like a list comprehension
// and the result list is used directly; callers receive a list, not a
// tuple, in this position.
func (p *Parser) finishGeneratorAsTuple(c *cursor, pos token.Position, elemExpr ast.Expr) ast.Expr {
	result := p.finishListComprehension(c, pos, elemExpr)
	p.expect(c, token.RPAREN)
	return result
}

func (p *Parser) parseDictOrSet(c *cursor) ast.Expr {
	pos := c.advance().Pos // {
	if c.is(token.RBRACE) {
		c.advance()
		return &ast.DictLit{BaseNode: bn(pos)}
	}
	firstKey := p.parseTernary(c)
	if c.is(token.COLON) {
		c.advance()
		firstVal := p.parseTernary(c)
		entries := []ast.DictEntry{{Key: firstKey, Value: firstVal}}
		for c.is(token.COMMA) {
			c.advance()
			if c.is(token.RBRACE) {
				break
			}
			k := p.parseTernary(c)
			p.expect(c, token.COLON)
			v := p.parseTernary(c)
			entries = append(entries, ast.DictEntry{Key: k, Value: v})
		}
		p.expect(c, token.RBRACE)
		return &ast.DictLit{BaseNode: bn(pos), Entries: entries}
	}
	elems := []ast.Expr{firstKey}
	for c.is(token.COMMA) {
		c.advance()
		if c.is(token.RBRACE) {
			break
		}
		elems = append(elems, p.parseTernary(c))
	}
	p.expect(c, token.RBRACE)
	return &ast.SetLit{BaseNode: bn(pos), Elems: elems}
}

// parseParamList parses a comma-separated parameter list up to (not
// consuming) the given terminator token (RPAREN for `def`, COLON for
// `lambda`).
func (p *Parser) parseParamList(c *cursor, terminator token.Type) ast.Params {
	var params ast.Params
	seenDefault := false
	for !c.is(terminator) && !c.atEnd() {
		kind := ast.ParamRegular
		switch {
		case c.is(token.STAR):
			c.advance()
			kind = ast.ParamVarPositional
		case c.is(token.DSTAR):
			c.advance()
			kind = ast.ParamVarKeyword
		}
		name, _ := p.expect(c, token.IDENT)
		var def ast.Expr
		if kind == ast.ParamRegular && c.is(token.ASSIGN) {
			c.advance()
			def = p.parseTernary(c)
			seenDefault = true
		} else if kind == ast.ParamRegular && seenDefault {
			p.errorf(name.Pos, "non-default parameter %q follows a default parameter", name.Literal)
		}
		params.List = append(params.List, ast.Param{Name: name.Literal, Kind: kind, Default: def})
		if c.is(token.COMMA) {
			c.advance()
		} else {
			break
		}
	}
	return params
}

func parseIntLiteral(lit string) (int64, error) {
	s := strings.ToLower(lit)
	switch {
	case strings.HasPrefix(s, "0x"):
		return strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(s, "0o"):
		return strconv.ParseInt(s[2:], 8, 64)
	case strings.HasPrefix(s, "0b"):
		return strconv.ParseInt(s[2:], 2, 64)
	default:
		return strconv.ParseInt(s, 10, 64)
	}
}
