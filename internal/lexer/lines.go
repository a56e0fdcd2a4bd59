package lexer

import (
	"fmt"
	"strings"

	"github.com/ochom/vesper/internal/source"
	"github.com/ochom/vesper/internal/token"
)

// LogicalLine is one statement-level unit: the tokens of a single logical
// line (which may have spanned several physical lines inside brackets) plus
// the nested logical lines indented directly under it. The root returned
// by BuildTree has empty Tokens and its Children are the top-level
// statements of the program.
type LogicalLine struct {
	Tokens   []token.Token
	Children []*LogicalLine
	Text     string // the first physical line's original source text
	Line     int    // 1-based physical line number the logical line starts on
}

// BuildTree groups a flat token stream (as produced by Tokenize) into a
// tree of LogicalLines according to indentation.
func BuildTree(toks []token.Token, buf *source.Buffer) (*LogicalLine, []Error) {
	var errs []Error
	lines := splitLines(toks)

	root := &LogicalLine{}
	type frame struct {
		node  *LogicalLine
		width int
	}
	stack := []frame{{node: root, width: -1}}
	unitWidth := 0
	unitSet := false

	for _, ln := range lines {
		if len(ln) == 0 {
			continue
		}
		width := ln[0].Pos.Column - 1
		pos := ln[0].Pos

		if !unitSet && width > 0 {
			unitWidth = width
			unitSet = true
		}
		if unitSet && unitWidth > 0 && width%unitWidth != 0 {
			errs = append(errs, Error{Msg: fmt.Sprintf("inconsistent indentation: width %d is not a multiple of the file's indentation unit (%d)", width, unitWidth), Pos: pos})
		}

		// Pop frames until we find the immediate parent (the most recent
		// frame with a strictly smaller width).
		for len(stack) > 1 && width <= stack[len(stack)-1].width {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]

		if width > parent.width {
			allowed := parent.width + unitWidth
			if unitWidth == 0 {
				allowed = parent.width + 1
			}
			if parent.width >= 0 && width > allowed {
				errs = append(errs, Error{Msg: "indentation increases by more than one level", Pos: pos})
			}
		}

		text := ""
		if buf != nil {
			text = buf.Line(ln[0].Pos.Line)
		}
		node := &LogicalLine{Tokens: ln, Text: text, Line: ln[0].Pos.Line}
		parent.node.Children = append(parent.node.Children, node)
		stack = append(stack, frame{node: node, width: width})
	}

	return root, errs
}

// splitLines groups a flat token stream into one slice per logical line,
// dropping the terminating NEWLINE/EOF markers and skipping blank lines
// (lines with no tokens before their NEWLINE).
func splitLines(toks []token.Token) [][]token.Token {
	var lines [][]token.Token
	var cur []token.Token
	for _, t := range toks {
		switch t.Type {
		case token.NEWLINE:
			if len(cur) > 0 {
				lines = append(lines, cur)
			}
			cur = nil
		case token.EOF:
			if len(cur) > 0 {
				lines = append(lines, cur)
			}
		default:
			cur = append(cur, t)
		}
	}
	return lines
}

// Dump renders the tree in an indented textual form, for the `vesper lex`
// CLI subcommand and for tests.
func Dump(root *LogicalLine) string {
	var b strings.Builder
	var walk func(n *LogicalLine, depth int)
	walk = func(n *LogicalLine, depth int) {
		if n.Tokens != nil {
			b.WriteString(strings.Repeat("  ", depth-1))
			parts := make([]string, len(n.Tokens))
			for i, t := range n.Tokens {
				if t.Literal != "" && t.Type != token.IDENT {
					parts[i] = fmt.Sprintf("%s(%s)", t.Type, t.Literal)
				} else if t.Type == token.IDENT {
					parts[i] = t.Literal
				} else {
					parts[i] = t.Type.String()
				}
			}
			b.WriteString(strings.Join(parts, " "))
			b.WriteByte('\n')
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return b.String()
}
