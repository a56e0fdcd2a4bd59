package compiler

import (
	"fmt"
	"strings"

	"github.com/ochom/vesper/internal/lexer"
	"github.com/ochom/vesper/internal/parser"
	"github.com/ochom/vesper/internal/source"
)

// Compile runs the full lex -> parse -> compile pipeline over src and
// returns the resulting top-level Code object named name. mode "eval"
// parses src as a single expression wrapped in an implicit return; "exec"
// or any other value parses src as a sequence of statements.
func Compile(src, name, mode string) (*Code, error) {
	buf := source.NewFromString(name, src)
	toks, lexErrs := lexer.Tokenize(buf.Text)
	if len(lexErrs) > 0 {
		return nil, stageError("lex", toErrors(lexErrs))
	}
	root, treeErrs := lexer.BuildTree(toks, buf)
	if len(treeErrs) > 0 {
		return nil, stageError("lex", toErrors(treeErrs))
	}

	if mode == "eval" {
		if len(root.Children) != 1 {
			return nil, fmt.Errorf(`compile: mode "eval" requires exactly one expression`)
		}
		expr, perrs := parser.ParseExpr(root.Children[0])
		if len(perrs) > 0 {
			return nil, stageError("parse", toErrors(perrs))
		}
		code, cerrs := CompileExpr(expr, name)
		if len(cerrs) > 0 {
			return nil, stageError("compile", toErrors(cerrs))
		}
		return code, nil
	}

	mod, perrs := parser.ParseModule(root, name)
	if len(perrs) > 0 {
		return nil, stageError("parse", toErrors(perrs))
	}
	code, cerrs := CompileModule(mod)
	if len(cerrs) > 0 {
		return nil, stageError("compile", toErrors(cerrs))
	}
	return code, nil
}

func toErrors[E error](errs []E) []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

func stageError(stage string, errs []error) error {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return fmt.Errorf("%s error: %s", stage, strings.Join(parts, "; "))
}
