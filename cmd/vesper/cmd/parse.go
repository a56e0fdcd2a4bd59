package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ochom/vesper/internal/ast"
	"github.com/ochom/vesper/internal/diag"
	"github.com/ochom/vesper/internal/lexer"
	"github.com/ochom/vesper/internal/parser"
	"github.com/ochom/vesper/internal/source"
	"github.com/spf13/cobra"
)

var parseEval string

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a Vesper file or expression and display the AST",
	Long: `Parse Vesper source code and display its Abstract Syntax Tree.

If no file is provided, reads from stdin. Use -e to parse a single
expression from the command line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseEval, "eval", "e", "", "parse an expression from the command line")
}

func runParse(_ *cobra.Command, args []string) error {
	var input, name string
	switch {
	case parseEval != "":
		input, name = parseEval, "<eval>"
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("error reading file: %w", err)
		}
		input, name = string(data), args[0]
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("error reading stdin: %w", err)
		}
		input, name = string(data), "<stdin>"
	}

	buf := source.NewFromString(name, input)
	toks, lexErrs := lexer.Tokenize(buf.Text)
	if len(lexErrs) > 0 {
		fmt.Fprint(os.Stderr, diag.FormatAll(lexDiagnostics(name, input, lexErrs)))
		return fmt.Errorf("lexing failed with %d error(s)", len(lexErrs))
	}
	root, treeErrs := lexer.BuildTree(toks, buf)
	if len(treeErrs) > 0 {
		fmt.Fprint(os.Stderr, diag.FormatAll(lexDiagnostics(name, input, treeErrs)))
		return fmt.Errorf("lexing failed with %d error(s)", len(treeErrs))
	}

	mod, perrs := parser.ParseModule(root, name)
	if len(perrs) > 0 {
		diags := make([]diag.Diagnostic, len(perrs))
		for i, e := range perrs {
			diags[i] = diag.New(name, input, e.Msg, e.Pos)
		}
		fmt.Fprint(os.Stderr, diag.FormatAll(diags))
		return fmt.Errorf("parsing failed with %d error(s)", len(perrs))
	}

	fmt.Printf("Module %s (%d statements)\n", mod.Name, len(mod.Body))
	for _, stmt := range mod.Body {
		dumpNode(stmt, 1)
	}
	return nil
}

// dumpNode renders one AST node and its children, covering the common
// statement and expression kinds directly and falling back to a generic
// %#v rendering for the long tail of node kinds.
func dumpNode(node any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case *ast.ExprStmt:
		fmt.Printf("%sExprStmt\n", indent)
		dumpNode(n.X, depth+1)
	case *ast.AssignStmt:
		fmt.Printf("%sAssignStmt\n", indent)
		dumpNode(n.Target, depth+1)
		dumpNode(n.Value, depth+1)
	case *ast.IfStmt:
		fmt.Printf("%sIfStmt\n", indent)
		dumpNode(n.Cond, depth+1)
		for _, s := range n.Then.Stmts {
			dumpNode(s, depth+1)
		}
		for _, s := range n.Else.Stmts {
			dumpNode(s, depth+1)
		}
	case *ast.WhileStmt:
		fmt.Printf("%sWhileStmt\n", indent)
		dumpNode(n.Cond, depth+1)
		for _, s := range n.Body.Stmts {
			dumpNode(s, depth+1)
		}
	case *ast.FunctionDef:
		fmt.Printf("%sFunctionDef %s\n", indent, n.Name)
		for _, s := range n.Body.Stmts {
			dumpNode(s, depth+1)
		}
	case *ast.ClassDef:
		fmt.Printf("%sClassDef %s\n", indent, n.Name)
		for _, s := range n.Body.Stmts {
			dumpNode(s, depth+1)
		}
	case *ast.ReturnStmt:
		fmt.Printf("%sReturnStmt\n", indent)
		if n.Value != nil {
			dumpNode(n.Value, depth+1)
		}
	case *ast.BinaryExpr:
		fmt.Printf("%sBinaryExpr (%s)\n", indent, n.Op)
		dumpNode(n.Left, depth+1)
		dumpNode(n.Right, depth+1)
	case *ast.UnaryExpr:
		fmt.Printf("%sUnaryExpr (%s)\n", indent, n.Op)
		dumpNode(n.X, depth+1)
	case *ast.CallExpr:
		fmt.Printf("%sCallExpr\n", indent)
		dumpNode(n.Func, depth+1)
		for _, a := range n.Args {
			dumpNode(a, depth+1)
		}
	case *ast.Ident:
		fmt.Printf("%sIdent: %s\n", indent, n.Name)
	case *ast.IntLit:
		fmt.Printf("%sIntLit: %d\n", indent, n.Value)
	case *ast.FloatLit:
		fmt.Printf("%sFloatLit: %g\n", indent, n.Value)
	case *ast.StringLit:
		fmt.Printf("%sStringLit: %q\n", indent, n.Value)
	case *ast.BoolLit:
		fmt.Printf("%sBoolLit: %v\n", indent, n.Value)
	case *ast.NoneLit:
		fmt.Printf("%sNoneLit\n", indent)
	default:
		fmt.Printf("%s%T: %#v\n", indent, node, node)
	}
}
