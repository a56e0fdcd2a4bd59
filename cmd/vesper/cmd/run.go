package cmd

import (
	"fmt"
	"os"

	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/pkg/vesper"
	"github.com/spf13/cobra"
)

var (
	evalExpr  string
	enableOS  bool
	importDir string
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a Vesper script or expression",
	Long: `Execute a Vesper program from a file or inline expression.

Examples:
  # Run a script file
  vesper run script.vsp

  # Evaluate an inline expression
  vesper run -e "print('Hello, World!')"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&enableOS, "enable-os", false, "enable the os module and filesystem access")
	runCmd.Flags().StringVar(&importDir, "import-path", ".", "directory file-backed imports resolve against")
}

func runScript(_ *cobra.Command, args []string) error {
	input, name, argv, err := readScriptInput(evalExpr, args)
	if err != nil {
		return err
	}

	ctx := vesper.New(
		vesper.WithOSAccess(enableOS),
		vesper.WithImportPath(importDir),
		vesper.WithArgv(argv),
	)
	defer ctx.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Running: %s\n", name)
	}

	_, err = ctx.Exec(input, name)
	if err != nil {
		return reportRuntimeError(ctx, err)
	}
	return nil
}

// readScriptInput resolves the `-e` inline-expression flag and the
// optional file argument into source text, a display name, and the argv
// slice that sys.argv will expose.
func readScriptInput(eval string, args []string) (input, name string, argv []string, err error) {
	if eval != "" {
		return eval, "<eval>", []string{"<eval>"}, nil
	}
	if len(args) >= 1 {
		content, readErr := os.ReadFile(args[0])
		if readErr != nil {
			return "", "", nil, fmt.Errorf("failed to read file %s: %w", args[0], readErr)
		}
		return string(content), args[0], append([]string{args[0]}, args[1:]...), nil
	}
	return "", "", nil, fmt.Errorf("either provide a file path or use -e flag for inline code")
}

// reportRuntimeError prints either a raised script exception's traceback
// (the interpreter's own execution failed mid-program) or a plain
// lex/parse/compile error (the program never started running).
func reportRuntimeError(ctx *vesper.Context, err error) error {
	if exc := ctx.CurrentException(); exc != nil {
		fmt.Fprint(os.Stderr, ctx.FormatTrace())
		fmt.Fprintf(os.Stderr, "%s: %s\n", excName(exc), vesper.ExceptionMessage(exc))
		ctx.ClearException()
		return fmt.Errorf("execution failed")
	}
	return err
}

func excName(exc *heap.Object) string {
	return string(exc.Tag)
}
