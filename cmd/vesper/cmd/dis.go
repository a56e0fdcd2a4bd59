package cmd

import (
	"fmt"
	"os"

	"github.com/ochom/vesper/internal/compiler"
	"github.com/spf13/cobra"
)

var (
	disEval string
	disMode string
)

var disCmd = &cobra.Command{
	Use:   "dis [file]",
	Short: "Compile a Vesper file or expression and print disassembled bytecode",
	Long: `Compile Vesper source code and print its disassembled bytecode,
exercising the same compiler.Disassembler the dis native module uses.

Examples:
  # Disassemble a script file
  vesper dis script.vsp

  # Disassemble an inline expression
  vesper dis --mode eval -e "1 + 2"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDis,
}

func init() {
	rootCmd.AddCommand(disCmd)
	disCmd.Flags().StringVarP(&disEval, "eval", "e", "", "disassemble inline code instead of reading from file")
	disCmd.Flags().StringVar(&disMode, "mode", "exec", `compile mode: "exec" or "eval"`)
}

func runDis(_ *cobra.Command, args []string) error {
	input, name, _, err := readScriptInput(disEval, args)
	if err != nil {
		return err
	}

	code, err := compiler.Compile(input, name, disMode)
	if err != nil {
		return err
	}

	compiler.NewDisassembler(os.Stdout).Disassemble(code)
	return nil
}
