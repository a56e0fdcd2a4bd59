// Command vesper is the CLI front door for the interpreter: run scripts,
// inspect the lexer's logical-line tree, dump the parsed AST, disassemble
// compiled bytecode, and print version information.
package main

import "github.com/ochom/vesper/cmd/vesper/cmd"

func main() {
	cmd.Execute()
}
