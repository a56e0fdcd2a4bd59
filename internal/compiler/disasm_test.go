package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestDisassembleFixtures snapshots the disassembly of a handful of small
// programs covering the common instruction shapes (constants, branches,
// nested functions), the same go-snaps pattern used for the fixture suite
// this compiler was developed against.
func TestDisassembleFixtures(t *testing.T) {
	fixtures := []struct {
		name string
		src  string
		mode string
	}{
		{"arithmetic", "1 + 2 * 3", "eval"},
		{"branch", "if x > 0:\n    y = 1\nelse:\n    y = -1\n", "exec"},
		{"loop", "total = 0\nfor i in range(3):\n    total += i\n", "exec"},
		{"function", "def add(a, b):\n    return a + b\n", "exec"},
	}

	for _, f := range fixtures {
		code, err := Compile(f.src, f.name, f.mode)
		if err != nil {
			t.Fatalf("Compile(%s): %v", f.name, err)
		}
		var buf strings.Builder
		NewDisassembler(&buf).Disassemble(code)
		snaps.MatchSnapshot(t, fmt.Sprintf("%s_disasm", f.name), buf.String())
	}
}
