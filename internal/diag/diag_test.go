package diag

import (
	"strings"
	"testing"

	"github.com/ochom/vesper/internal/token"
)

func TestFormatIncludesCaretUnderColumn(t *testing.T) {
	d := New("script.vsp", "x = 1 +\n", "unexpected end of expression", token.Position{Line: 1, Column: 8})
	out := d.Format()

	if !strings.Contains(out, "script.vsp:1:8:") {
		t.Fatalf("missing position header: %q", out)
	}
	if !strings.Contains(out, "x = 1 +") {
		t.Fatalf("missing source line: %q", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	caret := lines[len(lines)-1]
	if strings.TrimLeft(caret, " ") != "^" {
		t.Fatalf("last line = %q, want a caret", caret)
	}
	if idx := strings.IndexByte(caret, '^'); idx != len("   1 | ")+7 {
		t.Fatalf("caret at column %d, want %d", idx, len("   1 | ")+7)
	}
}

func TestFormatWithoutFileOmitsFilename(t *testing.T) {
	d := New("", "", "bad token", token.Position{Line: 2, Column: 3})
	out := d.Format()
	if !strings.HasPrefix(out, "2:3: bad token") {
		t.Fatalf("out = %q", out)
	}
}

func TestFormatAllSingle(t *testing.T) {
	d := New("f.vsp", "x", "oops", token.Position{Line: 1, Column: 1})
	if FormatAll([]Diagnostic{d}) != d.Format() {
		t.Fatal("FormatAll of one diagnostic should equal its own Format")
	}
}

func TestFormatAllMultiplePrefixesCount(t *testing.T) {
	a := New("f.vsp", "x", "first", token.Position{Line: 1, Column: 1})
	b := New("f.vsp", "x", "second", token.Position{Line: 2, Column: 1})
	out := FormatAll([]Diagnostic{a, b})
	if !strings.HasPrefix(out, "2 error(s):") {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Fatalf("out missing a message: %q", out)
	}
}

func TestFormatAllEmpty(t *testing.T) {
	if got := FormatAll(nil); got != "" {
		t.Fatalf("FormatAll(nil) = %q, want empty", got)
	}
}
