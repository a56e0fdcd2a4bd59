// Package source owns the raw program text handed to the lexer: it strips a
// UTF-8 BOM, normalizes line endings, normalizes identifiers to NFC so
// visually identical source compares equal, and keeps the original
// per-line text around for diagnostics.
package source

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Buffer is the normalized form of one source document.
type Buffer struct {
	Name  string // display name, e.g. a filename or "<eval>"
	Text  string // normalized full text, '\n'-delimited
	Lines []string
}

// New normalizes raw program text into a Buffer.
//
// Line endings are normalized to '\n' and the text is put in Unicode
// Normalization Form C, so an identifier typed with a precomposed
// character and one typed with a combining sequence refer to the same
// name. A leading UTF-8 BOM is stripped first.
func New(name string, raw []byte) *Buffer {
	raw = stripBOM(raw)
	text := string(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = norm.NFC.String(text)

	return &Buffer{
		Name:  name,
		Text:  text,
		Lines: strings.Split(text, "\n"),
	}
}

// NewFromString is a convenience wrapper around New for in-memory source,
// e.g. host-supplied eval strings.
func NewFromString(name, text string) *Buffer {
	return New(name, []byte(text))
}

// Line returns the original (pre-lex) text of the given 1-based line
// number, or "" if out of range. Used to build trace-frame diagnostics.
func (b *Buffer) Line(n int) string {
	if n < 1 || n > len(b.Lines) {
		return ""
	}
	return b.Lines[n-1]
}

func stripBOM(raw []byte) []byte {
	if len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF {
		return raw[3:]
	}
	return raw
}

// DecodeUTF8BestEffort transcodes raw bytes that might carry a UTF-16 or
// UTF-8 BOM (as produced by some host filesystems) into clean UTF-8. Used
// by the module loader when reading files from the import path; in-memory
// eval strings are assumed to already be UTF-8 and skip this step.
func DecodeUTF8BestEffort(raw []byte) ([]byte, error) {
	if len(raw) >= 2 && ((raw[0] == 0xFF && raw[1] == 0xFE) || (raw[0] == 0xFE && raw[1] == 0xFF)) {
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, raw)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return stripBOM(raw), nil
}
