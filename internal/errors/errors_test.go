package errors

import (
	"strings"
	"testing"

	"github.com/reticulated/retic/internal/token"
)

func TestFormatWithSourceContext(t *testing.T) {
	source := "x: int = 1\ny: int =\nz: int = 3"
	err := NewCompilerError(token.Position{Line: 1, Column: 8, Offset: 19},
		"expected expression", source, "test.ret")

	formatted := err.Format(false)

	if !strings.Contains(formatted, "Error in test.ret:2:9") {
		t.Errorf("missing one-based file position header:\n%s", formatted)
	}
	if !strings.Contains(formatted, "y: int =") {
		t.Errorf("missing source line:\n%s", formatted)
	}
	if !strings.Contains(formatted, "^") {
		t.Errorf("missing caret:\n%s", formatted)
	}
	if !strings.Contains(formatted, "expected expression") {
		t.Errorf("missing message:\n%s", formatted)
	}
}

func TestFormatWithoutFile(t *testing.T) {
	err := NewCompilerError(token.Position{Line: 0, Column: 0}, "bad token", "oops", "")
	formatted := err.Format(false)
	if !strings.Contains(formatted, "Error at line 1:1") {
		t.Errorf("missing position header:\n%s", formatted)
	}
}

func TestCaretAlignment(t *testing.T) {
	source := "return @"
	err := NewCompilerError(token.Position{Line: 0, Column: 7, Offset: 7},
		"unexpected operator", source, "")

	lines := strings.Split(err.Format(false), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected at least 3 lines, got %d", len(lines))
	}
	caretLine := lines[2]
	caretCol := strings.Index(caretLine, "^")
	sourceCol := strings.Index(lines[1], "@")
	if caretCol != sourceCol {
		t.Errorf("caret at column %d, token at column %d:\n%s",
			caretCol, sourceCol, err.Format(false))
	}
}

func TestFormatErrorsJoinsWithBlankLines(t *testing.T) {
	errs := []*CompilerError{
		NewCompilerError(token.Position{}, "first", "", ""),
		NewCompilerError(token.Position{}, "second", "", ""),
	}
	joined := FormatErrors(errs, false)
	if !strings.Contains(joined, "first") || !strings.Contains(joined, "second") {
		t.Errorf("messages missing:\n%s", joined)
	}
	if strings.Count(joined, "Error at") != 2 {
		t.Errorf("expected two error headers:\n%s", joined)
	}
}

func TestColorOutputContainsANSICodes(t *testing.T) {
	err := NewCompilerError(token.Position{}, "msg", "src", "")
	if !strings.Contains(err.Format(true), "\033[") {
		t.Errorf("color output should contain ANSI escapes")
	}
}
