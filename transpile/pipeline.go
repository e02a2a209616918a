// Package transpile wires the lexer, parser, and generator into the single
// source-to-source operation the rest of the module exposes.
package transpile

import (
	"fmt"

	"github.com/indentscript/isc/generator"
	"github.com/indentscript/isc/parser"
)

// Transpile lexes, parses, and generates ECMAScript text for source. A
// parse failure is returned as a plain error formatted for a terminal or
// editor, not as a *parser.ParseFailure — callers that need the structured
// form should call parser.Parse directly.
func Transpile(source string) (string, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return "", formatError(err)
	}
	return generator.Generate(prog), nil
}

func formatError(err error) error {
	if pf, ok := err.(*parser.ParseFailure); ok {
		return fmt.Errorf("IndentScript Error at line %d: %s", pf.Line, pf.Error())
	}
	return fmt.Errorf("IndentScript Error: %w", err)
}
