package parser

import (
	"testing"

	"github.com/indentscript/isc/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): unexpected error: %v", src, err)
	}
	return prog
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := mustParse(t, "def greet(name):\n    print(name)\n")
	if len(prog.Body) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Body))
	}
	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("got %T, want *ast.FunctionDeclaration", prog.Body[0])
	}
	if fn.Name != "greet" {
		t.Errorf("name = %q, want greet", fn.Name)
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "name" {
		t.Errorf("params = %+v", fn.Params)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("body has %d statements, want 1", len(fn.Body))
	}
}

func TestParseClassWithConstructor(t *testing.T) {
	src := "class A:\n    def __init__(self, x):\n        self.x = x\n    def get(self):\n        return self.x\n"
	prog := mustParse(t, src)
	class, ok := prog.Body[0].(*ast.ClassDeclaration)
	if !ok {
		t.Fatalf("got %T, want *ast.ClassDeclaration", prog.Body[0])
	}
	if class.Name != "A" {
		t.Errorf("name = %q", class.Name)
	}
	if len(class.Methods) != 2 {
		t.Fatalf("got %d methods, want 2", len(class.Methods))
	}
	if class.Methods[0].Name != "__init__" {
		t.Errorf("first method = %q, want __init__", class.Methods[0].Name)
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := "if a:\n    x\nelif b:\n    y\nelse:\n    z\n"
	prog := mustParse(t, src)
	ifs, ok := prog.Body[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.IfStatement", prog.Body[0])
	}
	if ifs.AlternateIf == nil {
		t.Fatal("expected elif chain, got nil AlternateIf")
	}
	if ifs.AlternateIf.AlternateBlock == nil {
		t.Fatal("expected else block on nested elif")
	}
}

func TestParseForInLoop(t *testing.T) {
	prog := mustParse(t, "for i in range(3):\n    print(i)\n")
	loop, ok := prog.Body[0].(*ast.ForInLoop)
	if !ok {
		t.Fatalf("got %T, want *ast.ForInLoop", prog.Body[0])
	}
	if len(loop.Variables) != 1 || loop.Variables[0] != "i" {
		t.Errorf("variables = %v", loop.Variables)
	}
}

func TestParseTryExceptFinally(t *testing.T) {
	src := "try:\n    f()\nexcept Exception as e:\n    print(e)\nfinally:\n    cleanup()\n"
	prog := mustParse(t, src)
	tr, ok := prog.Body[0].(*ast.TryStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.TryStatement", prog.Body[0])
	}
	if len(tr.Handlers) != 1 {
		t.Fatalf("got %d handlers, want 1", len(tr.Handlers))
	}
	if tr.Handlers[0].ErrorType != "Exception" || tr.Handlers[0].ErrorName != "e" {
		t.Errorf("handler = %+v", tr.Handlers[0])
	}
	if tr.FinallyBlock == nil {
		t.Fatal("expected finally block")
	}
}

func TestParseFloorDivisionExpression(t *testing.T) {
	prog := mustParse(t, "y = 7 // 2\n")
	stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("got %T", prog.Body[0])
	}
	found := false
	for _, tok := range stmt.Expression.Tokens {
		if tok.Value == "//" {
			found = true
		}
	}
	if !found {
		t.Error("expected // operator token in expression")
	}
}

func TestParseDecoratedMethod(t *testing.T) {
	src := "class A:\n    @staticmethod\n    def helper():\n        pass\n"
	prog := mustParse(t, src)
	class := prog.Body[0].(*ast.ClassDeclaration)
	if len(class.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(class.Methods))
	}
	if len(class.Methods[0].Decorators) != 1 || class.Methods[0].Decorators[0].Name != "staticmethod" {
		t.Errorf("decorators = %+v", class.Methods[0].Decorators)
	}
}

func TestParseFromImportStar(t *testing.T) {
	prog := mustParse(t, "from pkg import *\n")
	imp, ok := prog.Body[0].(*ast.FromImportStatement)
	if !ok {
		t.Fatalf("got %T", prog.Body[0])
	}
	if !imp.Star || imp.Module != "pkg" {
		t.Errorf("import = %+v", imp)
	}
}

func TestParseFailureHasPosition(t *testing.T) {
	_, err := Parse("def (x):\n    pass\n")
	if err == nil {
		t.Fatal("expected a ParseFailure, got nil")
	}
	pf, ok := err.(*ParseFailure)
	if !ok {
		t.Fatalf("got %T, want *ParseFailure", err)
	}
	if pf.Line == 0 {
		t.Error("expected a non-zero line number")
	}
}
