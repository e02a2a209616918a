package transpile

import (
	"strings"
	"testing"
)

func TestTranspileHello(t *testing.T) {
	out, err := Transpile("print(\"hello\")\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `console.log("hello");`) {
		t.Errorf("got %q", out)
	}
}

func TestTranspileReportsParseFailure(t *testing.T) {
	_, err := Transpile("def (x):\n    pass\n")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.HasPrefix(err.Error(), "IndentScript Error at line") {
		t.Errorf("got %q, want prefix %q", err.Error(), "IndentScript Error at line")
	}
}

func TestTranspileClassRoundTrip(t *testing.T) {
	src := "class Greeter:\n    def __init__(self, name):\n        self.name = name\n    def greet(self):\n        return f\"Hi {self.name}\"\n"
	out, err := Transpile(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"class Greeter {", "constructor(name) {", "this.name = name;", "greet() {"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}
