package lexer

import "testing"

// FuzzLexer ensures the lexer never panics on arbitrary input: malformed
// source should degrade to best-effort tokens. It pulls a bounded number of
// tokens and stops early at EOF; it does not check that EOF is reached.
func FuzzLexer(f *testing.F) {
	seeds := []string{
		"",
		"   ",
		"\t\n\r",
		"print(1)",
		"def f(x):\n    return x\n",
		"if a:\n    b\nelif c:\n    d\nelse:\n    e\n",
		"for i in range(10):\n    print(i)\n",
		"class A(B):\n    def __init__(self, x):\n        self.x = x\n",
		`f"Hi {name}"`,
		"`template ${x}`",
		"'single'",
		`"double"`,
		`"""triple"""`,
		"'unterminated",
		`"""unterminated`,
		"1_000_000",
		"3.14",
		"1e10",
		"1.5e-3",
		"0.5",
		"x // y",
		"x ** y",
		"a and b or not c is d",
		"lambda x: x + 1",
		"@staticmethod\ndef f(): pass\n",
		"try:\n    f()\nexcept Exception as e:\n    print(e)\n",
		"with open(x) as f:\n    pass\n",
		"from a import b, c\n",
		"import a as b\n",
		"\t\tmixed\n    tabs\n",
		"café naïve こんにちは",
		"x = 1 # comment\n# full line\ny = 2\n",
		"+-*/%=<>!&|^~",
		"(){}[].,;:?@",
		"===, !==, **=, //=, >>>, <<=, >>=",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("lexer panicked on input %q: %v", data, r)
			}
		}()

		l := New(data)
		for i := 0; i < len(data)+100; i++ {
			tok := l.Next()
			if tok.Kind == EOF {
				break
			}
		}
	})
}
