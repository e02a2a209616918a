package parser

import "testing"

// FuzzParse ensures the parser never panics on arbitrary input. Parse
// failures are expected and fine; panics are not.
func FuzzParse(f *testing.F) {
	seeds := []string{
		"",
		"\n\n\n",
		"print(1)\n",
		"def f(x):\n    return x\n",
		"def f(x, y=1, *args, **kwargs):\n    pass\n",
		"class A(B):\n    def __init__(self, x):\n        self.x = x\n",
		"if a:\n    b\nelif c:\n    d\nelse:\n    e\n",
		"for i in range(10):\n    print(i)\n",
		"while x:\n    x = x - 1\n",
		"try:\n    f()\nexcept Exception as e:\n    print(e)\nfinally:\n    g()\n",
		"with open(x) as f:\n    pass\n",
		"import a, b as c\n",
		"from a import b, c\n",
		"from a import *\n",
		"lambda x: x + 1\n",
		"del x\n",
		"global x, y\n",
		"yield x\n",
		"raise Err()\n",
		"assert x, \"msg\"\n",
		"@staticmethod\ndef f():\n    pass\n",
		"async def f():\n    await g()\n",
		"x // y\n",
		"x ** y\n",
		"(\n",
		")\n",
		"def\n",
		"class\n",
		"if:\n",
		":\n",
		",\n",
		"def f(:\n",
		"for in:\n",
		"try\nexcept\n",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Parse panicked on input %q: %v", data, r)
			}
		}()
		_, _ = Parse(data)
	})
}
