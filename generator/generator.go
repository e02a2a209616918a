// Package generator translates a statement tree into ECMAScript source
// text. Statement emission is a direct structural mapping; expression
// emission walks the opaque token run left behind by the parser and
// applies a fixed table of lexical rewrites. The generator never fails:
// an unrecognized node kind simply emits nothing.
package generator

import (
	"strings"

	"github.com/indentscript/isc/ast"
	"github.com/indentscript/isc/lexer"
)

// Generator accumulates emitted text and tracks the current indent depth.
type Generator struct {
	sb     strings.Builder
	indent int
}

// New creates an empty Generator.
func New() *Generator {
	return &Generator{}
}

// Generate renders prog as ECMAScript source text.
func Generate(prog *ast.Program) string {
	g := New()
	g.emitStatements(prog.Body)
	return strings.TrimSpace(g.sb.String())
}

func (g *Generator) writeLine(s string) {
	g.sb.WriteString(strings.Repeat("  ", g.indent))
	g.sb.WriteString(s)
	g.sb.WriteString("\n")
}

func (g *Generator) emitStatements(stmts []ast.Stmt) {
	for _, s := range stmts {
		g.emitStmt(s)
	}
}

func (g *Generator) emitBlock(stmts []ast.Stmt) {
	g.indent++
	g.emitStatements(stmts)
	g.indent--
}

func (g *Generator) emitStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.FunctionDeclaration:
		g.emitFunctionDeclaration(n)
	case *ast.ClassDeclaration:
		g.emitClassDeclaration(n)
	case *ast.ForInLoop:
		g.emitForInLoop(n)
	case *ast.IfStatement:
		g.emitIfStatement(n)
	case *ast.WhileLoop:
		g.writeLine("while (" + g.expr(n.Condition) + ") {")
		g.emitBlock(n.Body)
		g.writeLine("}")
	case *ast.TryStatement:
		g.emitTryStatement(n)
	case *ast.WithStatement:
		g.emitWithStatement(n)
	case *ast.ReturnStatement:
		if n.Value == nil {
			g.writeLine("return;")
		} else {
			g.writeLine("return " + g.expr(n.Value) + ";")
		}
	case *ast.RaiseStatement:
		g.writeLine("throw " + g.expr(n.Error) + ";")
	case *ast.AssertStatement:
		msg := `"Assertion failed"`
		if n.Message != nil {
			msg = g.expr(n.Message)
		}
		g.writeLine("if (!(" + g.expr(n.Condition) + ")) throw new Error(" + msg + ");")
	case *ast.PrintStatement:
		var args []string
		for _, a := range n.Arguments {
			args = append(args, g.expr(a))
		}
		g.writeLine("console.log(" + strings.Join(args, ", ") + ");")
	case *ast.ImportStatement:
		for _, m := range n.Modules {
			if m.Alias != "" {
				g.writeLine("import * as " + m.Alias + " from '" + m.Path + "';")
			} else {
				g.writeLine("import " + m.Path + " from '" + m.Path + "';")
			}
		}
	case *ast.FromImportStatement:
		if n.Star {
			g.writeLine("import * from '" + n.Module + "';")
			return
		}
		var names []string
		for _, imp := range n.Imports {
			if imp.Alias != "" {
				names = append(names, imp.Name+" as "+imp.Alias)
			} else {
				names = append(names, imp.Name)
			}
		}
		g.writeLine("import { " + strings.Join(names, ", ") + " } from '" + n.Module + "';")
	case *ast.BreakStatement:
		g.writeLine("break;")
	case *ast.ContinueStatement:
		g.writeLine("continue;")
	case *ast.DeleteStatement:
		g.writeLine("delete " + g.expr(n.Target) + ";")
	case *ast.PassStatement, *ast.GlobalStatement:
		// emit nothing
	case *ast.LambdaExpression:
		g.writeLine("(" + strings.Join(n.Params, ", ") + ") => " + g.expr(n.Body) + ";")
	case *ast.AwaitExpression:
		g.writeLine("await " + g.expr(n.Expression) + ";")
	case *ast.YieldExpression:
		if n.Value == nil {
			g.writeLine("yield;")
		} else {
			g.writeLine("yield " + g.expr(n.Value) + ";")
		}
	case *ast.ExpressionStatement:
		g.writeLine(g.expr(n.Expression) + ";")
	}
}

func (g *Generator) emitParams(params []ast.Parameter, dropSelf bool) string {
	var parts []string
	for i, p := range params {
		if dropSelf && i == 0 && p.Name == "self" {
			continue
		}
		piece := p.Name
		switch p.Spread {
		case "array", "dict":
			piece = "..." + p.Name
		}
		if p.DefaultValue != nil {
			piece += " = " + g.expr(p.DefaultValue)
		}
		parts = append(parts, piece)
	}
	return strings.Join(parts, ", ")
}

func (g *Generator) emitFunctionDeclaration(n *ast.FunctionDeclaration) {
	prefix := ""
	if n.IsAsync {
		prefix = "async "
	}
	g.writeLine(prefix + "function " + n.Name + "(" + g.emitParams(n.Params, false) + ") {")
	g.emitBlock(n.Body)
	g.writeLine("}")
}

func (g *Generator) emitClassDeclaration(n *ast.ClassDeclaration) {
	header := "class " + n.Name
	if n.SuperClass != "" {
		header += " extends " + n.SuperClass
	}
	g.writeLine(header + " {")
	g.indent++
	for _, prop := range n.Properties {
		g.emitStmt(prop)
	}
	for _, m := range n.Methods {
		g.emitMethodDeclaration(m)
	}
	g.indent--
	g.writeLine("}")
}

func (g *Generator) emitMethodDeclaration(m *ast.MethodDeclaration) {
	name := m.Name
	prefix := ""
	if name == "__init__" {
		name = "constructor"
	}
	for _, d := range m.Decorators {
		switch d.Name {
		case "staticmethod":
			prefix = "static " + prefix
		case "property":
			prefix += "get "
		}
	}
	async := ""
	if m.IsAsync {
		async = "async "
	}
	g.writeLine(async + prefix + name + "(" + g.emitParams(m.Params, true) + ") {")
	g.emitBlock(m.Body)
	g.writeLine("}")
}

func (g *Generator) emitForInLoop(n *ast.ForInLoop) {
	var target string
	if len(n.Variables) == 1 {
		target = n.Variables[0]
	} else {
		target = "[" + strings.Join(n.Variables, ", ") + "]"
	}
	g.writeLine("for (const " + target + " of " + g.expr(n.Iterable) + ") {")
	g.emitBlock(n.Body)
	g.writeLine("}")
}

func (g *Generator) emitIfStatement(n *ast.IfStatement) {
	g.writeLine("if (" + g.expr(n.Condition) + ") {")
	g.emitBlock(n.Consequent)
	g.emitIfTail(n)
}

func (g *Generator) emitIfTail(n *ast.IfStatement) {
	switch {
	case n.AlternateIf != nil:
		g.writeLine("} else if (" + g.expr(n.AlternateIf.Condition) + ") {")
		g.emitBlock(n.AlternateIf.Consequent)
		g.emitIfTail(n.AlternateIf)
	case n.AlternateBlock != nil:
		g.writeLine("} else {")
		g.emitBlock(n.AlternateBlock)
		g.writeLine("}")
	default:
		g.writeLine("}")
	}
}

func (g *Generator) emitTryStatement(n *ast.TryStatement) {
	g.writeLine("try {")
	g.emitBlock(n.TryBlock)
	for _, h := range n.Handlers {
		name := h.ErrorName
		if name == "" {
			name = "error"
		}
		g.writeLine("} catch (" + name + ") {")
		g.emitBlock(h.Body)
	}
	if n.FinallyBlock != nil {
		g.writeLine("} finally {")
		g.emitBlock(n.FinallyBlock)
	}
	g.writeLine("}")
}

func (g *Generator) emitWithStatement(n *ast.WithStatement) {
	alias := n.Alias
	if alias == "" {
		alias = "ctx"
	}
	g.writeLine("{")
	g.indent++
	g.writeLine("const " + alias + " = " + g.expr(n.Context) + ";")
	g.emitStatements(n.Body)
	g.indent--
	g.writeLine("}")
}

// expr renders an opaque Expression as target text.
func (g *Generator) expr(e *ast.Expression) string {
	if e == nil {
		return ""
	}
	return emitTokens(e.Tokens)
}

var memberRewrites = map[string]string{
	"append": "push", "extend": "push",
	"upper": "toUpperCase", "lower": "toLowerCase",
	"strip": "trim", "lstrip": "trimStart", "rstrip": "trimEnd",
	"startswith": "startsWith", "endswith": "endsWith",
	"find": "indexOf", "index": "indexOf",
	"items": "entries",
}

var keywordRewrites = map[string]string{
	"None": "null", "True": "true", "False": "false",
	"and": "&&", "or": "||", "is": "===",
}

// emitTokens walks a flat token run and applies the idiom rewrite table,
// recursing for the argument lists of len/range/enumerate and for the
// greedy tail consumed by // and lambda. Rendered pieces are kept as a
// slice rather than joined immediately, since // needs to pull back only
// its immediate left operand, not everything emitted so far.
func emitTokens(toks []lexer.Token) string {
	var out []string
	i := 0
	for i < len(toks) {
		t := toks[i]

		if t.Kind == lexer.Keyword && t.Value == "lambda" {
			out = append(out, emitLambdaTail(toks[i+1:]))
			return joinPieces(out)
		}

		if t.Kind == lexer.Operator && t.Value == "//" {
			// The left operand is the last rendered piece, extended back over
			// member accesses and over a bracketed group together with its callee.
			k := len(out) - 1
			for depth := 0; k > 0; k-- {
				switch out[k] {
				case ")", "]", "}":
					depth++
				case "(", "[", "{":
					depth--
				}
				prev := out[k-1]
				c := prev[len(prev)-1]
				callee := c == ')' || c == ']' || c == '_' || c == '$' || (c >= '0' && c <= '9') || (c|0x20 >= 'a' && c|0x20 <= 'z')
				if depth > 0 || strings.HasPrefix(out[k], ".") || (depth == 0 && (out[k] == "(" || out[k] == "[") && callee) {
					continue
				}
				break
			}
			prefix, lhs := "", ""
			if k >= 0 {
				prefix, lhs = joinPieces(out[:k]), joinPieces(out[k:])
			}
			rhs := emitTokens(toks[i+1:])
			floor := "Math.floor(" + lhs + " / " + rhs + ")"
			if prefix == "" {
				return floor
			}
			return prefix + " " + floor
		}

		if (t.Kind == lexer.Identifier || t.Kind == lexer.Keyword) && isBuiltinCall(t.Value) && i+1 < len(toks) && isBracket(toks[i+1], "(") {
			end := matchBracket(toks, i+1)
			args := splitTopLevelCommas(toks[i+2 : end])
			out = append(out, emitBuiltinCall(t.Value, args))
			i = end + 1
			continue
		}

		if t.Kind == lexer.Punctuation && t.Value == "." && i+1 < len(toks) && toks[i+1].Kind == lexer.Identifier {
			name := toks[i+1].Value
			if rewritten, ok := memberRewrites[name]; ok {
				name = rewritten
			}
			out = append(out, "."+name)
			i += 2
			continue
		}

		out = append(out, renderToken(t))
		i++
	}
	return joinPieces(out)
}

// joinPieces concatenates rendered pieces using the same boundary spacing
// rule as writePiece.
func joinPieces(pieces []string) string {
	var sb strings.Builder
	for _, p := range pieces {
		writePiece(&sb, p)
	}
	return sb.String()
}

func isBuiltinCall(name string) bool {
	return name == "len" || name == "range" || name == "enumerate"
}

func emitBuiltinCall(name string, args [][]lexer.Token) string {
	rendered := make([]string, len(args))
	for i, a := range args {
		rendered[i] = emitTokens(a)
	}
	switch name {
	case "len":
		if len(rendered) == 1 {
			return rendered[0] + ".length"
		}
	case "range":
		switch len(rendered) {
		case 1:
			return "Array.from({length: " + rendered[0] + "}, (_, i) => i)"
		case 2:
			return "Array.from({length: " + rendered[1] + " - " + rendered[0] + "}, (_, i) => i + " + rendered[0] + ")"
		case 3:
			return "Array.from({length: Math.ceil((" + rendered[1] + " - " + rendered[0] + ") / " + rendered[2] + ")}, (_, i) => " + rendered[0] + " + i * " + rendered[2] + ")"
		}
	case "enumerate":
		if len(rendered) == 1 {
			return rendered[0] + ".map((item, index) => [index, item])"
		}
	}
	return name + "(" + strings.Join(rendered, ", ") + ")"
}

// emitLambdaTail splits the remaining tokens of an in-expression lambda at
// the first ':': identifiers before form the parameter list, everything
// after is the body. Emission ends here; nested lambdas are not supported.
func emitLambdaTail(rest []lexer.Token) string {
	var params []string
	idx := 0
	for idx < len(rest) {
		if rest[idx].Kind == lexer.Punctuation && rest[idx].Value == ":" {
			break
		}
		if rest[idx].Kind == lexer.Identifier {
			params = append(params, rest[idx].Value)
		}
		idx++
	}
	body := ""
	if idx+1 <= len(rest) {
		body = emitTokens(rest[idx+1:])
	}
	return "(" + strings.Join(params, ", ") + ") => " + body
}

func isBracket(t lexer.Token, val string) bool {
	return t.Kind == lexer.Bracket && t.Value == val
}

func matchBracket(toks []lexer.Token, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(toks); i++ {
		switch toks[i].Value {
		case "(", "[", "{":
			if toks[i].Kind == lexer.Bracket {
				depth++
			}
		case ")", "]", "}":
			if toks[i].Kind == lexer.Bracket {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return len(toks)
}

func splitTopLevelCommas(toks []lexer.Token) [][]lexer.Token {
	if len(toks) == 0 {
		return nil
	}
	var groups [][]lexer.Token
	depth := 0
	start := 0
	for i, t := range toks {
		if t.Kind == lexer.Bracket {
			switch t.Value {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			}
		}
		if depth == 0 && t.Kind == lexer.Punctuation && t.Value == "," {
			groups = append(groups, toks[start:i])
			start = i + 1
		}
	}
	groups = append(groups, toks[start:])
	return groups
}

func renderToken(t lexer.Token) string {
	switch t.Kind {
	case lexer.FString:
		return "`" + strings.ReplaceAll(t.Value, "{", "${") + "`"
	case lexer.String:
		return `"` + strings.ReplaceAll(t.Value, `"`, `\"`) + `"`
	case lexer.Template:
		return "`" + t.Value + "`"
	case lexer.Number:
		return t.Value
	case lexer.Identifier:
		if t.Value == "self" {
			return "this"
		}
		return t.Value
	case lexer.Keyword:
		if rewritten, ok := keywordRewrites[t.Value]; ok {
			return rewritten
		}
		if t.Value == "not" {
			return "!"
		}
		if t.Value == "self" {
			return "this"
		}
		return t.Value
	default:
		return t.Value
	}
}

// writePiece appends piece to sb, inserting a space when the boundary
// characters would otherwise run two tokens together.
func writePiece(sb *strings.Builder, piece string) {
	if piece == "" {
		return
	}
	if sb.Len() > 0 {
		last := sb.String()[sb.Len()-1]
		first := piece[0]
		if needsSpace(last, first) {
			sb.WriteByte(' ')
		}
	}
	sb.WriteString(piece)
}

func needsSpace(last, next byte) bool {
	switch next {
	case ')', ']', ',', '.', ':', ';', '(':
		return false
	}
	switch last {
	case '(', '[', '.', '!', '~':
		return false
	}
	return true
}
