// Package parser turns a token stream into a statement tree via recursive
// descent. Statement shapes are fully structured; expressions are
// delimited lexically (bracket-depth tracked) and handed to the generator
// as an opaque token run — see ast.Expression.
package parser

import (
	"github.com/indentscript/isc/ast"
	"github.com/indentscript/isc/lexer"
)

// Parser consumes a token stream and builds a statement tree. There is no
// error recovery: the first ParseFailure stops parsing.
type Parser struct {
	toks    []lexer.Token
	pos     int
	failure *ParseFailure
}

// New creates a parser over tokens already produced by lexer.Lex.
func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse lexes and parses source in one step, returning the program or the
// first ParseFailure encountered.
func Parse(source string) (*ast.Program, error) {
	p := New(lexer.Lex(source))
	prog := p.ParseProgram()
	if p.failure != nil {
		return nil, p.failure
	}
	return prog, nil
}

func (p *Parser) cur() lexer.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return lexer.Token{Kind: lexer.EOF}
}

func (p *Parser) peek() lexer.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return lexer.Token{Kind: lexer.EOF}
}

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

func (p *Parser) failed() bool { return p.failure != nil }

func (p *Parser) fail(expectedKind, expectedValue string) {
	if p.failure != nil {
		return
	}
	cur := p.cur()
	p.failure = &ParseFailure{
		ExpectedKind:  expectedKind,
		ExpectedValue: expectedValue,
		ObservedKind:  cur.Kind.String(),
		ObservedValue: cur.Value,
		Line:          cur.Line,
		Column:        cur.Column,
	}
}

func (p *Parser) curIsKeyword(word string) bool {
	c := p.cur()
	return c.Kind == lexer.Keyword && c.Value == word
}

func (p *Parser) curIsPunct(val string) bool {
	c := p.cur()
	return c.Kind == lexer.Punctuation && c.Value == val
}

func (p *Parser) curIsBracket(val string) bool {
	c := p.cur()
	return c.Kind == lexer.Bracket && c.Value == val
}

func (p *Parser) expectIdentifier() string {
	c := p.cur()
	if c.Kind != lexer.Identifier {
		p.fail("IDENTIFIER", "")
		return ""
	}
	p.advance()
	return c.Value
}

func (p *Parser) expectPunct(val string) bool {
	if !p.curIsPunct(val) {
		p.fail("PUNCTUATION", val)
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expectBracket(val string) bool {
	if !p.curIsBracket(val) {
		p.fail("BRACKET", val)
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expectKeyword(word string) bool {
	if !p.curIsKeyword(word) {
		p.fail("KEYWORD", word)
		return false
	}
	p.advance()
	return true
}

func (p *Parser) skipNewlines() {
	for p.cur().Kind == lexer.Newline {
		p.advance()
	}
}

// ParseProgram parses an entire token stream into a Program.
func (p *Parser) ParseProgram() *ast.Program {
	start := p.position()
	prog := &ast.Program{PosVal: start}
	p.skipNewlines()
	for p.cur().Kind != lexer.EOF && !p.failed() {
		stmt := p.parseStatement()
		if p.failed() {
			break
		}
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
		p.skipNewlines()
	}
	return prog
}

func (p *Parser) position() ast.Position {
	c := p.cur()
	return ast.Position{Line: c.Line, Column: c.Column}
}

// parseStatement dispatches on the current token per the statement table.
func (p *Parser) parseStatement() ast.Stmt {
	p.skipNewlines()

	if p.curIsPunct("@") {
		var decorators []ast.Decorator
		for p.curIsPunct("@") {
			decorators = append(decorators, p.parseDecorator())
		}
		stmt := p.parseStatement()
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok {
			fd.Decorators = decorators
		}
		return stmt
	}

	c := p.cur()

	if c.Kind == lexer.Keyword {
		switch c.Value {
		case "def":
			return p.parseFunctionDeclaration(false)
		case "async":
			return p.parseAsync()
		case "class":
			return p.parseClassDeclaration()
		case "for":
			return p.parseForInLoop()
		case "if":
			return p.parseIfStatement()
		case "while":
			return p.parseWhileLoop()
		case "return":
			return p.parseReturnStatement()
		case "import":
			return p.parseImportStatement()
		case "from":
			return p.parseFromImportStatement()
		case "try":
			return p.parseTryStatement()
		case "raise":
			return p.parseRaiseStatement()
		case "assert":
			return p.parseAssertStatement()
		case "with":
			return p.parseWithStatement()
		case "pass":
			p.advance()
			return &ast.PassStatement{PosVal: pos(c)}
		case "break":
			p.advance()
			return &ast.BreakStatement{PosVal: pos(c)}
		case "continue":
			p.advance()
			return &ast.ContinueStatement{PosVal: pos(c)}
		case "lambda":
			return p.parseLambdaStatement()
		case "del":
			return p.parseDeleteStatement()
		case "global", "nonlocal":
			return p.parseGlobalStatement()
		case "yield":
			return p.parseYieldStatement()
		case "await":
			return p.parseAwaitStatement()
		case "print":
			return p.parsePrintStatement()
		}
	}

	start := p.pos
	expr := p.parseExpression()
	if p.failed() {
		return nil
	}
	if p.pos == start {
		// The current token opened neither a known statement nor any
		// expression token (a bare top-level ',' or ':', say). Failing
		// here keeps ParseProgram/parseBlock's loops from calling
		// parseStatement on the same unconsumed token forever.
		p.fail("STATEMENT", "")
		return nil
	}
	return &ast.ExpressionStatement{PosVal: expr.PosVal, Expression: expr}
}

func pos(t lexer.Token) ast.Position { return ast.Position{Line: t.Line, Column: t.Column} }

// parseExpression greedily collects tokens into an opaque Expression,
// tracking bracket depth over ()/[]/{}. It stops at NEWLINE, INDENT,
// DEDENT, a top-level ':' or ',', or an excess closing bracket, without
// consuming the terminator.
func (p *Parser) parseExpression() *ast.Expression {
	start := p.position()
	var toks []lexer.Token
	depth := 0

	for {
		c := p.cur()
		switch c.Kind {
		case lexer.EOF, lexer.Newline, lexer.Indent, lexer.Dedent:
			return &ast.Expression{PosVal: start, Tokens: toks}
		case lexer.Bracket:
			switch c.Value {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					return &ast.Expression{PosVal: start, Tokens: toks}
				}
				depth--
			}
		case lexer.Punctuation:
			if depth == 0 && (c.Value == ":" || c.Value == ",") {
				return &ast.Expression{PosVal: start, Tokens: toks}
			}
		}
		toks = append(toks, c)
		p.advance()
	}
}

// parseBlock parses an optional ':' header already consumed by the caller
// and returns the statement sequence that follows: either an INDENT-bounded
// block or a single inline statement.
func (p *Parser) parseBlock() []ast.Stmt {
	p.skipNewlines()
	if p.cur().Kind == lexer.Indent {
		p.advance()
		var stmts []ast.Stmt
		for p.cur().Kind != lexer.Dedent && p.cur().Kind != lexer.EOF && !p.failed() {
			p.skipNewlines()
			if p.cur().Kind == lexer.Dedent || p.cur().Kind == lexer.EOF {
				break
			}
			stmt := p.parseStatement()
			if p.failed() {
				return stmts
			}
			if stmt != nil {
				stmts = append(stmts, stmt)
			}
			p.skipNewlines()
		}
		if p.cur().Kind == lexer.Dedent {
			p.advance()
		}
		return stmts
	}
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	return []ast.Stmt{stmt}
}

// optionalColon consumes a trailing ':' if present; it is idempotent, since
// callers may or may not have required one.
func (p *Parser) optionalColon() {
	if p.curIsPunct(":") {
		p.advance()
	}
}

func (p *Parser) parseParameters() []ast.Parameter {
	if !p.expectBracket("(") {
		return nil
	}
	var params []ast.Parameter
	for !p.curIsBracket(")") && p.cur().Kind != lexer.EOF && !p.failed() {
		spread := ""
		if p.curIsOperator("**") {
			spread = "dict"
			p.advance()
		} else if p.curIsOperator("*") {
			spread = "array"
			p.advance()
		}
		name := p.expectIdentifier()
		if p.failed() {
			return params
		}
		param := ast.Parameter{Name: name, Spread: spread}
		if p.curIsOperator("=") {
			p.advance()
			param.DefaultValue = p.parseExpression()
		}
		params = append(params, param)
		if p.curIsPunct(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectBracket(")")
	return params
}

func (p *Parser) curIsOperator(op string) bool {
	c := p.cur()
	return c.Kind == lexer.Operator && c.Value == op
}

func (p *Parser) parseAsync() ast.Stmt {
	start := pos(p.cur())
	p.advance()
	if p.curIsKeyword("def") {
		fn := p.parseFunctionDeclaration(true)
		if fd, ok := fn.(*ast.FunctionDeclaration); ok {
			fd.PosVal = start
		}
		return fn
	}
	// `async with`/`async for` are not distinguished from their synchronous
	// forms beyond this point; the keyword itself is consumed and dropped.
	return p.parseStatement()
}

func (p *Parser) parseFunctionDeclaration(isAsync bool) ast.Stmt {
	start := pos(p.cur())
	p.advance() // def
	// Reserved words such as get and set are valid function and method names.
	var name string
	if p.cur().Kind == lexer.Keyword {
		name = p.advance().Value
	} else {
		name = p.expectIdentifier()
	}
	if p.failed() {
		return nil
	}
	params := p.parseParameters()
	// The lexer has no `->` operator: a return annotation arrives as `-` then `>`.
	if p.curIsOperator("-") && p.peek().Kind == lexer.Operator && p.peek().Value == ">" {
		p.advance()
		p.advance()
		p.expectIdentifier()
	}
	p.optionalColon()
	body := p.parseBlock()
	return &ast.FunctionDeclaration{PosVal: start, Name: name, Params: params, Body: body, IsAsync: isAsync}
}

func (p *Parser) parseDecorator() ast.Decorator {
	p.advance() // @
	name := p.expectIdentifier()
	// Discard any argument list or attribute chain; only the bare name survives.
	for !p.failed() && p.cur().Kind != lexer.Newline && p.cur().Kind != lexer.EOF {
		p.advance()
	}
	p.skipNewlines()
	return ast.Decorator{Name: name}
}

func (p *Parser) parseClassDeclaration() ast.Stmt {
	start := pos(p.cur())
	p.advance() // class
	name := p.expectIdentifier()
	if p.failed() {
		return nil
	}
	super := ""
	if p.curIsBracket("(") {
		p.advance()
		if !p.curIsBracket(")") {
			super = p.expectIdentifier()
		}
		p.expectBracket(")")
	}
	p.optionalColon()
	body := p.parseBlock()

	class := &ast.ClassDeclaration{PosVal: start, Name: name, SuperClass: super}
	for _, stmt := range body {
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok {
			class.Methods = append(class.Methods, &ast.MethodDeclaration{
				PosVal: fd.PosVal, Name: fd.Name, Params: fd.Params, Body: fd.Body,
				IsAsync: fd.IsAsync, Decorators: fd.Decorators,
			})
			continue
		}
		class.Properties = append(class.Properties, stmt)
	}
	return class
}

func (p *Parser) parseForInLoop() ast.Stmt {
	start := pos(p.cur())
	p.advance() // for
	var vars []string
	for {
		name := p.expectIdentifier()
		if p.failed() {
			return nil
		}
		vars = append(vars, name)
		if p.curIsPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if !p.expectKeyword("in") {
		return nil
	}
	iterable := p.parseExpression()
	p.optionalColon()
	body := p.parseBlock()
	return &ast.ForInLoop{PosVal: start, Variables: vars, Iterable: iterable, Body: body}
}

func (p *Parser) parseIfStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // if
	cond := p.parseExpression()
	p.optionalColon()
	consequent := p.parseBlock()

	node := &ast.IfStatement{PosVal: start, Condition: cond, Consequent: consequent}

	p.skipNewlines()
	if p.curIsKeyword("elif") {
		elifStart := pos(p.cur())
		p.advance()
		elifCond := p.parseExpression()
		p.optionalColon()
		elifBody := p.parseBlock()
		nested := &ast.IfStatement{PosVal: elifStart, Condition: elifCond, Consequent: elifBody}
		node.AlternateIf = p.continueElifChain(nested)
		return node
	}
	if p.curIsKeyword("else") {
		p.advance()
		p.optionalColon()
		node.AlternateBlock = p.parseBlock()
	}
	return node
}

// continueElifChain folds any subsequent elif/else into the nested
// IfStatement, since an elif chain is modeled as a right-leaning spine of
// IfStatement.AlternateIf.
func (p *Parser) continueElifChain(node *ast.IfStatement) *ast.IfStatement {
	p.skipNewlines()
	if p.curIsKeyword("elif") {
		start := pos(p.cur())
		p.advance()
		cond := p.parseExpression()
		p.optionalColon()
		body := p.parseBlock()
		nested := &ast.IfStatement{PosVal: start, Condition: cond, Consequent: body}
		node.AlternateIf = p.continueElifChain(nested)
		return node
	}
	if p.curIsKeyword("else") {
		p.advance()
		p.optionalColon()
		node.AlternateBlock = p.parseBlock()
	}
	return node
}

func (p *Parser) parseWhileLoop() ast.Stmt {
	start := pos(p.cur())
	p.advance() // while
	cond := p.parseExpression()
	p.optionalColon()
	body := p.parseBlock()
	return &ast.WhileLoop{PosVal: start, Condition: cond, Body: body}
}

func (p *Parser) parseReturnStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // return
	if p.cur().Kind == lexer.Newline || p.cur().Kind == lexer.EOF || p.cur().Kind == lexer.Dedent {
		return &ast.ReturnStatement{PosVal: start}
	}
	value := p.parseExpression()
	return &ast.ReturnStatement{PosVal: start, Value: value}
}

func (p *Parser) parseRaiseStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // raise
	errExpr := p.parseExpression()
	return &ast.RaiseStatement{PosVal: start, Error: errExpr}
}

func (p *Parser) parseAssertStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // assert
	cond := p.parseExpression()
	var msg *ast.Expression
	if p.curIsPunct(",") {
		p.advance()
		msg = p.parseExpression()
	}
	return &ast.AssertStatement{PosVal: start, Condition: cond, Message: msg}
}

func (p *Parser) parseWithStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // with
	ctx := p.parseExpression()
	alias := ""
	if p.curIsKeyword("as") {
		p.advance()
		alias = p.expectIdentifier()
	}
	p.optionalColon()
	body := p.parseBlock()
	return &ast.WithStatement{PosVal: start, Context: ctx, Alias: alias, Body: body}
}

func (p *Parser) parseTryStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // try
	p.optionalColon()
	tryBlock := p.parseBlock()

	var handlers []ast.ExceptHandler
	p.skipNewlines()
	for p.curIsKeyword("except") {
		p.advance()
		var errType, errName string
		if !p.curIsPunct(":") {
			errType = p.expectIdentifier()
			if p.curIsKeyword("as") {
				p.advance()
				errName = p.expectIdentifier()
			}
		}
		p.optionalColon()
		body := p.parseBlock()
		handlers = append(handlers, ast.ExceptHandler{ErrorType: errType, ErrorName: errName, Body: body})
		p.skipNewlines()
	}

	var finallyBlock []ast.Stmt
	if p.curIsKeyword("finally") {
		p.advance()
		p.optionalColon()
		finallyBlock = p.parseBlock()
	}

	return &ast.TryStatement{PosVal: start, TryBlock: tryBlock, Handlers: handlers, FinallyBlock: finallyBlock}
}

func (p *Parser) parseImportStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // import
	var modules []ast.ImportedModule
	for {
		path := p.expectIdentifier()
		if p.failed() {
			return nil
		}
		alias := ""
		if p.curIsKeyword("as") {
			p.advance()
			alias = p.expectIdentifier()
		}
		modules = append(modules, ast.ImportedModule{Path: path, Alias: alias})
		if p.curIsPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return &ast.ImportStatement{PosVal: start, Modules: modules}
}

func (p *Parser) parseFromImportStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // from
	module := p.expectIdentifier()
	if !p.expectKeyword("import") {
		return nil
	}
	if p.curIsOperator("*") {
		p.advance()
		return &ast.FromImportStatement{PosVal: start, Module: module, Star: true}
	}
	var imports []ast.ImportedName
	for {
		name := p.expectIdentifier()
		if p.failed() {
			return nil
		}
		alias := ""
		if p.curIsKeyword("as") {
			p.advance()
			alias = p.expectIdentifier()
		}
		imports = append(imports, ast.ImportedName{Name: name, Alias: alias})
		if p.curIsPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return &ast.FromImportStatement{PosVal: start, Module: module, Imports: imports}
}

func (p *Parser) parseLambdaStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // lambda
	var params []string
	for p.cur().Kind == lexer.Identifier {
		params = append(params, p.advance().Value)
		if p.curIsPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if !p.expectPunct(":") {
		return nil
	}
	body := p.parseExpression()
	return &ast.LambdaExpression{PosVal: start, Params: params, Body: body}
}

func (p *Parser) parseDeleteStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // del
	target := p.parseExpression()
	return &ast.DeleteStatement{PosVal: start, Target: target}
}

func (p *Parser) parseGlobalStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // global
	var vars []string
	for {
		name := p.expectIdentifier()
		if p.failed() {
			return nil
		}
		vars = append(vars, name)
		if p.curIsPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return &ast.GlobalStatement{PosVal: start, Variables: vars}
}

func (p *Parser) parseYieldStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // yield
	if p.cur().Kind == lexer.Newline || p.cur().Kind == lexer.EOF || p.cur().Kind == lexer.Dedent {
		return &ast.YieldExpression{PosVal: start}
	}
	value := p.parseExpression()
	return &ast.YieldExpression{PosVal: start, Value: value}
}

func (p *Parser) parseAwaitStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // await
	value := p.parseExpression()
	return &ast.AwaitExpression{PosVal: start, Expression: value}
}

func (p *Parser) parsePrintStatement() ast.Stmt {
	start := pos(p.cur())
	p.advance() // print
	var args []*ast.Expression
	if p.curIsBracket("(") {
		p.advance()
		for !p.curIsBracket(")") && p.cur().Kind != lexer.EOF {
			args = append(args, p.parseExpression())
			if p.curIsPunct(",") {
				p.advance()
				continue
			}
			break
		}
		p.expectBracket(")")
		return &ast.PrintStatement{PosVal: start, Arguments: args}
	}
	for {
		if p.cur().Kind == lexer.Newline || p.cur().Kind == lexer.EOF || p.cur().Kind == lexer.Dedent {
			break
		}
		args = append(args, p.parseExpression())
		if p.curIsPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return &ast.PrintStatement{PosVal: start, Arguments: args}
}
