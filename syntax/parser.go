package syntax

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for the host language
// ---------------------------------------------------------------------------

// maxErrors bounds error accumulation so a badly broken file stops early.
const maxErrors = 25

// Parser parses host-language source code into an AST.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	errors    []string
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// ParseModule parses a complete source file.
func ParseModule(source string) (*Module, error) {
	p := NewParser(source)
	mod := p.ParseModule()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("parse errors: %s", strings.Join(p.Errors(), "; "))
	}
	return mod, nil
}

// ParseExpr parses a single expression.
func ParseExpr(source string) (Expr, error) {
	p := NewParser(source)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("parse errors: %s", strings.Join(p.Errors(), "; "))
	}
	return expr, nil
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// curIs checks if the current token is the given operator or keyword.
func (p *Parser) curIs(lit string) bool {
	return p.curToken.is(lit)
}

// expectOp advances past the given operator or keyword, otherwise records
// an error.
func (p *Parser) expectOp(lit string) bool {
	if p.curIs(lit) {
		p.nextToken()
		return true
	}
	p.errorf("expected '%s', got %s", lit, p.curToken)
	return false
}

// expectName consumes an identifier and returns it.
func (p *Parser) expectName() (string, bool) {
	if !p.curTokenIs(TokenName) {
		p.errorf("expected name, got %s", p.curToken)
		return "", false
	}
	name := p.curToken.Literal
	p.nextToken()
	return name, true
}

// errorf records a parse error.
func (p *Parser) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf("line %d: %s", p.curToken.Pos.Line, fmt.Sprintf(format, args...))
	p.errors = append(p.errors, msg)
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) failed() bool {
	return len(p.errors) >= maxErrors
}

func at(pos Position) Loc {
	return Loc{Position: pos}
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseModule parses statements until EOF. The module itself is placed at
// line 1, column 1.
func (p *Parser) ParseModule() *Module {
	mod := &Module{Loc: at(Position{Line: 1, Column: 1})}
	for !p.curTokenIs(TokenEOF) && !p.failed() {
		if p.curTokenIs(TokenNewline) {
			p.nextToken()
			continue
		}
		mod.Body = append(mod.Body, p.parseStatementRecover()...)
	}
	return mod
}

// ParseExpression parses a single expression list.
func (p *Parser) ParseExpression() Expr {
	expr := p.parseTestList()
	for p.curTokenIs(TokenNewline) {
		p.nextToken()
	}
	if !p.curTokenIs(TokenEOF) && len(p.errors) == 0 {
		p.errorf("unexpected %s after expression", p.curToken)
	}
	return expr
}

// parseStatementRecover parses one statement and skips to the end of the
// line if it failed.
func (p *Parser) parseStatementRecover() []Stmt {
	before := len(p.errors)
	stmts := p.parseStatement()
	if len(p.errors) > before {
		for !p.curTokenIs(TokenNewline) && !p.curTokenIs(TokenEOF) {
			p.nextToken()
		}
		if p.curTokenIs(TokenNewline) {
			p.nextToken()
		}
		return nil
	}
	return stmts
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseStatement() []Stmt {
	var s Stmt
	switch {
	case p.curTokenIs(TokenIndent):
		p.errorf("unexpected indent")
		p.nextToken()
		return nil
	case p.curIs("if"):
		s = p.parseIf()
	case p.curIs("while"):
		s = p.parseWhile()
	case p.curIs("for"):
		s = p.parseFor()
	case p.curIs("try"):
		s = p.parseTry()
	case p.curIs("with"):
		s = p.parseWith()
	case p.curIs("def"):
		s = p.parseFunctionDef(nil)
	case p.curIs("class"):
		s = p.parseClassDef(nil)
	case p.curIs("@"):
		s = p.parseDecorated()
	default:
		return p.parseSimpleStatements()
	}
	if s == nil {
		return nil
	}
	return []Stmt{s}
}

// parseSimpleStatements parses small statements separated by ';' up to
// the end of the line.
func (p *Parser) parseSimpleStatements() []Stmt {
	var out []Stmt
	for {
		before := len(p.errors)
		s := p.parseSmallStatement()
		if len(p.errors) > before {
			return nil
		}
		if s != nil {
			out = append(out, s)
		}
		if !p.curIs(";") {
			break
		}
		p.nextToken()
		if p.curTokenIs(TokenNewline) || p.curTokenIs(TokenEOF) {
			break
		}
	}
	switch {
	case p.curTokenIs(TokenNewline):
		p.nextToken()
	case p.curTokenIs(TokenEOF), p.curTokenIs(TokenDedent):
	default:
		p.errorf("expected end of statement, got %s", p.curToken)
		return nil
	}
	return out
}

func (p *Parser) parseSmallStatement() Stmt {
	pos := p.curToken.Pos

	switch {
	case p.curIs("pass"):
		p.nextToken()
		return &Pass{Loc: at(pos)}
	case p.curIs("break"):
		p.nextToken()
		return &Break{Loc: at(pos)}
	case p.curIs("continue"):
		p.nextToken()
		return &Continue{Loc: at(pos)}
	case p.curIs("return"):
		p.nextToken()
		ret := &Return{Loc: at(pos)}
		if !p.atExprEnd() {
			ret.Value = p.parseTestList()
		}
		return ret
	case p.curIs("raise"):
		p.nextToken()
		r := &Raise{Loc: at(pos)}
		if p.atExprEnd() {
			return r
		}
		r.Exc = p.parseTest()
		if p.curIs(",") {
			p.nextToken()
			r.Inst = p.parseTest()
			if p.curIs(",") {
				p.nextToken()
				r.Tback = p.parseTest()
			}
		}
		return r
	case p.curIs("global"):
		p.nextToken()
		g := &Global{Loc: at(pos)}
		for {
			name, ok := p.expectName()
			if !ok {
				return nil
			}
			g.Names = append(g.Names, name)
			if !p.curIs(",") {
				break
			}
			p.nextToken()
		}
		return g
	case p.curIs("del"):
		p.nextToken()
		targets := p.parseExprList()
		if t, ok := targets.(*Tuple); ok {
			return &Delete{Loc: at(pos), Targets: t.Elts}
		}
		return &Delete{Loc: at(pos), Targets: []Expr{targets}}
	case p.curIs("assert"):
		p.nextToken()
		a := &Assert{Loc: at(pos), Test: p.parseTest()}
		if p.curIs(",") {
			p.nextToken()
			a.Msg = p.parseTest()
		}
		return a
	case p.curIs("import"):
		return p.parseImport()
	case p.curIs("from"):
		return p.parseImportFrom()
	case p.curTokenIs(TokenName) && p.curToken.Literal == "print" && p.isPrintStatement():
		return p.parsePrint()
	case p.curTokenIs(TokenName) && p.curToken.Literal == "exec" && p.peekToken.Type != TokenOp:
		return p.parseExec()
	}

	return p.parseExprStatement()
}

// isPrintStatement distinguishes the print statement from an ordinary use
// of the name print (print(x), print.x, print = f).
func (p *Parser) isPrintStatement() bool {
	if p.peekToken.Type != TokenOp {
		return true
	}
	return p.peekToken.Literal == ">>" || p.peekToken.Literal == ";"
}

func (p *Parser) parsePrint() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume print

	pr := &PrintStmt{Loc: at(pos), NewLine: true}
	if p.curIs(">>") {
		p.nextToken()
		pr.Dest = p.parseTest()
		if !p.curIs(",") {
			return pr
		}
		p.nextToken()
	}
	for !p.atExprEnd() {
		pr.Values = append(pr.Values, p.parseTest())
		pr.NewLine = true
		if !p.curIs(",") {
			break
		}
		p.nextToken()
		pr.NewLine = false
	}
	return pr
}

// parseExec parses exec body [in globals [, locals]]. The parenthesized
// form exec(code) is left to the expression parser as a call.
func (p *Parser) parseExec() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume exec

	ex := &Exec{Loc: at(pos), Body: p.parseExpr()}
	if ex.Body == nil || !p.curIs("in") {
		return ex
	}
	p.nextToken()
	ex.Globals = p.parseTest()
	if p.curIs(",") {
		p.nextToken()
		ex.Locals = p.parseTest()
	}
	return ex
}

var augAssignOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true,
	"**=": true, ">>=": true, "<<=": true, "&=": true, "|=": true, "^=": true,
}

func (p *Parser) parseExprStatement() Stmt {
	pos := p.curToken.Pos
	first := p.parseYieldOrTestList()
	if first == nil {
		return nil
	}

	if p.curToken.Type == TokenOp && augAssignOps[p.curToken.Literal] {
		op := strings.TrimSuffix(p.curToken.Literal, "=")
		p.nextToken()
		value := p.parseYieldOrTestList()
		if value == nil {
			return nil
		}
		return &AugAssign{Loc: at(pos), Target: first, Op: op, Value: value}
	}

	if p.curIs("=") {
		exprs := []Expr{first}
		for p.curIs("=") {
			p.nextToken()
			v := p.parseYieldOrTestList()
			if v == nil {
				return nil
			}
			exprs = append(exprs, v)
		}
		return &Assign{Loc: at(pos), Targets: exprs[:len(exprs)-1], Value: exprs[len(exprs)-1]}
	}

	return &ExprStmt{Loc: at(pos), Value: first}
}

func (p *Parser) parseImport() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume import

	imp := &Import{Loc: at(pos)}
	for {
		name, ok := p.parseDottedName()
		if !ok {
			return nil
		}
		alias := Alias{Name: name}
		if p.curIs("as") {
			p.nextToken()
			if alias.AsName, ok = p.expectName(); !ok {
				return nil
			}
		}
		imp.Names = append(imp.Names, alias)
		if !p.curIs(",") {
			break
		}
		p.nextToken()
	}
	return imp
}

func (p *Parser) parseImportFrom() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume from

	imp := &ImportFrom{Loc: at(pos)}
	for p.curIs(".") {
		imp.Level++
		p.nextToken()
	}
	if !p.curIs("import") {
		name, ok := p.parseDottedName()
		if !ok {
			return nil
		}
		imp.Module = name
	}
	if !p.expectOp("import") {
		return nil
	}

	if p.curIs("*") {
		p.nextToken()
		imp.Names = []Alias{{Name: "*"}}
		return imp
	}

	parens := p.curIs("(")
	if parens {
		p.nextToken()
	}
	for {
		name, ok := p.expectName()
		if !ok {
			return nil
		}
		alias := Alias{Name: name}
		if p.curIs("as") {
			p.nextToken()
			if alias.AsName, ok = p.expectName(); !ok {
				return nil
			}
		}
		imp.Names = append(imp.Names, alias)
		if !p.curIs(",") {
			break
		}
		p.nextToken()
		if parens && p.curIs(")") {
			break
		}
	}
	if parens && !p.expectOp(")") {
		return nil
	}
	return imp
}

func (p *Parser) parseDottedName() (string, bool) {
	name, ok := p.expectName()
	if !ok {
		return "", false
	}
	for p.curIs(".") {
		p.nextToken()
		part, ok := p.expectName()
		if !ok {
			return "", false
		}
		name += "." + part
	}
	return name, true
}

// ---------------------------------------------------------------------------
// Compound statements
// ---------------------------------------------------------------------------

// parseSuite parses ':' followed by an indented block or a same-line
// simple statement list.
func (p *Parser) parseSuite() []Stmt {
	if !p.expectOp(":") {
		return nil
	}
	if !p.curTokenIs(TokenNewline) {
		return p.parseSimpleStatements()
	}
	p.nextToken()
	if !p.curTokenIs(TokenIndent) {
		p.errorf("expected an indented block")
		return nil
	}
	p.nextToken()

	var body []Stmt
	for !p.curTokenIs(TokenDedent) && !p.curTokenIs(TokenEOF) && !p.failed() {
		if p.curTokenIs(TokenNewline) {
			p.nextToken()
			continue
		}
		body = append(body, p.parseStatementRecover()...)
	}
	if p.curTokenIs(TokenDedent) {
		p.nextToken()
	}
	return body
}

// parseIf parses if/elif chains. An elif becomes a lone If in OrElse.
func (p *Parser) parseIf() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume if / elif

	test := p.parseTest()
	if test == nil {
		return nil
	}
	n := &If{Loc: at(pos), Test: test, Body: p.parseSuite()}

	switch {
	case p.curIs("elif"):
		if elif := p.parseIf(); elif != nil {
			n.OrElse = []Stmt{elif}
		}
	case p.curIs("else"):
		p.nextToken()
		n.OrElse = p.parseSuite()
	}
	return n
}

func (p *Parser) parseWhile() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume while

	test := p.parseTest()
	if test == nil {
		return nil
	}
	n := &While{Loc: at(pos), Test: test, Body: p.parseSuite()}
	if p.curIs("else") {
		p.nextToken()
		n.OrElse = p.parseSuite()
	}
	return n
}

func (p *Parser) parseFor() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume for

	target := p.parseExprList()
	if target == nil || !p.expectOp("in") {
		return nil
	}
	iter := p.parseTestList()
	if iter == nil {
		return nil
	}
	n := &For{Loc: at(pos), Target: target, Iter: iter, Body: p.parseSuite()}
	if p.curIs("else") {
		p.nextToken()
		n.OrElse = p.parseSuite()
	}
	return n
}

// parseWith parses a with statement with one or more items.
func (p *Parser) parseWith() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume with

	n := &With{Loc: at(pos)}
	for {
		item := &WithItem{Loc: at(p.curToken.Pos)}
		if item.Context = p.parseTest(); item.Context == nil {
			return nil
		}
		if p.curIs("as") {
			p.nextToken()
			if item.Vars = p.parseExpr(); item.Vars == nil {
				return nil
			}
		}
		n.Items = append(n.Items, item)
		if !p.curIs(",") {
			break
		}
		p.nextToken()
	}
	n.Body = p.parseSuite()
	return n
}

func (p *Parser) parseTry() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume try

	n := &Try{Loc: at(pos), Body: p.parseSuite()}
	for p.curIs("except") {
		hpos := p.curToken.Pos
		p.nextToken()
		h := &ExceptHandler{Loc: at(hpos)}
		if !p.curIs(":") {
			h.Type = p.parseTest()
			if p.curIs("as") || p.curIs(",") {
				p.nextToken()
				name, ok := p.expectName()
				if !ok {
					return nil
				}
				h.Name = name
			}
		}
		h.Body = p.parseSuite()
		n.Handlers = append(n.Handlers, h)
	}
	if len(n.Handlers) > 0 && p.curIs("else") {
		p.nextToken()
		n.OrElse = p.parseSuite()
	}
	if p.curIs("finally") {
		p.nextToken()
		n.Finally = p.parseSuite()
	}
	if len(n.Handlers) == 0 && n.Finally == nil {
		p.errorf("expected 'except' or 'finally' block")
		return nil
	}
	return n
}

func (p *Parser) parseDecorated() Stmt {
	var decorators []Expr
	for p.curIs("@") {
		p.nextToken()
		d := p.parseTest()
		if d == nil {
			return nil
		}
		decorators = append(decorators, d)
		if !p.curTokenIs(TokenNewline) {
			p.errorf("expected newline after decorator, got %s", p.curToken)
			return nil
		}
		p.nextToken()
	}
	switch {
	case p.curIs("def"):
		return p.parseFunctionDef(decorators)
	case p.curIs("class"):
		return p.parseClassDef(decorators)
	}
	p.errorf("expected def or class after decorator, got %s", p.curToken)
	return nil
}

func (p *Parser) parseFunctionDef(decorators []Expr) Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume def

	name, ok := p.expectName()
	if !ok {
		return nil
	}
	argsPos := p.curToken.Pos
	if !p.expectOp("(") {
		return nil
	}
	args := p.parseParams(argsPos, ")")
	if args == nil || !p.expectOp(")") {
		return nil
	}

	return &FunctionDef{
		Loc:        at(pos),
		Name:       name,
		Args:       args,
		Body:       p.parseSuite(),
		Decorators: decorators,
	}
}

// parseParams parses a parameter list up to, but not including, the
// closing token.
func (p *Parser) parseParams(pos Position, closing string) *Arguments {
	args := &Arguments{Loc: at(pos)}
	var ok bool
	for !p.curIs(closing) && !p.curTokenIs(TokenEOF) {
		switch {
		case p.curIs("*"):
			p.nextToken()
			if args.Vararg, ok = p.expectName(); !ok {
				return nil
			}
		case p.curIs("**"):
			p.nextToken()
			if args.Kwarg, ok = p.expectName(); !ok {
				return nil
			}
		default:
			param, ok := p.expectName()
			if !ok {
				return nil
			}
			args.Args = append(args.Args, param)
			if p.curIs("=") {
				p.nextToken()
				def := p.parseTest()
				if def == nil {
					return nil
				}
				args.Defaults = append(args.Defaults, def)
			} else if len(args.Defaults) > 0 {
				p.errorf("non-default argument follows default argument")
				return nil
			}
		}
		if !p.curIs(",") {
			break
		}
		p.nextToken()
	}
	return args
}

func (p *Parser) parseClassDef(decorators []Expr) Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume class

	name, ok := p.expectName()
	if !ok {
		return nil
	}
	var bases []Expr
	if p.curIs("(") {
		args, kws, ok := p.parseCallArgs()
		if !ok {
			return nil
		}
		if len(kws) > 0 {
			p.errorf("class keyword arguments are not supported")
			return nil
		}
		bases = args
	}

	return &ClassDef{
		Loc:        at(pos),
		Name:       name,
		Bases:      bases,
		Body:       p.parseSuite(),
		Decorators: decorators,
	}
}

// ---------------------------------------------------------------------------
// Expression lists
// ---------------------------------------------------------------------------

// atExprEnd reports whether the current token cannot start an expression
// in a list context.
func (p *Parser) atExprEnd() bool {
	switch p.curToken.Type {
	case TokenNewline, TokenEOF, TokenDedent, TokenIndent:
		return true
	case TokenOp:
		switch p.curToken.Literal {
		case ")", "]", "}", "=", ":", ";":
			return true
		}
		return augAssignOps[p.curToken.Literal]
	case TokenKeyword:
		return p.curToken.Literal == "in"
	}
	return false
}

// parseTestList parses test (',' test)* [','] and returns a Tuple when a
// comma is present.
func (p *Parser) parseTestList() Expr {
	return p.parseList(p.parseTest)
}

// parseExprList parses a target list (for targets, del).
func (p *Parser) parseExprList() Expr {
	return p.parseList(p.parseExpr)
}

func (p *Parser) parseList(item func() Expr) Expr {
	pos := p.curToken.Pos
	first := item()
	if first == nil || !p.curIs(",") {
		return first
	}
	elts := []Expr{first}
	for p.curIs(",") {
		p.nextToken()
		if p.atExprEnd() {
			break
		}
		e := item()
		if e == nil {
			return nil
		}
		elts = append(elts, e)
	}
	return &Tuple{Loc: at(pos), Elts: elts}
}

// ---------------------------------------------------------------------------
// Expressions, lowest precedence first
// ---------------------------------------------------------------------------

// parseYieldOrTestList parses the right-hand side of an assignment or an
// expression statement, where a bare yield is allowed.
func (p *Parser) parseYieldOrTestList() Expr {
	if p.curIs("yield") {
		return p.parseYield()
	}
	return p.parseTestList()
}

func (p *Parser) parseYield() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume yield

	y := &Yield{Loc: at(pos)}
	if !p.atExprEnd() {
		if y.Value = p.parseTestList(); y.Value == nil {
			return nil
		}
	}
	return y
}

func (p *Parser) parseTest() Expr {
	if p.curIs("lambda") {
		return p.parseLambda()
	}
	pos := p.curToken.Pos
	body := p.parseOrTest()
	if body == nil || !p.curIs("if") {
		return body
	}
	p.nextToken()
	test := p.parseOrTest()
	if test == nil || !p.expectOp("else") {
		return nil
	}
	orelse := p.parseTest()
	if orelse == nil {
		return nil
	}
	return &IfExp{Loc: at(pos), Test: test, Body: body, OrElse: orelse}
}

func (p *Parser) parseLambda() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume lambda

	args := p.parseParams(p.curToken.Pos, ":")
	if args == nil || !p.expectOp(":") {
		return nil
	}
	body := p.parseTest()
	if body == nil {
		return nil
	}
	return &Lambda{Loc: at(pos), Args: args, Body: body}
}

func (p *Parser) parseOrTest() Expr {
	return p.parseBoolOp("or", p.parseAndTest)
}

func (p *Parser) parseAndTest() Expr {
	return p.parseBoolOp("and", p.parseNotTest)
}

func (p *Parser) parseBoolOp(op string, next func() Expr) Expr {
	pos := p.curToken.Pos
	first := next()
	if first == nil || !p.curIs(op) {
		return first
	}
	values := []Expr{first}
	for p.curIs(op) {
		p.nextToken()
		v := next()
		if v == nil {
			return nil
		}
		values = append(values, v)
	}
	return &BoolOp{Loc: at(pos), Op: op, Values: values}
}

func (p *Parser) parseNotTest() Expr {
	if !p.curIs("not") {
		return p.parseComparison()
	}
	pos := p.curToken.Pos
	p.nextToken()
	operand := p.parseNotTest()
	if operand == nil {
		return nil
	}
	return &UnaryOp{Loc: at(pos), Op: "not", Operand: operand}
}

func (p *Parser) parseComparison() Expr {
	pos := p.curToken.Pos
	left := p.parseExpr()
	if left == nil {
		return nil
	}
	var ops []string
	var comparators []Expr
	for {
		op, ok := p.compOp()
		if !ok {
			break
		}
		right := p.parseExpr()
		if right == nil {
			return nil
		}
		ops = append(ops, op)
		comparators = append(comparators, right)
	}
	if len(ops) == 0 {
		return left
	}
	return &Compare{Loc: at(pos), Left: left, Ops: ops, Comparators: comparators}
}

// compOp consumes a comparison operator if one is present.
func (p *Parser) compOp() (string, bool) {
	tok := p.curToken
	switch {
	case tok.Type == TokenOp:
		switch tok.Literal {
		case "<", ">", "==", ">=", "<=", "!=", "<>":
			p.nextToken()
			return tok.Literal, true
		}
	case tok.is("in"):
		p.nextToken()
		return "in", true
	case tok.is("not") && p.peekToken.is("in"):
		p.nextToken()
		p.nextToken()
		return "not in", true
	case tok.is("is"):
		p.nextToken()
		if p.curIs("not") {
			p.nextToken()
			return "is not", true
		}
		return "is", true
	}
	return "", false
}

// parseExpr parses a bitwise-or expression.
func (p *Parser) parseExpr() Expr {
	return p.parseBinary(p.parseXor, "|")
}

func (p *Parser) parseXor() Expr {
	return p.parseBinary(p.parseAnd, "^")
}

func (p *Parser) parseAnd() Expr {
	return p.parseBinary(p.parseShift, "&")
}

func (p *Parser) parseShift() Expr {
	return p.parseBinary(p.parseArith, "<<", ">>")
}

func (p *Parser) parseArith() Expr {
	return p.parseBinary(p.parseTerm, "+", "-")
}

func (p *Parser) parseTerm() Expr {
	return p.parseBinary(p.parseFactor, "*", "/", "//", "%", "@")
}

// parseBinary parses a left-associative chain of the given operators.
func (p *Parser) parseBinary(next func() Expr, ops ...string) Expr {
	pos := p.curToken.Pos
	left := next()
	for left != nil && p.curToken.Type == TokenOp && containsOp(ops, p.curToken.Literal) {
		op := p.curToken.Literal
		p.nextToken()
		right := next()
		if right == nil {
			return nil
		}
		left = &BinOp{Loc: at(pos), Left: left, Op: op, Right: right}
	}
	return left
}

func containsOp(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func (p *Parser) parseFactor() Expr {
	if p.curIs("-") || p.curIs("+") || p.curIs("~") {
		pos := p.curToken.Pos
		op := p.curToken.Literal
		p.nextToken()
		operand := p.parseFactor()
		if operand == nil {
			return nil
		}
		return &UnaryOp{Loc: at(pos), Op: op, Operand: operand}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() Expr {
	pos := p.curToken.Pos
	base := p.parseAtomExpr()
	if base == nil || !p.curIs("**") {
		return base
	}
	p.nextToken()
	exp := p.parseFactor()
	if exp == nil {
		return nil
	}
	return &BinOp{Loc: at(pos), Left: base, Op: "**", Right: exp}
}

// parseAtomExpr parses an atom followed by calls, subscripts and
// attribute accesses.
func (p *Parser) parseAtomExpr() Expr {
	pos := p.curToken.Pos
	expr := p.parseAtom()
	for expr != nil {
		switch {
		case p.curIs("("):
			args, kws, ok := p.parseCallArgs()
			if !ok {
				return nil
			}
			expr = &Call{Loc: at(pos), Func: expr, Args: args, Keywords: kws}
		case p.curIs("["):
			index := p.parseSubscript()
			if index == nil {
				return nil
			}
			expr = &Subscript{Loc: at(pos), Value: expr, Index: index}
		case p.curIs("."):
			p.nextToken()
			attr, ok := p.expectName()
			if !ok {
				return nil
			}
			expr = &Attribute{Loc: at(pos), Value: expr, Attr: attr}
		default:
			return expr
		}
	}
	return nil
}

// parseCallArgs parses a parenthesized argument list.
func (p *Parser) parseCallArgs() ([]Expr, []*Keyword, bool) {
	p.nextToken() // consume (

	var args []Expr
	var kws []*Keyword
	bareGen := false
	for !p.curIs(")") && !p.curTokenIs(TokenEOF) {
		pos := p.curToken.Pos
		switch {
		case p.curIs("*"):
			p.nextToken()
			v := p.parseTest()
			if v == nil {
				return nil, nil, false
			}
			args = append(args, &Starred{Loc: at(pos), Value: v})
		case p.curIs("**"):
			p.nextToken()
			v := p.parseTest()
			if v == nil {
				return nil, nil, false
			}
			kws = append(kws, &Keyword{Loc: at(pos), Value: v})
		case p.curTokenIs(TokenName) && p.peekToken.is("="):
			name := p.curToken.Literal
			p.nextToken()
			p.nextToken()
			v := p.parseTest()
			if v == nil {
				return nil, nil, false
			}
			kws = append(kws, &Keyword{Loc: at(pos), Arg: name, Value: v})
		default:
			v := p.parseTest()
			if v == nil {
				return nil, nil, false
			}
			if p.curIs("for") {
				gens := p.parseComprehensions()
				if gens == nil {
					return nil, nil, false
				}
				v = &GeneratorExp{Loc: at(pos), Elt: v, Generators: gens}
				bareGen = true
			}
			args = append(args, v)
		}
		if !p.curIs(",") {
			break
		}
		p.nextToken()
	}
	if bareGen && len(args)+len(kws) > 1 {
		p.errorf("generator expression must be parenthesized if not sole argument")
		return nil, nil, false
	}
	if !p.expectOp(")") {
		return nil, nil, false
	}
	return args, kws, true
}

// parseSubscript parses [index], [lower:upper:step] or [a, b].
func (p *Parser) parseSubscript() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume [

	first := p.parseSubscriptItem()
	if first == nil {
		return nil
	}
	index := first
	if p.curIs(",") {
		elts := []Expr{first}
		for p.curIs(",") {
			p.nextToken()
			if p.curIs("]") {
				break
			}
			e := p.parseSubscriptItem()
			if e == nil {
				return nil
			}
			elts = append(elts, e)
		}
		index = &Tuple{Loc: at(pos), Elts: elts}
	}
	if !p.expectOp("]") {
		return nil
	}
	return index
}

func (p *Parser) parseSubscriptItem() Expr {
	pos := p.curToken.Pos
	var lower Expr
	if !p.curIs(":") {
		lower = p.parseTest()
		if lower == nil || !p.curIs(":") {
			return lower
		}
	}
	p.nextToken() // consume :

	s := &Slice{Loc: at(pos), Lower: lower}
	if !p.curIs("]") && !p.curIs(",") && !p.curIs(":") {
		if s.Upper = p.parseTest(); s.Upper == nil {
			return nil
		}
	}
	if p.curIs(":") {
		p.nextToken()
		if !p.curIs("]") && !p.curIs(",") {
			if s.Step = p.parseTest(); s.Step == nil {
				return nil
			}
		}
	}
	return s
}

func (p *Parser) parseAtom() Expr {
	tok := p.curToken
	pos := tok.Pos

	switch tok.Type {
	case TokenName:
		p.nextToken()
		return &Name{Loc: at(pos), ID: tok.Literal}

	case TokenNumber:
		p.nextToken()
		return &Num{Loc: at(pos), Value: tok.Literal}

	case TokenString:
		var sb strings.Builder
		for p.curTokenIs(TokenString) {
			sb.WriteString(p.curToken.Literal)
			p.nextToken()
		}
		return &Str{Loc: at(pos), Value: sb.String()}

	case TokenKeyword:
		switch tok.Literal {
		case "True", "False", "None":
			p.nextToken()
			return &NameConstant{Loc: at(pos), Value: tok.Literal}
		}

	case TokenOp:
		switch tok.Literal {
		case "(":
			return p.parseParen()
		case "[":
			return p.parseListDisplay()
		case "{":
			return p.parseDictDisplay()
		}

	case TokenError:
		p.errorf("%s", tok.Literal)
		p.nextToken()
		return nil
	}

	p.errorf("unexpected %s", tok)
	return nil
}

func (p *Parser) parseParen() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume (

	if p.curIs(")") {
		p.nextToken()
		return &Tuple{Loc: at(pos)}
	}
	if p.curIs("yield") {
		y := p.parseYield()
		if y == nil || !p.expectOp(")") {
			return nil
		}
		return y
	}
	first := p.parseTest()
	if first == nil {
		return nil
	}
	if p.curIs("for") {
		gens := p.parseComprehensions()
		if gens == nil || !p.expectOp(")") {
			return nil
		}
		return &GeneratorExp{Loc: at(pos), Elt: first, Generators: gens}
	}
	if !p.curIs(",") {
		if !p.expectOp(")") {
			return nil
		}
		return first
	}
	elts := []Expr{first}
	for p.curIs(",") {
		p.nextToken()
		if p.curIs(")") {
			break
		}
		e := p.parseTest()
		if e == nil {
			return nil
		}
		elts = append(elts, e)
	}
	if !p.expectOp(")") {
		return nil
	}
	return &Tuple{Loc: at(pos), Elts: elts}
}

func (p *Parser) parseListDisplay() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume [

	list := &List{Loc: at(pos)}
	for !p.curIs("]") && !p.curTokenIs(TokenEOF) {
		e := p.parseTest()
		if e == nil {
			return nil
		}
		if p.curIs("for") {
			if len(list.Elts) > 0 {
				p.errorf("unexpected 'for' in list display")
				return nil
			}
			gens := p.parseComprehensions()
			if gens == nil || !p.expectOp("]") {
				return nil
			}
			return &ListComp{Loc: at(pos), Elt: e, Generators: gens}
		}
		list.Elts = append(list.Elts, e)
		if !p.curIs(",") {
			break
		}
		p.nextToken()
	}
	if !p.expectOp("]") {
		return nil
	}
	return list
}

// parseDictDisplay parses a dict or set display or comprehension.
func (p *Parser) parseDictDisplay() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume {

	if p.curIs("}") {
		p.nextToken()
		return &Dict{Loc: at(pos)}
	}
	first := p.parseTest()
	if first == nil {
		return nil
	}
	if !p.curIs(":") {
		return p.parseSetDisplay(pos, first)
	}
	p.nextToken()
	v := p.parseTest()
	if v == nil {
		return nil
	}
	if p.curIs("for") {
		gens := p.parseComprehensions()
		if gens == nil || !p.expectOp("}") {
			return nil
		}
		return &DictComp{Loc: at(pos), Key: first, Value: v, Generators: gens}
	}

	dict := &Dict{Loc: at(pos), Keys: []Expr{first}, Values: []Expr{v}}
	for p.curIs(",") {
		p.nextToken()
		if p.curIs("}") {
			break
		}
		k := p.parseTest()
		if k == nil || !p.expectOp(":") {
			return nil
		}
		v := p.parseTest()
		if v == nil {
			return nil
		}
		dict.Keys = append(dict.Keys, k)
		dict.Values = append(dict.Values, v)
	}
	if !p.expectOp("}") {
		return nil
	}
	return dict
}

func (p *Parser) parseSetDisplay(pos Position, first Expr) Expr {
	if p.curIs("for") {
		gens := p.parseComprehensions()
		if gens == nil || !p.expectOp("}") {
			return nil
		}
		return &SetComp{Loc: at(pos), Elt: first, Generators: gens}
	}

	set := &Set{Loc: at(pos), Elts: []Expr{first}}
	for p.curIs(",") {
		p.nextToken()
		if p.curIs("}") {
			break
		}
		e := p.parseTest()
		if e == nil {
			return nil
		}
		set.Elts = append(set.Elts, e)
	}
	if !p.expectOp("}") {
		return nil
	}
	return set
}

// parseComprehensions parses the for and if clauses that follow the
// element of a comprehension.
func (p *Parser) parseComprehensions() []*Comprehension {
	var gens []*Comprehension
	for p.curIs("for") {
		c := &Comprehension{Loc: at(p.curToken.Pos)}
		p.nextToken()
		if c.Target = p.parseExprList(); c.Target == nil || !p.expectOp("in") {
			return nil
		}
		if c.Iter = p.parseOrTest(); c.Iter == nil {
			return nil
		}
		for p.curIs("if") {
			p.nextToken()
			cond := p.parseOrTest()
			if cond == nil {
				return nil
			}
			c.Ifs = append(c.Ifs, cond)
		}
		gens = append(gens, c)
	}
	return gens
}
