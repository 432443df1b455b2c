package syntax

import (
	"fmt"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// Printer: regenerates host-language source from an AST
// ---------------------------------------------------------------------------

// Print renders node as source text. Modules and statements end with a
// newline; a lone expression does not.
func Print(node Node) string {
	p := &printer{buf: &strings.Builder{}}
	switch n := node.(type) {
	case *Module:
		p.printStmts(n.Body)
		return strings.TrimLeft(p.buf.String(), "\n")
	case Stmt:
		p.printStmt(n)
		return strings.TrimLeft(p.buf.String(), "\n") + "\n"
	case Expr:
		p.printExpr(n, precTuple)
	case *Keyword:
		p.printKeyword(n)
	}
	return p.buf.String()
}

// printer walks the AST and emits source.
type printer struct {
	indent int
	buf    *strings.Builder
}

func (p *printer) write(s string) {
	p.buf.WriteString(s)
}

// fill starts a new line at the current indentation.
func (p *printer) fill(s string) {
	if p.buf.Len() > 0 {
		p.buf.WriteByte('\n')
	}
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
	p.buf.WriteString(s)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *printer) printStmts(body []Stmt) {
	for _, s := range body {
		p.printStmt(s)
	}
	if p.indent == 0 && p.buf.Len() > 0 {
		p.buf.WriteByte('\n')
	}
}

// printSuite prints an indented block. An empty block prints as pass.
func (p *printer) printSuite(body []Stmt) {
	p.indent++
	if len(body) == 0 {
		p.fill("pass")
	}
	for _, s := range body {
		p.printStmt(s)
	}
	p.indent--
}

func (p *printer) printStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *FunctionDef:
		p.write("\n")
		for _, d := range s.Decorators {
			p.fill("@")
			p.printExpr(d, precTest)
		}
		p.fill("def " + s.Name + "(")
		p.printArguments(s.Args)
		p.write("):")
		p.printSuite(s.Body)

	case *ClassDef:
		p.write("\n")
		for _, d := range s.Decorators {
			p.fill("@")
			p.printExpr(d, precTest)
		}
		p.fill("class " + s.Name)
		if len(s.Bases) > 0 {
			p.write("(")
			p.printExprList(s.Bases, precTest)
			p.write(")")
		}
		p.write(":")
		p.printSuite(s.Body)

	case *Return:
		p.fill("return")
		if s.Value != nil {
			p.write(" ")
			p.printExpr(s.Value, precTuple)
		}

	case *Assign:
		p.fill("")
		for _, t := range s.Targets {
			p.printExpr(t, precTuple)
			p.write(" = ")
		}
		p.printExpr(s.Value, precTuple)

	case *AugAssign:
		p.fill("")
		p.printExpr(s.Target, precTuple)
		p.write(" " + s.Op + "= ")
		p.printExpr(s.Value, precTuple)

	case *If:
		p.fill("if ")
		p.printExpr(s.Test, precTest)
		p.write(":")
		p.printSuite(s.Body)
		orelse := s.OrElse
		// Collapse else: if ... into elif.
		for len(orelse) == 1 {
			elif, ok := orelse[0].(*If)
			if !ok {
				break
			}
			p.fill("elif ")
			p.printExpr(elif.Test, precTest)
			p.write(":")
			p.printSuite(elif.Body)
			orelse = elif.OrElse
		}
		if len(orelse) > 0 {
			p.fill("else:")
			p.printSuite(orelse)
		}

	case *While:
		p.fill("while ")
		p.printExpr(s.Test, precTest)
		p.write(":")
		p.printSuite(s.Body)
		if len(s.OrElse) > 0 {
			p.fill("else:")
			p.printSuite(s.OrElse)
		}

	case *For:
		p.fill("for ")
		p.printExpr(s.Target, precTuple)
		p.write(" in ")
		p.printExpr(s.Iter, precTuple)
		p.write(":")
		p.printSuite(s.Body)
		if len(s.OrElse) > 0 {
			p.fill("else:")
			p.printSuite(s.OrElse)
		}

	case *Try:
		p.fill("try:")
		p.printSuite(s.Body)
		for _, h := range s.Handlers {
			p.fill("except")
			if h.Type != nil {
				p.write(" ")
				p.printExpr(h.Type, precTest)
				if h.Name != "" {
					p.write(" as " + h.Name)
				}
			}
			p.write(":")
			p.printSuite(h.Body)
		}
		if len(s.OrElse) > 0 {
			p.fill("else:")
			p.printSuite(s.OrElse)
		}
		if len(s.Finally) > 0 {
			p.fill("finally:")
			p.printSuite(s.Finally)
		}

	case *Raise:
		p.fill("raise")
		if s.Exc != nil {
			p.write(" ")
			p.printExpr(s.Exc, precTest)
		}
		if s.Inst != nil {
			p.write(", ")
			p.printExpr(s.Inst, precTest)
		}
		if s.Tback != nil {
			p.write(", ")
			p.printExpr(s.Tback, precTest)
		}

	case *With:
		p.fill("with ")
		for i, item := range s.Items {
			if i > 0 {
				p.write(", ")
			}
			p.printExpr(item.Context, precTest)
			if item.Vars != nil {
				p.write(" as ")
				p.printExpr(item.Vars, precBitOr)
			}
		}
		p.write(":")
		p.printSuite(s.Body)

	case *Exec:
		p.fill("exec ")
		p.printExpr(s.Body, precBitOr)
		if s.Globals != nil {
			p.write(" in ")
			p.printExpr(s.Globals, precTest)
			if s.Locals != nil {
				p.write(", ")
				p.printExpr(s.Locals, precTest)
			}
		}

	case *Assert:
		p.fill("assert ")
		p.printExpr(s.Test, precTest)
		if s.Msg != nil {
			p.write(", ")
			p.printExpr(s.Msg, precTest)
		}

	case *Delete:
		p.fill("del ")
		p.printExprList(s.Targets, precTest)

	case *Import:
		p.fill("import " + formatAliases(s.Names))

	case *ImportFrom:
		p.fill("from " + strings.Repeat(".", s.Level) + s.Module + " import " + formatAliases(s.Names))

	case *Global:
		p.fill("global " + strings.Join(s.Names, ", "))

	case *PrintStmt:
		p.fill("print")
		sep := " "
		if s.Dest != nil {
			p.write(" >>")
			p.printExpr(s.Dest, precTest)
			sep = ", "
		}
		for _, v := range s.Values {
			p.write(sep)
			p.printExpr(v, precTest)
			sep = ", "
		}
		if !s.NewLine && len(s.Values) > 0 {
			p.write(",")
		}

	case *ExprStmt:
		p.fill("")
		p.printExpr(s.Value, precTuple)

	case *Pass:
		p.fill("pass")
	case *Break:
		p.fill("break")
	case *Continue:
		p.fill("continue")
	}
}

func (p *printer) printArguments(a *Arguments) {
	if a == nil {
		return
	}
	var parts []string
	firstDefault := len(a.Args) - len(a.Defaults)
	for i, name := range a.Args {
		if i >= firstDefault {
			parts = append(parts, name+"="+exprString(a.Defaults[i-firstDefault], precTest))
		} else {
			parts = append(parts, name)
		}
	}
	if a.Vararg != "" {
		parts = append(parts, "*"+a.Vararg)
	}
	if a.Kwarg != "" {
		parts = append(parts, "**"+a.Kwarg)
	}
	p.write(strings.Join(parts, ", "))
}

func formatAliases(names []Alias) string {
	parts := make([]string, len(names))
	for i, a := range names {
		parts[i] = a.Name
		if a.AsName != "" {
			parts[i] += " as " + a.AsName
		}
	}
	return strings.Join(parts, ", ")
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Precedence levels, lowest binding first.
const (
	precTuple = iota
	precTest
	precOr
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precArith
	precTerm
	precFactor
	precPower
	precAtom
)

var binOpPrecedence = map[string]int{
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"<<": precShift,
	">>": precShift,
	"+":  precArith,
	"-":  precArith,
	"*":  precTerm,
	"/":  precTerm,
	"//": precTerm,
	"%":  precTerm,
	"@":  precTerm,
	"**": precPower,
}

func exprPrecedence(expr Expr) int {
	switch e := expr.(type) {
	case *Tuple:
		if len(e.Elts) == 0 {
			return precAtom
		}
		return precTuple
	case *IfExp, *Lambda:
		return precTest
	case *BoolOp:
		if e.Op == "or" {
			return precOr
		}
		return precAnd
	case *UnaryOp:
		if e.Op == "not" {
			return precNot
		}
		return precFactor
	case *Compare:
		return precCompare
	case *BinOp:
		if prec, ok := binOpPrecedence[e.Op]; ok {
			return prec
		}
		return precArith
	default:
		return precAtom
	}
}

// printExpr prints an expression, adding parentheses if the expression
// binds more loosely than its context requires.
func (p *printer) printExpr(expr Expr, minPrecedence int) {
	if exprPrecedence(expr) < minPrecedence {
		p.write("(")
		p.printBareExpr(expr)
		p.write(")")
		return
	}
	p.printBareExpr(expr)
}

func (p *printer) printExprList(exprs []Expr, prec int) {
	for i, e := range exprs {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(e, prec)
	}
}

func (p *printer) printBareExpr(expr Expr) {
	switch e := expr.(type) {
	case *Name:
		p.write(e.ID)
	case *Num:
		p.write(e.Value)
	case *Str:
		p.write(Quote(e.Value))
	case *NameConstant:
		p.write(e.Value)

	case *Attribute:
		if _, ok := e.Value.(*Num); ok {
			p.write("(")
			p.printBareExpr(e.Value)
			p.write(")")
		} else {
			p.printExpr(e.Value, precAtom)
		}
		p.write("." + e.Attr)

	case *Subscript:
		p.printExpr(e.Value, precAtom)
		p.write("[")
		if t, ok := e.Index.(*Tuple); ok && len(t.Elts) > 0 {
			p.printTupleElts(t.Elts)
		} else {
			p.printExpr(e.Index, precTest)
		}
		p.write("]")

	case *Slice:
		if e.Lower != nil {
			p.printExpr(e.Lower, precTest)
		}
		p.write(":")
		if e.Upper != nil {
			p.printExpr(e.Upper, precTest)
		}
		if e.Step != nil {
			p.write(":")
			p.printExpr(e.Step, precTest)
		}

	case *Call:
		p.printExpr(e.Func, precAtom)
		if len(e.Args) == 1 && len(e.Keywords) == 0 {
			if g, ok := e.Args[0].(*GeneratorExp); ok {
				p.printBareExpr(g)
				return
			}
		}
		p.write("(")
		first := true
		for _, a := range e.Args {
			if !first {
				p.write(", ")
			}
			first = false
			p.printExpr(a, precTest)
		}
		for _, kw := range e.Keywords {
			if !first {
				p.write(", ")
			}
			first = false
			p.printKeyword(kw)
		}
		p.write(")")

	case *Starred:
		p.write("*")
		p.printExpr(e.Value, precTest)

	case *BinOp:
		prec := exprPrecedence(e)
		if e.Op == "**" {
			p.printExpr(e.Left, precAtom)
			p.write(" ** ")
			p.printExpr(e.Right, precFactor)
			return
		}
		p.printExpr(e.Left, prec)
		p.write(" " + e.Op + " ")
		p.printExpr(e.Right, prec+1)

	case *UnaryOp:
		if e.Op == "not" {
			p.write("not ")
			p.printExpr(e.Operand, precNot)
			return
		}
		p.write(e.Op)
		p.printExpr(e.Operand, precFactor)

	case *BoolOp:
		prec := exprPrecedence(e)
		for i, v := range e.Values {
			if i > 0 {
				p.write(" " + e.Op + " ")
			}
			p.printExpr(v, prec+1)
		}

	case *Compare:
		p.printExpr(e.Left, precBitOr)
		for i, op := range e.Ops {
			p.write(" " + op + " ")
			p.printExpr(e.Comparators[i], precBitOr)
		}

	case *IfExp:
		p.printExpr(e.Body, precOr)
		p.write(" if ")
		p.printExpr(e.Test, precOr)
		p.write(" else ")
		p.printExpr(e.OrElse, precTest)

	case *Tuple:
		if len(e.Elts) == 0 {
			p.write("()")
			return
		}
		p.printTupleElts(e.Elts)

	case *List:
		p.write("[")
		p.printExprList(e.Elts, precTest)
		p.write("]")

	case *Dict:
		p.write("{")
		for i := range e.Keys {
			if i > 0 {
				p.write(", ")
			}
			p.printExpr(e.Keys[i], precTest)
			p.write(": ")
			p.printExpr(e.Values[i], precTest)
		}
		p.write("}")

	case *Set:
		if len(e.Elts) == 0 {
			p.write("set()")
			return
		}
		p.write("{")
		p.printExprList(e.Elts, precTest)
		p.write("}")

	case *Lambda:
		p.write("lambda")
		if a := e.Args; a != nil && (len(a.Args) > 0 || a.Vararg != "" || a.Kwarg != "") {
			p.write(" ")
			p.printArguments(a)
		}
		p.write(": ")
		p.printExpr(e.Body, precTest)

	case *ListComp:
		p.write("[")
		p.printExpr(e.Elt, precTest)
		p.printComprehensions(e.Generators)
		p.write("]")

	case *GeneratorExp:
		p.write("(")
		p.printExpr(e.Elt, precTest)
		p.printComprehensions(e.Generators)
		p.write(")")

	case *SetComp:
		p.write("{")
		p.printExpr(e.Elt, precTest)
		p.printComprehensions(e.Generators)
		p.write("}")

	case *DictComp:
		p.write("{")
		p.printExpr(e.Key, precTest)
		p.write(": ")
		p.printExpr(e.Value, precTest)
		p.printComprehensions(e.Generators)
		p.write("}")

	case *Yield:
		// Parenthesized everywhere so it is valid in any expression slot.
		p.write("(yield")
		if e.Value != nil {
			p.write(" ")
			p.printExpr(e.Value, precTuple)
		}
		p.write(")")
	}
}

func (p *printer) printComprehensions(gens []*Comprehension) {
	for _, c := range gens {
		p.write(" for ")
		p.printExpr(c.Target, precTuple)
		p.write(" in ")
		p.printExpr(c.Iter, precOr)
		for _, cond := range c.Ifs {
			p.write(" if ")
			p.printExpr(cond, precOr)
		}
	}
}

func (p *printer) printTupleElts(elts []Expr) {
	p.printExprList(elts, precTest)
	if len(elts) == 1 {
		p.write(",")
	}
}

func (p *printer) printKeyword(kw *Keyword) {
	if kw.Arg == "" {
		p.write("**")
	} else {
		p.write(kw.Arg + "=")
	}
	p.printExpr(kw.Value, precTest)
}

// exprString formats an expression with precedence wrapping to a string.
func exprString(expr Expr, minPrec int) string {
	p := &printer{buf: &strings.Builder{}}
	p.printExpr(expr, minPrec)
	return p.buf.String()
}

// ---------------------------------------------------------------------------
// String literals
// ---------------------------------------------------------------------------

// Quote renders s as a string literal, preferring single quotes.
func Quote(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var sb strings.Builder
	sb.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == rune(quote) || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r < 0x100 && !unicode.IsPrint(r):
			fmt.Fprintf(&sb, `\x%02x`, r)
		case !unicode.IsPrint(r) && r < 0x10000:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}
