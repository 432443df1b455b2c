package syntax

import (
	"fmt"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Module {
	t.Helper()
	mod, err := ParseModule(src)
	if err != nil {
		t.Fatalf("ParseModule(%q): %v", src, err)
	}
	return mod
}

func mustParseExpr(t *testing.T, src string) Expr {
	t.Helper()
	expr, err := ParseExpr(src)
	if err != nil {
		t.Fatalf("ParseExpr(%q): %v", src, err)
	}
	return expr
}

func TestParserAtoms(t *testing.T) {
	tests := []struct {
		input string
		check func(Expr) bool
		desc  string
	}{
		{"42", func(e Expr) bool { return e.(*Num).Value == "42" }, "integer"},
		{"'hi' 'there'", func(e Expr) bool { return e.(*Str).Value == "hithere" }, "concatenated strings"},
		{"None", func(e Expr) bool { return e.(*NameConstant).Value == "None" }, "None"},
		{"foo", func(e Expr) bool { return e.(*Name).ID == "foo" }, "name"},
		{"()", func(e Expr) bool { return len(e.(*Tuple).Elts) == 0 }, "empty tuple"},
		{"(1,)", func(e Expr) bool { return len(e.(*Tuple).Elts) == 1 }, "singleton tuple"},
		{"(x)", func(e Expr) bool { return e.(*Name).ID == "x" }, "parenthesized"},
		{"[1, 2]", func(e Expr) bool { return len(e.(*List).Elts) == 2 }, "list"},
		{"{'a': 1}", func(e Expr) bool { return len(e.(*Dict).Keys) == 1 }, "dict"},
		{"a, b", func(e Expr) bool { return len(e.(*Tuple).Elts) == 2 }, "bare tuple"},
	}

	for _, tc := range tests {
		p := NewParser(tc.input)
		expr := p.ParseExpression()
		if len(p.Errors()) > 0 {
			t.Errorf("%s: parse errors: %v", tc.desc, p.Errors())
			continue
		}
		if expr == nil {
			t.Errorf("%s: nil expression", tc.desc)
			continue
		}
		if !tc.check(expr) {
			t.Errorf("%s: check failed for %q", tc.desc, tc.input)
		}
	}
}

func TestParserPrecedence(t *testing.T) {
	expr := mustParseExpr(t, "a + b * c")
	add, ok := expr.(*BinOp)
	if !ok || add.Op != "+" {
		t.Fatalf("got %T, want BinOp +", expr)
	}
	if mul, ok := add.Right.(*BinOp); !ok || mul.Op != "*" {
		t.Errorf("right = %T, want BinOp *", add.Right)
	}

	expr = mustParseExpr(t, "not a == b and c")
	and, ok := expr.(*BoolOp)
	if !ok || and.Op != "and" {
		t.Fatalf("got %T, want BoolOp and", expr)
	}
	not, ok := and.Values[0].(*UnaryOp)
	if !ok || not.Op != "not" {
		t.Fatalf("first value = %T, want UnaryOp not", and.Values[0])
	}
	if _, ok := not.Operand.(*Compare); !ok {
		t.Errorf("not operand = %T, want Compare", not.Operand)
	}

	expr = mustParseExpr(t, "-x ** 2")
	neg, ok := expr.(*UnaryOp)
	if !ok || neg.Op != "-" {
		t.Fatalf("got %T, want UnaryOp -", expr)
	}
	if pow, ok := neg.Operand.(*BinOp); !ok || pow.Op != "**" {
		t.Errorf("operand = %T, want BinOp **", neg.Operand)
	}
}

func TestParserComparisons(t *testing.T) {
	expr := mustParseExpr(t, "a < b is not c not in d")
	cmp, ok := expr.(*Compare)
	if !ok {
		t.Fatalf("got %T, want Compare", expr)
	}
	want := []string{"<", "is not", "not in"}
	if strings.Join(cmp.Ops, ",") != strings.Join(want, ",") {
		t.Errorf("ops = %v, want %v", cmp.Ops, want)
	}
}

func TestParserCallKeywords(t *testing.T) {
	expr := mustParseExpr(t, "self.can_enter_tier1_branch(true_path=pc+1, false_path=target, cond=c)")
	call, ok := expr.(*Call)
	if !ok {
		t.Fatalf("got %T, want Call", expr)
	}
	attr, ok := call.Func.(*Attribute)
	if !ok || attr.Attr != "can_enter_tier1_branch" {
		t.Fatalf("func = %T, want Attribute", call.Func)
	}
	if len(call.Args) != 0 || len(call.Keywords) != 3 {
		t.Fatalf("args = %d, keywords = %d", len(call.Args), len(call.Keywords))
	}
	if call.Keywords[0].Arg != "true_path" {
		t.Errorf("first keyword = %q", call.Keywords[0].Arg)
	}
	if _, ok := call.Keywords[0].Value.(*BinOp); !ok {
		t.Errorf("true_path value = %T, want BinOp", call.Keywords[0].Value)
	}

	expr = mustParseExpr(t, "f(a, *args, **kw)")
	call = expr.(*Call)
	if len(call.Args) != 2 || len(call.Keywords) != 1 || call.Keywords[0].Arg != "" {
		t.Errorf("f(a, *args, **kw) parsed as %d args, %d keywords", len(call.Args), len(call.Keywords))
	}
	if _, ok := call.Args[1].(*Starred); !ok {
		t.Errorf("second arg = %T, want Starred", call.Args[1])
	}
}

func TestParserSubscripts(t *testing.T) {
	tests := []struct {
		input string
		check func(Expr) bool
	}{
		{"a[0]", func(e Expr) bool { _, ok := e.(*Num); return ok }},
		{"a[1:2]", func(e Expr) bool { s, ok := e.(*Slice); return ok && s.Lower != nil && s.Upper != nil && s.Step == nil }},
		{"a[::2]", func(e Expr) bool { s, ok := e.(*Slice); return ok && s.Lower == nil && s.Upper == nil && s.Step != nil }},
		{"a[:]", func(e Expr) bool { s, ok := e.(*Slice); return ok && s.Lower == nil && s.Upper == nil }},
		{"a[i, j]", func(e Expr) bool { tup, ok := e.(*Tuple); return ok && len(tup.Elts) == 2 }},
	}
	for _, tc := range tests {
		sub, ok := mustParseExpr(t, tc.input).(*Subscript)
		if !ok {
			t.Errorf("%s: not a Subscript", tc.input)
			continue
		}
		if !tc.check(sub.Index) {
			t.Errorf("%s: index = %T", tc.input, sub.Index)
		}
	}
}

func TestParserStatements(t *testing.T) {
	src := `import os, sys as system
from ..pkg import a as b, c
x = y = 1
x += 2
del a[0], b
global g
assert x, 'msg'
raise ValueError('bad')
print >>f, 'a', b,
print
`
	mod := mustParse(t, src)
	want := []string{"*syntax.Import", "*syntax.ImportFrom", "*syntax.Assign", "*syntax.AugAssign",
		"*syntax.Delete", "*syntax.Global", "*syntax.Assert", "*syntax.Raise", "*syntax.PrintStmt", "*syntax.PrintStmt"}
	if len(mod.Body) != len(want) {
		t.Fatalf("got %d statements, want %d", len(mod.Body), len(want))
	}
	for i, s := range mod.Body {
		if got := fmt.Sprintf("%T", s); got != want[i] {
			t.Errorf("statement %d = %s, want %s", i, got, want[i])
		}
	}

	from := mod.Body[1].(*ImportFrom)
	if from.Level != 2 || from.Module != "pkg" || from.Names[0].AsName != "b" {
		t.Errorf("from import = %+v", from)
	}
	assign := mod.Body[2].(*Assign)
	if len(assign.Targets) != 2 {
		t.Errorf("chained assign has %d targets, want 2", len(assign.Targets))
	}
	if aug := mod.Body[3].(*AugAssign); aug.Op != "+" {
		t.Errorf("augassign op = %q, want +", aug.Op)
	}
	if del := mod.Body[4].(*Delete); len(del.Targets) != 2 {
		t.Errorf("del has %d targets, want 2", len(del.Targets))
	}
	pr := mod.Body[8].(*PrintStmt)
	if pr.Dest == nil || len(pr.Values) != 2 || pr.NewLine {
		t.Errorf("print = %+v", pr)
	}
}

func TestParserCompoundStatements(t *testing.T) {
	src := `@jit.unroll_safe
def interp(self, pc=0, *args, **kw):
    while True:
        if a:
            pass
        elif b:
            break
        else:
            continue
    for i, x in enumerate(xs):
        f(x)
    try:
        g()
    except (A, B) as e:
        h()
    except:
        raise
    finally:
        done()

class Frame(object):
    x = 1
`
	mod := mustParse(t, src)
	if len(mod.Body) != 2 {
		t.Fatalf("got %d top-level statements, want 2", len(mod.Body))
	}

	fn, ok := mod.Body[0].(*FunctionDef)
	if !ok {
		t.Fatalf("got %T, want FunctionDef", mod.Body[0])
	}
	if fn.Name != "interp" || len(fn.Decorators) != 1 {
		t.Errorf("def = %s with %d decorators", fn.Name, len(fn.Decorators))
	}
	if fn.Args.Vararg != "args" || fn.Args.Kwarg != "kw" || len(fn.Args.Args) != 2 || len(fn.Args.Defaults) != 1 {
		t.Errorf("arguments = %+v", fn.Args)
	}
	if len(fn.Body) != 3 {
		t.Fatalf("body has %d statements, want 3", len(fn.Body))
	}

	loop := fn.Body[0].(*While)
	ifStmt := loop.Body[0].(*If)
	elif, ok := ifStmt.OrElse[0].(*If)
	if !ok || len(ifStmt.OrElse) != 1 {
		t.Fatalf("elif not nested in OrElse")
	}
	if _, ok := elif.OrElse[0].(*Continue); !ok {
		t.Errorf("else body = %T, want Continue", elif.OrElse[0])
	}

	forStmt := fn.Body[1].(*For)
	if tup, ok := forStmt.Target.(*Tuple); !ok || len(tup.Elts) != 2 {
		t.Errorf("for target = %T", forStmt.Target)
	}

	try := fn.Body[2].(*Try)
	if len(try.Handlers) != 2 || try.Handlers[0].Name != "e" || try.Handlers[1].Type != nil || len(try.Finally) != 1 {
		t.Errorf("try = %+v", try)
	}

	cls := mod.Body[1].(*ClassDef)
	if cls.Name != "Frame" || len(cls.Bases) != 1 {
		t.Errorf("class = %+v", cls)
	}
}

func TestParserSimpleSuites(t *testing.T) {
	mod := mustParse(t, "if x: a = 1; b = 2\nelse: pass\n")
	ifStmt := mod.Body[0].(*If)
	if len(ifStmt.Body) != 2 || len(ifStmt.OrElse) != 1 {
		t.Errorf("body %d, orelse %d", len(ifStmt.Body), len(ifStmt.OrElse))
	}
}

func TestParserPositions(t *testing.T) {
	src := "def f():\n    x = a.b(c)\n"
	mod := mustParse(t, src)
	fn := mod.Body[0].(*FunctionDef)
	if fn.Pos() != (Position{Line: 1, Column: 1}) {
		t.Errorf("def at %v", fn.Pos())
	}
	assign := fn.Body[0].(*Assign)
	if assign.Pos() != (Position{Line: 2, Column: 5}) {
		t.Errorf("assign at %v, want 2:5", assign.Pos())
	}
	call := assign.Value.(*Call)
	if call.Pos() != (Position{Line: 2, Column: 9}) {
		t.Errorf("call at %v, want 2:9", call.Pos())
	}
	if arg := call.Args[0]; arg.Pos() != (Position{Line: 2, Column: 13}) {
		t.Errorf("arg at %v, want 2:13", arg.Pos())
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x = = 1\n", "line 1"},
		{"def f(:\n    pass\n", "expected name"},
		{"if x:\npass\n", "expected an indented block"},
		{"try:\n    pass\n", "expected 'except' or 'finally'"},
		{"f(a for a in b, c)\n", "must be parenthesized"},
		{"y = [1, i for i in x]\n", "unexpected 'for'"},
		{"f(yield)\n", "unexpected KEYWORD"},
		{"with:\n    pass\n", "line 1"},
		{"a\n    b\n", "unexpected indent"},
	}
	for _, tc := range tests {
		_, err := ParseModule(tc.input)
		if err == nil {
			t.Errorf("%q: expected error", tc.input)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%q: error %q does not mention %q", tc.input, err, tc.want)
		}
	}
}

func TestParserComprehensions(t *testing.T) {
	tests := []struct {
		input string
		check func(Expr) bool
		desc  string
	}{
		{"[x * 2 for x in ys if x]", func(e Expr) bool {
			lc := e.(*ListComp)
			return len(lc.Generators) == 1 && len(lc.Generators[0].Ifs) == 1
		}, "list comprehension"},
		{"[a for a, b in xs for c in a if b if c]", func(e Expr) bool {
			lc := e.(*ListComp)
			_, tuple := lc.Generators[0].Target.(*Tuple)
			return tuple && len(lc.Generators) == 2 && len(lc.Generators[1].Ifs) == 2
		}, "nested clauses"},
		{"(a for a in b)", func(e Expr) bool { return len(e.(*GeneratorExp).Generators) == 1 }, "generator"},
		{"f(a for a in b)", func(e Expr) bool {
			_, ok := e.(*Call).Args[0].(*GeneratorExp)
			return ok
		}, "generator argument"},
		{"{1, 2}", func(e Expr) bool { return len(e.(*Set).Elts) == 2 }, "set"},
		{"{x for x in y}", func(e Expr) bool { return e.(*SetComp).Elt.(*Name).ID == "x" }, "set comprehension"},
		{"{k: v for k, v in items}", func(e Expr) bool { return e.(*DictComp).Value.(*Name).ID == "v" }, "dict comprehension"},
		{"{}", func(e Expr) bool { return len(e.(*Dict).Keys) == 0 }, "empty dict"},
		{"lambda a, b: a + b", func(e Expr) bool {
			l := e.(*Lambda)
			_, ok := l.Body.(*BinOp)
			return ok && len(l.Args.Args) == 2
		}, "lambda"},
		{"lambda: 1", func(e Expr) bool { return len(e.(*Lambda).Args.Args) == 0 }, "lambda without parameters"},
		{"lambda x=1, *a, **k: x", func(e Expr) bool {
			a := e.(*Lambda).Args
			return len(a.Defaults) == 1 && a.Vararg == "a" && a.Kwarg == "k"
		}, "lambda with defaults"},
		{"[x for x in ys if x > (lambda: 0)()]", func(e Expr) bool {
			_, ok := e.(*ListComp).Generators[0].Ifs[0].(*Compare)
			return ok
		}, "lambda inside a condition"},
	}

	for _, tc := range tests {
		p := NewParser(tc.input)
		expr := p.ParseExpression()
		if len(p.Errors()) > 0 {
			t.Errorf("%s: parse errors: %v", tc.desc, p.Errors())
			continue
		}
		if expr == nil || !tc.check(expr) {
			t.Errorf("%s: check failed for %q", tc.desc, tc.input)
		}
	}
}

func TestParserPython2Statements(t *testing.T) {
	src := `def gen(code, ns):
    with open(p) as fh, lock:
        yield 1
    x = (yield)
    y = yield x, 2
    raise ValueError, 'x'
    raise E, v, tb
    exec code in ns
    exec code in ns, {}
    exec code
    exec(code)
`
	mod := mustParse(t, src)
	body := mod.Body[0].(*FunctionDef).Body
	if len(body) != 9 {
		t.Fatalf("got %d statements, want 9", len(body))
	}

	with := body[0].(*With)
	if len(with.Items) != 2 || with.Items[0].Vars.(*Name).ID != "fh" || with.Items[1].Vars != nil {
		t.Errorf("with items = %+v", with.Items)
	}
	if y, ok := with.Body[0].(*ExprStmt).Value.(*Yield); !ok || y.Value.(*Num).Value != "1" {
		t.Errorf("with body = %+v", with.Body[0])
	}

	if y, ok := body[1].(*Assign).Value.(*Yield); !ok || y.Value != nil {
		t.Errorf("parenthesized yield = %T", body[1].(*Assign).Value)
	}
	if y, ok := body[2].(*Assign).Value.(*Yield); !ok {
		t.Errorf("bare yield = %T", body[2].(*Assign).Value)
	} else if tup, ok := y.Value.(*Tuple); !ok || len(tup.Elts) != 2 {
		t.Errorf("yield value = %T", y.Value)
	}

	if r := body[3].(*Raise); r.Inst.(*Str).Value != "x" || r.Tback != nil {
		t.Errorf("raise = %+v", r)
	}
	if r := body[4].(*Raise); r.Tback.(*Name).ID != "tb" {
		t.Errorf("raise = %+v", r)
	}

	if ex := body[5].(*Exec); ex.Globals.(*Name).ID != "ns" || ex.Locals != nil {
		t.Errorf("exec = %+v", ex)
	}
	if ex := body[6].(*Exec); ex.Locals == nil {
		t.Errorf("exec locals missing: %+v", ex)
	}
	if ex := body[7].(*Exec); ex.Globals != nil {
		t.Errorf("exec = %+v", ex)
	}
	if _, ok := body[8].(*ExprStmt).Value.(*Call); !ok {
		t.Errorf("exec(code) = %T, want a call", body[8].(*ExprStmt).Value)
	}
}

func TestParserYieldIsKeyword(t *testing.T) {
	mod := mustParse(t, "x = (yield)\n")
	if _, ok := mod.Body[0].(*Assign).Value.(*Name); ok {
		t.Error("yield parsed as a name")
	}
}
