package transform

import "github.com/chazu/tiersplit/syntax"

// Node constructors for synthesized code. Nodes are created without
// positions; the rewriters place them afterwards.

func name(id string) *syntax.Name {
	return &syntax.Name{ID: id}
}

func call(fn syntax.Expr, args ...syntax.Expr) *syntax.Call {
	return &syntax.Call{Func: fn, Args: args}
}

func callName(fn string, args ...syntax.Expr) *syntax.Call {
	return call(name(fn), args...)
}

func method(recv, attr string, args ...syntax.Expr) *syntax.Call {
	return call(&syntax.Attribute{Value: name(recv), Attr: attr}, args...)
}

func keyword(arg string, value syntax.Expr) *syntax.Keyword {
	return &syntax.Keyword{Arg: arg, Value: value}
}

func assign(target, value syntax.Expr) *syntax.Assign {
	return &syntax.Assign{Targets: []syntax.Expr{target}, Value: value}
}

func tuple(elts ...syntax.Expr) *syntax.Tuple {
	return &syntax.Tuple{Elts: elts}
}

func ifElse(test syntax.Expr, body, orelse []syntax.Stmt) *syntax.If {
	return &syntax.If{Test: test, Body: body, OrElse: orelse}
}

func stmts(s ...syntax.Stmt) []syntax.Stmt {
	return s
}
