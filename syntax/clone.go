package syntax

// Clone returns a deep copy of node, positions included.
func Clone(node Node) Node {
	switch n := node.(type) {
	case nil:
		return nil
	case *Module:
		return &Module{Loc: n.Loc, Body: cloneStmts(n.Body)}
	case *Arguments:
		return cloneArguments(n)
	case *Keyword:
		return cloneKeyword(n)
	case *ExceptHandler:
		return cloneHandler(n)
	case *Comprehension:
		return cloneComprehension(n)
	case *WithItem:
		return cloneWithItem(n)
	case Expr:
		return CloneExpr(n)
	case Stmt:
		return CloneStmt(n)
	}
	return nil
}

// CloneExpr returns a deep copy of an expression.
func CloneExpr(expr Expr) Expr {
	switch e := expr.(type) {
	case nil:
		return nil
	case *Name:
		c := *e
		return &c
	case *Num:
		c := *e
		return &c
	case *Str:
		c := *e
		return &c
	case *NameConstant:
		c := *e
		return &c
	case *Attribute:
		return &Attribute{Loc: e.Loc, Value: CloneExpr(e.Value), Attr: e.Attr}
	case *Subscript:
		return &Subscript{Loc: e.Loc, Value: CloneExpr(e.Value), Index: CloneExpr(e.Index)}
	case *Slice:
		return &Slice{Loc: e.Loc, Lower: CloneExpr(e.Lower), Upper: CloneExpr(e.Upper), Step: CloneExpr(e.Step)}
	case *Call:
		kws := make([]*Keyword, len(e.Keywords))
		for i, kw := range e.Keywords {
			kws[i] = cloneKeyword(kw)
		}
		return &Call{Loc: e.Loc, Func: CloneExpr(e.Func), Args: cloneExprs(e.Args), Keywords: kws}
	case *Starred:
		return &Starred{Loc: e.Loc, Value: CloneExpr(e.Value)}
	case *BinOp:
		return &BinOp{Loc: e.Loc, Left: CloneExpr(e.Left), Op: e.Op, Right: CloneExpr(e.Right)}
	case *UnaryOp:
		return &UnaryOp{Loc: e.Loc, Op: e.Op, Operand: CloneExpr(e.Operand)}
	case *BoolOp:
		return &BoolOp{Loc: e.Loc, Op: e.Op, Values: cloneExprs(e.Values)}
	case *Compare:
		return &Compare{
			Loc:         e.Loc,
			Left:        CloneExpr(e.Left),
			Ops:         append([]string(nil), e.Ops...),
			Comparators: cloneExprs(e.Comparators),
		}
	case *IfExp:
		return &IfExp{Loc: e.Loc, Test: CloneExpr(e.Test), Body: CloneExpr(e.Body), OrElse: CloneExpr(e.OrElse)}
	case *Tuple:
		return &Tuple{Loc: e.Loc, Elts: cloneExprs(e.Elts)}
	case *List:
		return &List{Loc: e.Loc, Elts: cloneExprs(e.Elts)}
	case *Dict:
		return &Dict{Loc: e.Loc, Keys: cloneExprs(e.Keys), Values: cloneExprs(e.Values)}
	case *Set:
		return &Set{Loc: e.Loc, Elts: cloneExprs(e.Elts)}
	case *Lambda:
		return &Lambda{Loc: e.Loc, Args: cloneArguments(e.Args), Body: CloneExpr(e.Body)}
	case *ListComp:
		return &ListComp{Loc: e.Loc, Elt: CloneExpr(e.Elt), Generators: cloneComprehensions(e.Generators)}
	case *GeneratorExp:
		return &GeneratorExp{Loc: e.Loc, Elt: CloneExpr(e.Elt), Generators: cloneComprehensions(e.Generators)}
	case *SetComp:
		return &SetComp{Loc: e.Loc, Elt: CloneExpr(e.Elt), Generators: cloneComprehensions(e.Generators)}
	case *DictComp:
		return &DictComp{
			Loc:        e.Loc,
			Key:        CloneExpr(e.Key),
			Value:      CloneExpr(e.Value),
			Generators: cloneComprehensions(e.Generators),
		}
	case *Yield:
		return &Yield{Loc: e.Loc, Value: CloneExpr(e.Value)}
	}
	return nil
}

// CloneStmt returns a deep copy of a statement.
func CloneStmt(stmt Stmt) Stmt {
	switch s := stmt.(type) {
	case nil:
		return nil
	case *FunctionDef:
		return &FunctionDef{
			Loc:        s.Loc,
			Name:       s.Name,
			Args:       cloneArguments(s.Args),
			Body:       cloneStmts(s.Body),
			Decorators: cloneExprs(s.Decorators),
		}
	case *ClassDef:
		return &ClassDef{
			Loc:        s.Loc,
			Name:       s.Name,
			Bases:      cloneExprs(s.Bases),
			Body:       cloneStmts(s.Body),
			Decorators: cloneExprs(s.Decorators),
		}
	case *Return:
		return &Return{Loc: s.Loc, Value: CloneExpr(s.Value)}
	case *Assign:
		return &Assign{Loc: s.Loc, Targets: cloneExprs(s.Targets), Value: CloneExpr(s.Value)}
	case *AugAssign:
		return &AugAssign{Loc: s.Loc, Target: CloneExpr(s.Target), Op: s.Op, Value: CloneExpr(s.Value)}
	case *If:
		return &If{Loc: s.Loc, Test: CloneExpr(s.Test), Body: cloneStmts(s.Body), OrElse: cloneStmts(s.OrElse)}
	case *While:
		return &While{Loc: s.Loc, Test: CloneExpr(s.Test), Body: cloneStmts(s.Body), OrElse: cloneStmts(s.OrElse)}
	case *For:
		return &For{
			Loc:    s.Loc,
			Target: CloneExpr(s.Target),
			Iter:   CloneExpr(s.Iter),
			Body:   cloneStmts(s.Body),
			OrElse: cloneStmts(s.OrElse),
		}
	case *Try:
		handlers := make([]*ExceptHandler, len(s.Handlers))
		for i, h := range s.Handlers {
			handlers[i] = cloneHandler(h)
		}
		return &Try{
			Loc:      s.Loc,
			Body:     cloneStmts(s.Body),
			Handlers: handlers,
			OrElse:   cloneStmts(s.OrElse),
			Finally:  cloneStmts(s.Finally),
		}
	case *Raise:
		return &Raise{Loc: s.Loc, Exc: CloneExpr(s.Exc), Inst: CloneExpr(s.Inst), Tback: CloneExpr(s.Tback)}
	case *With:
		items := make([]*WithItem, len(s.Items))
		for i, item := range s.Items {
			items[i] = cloneWithItem(item)
		}
		return &With{Loc: s.Loc, Items: items, Body: cloneStmts(s.Body)}
	case *Exec:
		return &Exec{Loc: s.Loc, Body: CloneExpr(s.Body), Globals: CloneExpr(s.Globals), Locals: CloneExpr(s.Locals)}
	case *Assert:
		return &Assert{Loc: s.Loc, Test: CloneExpr(s.Test), Msg: CloneExpr(s.Msg)}
	case *Delete:
		return &Delete{Loc: s.Loc, Targets: cloneExprs(s.Targets)}
	case *Import:
		return &Import{Loc: s.Loc, Names: append([]Alias(nil), s.Names...)}
	case *ImportFrom:
		return &ImportFrom{Loc: s.Loc, Module: s.Module, Names: append([]Alias(nil), s.Names...), Level: s.Level}
	case *Global:
		return &Global{Loc: s.Loc, Names: append([]string(nil), s.Names...)}
	case *PrintStmt:
		return &PrintStmt{Loc: s.Loc, Dest: CloneExpr(s.Dest), Values: cloneExprs(s.Values), NewLine: s.NewLine}
	case *ExprStmt:
		return &ExprStmt{Loc: s.Loc, Value: CloneExpr(s.Value)}
	case *Pass:
		return &Pass{Loc: s.Loc}
	case *Break:
		return &Break{Loc: s.Loc}
	case *Continue:
		return &Continue{Loc: s.Loc}
	}
	return nil
}

func cloneExprs(es []Expr) []Expr {
	if es == nil {
		return nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = CloneExpr(e)
	}
	return out
}

func cloneStmts(ss []Stmt) []Stmt {
	if ss == nil {
		return nil
	}
	out := make([]Stmt, len(ss))
	for i, s := range ss {
		out[i] = CloneStmt(s)
	}
	return out
}

func cloneKeyword(kw *Keyword) *Keyword {
	if kw == nil {
		return nil
	}
	return &Keyword{Loc: kw.Loc, Arg: kw.Arg, Value: CloneExpr(kw.Value)}
}

func cloneArguments(a *Arguments) *Arguments {
	if a == nil {
		return nil
	}
	return &Arguments{
		Loc:      a.Loc,
		Args:     append([]string(nil), a.Args...),
		Defaults: cloneExprs(a.Defaults),
		Vararg:   a.Vararg,
		Kwarg:    a.Kwarg,
	}
}

func cloneHandler(h *ExceptHandler) *ExceptHandler {
	if h == nil {
		return nil
	}
	return &ExceptHandler{Loc: h.Loc, Type: CloneExpr(h.Type), Name: h.Name, Body: cloneStmts(h.Body)}
}

func cloneComprehension(c *Comprehension) *Comprehension {
	if c == nil {
		return nil
	}
	return &Comprehension{Loc: c.Loc, Target: CloneExpr(c.Target), Iter: CloneExpr(c.Iter), Ifs: cloneExprs(c.Ifs)}
}

func cloneComprehensions(cs []*Comprehension) []*Comprehension {
	if cs == nil {
		return nil
	}
	out := make([]*Comprehension, len(cs))
	for i, c := range cs {
		out[i] = cloneComprehension(c)
	}
	return out
}

func cloneWithItem(item *WithItem) *WithItem {
	if item == nil {
		return nil
	}
	return &WithItem{Loc: item.Loc, Context: CloneExpr(item.Context), Vars: CloneExpr(item.Vars)}
}
