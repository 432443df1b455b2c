package syntax

// ---------------------------------------------------------------------------
// Traversal and position helpers
// ---------------------------------------------------------------------------

// Inspect traverses the tree rooted at node in depth-first order, calling f
// for each node before its children. If f returns false the children of
// that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	for _, child := range Children(node) {
		Inspect(child, f)
	}
}

// Children returns the direct children of node in source order. Absent
// optional children are omitted.
func Children(node Node) []Node {
	var out []Node
	addExpr := func(e Expr) {
		if e != nil {
			out = append(out, e)
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			addExpr(e)
		}
	}
	addGens := func(gens []*Comprehension) {
		for _, c := range gens {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	addStmts := func(ss []Stmt) {
		for _, s := range ss {
			if s != nil {
				out = append(out, s)
			}
		}
	}

	switch n := node.(type) {
	case *Module:
		addStmts(n.Body)

	// Expressions
	case *Name, *Num, *Str, *NameConstant:
	case *Attribute:
		addExpr(n.Value)
	case *Subscript:
		addExpr(n.Value)
		addExpr(n.Index)
	case *Slice:
		addExpr(n.Lower)
		addExpr(n.Upper)
		addExpr(n.Step)
	case *Call:
		addExpr(n.Func)
		addExprs(n.Args)
		for _, kw := range n.Keywords {
			if kw != nil {
				out = append(out, kw)
			}
		}
	case *Keyword:
		addExpr(n.Value)
	case *Starred:
		addExpr(n.Value)
	case *BinOp:
		addExpr(n.Left)
		addExpr(n.Right)
	case *UnaryOp:
		addExpr(n.Operand)
	case *BoolOp:
		addExprs(n.Values)
	case *Compare:
		addExpr(n.Left)
		addExprs(n.Comparators)
	case *IfExp:
		addExpr(n.Test)
		addExpr(n.Body)
		addExpr(n.OrElse)
	case *Tuple:
		addExprs(n.Elts)
	case *List:
		addExprs(n.Elts)
	case *Dict:
		for i := range n.Keys {
			addExpr(n.Keys[i])
			if i < len(n.Values) {
				addExpr(n.Values[i])
			}
		}
	case *Set:
		addExprs(n.Elts)
	case *Lambda:
		if n.Args != nil {
			out = append(out, n.Args)
		}
		addExpr(n.Body)
	case *ListComp:
		addExpr(n.Elt)
		addGens(n.Generators)
	case *GeneratorExp:
		addExpr(n.Elt)
		addGens(n.Generators)
	case *SetComp:
		addExpr(n.Elt)
		addGens(n.Generators)
	case *DictComp:
		addExpr(n.Key)
		addExpr(n.Value)
		addGens(n.Generators)
	case *Comprehension:
		addExpr(n.Target)
		addExpr(n.Iter)
		addExprs(n.Ifs)
	case *Yield:
		addExpr(n.Value)

	// Statements
	case *FunctionDef:
		addExprs(n.Decorators)
		if n.Args != nil {
			out = append(out, n.Args)
		}
		addStmts(n.Body)
	case *Arguments:
		addExprs(n.Defaults)
	case *ClassDef:
		addExprs(n.Decorators)
		addExprs(n.Bases)
		addStmts(n.Body)
	case *Return:
		addExpr(n.Value)
	case *Assign:
		addExprs(n.Targets)
		addExpr(n.Value)
	case *AugAssign:
		addExpr(n.Target)
		addExpr(n.Value)
	case *If:
		addExpr(n.Test)
		addStmts(n.Body)
		addStmts(n.OrElse)
	case *While:
		addExpr(n.Test)
		addStmts(n.Body)
		addStmts(n.OrElse)
	case *For:
		addExpr(n.Target)
		addExpr(n.Iter)
		addStmts(n.Body)
		addStmts(n.OrElse)
	case *Try:
		addStmts(n.Body)
		for _, h := range n.Handlers {
			if h != nil {
				out = append(out, h)
			}
		}
		addStmts(n.OrElse)
		addStmts(n.Finally)
	case *ExceptHandler:
		addExpr(n.Type)
		addStmts(n.Body)
	case *Raise:
		addExpr(n.Exc)
		addExpr(n.Inst)
		addExpr(n.Tback)
	case *With:
		for _, item := range n.Items {
			if item != nil {
				out = append(out, item)
			}
		}
		addStmts(n.Body)
	case *WithItem:
		addExpr(n.Context)
		addExpr(n.Vars)
	case *Exec:
		addExpr(n.Body)
		addExpr(n.Globals)
		addExpr(n.Locals)
	case *Assert:
		addExpr(n.Test)
		addExpr(n.Msg)
	case *Delete:
		addExprs(n.Targets)
	case *PrintStmt:
		addExpr(n.Dest)
		addExprs(n.Values)
	case *ExprStmt:
		addExpr(n.Value)
	case *Import, *ImportFrom, *Global, *Pass, *Break, *Continue:
	}
	return out
}

// CopyPosition copies the position of src onto dst.
func CopyPosition(dst, src Node) {
	dst.SetPos(src.Pos())
}

// ClearPositions removes the position of every node in the subtree so it can
// be relocated elsewhere in a tree.
func ClearPositions(node Node) {
	Inspect(node, func(n Node) bool {
		n.SetPos(Position{})
		return true
	})
}

// FixMissingPositions gives every node without a position the position of
// its nearest located ancestor. A root without a position gets line 1,
// column 1.
func FixMissingPositions(root Node) {
	if root == nil {
		return
	}
	fixPositions(root, Position{Line: 1, Column: 1})
}

func fixPositions(n Node, parent Position) {
	if !n.Pos().IsValid() {
		n.SetPos(parent)
	}
	pos := n.Pos()
	for _, child := range Children(n) {
		fixPositions(child, pos)
	}
}

// HasMissingPositions reports whether any node in the subtree lacks a
// position.
func HasMissingPositions(root Node) bool {
	missing := false
	Inspect(root, func(n Node) bool {
		if !n.Pos().IsValid() {
			missing = true
		}
		return !missing
	})
	return missing
}
