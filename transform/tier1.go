package transform

import (
	"github.com/chazu/tiersplit/syntax"
)

// tier1 produces the threaded interpreter: every receiver.<hint>(...)
// statement is expanded into a we_are_jitted() dual path and tier guards
// are deleted.
type tier1 struct {
	walker
	ann   *Annotations
	opts  Options
	stats *Stats
}

func newTier1(ann *Annotations, opts Options, stats *Stats) *tier1 {
	r := &tier1{ann: ann, opts: opts, stats: stats}
	r.walker.visit = r.visit
	return r
}

func (r *tier1) visit(s syntax.Stmt) ([]syntax.Stmt, bool, error) {
	switch n := s.(type) {
	case *syntax.ExprStmt:
		kind, ok := r.hintKind(n)
		if !ok {
			return nil, false, nil
		}
		expanded, err := r.expand(kind, n)
		if err != nil {
			return nil, true, err
		}
		r.stats.Expanded[kind]++
		return stmts(expanded), true, nil

	case *syntax.If:
		_, ok, err := matchGuard(n)
		if err != nil {
			return nil, true, err
		}
		if ok {
			r.stats.GuardsRemoved++
			return nil, true, nil
		}
	}
	return nil, false, nil
}

// hintKind matches statements of the exact shape receiver.<hint>(...).
func (r *tier1) hintKind(n *syntax.ExprStmt) (Kind, bool) {
	c, ok := n.Value.(*syntax.Call)
	if !ok {
		return 0, false
	}
	fn, ok := c.Func.(*syntax.Attribute)
	if !ok {
		return 0, false
	}
	recv, ok := fn.Value.(*syntax.Name)
	if !ok || recv.ID != r.opts.receiver() {
		return 0, false
	}
	return kindOfMarker(fn.Attr)
}

// bindings returns the captured bindings for kind after checking that
// every parameter the expansion needs is present.
func (r *tier1) bindings(kind Kind, at syntax.Node) (*Bindings, error) {
	b := r.ann.Bindings(kind)
	if b == nil {
		return nil, errorAt(at, ErrMissingBinding, "no %s call site was captured", kind.Marker())
	}
	for _, p := range kind.Params() {
		if _, ok := b.args[p]; !ok {
			return nil, errorAt(at, ErrMissingBinding, "%s call site at line %d has no %q keyword",
				kind.Marker(), b.site.Line, p)
		}
	}
	return b, nil
}

// expand builds the replacement for one hint statement. The result takes
// the position of the statement it replaces and every synthesized node
// inherits it.
func (r *tier1) expand(kind Kind, at *syntax.ExprStmt) (*syntax.If, error) {
	b, err := r.bindings(kind, at)
	if err != nil {
		return nil, err
	}

	var jitted, plain []syntax.Stmt
	switch kind {
	case Jump:
		jitted, plain = expandJump(b)
	case Ret:
		jitted, plain = expandRet(b)
	case Branch:
		jitted, plain = expandBranch(b)
	}

	out := ifElse(callName(HookJitted), jitted, plain)
	syntax.CopyPosition(out, at)
	syntax.FixMissingPositions(out)
	return out, nil
}

// expandJump:
//
//	if t_is_empty(tstack):
//	    pc = target
//	else:
//	    pc, tstack = tstack.t_pop()
//	pc = emit_jump(pc, target)
//
// with the plain path pc = target.
func expandJump(b *Bindings) (jitted, plain []syntax.Stmt) {
	jitted = stmts(
		ifElse(callName(HookIsEmpty, name(VarTraceStack)),
			stmts(assign(b.Get("pc"), b.Get("target"))),
			stmts(popTraceStack(b))),
		assign(b.Get("pc"), callName(HookEmitJump, b.Get("pc"), b.Get("target"))),
	)
	plain = stmts(assign(b.Get("pc"), b.Get("target")))
	return jitted, plain
}

// expandRet:
//
//	if t_is_empty(tstack):
//	    pc = emit_ret(pc, ret_value)
//	    jitdriver.can_enter_jit(pc=pc, bytecode=bytecode, tstack=tstack, self=self)
//	else:
//	    pc, tstack = tstack.t_pop()
//	    pc = emit_ret(pc, ret_value)
//
// with the plain path return ret_value.
func expandRet(b *Bindings) (jitted, plain []syntax.Stmt) {
	mergePoint := method(HookDriver, HookMergePoint)
	mergePoint.Keywords = []*syntax.Keyword{
		keyword("pc", b.Get("pc")),
		keyword(VarBytecode, name(VarBytecode)),
		keyword(VarTraceStack, name(VarTraceStack)),
		keyword(VarSelf, name(VarSelf)),
	}

	jitted = stmts(
		ifElse(callName(HookIsEmpty, name(VarTraceStack)),
			stmts(
				assign(b.Get("pc"), callName(HookEmitRet, b.Get("pc"), b.Get("ret_value"))),
				&syntax.ExprStmt{Value: mergePoint},
			),
			stmts(
				popTraceStack(b),
				assign(b.Get("pc"), callName(HookEmitRet, b.Get("pc"), b.Get("ret_value"))),
			)),
	)
	plain = stmts(&syntax.Return{Value: b.Get("ret_value")})
	return jitted, plain
}

// expandBranch, where cond is bound to a callable evaluated once per path:
//
//	if cond():
//	    tstack = t_push(false_path, tstack)
//	    pc = true_path
//	else:
//	    tstack = t_push(true_path, tstack)
//	    pc = false_path
//
// with the plain path choosing pc between true_path and false_path on
// the same cond() test.
func expandBranch(b *Bindings) (jitted, plain []syntax.Stmt) {
	push := func(path string) syntax.Stmt {
		return assign(name(VarTraceStack), callName(HookPush, b.Get(path), name(VarTraceStack)))
	}

	jitted = stmts(
		ifElse(call(b.Get("cond")),
			stmts(push("false_path"), assign(b.Get("pc"), b.Get("true_path"))),
			stmts(push("true_path"), assign(b.Get("pc"), b.Get("false_path")))),
	)
	plain = stmts(
		ifElse(call(b.Get("cond")),
			stmts(assign(b.Get("pc"), b.Get("true_path"))),
			stmts(assign(b.Get("pc"), b.Get("false_path")))),
	)
	return jitted, plain
}

// popTraceStack builds pc, tstack = tstack.t_pop().
func popTraceStack(b *Bindings) syntax.Stmt {
	return assign(tuple(b.Get("pc"), name(VarTraceStack)), method(VarTraceStack, HookPop))
}
