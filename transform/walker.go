package transform

import "github.com/chazu/tiersplit/syntax"

// visitFunc inspects one statement. When handled is true, out replaces
// the statement (nil deletes it); otherwise the walker descends into the
// statement's blocks and keeps it.
type visitFunc func(s syntax.Stmt) (out []syntax.Stmt, handled bool, err error)

// walker applies a visitFunc to every statement of a tree, rewriting
// statement lists in place.
type walker struct {
	visit visitFunc
}

// block rewrites a statement list. A required block (one the grammar
// does not allow to be empty) that loses all its statements gets a pass
// at the position of the first deleted one.
func (w *walker) block(list []syntax.Stmt, required bool) ([]syntax.Stmt, error) {
	if len(list) == 0 {
		return list, nil
	}
	out := make([]syntax.Stmt, 0, len(list))
	for _, s := range list {
		repl, handled, err := w.visit(s)
		if err != nil {
			return nil, err
		}
		if handled {
			out = append(out, repl...)
			continue
		}
		if err := w.descend(s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if required && len(out) == 0 {
		pass := &syntax.Pass{}
		syntax.CopyPosition(pass, list[0])
		out = append(out, pass)
	}
	return out, nil
}

// descend rewrites the nested blocks of a compound statement.
func (w *walker) descend(s syntax.Stmt) error {
	var err error
	switch n := s.(type) {
	case *syntax.FunctionDef:
		n.Body, err = w.block(n.Body, true)
	case *syntax.ClassDef:
		n.Body, err = w.block(n.Body, true)
	case *syntax.If:
		err = w.branches(&n.Body, &n.OrElse)
	case *syntax.While:
		err = w.branches(&n.Body, &n.OrElse)
	case *syntax.For:
		err = w.branches(&n.Body, &n.OrElse)
	case *syntax.With:
		n.Body, err = w.block(n.Body, true)
	case *syntax.Try:
		if n.Body, err = w.block(n.Body, true); err != nil {
			return err
		}
		for _, h := range n.Handlers {
			if h.Body, err = w.block(h.Body, true); err != nil {
				return err
			}
		}
		if n.OrElse, err = w.block(n.OrElse, false); err != nil {
			return err
		}
		n.Finally, err = w.block(n.Finally, len(n.Handlers) == 0)
	}
	return err
}

func (w *walker) branches(body, orelse *[]syntax.Stmt) error {
	var err error
	if *body, err = w.block(*body, true); err != nil {
		return err
	}
	*orelse, err = w.block(*orelse, false)
	return err
}
