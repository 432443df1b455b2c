package transform

import (
	"fmt"
	"sort"

	"github.com/chazu/tiersplit/syntax"
)

// ---------------------------------------------------------------------------
// Annotation extraction
// ---------------------------------------------------------------------------

// Bindings is the keyword arguments captured from one hint call site.
// Captured subtrees carry no positions and are never handed out directly:
// every lookup returns a fresh copy.
type Bindings struct {
	site syntax.Position
	args map[string]syntax.Expr
}

// Site returns the position of the call the bindings were taken from.
func (b *Bindings) Site() syntax.Position {
	return b.site
}

// Lookup returns a copy of the subtree bound to name.
func (b *Bindings) Lookup(name string) (syntax.Expr, bool) {
	e, ok := b.args[name]
	if !ok {
		return nil, false
	}
	return syntax.CloneExpr(e), true
}

// Get is Lookup without the presence flag.
func (b *Bindings) Get(name string) syntax.Expr {
	e, _ := b.Lookup(name)
	return e
}

// Names returns the bound keyword names in sorted order.
func (b *Bindings) Names() []string {
	names := make([]string, 0, len(b.args))
	for name := range b.args {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Annotations is the result of one extraction pass: at most one Bindings
// per hint kind, plus how many call sites of each kind were seen. When a
// kind has several sites, the last one visited wins.
type Annotations struct {
	bindings map[Kind]*Bindings
	sites    map[Kind]int
}

// Bindings returns the surviving bindings for kind, or nil if no call site
// of that kind was found.
func (a *Annotations) Bindings(kind Kind) *Bindings {
	return a.bindings[kind]
}

// Sites returns the number of call sites of kind.
func (a *Annotations) Sites(kind Kind) int {
	return a.sites[kind]
}

// Warnings describes every kind with more than one call site, since all
// expansions of that kind share the last site's bindings.
func (a *Annotations) Warnings() []string {
	var out []string
	for _, k := range Kinds {
		if n := a.sites[k]; n > 1 {
			out = append(out, fmt.Sprintf("%d %s call sites; every expansion uses the bindings from line %d",
				n, k.Marker(), a.bindings[k].site.Line))
		}
	}
	return out
}

// Extract scans the tree in depth-first order for calls of the form
// <object>.<hint>(...) and records their keyword arguments. The tree is
// not modified.
func Extract(root syntax.Node) *Annotations {
	a := &Annotations{
		bindings: make(map[Kind]*Bindings),
		sites:    make(map[Kind]int),
	}
	syntax.Inspect(root, func(n syntax.Node) bool {
		call, ok := n.(*syntax.Call)
		if !ok {
			return true
		}
		fn, ok := call.Func.(*syntax.Attribute)
		if !ok {
			return true
		}
		kind, ok := kindOfMarker(fn.Attr)
		if !ok {
			return true
		}

		b := &Bindings{site: call.Pos(), args: make(map[string]syntax.Expr)}
		for _, kw := range call.Keywords {
			if kw.Arg == "" {
				continue
			}
			v := syntax.CloneExpr(kw.Value)
			syntax.ClearPositions(v)
			b.args[kw.Arg] = v
		}
		a.bindings[kind] = b
		a.sites[kind]++
		return true
	})
	return a
}
