package transform

import (
	"strings"

	"github.com/chazu/tiersplit/syntax"
)

// tier2 produces the plain interpreter: bare marker statements are
// deleted and tier guards are replaced by their bodies.
type tier2 struct {
	walker
	opts  Options
	stats *Stats
}

func newTier2(opts Options, stats *Stats) *tier2 {
	r := &tier2{opts: opts, stats: stats}
	r.walker.visit = r.visit
	return r
}

func (r *tier2) visit(s syntax.Stmt) ([]syntax.Stmt, bool, error) {
	switch n := s.(type) {
	case *syntax.ExprStmt:
		if r.isMarker(n) {
			r.stats.MarkersDeleted++
			return nil, true, nil
		}

	case *syntax.If:
		_, ok, err := matchGuard(n)
		if err != nil {
			return nil, true, err
		}
		if !ok {
			return nil, false, nil
		}
		body, err := r.block(n.Body, false)
		if err != nil {
			return nil, true, err
		}
		r.stats.GuardsCollapsed++
		return body, true, nil
	}
	return nil, false, nil
}

// isMarker reports whether an expression statement is a tier1-only marker
// call that tier2 output drops.
func (r *tier2) isMarker(n *syntax.ExprStmt) bool {
	c, ok := n.Value.(*syntax.Call)
	if !ok {
		return false
	}
	switch fn := c.Func.(type) {
	case *syntax.Name:
		if r.opts.SubstringMarkerMatch {
			return strings.Contains(MarkerPrefix, fn.ID)
		}
		if fn.ID == MarkerPrefix {
			return true
		}
		_, ok := kindOfMarker(fn.ID)
		return ok
	case *syntax.Attribute:
		if !r.opts.StripQualifiedMarkers {
			return false
		}
		_, ok := kindOfMarker(fn.Attr)
		return ok
	}
	return false
}
