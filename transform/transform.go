// Package transform rewrites annotated interpreter source into its tier1
// (threaded, JIT-aware) and tier2 (plain) variants.
package transform

import (
	"fmt"

	"github.com/chazu/tiersplit/syntax"
)

// Tier selects which variant a rewrite produces.
type Tier string

const (
	Tier1 Tier = "tier1"
	Tier2 Tier = "tier2"
)

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case Tier1, Tier2:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidTier, s, Tier1, Tier2)
}

// Options tune marker recognition.
type Options struct {
	// Receiver is the object tier1 hint calls are made on. Empty means
	// DefaultReceiver.
	Receiver string

	// SubstringMarkerMatch makes tier2 delete any bare call whose name is
	// a substring of MarkerPrefix, instead of only the exact marker names.
	SubstringMarkerMatch bool

	// StripQualifiedMarkers makes tier2 also delete receiver.<hint>(...)
	// statements, which are otherwise left in place.
	StripQualifiedMarkers bool
}

func (o Options) receiver() string {
	if o.Receiver == "" {
		return DefaultReceiver
	}
	return o.Receiver
}

// Fingerprint identifies the options for cache keys.
func (o Options) Fingerprint() string {
	return fmt.Sprintf("receiver=%s;substring=%t;strip-qualified=%t",
		o.receiver(), o.SubstringMarkerMatch, o.StripQualifiedMarkers)
}

// Stats counts what a rewrite changed.
type Stats struct {
	Expanded        map[Kind]int // tier1 hint expansions per kind
	GuardsCollapsed int          // tier2 guards replaced by their bodies
	GuardsRemoved   int          // tier1 guards deleted
	MarkersDeleted  int          // tier2 marker statements deleted
}

// Changes returns the total number of rewritten sites.
func (s Stats) Changes() int {
	n := s.GuardsCollapsed + s.GuardsRemoved + s.MarkersDeleted
	for _, c := range s.Expanded {
		n += c
	}
	return n
}

// Result is the outcome of a rewrite.
type Result struct {
	Module      *syntax.Module
	Tier        Tier
	Annotations *Annotations
	Stats       Stats
	Warnings    []string
}

// Source renders the rewritten module.
func (r *Result) Source() string {
	return syntax.Print(r.Module)
}

// Rewrite produces the requested tier from mod. The input is not
// modified: it is copied, annotations are extracted from the copy once,
// one rewriter runs over it, and every node left without a position
// inherits one from its nearest located ancestor.
func Rewrite(mod *syntax.Module, tier Tier, opts Options) (*Result, error) {
	if _, err := ParseTier(string(tier)); err != nil {
		return nil, err
	}

	work := syntax.Clone(mod).(*syntax.Module)
	ann := Extract(work)
	res := &Result{
		Tier:        tier,
		Annotations: ann,
		Stats:       Stats{Expanded: make(map[Kind]int)},
		Warnings:    ann.Warnings(),
	}

	var w *walker
	switch tier {
	case Tier1:
		w = &newTier1(ann, opts, &res.Stats).walker
	case Tier2:
		w = &newTier2(opts, &res.Stats).walker
	}

	body, err := w.block(work.Body, false)
	if err != nil {
		return nil, err
	}
	work.Body = body
	syntax.FixMissingPositions(work)

	res.Module = work
	return res, nil
}

// Source parses annotated source text, rewrites it for tier and returns
// the generated source.
func Source(src string, tier Tier, opts Options) (string, error) {
	if _, err := ParseTier(string(tier)); err != nil {
		return "", err
	}
	mod, err := syntax.ParseModule(src)
	if err != nil {
		return "", err
	}
	res, err := Rewrite(mod, tier, opts)
	if err != nil {
		return "", err
	}
	return res.Source(), nil
}
