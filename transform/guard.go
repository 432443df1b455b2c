package transform

import (
	"github.com/chazu/tiersplit/syntax"
)

// matchGuard reports whether n is a tier guard, that is an if whose test
// calls GuardPredicate. A guard must carry exactly one keyword argument
// whose value is the string "branch", "ret" or "jump"; anything else is
// ErrMalformedGuard.
func matchGuard(n *syntax.If) (Kind, bool, error) {
	test, ok := n.Test.(*syntax.Call)
	if !ok {
		return 0, false, nil
	}
	fn, ok := test.Func.(*syntax.Name)
	if !ok || fn.ID != GuardPredicate {
		return 0, false, nil
	}

	if len(test.Args) != 0 {
		return 0, true, errorAt(n, ErrMalformedGuard, "%s takes no positional arguments, got %d",
			GuardPredicate, len(test.Args))
	}
	if len(test.Keywords) != 1 {
		return 0, true, errorAt(n, ErrMalformedGuard, "%s takes exactly one keyword argument, got %d",
			GuardPredicate, len(test.Keywords))
	}
	kw := test.Keywords[0]
	str, ok := kw.Value.(*syntax.Str)
	if !ok {
		return 0, true, errorAt(n, ErrMalformedGuard, "value of %s is %s, not a string literal",
			GuardPredicate, syntax.Print(kw.Value))
	}
	kind, ok := kindOfGuard(str.Value)
	if !ok {
		return 0, true, errorAt(n, ErrMalformedGuard, "unexpected guard value %q", str.Value)
	}
	return kind, true, nil
}
