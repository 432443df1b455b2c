package transform

// Marker vocabulary recognized in annotated interpreter source. All names
// are case-sensitive.
const (
	// MarkerPrefix is the shared stem of every tier1 hint name. A bare call
	// to it is a tier1-only marker statement.
	MarkerPrefix = "can_enter_tier1"

	// GuardPredicate is the function whose call, used as an if test,
	// delimits a tier2-only block.
	GuardPredicate = "we_are_in_tier2"

	// DefaultReceiver is the object hint calls are made on in tier1 input.
	DefaultReceiver = "transformer"
)

// Runtime hooks and variables referenced by tier1 expansions.
const (
	HookJitted     = "we_are_jitted"
	HookIsEmpty    = "t_is_empty"
	HookPop        = "t_pop"
	HookPush       = "t_push"
	HookEmitJump   = "emit_jump"
	HookEmitRet    = "emit_ret"
	HookDriver     = "jitdriver"
	HookMergePoint = "can_enter_jit"

	VarTraceStack = "tstack"
	VarBytecode   = "bytecode"
	VarSelf       = "self"
)

// Kind identifies one of the three hint markers.
type Kind int

const (
	Branch Kind = iota
	Jump
	Ret
)

// Kinds lists every hint kind in a stable order.
var Kinds = []Kind{Branch, Jump, Ret}

var kindNames = [...]string{
	Branch: "branch",
	Jump:   "jump",
	Ret:    "ret",
}

// String returns the short kind name, which is also the guard value that
// names it.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Marker returns the hint method name for the kind.
func (k Kind) Marker() string {
	return MarkerPrefix + "_" + k.String()
}

// Params returns the keyword arguments an expansion of this kind needs.
func (k Kind) Params() []string {
	switch k {
	case Branch:
		return []string{"cond", "true_path", "false_path", "pc"}
	case Jump:
		return []string{"pc", "target"}
	case Ret:
		return []string{"pc", "ret_value"}
	}
	return nil
}

// kindOfMarker maps a hint method name to its kind.
func kindOfMarker(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Marker() == name {
			return k, true
		}
	}
	return 0, false
}

// kindOfGuard maps a guard value to its kind.
func kindOfGuard(value string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == value {
			return k, true
		}
	}
	return 0, false
}
