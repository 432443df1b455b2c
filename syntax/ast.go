package syntax

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for the host language
// ---------------------------------------------------------------------------

// Position represents a source location. The zero Position means the node
// has no location.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
}

// IsValid reports whether the position carries a location.
func (p Position) IsValid() bool { return p.Line > 0 }

// Loc is embedded in every node to carry its optional position.
type Loc struct {
	Position Position
}

// Pos returns the node's position.
func (l *Loc) Pos() Position { return l.Position }

// SetPos sets the node's position.
func (l *Loc) SetPos(p Position) { l.Position = p }

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
	SetPos(Position)
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Name is an identifier reference.
type Name struct {
	Loc
	ID string
}

// Num is a numeric literal, kept as written.
type Num struct {
	Loc
	Value string
}

// Str is a string literal holding the decoded value.
type Str struct {
	Loc
	Value string
}

// NameConstant is one of True, False or None.
type NameConstant struct {
	Loc
	Value string
}

// Attribute is attribute access (value.attr).
type Attribute struct {
	Loc
	Value Expr
	Attr  string
}

// Subscript is an index or slice (value[index]).
type Subscript struct {
	Loc
	Value Expr
	Index Expr
}

// Slice is lower:upper:step inside a subscript. Any part may be nil.
type Slice struct {
	Loc
	Lower Expr
	Upper Expr
	Step  Expr
}

// Call is a call expression.
type Call struct {
	Loc
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

// Keyword is a keyword argument in a call. An empty Arg means **Value.
type Keyword struct {
	Loc
	Arg   string
	Value Expr
}

// Starred is *value in a call argument list.
type Starred struct {
	Loc
	Value Expr
}

// BinOp is a binary operation.
type BinOp struct {
	Loc
	Left  Expr
	Op    string
	Right Expr
}

// UnaryOp is a unary operation: -, +, ~ or not.
type UnaryOp struct {
	Loc
	Op      string
	Operand Expr
}

// BoolOp is a chain of and/or.
type BoolOp struct {
	Loc
	Op     string
	Values []Expr
}

// Compare is a comparison chain (a < b <= c).
type Compare struct {
	Loc
	Left        Expr
	Ops         []string
	Comparators []Expr
}

// IfExp is a conditional expression (body if test else orelse).
type IfExp struct {
	Loc
	Test   Expr
	Body   Expr
	OrElse Expr
}

// Tuple is a tuple display.
type Tuple struct {
	Loc
	Elts []Expr
}

// List is a list display.
type List struct {
	Loc
	Elts []Expr
}

// Dict is a dict display.
type Dict struct {
	Loc
	Keys   []Expr
	Values []Expr
}

// Set is a non-empty set display.
type Set struct {
	Loc
	Elts []Expr
}

// Lambda is an anonymous function.
type Lambda struct {
	Loc
	Args *Arguments
	Body Expr
}

// Comprehension is one "for target in iter if cond..." clause of a
// comprehension or generator expression.
type Comprehension struct {
	Loc
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

// ListComp is a list comprehension.
type ListComp struct {
	Loc
	Elt        Expr
	Generators []*Comprehension
}

// GeneratorExp is a generator expression.
type GeneratorExp struct {
	Loc
	Elt        Expr
	Generators []*Comprehension
}

// SetComp is a set comprehension.
type SetComp struct {
	Loc
	Elt        Expr
	Generators []*Comprehension
}

// DictComp is a dict comprehension.
type DictComp struct {
	Loc
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

// Yield is a yield expression. Value may be nil.
type Yield struct {
	Loc
	Value Expr
}

func (*Name) node()         {}
func (*Num) node()          {}
func (*Str) node()          {}
func (*NameConstant) node() {}
func (*Attribute) node()    {}
func (*Subscript) node()    {}
func (*Slice) node()        {}
func (*Call) node()         {}
func (*Keyword) node()      {}
func (*Starred) node()      {}
func (*BinOp) node()        {}
func (*UnaryOp) node()      {}
func (*BoolOp) node()       {}
func (*Compare) node()      {}
func (*IfExp) node()        {}
func (*Tuple) node()        {}
func (*List) node()         {}
func (*Dict) node()         {}
func (*Set) node()          {}
func (*Lambda) node()       {}
func (*ListComp) node()     {}
func (*GeneratorExp) node() {}
func (*SetComp) node()      {}
func (*DictComp) node()     {}
func (*Yield) node()        {}

func (*Comprehension) node() {}

func (*Name) expr()         {}
func (*Num) expr()          {}
func (*Str) expr()          {}
func (*NameConstant) expr() {}
func (*Attribute) expr()    {}
func (*Subscript) expr()    {}
func (*Slice) expr()        {}
func (*Call) expr()         {}
func (*Starred) expr()      {}
func (*BinOp) expr()        {}
func (*UnaryOp) expr()      {}
func (*BoolOp) expr()       {}
func (*Compare) expr()      {}
func (*IfExp) expr()        {}
func (*Tuple) expr()        {}
func (*List) expr()         {}
func (*Dict) expr()         {}
func (*Set) expr()          {}
func (*Lambda) expr()       {}
func (*ListComp) expr()     {}
func (*GeneratorExp) expr() {}
func (*SetComp) expr()      {}
func (*DictComp) expr()     {}
func (*Yield) expr()        {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// FunctionDef is a function definition.
type FunctionDef struct {
	Loc
	Name       string
	Args       *Arguments
	Body       []Stmt
	Decorators []Expr
}

// Arguments is a function parameter list. Defaults align with the last
// len(Defaults) entries of Args.
type Arguments struct {
	Loc
	Args     []string
	Defaults []Expr
	Vararg   string
	Kwarg    string
}

// ClassDef is a class definition.
type ClassDef struct {
	Loc
	Name       string
	Bases      []Expr
	Body       []Stmt
	Decorators []Expr
}

// Return is a return statement. Value may be nil.
type Return struct {
	Loc
	Value Expr
}

// Assign is an assignment with one or more chained targets.
type Assign struct {
	Loc
	Targets []Expr
	Value   Expr
}

// AugAssign is an augmented assignment (x += 1). Op excludes the '='.
type AugAssign struct {
	Loc
	Target Expr
	Op     string
	Value  Expr
}

// If is a conditional. An elif chain is an If nested alone in OrElse.
type If struct {
	Loc
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

// While is a while loop.
type While struct {
	Loc
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

// For is a for loop.
type For struct {
	Loc
	Target Expr
	Iter   Expr
	Body   []Stmt
	OrElse []Stmt
}

// Try is a try statement with handlers, else and finally parts.
type Try struct {
	Loc
	Body     []Stmt
	Handlers []*ExceptHandler
	OrElse   []Stmt
	Finally  []Stmt
}

// ExceptHandler is one except clause. Type may be nil.
type ExceptHandler struct {
	Loc
	Type Expr
	Name string
	Body []Stmt
}

// Raise is a raise statement (raise exc, inst, tback). Any part may be
// nil, but Inst requires Exc and Tback requires Inst.
type Raise struct {
	Loc
	Exc   Expr
	Inst  Expr
	Tback Expr
}

// Assert is an assert statement. Msg may be nil.
type Assert struct {
	Loc
	Test Expr
	Msg  Expr
}

// Delete is a del statement.
type Delete struct {
	Loc
	Targets []Expr
}

// Alias is a name in an import statement.
type Alias struct {
	Name   string
	AsName string
}

// Import is "import a.b as c, d".
type Import struct {
	Loc
	Names []Alias
}

// ImportFrom is "from ..mod import a as b". Level counts leading dots.
type ImportFrom struct {
	Loc
	Module string
	Names  []Alias
	Level  int
}

// Global is a global declaration.
type Global struct {
	Loc
	Names []string
}

// PrintStmt is the print statement (print >>dest, a, b). NewLine is false
// when the value list ends with a comma.
type PrintStmt struct {
	Loc
	Dest    Expr
	Values  []Expr
	NewLine bool
}

// With is a with statement. Several items nest left to right.
type With struct {
	Loc
	Items []*WithItem
	Body  []Stmt
}

// WithItem is one "context as vars" clause. Vars may be nil.
type WithItem struct {
	Loc
	Context Expr
	Vars    Expr
}

// Exec is the exec statement (exec body in globals, locals). Globals and
// Locals may be nil.
type Exec struct {
	Loc
	Body    Expr
	Globals Expr
	Locals  Expr
}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	Loc
	Value Expr
}

// Pass is the pass statement.
type Pass struct{ Loc }

// Break is the break statement.
type Break struct{ Loc }

// Continue is the continue statement.
type Continue struct{ Loc }

func (*FunctionDef) node()   {}
func (*Arguments) node()     {}
func (*ClassDef) node()      {}
func (*Return) node()        {}
func (*Assign) node()        {}
func (*AugAssign) node()     {}
func (*If) node()            {}
func (*While) node()         {}
func (*For) node()           {}
func (*Try) node()           {}
func (*ExceptHandler) node() {}
func (*Raise) node()         {}
func (*Assert) node()        {}
func (*Delete) node()        {}
func (*Import) node()        {}
func (*ImportFrom) node()    {}
func (*Global) node()        {}
func (*PrintStmt) node()     {}
func (*With) node()          {}
func (*WithItem) node()      {}
func (*Exec) node()          {}
func (*ExprStmt) node()      {}
func (*Pass) node()          {}
func (*Break) node()         {}
func (*Continue) node()      {}

func (*FunctionDef) stmt() {}
func (*ClassDef) stmt()    {}
func (*Return) stmt()      {}
func (*Assign) stmt()      {}
func (*AugAssign) stmt()   {}
func (*If) stmt()          {}
func (*While) stmt()       {}
func (*For) stmt()         {}
func (*Try) stmt()         {}
func (*Raise) stmt()       {}
func (*Assert) stmt()      {}
func (*Delete) stmt()      {}
func (*Import) stmt()      {}
func (*ImportFrom) stmt()  {}
func (*Global) stmt()      {}
func (*PrintStmt) stmt()   {}
func (*With) stmt()        {}
func (*Exec) stmt()        {}
func (*ExprStmt) stmt()    {}
func (*Pass) stmt()        {}
func (*Break) stmt()       {}
func (*Continue) stmt()    {}

// ---------------------------------------------------------------------------
// Top-level structure
// ---------------------------------------------------------------------------

// Module is a complete source file.
type Module struct {
	Loc
	Body []Stmt
}

func (*Module) node() {}
