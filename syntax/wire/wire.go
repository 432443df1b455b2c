// Package wire encodes syntax trees as canonical CBOR so other tools can
// hand a tree in and take a tree out without going through source text.
package wire

import (
	"fmt"
	"strconv"

	"github.com/chazu/tiersplit/syntax"
	"github.com/fxamacker/cbor/v2"
)

// FormatVersion is written into every envelope. Readers reject other
// versions.
const FormatVersion = 1

// maxNestedLevels bounds decoding depth. One tree level costs three CBOR
// levels (node map, kids map, kid list), so the library default of 32 only
// admits trees about ten levels deep.
const maxNestedLevels = 65535

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{MaxNestedLevels: maxNestedLevels}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// Envelope is the top-level wire object.
type Envelope struct {
	Version int    `cbor:"version"`
	RunID   string `cbor:"run,omitempty"`
	Tree    *Node  `cbor:"tree"`
}

// Node is the generic wire form of one syntax node. Scalar attributes are
// single-element lists; child slots are named lists so optional children
// and statement blocks share one shape.
type Node struct {
	Kind  string              `cbor:"kind"`
	Line  int                 `cbor:"line,omitempty"`
	Col   int                 `cbor:"col,omitempty"`
	Attrs map[string][]string `cbor:"attrs,omitempty"`
	Kids  map[string][]*Node  `cbor:"kids,omitempty"`
}

// Marshal serializes a module to CBOR bytes.
func Marshal(mod *syntax.Module, runID string) ([]byte, error) {
	env := &Envelope{Version: FormatVersion, RunID: runID, Tree: Encode(mod)}
	return cborEncMode.Marshal(env)
}

// Unmarshal deserializes a module from CBOR bytes and returns it with the
// run id it was produced under.
func Unmarshal(data []byte) (*syntax.Module, string, error) {
	var env Envelope
	if err := cborDecMode.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("wire: unmarshal envelope: %w", err)
	}
	if env.Version != FormatVersion {
		return nil, "", fmt.Errorf("wire: unsupported format version %d", env.Version)
	}
	if env.Tree == nil {
		return nil, "", fmt.Errorf("wire: envelope has no tree")
	}
	n, err := Decode(env.Tree)
	if err != nil {
		return nil, "", err
	}
	mod, ok := n.(*syntax.Module)
	if !ok {
		return nil, "", fmt.Errorf("wire: root is %s, want Module", env.Tree.Kind)
	}
	return mod, env.RunID, nil
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func (w *Node) attr(key string, vals ...string) {
	if w.Attrs == nil {
		w.Attrs = make(map[string][]string)
	}
	w.Attrs[key] = vals
}

func (w *Node) kid(key string, n syntax.Node) {
	if enc := Encode(n); enc != nil {
		w.add(key, enc)
	}
}

func (w *Node) add(key string, kids ...*Node) {
	if len(kids) == 0 {
		return
	}
	if w.Kids == nil {
		w.Kids = make(map[string][]*Node)
	}
	w.Kids[key] = append(w.Kids[key], kids...)
}

func (w *Node) exprs(key string, es []syntax.Expr) {
	for _, e := range es {
		w.kid(key, e)
	}
}

func (w *Node) stmts(key string, ss []syntax.Stmt) {
	for _, s := range ss {
		w.kid(key, s)
	}
}

func (w *Node) gens(gens []*syntax.Comprehension) {
	for _, c := range gens {
		w.kid("generators", c)
	}
}

func (w *Node) aliases(names []syntax.Alias) {
	var ns, as []string
	for _, a := range names {
		ns = append(ns, a.Name)
		as = append(as, a.AsName)
	}
	w.attr("names", ns...)
	w.attr("asnames", as...)
}

// Encode converts a syntax node to its wire form. A nil node encodes as
// nil.
func Encode(n syntax.Node) *Node {
	if n == nil {
		return nil
	}
	pos := n.Pos()
	w := &Node{Line: pos.Line, Col: pos.Column}

	switch x := n.(type) {
	case *syntax.Module:
		w.Kind = "Module"
		w.stmts("body", x.Body)

	case *syntax.Name:
		w.Kind = "Name"
		w.attr("id", x.ID)
	case *syntax.Num:
		w.Kind = "Num"
		w.attr("value", x.Value)
	case *syntax.Str:
		w.Kind = "Str"
		w.attr("value", x.Value)
	case *syntax.NameConstant:
		w.Kind = "NameConstant"
		w.attr("value", x.Value)
	case *syntax.Attribute:
		w.Kind = "Attribute"
		w.attr("attr", x.Attr)
		w.kid("value", x.Value)
	case *syntax.Subscript:
		w.Kind = "Subscript"
		w.kid("value", x.Value)
		w.kid("index", x.Index)
	case *syntax.Slice:
		w.Kind = "Slice"
		w.kid("lower", x.Lower)
		w.kid("upper", x.Upper)
		w.kid("step", x.Step)
	case *syntax.Call:
		w.Kind = "Call"
		w.kid("func", x.Func)
		w.exprs("args", x.Args)
		for _, kw := range x.Keywords {
			w.kid("keywords", kw)
		}
	case *syntax.Keyword:
		w.Kind = "Keyword"
		w.attr("arg", x.Arg)
		w.kid("value", x.Value)
	case *syntax.Starred:
		w.Kind = "Starred"
		w.kid("value", x.Value)
	case *syntax.BinOp:
		w.Kind = "BinOp"
		w.attr("op", x.Op)
		w.kid("left", x.Left)
		w.kid("right", x.Right)
	case *syntax.UnaryOp:
		w.Kind = "UnaryOp"
		w.attr("op", x.Op)
		w.kid("operand", x.Operand)
	case *syntax.BoolOp:
		w.Kind = "BoolOp"
		w.attr("op", x.Op)
		w.exprs("values", x.Values)
	case *syntax.Compare:
		w.Kind = "Compare"
		w.attr("ops", x.Ops...)
		w.kid("left", x.Left)
		w.exprs("comparators", x.Comparators)
	case *syntax.IfExp:
		w.Kind = "IfExp"
		w.kid("test", x.Test)
		w.kid("body", x.Body)
		w.kid("orelse", x.OrElse)
	case *syntax.Tuple:
		w.Kind = "Tuple"
		w.exprs("elts", x.Elts)
	case *syntax.List:
		w.Kind = "List"
		w.exprs("elts", x.Elts)
	case *syntax.Dict:
		w.Kind = "Dict"
		w.exprs("keys", x.Keys)
		w.exprs("values", x.Values)
	case *syntax.Set:
		w.Kind = "Set"
		w.exprs("elts", x.Elts)
	case *syntax.Lambda:
		w.Kind = "Lambda"
		if x.Args != nil {
			w.kid("args", x.Args)
		}
		w.kid("body", x.Body)
	case *syntax.Comprehension:
		w.Kind = "Comprehension"
		w.kid("target", x.Target)
		w.kid("iter", x.Iter)
		w.exprs("ifs", x.Ifs)
	case *syntax.ListComp:
		w.Kind = "ListComp"
		w.kid("elt", x.Elt)
		w.gens(x.Generators)
	case *syntax.GeneratorExp:
		w.Kind = "GeneratorExp"
		w.kid("elt", x.Elt)
		w.gens(x.Generators)
	case *syntax.SetComp:
		w.Kind = "SetComp"
		w.kid("elt", x.Elt)
		w.gens(x.Generators)
	case *syntax.DictComp:
		w.Kind = "DictComp"
		w.kid("key", x.Key)
		w.kid("value", x.Value)
		w.gens(x.Generators)
	case *syntax.Yield:
		w.Kind = "Yield"
		w.kid("value", x.Value)

	case *syntax.FunctionDef:
		w.Kind = "FunctionDef"
		w.attr("name", x.Name)
		w.exprs("decorators", x.Decorators)
		if x.Args != nil {
			w.kid("args", x.Args)
		}
		w.stmts("body", x.Body)
	case *syntax.Arguments:
		w.Kind = "Arguments"
		w.attr("args", x.Args...)
		w.attr("vararg", x.Vararg)
		w.attr("kwarg", x.Kwarg)
		w.exprs("defaults", x.Defaults)
	case *syntax.ClassDef:
		w.Kind = "ClassDef"
		w.attr("name", x.Name)
		w.exprs("decorators", x.Decorators)
		w.exprs("bases", x.Bases)
		w.stmts("body", x.Body)
	case *syntax.Return:
		w.Kind = "Return"
		w.kid("value", x.Value)
	case *syntax.Assign:
		w.Kind = "Assign"
		w.exprs("targets", x.Targets)
		w.kid("value", x.Value)
	case *syntax.AugAssign:
		w.Kind = "AugAssign"
		w.attr("op", x.Op)
		w.kid("target", x.Target)
		w.kid("value", x.Value)
	case *syntax.If:
		w.Kind = "If"
		w.kid("test", x.Test)
		w.stmts("body", x.Body)
		w.stmts("orelse", x.OrElse)
	case *syntax.While:
		w.Kind = "While"
		w.kid("test", x.Test)
		w.stmts("body", x.Body)
		w.stmts("orelse", x.OrElse)
	case *syntax.For:
		w.Kind = "For"
		w.kid("target", x.Target)
		w.kid("iter", x.Iter)
		w.stmts("body", x.Body)
		w.stmts("orelse", x.OrElse)
	case *syntax.Try:
		w.Kind = "Try"
		w.stmts("body", x.Body)
		for _, h := range x.Handlers {
			w.kid("handlers", h)
		}
		w.stmts("orelse", x.OrElse)
		w.stmts("finally", x.Finally)
	case *syntax.ExceptHandler:
		w.Kind = "ExceptHandler"
		w.attr("name", x.Name)
		w.kid("type", x.Type)
		w.stmts("body", x.Body)
	case *syntax.Raise:
		w.Kind = "Raise"
		w.kid("exc", x.Exc)
		w.kid("inst", x.Inst)
		w.kid("tback", x.Tback)
	case *syntax.With:
		w.Kind = "With"
		for _, item := range x.Items {
			w.kid("items", item)
		}
		w.stmts("body", x.Body)
	case *syntax.WithItem:
		w.Kind = "WithItem"
		w.kid("context", x.Context)
		w.kid("vars", x.Vars)
	case *syntax.Exec:
		w.Kind = "Exec"
		w.kid("body", x.Body)
		w.kid("globals", x.Globals)
		w.kid("locals", x.Locals)
	case *syntax.Assert:
		w.Kind = "Assert"
		w.kid("test", x.Test)
		w.kid("msg", x.Msg)
	case *syntax.Delete:
		w.Kind = "Delete"
		w.exprs("targets", x.Targets)
	case *syntax.Import:
		w.Kind = "Import"
		w.aliases(x.Names)
	case *syntax.ImportFrom:
		w.Kind = "ImportFrom"
		w.attr("module", x.Module)
		w.attr("level", strconv.Itoa(x.Level))
		w.aliases(x.Names)
	case *syntax.Global:
		w.Kind = "Global"
		w.attr("names", x.Names...)
	case *syntax.PrintStmt:
		w.Kind = "Print"
		if x.NewLine {
			w.attr("nl", "1")
		}
		w.kid("dest", x.Dest)
		w.exprs("values", x.Values)
	case *syntax.ExprStmt:
		w.Kind = "ExprStmt"
		w.kid("value", x.Value)
	case *syntax.Pass:
		w.Kind = "Pass"
	case *syntax.Break:
		w.Kind = "Break"
	case *syntax.Continue:
		w.Kind = "Continue"
	default:
		return nil
	}
	return w
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

type decoder struct {
	err error
}

func (d *decoder) fail(w *Node, format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("wire: %s at %d:%d: %s", w.Kind, w.Line, w.Col, fmt.Sprintf(format, args...))
	}
}

func (w *Node) str(key string) string {
	if vs := w.Attrs[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (w *Node) strs(key string) []string {
	vs := w.Attrs[key]
	if len(vs) == 0 {
		return nil
	}
	return append([]string(nil), vs...)
}

func (d *decoder) expr(w *Node, key string) syntax.Expr {
	kids := w.Kids[key]
	if len(kids) == 0 {
		return nil
	}
	if len(kids) > 1 {
		d.fail(w, "slot %q holds %d nodes, want 1", key, len(kids))
		return nil
	}
	return d.toExpr(w, key, d.node(kids[0]))
}

func (d *decoder) toExpr(w *Node, key string, n syntax.Node) syntax.Expr {
	if n == nil {
		return nil
	}
	e, ok := n.(syntax.Expr)
	if !ok {
		d.fail(w, "slot %q holds a non-expression", key)
		return nil
	}
	return e
}

func (d *decoder) exprs(w *Node, key string) []syntax.Expr {
	var out []syntax.Expr
	for _, k := range w.Kids[key] {
		if e := d.toExpr(w, key, d.node(k)); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (d *decoder) stmts(w *Node, key string) []syntax.Stmt {
	var out []syntax.Stmt
	for _, k := range w.Kids[key] {
		n := d.node(k)
		if n == nil {
			continue
		}
		s, ok := n.(syntax.Stmt)
		if !ok {
			d.fail(w, "slot %q holds a non-statement", key)
			continue
		}
		out = append(out, s)
	}
	return out
}

func (d *decoder) gens(w *Node) []*syntax.Comprehension {
	var out []*syntax.Comprehension
	for _, k := range w.Kids["generators"] {
		c, ok := d.node(k).(*syntax.Comprehension)
		if !ok {
			d.fail(w, "slot %q holds a non-comprehension", "generators")
			return nil
		}
		out = append(out, c)
	}
	return out
}

func (d *decoder) arguments(w *Node) *syntax.Arguments {
	kids := w.Kids["args"]
	if len(kids) == 0 {
		return nil
	}
	args, ok := d.node(kids[0]).(*syntax.Arguments)
	if !ok {
		d.fail(w, "slot %q holds a non-argument list", "args")
		return nil
	}
	return args
}

func (d *decoder) aliases(w *Node) []syntax.Alias {
	names := w.Attrs["names"]
	asnames := w.Attrs["asnames"]
	if len(asnames) != len(names) {
		d.fail(w, "%d names but %d aliases", len(names), len(asnames))
		return nil
	}
	out := make([]syntax.Alias, len(names))
	for i := range names {
		out[i] = syntax.Alias{Name: names[i], AsName: asnames[i]}
	}
	return out
}

// Decode converts a wire node back into a syntax node.
func Decode(w *Node) (syntax.Node, error) {
	d := &decoder{}
	n := d.node(w)
	if d.err != nil {
		return nil, d.err
	}
	return n, nil
}

func (d *decoder) node(w *Node) syntax.Node {
	if w == nil || d.err != nil {
		return nil
	}
	loc := syntax.Loc{Position: syntax.Position{Line: w.Line, Column: w.Col}}

	switch w.Kind {
	case "Module":
		return &syntax.Module{Loc: loc, Body: d.stmts(w, "body")}

	case "Name":
		return &syntax.Name{Loc: loc, ID: w.str("id")}
	case "Num":
		return &syntax.Num{Loc: loc, Value: w.str("value")}
	case "Str":
		return &syntax.Str{Loc: loc, Value: w.str("value")}
	case "NameConstant":
		return &syntax.NameConstant{Loc: loc, Value: w.str("value")}
	case "Attribute":
		return &syntax.Attribute{Loc: loc, Value: d.expr(w, "value"), Attr: w.str("attr")}
	case "Subscript":
		return &syntax.Subscript{Loc: loc, Value: d.expr(w, "value"), Index: d.expr(w, "index")}
	case "Slice":
		return &syntax.Slice{Loc: loc, Lower: d.expr(w, "lower"), Upper: d.expr(w, "upper"), Step: d.expr(w, "step")}
	case "Call":
		call := &syntax.Call{Loc: loc, Func: d.expr(w, "func"), Args: d.exprs(w, "args")}
		for _, k := range w.Kids["keywords"] {
			kw, ok := d.node(k).(*syntax.Keyword)
			if !ok {
				d.fail(w, "slot %q holds a non-keyword", "keywords")
				return nil
			}
			call.Keywords = append(call.Keywords, kw)
		}
		return call
	case "Keyword":
		return &syntax.Keyword{Loc: loc, Arg: w.str("arg"), Value: d.expr(w, "value")}
	case "Starred":
		return &syntax.Starred{Loc: loc, Value: d.expr(w, "value")}
	case "BinOp":
		return &syntax.BinOp{Loc: loc, Left: d.expr(w, "left"), Op: w.str("op"), Right: d.expr(w, "right")}
	case "UnaryOp":
		return &syntax.UnaryOp{Loc: loc, Op: w.str("op"), Operand: d.expr(w, "operand")}
	case "BoolOp":
		return &syntax.BoolOp{Loc: loc, Op: w.str("op"), Values: d.exprs(w, "values")}
	case "Compare":
		return &syntax.Compare{Loc: loc, Left: d.expr(w, "left"), Ops: w.strs("ops"), Comparators: d.exprs(w, "comparators")}
	case "IfExp":
		return &syntax.IfExp{Loc: loc, Test: d.expr(w, "test"), Body: d.expr(w, "body"), OrElse: d.expr(w, "orelse")}
	case "Tuple":
		return &syntax.Tuple{Loc: loc, Elts: d.exprs(w, "elts")}
	case "List":
		return &syntax.List{Loc: loc, Elts: d.exprs(w, "elts")}
	case "Dict":
		return &syntax.Dict{Loc: loc, Keys: d.exprs(w, "keys"), Values: d.exprs(w, "values")}
	case "Set":
		return &syntax.Set{Loc: loc, Elts: d.exprs(w, "elts")}
	case "Lambda":
		return &syntax.Lambda{Loc: loc, Args: d.arguments(w), Body: d.expr(w, "body")}
	case "Comprehension":
		return &syntax.Comprehension{Loc: loc, Target: d.expr(w, "target"), Iter: d.expr(w, "iter"), Ifs: d.exprs(w, "ifs")}
	case "ListComp":
		return &syntax.ListComp{Loc: loc, Elt: d.expr(w, "elt"), Generators: d.gens(w)}
	case "GeneratorExp":
		return &syntax.GeneratorExp{Loc: loc, Elt: d.expr(w, "elt"), Generators: d.gens(w)}
	case "SetComp":
		return &syntax.SetComp{Loc: loc, Elt: d.expr(w, "elt"), Generators: d.gens(w)}
	case "DictComp":
		return &syntax.DictComp{Loc: loc, Key: d.expr(w, "key"), Value: d.expr(w, "value"), Generators: d.gens(w)}
	case "Yield":
		return &syntax.Yield{Loc: loc, Value: d.expr(w, "value")}

	case "FunctionDef":
		return &syntax.FunctionDef{
			Loc:        loc,
			Name:       w.str("name"),
			Decorators: d.exprs(w, "decorators"),
			Args:       d.arguments(w),
			Body:       d.stmts(w, "body"),
		}
	case "Arguments":
		return &syntax.Arguments{
			Loc:      loc,
			Args:     w.strs("args"),
			Defaults: d.exprs(w, "defaults"),
			Vararg:   w.str("vararg"),
			Kwarg:    w.str("kwarg"),
		}
	case "ClassDef":
		return &syntax.ClassDef{
			Loc:        loc,
			Name:       w.str("name"),
			Bases:      d.exprs(w, "bases"),
			Body:       d.stmts(w, "body"),
			Decorators: d.exprs(w, "decorators"),
		}
	case "Return":
		return &syntax.Return{Loc: loc, Value: d.expr(w, "value")}
	case "Assign":
		return &syntax.Assign{Loc: loc, Targets: d.exprs(w, "targets"), Value: d.expr(w, "value")}
	case "AugAssign":
		return &syntax.AugAssign{Loc: loc, Target: d.expr(w, "target"), Op: w.str("op"), Value: d.expr(w, "value")}
	case "If":
		return &syntax.If{Loc: loc, Test: d.expr(w, "test"), Body: d.stmts(w, "body"), OrElse: d.stmts(w, "orelse")}
	case "While":
		return &syntax.While{Loc: loc, Test: d.expr(w, "test"), Body: d.stmts(w, "body"), OrElse: d.stmts(w, "orelse")}
	case "For":
		return &syntax.For{
			Loc:    loc,
			Target: d.expr(w, "target"),
			Iter:   d.expr(w, "iter"),
			Body:   d.stmts(w, "body"),
			OrElse: d.stmts(w, "orelse"),
		}
	case "Try":
		try := &syntax.Try{Loc: loc, Body: d.stmts(w, "body")}
		for _, k := range w.Kids["handlers"] {
			h, ok := d.node(k).(*syntax.ExceptHandler)
			if !ok {
				d.fail(w, "slot %q holds a non-handler", "handlers")
				return nil
			}
			try.Handlers = append(try.Handlers, h)
		}
		try.OrElse = d.stmts(w, "orelse")
		try.Finally = d.stmts(w, "finally")
		return try
	case "ExceptHandler":
		return &syntax.ExceptHandler{Loc: loc, Type: d.expr(w, "type"), Name: w.str("name"), Body: d.stmts(w, "body")}
	case "Raise":
		return &syntax.Raise{Loc: loc, Exc: d.expr(w, "exc"), Inst: d.expr(w, "inst"), Tback: d.expr(w, "tback")}
	case "With":
		with := &syntax.With{Loc: loc}
		for _, k := range w.Kids["items"] {
			item, ok := d.node(k).(*syntax.WithItem)
			if !ok {
				d.fail(w, "slot %q holds a non-item", "items")
				return nil
			}
			with.Items = append(with.Items, item)
		}
		with.Body = d.stmts(w, "body")
		return with
	case "WithItem":
		return &syntax.WithItem{Loc: loc, Context: d.expr(w, "context"), Vars: d.expr(w, "vars")}
	case "Exec":
		return &syntax.Exec{Loc: loc, Body: d.expr(w, "body"), Globals: d.expr(w, "globals"), Locals: d.expr(w, "locals")}
	case "Assert":
		return &syntax.Assert{Loc: loc, Test: d.expr(w, "test"), Msg: d.expr(w, "msg")}
	case "Delete":
		return &syntax.Delete{Loc: loc, Targets: d.exprs(w, "targets")}
	case "Import":
		return &syntax.Import{Loc: loc, Names: d.aliases(w)}
	case "ImportFrom":
		level, err := strconv.Atoi(w.str("level"))
		if err != nil {
			d.fail(w, "bad level %q", w.str("level"))
			return nil
		}
		return &syntax.ImportFrom{Loc: loc, Module: w.str("module"), Names: d.aliases(w), Level: level}
	case "Global":
		return &syntax.Global{Loc: loc, Names: w.strs("names")}
	case "Print":
		return &syntax.PrintStmt{Loc: loc, Dest: d.expr(w, "dest"), Values: d.exprs(w, "values"), NewLine: w.str("nl") == "1"}
	case "ExprStmt":
		return &syntax.ExprStmt{Loc: loc, Value: d.expr(w, "value")}
	case "Pass":
		return &syntax.Pass{Loc: loc}
	case "Break":
		return &syntax.Break{Loc: loc}
	case "Continue":
		return &syntax.Continue{Loc: loc}
	}

	d.fail(w, "unknown node kind")
	return nil
}
