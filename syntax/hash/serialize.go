package hash

import (
	"encoding/binary"

	"github.com/chazu/tiersplit/syntax"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of a syntax tree.
//
// Encoding conventions:
//   - First byte: HashVersion
//   - Every node: tag byte, then its fields in declaration order
//   - Integers: uint32 big-endian
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Lists: uint32 count followed by the elements
//   - Absent optional children: TagAbsent
//
// Positions are never written, so two trees that differ only in source
// locations serialize identically.
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of a tree.
func Serialize(node syntax.Node) []byte {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(HashVersion)
	s.serializeNode(node)
	return s.buf
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) writeStrings(vs []string) {
	s.writeUint32(uint32(len(vs)))
	for _, v := range vs {
		s.writeString(v)
	}
}

func (s *serializer) writeBool(v bool) {
	if v {
		s.writeByte(1)
	} else {
		s.writeByte(0)
	}
}

func (s *serializer) writeExprs(es []syntax.Expr) {
	s.writeUint32(uint32(len(es)))
	for _, e := range es {
		s.serializeExpr(e)
	}
}

func (s *serializer) writeStmts(ss []syntax.Stmt) {
	s.writeUint32(uint32(len(ss)))
	for _, st := range ss {
		s.serializeNode(st)
	}
}

func (s *serializer) serializeExpr(e syntax.Expr) {
	if e == nil {
		s.writeByte(TagAbsent)
		return
	}
	s.serializeNode(e)
}

func (s *serializer) writeGens(gens []*syntax.Comprehension) {
	s.writeUint32(uint32(len(gens)))
	for _, c := range gens {
		s.serializeNode(c)
	}
}

func (s *serializer) writeAliases(names []syntax.Alias) {
	s.writeUint32(uint32(len(names)))
	for _, a := range names {
		s.writeString(a.Name)
		s.writeString(a.AsName)
	}
}

func (s *serializer) serializeNode(node syntax.Node) {
	switch n := node.(type) {
	case nil:
		s.writeByte(TagAbsent)

	// Atoms
	case *syntax.Name:
		s.writeByte(TagName)
		s.writeString(n.ID)
	case *syntax.Num:
		s.writeByte(TagNum)
		s.writeString(n.Value)
	case *syntax.Str:
		s.writeByte(TagStr)
		s.writeString(n.Value)
	case *syntax.NameConstant:
		s.writeByte(TagNameConstant)
		s.writeString(n.Value)

	// Compound expressions
	case *syntax.Attribute:
		s.writeByte(TagAttribute)
		s.serializeExpr(n.Value)
		s.writeString(n.Attr)
	case *syntax.Subscript:
		s.writeByte(TagSubscript)
		s.serializeExpr(n.Value)
		s.serializeExpr(n.Index)
	case *syntax.Slice:
		s.writeByte(TagSlice)
		s.serializeExpr(n.Lower)
		s.serializeExpr(n.Upper)
		s.serializeExpr(n.Step)
	case *syntax.Call:
		s.writeByte(TagCall)
		s.serializeExpr(n.Func)
		s.writeExprs(n.Args)
		s.writeUint32(uint32(len(n.Keywords)))
		for _, kw := range n.Keywords {
			s.serializeNode(kw)
		}
	case *syntax.Keyword:
		s.writeByte(TagKeyword)
		s.writeString(n.Arg)
		s.serializeExpr(n.Value)
	case *syntax.Starred:
		s.writeByte(TagStarred)
		s.serializeExpr(n.Value)
	case *syntax.BinOp:
		s.writeByte(TagBinOp)
		s.writeString(n.Op)
		s.serializeExpr(n.Left)
		s.serializeExpr(n.Right)
	case *syntax.UnaryOp:
		s.writeByte(TagUnaryOp)
		s.writeString(n.Op)
		s.serializeExpr(n.Operand)
	case *syntax.BoolOp:
		s.writeByte(TagBoolOp)
		s.writeString(n.Op)
		s.writeExprs(n.Values)
	case *syntax.Compare:
		s.writeByte(TagCompare)
		s.serializeExpr(n.Left)
		s.writeStrings(n.Ops)
		s.writeExprs(n.Comparators)
	case *syntax.IfExp:
		s.writeByte(TagIfExp)
		s.serializeExpr(n.Test)
		s.serializeExpr(n.Body)
		s.serializeExpr(n.OrElse)
	case *syntax.Tuple:
		s.writeByte(TagTuple)
		s.writeExprs(n.Elts)
	case *syntax.List:
		s.writeByte(TagList)
		s.writeExprs(n.Elts)
	case *syntax.Dict:
		s.writeByte(TagDict)
		s.writeExprs(n.Keys)
		s.writeExprs(n.Values)
	case *syntax.Set:
		s.writeByte(TagSet)
		s.writeExprs(n.Elts)
	case *syntax.Lambda:
		s.writeByte(TagLambda)
		s.serializeNode(n.Args)
		s.serializeExpr(n.Body)

	// Comprehensions and generators
	case *syntax.Comprehension:
		if n == nil {
			s.writeByte(TagAbsent)
			return
		}
		s.writeByte(TagComprehension)
		s.serializeExpr(n.Target)
		s.serializeExpr(n.Iter)
		s.writeExprs(n.Ifs)
	case *syntax.ListComp:
		s.writeByte(TagListComp)
		s.serializeExpr(n.Elt)
		s.writeGens(n.Generators)
	case *syntax.GeneratorExp:
		s.writeByte(TagGeneratorExp)
		s.serializeExpr(n.Elt)
		s.writeGens(n.Generators)
	case *syntax.SetComp:
		s.writeByte(TagSetComp)
		s.serializeExpr(n.Elt)
		s.writeGens(n.Generators)
	case *syntax.DictComp:
		s.writeByte(TagDictComp)
		s.serializeExpr(n.Key)
		s.serializeExpr(n.Value)
		s.writeGens(n.Generators)
	case *syntax.Yield:
		s.writeByte(TagYield)
		s.serializeExpr(n.Value)

	// Definitions
	case *syntax.Module:
		s.writeByte(TagModule)
		s.writeStmts(n.Body)
	case *syntax.FunctionDef:
		s.writeByte(TagFunctionDef)
		s.writeString(n.Name)
		s.writeExprs(n.Decorators)
		s.serializeNode(n.Args)
		s.writeStmts(n.Body)
	case *syntax.Arguments:
		if n == nil {
			s.writeByte(TagAbsent)
			return
		}
		s.writeByte(TagArguments)
		s.writeStrings(n.Args)
		s.writeExprs(n.Defaults)
		s.writeString(n.Vararg)
		s.writeString(n.Kwarg)
	case *syntax.ClassDef:
		s.writeByte(TagClassDef)
		s.writeString(n.Name)
		s.writeExprs(n.Decorators)
		s.writeExprs(n.Bases)
		s.writeStmts(n.Body)

	// Statements
	case *syntax.Return:
		s.writeByte(TagReturn)
		s.serializeExpr(n.Value)
	case *syntax.Assign:
		s.writeByte(TagAssign)
		s.writeExprs(n.Targets)
		s.serializeExpr(n.Value)
	case *syntax.AugAssign:
		s.writeByte(TagAugAssign)
		s.writeString(n.Op)
		s.serializeExpr(n.Target)
		s.serializeExpr(n.Value)
	case *syntax.If:
		s.writeByte(TagIf)
		s.serializeExpr(n.Test)
		s.writeStmts(n.Body)
		s.writeStmts(n.OrElse)
	case *syntax.While:
		s.writeByte(TagWhile)
		s.serializeExpr(n.Test)
		s.writeStmts(n.Body)
		s.writeStmts(n.OrElse)
	case *syntax.For:
		s.writeByte(TagFor)
		s.serializeExpr(n.Target)
		s.serializeExpr(n.Iter)
		s.writeStmts(n.Body)
		s.writeStmts(n.OrElse)
	case *syntax.Try:
		s.writeByte(TagTry)
		s.writeStmts(n.Body)
		s.writeUint32(uint32(len(n.Handlers)))
		for _, h := range n.Handlers {
			s.serializeNode(h)
		}
		s.writeStmts(n.OrElse)
		s.writeStmts(n.Finally)
	case *syntax.ExceptHandler:
		s.writeByte(TagExceptHandler)
		s.serializeExpr(n.Type)
		s.writeString(n.Name)
		s.writeStmts(n.Body)
	case *syntax.Raise:
		s.writeByte(TagRaise)
		s.serializeExpr(n.Exc)
		s.serializeExpr(n.Inst)
		s.serializeExpr(n.Tback)
	case *syntax.With:
		s.writeByte(TagWith)
		s.writeUint32(uint32(len(n.Items)))
		for _, item := range n.Items {
			s.serializeNode(item)
		}
		s.writeStmts(n.Body)
	case *syntax.WithItem:
		if n == nil {
			s.writeByte(TagAbsent)
			return
		}
		s.writeByte(TagWithItem)
		s.serializeExpr(n.Context)
		s.serializeExpr(n.Vars)
	case *syntax.Exec:
		s.writeByte(TagExec)
		s.serializeExpr(n.Body)
		s.serializeExpr(n.Globals)
		s.serializeExpr(n.Locals)
	case *syntax.Assert:
		s.writeByte(TagAssert)
		s.serializeExpr(n.Test)
		s.serializeExpr(n.Msg)
	case *syntax.Delete:
		s.writeByte(TagDelete)
		s.writeExprs(n.Targets)
	case *syntax.Import:
		s.writeByte(TagImport)
		s.writeAliases(n.Names)
	case *syntax.ImportFrom:
		s.writeByte(TagImportFrom)
		s.writeString(n.Module)
		s.writeAliases(n.Names)
		s.writeUint32(uint32(n.Level))
	case *syntax.Global:
		s.writeByte(TagGlobal)
		s.writeStrings(n.Names)
	case *syntax.PrintStmt:
		s.writeByte(TagPrint)
		s.serializeExpr(n.Dest)
		s.writeExprs(n.Values)
		s.writeBool(n.NewLine)
	case *syntax.ExprStmt:
		s.writeByte(TagExprStmt)
		s.serializeExpr(n.Value)
	case *syntax.Pass:
		s.writeByte(TagPass)
	case *syntax.Break:
		s.writeByte(TagBreak)
	case *syntax.Continue:
		s.writeByte(TagContinue)
	}
}
