package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the structural serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// every cached output keyed by a previous digest.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing digests. Version 2 added the
// instance and traceback slots of Raise.
const HashVersion byte = 2

// Node kind tags. Each tag uniquely identifies a node kind in the
// serialized byte stream.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved
	TagAbsent       byte = 0x01 // optional child not present

	// Atoms
	TagName         byte = 0x02
	TagNum          byte = 0x03
	TagStr          byte = 0x04
	TagNameConstant byte = 0x05

	// Compound expressions
	TagAttribute byte = 0x10
	TagSubscript byte = 0x11
	TagSlice     byte = 0x12
	TagCall      byte = 0x13
	TagKeyword   byte = 0x14
	TagStarred   byte = 0x15
	TagBinOp     byte = 0x16
	TagUnaryOp   byte = 0x17
	TagBoolOp    byte = 0x18
	TagCompare   byte = 0x19
	TagIfExp     byte = 0x1A
	TagTuple     byte = 0x1B
	TagList      byte = 0x1C
	TagDict      byte = 0x1D
	TagSet       byte = 0x1E
	TagLambda    byte = 0x1F

	// Definitions
	TagModule      byte = 0x20
	TagFunctionDef byte = 0x21
	TagArguments   byte = 0x22
	TagClassDef    byte = 0x23

	// Statements
	TagReturn        byte = 0x30
	TagAssign        byte = 0x31
	TagAugAssign     byte = 0x32
	TagIf            byte = 0x33
	TagWhile         byte = 0x34
	TagFor           byte = 0x35
	TagTry           byte = 0x36
	TagExceptHandler byte = 0x37
	TagRaise         byte = 0x38
	TagAssert        byte = 0x39
	TagDelete        byte = 0x3A
	TagImport        byte = 0x3B
	TagImportFrom    byte = 0x3C
	TagGlobal        byte = 0x3D
	TagPrint         byte = 0x3E
	TagExprStmt      byte = 0x3F
	TagPass          byte = 0x40
	TagBreak         byte = 0x41
	TagContinue      byte = 0x42
	TagWith          byte = 0x43
	TagWithItem      byte = 0x44
	TagExec          byte = 0x45

	// Comprehensions and generators
	TagComprehension byte = 0x50
	TagListComp      byte = 0x51
	TagGeneratorExp  byte = 0x52
	TagSetComp       byte = 0x53
	TagDictComp      byte = 0x54
	TagYield         byte = 0x55

	// Reserved 0xFE-0xFF
)

// allTags lists every assigned tag for uniqueness checking in tests.
var allTags = []byte{
	TagAbsent,
	TagName, TagNum, TagStr, TagNameConstant,
	TagAttribute, TagSubscript, TagSlice, TagCall, TagKeyword, TagStarred,
	TagBinOp, TagUnaryOp, TagBoolOp, TagCompare, TagIfExp, TagTuple, TagList, TagDict,
	TagSet, TagLambda,
	TagModule, TagFunctionDef, TagArguments, TagClassDef,
	TagReturn, TagAssign, TagAugAssign, TagIf, TagWhile, TagFor, TagTry,
	TagExceptHandler, TagRaise, TagAssert, TagDelete, TagImport, TagImportFrom,
	TagGlobal, TagPrint, TagExprStmt, TagPass, TagBreak, TagContinue,
	TagWith, TagWithItem, TagExec,
	TagComprehension, TagListComp, TagGeneratorExp, TagSetComp, TagDictComp, TagYield,
}
