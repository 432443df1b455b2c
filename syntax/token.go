package syntax

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the host-language lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Layout
	TokenNewline // end of a logical line
	TokenIndent  // indentation increased
	TokenDedent  // indentation decreased

	// Literals
	TokenName   // foo, _bar
	TokenNumber // 42, 0x1F, 3.14, 1e10
	TokenString // 'a', "b", '''c''', r'\d'

	// Operators and delimiters
	TokenOp // + - * ** / // % << >> & | ^ ~ < > <= >= == != = += ... ( ) [ ] { } , : . ; @

	// Keywords
	TokenKeyword // def class if elif else while for in return ...
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "EOF",
	TokenError:   "ERROR",
	TokenNewline: "NEWLINE",
	TokenIndent:  "INDENT",
	TokenDedent:  "DEDENT",
	TokenName:    "NAME",
	TokenNumber:  "NUMBER",
	TokenString:  "STRING",
	TokenOp:      "OP",
	TokenKeyword: "KEYWORD",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // raw text; decoded value for strings
	Pos     Position // start position
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF, TokenNewline, TokenIndent, TokenDedent:
		return t.Type.String()
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// is reports whether the token is the operator or keyword lit.
func (t Token) is(lit string) bool {
	return (t.Type == TokenOp || t.Type == TokenKeyword) && t.Literal == lit
}

// keywords of the host language. True, False and None are parsed as
// NameConstant but lexed as keywords.
var keywords = map[string]bool{
	"and": true, "as": true, "assert": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"not": true, "or": true, "pass": true, "raise": true, "return": true,
	"try": true, "while": true, "with": true, "yield": true,
	"True": true, "False": true, "None": true,
}

// operators, longest first so the lexer can match greedily.
var operators = []string{
	"**=", "//=", ">>=", "<<=",
	"**", "//", ">>", "<<", "<=", ">=", "==", "!=", "<>", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "<", ">", "=",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "@",
}
