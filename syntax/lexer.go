package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: indentation-aware tokenizer for the host language
// ---------------------------------------------------------------------------

// Lexer tokenizes host-language source code. Leading whitespace is turned
// into INDENT/DEDENT tokens; newlines inside brackets are ignored.
type Lexer struct {
	input   string
	pos     int  // offset of ch
	readPos int  // offset after ch
	ch      rune // current character, 0 at EOF
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)

	indents   []int   // indentation stack, always starts with 0
	depth     int     // bracket nesting depth
	lineStart bool    // at the start of a logical line
	pending   []Token // queued layout tokens
	last      TokenType
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:     input,
		line:      1,
		col:       1,
		indents:   []int{0},
		lineStart: true,
		last:      TokenNewline,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos > 0 {
		if l.ch == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the position of the current character.
func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.col}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	tok := l.next()
	l.last = tok.Type
	return tok
}

func (l *Lexer) next() Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	if l.lineStart && l.depth == 0 {
		l.lineStart = false
		if tok, ok := l.readIndent(); ok {
			return tok
		}
	}

	l.skipWhitespaceAndComments()
	pos := l.position()

	switch {
	case l.ch == 0:
		if l.last != TokenNewline && l.last != TokenDedent && l.last != TokenIndent {
			return Token{Type: TokenNewline, Pos: pos}
		}
		if len(l.indents) > 1 {
			l.indents = l.indents[:len(l.indents)-1]
			return Token{Type: TokenDedent, Pos: pos}
		}
		return Token{Type: TokenEOF, Pos: pos}

	case l.ch == '\n' || l.ch == '\r':
		if l.ch == '\r' && l.peekChar() == '\n' {
			l.readChar()
		}
		l.readChar()
		if l.depth > 0 {
			return l.next()
		}
		l.lineStart = true
		if l.last == TokenNewline {
			return l.next()
		}
		return Token{Type: TokenNewline, Literal: "\n", Pos: pos}

	case l.ch == '\'' || l.ch == '"':
		return l.readString(pos, "")

	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.readNumber(pos)

	case isLetter(l.ch) || l.ch == '_':
		return l.readName(pos)
	}

	rest := l.input[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			for range op {
				l.readChar()
			}
			switch op {
			case "(", "[", "{":
				l.depth++
			case ")", "]", "}":
				if l.depth > 0 {
					l.depth--
				}
			}
			return Token{Type: TokenOp, Literal: op, Pos: pos}
		}
	}

	ch := l.ch
	l.readChar()
	return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character: %c", ch), Pos: pos}
}

// readIndent measures the indentation of the next non-blank line and queues
// INDENT or DEDENT tokens when it differs from the enclosing block.
func (l *Lexer) readIndent() (Token, bool) {
	for {
		width := 0
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
			switch l.ch {
			case ' ':
				width++
			case '\t':
				width = (width/8 + 1) * 8
			}
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		}
		if l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '\n' {
			l.readChar()
			continue
		}
		if l.ch == 0 {
			return Token{}, false
		}

		pos := l.position()
		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			return Token{Type: TokenIndent, Pos: pos}, true
		case width < top:
			for width < l.indents[len(l.indents)-1] {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, Token{Type: TokenDedent, Pos: pos})
			}
			if width != l.indents[len(l.indents)-1] {
				l.pending = append(l.pending, Token{Type: TokenError, Literal: "unindent does not match any outer indentation level", Pos: pos})
			}
			tok := l.pending[0]
			l.pending = l.pending[1:]
			return tok, true
		}
		return Token{}, false
	}
}

// skipWhitespaceAndComments skips blanks, comments and explicit line joins.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\f':
			l.readChar()
		case l.ch == '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '\\' && (l.peekChar() == '\n' || l.peekChar() == '\r'):
			l.readChar()
			if l.ch == '\r' {
				l.readChar()
			}
			if l.ch == '\n' {
				l.readChar()
			}
		case l.ch == '\r' && l.depth > 0:
			l.readChar()
		case l.ch == '\n' && l.depth > 0:
			l.readChar()
		default:
			return
		}
	}
}

// readName reads an identifier, keyword, or prefixed string literal.
func (l *Lexer) readName(pos Position) Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	name := l.input[start:l.pos]

	if (l.ch == '\'' || l.ch == '"') && isStringPrefix(name) {
		return l.readString(pos, name)
	}
	if keywords[name] {
		return Token{Type: TokenKeyword, Literal: name, Pos: pos}
	}
	return Token{Type: TokenName, Literal: name, Pos: pos}
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "br", "rb", "ur":
		return true
	}
	return false
}

// readNumber reads an integer, float or imaginary literal. The literal
// text is kept verbatim.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos

	if l.ch == '0' && strings.ContainsRune("xXoObB", l.peekChar()) {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	} else {
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		if l.ch == '.' {
			l.readChar()
			for isDigit(l.ch) || l.ch == '_' {
				l.readChar()
			}
		}
		if l.ch == 'e' || l.ch == 'E' {
			next := l.peekChar()
			if isDigit(next) || next == '+' || next == '-' {
				l.readChar()
				if l.ch == '+' || l.ch == '-' {
					l.readChar()
				}
				for isDigit(l.ch) {
					l.readChar()
				}
			}
		}
	}
	if l.ch == 'l' || l.ch == 'L' || l.ch == 'j' || l.ch == 'J' {
		l.readChar()
	}

	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: pos}
}

// readString reads a quoted string starting at the current quote character.
// The token literal holds the decoded value.
func (l *Lexer) readString(pos Position, prefix string) Token {
	quote := l.ch
	raw := strings.ContainsAny(prefix, "rR")
	triple := false

	l.readChar()
	if l.ch == quote && l.peekChar() == quote {
		l.readChar()
		l.readChar()
		triple = true
	} else if l.ch == quote {
		l.readChar()
		return Token{Type: TokenString, Literal: "", Pos: pos}
	}

	var sb strings.Builder
	for {
		switch {
		case l.ch == 0:
			return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}

		case l.ch == '\n' && !triple:
			return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}

		case l.ch == quote:
			if !triple {
				l.readChar()
				return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
			}
			if l.peekChar() == quote && l.peekAt(1) == quote {
				l.readChar()
				l.readChar()
				l.readChar()
				return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
			}
			sb.WriteRune(l.ch)
			l.readChar()

		case l.ch == '\\':
			l.readChar()
			if raw {
				sb.WriteRune('\\')
				if l.ch != 0 {
					sb.WriteRune(l.ch)
					l.readChar()
				}
				continue
			}
			l.readEscape(&sb)

		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// peekAt returns the character n characters after the peek character.
func (l *Lexer) peekAt(n int) rune {
	off := l.readPos
	for i := 0; i <= n; i++ {
		if off >= len(l.input) {
			return 0
		}
		r, size := utf8.DecodeRuneInString(l.input[off:])
		if i == n {
			return r
		}
		off += size
	}
	return 0
}

// readEscape decodes the escape sequence following a backslash.
func (l *Lexer) readEscape(sb *strings.Builder) {
	switch l.ch {
	case '\n':
		// line continuation inside a string
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case '0':
		sb.WriteByte(0)
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '\\', '\'', '"':
		sb.WriteRune(l.ch)
	case 'x':
		if v, ok := l.readHex(2); ok {
			sb.WriteRune(rune(v))
			return
		}
		sb.WriteString(`\x`)
		return
	case 'u':
		if v, ok := l.readHex(4); ok {
			sb.WriteRune(rune(v))
			return
		}
		sb.WriteString(`\u`)
		return
	case 0:
		sb.WriteByte('\\')
		return
	default:
		sb.WriteByte('\\')
		sb.WriteRune(l.ch)
	}
	l.readChar()
}

// readHex reads n hex digits following an escape letter.
func (l *Lexer) readHex(n int) (uint64, bool) {
	end := l.readPos + n
	if end > len(l.input) {
		l.readChar()
		return 0, false
	}
	v, err := strconv.ParseUint(l.input[l.readPos:end], 16, 32)
	l.readChar()
	if err != nil {
		return 0, false
	}
	for i := 0; i < n; i++ {
		l.readChar()
	}
	return v, true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r > utf8.RuneSelf && unicode.IsLetter(r))
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
