// Package lexer implements lexical analysis (tokenization) for veon source text.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"veon/internal/diag"
	"veon/internal/span"
	"veon/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

// Filename returns the name the lexer was created with.
func (l *Lexer) Filename() string { return l.filename }

// Tokenize scans the entire source and returns all tokens and diagnostics.
// Scanning continues after an error so that every bad character is reported;
// the token slice always ends with EOF.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// ---- internal helpers ----

func (l *Lexer) atEnd() bool { return l.pos >= len(l.source) }

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) make(kind token.Kind, lexeme string, start span.Position) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// skipTrivia skips whitespace and // line comments.
func (l *Lexer) skipTrivia() {
	for !l.atEnd() {
		switch ch := l.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) addError(code string, s span.Span, msg string) {
	l.diags = append(l.diags, diag.Errorf(code, s, "%s", msg))
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	l.skipTrivia()

	start := l.curPos()
	if l.atEnd() {
		return l.make(token.EOF, "", start)
	}

	ch := l.peek()
	switch {
	case ch == '"':
		return l.readString(start)
	case isDigit(ch):
		return l.readNumber(start)
	case isIdentStart(ch):
		return l.readIdentifier(start)
	default:
		return l.readOperator(start)
	}
}

// readString reads a double-quoted string literal. Strings may not span lines.
func (l *Lexer) readString(start span.Position) token.Token {
	l.advance() // opening "
	var value []byte

	for !l.atEnd() {
		ch := l.peek()
		if ch == '"' {
			l.advance()
			return l.make(token.STRING, string(value), start)
		}
		if ch == '\n' {
			break
		}
		if ch == '\\' {
			l.advance()
			if l.atEnd() {
				break
			}
			esc := l.peek()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case '\\':
				value = append(value, '\\')
			case '"':
				value = append(value, '"')
			default:
				l.addError("E1002", l.makeSpan(start), fmt.Sprintf("unknown escape sequence: \\%c", esc))
				value = append(value, esc)
			}
			l.advance()
			continue
		}
		value = append(value, ch)
		l.advance()
	}

	l.addError("E1001", l.makeSpan(start), "unterminated string literal")
	return l.make(token.STRING, string(value), start)
}

// readNumber reads an integer or decimal literal. A trailing '.' not followed
// by a digit is left for the DOT token.
func (l *Lexer) readNumber(start span.Position) token.Token {
	numStart := l.pos
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.make(token.NUMBER, l.source[numStart:l.pos], start)
}

func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos
	for isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := l.source[identStart:l.pos]
	return l.make(token.LookupIdent(lexeme), lexeme, start)
}

func (l *Lexer) readOperator(start span.Position) token.Token {
	if l.peek() >= utf8.RuneSelf {
		return l.readIllegalRune(start)
	}
	ch := l.advance()

	// two-character operators first
	if l.peek() == '=' {
		var kind token.Kind
		switch ch {
		case '=':
			kind = token.EQ
		case '!':
			kind = token.NEQ
		case '<':
			kind = token.LTE
		case '>':
			kind = token.GTE
		}
		if kind != token.ILLEGAL {
			l.advance()
			return l.make(kind, kind.String(), start)
		}
	}

	if kind, ok := singleChar[ch]; ok {
		return l.make(kind, string(ch), start)
	}

	msg := fmt.Sprintf("unexpected character: '%c'", ch)
	switch ch {
	case '&':
		msg += ", did you mean 'and'?"
	case '|':
		msg += ", did you mean 'or'?"
	}
	l.addError("E1003", l.makeSpan(start), msg)
	return l.make(token.ILLEGAL, string(ch), start)
}

// readIllegalRune reports a non-ASCII character, or one byte of invalid
// UTF-8, as a single ILLEGAL token.
func (l *Lexer) readIllegalRune(start span.Position) token.Token {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	lexeme := l.source[l.pos : l.pos+size]
	for i := 0; i < size; i++ {
		l.advance()
	}
	msg := fmt.Sprintf("unexpected character: %q", r)
	if r == utf8.RuneError && size == 1 {
		msg = fmt.Sprintf("invalid UTF-8 byte 0x%02x", lexeme[0])
	}
	l.addError("E1003", l.makeSpan(start), msg)
	return l.make(token.ILLEGAL, lexeme, start)
}

var singleChar = map[byte]token.Kind{
	'(': token.LPAREN,
	')': token.RPAREN,
	'{': token.LBRACE,
	'}': token.RBRACE,
	'[': token.LBRACKET,
	']': token.RBRACKET,
	',': token.COMMA,
	'.': token.DOT,
	';': token.SEMICOLON,
	'+': token.PLUS,
	'-': token.MINUS,
	'*': token.STAR,
	'/': token.SLASH,
	'%': token.PERCENT,
	'!': token.BANG,
	'=': token.ASSIGN,
	'<': token.LT,
	'>': token.GT,
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
