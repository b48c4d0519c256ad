package script

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexer struct {
	input string

	offset int
	width  int

	line   int
	column int

	ch rune
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1}
	l.readRune()
	return l
}

// readRune advances to the next rune. line and column always describe the
// position of l.ch.
func (l *lexer) readRune() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.offset >= len(l.input) {
		l.width = 0
		l.ch = 0
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.offset:])
	l.width = w
	l.offset += w
	l.column++
	l.ch = r
}

func (l *lexer) peekRune() rune {
	if l.offset >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])
	return r
}

func (l *lexer) currentOffset() int {
	return l.offset - l.width
}

// NextToken scans the next token. Newlines and semicolons both produce
// tokenNewline.
func (l *lexer) NextToken() Token {
	l.skipSpaceAndComments()

	tok := Token{Pos: Position{Line: l.line, Column: l.column}, Offset: l.currentOffset()}
	switch l.ch {
	case 0:
		tok.Type = tokenEOF
		tok.Offset = len(l.input)
	case '\n', ';':
		tok.Type = tokenNewline
		tok.Literal = string(l.ch)
		l.readRune()
	case '=':
		if l.peekRune() == '=' {
			l.readRune()
			tok.Type, tok.Literal = tokenEQ, "=="
		} else {
			tok.Type, tok.Literal = tokenAssign, "="
		}
		l.readRune()
	case '!':
		if l.peekRune() == '=' {
			l.readRune()
			tok.Type, tok.Literal = tokenNotEQ, "!="
		} else {
			tok.Type, tok.Literal = tokenIllegal, "!"
		}
		l.readRune()
	case '+', '-', '<', ',', ':', '.', '(', ')', '{', '}', '[', ']':
		tok.Type = TokenType(string(l.ch))
		tok.Literal = string(l.ch)
		l.readRune()
	case '"':
		literal, err := l.readString()
		if err != "" {
			tok.Type, tok.Literal = tokenIllegal, err
		} else {
			tok.Type, tok.Literal = tokenString, literal
		}
	default:
		switch {
		case isIdentifierStart(l.ch):
			tok.Literal = l.readWhile(isIdentifierRune)
			tok.Type = lookupIdent(tok.Literal)
		case unicode.IsDigit(l.ch):
			literal, isFloat := l.readNumber()
			tok.Literal = literal
			if isFloat {
				tok.Type = tokenFloat
			} else {
				tok.Type = tokenInt
			}
		default:
			tok.Type, tok.Literal = tokenIllegal, string(l.ch)
			l.readRune()
		}
	}
	return tok
}

func (l *lexer) skipSpaceAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readRune()
		case '#':
			for l.ch != 0 && l.ch != '\n' {
				l.readRune()
			}
		default:
			return
		}
	}
}

func (l *lexer) readWhile(pred func(rune) bool) string {
	start := l.currentOffset()
	for l.ch != 0 && pred(l.ch) {
		l.readRune()
	}
	return l.input[start:l.currentOffset()]
}

func (l *lexer) readNumber() (string, bool) {
	start := l.currentOffset()
	hasDot := false
	for {
		switch {
		case unicode.IsDigit(l.ch):
			l.readRune()
		case l.ch == '.' && !hasDot && unicode.IsDigit(l.peekRune()):
			hasDot = true
			l.readRune()
		default:
			return l.input[start:l.currentOffset()], hasDot
		}
	}
}

func (l *lexer) readString() (string, string) {
	var sb strings.Builder
	for {
		l.readRune()
		switch l.ch {
		case 0, '\n':
			return "", "unterminated string"
		case '"':
			l.readRune()
			return sb.String(), ""
		case '\\':
			l.readRune()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 0:
				return "", "unterminated string"
			default:
				sb.WriteRune(l.ch)
			}
		default:
			sb.WriteRune(l.ch)
		}
	}
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '?'
}
