package script

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenIllegal TokenType = "ILLEGAL"
	tokenEOF     TokenType = "EOF"
	tokenNewline TokenType = "NEWLINE"

	tokenIdent  TokenType = "IDENT"
	tokenInt    TokenType = "INT"
	tokenFloat  TokenType = "FLOAT"
	tokenString TokenType = "STRING"

	tokenAssign TokenType = "="
	tokenPlus   TokenType = "+"
	tokenMinus  TokenType = "-"
	tokenLT     TokenType = "<"
	tokenEQ     TokenType = "=="
	tokenNotEQ  TokenType = "!="

	tokenComma    TokenType = ","
	tokenColon    TokenType = ":"
	tokenDot      TokenType = "."
	tokenLParen   TokenType = "("
	tokenRParen   TokenType = ")"
	tokenLBrace   TokenType = "{"
	tokenRBrace   TokenType = "}"
	tokenLBracket TokenType = "["
	tokenRBracket TokenType = "]"

	tokenClass  TokenType = "CLASS"
	tokenDef    TokenType = "DEF"
	tokenEnd    TokenType = "END"
	tokenSelf   TokenType = "SELF"
	tokenBase   TokenType = "BASE"
	tokenReturn TokenType = "RETURN"
	tokenPrint  TokenType = "PRINT"
	tokenTrue   TokenType = "TRUE"
	tokenFalse  TokenType = "FALSE"
	tokenNil    TokenType = "NIL"
)

// Token captures lexical information for the parser.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	// Offset is the byte offset of the first rune of the token.
	Offset int
}

// Position identifies a line and column in the source, both 1-based.
type Position struct {
	Line   int
	Column int
}

var keywords = map[string]TokenType{
	"class":  tokenClass,
	"def":    tokenDef,
	"end":    tokenEnd,
	"self":   tokenSelf,
	"base":   tokenBase,
	"return": tokenReturn,
	"print":  tokenPrint,
	"true":   tokenTrue,
	"false":  tokenFalse,
	"nil":    tokenNil,
}

func lookupIdent(ident string) TokenType {
	if tt, ok := keywords[ident]; ok {
		return tt
	}
	return tokenIdent
}

func tokenLabel(tt TokenType) string {
	switch tt {
	case tokenIllegal:
		return "invalid token"
	case tokenEOF:
		return "end of input"
	case tokenNewline:
		return "end of line"
	case tokenIdent:
		return "identifier"
	case tokenInt:
		return "integer"
	case tokenFloat:
		return "float"
	case tokenString:
		return "string"
	case tokenClass, tokenDef, tokenEnd, tokenSelf, tokenBase, tokenReturn,
		tokenPrint, tokenTrue, tokenFalse, tokenNil:
		for word, kw := range keywords {
			if kw == tt {
				return "'" + word + "'"
			}
		}
	}
	return "'" + string(tt) + "'"
}
