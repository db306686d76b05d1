package parser

// TokenType represents different types of lexical tokens
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	// Literals
	TOKEN_NUMBER // 42, 3.14, 1e-3

	// Identifiers
	TOKEN_IDENTIFIER

	// Operators
	TOKEN_PLUS    // +
	TOKEN_MINUS   // -
	TOKEN_STAR    // *
	TOKEN_SLASH   // /
	TOKEN_PERCENT // %

	TOKEN_EQ // ==
	TOKEN_NE // !=
	TOKEN_LT // <
	TOKEN_GT // >
	TOKEN_LE // <=
	TOKEN_GE // >=

	TOKEN_AND // &&
	TOKEN_OR  // ||
	TOKEN_NOT // !

	TOKEN_ASSIGN // =

	// Delimiters
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
)

// Position tracks where a token appears in the source
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a single lexical token
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

var tokenNames = map[TokenType]string{
	TOKEN_EOF:        "EOF",
	TOKEN_ILLEGAL:    "ILLEGAL",
	TOKEN_NUMBER:     "NUMBER",
	TOKEN_IDENTIFIER: "IDENTIFIER",
	TOKEN_PLUS:       "+",
	TOKEN_MINUS:      "-",
	TOKEN_STAR:       "*",
	TOKEN_SLASH:      "/",
	TOKEN_PERCENT:    "%",
	TOKEN_EQ:         "==",
	TOKEN_NE:         "!=",
	TOKEN_LT:         "<",
	TOKEN_GT:         ">",
	TOKEN_LE:         "<=",
	TOKEN_GE:         ">=",
	TOKEN_AND:        "&&",
	TOKEN_OR:         "||",
	TOKEN_NOT:        "!",
	TOKEN_ASSIGN:     "=",
	TOKEN_LPAREN:     "(",
	TOKEN_RPAREN:     ")",
	TOKEN_COMMA:      ",",
	TOKEN_SEMICOLON:  ";",
}

// String returns a readable name for the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}
