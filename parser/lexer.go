package parser

// Lexer tokenizes effect script source code
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
	column       int
}

// NewLexer creates a new Lexer instance
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

// peekChar returns the next character without advancing
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// skipWhitespace skips over whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// skipComment skips over a comment (// to end of line). Legacy presets
// carry commented-out script lines, so these must lex away silently.
func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()
	for l.ch == '/' && l.peekChar() == '/' {
		l.skipComment()
		l.skipWhitespace()
	}

	tok.Position = Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}

	switch l.ch {
	case 0:
		tok.Type = TOKEN_EOF
		tok.Value = ""
	case '(':
		tok.Type = TOKEN_LPAREN
		tok.Value = string(l.ch)
		l.readChar()
	case ')':
		tok.Type = TOKEN_RPAREN
		tok.Value = string(l.ch)
		l.readChar()
	case ',':
		tok.Type = TOKEN_COMMA
		tok.Value = string(l.ch)
		l.readChar()
	case ';':
		tok.Type = TOKEN_SEMICOLON
		tok.Value = string(l.ch)
		l.readChar()
	case '+':
		tok.Type = TOKEN_PLUS
		tok.Value = string(l.ch)
		l.readChar()
	case '-':
		tok.Type = TOKEN_MINUS
		tok.Value = string(l.ch)
		l.readChar()
	case '*':
		tok.Type = TOKEN_STAR
		tok.Value = string(l.ch)
		l.readChar()
	case '/':
		tok.Type = TOKEN_SLASH
		tok.Value = string(l.ch)
		l.readChar()
	case '%':
		tok.Type = TOKEN_PERCENT
		tok.Value = string(l.ch)
		l.readChar()
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type = TOKEN_EQ
			tok.Value = "=="
		} else {
			tok.Type = TOKEN_ASSIGN
			tok.Value = "="
		}
		l.readChar()
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type = TOKEN_NE
			tok.Value = "!="
		} else {
			tok.Type = TOKEN_NOT
			tok.Value = "!"
		}
		l.readChar()
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type = TOKEN_LE
			tok.Value = "<="
		} else {
			tok.Type = TOKEN_LT
			tok.Value = "<"
		}
		l.readChar()
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type = TOKEN_GE
			tok.Value = ">="
		} else {
			tok.Type = TOKEN_GT
			tok.Value = ">"
		}
		l.readChar()
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			tok.Type = TOKEN_AND
			tok.Value = "&&"
			l.readChar()
		} else {
			tok.Type = TOKEN_ILLEGAL
			tok.Value = string(l.ch)
			l.readChar()
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok.Type = TOKEN_OR
			tok.Value = "||"
			l.readChar()
		} else {
			tok.Type = TOKEN_ILLEGAL
			tok.Value = string(l.ch)
			l.readChar()
		}
	default:
		if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
			tok.Type = TOKEN_NUMBER
			tok.Value = l.readNumber()
		} else if isLetter(l.ch) {
			tok.Type = TOKEN_IDENTIFIER
			tok.Value = l.readIdentifier()
		} else {
			tok.Type = TOKEN_ILLEGAL
			tok.Value = string(l.ch)
			l.readChar()
		}
	}

	return tok
}

// readNumber reads a numeric literal: integer, decimal, or scientific notation
func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		// Only consume the exponent if it forms a valid suffix
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
	return l.input[start:l.position]
}

// readIdentifier reads an identifier (letters, digits, underscores)
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
