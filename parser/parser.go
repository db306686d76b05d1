package parser

import "strconv"

// Operator precedence levels, lowest to highest
const (
	PREC_LOWEST = iota
	PREC_ASSIGN
	PREC_OR
	PREC_AND
	PREC_EQUALITY
	PREC_COMPARISON
	PREC_SUM
	PREC_PRODUCT
	PREC_UNARY
)

// precedences maps infix token types to their binding power
var precedences = map[TokenType]int{
	TOKEN_ASSIGN:  PREC_ASSIGN,
	TOKEN_OR:      PREC_OR,
	TOKEN_AND:     PREC_AND,
	TOKEN_EQ:      PREC_EQUALITY,
	TOKEN_NE:      PREC_EQUALITY,
	TOKEN_LT:      PREC_COMPARISON,
	TOKEN_GT:      PREC_COMPARISON,
	TOKEN_LE:      PREC_COMPARISON,
	TOKEN_GE:      PREC_COMPARISON,
	TOKEN_PLUS:    PREC_SUM,
	TOKEN_MINUS:   PREC_SUM,
	TOKEN_STAR:    PREC_PRODUCT,
	TOKEN_SLASH:   PREC_PRODUCT,
	TOKEN_PERCENT: PREC_PRODUCT,
}

// Parser parses effect script source into an AST
type Parser struct {
	lexer   *Lexer
	current Token
	peek    Token
}

// NewParser creates a new Parser instance
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token
func (p *Parser) nextToken() {
	p.current = p.peek
	p.peek = p.lexer.NextToken()
}

// ParseScript parses a full script: a sequence of ;-separated statements.
// Empty statements (stray or trailing semicolons) are allowed, matching
// how legacy preset scripts are written.
func ParseScript(input string) ([]Expr, error) {
	p := NewParser(input)
	var stmts []Expr

	for {
		for p.current.Type == TOKEN_SEMICOLON {
			p.nextToken()
		}
		if p.current.Type == TOKEN_EOF {
			break
		}

		expr, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, expr)

		switch p.current.Type {
		case TOKEN_SEMICOLON:
			p.nextToken()
		case TOKEN_EOF:
			// final statement may omit the semicolon
		default:
			return nil, errorf(p.current.Position, "expected ';' or end of script, got %s", p.current.Type)
		}
	}

	return stmts, nil
}

// ParseExpression parses an expression with the given minimum precedence
func (p *Parser) ParseExpression(minPrec int) (Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		prec, ok := precedences[p.current.Type]
		if !ok || prec <= minPrec {
			return left, nil
		}

		switch p.current.Type {
		case TOKEN_ASSIGN:
			left, err = p.parseAssign(left)
		default:
			left, err = p.parseBinary(left, prec)
		}
		if err != nil {
			return nil, err
		}
	}
}

// parsePrefix parses a prefix expression: literal, identifier, call,
// unary operator, or parenthesized group
func (p *Parser) parsePrefix() (Expr, error) {
	tok := p.current

	switch tok.Type {
	case TOKEN_NUMBER:
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, errorf(tok.Position, "invalid number %q", tok.Value)
		}
		p.nextToken()
		return &NumberExpr{Pos: tok.Position, Value: val}, nil

	case TOKEN_IDENTIFIER:
		p.nextToken()
		if p.current.Type == TOKEN_LPAREN {
			return p.parseCall(tok)
		}
		return &IdentifierExpr{Pos: tok.Position, Name: tok.Value}, nil

	case TOKEN_MINUS, TOKEN_NOT:
		p.nextToken()
		operand, err := p.ParseExpression(PREC_UNARY)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: tok.Position, Operator: tok.Type, Operand: operand}, nil

	case TOKEN_LPAREN:
		p.nextToken()
		expr, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		if p.current.Type != TOKEN_RPAREN {
			return nil, errorf(p.current.Position, "expected ')', got %s", p.current.Type)
		}
		p.nextToken()
		return expr, nil

	case TOKEN_ILLEGAL:
		return nil, errorf(tok.Position, "unexpected character %q", tok.Value)

	default:
		return nil, errorf(tok.Position, "unexpected token %s", tok.Type)
	}
}

// parseCall parses a function call after the identifier token
func (p *Parser) parseCall(name Token) (Expr, error) {
	// current is TOKEN_LPAREN
	p.nextToken()

	var args []Expr
	if p.current.Type != TOKEN_RPAREN {
		for {
			arg, err := p.ParseExpression(PREC_LOWEST)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.current.Type != TOKEN_COMMA {
				break
			}
			p.nextToken()
		}
	}

	if p.current.Type != TOKEN_RPAREN {
		return nil, errorf(p.current.Position, "expected ')' in call to %s, got %s", name.Value, p.current.Type)
	}
	p.nextToken()

	return &CallExpr{Pos: name.Position, Name: name.Value, Args: args}, nil
}

// parseAssign parses the right side of an assignment. Right-associative,
// and the left side must be a plain identifier.
func (p *Parser) parseAssign(left Expr) (Expr, error) {
	ident, ok := left.(*IdentifierExpr)
	if !ok {
		return nil, errorf(p.current.Position, "left side of assignment must be a variable")
	}

	pos := p.current.Position
	p.nextToken()

	value, err := p.ParseExpression(PREC_ASSIGN - 1)
	if err != nil {
		return nil, err
	}

	return &AssignExpr{Pos: pos, Name: ident.Name, Value: value}, nil
}

// parseBinary parses the right side of a binary operator expression
func (p *Parser) parseBinary(left Expr, prec int) (Expr, error) {
	op := p.current
	p.nextToken()

	right, err := p.ParseExpression(prec)
	if err != nil {
		return nil, err
	}

	return &BinaryExpr{Pos: op.Position, Left: left, Operator: op.Type, Right: right}, nil
}
