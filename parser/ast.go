package parser

// Node is the base interface for all AST nodes
type Node interface {
	Position() Position
}

// Expr represents an expression node
type Expr interface {
	Node
	exprNode()
}

// NumberExpr represents a numeric literal
type NumberExpr struct {
	Pos   Position
	Value float64
}

func (e *NumberExpr) Position() Position { return e.Pos }
func (e *NumberExpr) exprNode()          {}

// IdentifierExpr represents a variable reference
type IdentifierExpr struct {
	Pos  Position
	Name string
}

func (e *IdentifierExpr) Position() Position { return e.Pos }
func (e *IdentifierExpr) exprNode()          {}

// UnaryExpr represents a unary operation
type UnaryExpr struct {
	Pos      Position
	Operator TokenType // TOKEN_MINUS, TOKEN_NOT
	Operand  Expr
}

func (e *UnaryExpr) Position() Position { return e.Pos }
func (e *UnaryExpr) exprNode()          {}

// BinaryExpr represents a binary operation
type BinaryExpr struct {
	Pos      Position
	Left     Expr
	Operator TokenType
	Right    Expr
}

func (e *BinaryExpr) Position() Position { return e.Pos }
func (e *BinaryExpr) exprNode()          {}

// AssignExpr represents an assignment: name = value. Assignment is an
// expression so it can appear inside if() branches and chain (a = b = 0).
type AssignExpr struct {
	Pos   Position
	Name  string
	Value Expr
}

func (e *AssignExpr) Position() Position { return e.Pos }
func (e *AssignExpr) exprNode()          {}

// CallExpr represents a builtin function call: name(arg, ...)
type CallExpr struct {
	Pos  Position
	Name string
	Args []Expr
}

func (e *CallExpr) Position() Position { return e.Pos }
func (e *CallExpr) exprNode()          {}
