package vm

import (
	"strings"

	"strobe/parser"
)

// Compiler translates a parsed script to bytecode. Variable references are
// resolved to binding-table slots at compile time; unknown names are
// registered on first use since legacy scripts freely introduce
// temporaries.
type Compiler struct {
	prog   *Program
	consts map[float64]int // constant pool deduplication
	binds  *Bindings
}

// Compile parses source and compiles it against the given binding table.
// The returned Program is immutable and only valid for tables sharing the
// slot layout of binds (including its Clones).
func Compile(source string, binds *Bindings) (*Program, error) {
	stmts, err := parser.ParseScript(source)
	if err != nil {
		return nil, err
	}

	c := &Compiler{
		prog: &Program{
			Code:   make([]byte, 0, 64),
			Source: source,
		},
		consts: make(map[float64]int),
		binds:  binds,
	}

	for _, stmt := range stmts {
		if err := c.compileExpr(stmt); err != nil {
			return nil, err
		}
		// Statement values are discarded
		c.emit(OP_POP)
	}

	return c.prog, nil
}

// compileExpr emits code that leaves the expression value on the stack
func (c *Compiler) compileExpr(expr parser.Expr) error {
	switch e := expr.(type) {
	case *parser.NumberExpr:
		c.emitOp(OP_CONST, c.constant(e.Value))
		return nil

	case *parser.IdentifierExpr:
		c.emitOp(OP_LOAD, int(c.binds.Register(e.Name)))
		return nil

	case *parser.AssignExpr:
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.emitOp(OP_STORE, int(c.binds.Register(e.Name)))
		return nil

	case *parser.UnaryExpr:
		if err := c.compileExpr(e.Operand); err != nil {
			return err
		}
		if e.Operator == parser.TOKEN_MINUS {
			c.emit(OP_NEG)
		} else {
			c.emit(OP_NOT)
		}
		return nil

	case *parser.BinaryExpr:
		return c.compileBinary(e)

	case *parser.CallExpr:
		return c.compileCall(e)

	default:
		return &parser.CompileError{Pos: expr.Position(), Message: "unsupported expression"}
	}
}

// compileBinary emits a binary operation. && and || short-circuit: the
// right operand is only evaluated when needed, so assignments inside it
// keep their side-effect order.
func (c *Compiler) compileBinary(e *parser.BinaryExpr) error {
	switch e.Operator {
	case parser.TOKEN_AND:
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		falseJump := c.emitOp(OP_JZ, 0)
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		falseJump2 := c.emitOp(OP_JZ, 0)
		c.emitOp(OP_CONST, c.constant(1))
		endJump := c.emitOp(OP_JUMP, 0)
		c.patchJump(falseJump)
		c.patchJump(falseJump2)
		c.emitOp(OP_CONST, c.constant(0))
		c.patchJump(endJump)
		return nil

	case parser.TOKEN_OR:
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		trueJump := c.emitOp(OP_JNZ, 0)
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		trueJump2 := c.emitOp(OP_JNZ, 0)
		c.emitOp(OP_CONST, c.constant(0))
		endJump := c.emitOp(OP_JUMP, 0)
		c.patchJump(trueJump)
		c.patchJump(trueJump2)
		c.emitOp(OP_CONST, c.constant(1))
		c.patchJump(endJump)
		return nil
	}

	if err := c.compileExpr(e.Left); err != nil {
		return err
	}
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}

	switch e.Operator {
	case parser.TOKEN_PLUS:
		c.emit(OP_ADD)
	case parser.TOKEN_MINUS:
		c.emit(OP_SUB)
	case parser.TOKEN_STAR:
		c.emit(OP_MUL)
	case parser.TOKEN_SLASH:
		c.emit(OP_DIV)
	case parser.TOKEN_PERCENT:
		c.emit(OP_MOD)
	case parser.TOKEN_EQ:
		c.emit(OP_EQ)
	case parser.TOKEN_NE:
		c.emit(OP_NE)
	case parser.TOKEN_LT:
		c.emit(OP_LT)
	case parser.TOKEN_GT:
		c.emit(OP_GT)
	case parser.TOKEN_LE:
		c.emit(OP_LE)
	case parser.TOKEN_GE:
		c.emit(OP_GE)
	default:
		return &parser.CompileError{Pos: e.Pos, Message: "unsupported operator " + e.Operator.String()}
	}
	return nil
}

// compileCall emits a builtin function call. if(cond,a,b) is lowered to
// conditional jumps so only the taken branch executes.
func (c *Compiler) compileCall(e *parser.CallExpr) error {
	// Function names fold the same way variable names do
	name := strings.ToLower(e.Name)
	if name == "if" {
		if len(e.Args) != 3 {
			return &parser.CompileError{Pos: e.Pos, Message: "if() takes 3 arguments"}
		}
		if err := c.compileExpr(e.Args[0]); err != nil {
			return err
		}
		elseJump := c.emitOp(OP_JZ, 0)
		if err := c.compileExpr(e.Args[1]); err != nil {
			return err
		}
		endJump := c.emitOp(OP_JUMP, 0)
		c.patchJump(elseJump)
		if err := c.compileExpr(e.Args[2]); err != nil {
			return err
		}
		c.patchJump(endJump)
		return nil
	}

	id, arity, ok := LookupFunc(name)
	if !ok {
		return &parser.CompileError{Pos: e.Pos, Message: "unknown function " + e.Name}
	}
	if len(e.Args) != arity {
		return &parser.CompileError{
			Pos:     e.Pos,
			Message: e.Name + "() arity mismatch",
		}
	}

	for _, arg := range e.Args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.emitOp(OP_CALL, id)
	return nil
}

// constant interns v in the constant pool and returns its index
func (c *Compiler) constant(v float64) int {
	if idx, ok := c.consts[v]; ok {
		return idx
	}
	idx := len(c.prog.Constants)
	c.prog.Constants = append(c.prog.Constants, v)
	c.consts[v] = idx
	return idx
}

// emit appends a bare opcode
func (c *Compiler) emit(op OpCode) {
	c.prog.Code = append(c.prog.Code, byte(op))
}

// emitOp appends an opcode with a uint16 operand and returns the operand's
// byte offset for later patching
func (c *Compiler) emitOp(op OpCode, operand int) int {
	c.prog.Code = append(c.prog.Code, byte(op), byte(operand), byte(operand>>8))
	return len(c.prog.Code) - 2
}

// patchJump rewrites a jump operand to point at the current code position
func (c *Compiler) patchJump(operandPos int) {
	target := len(c.prog.Code)
	c.prog.Code[operandPos] = byte(target)
	c.prog.Code[operandPos+1] = byte(target >> 8)
}
