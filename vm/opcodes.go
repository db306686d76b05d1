package vm

import "fmt"

// OpCode is a single bytecode instruction
type OpCode byte

// Stack machine opcodes. Operands are encoded as little-endian uint16
// immediately following the opcode byte.
const (
	OP_CONST OpCode = iota // Push constant from pool [index]
	OP_LOAD                // Push binding slot value [slot]
	OP_STORE               // Store top of stack to binding slot [slot]; value stays on stack

	OP_POP // Discard top of stack

	OP_ADD // Pop b, a; push a + b
	OP_SUB // Pop b, a; push a - b
	OP_MUL // Pop b, a; push a * b
	OP_DIV // Pop b, a; push a / b (IEEE: 1/0 = +Inf)
	OP_MOD // Pop b, a; push mod(a, b)
	OP_NEG // Pop a; push -a
	OP_NOT // Pop a; push !a (0 or 1)

	OP_EQ // Pop b, a; push a == b (0 or 1)
	OP_NE // Pop b, a; push a != b
	OP_LT // Pop b, a; push a < b
	OP_GT // Pop b, a; push a > b
	OP_LE // Pop b, a; push a <= b
	OP_GE // Pop b, a; push a >= b

	OP_JUMP // Unconditional forward jump [target]
	OP_JZ   // Pop a; jump to [target] if a == 0
	OP_JNZ  // Pop a; jump to [target] if a != 0

	OP_CALL // Call builtin [funcID]; pops arity args, pushes result
)

var opNames = map[OpCode]string{
	OP_CONST: "CONST",
	OP_LOAD:  "LOAD",
	OP_STORE: "STORE",
	OP_POP:   "POP",
	OP_ADD:   "ADD",
	OP_SUB:   "SUB",
	OP_MUL:   "MUL",
	OP_DIV:   "DIV",
	OP_MOD:   "MOD",
	OP_NEG:   "NEG",
	OP_NOT:   "NOT",
	OP_EQ:    "EQ",
	OP_NE:    "NE",
	OP_LT:    "LT",
	OP_GT:    "GT",
	OP_LE:    "LE",
	OP_GE:    "GE",
	OP_JUMP:  "JUMP",
	OP_JZ:    "JZ",
	OP_JNZ:   "JNZ",
	OP_CALL:  "CALL",
}

// String returns a readable name for the opcode
func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP(%d)", byte(op))
}

// hasOperand reports whether the opcode carries a uint16 operand
func (op OpCode) hasOperand() bool {
	switch op {
	case OP_CONST, OP_LOAD, OP_STORE, OP_JUMP, OP_JZ, OP_JNZ, OP_CALL:
		return true
	}
	return false
}
