package vm

import (
	"fmt"
	"strings"
)

// Program is a compiled script. It is bound at compile time to the slot
// layout of the Bindings it was compiled against and is immutable once
// built; changing the source text requires a fresh Compile.
type Program struct {
	Code      []byte
	Constants []float64
	Source    string
}

// Disassemble returns a readable listing of the program, one instruction
// per line. Used by the CLI inspection flags and in tests.
func (p *Program) Disassemble() string {
	var b strings.Builder
	for ip := 0; ip < len(p.Code); {
		op := OpCode(p.Code[ip])
		if op.hasOperand() && ip+2 < len(p.Code) {
			operand := int(p.Code[ip+1]) | int(p.Code[ip+2])<<8
			if op == OP_CONST && operand < len(p.Constants) {
				fmt.Fprintf(&b, "%04d %s %d (%g)\n", ip, op, operand, p.Constants[operand])
			} else {
				fmt.Fprintf(&b, "%04d %s %d\n", ip, op, operand)
			}
			ip += 3
		} else {
			fmt.Fprintf(&b, "%04d %s\n", ip, op)
			ip++
		}
	}
	return b.String()
}
