package vm

import (
	"fmt"
	"math"
	"math/rand"
)

// VM executes compiled programs against a binding table. All arithmetic
// follows IEEE-754 double semantics: division by zero yields Inf, domain
// errors yield NaN, and NaN propagates silently. Execution only fails on
// a structurally corrupt program, which a successful Compile never
// produces.
//
// A VM is not safe for concurrent use; Point-phase workers each get their
// own VM and Bindings clone.
type VM struct {
	stack []float64
	audio AudioSampler
	rng   *rand.Rand
}

// NewVM creates a virtual machine with an unseeded random source
func NewVM() *VM {
	return NewSeededVM(rand.Int63())
}

// NewSeededVM creates a virtual machine whose rand() builtin is
// deterministic for the given seed
func NewSeededVM(seed int64) *VM {
	return &VM{
		stack: make([]float64, 0, 32),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// SetAudio attaches the audio-feature snapshot sampled by getspec/getwave.
// A nil sampler makes both builtins return 0.
func (m *VM) SetAudio(a AudioSampler) {
	m.audio = a
}

// Fork returns a new VM sharing no mutable state with m, for use by a
// parallel Point-phase worker. The fork's random stream is seeded from
// the parent's.
func (m *VM) Fork() *VM {
	f := NewSeededVM(m.rng.Int63())
	f.audio = m.audio
	return f
}

// Execute runs a compiled program against b. The program must have been
// compiled against b or a table with the same slot layout.
func (m *VM) Execute(p *Program, b *Bindings) error {
	code := p.Code
	m.stack = m.stack[:0]

	for ip := 0; ip < len(code); {
		op := OpCode(code[ip])

		var operand int
		if op.hasOperand() {
			if ip+2 >= len(code) {
				return fmt.Errorf("truncated instruction at %d", ip)
			}
			operand = int(code[ip+1]) | int(code[ip+2])<<8
			ip += 3
		} else {
			ip++
		}

		switch op {
		case OP_CONST:
			if operand >= len(p.Constants) {
				return fmt.Errorf("bad constant index %d at %d", operand, ip)
			}
			m.push(p.Constants[operand])

		case OP_LOAD:
			if operand >= b.Len() {
				return fmt.Errorf("bad slot %d at %d", operand, ip)
			}
			m.push(b.Get(Slot(operand)))

		case OP_STORE:
			if operand >= b.Len() {
				return fmt.Errorf("bad slot %d at %d", operand, ip)
			}
			b.Set(Slot(operand), m.top())

		case OP_POP:
			m.pop()

		case OP_ADD:
			rhs := m.pop()
			m.push(m.pop() + rhs)
		case OP_SUB:
			rhs := m.pop()
			m.push(m.pop() - rhs)
		case OP_MUL:
			rhs := m.pop()
			m.push(m.pop() * rhs)
		case OP_DIV:
			rhs := m.pop()
			m.push(m.pop() / rhs)
		case OP_MOD:
			rhs := m.pop()
			m.push(math.Mod(m.pop(), rhs))
		case OP_NEG:
			m.push(-m.pop())
		case OP_NOT:
			m.push(boolVal(m.pop() == 0))

		case OP_EQ:
			rhs := m.pop()
			m.push(boolVal(m.pop() == rhs))
		case OP_NE:
			rhs := m.pop()
			m.push(boolVal(m.pop() != rhs))
		case OP_LT:
			rhs := m.pop()
			m.push(boolVal(m.pop() < rhs))
		case OP_GT:
			rhs := m.pop()
			m.push(boolVal(m.pop() > rhs))
		case OP_LE:
			rhs := m.pop()
			m.push(boolVal(m.pop() <= rhs))
		case OP_GE:
			rhs := m.pop()
			m.push(boolVal(m.pop() >= rhs))

		case OP_JUMP:
			ip = operand
		case OP_JZ:
			if m.pop() == 0 {
				ip = operand
			}
		case OP_JNZ:
			if m.pop() != 0 {
				ip = operand
			}

		case OP_CALL:
			if err := m.call(operand); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unknown opcode %d at %d", byte(op), ip)
		}
	}

	return nil
}

// call dispatches a builtin function by ID
func (m *VM) call(id int) error {
	if id >= len(funcTable) {
		return fmt.Errorf("unknown builtin %d", id)
	}

	switch id {
	case fnSin:
		m.push(math.Sin(m.pop()))
	case fnCos:
		m.push(math.Cos(m.pop()))
	case fnTan:
		m.push(math.Tan(m.pop()))
	case fnAsin:
		m.push(math.Asin(m.pop()))
	case fnAcos:
		m.push(math.Acos(m.pop()))
	case fnAtan:
		m.push(math.Atan(m.pop()))
	case fnAtan2:
		x := m.pop()
		m.push(math.Atan2(m.pop(), x))
	case fnSqrt:
		m.push(math.Sqrt(m.pop()))
	case fnSqr:
		v := m.pop()
		m.push(v * v)
	case fnAbs:
		m.push(math.Abs(m.pop()))
	case fnPow:
		e := m.pop()
		m.push(math.Pow(m.pop(), e))
	case fnExp:
		m.push(math.Exp(m.pop()))
	case fnLog:
		m.push(math.Log(m.pop()))
	case fnFloor:
		m.push(math.Floor(m.pop()))
	case fnCeil:
		m.push(math.Ceil(m.pop()))
	case fnMin:
		b := m.pop()
		m.push(math.Min(m.pop(), b))
	case fnMax:
		b := m.pop()
		m.push(math.Max(m.pop(), b))
	case fnSign:
		v := m.pop()
		switch {
		case v > 0:
			m.push(1)
		case v < 0:
			m.push(-1)
		default:
			m.push(0)
		}
	case fnRand:
		n := m.pop()
		if n < 1 {
			m.push(m.rng.Float64())
		} else {
			m.push(math.Floor(m.rng.Float64() * n))
		}
	case fnGetspec:
		idx := m.pop()
		ch := m.pop()
		if m.audio == nil {
			m.push(0)
		} else {
			m.push(m.audio.Spec(int(ch), idx))
		}
	case fnGetwave:
		idx := m.pop()
		ch := m.pop()
		if m.audio == nil {
			m.push(0)
		} else {
			m.push(m.audio.Wave(int(ch), idx))
		}
	default:
		return fmt.Errorf("unimplemented builtin %d", id)
	}
	return nil
}

func (m *VM) push(v float64) {
	m.stack = append(m.stack, v)
}

func (m *VM) pop() float64 {
	if len(m.stack) == 0 {
		return 0
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *VM) top() float64 {
	if len(m.stack) == 0 {
		return 0
	}
	return m.stack[len(m.stack)-1]
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
