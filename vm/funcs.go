package vm

// AudioSampler supplies the audio-feature snapshot behind the getspec and
// getwave script builtins. channel selects left/right; index is the
// normalized 0..1 position across the bands/samples. Implementations must
// tolerate any float input and return 0 for silence or missing data.
type AudioSampler interface {
	Spec(channel int, index float64) float64
	Wave(channel int, index float64) float64
}

// funcDef describes one builtin script function
type funcDef struct {
	Name  string
	Arity int
}

// Builtin function table. IDs (table indices) are resolved at compile
// time and baked into OP_CALL operands, so order is append-only.
// if(cond,a,b) is absent: the compiler lowers it to conditional jumps so
// only the taken branch executes.
var funcTable = []funcDef{
	{"sin", 1},
	{"cos", 1},
	{"tan", 1},
	{"asin", 1},
	{"acos", 1},
	{"atan", 1},
	{"atan2", 2},
	{"sqrt", 1},
	{"sqr", 1},
	{"abs", 1},
	{"pow", 2},
	{"exp", 1},
	{"log", 1},
	{"floor", 1},
	{"ceil", 1},
	{"min", 2},
	{"max", 2},
	{"sign", 1},
	{"rand", 1},
	{"getspec", 2},
	{"getwave", 2},
}

// Function IDs matching funcTable order
const (
	fnSin = iota
	fnCos
	fnTan
	fnAsin
	fnAcos
	fnAtan
	fnAtan2
	fnSqrt
	fnSqr
	fnAbs
	fnPow
	fnExp
	fnLog
	fnFloor
	fnCeil
	fnMin
	fnMax
	fnSign
	fnRand
	fnGetspec
	fnGetwave
)

var funcByName = func() map[string]int {
	m := make(map[string]int, len(funcTable))
	for id, def := range funcTable {
		m[def.Name] = id
	}
	return m
}()

// LookupFunc resolves a builtin function name to its ID and arity
func LookupFunc(name string) (id, arity int, ok bool) {
	id, ok = funcByName[name]
	if !ok {
		return 0, 0, false
	}
	return id, funcTable[id].Arity, true
}

// FuncNames returns the names of all builtin script functions, for
// editor/property introspection
func FuncNames() []string {
	out := make([]string, len(funcTable))
	for i, def := range funcTable {
		out[i] = def.Name
	}
	return out
}
