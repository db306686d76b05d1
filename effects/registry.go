package effects

// Builtin effect indexes as stored in the preset binary format. The
// table is sparse up to BuiltinMax to leave room for future builtins
// without breaking existing presets; values must never be reassigned.
const (
	IndexClear      int32 = 0
	IndexInvert     int32 = 1
	IndexBrightness int32 = 2
	IndexMosaic     int32 = 3
	IndexFadeout    int32 = 4
	IndexTransform  int32 = 5

	// BuiltinMax bounds the builtin index range [0, BuiltinMax)
	BuiltinMax int32 = 46

	// ListIndex is the nested sub-chain sentinel (0xFFFFFFFE as int32)
	ListIndex int32 = -2

	// ExtensionBase marks records identified by a 32-byte ASCII name in
	// their payload rather than a builtin index
	ExtensionBase int32 = 0x4000
)

// Constructor builds a node from its record payload. Constructors own
// their payload layout completely; the loader only handles framing.
type Constructor func(payload []byte) (Node, error)

// Registry resolves effect identities to constructors. One registry
// instance is threaded through preset loading; there is no process-wide
// table, so hosts can extend it without affecting each other.
type Registry struct {
	builtins map[int32]Constructor
	named    map[string]Constructor
}

// NewRegistry creates a registry with all builtin effects registered
func NewRegistry() *Registry {
	r := &Registry{
		builtins: make(map[int32]Constructor),
		named:    make(map[string]Constructor),
	}

	r.Register(IndexClear, newClearPayload)
	r.Register(IndexInvert, newInvertPayload)
	r.Register(IndexBrightness, newBrightnessPayload)
	r.Register(IndexMosaic, newMosaicPayload)
	r.Register(IndexFadeout, newFadeoutPayload)
	r.Register(IndexTransform, newTransformPayload)

	return r
}

// Register installs a builtin constructor at a fixed index
func (r *Registry) Register(index int32, ctor Constructor) {
	r.builtins[index] = ctor
}

// RegisterNamed installs a named-extension constructor. Names must fit
// the 32-byte record field; saving a longer name fails.
func (r *Registry) RegisterNamed(name string, ctor Constructor) {
	r.named[name] = ctor
}

// Builtin resolves a builtin index, or nil if unknown
func (r *Registry) Builtin(index int32) Constructor {
	return r.builtins[index]
}

// Named resolves an extension name, or nil if unknown
func (r *Registry) Named(name string) Constructor {
	return r.named[name]
}
