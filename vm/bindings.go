package vm

import (
	"sort"
	"strings"
)

// Slot is a handle to a named variable in a Bindings table
type Slot int

// Bindings is the variable table shared by a node's script sections.
// Slot values persist across Frame/Beat/Point executions and across
// frames; only node teardown (or an explicit Reset) clears them. This is
// what lets accumulator presets (running rotation angles etc.) work.
//
// Each effect node owns its own Bindings; there is no process-wide table.
type Bindings struct {
	names map[string]Slot
	vals  []float64
}

// NewBindings creates an empty variable table
func NewBindings() *Bindings {
	return &Bindings{
		names: make(map[string]Slot, 16),
	}
}

// Register returns the slot for name, creating it (initialized to 0) if it
// does not exist. Names are case-insensitive, matching legacy scripts.
// Idempotent: registering the same name twice yields the same slot.
func (b *Bindings) Register(name string) Slot {
	key := strings.ToLower(name)
	if s, ok := b.names[key]; ok {
		return s
	}
	s := Slot(len(b.vals))
	b.names[key] = s
	b.vals = append(b.vals, 0)
	return s
}

// Lookup returns the slot for name without registering it
func (b *Bindings) Lookup(name string) (Slot, bool) {
	s, ok := b.names[strings.ToLower(name)]
	return s, ok
}

// Get returns the value in slot s
func (b *Bindings) Get(s Slot) float64 {
	return b.vals[s]
}

// Set stores v in slot s
func (b *Bindings) Set(s Slot, v float64) {
	b.vals[s] = v
}

// Len returns the number of registered slots
func (b *Bindings) Len() int {
	return len(b.vals)
}

// Reset zeroes every slot value. Registered names are kept.
func (b *Bindings) Reset() {
	for i := range b.vals {
		b.vals[i] = 0
	}
}

// Clone returns a private snapshot of the table for a Point-phase worker.
// The name map is shared read-only: clones must not Register new names.
// Writes to a clone are discarded unless explicitly read back, which is
// how per-pixel global writes are kept out of the shared table.
func (b *Bindings) Clone() *Bindings {
	vals := make([]float64, len(b.vals))
	copy(vals, b.vals)
	return &Bindings{names: b.names, vals: vals}
}

// CopyValuesFrom overwrites every slot value from src. The two tables must
// have the same layout (src must be a Clone of b or vice versa).
func (b *Bindings) CopyValuesFrom(src *Bindings) {
	copy(b.vals, src.vals)
}

// Names returns all registered names in slot order, for introspection
func (b *Bindings) Names() []string {
	out := make([]string, len(b.vals))
	for name, s := range b.names {
		out[s] = name
	}
	return out
}

// SortedNames returns all registered names alphabetically, for stable
// inspection output
func (b *Bindings) SortedNames() []string {
	out := b.Names()
	sort.Strings(out)
	return out
}
