package slots

// Kind distinguishes the two monitor slot families.
type Kind int

const (
	Memory Kind = iota
	ComputeUnit
)

// Directory resolves slot counts and names per kind. Memory slot names
// follow the "<computeUnit>/<port>" convention; the prefix before the
// first '/' ties a memory slot back to its compute unit.
type Directory interface {
	NumSlots(k Kind) int
	SlotName(k Kind, slot int) string
}

// StaticDirectory is a Directory backed by fixed name tables supplied
// at construction.
type StaticDirectory struct {
	memory  []string
	compute []string
}

// NewStaticDirectory builds a directory from explicit name tables.
// legacyNaming swaps the first two memory slots, matching platforms
// whose monitor wiring predates the current slot order.
func NewStaticDirectory(memory, compute []string, legacyNaming bool) *StaticDirectory {
	mem := make([]string, len(memory))
	copy(mem, memory)
	if legacyNaming && len(mem) >= 2 {
		mem[0], mem[1] = mem[1], mem[0]
	}
	cu := make([]string, len(compute))
	copy(cu, compute)
	return &StaticDirectory{memory: mem, compute: cu}
}

func (d *StaticDirectory) NumSlots(k Kind) int {
	if k == ComputeUnit {
		return len(d.compute)
	}
	return len(d.memory)
}

// SlotName returns "Null" for out-of-range slots.
func (d *StaticDirectory) SlotName(k Kind, slot int) string {
	table := d.memory
	if k == ComputeUnit {
		table = d.compute
	}
	if slot < 0 || slot >= len(table) {
		return "Null"
	}
	return table[slot]
}
