package groups

// DirectOperationGroup aggregates a set of scene loads or unloads.
// An empty group reports zero progress and is done.
type DirectOperationGroup struct {
	operations []Operation
}

func NewDirectOperationGroup(capacity int) *DirectOperationGroup {
	if capacity < 0 {
		capacity = 0
	}
	return &DirectOperationGroup{
		operations: make([]Operation, 0, capacity),
	}
}

func (g *DirectOperationGroup) Add(op Operation) {
	g.operations = append(g.operations, op)
}

func (g *DirectOperationGroup) Len() int {
	return len(g.operations)
}

// Progress is the mean progress of every member.
func (g *DirectOperationGroup) Progress() float64 {
	if len(g.operations) == 0 {
		return 0
	}
	var total float64
	for _, op := range g.operations {
		total += op.Progress()
	}
	return total / float64(len(g.operations))
}

func (g *DirectOperationGroup) IsDone() bool {
	for _, op := range g.operations {
		if !op.IsDone() {
			return false
		}
	}
	return true
}

// IndirectHandleGroup aggregates addressable handles. The orchestrator keeps
// one across load cycles because the handles must be released explicitly.
type IndirectHandleGroup struct {
	handles []IndirectHandle
}

func NewIndirectHandleGroup(capacity int) *IndirectHandleGroup {
	if capacity < 0 {
		capacity = 0
	}
	return &IndirectHandleGroup{
		handles: make([]IndirectHandle, 0, capacity),
	}
}

func (g *IndirectHandleGroup) Add(h IndirectHandle) {
	g.handles = append(g.handles, h)
}

func (g *IndirectHandleGroup) Len() int {
	return len(g.handles)
}

func (g *IndirectHandleGroup) Progress() float64 {
	if len(g.handles) == 0 {
		return 0
	}
	var total float64
	for _, h := range g.handles {
		total += h.Progress()
	}
	return total / float64(len(g.handles))
}

func (g *IndirectHandleGroup) IsDone() bool {
	for _, h := range g.handles {
		if !h.IsDone() {
			return false
		}
	}
	return true
}

// Contains reports whether a settled handle resolved to the named scene.
func (g *IndirectHandleGroup) Contains(name string) bool {
	for _, h := range g.handles {
		if h.IsDone() && h.ResolvedName() == name {
			return true
		}
	}
	return false
}

// Handles returns a snapshot of the members.
func (g *IndirectHandleGroup) Handles() []IndirectHandle {
	out := make([]IndirectHandle, len(g.handles))
	copy(out, g.handles)
	return out
}

// Clear forgets every member without releasing it.
func (g *IndirectHandleGroup) Clear() {
	g.handles = g.handles[:0:0]
}
