package groups

/** @brief How a scene load combines with the scenes already in memory. */
type LoadMode int

const (
	/** @brief Replace every loaded scene. */
	LoadModeSingle LoadMode = iota
	/** @brief Add to the loaded scenes. Groups always load additively. */
	LoadModeAdditive
)

// Operation is the capability shared by in-flight loads, unloads, indirect
// handles and both aggregation groups.
type Operation interface {
	// Progress reports completion in [0, 1].
	Progress() float64
	IsDone() bool
}

// IndirectHandle is an addressable load. ResolvedName is only meaningful
// once IsDone reports true.
type IndirectHandle interface {
	Operation
	ResolvedName() string
}

// DirectRuntime starts scene loads and unloads by name. A nil Operation
// means there is nothing to track, e.g. the scene is already gone.
type DirectRuntime interface {
	LoadScene(name string, mode LoadMode) Operation
	UnloadScene(name string) Operation
}

// IndirectRuntime resolves references to scenes. Handles stay alive until
// they are released.
type IndirectRuntime interface {
	LoadScene(ref ResourceReference, mode LoadMode) IndirectHandle
	Release(h IndirectHandle)
}

// SceneTable enumerates the scenes currently known to the engine.
type SceneTable interface {
	Count() int
	At(i int) (name string, loaded bool)
	ActiveName() string
	SetActive(name string) bool
}

// Reclaimer frees memory no longer referenced by any loaded scene.
type Reclaimer interface {
	ReclaimUnused() Operation
}

// Runtimes bundles the collaborators the orchestrator drives.
type Runtimes struct {
	Direct   DirectRuntime
	Indirect IndirectRuntime
	Scenes   SceneTable
	// Optional.
	Reclaimer Reclaimer
}

// ProgressSink receives combined progress while a group is loading.
type ProgressSink func(progress float64)
