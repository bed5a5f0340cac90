package groups

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-scenes/engine/core"
)

const (
	DefaultPersistentScene = "Boot"
	DefaultPollInterval    = 100 * time.Millisecond
)

/** @brief The configuration for the group orchestrator. */
type OrchestratorConfig struct {
	/** @brief Scene that is never unloaded automatically. */
	PersistentScene string
	/** @brief Reclaim unused memory once an unload settles. */
	ReleaseUnusedOnUnload bool
	/** @brief Delay between two progress polls. */
	PollInterval time.Duration
	/** @brief Give up waiting on operations after this long. Zero waits forever. */
	LoadTimeout time.Duration
	/** @brief Suspends the poll loop. Defaults to a real timer. */
	Waiter core.Waiter
}

// DefaultOrchestratorConfig returns the configuration used when fields are left empty.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		PersistentScene: DefaultPersistentScene,
		PollInterval:    DefaultPollInterval,
		Waiter:          core.NewTimerWaiter(),
	}
}

// Orchestrator unloads the previous scene group, loads the next one, reports
// combined progress and selects the active scene once everything settled.
//
// LoadGroup and UnloadGroup must not overlap on the same orchestrator; the
// caller serialises them. IsBusy, Progress and the event registration methods
// are safe to call from other goroutines.
type Orchestrator struct {
	config   OrchestratorConfig
	runtimes Runtimes
	events   *core.EventSystem
	metrics  *core.LoadMetrics

	active   *Definition
	registry *IndirectHandleGroup

	busy     atomic.Bool
	progress atomic.Uint64
}

func NewOrchestrator(config OrchestratorConfig, runtimes Runtimes) (*Orchestrator, error) {
	if runtimes.Direct == nil {
		return nil, fmt.Errorf("%w: direct runtime is nil", core.ErrMissingRuntime)
	}
	if runtimes.Indirect == nil {
		return nil, fmt.Errorf("%w: indirect runtime is nil", core.ErrMissingRuntime)
	}
	if runtimes.Scenes == nil {
		return nil, fmt.Errorf("%w: scene table is nil", core.ErrMissingRuntime)
	}

	defaults := DefaultOrchestratorConfig()
	if config.PersistentScene == "" {
		config.PersistentScene = defaults.PersistentScene
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.Waiter == nil {
		config.Waiter = defaults.Waiter
	}

	return &Orchestrator{
		config:   config,
		runtimes: runtimes,
		events:   core.NewEventSystem(),
		metrics:  core.NewLoadMetrics(),
		registry: NewIndirectHandleGroup(0),
	}, nil
}

// LoadGroup tears down the current group and loads def in its place.
// A nil or empty definition is a no-op. When reloadDuplicates is false,
// scenes that survived the unload (active and persistent) are not loaded again.
func (o *Orchestrator) LoadGroup(ctx context.Context, def *Definition, sink ProgressSink, reloadDuplicates bool) error {
	if def.IsEmpty() {
		core.LogDebug("LoadGroup called without a group definition, nothing to do")
		return nil
	}

	o.busy.Store(true)
	defer o.busy.Store(false)
	o.storeProgress(0)

	started := time.Now()
	previous := o.activeName()
	o.active = def

	if err := o.unload(ctx, previous); err != nil {
		return err
	}

	loaded := o.loadedNames()
	direct := NewDirectOperationGroup(def.Len())

	for _, e := range def.Entries {
		ref := e.Reference
		if !reloadDuplicates && loaded[ref.Name] {
			core.LogDebug("scene '%s' already loaded, skipping", ref.Name)
			o.metrics.RecordSkip()
			continue
		}

		switch ref.Kind {
		case KindIndirect:
			h := o.runtimes.Indirect.LoadScene(ref, LoadModeAdditive)
			if h == nil {
				core.LogWarn("indirect runtime returned no handle for '%s'", ref.Key())
			} else {
				o.registry.Add(h)
			}
		default:
			op := o.runtimes.Direct.LoadScene(ref.Name, LoadModeAdditive)
			if op == nil {
				core.LogWarn("scene runtime returned no operation for '%s'", ref.Name)
			} else {
				direct.Add(op)
			}
		}

		core.LogDebug("loading scene '%s' (%s)", ref.Name, ref.Kind)
		o.metrics.RecordLoad()
		o.events.Fire(core.EventContext{
			Type: core.EVENT_CODE_RESOURCE_LOADED,
			Data: core.ResourceEvent{Name: ref.Name, Kind: int(ref.Kind)},
		})
	}

	polls, err := o.waitUntil(ctx, func() bool {
		return direct.IsDone() && o.registry.IsDone()
	}, func() {
		// Halved even when one side is empty.
		p := (direct.Progress() + o.registry.Progress()) / 2
		o.storeProgress(p)
		if sink != nil {
			sink(p)
		}
	})
	if err != nil {
		return fmt.Errorf("loading group '%s': %w", def.Name, err)
	}

	o.selectActive(def)

	o.metrics.RecordCycle(time.Since(started), polls)
	core.LogInfo("group '%s' loaded (%d scenes, %d polls)", def.Name, def.Len(), polls)
	o.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_GROUP_LOADED,
		Data: core.GroupEvent{Name: def.Name},
	})
	return nil
}

// UnloadGroup unloads every scene except the active and persistent ones and
// releases every indirect handle held from previous loads.
func (o *Orchestrator) UnloadGroup(ctx context.Context) error {
	o.busy.Store(true)
	defer o.busy.Store(false)
	return o.unload(ctx, o.activeName())
}

func (o *Orchestrator) unload(ctx context.Context, groupName string) error {
	activeName := o.runtimes.Scenes.ActiveName()

	var names []string
	count := o.runtimes.Scenes.Count()
	for i := 0; i < count; i++ {
		name, loaded := o.runtimes.Scenes.At(i)
		if !loaded {
			continue
		}
		if name == activeName || name == o.config.PersistentScene {
			continue
		}
		// Released through its handle below.
		if o.registry.Contains(name) {
			continue
		}
		names = append(names, name)
	}

	group := NewDirectOperationGroup(len(names))
	for _, name := range names {
		op := o.runtimes.Direct.UnloadScene(name)
		if op == nil {
			continue
		}
		group.Add(op)

		core.LogDebug("unloading scene '%s'", name)
		o.metrics.RecordUnload()
		o.events.Fire(core.EventContext{
			Type: core.EVENT_CODE_RESOURCE_UNLOADED,
			Data: core.ResourceEvent{Name: name},
		})
	}

	for _, h := range o.registry.Handles() {
		o.runtimes.Indirect.Release(h)
	}
	o.registry.Clear()

	if _, err := o.waitUntil(ctx, group.IsDone, nil); err != nil {
		return fmt.Errorf("unloading group: %w", err)
	}

	if o.config.ReleaseUnusedOnUnload && o.runtimes.Reclaimer != nil {
		if op := o.runtimes.Reclaimer.ReclaimUnused(); op != nil {
			if _, err := o.waitUntil(ctx, op.IsDone, nil); err != nil {
				core.LogWarn("reclaiming unused resources did not finish: %s", err)
			}
		}
	}

	o.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_GROUP_UNLOADED,
		Data: core.GroupEvent{Name: groupName},
	})
	return nil
}

// waitUntil polls done on the configured cadence. tick runs before each wait.
// It returns the number of waits performed.
func (o *Orchestrator) waitUntil(ctx context.Context, done func() bool, tick func()) (int, error) {
	var deadline time.Time
	if o.config.LoadTimeout > 0 {
		deadline = time.Now().Add(o.config.LoadTimeout)
	}

	polls := 0
	for !done() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return polls, core.ErrLoadTimeout
		}
		if tick != nil {
			tick()
		}
		if err := o.config.Waiter.Wait(ctx, o.config.PollInterval); err != nil {
			return polls, err
		}
		polls++
	}
	return polls, nil
}

func (o *Orchestrator) selectActive(def *Definition) {
	ref, ok := def.FindByRole(RoleActive)
	if !ok {
		core.LogDebug("group '%s' has no active scene, keeping '%s'", def.Name, o.runtimes.Scenes.ActiveName())
		return
	}
	if !o.loadedNames()[ref.Name] {
		core.LogWarn("active scene '%s' of group '%s' is not loaded, keeping '%s'", ref.Name, def.Name, o.runtimes.Scenes.ActiveName())
		return
	}
	if !o.runtimes.Scenes.SetActive(ref.Name) {
		core.LogWarn("scene runtime refused to activate '%s'", ref.Name)
	}
}

func (o *Orchestrator) loadedNames() map[string]bool {
	count := o.runtimes.Scenes.Count()
	names := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		if name, loaded := o.runtimes.Scenes.At(i); loaded {
			names[name] = true
		}
	}
	return names
}

func (o *Orchestrator) activeName() string {
	if o.active == nil {
		return ""
	}
	return o.active.Name
}

func (o *Orchestrator) storeProgress(p float64) {
	o.progress.Store(math.Float64bits(p))
}

// OnResourceLoaded registers fn for every dispatched scene load.
func (o *Orchestrator) OnResourceLoaded(fn func(name string, kind ResourceKind)) string {
	return o.events.Register(core.EVENT_CODE_RESOURCE_LOADED, func(ctx core.EventContext) {
		ev := ctx.Data.(core.ResourceEvent)
		fn(ev.Name, ResourceKind(ev.Kind))
	})
}

// OnResourceUnloaded registers fn for every requested scene unload.
func (o *Orchestrator) OnResourceUnloaded(fn func(name string)) string {
	return o.events.Register(core.EVENT_CODE_RESOURCE_UNLOADED, func(ctx core.EventContext) {
		fn(ctx.Data.(core.ResourceEvent).Name)
	})
}

// OnGroupLoaded registers fn, called once per settled LoadGroup.
func (o *Orchestrator) OnGroupLoaded(fn func()) string {
	return o.events.Register(core.EVENT_CODE_GROUP_LOADED, func(core.EventContext) {
		fn()
	})
}

// OnGroupUnloaded registers fn, called once per settled unload pass.
func (o *Orchestrator) OnGroupUnloaded(fn func()) string {
	return o.events.Register(core.EVENT_CODE_GROUP_UNLOADED, func(core.EventContext) {
		fn()
	})
}

func (o *Orchestrator) Unsubscribe(id string) bool {
	return o.events.Unregister(id)
}

// Events exposes the underlying event system for raw listeners.
func (o *Orchestrator) Events() *core.EventSystem {
	return o.events
}

// IsBusy reports whether a load or unload is in flight.
func (o *Orchestrator) IsBusy() bool {
	return o.busy.Load()
}

// Progress returns the last combined progress reported by LoadGroup.
func (o *Orchestrator) Progress() float64 {
	return math.Float64frombits(o.progress.Load())
}

// ActiveDefinition returns the definition passed to the last effective LoadGroup.
func (o *Orchestrator) ActiveDefinition() *Definition {
	return o.active
}

func (o *Orchestrator) Metrics() core.MetricsSnapshot {
	return o.metrics.Snapshot()
}

func (o *Orchestrator) Config() OrchestratorConfig {
	return o.config
}
