package systems

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/anima-scenes/engine/core"
	"github.com/spaghettifunk/anima-scenes/engine/groups"
)

/** @brief The configuration for the scene system */
type SceneSystemConfig struct {
	/** @brief The maximum number of scenes that can be registered in the catalog. */
	MaxSceneCount uint32
	/** @brief Time spent on each streaming step of a scene. */
	StepDelay time.Duration
	/** @brief Relative random variation of StepDelay, in [0, 1]. */
	Jitter float64
	/** @brief Seed of the jitter source. */
	Seed uint64
}

type sceneState int

const (
	sceneLoading sceneState = iota
	sceneLoaded
	sceneUnloading
)

type sceneSlot struct {
	name  string
	state sceneState
	// in-flight operation while loading or unloading
	op *SceneOperation
}

// SceneSystem simulates a scene runtime: a catalog of known scenes, the
// table of scenes currently in memory and the active scene. Loads and
// unloads stream through the job system. Safe for concurrent use.
type SceneSystem struct {
	config    SceneSystemConfig
	jobSystem *JobSystem

	mu          sync.Mutex
	catalog     map[string]int
	slots       []*sceneSlot
	active      string
	reclaimable int

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewSceneSystem(config SceneSystemConfig, js *JobSystem) (*SceneSystem, error) {
	if config.MaxSceneCount == 0 {
		return nil, fmt.Errorf("failed to run NewSceneSystem because config.MaxSceneCount==0")
	}
	if js == nil {
		return nil, fmt.Errorf("failed to run NewSceneSystem: %w", core.ErrNoWorkers)
	}
	if config.Jitter < 0 || config.Jitter > 1 {
		return nil, fmt.Errorf("scene system jitter must be within [0, 1], got %f", config.Jitter)
	}
	return &SceneSystem{
		config:    config,
		jobSystem: js,
		catalog:   make(map[string]int),
		rng:       rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// RegisterScene adds a scene to the catalog. cost is the number of streaming
// steps a load takes.
func (ss *SceneSystem) RegisterScene(name string, cost int) error {
	if name == "" {
		return fmt.Errorf("cannot register a scene without a name")
	}
	if cost < 1 {
		cost = 1
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.catalog[name]; !ok && uint32(len(ss.catalog)) >= ss.config.MaxSceneCount {
		return fmt.Errorf("scene catalog is full (%d scenes), cannot register '%s'", ss.config.MaxSceneCount, name)
	}
	ss.catalog[name] = cost
	return nil
}

// Preload puts a catalog scene in memory synchronously. The first preloaded
// scene becomes active.
func (ss *SceneSystem) Preload(name string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if _, ok := ss.catalog[name]; !ok {
		return fmt.Errorf("%w: scene '%s'", core.ErrAssetNotFound, name)
	}
	if slot := ss.slot(name); slot != nil {
		return nil
	}
	ss.slots = append(ss.slots, &sceneSlot{name: name, state: sceneLoaded})
	if ss.active == "" {
		ss.active = name
	}
	return nil
}

// LoadScene starts streaming name in. Unknown scenes yield no operation.
func (ss *SceneSystem) LoadScene(name string, mode groups.LoadMode) groups.Operation {
	op := ss.load(name, mode)
	if op == nil {
		return nil
	}
	return op
}

func (ss *SceneSystem) load(name string, mode groups.LoadMode) *SceneOperation {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	cost, ok := ss.catalog[name]
	if !ok {
		core.LogWarn("scene '%s' is not in the catalog", name)
		return nil
	}

	if slot := ss.slot(name); slot != nil {
		switch slot.state {
		case sceneLoaded:
			op := newSceneOperation(name)
			op.finish(nil)
			return op
		case sceneLoading:
			return slot.op
		default:
			core.LogWarn("scene '%s' is unloading, load request ignored", name)
			return nil
		}
	}

	op := newSceneOperation(name)
	slot := &sceneSlot{name: name, state: sceneLoading, op: op}
	ss.slots = append(ss.slots, slot)

	ss.stream(op, cost, func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		slot.state = sceneLoaded
		slot.op = nil
		if mode == groups.LoadModeSingle {
			ss.keepOnly(name)
			ss.active = name
		}
		core.LogDebug("scene '%s' loaded", name)
	}, func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		if slot.state == sceneLoading {
			ss.remove(name)
		}
	})
	return op
}

// UnloadScene starts removing name from memory. Scenes that are not fully
// loaded yield no operation.
func (ss *SceneSystem) UnloadScene(name string) groups.Operation {
	op := ss.unload(name)
	if op == nil {
		return nil
	}
	return op
}

func (ss *SceneSystem) unload(name string) *SceneOperation {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	slot := ss.slot(name)
	if slot == nil || slot.state != sceneLoaded {
		return nil
	}

	op := newSceneOperation(name)
	slot.state = sceneUnloading
	slot.op = op

	ss.stream(op, 1, func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		ss.remove(name)
		if ss.active == name {
			ss.active = ""
		}
		ss.reclaimable++
		core.LogDebug("scene '%s' unloaded", name)
	}, func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		slot.state = sceneLoaded
		slot.op = nil
	})
	return op
}

// evict drops a loaded scene from the table without streaming it out.
func (ss *SceneSystem) evict(name string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	slot := ss.slot(name)
	if slot == nil || slot.state != sceneLoaded {
		return false
	}
	ss.remove(name)
	if ss.active == name {
		ss.active = ""
	}
	ss.reclaimable++
	core.LogDebug("scene '%s' evicted", name)
	return true
}

// ReclaimUnused frees whatever unloaded scenes left behind.
func (ss *SceneSystem) ReclaimUnused() groups.Operation {
	op := newSceneOperation("")
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.stream(op, 1, func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		core.LogDebug("reclaimed memory of %d unloaded scenes", ss.reclaimable)
		ss.reclaimable = 0
	}, nil)
	return op
}

func (ss *SceneSystem) Count() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.slots)
}

// At returns the name of the i-th scene in memory and whether it finished loading.
func (ss *SceneSystem) At(i int) (string, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if i < 0 || i >= len(ss.slots) {
		return "", false
	}
	slot := ss.slots[i]
	return slot.name, slot.state != sceneLoading
}

func (ss *SceneSystem) ActiveName() string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.active
}

func (ss *SceneSystem) SetActive(name string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	slot := ss.slot(name)
	if slot == nil || slot.state != sceneLoaded {
		return false
	}
	ss.active = name
	core.LogInfo("active scene is now '%s'", name)
	return true
}

// LoadedNames lists the scenes that finished loading, in table order.
func (ss *SceneSystem) LoadedNames() []string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	var names []string
	for _, slot := range ss.slots {
		if slot.state == sceneLoaded {
			names = append(names, slot.name)
		}
	}
	return names
}

func (ss *SceneSystem) Shutdown() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.slots = nil
	ss.active = ""
	return nil
}

// stream submits a job that advances op over steps and calls settle before
// finishing it. abort runs instead of settle when the job cannot run. Must be
// called with ss.mu held; both callbacks take the lock themselves.
func (ss *SceneSystem) stream(op *SceneOperation, steps int, settle, abort func()) {
	fail := func(err error) {
		core.LogError("could not stream scene '%s': %s", op.Scene, err)
		if abort != nil {
			abort()
		}
		op.finish(err)
	}

	delays := make([]time.Duration, steps)
	for i := range delays {
		delays[i] = ss.stepDelay()
	}

	job := JobTask{
		Type:        JOB_TYPE_RESOURCE_LOAD,
		InputParams: delays,
		OnStart: func(input interface{}, out chan<- interface{}) error {
			delays := input.([]time.Duration)
			for i, d := range delays {
				time.Sleep(d)
				op.setProgress(float64(i+1) / float64(len(delays)+1))
			}
			return nil
		},
		OnComplete: func(interface{}) {
			settle()
			op.finish(nil)
		},
		OnFailure: fail,
	}

	ss.jobSystem.AddWorkNonBlocking(job)
}

func (ss *SceneSystem) stepDelay() time.Duration {
	if ss.config.StepDelay <= 0 {
		return 0
	}
	if ss.config.Jitter == 0 {
		return ss.config.StepDelay
	}
	ss.rngMu.Lock()
	r := ss.rng.Float64()*2 - 1
	ss.rngMu.Unlock()
	return time.Duration(float64(ss.config.StepDelay) * (1 + ss.config.Jitter*r))
}

func (ss *SceneSystem) slot(name string) *sceneSlot {
	for _, s := range ss.slots {
		if s.name == name {
			return s
		}
	}
	return nil
}

func (ss *SceneSystem) remove(name string) {
	for i, s := range ss.slots {
		if s.name == name {
			ss.slots = append(ss.slots[:i], ss.slots[i+1:]...)
			return
		}
	}
}

// keepOnly drops every loaded scene except name. Scenes still streaming are left alone.
func (ss *SceneSystem) keepOnly(name string) {
	kept := ss.slots[:0]
	for _, s := range ss.slots {
		if s.name == name || s.state != sceneLoaded {
			kept = append(kept, s)
			continue
		}
		ss.reclaimable++
	}
	ss.slots = kept
}
