package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-scenes/engine/assets"
	"github.com/spaghettifunk/anima-scenes/engine/core"
	"github.com/spaghettifunk/anima-scenes/engine/groups"
	"github.com/spaghettifunk/anima-scenes/engine/systems"
	"github.com/spaghettifunk/anima-scenes/engine/ui"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *ApplicationConfig
	isRunning     atomic.Bool
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	orchestrator  *groups.Orchestrator
	clock         *core.Clock
	lastTime      float64

	smoother *ui.ProgressSmoother
	bar      *ui.ProgressBar
	out      io.Writer
	wasBusy  bool

	ctx    context.Context
	cancel context.CancelFunc

	loading       atomic.Bool
	reloadPending atomic.Bool
	mu            sync.Mutex
	idle          *sync.Cond
	inFlight      int
	activeGroup   string
	settledGroup  string
	lastErr       error
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	config := g.ApplicationConfig
	if err := config.Validate(); err != nil {
		return nil, err
	}
	core.SetLogLevel(config.Level())

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	sm, err := systems.NewSystemManager(config.SystemManagerConfig())
	if err != nil {
		core.LogError("%s", err)
		am.Shutdown()
		return nil, err
	}
	g.SystemManager = sm

	o, err := groups.NewOrchestrator(config.OrchestratorConfig(), sm.Runtimes())
	if err != nil {
		core.LogError("%s", err)
		sm.Shutdown()
		am.Shutdown()
		return nil, err
	}

	smoother := ui.NewProgressSmoother()
	smoother.Speed = config.Progress.Speed

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		config:        config,
		assetManager:  am,
		systemManager: sm,
		orchestrator:  o,
		clock:         core.NewClock(),
		smoother:      smoother,
		bar:           ui.NewProgressBar(ui.ProgressBarConfig{Width: config.Progress.BarWidth}),
		out:           os.Stdout,
		ctx:           ctx,
		cancel:        cancel,
	}
	e.idle = sync.NewCond(&e.mu)
	g.LoadGroup = e.LoadGroup
	return e, nil
}

// SetOutput redirects the loading screen.
func (e *Engine) SetOutput(w io.Writer) {
	e.out = w
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	events := e.orchestrator.Events()
	events.Register(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	events.Register(core.EVENT_CODE_ASSET_CHANGED, e.onAssetChanged)
	events.Register(core.EVENT_CODE_GROUP_LOADED, e.onGroupLoaded)

	if fn := e.gameInstance.FnBoot; fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}

	if err := e.assetManager.Initialize(e.config.DefinitionsDir); err != nil {
		return err
	}
	if e.config.HotReload {
		e.assetManager.OnChange(func(info assets.AssetInfo) {
			events.Fire(core.EventContext{Type: core.EVENT_CODE_ASSET_CHANGED, Data: info.Name})
		})
	}

	if fn := e.gameInstance.FnInitialize; fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized

	if e.config.InitialGroup != "" {
		if err := e.LoadGroup(e.config.InitialGroup); err != nil {
			return err
		}
	}
	return nil
}

// LoadGroup loads the named definition and hands it to the orchestrator on a
// background goroutine. Only one load runs at a time.
func (e *Engine) LoadGroup(name string) error {
	if !e.loading.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: cannot load '%s'", core.ErrEngineBusy, name)
	}

	def, err := e.assetManager.LoadDefinition(name)
	if err != nil {
		e.loading.Store(false)
		return err
	}

	e.mu.Lock()
	e.inFlight++
	e.mu.Unlock()

	go func() {
		err := e.orchestrator.LoadGroup(e.ctx, def, nil, false)
		if err != nil {
			core.LogError("loading group '%s' failed: %s", name, err)
		}

		e.mu.Lock()
		e.lastErr = err
		if err == nil {
			e.activeGroup = name
		}
		e.mu.Unlock()

		e.loading.Store(false)
		// The engine accepts loads again, so the game may chain the next group.
		if settled := e.takeSettled(); settled != "" {
			if fn := e.gameInstance.FnOnGroupLoaded; fn != nil {
				fn(settled)
			}
		}
		// A definition edit arrived while loading, pick it up now.
		if e.reloadPending.CompareAndSwap(true, false) && e.ctx.Err() == nil {
			err := e.LoadGroup(e.ActiveGroup())
			switch {
			case errors.Is(err, core.ErrEngineBusy):
				e.reloadPending.Store(true)
			case err != nil:
				core.LogWarn("deferred hot reload skipped: %s", err)
			}
		}

		e.mu.Lock()
		e.inFlight--
		e.idle.Broadcast()
		e.mu.Unlock()
	}()
	return nil
}

// Wait blocks until the in-flight group load, if any, returns. It reports the
// error of the last load.
func (e *Engine) Wait() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.inFlight > 0 {
		e.idle.Wait()
	}
	return e.lastErr
}

func (e *Engine) ActiveGroup() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeGroup
}

func (e *Engine) Orchestrator() *groups.Orchestrator {
	return e.orchestrator
}

// Run drives frames at the configured rate until ctx is done or the
// application quits.
func (e *Engine) Run(ctx context.Context) error {
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	ticker := time.NewTicker(e.config.FrameDuration())
	defer ticker.Stop()

	for e.isRunning.Load() {
		select {
		case <-ctx.Done():
			e.isRunning.Store(false)
			return nil
		case <-ticker.C:
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if err := e.frame(delta); err != nil {
			e.isRunning.Store(false)
			return err
		}
		e.lastTime = currentTime
	}
	return nil
}

func (e *Engine) frame(delta float64) error {
	if fn := e.gameInstance.FnUpdate; fn != nil {
		if err := fn(delta); err != nil {
			core.LogError("Game update failed, shutting down.")
			return err
		}
	}

	e.drawLoadingScreen(delta)

	if fn := e.gameInstance.FnRender; fn != nil {
		if err := fn(delta); err != nil {
			core.LogError("Game render failed, shutting down.")
			return err
		}
	}
	return nil
}

func (e *Engine) drawLoadingScreen(delta float64) {
	busy := e.orchestrator.IsBusy()
	if busy && !e.wasBusy {
		e.smoother.Reset()
	}
	p := e.smoother.Follow(e.orchestrator, delta)

	switch {
	case busy:
		fmt.Fprintf(e.out, "\r%s", e.bar.Render(e.config.Name, p))
	case e.wasBusy:
		fmt.Fprintln(e.out)
	}
	e.wasBusy = busy
}

// Quit asks the frame loop to stop on its next iteration.
func (e *Engine) Quit() {
	e.orchestrator.Events().Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)
	e.cancel()
	e.Wait()

	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if fn := e.gameInstance.FnShutdown; fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	return e.orchestrator.Events().Shutdown()
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
	}
}

func (e *Engine) onAssetChanged(context core.EventContext) {
	name, ok := context.Data.(string)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	if name != e.ActiveGroup() {
		return
	}

	core.LogInfo("definition of active group '%s' changed, reloading", name)
	err := e.LoadGroup(name)
	switch {
	case errors.Is(err, core.ErrEngineBusy):
		e.reloadPending.Store(true)
	case err != nil:
		core.LogWarn("hot reload of '%s' skipped: %s", name, err)
	}
}

func (e *Engine) onGroupLoaded(context core.EventContext) {
	ev, ok := context.Data.(core.GroupEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	e.mu.Lock()
	e.settledGroup = ev.Name
	e.mu.Unlock()
}

func (e *Engine) takeSettled() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	name := e.settledGroup
	e.settledGroup = ""
	return name
}
