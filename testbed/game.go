package testbed

import (
	"errors"
	"sync/atomic"

	"github.com/spaghettifunk/anima-scenes/engine"
	"github.com/spaghettifunk/anima-scenes/engine/core"
)

type TestGame struct {
	*engine.Game
}

type sceneInfo struct {
	name    string
	cost    int
	address string
}

// Catalog of the demo. Scenes with an address are streamed through the
// addressable system.
var catalog = []sceneInfo{
	{name: "Boot", cost: 1},
	{name: "MainMenu", cost: 4},
	{name: "MainMenu_UI", cost: 2},
	{name: "Level1", cost: 12},
	{name: "Level1_Lighting", cost: 6, address: "scenes/level1/lighting"},
	{name: "Level1_HUD", cost: 2},
	{name: "Credits", cost: 3},
	{name: "Credits_Music", cost: 2, address: "audio/credits"},
}

type gameState struct {
	// Groups visited in order, wrapping around.
	playlist []string
	next     int
	// Seconds spent in the current group.
	dwell     float64
	dwellTime float64
	settled   bool
	// Set from the loader goroutine, consumed by Update.
	loaded atomic.Bool
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				playlist:  []string{"menu", "level-1", "credits"},
				dwellTime: 2,
			},
		},
	}

	tg.FnBoot = tg.Boot
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnGroupLoaded = tg.OnGroupLoaded
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Boot() error {
	core.LogInfo("booting testbed...")

	scenes := g.SystemManager.SceneSystem
	addressables := g.SystemManager.AddressableSystem
	for _, s := range catalog {
		if err := scenes.RegisterScene(s.name, s.cost); err != nil {
			return err
		}
		if s.address != "" {
			if err := addressables.RegisterAddress(s.address, s.name); err != nil {
				return err
			}
		}
	}
	return scenes.Preload("Boot")
}

func (g *TestGame) Initialize() error {
	state := g.State.(*gameState)
	if g.ApplicationConfig.InitialGroup != "" {
		// The engine loads it; continue the playlist after it.
		for i, name := range state.playlist {
			if name == g.ApplicationConfig.InitialGroup {
				state.next = i + 1
			}
		}
		return nil
	}
	return g.advance(state)
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	if state.loaded.Swap(false) {
		state.dwell = 0
		state.settled = true
	}
	if !state.settled {
		return nil
	}

	state.dwell += deltaTime
	if state.dwell < state.dwellTime {
		return nil
	}
	return g.advance(state)
}

func (g *TestGame) Render(deltaTime float64) error {
	return nil
}

func (g *TestGame) OnGroupLoaded(name string) {
	state := g.State.(*gameState)
	core.LogInfo("group '%s' ready, active scene '%s'", name, g.SystemManager.SceneSystem.ActiveName())
	state.loaded.Store(true)
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("shutting down testbed...")
	return nil
}

func (g *TestGame) advance(state *gameState) error {
	if len(state.playlist) == 0 {
		return nil
	}
	name := state.playlist[state.next%len(state.playlist)]

	err := g.LoadGroup(name)
	if errors.Is(err, core.ErrEngineBusy) {
		return nil
	}
	if err != nil {
		return err
	}
	state.next++
	state.settled = false
	return nil
}
