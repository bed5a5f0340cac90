package engine

import (
	"github.com/spaghettifunk/anima-scenes/engine/systems"
)

// Game is the set of callbacks the engine drives. SystemManager and
// LoadGroup are filled in by the engine before FnBoot runs.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	// Starts loading a group definition by name.
	LoadGroup func(name string) error
	State     interface{}
	// Registers the scene catalog and addresses. Runs before definitions load.
	FnBoot       Boot
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	// Optional. Called from the loader goroutine after a group settled, once
	// the engine accepts new loads. It may call LoadGroup to chain the next one.
	FnOnGroupLoaded OnGroupLoaded
	FnShutdown      Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error
type Render func(deltaTime float64) error
type OnGroupLoaded func(name string)
type Shutdown func() error
