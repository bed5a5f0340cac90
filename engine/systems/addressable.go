package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-scenes/engine/core"
	"github.com/spaghettifunk/anima-scenes/engine/groups"
)

/** @brief The configuration for the addressable system */
type AddressableSystemConfig struct {
	/** @brief The maximum number of addresses that can be registered. */
	MaxAddressCount uint32
}

// AddressableHandle is the indirect handle of a scene loaded by address.
// Every handle must be released through the system that issued it.
type AddressableHandle struct {
	*SceneOperation
	Address string
}

// ResolvedName is the scene the address resolved to, empty until the load finished.
func (h *AddressableHandle) ResolvedName() string {
	if !h.IsDone() {
		return ""
	}
	return h.Scene
}

// AddressableSystem resolves addresses to catalog scenes and loads them into
// the shared scene table. Safe for concurrent use.
type AddressableSystem struct {
	config AddressableSystemConfig
	scenes *SceneSystem

	mu        sync.Mutex
	addresses map[string]string
	handles   map[string]*AddressableHandle
}

func NewAddressableSystem(config AddressableSystemConfig, scenes *SceneSystem) (*AddressableSystem, error) {
	if config.MaxAddressCount == 0 {
		return nil, fmt.Errorf("failed to run NewAddressableSystem because config.MaxAddressCount==0")
	}
	if scenes == nil {
		return nil, fmt.Errorf("failed to run NewAddressableSystem: %w", core.ErrMissingRuntime)
	}
	return &AddressableSystem{
		config:    config,
		scenes:    scenes,
		addresses: make(map[string]string),
		handles:   make(map[string]*AddressableHandle),
	}, nil
}

// RegisterAddress maps address to a catalog scene.
func (as *AddressableSystem) RegisterAddress(address, scene string) error {
	if address == "" || scene == "" {
		return fmt.Errorf("address and scene must both be set")
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	if _, ok := as.addresses[address]; !ok && uint32(len(as.addresses)) >= as.config.MaxAddressCount {
		return fmt.Errorf("address table is full (%d addresses), cannot register '%s'", as.config.MaxAddressCount, address)
	}
	as.addresses[address] = scene
	return nil
}

// LoadScene resolves ref.Key() and streams the scene in. Unknown addresses
// yield no handle.
func (as *AddressableSystem) LoadScene(ref groups.ResourceReference, mode groups.LoadMode) groups.IndirectHandle {
	as.mu.Lock()
	scene, ok := as.addresses[ref.Key()]
	as.mu.Unlock()
	if !ok {
		core.LogWarn("address '%s' does not resolve to a scene", ref.Key())
		return nil
	}

	op := as.scenes.load(scene, mode)
	if op == nil {
		return nil
	}

	h := &AddressableHandle{SceneOperation: op, Address: ref.Key()}
	as.mu.Lock()
	as.handles[h.ID] = h
	as.mu.Unlock()
	return h
}

// Release evicts the scene behind h from the table right away. A handle that
// is still loading is released once it finishes.
func (as *AddressableSystem) Release(h groups.IndirectHandle) {
	ah, ok := h.(*AddressableHandle)
	if !ok || ah == nil {
		core.LogWarn("cannot release a handle this system did not issue")
		return
	}

	as.mu.Lock()
	if _, ok := as.handles[ah.ID]; !ok {
		as.mu.Unlock()
		core.LogWarn("handle %s for '%s' was already released", core.IdentifierShort(ah.ID), ah.Address)
		return
	}
	delete(as.handles, ah.ID)
	as.mu.Unlock()

	ah.whenDone(func() {
		if ah.Err() != nil {
			return
		}
		as.scenes.evict(ah.Scene)
	})
}

// Outstanding returns the number of handles not yet released.
func (as *AddressableSystem) Outstanding() int {
	as.mu.Lock()
	defer as.mu.Unlock()
	return len(as.handles)
}

func (as *AddressableSystem) Shutdown() error {
	as.mu.Lock()
	defer as.mu.Unlock()
	if n := len(as.handles); n > 0 {
		core.LogWarn("addressable system shut down with %d unreleased handles", n)
	}
	as.handles = make(map[string]*AddressableHandle)
	return nil
}
