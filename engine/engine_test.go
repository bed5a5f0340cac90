package engine

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-scenes/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	core.SetLogOutput(io.Discard)
}

const menuDefinition = `
name = "menu"
[[scene]]
name = "Menu"
role = "active"
[[scene]]
name = "Sky"
kind = "indirect"
address = "env/sky"
role = "environment"
`

const levelDefinition = `
name = "level"
[[scene]]
name = "Level"
role = "active"
`

type testGame struct {
	*Game
	loaded []string
	mu     sync.Mutex
}

func newTestEngine(t *testing.T, mutate func(*ApplicationConfig)) (*Engine, *testGame, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "menu.toml"), []byte(menuDefinition), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level.toml"), []byte(levelDefinition), 0o644))

	cfg := DefaultApplicationConfig()
	cfg.DefinitionsDir = dir
	cfg.HotReload = false
	cfg.Scenes.PollIntervalMs = 1
	cfg.Scenes.StepDelayMs = 1
	cfg.Scenes.Jitter = 0
	cfg.TargetFPS = 500
	if mutate != nil {
		mutate(cfg)
	}

	tg := &testGame{Game: &Game{ApplicationConfig: cfg}}
	tg.FnBoot = func() error {
		ss := tg.SystemManager.SceneSystem
		for name, cost := range map[string]int{"Boot": 1, "Menu": 3, "Level": 2, "Sky": 2} {
			if err := ss.RegisterScene(name, cost); err != nil {
				return err
			}
		}
		if err := tg.SystemManager.AddressableSystem.RegisterAddress("env/sky", "Sky"); err != nil {
			return err
		}
		return ss.Preload("Boot")
	}
	tg.FnOnGroupLoaded = func(name string) {
		tg.mu.Lock()
		tg.loaded = append(tg.loaded, name)
		tg.mu.Unlock()
	}

	e, err := New(tg.Game)
	require.NoError(t, err)
	e.SetOutput(io.Discard)
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { e.Shutdown() })
	return e, tg, dir
}

func TestEngine_LoadGroup(t *testing.T) {
	e, tg, _ := newTestEngine(t, nil)

	require.NoError(t, e.LoadGroup("menu"))
	require.NoError(t, e.Wait())

	ss := tg.SystemManager.SceneSystem
	assert.Equal(t, "Menu", ss.ActiveName())
	assert.ElementsMatch(t, []string{"Boot", "Menu", "Sky"}, ss.LoadedNames())
	assert.Equal(t, "menu", e.ActiveGroup())

	require.NoError(t, e.LoadGroup("level"))
	require.NoError(t, e.Wait())
	assert.Equal(t, "Level", ss.ActiveName())
	assert.NotContains(t, ss.LoadedNames(), "Sky")
	assert.Equal(t, []string{"menu", "level"}, tg.loaded)
}

func TestEngine_LoadGroupErrors(t *testing.T) {
	e, _, _ := newTestEngine(t, func(c *ApplicationConfig) {
		c.Scenes.StepDelayMs = 20
	})

	assert.ErrorIs(t, e.LoadGroup("missing"), core.ErrAssetNotFound)

	require.NoError(t, e.LoadGroup("menu"))
	assert.ErrorIs(t, e.LoadGroup("level"), core.ErrEngineBusy)
	require.NoError(t, e.Wait())
}

func TestEngine_InitialGroup(t *testing.T) {
	e, tg, _ := newTestEngine(t, func(c *ApplicationConfig) {
		c.InitialGroup = "level"
	})
	require.NoError(t, e.Wait())
	assert.Equal(t, "Level", tg.SystemManager.SceneSystem.ActiveName())
}

func TestEngine_HotReload(t *testing.T) {
	e, tg, dir := newTestEngine(t, func(c *ApplicationConfig) {
		c.HotReload = true
	})

	require.NoError(t, e.LoadGroup("level"))
	require.NoError(t, e.Wait())

	updated := levelDefinition + "[[scene]]\nname = \"Menu\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level.toml"), []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		return e.Wait() == nil && len(tg.SystemManager.SceneSystem.LoadedNames()) == 3
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, tg.SystemManager.SceneSystem.LoadedNames(), "Menu")
}

func TestEngine_RunDrawsLoadingScreen(t *testing.T) {
	var frames atomic.Int32
	e, tg, _ := newTestEngine(t, func(c *ApplicationConfig) {
		c.Scenes.StepDelayMs = 10
	})
	tg.FnUpdate = func(float64) error {
		frames.Add(1)
		return nil
	}
	var out bytes.Buffer
	e.SetOutput(&out)

	require.NoError(t, e.LoadGroup("menu"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.NoError(t, e.Wait())
	time.Sleep(20 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Greater(t, frames.Load(), int32(0))
	assert.Contains(t, out.String(), "Anima Scenes")
}

func TestEngine_QuitStopsRun(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.Eventually(t, e.isRunning.Load, time.Second, time.Millisecond)
	e.Quit()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine kept running after quit")
	}
}

func TestEngine_HotReloadWhileRunning(t *testing.T) {
	e, tg, dir := newTestEngine(t, func(c *ApplicationConfig) {
		c.HotReload = true
		c.Scenes.StepDelayMs = 5
	})

	require.NoError(t, e.LoadGroup("level"))
	require.NoError(t, e.Wait())

	var out bytes.Buffer
	e.SetOutput(&out)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	path := filepath.Join(dir, "level.toml")
	for i := 0; i < 5; i++ {
		updated := levelDefinition + "[[scene]]\nname = \"Menu\"\n"
		require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
		time.Sleep(15 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return !e.Orchestrator().IsBusy() && e.Wait() == nil &&
			len(tg.SystemManager.SceneSystem.LoadedNames()) == 3
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, tg.SystemManager.SceneSystem.LoadedNames(), "Menu")
}

func TestEngine_ChainGroupFromCallback(t *testing.T) {
	e, tg, _ := newTestEngine(t, nil)

	chainErr := make(chan error, 1)
	tg.FnOnGroupLoaded = func(name string) {
		tg.mu.Lock()
		tg.loaded = append(tg.loaded, name)
		tg.mu.Unlock()
		if name == "menu" {
			chainErr <- tg.LoadGroup("level")
		}
	}

	require.NoError(t, e.LoadGroup("menu"))
	require.NoError(t, <-chainErr)
	require.NoError(t, e.Wait())

	assert.Equal(t, "level", e.ActiveGroup())
	assert.Equal(t, "Level", tg.SystemManager.SceneSystem.ActiveName())
	tg.mu.Lock()
	defer tg.mu.Unlock()
	assert.Equal(t, []string{"menu", "level"}, tg.loaded)
}
