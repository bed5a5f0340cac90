package groups

import (
	"context"
	"time"
)

type fakeOp struct {
	total    int
	elapsed  int
	progress float64
	onDone   func()
	done     bool
}

func (op *fakeOp) Progress() float64 { return op.progress }
func (op *fakeOp) IsDone() bool      { return op.done }

func (op *fakeOp) advance() {
	if op.done {
		return
	}
	op.elapsed++
	if op.elapsed >= op.total {
		op.finish()
		return
	}
	op.progress = float64(op.elapsed) / float64(op.total)
}

func (op *fakeOp) finish() {
	op.progress = 1
	op.done = true
	if op.onDone != nil {
		op.onDone()
	}
}

type fakeHandle struct {
	*fakeOp
	resolved string
}

func (h *fakeHandle) ResolvedName() string {
	if !h.done {
		return ""
	}
	return h.resolved
}

type fakeScene struct {
	name   string
	loaded bool
}

// fakeWorld plays every runtime role. Operations settle after `steps` waits;
// zero steps settle immediately.
type fakeWorld struct {
	scenes []fakeScene
	active string
	steps  int
	ops    []*fakeOp
	calls  []string
	waits  int

	// names for which UnloadScene returns nil
	vanished map[string]bool
}

func newFakeWorld(steps int, loaded ...string) *fakeWorld {
	w := &fakeWorld{steps: steps, vanished: map[string]bool{}}
	for _, name := range loaded {
		w.scenes = append(w.scenes, fakeScene{name: name, loaded: true})
	}
	if len(loaded) > 0 {
		w.active = loaded[0]
	}
	return w
}

func (w *fakeWorld) runtimes() Runtimes {
	return Runtimes{Direct: w, Indirect: indirectFake{w}, Scenes: w, Reclaimer: w}
}

func (w *fakeWorld) waiter() func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.waits++
		for _, op := range w.ops {
			op.advance()
		}
		return nil
	}
}

func (w *fakeWorld) start(onDone func()) *fakeOp {
	op := &fakeOp{total: w.steps, onDone: onDone}
	if w.steps == 0 {
		op.finish()
	} else {
		w.ops = append(w.ops, op)
	}
	return op
}

func (w *fakeWorld) index(name string) int {
	for i, s := range w.scenes {
		if s.name == name {
			return i
		}
	}
	return -1
}

func (w *fakeWorld) markLoaded(name string) {
	if i := w.index(name); i >= 0 {
		w.scenes[i].loaded = true
		return
	}
	w.scenes = append(w.scenes, fakeScene{name: name, loaded: true})
}

func (w *fakeWorld) remove(name string) {
	if i := w.index(name); i >= 0 {
		w.scenes = append(w.scenes[:i], w.scenes[i+1:]...)
	}
}

func (w *fakeWorld) isLoaded(name string) bool {
	i := w.index(name)
	return i >= 0 && w.scenes[i].loaded
}

func (w *fakeWorld) loadedNames() []string {
	var names []string
	for _, s := range w.scenes {
		if s.loaded {
			names = append(names, s.name)
		}
	}
	return names
}

func (w *fakeWorld) LoadScene(name string, mode LoadMode) Operation {
	w.calls = append(w.calls, "load:"+name)
	if i := w.index(name); i < 0 {
		w.scenes = append(w.scenes, fakeScene{name: name})
	}
	return w.start(func() { w.markLoaded(name) })
}

func (w *fakeWorld) UnloadScene(name string) Operation {
	w.calls = append(w.calls, "unload:"+name)
	if w.vanished[name] {
		return nil
	}
	return w.start(func() { w.remove(name) })
}

func (w *fakeWorld) ReclaimUnused() Operation {
	w.calls = append(w.calls, "reclaim")
	return w.start(nil)
}

func (w *fakeWorld) Count() int { return len(w.scenes) }

func (w *fakeWorld) At(i int) (string, bool) {
	return w.scenes[i].name, w.scenes[i].loaded
}

func (w *fakeWorld) ActiveName() string { return w.active }

func (w *fakeWorld) SetActive(name string) bool {
	w.calls = append(w.calls, "activate:"+name)
	if !w.isLoaded(name) {
		return false
	}
	w.active = name
	return true
}

type indirectFake struct {
	w *fakeWorld
}

func (f indirectFake) LoadScene(ref ResourceReference, mode LoadMode) IndirectHandle {
	w := f.w
	w.calls = append(w.calls, "resolve:"+ref.Key())
	if i := w.index(ref.Name); i < 0 {
		w.scenes = append(w.scenes, fakeScene{name: ref.Name})
	}
	h := &fakeHandle{resolved: ref.Name}
	h.fakeOp = w.start(func() { w.markLoaded(ref.Name) })
	return h
}

func (f indirectFake) Release(h IndirectHandle) {
	f.w.calls = append(f.w.calls, "release:"+h.ResolvedName())
	f.w.remove(h.ResolvedName())
}

// staticOp is a fixed progress/done pair.
type staticOp struct {
	p    float64
	done bool
}

func (s staticOp) Progress() float64 { return s.p }
func (s staticOp) IsDone() bool      { return s.done }

type staticHandle struct {
	staticOp
	name string
}

func (s staticHandle) ResolvedName() string { return s.name }
