package systems

import (
	"sync"

	"github.com/spaghettifunk/anima-scenes/engine/core"
)

// SceneOperation tracks one asynchronous scene load, unload or reclaim.
// Progress is advanced by a job on the job system.
type SceneOperation struct {
	ID    string
	Scene string

	mu       sync.Mutex
	progress float64
	done     bool
	failed   error
	onDone   []func()
}

func newSceneOperation(scene string) *SceneOperation {
	return &SceneOperation{
		ID:    core.IdentifierAcquireNewID(),
		Scene: scene,
	}
}

func (op *SceneOperation) Progress() float64 {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.progress
}

func (op *SceneOperation) IsDone() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.done
}

// Err returns the failure recorded when the operation could not run.
func (op *SceneOperation) Err() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.failed
}

func (op *SceneOperation) setProgress(p float64) {
	op.mu.Lock()
	if !op.done && p > op.progress {
		op.progress = p
	}
	op.mu.Unlock()
}

// whenDone runs fn once the operation finishes, immediately if it already has.
func (op *SceneOperation) whenDone(fn func()) {
	op.mu.Lock()
	if !op.done {
		op.onDone = append(op.onDone, fn)
		op.mu.Unlock()
		return
	}
	op.mu.Unlock()
	fn()
}

func (op *SceneOperation) finish(err error) {
	op.mu.Lock()
	if op.done {
		op.mu.Unlock()
		return
	}
	op.done = true
	op.progress = 1
	op.failed = err
	callbacks := op.onDone
	op.onDone = nil
	op.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
