package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-scenes/engine/core"
)

/** @brief Describes a type of job */
type JobType int

const (
	/** @brief A general job that does not have any specific thread requirements. */
	JOB_TYPE_GENERAL JobType = 0x02
	/** @brief A scene streaming job. */
	JOB_TYPE_RESOURCE_LOAD JobType = 0x04
)

/** @brief Describes a job to be run by the job system. */
type JobTask struct {
	/** @brief The type of job, only used for logging. */
	Type JobType
	/** @brief Data passed to OnStart. */
	InputParams interface{}
	/** @brief Invoked on a worker. Required. A value sent on out is handed to OnComplete. */
	OnStart func(input interface{}, out chan<- interface{}) error
	/** @brief Invoked when OnStart succeeds. Optional. */
	OnComplete func(output interface{})
	/** @brief Invoked when OnStart fails. Optional. */
	OnFailure func(err error)
	/** @brief Invoked after either outcome. Optional. */
	OnCompletionCallback func()
}

/** @brief The configuration for the job system. */
type JobSystemConfig struct {
	/** @brief Number of worker goroutines. */
	Workers int
	/** @brief Size of the job queue. Zero means unbuffered. */
	QueueSize int
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(config JobSystemConfig) (*JobSystem, error) {
	if config.Workers <= 0 {
		return nil, fmt.Errorf("%w: %d workers requested", core.ErrNoWorkers, config.Workers)
	}
	if config.QueueSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: config.Workers,
		jobQueue:   make(chan JobTask, config.QueueSize),
	}
	js.start()

	core.LogDebug("job system started with %d workers", config.Workers)
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	if job.OnCompletionCallback != nil {
		defer job.OnCompletionCallback()
	}

	out := make(chan interface{}, 1)
	if err := job.OnStart(job.InputParams, out); err != nil {
		core.LogError("job of type %d failed: %s", job.Type, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}

	if job.OnComplete != nil {
		var result interface{}
		select {
		case result = <-out:
		default:
		}
		job.OnComplete(result)
	}
}

/**
 * @brief Shuts the job system down. Queued jobs run before workers exit.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while the queue is full.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	if jt.OnStart == nil {
		return fmt.Errorf("job of type %d has no entry point", jt.Type)
	}

	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return core.ErrNoWorkers
	}
	js.jobQueue <- jt
	return nil
}

// AddWorkNonBlocking submits the job from its own goroutine and returns
// immediately. A job that cannot be queued goes straight to OnFailure.
func (js *JobSystem) AddWorkNonBlocking(jt JobTask) {
	go func() {
		if err := js.Submit(jt); err != nil {
			core.LogWarn("dropping job of type %d: %s", jt.Type, err)
			if jt.OnFailure != nil {
				jt.OnFailure(err)
			}
		}
	}()
}
