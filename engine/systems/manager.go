package systems

import (
	"time"

	"github.com/spaghettifunk/anima-scenes/engine/groups"
)

/** @brief The configuration for every system owned by the manager. */
type SystemManagerConfig struct {
	Jobs        JobSystemConfig
	Scenes      SceneSystemConfig
	Addressable AddressableSystemConfig
}

func DefaultSystemManagerConfig() SystemManagerConfig {
	return SystemManagerConfig{
		Jobs: JobSystemConfig{
			Workers:   4,
			QueueSize: 64,
		},
		Scenes: SceneSystemConfig{
			MaxSceneCount: 1000,
			StepDelay:     50 * time.Millisecond,
			Jitter:        0.25,
		},
		Addressable: AddressableSystemConfig{
			MaxAddressCount: 1000,
		},
	}
}

type SystemManager struct {
	JobSystem         *JobSystem
	SceneSystem       *SceneSystem
	AddressableSystem *AddressableSystem
}

func NewSystemManager(config SystemManagerConfig) (*SystemManager, error) {
	js, err := NewJobSystem(config.Jobs)
	if err != nil {
		return nil, err
	}
	ss, err := NewSceneSystem(config.Scenes, js)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	as, err := NewAddressableSystem(config.Addressable, ss)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		JobSystem:         js,
		SceneSystem:       ss,
		AddressableSystem: as,
	}, nil
}

// Runtimes exposes the systems as the runtimes the group orchestrator drives.
func (sm *SystemManager) Runtimes() groups.Runtimes {
	return groups.Runtimes{
		Direct:    sm.SceneSystem,
		Indirect:  sm.AddressableSystem,
		Scenes:    sm.SceneSystem,
		Reclaimer: sm.SceneSystem,
	}
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.AddressableSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.SceneSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
