package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/spaghettifunk/anima-scenes/engine/assets/loaders"
	"github.com/spaghettifunk/anima-scenes/engine/core"
	"github.com/spaghettifunk/anima-scenes/engine/groups"
)

type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeTOML
	AssetTypeYAML
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeTOML:
		return "toml"
	case AssetTypeYAML:
		return "yaml"
	default:
		return "none"
	}
}

type AssetInfo struct {
	// Definition name, the file name without extension.
	Name       string
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

// FnOnChange is called from the watcher goroutine when a definition file is
// created or written.
type FnOnChange func(info AssetInfo)

// AssetManager indexes group definition files under a directory, parses them
// on demand and watches the tree for edits.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	parsing   singleflight.Group
	listeners []FnOnChange

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	running  bool
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[AssetType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Initialize registers the built-in loaders, indexes every definition under
// assetsDir and starts watching it.
func (am *AssetManager) Initialize(assetsDir string) error {
	am.registerLoader(AssetTypeTOML, &loaders.TOMLLoader{})
	am.registerLoader(AssetTypeYAML, &loaders.YAMLLoader{})

	info, err := os.Stat(assetsDir)
	if err != nil {
		return fmt.Errorf("definitions directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("definitions directory: %s is not a directory", assetsDir)
	}

	if err := am.addRecursive(assetsDir); err != nil {
		return err
	}

	am.mutex.Lock()
	am.running = true
	am.mutex.Unlock()
	go am.start()

	core.LogInfo("Asset manager indexed %d group definitions in '%s'.", am.Count(), assetsDir)
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	am.mutex.RLock()
	closed := am.isClosed
	am.mutex.RUnlock()
	if closed {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name)
}

func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

// OnChange registers fn for definition files that are created or modified.
func (am *AssetManager) OnChange(fn FnOnChange) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.listeners = append(am.listeners, fn)
}

// LoadDefinition parses and validates the named group definition.
// Concurrent calls for the same file share a single parse.
func (am *AssetManager) LoadDefinition(name string) (*groups.Definition, error) {
	am.mutex.RLock()
	asset, exists := am.assets[name]
	am.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: group definition '%s'", core.ErrAssetNotFound, name)
	}

	v, err, shared := am.parsing.Do(asset.Path, func() (interface{}, error) {
		am.mutex.RLock()
		loader, ok := am.loaders[asset.Type]
		am.mutex.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: no loader registered for %s", core.ErrUnknownAssetType, asset.Type)
		}

		def, err := loader.Load(asset.Path)
		if err != nil {
			return nil, err
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}

		am.mutex.Lock()
		if a, ok := am.assets[name]; ok {
			a.LastLoaded = time.Now()
			am.assets[name] = a
		}
		am.mutex.Unlock()
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		core.LogDebug("definition '%s' parse shared with a concurrent caller", name)
	}
	return v.(*groups.Definition), nil
}

// Definitions lists the indexed definitions sorted by name.
func (am *AssetManager) Definitions() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	infos := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		infos = append(infos, a)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Shutdown stops the watcher. Safe to call more than once.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	running := am.running
	am.mutex.Unlock()

	if !running {
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)

	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleWatchEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleWatchEvent(e fsnotify.Event) {
	if e.Has(fsnotify.Create) {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("could not watch new directory '%s': %s", e.Name, err)
			}
			return
		}
	}

	if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
		if info, ok := am.handleFileEvent(e.Name); ok {
			am.notify(info)
		}
	}

	// Can't stat a deleted path, so try to unwatch it as if it were a directory.
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		am.removeAsset(e.Name)
		_ = am.fsnotify.Remove(e.Name)
	}
}

func (am *AssetManager) notify(info AssetInfo) {
	am.mutex.RLock()
	listeners := make([]FnOnChange, len(am.listeners))
	copy(listeners, am.listeners)
	am.mutex.RUnlock()

	core.LogDebug("definition '%s' changed on disk", info.Name)
	for _, fn := range listeners {
		fn(info)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the definition files it finds.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return AssetInfo{}, false
	}

	name := definitionName(path)
	info := AssetInfo{
		Name: name,
		Path: path,
		Type: assetType,
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	if prev, ok := am.assets[name]; ok && prev.Path != path {
		core.LogWarn("definition '%s' at '%s' shadows '%s'", name, path, prev.Path)
	}
	am.assets[name] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	name := definitionName(path)
	if a, ok := am.assets[name]; ok && a.Path == path {
		delete(am.assets, name)
	}
}

func definitionName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func determineAssetType(path string) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return AssetTypeTOML
	case ".yaml", ".yml":
		return AssetTypeYAML
	default:
		return AssetTypeNone
	}
}
