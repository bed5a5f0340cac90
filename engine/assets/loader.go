package assets

import "github.com/spaghettifunk/anima-scenes/engine/groups"

// Loader parses one definition file format.
type Loader interface {
	Load(path string) (*groups.Definition, error)
}
