package core

import (
	"errors"
)

var (
	ErrMissingRuntime    = errors.New("scene runtime not provided")
	ErrLoadTimeout       = errors.New("scene operations did not settle before the load timeout")
	ErrInvalidDefinition = errors.New("invalid group definition")
	ErrUnknownAssetType  = errors.New("unknown asset type")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrEngineBusy        = errors.New("a group load is already in flight")
	ErrNoWorkers         = errors.New("job system has no running workers")
)
