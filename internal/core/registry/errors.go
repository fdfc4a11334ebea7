package registry

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownModule   = errors.New("unknown module")
	ErrDuplicateModule = errors.New("module already registered")
)

// UnknownModuleError reports a lookup of a module that was never registered.
type UnknownModuleError struct {
	Module string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("unknown module %q", e.Module)
}

func (e *UnknownModuleError) Is(target error) bool {
	return target == ErrUnknownModule
}
