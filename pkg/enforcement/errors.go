package enforcement

import "errors"

var (
	ErrLimitReached   = errors.New("usage limit reached")
	ErrModuleDisabled = errors.New("module is not enabled")
)
