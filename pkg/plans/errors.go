package plans

import "errors"

var (
	ErrAlreadyLoading = errors.New("plans: load already in flight")
	ErrAlreadyLoaded  = errors.New("plans: catalog already loaded")
	ErrNotLoading     = errors.New("plans: no load in flight")
	ErrNilSource      = errors.New("plans: nil source")
)
