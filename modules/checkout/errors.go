package checkout

import "errors"

var (
	ErrStateNotFound       = errors.New("checkout: state not found")
	ErrPageExpired         = errors.New("checkout: page expired")
	ErrUnknownStore        = errors.New("checkout: unknown state store")
	ErrUnknownTab          = errors.New("checkout: unknown tab")
	ErrUnknownDuration     = errors.New("checkout: unknown plan duration")
	ErrUnknownPreset       = errors.New("checkout: unknown token preset")
	ErrCheckoutInFlight    = errors.New("checkout: premium checkout already in progress")
	ErrPremiumCreateFailed = errors.New("checkout: premium payment page not created")
	ErrTooManyAttempts     = errors.New("checkout: too many premium checkout attempts")
	ErrMissingDependency   = errors.New("checkout: missing dependency")
)
