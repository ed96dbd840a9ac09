package binder

import "errors"

var (
	// ErrBinderNotApplicable tells handler.Wrap to skip a binder for this request.
	ErrBinderNotApplicable = errors.New("binder not applicable to this request")
	ErrFailedToParseQuery  = errors.New("failed to parse query parameters")
	ErrFailedToParsePath   = errors.New("failed to parse path parameters")
	ErrFailedToReadSignals = errors.New("failed to read datastar signals")
)
