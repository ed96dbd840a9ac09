package plans

import (
	"context"

	"github.com/ludens-school/paywidget/pkg/statemachine"
)

// Status is the load state of a session's catalog.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

// Event drives Status transitions.
type Event string

const (
	EventLoad    Event = "load"
	EventSucceed Event = "succeed"
	EventFail    Event = "fail"
)

// Lifecycle is the catalog load state machine. A failed load can be retried;
// a successful one is final.
var Lifecycle = statemachine.MustNew(
	statemachine.WithTransition(StatusIdle, StatusLoading, EventLoad),
	statemachine.WithTransition(StatusErrored, StatusLoading, EventLoad),
	statemachine.WithTransition(StatusLoading, StatusLoaded, EventSucceed),
	statemachine.WithTransition(StatusLoading, StatusErrored, EventFail),
)

// Snapshot is the serialisable catalog state kept per session.
type Snapshot struct {
	Status  Status  `json:"status"`
	Catalog Catalog `json:"catalog,omitempty"`
	Error   string  `json:"error,omitempty"`
}

func (s Snapshot) current() Status {
	if s.Status == "" {
		return StatusIdle
	}
	return s.Status
}

func (s Snapshot) Loading() bool { return s.current() == StatusLoading }
func (s Snapshot) Loaded() bool  { return s.current() == StatusLoaded }
func (s Snapshot) Failed() bool  { return s.current() == StatusErrored }

// NeedsLoad reports whether a load may start from this snapshot.
func (s Snapshot) NeedsLoad(ctx context.Context) bool {
	return Lifecycle.CanFire(ctx, s.current(), EventLoad)
}
