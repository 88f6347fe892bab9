package whatsapp

import (
	"sync/atomic"
	"time"
)

// State is the advisory reachability of the gateway.
type State string

const (
	StateAvailable State = "available"
	StateDegraded  State = "degraded"
)

// Snapshot is one immutable reading of the availability cell.
type Snapshot struct {
	State     State     `json:"state"`
	Reason    Reason    `json:"reason,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Availability is a shared, lock-free cell updated by every gateway call.
// Readers may observe a slightly stale value.
type Availability struct {
	current atomic.Pointer[Snapshot]
	now     func() time.Time
}

// NewAvailability returns a cell that starts out available.
func NewAvailability() *Availability {
	a := &Availability{now: time.Now}
	a.current.Store(&Snapshot{State: StateAvailable, CheckedAt: a.now()})
	return a
}

func (a *Availability) MarkAvailable() {
	a.current.Store(&Snapshot{State: StateAvailable, CheckedAt: a.now()})
}

func (a *Availability) MarkDegraded(reason Reason) {
	a.current.Store(&Snapshot{State: StateDegraded, Reason: reason, CheckedAt: a.now()})
}

func (a *Availability) Available() bool {
	return a.current.Load().State == StateAvailable
}

func (a *Availability) Snapshot() Snapshot {
	return *a.current.Load()
}
