package whatsapp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailability_StartsAvailable(t *testing.T) {
	a := NewAvailability()
	assert.True(t, a.Available())
	assert.Equal(t, StateAvailable, a.Snapshot().State)
}

func TestAvailability_Transitions(t *testing.T) {
	a := NewAvailability()

	a.MarkDegraded(ReasonAuthFailed)
	snap := a.Snapshot()
	assert.False(t, a.Available())
	assert.Equal(t, ReasonAuthFailed, snap.Reason)
	assert.False(t, snap.CheckedAt.IsZero())

	a.MarkAvailable()
	assert.True(t, a.Available())
	assert.Empty(t, a.Snapshot().Reason)
}

func TestAvailability_ConcurrentWriters(t *testing.T) {
	a := NewAvailability()

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				a.MarkDegraded(ReasonTimeout)
			} else {
				a.MarkAvailable()
			}
			_ = a.Snapshot()
		}()
	}
	wg.Wait()

	state := a.Snapshot().State
	assert.Contains(t, []State{StateAvailable, StateDegraded}, state)
}
