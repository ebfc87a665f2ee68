package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/backend/internal/timer"
)

func TestOfferKeepsNewestWhenFull(t *testing.T) {
	updates := make(chan timer.Snapshot, eventBuffer)
	for i := 1; i <= eventBuffer; i++ {
		offer(updates, timer.Snapshot{State: timer.Running, Event: timer.EventTick, Version: i})
	}

	offer(updates, timer.Snapshot{State: timer.Finished, Event: timer.EventFinished, Version: eventBuffer + 1})

	require.Len(t, updates, eventBuffer)
	var delivered []timer.Snapshot
	for len(updates) > 0 {
		delivered = append(delivered, <-updates)
	}
	assert.Equal(t, 2, delivered[0].Version)
	last := delivered[len(delivered)-1]
	assert.Equal(t, timer.EventFinished, last.Event)
	assert.Equal(t, timer.Finished, last.State)
}

func TestOfferDoesNotDropWithRoom(t *testing.T) {
	updates := make(chan int, 2)
	offer(updates, 1)
	offer(updates, 2)

	assert.Equal(t, 1, <-updates)
	assert.Equal(t, 2, <-updates)
}
