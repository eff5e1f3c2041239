package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/scheduler"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

func TestRenderLoop_StartStop(t *testing.T) {
	sched := scheduler.NewManualScheduler()
	var frames []float64
	loop := NewRenderLoop(logger.NewTestLogger(), sched, func(now float64) bool {
		frames = append(frames, now)
		return true
	})

	assert.False(t, loop.Running())
	assert.Equal(t, ports.FrameHandle(0), loop.Handle())

	require.True(t, loop.Start())
	assert.False(t, loop.Start(), "already running")
	assert.Equal(t, 1, sched.Pending(), "a single frame is scheduled")

	sched.Advance(3, 16)
	assert.Equal(t, []float64{16, 32, 48}, frames)
	assert.Equal(t, uint64(3), loop.Frames())
	assert.Equal(t, 1, sched.Pending())

	loop.Stop()
	assert.False(t, loop.Running())
	assert.Equal(t, ports.FrameHandle(0), loop.Handle())
	assert.Zero(t, sched.Pending())

	sched.Advance(5, 16)
	assert.Len(t, frames, 3, "no frames after stop")
	assert.Equal(t, ports.FrameHandle(0), loop.Handle())
}

func TestRenderLoop_StaleCallbackIsNoop(t *testing.T) {
	sched := scheduler.NewManualScheduler()
	calls := 0
	loop := NewRenderLoop(logger.NewTestLogger(), sched, func(float64) bool {
		calls++
		return true
	})

	var stale ports.FrameCallback
	captured := &capturingScheduler{FrameScheduler: sched, onRequest: func(cb ports.FrameCallback) {
		if stale == nil {
			stale = cb
		}
	}}
	loop.scheduler = captured

	loop.Start()
	loop.Stop()
	loop.Start()

	require.NotNil(t, stale)
	stale(100)
	assert.Zero(t, calls, "callback from a previous run does nothing")
	assert.Equal(t, 1, sched.Pending(), "stale callback does not reschedule")

	sched.Step(116)
	assert.Equal(t, 1, calls)
}

func TestRenderLoop_StopFromFrame(t *testing.T) {
	sched := scheduler.NewManualScheduler()
	var loop *RenderLoop
	calls := 0
	loop = NewRenderLoop(logger.NewTestLogger(), sched, func(float64) bool {
		calls++
		loop.Stop()
		return true
	})

	loop.Start()
	sched.Advance(3, 16)

	assert.Equal(t, 1, calls)
	assert.False(t, loop.Running())
	assert.Zero(t, sched.Pending())
}

func TestRenderLoop_SelfTerminates(t *testing.T) {
	sched := scheduler.NewManualScheduler()
	remaining := 2
	loop := NewRenderLoop(logger.NewTestLogger(), sched, func(float64) bool {
		remaining--
		return remaining > 0
	})

	loop.Start()
	sched.Advance(5, 16)

	assert.Equal(t, 0, remaining)
	assert.False(t, loop.Running())
	assert.Zero(t, sched.Pending())
	assert.True(t, loop.Start(), "can restart after terminating")
}

type capturingScheduler struct {
	ports.FrameScheduler
	onRequest func(cb ports.FrameCallback)
}

func (s *capturingScheduler) RequestFrame(cb ports.FrameCallback) ports.FrameHandle {
	s.onRequest(cb)
	return s.FrameScheduler.RequestFrame(cb)
}
