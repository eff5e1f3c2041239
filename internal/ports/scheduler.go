package ports

// FrameHandle identifies a scheduled frame callback. Zero is never a valid handle.
type FrameHandle uint64

// FrameCallback receives the frame timestamp in milliseconds.
type FrameCallback func(nowMs float64)

// FrameScheduler schedules one-shot frame callbacks, like requestAnimationFrame.
//
// A callback runs at most once. Cancelling a handle that already ran,
// or was already cancelled, is a no-op.
type FrameScheduler interface {
	// RequestFrame schedules cb for the next frame and returns its handle.
	RequestFrame(cb FrameCallback) FrameHandle

	// CancelFrame cancels a pending callback.
	CancelFrame(handle FrameHandle)
}

// Clock returns the current time in milliseconds.
// The render loop and controllers thread it explicitly instead of reading wall-clock time.
type Clock func() float64
