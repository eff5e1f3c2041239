package app

import (
	"context"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	config := DefaultConfig()
	config.Audio.Mock = true // Use mock for testing
	config.TestFyneApp = test.NewApp()

	app, err := NewApplication(config)
	require.NoError(t, err)
	require.NotNil(t, app)
	return app
}

func TestNewApplication(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.Session())
	assert.NotNil(t, app.EventBus())
	assert.NotEmpty(t, app.Session().ID())
	assert.True(t, app.Config().Audio.Mock)

	err := app.Shutdown()
	assert.NoError(t, err)
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Audio.Mock = true
	config.FPS = 0

	_, err := NewApplication(config)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestApplicationLifecycle(t *testing.T) {
	app := newTestApplication(t)

	// Run would normally block, but we're not calling it in test

	require.NoError(t, app.Start(context.Background(), domain.MediaSource{URL: "file:///demo.wav", Title: "Demo"}))

	state := app.Session().Controller().State()
	assert.True(t, state.IsPlaying)
	assert.True(t, state.IsLoaded)
	assert.Equal(t, DemoDuration*time.Second, state.Duration)
	assert.Equal(t, "Demo", app.Session().Title())

	// Frames from the ticker scheduler analyse the demo signal
	idle := app.Config().Visualizer.IdleLow
	require.Eventually(t, func() bool {
		return app.Session().Snapshot().Bands.Low > idle
	}, 2*time.Second, 10*time.Millisecond)

	assert.NoError(t, app.Shutdown())
	assert.False(t, app.Session().Controller().IsPlaying())

	// Shutdown again should not panic
	assert.NoError(t, app.Shutdown())

	assert.ErrorIs(t, app.Start(context.Background(), domain.MediaSource{URL: "file:///b.wav"}), domain.ErrSessionDisposed)
}
