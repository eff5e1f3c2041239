package fyne

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/render"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/scheduler"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/service"
	"github.com/tejashwikalptaru/wavepulse/internal/visualizer"
)

// fakeView records the last value of every view update.
type fakeView struct {
	mu            sync.Mutex
	playing       bool
	muted         bool
	volume        float64
	title         string
	currentTime   float64
	totalTime     float64
	position      float64
	theme         domain.Theme
	frames        int
	notifications []string
}

func (v *fakeView) SetPlayState(playing bool) { v.mu.Lock(); v.playing = playing; v.mu.Unlock() }
func (v *fakeView) SetMuteState(muted bool)   { v.mu.Lock(); v.muted = muted; v.mu.Unlock() }
func (v *fakeView) SetVolume(volume float64)  { v.mu.Lock(); v.volume = volume; v.mu.Unlock() }
func (v *fakeView) SetTitle(title string)     { v.mu.Lock(); v.title = title; v.mu.Unlock() }
func (v *fakeView) SetTheme(t domain.Theme)   { v.mu.Lock(); v.theme = t; v.mu.Unlock() }
func (v *fakeView) FrameDrawn()               { v.mu.Lock(); v.frames++; v.mu.Unlock() }

func (v *fakeView) SetCurrentTime(seconds float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentTime = seconds
}

func (v *fakeView) SetTotalTime(seconds float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.totalTime = seconds
}

func (v *fakeView) SetProgress(position, _ float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.position = position
}

func (v *fakeView) ShowNotification(title, _ string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifications = append(v.notifications, title)
}

func (v *fakeView) snapshot() fakeView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fakeView{
		playing:       v.playing,
		muted:         v.muted,
		volume:        v.volume,
		title:         v.title,
		currentTime:   v.currentTime,
		totalTime:     v.totalTime,
		position:      v.position,
		theme:         v.theme,
		frames:        v.frames,
		notifications: append([]string(nil), v.notifications...),
	}
}

type presenterFixture struct {
	presenter *Presenter
	view      *fakeView
	session   *service.VisualizerSession
	platform  *mock.Platform
	element   *mock.MediaElement
	sched     *scheduler.ManualScheduler
	bus       *eventbus.SyncEventBus
}

func newPresenterFixture(t *testing.T) *presenterFixture {
	t.Helper()

	log := logger.NewTestLogger()
	f := &presenterFixture{
		view:     &fakeView{},
		platform: mock.NewPlatform(),
		element:  mock.NewMediaElement(),
		sched:    scheduler.NewManualScheduler(),
		bus:      eventbus.NewSyncEventBus(log),
	}

	s, err := service.NewVisualizerSession(service.SessionDeps{
		Logger:    log,
		Platform:  f.platform,
		Element:   f.element,
		Scheduler: f.sched,
		Clock:     f.sched.Clock(),
		Canvas:    render.NewRecorder(200, 200),
		Bus:       f.bus,
		Config:    visualizer.DefaultConfig(),
		Rand:      rand.New(rand.NewSource(3)), // nolint:gosec
	})
	require.NoError(t, err)
	f.session = s
	f.presenter = NewPresenter(log, s, f.bus, f.view)

	t.Cleanup(func() {
		f.presenter.Shutdown()
		s.Dispose()
		_ = f.bus.Close()
	})
	return f
}

func TestPresenter_InitialState(t *testing.T) {
	f := newPresenterFixture(t)

	v := f.view.snapshot()
	assert.InDelta(t, service.DefaultVolume*100, v.volume, 1e-9)
	assert.False(t, v.playing)
	assert.False(t, v.muted)
	assert.Equal(t, domain.ThemeDark, v.theme)
}

func TestPresenter_FileOpenedPlaysAndShowsTitle(t *testing.T) {
	f := newPresenterFixture(t)
	f.element.SetTitle("Artist - Song")

	require.NoError(t, f.presenter.OnFileOpened("/music/song.wav"))
	f.element.EmitLoaded(90 * time.Second)
	f.sched.Advance(3, 16)

	v := f.view.snapshot()
	assert.Equal(t, "Artist - Song", v.title)
	assert.True(t, v.playing)
	assert.Equal(t, 90.0, v.totalTime)
	assert.GreaterOrEqual(t, v.frames, 3)
	assert.Equal(t, "file:///music/song.wav", f.element.Source())
}

func TestPresenter_TitleFallsBackToFileName(t *testing.T) {
	f := newPresenterFixture(t)

	require.NoError(t, f.presenter.OnFileOpened("/music/night drive.wav"))
	assert.Equal(t, "night drive", f.view.snapshot().title)
}

func TestPresenter_PlayToggle(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnPlayClicked()
	v := f.view.snapshot()
	assert.False(t, v.playing)
	assert.Equal(t, []string{"Nothing to play"}, v.notifications)

	require.NoError(t, f.presenter.OnFileOpened("/a.wav"))
	assert.True(t, f.view.snapshot().playing)

	f.presenter.OnPlayClicked()
	assert.False(t, f.view.snapshot().playing)
	assert.False(t, f.session.Controller().IsPlaying())

	f.presenter.OnPlayClicked()
	assert.True(t, f.view.snapshot().playing)
}

func TestPresenter_PlayFailureNotifies(t *testing.T) {
	f := newPresenterFixture(t)
	f.element.SetFailPlay(true)

	assert.Error(t, f.presenter.OnFileOpened("/a.wav"))

	v := f.view.snapshot()
	assert.False(t, v.playing)
	assert.Contains(t, v.notifications, "Playback Error")
}

func TestPresenter_ProgressAndSeek(t *testing.T) {
	f := newPresenterFixture(t)

	require.NoError(t, f.presenter.OnFileOpened("/a.wav"))
	f.element.EmitLoaded(100 * time.Second)

	f.sched.Advance(20, 16)
	f.element.EmitTimeUpdate(12 * time.Second)
	assert.Equal(t, 12.0, f.view.snapshot().currentTime)

	f.presenter.OnSeekRequested(50)
	assert.Equal(t, 50*time.Second, f.element.CurrentTime())
	assert.Equal(t, 50.0, f.view.snapshot().position)

	f.presenter.OnSeekRequested(500)
	assert.Equal(t, 100*time.Second, f.element.CurrentTime(), "seek is clamped to the end")
}

func TestPresenter_StopRewinds(t *testing.T) {
	f := newPresenterFixture(t)

	require.NoError(t, f.presenter.OnFileOpened("/a.wav"))
	f.element.EmitLoaded(30 * time.Second)
	f.presenter.OnSeekRequested(10)

	f.presenter.OnStopClicked()

	v := f.view.snapshot()
	assert.False(t, v.playing)
	assert.Zero(t, v.position)
	assert.Zero(t, f.element.CurrentTime())
}

func TestPresenter_EndedShowsFullProgress(t *testing.T) {
	f := newPresenterFixture(t)

	require.NoError(t, f.presenter.OnFileOpened("/a.wav"))
	f.element.EmitLoaded(8 * time.Second)
	f.element.EmitEnded()

	v := f.view.snapshot()
	assert.False(t, v.playing)
	assert.Equal(t, 8.0, v.currentTime)
	assert.Equal(t, 8.0, v.position)
}

func TestPresenter_VolumeAndMute(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnVolumeChanged(40)
	assert.InDelta(t, 0.4, f.element.Volume(), 1e-9)
	assert.InDelta(t, 40, f.view.snapshot().volume, 1e-9)

	f.presenter.OnMuteClicked()
	assert.True(t, f.view.snapshot().muted)
	assert.True(t, f.element.Muted())

	f.presenter.OnVolumeChanged(120)
	assert.Contains(t, f.view.snapshot().notifications, "Volume Error")
}

func TestPresenter_ThemeToggle(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnThemeToggled()
	assert.Equal(t, domain.ThemeLight, f.view.snapshot().theme)
	assert.Equal(t, domain.ThemeLight, f.session.Theme())

	f.presenter.OnThemeToggled()
	assert.Equal(t, domain.ThemeDark, f.session.Theme())
}

func TestPresenter_VisibilityPausesFrames(t *testing.T) {
	f := newPresenterFixture(t)

	require.NoError(t, f.presenter.OnFileOpened("/a.wav"))
	f.sched.Advance(2, 16)

	f.presenter.OnVisibilityChanged(true)
	assert.True(t, f.session.Lifecycle().Hidden())
	assert.Zero(t, f.sched.Pending())

	f.presenter.OnVisibilityChanged(false)
	assert.False(t, f.session.Lifecycle().Hidden())
	assert.True(t, f.session.Controller().IsPlaying())
	assert.Equal(t, 1, f.sched.Pending())
}

func TestPresenter_DegradedGraphNotifies(t *testing.T) {
	f := newPresenterFixture(t)
	f.platform.BindElsewhere(f.element)

	require.NoError(t, f.presenter.OnFileOpened("/a.wav"))
	assert.Contains(t, f.view.snapshot().notifications, "Visualizer")
}

func TestPresenter_ShutdownDetaches(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.Shutdown()
	f.presenter.Shutdown()

	require.NoError(t, f.session.Start(t.Context(), domain.MediaSource{URL: "file:///a.wav"}))
	f.sched.Advance(2, 16)
	f.element.EmitError(errors.New("decode"))

	v := f.view.snapshot()
	assert.Zero(t, v.frames)
	assert.Empty(t, v.title)
	assert.Empty(t, v.notifications)
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Tagged", displayTitle("Tagged", "file:///a/b.wav"))
	assert.Equal(t, "b", displayTitle("", "file:///a/b.wav"))
	assert.Equal(t, "No track loaded", displayTitle("", ""))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "00:00", formatTime(0))
	assert.Equal(t, "01:05", formatTime(65.4))
	assert.Equal(t, "00:00", formatTime(-3))
}
