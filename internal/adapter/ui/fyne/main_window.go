package fyne

import (
	"fmt"
	"math"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/render"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/res"
)

// Window defaults
const (
	APPNAME = "WavePulse"
	WIDTH   = 520
	HEIGHT  = 600
)

// MainWindow is the main UI window implementing the UIView interface.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All logic is in the Presenter
// - User interactions are forwarded to the Presenter
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window

	// UI components
	visualizer     *widgets.Visualizer
	playButton     *widget.Button
	stopButton     *widget.Button
	muteButton     *widget.Button
	titleLabel     *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider
	themeItem      *fyneapp.MenuItem
	mainMenu       *fyneapp.MainMenu

	onBeforeClose func()
	closeOnce     sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates the main window drawing target in its visualizer.
func NewMainWindow(app fyneapp.App, target *render.RasterCanvas) *MainWindow {
	w := &MainWindow{
		app: app,
	}

	w.window = app.NewWindow(APPNAME)
	w.buildUI(target)

	w.window.Resize(fyneapp.Size{
		Width:  WIDTH,
		Height: HEIGHT,
	})
	w.window.SetCloseIntercept(func() {
		if w.onBeforeClose != nil {
			w.onBeforeClose()
		}
		w.window.Close()
	})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// SetOnBeforeClose registers a callback run when the window is closed by the user.
func (w *MainWindow) SetOnBeforeClose(fn func()) {
	w.onBeforeClose = fn
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI(target *render.RasterCanvas) {
	w.visualizer = widgets.NewVisualizer(target)

	// Control buttons
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil)
	w.muteButton = widget.NewButtonWithIcon("", theme.VolumeUpIcon(), nil)

	w.titleLabel = widget.NewLabel("No track loaded")
	w.titleLabel.Truncation = fyneapp.TextTruncateEllipsis
	w.titleLabel.TextStyle = fyneapp.TextStyle{
		Bold:   true,
		Italic: true,
	}

	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Orientation = widget.Horizontal
	volIcon := widget.NewIcon(theme.VolumeUpIcon())
	volumeHolder := container.NewBorder(nil, nil, volIcon, nil, w.volumeSlider)

	buttons := container.NewHBox(w.playButton, w.stopButton, w.muteButton)
	buttonsHolder := container.NewBorder(nil, nil, buttons, nil, w.titleLabel)

	w.progressSlider = widget.NewSlider(0, 1)
	w.progressSlider.Step = 0.01
	w.currentTime = widget.NewLabel("00:00")
	w.endTime = widget.NewLabel("00:00")
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	controls := container.NewVBox(buttonsHolder, sliderHolder, volumeHolder)
	w.window.SetContent(container.NewPadded(container.NewBorder(nil, controls, nil, nil, w.visualizer)))

	w.mainMenu = fyneapp.NewMainMenu(w.createMenu()...)
	w.window.SetMainMenu(w.mainMenu)
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = w.presenter.OnPlayClicked
	w.stopButton.OnTapped = w.presenter.OnStopClicked
	w.muteButton.OnTapped = w.presenter.OnMuteClicked

	w.visualizer.SetOnTapped(w.presenter.OnPlayClicked)
	w.visualizer.SetOnTappedSecondary(func(pe *fyneapp.PointEvent) {
		menu := fyneapp.NewMenu("", w.themeItem)
		widget.ShowPopUpMenuAtPosition(menu, w.window.Canvas(), pe.AbsolutePosition)
	})

	w.volumeSlider.OnChanged = w.presenter.OnVolumeChanged

	// Only user drags seek; progress updates set the value directly
	w.progressSlider.OnChangeEnded = w.presenter.OnSeekRequested

	// Frames stop while the app is in the background
	lifecycle := w.app.Lifecycle()
	lifecycle.SetOnEnteredForeground(func() {
		w.presenter.OnVisibilityChanged(false)
	})
	lifecycle.SetOnExitedForeground(func() {
		w.presenter.OnVisibilityChanged(true)
	})
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	openFile := fyneapp.NewMenuItem("Open", w.handleOpenFile)
	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})
	fileMenu := fyneapp.NewMenu("File", openFile, fyneapp.NewMenuItemSeparator(), exitMenu)

	w.themeItem = fyneapp.NewMenuItem("Light Background", func() {
		if w.presenter != nil {
			w.presenter.OnThemeToggled()
		}
	})
	viewMenu := fyneapp.NewMenu("View", w.themeItem)

	about := fyneapp.NewMenuItem("About", func() {
		content := widget.NewRichTextFromMarkdown(res.AboutContent)
		content.Wrapping = fyneapp.TextWrapWord
		dialog.ShowCustom("About "+APPNAME, "Close", content, w.window)
	})
	helpMenu := fyneapp.NewMenu("Help", about)

	return []*fyneapp.Menu{fileMenu, viewMenu, helpMenu}
}

// handleOpenFile handles the "Open" menu action.
func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}

	d := NewFileDialog(w.window, func(filePath string) {
		if err := w.presenter.OnFileOpened(filePath); err != nil {
			w.ShowNotification("Error", fmt.Sprintf("Failed to open file: %v", err))
		}
	}, w.presenter.logger)
	d.Show()
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	c := w.window.Canvas()

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyUp,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(math.Min(w.volumeSlider.Value+5, 100))
	})

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyDown,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(math.Max(w.volumeSlider.Value-5, 0))
	})

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeySpace,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnPlayClicked()
	})
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window. It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		fyneapp.Do(w.window.Close)
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// UIView interface implementation. Updates are marshalled onto the UI thread.

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	icon := theme.MediaPlayIcon()
	if playing {
		icon = theme.MediaPauseIcon()
	}
	fyneapp.Do(func() {
		w.playButton.SetIcon(icon)
	})
}

// SetMuteState updates the mute button state.
func (w *MainWindow) SetMuteState(muted bool) {
	icon := theme.VolumeUpIcon()
	if muted {
		icon = theme.VolumeMuteIcon()
	}
	fyneapp.Do(func() {
		w.muteButton.SetIcon(icon)
	})
}

// SetVolume updates the volume slider (0-100) without triggering OnChanged.
func (w *MainWindow) SetVolume(volume float64) {
	fyneapp.Do(func() {
		w.volumeSlider.Value = volume
		w.volumeSlider.Refresh()
	})
}

// SetTitle updates the displayed source title.
func (w *MainWindow) SetTitle(title string) {
	fyneapp.Do(func() {
		w.titleLabel.SetText(title)
		w.window.SetTitle(APPNAME + " - " + title)
	})
}

// SetCurrentTime updates the current playback time display.
func (w *MainWindow) SetCurrentTime(seconds float64) {
	text := formatTime(seconds)
	fyneapp.Do(func() {
		w.currentTime.SetText(text)
	})
}

// SetTotalTime updates the total duration display.
func (w *MainWindow) SetTotalTime(seconds float64) {
	text := formatTime(seconds)
	fyneapp.Do(func() {
		w.progressSlider.Max = math.Max(seconds, 1)
		w.progressSlider.Refresh()
		w.endTime.SetText(text)
	})
}

// SetProgress updates the progress slider position.
func (w *MainWindow) SetProgress(position, duration float64) {
	fyneapp.Do(func() {
		if duration <= 0 {
			w.progressSlider.Value = 0
		} else {
			w.progressSlider.Value = position
		}
		w.progressSlider.Refresh()
	})
}

// SetTheme updates the theme menu label.
func (w *MainWindow) SetTheme(t domain.Theme) {
	label := "Light Background"
	if t == domain.ThemeLight {
		label = "Dark Background"
	}
	fyneapp.Do(func() {
		w.themeItem.Label = label
		w.mainMenu.Refresh()
	})
}

// FrameDrawn repaints the visualizer.
func (w *MainWindow) FrameDrawn() {
	w.visualizer.FrameDrawn()
}

// ShowNotification displays a system notification.
func (w *MainWindow) ShowNotification(title, message string) {
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}

func formatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	return fmt.Sprintf("%.2d:%.2d", int(seconds/60), int(math.Mod(seconds, 60)))
}

// Verify UIView implementation
var _ UIView = (*MainWindow)(nil)
