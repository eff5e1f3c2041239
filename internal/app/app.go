// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/software"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/render"
	"github.com/tejashwikalptaru/wavepulse/internal/adapter/scheduler"
	fyneui "github.com/tejashwikalptaru/wavepulse/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
	"github.com/tejashwikalptaru/wavepulse/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	config  Config
	fyneApp fyne.App

	// Infrastructure
	eventBus  *eventbus.SyncEventBus
	platform  ports.AudioPlatform
	element   ports.MediaElement
	scheduler *scheduler.TickerScheduler
	canvas    *render.RasterCanvas

	// Session
	session *service.VisualizerSession

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{config: config}

	// Step 1: Create Fyne application
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 2: Create logger
	app.logger = logger.NewLogger(config.LoggerConfig())
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().String()),
		slog.Bool("mock_audio", config.Audio.Mock))

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)

	// Step 4: Create the audio platform and the media element
	if config.Audio.Mock {
		platform := mock.NewPlatform()
		platform.SetLogger(app.logger.With(slog.String("platform", "mock")))
		platform.SetSignal(DemoSignal(config.FPS))
		app.platform = platform
		app.element = mock.NewMediaElement()
	} else {
		output, err := software.SharedOutput()
		if err != nil {
			_ = app.closeInfrastructure()
			return nil, fmt.Errorf("failed to open audio output: %w", err)
		}
		app.platform = software.NewPlatform(app.logger, output)
		app.element = software.NewMediaElement(app.logger, output)
	}

	// Step 5: Create the render target and the frame scheduler
	app.canvas = render.NewRasterCanvas(fyneui.WIDTH, fyneui.WIDTH)
	app.scheduler = scheduler.NewTickerScheduler(config.FPS)

	// Step 6: Mount the visualizer session
	session, err := service.NewVisualizerSession(service.SessionDeps{
		Logger:    app.logger,
		Platform:  app.platform,
		Element:   app.element,
		Scheduler: app.scheduler,
		Clock:     app.scheduler.Clock(),
		Canvas:    app.canvas,
		Bus:       app.eventBus,
		Config:    config.Visualizer,
		Theme:     domain.ParseTheme(config.Theme),
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())), // nolint:gosec
	})
	if err != nil {
		_ = app.closeInfrastructure()
		return nil, fmt.Errorf("failed to create visualizer session: %w", err)
	}
	app.session = session

	// Step 7: Create UI
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, app.canvas)

	// Step 8: Create Presenter and wire with UI
	app.presenter = fyneui.NewPresenter(app.logger, app.session, app.eventBus, app.mainWindow)
	app.mainWindow.SetPresenter(app.presenter)

	// Stop playback before the window goes away, so no frame races the teardown
	app.mainWindow.SetOnBeforeClose(func() {
		if err := app.session.Stop(context.Background()); err != nil {
			app.logger.Debug("stop on close", slog.Any("error", err))
		}
	})

	return app, nil
}

// Start loads source and starts playing it.
func (a *Application) Start(ctx context.Context, source domain.MediaSource) error {
	if err := a.session.Start(ctx, source); err != nil {
		return err
	}
	if el, ok := a.element.(*mock.MediaElement); ok {
		// Mock sources never load on their own
		el.EmitLoaded(DemoDuration * time.Second)
	}
	return nil
}

// Session returns the visualizer session.
func (a *Application) Session() *service.VisualizerSession {
	return a.session
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Config returns the configuration the application was built with.
func (a *Application) Config() Config {
	return a.config
}

// Run starts the application.
// Blocks until the window is closed.
func (a *Application) Run() error {
	a.logger.Info("WavePulse started", slog.String("session", a.session.ID()))
	a.mainWindow.ShowAndRun()
	return nil
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		if a.presenter != nil {
			a.presenter.Shutdown()
		}
		if a.session != nil {
			a.session.Dispose()
		}
		a.shutdownErr = a.closeInfrastructure()

		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// closeInfrastructure releases what the session does not own.
func (a *Application) closeInfrastructure() error {
	var errs []error

	if a.scheduler != nil {
		a.scheduler.Close()
	}
	if a.element != nil {
		if err := a.element.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing media element: %w", err))
		}
	}
	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing event bus: %w", err))
		}
	}

	return errors.Join(errs...)
}
