package lifecycle

import (
	"fmt"
	"log/slog"

	"github.com/aace/lssbroker/internal/config"
)

// App holds initialized infrastructure that is guaranteed to be ready.
// If you have an *App, you know configuration has been loaded and
// validated. This is NOT a god object - it just holds the "dangerous"
// infrastructure that requires setup/retry logic. Application logic
// should NOT go here.
type App struct {
	Config *config.Config

	// Internal cleanup - call AddCleanup to register cleanup functions
	cleanupFuncs []func() error
}

// Initialize creates an App from the configuration document at path.
// Returns an error if the document is missing or invalid.
//
// Usage:
//
//	app, cleanup, err := lifecycle.Initialize(configPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
func Initialize(configPath string) (*App, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	app := &App{Config: cfg}
	cleanup := func() { app.Cleanup() }

	return app, cleanup, nil
}

// AddCleanup registers a cleanup function to be called on shutdown.
// Functions are called in reverse order of registration.
func (app *App) AddCleanup(fn func() error) {
	app.cleanupFuncs = append(app.cleanupFuncs, fn)
}

// Cleanup runs all cleanup functions in reverse order.
func (app *App) Cleanup() {
	for i := len(app.cleanupFuncs) - 1; i >= 0; i-- {
		if err := app.cleanupFuncs[i](); err != nil {
			slog.Error("Cleanup error", "error", err)
		}
	}
}
