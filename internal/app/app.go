package app

import (
	"io"
	"log/slog"

	"github.com/specialistvlad/launchgridgo/internal/composer"
	"github.com/specialistvlad/launchgridgo/internal/pkgindex"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	composer *composer.Composer
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	index := pkgindex.New(cfg.PackagePath)
	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		composer: composer.New(index),
	}
}

// Logger returns the app's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
