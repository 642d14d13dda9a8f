package typecanon

import (
	"log/slog"

	"github.com/i5heu/typecanon/pkg/logging"
	"github.com/i5heu/typecanon/pkg/repository"
)

// Config configures a Canon.
type Config struct {
	// Logger is an optional structured logger. If nil, a tint logger on
	// stderr at Info level is used.
	Logger *slog.Logger
	// ProbeLimit bounds the isomorphism probe. Zero means the repository
	// default.
	ProbeLimit int
	// DisableProbe always takes the minimization path.
	DisableProbe bool
	// Check validates every batch and the whole storage after each
	// insertion.
	Check bool
	// CheckWorkers is the worker count of the storage check.
	CheckWorkers int
	// Observer receives insertion events, e.g. *metrics.Metrics.
	Observer repository.Observer
}

func defaultLogger() *slog.Logger { // A
	return logging.New(slog.LevelInfo, false)
}

func (c Config) options() repository.Options {
	return repository.Options{
		Logger:       c.Logger,
		ProbeLimit:   c.ProbeLimit,
		DisableProbe: c.DisableProbe,
		Check:        c.Check,
		CheckWorkers: c.CheckWorkers,
		Observer:     c.Observer,
	}
}
