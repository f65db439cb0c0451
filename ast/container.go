package ast

import (
	"github.com/sirupsen/logrus"

	"github.com/synlang/astkit/compiler"
)

// GlobalContainer is the per-project context: the wrapper factory, the
// symbol cache, manipulation settings, the compiler frontend, and a
// logger. It is modeled as an explicit value threaded through every
// operation rather than process-wide state — two GlobalContainers may
// coexist with disjoint caches, and nothing here is safe to share across
// goroutines.
type GlobalContainer struct {
	Factory  *Factory
	Symbols  *SymbolCache
	Settings *ManipulationSettings
	Frontend compiler.Frontend
	Logger   *logrus.Logger
}

// NewGlobalContainer wires a fresh, independent container around the given
// frontend. Settings may be nil to take DefaultManipulationSettings().
func NewGlobalContainer(frontend compiler.Frontend, settings *ManipulationSettings) *GlobalContainer {
	if settings == nil {
		settings = DefaultManipulationSettings()
	}

	logger := logrus.New()
	logger.SetLevel(settings.LogLevel)

	gc := &GlobalContainer{
		Settings: settings,
		Frontend: frontend,
		Logger:   logger,
	}
	gc.Factory = newFactory(gc)
	gc.Symbols = newSymbolCache(256, gc)
	return gc
}
