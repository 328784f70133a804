package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flametower/pkg/observability"
)

// logHooks reports engine, run and store events at debug level.
type logHooks struct {
	logger *log.Logger
}

func registerLogHooks(l *log.Logger) {
	h := &logHooks{logger: l.WithPrefix("hooks")}
	observability.SetEngineHooks(h)
	observability.SetPipelineHooks(h)
	observability.SetStoreHooks(h)
}

func (h *logHooks) OnRestart(directed bool) {
	h.logger.Debug("engine restart", "directed", directed)
}

func (h *logHooks) OnRerender(samples int, empty bool, d time.Duration) {
	h.logger.Debug("engine rerender", "samples", samples, "empty", empty, "duration", d)
}

// OnStep fires every frame, so only every 50th step is logged.
func (h *logHooks) OnStep(iteration, hits int, d time.Duration) {
	if iteration%50 == 0 {
		h.logger.Debug("engine step", "iteration", iteration, "hits", hits, "duration", d)
	}
}

func (h *logHooks) OnFrozen(iterations int) {
	h.logger.Debug("engine frozen", "iterations", iterations)
}

func (h *logHooks) OnRunStart(_ context.Context, width, height int, quality string) {
	h.logger.Debug("run start", "width", width, "height", height, "quality", quality)
}

func (h *logHooks) OnRunComplete(_ context.Context, iterations int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("run failed", "error", err)
		return
	}
	h.logger.Debug("run complete", "iterations", iterations, "duration", d)
}

func (h *logHooks) OnHit(_ context.Context, backend string) {
	h.logger.Debug("store hit", "backend", backend)
}

func (h *logHooks) OnMiss(_ context.Context, backend string) {
	h.logger.Debug("store miss", "backend", backend)
}

func (h *logHooks) OnSet(_ context.Context, backend string, size int) {
	h.logger.Debug("store set", "backend", backend, "bytes", size)
}
