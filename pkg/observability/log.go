package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level records to
// a charm logger. The CLI registers it under --verbose and the server always.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnCompressStart(_ context.Context, format string) {
	h.logger.Debug("compress started", "format", format)
}

func (h *LogHooks) OnCompressComplete(_ context.Context, format string, keys, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("compress failed", "format", format, "duration", d, "err", err)
		return
	}
	h.logger.Debug("compress finished", "format", format, "keys", keys, "edges", edges, "duration", d)
}

func (h *LogHooks) OnDecompressStart(_ context.Context, format string) {
	h.logger.Debug("decompress started", "format", format)
}

func (h *LogHooks) OnDecompressComplete(_ context.Context, format string, records int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("decompress failed", "format", format, "records", records, "duration", d, "err", err)
		return
	}
	h.logger.Debug("decompress finished", "format", format, "records", records, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "kind", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Info("response", "method", method, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, path string, err error) {
	h.logger.Warn("request failed", "method", method, "path", path, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
