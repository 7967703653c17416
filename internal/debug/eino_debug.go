package debug

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/devops"
	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/config"
)

// EinoDebugger exposes the eino devops visual debugger when enabled.
type EinoDebugger struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewEinoDebugger(cfg *config.Config, logger *zap.Logger) *EinoDebugger {
	return &EinoDebugger{cfg: cfg, logger: logger}
}

func (d *EinoDebugger) Initialize(ctx context.Context) error {
	if !d.cfg.EinoDebugEnabled {
		return nil
	}
	if err := devops.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize eino debug plugin: %w", err)
	}
	d.logger.Info("eino debug server initialized", zap.String("url", d.DebugURL()))
	return nil
}

func (d *EinoDebugger) DebugURL() string {
	if !d.cfg.EinoDebugEnabled {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", d.cfg.EinoDebugPort)
}
