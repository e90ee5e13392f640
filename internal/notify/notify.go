package notify

import (
	"deskpilot/internal/config"
	"deskpilot/internal/logging"
	"deskpilot/internal/types"

	"go.uber.org/zap"
)

// FromConfig returns an AMQP publisher when a broker URL is configured, or a
// NopNotifier otherwise. Wiring code does not need to care which one it got.
func FromConfig(cfg config.NotifyConfig) (types.Notifier, error) {
	if cfg.URL == "" {
		logging.Get(logging.CategoryNotify).Debug("no broker configured, notifications disabled")
		return types.NopNotifier{}, nil
	}
	p, err := New(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, err
	}
	logging.Get(logging.CategoryNotify).Info("notification publisher connected",
		zap.String("exchange", cfg.Exchange))
	return p, nil
}
