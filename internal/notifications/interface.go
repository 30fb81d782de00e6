package notifications

import "github.com/jai-fire/production-grade-ai-trading-system/pkg/types"

// Notifier defines the interface for notification services
type Notifier interface {
	// SendAlert sends an alert with the specified level and message
	SendAlert(level, message string) error
	// NotifyFill reports an executed fill
	NotifyFill(fill types.Fill) error
	// NotifyHalt reports that the engine stopped trading and why
	NotifyHalt(reason string) error
}

// NoopNotifier discards all alerts. Used when no channel is configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) SendAlert(level, message string) error { return nil }
func (n *NoopNotifier) NotifyFill(fill types.Fill) error      { return nil }
func (n *NoopNotifier) NotifyHalt(reason string) error        { return nil }
