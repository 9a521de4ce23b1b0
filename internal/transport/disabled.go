package transport

import "github.com/shahin-grc/collab/pkg/logger"

// Disabled is the Transport used when the collaboration layer is switched
// off by configuration. Every operation is an inert no-op: the application
// keeps working in a degraded, non-real-time mode and nothing ever errors
// or connects.
type Disabled struct{}

var _ Transport = Disabled{}

// Connect implements Transport as a no-op.
func (Disabled) Connect(string) error {
	logger.Infof("transport disabled by configuration, collaboration is inactive")
	return nil
}

// Reconnect implements Transport as a no-op.
func (Disabled) Reconnect() error { return nil }

// On implements Transport; handlers are never invoked.
func (Disabled) On(string, RawHandler) {}

// Emit implements Transport; messages are dropped.
func (Disabled) Emit(string, map[string]any) error { return nil }

// Disconnect implements Transport as a no-op.
func (Disabled) Disconnect() {}

// Connected implements Transport; always false.
func (Disabled) Connected() bool { return false }

// ID implements Transport.
func (Disabled) ID() string { return "" }

// Name implements Transport.
func (Disabled) Name() string { return "" }
