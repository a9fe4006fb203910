package daemon

import (
	"context"

	"github.com/bsv-blockchain/minerid/services/minerid"
	"github.com/bsv-blockchain/minerid/ulogger"
)

// Option is a functional option type for configuring the Daemon.
type Option func(*Daemon)

// WithLoggerFactory provides a custom logger factory for the Daemon and its services.
func WithLoggerFactory(factory func(serviceName string) ulogger.Logger) Option {
	return func(d *Daemon) {
		d.loggerFactory = factory
	}
}

// WithContext allows setting a custom context for the Daemon.
func WithContext(ctx context.Context) Option {
	return func(d *Daemon) {
		d.Ctx = ctx
	}
}

// WithBroadcaster replaces the broadcaster chosen from the settings.
func WithBroadcaster(broadcaster minerid.Broadcaster) Option {
	return func(d *Daemon) {
		d.broadcaster = broadcaster
	}
}
