package meta

import "time"

// ResolveLogEvent describes one resolution attempt for logging.
type ResolveLogEvent struct {
	Key      string
	Group    string
	Target   string
	Member   string
	State    ResolutionState
	Duration time.Duration
	Err      error
}

// ResolveLogger records resolver events.
type ResolveLogger interface {
	LogResolve(ResolveLogEvent)
}

// ResolveLoggerFunc adapts a function to ResolveLogger.
type ResolveLoggerFunc func(ResolveLogEvent)

// LogResolve implements ResolveLogger.
func (f ResolveLoggerFunc) LogResolve(event ResolveLogEvent) {
	if f != nil {
		f(event)
	}
}

// WithResolveLogger attaches a logger to the resolver.
func WithResolveLogger(logger ResolveLogger) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.logger = logger
	}
}
