package hook

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Verbs emitted by the resolver for each resolution outcome.
const (
	VerbResolved = "metadata.resolved"
	VerbFiltered = "metadata.filtered"
	VerbMissing  = "metadata.missing"
)

// Event describes one resolution outcome fanned out to hooks.
type Event struct {
	Verb        string
	Key         string
	ConcreteKey string
	Group       string
	TargetName  string
	Member      string
	Metadata    map[string]any
	OccurredAt  time.Time
}

// Hook receives normalized resolution events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any
// fail. It normalizes the event and short-circuits when required fields are
// missing.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb == "" || normalized.Key == "" {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones metadata, and ensures a timestamp
// is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.Key = strings.TrimSpace(event.Key)
	normalized.ConcreteKey = strings.TrimSpace(event.ConcreteKey)
	normalized.Group = strings.TrimSpace(event.Group)
	normalized.TargetName = strings.TrimSpace(event.TargetName)
	normalized.Member = strings.TrimSpace(event.Member)
	if len(event.Metadata) > 0 {
		metadata := make(map[string]any, len(event.Metadata))
		for key, value := range event.Metadata {
			metadata[key] = value
		}
		normalized.Metadata = metadata
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}
