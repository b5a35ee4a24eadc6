package meta

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-metadata/pkg/hook"
)

// DefaultMaxDepth bounds the inheritance walk. Host prototype chains are
// assumed acyclic; the bound keeps a violated assumption from hanging the
// resolver.
const DefaultMaxDepth = 64

// Resolver locates effective decorator options for a logical key against a
// target type, honoring context groups, the inheritance chain, and the
// enable/disable gate. A Resolver holds no per-call state: concurrent Resolve
// calls over a quiescent Store are safe.
type Resolver struct {
	store Store
	cfg   resolverConfig
}

// ResolverOption configures resolver construction.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	maxDepth int
	logger   ResolveLogger
	hooks    hook.Hooks
	engine   RuleEngine
	cache    ProgramCache
	registry *FunctionRegistry
}

// WithMaxDepth overrides the inheritance walk bound. Values below one are
// ignored.
func WithMaxDepth(depth int) ResolverOption {
	return func(cfg *resolverConfig) {
		if depth > 0 {
			cfg.maxDepth = depth
		}
	}
}

// WithRuleEngine configures the engine that evaluates expression-valued
// overrides. Without it the resolver lazily falls back to the expr engine.
func WithRuleEngine(engine RuleEngine) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.engine = engine
	}
}

// WithHooks attaches resolution hooks. Nil entries are dropped.
func WithHooks(hooks hook.Hooks) ResolverOption {
	normalized := cloneHooks(hooks)
	return func(cfg *resolverConfig) {
		cfg.hooks = normalized
	}
}

// NewResolver constructs a Resolver over the supplied store.
func NewResolver(store Store, opts ...ResolverOption) (*Resolver, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	cfg := resolverConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Resolver{store: store, cfg: cfg}, nil
}

// Resolve returns the effective decorator options for logicalKey on target.
// Candidate groups are the context's active groups followed by
// DefaultContextGroup; the first hit wins and is then filtered through the
// enable/disable gate. An already-namespaced logicalKey skips group expansion
// and performs a single lookup.
func (r *Resolver) Resolve(logicalKey string, target Target, ctx Context) (Resolution, error) {
	return r.resolve(logicalKey, target, "", ctx, nil)
}

// ResolveMember resolves decorator options scoped to a property or accessor.
// Member-level metadata does not inherit: the ancestor walk is skipped.
func (r *Resolver) ResolveMember(logicalKey string, target Target, member string, ctx Context) (Resolution, error) {
	return r.resolve(logicalKey, target, member, ctx, nil)
}

// ResolveWithTrace behaves like Resolve while recording one attempt per
// candidate concrete key for diagnostics.
func (r *Resolver) ResolveWithTrace(logicalKey string, target Target, ctx Context) (Resolution, Trace, error) {
	trace := newTrace(logicalKey)
	resolution, err := r.resolve(logicalKey, target, "", ctx, &trace)
	return resolution, trace, err
}

// ResolveAll returns one gated resolution per candidate group instead of
// stopping at the first hit, preserving group order. Callers that want a
// merged profile can fold the results with MergeDecoratorOptions.
func (r *Resolver) ResolveAll(logicalKey string, target Target, ctx Context) ([]Resolution, error) {
	if IsConcreteKey(logicalKey) {
		resolution, err := r.resolve(logicalKey, target, "", ctx, nil)
		if err != nil {
			return nil, err
		}
		return []Resolution{resolution}, nil
	}

	groups := append(ctx.Groups(), DefaultContextGroup)
	resolutions := make([]Resolution, 0, len(groups))
	for _, group := range groups {
		key, err := BuildKey(logicalKey, WithContextGroup(group))
		if err != nil {
			return nil, err
		}
		options, ok := r.lookup(key, target, "", ctx, nil)
		resolution, err := r.gate(logicalKey, key, group, options, ok, ctx)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, resolution)
	}
	return resolutions, nil
}

// Lookup is the inheritance-walking primitive behind Resolve: a raw lookup of
// one concrete key with no group expansion and no gate. The second return
// distinguishes a hit (possibly carrying nil, explicitly cleared options)
// from no decorator at all.
func (r *Resolver) Lookup(concreteKey string, target Target, member string, ctx Context) (*DecoratorOptions, bool) {
	return r.lookup(concreteKey, target, member, ctx, nil)
}

func (r *Resolver) resolve(logicalKey string, target Target, member string, ctx Context, trace *Trace) (Resolution, error) {
	start := time.Now()
	resolution, err := r.locate(logicalKey, target, member, ctx, trace)
	r.emit(logicalKey, target, member, resolution, time.Since(start), err)
	return resolution, err
}

func (r *Resolver) locate(logicalKey string, target Target, member string, ctx Context, trace *Trace) (Resolution, error) {
	if IsConcreteKey(logicalKey) {
		options, ok := r.lookup(logicalKey, target, member, ctx, trace)
		return r.gate(logicalKey, logicalKey, "", options, ok, ctx)
	}

	groups := append(ctx.Groups(), DefaultContextGroup)
	for _, group := range groups {
		key, err := BuildKey(logicalKey, WithContextGroup(group))
		if err != nil {
			return Resolution{}, err
		}
		if options, ok := r.lookup(key, target, member, ctx, trace); ok {
			return r.gate(logicalKey, key, group, options, ok, ctx)
		}
	}
	return Resolution{State: ResolutionMissing}, nil
}

func (r *Resolver) lookup(key string, target Target, member string, ctx Context, trace *Trace) (*DecoratorOptions, bool) {
	if options, ok := r.store.Get(key, target, member); ok {
		trace.record(Attempt{ConcreteKey: key, Source: AttemptSourceStore, TargetName: r.store.Identity(target), Found: true})
		return options, true
	}
	trace.record(Attempt{ConcreteKey: key, Source: AttemptSourceStore, TargetName: r.store.Identity(target)})

	// Member-level metadata never inherits, and without an internal
	// decorator map there is nothing left to consult.
	if member != "" || len(ctx.decorators) == 0 {
		return nil, false
	}

	current := target
	for depth := 0; depth < r.cfg.maxDepth; depth++ {
		if r.store.Identity(current) == "" {
			break
		}
		if decorators, ok := ctx.DecoratorsFor(current); ok {
			if options, present := decorators[key]; present {
				trace.record(Attempt{
					ConcreteKey: key,
					Source:      AttemptSourceInternal,
					TargetName:  r.store.Identity(current),
					Depth:       depth,
					Found:       true,
				})
				return options, true
			}
		}
		parent, ok := r.store.ParentOf(current)
		if !ok {
			break
		}
		current = parent
	}
	trace.record(Attempt{ConcreteKey: key, Source: AttemptSourceInternal})
	return nil, false
}

func (r *Resolver) emit(logicalKey string, target Target, member string, resolution Resolution, duration time.Duration, err error) {
	var hookErr error
	if r.cfg.hooks.Enabled() {
		hookErr = r.cfg.hooks.Notify(context.Background(), hook.Event{
			Verb:        verbForState(resolution.State),
			Key:         logicalKey,
			ConcreteKey: resolution.Key,
			Group:       resolution.Group,
			TargetName:  r.store.Identity(target),
			Member:      member,
			OccurredAt:  time.Now(),
		})
	}
	if r.cfg.logger == nil {
		return
	}
	// Hook failures never fail the resolution, so they ride the log event to
	// stay visible.
	r.cfg.logger.LogResolve(ResolveLogEvent{
		Key:      logicalKey,
		Group:    resolution.Group,
		Target:   r.store.Identity(target),
		Member:   member,
		State:    resolution.State,
		Duration: duration,
		Err:      errors.Join(err, hookErr),
	})
}

func verbForState(state ResolutionState) string {
	switch state {
	case ResolutionFound:
		return hook.VerbResolved
	case ResolutionFiltered:
		return hook.VerbFiltered
	default:
		return hook.VerbMissing
	}
}

func cloneHooks(hooks hook.Hooks) hook.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make(hook.Hooks, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			normalized = append(normalized, h)
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}
