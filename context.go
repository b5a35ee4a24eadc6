package meta

// Context carries the call-scoped resolution inputs: the ordered active
// context groups, the internal decorator map for targets registered outside
// the store, and the ordered enable/disable override table. A Context is
// immutable after construction; all inputs are copied in and all accessors
// copy out.
type Context struct {
	groups     []string
	decorators map[Target]Decorators
	overrides  []Override
}

// Override gates a family of decorators whose logical key contains Fragment.
// Exactly one of Enabled or Rule should be set: Enabled forces the flag to a
// literal, Rule defers to the resolver's rule engine and must evaluate to a
// boolean.
type Override struct {
	Fragment string
	Enabled  *bool
	Rule     string
}

// ContextOption configures Context construction.
type ContextOption func(*Context)

// WithGroups declares the active context groups in priority order. The
// default group does not need to be listed; resolution always appends it as
// the final fallback.
func WithGroups(groups ...string) ContextOption {
	return func(ctx *Context) {
		ctx.groups = append(ctx.groups, groups...)
	}
}

// WithDecorators registers the internal decorator map entry for target. The
// mapping is copied so later caller mutations do not leak into the context.
func WithDecorators(target Target, decorators Decorators) ContextOption {
	return func(ctx *Context) {
		if target == nil || len(decorators) == 0 {
			return
		}
		if ctx.decorators == nil {
			ctx.decorators = make(map[Target]Decorators)
		}
		ctx.decorators[target] = decorators.clone()
	}
}

// WithOverride appends a literal enable/disable override for decorators whose
// logical key matches fragment. Overrides are consulted in declaration order
// and the first match wins.
func WithOverride(fragment string, enabled bool) ContextOption {
	return func(ctx *Context) {
		value := enabled
		ctx.overrides = append(ctx.overrides, Override{Fragment: fragment, Enabled: &value})
	}
}

// WithOverrideRule appends an expression-valued override. The rule runs on
// the resolver's rule engine with the located decorator bound into its
// environment.
func WithOverrideRule(fragment, rule string) ContextOption {
	return func(ctx *Context) {
		if rule == "" {
			return
		}
		ctx.overrides = append(ctx.overrides, Override{Fragment: fragment, Rule: rule})
	}
}

// NewContext builds an immutable resolution context.
func NewContext(opts ...ContextOption) Context {
	ctx := Context{}
	for _, opt := range opts {
		if opt != nil {
			opt(&ctx)
		}
	}
	return ctx
}

// Groups returns a defensive copy of the active group list.
func (c Context) Groups() []string {
	if len(c.groups) == 0 {
		return nil
	}
	return append([]string(nil), c.groups...)
}

// DecoratorsFor returns the internal decorator entry registered for target,
// or nil when none exists. The second return distinguishes "no entry" from an
// empty entry.
func (c Context) DecoratorsFor(target Target) (Decorators, bool) {
	if c.decorators == nil || target == nil {
		return nil, false
	}
	decorators, ok := c.decorators[target]
	return decorators, ok
}

// Overrides returns the enable/disable table in declaration order.
func (c Context) Overrides() []Override {
	if len(c.overrides) == 0 {
		return nil
	}
	return append([]Override(nil), c.overrides...)
}

// Merge layers other on top of c: other's groups come first (stronger
// priority), its decorator entries and overrides win on overlap. Neither
// input is modified. This mirrors how a child serializer context refines its
// parent's configuration.
func (c Context) Merge(other Context) Context {
	merged := Context{}

	merged.groups = append(merged.groups, other.groups...)
	for _, group := range c.groups {
		if !containsString(merged.groups, group) {
			merged.groups = append(merged.groups, group)
		}
	}

	if len(c.decorators) > 0 || len(other.decorators) > 0 {
		merged.decorators = make(map[Target]Decorators, len(c.decorators)+len(other.decorators))
		for target, decorators := range c.decorators {
			merged.decorators[target] = decorators.clone()
		}
		for target, decorators := range other.decorators {
			entry := merged.decorators[target]
			if entry == nil {
				merged.decorators[target] = decorators.clone()
				continue
			}
			for key, options := range decorators {
				entry[key] = options.Clone()
			}
		}
	}

	merged.overrides = append(merged.overrides, other.overrides...)
	for _, override := range c.overrides {
		if !containsFragment(merged.overrides, override.Fragment) {
			merged.overrides = append(merged.overrides, override)
		}
	}
	return merged
}

func containsString(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}

func containsFragment(overrides []Override, fragment string) bool {
	for _, override := range overrides {
		if override.Fragment == fragment {
			return true
		}
	}
	return false
}
