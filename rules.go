package meta

import "time"

// RuleContext carries the inputs an override rule can see: the key being
// resolved, where it matched, and the decorator options the gate is about to
// filter.
type RuleContext struct {
	Key         string
	ConcreteKey string
	Group       string
	Member      string
	TargetName  string
	Options     *DecoratorOptions
	Now         *time.Time
	Metadata    map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMetadata() RuleContext {
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// binding exposes the context as the flat variable set shared by every rule
// engine.
func (ctx RuleContext) binding() map[string]any {
	env := map[string]any{
		"key":      ctx.Key,
		"group":    ctx.Group,
		"member":   ctx.Member,
		"target":   ctx.TargetName,
		"metadata": ctx.Metadata,
		"attrs":    map[string]any{},
		"enabled":  nil,
	}
	if ctx.ConcreteKey != "" {
		env["concrete"] = ctx.ConcreteKey
	}
	if ctx.Options != nil {
		if len(ctx.Options.Attrs) > 0 {
			env["attrs"] = copyAttrs(ctx.Options.Attrs)
		}
		if ctx.Options.Enabled != nil {
			env["enabled"] = *ctx.Options.Enabled
		}
	}
	return env
}

// RuleEngine evaluates override rules against a rule context.
type RuleEngine interface {
	Evaluate(ctx RuleContext, rule string) (any, error)
	Compile(rule string) (CompiledRule, error)
}

// CompiledRule is a reusable rule program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// ProgramCache stores compiled rule programs keyed by rule text.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by the default rule engine.
func WithProgramCache(cache ProgramCache) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes custom functions to the default rule engine.
func WithFunctionRegistry(registry *FunctionRegistry) ResolverOption {
	return func(cfg *resolverConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func engineName(e RuleEngine) string {
	switch e.(type) {
	case *exprRuleEngine:
		return "expr"
	case *celRuleEngine:
		return "cel"
	default:
		if jsEngineName(e) != "" {
			return jsEngineName(e)
		}
		return "custom"
	}
}
