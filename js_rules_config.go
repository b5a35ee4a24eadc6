package meta

type jsRuleEngineConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSRuleEngineOption configures the JS rule engine.
type JSRuleEngineOption func(*jsRuleEngineConfig)

// JSWithProgramCache applies a ProgramCache to the JS engine.
func JSWithProgramCache(cache ProgramCache) JSRuleEngineOption {
	return func(cfg *jsRuleEngineConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS engine.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSRuleEngineOption {
	return func(cfg *jsRuleEngineConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSRuleEngineOptions(opts []JSRuleEngineOption) jsRuleEngineConfig {
	cfg := jsRuleEngineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
