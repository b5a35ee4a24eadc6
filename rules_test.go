package meta

import (
	"errors"
	"sync"
	"testing"
)

type countingCache struct {
	mu     sync.Mutex
	values map[string]any
	hits   int
	misses int
}

func newCountingCache() *countingCache {
	return &countingCache{values: map[string]any{}}
}

func (c *countingCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return value, ok
}

func (c *countingCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

var ruleEngineFactories = []struct {
	name      string
	available func() bool
	new       func(cache ProgramCache, registry *FunctionRegistry) RuleEngine
}{
	{
		name:      "expr",
		available: func() bool { return true },
		new: func(cache ProgramCache, registry *FunctionRegistry) RuleEngine {
			opts := []ExprRuleEngineOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprRuleEngine(opts...)
		},
	},
	{
		name:      "cel",
		available: func() bool { return true },
		new: func(cache ProgramCache, registry *FunctionRegistry) RuleEngine {
			opts := []CELRuleEngineOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELRuleEngine(opts...)
		},
	},
	{
		name:      "js",
		available: jsRuleEngineAvailable,
		new: func(cache ProgramCache, registry *FunctionRegistry) RuleEngine {
			opts := []JSRuleEngineOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSRuleEngine(opts...)
		},
	},
}

func ruleTestContext() RuleContext {
	return RuleContext{
		Key:         "JsonProperty",
		ConcreteKey: "jackson:api:JsonProperty",
		Group:       "api",
		TargetName:  "User",
		Options: &DecoratorOptions{
			Enabled: boolPtr(true),
			Attrs:   map[string]any{"tier": "public"},
		},
	}
}

func TestRuleEnginesEvaluateBindings(t *testing.T) {
	cases := []struct {
		name string
		rule string
		want any
	}{
		{name: "group", rule: `group == "api"`, want: true},
		{name: "key", rule: `key == "JsonProperty"`, want: true},
		{name: "target", rule: `target == "User"`, want: true},
		{name: "enabled", rule: `enabled == true`, want: true},
		{name: "attrs", rule: `attrs.tier == "public"`, want: true},
	}

	for _, factory := range ruleEngineFactories {
		if !factory.available() {
			continue
		}
		t.Run(factory.name, func(t *testing.T) {
			engine := factory.new(nil, nil)
			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					value, err := engine.Evaluate(ruleTestContext(), tc.rule)
					if err != nil {
						t.Fatalf("evaluate %q: %v", tc.rule, err)
					}
					if value != tc.want {
						t.Fatalf("rule %q: expected %v, got %v", tc.rule, tc.want, value)
					}
				})
			}
		})
	}
}

func TestRuleEnginesRejectEmptyRule(t *testing.T) {
	for _, factory := range ruleEngineFactories {
		if !factory.available() {
			continue
		}
		t.Run(factory.name, func(t *testing.T) {
			engine := factory.new(nil, nil)
			if _, err := engine.Evaluate(ruleTestContext(), ""); err == nil {
				t.Fatalf("expected error for empty rule")
			}
			if _, err := engine.Compile(""); err == nil {
				t.Fatalf("expected error for empty compile")
			}
		})
	}
}

func TestRuleEnginesUseProgramCache(t *testing.T) {
	for _, factory := range ruleEngineFactories {
		if !factory.available() {
			continue
		}
		t.Run(factory.name, func(t *testing.T) {
			cache := newCountingCache()
			engine := factory.new(cache, nil)
			for i := 0; i < 3; i++ {
				value, err := engine.Evaluate(ruleTestContext(), `group == "api"`)
				if err != nil {
					t.Fatalf("evaluate: %v", err)
				}
				if value != true {
					t.Fatalf("expected true, got %v", value)
				}
			}
			if cache.hits < 2 {
				t.Fatalf("expected cached program reuse, hits=%d misses=%d", cache.hits, cache.misses)
			}
		})
	}
}

func TestCompiledRulesAreReusable(t *testing.T) {
	for _, factory := range ruleEngineFactories {
		if !factory.available() {
			continue
		}
		t.Run(factory.name, func(t *testing.T) {
			engine := factory.new(nil, nil)
			rule, err := engine.Compile(`group == "api"`)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			for i := 0; i < 2; i++ {
				value, err := rule.Evaluate(ruleTestContext())
				if err != nil {
					t.Fatalf("evaluate: %v", err)
				}
				if value != true {
					t.Fatalf("expected true, got %v", value)
				}
			}
		})
	}
}

func TestRuleEnginesCallRegistryFunctions(t *testing.T) {
	for _, factory := range ruleEngineFactories {
		if !factory.available() {
			continue
		}
		t.Run(factory.name, func(t *testing.T) {
			registry := NewFunctionRegistry()
			if err := registry.Register("tier", func(args ...any) (any, error) {
				return "public", nil
			}); err != nil {
				t.Fatalf("register: %v", err)
			}
			engine := factory.new(nil, registry)
			value, err := engine.Evaluate(ruleTestContext(), `call("tier") == "public"`)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if value != true {
				t.Fatalf("expected true, got %v", value)
			}
		})
	}
}

func TestCELCallOverloads(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("echo", func(args ...any) (any, error) {
		if len(args) == 0 {
			return "public", nil
		}
		return args[0], nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("fail", func(args ...any) (any, error) {
		return nil, errors.New("helper failed")
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	engine := NewCELRuleEngine(CELWithFunctionRegistry(registry))

	value, err := engine.Evaluate(ruleTestContext(), `call("echo") == "public"`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if value != true {
		t.Fatalf("expected true, got %v", value)
	}

	value, err = engine.Evaluate(ruleTestContext(), `call("echo", "gold") == "gold"`)
	if err != nil {
		t.Fatalf("evaluate with argument: %v", err)
	}
	if value != true {
		t.Fatalf("expected true, got %v", value)
	}

	_, err = engine.Evaluate(ruleTestContext(), `call("fail") == "x"`)
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected *RuleError for failing helper, got %v", err)
	}
}

func TestRuleErrorWrapping(t *testing.T) {
	base := errors.New("boom")
	err := wrapRuleError("expr", "x == 1", "JsonProperty", base)
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected *RuleError, got %T", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause")
	}
	if ruleErr.Engine != "expr" || ruleErr.Rule != "x == 1" || ruleErr.Key != "JsonProperty" {
		t.Fatalf("unexpected metadata: %+v", ruleErr)
	}

	// Re-wrapping keeps existing metadata and fills gaps only.
	rewrapped := wrapRuleError("cel", "other", "OtherKey", err)
	if !errors.As(rewrapped, &ruleErr) {
		t.Fatalf("expected *RuleError, got %T", rewrapped)
	}
	if ruleErr.Engine != "expr" || ruleErr.Rule != "x == 1" || ruleErr.Key != "JsonProperty" {
		t.Fatalf("expected original metadata to win: %+v", ruleErr)
	}

	if wrapRuleError("expr", "x", "k", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}
