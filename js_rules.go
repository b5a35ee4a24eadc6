//go:build js_rules

package meta

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsRuleEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSRuleEngine constructs a RuleEngine backed by goja.
func NewJSRuleEngine(opts ...JSRuleEngineOption) RuleEngine {
	cfg := applyJSRuleEngineOptions(opts)
	return &jsRuleEngine{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (e *jsRuleEngine) Evaluate(ctx RuleContext, rule string) (any, error) {
	if rule == "" {
		return nil, wrapRuleError("js", rule, ctx.Key, fmt.Errorf("rule must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMetadata()
	if e.cache == nil {
		return e.run(ctx, rule, nil)
	}
	program, err := e.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, rule, program)
}

func (e *jsRuleEngine) Compile(rule string) (CompiledRule, error) {
	if rule == "" {
		return nil, wrapRuleError("js", rule, "", fmt.Errorf("rule must not be empty"))
	}
	program, err := e.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return &jsCompiledRule{engine: e, rule: rule, program: program}, nil
}

func (e *jsRuleEngine) loadOrCompile(rule string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(rule); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", e.wrapRule(rule), false)
	if err != nil {
		return nil, wrapRuleError("js", rule, "", err)
	}
	if e.cache != nil {
		e.cache.Set(rule, program)
	}
	return program, nil
}

func (e *jsRuleEngine) run(ctx RuleContext, rule string, program *goja.Program) (any, error) {
	vm := goja.New()
	e.injectContext(vm, ctx)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, wrapRuleError("js", rule, ctx.Key, err)
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(e.wrapRule(rule))
	if err != nil {
		return nil, wrapRuleError("js", rule, ctx.Key, err)
	}
	return value.Export(), nil
}

func (e *jsRuleEngine) injectContext(vm *goja.Runtime, ctx RuleContext) {
	for name, value := range ctx.binding() {
		vm.Set(name, value)
	}
	vm.Set("now", ctx.timestamp())
	if e.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		})
		for _, name := range e.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			})
		}
	}
}

func (e *jsRuleEngine) wrapRule(rule string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", rule)
}

type jsCompiledRule struct {
	engine  *jsRuleEngine
	rule    string
	program *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.engine == nil {
		return nil, wrapRuleError("js", r.rule, ctx.Key, fmt.Errorf("compiled rule missing engine"))
	}
	ctx = ctx.withDefaultNow().withDefaultMetadata()
	return r.engine.run(ctx, r.rule, r.program)
}

func jsRuleEngineAvailable() bool {
	return true
}

func jsEngineName(e RuleEngine) string {
	if _, ok := e.(*jsRuleEngine); ok {
		return "js"
	}
	return ""
}
