package meta

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprRuleEngineOption configures an expr rule engine instance.
type ExprRuleEngineOption func(*exprRuleEngine)

// ExprWithProgramCache wires a ProgramCache into the expr engine.
func ExprWithProgramCache(cache ProgramCache) ExprRuleEngineOption {
	return func(e *exprRuleEngine) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr engine.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprRuleEngineOption {
	return func(e *exprRuleEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprRuleEngine runs override rules using github.com/expr-lang/expr.
type exprRuleEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprRuleEngine constructs a RuleEngine backed by expr-lang/expr. It is
// the engine the resolver defaults to when none is configured.
func NewExprRuleEngine(opts ...ExprRuleEngineOption) RuleEngine {
	e := &exprRuleEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate compiles and runs rule against the context bindings.
func (e *exprRuleEngine) Evaluate(ctx RuleContext, rule string) (any, error) {
	if rule == "" {
		return nil, wrapRuleError("expr", rule, ctx.Key, fmt.Errorf("rule must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMetadata()
	env := e.environment(ctx)
	if e.cache == nil {
		result, err := exprlang.Eval(rule, env)
		if err != nil {
			return nil, wrapRuleError("expr", rule, ctx.Key, err)
		}
		return result, nil
	}
	program, err := e.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapRuleError("expr", rule, ctx.Key, err)
	}
	return result, nil
}

// Compile returns a reusable program for rule.
func (e *exprRuleEngine) Compile(rule string) (CompiledRule, error) {
	if rule == "" {
		return nil, wrapRuleError("expr", rule, "", fmt.Errorf("rule must not be empty"))
	}
	program, err := e.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{engine: e, program: program, rule: rule}, nil
}

func (e *exprRuleEngine) loadOrCompile(rule string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(rule); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			fn := name
			options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			}))
		}
	}
	program, err := exprlang.Compile(rule, options...)
	if err != nil {
		return nil, wrapRuleError("expr", rule, "", err)
	}
	if e.cache != nil {
		e.cache.Set(rule, program)
	}
	return program, nil
}

func (e *exprRuleEngine) environment(ctx RuleContext) map[string]any {
	env := ctx.binding()
	env["now"] = ctx.timestamp()
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
		for _, name := range e.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

type exprCompiledRule struct {
	engine  *exprRuleEngine
	program *exprvm.Program
	rule    string
}

func (r *exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.engine == nil {
		return nil, wrapRuleError("expr", r.rule, ctx.Key, fmt.Errorf("compiled rule missing engine"))
	}
	ctx = ctx.withDefaultNow().withDefaultMetadata()
	if r.program == nil {
		return r.engine.Evaluate(ctx, r.rule)
	}
	result, err := exprlang.Run(r.program, r.engine.environment(ctx))
	if err != nil {
		return nil, wrapRuleError("expr", r.rule, ctx.Key, err)
	}
	return result, nil
}
