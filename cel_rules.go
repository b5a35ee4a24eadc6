package meta

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELRuleEngineOption configures the CEL rule engine.
type CELRuleEngineOption func(*celRuleEngine)

// CELWithProgramCache wires a ProgramCache into the CEL engine.
func CELWithProgramCache(cache ProgramCache) CELRuleEngineOption {
	return func(e *celRuleEngine) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL engine.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELRuleEngineOption {
	return func(e *celRuleEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celRuleEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELRuleEngine constructs a RuleEngine backed by cel-go.
func NewCELRuleEngine(opts ...CELRuleEngineOption) RuleEngine {
	e := &celRuleEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celRuleEngine) Evaluate(ctx RuleContext, rule string) (any, error) {
	if rule == "" {
		return nil, wrapRuleError("cel", rule, ctx.Key, fmt.Errorf("rule must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMetadata()
	program, err := e.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, wrapRuleError("cel", rule, ctx.Key, err)
	}
	return out.Value(), nil
}

func (e *celRuleEngine) Compile(rule string) (CompiledRule, error) {
	if rule == "" {
		return nil, wrapRuleError("cel", rule, "", fmt.Errorf("rule must not be empty"))
	}
	return &celCompiledRule{engine: e, rule: rule}, nil
}

func (e *celRuleEngine) loadOrCompile(rule string) (*celProgram, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(rule); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, wrapRuleError("cel", rule, "", err)
	}
	ast, issues := env.Parse(rule)
	if issues != nil && issues.Err() != nil {
		return nil, wrapRuleError("cel", rule, "", issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, wrapRuleError("cel", rule, "", issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, wrapRuleError("cel", rule, "", err)
	}

	bundle := &celProgram{env: env, program: prg}
	if e.cache != nil {
		e.cache.Set(rule, bundle)
	}
	return bundle, nil
}

func (e *celRuleEngine) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("key", celgo.StringType),
		celgo.Variable("concrete", celgo.StringType),
		celgo.Variable("group", celgo.StringType),
		celgo.Variable("member", celgo.StringType),
		celgo.Variable("target", celgo.StringType),
		celgo.Variable("enabled", celgo.DynType),
		celgo.Variable("attrs", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("now", celgo.TimestampType),
	}
	if e.registry != nil {
		binding := celgo.FunctionBinding(e.callBinding())
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				binding,
			),
			celgo.Overload("call_string_dyn",
				[]*celgo.Type{celgo.StringType, celgo.DynType},
				celgo.DynType,
				binding,
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celRuleEngine) activation(ctx RuleContext) map[string]any {
	activation := ctx.binding()
	if activation["concrete"] == nil {
		activation["concrete"] = ""
	}
	if activation["enabled"] == nil {
		activation["enabled"] = types.NullValue
	}
	activation["now"] = ctx.timestamp()
	if e.registry != nil {
		activation["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	}
	return activation
}

type celCompiledRule struct {
	engine *celRuleEngine
	rule   string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.engine == nil {
		return nil, wrapRuleError("cel", r.rule, ctx.Key, fmt.Errorf("compiled rule missing engine"))
	}
	return r.engine.Evaluate(ctx, r.rule)
}

func (e *celRuleEngine) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("meta: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("meta: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("meta: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.WrapErr(err)
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
