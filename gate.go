package meta

import "strings"

// gate applies the enable/disable override table to a located decorator and
// performs the final visibility filter. Stored options are never mutated: an
// override writes to a clone.
func (r *Resolver) gate(logicalKey, concreteKey, group string, options *DecoratorOptions, ok bool, ctx Context) (Resolution, error) {
	if !ok {
		return Resolution{State: ResolutionMissing}, nil
	}

	// An explicitly cleared decorator skips the gate and is never visible.
	if options != nil {
		override, matched := matchOverride(logicalKey, ctx.Overrides())
		if matched {
			enabled, apply, err := r.overrideValue(logicalKey, concreteKey, group, options, override)
			if err != nil {
				return Resolution{}, err
			}
			if apply {
				options = options.Clone()
				options.Enabled = &enabled
			}
		}
	}

	if options.IsEnabled() {
		return Resolution{State: ResolutionFound, Options: options.Clone(), Key: concreteKey, Group: group}, nil
	}
	return Resolution{State: ResolutionFiltered, Key: concreteKey, Group: group}, nil
}

// matchOverride returns the first table entry whose fragment matches
// logicalKey, in declaration order. Namespaced keys match on ":"+fragment so
// the fragment is compared against key segments rather than the group name;
// plain keys match on their leading characters.
func matchOverride(logicalKey string, overrides []Override) (Override, bool) {
	namespaced := IsConcreteKey(logicalKey)
	for _, override := range overrides {
		if override.Fragment == "" {
			continue
		}
		if namespaced {
			if strings.Contains(logicalKey, ":"+override.Fragment) {
				return override, true
			}
			continue
		}
		if strings.HasPrefix(logicalKey, override.Fragment) {
			return override, true
		}
	}
	return Override{}, false
}

func (r *Resolver) overrideValue(logicalKey, concreteKey, group string, options *DecoratorOptions, override Override) (enabled, apply bool, err error) {
	if override.Enabled != nil {
		return *override.Enabled, true, nil
	}
	if override.Rule == "" {
		return false, false, nil
	}

	engine := r.ruleEngine()
	ruleCtx := RuleContext{
		Key:         logicalKey,
		ConcreteKey: concreteKey,
		Group:       group,
		Options:     options,
	}
	value, evalErr := engine.Evaluate(ruleCtx, override.Rule)
	if evalErr != nil {
		return false, false, wrapRuleError(engineName(engine), override.Rule, logicalKey, evalErr)
	}
	result, isBool := value.(bool)
	if !isBool {
		return false, false, &RuleError{
			Engine: engineName(engine),
			Rule:   override.Rule,
			Key:    logicalKey,
			Err:    errRuleNotBoolean,
		}
	}
	return result, true, nil
}

func (r *Resolver) ruleEngine() RuleEngine {
	if r.cfg.engine != nil {
		return r.cfg.engine
	}
	var exprOpts []ExprRuleEngineOption
	if r.cfg.cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(r.cfg.cache))
	}
	if r.cfg.registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(r.cfg.registry))
	}
	// Not memoized: keeps Resolver free of mutable state under concurrent use.
	return NewExprRuleEngine(exprOpts...)
}
