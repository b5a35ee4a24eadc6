//go:build !js_rules

package meta

// NewJSRuleEngine is unavailable without the js_rules build tag.
func NewJSRuleEngine(opts ...JSRuleEngineOption) RuleEngine {
	_ = applyJSRuleEngineOptions(opts)
	return nil
}

func jsRuleEngineAvailable() bool {
	return false
}

func jsEngineName(RuleEngine) string {
	return ""
}
