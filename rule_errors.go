package meta

import (
	"errors"
	"fmt"
)

var errRuleNotBoolean = errors.New("override rule must evaluate to a boolean")

// RuleError captures rule-engine metadata alongside the originating error.
type RuleError struct {
	Engine string
	Rule   string
	Key    string
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("meta: %s engine %s key=%s: %v", e.Engine, describeRule(e.Rule), e.Key, e.Err)
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeRule(rule string) string {
	if rule == "" {
		return "rule=<empty>"
	}
	return fmt.Sprintf("rule=%q", rule)
}

func wrapRuleError(engine, rule, key string, err error) error {
	if err == nil {
		return nil
	}

	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		if ruleErr.Engine == "" {
			ruleErr.Engine = engine
		}
		if ruleErr.Rule == "" {
			ruleErr.Rule = rule
		}
		if ruleErr.Key == "" {
			ruleErr.Key = key
		}
		return ruleErr
	}

	return &RuleError{
		Engine: engine,
		Rule:   rule,
		Key:    key,
		Err:    err,
	}
}
