// Package policy evaluates retry rules for upstream HTTP attempts. Rules
// are govaluate expressions over per-attempt parameters, so the retry
// state machine (attempt 1 -> backoff -> attempt 2) lives in data rather
// than in duplicated request code, and the "exactly one retry, only on
// 429" invariant survives refactoring.
package policy

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// Decision is the outcome of evaluating the rules for one failed attempt.
type Decision struct {
	Retry bool   // whether the same request may be attempted again
	Rule  string // name of the rule that matched, empty when none did
}

// RuleConfig is one retry rule: when Expression evaluates true for an
// attempt's parameters, Retry is the decision. First match wins.
type RuleConfig struct {
	Name       string
	Expression string
	Retry      bool
}

type compiledRule struct {
	name  string
	expr  *govaluate.EvaluableExpression
	retry bool
}

// RetryPolicy holds compiled retry rules.
type RetryPolicy struct {
	rules []compiledRule
}

// DefaultRules returns the production rule set: retry exactly once, and
// only when the booking provider answers 429.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		{Name: "rate_limit_retry_once", Expression: "http_status == 429 && attempt < 2", Retry: true},
	}
}

// NewRetryPolicy compiles the given rules. An empty or nil slice yields a
// policy that never retries.
func NewRetryPolicy(rules []RuleConfig) (*RetryPolicy, error) {
	p := &RetryPolicy{}
	for _, rc := range rules {
		if rc.Expression == "" {
			return nil, fmt.Errorf("policy rule %q has an empty expression", rc.Name)
		}
		expr, err := govaluate.NewEvaluableExpression(rc.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %q: %w", rc.Name, err)
		}
		p.rules = append(p.rules, compiledRule{name: rc.Name, expr: expr, retry: rc.Retry})
	}
	return p, nil
}

// Evaluate runs the rules against one attempt's parameters. Rules whose
// expression errors or yields a non-boolean are skipped; no match means
// no retry.
func (p *RetryPolicy) Evaluate(params map[string]interface{}) Decision {
	for _, rule := range p.rules {
		out, err := rule.expr.Evaluate(params)
		if err != nil {
			continue
		}
		matched, ok := out.(bool)
		if !ok || !matched {
			continue
		}
		return Decision{Retry: rule.retry, Rule: rule.name}
	}
	return Decision{}
}
