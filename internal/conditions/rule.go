package conditions

import (
	"fmt"

	"github.com/google/uuid"
)

// ElementQuery is the query capability rules narrow.
type ElementQuery interface {
	// RelatedTo restricts results to elements related to any of ids.
	RelatedTo(ids []int)
}

// Rule is one condition rule applied to an element query.
type Rule interface {
	Type() string
	DisplayName() string
	UID() string
	ModifyQuery(q ElementQuery)
	Config() map[string]any
}

// BaseRule carries the identity shared by every rule.
type BaseRule struct {
	uid string
}

func newBaseRule(uid string) BaseRule {
	if uid == "" {
		uid = uuid.NewString()
	}
	return BaseRule{uid: uid}
}

func (b BaseRule) UID() string { return b.uid }

func (b BaseRule) config(ruleType string) map[string]any {
	return map[string]any{
		"class": ruleType,
		"uid":   b.uid,
	}
}

// RuleFromConfig rebuilds a rule from its Config() output.
func RuleFromConfig(cfg map[string]any) (Rule, error) {
	class, _ := cfg["class"].(string)
	uid, _ := cfg["uid"].(string)

	switch class {
	case TypeRelatedTo:
		r := newRelatedToRule(uid)
		r.SetElementIDs(cfg["elementIds"])
		return r, nil
	default:
		return nil, fmt.Errorf("unknown condition rule class: %q", class)
	}
}

// Condition is an ordered set of rules applied together.
type Condition struct {
	Rules []Rule
}

// ModifyQuery applies every rule in order.
func (c *Condition) ModifyQuery(q ElementQuery) {
	for _, r := range c.Rules {
		r.ModifyQuery(q)
	}
}

// Config returns the condition with each rule's config.
func (c *Condition) Config() map[string]any {
	rules := make([]any, 0, len(c.Rules))
	for _, r := range c.Rules {
		rules = append(rules, r.Config())
	}
	return map[string]any{
		"class":          "entryCondition",
		"conditionRules": rules,
	}
}

// ConditionFromConfig rebuilds a condition and its rules.
func ConditionFromConfig(cfg map[string]any) (*Condition, error) {
	c := &Condition{}
	raw, _ := cfg["conditionRules"].([]any)
	for i, item := range raw {
		ruleCfg, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("condition rule %d: expected an object", i)
		}
		r, err := RuleFromConfig(ruleCfg)
		if err != nil {
			return nil, fmt.Errorf("condition rule %d: %w", i, err)
		}
		c.Rules = append(c.Rules, r)
	}
	return c, nil
}
