package dispatch

import (
	"nonomi/internal/models"
	"nonomi/internal/structures"
	"strings"
)

// FallbackRuleKey names the rule used for absent and unknown actions.
const FallbackRuleKey = "default"

// Rule lists the side effects a record with a given action triggers.
// Widget and caption are not part of it: they are rendered for every record.
type Rule struct {
	PlayVoice      bool
	ShowWebSurface bool
	ShowTransfer   bool
	Chain          string
}

type Policy struct {
	rules    map[models.Action]Rule
	fallback Rule
}

func DefaultPolicy(injShowsWebSurface bool) *Policy {
	return &Policy{
		rules: map[models.Action]Rule{
			models.ActionPending: {PlayVoice: true},
			models.ActionRender:  {PlayVoice: true},
			models.ActionQR:      {PlayVoice: true, ShowWebSurface: true},
			models.ActionInj:     {PlayVoice: true, ShowWebSurface: injShowsWebSurface, ShowTransfer: true, Chain: string(models.ActionInj)},
		},
		fallback: Rule{PlayVoice: true},
	}
}

// NewPolicy starts from the default policy and replaces any rule named in
// dispatch.rules. The "default" key replaces the fallback rule.
func NewPolicy(conf *structures.Config) *Policy {
	p := DefaultPolicy(conf.Dispatch.InjShowsWebSurface)

	for name, rc := range conf.Dispatch.Rules {
		rule := Rule{
			PlayVoice:      rc.PlayVoice,
			ShowWebSurface: rc.ShowWebSurface,
			ShowTransfer:   rc.ShowTransfer,
			Chain:          rc.Chain,
		}
		if rule.ShowTransfer && rule.Chain == "" {
			rule.Chain = name
		}

		key := strings.ToLower(strings.TrimSpace(name))
		if key == FallbackRuleKey {
			p.fallback = rule
			continue
		}
		p.rules[models.Action(key)] = rule
	}

	return p
}

func (p *Policy) RuleFor(action models.Action) Rule {
	if rule, ok := p.rules[action]; ok {
		return rule
	}
	return p.fallback
}
