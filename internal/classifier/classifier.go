package classifier

import (
	"strings"

	"github.com/funnelstack/funnel-probe/internal/models"
)

// Rule maps keyword evidence in an observation to a Finding template.
// A rule fires when every term in Match.All is present, at least one term in
// Match.Any is present (when Any is non-empty), and no term in Match.None is
// present. Matching is case-insensitive substring matching over the
// serialized observation text.
type Rule struct {
	ID             string                 `yaml:"id"`
	Category       models.FindingCategory `yaml:"category"`
	Title          string                 `yaml:"title"`
	Description    string                 `yaml:"description"`
	Recommendation string                 `yaml:"recommendation"`
	Match          RuleMatch              `yaml:"match"`
}

// RuleMatch defines the keyword predicate for a rule.
type RuleMatch struct {
	All  []string `yaml:"all"`
	Any  []string `yaml:"any"`
	None []string `yaml:"none"`
}

// RuleSet is an ordered, stage-specific rule table.
type RuleSet struct {
	Stage string
	Rules []Rule
}

const evidenceLimit = 240

// Classify evaluates the rule set against an observation. It is a pure
// function of its inputs: the same text and rules always produce the same
// findings in the same order.
func Classify(observation string, set RuleSet) []models.Finding {
	text := strings.ToLower(observation)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	findings := make([]models.Finding, 0)
	for _, rule := range set.Rules {
		if !rule.matches(text) {
			continue
		}
		findings = append(findings, models.Finding{
			ID:             rule.ID,
			Category:       rule.Category,
			Title:          rule.Title,
			Description:    rule.Description,
			Evidence:       Snippet(observation, evidenceLimit),
			Recommendation: rule.Recommendation,
		})
	}
	return findings
}

func (r Rule) matches(text string) bool {
	for _, term := range r.Match.All {
		if term == "" {
			continue
		}
		if !strings.Contains(text, strings.ToLower(term)) {
			return false
		}
	}
	if len(r.Match.Any) > 0 {
		matched := false
		for _, term := range r.Match.Any {
			if term != "" && strings.Contains(text, strings.ToLower(term)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, term := range r.Match.None {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// Snippet truncates raw observation text for use as finding evidence.
func Snippet(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	if limit <= 0 || len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit] + "..."
}
