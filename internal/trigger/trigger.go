package trigger

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/raido/internal/models"
)

// compiledRule is a rule prepared for evaluation: keywords lowered once,
// intent patterns compiled case-insensitively with malformed ones dropped.
type compiledRule struct {
	name     string
	keywords []string
	patterns []*regexp.Regexp
}

// Matcher is a stateless prompt evaluator over a fixed rule set.
type Matcher struct {
	rules  []compiledRule
	logger *slog.Logger
}

// NewMatcher compiles the given rules. A pattern that fails to compile is
// skipped with a warning; the rest of that rule and all other rules remain
// in effect.
func NewMatcher(rules []models.Rule, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{name: r.Name}
		for _, k := range r.Keywords {
			cr.keywords = append(cr.keywords, strings.ToLower(k))
		}
		for _, p := range r.IntentPatterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				logger.Warn("trigger: invalid intent pattern",
					slog.String("rule", r.Name),
					slog.String("pattern", p),
					slog.String("error", err.Error()))
				continue
			}
			cr.patterns = append(cr.patterns, re)
		}
		compiled = append(compiled, cr)
	}
	return &Matcher{rules: compiled, logger: logger}
}

// RuleCount returns the number of loaded rules.
func (m *Matcher) RuleCount() int {
	return len(m.rules)
}

// RuleNames returns the rule names in configuration order.
func (m *Matcher) RuleNames() []string {
	names := make([]string, 0, len(m.rules))
	for _, r := range m.rules {
		names = append(names, r.name)
	}
	return names
}

// Evaluate checks prompt against every rule in configuration order. A rule
// activates when any keyword is a case-insensitive substring of the prompt
// or any intent pattern matches anywhere in it. With no activations the
// prompt comes back unchanged, byte for byte.
func (m *Matcher) Evaluate(prompt string) models.Activation {
	if len(m.rules) == 0 {
		return models.Activation{Prompt: prompt}
	}

	lower := strings.ToLower(prompt)
	var activated []string
	for _, r := range m.rules {
		if r.matches(prompt, lower) {
			activated = append(activated, r.name)
		}
	}
	if len(activated) == 0 {
		return models.Activation{Prompt: prompt}
	}

	return models.Activation{
		Rules:  activated,
		Prompt: advisory(activated) + "\n\n" + prompt,
	}
}

func (r *compiledRule) matches(prompt, lowerPrompt string) bool {
	for _, k := range r.keywords {
		if strings.Contains(lowerPrompt, k) {
			return true
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(prompt) {
			return true
		}
	}
	return false
}

// advisory renders the block prepended to the prompt. The prompt itself is
// never modified, only prefixed.
func advisory(names []string) string {
	var b strings.Builder
	b.WriteString("[skill reminders]\n")
	b.WriteString("These configured skills may apply to this request:\n")
	for _, n := range names {
		fmt.Fprintf(&b, "  - %s\n", n)
	}
	return strings.TrimRight(b.String(), "\n")
}
