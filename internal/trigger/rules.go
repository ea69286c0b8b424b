// Package trigger evaluates user prompts against configured skill rules and
// prepends advisory blocks for the ones that match.
package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/raido/internal/models"
)

// ruleEntry mirrors one value in skill-rules.json.
type ruleEntry struct {
	PromptTriggers struct {
		Keywords       []string `json:"keywords"`
		IntentPatterns []string `json:"intentPatterns"`
	} `json:"promptTriggers"`
}

// LoadRules reads skill-rules.json and returns rules in configuration order.
// A missing file is a valid inert state and yields (nil, nil). A file that
// fails to parse yields (nil, err); callers log and continue with zero rules.
func LoadRules(path string) ([]models.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("trigger: read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes a rule-set document, preserving key order so that
// evaluation output stays deterministic across runs.
func ParseRules(data []byte) ([]models.Rule, error) {
	doc := orderedmap.New[string, ruleEntry]()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("trigger: parse rules: %w", err)
	}

	var rules []models.Rule
	for pair := doc.Oldest(); pair != nil; pair = pair.Next() {
		rules = append(rules, models.Rule{
			Name:           pair.Key,
			Keywords:       pair.Value.PromptTriggers.Keywords,
			IntentPatterns: pair.Value.PromptTriggers.IntentPatterns,
		})
	}
	return rules, nil
}

// MarshalRules renders rules back into the skill-rules.json shape,
// preserving order. Used by `rules import`.
func MarshalRules(rules []models.Rule) ([]byte, error) {
	doc := orderedmap.New[string, ruleEntry]()
	for _, r := range rules {
		var e ruleEntry
		e.PromptTriggers.Keywords = r.Keywords
		e.PromptTriggers.IntentPatterns = r.IntentPatterns
		doc.Set(r.Name, e)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("trigger: marshal rules: %w", err)
	}
	return data, nil
}
