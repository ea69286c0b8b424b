// Package skillfile parses SKILL.md files so their metadata can be turned
// into trigger rules (`raido rules import`).
package skillfile

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/models"
)

// Skill holds the trigger-relevant metadata of one SKILL.md file.
type Skill struct {
	Name           string
	Description    string
	Keywords       []string
	IntentPatterns []string
}

type frontmatter struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Keywords       []string `yaml:"keywords"`
	IntentPatterns []string `yaml:"intent-patterns"`
}

// Rule converts the skill into a trigger rule. Skills without explicit
// keywords trigger on their own name.
func (s *Skill) Rule() models.Rule {
	keywords := s.Keywords
	if len(keywords) == 0 && s.Name != "" {
		keywords = []string{s.Name}
	}
	return models.Rule{
		Name:           s.Name,
		Keywords:       keywords,
		IntentPatterns: s.IntentPatterns,
	}
}

// Parse extracts frontmatter metadata from raw SKILL.md bytes. fallbackName
// is used when the frontmatter is absent, invalid, or carries no name
// (conventionally the skill's directory name).
func Parse(data []byte, fallbackName string) *Skill {
	fm := splitFrontmatter(data)
	s := &Skill{
		Name:           fm.Name,
		Description:    fm.Description,
		Keywords:       fm.Keywords,
		IntentPatterns: fm.IntentPatterns,
	}
	if s.Name == "" {
		s.Name = fallbackName
	}
	return s
}

// splitFrontmatter decodes the YAML block between leading --- delimiters.
// Missing or invalid frontmatter yields the zero value, never an error.
func splitFrontmatter(data []byte) frontmatter {
	const delim = "---"
	var fm frontmatter

	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm
	}

	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return frontmatter{}
	}
	return fm
}

// LoadDir scans dir for <skill>/SKILL.md files and returns the parsed
// skills sorted by directory traversal order. Unreadable files are skipped.
func LoadDir(dir string) ([]Skill, error) {
	var out []Skill
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != "SKILL.md" {
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return nil
		}
		fallback := filepath.Base(filepath.Dir(p))
		if fallback == "." || fallback == string(filepath.Separator) {
			fallback = strings.TrimSuffix(d.Name(), ".md")
		}
		out = append(out, *Parse(data, fallback))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
