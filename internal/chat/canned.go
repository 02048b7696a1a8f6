package chat

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns/canned.yaml
var cannedPatternsYAML []byte

type cannedEntry struct {
	ID       string   `yaml:"id"`
	Patterns []string `yaml:"patterns"`
	Reply    string   `yaml:"reply"`
}

type cannedFile struct {
	Responses []cannedEntry `yaml:"responses"`
}

// CannedResponder answers common questions from embedded patterns without
// calling an LLM.
type CannedResponder struct {
	entries []cannedEntry
}

// NewCannedResponder parses the embedded pattern file.
func NewCannedResponder() (*CannedResponder, error) {
	var file cannedFile
	if err := yaml.Unmarshal(cannedPatternsYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse canned patterns: %w", err)
	}
	if len(file.Responses) == 0 {
		return nil, fmt.Errorf("canned pattern file contains no responses")
	}

	// Normalize patterns once; questions are normalized the same way at
	// match time.
	for i := range file.Responses {
		for j, p := range file.Responses[i].Patterns {
			file.Responses[i].Patterns[j] = NormalizeQuestion(p)
		}
	}
	return &CannedResponder{entries: file.Responses}, nil
}

// Answer matches the question against the canned patterns. Returns false
// when no pattern matches.
func (c *CannedResponder) Answer(question string, roster RosterContext) (string, bool) {
	normalized := NormalizeQuestion(question)
	if normalized == "" {
		return "", false
	}

	for _, entry := range c.entries {
		for _, pattern := range entry.Patterns {
			if strings.Contains(normalized, pattern) {
				return c.render(entry.Reply, roster), true
			}
		}
	}
	return "", false
}

// render substitutes the placeholders a reply template may use.
func (c *CannedResponder) render(template string, roster RosterContext) string {
	names := "nobody yet"
	if len(roster.KnownNames) > 0 {
		names = strings.Join(roster.KnownNames, ", ")
	}

	newest := "nobody"
	if n := roster.Newest(); n != "" {
		newest = n
	}

	present := "nobody"
	if len(roster.Present) > 0 {
		parts := make([]string, 0, len(roster.Present))
		for _, p := range roster.Present {
			parts = append(parts, fmt.Sprintf("%s (%.0f%%)", p.Name, p.Confidence*100))
		}
		present = strings.Join(parts, ", ")
	}

	r := strings.NewReplacer(
		"{count}", strconv.Itoa(roster.KnownCount),
		"{names}", names,
		"{newest}", newest,
		"{present}", present,
	)
	return r.Replace(template)
}
