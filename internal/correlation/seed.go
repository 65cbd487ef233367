package correlation

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Rules []seedRule `yaml:"rules"`
}

type seedRule struct {
	Name        string        `yaml:"name"`
	Keyword     string        `yaml:"keyword"`
	Threshold   int           `yaml:"threshold"`
	Window      time.Duration `yaml:"window"`
	Severity    string        `yaml:"severity"`
	Description string        `yaml:"description"`
}

// LoadSeedRules parses the optional rule seed file.
func LoadSeedRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	rules := make([]Rule, 0, len(sf.Rules))
	for _, sr := range sf.Rules {
		if sr.Window == 0 {
			sr.Window = 5 * time.Minute
		}
		rules = append(rules, Rule{
			Name:        sr.Name,
			Keyword:     sr.Keyword,
			Threshold:   sr.Threshold,
			Window:      sr.Window,
			Severity:    sr.Severity,
			Description: sr.Description,
		})
	}
	return rules, nil
}

// SeedRules inserts the file's rules when the rules table is empty, so a
// fresh deployment starts with a baseline and operator edits survive
// restarts. A missing file is not an error.
func SeedRules(ctx context.Context, store *Store, path string) error {
	rules, err := LoadSeedRules(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load seed rules: %w", err)
	}
	n, err := store.RuleCount(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for i := range rules {
		if err := store.CreateRule(ctx, &rules[i]); err != nil {
			return fmt.Errorf("seed rule %q: %w", rules[i].Name, err)
		}
	}
	return nil
}
