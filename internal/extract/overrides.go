package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StrategyOverride patches a single named strategy of a built-in profile.
// Empty fields leave the built-in value untouched.
type StrategyOverride struct {
	Selector     string `yaml:"selector"`
	Attribute    string `yaml:"attribute"`
	LabelPattern string `yaml:"label_pattern"`
	Script       string `yaml:"script"`
}

// ProfileOverride patches one platform profile.
type ProfileOverride struct {
	URLTemplate string                      `yaml:"url_template"`
	Strategies  map[string]StrategyOverride `yaml:"strategies"`
}

// Overrides is the content of a profile override file: platform name to
// patch. Profile markup changes often enough that selector fixes should
// not require a rebuild.
type Overrides map[string]ProfileOverride

// LoadOverrides reads a YAML override file. A missing path returns empty
// overrides; a malformed file is an error.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return Overrides{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("reading profile overrides: %w", err)
	}

	var overrides Overrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing profile overrides: %w", err)
	}
	return overrides, nil
}

// Apply patches the given profiles in place and returns them. Platforms or
// strategy names not present in the profiles are ignored.
func (o Overrides) Apply(profiles map[string]*Profile) map[string]*Profile {
	for platform, override := range o {
		profile, ok := profiles[platform]
		if !ok {
			continue
		}

		if override.URLTemplate != "" {
			profile.URLTemplate = override.URLTemplate
		}

		for i := range profile.Strategies {
			strategy := &profile.Strategies[i]
			patch, ok := override.Strategies[strategy.Name]
			if !ok {
				continue
			}
			if patch.Selector != "" {
				strategy.Selector = patch.Selector
			}
			if patch.Attribute != "" {
				strategy.Attribute = patch.Attribute
			}
			if patch.LabelPattern != "" {
				strategy.LabelPattern = patch.LabelPattern
				strategy.labelRe = nil
			}
			if patch.Script != "" {
				strategy.Script = patch.Script
			}
		}
	}
	return profiles
}
