package apps

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// overrideFile is the on-disk shape of a user's app override config:
//
//	work:
//	  - youtube   # watches conference talks
//	distraction:
//	  - slack
//	neutral:
//	  - reddit
type overrideFile struct {
	Work        []string `yaml:"work"`
	Distraction []string `yaml:"distraction"`
	Neutral     []string `yaml:"neutral"`
}

// LoadOverrides reads a per-user override file. A missing path returns an
// empty map, not an error: overrides are optional.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("reading app overrides: %w", err)
	}
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing app overrides: %w", err)
	}

	ov := Overrides{}
	for _, app := range f.Work {
		ov[Normalize(app)] = ClassWork
	}
	for _, app := range f.Distraction {
		ov[Normalize(app)] = ClassDistraction
	}
	for _, app := range f.Neutral {
		ov[Normalize(app)] = ClassNeutral
	}
	return ov, nil
}
