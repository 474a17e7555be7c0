// Package recipe holds the stored form of operator-authored recipes and
// the on-disk library they are loaded from. The engine itself only ever
// sees the parsed Step slice; the YAML format lives here.
package recipe

// Step is the persisted form of one recipe step.
type Step struct {
	Type   string         `yaml:"type" json:"type"`
	Params map[string]any `yaml:"params" json:"params,omitempty"`
}

// Recipe is one recipe file.
type Recipe struct {
	Version string `yaml:"version" json:"version"`
	Name    string `yaml:"name" json:"name"`
	Steps   []Step `yaml:"steps" json:"steps"`
}
