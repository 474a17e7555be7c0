package config

// AppConfig is the top-level YAML structure.
type AppConfig struct {
	Version  string       `yaml:"version"`
	Server   ServerConf   `yaml:"server"`
	Engine   EngineConf   `yaml:"engine"`
	Hardware HardwareConf `yaml:"hardware"`
	Recipes  RecipesConf  `yaml:"recipes"`
}

// ServerConf holds the control API settings.
type ServerConf struct {
	Addr string `yaml:"addr"`
}

// EngineConf holds runner safety ceilings and wait-action defaults.
type EngineConf struct {
	// WatchdogSeconds bounds any single step, independent of the
	// action's own timeout.
	WatchdogSeconds int `yaml:"watchdog_seconds"`
	// AbortAckSeconds bounds how long the runner waits for a canceled
	// action to acknowledge.
	AbortAckSeconds int `yaml:"abort_ack_seconds"`
	// FailureBudget is the default consecutive poll-failure tolerance
	// for wait actions that do not set their own.
	FailureBudget int `yaml:"failure_budget"`
}

// HardwareConf describes the simulated rig.
type HardwareConf struct {
	Channels []ChannelConf `yaml:"channels"`
}

// ChannelConf is one simulated channel. A channel with Follows set
// ramps toward the followed channel's value at Rate units per second.
type ChannelConf struct {
	Name    string  `yaml:"name"`
	Initial float64 `yaml:"initial"`
	Follows string  `yaml:"follows,omitempty"`
	Rate    float64 `yaml:"rate,omitempty"`
}

// RecipesConf locates the recipe library.
type RecipesConf struct {
	Dir string `yaml:"dir"`
}
