package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Required fields and positive ceilings
//   - Duplicate channel names
//   - Follower channels that reference a missing channel or lack a rate
func Validate(cfg *AppConfig) error {
	var errs []string
	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if cfg.Engine.WatchdogSeconds < 0 {
		errs = append(errs, "engine.watchdog_seconds must not be negative")
	}
	if cfg.Engine.FailureBudget < 0 {
		errs = append(errs, "engine.failure_budget must not be negative")
	}

	names := make(map[string]bool, len(cfg.Hardware.Channels))
	for i, ch := range cfg.Hardware.Channels {
		if ch.Name == "" {
			errs = append(errs, fmt.Sprintf("hardware.channels[%d]: name is required", i))
			continue
		}
		if names[ch.Name] {
			errs = append(errs, fmt.Sprintf("duplicate channel name %q", ch.Name))
		}
		names[ch.Name] = true
	}
	for _, ch := range cfg.Hardware.Channels {
		if ch.Follows == "" {
			continue
		}
		if !names[ch.Follows] {
			errs = append(errs, fmt.Sprintf("channel %q follows unknown channel %q", ch.Name, ch.Follows))
		}
		if ch.Rate <= 0 {
			errs = append(errs, fmt.Sprintf("channel %q follows %q but has no positive rate", ch.Name, ch.Follows))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
