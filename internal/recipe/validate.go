package recipe

import (
	"fmt"
	"strings"
)

// Validate checks the structural requirements every recipe file must
// meet before the engine will even attempt to resolve it. Action-level
// parameter checks happen later, through the registry.
func Validate(r *Recipe) error {
	var errs []string
	if r.Version == "" {
		errs = append(errs, "version is required")
	}
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if len(r.Steps) == 0 {
		errs = append(errs, "steps must not be empty")
	}
	for i, st := range r.Steps {
		if st.Type == "" {
			errs = append(errs, fmt.Sprintf("steps[%d]: type is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("recipe %q validation errors:\n  - %s", r.Name, strings.Join(errs, "\n  - "))
	}
	return nil
}
