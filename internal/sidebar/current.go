// internal/sidebar/current.go
package sidebar

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Current holds the sidebar identifiers a page declares in its front matter
// under `sidebar_current`. A missing key leaves it empty.
type Current []string

// UnmarshalYAML accepts either a single string or a list of strings.
func (c *Current) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" {
			*c = nil
			return nil
		}
		var s string
		if err := value.Decode(&s); err != nil {
			return fmt.Errorf("sidebar_current: %w", err)
		}
		*c = Current{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("sidebar_current: %w", err)
		}
		*c = Current(list)
		return nil
	default:
		return fmt.Errorf("sidebar_current: expected a string or a list of strings at line %d", value.Line)
	}
}
