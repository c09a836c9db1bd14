// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sidedoc/internal/sidebar"
)

// SiteConfig holds the configuration from the site.yaml file.
type SiteConfig struct {
	Title       string        `yaml:"title"`
	Author      string        `yaml:"author"`
	BaseURL     string        `yaml:"baseurl"`
	Description string        `yaml:"description"`
	Template    string        `yaml:"template"`
	Sidebar     SidebarConfig `yaml:"sidebar"`
}

// SidebarConfig controls how `sidebar_current` marks navigation entries.
type SidebarConfig struct {
	// Match is "first" (default) or "any".
	Match string `yaml:"match"`
	Class string `yaml:"class"`
}

// LoadSiteConfig reads and validates a site.yaml file.
func LoadSiteConfig(path string) (SiteConfig, error) {
	cfg := SiteConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	if _, err := cfg.SidebarHelper(); err != nil {
		return SiteConfig{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// SidebarHelper builds the helper described by the sidebar block.
func (c SiteConfig) SidebarHelper() (sidebar.Helper, error) {
	mode, err := sidebar.ParseMode(strings.TrimSpace(c.Sidebar.Match))
	if err != nil {
		return sidebar.Helper{}, err
	}

	class := strings.TrimSpace(c.Sidebar.Class)
	if class == "" {
		class = sidebar.DefaultClass
	}
	if strings.ContainsAny(class, " \t\r\n\"'<>&=") {
		return sidebar.Helper{}, fmt.Errorf("sidebar class %q must be a single CSS class name", class)
	}

	return sidebar.Helper{Mode: mode, Class: class}, nil
}
