// internal/builder/models.go
package builder

import (
	"html/template"

	"sidedoc/internal/config"
	"sidedoc/internal/sidebar"
)

// PageMeta holds metadata from front matter. Keys without a dedicated field
// end up in Params.
type PageMeta struct {
	Title          string          `yaml:"title"`
	Author         string          `yaml:"author"`
	Draft          bool            `yaml:"draft"`
	Description    string          `yaml:"description"`
	SidebarCurrent sidebar.Current `yaml:"sidebar_current"`
	EditML         bool            `yaml:"editml"`
	Params         map[string]any  `yaml:",inline"`
}

// PageData is the struct passed to templates.
type PageData struct {
	Content        template.HTML
	Title          string
	BaseHref       string
	Author         string
	Description    string
	Site           config.SiteConfig
	SidebarCurrent sidebar.Current
	Params         map[string]any
}
