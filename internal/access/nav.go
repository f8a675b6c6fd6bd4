package access

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed nav.yaml
var navYAML []byte

// NavConfig is the sidebar definition.
type NavConfig struct {
	Titles struct {
		Admin string `yaml:"admin"`
		User  string `yaml:"user"`
	} `yaml:"titles"`
	Items []NavItem `yaml:"items"`
}

// NavItem is one sidebar entry; entries with children render as a group.
type NavItem struct {
	Label      string     `yaml:"label"`
	Short      string     `yaml:"short"`
	Path       string     `yaml:"path"`
	Capability Capability `yaml:"capability"`
	Unless     Capability `yaml:"unless"`
	Children   []NavItem  `yaml:"children"`
	Active     bool       `yaml:"-"`
}

// Nav is the sidebar as rendered for one session.
type Nav struct {
	Title string
	Items []NavItem
}

func loadNav() (*NavConfig, error) {
	var cfg NavConfig
	if err := yaml.Unmarshal(navYAML, &cfg); err != nil {
		return nil, fmt.Errorf("access: nav: %w", err)
	}
	return &cfg, nil
}

// Nav filters the sidebar down to what p may open and marks the entry for currentPath.
func (g *Guard) Nav(p Permissions, currentPath string) Nav {
	nav := Nav{Title: g.nav.Titles.User}
	if p.Can(HomeAdmin) {
		nav.Title = g.nav.Titles.Admin
	}
	nav.Items = filterNav(g.nav.Items, p, currentPath)
	return nav
}

func filterNav(items []NavItem, p Permissions, currentPath string) []NavItem {
	out := make([]NavItem, 0, len(items))
	for _, item := range items {
		if item.Capability != "" && !p.Can(item.Capability) {
			continue
		}
		if item.Unless != "" && p.Can(item.Unless) {
			continue
		}
		if len(item.Children) > 0 {
			item.Children = filterNav(item.Children, p, currentPath)
			if len(item.Children) == 0 {
				continue
			}
			for _, child := range item.Children {
				item.Active = item.Active || child.Active
			}
		}
		if item.Path != "" {
			item.Active = currentPath == item.Path || strings.HasPrefix(currentPath, item.Path+"/")
		}
		out = append(out, item)
	}
	return out
}
