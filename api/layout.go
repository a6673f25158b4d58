package api

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed layout.yaml
var defaultLayout []byte

// Layout is the configured order of menu categories and their endpoints.
type Layout struct {
	Categories []CategoryLayout `yaml:"categories"`
}

type CategoryLayout struct {
	Name      string   `yaml:"name"`
	Endpoints []string `yaml:"endpoints"`
}

// Names returns the category names in order.
func (l *Layout) Names() []string {
	names := make([]string, 0, len(l.Categories))
	for _, c := range l.Categories {
		names = append(names, c.Name)
	}
	return names
}

// DefaultLayout returns the built-in layout.
func DefaultLayout() *Layout {
	l, err := ParseLayout(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("embedded layout: %v", err))
	}
	return l
}

// LoadLayout reads a layout file, or returns the built-in one when path is empty.
func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(data)
}

func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if len(l.Categories) == 0 {
		return nil, errors.New("layout has no categories")
	}

	seenCategory := make(map[string]bool)
	seenEndpoint := make(map[string]bool)
	for _, c := range l.Categories {
		if c.Name == "" {
			return nil, errors.New("layout category without a name")
		}
		if seenCategory[c.Name] {
			return nil, fmt.Errorf("layout category %s listed twice", c.Name)
		}
		seenCategory[c.Name] = true
		for _, e := range c.Endpoints {
			if seenEndpoint[e] {
				return nil, fmt.Errorf("layout endpoint %s listed twice", e)
			}
			seenEndpoint[e] = true
		}
	}
	return &l, nil
}
