// Package sites loads the YAML site descriptors that tell the crawler where
// to look and how to read each vendor's pages.
package sites

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Selectors carries optional CSS selector hints for a site.
type Selectors struct {
	ProductLink string `yaml:"product_link"`
}

// Site describes one vendor: where to crawl and the vendor-specific
// extraction hints.
type Site struct {
	Name            string            `yaml:"name"`
	AllowDomains    []string          `yaml:"allow_domains"`
	SeedProductURLs []string          `yaml:"seed_product_urls"`
	StartURLs       []string          `yaml:"start_urls"`
	Selectors       Selectors         `yaml:"selectors"`
	DefaultSpecies  string            `yaml:"default_species"`
	Region          string            `yaml:"region"`
	SpeciesAliases  map[string]string `yaml:"species_aliases"`
	DisallowSpecies []string          `yaml:"disallow_species"`
}

// SpeciesDisallowed reports whether the vendor is known to mislabel the
// given species and no canonical replacement exists.
func (s Site) SpeciesDisallowed(common string) bool {
	for _, d := range s.DisallowSpecies {
		if d == common {
			return true
		}
	}
	return false
}

type file struct {
	Sites []Site `yaml:"sites"`
}

// Load reads the site list from path. A missing or unreadable file degrades
// to an empty list so a scheduled run still produces a digest.
func Load(path string, logger *zap.Logger) []Site {
	list, err := load(path)
	if err != nil {
		logger.Warn("site config unavailable; continuing with no sites",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	return list
}

func load(path string) ([]Site, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sites yaml: %w", err)
	}
	return f.Sites, nil
}

// Validate checks each descriptor for the fields the crawler requires.
func Validate(list []Site) []error {
	var errs []error
	for i, s := range list {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("site %d: name is required", i))
		}
		if len(s.SeedProductURLs) == 0 && len(s.StartURLs) == 0 {
			errs = append(errs, fmt.Errorf("site %q: needs seed_product_urls or start_urls", s.Name))
		}
		for alias, canonical := range s.SpeciesAliases {
			if alias == "" || canonical == "" {
				errs = append(errs, fmt.Errorf("site %q: empty species alias mapping", s.Name))
			}
		}
	}
	return errs
}
