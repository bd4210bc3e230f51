// Package catalog holds the static platform catalog: which sites to probe
// for a handle and how to judge the response. The catalog is loaded once at
// startup and is read-only during scans.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// Site describes one platform entry in the catalog.
type Site struct {
	Name             string   `json:"name" yaml:"name"`
	Category         string   `json:"category,omitempty" yaml:"category,omitempty"`
	URLTemplate      string   `json:"url" yaml:"url"`
	Rule             Rule     `json:"rule" yaml:"rule"`
	PositiveKeywords []string `json:"positive_keywords,omitempty" yaml:"positive_keywords,omitempty"`
	NegativeKeywords []string `json:"negative_keywords,omitempty" yaml:"negative_keywords,omitempty"`
	ExtractProfile   bool     `json:"extract_profile,omitempty" yaml:"extract_profile,omitempty"`
}

// ProbeTarget is one immutable probe task: a catalog entry with the handle
// substituted into its URL template.
type ProbeTarget struct {
	Site Site
	URL  string
}

// Catalog is the ordered list of platform entries for a scan.
type Catalog struct {
	sites []Site
}

// Sites returns a copy of the catalog entries in order. The catalog itself
// stays immutable after load.
func (c *Catalog) Sites() []Site {
	return slices.Clone(c.sites)
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.sites)
}

// Load reads a catalog file. The file maps category names to entry lists,
// mirroring the platform data file the UI consumes. YAML is used for .yaml
// and .yml extensions, JSON otherwise. An empty catalog is a hard error so
// the service never starts with nothing to probe.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var grouped map[string][]Site
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, &grouped)
	} else {
		err = json.Unmarshal(data, &grouped)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	return fromGrouped(grouped)
}

// Default returns the catalog embedded in the binary, so the tool works
// without an external data file.
func Default() *Catalog {
	var grouped map[string][]Site
	if err := yaml.Unmarshal(defaultCatalogYAML, &grouped); err != nil {
		// The embedded catalog is part of the build; a parse failure is a
		// programming error, not a runtime condition.
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	c, err := fromGrouped(grouped)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// FromSites builds a catalog from an explicit, already-ordered entry list.
func FromSites(sites []Site) (*Catalog, error) {
	for _, site := range sites {
		if err := validateSite(site); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", site.Name, err)
		}
	}
	if len(sites) == 0 {
		return nil, errors.New("catalog is empty")
	}
	return &Catalog{sites: sites}, nil
}

func fromGrouped(grouped map[string][]Site) (*Catalog, error) {
	categories := make([]string, 0, len(grouped))
	for category := range grouped {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var sites []Site
	for _, category := range categories {
		for _, site := range grouped[category] {
			site.Category = category
			if err := validateSite(site); err != nil {
				return nil, fmt.Errorf("catalog entry %q: %w", site.Name, err)
			}
			sites = append(sites, site)
		}
	}

	if len(sites) == 0 {
		return nil, errors.New("catalog is empty")
	}

	return &Catalog{sites: sites}, nil
}

func validateSite(site Site) error {
	if strings.TrimSpace(site.Name) == "" {
		return errors.New("name is required")
	}
	if !strings.Contains(site.URLTemplate, handlePlaceholder) {
		return fmt.Errorf("url template must contain %s", handlePlaceholder)
	}
	return site.Rule.Validate()
}

const handlePlaceholder = "{handle}"

// Targets expands the catalog into probe targets for the given handle.
// limit > 0 caps the number of entries, in catalog order.
func (c *Catalog) Targets(handle string, limit int) []ProbeTarget {
	sites := c.sites
	if limit > 0 && limit < len(sites) {
		sites = sites[:limit]
	}

	targets := make([]ProbeTarget, 0, len(sites))
	for _, site := range sites {
		targets = append(targets, ProbeTarget{
			Site: site,
			URL:  strings.ReplaceAll(site.URLTemplate, handlePlaceholder, handle),
		})
	}
	return targets
}

// ValidateHandle rejects handles that cannot form a probe URL. Scans fail
// fast on these before any probe is dispatched.
func ValidateHandle(handle string) error {
	if strings.TrimSpace(handle) == "" {
		return errors.New("handle must not be empty")
	}
	if strings.ContainsAny(handle, " \t\r\n/?#") {
		return fmt.Errorf("handle contains invalid characters: %q", handle)
	}
	return nil
}
