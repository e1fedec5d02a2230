package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ScenarioInfo describes one dataset the tools can run by name.
type ScenarioInfo struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	// DataFile is a JSON file or CSV directory, relative to the catalog file. Empty for built-ins.
	DataFile string `yaml:"data_file,omitempty" json:"data_file,omitempty"`
	Year     string `yaml:"year" json:"year"`
	Builtin  bool   `yaml:"-" json:"builtin"`
}

// Catalog is a named set of scenarios.
type Catalog struct {
	Scenarios []ScenarioInfo `yaml:"scenarios"`
	dir       string
}

var sampleDescriptions = map[string]string{
	SampleSingleCarrier: "one region, one hourly carrier, one primary asset, four representative hours",
	SampleHeatPump:      "one region, electricity and heat, a heat pump with COP 3",
	SampleNordic:        "three regions with transmission, battery storage, weekly heat and yearly gas",
}

// BuiltinCatalog lists the samples shipped with the binary.
func BuiltinCatalog() *Catalog {
	c := &Catalog{}
	for _, n := range SampleNames() {
		c.Scenarios = append(c.Scenarios, ScenarioInfo{
			Name:        n,
			Description: sampleDescriptions[n],
			Year:        SampleYear,
			Builtin:     true,
		})
	}
	return c
}

// LoadCatalog reads a YAML catalog and appends the built-in samples not shadowed by it.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	c.dir = filepath.Dir(path)

	seen := make(map[string]bool)
	for _, s := range c.Scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("catalog %s: scenario without a name", path)
		}
		if s.DataFile == "" {
			return nil, fmt.Errorf("catalog %s: scenario %s has no data_file", path, s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("catalog %s: duplicate scenario %s", path, s.Name)
		}
		seen[s.Name] = true
	}
	for _, s := range BuiltinCatalog().Scenarios {
		if !seen[s.Name] {
			c.Scenarios = append(c.Scenarios, s)
		}
	}
	sort.Slice(c.Scenarios, func(i, j int) bool { return c.Scenarios[i].Name < c.Scenarios[j].Name })
	return &c, nil
}

// Lookup finds a scenario by name.
func (c *Catalog) Lookup(name string) (ScenarioInfo, bool) {
	for _, s := range c.Scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return ScenarioInfo{}, false
}

// Open loads the dataset of a named scenario.
func (c *Catalog) Open(name string) (Dataset, ScenarioInfo, error) {
	s, ok := c.Lookup(name)
	if !ok {
		return nil, ScenarioInfo{}, fmt.Errorf("unknown scenario %q", name)
	}
	if s.Builtin {
		ds, err := Sample(s.Name)
		return ds, s, err
	}
	path := s.DataFile
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	ds, err := Load(path)
	return ds, s, err
}
