package mdo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Airfoil is the section data of an airfoil.
type Airfoil struct {
	Name       string  `yaml:"-"`
	Reynolds   float64 `yaml:"reynolds"`
	CLAlpha    float64 `yaml:"cl_alpha"` // per degree
	CL0        float64 `yaml:"cl_0"`
	CM0        float64 `yaml:"cm_0"`
	CLMax      float64 `yaml:"cl_max"`
	AlphaCLMax float64 `yaml:"alpha_cl_max"` // deg
	Path       string  `yaml:"-"`            // coordinates file
}

type airfoilInfo struct {
	Summary *Airfoil `yaml:"summary"`
}

// AirfoilCatalog is a read-only lookup table of airfoils by name.
type AirfoilCatalog map[string]Airfoil

// Lookup returns the airfoil of that name.
func (c AirfoilCatalog) Lookup(name string) (Airfoil, error) {
	af, ok := c[name]
	if !ok {
		return Airfoil{}, fmt.Errorf("airfoil `%s` not in catalog", name)
	}
	return af, nil
}

// Names returns the sorted names of the catalog.
func (c AirfoilCatalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadAirfoil reads <base>/<name>/info.yaml and checks that <base>/<name>/geometry.dat exists.
func LoadAirfoil(base, name string) (Airfoil, error) {
	dir := filepath.Join(base, name)
	data, err := os.ReadFile(filepath.Join(dir, "info.yaml"))
	if err != nil {
		return Airfoil{}, fmt.Errorf("airfoil `%s`: %w", name, err)
	}
	var info airfoilInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return Airfoil{}, fmt.Errorf("airfoil `%s`: %w", name, err)
	}
	if info.Summary == nil {
		return Airfoil{}, fmt.Errorf("airfoil `%s`: info.yaml has no summary", name)
	}
	af := *info.Summary
	if af.CLMax <= 0 {
		return Airfoil{}, fmt.Errorf("airfoil `%s`: cl_max must be positive", name)
	}
	af.Name = name
	af.Path = filepath.Join(dir, "geometry.dat")
	if _, err := os.Stat(af.Path); err != nil {
		return Airfoil{}, fmt.Errorf("airfoil `%s`: %w", name, err)
	}
	return af, nil
}

// LoadAirfoilCatalog loads every airfoil directory under base. Airfoils which cannot be loaded
// are skipped and reported in the returned error, along with the rest of the catalog.
func LoadAirfoilCatalog(base string) (AirfoilCatalog, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	catalog := make(AirfoilCatalog)
	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		af, err := LoadAirfoil(base, entry.Name())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		catalog[af.Name] = af
	}
	return catalog, errors.Join(errs...)
}

// BuiltinAirfoils returns the airfoils available without a catalog directory.
func BuiltinAirfoils() AirfoilCatalog {
	return AirfoilCatalog{
		"high-lift": {Name: "high-lift", Reynolds: 300000, CLAlpha: 0.105, CL0: 0.45, CM0: -0.10, CLMax: 1.9, AlphaCLMax: 14},
		"naca0012":  {Name: "naca0012", Reynolds: 150000, CLAlpha: 0.10, CL0: 0, CM0: 0, CLMax: 1.2, AlphaCLMax: 12},
	}
}
