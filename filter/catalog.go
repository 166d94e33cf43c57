// Package filter provides named color-grading filters backed by .cube
// lookup tables.
//
// A Library reads a YAML catalog naming the available filters, parses
// their tables off the caller's goroutine and keeps recently used tables
// in memory:
//
//	lib, err := filter.Open(os.DirFS("assets/luts"), "filters.yaml")
//	editor := darkroom.NewEditor(p, darkroom.WithFilters(lib))
//	editor.ApplyFilter("koto", nil)
package filter

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the decoded filters.yaml file.
//
//	cache_size: 8
//	workers: 2
//	filters:
//	  - id: koto
//	    name: Koto
//	    file: luts/Koto.cube
//	  - id: taipei
type Catalog struct {
	Filters   []Entry `yaml:"filters"`
	CacheSize int     `yaml:"cache_size"`
	Workers   int     `yaml:"workers"`
}

// Entry describes one filter.
type Entry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"` // display name, defaults to ID
	File string `yaml:"file"` // path inside the library FS, defaults to ID + ".cube"
}

// Defaults applied to zero catalog fields.
const (
	DefaultCacheSize = 8
	DefaultWorkers   = 2
)

// ParseCatalog decodes a YAML catalog and applies defaults. Filters without
// an ID and duplicate IDs are rejected.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("filter: read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("filter: decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Filters))
	for i, f := range c.Filters {
		id := strings.TrimSpace(f.ID)
		if id == "" {
			return fmt.Errorf("filter: catalog entry %d has no id", i)
		}
		if seen[id] {
			return fmt.Errorf("filter: duplicate id %q", id)
		}
		seen[id] = true
	}
	return nil
}

func (c *Catalog) applyDefaults() {
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	for i := range c.Filters {
		f := &c.Filters[i]
		f.ID = strings.TrimSpace(f.ID)
		if f.Name == "" {
			f.Name = f.ID
		}
		if f.File == "" {
			f.File = f.ID + ".cube"
		}
	}
}
