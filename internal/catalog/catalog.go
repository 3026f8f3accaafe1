// Package catalog loads the event template pool and host pool from the
// YAML seed file. The catalog is read once at startup and never mutated;
// template order is significant because the generator rotates through it.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/weekly-events/internal/schedule"
)

// ErrUnavailable indicates the seed data is missing or corrupt. Callers
// treat this as a fatal startup error; templates are never regenerated.
var ErrUnavailable = errors.New("catalog: seed data unavailable")

const defaultCapacity = 10

// defaultHosts is used when the seed file does not define its own pool.
var defaultHosts = []string{
	"Anna Pavlova",
	"Mark Johnson",
	"Sofia Lee",
	"Daniel Brown",
	"Eva Turner",
	"Noah Martin",
	"Olivia Clark",
	"Liam Walker",
}

// Catalog is the fixed template and host pool backing schedule generation.
type Catalog struct {
	Templates []schedule.Template
	Hosts     []string
}

type seedFile struct {
	Hosts     []string       `yaml:"hosts"`
	Templates []seedTemplate `yaml:"templates"`
}

type seedTemplate struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Time     string `yaml:"time"`
	Duration string `yaml:"duration"`
	Capacity int    `yaml:"capacity"`
}

// Load reads the seed file at path. Templates keep their file order;
// entries without an id are assigned one from their position, and a
// missing or non-positive capacity defaults to 10.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	templates := make([]schedule.Template, 0, len(seed.Templates))
	for i, item := range seed.Templates {
		id := item.ID
		if id == "" {
			id = fmt.Sprintf("template-%d", i)
		}
		capacity := item.Capacity
		if capacity <= 0 {
			capacity = defaultCapacity
		}
		templates = append(templates, schedule.Template{
			ID:       id,
			Name:     item.Name,
			Time:     item.Time,
			Duration: item.Duration,
			Capacity: capacity,
		})
	}

	hosts := seed.Hosts
	if len(hosts) == 0 {
		hosts = append([]string(nil), defaultHosts...)
	}

	return Catalog{Templates: templates, Hosts: hosts}, nil
}
