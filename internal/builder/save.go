package builder

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// fileShape mirrors the subset of the config file format Save cares
// about; listen/port are preserved verbatim if already present.
type fileShape struct {
	Listen string   `toml:"listen,omitempty"`
	Port   int      `toml:"port,omitempty"`
	Routes []string `toml:"routes"`
}

// Save merges routes into the TOML config file at path, creating it with
// the built-in default listen address and port if it does not exist yet.
// Existing listen/port/routes are preserved; new routes are appended.
func Save(path string, routes []string) error {
	if len(routes) == 0 {
		return fmt.Errorf("no routes to save")
	}

	doc := fileShape{Listen: "127.0.0.1", Port: 8000}

	if existing, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(existing, &doc); err != nil {
			return fmt.Errorf("parsing existing %q: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading %q: %w", path, err)
	}

	doc.Routes = append(doc.Routes, routes...)

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding toml: %w", err)
	}

	return os.WriteFile(path, out, 0644)
}
