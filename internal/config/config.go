// Package config loads the gateway's listen address, port, and route table
// from built-in defaults, an optional TOML file, and CLI flags, in that
// increasing order of precedence (spec.md §6, SPEC_FULL.md §4.7).
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// GatewayConfig is the merged result consumed at startup. It is immutable
// once constructed.
type GatewayConfig struct {
	Listen string
	Port   uint16
	Routes []string // route specification lines, file-declared first
}

// Default returns the built-in defaults from spec.md §6.
func Default() *GatewayConfig {
	return &GatewayConfig{Listen: "127.0.0.1", Port: 8000}
}

// LoadOptions carries the CLI-side inputs to merge over a config file.
// CLIListen == "" and CLIPort == 0 mean "not set by the user": the file
// value (or default) applies instead.
type LoadOptions struct {
	FilePath  string
	CLIListen string
	CLIPort   uint16
	CLIRoutes []string
}

// Load builds a GatewayConfig per the precedence rule default < file < CLI,
// with CLIRoutes appended after (not replacing) any file-declared routes.
// It is a fatal error to end up with zero routes, per spec.md §7.
func Load(opts LoadOptions) (*GatewayConfig, error) {
	cfg := Default()

	if opts.FilePath != "" {
		if err := applyFile(cfg, opts.FilePath); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", opts.FilePath, err)
		}
	}

	if opts.CLIListen != "" {
		cfg.Listen = opts.CLIListen
	}
	if opts.CLIPort != 0 {
		cfg.Port = opts.CLIPort
	}
	cfg.Routes = append(cfg.Routes, opts.CLIRoutes...)

	if len(cfg.Routes) == 0 {
		return nil, fmt.Errorf("no routes configured: pass -f/--file or at least one positional route specification")
	}

	return cfg, nil
}

// applyFile reads and merges a TOML config file's listen/port/routes into
// cfg. Routes are parsed generically (rather than into a fixed struct)
// because the routes array mixes plain strings and {method,path,handler}
// tables, per spec.md §6.
func applyFile(cfg *GatewayConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing toml: %w", err)
	}

	if v, ok := raw["listen"]; ok {
		listen, ok := v.(string)
		if !ok {
			return fmt.Errorf("listen must be a string")
		}
		cfg.Listen = listen
	}

	if v, ok := raw["port"]; ok {
		port, err := toPort(v)
		if err != nil {
			return err
		}
		cfg.Port = port
	}

	if v, ok := raw["routes"]; ok {
		routes, err := normalizeRoutes(v)
		if err != nil {
			return err
		}
		cfg.Routes = append(cfg.Routes, routes...)
	}

	return nil
}

// normalizeRoutes turns the routes array into route specification strings.
// Object-form entries are normalised to "<METHOD>:<path> <handler>" before
// being handed to route.Parse, per spec.md §6.
func normalizeRoutes(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("routes must be an array")
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		switch entry := item.(type) {
		case string:
			out = append(out, entry)
		case map[string]any:
			spec, err := normalizeRouteObject(entry)
			if err != nil {
				return nil, err
			}
			out = append(out, spec)
		default:
			return nil, fmt.Errorf("route entries must be strings or {method, path, handler} tables")
		}
	}
	return out, nil
}

func normalizeRouteObject(entry map[string]any) (string, error) {
	method, _ := entry["method"].(string)
	path, _ := entry["path"].(string)
	handler, _ := entry["handler"].(string)
	if method == "" || path == "" || handler == "" {
		return "", fmt.Errorf("route table requires non-empty method, path, and handler")
	}
	return method + ":" + path + " " + handler, nil
}

// toPort accepts the integer types go-toml/v2 may produce for a bare
// numeric value and validates it fits in a uint16 port.
func toPort(v any) (uint16, error) {
	var n int64
	switch t := v.(type) {
	case int64:
		n = t
	case float64:
		n = int64(t)
	default:
		return 0, fmt.Errorf("port must be an integer")
	}
	if n < 0 || n > 65535 {
		return 0, fmt.Errorf("port %d out of range", n)
	}
	return uint16(n), nil
}
