package routing

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type RouteClass string

const (
	RouteClassUI          RouteClass = "ui"
	RouteClassInternalAPI RouteClass = "internal_api"
	RouteClassOps         RouteClass = "ops"
	RouteClassStatic      RouteClass = "static"
	RouteClassWebsocket   RouteClass = "websocket"
	RouteClassDevOnly     RouteClass = "dev_only"
)

// IsAPI reports whether responses for the class are JSON rather than HTML.
func (c RouteClass) IsAPI() bool {
	return c == RouteClassInternalAPI || c == RouteClassOps
}

var ErrAllowlistNotFound = errors.New("routing allowlist not found")

//go:embed allowlist.yaml
var defaultAllowlist []byte

type AllowlistRule struct {
	Prefix string     `yaml:"prefix"`
	Class  RouteClass `yaml:"class"`
}

type allowlistFile struct {
	Version     int                        `yaml:"version"`
	Entrypoints map[string][]AllowlistRule `yaml:"entrypoints"`
}

// LoadAllowlist reads rules for entrypoint from path. An empty path uses
// ROUTING_ALLOWLIST_PATH when set and the embedded allowlist otherwise.
func LoadAllowlist(path, entrypoint string) ([]AllowlistRule, error) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv("ROUTING_ALLOWLIST_PATH"))
	}
	raw := defaultAllowlist
	if path != "" {
		var err error
		raw, err = os.ReadFile(filepath.Clean(path))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrAllowlistNotFound, path)
			}
			return nil, err
		}
	}
	return parseAllowlist(raw, entrypoint)
}

// DefaultRules returns the embedded rules for entrypoint, or nil.
func DefaultRules(entrypoint string) []AllowlistRule {
	rules, err := parseAllowlist(defaultAllowlist, entrypoint)
	if err != nil {
		return nil
	}
	return rules
}

func parseAllowlist(raw []byte, entrypoint string) ([]AllowlistRule, error) {
	var file allowlistFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported allowlist version: %d", file.Version)
	}

	if strings.TrimSpace(entrypoint) == "" {
		entrypoint = "server"
	}
	rules, ok := file.Entrypoints[entrypoint]
	if !ok {
		return nil, fmt.Errorf("entrypoint %q not found in allowlist", entrypoint)
	}

	for i := range rules {
		rules[i].Prefix = strings.TrimSpace(rules[i].Prefix)
		if rules[i].Prefix == "" {
			return nil, fmt.Errorf("allowlist rule[%d]: empty prefix", i)
		}
		if !strings.HasPrefix(rules[i].Prefix, "/") {
			return nil, fmt.Errorf("allowlist rule[%d]: prefix must start with '/': %q", i, rules[i].Prefix)
		}
		switch rules[i].Class {
		case RouteClassUI,
			RouteClassInternalAPI,
			RouteClassOps,
			RouteClassStatic,
			RouteClassWebsocket,
			RouteClassDevOnly:
		default:
			return nil, fmt.Errorf("allowlist rule[%d]: unknown class: %q", i, rules[i].Class)
		}
	}

	return rules, nil
}
