package viewmodels

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/uxdiff"
)

const none = "—"

type Config struct {
	Module       string
	Layout       string
	Theme        string
	FlagsPreview string
	// JSON is the indented config document for the preview.
	JSON      string
	Fresh     bool
	ExpiresAt string
}

type Version struct {
	Number       int
	CreatedAt    string
	ActorID      string
	Active       bool
	Layout       string
	Theme        string
	FlagsPreview string
	Changes      []string
}

func orNone(s string) string {
	if s == "" {
		return none
	}
	return s
}

func layout(c backend.UXModuleConfig) string {
	if c.Layout == nil {
		return none
	}
	return string(*c.Layout)
}

func theme(c backend.UXModuleConfig) string {
	if c.Theme == nil {
		return none
	}
	return string(*c.Theme)
}

func NewConfig(cfg *backend.UXConfigResponse, fresh bool, expiresAt time.Time) *Config {
	if cfg == nil {
		return nil
	}
	raw, err := json.MarshalIndent(cfg.Config, "", "  ")
	if err != nil {
		raw = []byte("{}")
	}
	out := &Config{
		Module:       cfg.Module,
		Layout:       layout(cfg.Config),
		Theme:        theme(cfg.Config),
		FlagsPreview: orNone(uxdiff.FlagsPreview(cfg.Config.Flags)),
		JSON:         string(raw),
		Fresh:        fresh,
	}
	if !expiresAt.IsZero() {
		out.ExpiresAt = expiresAt.UTC().Format(time.RFC3339)
	}
	return out
}

func fieldChange(name string, d *backend.FieldDiff) string {
	from, to := none, none
	if d.From != nil {
		from = *d.From
	}
	if d.To != nil {
		to = *d.To
	}
	return fmt.Sprintf("%s: %s → %s", name, from, to)
}

// Changes summarizes a diff one line per change. A nil diff has no lines.
func Changes(d *backend.UXVersionDiff) []string {
	if d == nil {
		return nil
	}
	var out []string
	if d.Layout != nil {
		out = append(out, fieldChange("layout", d.Layout))
	}
	if d.Theme != nil {
		out = append(out, fieldChange("theme", d.Theme))
	}
	for _, k := range d.FlagsAdded {
		out = append(out, "+"+k)
	}
	for _, k := range d.FlagsRemoved {
		out = append(out, "-"+k)
	}
	for _, c := range d.FlagsChanged {
		out = append(out, fmt.Sprintf("%s: %t → %t", c.Key, c.From, c.To))
	}
	return out
}

func Versions(items []backend.UXConfigVersionItem) []Version {
	out := make([]Version, len(items))
	for i, item := range items {
		out[i] = Version{
			Number:       item.Version,
			CreatedAt:    orNone(item.CreatedAt),
			ActorID:      orNone(item.ActorID),
			Active:       item.IsActive,
			Layout:       layout(item.Config),
			Theme:        theme(item.Config),
			FlagsPreview: orNone(uxdiff.FlagsPreview(item.Config.Flags)),
			Changes:      Changes(item.Diff),
		}
	}
	return out
}
