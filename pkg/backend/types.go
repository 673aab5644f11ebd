package backend

import (
	"strings"
	"time"
)

type Locale string

const (
	LocaleEN Locale = "en"
	LocaleNL Locale = "nl"
)

func (l Locale) Valid() bool {
	return l == LocaleEN || l == LocaleNL
}

// Identity is the /me snapshot for one (organization, user) pair.
type Identity struct {
	OrganizationID    string         `json:"organization_id"`
	UserID            string         `json:"user_id"`
	Role              string         `json:"role"`
	Scopes            []string       `json:"scopes"`
	Language          *Locale        `json:"language"`
	DefaultLanguage   Locale         `json:"default_language"`
	EffectiveLanguage Locale         `json:"effective_language"`
	CorrelationID     string         `json:"correlation_id"`
	UX                map[string]any `json:"ux"`
	Features          map[string]any `json:"features"`
}

func (i *Identity) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type Layout string

const (
	LayoutDefault Layout = "default"
	LayoutCompact Layout = "compact"
	LayoutDense   Layout = "dense"
)

func (l Layout) Valid() bool {
	switch l {
	case LayoutDefault, LayoutCompact, LayoutDense:
		return true
	}
	return false
}

type Theme string

const (
	ThemeDark    Theme = "dark"
	ThemeLight   Theme = "light"
	ThemeDefense Theme = "defense"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeDark, ThemeLight, ThemeDefense:
		return true
	}
	return false
}

type UXModuleConfig struct {
	Layout *Layout         `json:"layout,omitempty"`
	Theme  *Theme          `json:"theme,omitempty"`
	Flags  map[string]bool `json:"flags,omitempty"`
}

type UXConfigResponse struct {
	Module string         `json:"module"`
	Config UXModuleConfig `json:"config"`
}

// Normalized drops layout and theme values outside the known sets and an
// empty flags map. A blank module falls back to requested.
func (r UXConfigResponse) Normalized(requested string) UXConfigResponse {
	out := UXConfigResponse{Module: r.Module}
	if strings.TrimSpace(out.Module) == "" {
		out.Module = requested
	}
	if r.Config.Layout != nil && r.Config.Layout.Valid() {
		l := *r.Config.Layout
		out.Config.Layout = &l
	}
	if r.Config.Theme != nil && r.Config.Theme.Valid() {
		t := *r.Config.Theme
		out.Config.Theme = &t
	}
	if len(r.Config.Flags) > 0 {
		out.Config.Flags = make(map[string]bool, len(r.Config.Flags))
		for k, v := range r.Config.Flags {
			out.Config.Flags[k] = v
		}
	}
	return out
}

// LayoutOr returns the configured layout or def.
func (c UXModuleConfig) LayoutOr(def Layout) Layout {
	if c.Layout == nil {
		return def
	}
	return *c.Layout
}

func (c UXModuleConfig) ThemeOr(def Theme) Theme {
	if c.Theme == nil {
		return def
	}
	return *c.Theme
}

func (c UXModuleConfig) Flag(name string) bool {
	return c.Flags[name]
}

type FieldDiff struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

type FlagChange struct {
	Key  string `json:"key"`
	From bool   `json:"from"`
	To   bool   `json:"to"`
}

type UXVersionDiff struct {
	Layout       *FieldDiff   `json:"layout,omitempty"`
	Theme        *FieldDiff   `json:"theme,omitempty"`
	FlagsAdded   []string     `json:"flags_added,omitempty"`
	FlagsRemoved []string     `json:"flags_removed,omitempty"`
	FlagsChanged []FlagChange `json:"flags_changed,omitempty"`
}

func (d *UXVersionDiff) Empty() bool {
	return d == nil || (d.Layout == nil && d.Theme == nil &&
		len(d.FlagsAdded) == 0 && len(d.FlagsRemoved) == 0 && len(d.FlagsChanged) == 0)
}

type UXConfigVersionItem struct {
	Version    int            `json:"version"`
	AuditLogID string         `json:"audit_log_id"`
	CreatedAt  string         `json:"created_at"`
	ActorID    string         `json:"actor_id"`
	Config     UXModuleConfig `json:"config"`
	IsActive   bool           `json:"is_active,omitempty"`
	Diff       *UXVersionDiff `json:"diff,omitempty"`
}

type PolicyConfig struct {
	OrganizationID           string  `json:"organization_id"`
	Require4EyesOnHire       bool    `json:"require_4eyes_on_hire"`
	Require4EyesOnUXRollback bool    `json:"require_4eyes_on_ux_rollback"`
	StageAgingSLADays        float64 `json:"stage_aging_sla_days"`
	CandidateRetentionDays   *int    `json:"candidate_retention_days"`
	AuditRetentionDays       *int    `json:"audit_retention_days"`
	CreatedAt                string  `json:"created_at"`
	UpdatedAt                string  `json:"updated_at"`
}

type WorkflowListItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type StageAgingItem struct {
	ApplicationID string  `json:"application_id"`
	WorkflowID    string  `json:"workflow_id"`
	CurrentStage  string  `json:"current_stage"`
	AgeSeconds    float64 `json:"age_seconds"`
}

type StageDurationSummaryItem struct {
	Stage                 string  `json:"stage"`
	Count                 float64 `json:"count"`
	AvgDurationSeconds    float64 `json:"avg_duration_seconds"`
	MedianDurationSeconds float64 `json:"median_duration_seconds"`
	P90DurationSeconds    float64 `json:"p90_duration_seconds"`
}

type StageDurationBreakdownItem struct {
	Stage         string  `json:"stage"`
	Count         float64 `json:"count"`
	MedianSeconds float64 `json:"median_seconds"`
	P90Seconds    float64 `json:"p90_seconds"`
}

type TimeToCloseResult string

const (
	ResultHired    TimeToCloseResult = "hired"
	ResultRejected TimeToCloseResult = "rejected"
)

type TimeToCloseStats struct {
	Count         float64 `json:"count"`
	AvgSeconds    float64 `json:"avg_seconds"`
	MedianSeconds float64 `json:"median_seconds"`
	P90Seconds    float64 `json:"p90_seconds"`
	MinSeconds    float64 `json:"min_seconds"`
	MaxSeconds    float64 `json:"max_seconds"`
}

type StageAgingParams struct {
	WorkflowID string
	Limit      *int
	Offset     *int
}

type TimeToCloseParams struct {
	WorkflowID string
	Result     TimeToCloseResult
}

// Window bounds the breakdown report. Zero times are omitted from the query.
type Window struct {
	From time.Time
	To   time.Time
}
