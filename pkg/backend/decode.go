package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode unmarshals a JSON document of the expected kind ('{' or '[') and
// turns every failure into a validation error naming the offending field.
func decode(data []byte, open byte, out any, what string) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != open {
		return validationError("Invalid "+what+" response", nil)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return validationError("Invalid "+lastSegment(typeErr.Field), err)
		}
		return validationError("Invalid "+what+" response", err)
	}
	return nil
}

func decodeObject(data []byte, out any, what string) error {
	return decode(data, '{', out, what)
}

func decodeArray(data []byte, out any, what string) error {
	return decode(data, '[', out, what)
}

func checkStruct(v any, what string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return validationError("Invalid "+verrs[0].Field(), err)
	}
	return validationError("Invalid "+what, err)
}

func lastSegment(field string) string {
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		return field[i+1:]
	}
	return field
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func rawString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if json.Unmarshal(trimmed, &s) != nil {
		return "", false
	}
	return s, true
}

func rawLocale(raw json.RawMessage) *Locale {
	s, ok := rawString(raw)
	if !ok || !Locale(s).Valid() {
		return nil
	}
	l := Locale(s)
	return &l
}

func rawObject(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if !isObject(raw) {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

type identityWire struct {
	OrganizationID    *string         `json:"organization_id" validate:"required,notblank"`
	UserID            *string         `json:"user_id" validate:"required,notblank"`
	EffectiveLanguage *string         `json:"effective_language" validate:"required,oneof=en nl"`
	Role              json.RawMessage `json:"role"`
	Scopes            json.RawMessage `json:"scopes"`
	Language          json.RawMessage `json:"language"`
	DefaultLanguage   json.RawMessage `json:"default_language"`
	CorrelationID     json.RawMessage `json:"correlation_id"`
	UX                json.RawMessage `json:"ux"`
	Features          json.RawMessage `json:"features"`
}

// DecodeIdentity validates a /me payload. Required fields must be present
// and well-formed; optional ones fall back to documented defaults.
func DecodeIdentity(data []byte) (*Identity, error) {
	var w identityWire
	if err := decodeObject(data, &w, "identity"); err != nil {
		return nil, err
	}
	if err := checkStruct(&w, "identity"); err != nil {
		return nil, err
	}

	id := &Identity{
		OrganizationID:    *w.OrganizationID,
		UserID:            *w.UserID,
		EffectiveLanguage: Locale(*w.EffectiveLanguage),
		Scopes:            []string{},
		Language:          rawLocale(w.Language),
		DefaultLanguage:   LocaleEN,
		UX:                rawObject(w.UX),
		Features:          rawObject(w.Features),
	}
	if role, ok := rawString(w.Role); ok {
		id.Role = role
	}
	if cid, ok := rawString(w.CorrelationID); ok {
		id.CorrelationID = cid
	}
	if def := rawLocale(w.DefaultLanguage); def != nil {
		id.DefaultLanguage = *def
	}
	var scopes []json.RawMessage
	if json.Unmarshal(w.Scopes, &scopes) == nil {
		for _, raw := range scopes {
			if s, ok := rawString(raw); ok {
				id.Scopes = append(id.Scopes, s)
			}
		}
	}
	return id, nil
}

type uxConfigWire struct {
	Module json.RawMessage `json:"module"`
	Config json.RawMessage `json:"config"`
}

type uxModuleConfigWire struct {
	Layout json.RawMessage            `json:"layout"`
	Theme  json.RawMessage            `json:"theme"`
	Flags  map[string]json.RawMessage `json:"flags"`
}

func decodeModuleConfig(raw json.RawMessage) UXModuleConfig {
	var cfg UXModuleConfig
	if !isObject(raw) {
		return cfg
	}
	var w uxModuleConfigWire
	if err := json.Unmarshal(raw, &w); err != nil {
		// flags of the wrong shape; retry without them
		var lax struct {
			Layout json.RawMessage `json:"layout"`
			Theme  json.RawMessage `json:"theme"`
		}
		_ = json.Unmarshal(raw, &lax)
		w = uxModuleConfigWire{Layout: lax.Layout, Theme: lax.Theme}
	}
	if s, ok := rawString(w.Layout); ok {
		l := Layout(s)
		cfg.Layout = &l
	}
	if s, ok := rawString(w.Theme); ok {
		t := Theme(s)
		cfg.Theme = &t
	}
	for k, v := range w.Flags {
		var b bool
		switch string(bytes.TrimSpace(v)) {
		case "true":
			b = true
		case "false":
		default:
			continue
		}
		if cfg.Flags == nil {
			cfg.Flags = map[string]bool{}
		}
		cfg.Flags[k] = b
	}
	return UXConfigResponse{Config: cfg}.Normalized("").Config
}

// DecodeUXConfig validates a /ux/{module} payload. Both "module" and
// "config" must be present; unknown layout, theme and non-boolean flags are
// dropped and a non-string module falls back to requested.
func DecodeUXConfig(requested string, data []byte) (*UXConfigResponse, error) {
	var w uxConfigWire
	if err := decodeObject(data, &w, "UX config"); err != nil {
		return nil, err
	}
	if len(w.Module) == 0 || len(w.Config) == 0 {
		return nil, validationError("Invalid UX config response shape", nil)
	}
	resp := UXConfigResponse{Config: decodeModuleConfig(w.Config)}
	if m, ok := rawString(w.Module); ok {
		resp.Module = m
	}
	resp = resp.Normalized(requested)
	return &resp, nil
}

type versionWire struct {
	Version    *int            `json:"version" validate:"required"`
	AuditLogID string          `json:"audit_log_id"`
	CreatedAt  string          `json:"created_at"`
	ActorID    string          `json:"actor_id"`
	Config     json.RawMessage `json:"config"`
	IsActive   bool            `json:"is_active"`
	Diff       *UXVersionDiff  `json:"diff"`
}

func decodeVersions(data []byte) ([]UXConfigVersionItem, error) {
	var wires []versionWire
	if err := decodeArray(data, &wires, "versions"); err != nil {
		return nil, err
	}
	out := make([]UXConfigVersionItem, 0, len(wires))
	for i := range wires {
		w := &wires[i]
		if err := checkStruct(w, "version item"); err != nil {
			return nil, err
		}
		out = append(out, UXConfigVersionItem{
			Version:    *w.Version,
			AuditLogID: w.AuditLogID,
			CreatedAt:  w.CreatedAt,
			ActorID:    w.ActorID,
			Config:     decodeModuleConfig(w.Config),
			IsActive:   w.IsActive,
			Diff:       w.Diff,
		})
	}
	return out, nil
}

type policyWire struct {
	OrganizationID           *string  `json:"organization_id" validate:"required"`
	Require4EyesOnHire       *bool    `json:"require_4eyes_on_hire" validate:"required"`
	Require4EyesOnUXRollback *bool    `json:"require_4eyes_on_ux_rollback" validate:"required"`
	StageAgingSLADays        *float64 `json:"stage_aging_sla_days"`
	CandidateRetentionDays   *int     `json:"candidate_retention_days"`
	AuditRetentionDays       *int     `json:"audit_retention_days"`
	CreatedAt                *string  `json:"created_at" validate:"required"`
	UpdatedAt                *string  `json:"updated_at" validate:"required"`
}

// DefaultStageAgingSLADays applies when the policy omits stage_aging_sla_days.
const DefaultStageAgingSLADays = 7

func decodePolicy(data []byte) (*PolicyConfig, error) {
	var w policyWire
	if err := decodeObject(data, &w, "policy"); err != nil {
		return nil, err
	}
	if err := checkStruct(&w, "policy"); err != nil {
		return nil, err
	}
	p := &PolicyConfig{
		OrganizationID:           *w.OrganizationID,
		Require4EyesOnHire:       *w.Require4EyesOnHire,
		Require4EyesOnUXRollback: *w.Require4EyesOnUXRollback,
		StageAgingSLADays:        DefaultStageAgingSLADays,
		CandidateRetentionDays:   w.CandidateRetentionDays,
		AuditRetentionDays:       w.AuditRetentionDays,
		CreatedAt:                *w.CreatedAt,
		UpdatedAt:                *w.UpdatedAt,
	}
	if w.StageAgingSLADays != nil {
		p.StageAgingSLADays = *w.StageAgingSLADays
	}
	return p, nil
}

type workflowWire struct {
	ID     *string `json:"id" validate:"required,notblank"`
	Name   *string `json:"name" validate:"required"`
	Active *bool   `json:"active" validate:"required"`
}

func decodeWorkflows(data []byte) ([]WorkflowListItem, error) {
	var wires []workflowWire
	if err := decodeArray(data, &wires, "workflows"); err != nil {
		return nil, err
	}
	out := make([]WorkflowListItem, 0, len(wires))
	for i := range wires {
		w := &wires[i]
		if err := checkStruct(w, "workflow list item"); err != nil {
			return nil, err
		}
		out = append(out, WorkflowListItem{ID: *w.ID, Name: *w.Name, Active: *w.Active})
	}
	return out, nil
}

type stageAgingWire struct {
	ApplicationID *string  `json:"application_id" validate:"required"`
	WorkflowID    *string  `json:"workflow_id" validate:"required"`
	CurrentStage  *string  `json:"current_stage" validate:"required"`
	AgeSeconds    *float64 `json:"age_seconds" validate:"required"`
}

func decodeStageAging(data []byte) ([]StageAgingItem, error) {
	var wires []stageAgingWire
	if err := decodeArray(data, &wires, "stage aging"); err != nil {
		return nil, err
	}
	out := make([]StageAgingItem, 0, len(wires))
	for i := range wires {
		w := &wires[i]
		if err := checkStruct(w, "stage aging item"); err != nil {
			return nil, err
		}
		out = append(out, StageAgingItem{
			ApplicationID: *w.ApplicationID,
			WorkflowID:    *w.WorkflowID,
			CurrentStage:  *w.CurrentStage,
			AgeSeconds:    *w.AgeSeconds,
		})
	}
	return out, nil
}

type stageDurationSummaryWire struct {
	Stage                 *string  `json:"stage" validate:"required"`
	Count                 *float64 `json:"count" validate:"required"`
	AvgDurationSeconds    *float64 `json:"avg_duration_seconds" validate:"required"`
	MedianDurationSeconds *float64 `json:"median_duration_seconds" validate:"required"`
	P90DurationSeconds    *float64 `json:"p90_duration_seconds" validate:"required"`
}

func decodeStageDurationSummary(data []byte) ([]StageDurationSummaryItem, error) {
	var wires []stageDurationSummaryWire
	if err := decodeArray(data, &wires, "stage duration summary"); err != nil {
		return nil, err
	}
	out := make([]StageDurationSummaryItem, 0, len(wires))
	for i := range wires {
		w := &wires[i]
		if err := checkStruct(w, "stage duration summary item"); err != nil {
			return nil, err
		}
		out = append(out, StageDurationSummaryItem{
			Stage:                 *w.Stage,
			Count:                 *w.Count,
			AvgDurationSeconds:    *w.AvgDurationSeconds,
			MedianDurationSeconds: *w.MedianDurationSeconds,
			P90DurationSeconds:    *w.P90DurationSeconds,
		})
	}
	return out, nil
}

type breakdownWire struct {
	Items []breakdownItemWire `json:"items"`
}

type breakdownItemWire struct {
	Stage         *string  `json:"stage" validate:"required"`
	Count         *float64 `json:"count" validate:"required"`
	MedianSeconds *float64 `json:"median_seconds" validate:"required"`
	P90Seconds    *float64 `json:"p90_seconds" validate:"required"`
}

// decodeBreakdown accepts either {"items": [...]} or a bare array.
func decodeBreakdown(data []byte) ([]StageDurationBreakdownItem, error) {
	var wires []breakdownItemWire
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var w breakdownWire
		if err := decodeObject(trimmed, &w, "stage duration breakdown"); err != nil {
			return nil, err
		}
		if w.Items == nil {
			return nil, validationError("Invalid items", nil)
		}
		wires = w.Items
	} else if err := decodeArray(trimmed, &wires, "stage duration breakdown"); err != nil {
		return nil, err
	}
	out := make([]StageDurationBreakdownItem, 0, len(wires))
	for i := range wires {
		w := &wires[i]
		if err := checkStruct(w, "stage duration breakdown item"); err != nil {
			return nil, err
		}
		out = append(out, StageDurationBreakdownItem{
			Stage:         *w.Stage,
			Count:         *w.Count,
			MedianSeconds: *w.MedianSeconds,
			P90Seconds:    *w.P90Seconds,
		})
	}
	return out, nil
}

type timeToCloseWire struct {
	Count         *float64 `json:"count" validate:"required"`
	AvgSeconds    *float64 `json:"avg_seconds" validate:"required"`
	MedianSeconds *float64 `json:"median_seconds" validate:"required"`
	P90Seconds    *float64 `json:"p90_seconds" validate:"required"`
	MinSeconds    *float64 `json:"min_seconds" validate:"required"`
	MaxSeconds    *float64 `json:"max_seconds" validate:"required"`
}

func decodeTimeToClose(data []byte) (*TimeToCloseStats, error) {
	var w timeToCloseWire
	if err := decodeObject(data, &w, "time-to-close"); err != nil {
		return nil, err
	}
	if err := checkStruct(&w, "time-to-close"); err != nil {
		return nil, err
	}
	return &TimeToCloseStats{
		Count:         *w.Count,
		AvgSeconds:    *w.AvgSeconds,
		MedianSeconds: *w.MedianSeconds,
		P90Seconds:    *w.P90Seconds,
		MinSeconds:    *w.MinSeconds,
		MaxSeconds:    *w.MaxSeconds,
	}, nil
}
