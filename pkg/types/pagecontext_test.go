package types_test

import (
	"testing"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/types"
)

func newPageContext(tag language.Tag) *types.PageContext {
	bundle := i18n.NewBundle(language.English)
	bundle.MustAddMessages(language.English,
		&i18n.Message{ID: "Dashboard.Title", Other: "Dashboard"},
		&i18n.Message{ID: "Count", Other: "{{.N}} open"},
	)
	bundle.MustAddMessages(language.Dutch, &i18n.Message{ID: "Dashboard.Title", Other: "Overzicht"})
	return &types.PageContext{Locale: tag, Localizer: i18n.NewLocalizer(bundle, tag.String())}
}

func TestPageContext_Translate(t *testing.T) {
	en := newPageContext(language.English)
	assert.Equal(t, "Dashboard", en.T("Dashboard.Title"))
	assert.Equal(t, "3 open", en.T("Count", map[string]interface{}{"N": 3}))
	assert.Equal(t, "", en.TSafe("Nope"))
	assert.Panics(t, func() { en.T("Nope") })

	nl := newPageContext(language.Dutch)
	assert.Equal(t, "Overzicht", nl.Namespace("Dashboard").T("Title"))
	assert.Equal(t, "nl-NL", nl.ToJSLocale())
	assert.Equal(t, "en-US", en.ToJSLocale())
}

func TestPageContext_UXDefaults(t *testing.T) {
	p := newPageContext(language.English)
	assert.Equal(t, backend.ThemeDark, p.Theme())
	assert.Equal(t, backend.LayoutDefault, p.Layout())
	assert.False(t, p.Flag("beta"))

	layout := backend.LayoutDense
	theme := backend.ThemeLight
	p.SetUX(backend.UXModuleConfig{Layout: &layout, Theme: &theme, Flags: map[string]bool{"beta": true}})

	ns := p.Namespace("Dashboard")
	assert.Equal(t, backend.ThemeLight, ns.Theme())
	assert.Equal(t, backend.LayoutDense, ns.Layout())
	assert.True(t, ns.Flag("beta"))
}

func TestNavigationItem_HasScopes(t *testing.T) {
	open := types.NavigationItem{Name: "Dashboard"}
	guarded := types.NavigationItem{Name: "UX", Scopes: []string{"ux:admin"}}

	assert.True(t, open.HasScopes(nil))
	assert.False(t, guarded.HasScopes(nil))
	assert.False(t, guarded.HasScopes(&backend.Identity{Scopes: []string{"reporting:read"}}))
	assert.True(t, guarded.HasScopes(&backend.Identity{Scopes: []string{"ux:admin"}}))
}
