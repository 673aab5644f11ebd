package types

import (
	"net/url"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/iota-uz/ats-console/pkg/backend"
)

const (
	DefaultLayout = backend.LayoutDefault
	DefaultTheme  = backend.ThemeDark
)

// PageContextProvider carries page-level localization and UX presentation
// state into templates.
type PageContextProvider interface {
	// T translates a message ID to the current locale with optional template data.
	// If a prefix was set via Namespace(), it will be prepended to the message ID.
	T(key string, args ...map[string]interface{}) string

	// TSafe is like T but returns an empty string on error instead of panicking.
	TSafe(key string, args ...map[string]interface{}) string

	Namespace(prefix string) PageContextProvider

	// ToJSLocale converts the page locale to a string usable with Intl.NumberFormat.
	ToJSLocale() string

	GetLocale() language.Tag
	GetURL() *url.URL
	GetLocalizer() *i18n.Localizer

	// UX returns the UX config bound to the page, or the zero config.
	UX() backend.UXModuleConfig
	SetUX(cfg backend.UXModuleConfig)
	Theme() backend.Theme
	Layout() backend.Layout
	Flag(name string) bool
}

type PageContext struct {
	Locale    language.Tag
	URL       *url.URL
	Localizer *i18n.Localizer
	prefix    string
	ux        *backend.UXModuleConfig
}

var _ PageContextProvider = (*PageContext)(nil)

func (p *PageContext) messageID(k string) string {
	if p.prefix != "" {
		return p.prefix + "." + k
	}
	return k
}

func (p *PageContext) T(k string, args ...map[string]interface{}) string {
	if len(args) > 1 {
		panic("T(): too many arguments")
	}
	cfg := &i18n.LocalizeConfig{MessageID: p.messageID(k)}
	if len(args) == 1 {
		cfg.TemplateData = args[0]
	}
	return p.Localizer.MustLocalize(cfg)
}

func (p *PageContext) TSafe(k string, args ...map[string]interface{}) string {
	if len(args) > 1 {
		panic("T(): too many arguments")
	}
	if p.Localizer == nil {
		return ""
	}
	cfg := &i18n.LocalizeConfig{MessageID: p.messageID(k)}
	if len(args) == 1 {
		cfg.TemplateData = args[0]
	}
	result, err := p.Localizer.Localize(cfg)
	if err != nil {
		return ""
	}
	return result
}

func (p *PageContext) Namespace(prefix string) PageContextProvider {
	return &PageContext{
		Locale:    p.Locale,
		URL:       p.URL,
		Localizer: p.Localizer,
		prefix:    prefix,
		ux:        p.ux,
	}
}

// ToJSLocale maps the page locale to a BCP 47 tag for browser APIs.
// Unknown locales default to "en-US".
func (p *PageContext) ToJSLocale() string {
	switch p.Locale.String() {
	case "nl", "nl-NL":
		return "nl-NL"
	case "nl-BE":
		return "nl-BE"
	case "en-GB":
		return "en-GB"
	default:
		return "en-US"
	}
}

func (p *PageContext) GetLocale() language.Tag {
	return p.Locale
}

func (p *PageContext) GetURL() *url.URL {
	return p.URL
}

func (p *PageContext) GetLocalizer() *i18n.Localizer {
	return p.Localizer
}

func (p *PageContext) UX() backend.UXModuleConfig {
	if p.ux == nil {
		return backend.UXModuleConfig{}
	}
	return *p.ux
}

func (p *PageContext) SetUX(cfg backend.UXModuleConfig) {
	p.ux = &cfg
}

func (p *PageContext) Theme() backend.Theme {
	return p.UX().ThemeOr(DefaultTheme)
}

func (p *PageContext) Layout() backend.Layout {
	return p.UX().LayoutOr(DefaultLayout)
}

func (p *PageContext) Flag(name string) bool {
	return p.UX().Flag(name)
}
