package intl

import (
	"context"
	"errors"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

type contextKey string

const (
	localizerKey contextKey = "localizer"
	localeKey    contextKey = "locale"
)

var ErrNoLocalizer = errors.New("localizer not found")

func WithLocalizer(ctx context.Context, l *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey, l)
}

func UseLocalizer(ctx context.Context) (*i18n.Localizer, bool) {
	l, ok := ctx.Value(localizerKey).(*i18n.Localizer)
	return l, ok && l != nil
}

// MustUseLocalizer panics with ErrNoLocalizer when ctx carries none.
func MustUseLocalizer(ctx context.Context) *i18n.Localizer {
	l, ok := UseLocalizer(ctx)
	if !ok {
		panic(ErrNoLocalizer)
	}
	return l
}

func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeKey, tag)
}

func UseLocale(ctx context.Context) (language.Tag, bool) {
	tag, ok := ctx.Value(localeKey).(language.Tag)
	return tag, ok
}

// MustT translates messageID with the localizer from ctx and panics when
// the localizer is missing.
func MustT(ctx context.Context, messageID string) string {
	return MustUseLocalizer(ctx).MustLocalize(&i18n.LocalizeConfig{MessageID: messageID})
}

// T is like MustT but falls back to messageID on any failure.
func T(ctx context.Context, messageID string, data ...map[string]any) string {
	l, ok := UseLocalizer(ctx)
	if !ok {
		return messageID
	}
	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	s, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return s
}
