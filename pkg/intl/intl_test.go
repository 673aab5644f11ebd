package intl_test

import (
	"context"
	"testing"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/iota-uz/ats-console/pkg/intl"
)

func TestLanguages(t *testing.T) {
	assert.Len(t, intl.Languages(), 2)

	only := intl.Languages("nl", "fr")
	require.Len(t, only, 1)
	assert.Equal(t, language.Dutch, only[0].Tag)
	assert.Equal(t, []language.Tag{language.English, language.Dutch}, intl.Tags("nl", "en"))
	assert.Equal(t, []string{"en", "nl"}, intl.Codes())
}

func TestLocalizerContext(t *testing.T) {
	bundle := i18n.NewBundle(language.English)
	bundle.MustAddMessages(language.Dutch, &i18n.Message{ID: "Greeting", Other: "Hallo {{.Name}}"})

	ctx := context.Background()
	_, ok := intl.UseLocalizer(ctx)
	assert.False(t, ok)
	assert.Equal(t, "Greeting", intl.T(ctx, "Greeting"))
	assert.PanicsWithValue(t, intl.ErrNoLocalizer, func() { intl.MustT(ctx, "Greeting") })

	ctx = intl.WithLocalizer(ctx, i18n.NewLocalizer(bundle, "nl"))
	ctx = intl.WithLocale(ctx, language.Dutch)

	tag, ok := intl.UseLocale(ctx)
	require.True(t, ok)
	assert.Equal(t, language.Dutch, tag)
	assert.Equal(t, "Hallo Ada", intl.T(ctx, "Greeting", map[string]any{"Name": "Ada"}))
	assert.Equal(t, "Missing", intl.T(ctx, "Missing"))
}
