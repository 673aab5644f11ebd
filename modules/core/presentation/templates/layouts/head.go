package layouts

import (
	"context"
	"errors"

	"github.com/a-h/templ"

	"github.com/iota-uz/ats-console/components"
	"github.com/iota-uz/ats-console/modules/core/presentation/assets"
	"github.com/iota-uz/ats-console/pkg/constants"
)

var ErrNoHead = errors.New("head component not found in context")

func UseHead(ctx context.Context) (templ.Component, error) {
	head, ok := ctx.Value(constants.HeadKey).(templ.Component)
	if !ok || head == nil {
		return nil, ErrNoHead
	}
	return head, nil
}

// DefaultHead links the hashed stylesheet and the invalidation script.
func DefaultHead() templ.Component {
	css := assets.URL("css/main.css")
	js := assets.URL("js/console.js")
	return components.Func(func(ctx context.Context, w *components.Writer) {
		w.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.Raw(`<link rel="stylesheet"`)
		w.Attr("href", css)
		w.Raw(`><script defer`)
		w.Attr("src", js)
		w.Raw(`></script>`)
	})
}
