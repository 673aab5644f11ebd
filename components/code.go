package components

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var codeFormatter = html.New(html.WithClasses(true), html.TabWidth(2))

// Code renders source highlighted for language. Colors come from the
// .chroma rules in main.css; unknown languages render as plain text.
func Code(language, source string) templ.Component {
	return Func(func(ctx context.Context, w *Writer) {
		lexer := lexers.Get(language)
		if lexer == nil {
			lexer = lexers.Fallback
		}
		var b strings.Builder
		iterator, err := chroma.Coalesce(lexer).Tokenise(nil, source)
		if err == nil {
			err = codeFormatter.Format(&b, styles.Fallback, iterator)
		}
		if err != nil {
			w.Raw(`<pre class="chroma">`)
			w.Text(source)
			w.Raw(`</pre>`)
			return
		}
		w.Raw(b.String())
	})
}
