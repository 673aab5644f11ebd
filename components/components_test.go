package components_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/ats-console/components"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestAlert_EscapesAndSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, components.Alert(components.AlertDanger, `<script>x</script>`).Render(context.Background(), &buf))
	d := doc(t, buf.String())
	assert.Equal(t, "danger", d.Find("[role=alert]").AttrOr("data-alert", ""))
	assert.Equal(t, "<script>x</script>", d.Find("[role=alert]").Text())
	assert.Equal(t, 0, d.Find("script").Length())

	buf.Reset()
	require.NoError(t, components.Alert(components.AlertInfo, "").Render(context.Background(), &buf))
	assert.Empty(t, buf.String())
}

func TestBadge_MergesClasses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, components.Badge("3", "bg-red-600").Render(context.Background(), &buf))
	class := doc(t, buf.String()).Find("span").AttrOr("class", "")
	assert.Contains(t, class, "bg-red-600")
	assert.NotContains(t, class, "bg-slate-800")
}

func TestTable(t *testing.T) {
	rows := [][]string{{"app-1", "screening"}, {"app-2", "offer"}}
	table := components.Table{
		Headers: []string{"Application", "Stage"},
		Rows:    len(rows),
		Row: func(ctx context.Context, w *components.Writer, i int) {
			for _, c := range rows[i] {
				components.Cell(w, c)
			}
		},
		RowClass: func(i int) string {
			if i == 1 {
				return "over-sla"
			}
			return ""
		},
	}
	var buf bytes.Buffer
	require.NoError(t, components.Card("aging", "Stage aging", table.Component()).Render(context.Background(), &buf))

	d := doc(t, buf.String())
	assert.Equal(t, "Stage aging", d.Find("#aging h2").Text())
	assert.Equal(t, 2, d.Find("tbody tr").Length())
	assert.Equal(t, "app-2", d.Find("tr.over-sla td").First().Text())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriter_KeepsFirstError(t *testing.T) {
	err := components.Stat("Open", "12", nil).Render(context.Background(), failingWriter{})
	require.EqualError(t, err, "closed")
}

func TestCode_HighlightsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, components.Code("json", `{"layout":"<compact>"}`).Render(context.Background(), &buf))
	d := doc(t, buf.String())
	assert.Equal(t, 1, d.Find("pre.chroma").Length())
	assert.Contains(t, d.Find("pre.chroma").Text(), `"<compact>"`)
	assert.Equal(t, 0, d.Find("compact").Length())
}
