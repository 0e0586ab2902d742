package components

import (
	"bytes"
	"context"
	"testing"

	"themerec/profile"
	"themerec/recservice"
	"themerec/session"
	"themerec/themes"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestPanelEmptyShowsWelcome(t *testing.T) {
	html := render(t, Panel(session.State{Theme: "movies"}))
	info := themes.Get("movies")

	assert.Contains(t, html, `class="welcome"`)
	assert.Contains(t, html, templ.EscapeString(info.Placeholder))
	assert.NotContains(t, html, `hx-trigger="every`)
	for _, ex := range info.Examples {
		assert.Contains(t, html, templ.EscapeString(ex))
	}
}

func TestPanelLoadingPolls(t *testing.T) {
	html := render(t, Panel(session.State{
		Theme:      "books",
		Transcript: []session.Message{{Role: recservice.RoleUser, Content: "hi"}},
		Loading:    true,
		Result:     &recservice.Result{Recommendations: []recservice.Item{{Title: "Dune"}}},
	}))

	assert.Contains(t, html, `hx-get="/panel" hx-trigger="every 1s"`)
	assert.Contains(t, html, `class="loading"`)
	assert.NotContains(t, html, `class="welcome"`)
	assert.NotContains(t, html, "Dune", "results are hidden while loading")
}

func TestPanelEscapesUserText(t *testing.T) {
	html := render(t, Panel(session.State{
		Theme: "books",
		Transcript: []session.Message{
			{Role: recservice.RoleUser, Content: "<b>bold</b>"},
			{Role: recservice.RoleAssistant, Content: "try **Dune** <img src=x>"},
		},
		Error: "<oops>",
	}))

	assert.Contains(t, html, "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, html, "<strong>Dune</strong>")
	assert.NotContains(t, html, "<img")
	assert.Contains(t, html, "&lt;oops&gt;")
}

func TestResults(t *testing.T) {
	html := render(t, Results(&recservice.Result{
		UserProfile: &recservice.UserProfile{
			Summary: "likes space",
			Attributes: map[string]profile.Value{
				"genres": profile.NewList("sci-fi", "horror"),
				"mood":   profile.NewScalar("dark"),
				"empty":  profile.NewList(),
			},
		},
		Recommendations: []recservice.Item{
			{Title: "Dune", Creator: "Frank Herbert", Metadata: map[string]string{"year": "1965"}, Reason: "epic"},
			{Title: "Solaris"},
		},
	}))

	assert.Contains(t, html, "likes space")
	assert.Contains(t, html, "sci-fi, horror")
	assert.NotContains(t, html, "<dt>empty</dt>")
	assert.Contains(t, html, `data-rank="1"`)
	assert.Contains(t, html, `data-rank="2"`)
	assert.Contains(t, html, "year: 1965")
	assert.Less(t, bytes.Index([]byte(html), []byte("genres")), bytes.Index([]byte(html), []byte("mood")))
}

func TestThemeSelectorMarksCurrent(t *testing.T) {
	html := render(t, ThemeSelector("games"))

	assert.Contains(t, html, `href="/games" class="theme-tab" hx-post="/navigate"`)
	assert.Equal(t, 1, bytes.Count([]byte(html), []byte(`aria-current="page"`)))
	for _, th := range themes.All() {
		assert.Contains(t, html, `href="`+themes.Path(th)+`"`)
	}
}

func TestAppHasNoticeArea(t *testing.T) {
	html := render(t, App(session.State{Theme: "anime"}))

	assert.Contains(t, html, `id="app" hx-history-elt`)
	assert.Contains(t, html, `data-theme="anime"`)
	assert.Contains(t, html, `id="`+NoticeID+`"`)
	assert.Contains(t, html, "--accent: "+themes.Get("anime").Accent)
}

func TestReplaceEntry(t *testing.T) {
	assert.Equal(t,
		`<script>history.replaceState({"htmx":true,"theme":"games"}, "", "/games");</script>`,
		render(t, ReplaceEntry("games", "/games")))
	assert.Equal(t,
		`<script>history.replaceState({"htmx":true,"theme":"books"}, "", location.href);</script>`,
		render(t, ReplaceEntry("jazz", "")))
}
