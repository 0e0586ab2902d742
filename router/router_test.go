package router

import (
	"testing"

	"themerec/navigation"
	"themerec/themes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountResolvesAndReplaces(t *testing.T) {
	tests := []struct {
		name        string
		initial     navigation.Location
		wantTheme   themes.Theme
		wantPath    string
		wantReplace bool
	}{
		{"canonical path is kept", navigation.Location{Path: "/movies"}, "movies", "/movies", false},
		{"empty path", navigation.Location{Path: "/"}, "books", "/books", true},
		{"unknown slug", navigation.Location{Path: "/music"}, "books", "/books", true},
		{"trailing segments", navigation.Location{Path: "/anime/extra"}, "anime", "/anime/extra", false},
		{"path wins over state", navigation.Location{Path: "/books", State: &navigation.EntryState{Theme: "games"}}, "books", "/books", true},
		{"unknown slug ignores state", navigation.Location{Path: "/jazz", State: &navigation.EntryState{Theme: "anime"}}, "books", "/books", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := navigation.NewHistory(tt.initial)
			r := New(h)
			defer r.Close()

			assert.Equal(t, tt.wantTheme, r.Theme())
			assert.Equal(t, 1, h.Len(), "mount never adds an entry")
			assert.Equal(t, tt.wantPath, h.Read().Path)
			if tt.wantReplace {
				require.NotNil(t, h.Read().State)
				assert.Equal(t, string(tt.wantTheme), h.Read().State.Theme)
			}
		})
	}
}

func TestNavigateTwiceAddsOneEntry(t *testing.T) {
	for _, th := range themes.All() {
		t.Run(string(th), func(t *testing.T) {
			start := themes.Next(th)
			h := navigation.NewHistory(navigation.Location{Path: themes.Path(start)})
			r := New(h)

			r.Navigate(string(th))
			r.Navigate(string(th))

			assert.Equal(t, 2, h.Len())
			assert.Equal(t, th, r.Theme())
			assert.Equal(t, themes.Path(th), h.Read().Path)
			require.NotNil(t, h.Read().State)
			assert.Equal(t, string(th), h.Read().State.Theme)
		})
	}
}

func TestNavigateToActiveThemeIsNoop(t *testing.T) {
	h := navigation.NewHistory(navigation.Location{Path: "/books"})
	r := New(h)
	changes := 0
	r.OnChange(func(_, _ themes.Theme) { changes++ })

	r.Navigate("books")
	r.Navigate("")        // coerces to books
	r.Navigate("unknown") // coerces to books

	assert.Equal(t, 1, h.Len())
	assert.Zero(t, changes)
}

func TestNavigateNotifiesListeners(t *testing.T) {
	h := navigation.NewHistory(navigation.Location{Path: "/books"})
	r := New(h)

	var got [][2]themes.Theme
	cancel := r.OnChange(func(old, next themes.Theme) {
		got = append(got, [2]themes.Theme{old, next})
	})

	r.Navigate("games")
	r.Navigate("movies")
	cancel()
	r.Navigate("anime")

	assert.Equal(t, [][2]themes.Theme{{"books", "games"}, {"games", "movies"}}, got)
}

func TestBackForwardRederivesWithoutPushing(t *testing.T) {
	h := navigation.NewHistory(navigation.Location{Path: "/books"})
	r := New(h)
	var changes []themes.Theme
	r.OnChange(func(_, next themes.Theme) { changes = append(changes, next) })

	r.Navigate("games")
	r.Navigate("anime")
	require.Equal(t, 3, h.Len())

	h.Back()
	assert.Equal(t, themes.Theme("games"), r.Theme())
	h.Back()
	assert.Equal(t, themes.Theme("books"), r.Theme())
	h.Forward()
	assert.Equal(t, themes.Theme("games"), r.Theme())

	assert.Equal(t, 3, h.Len(), "passive transitions never push")
	assert.Equal(t, []themes.Theme{"games", "anime", "games", "books", "games"}, changes)
}

func TestTamperedHistoryIsCoerced(t *testing.T) {
	h := navigation.NewHistory(navigation.Location{Path: "/music"})
	r := New(h)
	h.Push(navigation.Location{Path: "/movies", State: &navigation.EntryState{Theme: "not-a-theme"}})
	h.Push(navigation.Location{Path: "/anime"})

	h.Back()
	assert.Equal(t, themes.Theme("books"), r.Theme(), "invalid state theme coerces to default")

	h.Forward()
	assert.Equal(t, themes.Theme("anime"), r.Theme(), "no state falls back to the path")
}

func TestRestoredLocationFollowsCoercedTheme(t *testing.T) {
	h := navigation.NewHistory(navigation.Location{Path: "/games"})
	r := New(h)
	defer r.Close()
	h.Push(navigation.Location{Path: "/movies", State: &navigation.EntryState{Theme: "not-a-theme"}})
	h.Push(navigation.Location{Path: "/anime"})

	require.True(t, h.Back())
	assert.Equal(t, themes.Theme("books"), r.Theme())
	assert.Equal(t, "/books", h.Read().Path)
	require.NotNil(t, h.Read().State)
	assert.Equal(t, "books", h.Read().State.Theme)
	assert.Equal(t, 3, h.Len(), "the entry is rewritten, not pushed")
	assert.Equal(t, 1, h.Index())

	// State naming another theme than the path moves the path along.
	h.Push(navigation.Location{Path: "/anime", State: &navigation.EntryState{Theme: "games"}})
	h.Push(navigation.Location{Path: "/games"})
	require.True(t, h.Back())
	assert.Equal(t, themes.Theme("games"), r.Theme())
	assert.Equal(t, "/games", h.Read().Path)

	// A canonical entry is left alone.
	require.True(t, h.Forward())
	assert.Equal(t, navigation.Location{Path: "/games"}, h.Read())
}

func TestCloseStopsListening(t *testing.T) {
	h := navigation.NewHistory(navigation.Location{Path: "/books"})
	r := New(h)
	r.Navigate("games")
	r.Close()

	h.Back()
	assert.Equal(t, themes.Theme("games"), r.Theme())
}
