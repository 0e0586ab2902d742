// Package components holds the HTML fragments of the browser front end.
// They are pure functions of the router and session state.
package components

import (
	"fmt"

	"themerec/themes"

	"github.com/a-h/templ"
)

//go:generate templ generate

// PanelPollInterval is how often a loading panel asks for a fresh copy.
const PanelPollInterval = "1s"

// NoticeID is the element request errors are swapped into.
const NoticeID = "notice"

func headline(t themes.Theme) string {
	info := themes.Get(t)
	return info.Icon + " " + info.Label + " recommendations"
}

func accentStyle(t themes.Theme) templ.SafeCSS {
	return templ.SafeCSS("--accent: " + themes.Get(t).Accent)
}

func selectorVals(t themes.Theme) (string, error) {
	return templ.JSONString(map[string]string{"theme": t.String()})
}

func replaceEntryScript(theme themes.Theme, url string) (string, error) {
	entry, err := templ.JSONString(map[string]any{"htmx": true, "theme": themes.Get(theme).Slug})
	if err != nil {
		return "", err
	}
	target := "location.href"
	if url != "" {
		if target, err = templ.JSONString(url); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf(`<script>history.replaceState(%s, "", %s);</script>`, entry, target), nil
}
