// Package themes holds the fixed, ordered catalog of recommendation domains.
//
// The catalog is compiled into the binary. Every lookup goes through Coerce,
// so callers never observe a theme outside the catalog.
package themes

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Theme identifies one recommendation domain, e.g. "books".
type Theme string

// Info is the static metadata rendered for a theme.
type Info struct {
	Slug        Theme    `yaml:"slug" json:"slug"`
	Label       string   `yaml:"label" json:"label"`
	Icon        string   `yaml:"icon" json:"icon"`
	Description string   `yaml:"description" json:"description"`
	Placeholder string   `yaml:"placeholder" json:"placeholder"`
	Accent      string   `yaml:"accent" json:"accent"`
	Examples    []string `yaml:"examples" json:"examples"`
}

//go:embed catalog.yaml
var catalogYAML []byte

var (
	order []Theme
	infos map[Theme]Info
)

func init() {
	entries, err := parseCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("themes: %v", err))
	}
	order = make([]Theme, 0, len(entries))
	infos = make(map[Theme]Info, len(entries))
	for _, e := range entries {
		order = append(order, e.Slug)
		infos[e.Slug] = e
	}
}

func parseCatalog(data []byte) ([]Info, error) {
	var entries []Info
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	seen := make(map[Theme]bool, len(entries))
	for i, e := range entries {
		if e.Slug == "" || strings.ContainsAny(string(e.Slug), "/ ") {
			return nil, fmt.Errorf("entry %d: invalid slug %q", i, e.Slug)
		}
		if seen[e.Slug] {
			return nil, fmt.Errorf("duplicate slug %q", e.Slug)
		}
		seen[e.Slug] = true
	}
	return entries, nil
}

// All returns the catalog in display order.
func All() []Theme {
	out := make([]Theme, len(order))
	copy(out, order)
	return out
}

// Default is the first catalog entry.
func Default() Theme {
	return order[0]
}

// Valid reports whether t is a catalog member.
func Valid(t Theme) bool {
	_, ok := infos[t]
	return ok
}

// Lookup returns the metadata of a catalog member.
func Lookup(t Theme) (Info, bool) {
	info, ok := infos[t]
	return info, ok
}

// Get returns the metadata of the coerced theme.
func Get(t Theme) Info {
	return infos[Coerce(string(t))]
}

// Coerce maps any candidate onto the catalog. Matching is exact, so case or
// whitespace variants, unknown and empty candidates all become the default
// theme.
func Coerce(candidate string) Theme {
	t := Theme(candidate)
	if Valid(t) {
		return t
	}
	return Default()
}

// Slug returns the raw first path segment, without validation.
func Slug(path string) string {
	clean := strings.TrimLeft(path, "/")
	if i := strings.IndexAny(clean, "/?#"); i >= 0 {
		clean = clean[:i]
	}
	return clean
}

// FromPath resolves a location path such as "/movies/anything" to a theme.
func FromPath(path string) Theme {
	return Coerce(Slug(path))
}

// Path is the canonical location path for t.
func Path(t Theme) string {
	return "/" + string(t)
}

// Next returns the theme after t in catalog order, wrapping around.
func Next(t Theme) Theme {
	return step(t, 1)
}

// Prev returns the theme before t in catalog order, wrapping around.
func Prev(t Theme) Theme {
	return step(t, -1)
}

func step(t Theme, delta int) Theme {
	t = Coerce(string(t))
	for i, o := range order {
		if o == t {
			return order[(i+delta+len(order))%len(order)]
		}
	}
	return Default()
}

func (t Theme) String() string {
	return string(t)
}
