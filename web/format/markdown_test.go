package format

import (
	"strings"
	"testing"
)

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			input:    "Here are **three** picks",
			contains: []string{"<strong>three</strong>"},
		},
		{
			name:     "list without blank line",
			input:    "Picks:\n- Dune\n- Solaris",
			contains: []string{"<ul>", "<li>Dune</li>"},
		},
		{
			name:     "numbered list",
			input:    "Order:\n1. Hyperion\n2. Endymion",
			contains: []string{"<ol>"},
		},
		{
			name:     "raw html dropped",
			input:    "hi <script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
		{
			name:     "unsafe link scheme",
			input:    "[x](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
		{
			name:     "curly quotes",
			input:    "“quoted”",
			contains: []string{"&quot;quoted&quot;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToHTML(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("MarkdownToHTML(%q) = %q, want it to contain %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("MarkdownToHTML(%q) = %q, must not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestMarkdownToHTMLEmpty(t *testing.T) {
	if got := MarkdownToHTML("   "); got != "" {
		t.Errorf("MarkdownToHTML(blank) = %q, want empty", got)
	}
}

func TestNormalizeMarkdownLists(t *testing.T) {
	got := normalizeMarkdownLists("Intro\n- a\n- b\nOutro")
	want := "Intro\n\n- a\n- b\nOutro"
	if got != want {
		t.Errorf("normalizeMarkdownLists() = %q, want %q", got, want)
	}
}
