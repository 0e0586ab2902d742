package tui

import (
	"fmt"
	"strings"

	"themerec/profile"
	"themerec/recservice"
	"themerec/session"
	"themerec/themes"

	"github.com/charmbracelet/lipgloss"
)

const helpText = "enter send • tab/shift+tab theme • alt+← alt+→ back/forward • ctrl+e example • ctrl+r reset • esc quit"

func (m Model) View() string {
	state := m.ctrl.Snapshot()
	info := themes.Get(state.Theme)

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(info.Icon + " " + info.Label + " recommendations"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs(state.Theme))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render(info.Description))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if state.Loading {
		b.WriteString(m.spinner.View() + " Finding recommendations...\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Input.Render(m.textarea.View()))
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(helpText))
	return b.String()
}

func (m Model) renderTabs(current themes.Theme) string {
	tabs := make([]string, 0, len(themes.All()))
	for _, t := range themes.All() {
		info := themes.Get(t)
		label := info.Icon + " " + info.Label
		if t == current {
			tabs = append(tabs, m.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderContent is the scrollable part: welcome or transcript, then the error
// and the structured result.
func (m Model) renderContent(state session.State) string {
	info := themes.Get(state.Theme)
	var b strings.Builder

	if len(state.Transcript) == 0 && !state.Loading {
		b.WriteString(m.styles.Muted.Render("Try one of these (ctrl+e):"))
		b.WriteString("\n")
		for _, ex := range info.Examples {
			b.WriteString(m.styles.Muted.Render("  • " + ex))
			b.WriteString("\n")
		}
	}

	for _, msg := range state.Transcript {
		if msg.Role == recservice.RoleAssistant {
			b.WriteString(m.styles.Assistant.Render(info.Label + ":"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Content))
		} else {
			b.WriteString(m.styles.User.Render("You: "))
			b.WriteString(msg.Content)
		}
		b.WriteString("\n\n")
	}

	if state.Error != "" {
		b.WriteString(m.styles.Error.Render(state.Error))
		b.WriteString("\n")
	}

	if state.Result != nil && !state.Loading {
		b.WriteString(m.renderResult(state.Result))
	}
	return b.String()
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) renderResult(result *recservice.Result) string {
	width := max(m.width-4, 20)
	var b strings.Builder

	if p := result.UserProfile; p != nil {
		var lines []string
		lines = append(lines, m.styles.CardTitle.Render("Your profile"))
		if p.Summary != "" {
			lines = append(lines, p.Summary)
		}
		for _, k := range profile.SortedKeys(p.Attributes) {
			v := p.Attributes[k]
			if v.IsEmpty() {
				continue
			}
			lines = append(lines, m.styles.Muted.Render(k+": ")+v.Format())
		}
		b.WriteString(m.styles.Card.Width(width).Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	for i, item := range result.Recommendations {
		lines := []string{m.styles.CardTitle.Render(fmt.Sprintf("#%d %s", i+1, item.Title))}
		if item.Creator != "" {
			lines = append(lines, m.styles.Muted.Render(item.Creator))
		}
		for _, k := range profile.SortedKeys(item.Metadata) {
			lines = append(lines, m.styles.Muted.Render(k+": "+item.Metadata[k]))
		}
		if item.Summary != "" {
			lines = append(lines, item.Summary)
		}
		if item.Reason != "" {
			lines = append(lines, "Why: "+item.Reason)
		}
		b.WriteString(m.styles.Card.Width(width).Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
	return b.String()
}
