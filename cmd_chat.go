package main

import (
	"themerec/recservice"
	"themerec/themes"
	"themerec/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var chatTheme string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the terminal front end",
	Long: `Starts an interactive terminal session. --theme selects the starting theme
the same way a deep link does; unknown themes fall back to books.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the UI: log to LOG_FILE or nowhere.
	if err := initLogger(true); err != nil {
		return err
	}

	client := recservice.New(cfg, logger)
	model := tui.New(cmd.Context(), client, tui.Options{
		StartPath:  themes.Path(themes.Theme(chatTheme)),
		StaleGuard: cfg.SessionDiscardStale,
		Logger:     logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err := p.Run()
	return err
}
