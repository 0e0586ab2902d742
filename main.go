package main

import (
	"fmt"
	"os"

	"themerec/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "themerec",
	Short: "Conversational recommendations across books, games, movies and anime",
	Long: `themerec is the front end of a multi-theme recommendation service.

Describe what you are in the mood for; the recommendation service extracts a
profile from the conversation and answers with ranked picks. Use "serve" for
the browser front end or "chat" for the terminal one.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger with default level to load config
		tempLogger, err := config.InitLogger("info")
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = config.Load(tempLogger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		config.Cleanup()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, chatCmd, healthCmd)
	chatCmd.Flags().StringVar(&chatTheme, "theme", "", "theme to start in (books, games, movies, anime)")
}

// initLogger re-initializes the logger with the configured level. When
// toFileOnly is set and no LOG_FILE is configured, logging is discarded.
func initLogger(toFileOnly bool) error {
	var err error
	switch {
	case cfg.LogFile != "":
		logger, err = config.InitLogger(cfg.LogLevel, cfg.LogFile)
	case toFileOnly:
		logger = zap.NewNop()
	default:
		logger, err = config.InitLogger(cfg.LogLevel)
	}
	if err != nil {
		return fmt.Errorf("failed to re-initialize logger with configured level: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
