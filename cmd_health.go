package main

import (
	"context"
	"fmt"
	"time"

	"themerec/recservice"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the recommendation service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initLogger(true); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		client := recservice.New(cfg, logger)
		status, err := client.Health(ctx)
		if err != nil {
			return fmt.Errorf("recommendation service at %s: %w", client.BaseURL(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", client.BaseURL(), status.Status)
		return nil
	},
}
