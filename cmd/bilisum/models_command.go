package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilisum/internal/ai"
	"bilisum/internal/logging"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available on the configured AI endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			client := ai.NewClient(aiConfig(cfg), logging.WithComponent(logger, "ai"))
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(models) == 0 {
				fmt.Fprintln(out, "Endpoint does not expose a model listing")
				return nil
			}
			rows := make([][]string, 0, len(models))
			for _, model := range models {
				marker := ""
				if model.ID == cfg.AI.Model {
					marker = "current"
				}
				rows = append(rows, []string{model.ID, model.OwnedBy, marker})
			}
			fmt.Fprintln(out, renderTable([]string{"Model", "Owner", ""}, rows))
			return nil
		},
	}
}
