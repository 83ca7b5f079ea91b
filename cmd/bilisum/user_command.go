package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	var count int
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "user <uid>",
		Short: "Summarize a user's most recent uploads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mid, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("user id %q is not numeric", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			svc, err := buildServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			cred := ctx.credential()
			card, err := svc.client.UserCard(cmd.Context(), mid, cred)
			if err != nil {
				return fmt.Errorf("fetch user %d: %w", mid, err)
			}
			if err := svc.store.SaveUserMeta(mid, card.Name); err != nil {
				svc.logger.Warn("save user meta", slog.String("error", err.Error()))
			}

			bvids, err := svc.client.AllUserBVIDs(cmd.Context(), mid, count, cred)
			if err != nil {
				return fmt.Errorf("list uploads of user %d: %w", mid, err)
			}
			if len(bvids) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no uploads\n", card.Name)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Summarizing %d upload(s) by %s\n", len(bvids), card.Name)

			category := "users/" + strconv.FormatInt(mid, 10)
			reqs := buildRequests(bvids, category, overwrite || cfg.Pipeline.OverwriteExisting, cred)
			_, err = runBatch(cmd, cfg, svc, reqs)
			return err
		},
	}

	cmd.Flags().IntVar(&count, "count", 20, "Maximum number of uploads to process")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Regenerate summaries that already exist")
	return cmd
}
