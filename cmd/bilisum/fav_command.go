package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"bilisum/internal/bili"
	"bilisum/internal/pipeline"
)

func newFavCommand(ctx *commandContext) *cobra.Command {
	var count int
	var overwrite bool
	var unfavorite bool

	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Summarize videos from the default favorites folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred := ctx.credential()
			if !cred.Valid() {
				return errors.New("favorites require a configured SESSDATA credential")
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

			bvids, err := svc.client.DefaultFavoriteBVIDs(cmd.Context(), count, cred)
			if err != nil {
				return fmt.Errorf("list favorites: %w", err)
			}
			if len(bvids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Default favorites folder is empty")
				return nil
			}

			reqs := buildRequests(bvids, "favorites", overwrite || cfg.Pipeline.OverwriteExisting, cred)
			snap, err := runBatch(cmd, cfg, svc, reqs)
			if err != nil {
				return err
			}
			if unfavorite {
				return unfavoriteProcessed(cmd.Context(), cmd.OutOrStdout(), svc, cred, snap.Items)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 20, "Maximum number of favorites to process")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Regenerate summaries that already exist")
	cmd.Flags().BoolVar(&unfavorite, "unfavorite", false, "Remove successfully summarized videos from the folder")
	return cmd
}

// unfavoriteProcessed removes every successfully summarized (or already
// summarized) video from the default folder. Removal failures are
// reported but do not abort the remaining removals.
func unfavoriteProcessed(ctx context.Context, out io.Writer, svc *serviceSet, cred *bili.Credential, items []pipeline.ProgressItem) error {
	self, err := svc.client.MyInfo(ctx, cred)
	if err != nil {
		return fmt.Errorf("resolve own profile: %w", err)
	}
	folders, err := svc.client.FavoriteFolders(ctx, int64(self.Mid), cred)
	if err != nil {
		return fmt.Errorf("list favorite folders: %w", err)
	}
	var folderID int64
	for _, folder := range folders {
		if folder.IsDefault() {
			folderID = folder.ID
			break
		}
	}
	if folderID == 0 {
		return errors.New("no default favorites folder found")
	}

	removed := 0
	for _, item := range items {
		if item.Status != pipeline.StatusSuccess && item.Status != pipeline.StatusSkipped {
			continue
		}
		if err := svc.client.Unfavorite(ctx, item.BVID, folderID, cred); err != nil {
			svc.logger.Warn("unfavorite", slog.String("bvid", item.BVID), slog.String("error", err.Error()))
			fmt.Fprintf(out, "  keep %s: %v\n", item.BVID, err)
			continue
		}
		removed++
	}
	fmt.Fprintf(out, "Removed %d video(s) from favorites\n", removed)
	return nil
}
