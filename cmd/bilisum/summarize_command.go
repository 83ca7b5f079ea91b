package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilisum/internal/bili"
	"bilisum/internal/pipeline"
)

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var category string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "summarize <bv-id-or-url>...",
		Short: "Summarize one or more videos by BV id or watch URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			bvids, err := parseVideoArgs(args)
			if err != nil {
				return err
			}

			svc, err := buildServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			reqs := buildRequests(bvids, category, overwrite || cfg.Pipeline.OverwriteExisting, ctx.credential())
			_, err = runBatch(cmd, cfg, svc, reqs)
			return err
		},
	}

	cmd.Flags().StringVar(&category, "category", "standalone", "Output subdirectory for the generated summaries")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Regenerate summaries that already exist")
	return cmd
}

// parseVideoArgs extracts BV ids from raw arguments (plain ids or watch
// URLs), rejecting anything unrecognizable and dropping duplicates.
func parseVideoArgs(args []string) ([]string, error) {
	seen := make(map[string]struct{}, len(args))
	bvids := make([]string, 0, len(args))
	for _, arg := range args {
		bvid, err := bili.ExtractBVID(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", arg, err)
		}
		if _, dup := seen[bvid]; dup {
			continue
		}
		seen[bvid] = struct{}{}
		bvids = append(bvids, bvid)
	}
	return bvids, nil
}

func buildRequests(bvids []string, category string, overwrite bool, cred *bili.Credential) []pipeline.Request {
	reqs := make([]pipeline.Request, 0, len(bvids))
	for _, bvid := range bvids {
		reqs = append(reqs, pipeline.Request{
			BVID:       bvid,
			Category:   category,
			Overwrite:  overwrite,
			Credential: cred,
		})
	}
	return reqs
}
