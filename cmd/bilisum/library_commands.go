package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bilisum/internal/library"
	"bilisum/internal/logging"
	"bilisum/internal/storage"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect generated summaries",
	}

	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryShowCommand(ctx))
	libraryCmd.AddCommand(newLibraryRemoveCommand(ctx))

	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded summaries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			index, err := library.Open(cfg.Paths.LibraryDB)
			if err != nil {
				return err
			}
			defer index.Close()

			records, err := index.List(cmd.Context(), strings.TrimSpace(category))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No summaries recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.BVID,
					rec.Title,
					rec.Category,
					rec.AuthorName,
					formatDuration(rec.Duration),
					yesNo(rec.HasSubtitle),
					rec.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"BV", "Title", "Category", "Author", "Length", "Subtitle", "Created"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Restrict to one category (empty lists everything)")
	return cmd
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "show <bv-id>",
		Short: "Print a recorded summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rec, err := findLibraryRecord(cmd, cfg.Paths.LibraryDB, args[0], category)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store := storage.NewStore(cfg.Paths.OutputDir, cfg.Paths.CaptionsDir, logging.WithComponent(logger, "storage"))
			content, err := store.ReadSummary(rec.RelativePath)
			if err != nil {
				return fmt.Errorf("read summary: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category to search (empty searches everything)")
	return cmd
}

func newLibraryRemoveCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "remove <bv-id>",
		Short: "Delete a summary and its library record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rec, err := findLibraryRecord(cmd, cfg.Paths.LibraryDB, args[0], category)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store := storage.NewStore(cfg.Paths.OutputDir, cfg.Paths.CaptionsDir, logging.WithComponent(logger, "storage"))
			if err := store.DeleteSummary(rec.RelativePath); err != nil {
				return fmt.Errorf("delete summary files: %w", err)
			}

			index, err := library.Open(cfg.Paths.LibraryDB)
			if err != nil {
				return err
			}
			defer index.Close()
			if err := index.Remove(cmd.Context(), rec.BVID, rec.Category); err != nil {
				return fmt.Errorf("remove library record: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", rec.BVID, rec.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category to search (empty searches everything)")
	return cmd
}

func findLibraryRecord(cmd *cobra.Command, dbPath, bvid, category string) (library.Record, error) {
	index, err := library.Open(dbPath)
	if err != nil {
		return library.Record{}, err
	}
	defer index.Close()

	records, err := index.List(cmd.Context(), strings.TrimSpace(category))
	if err != nil {
		return library.Record{}, err
	}
	for _, rec := range records {
		if rec.BVID == bvid {
			return rec, nil
		}
	}
	return library.Record{}, fmt.Errorf("no summary recorded for %s", bvid)
}

func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
