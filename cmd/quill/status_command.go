package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/logging"
	"quill/internal/state"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-contact progress and lifetime totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := state.Open(cfg.Paths.StateFile, logging.NewNop())
			if err != nil {
				return fmt.Errorf("open state: %w", err)
			}

			names := store.ContactNames()
			stats := store.Statistics()

			if ctx.JSONMode() {
				contacts := make([]map[string]any, 0, len(names))
				for _, name := range names {
					contact, ok := store.Contact(name)
					if !ok {
						continue
					}
					contacts = append(contacts, map[string]any{
						"name":               name,
						"messages_fetched":   contact.Fetch.TotalFetched,
						"messages_processed": contact.Process.TotalProcessed,
						"pending_units":      len(contact.Process.PendingUnits),
						"last_processed_key": contact.Process.LastProcessedKey,
					})
				}
				return writeJSON(cmd, map[string]any{
					"contacts":   contacts,
					"statistics": stats,
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if len(names) == 0 {
				fmt.Fprintln(out, "No contacts known yet; run \"quill register\" first")
				return nil
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				contact, ok := store.Contact(name)
				if !ok {
					continue
				}
				rows = append(rows, []string{
					name,
					strconv.FormatInt(contact.Fetch.TotalFetched, 10),
					strconv.FormatInt(contact.Process.TotalProcessed, 10),
					strconv.Itoa(len(contact.Process.PendingUnits)),
					formatLastProcessed(contact.Process.LastProcessTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Contact", "Fetched", "Processed", "Pending", "Last Processed"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Lifetime Totals", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Contacts", statusInfo, strconv.Itoa(stats.TotalContacts), colorize))
			fmt.Fprintln(out, renderStatusLine("Messages processed", statusInfo, strconv.FormatInt(stats.TotalProcessed, 10), colorize))
			fmt.Fprintln(out, renderStatusLine("Transcriptions", statusInfo, strconv.FormatInt(stats.TotalTranscriptions, 10), colorize))
			fmt.Fprintln(out, renderStatusLine("Summaries", statusInfo, strconv.FormatInt(stats.TotalSummaries, 10), colorize))
			fmt.Fprintln(out, renderStatusLine("OCR runs", statusInfo, strconv.FormatInt(stats.TotalOCR, 10), colorize))
			fmt.Fprintln(out, renderStatusLine("Tags", statusInfo, strconv.FormatInt(stats.TotalTags, 10), colorize))
			fmt.Fprintln(out, renderStatusLine("Links", statusInfo, strconv.FormatInt(stats.TotalLinks, 10), colorize))
			return nil
		},
	}
}

func formatLastProcessed(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return "never"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
