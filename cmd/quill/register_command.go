package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/ledger"
	"quill/internal/logging"
	"quill/internal/staging"
	"quill/internal/state"
)

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "register [contact...]",
		Short: "Scan the staging tree and mark changed units pending",
		Long: `Register walks the staging directory, creates state entries for newly
discovered contacts, and marks every new or changed unit as pending.
It never enriches anything; run "quill process" afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			store, err := state.Open(cfg.Paths.StateFile, logger)
			if err != nil {
				return fmt.Errorf("open state: %w", err)
			}

			ldg := ledger.New(store, staging.NewDir(cfg.Paths.StagingDir), logger)

			var summary ledger.Summary
			if len(args) > 0 {
				for _, contact := range args {
					contactSummary, err := ldg.RegisterContact(cmd.Context(), contact)
					if err != nil {
						return err
					}
					summary.ContactsSeen += contactSummary.ContactsSeen
					summary.ContactsCreated += contactSummary.ContactsCreated
					summary.UnitsRegistered += contactSummary.UnitsRegistered
					summary.UnitsUnchanged += contactSummary.UnitsUnchanged
					summary.UnitsPending += contactSummary.UnitsPending
				}
			} else {
				summary, err = ldg.RegisterAll(cmd.Context())
				if err != nil {
					return err
				}
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"contacts_seen":    summary.ContactsSeen,
					"contacts_created": summary.ContactsCreated,
					"units_registered": summary.UnitsRegistered,
					"units_unchanged":  summary.UnitsUnchanged,
					"units_pending":    summary.UnitsPending,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d contact(s) (%d new)\n", summary.ContactsSeen, summary.ContactsCreated)
			fmt.Fprintf(out, "Registered %d unit(s), %d unchanged, %d now pending\n",
				summary.UnitsRegistered, summary.UnitsUnchanged, summary.UnitsPending)
			return nil
		},
	}
}
