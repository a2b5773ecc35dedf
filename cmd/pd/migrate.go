package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/migrate"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.MigrateUse,
		Short: messages.MigrateShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}
			result, err := migrate.NewEngine().Migrate(root.Path)
			if err != nil {
				return err
			}
			if !result.Migrated {
				_, _ = fmt.Fprintf(out, messages.MigrateNoopFmt, root.Path, result.Reason)
				return nil
			}
			_, _ = fmt.Fprintf(out, messages.MigrateDoneFmt, root.Path, result.BackupRef)
			return nil
		},
	}
}
