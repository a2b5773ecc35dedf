package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/backup"
	"github.com/promptdeck/promptdeck/internal/messages"
)

func newBackupsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.BackupsUse,
		Short: messages.BackupsShort,
	}
	cmd.AddCommand(newBackupsListCmd(opts))
	cmd.AddCommand(newBackupsPruneCmd(opts))
	return cmd
}

func newBackupsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.BackupsListUse,
		Short: messages.BackupsListShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}
			sets, err := backup.NewVault(root.Path).List()
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				_, _ = fmt.Fprintf(out, messages.BackupsNoneFmt, root.Path)
				return nil
			}
			for _, set := range sets {
				created := time.UnixMilli(set.TimestampMS).UTC().Format(time.RFC3339)
				_, _ = fmt.Fprintf(out, messages.BackupsLineFmt, created, set.Reason, len(set.Files))
			}
			return nil
		},
	}
}

func newBackupsPruneCmd(opts *rootOptions) *cobra.Command {
	var olderThanDays int
	cmd := &cobra.Command{
		Use:   messages.BackupsPruneUse,
		Short: messages.BackupsPruneShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}
			days := olderThanDays
			if days <= 0 {
				settings, err := opts.loadSettings(root)
				if err != nil {
					return err
				}
				days = settings.BackupRetentionDays
			}
			maxAge := time.Duration(days) * 24 * time.Hour
			pruned, err := backup.NewVault(root.Path).Prune(maxAge)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, messages.BackupsPrunedFmt, pruned, maxAge)
			return nil
		},
	}
	cmd.Flags().IntVar(&olderThanDays, "older-than", 0, messages.FlagOlderThanDesc)
	return cmd
}
