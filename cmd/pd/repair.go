package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/bundle"
	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/repair"
)

func newRepairCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   messages.RepairUse,
		Short: messages.RepairShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := opts.newLogger(cmd.ErrOrStderr())

			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}
			settings, err := opts.loadSettings(root)
			if err != nil {
				return err
			}
			bundleDir, cleanup, err := bundle.Locate(opts.bundleDir, settings.BundleDir)
			if err != nil {
				return err
			}
			defer cleanup()

			engine := repair.NewEngine(bundleDir)
			issues, err := engine.DetectIssues(root)
			if err != nil {
				return err
			}
			if issues.Empty() {
				_, _ = fmt.Fprintf(out, messages.RepairHealthyFmt, root.Path)
				return nil
			}
			_, _ = fmt.Fprintf(out, messages.RepairFoundFmt, issues.Total(), root.Path)
			printIssues(out, issues)
			if dryRun {
				return nil
			}

			progress := func(index int, total int, operation string, item string) {
				_, _ = fmt.Fprintf(out, messages.RepairProgressFmt, index, total, operation, item)
			}
			report, err := engine.Repair(root, issues, progress)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, messages.RepairDoneFmt, report.Stats.Repaired, report.Stats.Total)
			if report.BackupRef != "" {
				_, _ = fmt.Fprintf(out, messages.RepairBackupNoteFmt, report.BackupRef)
			}
			if !report.Success {
				for _, item := range report.Items {
					if item.Err != nil {
						logger.Error("repair item failed", "path", item.RelPath, "err", item.Err)
					}
				}
				return errors.New(messages.CLIPartialFailure)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, messages.FlagDryRunDesc)
	return cmd
}

func printIssues(out io.Writer, issues repair.IssueSet) {
	for _, item := range issues.Missing {
		_, _ = fmt.Fprintf(out, messages.RepairIssueLineFmt, messages.RepairIssueMissing, item.RelPath, string(item.Kind))
	}
	for _, item := range issues.Corrupted {
		_, _ = fmt.Fprintf(out, messages.RepairIssueLineFmt, messages.RepairIssueCorrupted, item.RelPath, item.Reason)
	}
	for _, item := range issues.PathDrift {
		_, _ = fmt.Fprintf(out, messages.RepairIssueLineFmt, messages.RepairIssueDrift, item.RelPath, item.Reason)
		if item.Preview != "" {
			_, _ = io.WriteString(out, item.Preview)
		}
	}
}
