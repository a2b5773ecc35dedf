package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/uninstall"
)

var isTerminal = func(fd int) bool { return term.IsTerminal(fd) }

func newUninstallCmd(opts *rootOptions) *cobra.Command {
	var (
		dryRun     bool
		confirm    string
		skipBackup bool
	)
	cmd := &cobra.Command{
		Use:   messages.UninstallUse,
		Short: messages.UninstallShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}
			engine := uninstall.NewEngine()
			plan, err := engine.Plan(root.Path)
			if err != nil {
				return err
			}
			if dryRun {
				printPlan(out, plan)
				return nil
			}
			if len(plan.Items) == 0 {
				_, _ = fmt.Fprintln(out, messages.UninstallNothingToRemove)
				return nil
			}

			token := strings.TrimSpace(confirm)
			if token == "" {
				token, err = promptConfirm(cmd.InOrStdin(), out, plan.ConfirmToken)
				if err != nil {
					return err
				}
			}
			report, err := engine.Execute(root.Path, plan, uninstall.Options{
				Confirm:    token,
				SkipBackup: skipBackup,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, messages.UninstallRemovedFmt, len(report.Removed), root.Path)
			if len(report.RemovedDirs) > 0 {
				_, _ = fmt.Fprintf(out, messages.UninstallDirsFmt, len(report.RemovedDirs))
			}
			if report.BackupRef != "" {
				_, _ = fmt.Fprintf(out, messages.UninstallBackupFmt, report.BackupRef)
			}
			if !report.Success {
				for _, failure := range report.Failed {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), failure.Err)
				}
				return errors.New(messages.CLIPartialFailure)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, messages.FlagDryRunDesc)
	cmd.Flags().StringVar(&confirm, "confirm", "", messages.FlagConfirmDesc)
	cmd.Flags().BoolVar(&skipBackup, "skip-backup", false, messages.FlagSkipBackupDesc)
	return cmd
}

// promptConfirm asks for the confirmation token on an interactive terminal.
// Without a terminal the token must come from --confirm.
func promptConfirm(in io.Reader, out io.Writer, want string) (string, error) {
	if !isTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf(messages.CLIConfirmNonInteractiveFmt, want)
	}
	_, _ = fmt.Fprintf(out, messages.CLIConfirmPromptFmt, want)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return "", errors.New(messages.CLIConfirmMismatch)
	}
	got := strings.TrimSpace(scanner.Text())
	if got != want {
		return "", errors.New(messages.CLIConfirmMismatch)
	}
	return got, nil
}

func printPlan(out io.Writer, plan uninstall.Plan) {
	_, _ = fmt.Fprintln(out, messages.CLIDryRunHeader)
	for _, item := range plan.Items {
		_, _ = fmt.Fprintf(out, messages.UninstallPlanLineFmt, item.RelPath)
	}
	if len(plan.Rejected) > 0 {
		_, _ = fmt.Fprintln(out, messages.UninstallRejectedHeader)
		for _, item := range plan.Rejected {
			_, _ = fmt.Fprintf(out, messages.UninstallSkipLineFmt, item.RelPath, item.Reason)
		}
	}
	if len(plan.Skipped) > 0 {
		_, _ = fmt.Fprintln(out, messages.UninstallSkippedHeader)
		for _, item := range plan.Skipped {
			_, _ = fmt.Fprintf(out, messages.UninstallSkipLineFmt, item.RelPath, item.Reason)
		}
	}
}
