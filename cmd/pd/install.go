package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/bundle"
	"github.com/promptdeck/promptdeck/internal/install"
	"github.com/promptdeck/promptdeck/internal/messages"
)

func newInstallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.InstallUse,
		Short: messages.InstallShort,
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
			logger.Debug("resolved install target", "root", root.Path, "bundle", bundleDir)

			result, err := install.NewEngine(nil).Install(bundleDir, root)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, messages.InstallDoneFmt, result.FilesCopied, root.Path)
			if result.Version != "" {
				_, _ = fmt.Fprintf(out, messages.InstallVersionFmt, result.Version)
			}
			return nil
		},
	}
}
