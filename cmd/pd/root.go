package main

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/config"
	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/scope"
)

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	global    bool
	project   string
	bundleDir string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&opts.global, "global", false, messages.FlagGlobalDesc)
	cmd.PersistentFlags().StringVar(&opts.project, "project", "", messages.FlagProjectDesc)
	cmd.PersistentFlags().StringVar(&opts.bundleDir, "bundle", "", messages.FlagBundleDesc)
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, messages.FlagVerboseDesc)

	cmd.AddCommand(newInstallCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newRepairCmd(opts))
	cmd.AddCommand(newUninstallCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newBackupsCmd(opts))
	return cmd
}

// resolveRoot maps the persistent scope flags to a concrete root. The
// project-local scope is the default.
func (o *rootOptions) resolveRoot() (scope.Root, error) {
	if o.global && o.project != "" {
		return scope.Root{}, errors.New(messages.CLIScopeConflict)
	}
	if o.global {
		return scope.Resolve(scope.Global, "")
	}
	return scope.Resolve(scope.Local, o.project)
}

// loadSettings reads the root's optional config file; a missing file means
// defaults.
func (o *rootOptions) loadSettings(root scope.Root) (config.Settings, error) {
	return config.Load(root.Path)
}

func (o *rootOptions) newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: false})
	if o.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
