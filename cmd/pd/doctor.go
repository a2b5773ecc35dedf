package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/health"
	"github.com/promptdeck/promptdeck/internal/messages"
)

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.DoctorUse,
		Short: messages.DoctorShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, messages.DoctorHeaderFmt, root.Path)

			results := health.RunAll(root.Path)
			hasFail := false
			for _, r := range results {
				printResult(out, r)
				if r.Status == health.StatusFail {
					hasFail = true
				}
			}
			if hasFail {
				_, _ = fmt.Fprintln(out, color.RedString(messages.DoctorFailureSummary))
				return errors.New(messages.DoctorFailureError)
			}
			_, _ = fmt.Fprintln(out, color.GreenString(messages.DoctorSuccessSummary))
			return nil
		},
	}
}

func printResult(out io.Writer, r health.Result) {
	var status string
	switch r.Status {
	case health.StatusOK:
		status = color.GreenString(messages.DoctorStatusOKLabel)
	case health.StatusWarn:
		status = color.YellowString(messages.DoctorStatusWarnLabel)
	case health.StatusFail:
		status = color.RedString(messages.DoctorStatusFailLabel)
	}
	_, _ = fmt.Fprintf(out, messages.DoctorResultLineFmt, status, r.CheckName, r.Message)
	if r.Recommendation != "" {
		printRecommendation(out, r.Recommendation)
	}
}

// printRecommendation renders a multi-line recommendation with consistent
// indentation.
func printRecommendation(out io.Writer, recommendation string) {
	for _, line := range strings.Split(recommendation, "\n") {
		_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationPrefix, line)
	}
}
