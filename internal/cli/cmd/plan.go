package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"versereel/internal/director"
	"versereel/internal/model"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan <customer>",
		Short:         "Show which clip, track and font each video would get, without rendering",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := assembleBatchInputs(cmd, args)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			lib, err := a.loadLibrary()
			if err != nil {
				return err
			}
			if err := in.resolveCount(len(lib.Quotes)); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			svc := director.NewService(a.serviceOptions("", in.Seed)...)
			plan, err := svc.Plan(model.BatchRequest{Customer: in.Customer, Count: in.Count, Library: lib})
			if err != nil {
				return batchExit(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Output: %s\n\n", director.CustomerDir(a.settings.OutDir, in.Customer))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tREFERENCE\tCLIP\tTRACK\tFONT\tOUTPUT")
			for _, p := range plan {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s (%d)\t%s\n",
					p.Index, p.Quote.Reference, p.Clip, p.Track, p.Font.Path, p.Font.Size, p.OutputName)
			}
			return tw.Flush()
		},
	}
	// Plan ignores --on-error and --no-ui.
	bindBatchFlags(cmd.Flags())
	return cmd
}
