package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/mediaplan-go/internal/aggregate"
)

func newSummaryCmd() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Print every dashboard panel as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := load(args[0])
			if err != nil {
				return err
			}
			d, err := aggregate.BuildDashboard(cmd.Context(), recs, top)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}
	cmd.Flags().IntVar(&top, "top", aggregate.DefaultTopN, "Entries kept in ranked panels")
	return cmd
}

func newPanelCmd() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "panel <name> <file>",
		Short: "Print one panel as JSON",
		Long:  "Available panels: " + strings.Join(append(aggregate.PanelNames(), "kpi", "matrix"), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.ToLower(strings.TrimSpace(args[0]))
			var (
				fn aggregate.PanelFunc
				ok bool
			)
			if name != "kpi" && name != "matrix" {
				if fn, ok = aggregate.Panel(name); !ok {
					return fmt.Errorf("unknown panel %q", args[0])
				}
			}
			recs, err := load(args[1])
			if err != nil {
				return err
			}
			switch name {
			case "kpi":
				return printJSON(cmd.OutOrStdout(), aggregate.KPISummary(recs))
			case "matrix":
				return printJSON(cmd.OutOrStdout(), aggregate.Matrix(recs))
			}
			return printJSON(cmd.OutOrStdout(), fn(recs, top))
		},
	}
	cmd.Flags().IntVar(&top, "top", aggregate.DefaultTopN, "Entries kept in ranked panels (0 keeps all)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a file would be accepted as a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := load(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"valid": true, "records": len(recs)})
		},
	}
}
