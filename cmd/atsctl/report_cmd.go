package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/export"
	"github.com/iota-uz/ats-console/pkg/lifecycle"
)

const dateLayout = "2006-01-02"

func newReportCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Lifecycle analytics for a workflow",
	}
	cmd.AddCommand(newWorkflowsCmd(flags))
	cmd.AddCommand(newStageAgingCmd(flags))
	cmd.AddCommand(newTimeToCloseCmd(flags))
	cmd.AddCommand(newBreakdownCmd(flags))
	return cmd
}

func newWorkflowsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			items, err := client.Workflows(cmd.Context())
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := writeJSONLine(cmd.OutOrStdout(), item); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

type stageAgingLine struct {
	backend.StageAgingItem
	Age     string `json:"age"`
	OverSLA bool   `json:"over_sla"`
}

type breachSummary struct {
	SLADays       int     `json:"sla_days"`
	Total         int     `json:"total"`
	BreachCount   int     `json:"breach_count"`
	BreachPercent float64 `json:"breach_percent"`
	Risk          string  `json:"risk"`
}

func newStageAgingCmd(flags *globalFlags) *cobra.Command {
	var (
		slaDays float64
		xlsx    string
	)
	cmd := &cobra.Command{
		Use:   "stage-aging <workflow-id>",
		Short: "Open applications by age with SLA breach flags",
		Long: "Prints one line per open application followed by a breach summary. " +
			"The SLA comes from the organization policy unless --sla-days is set.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			items, err := client.StageAging(ctx, backend.StageAgingParams{WorkflowID: args[0]})
			if err != nil {
				return err
			}
			if slaDays <= 0 {
				slaDays = policySLADays(ctx, client)
			}

			if xlsx != "" {
				data, err := export.NewExporter(export.DefaultOptions()).Export(ctx, &export.StageAgingSource{
					Items:   items,
					SLADays: slaDays,
					Labels:  export.DefaultStageAgingLabels(),
				})
				if err != nil {
					return err
				}
				return os.WriteFile(xlsx, data, 0o600)
			}

			out := cmd.OutOrStdout()
			for _, item := range items {
				line := stageAgingLine{
					StageAgingItem: item,
					Age:            lifecycle.FormatDuration(item.AgeSeconds),
					OverSLA:        lifecycle.Breached(item, slaDays),
				}
				if err := writeJSONLine(out, line); err != nil {
					return err
				}
			}
			breach := lifecycle.ComputeBreach(items, slaDays)
			return writeJSONLine(out, breachSummary{
				SLADays:       lifecycle.SafeSLADays(slaDays),
				Total:         breach.Total,
				BreachCount:   breach.BreachCount,
				BreachPercent: breach.BreachPercent,
				Risk:          string(lifecycle.Risk(breach.BreachPercent)),
			})
		},
	}
	cmd.Flags().Float64Var(&slaDays, "sla-days", 0, "override the policy SLA in days")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "write an Excel workbook to this path instead of JSON")
	return cmd
}

// policySLADays falls back to the default SLA when the policy is unreadable.
func policySLADays(ctx context.Context, client *backend.Client) float64 {
	policy, err := client.Policy(ctx)
	if err != nil || policy.StageAgingSLADays <= 0 {
		return lifecycle.DefaultSLADays
	}
	return policy.StageAgingSLADays
}

func newTimeToCloseCmd(flags *globalFlags) *cobra.Command {
	var result string
	cmd := &cobra.Command{
		Use:   "time-to-close <workflow-id>",
		Short: "Time from application to a closing decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := backend.TimeToCloseResult(result)
			if r != backend.ResultHired && r != backend.ResultRejected {
				return withCode(exitValidation, fmt.Errorf("--result must be hired or rejected, got %q", result))
			}
			client, err := flags.client()
			if err != nil {
				return err
			}
			stats, err := client.TimeToClose(cmd.Context(), backend.TimeToCloseParams{WorkflowID: args[0], Result: r})
			if err != nil {
				return err
			}
			return writeJSONLine(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVar(&result, "result", string(backend.ResultHired), "hired or rejected")
	return cmd
}

type breakdownLine struct {
	Stage          string   `json:"stage"`
	MedianSeconds  float64  `json:"median_seconds"`
	PreviousMedian *float64 `json:"previous_median_seconds"`
	DeltaSeconds   *float64 `json:"delta_seconds"`
	Trend          string   `json:"trend"`
	Bottleneck     bool     `json:"bottleneck,omitempty"`
}

func newBreakdownCmd(flags *globalFlags) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "breakdown <workflow-id>",
		Short: "Stage durations compared with the window before",
		Long: "Without --from/--to the last 30 days are compared with the 30 days before. " +
			"A custom range includes both days and is compared with the range of the same length right before it.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, previous, err := breakdownWindows(from, to, time.Now())
			if err != nil {
				return withCode(exitValidation, err)
			}
			client, err := flags.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cur, err := client.StageDurationBreakdown(ctx, args[0], current)
			if err != nil {
				return err
			}
			prev, err := client.StageDurationBreakdown(ctx, args[0], previous)
			if err != nil {
				return err
			}
			bottleneck := lifecycle.Bottleneck(cur)
			for _, row := range lifecycle.CompareBreakdown(cur, prev) {
				line := breakdownLine{
					Stage:          row.Stage,
					MedianSeconds:  row.MedianSeconds,
					PreviousMedian: row.PreviousMedian,
					DeltaSeconds:   row.Delta,
					Trend:          string(row.Trend),
					Bottleneck:     row.Stage == bottleneck,
				}
				if err := writeJSONLine(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	return cmd
}

func breakdownWindows(from, to string, now time.Time) (current, previous backend.Window, err error) {
	if from == "" && to == "" {
		current, previous = lifecycle.Windows(now)
		return current, previous, nil
	}
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return current, previous, fmt.Errorf("invalid --from %q", from)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return current, previous, fmt.Errorf("invalid --to %q", to)
	}
	if t.Before(f) {
		return current, previous, fmt.Errorf("--to is before --from")
	}
	current = backend.Window{From: f, To: t.Add(24 * time.Hour)}
	size := current.To.Sub(current.From)
	previous = backend.Window{From: current.From.Add(-size), To: current.From}
	return current, previous, nil
}
