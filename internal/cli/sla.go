package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/persistence"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	"github.com/spec-kit/ticket-lifecycle/internal/sla"
)

var (
	slaFrom     string
	slaTo       string
	slaCategory string
)

func init() {
	for _, c := range []*cobra.Command{slaReportCmd, slaRecomputeCmd} {
		c.Flags().StringVar(&slaFrom, "from", "", "Period start (RFC3339 or YYYY-MM-DD, default 30 days before --to)")
		c.Flags().StringVar(&slaTo, "to", "", "Period end, exclusive (RFC3339 or YYYY-MM-DD, default now)")
	}
	slaReportCmd.Flags().StringVarP(&slaCategory, "category", "c", "", "Restrict to one category")

	slaCmd.AddCommand(slaReportCmd, slaRecomputeCmd)
	rootCmd.AddCommand(slaCmd)
}

var slaCmd = &cobra.Command{
	Use:   "sla",
	Short: "SLA compliance reporting",
}

var slaReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print SLA compliance for tickets resolved in a period",
	Example: `  ticketctl sla report --from 2026-01-01 --to 2026-02-01
  ticketctl sla report --category incident --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := parsePeriod(slaFrom, slaTo, time.Now())
		if err != nil {
			return err
		}
		var category *string
		if c := strings.TrimSpace(slaCategory); c != "" {
			category = &c
		}
		return withPostgres(cmd, func(e *env, pg *persistence.Postgres) error {
			svc := service.NewSLAService(repository.NewPostgresStore(pg.Pool).SLA, e.logger)
			report, err := svc.Compliance(cmd.Context(), period.Start, period.End, category)
			if err != nil {
				return err
			}
			if jsonOut {
				return outputJSON(cmd.OutOrStdout(), dto.NewComplianceResponse(report))
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		})
	},
}

var slaRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute and store SLA violations for a period",
	Long: `Recompute evaluates every ticket resolved in the period against its SLA
rule and upserts the violations. Running it repeatedly over the same period
is safe; it is meant to be driven by cron.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := parsePeriod(slaFrom, slaTo, time.Now())
		if err != nil {
			return err
		}
		return withPostgres(cmd, func(e *env, pg *persistence.Postgres) error {
			svc := service.NewSLAService(repository.NewPostgresStore(pg.Pool).SLA, e.logger)
			result, err := svc.Recompute(cmd.Context(), period.Start, period.End)
			if err != nil {
				return err
			}
			if jsonOut {
				return outputJSON(cmd.OutOrStdout(), map[string]any{
					"report":  dto.NewComplianceResponse(result.Report),
					"written": result.Written,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d violation(s) written\n", result.Written)
			printReport(cmd.OutOrStdout(), result.Report)
			return nil
		})
	},
}

// parsePeriod resolves the --from/--to flags. Bare dates are midnight UTC.
func parsePeriod(from, to string, now time.Time) (sla.Period, error) {
	end := now.UTC()
	if strings.TrimSpace(to) != "" {
		t, err := parseInstant(to)
		if err != nil {
			return sla.Period{}, fmt.Errorf("invalid --to: %w", err)
		}
		end = t
	}
	start := end.AddDate(0, 0, -30)
	if strings.TrimSpace(from) != "" {
		t, err := parseInstant(from)
		if err != nil {
			return sla.Period{}, fmt.Errorf("invalid --from: %w", err)
		}
		start = t
	}
	if !start.Before(end) {
		return sla.Period{}, fmt.Errorf("--from must be before --to")
	}
	return sla.Period{Start: start, End: end}, nil
}

func parseInstant(val string) (time.Time, error) {
	val = strings.TrimSpace(val)
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", val)
}

func printReport(w io.Writer, report sla.Report) {
	fmt.Fprintf(w, "Period:      %s .. %s\n", report.Period.Start.Format(time.RFC3339), report.Period.End.Format(time.RFC3339))
	if report.Category != nil {
		fmt.Fprintf(w, "Category:    %s\n", *report.Category)
	}
	fmt.Fprintf(w, "Compliance:  %.1f%%\n", report.OverallCompliance)
	fmt.Fprintf(w, "Tickets:     %d (%d with rule)\n", report.TotalTickets, report.TicketsWithRule)
	fmt.Fprintf(w, "Violations:  %d\n", report.TotalViolations)
	for _, cs := range report.ByCategory {
		fmt.Fprintf(w, "  %-20s %5.1f%%  %d/%d  avg %.0fm (target %dm)\n",
			cs.Category, cs.Compliance, cs.Tickets-cs.Violations, cs.Tickets, cs.AvgElapsedMinutes, cs.TargetMinutes)
	}
	for _, v := range report.Violations {
		fmt.Fprintf(w, "  ! %s %s +%dm\n", v.TicketID, v.Category, v.ViolationMinutes)
	}
}
