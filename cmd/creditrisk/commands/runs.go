package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/audit"
	"github.com/wonny/aegis-credit/internal/report"
)

var (
	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "실행 이력 조회",
		Long: `PostgreSQL 에 기록된 파이프라인 실행 이력과 모델 레지스트리를 조회합니다.

Example:
  go run ./cmd/creditrisk runs list --limit 10
  go run ./cmd/creditrisk runs show <run-id>
  go run ./cmd/creditrisk runs model`,
	}

	runsListCmd = &cobra.Command{
		Use:   "list",
		Short: "최근 실행 목록",
		RunE:  runRunsList,
	}

	runsShowCmd = &cobra.Command{
		Use:   "show [run_id]",
		Short: "실행 상세 (JSON)",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsShow,
	}

	runsModelCmd = &cobra.Command{
		Use:   "model",
		Short: "최근 등록된 모델",
		RunE:  runRunsModel,
	}

	runsLimit int
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsModelCmd)

	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs")
}

func runRunsList(cmd *cobra.Command, args []string) error {
	db, _, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := audit.NewRepository(db.Pool).ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(w, runs)
	}

	widths := []int{36, 7, 8, 20, 7, 8, 10}
	PrintTableHeader(w, []string{"Run ID", "Command", "Status", "Started", "Rows", "AUC", "Coverage"}, widths)
	for _, r := range runs {
		PrintTableRow(w, []string{
			r.ID,
			r.Command,
			r.Status,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", r.Rows),
			optional(r.AUC, func(v float64) string { return fmt.Sprintf("%.4f", v) }),
			optional(r.CoverageRatio, report.FormatPct),
		}, widths)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	db, _, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := audit.NewRepository(db.Pool).GetRun(cmd.Context(), args[0])
	if errors.Is(err, audit.ErrNotFound) {
		return fmt.Errorf("run %s not found", args[0])
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), run)
}

func runRunsModel(cmd *cobra.Command, args []string) error {
	db, _, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := audit.NewRepository(db.Pool).LatestModel(cmd.Context())
	if errors.Is(err, audit.ErrNotFound) {
		return errors.New("no model registered yet")
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(w, m)
	}
	const kw = 14
	PrintKeyValue(w, "Fingerprint", m.Fingerprint, kw)
	PrintKeyValue(w, "Location", m.Location, kw)
	PrintKeyValue(w, "Train rows", fmt.Sprintf("%d", m.TrainRows), kw)
	PrintKeyValue(w, "Iterations", fmt.Sprintf("%d", m.Iterations), kw)
	PrintKeyValue(w, "AUC", optional(m.AUC, func(v float64) string { return fmt.Sprintf("%.4f", v) }), kw)
	PrintKeyValue(w, "Run ID", m.RunID, kw)
	PrintKeyValue(w, "Created", m.CreatedAt.Local().Format(time.RFC3339), kw)
	return nil
}

func optional(v *float64, format func(float64) string) string {
	if v == nil {
		return "-"
	}
	return format(*v)
}
