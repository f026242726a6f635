package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/pipeline"
	"github.com/wonny/aegis-credit/internal/report"
	"github.com/wonny/aegis-credit/internal/scheduler"
	"github.com/wonny/aegis-credit/internal/scheduler/jobs"
)

var (
	scheduleCmd = &cobra.Command{
		Use:   "schedule",
		Short: "정기 재스코어링 스케줄러 시작",
		Long: `저장된 모델로 포트폴리오를 cron 스케줄에 따라 재스코어링합니다.
실패한 실행은 이력에 기록되며 재시도하지 않습니다.

METRICS_TEXTFILE 이 설정되어 있으면 매 분 textfile 을 갱신합니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/creditrisk schedule
  go run ./cmd/creditrisk schedule --cron "@every 1h" --now`,
		RunE: runSchedule,
	}

	scheduleSpec    string
	scheduleTimeout time.Duration
	scheduleNow     bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "", "cron spec (default: CREDIT_SCHEDULE)")
	scheduleCmd.Flags().DurationVar(&scheduleTimeout, "timeout", 10*time.Minute, "per-run timeout")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run once immediately after start")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	spec := scheduleSpec
	if spec == "" {
		spec = a.cfg.Credit.Schedule
	}
	if err := scheduler.ValidateSchedule(spec); err != nil {
		return err
	}

	o, err := a.orchestrator()
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	w := cmd.OutOrStdout()
	hook := func(res *pipeline.RunResult) error {
		a.flushMetrics()
		if jsonOutput {
			return report.RenderJSON(w, res.Report)
		}
		return report.Render(w, res.Report)
	}

	sched := scheduler.New(a.log, scheduleTimeout)
	rescore := jobs.NewRescoreJob(o, a.cfg.Credit.DataPath, spec, hook, a.log)
	if err := sched.AddJob(rescore); err != nil {
		return err
	}
	if a.recorder != nil && a.cfg.MetricsTextfile != "" {
		export := jobs.NewMetricsExportJob(a.recorder, a.cfg.MetricsTextfile, "@every 1m", a.log)
		if err := sched.AddJob(export); err != nil {
			return err
		}
	}

	sched.Start()
	defer sched.Stop()

	fmt.Fprintln(w, "=== Aegis Credit Scheduler ===")
	for _, name := range sched.GetAllJobs() {
		next, _ := sched.NextRun(name)
		PrintKeyValue(w, name, fmt.Sprintf("next %s", next.Format(time.RFC3339)), 20)
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if scheduleNow {
		if _, err := sched.RunNow(ctx, rescore.Name()); err != nil {
			return err
		}
	}

	<-ctx.Done()

	fmt.Fprintln(w, "\nShutting down scheduler...")
	for name, st := range sched.GetJobStats() {
		PrintKeyValue(w, name, fmt.Sprintf("%d runs, %d failed", st.TotalRuns, st.FailureCount), 20)
	}
	return nil
}
