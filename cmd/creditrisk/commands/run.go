package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/pipeline"
	"github.com/wonny/aegis-credit/internal/report"
)

var (
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "전체 파이프라인 실행 (학습 → 평가 → 저장 → 스코어링 → 리포트)",
		Long: `레이블이 있는 계약 CSV로 전체 파이프라인을 실행합니다.

load → validate → split → train → evaluate → save → score → simulate → report

스코어링 대상은 risk.scoring_set 으로 결정됩니다:
- holdout (기본): 학습에 사용하지 않은 검증 구간만
- full: 전체 데이터셋 (학습 행 포함, PD 과소추정 가능)

Example:
  go run ./cmd/creditrisk run
  go run ./cmd/creditrisk run --data dados_credito.csv --risk-config risk.yaml`,
		RunE: runPipeline,
	}

	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "모델 학습 및 저장",
		Long: `학습/검증 분할 후 PD 모델을 학습하고 저장합니다.
검증 구간의 AUC/Gini 와 분류 리포트를 출력합니다.

Example:
  go run ./cmd/creditrisk train --model credit_model.json`,
		RunE: runTrain,
	}

	scoreCmd = &cobra.Command{
		Use:   "score",
		Short: "저장된 모델로 포트폴리오 스코어링",
		Long: `저장된 모델로 CSV 의 모든 계약을 스코어링하고 리포트를 출력합니다.
레이블(defaulted) 컬럼은 필요하지 않습니다.

Example:
  go run ./cmd/creditrisk score --data book.csv
  go run ./cmd/creditrisk score --data book.csv --json`,
		RunE: runScore,
	}
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(scoreCmd)
}

type pipelineFunc func(o *pipeline.Orchestrator, cmd *cobra.Command, path string) (*pipeline.RunResult, error)

func runPipeline(cmd *cobra.Command, args []string) error {
	return execute(cmd, func(o *pipeline.Orchestrator, cmd *cobra.Command, path string) (*pipeline.RunResult, error) {
		return o.Run(cmd.Context(), path)
	})
}

func runTrain(cmd *cobra.Command, args []string) error {
	return execute(cmd, func(o *pipeline.Orchestrator, cmd *cobra.Command, path string) (*pipeline.RunResult, error) {
		return o.Train(cmd.Context(), path)
	})
}

func runScore(cmd *cobra.Command, args []string) error {
	return execute(cmd, func(o *pipeline.Orchestrator, cmd *cobra.Command, path string) (*pipeline.RunResult, error) {
		return o.Score(cmd.Context(), path)
	})
}

func execute(cmd *cobra.Command, fn pipelineFunc) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	o, err := a.orchestrator()
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	result, err := fn(o, cmd, a.cfg.Credit.DataPath)
	if err != nil {
		return fmt.Errorf("%s failed: %w", cmd.Name(), err)
	}

	return printResult(os.Stdout, result, jsonOutput)
}

// printResult writes the report (or the training summary when nothing was scored)
func printResult(w io.Writer, result *pipeline.RunResult, asJSON bool) error {
	if result.Report != nil {
		if asJSON {
			return report.RenderJSON(w, result.Report)
		}
		if err := report.Render(w, result.Report); err != nil {
			return err
		}
		PrintRunFooter(w, result)
		return nil
	}

	if asJSON {
		return writeJSON(w, trainingSummaryOf(result))
	}
	PrintTrainingSummary(w, result)
	PrintRunFooter(w, result)
	return nil
}
