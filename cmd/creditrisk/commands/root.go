package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	riskConfigFile string
	dataPath       string
	modelPath      string
	jsonOutput     bool
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "creditrisk",
	Short: "Aegis Credit - 소비자 신용 포트폴리오 PD/EL 스코어링",
	Long: `Aegis Credit Unified CLI

로지스틱 PD 모델 학습, 판별력 평가(AUC/Gini),
계약별 Expected Loss (PD × LGD × EAD) 집계 및 경영진 리포트.

Usage:
  go run ./cmd/creditrisk [command]

Examples:
  go run ./cmd/creditrisk train --data dados_credito.csv
  go run ./cmd/creditrisk run
  go run ./cmd/creditrisk score --data book.csv --json
  go run ./cmd/creditrisk schedule --cron "0 6 * * *"`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags (비어 있으면 환경변수 값 사용)
	rootCmd.PersistentFlags().StringVar(&riskConfigFile, "risk-config", "", "risk parameters YAML (default: CREDIT_RISK_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "contracts CSV (default: CREDIT_DATA_PATH)")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "model JSON path (default: CREDIT_MODEL_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
