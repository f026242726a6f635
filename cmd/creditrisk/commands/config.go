package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/riskconfig"
	"github.com/wonny/aegis-credit/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "유효 리스크 파라미터 출력",
	Long: `기본값이 적용된 리스크 파라미터(YAML)와 config hash 를 출력합니다.
권장 위반은 경고로 표시됩니다.

Example:
  go run ./cmd/creditrisk config --risk-config risk.yaml`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	env, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(env)

	cfg, err := riskconfig.Load(env.Credit.RiskConfigPath)
	if err != nil {
		return err
	}

	data, err := riskconfig.YAML(cfg)
	if err != nil {
		return err
	}
	hash, err := riskconfig.Hash(cfg)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "# config hash: %s\n", hash)
	fmt.Fprint(w, string(data))
	for _, warn := range riskconfig.Warn(cfg) {
		PrintWarning(w, fmt.Sprintf("%s: %s", warn.Code, warn.Message))
	}
	return nil
}
