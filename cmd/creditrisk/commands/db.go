package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/audit"
	"github.com/wonny/aegis-credit/pkg/config"
	"github.com/wonny/aegis-credit/pkg/database"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "실행 이력 데이터베이스 관리",
		Long: `PostgreSQL (DATABASE_URL) 연결 확인 및 스키마 생성.

Subcommands:
  ping     - 연결 테스트 및 풀 통계
  migrate  - credit 스키마 생성 (runs, models)

Example:
  go run ./cmd/creditrisk db ping
  go run ./cmd/creditrisk db migrate`,
	}

	dbPingCmd = &cobra.Command{
		Use:   "ping",
		Short: "PostgreSQL 연결 테스트",
		RunE:  runDBPing,
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "credit 스키마 생성",
		RunE:  runDBMigrate,
	}
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbPingCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}

func connectDB() (*database.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("❌ Failed to load config: %w", err)
	}
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	return db, cfg, nil
}

func runDBPing(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "=== Aegis Credit Database Connection Test ===")

	db, cfg, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()
	PrintSuccess(w, fmt.Sprintf("Connected (ENV: %s, URL: %s)", cfg.Env, maskPassword(cfg.Database.URL)))

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	const kw = 20
	PrintSuccess(w, "Health Check Results:")
	PrintKeyValue(w, "Healthy", fmt.Sprintf("%v", status.Healthy), kw)
	PrintKeyValue(w, "Response Time", status.ResponseTime.String(), kw)
	PrintKeyValue(w, "Max Connections", fmt.Sprintf("%d", status.Stats.MaxConns), kw)
	PrintKeyValue(w, "Total Connections", fmt.Sprintf("%d", status.Stats.TotalConns), kw)
	PrintKeyValue(w, "Idle Connections", fmt.Sprintf("%d", status.Stats.IdleConns), kw)
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	db, _, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx, audit.Schema); err != nil {
		return fmt.Errorf("❌ Migration failed: %w", err)
	}
	PrintSuccess(w, fmt.Sprintf("Applied %d schema statements", len(audit.Schema)))
	return nil
}
