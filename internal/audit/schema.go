package audit

// Schema credit 스키마 DDL (idempotent)
// ⭐ SSOT: 테이블 정의는 여기서만
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS credit`,
	`CREATE TABLE IF NOT EXISTS credit.runs (
		id                UUID PRIMARY KEY,
		command           TEXT NOT NULL,
		status            TEXT NOT NULL,
		started_at        TIMESTAMPTZ NOT NULL,
		finished_at       TIMESTAMPTZ NOT NULL,
		data_source       TEXT NOT NULL,
		config_hash       TEXT NOT NULL,
		model_fingerprint TEXT,
		rows              INT NOT NULL,
		auc               DOUBLE PRECISION,
		gini              DOUBLE PRECISION,
		total_ead         DOUBLE PRECISION NOT NULL,
		total_el          DOUBLE PRECISION NOT NULL,
		avg_pd            DOUBLE PRECISION NOT NULL,
		coverage_ratio    DOUBLE PRECISION,
		error             TEXT,
		events            JSONB NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON credit.runs (started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS credit.models (
		fingerprint   TEXT PRIMARY KEY,
		location      TEXT NOT NULL,
		feature_order TEXT[] NOT NULL,
		train_rows    INT NOT NULL,
		iterations    INT NOT NULL,
		final_loss    DOUBLE PRECISION NOT NULL,
		auc           DOUBLE PRECISION,
		run_id        UUID,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
