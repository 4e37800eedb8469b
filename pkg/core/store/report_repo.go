package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"valuation_engine/pkg/core/pipeline"
)

// ReportRepo stores ValuationReports as JSONB rows keyed by run ID, with the
// ticker indexed for history queries. Implements pipeline.ReportRepository.
type ReportRepo struct{}

// NewReportRepo creates a new repository instance.
func NewReportRepo() *ReportRepo {
	return &ReportRepo{}
}

// EnsureSchema creates the reports table when it does not exist yet.
func (r *ReportRepo) EnsureSchema(ctx context.Context) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	query := `
		CREATE TABLE IF NOT EXISTS valuation_reports (
			run_id UUID PRIMARY KEY,
			ticker TEXT NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			report_json JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS valuation_reports_ticker_idx
			ON valuation_reports (ticker, generated_at DESC);
	`
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveReport persists one completed report. Reports are immutable, so this is
// a plain insert rather than an upsert.
func (r *ReportRepo) SaveReport(ctx context.Context, report *pipeline.ValuationReport) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		INSERT INTO valuation_reports (run_id, ticker, generated_at, report_json)
		VALUES ($1, $2, $3, $4);
	`
	if _, err := pool.Exec(ctx, query, report.RunID, report.Ticker, report.GeneratedAt, jsonData); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// LoadLatest retrieves the most recent report for a ticker.
func (r *ReportRepo) LoadLatest(ctx context.Context, ticker string) (*pipeline.ValuationReport, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT report_json FROM valuation_reports
		WHERE ticker = $1
		ORDER BY generated_at DESC
		LIMIT 1;
	`
	var jsonData []byte
	err := pool.QueryRow(ctx, query, ticker).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no report found for ticker %s", ticker)
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	var report pipeline.ValuationReport
	if err := json.Unmarshal(jsonData, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}
