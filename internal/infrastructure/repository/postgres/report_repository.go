package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// ReportRepository persists assembled reports in Postgres. Save runs once at
// the end of a pipeline run; lookups and listings are the API's read path.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026072101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	cik TEXT NOT NULL,
	company_name TEXT,
	accession TEXT NOT NULL,
	filing_type TEXT NOT NULL,
	sic TEXT,
	sic_description TEXT,
	key_tone TEXT NOT NULL,
	top_risks JSONB NOT NULL DEFAULT '[]'::jsonb,
	financial_highlights JSONB NOT NULL DEFAULT '[]'::jsonb,
	comparables JSONB NOT NULL DEFAULT '[]'::jsonb,
	narrative TEXT NOT NULL DEFAULT '',
	warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
	sources JSONB NOT NULL DEFAULT '[]'::jsonb,
	generated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_cik_generated_at ON reports(cik, generated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ReportRepository) Save(ctx context.Context, report *domain.Report) error {
	risks, err := marshalColumn("top_risks", report.TopRisks)
	if err != nil {
		return err
	}
	highlights, err := marshalColumn("financial_highlights", report.FinancialHighlights)
	if err != nil {
		return err
	}
	comparables, err := marshalColumn("comparables", report.Comparables)
	if err != nil {
		return err
	}
	warnings, err := marshalColumn("warnings", report.Warnings)
	if err != nil {
		return err
	}
	sources, err := marshalColumn("sources", report.Sources)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO reports (
	id, cik, company_name, accession, filing_type, sic, sic_description,
	key_tone, top_risks, financial_highlights, comparables, narrative, warnings, sources, generated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		report.ID, report.CIK, report.CompanyName, report.Accession, report.FilingType,
		report.SIC, report.SICDesc, string(report.KeyTone), risks, highlights, comparables,
		report.Narrative, warnings, sources, report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

const selectReportColumns = `
SELECT id, cik, company_name, accession, filing_type, sic, sic_description,
	key_tone, top_risks, financial_highlights, comparables, narrative, warnings, sources, generated_at
FROM reports`

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, selectReportColumns+`
WHERE id = $1
`, id)

	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFilingNotFound, "lookup report", err)
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return report, nil
}

func (r *ReportRepository) ListByCIK(ctx context.Context, cik string, limit int) ([]domain.Report, error) {
	rows, err := r.db.QueryContext(ctx, selectReportColumns+`
WHERE cik = $1
ORDER BY generated_at DESC
LIMIT $2
`, cik, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var report domain.Report
	var tone string
	var risks, highlights, comparables, warnings, sources []byte

	err := row.Scan(
		&report.ID, &report.CIK, &report.CompanyName, &report.Accession, &report.FilingType,
		&report.SIC, &report.SICDesc, &tone, &risks, &highlights, &comparables,
		&report.Narrative, &warnings, &sources, &report.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}

	report.KeyTone = domain.Tone(tone)
	if err := unmarshalColumn("top_risks", risks, &report.TopRisks); err != nil {
		return nil, err
	}
	if err := unmarshalColumn("financial_highlights", highlights, &report.FinancialHighlights); err != nil {
		return nil, err
	}
	if err := unmarshalColumn("comparables", comparables, &report.Comparables); err != nil {
		return nil, err
	}
	if err := unmarshalColumn("warnings", warnings, &report.Warnings); err != nil {
		return nil, err
	}
	if err := unmarshalColumn("sources", sources, &report.Sources); err != nil {
		return nil, err
	}
	return &report, nil
}

func marshalColumn(column string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", column, err)
	}
	return data, nil
}

func unmarshalColumn(column string, data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", column, err)
	}
	return nil
}
