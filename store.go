package fsds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists reconstructed statements and validation reports in
// Postgres, keyed by accession and statement role so a re-run replaces
// the previous result.
type Store struct {
	pool   *pgxpool.Pool
	schema string
	log    *slog.Logger
}

// NewStore connects to Postgres and pings it. schema defaults to public.
func NewStore(ctx context.Context, dsn, schema string, log *slog.Logger) (*Store, error) {
	if schema == "" {
		schema = "public"
	}
	if log == nil {
		log = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Store{pool: pool, schema: schema, log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, s.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.statement_rows (
			adsh        text NOT NULL,
			stmt        text NOT NULL,
			ordinal     integer NOT NULL,
			depth       integer NOT NULL,
			concept     text NOT NULL,
			label       text NOT NULL,
			abstract    boolean NOT NULL,
			value       double precision,
			display     double precision,
			formatted   text NOT NULL,
			uom         text NOT NULL DEFAULT '',
			ddate       text NOT NULL DEFAULT '',
			qtrs        integer NOT NULL DEFAULT -1,
			segments    text NOT NULL DEFAULT '',
			coreg       text NOT NULL DEFAULT '',
			PRIMARY KEY (adsh, stmt, ordinal)
		)`, s.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.validation_reports (
			adsh       text NOT NULL,
			stmt       text NOT NULL,
			report     jsonb NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (adsh, stmt)
		)`, s.schema),
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// WriteStatementRows replaces the stored rows for one (filing, statement)
// with the given reconstruction.
func (s *Store) WriteStatementRows(ctx context.Context, rows []StatementRow) error {
	if len(rows) == 0 {
		return nil
	}
	adsh, stmt := rows[0].Accession, rows[0].Role

	batch := &pgx.Batch{}
	batch.Queue(
		fmt.Sprintf(`DELETE FROM %s.statement_rows WHERE adsh = $1 AND stmt = $2`, s.schema),
		adsh, stmt,
	)
	insert := fmt.Sprintf(`INSERT INTO %s.statement_rows
		(adsh, stmt, ordinal, depth, concept, label, abstract, value, display, formatted, uom, ddate, qtrs, segments, coreg)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`, s.schema)
	for _, row := range rows {
		batch.Queue(insert,
			row.Accession, row.Role, row.Ordinal, row.Depth, row.Concept, row.Label,
			row.Abstract, row.Value, row.Display, row.Formatted, row.Unit,
			row.DDate, row.Qtrs, row.Segments, row.Coreg,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("storing rows for %s %s: %w", adsh, stmt, err)
		}
	}

	s.log.Debug("stored statement rows", "adsh", adsh, "stmt", stmt, "rows", len(rows))
	return nil
}

// WriteCoverageReport upserts the validation report for one statement.
func (s *Store) WriteCoverageReport(ctx context.Context, report *CoverageReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding coverage report: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s.validation_reports (adsh, stmt, report)
		VALUES ($1, $2, $3)
		ON CONFLICT (adsh, stmt) DO UPDATE SET report = EXCLUDED.report, created_at = now()`, s.schema)
	if _, err := s.pool.Exec(ctx, query, report.Accession, report.Role, payload); err != nil {
		return fmt.Errorf("storing coverage report for %s %s: %w", report.Accession, report.Role, err)
	}
	return nil
}
