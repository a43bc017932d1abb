package load

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"sirene/internal/derive"
	"sirene/internal/schema"
)

//go:embed schema.sql
var warehouseDDL string

// Engine merges fragments into Postgres. The database handle is injected;
// the engine holds no credentials or global state.
type Engine struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine constructs a Postgres-backed load engine.
func NewEngine(db *sql.DB, opts ...Option) (*Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	e := &Engine{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EnsureSchema creates the warehouse relations when absent: the modeled
// tables from the embedded DDL, plus the wide mirror and staging tables
// generated from the canonical column lists.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, warehouseDDL); err != nil {
		return fmt.Errorf("create warehouse tables: %w", err)
	}
	wide := []struct {
		name string
		cols []string
		key  string
	}{
		{legalStagingTable, legalColumns, ""},
		{legalLiveTable, legalColumns, "company_number"},
		{etabStagingTable, etabColumns, ""},
		{etabLiveTable, etabColumns, "siret"},
	}
	for _, t := range wide {
		if _, err := db.ExecContext(ctx, createTextTable(t.name, t.cols, t.key)); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}
	return nil
}

func createTextTable(name string, cols []string, key string) string {
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		def := quoteIdent(c) + " TEXT"
		if c == key {
			def += " PRIMARY KEY"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
}

// LoadLegalUnits runs the legal-unit fragment protocol: stage, upsert
// organisation, upsert NAF mappings, upsert the mirror table, truncate
// staging. Each upsert is a single atomic set-based statement.
func (e *Engine) LoadLegalUnits(ctx context.Context, t *schema.Table, mode StageMode) error {
	if err := e.stage(ctx, legalStagingTable, t, mode); err != nil {
		return err
	}

	if err := e.exec(ctx, "organisation upsert", upsertOrganisationSQL); err != nil {
		return err
	}
	if err := e.exec(ctx, "naf_code upsert", upsertNafCodeSQL); err != nil {
		return err
	}
	liveSQL := upsertMirrorSQL(legalLiveTable, legalStagingTable, legalColumns, "company_number")
	if err := e.exec(ctx, "stocklegal upsert", liveSQL); err != nil {
		return err
	}
	return e.truncate(ctx, legalStagingTable)
}

// LoadEstablishments runs the establishment fragment protocol: stage,
// upsert geolocation, upsert the mirror table, truncate staging.
func (e *Engine) LoadEstablishments(ctx context.Context, t *schema.Table, mode StageMode) error {
	if err := e.stage(ctx, etabStagingTable, t, mode); err != nil {
		return err
	}

	if err := e.exec(ctx, "geo_location upsert", upsertGeoLocationSQL); err != nil {
		return err
	}
	liveSQL := upsertMirrorSQL(etabLiveTable, etabStagingTable, etabColumns, "siret")
	if err := e.exec(ctx, "stocketab upsert", liveSQL); err != nil {
		return err
	}
	return e.truncate(ctx, etabStagingTable)
}

// LoadNafCodeCounts aggregates the active NAFRev2 units in the legal mirror
// by activity code and upserts one count row per code for the given stock
// period. Codes absent from the translation table produce no row.
func (e *Engine) LoadNafCodeCounts(ctx context.Context, fileDate string) error {
	rows, err := e.db.QueryContext(ctx, selectNafCountsSQL)
	if err != nil {
		return &Error{Op: "aggregate naf counts", Err: err}
	}
	defer rows.Close()

	type codeCount struct {
		code string
		n    int64
	}
	var counts []codeCount
	for rows.Next() {
		var c codeCount
		if err := rows.Scan(&c.code, &c.n); err != nil {
			return &Error{Op: "scan naf count", Err: err}
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return &Error{Op: "aggregate naf counts", Err: err}
	}

	merged := 0
	for _, c := range counts {
		id := derive.NafCountKey(c.code, fileDate)
		res, err := e.db.ExecContext(ctx, upsertNafCountSQL, id, c.code, c.n, fileDate)
		if err != nil {
			return &Error{Op: "isic_code_counts upsert", Err: err}
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			merged++
		}
	}
	e.logger.Info("naf code counts merged",
		"file_date", fileDate, "codes", len(counts), "merged", merged)
	return nil
}

// stage bulk-copies the table into staging. Replace mode clears staging
// first; append mode accumulates (used when a whole file loads as one
// sequence of fragments into an already-cleared staging relation).
func (e *Engine) stage(ctx context.Context, table string, t *schema.Table, mode StageMode) error {
	if mode == StageReplace {
		if err := e.truncate(ctx, table); err != nil {
			return err
		}
	}

	start := time.Now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "begin staging tx", Err: err}
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, t.Columns()...))
	if err != nil {
		return &Error{Op: "prepare copy into " + table, Err: err}
	}
	for _, row := range t.Rows() {
		args := make([]interface{}, len(row))
		for i, cell := range row {
			args[i] = cell
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return &Error{Op: "copy row into " + table, Err: err}
		}
	}
	// Flush the copy buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		return &Error{Op: "flush copy into " + table, Err: err}
	}
	if err := stmt.Close(); err != nil {
		return &Error{Op: "close copy into " + table, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &Error{Op: "commit staging tx", Err: err}
	}

	e.logger.Debug("fragment staged",
		"table", table, "rows", t.Len(), "mode", mode.String(),
		"seconds", time.Since(start).Seconds())
	return nil
}

func (e *Engine) exec(ctx context.Context, op, query string) error {
	start := time.Now()
	res, err := e.db.ExecContext(ctx, query)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	affected, _ := res.RowsAffected()
	e.logger.Debug("merge statement executed",
		"op", op, "rows", affected, "seconds", time.Since(start).Seconds())
	return nil
}

func (e *Engine) truncate(ctx context.Context, table string) error {
	if _, err := e.db.ExecContext(ctx, "TRUNCATE TABLE "+quoteIdent(table)); err != nil {
		return &Error{Op: "truncate " + table, Err: err}
	}
	return nil
}

// upsertOrganisationSQL merges staged legal units into the durable
// organisation relation, keyed by the derived organization id. Last writer
// wins on every overwritable column.
const upsertOrganisationSQL = `
INSERT INTO organisation (
    id, company_number, company_name, company_status, country,
    date_formed, company_type, last_modified_by, last_modified_date, country_code)
SELECT
    id, company_number, "LegalEntityName", company_status, country,
    NULLIF("DateCreated", '')::date, company_type, last_modified_by,
    last_modified_date::timestamp, 'FR'
FROM sirene_stocklegal_staging
ON CONFLICT (id) DO UPDATE SET
    company_name       = EXCLUDED.company_name,
    company_status     = EXCLUDED.company_status,
    company_type       = EXCLUDED.company_type,
    last_modified_by   = EXCLUDED.last_modified_by,
    last_modified_date = EXCLUDED.last_modified_date`

// upsertNafCodeSQL joins staged units to the static translation table;
// units with unmapped codes produce no mapping row.
const upsertNafCodeSQL = `
INSERT INTO naf_code (code, organisation_id, name_en, name_fr, last_modified_date, last_modified_by)
SELECT
    s."NAFCategory", s.id, t.name_en, t.name_fr,
    s.last_modified_date::timestamp, s.last_modified_by
FROM sirene_stocklegal_staging s
INNER JOIN naf_code_translations t ON s."NAFCategory" = t.code
ON CONFLICT (code, organisation_id) DO UPDATE SET
    last_modified_date = now(),
    last_modified_by   = 'stock legal pipeline update'`

// upsertGeoLocationSQL merges staged establishments into the geolocation
// relation keyed by the content-addressed geo hash. Only address and
// classification columns are overwritten on conflict; the key and owning
// organisation never are. DISTINCT ON keeps one row per key per batch,
// since several establishments of one unit can share a postcode.
const upsertGeoLocationSQL = `
INSERT INTO geo_location (
    geo_hash, address_1, address_2, town, country, post_code,
    address_type, organisation_id, post_code_formatted,
    date_last_modified, last_modified_by)
SELECT DISTINCT ON (geo_hash)
    geo_hash, address_line_1, address_line_2, "AddressMunicipalityLabel",
    'France', "AddressPostcode", registered_office_type, id,
    "AddressPostcode", CURRENT_DATE, 'sirene_etab insert'
FROM sirene_stocketab_staging
ON CONFLICT (geo_hash) DO UPDATE SET
    address_1           = EXCLUDED.address_1,
    address_2           = EXCLUDED.address_2,
    town                = EXCLUDED.town,
    post_code           = EXCLUDED.post_code,
    address_type        = EXCLUDED.address_type,
    post_code_formatted = EXCLUDED.post_code_formatted,
    date_last_modified  = CURRENT_DATE,
    last_modified_by    = 'sirene_etab update'`

// selectNafCountsSQL groups the active NAFRev2 units in the legal mirror by
// activity code.
const selectNafCountsSQL = `
SELECT "NAFCategory", count(*)
FROM sirene_stocklegal
WHERE "ActiveLegalUnit" = 'NAFRev2' AND "AdministrativeStatus" = 'A'
GROUP BY "NAFCategory"`

// upsertNafCountSQL merges one period count row, keyed by the
// content-addressed (code, file date) digest. The translation join drops
// codes outside the reference catalogue.
const upsertNafCountSQL = `
INSERT INTO isic_code_counts (
    id, isic_code, name_en, unit_count, file_date, last_modified_by, last_modified_date)
SELECT $1::text, t.code, t.name_en, $3::bigint, $4::date, 'naf_count insert', now()
FROM naf_code_translations t
WHERE t.code = $2::text
ON CONFLICT (id) DO UPDATE SET
    unit_count         = EXCLUDED.unit_count,
    last_modified_by   = 'naf_count update',
    last_modified_date = now()`

// upsertMirrorSQL builds the full-width merge from a staging table into its
// durable mirror, overwriting every non-key column on conflict. DISTINCT ON
// keeps one row per key: a run aborted between the staging copy and the
// truncate leaves its rows behind, and the append-mode restart stages the
// same fragment again, so the merge must tolerate the key appearing twice.
func upsertMirrorSQL(live, staging string, cols []string, key string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	var sets []string
	for _, c := range cols {
		if c == key {
			continue
		}
		q := quoteIdent(c)
		sets = append(sets, q+" = EXCLUDED."+q)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s)\nSELECT DISTINCT ON (%s) %s FROM %s\nON CONFLICT (%s) DO UPDATE SET\n    %s",
		quoteIdent(live), strings.Join(quoted, ", "),
		quoteIdent(key), strings.Join(quoted, ", "), quoteIdent(staging),
		quoteIdent(key), strings.Join(sets, ",\n    "))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
