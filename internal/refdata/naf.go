// Package refdata ships the static NAF activity-code reference table. Legal
// units join against it when mapping rows are produced; units whose code is
// absent here silently produce no mapping row.
package refdata

import (
	"context"
	"database/sql"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
)

//go:embed naf_codes.csv
var nafFS embed.FS

// Translation is one NAF code with its bilingual descriptions.
type Translation struct {
	Code   string
	NameEN string
	NameFR string
}

// Codes parses the embedded reference table.
func Codes() ([]Translation, error) {
	f, err := nafFS.Open("naf_codes.csv")
	if err != nil {
		return nil, fmt.Errorf("open embedded naf codes: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read naf header: %w", err)
	}

	var out []Translation
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read naf row: %w", err)
		}
		out = append(out, Translation{Code: record[0], NameEN: record[1], NameFR: record[2]})
	}
	return out, nil
}

// Seed upserts the reference table into naf_code_translations so the load
// engine's inner joins see a complete catalogue.
func Seed(ctx context.Context, db *sql.DB) error {
	codes, err := Codes()
	if err != nil {
		return err
	}

	const stmt = `
		INSERT INTO naf_code_translations (code, name_en, name_fr)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET
			name_en = EXCLUDED.name_en,
			name_fr = EXCLUDED.name_fr`

	for _, c := range codes {
		if _, err := db.ExecContext(ctx, stmt, c.Code, c.NameEN, c.NameFR); err != nil {
			return fmt.Errorf("seed naf code %s: %w", c.Code, err)
		}
	}
	return nil
}
