package pipeline

import (
	"context"
	"fmt"
	"time"

	"sirene/internal/derive"
	"sirene/internal/load"
	"sirene/internal/schema"
)

// Dataset binds one SIRENE stock file to the mapping, filters, derivations
// and load routine that turn its fragments into durable rows.
type Dataset struct {
	Name        string
	Stem        string // archive name without the dated prefix
	Source      string // audit trail source label
	Mapping     schema.Mapping
	ReadOptions schema.ReadOptions
	Filters     []schema.RowFilter
	Enrich      func(*schema.Table, string, time.Time) error
	StageMode   load.StageMode
	Load        func(context.Context, load.Store, *schema.Table, load.StageMode) error
}

// PeriodDate returns the first-of-month date of the stock period the given
// time falls in. Archive names and count rows both carry it.
func PeriodDate(now time.Time) string {
	return now.Format("2006-01") + "-01"
}

// ArchiveName returns the dated archive filename for the stock period the
// given time falls in. Stock files are published monthly on the first.
func (d Dataset) ArchiveName(now time.Time) string {
	return fmt.Sprintf("%s-%s.zip", PeriodDate(now), d.Stem)
}

// LegalUnits describes the legal-unit stock file. Staging is truncated
// before each fragment's copy.
func LegalUnits(stem string) Dataset {
	return Dataset{
		Name:        "legal_units",
		Stem:        stem,
		Source:      "sirene_legal",
		Mapping:     schema.LegalUnitMapping(),
		ReadOptions: schema.LegalUnitReadOptions(),
		Filters:     schema.LegalUnitFilters(),
		Enrich:      derive.EnrichLegalUnits,
		StageMode:   load.StageReplace,
		Load: func(ctx context.Context, s load.Store, t *schema.Table, mode load.StageMode) error {
			return s.LoadLegalUnits(ctx, t, mode)
		},
	}
}

// Establishments describes the establishment stock file.
func Establishments(stem string) Dataset {
	return Dataset{
		Name:        "establishments",
		Stem:        stem,
		Source:      "sirene_etab",
		Mapping:     schema.EstablishmentMapping(),
		ReadOptions: schema.EstablishmentReadOptions(),
		Filters:     schema.EstablishmentFilters(),
		Enrich:      derive.EnrichEstablishments,
		StageMode:   load.StageAppend,
		Load: func(ctx context.Context, s load.Store, t *schema.Table, mode load.StageMode) error {
			return s.LoadEstablishments(ctx, t, mode)
		},
	}
}
