//go:build integration

package load

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"sirene/internal/refdata"
	"sirene/internal/schema"
	"sirene/pkg/testutil/containers"
)

type PostgresEngineSuite struct {
	suite.Suite

	ctx    context.Context
	pg     *containers.PostgresContainer
	engine *Engine
}

func TestPostgresEngineSuite(t *testing.T) {
	suite.Run(t, new(PostgresEngineSuite))
}

func (s *PostgresEngineSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())

	s.Require().NoError(EnsureSchema(s.ctx, s.pg.DB))
	s.Require().NoError(refdata.Seed(s.ctx, s.pg.DB))

	engine, err := NewEngine(s.pg.DB)
	s.Require().NoError(err)
	s.engine = engine
}

func (s *PostgresEngineSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx,
		"naf_code", "isic_code_counts", "geo_location", "organisation",
		legalLiveTable, etabLiveTable,
		legalStagingTable, etabStagingTable))
}

// fullWidthTable builds a table over the given canonical column list with
// one row, empty except for the named cells.
func (s *PostgresEngineSuite) fullWidthTable(cols []string, cells map[string]string) *schema.Table {
	t, err := schema.NewTable(cols)
	s.Require().NoError(err)

	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = cells[c]
	}
	s.Require().NoError(t.Append(row))
	return t
}

func (s *PostgresEngineSuite) legalRow() map[string]string {
	return map[string]string{
		"company_number":     "542012031",
		"LegalEntityName":    "ACME SARL",
		"DateCreated":        "1962-01-01",
		"NAFCategory":        "62.01Z",
		"company_type":       "SARL (Limited Liability Company)",
		"id":                 "FR542012031",
		"country":            "FRANCE",
		"country_code":       "FR",
		"company_status":     "Active",
		"EmployeeCount":      "20-49 employees",
		"last_modified_by":   "sirene_legal - insert",
		"last_modified_date": "2026-08-31 10:00:00",
	}
}

func (s *PostgresEngineSuite) TestLegalUpsertIsIdempotent() {
	t := s.fullWidthTable(legalColumns, s.legalRow())

	s.Require().NoError(s.engine.LoadLegalUnits(s.ctx, t, StageReplace))
	s.Require().NoError(s.engine.LoadLegalUnits(s.ctx, t, StageReplace))

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM organisation").Scan(&count))
	s.Equal(1, count)

	var name, status string
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT company_name, company_status FROM organisation WHERE id = $1",
		"FR542012031").Scan(&name, &status))
	s.Equal("ACME SARL", name)
	s.Equal("Active", status)

	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM naf_code").Scan(&count))
	s.Equal(1, count)

	// Staging drained after the merge.
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM "+legalStagingTable).Scan(&count))
	s.Zero(count)
}

func (s *PostgresEngineSuite) TestNafCodeCountsAggregateFromLegalMirror() {
	cells := s.legalRow()
	cells["ActiveLegalUnit"] = "NAFRev2"
	cells["AdministrativeStatus"] = "A"
	t := s.fullWidthTable(legalColumns, cells)

	s.Require().NoError(s.engine.LoadLegalUnits(s.ctx, t, StageReplace))
	s.Require().NoError(s.engine.LoadNafCodeCounts(s.ctx, "2026-08-01"))
	s.Require().NoError(s.engine.LoadNafCodeCounts(s.ctx, "2026-08-01"))

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM isic_code_counts").Scan(&count))
	s.Equal(1, count)

	var units int
	var name string
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT unit_count, name_en FROM isic_code_counts WHERE isic_code = $1",
		"62.01Z").Scan(&units, &name))
	s.Equal(1, units)
	s.Equal("Computer programming activities", name)
}

func (s *PostgresEngineSuite) TestUnmappedNafCodeProducesNoMapping() {
	cells := s.legalRow()
	cells["NAFCategory"] = "00.00X"
	t := s.fullWidthTable(legalColumns, cells)

	s.Require().NoError(s.engine.LoadLegalUnits(s.ctx, t, StageReplace))

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM organisation").Scan(&count))
	s.Equal(1, count)

	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM naf_code").Scan(&count))
	s.Zero(count)
}

func (s *PostgresEngineSuite) TestEstablishmentReloadAfterAbortedMerge() {
	cells := map[string]string{
		"siret":                    "54201203100018",
		"company_number":           "542012031",
		"AddressPostcode":          "75002",
		"AddressMunicipalityLabel": "PARIS",
		"id":                       "FR542012031",
		"geo_hash":                 "abc123",
		"address_line_1":           "12 RUE DE LA PAIX",
		"registered_office_type":   "HEAD_OFFICE",
		"last_modified_by":         "sirene_etab - insert",
		"last_modified_date":       "2026-08-31 10:00:00",
	}

	// Simulate a run that copied its fragment into staging and aborted
	// before the merge finished: the staged rows stay behind.
	s.Require().NoError(s.engine.stage(s.ctx, etabStagingTable,
		s.fullWidthTable(etabColumns, cells), StageAppend))

	// The restart finds the same fragment file, stages it again in append
	// mode and runs the full protocol over the doubled rows.
	s.Require().NoError(s.engine.LoadEstablishments(s.ctx,
		s.fullWidthTable(etabColumns, cells), StageAppend))

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM "+etabLiveTable).Scan(&count))
	s.Equal(1, count)

	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM geo_location").Scan(&count))
	s.Equal(1, count)

	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM "+etabStagingTable).Scan(&count))
	s.Zero(count)
}

func (s *PostgresEngineSuite) TestEstablishmentGeoMergeKeepsKeyAndOwner() {
	cells := map[string]string{
		"siret":                    "54201203100018",
		"company_number":           "542012031",
		"AddressPostcode":          "75002",
		"AddressMunicipalityLabel": "PARIS",
		"id":                       "FR542012031",
		"geo_hash":                 "abc123",
		"address_line_1":           "12 RUE DE LA PAIX",
		"registered_office_type":   "HEAD_OFFICE",
		"last_modified_by":         "sirene_etab - insert",
		"last_modified_date":       "2026-08-31 10:00:00",
	}
	s.Require().NoError(s.engine.LoadEstablishments(s.ctx,
		s.fullWidthTable(etabColumns, cells), StageAppend))

	cells["address_line_1"] = "14 RUE DE LA PAIX"
	s.Require().NoError(s.engine.LoadEstablishments(s.ctx,
		s.fullWidthTable(etabColumns, cells), StageAppend))

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT count(*) FROM geo_location").Scan(&count))
	s.Equal(1, count)

	var address, owner string
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		"SELECT address_1, organisation_id FROM geo_location WHERE geo_hash = $1",
		"abc123").Scan(&address, &owner))
	s.Equal("14 RUE DE LA PAIX", address)
	s.Equal("FR542012031", owner)
}
