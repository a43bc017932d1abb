package load

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertMirrorSQLKeepsOneRowPerKey(t *testing.T) {
	sql := upsertMirrorSQL(etabLiveTable, etabStagingTable, etabColumns, "siret")

	// An aborted run can leave a fragment's rows in staging; the append-mode
	// restart stages them again. The merge must collapse the duplicate keys
	// or Postgres rejects the statement outright.
	require.Contains(t, sql, `SELECT DISTINCT ON ("siret")`)
	require.Contains(t, sql, `INSERT INTO "sirene_stocketab"`)
	require.Contains(t, sql, `ON CONFLICT ("siret") DO UPDATE SET`)
	require.NotContains(t, sql, `"siret" = EXCLUDED."siret"`)
}

func TestUpsertMirrorSQLOverwritesEveryNonKeyColumn(t *testing.T) {
	sql := upsertMirrorSQL(legalLiveTable, legalStagingTable, legalColumns, "company_number")

	for _, c := range legalColumns {
		if c == "company_number" {
			continue
		}
		require.Contains(t, sql, `"`+c+`" = EXCLUDED."`+c+`"`)
	}
	require.NotContains(t, sql, `"company_number" = EXCLUDED."company_number"`)
}

func TestCreateTextTableQuotesIdentifiers(t *testing.T) {
	ddl := createTextTable(etabStagingTable, []string{"siret", "AddressPostcode"}, "")

	require.Equal(t,
		`CREATE TABLE IF NOT EXISTS "sirene_stocketab_staging" ("siret" TEXT, "AddressPostcode" TEXT)`,
		ddl)
}
