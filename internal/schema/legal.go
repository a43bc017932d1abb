package schema

import "strings"

// LegalUnitMapping is the schema contract for the StockUniteLegale file.
// Column breakdowns: https://www.sirene.fr/static-resources/htm/v_sommaire_311.htm#7
func LegalUnitMapping() Mapping {
	return Mapping{
		Version: "unite-legale/v311",
		Renames: map[string]string{
			"siren":                             "company_number",
			"statutDiffusionUniteLegale":        "LegalUnitBroadcastID",
			"unitePurgeeUniteLegale":            "PurgeStatus",
			"dateCreationUniteLegale":           "DateCreated",
			"sigleUniteLegale":                  "LegalAcronym",
			"sexeUniteLegale":                   "GenderOfPerson",
			"prenom1UniteLegale":                "NaturalName1",
			"prenom2UniteLegale":                "NaturalName2",
			"prenom3UniteLegale":                "NaturalName3",
			"prenom4UniteLegale":                "NaturalName4",
			"prenomUsuelUniteLegale":            "PreferredName",
			"pseudonymeUniteLegale":             "pseudonym",
			"identifiantAssociationUniteLegale": "RNANumber",
			"trancheEffectifsUniteLegale":       "EmployeeCountCategory",
			"anneeEffectifsUniteLegale":         "EmployeeCountCategoryDateUpdated",
			"dateDernierTraitementUniteLegale":  "LegalUnitUpdated",
			"nombrePeriodesUniteLegale":         "TimeAsLegalUnit",
			"categorieEntreprise":               "BusinessCategory",
			"anneeCategorieEntreprise":          "YearOfBusinessCategoryAssignment",
			"dateDebut":                         "DateOfBusinessStart",
			"etatAdministratifUniteLegale":      "AdministrativeStatus",
			"nomUniteLegale":                    "PersonBirthName",
			"nomUsageUniteLegale":               "PersonUsedName",
			"denominationUniteLegale":           "LegalEntityName",
			"denominationUsuelle1UniteLegale":   "LegalEntityName1",
			"denominationUsuelle2UniteLegale":   "LegalEntityName2",
			"denominationUsuelle3UniteLegale":   "LegalEntityName3",
			"categorieJuridiqueUniteLegale":     "LegalCategory",
			"activitePrincipaleUniteLegale":     "NAFCategory",
			"nomenclatureActivitePrincipaleUniteLegale": "ActiveLegalUnit",
			"nicSiegeUniteLegale":                 "NICAssignment",
			"economieSocialeSolidaireUniteLegale": "SSEBool",
			"societeMissionUniteLegale":           "MissionDrivenCompanyBool",
			"caractereEmployeurUniteLegale":       "EmployerNature",
		},
		ForceText: []string{
			"company_number",
			"LegalCategory",
			"EmployeeCountCategory",
			"NICAssignment",
		},
	}
}

// RowFilter decides whether a row survives normalization. True keeps it.
type RowFilter func(Row) bool

// RequireEntityName rejects rows with a missing or withheld company name.
func RequireEntityName() RowFilter {
	return func(r Row) bool {
		name := r.Get("LegalEntityName")
		return name != "" && name != PlaceholderND
	}
}

// ExcludeNaturalPersons rejects category 0000: people, not companies.
func ExcludeNaturalPersons() RowFilter {
	return func(r Row) bool {
		return r.Get("LegalCategory") != "0000"
	}
}

// RetainCategoryPrefix keeps only legal categories starting with prefix.
// The current configuration retains "5" (sociétés commerciales); this is a
// deliberate scope narrowing, not a universal rule.
func RetainCategoryPrefix(prefix string) RowFilter {
	return func(r Row) bool {
		return strings.HasPrefix(r.Get("LegalCategory"), prefix)
	}
}

// LegalUnitFilters is the current legal-unit filtering policy.
func LegalUnitFilters() []RowFilter {
	return []RowFilter{
		RequireEntityName(),
		ExcludeNaturalPersons(),
		RetainCategoryPrefix("5"),
	}
}

// Apply runs every filter over the table, in order.
func Apply(t *Table, filters []RowFilter) int {
	removed := 0
	for _, f := range filters {
		removed += t.Filter(f)
	}
	return removed
}
