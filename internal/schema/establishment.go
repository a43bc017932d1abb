package schema

// EstablishmentMapping is the schema contract for the StockEtablissement
// file. The forced-text set covers every identifier-like column where
// leading zeros or free text would be corrupted by numeric inference.
func EstablishmentMapping() Mapping {
	return Mapping{
		Version: "etablissement/v311",
		Renames: map[string]string{
			"siren":                          "company_number",
			"nic":                            "localnic",
			"siret":                          "siret",
			"statutDiffusionEtablissement":   "distributionStatus",
			"dateCreationEtablissement":      "EstablishmentDate",
			"trancheEffectifsEtablissement":  "EmployeeCountCategory",
			"anneeEffectifsEtablissement":    "EmployeeCountCategoryYear",
			"activitePrincipaleRegistreMetiersEtablissement": "mainNAF",
			"dateDernierTraitementEtablissement":             "LastNAFUpdate",
			"etablissementSiege":                             "RegisteredOfficeBool",
			"nombrePeriodesEtablissement":                    "PeriodNumber",
			"dernierNumeroVoieEtablissement":                 "LastAddressNumber",
			"indiceRepetitionDernierNumeroVoieEtablissement": "DateOfLastAddressNumber",
			"identifiantAdresseEtablissement":                "InstitutionAddressID",
			"coordonneeLambertAbscisseEtablissement":         "LambertCoordinateX",
			"coordonneeLambertOrdonneeEtablissement":         "LambertCoordinateY",
			"complementAdresseEtablissement":                 "AddressBuildingBlock",
			"numeroVoieEtablissement":                        "AddressNumber",
			"indiceRepetitionEtablissement":                  "AddressNumberSubUnit",
			"typeVoieEtablissement":                          "AddressUniqueIdentifier",
			"libelleVoieEtablissement":                       "AddressLabel",
			"codePostalEtablissement":                        "AddressPostcode",
			"libelleCommuneEtablissement":                    "AddressMunicipalityLabel",
			"libelleCommuneEtrangerEtablissement":            "AddressForeignMunicipality",
			"distributionSpecialeEtablissement":              "AddressPOBox",
			"codeCommuneEtablissement":                       "AddressCommuneCode",
			"codeCedexEtablissement":                         "AddressCEDEXCode",
			"libelleCedexEtablissement":                      "AddressCEDEXLabel",
			"codePaysEtrangerEtablissement":                  "AddressOverseasCountryCode",
			"libellePaysEtrangerEtablissement":               "AddressOverseasCountryLabel",
			"complementAdresse2Etablissement":                "AddressBuildingBlock2",
			"numeroVoie2Etablissement":                       "AddressNumber2",
			"indiceRepetition2Etablissement":                 "AddressNumberSubUnit2",
			"typeVoie2Etablissement":                         "AddressUniqueIdentifier2",
			"libelleVoie2Etablissement":                      "AddressLabel2",
			"codePostal2Etablissement":                       "AddressPostcode2",
			"libelleCommune2Etablissement":                   "AddressMunicipalityLabel2",
			"libelleCommuneEtranger2Etablissement":           "AddressForeignMunicipality2",
			"distributionSpeciale2Etablissement":             "AddressPOBox2",
			"codeCommune2Etablissement":                      "AddressCommuneCode2",
			"codeCedex2Etablissement":                        "AddressCEDEXCode2",
			"libelleCedex2Etablissement":                     "AddressCEDEXLabel2",
			"codePaysEtranger2Etablissement":                 "AddressOverseasCountryCode2",
			"libellePaysEtranger2Etablissement":              "AddressOverseasCountryLabel2",
			"dateDebut":                                      "DateOfBusinessStart",
			"etatAdministratifEtablissement":                 "AdministrativeStatus",
			"enseigne1Etablissement":                         "EstablishmentSign1",
			"enseigne2Etablissement":                         "EstablishmentSign2",
			"enseigne3Etablissement":                         "EstablishmentSign3",
			"denominationUsuelleEtablissement":               "CommonCompanyName",
			"activitePrincipaleEtablissement":                "APETCode",
			"nomenclatureActivitePrincipaleEtablissement":    "APETCodeCategory",
			"caractereEmployeurEtablissement":                "EmploymentType",
		},
		ForceText: []string{
			"company_number",
			"siret",
			"AddressCommuneCode",
			"AddressCEDEXCode",
			"AddressNumber",
			"AddressNumber2",
			"AddressPostcode",
			"AddressPostcode2",
			"AddressPOBox",
			"AddressBuildingBlock",
		},
	}
}

// ExcludeClosedEstablishments rejects closed addresses before key
// derivation, so no geo or identity rows are generated for them.
func ExcludeClosedEstablishments() RowFilter {
	return func(r Row) bool {
		return r.Get("AdministrativeStatus") != "F"
	}
}

// EstablishmentFilters is the current establishment filtering policy.
func EstablishmentFilters() []RowFilter {
	return []RowFilter{
		ExcludeClosedEstablishments(),
	}
}

// EstablishmentReadOptions: the establishment file reads withheld tokens as
// missing values rather than literals.
func EstablishmentReadOptions() ReadOptions {
	return ReadOptions{NullTokens: []string{PlaceholderND, PlaceholderNN}}
}

// LegalUnitReadOptions keeps placeholder tokens visible so the entity-name
// filter can reject withheld names.
func LegalUnitReadOptions() ReadOptions {
	return ReadOptions{}
}
