package load

// Staging relation names. Transient, per entity type; cleared after every
// merge so the next fragment never re-applies this one's corrections.
const (
	legalStagingTable = "sirene_stocklegal_staging"
	etabStagingTable  = "sirene_stocketab_staging"
	legalLiveTable    = "sirene_stocklegal"
	etabLiveTable     = "sirene_stocketab"
)

// legalColumns is every column a normalized, enriched legal-unit fragment
// carries: the internal schema vocabulary plus the derived columns.
var legalColumns = []string{
	"company_number",
	"LegalUnitBroadcastID",
	"PurgeStatus",
	"DateCreated",
	"LegalAcronym",
	"GenderOfPerson",
	"NaturalName1",
	"NaturalName2",
	"NaturalName3",
	"NaturalName4",
	"PreferredName",
	"pseudonym",
	"RNANumber",
	"EmployeeCountCategory",
	"EmployeeCountCategoryDateUpdated",
	"LegalUnitUpdated",
	"TimeAsLegalUnit",
	"BusinessCategory",
	"YearOfBusinessCategoryAssignment",
	"DateOfBusinessStart",
	"AdministrativeStatus",
	"PersonBirthName",
	"PersonUsedName",
	"LegalEntityName",
	"LegalEntityName1",
	"LegalEntityName2",
	"LegalEntityName3",
	"LegalCategory",
	"NAFCategory",
	"ActiveLegalUnit",
	"NICAssignment",
	"SSEBool",
	"MissionDrivenCompanyBool",
	"EmployerNature",
	"company_type",
	"id",
	"country",
	"country_code",
	"company_status",
	"EmployeeCount",
	"last_modified_by",
	"last_modified_date",
}

// etabColumns mirrors the establishment fragment vocabulary.
var etabColumns = []string{
	"company_number",
	"localnic",
	"siret",
	"distributionStatus",
	"EstablishmentDate",
	"EmployeeCountCategory",
	"EmployeeCountCategoryYear",
	"mainNAF",
	"LastNAFUpdate",
	"RegisteredOfficeBool",
	"PeriodNumber",
	"LastAddressNumber",
	"DateOfLastAddressNumber",
	"InstitutionAddressID",
	"LambertCoordinateX",
	"LambertCoordinateY",
	"AddressBuildingBlock",
	"AddressNumber",
	"AddressNumberSubUnit",
	"AddressUniqueIdentifier",
	"AddressLabel",
	"AddressPostcode",
	"AddressMunicipalityLabel",
	"AddressForeignMunicipality",
	"AddressPOBox",
	"AddressCommuneCode",
	"AddressCEDEXCode",
	"AddressCEDEXLabel",
	"AddressOverseasCountryCode",
	"AddressOverseasCountryLabel",
	"AddressBuildingBlock2",
	"AddressNumber2",
	"AddressNumberSubUnit2",
	"AddressUniqueIdentifier2",
	"AddressLabel2",
	"AddressPostcode2",
	"AddressMunicipalityLabel2",
	"AddressForeignMunicipality2",
	"AddressPOBox2",
	"AddressCommuneCode2",
	"AddressCEDEXCode2",
	"AddressCEDEXLabel2",
	"AddressOverseasCountryCode2",
	"AddressOverseasCountryLabel2",
	"DateOfBusinessStart",
	"AdministrativeStatus",
	"EstablishmentSign1",
	"EstablishmentSign2",
	"EstablishmentSign3",
	"CommonCompanyName",
	"APETCode",
	"APETCodeCategory",
	"EmploymentType",
	"id",
	"geo_hash",
	"address_line_1",
	"address_line_2",
	"registered_office_type",
	"last_modified_by",
	"last_modified_date",
}
