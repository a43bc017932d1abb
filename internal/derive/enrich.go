package derive

import (
	"fmt"
	"strconv"
	"time"

	"sirene/internal/schema"
)

const timestampLayout = "2006-01-02 15:04:05"

// Derived column names shared with the load engine's staging relations.
const (
	ColOrganizationID   = "id"
	ColCompanyType      = "company_type"
	ColCompanyStatus    = "company_status"
	ColEmployeeCount    = "EmployeeCount"
	ColCountry          = "country"
	ColCountryCode      = "country_code"
	ColGeoHash          = "geo_hash"
	ColAddressLine1     = "address_line_1"
	ColAddressLine2     = "address_line_2"
	ColOfficeType       = "registered_office_type"
	ColLastModifiedBy   = "last_modified_by"
	ColLastModifiedDate = "last_modified_date"
)

// EnrichLegalUnits appends the derived organization columns to a normalized
// legal-unit table. source names the fragment for the audit columns.
func EnrichLegalUnits(t *schema.Table, source string, now time.Time) error {
	err := t.AddColumn(ColCompanyType, func(r schema.Row) (string, error) {
		return CompanyType(r.Get("LegalCategory"))
	})
	if err != nil {
		return fmt.Errorf("legal units: %w", err)
	}

	err = t.AddColumn(ColOrganizationID, func(r schema.Row) (string, error) {
		return OrganizationID(r.Get("company_number"))
	})
	if err != nil {
		return fmt.Errorf("legal units: %w", err)
	}

	literals := []struct {
		name  string
		value string
	}{
		{ColCountry, "FRANCE"},
		{ColCountryCode, "FR"},
	}
	for _, lit := range literals {
		value := lit.value
		if err := t.AddColumn(lit.name, func(schema.Row) (string, error) { return value, nil }); err != nil {
			return fmt.Errorf("legal units: %w", err)
		}
	}

	err = t.AddColumn(ColCompanyStatus, func(r schema.Row) (string, error) {
		return CompanyStatus(r.Get("AdministrativeStatus")), nil
	})
	if err != nil {
		return fmt.Errorf("legal units: %w", err)
	}

	err = t.AddColumn(ColEmployeeCount, func(r schema.Row) (string, error) {
		return EmployeeCount(r.Get("EmployeeCountCategory")), nil
	})
	if err != nil {
		return fmt.Errorf("legal units: %w", err)
	}

	return addAuditColumns(t, source, now)
}

// EnrichEstablishments appends the derived identity, geolocation and
// classification columns to a normalized establishment table. Closed
// establishments must already be filtered out; keys are only derived for
// rows that will produce geo rows.
func EnrichEstablishments(t *schema.Table, source string, now time.Time) error {
	err := t.AddColumn(ColOrganizationID, func(r schema.Row) (string, error) {
		return OrganizationID(r.Get("company_number"))
	})
	if err != nil {
		return fmt.Errorf("establishments: %w", err)
	}

	err = t.AddColumn(ColGeoHash, func(r schema.Row) (string, error) {
		return GeoHash(r.Get(ColOrganizationID), r.Get("AddressPostcode")), nil
	})
	if err != nil {
		return fmt.Errorf("establishments: %w", err)
	}

	err = t.AddColumn(ColAddressLine1, func(r schema.Row) (string, error) {
		return AddressLine(r.Get("AddressBuildingBlock"), r.Get("AddressNumber"), r.Get("AddressNumberSubUnit")), nil
	})
	if err != nil {
		return fmt.Errorf("establishments: %w", err)
	}

	err = t.AddColumn(ColAddressLine2, func(r schema.Row) (string, error) {
		return AddressLine(r.Get("AddressUniqueIdentifier"), r.Get("AddressLabel")), nil
	})
	if err != nil {
		return fmt.Errorf("establishments: %w", err)
	}

	err = t.AddColumn(ColOfficeType, func(r schema.Row) (string, error) {
		flag := r.Get("RegisteredOfficeBool")
		isRegistered, parseErr := strconv.ParseBool(flag)
		if parseErr != nil {
			return "", fmt.Errorf("registered-office flag %q is not a determinate boolean", flag)
		}
		return OfficeType(isRegistered), nil
	})
	if err != nil {
		return fmt.Errorf("establishments: %w", err)
	}

	return addAuditColumns(t, source, now)
}

func addAuditColumns(t *schema.Table, source string, now time.Time) error {
	modifiedBy := source + " - insert"
	if err := t.AddColumn(ColLastModifiedBy, func(schema.Row) (string, error) { return modifiedBy, nil }); err != nil {
		return err
	}
	stamp := now.Format(timestampLayout)
	return t.AddColumn(ColLastModifiedDate, func(schema.Row) (string, error) { return stamp, nil })
}
