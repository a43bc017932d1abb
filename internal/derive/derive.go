// Package derive computes surrogate keys and classification attributes for
// normalized registry rows. Every function here is pure: re-deriving from
// identical inputs always yields identical outputs, which is what makes
// re-running a fragment safe.
package derive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier marks a company number that is not exactly nine
// characters. A malformed identifier aborts the record's derivation; it must
// never silently emit a wrong key.
var ErrInvalidIdentifier = errors.New("invalid company number")

// ErrUnknownLegalCategory marks a legal category whose prefix is outside the
// closed company-type enumeration.
var ErrUnknownLegalCategory = errors.New("unknown legal category")

// StatusUnclassified is the explicit sentinel for administrative status
// codes outside A/C. The source leaves those undefined; a required column
// cannot, so the policy here is an explicit value, asserted in tests.
const StatusUnclassified = "Unclassified"

// Office classifications for the geolocation relation.
const (
	HeadOffice = "HEAD_OFFICE"
	SubOffice  = "SUB_OFFICE"
)

const placeholderND = "[ND]"

// OrganizationID derives the organization surrogate key from a nine-digit
// company number. Pure and injective: the same company number always yields
// the same id.
func OrganizationID(companyNumber string) (string, error) {
	if len(companyNumber) != 9 {
		return "", fmt.Errorf("%w: %q is not 9 characters", ErrInvalidIdentifier, companyNumber)
	}
	return "FR" + companyNumber, nil
}

// GeoHash derives the content-addressed geolocation key from the owning
// organization id and postcode. A missing postcode hashes as the empty
// string. The digest is collision-hardened and stable across runs.
func GeoHash(organizationID, postcode string) string {
	sum := sha256.Sum256([]byte(organizationID + postcode))
	return hex.EncodeToString(sum[:])
}

// NafCountKey derives the content-addressed key for one activity code's
// monthly unit count. Re-aggregating the same stock period overwrites the
// same row instead of accumulating new ones.
func NafCountKey(code, fileDate string) string {
	sum := sha256.Sum256([]byte(code + fileDate))
	return hex.EncodeToString(sum[:])
}

// AddressLine joins the non-empty, non-withheld parts with single spaces,
// preserving the caller's field order. An empty result is valid.
func AddressLine(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" && p != placeholderND {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// OfficeType classifies an establishment by its registered-office flag.
func OfficeType(isRegisteredOffice bool) string {
	if isRegisteredOffice {
		return HeadOffice
	}
	return SubOffice
}

// CompanyStatus maps the administrative status code to a lifecycle label.
func CompanyStatus(code string) string {
	switch code {
	case "A":
		return "Active"
	case "C":
		return "Inactive"
	default:
		return StatusUnclassified
	}
}

// CompanyType resolves the first two digits of the legal category against
// the closed enumeration. An unmapped prefix is a hard error: letting it
// pass through would corrupt downstream classification.
func CompanyType(legalCategory string) (string, error) {
	if len(legalCategory) < 2 {
		return "", fmt.Errorf("%w: %q", ErrUnknownLegalCategory, legalCategory)
	}
	label, ok := companyTypes[legalCategory[:2]]
	if !ok {
		return "", fmt.Errorf("%w: no company type for prefix %q", ErrUnknownLegalCategory, legalCategory[:2])
	}
	return label, nil
}

// EmployeeCount maps the coded employee band to its human-readable range.
// Employee data is frequently absent in the source, so unmapped codes yield
// the "NA" sentinel rather than an error.
func EmployeeCount(code string) string {
	if code == "" {
		return "NA"
	}
	band, ok := employeeBands[code]
	if !ok {
		return "NA"
	}
	return band
}
