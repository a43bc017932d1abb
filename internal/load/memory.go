package load

import (
	"context"
	"fmt"
	"strconv"

	"sirene/internal/derive"
	"sirene/internal/refdata"
	"sirene/internal/schema"
)

// MemoryStore mirrors the Engine's merge semantics in process memory. Unit
// tests drive the orchestrator and the upsert protocol against it without a
// database.
type MemoryStore struct {
	translations map[string]refdata.Translation

	stagedLegal []map[string]string
	stagedEtab  []map[string]string

	organisations  map[string]map[string]string // keyed by organization id
	nafCodes       map[string]map[string]string // keyed by code|organisation id
	nafCounts      map[string]map[string]string // keyed by count id
	legalUnits     map[string]map[string]string // keyed by company_number
	geoLocations   map[string]map[string]string // keyed by geo_hash
	establishments map[string]map[string]string // keyed by siret
}

// NewMemoryStore builds an empty store seeded with the given NAF
// translations.
func NewMemoryStore(translations []refdata.Translation) *MemoryStore {
	byCode := make(map[string]refdata.Translation, len(translations))
	for _, t := range translations {
		byCode[t.Code] = t
	}
	return &MemoryStore{
		translations:   byCode,
		organisations:  make(map[string]map[string]string),
		nafCodes:       make(map[string]map[string]string),
		nafCounts:      make(map[string]map[string]string),
		legalUnits:     make(map[string]map[string]string),
		geoLocations:   make(map[string]map[string]string),
		establishments: make(map[string]map[string]string),
	}
}

func rowMap(t *schema.Table, cells []string) map[string]string {
	cols := t.Columns()
	m := make(map[string]string, len(cols))
	for i, c := range cols {
		if i < len(cells) {
			m[c] = cells[i]
		}
	}
	return m
}

func (s *MemoryStore) LoadLegalUnits(_ context.Context, t *schema.Table, mode StageMode) error {
	if mode == StageReplace {
		s.stagedLegal = nil
	}
	for _, cells := range t.Rows() {
		s.stagedLegal = append(s.stagedLegal, rowMap(t, cells))
	}

	for _, row := range s.stagedLegal {
		id := row["id"]
		if id == "" {
			return &Error{Op: "organisation upsert", Err: fmt.Errorf("staged row has no organization id")}
		}
		s.organisations[id] = map[string]string{
			"id":                 id,
			"company_number":     row["company_number"],
			"company_name":       row["LegalEntityName"],
			"company_status":     row["company_status"],
			"country":            row["country"],
			"date_formed":        row["DateCreated"],
			"company_type":       row["company_type"],
			"last_modified_by":   row["last_modified_by"],
			"last_modified_date": row["last_modified_date"],
			"country_code":       "FR",
		}

		if tr, ok := s.translations[row["NAFCategory"]]; ok {
			s.nafCodes[row["NAFCategory"]+"|"+id] = map[string]string{
				"code":            tr.Code,
				"organisation_id": id,
				"name_en":         tr.NameEN,
				"name_fr":         tr.NameFR,
			}
		}

		s.legalUnits[row["company_number"]] = row
	}

	s.stagedLegal = nil
	return nil
}

func (s *MemoryStore) LoadEstablishments(_ context.Context, t *schema.Table, mode StageMode) error {
	if mode == StageReplace {
		s.stagedEtab = nil
	}
	for _, cells := range t.Rows() {
		s.stagedEtab = append(s.stagedEtab, rowMap(t, cells))
	}

	for _, row := range s.stagedEtab {
		hash := row["geo_hash"]
		if hash == "" {
			return &Error{Op: "geo_location upsert", Err: fmt.Errorf("staged row has no geo hash")}
		}
		if existing, ok := s.geoLocations[hash]; ok {
			// Overwrite address/classification fields only; the key and
			// owning organisation are immutable.
			existing["address_1"] = row["address_line_1"]
			existing["address_2"] = row["address_line_2"]
			existing["town"] = row["AddressMunicipalityLabel"]
			existing["post_code"] = row["AddressPostcode"]
			existing["address_type"] = row["registered_office_type"]
			existing["last_modified_by"] = "sirene_etab update"
		} else {
			s.geoLocations[hash] = map[string]string{
				"geo_hash":            hash,
				"address_1":           row["address_line_1"],
				"address_2":           row["address_line_2"],
				"town":                row["AddressMunicipalityLabel"],
				"country":             "France",
				"post_code":           row["AddressPostcode"],
				"post_code_formatted": row["AddressPostcode"],
				"address_type":        row["registered_office_type"],
				"organisation_id":     row["id"],
				"last_modified_by":    "sirene_etab insert",
			}
		}

		s.establishments[row["siret"]] = row
	}

	s.stagedEtab = nil
	return nil
}

func (s *MemoryStore) LoadNafCodeCounts(_ context.Context, fileDate string) error {
	counts := make(map[string]int)
	for _, row := range s.legalUnits {
		if row["ActiveLegalUnit"] != "NAFRev2" || row["AdministrativeStatus"] != "A" {
			continue
		}
		counts[row["NAFCategory"]]++
	}

	for code, n := range counts {
		tr, ok := s.translations[code]
		if !ok {
			continue
		}
		id := derive.NafCountKey(code, fileDate)
		s.nafCounts[id] = map[string]string{
			"id":         id,
			"isic_code":  code,
			"name_en":    tr.NameEN,
			"unit_count": strconv.Itoa(n),
			"file_date":  fileDate,
		}
	}
	return nil
}

// Accessors for assertions.

func (s *MemoryStore) Organisation(id string) (map[string]string, bool) {
	row, ok := s.organisations[id]
	return row, ok
}

func (s *MemoryStore) OrganisationCount() int { return len(s.organisations) }

func (s *MemoryStore) NafMapping(code, organisationID string) (map[string]string, bool) {
	row, ok := s.nafCodes[code+"|"+organisationID]
	return row, ok
}

func (s *MemoryStore) NafMappingCount() int { return len(s.nafCodes) }

func (s *MemoryStore) NafCodeCount(code, fileDate string) (int, bool) {
	row, ok := s.nafCounts[derive.NafCountKey(code, fileDate)]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(row["unit_count"])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *MemoryStore) NafCodeCountRows() int { return len(s.nafCounts) }

func (s *MemoryStore) LegalUnit(companyNumber string) (map[string]string, bool) {
	row, ok := s.legalUnits[companyNumber]
	return row, ok
}

func (s *MemoryStore) LegalUnitCount() int { return len(s.legalUnits) }

func (s *MemoryStore) GeoLocation(hash string) (map[string]string, bool) {
	row, ok := s.geoLocations[hash]
	return row, ok
}

func (s *MemoryStore) GeoLocationCount() int { return len(s.geoLocations) }

func (s *MemoryStore) Establishment(siret string) (map[string]string, bool) {
	row, ok := s.establishments[siret]
	return row, ok
}

func (s *MemoryStore) EstablishmentCount() int { return len(s.establishments) }

// StagedCounts reports rows currently sitting in the staging relations.
// Zero after every successful load: staging is truncated before the next
// fragment begins.
func (s *MemoryStore) StagedCounts() (legal, establishments int) {
	return len(s.stagedLegal), len(s.stagedEtab)
}
