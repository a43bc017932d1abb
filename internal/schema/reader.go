package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ReadOptions adjusts fragment parsing per dataset.
type ReadOptions struct {
	// NullTokens are normalized to the empty string in every cell. The
	// establishment dataset reads [ND] and NN as missing; the legal-unit
	// dataset keeps them visible so the name filter can reject the row.
	NullTokens []string
}

// ReadFragment parses one fragment file into a Table under internal column
// names. A native header column with no rename and no ignore entry is a
// schema violation.
func ReadFragment(path string, m Mapping, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fragment: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read fragment header: %w", err)
	}

	// sources[i] is the native column index feeding internal column i.
	var (
		internal []string
		sources  []int
	)
	for nativeIdx, native := range header {
		name, renamed := m.Renames[native]
		if !renamed {
			if m.ignored(native) {
				continue
			}
			return nil, fmt.Errorf("fragment %s: native column %q has no mapping (version %s)", path, native, m.Version)
		}
		internal = append(internal, name)
		sources = append(sources, nativeIdx)
	}

	table, err := NewTable(internal)
	if err != nil {
		return nil, fmt.Errorf("fragment %s: %w", path, err)
	}

	nulls := make(map[string]struct{}, len(opts.NullTokens))
	for _, tok := range opts.NullTokens {
		nulls[tok] = struct{}{}
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read fragment row: %w", err)
		}
		cells := make([]string, len(sources))
		for i, src := range sources {
			value := record[src]
			if _, null := nulls[value]; null {
				value = ""
			}
			cells[i] = value
		}
		if err := table.Append(cells); err != nil {
			return nil, fmt.Errorf("fragment %s: %w", path, err)
		}
	}
	return table, nil
}
