package schema

import (
	"fmt"
)

// Placeholder tokens the source uses for withheld or absent values.
const (
	PlaceholderND = "[ND]"
	PlaceholderNN = "NN"
)

// Mapping is the versioned schema contract between a source file's native
// column vocabulary and the internal one. It is validated at startup: every
// native column must map to exactly one internal name, and columns that are
// neither renamed nor explicitly ignored fail the fragment.
type Mapping struct {
	Version string
	// Renames maps native column names to internal ones.
	Renames map[string]string
	// ForceText lists internal columns that look numeric but are
	// identifiers: leading zeros and non-numeric tokens must survive, so
	// they are exempt from any type inference a consumer might add.
	ForceText []string
	// Ignore lists native columns deliberately dropped.
	Ignore []string
}

// Validate checks the mapping's internal consistency.
func (m Mapping) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("mapping version is required")
	}
	if len(m.Renames) == 0 {
		return fmt.Errorf("mapping %s has no renames", m.Version)
	}

	seen := make(map[string]string, len(m.Renames))
	for native, internal := range m.Renames {
		if internal == "" {
			return fmt.Errorf("mapping %s: native column %q maps to empty name", m.Version, native)
		}
		if prev, dup := seen[internal]; dup {
			return fmt.Errorf("mapping %s: %q and %q both map to %q", m.Version, prev, native, internal)
		}
		seen[internal] = native
	}

	ignored := make(map[string]struct{}, len(m.Ignore))
	for _, native := range m.Ignore {
		if _, renamed := m.Renames[native]; renamed {
			return fmt.Errorf("mapping %s: column %q is both renamed and ignored", m.Version, native)
		}
		ignored[native] = struct{}{}
	}

	for _, internal := range m.ForceText {
		if _, known := seen[internal]; !known {
			return fmt.Errorf("mapping %s: forced-text column %q is not a rename target", m.Version, internal)
		}
	}
	return nil
}

func (m Mapping) ignored(native string) bool {
	for _, col := range m.Ignore {
		if col == native {
			return true
		}
	}
	return false
}
