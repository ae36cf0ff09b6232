// Package alias loads the human-authored table descriptions used to enrich
// catalog prompts. The document is optional: a missing file or a table
// without an entry falls back to a fixed placeholder description.
package alias

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NoDescription is the fallback used when a table has no alias entry.
const NoDescription = "Sem descrição disponível"

type Aliases map[string]string

// Load reads the alias document at path. A missing file is not an error and
// yields an empty alias set; a malformed document is an error.
func Load(path string) (Aliases, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Aliases{}, nil
		}
		return nil, fmt.Errorf("read alias document %q: %w", path, err)
	}

	aliases := Aliases{}
	if err := yaml.Unmarshal(raw, &aliases); err != nil {
		return nil, fmt.Errorf("parse alias document %q: %w", path, err)
	}
	if aliases == nil {
		aliases = Aliases{}
	}
	return aliases, nil
}

// Describe returns the description for table, or NoDescription when the
// table has no entry.
func (a Aliases) Describe(table string) string {
	if a == nil {
		return NoDescription
	}
	if desc, ok := a[table]; ok && desc != "" {
		return desc
	}
	return NoDescription
}
