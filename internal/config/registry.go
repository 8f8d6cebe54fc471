package config

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/slug"
)

// typesFile is the on-disk shape of SUBJECT_TYPES_FILE.
type typesFile struct {
	Types map[string]typeEntry `yaml:"types"`
}

type typeEntry struct {
	History        bool     `yaml:"history"`
	Scoped         bool     `yaml:"scoped"`
	Separator      string   `yaml:"separator"`
	ReclaimRetired *bool    `yaml:"reclaim_retired"`
	Reserved       []string `yaml:"reserved"`
}

// DefaultTypes is the registry used when no subject types file is configured.
func DefaultTypes(separator string) domain.Registry {
	return domain.NewRegistry(domain.TypeConfig{
		Name:           "article",
		History:        true,
		Separator:      separator,
		ReclaimRetired: true,
	})
}

// LoadRegistry reads the subject types file at path. An empty path yields
// DefaultTypes. Types without a separator get the given default.
func LoadRegistry(path, separator string) (domain.Registry, error) {
	if path == "" {
		return DefaultTypes(separator), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Registry{}, fmt.Errorf("config.LoadRegistry: %w", err)
	}
	reg, err := ParseRegistry(data, separator)
	if err != nil {
		return domain.Registry{}, fmt.Errorf("config.LoadRegistry: %s: %w", path, err)
	}
	return reg, nil
}

// ParseRegistry decodes a subject types document. Unknown keys are errors
// so typos in a type's settings do not silently fall back to defaults.
// reclaim_retired defaults to true.
func ParseRegistry(data []byte, separator string) (domain.Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f typesFile
	if err := dec.Decode(&f); err != nil {
		return domain.Registry{}, fmt.Errorf("decode: %w", err)
	}
	if len(f.Types) == 0 {
		return domain.Registry{}, fmt.Errorf("no subject types defined")
	}

	names := make([]string, 0, len(f.Types))
	for name := range f.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	types := make([]domain.TypeConfig, 0, len(names))
	for _, name := range names {
		e := f.Types[name]
		sep := e.Separator
		if sep == "" {
			sep = separator
		}
		// Retired slugs move to a new owner unless reclaim_retired: false.
		reclaim := true
		if e.ReclaimRetired != nil {
			reclaim = *e.ReclaimRetired
		}
		types = append(types, domain.TypeConfig{
			Name:           name,
			History:        e.History,
			Scoped:         e.Scoped,
			Separator:      sep,
			ReclaimRetired: reclaim,
			Reserved:       normalizeReserved(e.Reserved),
		})
	}
	return domain.NewRegistry(types...), nil
}

// normalizeReserved brings reserved words into the same form as the
// candidates they are compared with, dropping blanks and duplicates.
func normalizeReserved(words []string) []string {
	var out []string
	for _, w := range words {
		n := slug.Normalize(w)
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}
