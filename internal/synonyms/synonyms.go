// Package synonyms maps free-form object names to canonical names using a
// static alias table loaded once at startup. The index is read-only after
// Load and safe for unsynchronized concurrent reads.
package synonyms

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taigabase/geobase/internal/errors"
)

// Table is the on-disk alias table shape: entity type -> canonical name ->
// aliases. One canonical name may have zero aliases.
type Table map[string]map[string][]string

// Entry identifies a canonical name within one entity type.
type Entry struct {
	CanonicalName string
	EntityType    string
}

// Resolution is the outcome of a lookup. When Resolved is false the
// CanonicalName carries the original input unchanged.
type Resolution struct {
	CanonicalName string
	EntityType    string
	Resolved      bool
}

// Index is the bidirectional alias index. Built once, never mutated;
// rebuilding requires a full reload.
type Index struct {
	byAlias     map[string][]Entry
	byCanonical map[string][]Entry
	table       Table
}

// Load reads an alias table from a YAML or JSON file and builds the index.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Newf("reading synonym table: %w", err).
			Category(errors.CategoryConfiguration).
			Component("synonyms").
			Context("path", path).
			Build()
	}

	var table Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &table)
	default:
		err = yaml.Unmarshal(data, &table)
	}
	if err != nil {
		return nil, errors.Newf("parsing synonym table: %w", err).
			Category(errors.CategoryConfiguration).
			Component("synonyms").
			Context("path", path).
			Build()
	}

	return NewIndex(table), nil
}

// NewIndex builds the bidirectional index from an alias table.
func NewIndex(table Table) *Index {
	ix := &Index{
		byAlias:     make(map[string][]Entry),
		byCanonical: make(map[string][]Entry),
		table:       table,
	}

	// Iterate types and canonical names in sorted order so that lookups
	// across entity types resolve deterministically.
	types := make([]string, 0, len(table))
	for entityType := range table {
		types = append(types, entityType)
	}
	sort.Strings(types)

	for _, entityType := range types {
		canonicals := make([]string, 0, len(table[entityType]))
		for canonical := range table[entityType] {
			canonicals = append(canonicals, canonical)
		}
		sort.Strings(canonicals)

		for _, canonical := range canonicals {
			entry := Entry{CanonicalName: canonical, EntityType: entityType}
			ix.byCanonical[normalize(canonical)] = append(ix.byCanonical[normalize(canonical)], entry)
			// The canonical name resolves to itself.
			ix.byAlias[normalize(canonical)] = append(ix.byAlias[normalize(canonical)], entry)
			for _, alias := range table[entityType][canonical] {
				key := normalize(alias)
				if key == normalize(canonical) {
					continue
				}
				ix.byAlias[key] = append(ix.byAlias[key], entry)
			}
		}
	}
	return ix
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve maps a free-form name to its canonical form. Lookup is
// case-insensitive and exact-token only. A type restriction prefers a match
// of that entity type; with no restriction the first match wins. Resolution
// failure is never an error: the original name is returned with
// Resolved=false so callers keep the literal name.
func (ix *Index) Resolve(name, entityType string) Resolution {
	key := normalize(name)

	if entries, ok := ix.byAlias[key]; ok {
		if entityType != "" {
			for _, e := range entries {
				if e.EntityType == entityType {
					return Resolution{CanonicalName: e.CanonicalName, EntityType: e.EntityType, Resolved: true}
				}
			}
		} else {
			e := entries[0]
			return Resolution{CanonicalName: e.CanonicalName, EntityType: e.EntityType, Resolved: true}
		}
	}

	// Fall back to scanning canonical names.
	if entries, ok := ix.byCanonical[key]; ok {
		for _, e := range entries {
			if entityType == "" || e.EntityType == entityType {
				return Resolution{CanonicalName: e.CanonicalName, EntityType: e.EntityType, Resolved: true}
			}
		}
	}

	return Resolution{CanonicalName: name, EntityType: entityType, Resolved: false}
}

// Expand returns the canonical name plus every alias of the name's
// canonical form, for building name-pattern predicates. An unresolvable
// name expands to itself.
func (ix *Index) Expand(name string) []string {
	res := ix.Resolve(name, "")
	if !res.Resolved {
		return []string{name}
	}

	seen := map[string]struct{}{normalize(res.CanonicalName): {}}
	out := []string{res.CanonicalName}
	for _, alias := range ix.table[res.EntityType][res.CanonicalName] {
		key := normalize(alias)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, alias)
	}
	return out
}

// Synonyms returns the alias list for a name's canonical form, keyed by the
// canonical name. An empty map means the name is unknown.
func (ix *Index) Synonyms(name string) map[string][]string {
	res := ix.Resolve(name, "")
	if !res.Resolved {
		return map[string][]string{}
	}
	aliases := ix.table[res.EntityType][res.CanonicalName]
	out := make([]string, len(aliases))
	copy(out, aliases)
	return map[string][]string{res.CanonicalName: out}
}

// All returns a deep copy of the alias table.
func (ix *Index) All() Table {
	out := make(Table, len(ix.table))
	for entityType, canonicals := range ix.table {
		out[entityType] = make(map[string][]string, len(canonicals))
		for canonical, aliases := range canonicals {
			cp := make([]string, len(aliases))
			copy(cp, aliases)
			out[entityType][canonical] = cp
		}
	}
	return out
}

// Len returns the number of indexed alias keys.
func (ix *Index) Len() int {
	return len(ix.byAlias)
}
