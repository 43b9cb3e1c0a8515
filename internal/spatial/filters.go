package spatial

import (
	"sort"
	"strings"
)

// Filters are the optional entity predicates shared by every search mode.
type Filters struct {
	// Name is matched as a case-insensitive substring against the
	// normalized entity name.
	Name string
	// Type matches featureData.geoType.primaryType / specificTypes members
	// or the informationType tag.
	Type string
	// Subtype matches featureData.geoType.specificTypes members only.
	Subtype string
}

// conditions renders the filters as AND-able SQL fragments. jsonb_exists is
// the function form of the JSONB "?" operator, used so the text never
// collides with positional placeholders.
func (f Filters) conditions() (conds []string, args []any) {
	if f.Name != "" {
		conds = append(conds, "entities.name ILIKE ?")
		args = append(args, "%"+f.Name+"%")
	}
	if f.Type != "" {
		conds = append(conds, `(
			jsonb_exists(entities.feature_data->'geo_type'->'primary_type', ?)
			OR jsonb_exists(entities.feature_data->'geo_type'->'specific_types', ?)
			OR entities.feature_data->>'information_type' = ?
		)`)
		args = append(args, f.Type, f.Type, f.Type)
	}
	if f.Subtype != "" {
		conds = append(conds, "jsonb_exists(entities.feature_data->'geo_type'->'specific_types', ?)")
		args = append(args, f.Subtype)
	}
	return conds, args
}

// speciesPredicate renders the species-name patterns together with the
// stoplist gate. Both live in the same joined species row, so safety is
// enforced at query level here, not post-filtered. Patterns are sorted so
// the generated SQL is deterministic.
func speciesPredicate(patterns []string, stoplistLevel int) (sql string, args []any) {
	sorted := make([]string, len(patterns))
	copy(sorted, patterns)
	sort.Strings(sorted)

	nameConds := make([]string, 0, len(sorted))
	for _, p := range sorted {
		nameConds = append(nameConds, "be_species.common_name_ru ILIKE ? OR be_species.scientific_name ILIKE ?")
		args = append(args, p, p)
	}

	sql = `AND (` + strings.Join(nameConds, " OR ") + `)
	AND (
		be_species.feature_data->>'in_stoplist' IS NULL
		OR be_species.feature_data->>'in_stoplist' IN ('false', 'true')
		OR (be_species.feature_data->>'in_stoplist')::integer <= ?
	)`
	args = append(args, stoplistLevel)
	return sql, args
}

const speciesJoin = `JOIN entity_geo eg_species ON entities.geographical_entity_id = eg_species.geographical_entity_id
	JOIN biological_entity be_species ON eg_species.entity_id = be_species.id
		AND eg_species.entity_type = 'biological_entity'`

// geometryJoin links each normalized entity row to its map geometry through
// the entity-geo table.
const geometryJoin = `JOIN map_content mc ON mc.id IN (
		SELECT entity_id FROM entity_geo
		WHERE geographical_entity_id = entities.geographical_entity_id
		AND entity_type = 'map_content'
	)`
