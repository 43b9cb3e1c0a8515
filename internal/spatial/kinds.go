// Package spatial builds the federated PostGIS queries behind every search
// mode. Builders are pure functions returning SQL text plus positional
// arguments; execution belongs to the datastore.
package spatial

import (
	"fmt"

	"github.com/taigabase/geobase/internal/errors"
)

// EntityKind names one table of the federated entity union.
type EntityKind string

const (
	KindBiological   EntityKind = "biological_entity"
	KindGeographical EntityKind = "geographical_entity"
	KindImage        EntityKind = "image_content"
	KindText         EntityKind = "text_content"
)

// allKinds is the expansion order for "all" queries. Fixed so generated SQL
// is deterministic.
var allKinds = []EntityKind{KindBiological, KindGeographical, KindImage, KindText}

// ResolveKinds maps a requested object type onto the union members to
// query. Empty and "all" expand to every kind.
func ResolveKinds(objectType string) ([]EntityKind, error) {
	if objectType == "" || objectType == "all" {
		kinds := make([]EntityKind, len(allKinds))
		copy(kinds, allKinds)
		return kinds, nil
	}
	for _, k := range allKinds {
		if objectType == string(k) {
			return []EntityKind{k}, nil
		}
	}
	return nil, errors.New(fmt.Errorf("unknown object type %q", objectType)).
		Component("spatial").
		Category(errors.CategoryValidation).
		Context("object_type", objectType).
		Build()
}

// unionFragment returns the sub-select that normalizes one entity table to
// the shared shape {id, name, description, type, feature_data,
// geographical_entity_id}. Entities without a geo link simply produce no
// rows here; they never reach the spatial predicates.
func unionFragment(kind EntityKind) string {
	switch kind {
	case KindBiological:
		return `SELECT be.id, be.common_name_ru AS name, be.description,
			'biological_entity' AS type, be.feature_data, eg.geographical_entity_id
		FROM biological_entity be
		JOIN entity_geo eg ON be.id = eg.entity_id AND eg.entity_type = 'biological_entity'`
	case KindGeographical:
		return `SELECT ge.id, ge.name_ru AS name, ge.description,
			'geographical_entity' AS type, ge.feature_data, ge.id AS geographical_entity_id
		FROM geographical_entity ge`
	case KindImage:
		return `SELECT ic.id, ic.title AS name, ic.description,
			'image_content' AS type, ic.feature_data, eg.geographical_entity_id
		FROM image_content ic
		JOIN entity_geo eg ON ic.id = eg.entity_id AND eg.entity_type = 'image_content'`
	case KindText:
		return `SELECT tc.id, tc.title AS name, tc.description,
			'text_content' AS type, tc.feature_data, eg.geographical_entity_id
		FROM text_content tc
		JOIN entity_geo eg ON tc.id = eg.entity_id AND eg.entity_type = 'text_content'`
	default:
		return ""
	}
}

func entityUnion(kinds []EntityKind) string {
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if f := unionFragment(k); f != "" {
			parts = append(parts, f)
		}
	}
	union := parts[0]
	for _, p := range parts[1:] {
		union += "\n\t\tUNION ALL\n\t\t" + p
	}
	return union
}
