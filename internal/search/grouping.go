package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taigabase/geobase/internal/maprender"
	"github.com/taigabase/geobase/internal/ranking"
)

// maxNamesInTooltip caps how many names a map tooltip spells out before
// collapsing into a count.
const maxNamesInTooltip = 3

// featureForObject renders one object as its own map feature with a short
// popup.
func featureForObject(obj *ranking.Object) maprender.Feature {
	popup := fmt.Sprintf("<h6>%s</h6>", obj.Name)
	if obj.ObjectType != "" {
		popup += fmt.Sprintf("<p><strong>Тип:</strong> %s</p>", obj.ObjectType)
	}
	if obj.Content != "" {
		short := obj.Content
		if len([]rune(short)) > 200 {
			short = string([]rune(short)[:200]) + "..."
		}
		popup += fmt.Sprintf("<p>%s</p>", short)
	}
	return maprender.Feature{
		Geometry:  obj.Geometry,
		Tooltip:   obj.Name,
		PopupHTML: popup,
	}
}

// groupByGeometry collapses objects sharing one geometry into a single map
// feature: a tooltip listing up to maxNamesInTooltip names and a popup
// listing all of them.
func groupByGeometry(objects []ranking.Object) (features []maprender.Feature, groupedNames []string) {
	type group struct {
		geometry []byte
		names    []string
	}
	groups := make(map[string]*group)
	var order []string

	for i := range objects {
		obj := &objects[i]
		if len(obj.Geometry) == 0 {
			continue
		}
		key := string(obj.Geometry)
		g, ok := groups[key]
		if !ok {
			g = &group{geometry: obj.Geometry}
			groups[key] = g
			order = append(order, key)
		}
		seen := false
		for _, n := range g.names {
			if n == obj.Name {
				seen = true
				break
			}
		}
		if !seen {
			g.names = append(g.names, obj.Name)
		}
	}

	for _, key := range order {
		g := groups[key]
		names := make([]string, len(g.names))
		copy(names, g.names)
		sort.Strings(names)

		var tooltip string
		if len(names) > maxNamesInTooltip {
			tooltip = fmt.Sprintf("%s и еще %d...",
				strings.Join(names[:maxNamesInTooltip], ", "), len(names)-maxNamesInTooltip)
		} else {
			tooltip = strings.Join(names, ", ")
		}

		popup := fmt.Sprintf("<h6>Обнаружено видов: %d</h6>", len(names))
		popup += `<ul style="padding-left: 20px; margin-top: 5px;">`
		for _, n := range names {
			popup += "<li>" + n + "</li>"
		}
		popup += "</ul>"

		features = append(features, maprender.Feature{
			Geometry:  g.geometry,
			Tooltip:   tooltip,
			PopupHTML: popup,
		})
		groupedNames = append(groupedNames, tooltip)
	}
	return features, groupedNames
}

// biologicalNames lists the distinct biological entity names, sorted.
func biologicalNames(objects []ranking.Object) []string {
	seen := make(map[string]struct{})
	for i := range objects {
		if objects[i].ObjectType == "biological_entity" {
			seen[objects[i].Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
