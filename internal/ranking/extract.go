package ranking

import (
	"fmt"
	"sort"
	"strings"
)

// Section and field labels for rendering structured attribute documents as
// plain text. Only known sections are extracted; unknown keys are skipped.
var sectionTitles = map[string]string{
	"morphology":   "Морфология",
	"ecology":      "Экология",
	"distribution": "Распространение",
	"phenology":    "Фенология",
	"significance": "Значение",
	"conservation": "Охранный статус",
	"taxonomy":     "Таксономия",
}

var fieldTitles = map[string]string{
	"general_description":   "Общее описание",
	"habitat":               "Местообитание",
	"ecological_role":       "Экологическая роль",
	"geographical_range":    "Географический ареал",
	"baikal_region_status":  "Статус в Байкальском регионе",
	"flowering_period":      "Период цветения",
	"fruiting_period":       "Период плодоношения",
	"practical_use":         "Практическое использование",
	"scientific_value":      "Научное значение",
	"soil_preferences":      "Предпочтения к почве",
	"light_requirements":    "Требования к свету",
	"species_interactions":  "Взаимодействие с другими видами",
	"moisture_requirements": "Требования к влаге",
	"genus":                 "Род",
	"family":                "Семейство",
	"species":               "Вид",
	"vegetation_period":     "Период вегетации",
	"stem":                  "Стебель",
	"roots":                 "Корни",
	"fruits":                "Плоды",
	"leaves":                "Листья",
	"flowers":               "Цветы",
	"threats":               "Угрозы",
	"red_book_status":       "Статус в Красной книге",
	"protection_status":     "Статус охраны",
	"protected_areas":       "Охраняемые территории",
}

// ExtractStructuredContent renders the known sections of a structured
// attributes document as labeled plain text. Empty, "-" and non-string
// leaves are skipped. Returns "" when nothing usable remains.
func ExtractStructuredContent(structured map[string]any) string {
	if len(structured) == 0 {
		return ""
	}

	sections := make([]string, 0, len(structured))
	keys := make([]string, 0, len(structured))
	for k := range structured {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, section := range keys {
		title, known := sectionTitles[section]
		sectionData, isMap := structured[section].(map[string]any)
		if !known || !isMap {
			continue
		}

		fieldKeys := make([]string, 0, len(sectionData))
		for k := range sectionData {
			fieldKeys = append(fieldKeys, k)
		}
		sort.Strings(fieldKeys)

		var lines []string
		for _, field := range fieldKeys {
			value, isString := sectionData[field].(string)
			if !isString {
				continue
			}
			value = strings.TrimSpace(value)
			if value == "" || value == "-" {
				continue
			}
			fieldTitle, ok := fieldTitles[field]
			if !ok {
				fieldTitle = field
			}
			lines = append(lines, fmt.Sprintf("• %s: %s", fieldTitle, value))
		}

		if len(lines) > 0 {
			sections = append(sections, title+":\n"+strings.Join(lines, "\n"))
		}
	}

	return strings.Join(sections, "\n\n")
}
