package search

import (
	"context"
	"strings"

	"github.com/taigabase/geobase/internal/ranking"
)

// Description is one text document describing an object.
type Description struct {
	Title   string         `json:"title,omitempty"`
	Content string         `json:"content"`
	Source  ranking.Source `json:"source"`
}

// Describe returns the text documents linked to an object, resolving the
// name through synonyms first. Documents without plain content fall back to
// their structured attributes; documents with neither are dropped.
func (s *Service) Describe(ctx context.Context, objectName, objectType string) ([]Description, error) {
	name := strings.TrimSpace(objectName)
	if s.synonyms != nil {
		if res := s.synonyms.Resolve(name, objectType); res.Resolved {
			name = res.CanonicalName
		}
	}

	docs, err := s.ds.Descriptions(ctx, name, objectType)
	if err != nil {
		return nil, err
	}

	descriptions := make([]Description, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		obj, ok := ranking.NewObject(int64(doc.ID), doc.Title, "text_content", doc.Content, doc.StructuredData)
		if !ok {
			continue
		}
		descriptions = append(descriptions, Description{
			Title:   doc.Title,
			Content: obj.Content,
			Source:  obj.Source,
		})
	}
	return descriptions, nil
}

// Synonyms returns the alias groups matching a name, or every known group
// when the name is empty.
func (s *Service) Synonyms(name string) map[string][]string {
	if s.synonyms == nil {
		return nil
	}
	if strings.TrimSpace(name) == "" {
		flat := make(map[string][]string)
		for _, byCanonical := range s.synonyms.All() {
			for canonical, aliases := range byCanonical {
				flat[canonical] = append(flat[canonical], aliases...)
			}
		}
		return flat
	}
	return s.synonyms.Synonyms(name)
}
