package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type record struct {
	name  string
	level *int
}

func (r record) StoplistLevel() *int { return r.level }

func lvl(n int) *int { return &n }

func TestVisible(t *testing.T) {
	assert.True(t, Visible(nil, 0))
	assert.True(t, Visible(lvl(0), 0))
	assert.True(t, Visible(lvl(1), 1))
	assert.True(t, Visible(lvl(1), 2))
	assert.False(t, Visible(lvl(2), 1))
	assert.False(t, Visible(lvl(2), 0))
}

func TestFilterPartitions(t *testing.T) {
	records := []record{
		{"untiered", nil},
		{"safe", lvl(0)},
		{"default", lvl(1)},
		{"restricted", lvl(2)},
	}

	visible, hidden := Filter(records, 1)
	assert.Len(t, visible, 3)
	assert.Len(t, hidden, 1)
	assert.Equal(t, "restricted", hidden[0].name)

	visible, hidden = Filter(records, 0)
	assert.Len(t, visible, 2)
	assert.Len(t, hidden, 2)
}

// Monotonicity: raising the requested level never hides a record that was
// visible at a lower level.
func TestFilterMonotonic(t *testing.T) {
	records := []record{
		{"a", nil}, {"b", lvl(0)}, {"c", lvl(1)},
		{"d", lvl(2)}, {"e", lvl(3)}, {"f", lvl(5)},
	}

	var prev []record
	for level := 0; level <= 6; level++ {
		visible, _ := Filter(records, level)
		for _, r := range prev {
			assert.Contains(t, visible, r, "record visible at level %d disappeared at %d", level-1, level)
		}
		prev = visible
	}
}

func TestDecodeLevel(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want *int
	}{
		{"nil", nil, nil},
		{"int", 2, lvl(2)},
		{"float from json", float64(3), lvl(3)},
		{"numeric string", "2", lvl(2)},
		{"padded numeric string", " 1 ", lvl(1)},
		{"legacy true string", "true", lvl(DefaultLegacyLevel)},
		{"legacy false string", "False", lvl(DefaultLegacyLevel)},
		{"legacy bool", true, lvl(DefaultLegacyLevel)},
		{"legacy bool false", false, lvl(DefaultLegacyLevel)},
		{"empty string", "", nil},
		{"garbage string", "restricted", nil},
		{"unexpected shape", []string{"x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeLevel(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}
