package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "cola", "cola"},
		{"descriptor dropped", "fresh eggs", "eggs"},
		{"many qualifiers", "finely chopped fresh garlic", "garlic"},
		{"quantity and unit", "2 cups all-purpose flour", "all purpose flour"},
		{"attached unit", "250g unsalted butter", "butter"},
		{"case and whitespace", "  Boneless SKINLESS Chicken Breast ", "chicken breast"},
		{"punctuation", "lime (juiced)", "lime juiced"},
		{"all descriptors", "fresh diced organic", ""},
		{"empty", "", ""},
		{"only numbers", "3 4", ""},
		{"noun unit kept when alone", "whole cloves", "cloves"},
		{"ground cloves", "1 tsp ground cloves", "cloves"},
		{"clove as unit", "2 cloves garlic, minced", "garlic"},
		{"head as unit", "1 head lettuce", "lettuce"},
		{"compound with filler", "1 cup half and half", "half and half"},
		{"compound with descriptor", "4 hot dogs", "hot dogs"},
		{"descriptor before compound", "fresh hot sauce", "hot sauce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer(nil)
	inputs := []string{
		"finely chopped fresh garlic",
		"2 cups all-purpose flour",
		"Coca-Cola Classic",
		"1/2 tsp sea salt, to taste",
		"İstanbul-style döner",
		"12oz can of diced tomatoes",
		"   ",
		"fresh",
		"Jalapeño peppers, seeded",
		"whole cloves",
		"half and half",
		"2 hot dogs",
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestCustomVocabulary(t *testing.T) {
	n := NewNormalizer(NewVocabulary([]string{"spicy"}, []string{"scoop"}))

	assert.Equal(t, "fresh salsa", n.Normalize("2 scoop spicy fresh salsa"))
}

func TestCustomVocabularyOptions(t *testing.T) {
	n := NewNormalizer(NewVocabulary(
		[]string{"mild"},
		[]string{"wedge"},
		WithNounUnits("wedge"),
		WithCompounds("mild cheddar"),
	))

	assert.Equal(t, "wedge", n.Normalize("2 wedge"))
	assert.Equal(t, "lime", n.Normalize("1 wedge lime"))
	assert.Equal(t, "mild cheddar", n.Normalize("mild cheddar"))
	assert.Equal(t, "salsa", n.Normalize("mild salsa"))
}
