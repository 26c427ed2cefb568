package grocery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fresh Basil Leaves", "basil"},
		{"  Chopped Onion ", "onion"},
		{"garlic cloves", "garlic"},
		{"Whole Milk", "milk"},
		{"thyme sprigs", "thyme"},
		{"celery stalk", "celery"},
		{"fresh dried basil", "basil"},
		{"Salt", "salt"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"Fresh Basil Leaves",
		"frozen fresh peas",
		"minced garlic cloves",
		"cilantro bunch leaves",
		"Sliced Whole Almonds",
		"olive oil",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), in)
	}
}

func TestNormalizeUnit(t *testing.T) {
	assert.Nil(t, NormalizeUnit(nil))

	tests := []struct {
		in   string
		want string
	}{
		{"Tablespoons ", "tbsp"},
		{"teaspoon", "tsp"},
		{"cups", "cup"},
		{"Grams", "g"},
		{"litres", "l"},
		{"lbs", "lb"},
		{"Pinch", "pinch"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeUnit(strPtr(tt.in))
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want, *got)
				again := NormalizeUnit(got)
				assert.Equal(t, *got, *again)
			}
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "basil|g", Key("Fresh Basil", strPtr("Grams")))
	assert.Equal(t, "salt|", Key("salt", nil))
	assert.Equal(t, Key("Chopped Onion", strPtr("cups")), Key("onion", strPtr("Cup")))
	assert.NotEqual(t, Key("flour", strPtr("cup")), Key("flour", strPtr("g")))
}
