// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package locale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/plume/pkg/locale"
)

/*
TestText_Resolve checks the preferred -> platform fallback -> any order.
*/
func TestText_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		text      locale.Text
		preferred []string
		expected  string
	}{
		{"empty_bundle", locale.Text{}, []string{"fr"}, ""},
		{"exact_preferred", locale.Text{"fr": "Bonjour", "en": "Hello"}, []string{"en"}, "Hello"},
		{"regional_preferred", locale.Text{"fr": "Bonjour", "en": "Hello"}, []string{"fr-CA"}, "Bonjour"},
		{"platform_fallback_french", locale.Text{"en": "Hello", "fr": "Bonjour"}, []string{"de"}, "Bonjour"},
		{"platform_fallback_english", locale.Text{"en": "Hello", "es": "Hola"}, nil, "Hello"},
		{"platform_fallback_arabic", locale.Text{"ar": "مرحبا", "es": "Hola"}, nil, "مرحبا"},
		{"any_remaining", locale.Text{"es": "Hola"}, []string{"fr"}, "Hola"},
		{"blank_values_skipped", locale.Text{"fr": "  ", "en": "Hello"}, []string{"fr"}, "Hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.text.Resolve(tt.preferred...))
		})
	}
}

/*
TestText_Merge verifies that edits overlay without clearing untouched locales.
*/
func TestText_Merge(t *testing.T) {
	original := locale.Text{"fr": "Titre", "en": "Title"}

	merged := original.Merge(locale.Text{"fr": "Titre corrigé", "en": ""})

	assert.Equal(t, "Titre corrigé", merged["fr"])
	assert.Equal(t, "Title", merged["en"])
	assert.Equal(t, "Titre", original["fr"], "the original bundle must not be mutated")
}
