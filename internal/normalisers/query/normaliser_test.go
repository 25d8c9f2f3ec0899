package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "question marks and accents",
			input:    "¿Qué dice la Sala sobre el despido?",
			expected: "que dice la sala sobre el despido",
		},
		{
			name:     "exclamation marks",
			input:    "¡Urgente! pensión alimentaria",
			expected: "urgente pension alimentaria",
		},
		{
			name:     "enye and dieresis",
			input:    "Niño pingüino AÑO",
			expected: "nino pinguino ano",
		},
		{
			name:     "all accented vowels",
			input:    "á é í ó ú Á É Í Ó Ú",
			expected: "a e i o u a e i o u",
		},
		{
			name:     "commas and periods",
			input:    "despido, preaviso. cesantía",
			expected: "despido preaviso cesantia",
		},
		{
			name:     "repeated whitespace",
			input:    "  horas    extra \t nocturnas  ",
			expected: "horas extra nocturnas",
		},
		{
			name:     "period between words",
			input:    "art.29 del código",
			expected: "art 29 del codigo",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "punctuation only",
			input:    "¿?¡!.,",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize("¿Cuál es el plazo de prescripción?")
	assert.Equal(t, once, Normalize(once))
}

func TestComposeKeywords(t *testing.T) {
	normalized := "que dice la sala sobre el despido con responsabilidad patronal"

	tests := []struct {
		name     string
		phrases  []string
		expected string
	}{
		{
			name:     "ordered by first occurrence",
			phrases:  []string{"responsabilidad patronal", "despido", "sala"},
			expected: "sala & despido & responsabilidad patronal",
		},
		{
			name:     "duplicates and blanks dropped",
			phrases:  []string{"despido", " ", "despido", "sala"},
			expected: "sala & despido",
		},
		{
			name:     "absent phrases go last in input order",
			phrases:  []string{"preaviso", "despido", "cesantia"},
			expected: "despido & preaviso & cesantia",
		},
		{
			name:     "no phrases falls back to query",
			phrases:  nil,
			expected: normalized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComposeKeywords(normalized, tt.phrases))
		})
	}
}
