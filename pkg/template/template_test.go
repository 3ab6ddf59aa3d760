package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	data := map[string]any{
		"patient": map[string]any{
			"first_name": "Ana",
			"last_name":  "Keller",
		},
		"deal": map[string]any{
			"title": "Physio intake",
		},
		"to_stage": "Treatment",
		"count":    3,
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single placeholder",
			input:    "Hi {{patient.first_name}}",
			expected: "Hi Ana",
		},
		{
			name:     "multiple placeholders",
			input:    "{{patient.first_name}} {{patient.last_name}}: {{deal.title}}",
			expected: "Ana Keller: Physio intake",
		},
		{
			name:     "whitespace around path is trimmed",
			input:    "Moved to {{ to_stage }}",
			expected: "Moved to Treatment",
		},
		{
			name:     "missing leaf renders empty",
			input:    "Hi {{patient.middle_name}}",
			expected: "Hi ",
		},
		{
			name:     "missing root renders empty",
			input:    "Hi {{owner.name}}",
			expected: "Hi ",
		},
		{
			name:     "non-object intermediate renders empty",
			input:    "{{to_stage.name}}",
			expected: "",
		},
		{
			name:     "non-string value is stringified",
			input:    "{{count}} visits",
			expected: "3 visits",
		},
		{
			name:     "no placeholders round-trips unchanged",
			input:    "Plain text, no substitution {here}.",
			expected: "Plain text, no substitution {here}.",
		},
		{
			name:     "empty placeholder renders empty",
			input:    "x{{}}y",
			expected: "xy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.input, data))
		})
	}
}

func TestRenderNilValue(t *testing.T) {
	data := map[string]any{"patient": map[string]any{"email": nil}}

	assert.Equal(t, "email: ", Render("email: {{patient.email}}", data))
}

func TestRenderIsIdempotentWithoutPlaceholders(t *testing.T) {
	input := "Reminder: appointment tomorrow at 09:00"

	once := Render(input, map[string]any{})
	twice := Render(once, map[string]any{})

	assert.Equal(t, input, twice)
}

func TestHTMLFromText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "line breaks become br elements",
			input:    "line one\nline two",
			expected: "line one<br>line two",
		},
		{
			name:     "windows line breaks normalised",
			input:    "a\r\nb",
			expected: "a<br>b",
		},
		{
			name:     "markup characters escaped before breaks",
			input:    "dose < 2 & rest > 1\nok",
			expected: "dose &lt; 2 &amp; rest &gt; 1<br>ok",
		},
		{
			name:     "plain text unchanged",
			input:    "hello",
			expected: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTMLFromText(tt.input))
		})
	}
}
