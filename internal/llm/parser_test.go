package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		expectErr bool
	}{
		{
			name:  "chat completions shape",
			input: `{"choices":[{"message":{"role":"assistant","content":"<p>Front bumper scratched.</p>"}}]}`,
			want:  "<p>Front bumper scratched.</p>",
		},
		{
			name:  "legacy output shape",
			input: `{"output":[{"type":"reasoning"},{"type":"message","content":[{"type":"output_text","text":"<p>Clean body.</p>"}]}]}`,
			want:  "<p>Clean body.</p>",
		},
		{
			name:  "choices preferred over output",
			input: `{"choices":[{"message":{"content":"from choices"}}],"output":[{"type":"message","content":[{"text":"from output"}]}]}`,
			want:  "from choices",
		},
		{
			name:  "whitespace trimmed",
			input: `{"choices":[{"message":{"content":"\n  text  \n"}}]}`,
			want:  "text",
		},
		{
			name:      "empty response",
			input:     ``,
			expectErr: true,
		},
		{
			name:      "no text anywhere",
			input:     `{"choices":[],"output":[{"type":"reasoning"}]}`,
			expectErr: true,
		},
		{
			name:      "not json",
			input:     `<html>gateway error</html>`,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput(json.RawMessage(tt.input))
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
