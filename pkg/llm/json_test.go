package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "bare object",
			response: `{"descriptions": ["a", "b"]}`,
			want:     `{"descriptions": ["a", "b"]}`,
		},
		{
			name:     "object in markdown fence",
			response: "```json\n{\"descriptions\": [\"a\"]}\n```",
			want:     `{"descriptions": ["a"]}`,
		},
		{
			name:     "object with surrounding prose",
			response: `Here you go: {"descriptions": ["a"]} hope that helps!`,
			want:     `{"descriptions": ["a"]}`,
		},
		{
			name:     "bare array",
			response: `["a", "b"]`,
			want:     `["a", "b"]`,
		},
		{
			name:     "nested braces inside strings",
			response: `{"descriptions": ["uses { and } freely"]}`,
			want:     `{"descriptions": ["uses { and } freely"]}`,
		},
		{
			name:     "no JSON at all",
			response: "I cannot answer that.",
			wantErr:  true,
		},
		{
			name:     "unbalanced JSON",
			response: `{"descriptions": ["a"`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		Descriptions []string `json:"descriptions"`
	}

	t.Run("valid payload", func(t *testing.T) {
		got, err := ParseJSONResponse[payload](`noise {"descriptions": ["first", "second"]} noise`)
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, got.Descriptions)
	})

	t.Run("wrong shape still unmarshals to zero value", func(t *testing.T) {
		got, err := ParseJSONResponse[payload](`{"other": 1}`)
		require.NoError(t, err)
		assert.Empty(t, got.Descriptions)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseJSONResponse[payload]("not json")
		require.Error(t, err)
	})
}
