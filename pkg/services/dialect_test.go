package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// buildLines renders n data lines with the given separator.
func buildLines(sep string, n int) string {
	var b strings.Builder
	b.WriteString(strings.Join([]string{"id", "name", "amount"}, sep) + "\n")
	for i := range n {
		fmt.Fprintf(&b, "%d%sitem %d%s%d.50\n", i, sep, i, sep, i)
	}
	return b.String()
}

func TestDialectDetector_SeparatorDetection(t *testing.T) {
	detector := NewDialectDetector(zap.NewNop())

	tests := []struct {
		name string
		sep  string
		want string
	}{
		{"comma", ",", "comma"},
		{"semicolon", ";", "semicolon"},
		{"tab", "\t", "tab"},
		{"pipe", "|", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := buildLines(tt.sep, 25)
			_, dialect, err := detector.Detect([]byte(text))
			require.NoError(t, err)
			assert.Equal(t, tt.want, dialect.SeparatorName)
			assert.Equal(t, "utf-8", dialect.Encoding)
		})
	}
}

func TestDialectDetector_SingleColumnFallsBackToComma(t *testing.T) {
	detector := NewDialectDetector(zap.NewNop())

	_, dialect, err := detector.Detect([]byte("value\n1\n2\n3\n"))
	require.NoError(t, err)
	assert.Equal(t, "comma", dialect.SeparatorName)
}

func TestDialectDetector_TieBreakPrefersComma(t *testing.T) {
	detector := NewDialectDetector(zap.NewNop())

	// Both comma and semicolon appear exactly once per line.
	text := "a,b;c\n1,2;3\n4,5;6\n"
	_, dialect, err := detector.Detect([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, "comma", dialect.SeparatorName)
}

func TestDialectDetector_PrefersConsistentSeparator(t *testing.T) {
	detector := NewDialectDetector(zap.NewNop())

	// Semicolon appears once per line on every line; the comma counts vary
	// because commas also occur inside a free-text field.
	text := "name;note\nalice;loves apples, pears, plums\nbob;fine\ncarol;tea, coffee\n"
	_, dialect, err := detector.Detect([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, "semicolon", dialect.SeparatorName)
}

func TestDialectDetector_Utf8BOMStripped(t *testing.T) {
	detector := NewDialectDetector(zap.NewNop())

	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n1,2\n")...)
	text, dialect, err := detector.Detect(raw)
	require.NoError(t, err)
	assert.Equal(t, "utf-8", dialect.Encoding)
	assert.True(t, strings.HasPrefix(text, "a,b"))
}

func TestDialectDetector_LegacyEncodingFallback(t *testing.T) {
	detector := NewDialectDetector(zap.NewNop())

	// 0xE9 is "é" in Windows-1252 and invalid as a standalone UTF-8 byte.
	raw := []byte("name,city\nRen\xe9,Par\xe9s\n")
	text, dialect, err := detector.Detect(raw)
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", dialect.Encoding)
	assert.Contains(t, text, "René")
}

func TestDialectDetector_EmptyInput(t *testing.T) {
	detector := NewDialectDetector(zap.NewNop())

	_, dialect, err := detector.Detect(nil)
	require.NoError(t, err)
	assert.Equal(t, "comma", dialect.SeparatorName)
	assert.Equal(t, "utf-8", dialect.Encoding)
}

func TestDetectSeparator_IgnoresBlankLines(t *testing.T) {
	sep, name := detectSeparator("\n\na;b\n\n1;2\n")
	assert.Equal(t, ';', sep)
	assert.Equal(t, "semicolon", name)
}
