package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user_id", "user_id"},
		{"User ID", "User_ID"},
		{"3 bad-name!", "_3_bad_name_"},
		{"order", "order"},
		{"", "_"},
		{"données", "donn_es"},
		{"42", "_42"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeIdentifier(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeIdentifier_Truncates(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := SanitizeIdentifier(long)
	assert.Len(t, got, 64)
}

func TestSanitizeColumnNames_Collisions(t *testing.T) {
	got := SanitizeColumnNames([]string{"a b", "a-b", "a_b"})
	assert.Equal(t, []string{"a_b", "a_b_2", "a_b_3"}, got)
}

func TestSanitizeColumnNames_SuffixWithinLimit(t *testing.T) {
	long := strings.Repeat("x", 70)
	got := SanitizeColumnNames([]string{long, long})

	assert.Len(t, got[0], 64)
	assert.Len(t, got[1], 64)
	assert.NotEqual(t, got[0], got[1])
	assert.True(t, strings.HasSuffix(got[1], "_2"))
}

func TestSynthesizeDDL(t *testing.T) {
	ddl := SynthesizeDDL("orders 2024", []DDLColumn{
		{Name: "id", Type: "INT UNSIGNED", Nullable: false},
		{Name: "email", Type: "VARCHAR(64)", Nullable: true},
	})

	want := "CREATE TABLE `orders_2024` (\n" +
		"    `id` INT UNSIGNED NOT NULL,\n" +
		"    `email` VARCHAR(64) NULL\n" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;"
	assert.Equal(t, want, ddl)
}

func TestSynthesizeDDL_Deterministic(t *testing.T) {
	columns := []DDLColumn{
		{Name: "a", Type: "DATE", Nullable: true},
		{Name: "b", Type: "TEXT", Nullable: false},
	}

	first := SynthesizeDDL("t", columns)
	for range 5 {
		assert.Equal(t, first, SynthesizeDDL("t", columns))
	}
}
