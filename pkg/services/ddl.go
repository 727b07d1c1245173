package services

import (
	"fmt"
	"strings"
)

// maxIdentifierLength is the MySQL identifier limit.
const maxIdentifierLength = 64

// DDLColumn is one column of a synthesized CREATE TABLE statement.
type DDLColumn struct {
	Name     string // already sanitized
	Type     string // valid MySQL column type
	Nullable bool
}

// SanitizeIdentifier rewrites arbitrary text into a valid MySQL identifier:
// disallowed characters become underscores, a leading digit gets an
// underscore prefix, and the result is truncated to 64 characters. Raw
// header text never reaches the DDL unsanitized.
func SanitizeIdentifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	sanitized := b.String()
	if sanitized == "" {
		return "_"
	}
	if sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "_" + sanitized
	}
	if len(sanitized) > maxIdentifierLength {
		sanitized = sanitized[:maxIdentifierLength]
	}
	return sanitized
}

// SanitizeColumnNames sanitizes every header name and disambiguates
// collisions with numeric suffixes, preserving column order.
func SanitizeColumnNames(names []string) []string {
	sanitized := make([]string, len(names))
	for i, name := range names {
		sanitized[i] = SanitizeIdentifier(name)
	}
	return dedupeSanitized(sanitized)
}

// dedupeSanitized appends _2, _3, ... to repeated sanitized names, keeping
// the result within the identifier length limit.
func dedupeSanitized(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		seen[name]++
		if seen[name] == 1 {
			out[i] = name
			continue
		}
		candidate := suffixed(name, seen[name])
		for seen[candidate] > 0 {
			seen[name]++
			candidate = suffixed(name, seen[name])
		}
		seen[candidate]++
		out[i] = candidate
	}
	return out
}

func suffixed(name string, n int) string {
	suffix := fmt.Sprintf("_%d", n)
	if len(name)+len(suffix) > maxIdentifierLength {
		name = name[:maxIdentifierLength-len(suffix)]
	}
	return name + suffix
}

// SynthesizeDDL renders a single CREATE TABLE statement. Column order is
// preserved from the source file; a column is NOT NULL only when no null
// values were observed. No primary key, index, or foreign key inference.
func SynthesizeDDL(tableName string, columns []DDLColumn) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		constraint := "NOT NULL"
		if col.Nullable {
			constraint = "NULL"
		}
		defs[i] = fmt.Sprintf("    `%s` %s %s", col.Name, col.Type, constraint)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE `%s` (\n", SanitizeIdentifier(tableName))
	b.WriteString(strings.Join(defs, ",\n"))
	b.WriteString("\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;")
	return b.String()
}
