package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/schemasense/schemasense-engine/pkg/config"
	"github.com/schemasense/schemasense-engine/pkg/models"
)

// Pattern-based checks, most specific first. A logical type is assigned only
// when at least the configured threshold of non-null values matches;
// otherwise classification falls through, terminating at free-text.
var (
	booleanPattern    = regexp.MustCompile(`(?i)^(true|false|yes|no|y|n|t|f|0|1)$`)
	integerPattern    = regexp.MustCompile(`^[+-]?\d+$`)
	decimalPattern    = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+|\d+)$`)
	identifierPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	emailPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern      = regexp.MustCompile(`^\+?[\d\s\-().]{7,20}$`)
	phoneDigits       = regexp.MustCompile(`\d`)
)

// datePatterns pair a cheap regexp gate with the time layouts that validate
// the match, so "2025-13-45" is not a date.
var datePatterns = []struct {
	pattern *regexp.Regexp
	layouts []string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), []string{"2006-01-02"}},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), []string{"1/2/2006", "01/02/2006"}},
	{regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`), []string{"2.1.2006", "02.01.2006"}},
}

var datetimePatterns = []struct {
	pattern *regexp.Regexp
	layouts []string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`), []string{time.RFC3339, time.RFC3339Nano}},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`), []string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.000"}},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`), []string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.000"}},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}:\d{2}$`), []string{"1/2/2006 15:04:05", "01/02/2006 15:04:05"}},
}

// varcharBuckets are the VARCHAR sizes tried smallest-first for bounded
// string types, capped at varcharCap.
var varcharBuckets = []int{32, 64, 128, 255}

const varcharCap = 255

// maxFailedExamples bounds how many offending values an "inconsistent
// formatting" note cites.
const maxFailedExamples = 3

// nearMissFloor is the minimum match ratio for a failed check to be worth
// reporting as a near miss.
const nearMissFloor = 0.5

// TypeClassifier maps a profiled column's raw values to a logical semantic
// type and a concrete MySQL column type.
type TypeClassifier struct {
	threshold     float64
	allNullPolicy config.AllNullPolicy
}

// NewTypeClassifier creates a classifier with the given match threshold
// (0..1] and all-null column policy.
func NewTypeClassifier(threshold float64, allNullPolicy config.AllNullPolicy) *TypeClassifier {
	return &TypeClassifier{threshold: threshold, allNullPolicy: allNullPolicy}
}

// typeCheck is one entry in the ordered classification battery.
type typeCheck struct {
	logical models.LogicalType
	match   func(value string) bool
}

func (c *TypeClassifier) battery() []typeCheck {
	return []typeCheck{
		{models.LogicalTypeBoolean, func(v string) bool { return booleanPattern.MatchString(v) }},
		{models.LogicalTypeInteger, func(v string) bool { return integerPattern.MatchString(v) }},
		{models.LogicalTypeDecimal, isDecimal},
		{models.LogicalTypeDate, isDate},
		{models.LogicalTypeDatetime, isDatetime},
		{models.LogicalTypeIdentifier, func(v string) bool { return identifierPattern.MatchString(v) }},
		{models.LogicalTypeEmail, func(v string) bool { return emailPattern.MatchString(v) }},
		{models.LogicalTypePhone, isPhone},
	}
}

// Classify assigns the column a logical and physical type from its profile
// and raw values. Values that are null per the profiler are ignored.
func (c *TypeClassifier) Classify(profile models.ColumnProfile, values []string) models.ColumnType {
	nonNull := make([]string, 0, len(values))
	for _, raw := range values {
		if !IsNullValue(raw) {
			nonNull = append(nonNull, strings.TrimSpace(raw))
		}
	}

	if len(nonNull) == 0 {
		// All-null column: typed per the configured policy; both variants
		// store as nullable VARCHAR(255).
		return models.ColumnType{
			Logical:    models.LogicalTypeFreeText,
			Physical:   "VARCHAR(255)",
			MatchRatio: 1,
		}
	}

	bestMiss := models.ColumnType{}
	bestMissRatio := 0.0

	for _, check := range c.battery() {
		matched := 0
		var failed []string
		for _, v := range nonNull {
			if check.match(v) {
				matched++
			} else if len(failed) < maxFailedExamples {
				failed = append(failed, v)
			}
		}

		ratio := float64(matched) / float64(len(nonNull))
		if ratio >= c.threshold {
			return models.ColumnType{
				Logical:    check.logical,
				Physical:   c.physicalType(check.logical, profile, nonNull),
				MatchRatio: ratio,
			}
		}
		if ratio > bestMissRatio && ratio >= nearMissFloor {
			bestMissRatio = ratio
			bestMiss = models.ColumnType{
				NearestLogical: check.logical,
				FailedExamples: failed,
			}
		}
	}

	// Terminal fallback: text, categorical when cardinality is low.
	logical := models.LogicalTypeFreeText
	if isCategorical(profile, len(nonNull)) {
		logical = models.LogicalTypeCategorical
	}

	return models.ColumnType{
		Logical:        logical,
		Physical:       c.physicalType(logical, profile, nonNull),
		MatchRatio:     1,
		NearestLogical: bestMiss.NearestLogical,
		FailedExamples: bestMiss.FailedExamples,
	}
}

// AllNullPolicy exposes the configured all-null handling for the
// recommendation generator.
func (c *TypeClassifier) AllNullPolicy() config.AllNullPolicy {
	return c.allNullPolicy
}

// isCategorical treats low-cardinality bounded text as an enumeration-like
// column, which gets a sized VARCHAR instead of TEXT.
func isCategorical(profile models.ColumnProfile, nonNullCount int) bool {
	if nonNullCount == 0 || profile.MaxValueLength > varcharCap {
		return false
	}
	return float64(profile.UniqueCount)/float64(nonNullCount) <= 0.5
}

// physicalType derives the MySQL column type for the chosen logical type.
func (c *TypeClassifier) physicalType(logical models.LogicalType, profile models.ColumnProfile, nonNull []string) string {
	switch logical {
	case models.LogicalTypeBoolean:
		return "BOOLEAN"
	case models.LogicalTypeInteger:
		return integerPhysicalType(nonNull)
	case models.LogicalTypeDecimal:
		return decimalPhysicalType(profile)
	case models.LogicalTypeDate:
		return "DATE"
	case models.LogicalTypeDatetime:
		return "DATETIME"
	case models.LogicalTypeIdentifier:
		return "CHAR(36)"
	case models.LogicalTypeEmail, models.LogicalTypePhone, models.LogicalTypeCategorical:
		return varcharType(profile.MaxValueLength)
	case models.LogicalTypeFreeText:
		if profile.MaxValueLength > varcharCap {
			return "TEXT"
		}
		return "VARCHAR(255)"
	default:
		return "VARCHAR(255)"
	}
}

// integerPhysicalType picks the smallest MySQL integer width covering the
// observed range, unsigned when no observed value is negative.
func integerPhysicalType(values []string) string {
	var minVal, maxVal int64
	first := true
	for _, v := range values {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			// Out of int64 range; nothing smaller than BIGINT fits.
			if strings.HasPrefix(strings.TrimSpace(v), "-") {
				return "BIGINT"
			}
			return "BIGINT UNSIGNED"
		}
		if first {
			minVal, maxVal = n, n
			first = false
			continue
		}
		if n < minVal {
			minVal = n
		}
		if n > maxVal {
			maxVal = n
		}
	}

	if minVal >= 0 {
		switch {
		case maxVal <= 255:
			return "TINYINT UNSIGNED"
		case maxVal <= 65535:
			return "SMALLINT UNSIGNED"
		case maxVal <= 4294967295:
			return "INT UNSIGNED"
		default:
			return "BIGINT UNSIGNED"
		}
	}

	switch {
	case minVal >= -128 && maxVal <= 127:
		return "TINYINT"
	case minVal >= -32768 && maxVal <= 32767:
		return "SMALLINT"
	case minVal >= -2147483648 && maxVal <= 2147483647:
		return "INT"
	default:
		return "BIGINT"
	}
}

// decimalPhysicalType sizes DECIMAL(p,s) from the observed maximum integer
// and fractional digit widths.
func decimalPhysicalType(profile models.ColumnProfile) string {
	intDigits, fracDigits := 10, 2
	if ns := profile.Numeric; ns != nil {
		intDigits = max(ns.MaxIntegerDigits, 1)
		fracDigits = ns.MaxFractionDigits
	}
	precision := intDigits + fracDigits
	if precision > 65 {
		precision = 65
	}
	if fracDigits > 30 {
		fracDigits = 30
	}
	return fmt.Sprintf("DECIMAL(%d,%d)", precision, fracDigits)
}

// varcharType returns the smallest standard bucket covering the observed
// maximum length, capped at 255.
func varcharType(maxLength int) string {
	for _, bucket := range varcharBuckets {
		if maxLength <= bucket {
			return fmt.Sprintf("VARCHAR(%d)", bucket)
		}
	}
	return fmt.Sprintf("VARCHAR(%d)", varcharCap)
}

func isDecimal(value string) bool {
	if !decimalPattern.MatchString(value) {
		return false
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

func isDate(value string) bool {
	for _, dp := range datePatterns {
		if dp.pattern.MatchString(value) {
			for _, layout := range dp.layouts {
				if _, err := time.Parse(layout, value); err == nil {
					return true
				}
			}
		}
	}
	return false
}

func isDatetime(value string) bool {
	for _, dp := range datetimePatterns {
		if dp.pattern.MatchString(value) {
			for _, layout := range dp.layouts {
				if _, err := time.Parse(layout, value); err == nil {
					return true
				}
			}
		}
	}
	return false
}

// isPhone requires the loose phone shape plus at least 7 actual digits, so
// that dashed words do not pass.
func isPhone(value string) bool {
	if !phonePattern.MatchString(value) {
		return false
	}
	return len(phoneDigits.FindAllString(value, -1)) >= 7
}
