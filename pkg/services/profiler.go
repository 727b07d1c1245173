package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/schemasense/schemasense-engine/pkg/models"
)

// nullTokens are cell values treated as null in addition to empty and
// whitespace-only cells.
var nullTokens = map[string]struct{}{
	"NULL": {}, "null": {},
	"None": {}, "none": {},
	"N/A": {}, "n/a": {},
	"NA": {}, "na": {},
}

// IsNullValue reports whether a raw cell value counts as null.
func IsNullValue(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	_, ok := nullTokens[trimmed]
	return ok
}

// ProfileColumn computes per-column statistics from raw cell values. It is a
// pure function: deterministic for a given input, no side effects.
//
// sampleLimit caps the number of distinct non-null sample values kept, in
// order of first appearance.
func ProfileColumn(name string, values []string, sampleLimit int) models.ColumnProfile {
	profile := models.ColumnProfile{
		Name:         name,
		TotalCount:   len(values),
		SampleValues: []string{},
	}
	if sampleLimit < 1 {
		sampleLimit = 1
	}

	distinct := make(map[string]struct{})
	var numericValues []float64
	allInteger := true
	maxIntDigits, maxFracDigits := 0, 0

	for _, raw := range values {
		if IsNullValue(raw) {
			profile.NullCount++
			continue
		}
		value := strings.TrimSpace(raw)

		if _, ok := distinct[value]; !ok {
			distinct[value] = struct{}{}
			if len(profile.SampleValues) < sampleLimit {
				profile.SampleValues = append(profile.SampleValues, value)
			}
		}

		if n := len([]rune(value)); n > profile.MaxValueLength {
			profile.MaxValueLength = n
		}

		if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			numericValues = append(numericValues, f)
			intDigits, fracDigits, isInt := digitWidths(value)
			if !isInt {
				allInteger = false
			}
			if intDigits > maxIntDigits {
				maxIntDigits = intDigits
			}
			if fracDigits > maxFracDigits {
				maxFracDigits = fracDigits
			}
		}
	}

	profile.UniqueCount = len(distinct)
	profile.NullPercentage = nullPercentage(profile.NullCount, profile.TotalCount)

	if len(numericValues) > 0 {
		profile.Numeric = numericStats(numericValues, allInteger, maxIntDigits, maxFracDigits)
	}

	return profile
}

// nullPercentage returns nullCount/totalCount as a percentage rounded to two
// decimals, with an explicit zero-row guard.
func nullPercentage(nullCount, totalCount int) float64 {
	if totalCount == 0 {
		return 0
	}
	pct := float64(nullCount) / float64(totalCount) * 100
	return math.Round(pct*100) / 100
}

// digitWidths inspects the textual form of a numeric value and returns the
// integer and fractional digit counts. Scientific notation is treated as
// non-integer with unknown widths.
func digitWidths(value string) (intDigits, fracDigits int, isInteger bool) {
	value = strings.TrimLeft(value, "+-")
	if strings.ContainsAny(value, "eE") {
		return len(value), 0, false
	}

	whole, frac, hasFrac := strings.Cut(value, ".")
	intDigits = len(strings.TrimLeft(whole, "0"))
	if intDigits == 0 {
		intDigits = 1
	}
	if !hasFrac {
		return intDigits, 0, true
	}
	fracDigits = len(frac)
	return intDigits, fracDigits, strings.Trim(frac, "0") == ""
}

// numericStats summarizes the numeric interpretation of the column,
// including the quartiles used for IQR outlier recommendations.
func numericStats(values []float64, allInteger bool, maxIntDigits, maxFracDigits int) *models.NumericStats {
	ns := &models.NumericStats{
		Count:             len(values),
		AllInteger:        allInteger,
		MaxIntegerDigits:  maxIntDigits,
		MaxFractionDigits: maxFracDigits,
	}

	ns.Min, _ = stats.Min(values)
	ns.Max, _ = stats.Max(values)

	if q, err := stats.Quartile(values); err == nil {
		ns.Q1 = q.Q1
		ns.Q3 = q.Q3

		if iqr := q.Q3 - q.Q1; iqr > 0 {
			lower := q.Q1 - 1.5*iqr
			upper := q.Q3 + 1.5*iqr
			for _, v := range values {
				if v < lower || v > upper {
					ns.OutlierCount++
				}
			}
		}
	}

	return ns
}
