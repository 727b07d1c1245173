package services

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/schemasense/schemasense-engine/pkg/config"
	"github.com/schemasense/schemasense-engine/pkg/models"
)

// Null-rate tiers for the missing-data recommendations, in percent.
const (
	highNullPercentage     = 50
	mediumNullPercentage   = 20
	moderateNullPercentage = 5
)

// RecommendationGenerator derives data-cleaning suggestions from profiler
// and classifier output. Recommendations are advisory text only; they never
// mutate the DDL.
type RecommendationGenerator struct {
	allNullPolicy config.AllNullPolicy
}

// NewRecommendationGenerator creates a generator honoring the configured
// all-null column policy.
func NewRecommendationGenerator(allNullPolicy config.AllNullPolicy) *RecommendationGenerator {
	return &RecommendationGenerator{allNullPolicy: allNullPolicy}
}

// Generate applies the deterministic rule set to one column.
func (g *RecommendationGenerator) Generate(profile models.ColumnProfile, ctype models.ColumnType, values []string) []string {
	var recs []string

	recs = append(recs, g.nullRateRecommendations(profile)...)
	recs = append(recs, g.cardinalityRecommendations(profile, ctype)...)
	recs = append(recs, g.formattingRecommendations(profile, ctype, values)...)
	recs = append(recs, g.numericRecommendations(profile, ctype)...)

	return recs
}

func (g *RecommendationGenerator) nullRateRecommendations(profile models.ColumnProfile) []string {
	var recs []string

	pct := profile.NullPercentage
	switch {
	case profile.TotalCount > 0 && profile.NullCount == profile.TotalCount:
		recs = append(recs, "Column contains no values at all")
		if g.allNullPolicy == config.AllNullPolicyFlag {
			recs = append(recs, "Consider excluding this column from the table")
		}
	case pct > highNullPercentage:
		recs = append(recs, fmt.Sprintf("High missing-data rate (%.1f%%) - consider dropping or imputing this column", pct))
	case pct >= mediumNullPercentage:
		recs = append(recs, fmt.Sprintf("High missing-data rate (%.1f%%) - investigate the data source", pct))
	case pct >= moderateNullPercentage:
		recs = append(recs, fmt.Sprintf("Moderate missing data (%.1f%%) - consider default values", pct))
	}

	return recs
}

func (g *RecommendationGenerator) cardinalityRecommendations(profile models.ColumnProfile, ctype models.ColumnType) []string {
	var recs []string

	nonNull := profile.TotalCount - profile.NullCount
	if nonNull == 0 {
		return nil
	}

	if profile.UniqueCount == profile.TotalCount && ctype.Logical != models.LogicalTypeIdentifier {
		recs = append(recs, "All values are distinct - candidate unique key")
	}
	if profile.UniqueCount == 1 && profile.TotalCount > 1 {
		recs = append(recs, "Column holds a single constant value - consider dropping it")
	}

	return recs
}

func (g *RecommendationGenerator) formattingRecommendations(profile models.ColumnProfile, ctype models.ColumnType, values []string) []string {
	var recs []string

	// A pattern that almost won means a handful of values break an
	// otherwise consistent format; name the offenders.
	if ctype.NearestLogical != "" && len(ctype.FailedExamples) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Inconsistent formatting detected: most values look like %s but e.g. %s do not",
			ctype.NearestLogical, quoteJoin(ctype.FailedExamples)))
	}

	switch ctype.Logical {
	case models.LogicalTypeFreeText, models.LogicalTypeCategorical:
		recs = append(recs, textQualityRecommendations(values)...)
	case models.LogicalTypePhone:
		if inconsistentLengths(values) {
			recs = append(recs, "Inconsistent phone number formats - consider standardization")
		}
	}

	return recs
}

func (g *RecommendationGenerator) numericRecommendations(profile models.ColumnProfile, ctype models.ColumnType) []string {
	if ctype.Logical != models.LogicalTypeInteger && ctype.Logical != models.LogicalTypeDecimal {
		return nil
	}
	ns := profile.Numeric
	if ns == nil || ns.OutlierCount == 0 {
		return nil
	}

	pct := float64(ns.OutlierCount) / float64(ns.Count) * 100
	return []string{fmt.Sprintf("Statistical outliers detected (%.1f%%) - review extreme values", pct)}
}

// textQualityRecommendations flags whitespace and casing noise in text
// columns.
func textQualityRecommendations(values []string) []string {
	var recs []string

	untrimmed := false
	lowered := make(map[string]struct{})
	exact := make(map[string]struct{})

	for _, raw := range values {
		if IsNullValue(raw) {
			continue
		}
		if raw != strings.TrimSpace(raw) {
			untrimmed = true
		}
		v := strings.TrimSpace(raw)
		exact[v] = struct{}{}
		lowered[strings.ToLower(v)] = struct{}{}
	}

	if untrimmed {
		recs = append(recs, "Leading/trailing whitespace detected - consider trimming")
	}
	if len(lowered) < len(exact) {
		recs = append(recs, "Inconsistent casing detected - standardize case if needed")
	}

	return recs
}

// inconsistentLengths reports whether non-null value lengths vary by more
// than two characters of standard deviation.
func inconsistentLengths(values []string) bool {
	var lengths []float64
	for _, raw := range values {
		if IsNullValue(raw) {
			continue
		}
		lengths = append(lengths, float64(len(strings.TrimSpace(raw))))
	}
	if len(lengths) < 2 {
		return false
	}
	sd, err := stats.StandardDeviation(lengths)
	return err == nil && sd > 2
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
