// Package models holds the data types shared between the inference engine
// and its HTTP surface. Everything here is immutable after construction and
// serializes directly into the analyze response contract.
package models

import "slices"

// LogicalType is the semantic classification of a column's values,
// independent of storage representation.
type LogicalType string

const (
	LogicalTypeInteger     LogicalType = "integer"
	LogicalTypeDecimal     LogicalType = "decimal"
	LogicalTypeBoolean     LogicalType = "boolean"
	LogicalTypeDate        LogicalType = "date"
	LogicalTypeDatetime    LogicalType = "datetime"
	LogicalTypeEmail       LogicalType = "email"
	LogicalTypePhone       LogicalType = "phone"
	LogicalTypeIdentifier  LogicalType = "identifier"
	LogicalTypeCategorical LogicalType = "categorical-text"
	LogicalTypeFreeText    LogicalType = "free-text"
)

// ValidLogicalTypes contains all valid logical type values.
var ValidLogicalTypes = []LogicalType{
	LogicalTypeInteger,
	LogicalTypeDecimal,
	LogicalTypeBoolean,
	LogicalTypeDate,
	LogicalTypeDatetime,
	LogicalTypeEmail,
	LogicalTypePhone,
	LogicalTypeIdentifier,
	LogicalTypeCategorical,
	LogicalTypeFreeText,
}

// IsValidLogicalType checks if the given logical type is valid.
func IsValidLogicalType(t LogicalType) bool {
	return slices.Contains(ValidLogicalTypes, t)
}

// Dialect is the structural dialect inferred for a delimited-text file:
// the field separator and the text encoding the bytes decoded with.
type Dialect struct {
	Separator     rune   `json:"-"`
	SeparatorName string `json:"separator"` // "comma", "semicolon", "tab", "pipe"
	Encoding      string `json:"encoding"`  // "utf-8", "windows-1252", ...
}

// ColumnProfile holds per-column statistics computed from the raw values.
type ColumnProfile struct {
	Name           string   `json:"name"`
	TotalCount     int      `json:"total_count"`
	NullCount      int      `json:"null_count"`
	UniqueCount    int      `json:"unique_count"`
	NullPercentage float64  `json:"null_percentage"` // 0-100, 2 decimals
	SampleValues   []string `json:"sample_values"`   // first-seen distinct non-null values

	// Numeric side stats, present only when enough values parse as numbers.
	// Feeds physical type sizing and outlier recommendations.
	Numeric *NumericStats `json:"-"`

	// MaxValueLength is the longest non-null value in characters.
	MaxValueLength int `json:"-"`
}

// NumericStats summarizes the numeric interpretation of a column.
type NumericStats struct {
	Count      int     // values that parsed as numbers
	AllInteger bool    // every parsed value had no fractional part
	Min        float64
	Max        float64
	Q1         float64
	Q3         float64
	// OutlierCount is the number of values outside the 1.5*IQR fences.
	OutlierCount int
	// Maximum observed digit widths, for DECIMAL(p,s) sizing.
	MaxIntegerDigits  int
	MaxFractionDigits int
}

// ColumnType pairs a logical classification with the concrete MySQL column
// type chosen to store it. MatchRatio is the proportion of non-null values
// that matched the winning pattern (1.0 for the free-text fallback).
type ColumnType struct {
	Logical    LogicalType `json:"data_type"`
	Physical   string      `json:"mysql_type"`
	MatchRatio float64     `json:"-"`

	// FailedExamples holds values that broke an otherwise-dominant pattern,
	// surfaced in "inconsistent formatting" recommendations.
	FailedExamples []string    `json:"-"`
	NearestLogical LogicalType `json:"-"` // the type that almost won, if any
}

// ColumnAnalysis is everything the engine knows about one column, in the
// shape the response contract expects.
type ColumnAnalysis struct {
	Name            string   `json:"name"`
	DataType        string   `json:"data_type"`
	MySQLType       string   `json:"mysql_type"`
	SampleValues    []string `json:"sample_values"`
	NullCount       int      `json:"null_count"`
	UniqueCount     int      `json:"unique_count"`
	TotalCount      int      `json:"total_count"`
	NullPercentage  float64  `json:"null_percentage"`
	Description     string   `json:"description"`
	Recommendations []string `json:"cleaning_recommendations"`
}

// FileInfo is basic metadata about the parsed file.
type FileInfo struct {
	Name      string `json:"name"`
	Separator string `json:"separator"`
	Encoding  string `json:"encoding"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
}

// ReadWarnings counts recoverable row-shape problems found while reading.
// These never fail an analysis.
type ReadWarnings struct {
	ShortRows int `json:"short_rows"` // rows padded with nulls
	LongRows  int `json:"long_rows"`  // rows truncated to the header width
}

// Total returns the combined warning count.
func (w ReadWarnings) Total() int {
	return w.ShortRows + w.LongRows
}

// AnalysisSummary holds the roll-up statistics for the overview.
type AnalysisSummary struct {
	TotalColumns         int     `json:"total_columns"`
	ColumnsWithNulls     int     `json:"columns_with_nulls"`
	AvgNullPercentage    float64 `json:"avg_null_percentage"`
	TotalRecommendations int     `json:"total_recommendations"`
}

// AugmentationStatus tags how column descriptions were produced.
type AugmentationStatus string

const (
	// AugmentationLive means the external description service answered.
	AugmentationLive AugmentationStatus = "live"
	// AugmentationDegraded means the service failed or timed out and
	// rule-based fallback descriptions were used instead.
	AugmentationDegraded AugmentationStatus = "degraded"
	// AugmentationDisabled means no live service was configured.
	AugmentationDisabled AugmentationStatus = "disabled"
)

// AnalysisResult is the aggregate root for one completed analysis. It is
// created once per request and never persisted.
type AnalysisResult struct {
	Success      bool               `json:"success"`
	TableName    string             `json:"table_name"`
	FileInfo     FileInfo           `json:"file_info"`
	DDL          string             `json:"ddl"`
	Columns      []ColumnAnalysis   `json:"columns"`
	Summary      AnalysisSummary    `json:"summary"`
	Warnings     ReadWarnings       `json:"warnings"`
	Augmentation AugmentationStatus `json:"augmentation"`
}
