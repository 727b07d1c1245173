package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/schemasense/schemasense-engine/pkg/apperrors"
	"github.com/schemasense/schemasense-engine/pkg/llm"
	"github.com/schemasense/schemasense-engine/pkg/models"
)

// Stage identifies how far an analysis progressed. Failures are logged with
// the stage they occurred in.
type Stage string

const (
	StageReceived             Stage = "received"
	StageDialectDetected      Stage = "dialect_detected"
	StageParsed               Stage = "parsed"
	StageProfiled             Stage = "profiled"
	StageClassified           Stage = "classified"
	StageSynthesized          Stage = "synthesized"
	StageDescriptionAugmented Stage = "description_augmented"
	StageCompleted            Stage = "completed"
	StageFailed               Stage = "failed"
)

// AnalyzeRequest carries one file through the pipeline. The content is
// discarded when the analysis completes; nothing is persisted.
type AnalyzeRequest struct {
	FileName  string
	TableName string
	Content   []byte
}

// AnalyzerService sequences the inference pipeline: dialect detection,
// reading, per-column profiling and classification, recommendations, DDL
// synthesis, and the optional description augmentation. Stateless and safe
// for concurrent use.
type AnalyzerService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*models.AnalysisResult, error)
}

// AnalyzerConfig bundles the orchestrator tuning knobs.
type AnalyzerConfig struct {
	AnalysisTimeout  time.Duration
	SampleValueLimit int
}

type analyzerService struct {
	cfg          AnalyzerConfig
	detector     DialectDetector
	reader       TabularReader
	classifier   *TypeClassifier
	recommender  *RecommendationGenerator
	descriptions DescriptionService
	pool         *llm.WorkerPool
	logger       *zap.Logger
}

// NewAnalyzerService wires the pipeline components together.
func NewAnalyzerService(
	cfg AnalyzerConfig,
	detector DialectDetector,
	reader TabularReader,
	classifier *TypeClassifier,
	recommender *RecommendationGenerator,
	descriptions DescriptionService,
	pool *llm.WorkerPool,
	logger *zap.Logger,
) AnalyzerService {
	return &analyzerService{
		cfg:          cfg,
		detector:     detector,
		reader:       reader,
		classifier:   classifier,
		recommender:  recommender,
		descriptions: descriptions,
		pool:         pool,
		logger:       logger.Named("analyzer"),
	}
}

var _ AnalyzerService = (*analyzerService)(nil)

// columnResult is the joined output of one per-column worker.
type columnResult struct {
	index   int
	profile models.ColumnProfile
	ctype   models.ColumnType
	recs    []string
}

// Analyze runs the full pipeline under the configured wall-clock budget.
func (s *analyzerService) Analyze(ctx context.Context, req AnalyzeRequest) (*models.AnalysisResult, error) {
	requestID := uuid.New()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
	defer cancel()

	logger := s.logger.With(
		zap.String("request_id", requestID.String()),
		zap.String("file", req.FileName))
	logger.Info("Analysis started", zap.Int("bytes", len(req.Content)))

	stage := StageReceived

	text, dialect, err := s.detector.Detect(req.Content)
	if err != nil {
		return nil, s.fail(logger, stage, err)
	}
	stage = StageDialectDetected

	data, err := s.reader.Read(text, dialect)
	if err != nil {
		return nil, s.fail(logger, stage, err)
	}
	stage = StageParsed

	columns, err := s.analyzeColumns(ctx, data)
	if err != nil {
		return nil, s.fail(logger, stage, err)
	}
	stage = StageClassified

	ddl := s.synthesize(req.TableName, columns)
	stage = StageSynthesized

	// Descriptions come last and are non-fatal: the DDL and summary above
	// never depend on the augmenter outcome.
	descriptions, augStatus := s.describe(ctx, req.TableName, columns)
	for i := range columns {
		columns[i].Description = descriptions[i]
	}
	stage = StageDescriptionAugmented

	result := &models.AnalysisResult{
		Success:   true,
		TableName: SanitizeIdentifier(req.TableName),
		FileInfo: models.FileInfo{
			Name:      req.FileName,
			Separator: dialect.SeparatorName,
			Encoding:  dialect.Encoding,
			Rows:      data.RowCount,
			Columns:   len(data.Header),
		},
		DDL:          ddl,
		Columns:      columns,
		Summary:      summarize(columns),
		Warnings:     data.Warnings,
		Augmentation: augStatus,
	}
	stage = StageCompleted

	logger.Info("Analysis completed",
		zap.String("stage", string(stage)),
		zap.Int("rows", data.RowCount),
		zap.Int("columns", len(columns)),
		zap.String("augmentation", string(augStatus)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// analyzeColumns profiles and classifies every column in parallel on the
// bounded worker pool, then re-joins results in source column order.
func (s *analyzerService) analyzeColumns(ctx context.Context, data *TableData) ([]models.ColumnAnalysis, error) {
	items := make([]llm.WorkItem[columnResult], len(data.Header))
	for i := range data.Header {
		index := i
		name := data.Header[i]
		values := data.Columns[i]
		items[i] = llm.WorkItem[columnResult]{
			ID: strconv.Itoa(index),
			Execute: func(ctx context.Context) (columnResult, error) {
				profile := ProfileColumn(name, values, s.cfg.SampleValueLimit)
				ctype := s.classifier.Classify(profile, values)
				recs := s.recommender.Generate(profile, ctype, values)
				return columnResult{index: index, profile: profile, ctype: ctype, recs: recs}, nil
			},
		}
	}

	results := llm.Process(ctx, s.pool, items)

	ordered := make([]models.ColumnAnalysis, len(items))
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		ordered[r.Result.index] = models.ColumnAnalysis{
			Name:            r.Result.profile.Name,
			DataType:        string(r.Result.ctype.Logical),
			MySQLType:       r.Result.ctype.Physical,
			SampleValues:    r.Result.profile.SampleValues,
			NullCount:       r.Result.profile.NullCount,
			UniqueCount:     r.Result.profile.UniqueCount,
			TotalCount:      r.Result.profile.TotalCount,
			NullPercentage:  r.Result.profile.NullPercentage,
			Recommendations: r.Result.recs,
		}
	}
	return ordered, nil
}

// synthesize renders the CREATE TABLE statement from the classified columns,
// sanitizing header names with collision disambiguation.
func (s *analyzerService) synthesize(tableName string, columns []models.ColumnAnalysis) string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	sanitized := SanitizeColumnNames(names)

	ddlColumns := make([]DDLColumn, len(columns))
	for i, col := range columns {
		ddlColumns[i] = DDLColumn{
			Name:     sanitized[i],
			Type:     col.MySQLType,
			Nullable: col.NullCount > 0,
		}
	}
	return SynthesizeDDL(tableName, ddlColumns)
}

// describe invokes the description service, shielding the pipeline from its
// failure modes. A cancelled context degrades rather than fails.
func (s *analyzerService) describe(ctx context.Context, tableName string, columns []models.ColumnAnalysis) ([]string, models.AugmentationStatus) {
	descriptions, status := s.descriptions.Describe(ctx, tableName, columns)
	if len(descriptions) != len(columns) {
		// A misbehaving implementation must not unwind the computed result.
		fixed := make([]string, len(columns))
		copy(fixed, descriptions)
		return fixed, models.AugmentationDegraded
	}
	return descriptions, status
}

func summarize(columns []models.ColumnAnalysis) models.AnalysisSummary {
	summary := models.AnalysisSummary{TotalColumns: len(columns)}
	if len(columns) == 0 {
		return summary
	}

	pcts := make([]float64, len(columns))
	for i, col := range columns {
		pcts[i] = col.NullPercentage
		if col.NullCount > 0 {
			summary.ColumnsWithNulls++
		}
		summary.TotalRecommendations += len(col.Recommendations)
	}

	if mean, err := stats.Mean(pcts); err == nil {
		summary.AvgNullPercentage = math.Round(mean*100) / 100
	}
	return summary
}

// fail converts a stage error into the caller-facing form, mapping context
// expiry onto the timeout sentinel.
func (s *analyzerService) fail(logger *zap.Logger, stage Stage, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s", apperrors.ErrTimeout, err)
	}
	logger.Error("Analysis failed",
		zap.String("stage", string(stage)),
		zap.Error(err))
	return fmt.Errorf("stage %s: %w", stage, err)
}
