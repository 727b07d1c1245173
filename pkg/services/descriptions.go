package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/schemasense/schemasense-engine/pkg/llm"
	"github.com/schemasense/schemasense-engine/pkg/models"
)

// maxDescriptionLength caps each column description.
const maxDescriptionLength = 200

// DescriptionService produces a human-readable description per column.
// Implementations must degrade rather than fail: Describe always returns a
// description slice aligned with the input columns.
type DescriptionService interface {
	// Describe returns one description per column plus a status tag telling
	// the caller how the descriptions were produced.
	Describe(ctx context.Context, tableName string, columns []models.ColumnAnalysis) ([]string, models.AugmentationStatus)

	// Available reports whether a live text-generation backend is reachable
	// in principle (configured and circuit not tripped). Used by the health
	// endpoint; performs no generation call.
	Available() bool
}

// --- Fallback implementation ---

// fallbackDescriptionService derives rule-based descriptions from column
// names and types. Selected at startup when no live augmenter is configured,
// and used per batch when the live service fails.
type fallbackDescriptionService struct{}

// NewFallbackDescriptionService creates the rule-based description service.
func NewFallbackDescriptionService() DescriptionService {
	return &fallbackDescriptionService{}
}

var _ DescriptionService = (*fallbackDescriptionService)(nil)

func (s *fallbackDescriptionService) Describe(_ context.Context, _ string, columns []models.ColumnAnalysis) ([]string, models.AugmentationStatus) {
	descriptions := make([]string, len(columns))
	for i, col := range columns {
		descriptions[i] = fallbackDescription(col)
	}
	return descriptions, models.AugmentationDisabled
}

func (s *fallbackDescriptionService) Available() bool {
	return false
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// humanizeName converts snake_case or camelCase column names into lower-case
// words, singularizing the final word ("user_ids" -> "user id").
func humanizeName(name string) string {
	spaced := strings.ReplaceAll(name, "_", " ")
	spaced = camelBoundary.ReplaceAllString(spaced, "$1 $2")
	words := strings.Fields(strings.ToLower(spaced))
	if len(words) == 0 {
		return name
	}
	words[len(words)-1] = inflection.Singular(words[len(words)-1])
	return strings.Join(words, " ")
}

func nameContainsAny(name string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

// fallbackDescription generates a rule-based description for one column.
func fallbackDescription(col models.ColumnAnalysis) string {
	name := strings.ToLower(col.Name)
	human := humanizeName(col.Name)

	var desc string
	switch {
	case nameContainsAny(name, "id", "key", "pk"):
		desc = fmt.Sprintf("Unique identifier field for %s", human)
	case nameContainsAny(name, "name", "title"):
		desc = "Name or title field containing descriptive text"
	case nameContainsAny(name, "date", "time", "created", "updated", "modified"):
		desc = fmt.Sprintf("Timestamp field for %s events", human)
	case nameContainsAny(name, "email", "mail"):
		desc = "Email address field"
	case nameContainsAny(name, "phone", "tel", "mobile"):
		desc = "Phone number field supporting various formats"
	case nameContainsAny(name, "address", "addr", "location"):
		desc = fmt.Sprintf("Address field storing %s information", human)
	case nameContainsAny(name, "amount", "price", "cost", "total", "sum"):
		desc = fmt.Sprintf("Monetary value field for %s", human)
	case nameContainsAny(name, "count", "qty", "quantity"):
		desc = fmt.Sprintf("Numeric count field tracking %s", human)
	case nameContainsAny(name, "status", "state", "flag"):
		desc = fmt.Sprintf("Status indicator field for %s", human)
	case col.DataType == string(models.LogicalTypeBoolean):
		desc = fmt.Sprintf("Boolean flag indicating %s state", human)
	case col.DataType == string(models.LogicalTypeInteger) || col.DataType == string(models.LogicalTypeDecimal):
		desc = fmt.Sprintf("Numeric field (%s) with %d unique values", col.MySQLType, col.UniqueCount)
	default:
		desc = fmt.Sprintf("Data field of type %s with %d distinct values", col.MySQLType, col.UniqueCount)
	}

	if col.NullPercentage > mediumNullPercentage {
		desc += fmt.Sprintf(" (high null rate: %.1f%%)", col.NullPercentage)
	}

	if len(desc) > maxDescriptionLength {
		desc = desc[:maxDescriptionLength]
	}
	return desc
}

// --- Live implementation ---

// LiveDescriptionConfig configures the LLM-backed description service.
type LiveDescriptionConfig struct {
	BatchSize int           // columns per generation call
	Timeout   time.Duration // per-call budget, shorter than the analysis budget
}

// liveDescriptionService asks an OpenAI-compatible endpoint for column
// descriptions in batches, degrading per batch to the rule-based fallback on
// any failure. A circuit breaker keeps a dead provider from slowing every
// analysis.
type liveDescriptionService struct {
	client   llm.DescriptionClient
	breaker  *llm.CircuitBreaker
	fallback DescriptionService
	cfg      LiveDescriptionConfig
	logger   *zap.Logger
}

// NewLiveDescriptionService creates the LLM-backed description service.
func NewLiveDescriptionService(client llm.DescriptionClient, breaker *llm.CircuitBreaker, cfg LiveDescriptionConfig, logger *zap.Logger) DescriptionService {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 15
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &liveDescriptionService{
		client:   client,
		breaker:  breaker,
		fallback: NewFallbackDescriptionService(),
		cfg:      cfg,
		logger:   logger.Named("descriptions"),
	}
}

var _ DescriptionService = (*liveDescriptionService)(nil)

func (s *liveDescriptionService) Available() bool {
	return s.breaker.State() != llm.CircuitOpen
}

func (s *liveDescriptionService) Describe(ctx context.Context, tableName string, columns []models.ColumnAnalysis) ([]string, models.AugmentationStatus) {
	descriptions := make([]string, len(columns))
	status := models.AugmentationLive

	for start := 0; start < len(columns); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(columns))
		batch := columns[start:end]

		generated, err := s.describeBatch(ctx, tableName, batch)
		if err != nil {
			s.logger.Warn("Description batch degraded to fallback",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			generated, _ = s.fallback.Describe(ctx, tableName, batch)
			status = models.AugmentationDegraded
		}
		copy(descriptions[start:], generated)
	}

	return descriptions, status
}

// descriptionsPayload is the strict JSON shape requested from the model.
type descriptionsPayload struct {
	Descriptions []string `json:"descriptions"`
}

const descriptionSystemMessage = "You are a data engineer documenting database columns. " +
	"Answer with strict JSON only, no prose."

func (s *liveDescriptionService) describeBatch(ctx context.Context, tableName string, batch []models.ColumnAnalysis) ([]string, error) {
	if ok, err := s.breaker.Allow(); !ok {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	response, err := s.client.GenerateResponse(callCtx, s.buildPrompt(tableName, batch), descriptionSystemMessage, 0.1)
	if err != nil {
		s.breaker.RecordFailure()
		return nil, fmt.Errorf("generate descriptions: %w", err)
	}

	payload, err := llm.ParseJSONResponse[descriptionsPayload](response)
	if err != nil {
		s.breaker.RecordFailure()
		return nil, fmt.Errorf("parse description response: %w", err)
	}
	if len(payload.Descriptions) != len(batch) {
		s.breaker.RecordFailure()
		return nil, fmt.Errorf("expected %d descriptions, got %d", len(batch), len(payload.Descriptions))
	}

	s.breaker.RecordSuccess()

	descriptions := make([]string, len(batch))
	for i, desc := range payload.Descriptions {
		desc = strings.TrimSpace(desc)
		if len(desc) > maxDescriptionLength {
			desc = desc[:maxDescriptionLength]
		}
		descriptions[i] = desc
	}
	return descriptions, nil
}

func (s *liveDescriptionService) buildPrompt(tableName string, batch []models.ColumnAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table %q has these columns:\n", tableName)
	for _, col := range batch {
		fmt.Fprintf(&b, "- %s (%s)", col.Name, col.MySQLType)
		if len(col.SampleValues) > 0 {
			fmt.Fprintf(&b, ": e.g. %s", col.SampleValues[0])
		}
		if col.NullPercentage > mediumNullPercentage {
			fmt.Fprintf(&b, " [%.0f%% nulls]", col.NullPercentage)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nWrite one concise business description (max %d characters) per column.\n", maxDescriptionLength)
	b.WriteString(`Return JSON: {"descriptions": ["...", ...]} with exactly one entry per column, in order.`)
	return b.String()
}
