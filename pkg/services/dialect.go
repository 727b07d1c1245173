package services

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/schemasense/schemasense-engine/pkg/apperrors"
	"github.com/schemasense/schemasense-engine/pkg/models"
)

// separatorCandidates lists the candidate separators in tie-break priority
// order.
var separatorCandidates = []struct {
	sep  rune
	name string
}{
	{',', "comma"},
	{';', "semicolon"},
	{'\t', "tab"},
	{'|', "pipe"},
}

// sampleLineLimit is how many leading non-blank lines feed separator scoring.
const sampleLineLimit = 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DialectDetector determines the field separator and text encoding of a
// delimited-text file from its raw bytes.
type DialectDetector interface {
	// Detect returns the decoded text together with the inferred dialect.
	Detect(raw []byte) (string, models.Dialect, error)
}

type dialectDetector struct {
	logger *zap.Logger
}

// NewDialectDetector creates a new dialect detector.
func NewDialectDetector(logger *zap.Logger) DialectDetector {
	return &dialectDetector{logger: logger.Named("dialect")}
}

var _ DialectDetector = (*dialectDetector)(nil)

// Detect decodes the raw bytes against the supported encodings (UTF-8 first,
// then legacy single-byte fallbacks) and scores candidate separators over the
// leading lines. Exactly one separator is always chosen; single-column files
// fall back to comma.
func (d *dialectDetector) Detect(raw []byte) (string, models.Dialect, error) {
	text, encoding, err := decodeText(raw)
	if err != nil {
		return "", models.Dialect{}, fmt.Errorf("decode file: %w", err)
	}

	sep, name := detectSeparator(text)

	d.logger.Debug("Dialect detected",
		zap.String("encoding", encoding),
		zap.String("separator", name))

	return text, models.Dialect{
		Separator:     sep,
		SeparatorName: name,
		Encoding:      encoding,
	}, nil
}

// decodeText attempts each supported encoding in order and returns the first
// clean decode. Windows-1252 leaves a handful of bytes undefined, which the
// decoder maps to U+FFFD; such a decode is not clean. ISO 8859-1 defines all
// 256 bytes and is the terminal fallback.
func decodeText(raw []byte) (string, string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}

	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
		if !bytes.ContainsRune(decoded, utf8.RuneError) {
			return string(decoded), "windows-1252", nil
		}
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", "", apperrors.ErrEncoding
	}
	return string(decoded), "iso-8859-1", nil
}

// detectSeparator counts candidate separator occurrences per sampled line and
// chooses the candidate with the most consistent non-zero count (lowest
// variance). Ties break by the fixed candidate priority order. A file where
// no candidate appears on every sampled line is treated as single-column and
// falls back to comma.
func detectSeparator(text string) (rune, string) {
	lines := sampleLines(text, sampleLineLimit)
	if len(lines) == 0 {
		return ',', "comma"
	}

	bestIdx := -1
	bestVariance := 0.0

	for i, cand := range separatorCandidates {
		counts := make([]float64, 0, len(lines))
		nonZeroEverywhere := true
		for _, line := range lines {
			n := strings.Count(line, string(cand.sep))
			if n == 0 {
				nonZeroEverywhere = false
				break
			}
			counts = append(counts, float64(n))
		}
		if !nonZeroEverywhere {
			continue
		}

		variance, err := stats.PopulationVariance(counts)
		if err != nil {
			continue
		}

		// Strictly-lower variance wins; equal variance keeps the earlier
		// (higher priority) candidate.
		if bestIdx == -1 || variance < bestVariance {
			bestIdx = i
			bestVariance = variance
		}
	}

	if bestIdx == -1 {
		return ',', "comma"
	}
	return separatorCandidates[bestIdx].sep, separatorCandidates[bestIdx].name
}

// sampleLines returns up to limit leading non-blank lines.
func sampleLines(text string, limit int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) >= limit {
			break
		}
	}
	return lines
}
