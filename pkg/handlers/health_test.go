package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemasense/schemasense-engine/pkg/models"
	"github.com/schemasense/schemasense-engine/pkg/services"
)

// stubDescriptions reports a fixed availability.
type stubDescriptions struct {
	available bool
}

func (s *stubDescriptions) Describe(_ context.Context, _ string, columns []models.ColumnAnalysis) ([]string, models.AugmentationStatus) {
	return make([]string, len(columns)), models.AugmentationDisabled
}

func (s *stubDescriptions) Available() bool { return s.available }

var _ services.DescriptionService = (*stubDescriptions)(nil)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name      string
		available bool
	}{
		{"augmenter up", true},
		{"augmenter down", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			h := NewHealthHandler(cfg, &stubDescriptions{available: tt.available}, zap.NewNop())

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			rec := httptest.NewRecorder()
			h.Health(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "healthy", resp.Status)
			assert.Equal(t, tt.available, resp.AugmenterAvailable)
			assert.Equal(t, "test", resp.Version)
		})
	}
}

func TestRegisterRoutes(t *testing.T) {
	cfg := testConfig()
	mux := http.NewServeMux()

	NewHealthHandler(cfg, &stubDescriptions{}, zap.NewNop()).RegisterRoutes(mux)
	NewAnalyzeHandler(cfg, &stubAnalyzer{result: &models.AnalysisResult{Success: true}}, zap.NewNop()).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Wrong method on the analyze route is rejected by the mux.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
