package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemasense/schemasense-engine/pkg/apperrors"
	"github.com/schemasense/schemasense-engine/pkg/config"
	"github.com/schemasense/schemasense-engine/pkg/llm"
	"github.com/schemasense/schemasense-engine/pkg/models"
	"github.com/schemasense/schemasense-engine/pkg/services"
)

// stubAnalyzer lets handler tests control the pipeline outcome.
type stubAnalyzer struct {
	result  *models.AnalysisResult
	err     error
	lastReq services.AnalyzeRequest
}

func (s *stubAnalyzer) Analyze(_ context.Context, req services.AnalyzeRequest) (*models.AnalysisResult, error) {
	s.lastReq = req
	return s.result, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Version: "test",
		Upload: config.UploadConfig{
			MaxFileSizeBytes:  1024,
			AllowedExtensions: []string{".csv", ".tsv", ".txt"},
		},
	}
}

// multipartBody builds an upload request body with the given file and fields.
func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postAnalyze(t *testing.T, h *AnalyzeHandler, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)
	return rec
}

func TestAnalyzeHandler_Success(t *testing.T) {
	stub := &stubAnalyzer{result: &models.AnalysisResult{
		Success:   true,
		TableName: "people",
		DDL:       "CREATE TABLE `people` ();",
	}}
	h := NewAnalyzeHandler(testConfig(), stub, zap.NewNop())

	rec := postAnalyze(t, h, "people.csv", "id,name\n1,alice\n", map[string]string{"table_name": "people"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "people", result.TableName)

	assert.Equal(t, "people.csv", stub.lastReq.FileName)
	assert.Equal(t, "people", stub.lastReq.TableName)
	assert.Equal(t, "id,name\n1,alice\n", string(stub.lastReq.Content))
}

func TestAnalyzeHandler_DefaultTableName(t *testing.T) {
	stub := &stubAnalyzer{result: &models.AnalysisResult{Success: true}}
	h := NewAnalyzeHandler(testConfig(), stub, zap.NewNop())

	rec := postAnalyze(t, h, "data.csv", "a\n1\n", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "my_table", stub.lastReq.TableName)
}

func TestAnalyzeHandler_Validation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{"missing file", "", ""},
		{"bad extension", "data.xlsx", "a\n1\n"},
		{"empty file", "data.csv", ""},
		{"oversized file", "data.csv", string(bytes.Repeat([]byte("a"), 2048))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAnalyzer{result: &models.AnalysisResult{Success: true}}
			h := NewAnalyzeHandler(testConfig(), stub, zap.NewNop())

			rec := postAnalyze(t, h, tt.filename, tt.content, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var errResp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, false, errResp["success"])
			assert.Equal(t, "validation_failed", errResp["error"])
		})
	}
}

func TestAnalyzeHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"encoding", fmt.Errorf("stage received: %w", apperrors.ErrEncoding), http.StatusUnprocessableEntity, "encoding_error"},
		{"empty", fmt.Errorf("stage dialect_detected: %w", apperrors.ErrEmptyFile), http.StatusUnprocessableEntity, "empty_file"},
		{"timeout", fmt.Errorf("stage parsed: %w", apperrors.ErrTimeout), http.StatusGatewayTimeout, "timeout"},
		{"unexpected", fmt.Errorf("stage classified: boom"), http.StatusInternalServerError, "analysis_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAnalyzer{err: tt.err}
			h := NewAnalyzeHandler(testConfig(), stub, zap.NewNop())

			rec := postAnalyze(t, h, "data.csv", "a\n1\n", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var errResp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, tt.wantCode, errResp["error"])
		})
	}
}

func TestAnalyzeHandler_FullStack(t *testing.T) {
	logger := zap.NewNop()
	cfg := testConfig()

	analyzer := services.NewAnalyzerService(
		services.AnalyzerConfig{AnalysisTimeout: 30 * time.Second, SampleValueLimit: 5},
		services.NewDialectDetector(logger),
		services.NewTabularReader(logger),
		services.NewTypeClassifier(0.90, config.AllNullPolicyVarchar),
		services.NewRecommendationGenerator(config.AllNullPolicyVarchar),
		services.NewFallbackDescriptionService(),
		llm.NewWorkerPool(llm.DefaultWorkerPoolConfig(), logger),
		logger,
	)
	h := NewAnalyzeHandler(cfg, analyzer, logger)

	rec := postAnalyze(t, h, "people.csv", "id,email\n1,a@x.com\n2,b@y.org\n",
		map[string]string{"table_name": "people"})

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Contains(t, result.DDL, "CREATE TABLE `people`")
	require.Len(t, result.Columns, 2)
	assert.Equal(t, "integer", result.Columns[0].DataType)
	assert.Equal(t, "email", result.Columns[1].DataType)
	assert.Equal(t, string(models.AugmentationDisabled), string(result.Augmentation))
}

func TestErrMessage_StripsStagePrefix(t *testing.T) {
	err := fmt.Errorf("stage parsed: %w", apperrors.ErrEmptyFile)
	assert.Equal(t, apperrors.ErrEmptyFile.Error(), errMessage(err))
}
