package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/marinsell/onwater-studio/models"
	"github.com/marinsell/onwater-studio/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateResponse struct {
	BatchID string               `json:"batch_id"`
	Results []models.SceneResult `json:"results"`
}

func validFields() map[string]string {
	return map[string]string{
		"location":    "Tampa Bay",
		"mode":        "cruising",
		"mood":        "golden-hour",
		"lens":        "drone",
		"aspectRatio": "16:9",
		"emphasis":    `["gleaming gelcoat"]`,
	}
}

// newGenerateRequest builds a multipart POST the way the browser form does
func newGenerateRequest(t *testing.T, fields map[string]string, fileNames ...string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	for _, name := range fileNames {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
		header.Set("Content-Type", "image/jpeg")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake-jpeg-bytes-for-" + name))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req.WithContext(ContextWithUserID(req.Context(), "tester"))
}

// stubProviders replaces the external calls with in-memory fakes and
// restores the real ones when the test finishes
func stubProviders(t *testing.T) {
	t.Helper()

	origPrimary := generatePrimary
	origFallback := generateFallback
	origValidate := validateImage
	origUpload := uploadObject
	origPresign := presignObject
	t.Cleanup(func() {
		generatePrimary = origPrimary
		generateFallback = origFallback
		validateImage = origValidate
		uploadObject = origUpload
		presignObject = origPresign
	})

	generatePrimary = func(ctx context.Context, scenePrompt string, imageData []byte, imageFormat string) ([]byte, error) {
		return []byte("generated-png"), nil
	}
	generateFallback = func(ctx context.Context, scenePrompt string, aspectRatio string) ([]byte, error) {
		return []byte("fallback-png"), nil
	}
	validateImage = func(ctx context.Context, imageData []byte, params models.SceneParams) (*models.ValidationResult, error) {
		return &models.ValidationResult{Status: utils.ValidationApproved, Reasoning: "looks plausible"}, nil
	}
	uploadObject = func(ctx context.Context, file io.Reader, objectKey string, contentType string) (string, error) {
		return objectKey, nil
	}
	presignObject = func(ctx context.Context, objectKey string) (string, error) {
		return "https://signed.example.com/" + objectKey, nil
	}
}

func doGenerate(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, generateResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	GenerateScenesHandler(rec, req)

	var resp generateResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestGenerateScenesMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	GenerateScenesHandler(rec, httptest.NewRequest(http.MethodGet, "/generate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGenerateScenesRejectsUnknownMode(t *testing.T) {
	stubProviders(t)
	fields := validFields()
	fields["mode"] = "submerged"
	rec, _ := doGenerate(t, newGenerateRequest(t, fields, "boat.jpg"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "mode")
}

func TestGenerateScenesRejectsBadEmphasis(t *testing.T) {
	stubProviders(t)
	fields := validFields()
	fields["emphasis"] = "not-json"
	rec, _ := doGenerate(t, newGenerateRequest(t, fields, "boat.jpg"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateScenesRequiresImages(t *testing.T) {
	stubProviders(t)
	rec, _ := doGenerate(t, newGenerateRequest(t, validFields()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateScenesRejectsTooManyFiles(t *testing.T) {
	stubProviders(t)

	names := make([]string, maxBatchFiles+1)
	for i := range names {
		names[i] = fmt.Sprintf("boat-%d.jpg", i)
	}

	rec, _ := doGenerate(t, newGenerateRequest(t, validFields(), names...))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("At most %d images", maxBatchFiles))
}

func TestGenerateScenesOversizeFileFailsItemOnly(t *testing.T) {
	stubProviders(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range validFields() {
		require.NoError(t, writer.WriteField(key, value))
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="images"; filename="whale.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), maxUploadBytes+1))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = req.WithContext(ContextWithUserID(req.Context(), "tester"))

	rec, resp := doGenerate(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "failed", resp.Results[0].Status)
	assert.Contains(t, resp.Results[0].Error, "exceeds")
}

func TestGenerateScenesCompletesWithPrimary(t *testing.T) {
	stubProviders(t)

	rec, resp := doGenerate(t, newGenerateRequest(t, validFields(), "bayliner.jpg"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Results, 1)

	result := resp.Results[0]
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, "bayliner.jpg", result.FileName)
	assert.Equal(t, "gemini", result.Metadata.Engine)
	assert.Equal(t, "cruising", result.Metadata.Mode)
	assert.NotEmpty(t, result.ID)
	assert.Contains(t, result.ImageURL, "https://signed.example.com/generated_scenes/")
	require.NotNil(t, result.Validation)
	assert.Equal(t, utils.ValidationApproved, result.Validation.Status)
	assert.NotEmpty(t, resp.BatchID)
}

func TestGenerateScenesFallsBackWhenPrimaryFails(t *testing.T) {
	stubProviders(t)
	generatePrimary = func(ctx context.Context, scenePrompt string, imageData []byte, imageFormat string) ([]byte, error) {
		return nil, fmt.Errorf("quota exceeded")
	}

	rec, resp := doGenerate(t, newGenerateRequest(t, validFields(), "pontoon.jpg"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "completed", resp.Results[0].Status)
	assert.Equal(t, "dalle", resp.Results[0].Metadata.Engine)
}

func TestGenerateScenesItemFailsWhenBothProvidersFail(t *testing.T) {
	stubProviders(t)
	generatePrimary = func(ctx context.Context, scenePrompt string, imageData []byte, imageFormat string) ([]byte, error) {
		return nil, fmt.Errorf("primary down")
	}
	generateFallback = func(ctx context.Context, scenePrompt string, aspectRatio string) ([]byte, error) {
		return nil, fmt.Errorf("fallback down")
	}

	rec, resp := doGenerate(t, newGenerateRequest(t, validFields(), "skiff.jpg", "cuddy.jpg"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Results, 2)

	for _, result := range resp.Results {
		assert.Equal(t, "failed", result.Status)
		assert.Contains(t, result.Error, "primary down")
		assert.Contains(t, result.Error, "fallback down")
		assert.Empty(t, result.ImageURL)
	}
}

func TestGenerateScenesValidationErrorIsSkippedNotFatal(t *testing.T) {
	stubProviders(t)
	validateImage = func(ctx context.Context, imageData []byte, params models.SceneParams) (*models.ValidationResult, error) {
		return nil, fmt.Errorf("validator offline")
	}

	rec, resp := doGenerate(t, newGenerateRequest(t, validFields(), "boat.jpg"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Results, 1)

	result := resp.Results[0]
	assert.Equal(t, "completed", result.Status)
	require.NotNil(t, result.Validation)
	assert.Equal(t, utils.ValidationSkipped, result.Validation.Status)
	assert.Contains(t, result.Validation.Reasoning, "validator offline")
}

func TestGenerateScenesFailedItemDoesNotAbortBatch(t *testing.T) {
	stubProviders(t)
	calls := 0
	generatePrimary = func(ctx context.Context, scenePrompt string, imageData []byte, imageFormat string) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("bad input")
		}
		return []byte("generated-png"), nil
	}
	generateFallback = func(ctx context.Context, scenePrompt string, aspectRatio string) ([]byte, error) {
		return nil, fmt.Errorf("no fallback either")
	}

	rec, resp := doGenerate(t, newGenerateRequest(t, validFields(), "first.jpg", "second.jpg"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Results, 2)

	assert.Equal(t, "failed", resp.Results[0].Status)
	assert.Equal(t, "completed", resp.Results[1].Status)
	assert.Equal(t, "gemini", resp.Results[1].Metadata.Engine)
}

func TestGenerateScenesStorageFailureFailsItem(t *testing.T) {
	stubProviders(t)
	uploadObject = func(ctx context.Context, file io.Reader, objectKey string, contentType string) (string, error) {
		return "", fmt.Errorf("bucket unreachable")
	}

	rec, resp := doGenerate(t, newGenerateRequest(t, validFields(), "boat.jpg"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "failed", resp.Results[0].Status)
	assert.Contains(t, resp.Results[0].Error, "bucket unreachable")
}
