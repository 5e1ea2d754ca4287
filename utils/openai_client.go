package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marinsell/onwater-studio/config"
	"github.com/marinsell/onwater-studio/prompt"
)

// Generous cap for one base64-encoded image plus JSON envelope
const maxFallbackResponseBytes = 32 << 20

// imageGenerationRequest is the payload for the DALL-E images endpoint
type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

// imageGenerationResponse is the DALL-E images endpoint response
type imageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateFallbackImage generates a scene image via the DALL-E REST API.
// Used when the primary generator fails; it only gets the text prompt, so
// the result is a fresh render rather than an edit of the upload.
func GenerateFallbackImage(ctx context.Context, scenePrompt string, aspectRatio string) ([]byte, error) {
	if config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	reqBody := imageGenerationRequest{
		Model:          "dall-e-3",
		Prompt:         scenePrompt,
		N:              1,
		Size:           prompt.AspectRatioSize(aspectRatio),
		ResponseFormat: "b64_json",
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.OpenAIBaseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.OpenAIAPIKey)

	client := &http.Client{Timeout: 3 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fallback request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFallbackResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback response: %v", err)
	}

	var result imageGenerationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode fallback response (status %d): %v", resp.StatusCode, err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("fallback API error: %s", result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback API returned status %d", resp.StatusCode)
	}
	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("fallback API returned no image data")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %v", err)
	}

	return imageBytes, nil
}
