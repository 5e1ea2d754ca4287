package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/marinsell/onwater-studio/config"
	"github.com/marinsell/onwater-studio/models"
	"google.golang.org/api/option"
)

const (
	ValidationApproved = "approved"
	ValidationFlagged  = "flagged"
	ValidationSkipped  = "skipped"
)

// ValidateSceneImage asks the vision model to review a generated scene
// against the requested parameters and returns its verdict. Callers should
// treat an error as "validation unavailable", not as a bad image.
func ValidateSceneImage(ctx context.Context, imageData []byte, params models.SceneParams) (*models.ValidationResult, error) {
	if config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash")

	reviewPrompt := fmt.Sprintf(`You are a quality reviewer for AI-regenerated boat listing photos.
The attached image was generated from a dealership lot photo and should show the boat on the water.
Requested scene: location %q, mode %q, lighting %q, lens %q, aspect ratio %q.

Check for: a boat that looks physically plausible (hull, railings, proportions), water and lighting matching the requested scene, no leftover trailer/lot/pavement, no text artefacts or watermarks.

Reply with ONLY a JSON object, no markdown, in this exact shape:
{"status": "approved" or "flagged", "reasoning": "one or two sentences", "issues": ["short issue", ...]}
Use an empty issues array when approving.`,
		params.Location, params.Mode, params.Mood, params.Lens, params.AspectRatio)

	parts := []genai.Part{
		genai.Text(reviewPrompt),
		genai.ImageData("png", imageData),
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %v", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no verdict generated")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			raw.WriteString(string(text))
		}
	}

	return parseVerdict(raw.String())
}

// parseVerdict extracts the JSON verdict from the model reply. Models
// wrap JSON in markdown fences often enough that we strip them first.
func parseVerdict(raw string) (*models.ValidationResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var verdict models.ValidationResult
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return nil, fmt.Errorf("could not parse verdict %q: %v", truncate(raw, 120), err)
	}

	switch verdict.Status {
	case ValidationApproved, ValidationFlagged:
	default:
		verdict.Issues = append(verdict.Issues, fmt.Sprintf("reviewer returned unknown status %q", verdict.Status))
		verdict.Status = ValidationFlagged
	}

	return &verdict, nil
}
